package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/codebuild/types"
	"github.com/savaki/entity-builder/internal/catalog"
	"github.com/savaki/entity-builder/internal/di"
	"github.com/savaki/entity-builder/internal/models"
	"github.com/savaki/gox/slicex"
	"github.com/urfave/cli/v2"
)

// commonFlags are shared by every command that operates on an entity
func commonFlags(extra ...cli.Flag) []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "env",
			Aliases: []string{"e"},
			Usage:   "Entity builder environment (dev, stg, or prd) - determines which configuration to load",
			Value:   "dev",
			EnvVars: []string{"ENV"},
		},
		&cli.StringFlag{
			Name:     "entity-file",
			Aliases:  []string{"f"},
			Usage:    "Path to the entity's catalog-info.yaml",
			Required: true,
			EnvVars:  []string{"ENTITY_FILE"},
		},
		&cli.StringFlag{
			Name:    "uid",
			Usage:   "Entity uid assigned by the catalog (overrides metadata.uid in the entity file)",
			EnvVars: []string{"ENTITY_UID"},
		},
		&cli.StringFlag{
			Name:    "role-arn",
			Usage:   "IAM role to assume for AWS calls",
			EnvVars: []string{"ROLE_ARN"},
		},
		&cli.BoolFlag{
			Name:    "json",
			Aliases: []string{"j"},
			Usage:   "Output as JSON",
		},
	}
	return append(flags, extra...)
}

func loadEntity(c *cli.Context) (models.Entity, error) {
	entity, err := catalog.LoadEntity(c.String("entity-file"))
	if err != nil {
		return models.Entity{}, err
	}
	if uid := c.String("uid"); uid != "" {
		entity.UID = uid
	}
	if err := entity.Validate(); err != nil {
		return models.Entity{}, err
	}
	return entity, nil
}

func newContainer(c *cli.Context) (di.Container, error) {
	container, err := di.New(c.String("env"),
		di.WithContext(c.Context),
		di.WithRoleArn(c.String("role-arn")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create DI container: %w", err)
	}
	return container, nil
}

// resolve fetches a dependency from the container, reporting resolution
// failures such as missing AWS credentials as errors
func resolve[T any](container di.Container) (T, error) {
	v, err := di.Get[T](container)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("failed to resolve dependencies: %w", err)
	}
	return v, nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Fprintln(os.Stdout, string(data))
	return nil
}

// BuildSummary is the printable form of a CodeBuild build
type BuildSummary struct {
	ID        string     `json:"id"`
	Arn       string     `json:"arn"`
	Number    int64      `json:"build_number,omitempty"`
	Status    string     `json:"status"`
	Phase     string     `json:"phase,omitempty"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

func summarize(build types.Build) BuildSummary {
	return BuildSummary{
		ID:        aws.ToString(build.Id),
		Arn:       aws.ToString(build.Arn),
		Number:    aws.ToInt64(build.BuildNumber),
		Status:    string(build.BuildStatus),
		Phase:     aws.ToString(build.CurrentPhase),
		StartedAt: build.StartTime,
		EndedAt:   build.EndTime,
	}
}

func summarizeAll(builds []types.Build) []BuildSummary {
	return slicex.Map(builds, summarize)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format(time.RFC3339)
}
