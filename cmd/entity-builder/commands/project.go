package commands

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/rs/zerolog"
	"github.com/savaki/entity-builder/internal/orchestrator"
	"github.com/urfave/cli/v2"
)

// ProjectCommand returns the project command which shows the CodeBuild project for an entity
func ProjectCommand(logger *zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:    "project",
		Aliases: []string{"p"},
		Usage:   "Show the CodeBuild project an entity builds with",
		Description: `Resolve the entity's deployment target to its configured CodeBuild project.

Examples:
  entity-builder project --env dev --entity-file catalog-info.yaml --uid 0f8d6c1e-...`,
		Flags: commonFlags(),
		Action: func(c *cli.Context) error {
			entity, err := loadEntity(c)
			if err != nil {
				return err
			}

			container, err := newContainer(c)
			if err != nil {
				return err
			}
			o, err := resolve[*orchestrator.Orchestrator](container)
			if err != nil {
				return err
			}

			project, err := o.GetProject(c.Context, entity)
			if err != nil {
				return fmt.Errorf("failed to get project: %w", err)
			}

			if project == nil {
				fmt.Printf("No project configured for %s\n", entity.Ref())
				return nil
			}

			if c.Bool("json") {
				return printJSON(project)
			}

			fmt.Printf("Project:     %s\n", aws.ToString(project.Name))
			fmt.Printf("ARN:         %s\n", aws.ToString(project.Arn))
			if project.Description != nil {
				fmt.Printf("Description: %s\n", aws.ToString(project.Description))
			}

			logger.Debug().Str("entity", entity.Ref()).Msg("Retrieved project")
			return nil
		},
	}
}
