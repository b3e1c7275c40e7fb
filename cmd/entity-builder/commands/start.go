package commands

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/rs/zerolog"
	"github.com/savaki/entity-builder/internal/catalog"
	"github.com/savaki/entity-builder/internal/models"
	"github.com/savaki/entity-builder/internal/orchestrator"
	"github.com/urfave/cli/v2"
)

// DeployCommand returns the deploy command
func DeployCommand(logger *zerolog.Logger) *cli.Command {
	return startCommand(logger, models.ActionDeploy, true)
}

// UpdateCommand returns the update command
func UpdateCommand(logger *zerolog.Logger) *cli.Command {
	return startCommand(logger, models.ActionUpdate, true)
}

// TeardownCommand returns the teardown command
func TeardownCommand(logger *zerolog.Logger) *cli.Command {
	return startCommand(logger, models.ActionTeardown, false)
}

func startCommand(logger *zerolog.Logger, action models.Action, acceptsParameters bool) *cli.Command {
	name := strings.ToLower(action.String())

	var extra []cli.Flag
	description := fmt.Sprintf(`Start a %s build for the entity with the parameters stored for it.

Examples:
  entity-builder %s --env dev --entity-file catalog-info.yaml --uid 0f8d6c1e-...`, action, name)

	if acceptsParameters {
		extra = []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "param",
				Aliases: []string{"p"},
				Usage:   "Build parameter as NAME=VALUE; replaces the stored parameters (repeatable)",
			},
			&cli.StringFlag{
				Name:  "params-file",
				Usage: "YAML list of name/value build parameters; replaces the stored parameters",
			},
		}
		description += fmt.Sprintf(`

  # Store new parameters, then build with them
  entity-builder %s --env dev --entity-file catalog-info.yaml \
    --param MODULE_STACK_NAME=acdp-cms-sample \
    --param APP_UNIQUE_ID=cms`, name)
	}

	return &cli.Command{
		Name:        name,
		Usage:       fmt.Sprintf("Start a %s build for an entity", action),
		Description: description,
		Flags:       commonFlags(extra...),
		Action: func(c *cli.Context) error {
			entity, err := loadEntity(c)
			if err != nil {
				return err
			}

			params, err := buildParameters(c)
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

			build, err := o.StartBuild(c.Context, orchestrator.StartBuildInput{
				Entity:          entity,
				Action:          action,
				BuildParameters: params,
			})
			if err != nil {
				return fmt.Errorf("failed to start %s build: %w", name, err)
			}

			if c.Bool("json") {
				return printJSON(summarize(build))
			}

			fmt.Printf("Started %s build %s\n", name, aws.ToString(build.Id))

			logger.Debug().
				Str("entity", entity.Ref()).
				Str("build_id", aws.ToString(build.Id)).
				Msg("Started build")
			return nil
		},
	}
}

// buildParameters returns the parameters supplied on the command line, or
// nil when none were supplied so the stored parameters are used as is
func buildParameters(c *cli.Context) (models.BuildParameters, error) {
	var params models.BuildParameters

	if path := c.String("params-file"); path != "" {
		loaded, err := catalog.LoadBuildParameters(path)
		if err != nil {
			return nil, err
		}
		params = loaded
	}

	if pairs := c.StringSlice("param"); len(pairs) > 0 {
		parsed, err := catalog.ParseBuildParameters(pairs)
		if err != nil {
			return nil, err
		}
		params = append(params, parsed...)
	}

	return params, nil
}
