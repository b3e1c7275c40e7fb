package commands

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/savaki/entity-builder/internal/orchestrator"
	"github.com/urfave/cli/v2"
)

// ParametersCommand returns the parameters command which shows the stored build parameters
func ParametersCommand(logger *zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:    "parameters",
		Aliases: []string{"params"},
		Usage:   "Show the build parameters stored for an entity",
		Flags:   commonFlags(),
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

			params, err := o.GetBuildParameters(c.Context, entity)
			if err != nil {
				return fmt.Errorf("failed to get build parameters: %w", err)
			}

			if c.Bool("json") {
				return printJSON(params)
			}

			if len(params) == 0 {
				fmt.Printf("No build parameters stored for %s\n", entity.Ref())
				return nil
			}
			for _, p := range params {
				fmt.Printf("%s=%s\n", p.Name, p.Value)
			}
			return nil
		},
	}
}
