package commands

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"github.com/savaki/entity-builder/internal/constants"
	"github.com/savaki/entity-builder/internal/orchestrator"
	"github.com/savaki/entity-builder/internal/services"
	"github.com/urfave/cli/v2"
)

// StackCommand returns the stack command which shows the CloudFormation stack an entity deploys
func StackCommand(logger *zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "stack",
		Usage: "Show the status of the CloudFormation stack deployed for an entity",
		Description: `Look up the MODULE_STACK_NAME build parameter stored for the entity and
describe that CloudFormation stack.`,
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
			stacks, err := resolve[*services.StackService](container)
			if err != nil {
				return err
			}

			params, err := o.GetBuildParameters(c.Context, entity)
			if err != nil {
				return fmt.Errorf("failed to get build parameters: %w", err)
			}

			stackName, ok := params.Get(constants.ModuleStackNameParameter)
			if !ok || stackName == "" {
				return fmt.Errorf("no %s build parameter stored for %s", constants.ModuleStackNameParameter, entity.Ref())
			}

			status, err := stacks.Describe(c.Context, stackName)
			if err != nil {
				return err
			}

			if c.Bool("json") {
				return printJSON(status)
			}

			if !status.Exists {
				fmt.Printf("Stack %s does not exist\n", stackName)
				return nil
			}

			fmt.Printf("Stack:   %s\n", status.StackName)
			fmt.Printf("Status:  %s\n", status.Status)
			if status.StatusReason != "" {
				fmt.Printf("Reason:  %s\n", status.StatusReason)
			}
			fmt.Printf("Updated: %s\n", formatTime(status.UpdatedAt))

			keys := make([]string, 0, len(status.Outputs))
			for k := range status.Outputs {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Printf("  %s = %s\n", k, status.Outputs[k])
			}

			logger.Debug().Str("stack_name", stackName).Str("status", status.Status).Msg("Described stack")
			return nil
		},
	}
}
