package main

import (
	"context"
	"os"

	"github.com/savaki/entity-builder/cmd/entity-builder/commands"
	"github.com/savaki/entity-builder/internal/di"
	"github.com/urfave/cli/v2"
)

func main() {
	logger := di.ProvideLogger()
	ctx := logger.WithContext(context.Background())

	app := &cli.App{
		Name:  "entity-builder",
		Usage: "Deploy, update and tear down catalog entities with CodeBuild",
		Description: `Drives the CodeBuild project configured for a catalog entity's deployment target.

This tool provides commands for:
  - Starting DEPLOY, UPDATE and TEARDOWN builds for an entity
  - Listing the builds that belong to an entity
  - Inspecting the build parameters, history and stack of an entity`,
		Commands: []*cli.Command{
			commands.ProjectCommand(&logger),
			commands.BuildsCommand(&logger),
			commands.DeployCommand(&logger),
			commands.UpdateCommand(&logger),
			commands.TeardownCommand(&logger),
			commands.ParametersCommand(&logger),
			commands.HistoryCommand(&logger),
			commands.StackCommand(&logger),
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		logger.Error().Err(err).Msg("Application error")
		os.Exit(1)
	}
}
