package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/savaki/entity-builder/internal/orchestrator"
	"github.com/urfave/cli/v2"
)

// BuildsCommand returns the builds command which lists the builds started for an entity
func BuildsCommand(logger *zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:    "builds",
		Aliases: []string{"b", "ls"},
		Usage:   "List the builds that belong to an entity",
		Description: `List the builds of the entity's CodeBuild project that were started for this entity.

Examples:
  entity-builder builds --env dev --entity-file catalog-info.yaml --uid 0f8d6c1e-...
  entity-builder builds --env prd --entity-file catalog-info.yaml --json`,
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

			builds, err := o.GetBuilds(c.Context, entity)
			if err != nil {
				return fmt.Errorf("failed to get builds: %w", err)
			}

			summaries := summarizeAll(builds)
			if c.Bool("json") {
				return printJSON(summaries)
			}

			if len(summaries) == 0 {
				fmt.Printf("No builds found for %s\n", entity.Ref())
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTATUS\tPHASE\tSTARTED\tENDED")
			for _, s := range summaries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", s.ID, s.Status, s.Phase, formatTime(s.StartedAt), formatTime(s.EndedAt))
			}
			if err := w.Flush(); err != nil {
				return err
			}

			logger.Debug().
				Str("entity", entity.Ref()).
				Int("build_count", len(summaries)).
				Msg("Listed builds")
			return nil
		},
	}
}
