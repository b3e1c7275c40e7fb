package commands

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/savaki/entity-builder/internal/dao/actiondao"
	"github.com/urfave/cli/v2"
)

// HistoryCommand returns the history command which lists recorded lifecycle actions
func HistoryCommand(logger *zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:    "history",
		Aliases: []string{"h"},
		Usage:   "List the lifecycle actions started for an entity",
		Description: `List the DEPLOY, UPDATE and TEARDOWN builds recorded for the entity.

Requires a history table to be configured (history-table parameter or HISTORY_TABLE).`,
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

			dao, err := resolve[*actiondao.DAO](container)
			if err != nil {
				return err
			}
			if dao == nil {
				return fmt.Errorf("no history table configured for env %s", c.String("env"))
			}

			records, err := dao.Query(c.Context, entity.UID)
			if err != nil {
				return err
			}

			if c.Bool("json") {
				return printJSON(records)
			}

			if len(records) == 0 {
				fmt.Printf("No recorded actions for %s\n", entity.Ref())
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCREATED\tACTION\tBUILD")
			for _, r := range records {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.GetID(), time.UnixMilli(r.CreatedAt).Format(time.RFC3339), r.Action, r.BuildID)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			logger.Debug().Str("entity", entity.Ref()).Int("count", len(records)).Msg("Listed history")
			return nil
		},
	}
}
