package command

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vivaneiona/tabextract/history"
)

func NewHistoryCommand() *cobra.Command {
	var (
		configFilePath string
		limit          int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent extraction runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, done, err := loadConfig(configFilePath)
			if err != nil {
				return err
			}
			defer done()

			ctx := context.Background()
			store, err := history.Open(ctx, cfg.History)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(ctx, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "no runs recorded")
				return nil
			}
			for _, r := range runs {
				fmt.Fprintf(out, "%s  %s  rows=%d failed=%d  %s\n",
					r.StartedAt.Local().Format(time.DateTime), r.ID, len(r.Entries), r.Failed(), r.Template)
			}
			return nil
		},
	}

	addConfigFlag(cmd, &configFilePath)
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "runs to show")
	return cmd
}
