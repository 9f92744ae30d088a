package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"campack/internal/config"
	"campack/internal/ledger"
)

func newRunsCommand(configFlag *string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent packaging runs from the ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, err := config.Load(*configFlag)
			if err != nil {
				return err
			}
			store, err := ledger.Open(cfg.Paths.LedgerDir)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				finished := ""
				if !run.FinishedAt.IsZero() {
					finished = run.FinishedAt.Local().Format(time.RFC3339)
				}
				rows = append(rows, []string{
					run.ID,
					run.MediaID,
					run.Strategy,
					run.Status,
					run.StartedAt.Local().Format(time.RFC3339),
					finished,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"RUN", "MEDIAID", "STRATEGY", "STATUS", "STARTED", "FINISHED"},
				rows,
				nil,
			))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")
	return cmd
}
