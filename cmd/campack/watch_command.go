package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"campack/internal/config"
	"campack/internal/logging"
	"campack/internal/watch"
)

func newWatchCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Log card-reader insertions until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, err := config.Load(*configFlag)
			if err != nil {
				return err
			}
			logger, err := logging.New(logging.Options{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
				LogDir: cfg.Paths.LogDir,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			monitor := watch.NewMonitor(logger, func(_ context.Context, device watch.Device) {
				label := device.Label
				if label == "" {
					label = "(no label)"
				}
				fmt.Fprintf(out, "%s  %s  %s\n", device.Name, device.FSType, label)
			})

			ctx := cmd.Context()
			if err := monitor.Start(ctx); err != nil {
				return err
			}
			defer monitor.Stop()

			fmt.Fprintln(out, "Watching for flash media. Press Ctrl-C to stop.")
			<-ctx.Done()
			return nil
		},
	}
}
