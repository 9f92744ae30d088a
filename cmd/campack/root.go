package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"campack/internal/assemble"
	"campack/internal/config"
	"campack/internal/logging"
	"campack/internal/pipeline"
)

func newRootCommand() *cobra.Command {
	var (
		configFlag string
		mediaID    string
		clipExpr   string
		format     string
		outputDir  string
		operator   string
		wantTar    bool
		wantAIP    bool
		dryRun     bool
	)

	rootCmd := &cobra.Command{
		Use:           "campack [flags] rootDir...",
		Short:         "Package camera-card deposits into archival packages",
		Long: "campack classifies camera-card deposits, inventories every file,\n" +
			"concatenates clips into a preservation master, verifies the\n" +
			"concatenation was lossless, and assembles the output package.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			cfg, _, _, err := config.Load(configFlag)
			if err != nil {
				return err
			}
			if err := cfg.EnsureDirectories(); err != nil {
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

			if strings.TrimSpace(mediaID) == "" {
				mediaID = filepath.Base(filepath.Clean(args[0]))
			}

			opts := pipeline.Options{
				MediaID:        strings.TrimSpace(mediaID),
				Roots:          args,
				ClipExpression: clipExpr,
				OutputFormat:   format,
				DestinationDir: outputDir,
				Operator:       operator,
				DryRun:         dryRun,
				ChooseStrategy: interactiveStrategy(cmd),
			}
			opts.StrategySet = wantTar || wantAIP
			switch {
			case wantTar && wantAIP:
				opts.Strategy = assemble.StrategyBoth
			case wantTar:
				opts.Strategy = assemble.StrategyTar
			case wantAIP:
				opts.Strategy = assemble.StrategyAIP
			}

			runner := pipeline.New(cfg, logger)
			result, err := runner.Run(cmd.Context(), opts)
			if result != nil {
				renderRunResult(cmd.OutOrStdout(), result)
			}
			if err != nil {
				return err
			}
			if len(result.Flags) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Completed with %d review flag(s); see the package log.\n", len(result.Flags))
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.Flags().StringVarP(&mediaID, "media-id", "m", "", "Media ID for the package (defaults to the first root's name)")
	rootCmd.Flags().StringVarP(&clipExpr, "clips", "N", "", "Clip selection, e.g. \"1,3-5\" (default: all clips)")
	rootCmd.Flags().StringVarP(&format, "format", "f", "", "Output container format (mov, mkv, mxf, m2ts)")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "", "Destination directory for the package")
	rootCmd.Flags().StringVarP(&operator, "operator", "u", "", "Operator name recorded in the package log")
	rootCmd.Flags().BoolVarP(&wantTar, "tar", "t", false, "Produce a compressed original-as-is tarball")
	rootCmd.Flags().BoolVarP(&wantAIP, "aip", "a", false, "Build the structured archival package")
	rootCmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Classify and inventory only, write nothing")

	rootCmd.AddCommand(newDepsCommand(&configFlag))
	rootCmd.AddCommand(newConfigCommand())
	rootCmd.AddCommand(newWatchCommand(&configFlag))
	rootCmd.AddCommand(newRunsCommand(&configFlag))

	return rootCmd
}
