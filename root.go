package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pagediff/config"
	"pagediff/logging"
	"pagediff/scanner"
	"pagediff/signalhandler"
)

type rootFlags struct {
	oldDir     string
	newDir     string
	distance   uint8
	divisor    int
	workers    int
	format     string
	export     string
	configPath string
	logLevel   string
	logFormat  string
	logFile    string
	progress   bool
}

func newRootCommand() *cobra.Command {
	var flags rootFlags

	rootCmd := &cobra.Command{
		Use:           "pagediff --old <dir> --new <dir> --distance <n>",
		Short:         "Match the pages of two scanned document versions",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, distance, err := resolveConfig(cmd, flags)
			if err != nil {
				return err
			}

			logger, err := logging.SetupLogger(logging.Options{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
				File:   cfg.Logging.File,
				Output: cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}
			defer logging.CloseLogger()
			if flags.configPath != "" {
				logging.LogInfo("Using configuration %s", flags.configPath)
			}
			signalhandler.SetupHandler(logger)

			progress := scanner.IsTerminal(cmd.ErrOrStderr())
			if cmd.Flags().Changed("progress") {
				progress = flags.progress
			}

			return run(cmd.Context(), runOptions{
				oldDir:   flags.oldDir,
				newDir:   flags.newDir,
				distance: distance,
				progress: progress,
				cfg:      cfg,
				stdout:   cmd.OutOrStdout(),
				stderr:   cmd.ErrOrStderr(),
				logger:   logger,
			})
		},
	}

	f := rootCmd.Flags()
	f.StringVar(&flags.oldDir, "old", "", "Directory with the pages of the old version")
	f.StringVar(&flags.newDir, "new", "", "Directory with the pages of the new version")
	f.Uint8Var(&flags.distance, "distance", 0, "Maximum fingerprint distance for a match (required unless set in the config)")
	f.IntVar(&flags.divisor, "divisor", 0, "Pages of drift that cost one bit of distance")
	f.IntVar(&flags.workers, "workers", 0, "Hashing workers (0 picks from the CPU count)")
	f.StringVar(&flags.format, "format", "", "Report format: text or table")
	f.StringVar(&flags.export, "export", "", "Write the run to this SQLite file")
	f.StringVarP(&flags.configPath, "config", "c", "", "Configuration file path")
	f.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	f.StringVar(&flags.logFormat, "log-format", "", "Log format: console or json")
	f.StringVar(&flags.logFile, "log-file", "", "Also append logs to this file")
	f.BoolVar(&flags.progress, "progress", false, "Force the progress bar on or off (default: on when stderr is a terminal)")

	_ = rootCmd.MarkFlagRequired("old")
	_ = rootCmd.MarkFlagRequired("new")

	return rootCmd
}

// resolveConfig loads the config file and lays the explicitly set flags over
// it.
func resolveConfig(cmd *cobra.Command, flags rootFlags) (*config.Config, int, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, 0, err
	}

	changed := cmd.Flags().Changed
	if changed("distance") {
		d := int(flags.distance)
		cfg.Match.Distance = &d
	}
	if changed("divisor") {
		cfg.Match.PositionDivisor = flags.divisor
	}
	if changed("workers") {
		cfg.Hashing.Workers = flags.workers
	}
	if changed("format") {
		cfg.Report.Format = strings.ToLower(strings.TrimSpace(flags.format))
	}
	if changed("export") {
		cfg.Report.ExportDB = flags.export
	}
	if changed("log-level") {
		cfg.Logging.Level = flags.logLevel
	}
	if changed("log-format") {
		cfg.Logging.Format = flags.logFormat
	}
	if changed("log-file") {
		cfg.Logging.File = flags.logFile
	}

	if err := cfg.Validate(); err != nil {
		return nil, 0, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.Match.Distance == nil {
		return nil, 0, errors.New(`required flag "distance" not set (or set match.distance in the config file)`)
	}
	return cfg, *cfg.Match.Distance, nil
}
