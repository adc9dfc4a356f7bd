package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/i474232898/tide-gauge/internal/app"
	"github.com/i474232898/tide-gauge/internal/config"
	"github.com/i474232898/tide-gauge/internal/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigFile string
	LogLevel   string
}

// NewRootCommand creates the tide-gauge root command. Without a subcommand
// it behaves like serve.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "tide-gauge",
		Short: "Drive a tide gauge needle from NOAA and Open-Meteo data",
		Long: `tide-gauge polls a NOAA CO-OPS station for the water level and next
high/low tide, polls Open-Meteo for current weather, moves an analog needle
to the tide's offset from mean sea level and serves a status page.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "config file (yaml); env TIDEGAUGE_* overrides it")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (debug|info|warn|error); overrides config")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewSweepCommand(opts))
	cmd.AddCommand(NewOnceCommand(opts))

	return cmd
}

// setup loads configuration and builds the logger and the wired app. The
// returned context is cancelled on SIGINT or SIGTERM.
func setup(parent context.Context, opts *RootOptions) (context.Context, func(), *app.App, *zap.SugaredLogger, error) {
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}

	log, err := logging.New(cfg.Log.Level)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		stop()
		_ = log.Sync()
		return nil, nil, nil, nil, fmt.Errorf("start: %w", err)
	}

	cleanup := func() {
		a.Close()
		stop()
		_ = log.Sync()
	}
	return ctx, cleanup, a, log, nil
}
