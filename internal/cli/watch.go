package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pfrederiksen/that-schedule/internal/config"
	"github.com/pfrederiksen/that-schedule/internal/logger"
	"github.com/pfrederiksen/that-schedule/internal/pipeline"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

var (
	flagCron      string
	flagImmediate bool
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rebuild the schedule on a cron schedule",
		Long: `Rebuild the schedule on a standard 5-field cron schedule until
interrupted. A run still in progress when the next one is due is skipped.`,
		Args: cobra.NoArgs,
		RunE: runWatch,
	}

	cmd.Flags().StringVar(&flagCron, "cron", "", "Cron schedule (default \""+config.DefaultCron+"\")")
	cmd.Flags().BoolVar(&flagImmediate, "immediate", false, "Build once before waiting for the first tick")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	format, err := parseFormat(flagFormat)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if flagCron != "" {
		cfg.Cron = flagCron
	}
	if err := cfg.ValidateCron(); err != nil {
		return err
	}
	if err := setupLogger(cfg); err != nil {
		return err
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fetcher, closeFetcher, err := newFetcher(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFetcher()

	opts := pipeline.OptionsFromConfig(cfg, fetcher)
	out := cmd.OutOrStdout()

	build := func() {
		logger.ResetMetrics()
		result, err := pipeline.Run(ctx, opts)
		if err != nil {
			logger.Error("Scheduled build failed", logger.Fields{"cron": cfg.Cron}, err)
			return
		}
		if err := WriteOutput(out, NewRunSummary(result), format, flagVerbose); err != nil {
			logger.Error("Writing run summary", nil, err)
		}
	}

	cronLog := cron.PrintfLogger(logger.Default())
	c := cron.New(
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)
	if _, err := c.AddFunc(cfg.Cron, build); err != nil {
		return err
	}

	if flagImmediate {
		build()
	}

	c.Start()
	logger.Info("Watching schedule", logger.Fields{"cron": cfg.Cron})

	<-ctx.Done()
	logger.Info("Signal received, shutting down", nil)
	<-c.Stop().Done()

	return nil
}
