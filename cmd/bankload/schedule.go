package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"bankload/internal/importer"
	"bankload/internal/logger"
	"bankload/internal/scheduler"
)

func (a *app) scheduleCmd() *cobra.Command {
	var (
		rf   runFlags
		spec string
	)
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run import on a cron schedule until interrupted",
		Long: `schedule runs the import on a cron schedule (five-field spec or a
descriptor such as @daily or "@every 6h"). A run that is still going when
the next tick fires causes that tick to be skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			rf.apply(cmd, cfg)
			if cmd.Flags().Changed("cron") {
				cfg.Schedule.Cron = spec
			}
			if cfg.Schedule.Cron == "" {
				return fmt.Errorf("no schedule: set schedule.cron or --cron")
			}
			if err := checkConfig(cmd.ErrOrStderr(), cfg); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ctx = withLogger(ctx, cfg)
			defer installMetrics(ctx, cfg.Metrics)()

			log := logger.FromContext(ctx)
			s := scheduler.New(log)
			return s.Run(ctx, cfg.Schedule.Cron, func(ctx context.Context) {
				rep, err := importer.Run(ctx, cfg)
				if err != nil {
					// Already logged with its stack by the importer.
					return
				}
				log.Info().Str("run_id", rep.RunID).Dur("duration", rep.Duration).Msg("scheduled import done")
			})
		},
	}
	rf.register(cmd)
	cmd.Flags().StringVar(&spec, "cron", "", "cron spec (overrides schedule.cron)")
	return cmd
}
