package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bulkspeed/bulkspeed/internal/config"
	"github.com/bulkspeed/bulkspeed/internal/sched"
)

var startCmd = &cobra.Command{
	Use:   "start <urls.txt>",
	Short: "Re-run the audit on a schedule until interrupted",
	Long: "Runs the audit once, then again on the configured schedule: a cron " +
		"spec, a fixed interval, or whenever the URL list file changes. Each run " +
		"overwrites the CSV export and sends the configured notifications.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := setupLogger()

		cfg, err := config.Resolve(cfgFile)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		trigger := sched.Trigger{
			Cron:     cfg.Schedule.Cron,
			Interval: cfg.ScheduleInterval(),
			Watch:    cfg.Schedule.Watch,
		}
		if watch, _ := cmd.Flags().GetBool("watch"); watch {
			trigger.Watch = args[0]
		}
		if err := trigger.Validate(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		runOnce := func() {
			if err := runAudit(ctx, cfg, logger, args[0], true); err != nil {
				logger.Error("audit run failed", "error", err)
			}
		}

		runOnce()
		return sched.Run(ctx, trigger, logger, runOnce)
	},
}

func init() {
	startCmd.Flags().Bool("watch", false, "re-run whenever the URL list file changes")
	rootCmd.AddCommand(startCmd)
}
