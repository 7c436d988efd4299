package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/bulkspeed/bulkspeed/internal/config"
	"github.com/bulkspeed/bulkspeed/internal/notify"
	"github.com/bulkspeed/bulkspeed/internal/pagespeed"
	"github.com/bulkspeed/bulkspeed/internal/report"
	"github.com/bulkspeed/bulkspeed/internal/runner"
	"github.com/bulkspeed/bulkspeed/internal/urls"
)

var runCmd = &cobra.Command{
	Use:   "run <urls.txt>",
	Short: "Run the audit once over a URL list",
	Long: "Normalizes the URL list, tests every (URL, device) pair against the " +
		"PageSpeed API with retry on rate limits and server errors, prints the " +
		"result table, and writes the CSV export.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := setupLogger()

		cfg, err := config.Resolve(cfgFile)
		if err != nil {
			return err
		}
		if err := applyRunFlags(cmd, cfg); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		plain, _ := cmd.Flags().GetBool("plain")
		return runAudit(cmd.Context(), cfg, logger, args[0], plain)
	},
}

func init() {
	runCmd.Flags().String("api-key", "", "PageSpeed API key (overrides config)")
	runCmd.Flags().StringSlice("devices", nil, "devices to test: mobile, desktop")
	runCmd.Flags().Duration("delay", 0, "delay between requests")
	runCmd.Flags().Int("retries", 0, "retries on 429/5xx")
	runCmd.Flags().String("output", "", "CSV output path")
	runCmd.Flags().Bool("plain", false, "plain log lines instead of the progress bar")
	rootCmd.AddCommand(runCmd)
}

// applyRunFlags overlays flag values onto the config. Only flags the user
// actually set are applied.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey, _ = cmd.Flags().GetString("api-key")
	}
	if cmd.Flags().Changed("devices") {
		names, _ := cmd.Flags().GetStringSlice("devices")
		var devices []pagespeed.Device
		for _, name := range names {
			d, err := pagespeed.ParseDevice(name)
			if err != nil {
				return err
			}
			devices = append(devices, d)
		}
		cfg.Devices = devices
	}
	if cmd.Flags().Changed("delay") {
		d, _ := cmd.Flags().GetDuration("delay")
		cfg.Delay = d.String()
	}
	if cmd.Flags().Changed("retries") {
		r, _ := cmd.Flags().GetInt("retries")
		cfg.Retries = &r
	}
	if cmd.Flags().Changed("output") {
		cfg.Output, _ = cmd.Flags().GetString("output")
	}
	return nil
}

// runAudit is the whole batch: load URLs, run every pair, print the table,
// export the CSV, notify. Shared by `run` and `start`.
func runAudit(ctx context.Context, cfg *config.Config, logger *slog.Logger, urlsPath string, plain bool) error {
	list, err := urls.ReadFile(urlsPath)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		return fmt.Errorf("no valid URLs in %s", urlsPath)
	}
	fmt.Printf("%d unique, valid URLs loaded\n", len(list))

	delay, err := cfg.DelayDuration()
	if err != nil {
		return err
	}

	client := pagespeed.NewClient(pagespeed.ClientOpts{
		APIKey:   cfg.APIKey,
		Endpoint: cfg.Endpoint,
		Logger:   logger,
	})
	r := runner.New(client, runner.Options{
		Retries: cfg.MaxRetries(),
		Delay:   delay,
		Logger:  logger,
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	var outcomes []runner.Outcome
	if !plain && isatty.IsTerminal(os.Stdout.Fd()) {
		outcomes, err = runWithProgress(ctx, stop, r, list, cfg.Devices)
		if err != nil {
			return err
		}
	} else {
		r.OnProgress = func(done, total int, url string) {
			logger.Info("progress", "done", done, "total", total, "url", url)
		}
		outcomes = r.Run(ctx, list, cfg.Devices)
	}

	fmt.Println(report.Table(outcomes))

	if err := report.WriteCSVFile(cfg.Output, outcomes); err != nil {
		return err
	}

	summary := report.Summarize(outcomes)
	logger.Info("run finished",
		"total", summary.Total, "failed", summary.Failed,
		"output", cfg.Output, "duration", time.Since(start).Round(time.Second))

	sendNotifications(cfg, logger, summary, time.Since(start))
	return nil
}

// sendNotifications delivers the run summary to every configured service.
// Delivery failures are logged, never fatal: the CSV is already on disk.
func sendNotifications(cfg *config.Config, logger *slog.Logger, s report.Summary, elapsed time.Duration) {
	if len(cfg.Notify.Services) == 0 {
		return
	}

	tmpl := cfg.Notify.Template
	if tmpl == "" {
		tmpl = notify.DefaultTemplate
	}
	msg, err := notify.Render(tmpl, notify.BuildTemplateData(s, cfg.Output, elapsed))
	if err != nil {
		logger.Error("rendering notification", "error", err)
		return
	}

	for _, svc := range cfg.Notify.Services {
		if err := notify.Send(notify.Service{URL: svc.URL, Params: svc.Params}, msg); err != nil {
			logger.Error("sending notification", "error", err)
			continue
		}
		logger.Debug("notification sent")
	}
}
