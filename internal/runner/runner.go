// Package runner drives the batch: it crosses the URL list with the device
// set and resolves every pair through the retrying fetch loop.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bulkspeed/bulkspeed/internal/pagespeed"
)

// InitialBackoff is the wait before the first retry. Each further retry
// doubles it: 1.5s, 3s, 6s, 12s, ... There is no cap, so large retry budgets
// get slow tails.
const InitialBackoff = 1500 * time.Millisecond

// Fetcher performs one analysis call. *pagespeed.Client is the real one;
// tests substitute scripted stubs.
type Fetcher interface {
	Fetch(ctx context.Context, url string, device pagespeed.Device) (*pagespeed.Metrics, error)
}

// Options configures a Runner. Zero values mean no retries, no inter-request
// delay, default logger, and real sleeping.
type Options struct {
	Retries int           // extra attempts after the first, per task
	Delay   time.Duration // pause between consecutive tasks
	Logger  *slog.Logger
	Sleep   func(time.Duration) // backoff/delay sleeper, replaceable in tests
}

// Runner executes tasks strictly sequentially: one task is fully resolved,
// backoff sleeps included, before the next begins.
type Runner struct {
	client  Fetcher
	retries int
	delay   time.Duration
	logger  *slog.Logger
	sleep   func(time.Duration)

	// OnProgress, if set, is called after each URL's full device set
	// completes. Reporting only; errors never flow through it.
	OnProgress func(done, total int, url string)
}

func New(client Fetcher, opts Options) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	return &Runner{
		client:  client,
		retries: opts.Retries,
		delay:   opts.Delay,
		logger:  logger,
		sleep:   sleep,
	}
}

// Run resolves every (url, device) pair in order: URLs outer, devices inner.
// One Outcome per pair, in generation order; no pair's failure stops the
// rest. Cancelling ctx stops the batch at the next task boundary and returns
// the outcomes collected so far.
func (r *Runner) Run(ctx context.Context, urlList []string, devices []pagespeed.Device) []Outcome {
	total := len(urlList)
	outcomes := make([]Outcome, 0, total*len(devices))

	for i, u := range urlList {
		for _, d := range devices {
			if ctx.Err() != nil {
				r.logger.Warn("run cancelled", "completed", len(outcomes))
				return outcomes
			}
			outcomes = append(outcomes, r.Execute(ctx, Task{URL: u, Device: d}))
			if r.delay > 0 {
				r.sleep(r.delay)
			}
		}
		if r.OnProgress != nil {
			r.OnProgress(i+1, total, u)
		}
	}

	return outcomes
}

// Execute resolves a single task: fetch, retry transient API failures with
// doubling backoff up to the retry budget, and fold whatever happened into
// one Outcome. No error leaves this function.
func (r *Runner) Execute(ctx context.Context, task Task) Outcome {
	log := r.logger.With("url", task.URL, "device", task.Device)
	wait := InitialBackoff

	for attempt := 0; ; attempt++ {
		metrics, err := r.client.Fetch(ctx, task.URL, task.Device)
		if err == nil {
			log.Info("analyzed", "score", scoreAttr(metrics.Score), "attempts", attempt+1)
			return Outcome{
				URL:    task.URL,
				Device: task.Device,
				Score:  metrics.Score,
				FCP:    metrics.FCP,
				LCP:    metrics.LCP,
				TBT:    metrics.TBT,
				CLS:    metrics.CLS,
			}
		}

		var apiErr *pagespeed.APIError
		if errors.As(err, &apiErr) && apiErr.Transient() && attempt < r.retries {
			log.Warn("transient failure, backing off",
				"status", apiErr.StatusCode, "wait", wait, "attempt", attempt+1)
			r.sleep(wait)
			wait *= 2
			continue
		}

		log.Error("analysis failed", "error", err, "attempts", attempt+1)
		return errorOutcome(task, err)
	}
}

// errorOutcome converts a terminal failure into a row. API failures keep
// their "HTTP <code>: <message>" form; anything else (transport, decode) is
// reported as a request failure.
func errorOutcome(task Task, err error) Outcome {
	desc := fmt.Sprintf("request failed: %v", err)
	var apiErr *pagespeed.APIError
	if errors.As(err, &apiErr) {
		desc = apiErr.Error()
	}
	return Outcome{
		URL:    task.URL,
		Device: task.Device,
		Failed: true,
		FCP:    desc,
	}
}

func scoreAttr(score *int) any {
	if score == nil {
		return "none"
	}
	return *score
}
