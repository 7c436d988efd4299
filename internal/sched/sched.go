// Package sched re-runs a batch on a trigger: a cron schedule, a fixed
// interval, or a change to the URL list file.
package sched

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
)

// debounce absorbs the write bursts editors produce when saving a file.
const debounce = 500 * time.Millisecond

// Trigger says when to re-run. At least one field must be set; fields
// combine (cron schedule plus file watch is fine).
type Trigger struct {
	Cron     string        // standard 5-field cron spec
	Interval time.Duration // fixed period
	Watch    string        // path of a file to watch for writes
}

// Validate checks the trigger is non-empty and its cron spec parses.
func (t Trigger) Validate() error {
	if t.Cron == "" && t.Interval == 0 && t.Watch == "" {
		return fmt.Errorf("schedule needs a cron spec, an interval, or a watch path")
	}
	if t.Cron != "" {
		if _, err := cron.ParseStandard(t.Cron); err != nil {
			return fmt.Errorf("invalid cron spec %q: %w", t.Cron, err)
		}
	}
	if t.Interval < 0 {
		return fmt.Errorf("interval must be positive")
	}
	return nil
}

// Run fires fn per the trigger until ctx is cancelled. Firings are
// serialized: a trigger that lands while fn is running waits its turn rather
// than overlapping.
func Run(ctx context.Context, t Trigger, logger *slog.Logger, fn func()) error {
	if err := t.Validate(); err != nil {
		return err
	}

	var mu sync.Mutex
	fire := func(reason string) {
		mu.Lock()
		defer mu.Unlock()
		logger.Info("triggered", "reason", reason)
		fn()
	}

	if t.Cron != "" {
		c := cron.New()
		if _, err := c.AddFunc(t.Cron, func() { fire("cron") }); err != nil {
			return fmt.Errorf("scheduling cron: %w", err)
		}
		c.Start()
		defer c.Stop()
	}

	if t.Interval > 0 {
		ticker := time.NewTicker(t.Interval)
		defer ticker.Stop()
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					fire("interval")
				}
			}
		}()
	}

	if t.Watch != "" {
		watcher, err := watchFile(ctx, t.Watch, logger, fire)
		if err != nil {
			return err
		}
		defer watcher.Close()
	}

	logger.Info("scheduler running",
		"cron", t.Cron, "interval", t.Interval, "watch", t.Watch)
	<-ctx.Done()
	return nil
}

// watchFile watches the directory containing path and fires on writes to the
// file itself. Watching the directory instead of the file survives the
// rename-and-replace dance most editors do on save.
func watchFile(ctx context.Context, path string, logger *slog.Logger, fire func(string)) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("resolving watch path: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	go func() {
		var timer *time.Timer
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Name != abs || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(debounce, func() { fire("watch") })
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Error("watch error", "error", err)
			}
		}
	}()

	return watcher, nil
}
