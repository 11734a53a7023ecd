package core

// scheduler.go runs background maintenance for run history. The retention
// job deletes runs older than the configured number of days. It logs
// failures and keeps running; a failed purge is retried on the next tick.

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// RetentionConfig holds configuration for the retention scheduler.
type RetentionConfig struct {
	RetentionDays int    // Days to keep runs (default: 30)
	Schedule      string // Cron spec (default: "@daily")
}

func (c RetentionConfig) withDefaults() RetentionConfig {
	if c.RetentionDays <= 0 {
		c.RetentionDays = 30
	}
	if c.Schedule == "" {
		c.Schedule = "@daily"
	}
	return c
}

// StartRetentionScheduler purges old runs once immediately and then on
// cfg.Schedule until ctx is cancelled. It returns once the scheduler is
// running; an invalid schedule is reported as an error.
func StartRetentionScheduler(ctx context.Context, store RunStore, cfg RetentionConfig) (*cron.Cron, error) {
	cfg = cfg.withDefaults()

	c := cron.New()
	if _, err := c.AddFunc(cfg.Schedule, func() {
		runRetentionJob(ctx, store, cfg.RetentionDays, time.Now())
	}); err != nil {
		return nil, fmt.Errorf("invalid purge schedule %q: %w", cfg.Schedule, err)
	}

	slog.Info("retention scheduler started",
		"retention_days", cfg.RetentionDays,
		"schedule", cfg.Schedule,
	)

	runRetentionJob(ctx, store, cfg.RetentionDays, time.Now())
	c.Start()

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
		slog.Info("retention scheduler stopped")
	}()
	return c, nil
}

// runRetentionJob performs one purge cycle.
func runRetentionJob(ctx context.Context, store RunStore, days int, now time.Time) int64 {
	start := time.Now()
	cutoff := now.AddDate(0, 0, -days)

	purged, err := store.PurgeRuns(ctx, cutoff)
	if err != nil {
		slog.Error("purge runs failed", "error", err)
		return 0
	}

	slog.Info("purged old runs",
		"runs_purged", purged,
		"cutoff", cutoff.Format(time.RFC3339),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return purged
}
