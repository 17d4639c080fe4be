package history

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/rickgao/ticker-feed/internal/database"
)

const pruneSnapshotsSQL = `DELETE FROM ticker_snapshots WHERE fetched_at < $1`

// Retention deletes snapshots older than MaxAge on a cron schedule.
type Retention struct {
	db       database.Execer
	maxAge   time.Duration
	schedule string
	timeout  time.Duration
	logger   *slog.Logger
	now      func() time.Time

	cron *cron.Cron
}

// NewRetention creates a pruning job. schedule is a standard 5-field cron
// expression.
func NewRetention(db database.Execer, maxAge time.Duration, schedule string, logger *slog.Logger) *Retention {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retention{
		db:       db,
		maxAge:   maxAge,
		schedule: schedule,
		timeout:  5 * time.Minute,
		logger:   logger,
		now:      time.Now,
	}
}

// Start schedules the prune job.
func (r *Retention) Start() error {
	c := cron.New()
	if _, err := c.AddFunc(r.schedule, r.run); err != nil {
		return fmt.Errorf("schedule prune job %q: %w", r.schedule, err)
	}
	c.Start()
	r.cron = c

	r.logger.Info("history retention started",
		"max_age", r.maxAge,
		"schedule", r.schedule,
	)
	return nil
}

// Stop stops the scheduler and waits for a running prune, bounded by ctx.
func (r *Retention) Stop(ctx context.Context) error {
	if r.cron == nil {
		return nil
	}
	select {
	case <-r.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Retention) run() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if _, err := r.Prune(ctx); err != nil {
		r.logger.Error("prune ticker snapshots failed", "error", err)
	}
}

// Prune deletes rows older than MaxAge and returns how many were removed.
func (r *Retention) Prune(ctx context.Context) (int64, error) {
	cutoff := r.now().Add(-r.maxAge).UTC()

	start := time.Now()
	tag, err := r.db.Exec(ctx, pruneSnapshotsSQL, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune ticker snapshots: %w", err)
	}

	r.logger.Info("pruned ticker snapshots",
		"deleted", tag.RowsAffected(),
		"cutoff", cutoff,
		"duration", time.Since(start),
	)
	return tag.RowsAffected(), nil
}
