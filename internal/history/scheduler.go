package history

// scheduler.go removes recent lists of clients that have been idle longer
// than the retention period. It runs once on start and then on every tick
// until the context is cancelled. Failures are logged and retried on the
// next tick.

import (
	"context"
	"log/slog"
	"time"
)

// Pruner deletes lists not updated since cutoff and returns how many were
// removed.
type Pruner interface {
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// PruneConfig holds the scheduler settings. Zero values use the defaults.
type PruneConfig struct {
	Retention     time.Duration // default: 30 days
	CheckInterval time.Duration // default: 24h
}

func (c PruneConfig) withDefaults() PruneConfig {
	if c.Retention <= 0 {
		c.Retention = 30 * 24 * time.Hour
	}
	if c.CheckInterval <= 0 {
		c.CheckInterval = 24 * time.Hour
	}
	return c
}

// StartPruneScheduler blocks, pruning idle lists until ctx is done.
func StartPruneScheduler(ctx context.Context, p Pruner, cfg PruneConfig) {
	cfg = cfg.withDefaults()
	slog.Info("recent list pruning started",
		"retention", cfg.Retention,
		"interval", cfg.CheckInterval,
	)

	runPrune(ctx, p, cfg.Retention)

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("recent list pruning stopped")
			return
		case <-ticker.C:
			runPrune(ctx, p, cfg.Retention)
		}
	}
}

func runPrune(ctx context.Context, p Pruner, retention time.Duration) {
	start := time.Now()
	n, err := p.Prune(ctx, start.Add(-retention))
	if err != nil {
		slog.Error("prune recent lists failed", "error", err)
		return
	}
	slog.Info("pruned idle recent lists",
		"lists_removed", n,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
