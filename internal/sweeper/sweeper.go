// Package sweeper prunes coefficient slots whose date has passed.
package sweeper

import (
	"context"
	"log/slog"
	"time"

	"github.com/wbcoef/wbcoef/core/logger"
	"github.com/wbcoef/wbcoef/internal/metrics"
)

// DefaultInterval is the pause between two sweeps.
const DefaultInterval = time.Hour

// Store deletes slots dated before now.
type Store interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Sweeper runs DeleteExpired at start and then on every tick.
type Sweeper struct {
	store    Store
	interval time.Duration
	now      func() time.Time
}

func New(store Store, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Sweeper{store: store, interval: interval, now: time.Now}
}

// Run blocks until ctx is done. A failed sweep is logged and the next
// tick runs as usual.
func (s *Sweeper) Run(ctx context.Context) {
	logger.Sweeper.Info("sweeper started",
		slog.String("event", "start"),
		slog.Duration("interval", s.interval),
	)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			logger.Sweeper.Info("sweeper stopped", slog.String("event", "stop"))
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one pass.
func (s *Sweeper) Sweep(ctx context.Context) {
	start := time.Now()
	n, err := s.store.DeleteExpired(ctx, s.now())
	if err != nil {
		metrics.SweeperRuns.WithLabelValues(metrics.StatusError).Inc()
		logger.Sweeper.LogAttrs(ctx, slog.LevelError, "sweep failed",
			slog.String("event", "sweep"),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		return
	}
	metrics.SweeperRuns.WithLabelValues(metrics.StatusOK).Inc()
	metrics.SweeperDeletedRows.Add(float64(n))
	logger.Sweeper.LogAttrs(ctx, slog.LevelInfo, "sweep done",
		slog.String("event", "sweep"),
		slog.Int64("deleted", n),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
}
