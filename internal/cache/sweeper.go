package cache

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper removes expired entries on a fixed cadence so the store does not
// rely on lazy expiry alone. One sweep runs immediately at startup.
type Sweeper struct {
	store    Store
	interval time.Duration
	logger   *slog.Logger
}

// NewSweeper builds a sweeper over the given store. A non-positive interval
// disables the periodic pass; the startup sweep still runs.
func NewSweeper(store Store, interval time.Duration, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{store: store, interval: interval, logger: logger.With(slog.String("agent", "sweeper"))}
}

// Run blocks until the context is cancelled, sweeping on every tick. Sweep
// failures are logged and the loop continues; a broken sweep never takes the
// service down because lazy expiry still bounds staleness.
func (s *Sweeper) Run(ctx context.Context) {
	s.sweep(ctx)

	if s.interval <= 0 {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	removed, err := s.store.SweepExpired(ctx)
	if err != nil {
		s.logger.Error("sweep failed", slog.Any("error", err))
		return
	}
	if removed > 0 {
		s.logger.Info("swept expired entries", slog.Int("removed", removed))
	}
}
