package ratelimit

import (
	"context"
	"log/slog"
	"time"
)

// Cleaner periodically sweeps idle rate-limit state.
type Cleaner struct {
	sweepers []Sweeper
	log      *slog.Logger
	interval time.Duration
	maxAge   time.Duration
}

// NewCleaner sweeps keys idle for longer than maxAge every interval.
func NewCleaner(log *slog.Logger, interval, maxAge time.Duration, sweepers ...Sweeper) *Cleaner {
	if log == nil {
		log = slog.Default()
	}

	return &Cleaner{
		sweepers: sweepers,
		log:      log,
		interval: interval,
		maxAge:   maxAge,
	}
}

// Run blocks until ctx is cancelled.
func (c *Cleaner) Run(ctx context.Context) {
	if len(c.sweepers) == 0 || c.interval <= 0 {
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.Info("rate limit cleaner stopped", slog.String("reason", ctx.Err().Error()))
			return
		case <-ticker.C:
			c.sweep(ctx)
		}
	}
}

func (c *Cleaner) sweep(ctx context.Context) {
	removed := 0
	for _, s := range c.sweepers {
		n, err := s.Sweep(ctx, c.maxAge)
		removed += n
		if err != nil {
			c.log.Warn("rate limit sweep failed", slog.Any("error", err))
		}
	}

	if removed > 0 {
		c.log.Info("rate limit keys cleaned", slog.Int("keys_removed", removed))
	}
}
