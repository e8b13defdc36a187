// Package poller re-runs the tracker's incremental sync on a fixed
// cadence.
package poller

import (
	"context"
	"time"

	"go.uber.org/zap"

	"gitstatviewer/logger"
)

// Syncer is the incremental sync operation the poller drives
type Syncer interface {
	Poll(ctx context.Context) error
}

// Poller invokes a Syncer on a fixed-period ticker. Ticks run
// synchronously in one goroutine, so a slow run delays the next tick
// rather than overlapping it. A failed tick is logged and does not
// stop the schedule.
type Poller struct {
	syncer   Syncer
	interval time.Duration
}

// New creates a Poller with the given tick interval
func New(syncer Syncer, interval time.Duration) *Poller {
	return &Poller{
		syncer:   syncer,
		interval: interval,
	}
}

// Start launches the polling loop in its own goroutine. The loop exits
// when ctx is cancelled.
func (p *Poller) Start(ctx context.Context) {
	logger.Info("Starting poller", zap.Duration("interval", p.interval))

	go func() {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				logger.Info("Poller stopped")
				return
			case <-ticker.C:
				if err := p.syncer.Poll(ctx); err != nil {
					logger.Error("Poll tick failed", zap.Error(err))
				}
			}
		}
	}()
}
