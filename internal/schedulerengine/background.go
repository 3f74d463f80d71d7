package schedulerengine

import (
	"context"
	"sync"
	"time"

	"gitlab.com/ddpbfs.net/internal/core/ports/primary"
	"gitlab.com/ddpbfs.net/internal/core/services/reaper"
)

// Sweeper runs one eviction pass at the given time
type Sweeper interface {
	Sweep(now time.Time) reaper.SweepReport
}

// ReaperEngine runs the reaper on a fixed period until its context ends
type ReaperEngine struct {
	interval time.Duration
	sweeper  Sweeper
	logger   primary.Logger
	now      func() time.Time
	wg       sync.WaitGroup
}

func NewReaperEngine(interval time.Duration, sweeper Sweeper, logger primary.Logger) *ReaperEngine {
	return &ReaperEngine{
		interval: interval,
		sweeper:  sweeper,
		logger:   logger,
		now:      time.Now,
	}
}

// Start launches the ticker goroutine
func (e *ReaperEngine) Start(ctx context.Context) {
	e.wg.Add(1)
	ticker := time.NewTicker(e.interval)
	go func() {
		defer e.wg.Done()
		defer ticker.Stop()
		e.logger.Info("Client clean-up started", "interval", e.interval.String())
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				report := e.sweeper.Sweep(e.now())
				e.logger.Debug("Client clean-up pass", "evicted", len(report.Evicted), "requeued", report.Requeued)
			}
		}
	}()
}

// Wait blocks until the ticker goroutine has returned
func (e *ReaperEngine) Wait() {
	e.wg.Wait()
}
