package checker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Scheduler runs the checker once immediately, then on a fixed interval
// until the context is canceled. Cycles are independent: a failed cycle
// is logged and the next one runs on schedule.
type Scheduler struct {
	checker  *Checker
	log      *zap.Logger
	interval time.Duration

	// updates carries hot-reloaded intervals into the running loop.
	updates chan time.Duration
}

func NewScheduler(checker *Checker, interval time.Duration, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		checker:  checker,
		log:      log,
		interval: interval,
		updates:  make(chan time.Duration, 1),
	}
}

// SetInterval reschedules the loop. Non-positive values are ignored.
func (s *Scheduler) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case s.updates <- d:
	default:
		// an update is already pending, the latest loop pass will
		// drain it before the next tick matters
	}
}

// Run blocks until ctx is done. The first cycle is synchronous so the
// process starts with a fully reconciled view.
func (s *Scheduler) Run(ctx context.Context) error {
	s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return ctx.Err()
		case d := <-s.updates:
			if d != s.interval {
				s.interval = d
				ticker.Reset(d)
				s.log.Info("check interval updated", zap.Duration("interval", d))
			}
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if err := s.checker.Check(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		s.log.Error("reconciliation cycle failed", zap.Error(err))
	}
}
