package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/user/dealwatch/internal/entity"
	"github.com/user/dealwatch/internal/repository"
)

// LivenessListing is the placeholder alert sent once at startup to prove the messaging path works.
var LivenessListing = entity.Listing{
	ID:    "test",
	Title: "Test Message",
	Price: 0,
	Link:  "https://www.ebay.com",
}

// Scheduler fires the watcher on a fixed period. Cycles never overlap: a slow cycle delays
// the next firing instead of stacking another one behind it.
type Scheduler struct {
	watcher      *Watcher
	notifier     repository.Notifier
	interval     time.Duration
	cycleTimeout time.Duration
	logger       *zap.Logger
}

// NewScheduler creates a driver for w. A zero cycleTimeout leaves cycles unbounded apart from
// the fetcher's own timeout.
func NewScheduler(w *Watcher, notifier repository.Notifier, interval, cycleTimeout time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		watcher:      w,
		notifier:     notifier,
		interval:     interval,
		cycleTimeout: cycleTimeout,
		logger:       logger,
	}
}

// SendLivenessCheck sends the startup test alert. The result is logged and returned; callers
// continue either way.
func (s *Scheduler) SendLivenessCheck(ctx context.Context) error {
	l := LivenessListing
	l.ObservedAt = time.Now().UTC()
	if err := s.notifier.Notify(ctx, &l); err != nil {
		s.logger.Error("liveness check failed", zap.Error(err))
		return err
	}
	s.logger.Info("test message sent")
	return nil
}

// Run executes cycles until ctx is cancelled. The first cycle starts immediately; each later
// one starts interval after the previous start, or right away if that moment has passed.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("starting periodic execution", zap.Duration("interval", s.interval))

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.stop()
			return nil
		case <-timer.C:
		}
		if ctx.Err() != nil {
			s.stop()
			return nil
		}

		started := time.Now()
		s.runCycle(ctx)

		wait := time.Until(started.Add(s.interval))
		if wait < 0 {
			s.logger.Warn("cycle overran the poll interval", zap.Duration("overrun", -wait))
			wait = 0
		}
		timer.Reset(wait)
	}
}

func (s *Scheduler) runCycle(ctx context.Context) entity.CycleReport {
	if s.cycleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cycleTimeout)
		defer cancel()
	}
	return s.watcher.ProcessListings(ctx)
}

func (s *Scheduler) stop() {
	s.watcher.status.set(entity.StateStopped)
	s.logger.Info("stopping scheduler")
}
