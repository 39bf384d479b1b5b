package game

import (
	"context"
	"time"

	"blindtest/logger"
)

// Scheduler drives every room from one ticker.
type Scheduler struct {
	registry *Registry
	interval time.Duration
}

// NewScheduler ticks the rooms of registry every interval.
func NewScheduler(registry *Registry, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = time.Second
	}
	return &Scheduler{registry: registry, interval: interval}
}

// Run ticks until ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	logger.Info("scheduler started", logger.Duration("interval", s.interval))

	for {
		select {
		case <-ctx.Done():
			logger.Info("scheduler stopped")
			return
		case now := <-ticker.C:
			s.TickOnce(now)
		}
	}
}

// TickOnce forwards now to every room that can make progress. Rooms still
// fetching their catalog or broken for good are skipped.
func (s *Scheduler) TickOnce(now time.Time) {
	for _, room := range s.registry.Rooms() {
		if !room.State().Playable() {
			continue
		}
		room.Tick(now)
	}
}
