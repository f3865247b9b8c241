package sysmon

import (
	"context"
	"log/slog"
	"time"
)

// TopicStats is the event topic stats snapshots are published on.
const TopicStats = "system.stats"

// Publisher receives periodic snapshots.
type Publisher interface {
	Publish(topic string, payload any)
}

// Sampler publishes a snapshot every interval until its context ends.
type Sampler struct {
	monitor  *Monitor
	pub      Publisher
	interval time.Duration
}

// NewSampler creates a sampler. Intervals under five seconds are raised to
// five seconds since each sample blocks for the CPU window.
func NewSampler(m *Monitor, pub Publisher, interval time.Duration) *Sampler {
	if interval < 5*time.Second {
		interval = 5 * time.Second
	}
	return &Sampler{monitor: m, pub: pub, interval: interval}
}

// Run blocks until ctx is cancelled.
func (s *Sampler) Run(ctx context.Context) {
	slog.Info("system sampler started", "interval", s.interval)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("system sampler stopped")
			return
		case <-ticker.C:
			snap, err := s.monitor.Snapshot(ctx)
			if err != nil {
				if ctx.Err() == nil {
					slog.Warn("system sample failed", "error", err)
				}
				continue
			}
			s.pub.Publish(TopicStats, snap)
		}
	}
}
