package scheduler

import (
	"context"
	"log/slog"
	"time"

	"techtrends/internal/domain"
)

// Collector runs one collection cycle across all sources.
type Collector interface {
	Collect(ctx context.Context) ([]domain.SourceSummary, error)
}

type Scheduler struct {
	collector Collector
	interval  time.Duration
	timeout   time.Duration
	logger    *slog.Logger
}

func NewScheduler(collector Collector, interval, timeout time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		collector: collector,
		interval:  interval,
		timeout:   timeout,
		logger:    logger,
	}
}

// Start runs one cycle immediately and then one per interval until the
// context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval)

	s.runCycle(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

func (s *Scheduler) runCycle(ctx context.Context) {
	cycleCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	summaries, err := s.collector.Collect(cycleCtx)
	if err != nil {
		s.logger.Error("collection cycle failed", "error", err)
		return
	}

	total := 0
	failed := 0
	for _, sum := range summaries {
		total += sum.Collected
		if sum.Status == domain.CrawlFailed {
			failed++
		}
	}
	s.logger.Info("collection cycle finished",
		"sources", len(summaries),
		"collected", total,
		"failed_sources", failed,
	)
}
