package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DailyScheduler enqueues a fixed set of jobs once per day at a configured
// local clock time.
type DailyScheduler struct {
	queue  *Queue
	runAt  string
	builds []func() Job
	logger *zap.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	started bool
}

// NewDailyScheduler builds a scheduler targeting the queue. runAt is an
// "HH:MM" clock time in the process's local zone.
func NewDailyScheduler(queue *Queue, runAt string, logger *zap.Logger) *DailyScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DailyScheduler{queue: queue, runAt: runAt, logger: logger}
}

// Register adds a job builder invoked at every tick. Builders run at tick
// time so payloads can capture the current date.
func (s *DailyScheduler) Register(build func() Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.builds = append(s.builds, build)
}

// Start launches the scheduling loop. Safe to call once.
func (s *DailyScheduler) Start(ctx context.Context) error {
	if _, err := parseRunAt(s.runAt); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.started = true
	go s.loop(ctx)
	s.logger.Sugar().Infow("daily scheduler started", "run_at", s.runAt)
	return nil
}

// Stop halts the scheduling loop.
func (s *DailyScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	s.cancel()
	s.started = false
}

func (s *DailyScheduler) loop(ctx context.Context) {
	for {
		wait := untilNext(time.Now(), s.runAt)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.fire()
		}
	}
}

func (s *DailyScheduler) fire() {
	s.mu.Lock()
	builds := make([]func() Job, len(s.builds))
	copy(builds, s.builds)
	s.mu.Unlock()

	for _, build := range builds {
		job := build()
		if err := s.queue.Enqueue(job); err != nil {
			s.logger.Sugar().Errorw("failed to enqueue scheduled job", "type", job.Type, "error", err)
		}
	}
}

func parseRunAt(runAt string) (time.Time, error) {
	t, err := time.Parse("15:04", runAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("run_at must be HH:MM: %w", err)
	}
	return t, nil
}

// untilNext returns the duration from now to the next occurrence of the
// runAt clock time. A same-day occurrence already passed rolls to tomorrow.
func untilNext(now time.Time, runAt string) time.Duration {
	t, err := parseRunAt(runAt)
	if err != nil {
		return 24 * time.Hour
	}
	next := time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}
