package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"gare/internal/tender/job"
	"gare/pkg/platform/sentinel"
)

// Runner is the scheduled unit of work; the deadline job satisfies it.
type Runner interface {
	Run(ctx context.Context) (job.Result, error)
}

// Locker serializes runs across replicas. A nil Locker means single-instance
// deployment and no coordination.
type Locker interface {
	Acquire(ctx context.Context) error
	Release(ctx context.Context) error
}

// Scheduler drives a Runner on a cron spec with bounded retries and an
// optional distributed lock. The job itself is idempotent, so a retry after
// a partial run only touches what the first attempt missed.
type Scheduler struct {
	cron    *cron.Cron
	runner  Runner
	lock    Locker
	logger  *slog.Logger
	retries int
	timeout time.Duration
}

// Option configures the scheduler.
type Option func(*Scheduler)

// WithLock serializes runs across replicas.
func WithLock(lock Locker) Option {
	return func(s *Scheduler) { s.lock = lock }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = logger }
}

// WithRetries sets how many times a failed run is re-attempted.
func WithRetries(n int) Option {
	return func(s *Scheduler) {
		if n >= 0 {
			s.retries = n
		}
	}
}

// WithRunTimeout bounds a single run attempt.
func WithRunTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// New builds a scheduler for the runner.
func New(runner Runner, opts ...Option) *Scheduler {
	s := &Scheduler{
		cron:    cron.New(),
		runner:  runner,
		logger:  slog.Default(),
		retries: 2,
		timeout: 3 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start registers the cron spec and begins scheduling. The returned error
// covers spec parsing only; run failures are logged and retried.
func (s *Scheduler) Start(spec string) error {
	_, err := s.cron.AddFunc(spec, func() { s.execute(context.Background()) })
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts scheduling and waits for an in-flight run to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunNow triggers one execution outside the cron spec, for startup catch-up
// or operator intervention.
func (s *Scheduler) RunNow(ctx context.Context) {
	s.execute(ctx)
}

func (s *Scheduler) execute(ctx context.Context) {
	if s.lock != nil {
		if err := s.lock.Acquire(ctx); err != nil {
			if errors.Is(err, sentinel.ErrLockHeld) {
				s.logger.Debug("deadline run skipped, another instance holds the lock")
				return
			}
			s.logger.Error("deadline lock acquire failed", "error", err)
			return
		}
		defer func() {
			if err := s.lock.Release(ctx); err != nil {
				s.logger.Warn("deadline lock release failed", "error", err)
			}
		}()
	}

	for attempt := 0; attempt <= s.retries; attempt++ {
		result, err := s.runOnce(ctx)
		if err == nil {
			s.logger.Info("deadline run complete",
				"attempt", attempt+1,
				"processed", result.Processed,
				"failed", result.Failed,
				"changes", len(result.Changes))
			return
		}
		s.logger.Error("deadline run failed",
			"attempt", attempt+1,
			"max_attempts", s.retries+1,
			"error", err)
	}
}

func (s *Scheduler) runOnce(ctx context.Context) (job.Result, error) {
	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.runner.Run(runCtx)
}
