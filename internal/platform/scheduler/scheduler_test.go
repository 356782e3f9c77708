package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"gare/internal/tender/job"
	"gare/pkg/platform/sentinel"
)

type fakeRunner struct {
	calls    int
	failures int
}

func (f *fakeRunner) Run(context.Context) (job.Result, error) {
	f.calls++
	if f.calls <= f.failures {
		return job.Result{}, errors.New("transient store outage")
	}
	return job.Result{Processed: 1}, nil
}

type fakeLock struct {
	held     bool
	acquired int
	released int
}

func (l *fakeLock) Acquire(context.Context) error {
	if l.held {
		return sentinel.ErrLockHeld
	}
	l.acquired++
	return nil
}

func (l *fakeLock) Release(context.Context) error {
	l.released++
	return nil
}

func TestRunNowRetriesTransientFailures(t *testing.T) {
	runner := &fakeRunner{failures: 2}
	s := New(runner, WithRetries(2))

	s.RunNow(context.Background())
	require.Equal(t, 3, runner.calls, "two failures then one success")
}

func TestRunNowGivesUpAfterRetries(t *testing.T) {
	runner := &fakeRunner{failures: 10}
	s := New(runner, WithRetries(1))

	s.RunNow(context.Background())
	require.Equal(t, 2, runner.calls)
}

func TestLockSerializesRuns(t *testing.T) {
	t.Run("held lock skips the run", func(t *testing.T) {
		runner := &fakeRunner{}
		lock := &fakeLock{held: true}
		s := New(runner, WithLock(lock))

		s.RunNow(context.Background())
		require.Zero(t, runner.calls)
		require.Zero(t, lock.released)
	})

	t.Run("free lock is taken and released", func(t *testing.T) {
		runner := &fakeRunner{}
		lock := &fakeLock{}
		s := New(runner, WithLock(lock))

		s.RunNow(context.Background())
		require.Equal(t, 1, runner.calls)
		require.Equal(t, 1, lock.acquired)
		require.Equal(t, 1, lock.released)
	})
}
