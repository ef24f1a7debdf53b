package scheduler

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/service-desk-analytics/internal/core/domain"
	"github.com/lorrc/service-desk-analytics/internal/core/mocks"
)

func newTestScheduler(buf *bytes.Buffer) *Service {
	logger := slog.New(slog.NewTextHandler(buf, nil))
	return New(WithLogger(logger), WithJobTimeout(time.Second))
}

func TestAdd(t *testing.T) {
	noop := func(context.Context) error { return nil }

	t.Run("registers valid schedule", func(t *testing.T) {
		s := newTestScheduler(&bytes.Buffer{})
		require.NoError(t, s.Add(Job{Name: "a", Schedule: "@hourly", Run: noop}))
		jobs := s.Jobs()
		assert.Contains(t, jobs, "a")
	})

	t.Run("rejects invalid schedule", func(t *testing.T) {
		s := newTestScheduler(&bytes.Buffer{})
		err := s.Add(Job{Name: "a", Schedule: "not a spec", Run: noop})
		assert.Error(t, err)
	})

	t.Run("rejects duplicate name", func(t *testing.T) {
		s := newTestScheduler(&bytes.Buffer{})
		require.NoError(t, s.Add(Job{Name: "a", Schedule: "@daily", Run: noop}))
		assert.Error(t, s.Add(Job{Name: "a", Schedule: "@hourly", Run: noop}))
	})

	t.Run("empty schedule disables job", func(t *testing.T) {
		s := newTestScheduler(&bytes.Buffer{})
		require.NoError(t, s.Add(Job{Name: "a", Run: noop}))
		assert.Empty(t, s.Jobs())
	})

	t.Run("requires func", func(t *testing.T) {
		s := newTestScheduler(&bytes.Buffer{})
		assert.Error(t, s.Add(Job{Name: "a", Schedule: "@daily"}))
	})
}

func TestRunNowRecoversPanics(t *testing.T) {
	var buf bytes.Buffer
	s := newTestScheduler(&buf)

	assert.NotPanics(t, func() {
		s.RunNow(Job{Name: "boom", Run: func(context.Context) error { panic("kaboom") }})
	})
	assert.Contains(t, buf.String(), "panic recovered")
	assert.Contains(t, buf.String(), "job=boom")
}

func TestRunNowLogsFailure(t *testing.T) {
	var buf bytes.Buffer
	s := newTestScheduler(&buf)

	s.RunNow(Job{Name: "fails", Run: func(context.Context) error { return errors.New("backend down") }})
	assert.Contains(t, buf.String(), "job failed")
	assert.Contains(t, buf.String(), "backend down")
}

func TestRunNowAppliesTimeout(t *testing.T) {
	s := newTestScheduler(&bytes.Buffer{})

	var deadline time.Time
	var ok bool
	s.RunNow(Job{Name: "t", Timeout: time.Minute, Run: func(ctx context.Context) error {
		deadline, ok = ctx.Deadline()
		return nil
	}})
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)
}

func TestRunStopsOnCancel(t *testing.T) {
	s := newTestScheduler(&bytes.Buffer{})
	require.NoError(t, s.Add(Job{Name: "a", Schedule: "@daily", Run: func(context.Context) error { return nil }}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("scheduler did not stop")
	}

	assert.Error(t, s.Run(context.Background()))
}

func TestStatsJobs(t *testing.T) {
	t.Run("daily rollup recomputes yesterday as master", func(t *testing.T) {
		svc := mocks.NewMockStatsService()
		svc.On("RecomputeDay", mock.Anything, domain.MasterContext(), time.Time{}).
			Return(&domain.DailyStats{}, nil).Once()

		jobs := StatsJobs(svc, DefaultDailyRollupSpec, DefaultSweepSpec)
		require.Len(t, jobs, 2)
		assert.Equal(t, "daily-rollup", jobs[0].Name)
		require.NoError(t, jobs[0].Run(context.Background()))
		svc.AssertExpectations(t)
	})

	t.Run("sweep reports partial failures", func(t *testing.T) {
		svc := mocks.NewMockStatsService()
		svc.On("RecomputeOpenTickets", mock.Anything, domain.MasterContext()).
			Return(domain.SweepSummary{Processed: 4, Failed: 1}, nil).Once()

		jobs := StatsJobs(svc, DefaultDailyRollupSpec, DefaultSweepSpec)
		err := jobs[1].Run(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "1 of 5")
	})

	t.Run("sweep propagates listing error", func(t *testing.T) {
		svc := mocks.NewMockStatsService()
		svc.On("RecomputeOpenTickets", mock.Anything, domain.MasterContext()).
			Return(domain.SweepSummary{}, errors.New("db down")).Once()

		jobs := StatsJobs(svc, DefaultDailyRollupSpec, DefaultSweepSpec)
		assert.EqualError(t, jobs[1].Run(context.Background()), "db down")
	})

	t.Run("default specs register", func(t *testing.T) {
		s := newTestScheduler(&bytes.Buffer{})
		for _, job := range StatsJobs(mocks.NewMockStatsService(), DefaultDailyRollupSpec, DefaultSweepSpec) {
			require.NoError(t, s.Add(job))
		}
		assert.Len(t, s.Jobs(), 2)
	})
}
