package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name string
	runs atomic.Int32
	err  error
}

func (j *countingJob) Name() string        { return j.name }
func (j *countingJob) Description() string { return "counts executions" }

func (j *countingJob) Run(context.Context) error {
	j.runs.Add(1)
	return j.err
}

func newTestScheduler() *Scheduler {
	return NewScheduler(SchedulerConfig{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestScheduler_RegisterRejectsDuplicates(t *testing.T) {
	s := newTestScheduler()
	job := &countingJob{name: "refresh"}

	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Minute)))
	err := s.Register(job, NewIntervalSchedule(time.Minute))
	assert.ErrorIs(t, err, ErrJobAlreadyExists)
}

func TestScheduler_RegisterValidation(t *testing.T) {
	s := newTestScheduler()

	assert.ErrorIs(t, s.Register(nil, NewIntervalSchedule(time.Minute)), ErrNilJob)
	assert.ErrorIs(t, s.Register(&countingJob{name: "x"}, nil), ErrNilSchedule)
}

func TestScheduler_RunNow(t *testing.T) {
	s := newTestScheduler()
	job := &countingJob{name: "refresh"}
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))

	result, err := s.RunNow(context.Background(), "refresh")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, int32(1), job.runs.Load())

	_, err = s.RunNow(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestScheduler_RunNowRecordsFailure(t *testing.T) {
	s := newTestScheduler()
	job := &countingJob{name: "refresh", err: errors.New("cache down")}
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))

	result, err := s.RunNow(context.Background(), "refresh")
	require.Error(t, err)
	assert.False(t, result.Success)

	infos := s.ListJobs()
	require.Len(t, infos, 1)
	assert.Equal(t, int64(1), infos[0].FailCount)
	require.NotNil(t, infos[0].LastResult)
	assert.False(t, infos[0].LastResult.Success)
}

func TestScheduler_Lifecycle(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.Register(&countingJob{name: "refresh"}, NewIntervalSchedule(time.Hour)))

	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
}

func TestIntervalSchedule_Next(t *testing.T) {
	sched := NewIntervalSchedule(4 * time.Minute)
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, now.Add(4*time.Minute), sched.Next(now))
	assert.Equal(t, "@every 4m0s", sched.String())
}
