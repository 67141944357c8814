package background

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"haventory/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScheduler(t *testing.T) *JobScheduler {
	t.Helper()
	js, err := NewJobScheduler(logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = js.Stop() })
	return js
}

func TestJobsRunOnSchedule(t *testing.T) {
	js := newScheduler(t)
	var runs atomic.Int32

	require.NoError(t, js.AddJob(context.Background(), "counter", 20*time.Millisecond, func(context.Context) error {
		runs.Add(1)
		return nil
	}))
	js.Start()

	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestFailingJobStaysScheduled(t *testing.T) {
	js := newScheduler(t)
	var runs atomic.Int32

	require.NoError(t, js.AddJob(context.Background(), "flaky", 20*time.Millisecond, func(context.Context) error {
		runs.Add(1)
		return errors.New("boom")
	}))
	js.Start()

	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestAddJobValidation(t *testing.T) {
	js := newScheduler(t)
	noop := func(context.Context) error { return nil }

	assert.Error(t, js.AddJob(context.Background(), "zero", 0, noop))
	require.NoError(t, js.AddJob(context.Background(), "backup", time.Hour, noop))
	assert.Error(t, js.AddJob(context.Background(), "backup", time.Hour, noop))
}

func TestRunNowAndRemove(t *testing.T) {
	js := newScheduler(t)
	var runs atomic.Int32
	require.NoError(t, js.AddJob(context.Background(), "backup", time.Hour, func(context.Context) error {
		runs.Add(1)
		return nil
	}))
	require.NoError(t, js.AddJob(context.Background(), "alerts", time.Hour, func(context.Context) error { return nil }))
	js.Start()

	require.NoError(t, js.RunNow("backup"))
	assert.Eventually(t, func() bool { return runs.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Error(t, js.RunNow("missing"))

	assert.Equal(t, []string{"alerts", "backup"}, js.JobNames())
	status := js.GetJobStatus()
	assert.Equal(t, 2, status["total_jobs"])

	require.NoError(t, js.RemoveJob("backup"))
	require.NoError(t, js.RemoveJob("backup"))
	assert.Equal(t, []string{"alerts"}, js.JobNames())
}
