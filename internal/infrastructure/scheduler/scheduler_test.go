package scheduler

import (
	"context"
	"errors"
	"sync"
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
func (j *countingJob) Description() string { return "counts runs" }

func (j *countingJob) Run(context.Context) error {
	j.runs.Add(1)
	return j.err
}

func TestRegister_Validation(t *testing.T) {
	s := New(Config{Location: time.UTC})

	assert.ErrorIs(t, s.Register(nil, "@daily"), ErrNilJob)
	assert.ErrorIs(t, s.Register(&countingJob{name: "a"}, "not a spec"), ErrInvalidSchedule)

	require.NoError(t, s.Register(&countingJob{name: "a"}, "5 0 * * *"))
	assert.ErrorIs(t, s.Register(&countingJob{name: "a"}, "@hourly"), ErrJobAlreadyExists)
}

func TestListJobs(t *testing.T) {
	s := New(Config{Location: time.UTC})
	require.NoError(t, s.Register(&countingJob{name: "b"}, "@every 30s"))
	require.NoError(t, s.Register(&countingJob{name: "a"}, "5 0 * * *"))

	jobs := s.ListJobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, "a", jobs[0].Name)
	assert.Equal(t, "5 0 * * *", jobs[0].Schedule)
	assert.True(t, jobs[0].Enabled)
	assert.Equal(t, 0, jobs[0].NextRun.Hour())
	assert.Equal(t, 5, jobs[0].NextRun.Minute())

	require.NoError(t, s.DisableJob("a"))
	info, err := s.GetJobInfo("a")
	require.NoError(t, err)
	assert.False(t, info.Enabled)
	assert.True(t, info.NextRun.IsZero())

	require.NoError(t, s.EnableJob("a"))
	require.NoError(t, s.Unregister("b"))
	assert.Len(t, s.ListJobs(), 1)

	assert.ErrorIs(t, s.Unregister("b"), ErrJobNotFound)
	assert.ErrorIs(t, s.EnableJob("b"), ErrJobNotFound)
	_, err = s.GetJobInfo("b")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestRunNow(t *testing.T) {
	s := New(Config{})
	ok := &countingJob{name: "ok"}
	bad := &countingJob{name: "bad", err: errors.New("disk full")}
	require.NoError(t, s.Register(ok, "@daily"))
	require.NoError(t, s.Register(bad, "@daily"))

	var (
		mu      sync.Mutex
		started []string
		done    []JobResult
	)
	s.OnJobStart(func(name string) {
		mu.Lock()
		started = append(started, name)
		mu.Unlock()
	})
	s.OnJobComplete(func(r JobResult) {
		mu.Lock()
		done = append(done, r)
		mu.Unlock()
	})

	res, err := s.RunNow(context.Background(), "ok")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.True(t, res.Manual)

	_, err = s.RunNow(context.Background(), "bad")
	assert.EqualError(t, err, "disk full")

	_, err = s.RunNow(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)

	assert.Equal(t, []string{"ok", "bad"}, started)
	require.Len(t, done, 2)
	assert.False(t, done[1].Success)

	info, err := s.GetJobInfo("bad")
	require.NoError(t, err)
	assert.Equal(t, int64(1), info.RunCount)
	assert.Equal(t, int64(1), info.FailCount)
	require.NotNil(t, info.LastResult)

	m := s.GetMetrics()
	assert.Equal(t, int64(2), m.TotalExecutions)
	assert.Equal(t, int64(1), m.TotalFailures)
	assert.Equal(t, int64(1), m.FailuresByJob["bad"])

	hist := s.GetHistory(1)
	require.Len(t, hist, 1)
	assert.Equal(t, "bad", hist[0].JobName)
	assert.Len(t, s.GetHistory(0), 2)
}

func TestHistoryIsBounded(t *testing.T) {
	s := New(Config{MaxHistorySize: 3})
	require.NoError(t, s.Register(&countingJob{name: "j"}, "@daily"))

	for i := 0; i < 5; i++ {
		_, err := s.RunNow(context.Background(), "j")
		require.NoError(t, err)
	}
	assert.Len(t, s.GetHistory(0), 3)
}

func TestStartStop(t *testing.T) {
	s := New(Config{})
	job := &countingJob{name: "tick"}
	require.NoError(t, s.Register(job, "@every 1s"))

	assert.ErrorIs(t, s.Stop(context.Background()), ErrSchedulerNotRunning)
	require.NoError(t, s.Start())
	assert.ErrorIs(t, s.Start(), ErrSchedulerAlreadyRunning)
	assert.True(t, s.IsRunning())

	assert.Eventually(t, func() bool { return job.runs.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.False(t, s.IsRunning())

	info, err := s.GetJobInfo("tick")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, info.RunCount, int64(1))
	assert.False(t, info.LastResult.Manual)
}
