package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubJob struct {
	name     string
	schedule string
	failures int // fail this many runs before succeeding
	runs     int
}

func (j *stubJob) Name() string     { return j.name }
func (j *stubJob) Schedule() string { return j.schedule }

func (j *stubJob) Run(ctx context.Context) error {
	j.runs++
	if j.runs <= j.failures {
		return errors.New("upstream unavailable")
	}
	return nil
}

func TestAddJob(t *testing.T) {
	s := New(nil)

	require.NoError(t, s.AddJob(&stubJob{name: "a", schedule: "0 6 5 * *"}))
	require.NoError(t, s.AddJob(&stubJob{name: "b", schedule: "@every 6h"}))
	require.NoError(t, s.AddJob(&stubJob{name: "c", schedule: "30 0 6 * * *"}))

	assert.Error(t, s.AddJob(&stubJob{name: "a", schedule: "@daily"}), "duplicate name")
	assert.Error(t, s.AddJob(&stubJob{name: "d", schedule: "every tuesday"}), "invalid schedule")

	assert.Equal(t, []string{"a", "b", "c"}, s.GetAllJobs())
}

func TestRemoveJob(t *testing.T) {
	s := New(nil)
	require.NoError(t, s.AddJob(&stubJob{name: "a", schedule: "@daily"}))

	require.NoError(t, s.RemoveJob("a"))
	assert.Empty(t, s.GetAllJobs())
	assert.Error(t, s.RemoveJob("a"))

	_, err := s.NextRun("a")
	assert.Error(t, err)
}

func TestNextRun(t *testing.T) {
	s := New(nil)
	require.NoError(t, s.AddJob(&stubJob{name: "a", schedule: "@hourly"}))

	s.Start()
	defer s.Stop()

	// entries get their next time once the cron loop is running
	assert.Eventually(t, func() bool {
		next, err := s.NextRun("a")
		return err == nil && next.After(time.Now())
	}, time.Second, 10*time.Millisecond)
}

func TestRunJobRetries(t *testing.T) {
	s := New(nil).WithRetry(2, time.Millisecond)
	job := &stubJob{name: "fetch", schedule: "@daily", failures: 2}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJob("fetch")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 3, result.Attempts)
	assert.Empty(t, result.Error)

	_, err = s.RunJob("missing")
	assert.Error(t, err)
}

func TestRunJobGivesUp(t *testing.T) {
	s := New(nil).WithRetry(1, time.Millisecond)
	job := &stubJob{name: "fetch", schedule: "@daily", failures: 10}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJob("fetch")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 2, result.Attempts)
	assert.Equal(t, "upstream unavailable", result.Error)

	stats := s.GetJobStats()["fetch"]
	assert.Equal(t, 1, stats.TotalRuns)
	assert.Equal(t, 1, stats.FailureCount)
	assert.Zero(t, stats.SuccessRate)
	assert.Equal(t, 1, stats.ConsecutiveFailures)
	assert.NotNil(t, stats.LastFailure)
	assert.Nil(t, stats.LastSuccess)

	history, err := s.GetJobHistory("fetch")
	require.NoError(t, err)
	assert.Len(t, history.GetLatestResults(5), 1)
}

func TestJobHistoryBounded(t *testing.T) {
	var h JobHistory
	for i := 0; i < maxHistory+10; i++ {
		h.AddResult(JobResult{Success: i%2 == 0})
	}
	assert.Len(t, h.Results, maxHistory)
	assert.InDelta(t, 0.5, h.GetSuccessRate(), 1e-9)
	assert.Empty(t, (&JobHistory{}).GetLatestResults(3))

	// i = maxHistory+9 is odd: the newest run failed
	assert.Equal(t, 1, h.ConsecutiveFailures())
	latest := h.GetLatestResults(2)
	require.Len(t, latest, 2)
	assert.True(t, latest[0].Success)
	assert.False(t, latest[1].Success)
}
