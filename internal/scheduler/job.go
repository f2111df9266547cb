package scheduler

import (
	"context"
	"time"
)

// Job is a unit of recurring pipeline work, such as a monthly fetch
type Job interface {
	Name() string

	// Schedule is a cron expression: five fields ("0 6 5 * *"), an optional
	// leading seconds field, or a descriptor such as "@monthly".
	Schedule() string

	// Run is retried by the scheduler while it returns an error, up to the
	// configured retry budget. ctx is cancelled on Stop.
	Run(ctx context.Context) error
}

// JobResult is the outcome of one triggered run, retries included
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Attempts  int           `json:"attempts"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

const maxHistory = 100

// JobHistory keeps the most recent maxHistory results of a job, oldest first
type JobHistory struct {
	Results []JobResult
}

// AddResult appends result, evicting the oldest entry past maxHistory
func (h *JobHistory) AddResult(result JobResult) {
	if len(h.Results) == maxHistory {
		copy(h.Results, h.Results[1:])
		h.Results[maxHistory-1] = result
		return
	}
	h.Results = append(h.Results, result)
}

// GetLatestResults returns up to n results, oldest first
func (h *JobHistory) GetLatestResults(n int) []JobResult {
	if n <= 0 {
		return nil
	}
	if n > len(h.Results) {
		n = len(h.Results)
	}
	return append([]JobResult(nil), h.Results[len(h.Results)-n:]...)
}

// GetSuccessRate returns the share of successful runs in [0, 1]; 0 with no runs
func (h *JobHistory) GetSuccessRate() float64 {
	if len(h.Results) == 0 {
		return 0
	}
	return float64(h.count(true)) / float64(len(h.Results))
}

// ConsecutiveFailures counts failed runs since the last success
func (h *JobHistory) ConsecutiveFailures() int {
	n := 0
	for i := len(h.Results) - 1; i >= 0 && !h.Results[i].Success; i-- {
		n++
	}
	return n
}

func (h *JobHistory) count(success bool) int {
	n := 0
	for _, r := range h.Results {
		if r.Success == success {
			n++
		}
	}
	return n
}

// stats summarizes the history of one job
func (h *JobHistory) stats(name, schedule string) JobStats {
	st := JobStats{
		JobName:             name,
		Schedule:            schedule,
		TotalRuns:           len(h.Results),
		SuccessCount:        h.count(true),
		FailureCount:        h.count(false),
		SuccessRate:         h.GetSuccessRate(),
		ConsecutiveFailures: h.ConsecutiveFailures(),
	}
	for i := len(h.Results) - 1; i >= 0; i-- {
		r := h.Results[i]
		if st.LastRun == nil {
			st.LastRun = &r.StartTime
		}
		if r.Success && st.LastSuccess == nil {
			st.LastSuccess = &r.StartTime
		}
		if !r.Success && st.LastFailure == nil {
			st.LastFailure = &r.StartTime
		}
	}
	return st
}

// JobStats is the summary reported by GetJobStats
type JobStats struct {
	JobName             string     `json:"job_name"`
	Schedule            string     `json:"schedule"`
	TotalRuns           int        `json:"total_runs"`
	SuccessCount        int        `json:"success_count"`
	FailureCount        int        `json:"failure_count"`
	SuccessRate         float64    `json:"success_rate"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	LastRun             *time.Time `json:"last_run,omitempty"`
	LastSuccess         *time.Time `json:"last_success,omitempty"`
	LastFailure         *time.Time `json:"last_failure,omitempty"`
}
