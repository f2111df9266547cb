// Package scheduler runs recurring pipeline jobs on cron schedules
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/gpadpoll/fixed-income-fund-recsys/pkg/logger"
)

// Parser accepts five fields, an optional seconds field and descriptors
var Parser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

type registration struct {
	job     Job
	entry   cron.EntryID
	history *JobHistory
}

// Scheduler triggers registered jobs. A run still in progress when its next
// trigger fires is skipped, not queued.
type Scheduler struct {
	cron *cron.Cron
	log  *logger.Logger

	mu   sync.RWMutex
	jobs map[string]*registration

	// cancelled by Stop so that running jobs and retry waits return early
	ctx    context.Context
	cancel context.CancelFunc

	maxRetries int
	retryDelay time.Duration
}

// New returns a stopped scheduler retrying failed runs twice, a minute apart
func New(log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithParser(Parser),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		log:        log,
		jobs:       make(map[string]*registration),
		ctx:        ctx,
		cancel:     cancel,
		maxRetries: 2,
		retryDelay: time.Minute,
	}
}

// WithRetry sets how often a failed run is retried and the pause between attempts
func (s *Scheduler) WithRetry(maxRetries int, delay time.Duration) *Scheduler {
	s.maxRetries, s.retryDelay = maxRetries, delay
	return s
}

// AddJob registers job under its name, which must be unique
func (s *Scheduler) AddJob(job Job) error {
	name := job.Name()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.jobs[name]; dup {
		return fmt.Errorf("job %s already exists", name)
	}
	id, err := s.cron.AddFunc(job.Schedule(), func() { s.runJob(job) })
	if err != nil {
		return fmt.Errorf("schedule job %s: %w", name, err)
	}
	s.jobs[name] = &registration{job: job, entry: id, history: &JobHistory{}}

	s.log.WithFields(map[string]interface{}{
		"job":      name,
		"schedule": job.Schedule(),
	}).Info("Job registered")
	return nil
}

// RemoveJob unschedules a job and drops its history
func (s *Scheduler) RemoveJob(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("job %s not found", name)
	}
	s.cron.Remove(reg.entry)
	delete(s.jobs, name)
	s.log.WithField("job", name).Info("Job removed")
	return nil
}

func (s *Scheduler) lookup(name string) (*registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reg, ok := s.jobs[name]
	if !ok {
		return nil, fmt.Errorf("job %s not found", name)
	}
	return reg, nil
}

// NextRun is the next trigger time of a job; zero until Start
func (s *Scheduler) NextRun(name string) (time.Time, error) {
	reg, err := s.lookup(name)
	if err != nil {
		return time.Time{}, err
	}
	return s.cron.Entry(reg.entry).Next, nil
}

// Start begins triggering jobs in the background
func (s *Scheduler) Start() {
	s.log.WithField("jobs", len(s.GetAllJobs())).Info("Scheduler started")
	s.cron.Start()
}

// Stop cancels running jobs and waits for them to return
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.log.Info("Scheduler stopped")
}

// RunJob runs a job now, outside of its schedule, and waits for the result
func (s *Scheduler) RunJob(name string) (JobResult, error) {
	reg, err := s.lookup(name)
	if err != nil {
		return JobResult{}, err
	}
	return s.runJob(reg.job), nil
}

// runJob runs job until it succeeds, the retry budget is spent or the
// scheduler stops, then records the outcome
func (s *Scheduler) runJob(job Job) JobResult {
	result := JobResult{JobName: job.Name(), StartTime: time.Now()}
	log := s.log.WithField("job", result.JobName)
	log.Info("Job started")

	var err error
	for {
		result.Attempts++
		if err = job.Run(s.ctx); err == nil || s.ctx.Err() != nil {
			break
		}
		log.WithError(err).WithField("attempt", result.Attempts).Warn("Job attempt failed")
		if result.Attempts > s.maxRetries {
			break
		}
		select {
		case <-s.ctx.Done():
		case <-time.After(s.retryDelay):
		}
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	result.Success = err == nil
	if err != nil {
		result.Error = err.Error()
	}

	s.mu.Lock()
	if reg, ok := s.jobs[result.JobName]; ok {
		reg.history.AddResult(result)
	}
	s.mu.Unlock()

	log = log.WithFields(map[string]interface{}{
		"attempts": result.Attempts,
		"duration": result.Duration.String(),
	})
	if result.Success {
		log.Info("Job completed")
	} else {
		log.WithError(err).Error("Job failed after all retries")
	}
	return result
}

// GetJobHistory returns the recorded runs of a job
func (s *Scheduler) GetJobHistory(name string) (*JobHistory, error) {
	reg, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	return reg.history, nil
}

// GetAllJobs returns the registered job names, sorted
func (s *Scheduler) GetAllJobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetJobStats summarizes the history of every job, keyed by name
func (s *Scheduler) GetJobStats() map[string]JobStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[string]JobStats, len(s.jobs))
	for name, reg := range s.jobs {
		stats[name] = reg.history.stats(name, reg.job.Schedule())
	}
	return stats
}
