// Package scheduler runs the background jobs of Qarzhy Learning Hub,
// currently the periodic rebuild of the leaderboard cache from the
// progression ledger.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Job is a unit of background work.
type Job interface {
	// Name uniquely identifies the job within a scheduler.
	Name() string

	// Run executes the job. The context is cancelled on Stop.
	Run(ctx context.Context) error

	// Description explains what the job does, for logs and status.
	Description() string
}

// Schedule decides when a job runs next.
type Schedule interface {
	Next(t time.Time) time.Time
	String() string
}

// JobResult records one job execution.
type JobResult struct {
	JobName     string
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
	Success     bool
	Error       error
}

var (
	ErrNilJob                  = errors.New("job cannot be nil")
	ErrNilSchedule             = errors.New("schedule cannot be nil")
	ErrJobAlreadyExists        = errors.New("job already exists")
	ErrJobNotFound             = errors.New("job not found")
	ErrSchedulerAlreadyRunning = errors.New("scheduler is already running")
	ErrSchedulerNotRunning     = errors.New("scheduler is not running")
)

// Scheduler runs registered jobs on their schedules. The loop ticks
// once a second and fires every due job in its own goroutine; Stop
// waits for running jobs to finish.
type Scheduler struct {
	mu sync.RWMutex

	logger   *slog.Logger
	timezone *time.Location

	jobs      map[string]*scheduledJob
	lastRuns  map[string]JobResult
	running   bool
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	startedAt time.Time
}

type scheduledJob struct {
	job       Job
	schedule  Schedule
	nextRun   time.Time
	runCount  int64
	failCount int64
}

// SchedulerConfig configures a Scheduler.
type SchedulerConfig struct {
	Logger *slog.Logger

	// Timezone for schedule calculations, UTC when nil.
	Timezone *time.Location
}

// NewScheduler creates an empty scheduler.
func NewScheduler(config SchedulerConfig) *Scheduler {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Timezone == nil {
		config.Timezone = time.UTC
	}

	return &Scheduler{
		logger:   config.Logger,
		timezone: config.Timezone,
		jobs:     make(map[string]*scheduledJob),
		lastRuns: make(map[string]JobResult),
	}
}

// Register adds a job with its schedule.
func (s *Scheduler) Register(job Job, schedule Schedule) error {
	if job == nil {
		return ErrNilJob
	}
	if schedule == nil {
		return ErrNilSchedule
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("%w: %s", ErrJobAlreadyExists, name)
	}

	next := schedule.Next(time.Now().In(s.timezone))
	s.jobs[name] = &scheduledJob{job: job, schedule: schedule, nextRun: next}

	s.logger.Info("job registered",
		"job", name,
		"description", job.Description(),
		"schedule", schedule.String(),
		"next_run", next.Format(time.RFC3339),
	)
	return nil
}

// Start launches the scheduling loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrSchedulerAlreadyRunning
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running = true
	s.startedAt = time.Now()
	s.mu.Unlock()

	s.logger.Info("scheduler started", "jobs_count", len(s.jobs))

	s.wg.Add(1)
	go s.loop()
	return nil
}

// Stop cancels the loop and waits for running jobs.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("scheduler stopped", "uptime", time.Since(s.startedAt).String())
	return nil
}

// IsRunning reports whether the loop is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

func (s *Scheduler) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.fireDue()
		}
	}
}

func (s *Scheduler) fireDue() {
	now := time.Now().In(s.timezone)

	s.mu.Lock()
	var due []*scheduledJob
	for _, sj := range s.jobs {
		if now.After(sj.nextRun) {
			// Next run is advanced before execution so a long run
			// cannot fire twice concurrently.
			sj.nextRun = sj.schedule.Next(now)
			sj.runCount++
			due = append(due, sj)
		}
	}
	s.mu.Unlock()

	for _, sj := range due {
		s.wg.Add(1)
		go s.execute(sj)
	}
}

func (s *Scheduler) execute(sj *scheduledJob) {
	defer s.wg.Done()

	name := sj.job.Name()
	startedAt := time.Now()
	err := sj.job.Run(s.ctx)
	completedAt := time.Now()

	result := JobResult{
		JobName:     name,
		StartedAt:   startedAt,
		CompletedAt: completedAt,
		Duration:    completedAt.Sub(startedAt),
		Success:     err == nil,
		Error:       err,
	}

	s.mu.Lock()
	if err != nil {
		sj.failCount++
	}
	s.lastRuns[name] = result
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("job failed", "job", name, "duration", result.Duration.String(), "error", err)
	} else {
		s.logger.Info("job completed", "job", name, "duration", result.Duration.String())
	}
}

// RunNow executes a job immediately, outside its schedule.
func (s *Scheduler) RunNow(ctx context.Context, jobName string) (JobResult, error) {
	s.mu.RLock()
	sj, exists := s.jobs[jobName]
	s.mu.RUnlock()
	if !exists {
		return JobResult{}, fmt.Errorf("%w: %s", ErrJobNotFound, jobName)
	}

	startedAt := time.Now()
	err := sj.job.Run(ctx)
	completedAt := time.Now()

	result := JobResult{
		JobName:     jobName,
		StartedAt:   startedAt,
		CompletedAt: completedAt,
		Duration:    completedAt.Sub(startedAt),
		Success:     err == nil,
		Error:       err,
	}

	s.mu.Lock()
	s.lastRuns[jobName] = result
	if err != nil {
		sj.failCount++
	}
	s.mu.Unlock()

	return result, err
}

// JobInfo describes a registered job.
type JobInfo struct {
	Name        string
	Description string
	Schedule    string
	NextRun     time.Time
	RunCount    int64
	FailCount   int64
	LastResult  *JobResult
}

// ListJobs returns the state of every registered job.
func (s *Scheduler) ListJobs() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]JobInfo, 0, len(s.jobs))
	for name, sj := range s.jobs {
		info := JobInfo{
			Name:        name,
			Description: sj.job.Description(),
			Schedule:    sj.schedule.String(),
			NextRun:     sj.nextRun,
			RunCount:    sj.runCount,
			FailCount:   sj.failCount,
		}
		if last, ok := s.lastRuns[name]; ok {
			lastCopy := last
			info.LastResult = &lastCopy
		}
		infos = append(infos, info)
	}
	return infos
}
