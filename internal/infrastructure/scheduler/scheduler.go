// Package scheduler runs background jobs of the player daemon on cron
// schedules.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	rcron "github.com/robfig/cron/v3"

	"github.com/OwlWorksInnovations/lumina-local-video-player/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// JOB INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// Job defines the interface that all scheduled jobs must implement.
type Job interface {
	// Name returns the unique name of the job.
	Name() string

	// Run executes the job.
	// The context is cancelled when the scheduler is stopping.
	Run(ctx context.Context) error

	// Description returns a human-readable description of the job.
	Description() string
}

// JobResult contains the result of a job execution.
type JobResult struct {
	JobName     string
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
	Success     bool
	Manual      bool
	Error       error
}

// ══════════════════════════════════════════════════════════════════════════════
// SCHEDULER
// ══════════════════════════════════════════════════════════════════════════════

// Scheduler manages and executes scheduled jobs.
type Scheduler struct {
	mu sync.RWMutex

	log        *logger.Logger
	loc        *time.Location
	maxHistory int

	cron      *rcron.Cron
	jobs      map[string]*scheduledJob
	running   bool
	ctx       context.Context
	cancel    context.CancelFunc
	startedAt time.Time

	metrics *Metrics
	history []JobResult

	onJobStart    func(jobName string)
	onJobComplete func(result JobResult)
}

type scheduledJob struct {
	job        Job
	spec       string
	schedule   rcron.Schedule
	entryID    rcron.EntryID
	enabled    bool
	lastRun    time.Time
	runCount   int64
	failCount  int64
	lastResult *JobResult
}

// Config contains configuration for the Scheduler.
type Config struct {
	Logger *logger.Logger

	// Location for schedule calculations (default: time.Local).
	Location *time.Location

	// MaxHistorySize is the maximum number of job results to keep.
	MaxHistorySize int
}

// New creates a Scheduler. Overlapping runs of the same job are skipped.
func New(cfg Config) *Scheduler {
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.MaxHistorySize <= 0 {
		cfg.MaxHistorySize = 100
	}

	log := cfg.Logger.With(logger.Component("scheduler"))
	cl := cronLogger{log: log}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		log:        log,
		loc:        cfg.Location,
		maxHistory: cfg.MaxHistorySize,
		cron: rcron.New(
			rcron.WithLocation(cfg.Location),
			rcron.WithLogger(cl),
			rcron.WithChain(rcron.Recover(cl), rcron.SkipIfStillRunning(cl)),
		),
		jobs:    make(map[string]*scheduledJob),
		ctx:     ctx,
		cancel:  cancel,
		metrics: NewMetrics(),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// JOB REGISTRATION
// ══════════════════════════════════════════════════════════════════════════════

// Register adds a job with a standard five-field cron spec or a descriptor
// such as "@daily" or "@every 30s".
func (s *Scheduler) Register(job Job, spec string) error {
	if job == nil {
		return ErrNilJob
	}
	schedule, err := rcron.ParseStandard(spec)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidSchedule, spec, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("%w: %s", ErrJobAlreadyExists, name)
	}

	sj := &scheduledJob{job: job, spec: spec, schedule: schedule}
	s.jobs[name] = sj
	s.enableLocked(sj)

	s.log.Info("job registered",
		logger.String("job", name),
		logger.String("schedule", spec),
		logger.Time("next_run", schedule.Next(time.Now().In(s.loc))),
	)
	return nil
}

// Unregister removes a job from the scheduler.
func (s *Scheduler) Unregister(jobName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sj, exists := s.jobs[jobName]
	if !exists {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobName)
	}
	s.disableLocked(sj)
	delete(s.jobs, jobName)

	s.log.Info("job unregistered", logger.String("job", jobName))
	return nil
}

// EnableJob enables a job by name.
func (s *Scheduler) EnableJob(jobName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sj, exists := s.jobs[jobName]
	if !exists {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobName)
	}
	s.enableLocked(sj)
	return nil
}

// DisableJob disables a job by name. RunNow still works on disabled jobs.
func (s *Scheduler) DisableJob(jobName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sj, exists := s.jobs[jobName]
	if !exists {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobName)
	}
	s.disableLocked(sj)
	return nil
}

func (s *Scheduler) enableLocked(sj *scheduledJob) {
	if sj.enabled {
		return
	}
	name := sj.job.Name()
	sj.entryID = s.cron.Schedule(sj.schedule, rcron.FuncJob(func() {
		s.execute(s.jobContext(), sj, false)
	}))
	sj.enabled = true
	s.log.Debug("job enabled", logger.String("job", name))
}

func (s *Scheduler) jobContext() context.Context {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ctx
}

func (s *Scheduler) disableLocked(sj *scheduledJob) {
	if !sj.enabled {
		return
	}
	s.cron.Remove(sj.entryID)
	sj.enabled = false
	s.log.Debug("job disabled", logger.String("job", sj.job.Name()))
}

// ══════════════════════════════════════════════════════════════════════════════
// LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

// Start begins firing jobs on their schedules.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrSchedulerAlreadyRunning
	}
	if s.ctx.Err() != nil {
		s.ctx, s.cancel = context.WithCancel(context.Background())
	}
	s.running = true
	s.startedAt = time.Now()
	s.cron.Start()

	s.log.Info("scheduler started", logger.Int("jobs_count", len(s.jobs)))
	return nil
}

// Stop stops the scheduler. It cancels the job context and waits for
// running jobs to return, or for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.running = false
	stopped := s.cron.Stop()
	s.cancel()
	startedAt := s.startedAt
	s.mu.Unlock()

	select {
	case <-stopped.Done():
	case <-ctx.Done():
		return ctx.Err()
	}

	s.log.Info("scheduler stopped", logger.Duration("uptime", time.Since(startedAt)))
	return nil
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// ══════════════════════════════════════════════════════════════════════════════
// EXECUTION
// ══════════════════════════════════════════════════════════════════════════════

// RunNow immediately executes a job by name, ignoring its schedule.
func (s *Scheduler) RunNow(ctx context.Context, jobName string) (JobResult, error) {
	s.mu.RLock()
	sj, exists := s.jobs[jobName]
	s.mu.RUnlock()

	if !exists {
		return JobResult{}, fmt.Errorf("%w: %s", ErrJobNotFound, jobName)
	}

	result := s.execute(ctx, sj, true)
	return result, result.Error
}

func (s *Scheduler) execute(ctx context.Context, sj *scheduledJob, manual bool) JobResult {
	name := sj.job.Name()

	s.mu.RLock()
	onStart, onComplete := s.onJobStart, s.onJobComplete
	s.mu.RUnlock()

	if onStart != nil {
		onStart(name)
	}

	startedAt := time.Now()
	err := sj.job.Run(ctx)
	completedAt := time.Now()

	result := JobResult{
		JobName:     name,
		StartedAt:   startedAt,
		CompletedAt: completedAt,
		Duration:    completedAt.Sub(startedAt),
		Success:     err == nil,
		Manual:      manual,
		Error:       err,
	}
	s.metrics.RecordExecution(name, result.Duration, result.Success)

	s.mu.Lock()
	sj.lastRun = startedAt
	sj.runCount++
	if err != nil {
		sj.failCount++
	}
	sj.lastResult = &result
	s.history = append(s.history, result)
	if len(s.history) > s.maxHistory {
		s.history = s.history[len(s.history)-s.maxHistory:]
	}
	s.mu.Unlock()

	fields := []logger.Field{
		logger.String("job", name),
		logger.Bool("manual", manual),
		logger.Latency(result.Duration),
	}
	if err != nil {
		s.log.Error("job failed", append(fields, logger.Err(err))...)
	} else {
		s.log.Debug("job completed", fields...)
	}

	if onComplete != nil {
		onComplete(result)
	}
	return result
}

// ══════════════════════════════════════════════════════════════════════════════
// STATUS & INFO
// ══════════════════════════════════════════════════════════════════════════════

// JobInfo contains information about a registered job.
type JobInfo struct {
	Name        string
	Description string
	Enabled     bool
	Schedule    string
	LastRun     time.Time
	NextRun     time.Time
	RunCount    int64
	FailCount   int64
	LastResult  *JobResult
}

// ListJobs returns information about all registered jobs sorted by name.
func (s *Scheduler) ListJobs() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now().In(s.loc)
	infos := make([]JobInfo, 0, len(s.jobs))
	for _, sj := range s.jobs {
		infos = append(infos, s.infoLocked(sj, now))
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// GetJobInfo returns information about a specific job.
func (s *Scheduler) GetJobInfo(jobName string) (JobInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sj, exists := s.jobs[jobName]
	if !exists {
		return JobInfo{}, fmt.Errorf("%w: %s", ErrJobNotFound, jobName)
	}
	return s.infoLocked(sj, time.Now().In(s.loc)), nil
}

func (s *Scheduler) infoLocked(sj *scheduledJob, now time.Time) JobInfo {
	info := JobInfo{
		Name:        sj.job.Name(),
		Description: sj.job.Description(),
		Enabled:     sj.enabled,
		Schedule:    sj.spec,
		LastRun:     sj.lastRun,
		RunCount:    sj.runCount,
		FailCount:   sj.failCount,
		LastResult:  sj.lastResult,
	}
	if sj.enabled {
		info.NextRun = sj.schedule.Next(now)
	}
	return info
}

// GetHistory returns up to limit of the most recent job results.
func (s *Scheduler) GetHistory(limit int) []JobResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.history) {
		limit = len(s.history)
	}
	out := make([]JobResult, limit)
	copy(out, s.history[len(s.history)-limit:])
	return out
}

// GetMetrics returns scheduler metrics.
func (s *Scheduler) GetMetrics() MetricsSnapshot {
	return s.metrics.Snapshot()
}

// ══════════════════════════════════════════════════════════════════════════════
// HOOKS
// ══════════════════════════════════════════════════════════════════════════════

// OnJobStart sets a callback to be called when a job starts.
func (s *Scheduler) OnJobStart(fn func(jobName string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onJobStart = fn
}

// OnJobComplete sets a callback to be called when a job returns.
func (s *Scheduler) OnJobComplete(fn func(result JobResult)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onJobComplete = fn
}

// ══════════════════════════════════════════════════════════════════════════════
// METRICS
// ══════════════════════════════════════════════════════════════════════════════

// Metrics tracks job executions.
type Metrics struct {
	mu sync.Mutex

	totalExecutions int64
	totalFailures   int64
	totalDuration   time.Duration
	executionsByJob map[string]int64
	failuresByJob   map[string]int64
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	return &Metrics{
		executionsByJob: make(map[string]int64),
		failuresByJob:   make(map[string]int64),
	}
}

// RecordExecution records a job execution.
func (m *Metrics) RecordExecution(jobName string, duration time.Duration, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalExecutions++
	m.totalDuration += duration
	m.executionsByJob[jobName]++
	if !success {
		m.totalFailures++
		m.failuresByJob[jobName]++
	}
}

// Snapshot returns a point-in-time snapshot of metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := MetricsSnapshot{
		TotalExecutions: m.totalExecutions,
		TotalFailures:   m.totalFailures,
		ExecutionsByJob: make(map[string]int64, len(m.executionsByJob)),
		FailuresByJob:   make(map[string]int64, len(m.failuresByJob)),
	}
	for k, v := range m.executionsByJob {
		snap.ExecutionsByJob[k] = v
	}
	for k, v := range m.failuresByJob {
		snap.FailuresByJob[k] = v
	}
	if m.totalExecutions > 0 {
		snap.AverageDuration = m.totalDuration / time.Duration(m.totalExecutions)
	}
	return snap
}

// MetricsSnapshot is a point-in-time snapshot of scheduler metrics.
type MetricsSnapshot struct {
	TotalExecutions int64
	TotalFailures   int64
	AverageDuration time.Duration
	ExecutionsByJob map[string]int64
	FailuresByJob   map[string]int64
}

// ══════════════════════════════════════════════════════════════════════════════
// CRON LOGGER
// ══════════════════════════════════════════════════════════════════════════════

// cronLogger adapts logger.Logger to rcron.Logger.
type cronLogger struct {
	log *logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.Debug("cron: "+msg, pairs(keysAndValues)...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.log.Error("cron: "+msg, append(pairs(keysAndValues), logger.Err(err))...)
}

func pairs(kv []interface{}) []logger.Field {
	fields := make([]logger.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields = append(fields, logger.Any(fmt.Sprint(kv[i]), kv[i+1]))
	}
	return fields
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrNilJob is returned when trying to register a nil job.
	ErrNilJob = errors.New("job cannot be nil")

	// ErrInvalidSchedule is returned when a cron spec does not parse.
	ErrInvalidSchedule = errors.New("invalid schedule")

	// ErrJobAlreadyExists is returned when a job with the same name already exists.
	ErrJobAlreadyExists = errors.New("job already exists")

	// ErrJobNotFound is returned when a job is not found.
	ErrJobNotFound = errors.New("job not found")

	// ErrSchedulerAlreadyRunning is returned when Start is called on a running scheduler.
	ErrSchedulerAlreadyRunning = errors.New("scheduler is already running")

	// ErrSchedulerNotRunning is returned when Stop is called on a stopped scheduler.
	ErrSchedulerNotRunning = errors.New("scheduler is not running")
)
