package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/lorrc/service-desk-analytics/internal/core/domain"
	"github.com/lorrc/service-desk-analytics/internal/core/ports"
	"github.com/lorrc/service-desk-analytics/internal/infrastructure/logging"
)

// Default cron specs for the built-in jobs.
const (
	DefaultDailyRollupSpec = "5 0 * * *"
	DefaultSweepSpec       = "*/30 * * * *"
)

// JobFunc is the body of a scheduled job.
type JobFunc func(ctx context.Context) error

// Job is a named cron entry.
type Job struct {
	Name     string
	Schedule string
	Timeout  time.Duration
	Run      JobFunc
}

// Service runs statistics jobs on cron schedules.
type Service struct {
	cron      *cron.Cron
	parser    cron.Parser
	logger    *slog.Logger
	location  *time.Location
	timeout   time.Duration
	entries   map[string]cron.EntryID
	mu        sync.Mutex
	rootCtx   context.Context
	startOnce sync.Once
	stopOnce  sync.Once
}

// Option configures the scheduler.
type Option func(*Service)

// WithLogger sets the logger used for job output.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLocation sets the timezone cron specs are evaluated in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithJobTimeout bounds jobs that do not set their own timeout.
func WithJobTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// New builds an idle scheduler. Call Add then Run.
func New(opts ...Option) *Service {
	s := &Service{
		logger:   slog.Default(),
		location: time.UTC,
		timeout:  time.Hour,
		entries:  make(map[string]cron.EntryID),
		rootCtx:  context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "scheduler")
	s.parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	s.cron = cron.New(cron.WithLocation(s.location), cron.WithParser(s.parser))
	return s
}

// Add registers a job. An empty schedule disables it.
func (s *Service) Add(job Job) error {
	if job.Name == "" || job.Run == nil {
		return errors.New("scheduler: job name and func are required")
	}
	if job.Schedule == "" {
		s.logger.Info("job disabled", "job", job.Name)
		return nil
	}
	if _, err := s.parser.Parse(job.Schedule); err != nil {
		return fmt.Errorf("scheduler: invalid schedule %q for job %s: %w", job.Schedule, job.Name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[job.Name]; exists {
		return fmt.Errorf("scheduler: job %s already registered", job.Name)
	}

	id, err := s.cron.AddFunc(job.Schedule, func() { s.execute(job) })
	if err != nil {
		return fmt.Errorf("scheduler: add job %s: %w", job.Name, err)
	}
	s.entries[job.Name] = id
	s.logger.Info("job scheduled", "job", job.Name, "schedule", job.Schedule)
	return nil
}

// Jobs returns the registered job names with their next fire time.
func (s *Service) Jobs() map[string]time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]time.Time, len(s.entries))
	for name, id := range s.entries {
		out[name] = s.cron.Entry(id).Next
	}
	return out
}

// Run starts the cron loop and blocks until ctx is cancelled. Running jobs
// are waited on for up to five seconds.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	started := false
	s.startOnce.Do(func() {
		started = true
		s.mu.Lock()
		s.rootCtx = ctx
		s.mu.Unlock()
		s.cron.Start()
		s.logger.Info("scheduler started", "jobs", len(s.entries))
	})
	if !started {
		return errors.New("scheduler: already running")
	}

	<-ctx.Done()
	s.stop()
	return nil
}

func (s *Service) stop() {
	s.stopOnce.Do(func() {
		stopCtx := s.cron.Stop()
		select {
		case <-stopCtx.Done():
		case <-time.After(5 * time.Second):
			s.logger.Warn("timed out waiting for running jobs")
		}
		s.logger.Info("scheduler stopped")
	})
}

// RunNow executes a registered job body synchronously, outside its schedule.
func (s *Service) RunNow(job Job) {
	s.execute(job)
}

func (s *Service) execute(job Job) {
	s.mu.Lock()
	parent := s.rootCtx
	s.mu.Unlock()

	timeout := job.Timeout
	if timeout <= 0 {
		timeout = s.timeout
	}
	ctx, cancel := context.WithTimeout(logging.WithJob(parent, job.Name), timeout)
	defer cancel()

	logger := logging.LoggerFromContext(ctx, s.logger)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			logging.LogPanic(logger, r)
		}
	}()

	if err := job.Run(ctx); err != nil {
		logger.Error("job failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		return
	}
	logger.Info("job finished", "duration_ms", time.Since(start).Milliseconds())
}

// StatsJobs returns the daily rollup and open-ticket sweep jobs. Both run
// under the master context.
func StatsJobs(svc ports.StatsService, dailySpec, sweepSpec string) []Job {
	return []Job{
		{
			Name:     "daily-rollup",
			Schedule: dailySpec,
			Run: func(ctx context.Context) error {
				_, err := svc.RecomputeDay(ctx, domain.MasterContext(), time.Time{})
				return err
			},
		},
		{
			Name:     "open-ticket-sweep",
			Schedule: sweepSpec,
			Run: func(ctx context.Context) error {
				summary, err := svc.RecomputeOpenTickets(ctx, domain.MasterContext())
				if err != nil {
					return err
				}
				if summary.Failed > 0 {
					return fmt.Errorf("%d of %d tickets failed", summary.Failed, summary.Processed+summary.Failed)
				}
				return nil
			},
		},
	}
}
