// Package scheduler runs periodic maintenance: purging long-expired rows and
// replaying the audit spool. Expiry itself is evaluated lazily at read time,
// so a missed run never changes a decision.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/iudanet/chatgate/internal/sl"
)

// Job is a named maintenance task. It returns the number of affected rows.
type Job struct {
	Run      func(ctx context.Context) (int, error)
	Name     string
	Schedule string
}

type Scheduler struct {
	c       *cron.Cron
	logger  *slog.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	jobs    []Job
	timeout time.Duration
	mu      sync.Mutex
}

// NewScheduler creates a scheduler. Each run is bounded by timeout.
func NewScheduler(logger *slog.Logger, timeout time.Duration) *Scheduler {
	logger = logger.With(sl.Module("scheduler"))
	if timeout <= 0 {
		timeout = time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())
	cl := cronLogger{logger: logger}

	return &Scheduler{
		c: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		timeout: timeout,
	}
}

// Add registers the job. The schedule uses the standard cron syntax or descriptors like @hourly.
func (s *Scheduler) Add(job Job) error {
	if job.Run == nil {
		return fmt.Errorf("job %q has no run function", job.Name)
	}

	_, err := s.c.AddFunc(job.Schedule, func() {
		s.run(job)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %q: %w", job.Name, err)
	}

	s.mu.Lock()
	s.jobs = append(s.jobs, job)
	s.mu.Unlock()

	return nil
}

// RunAll runs every registered job once, in registration order
func (s *Scheduler) RunAll() {
	s.mu.Lock()
	jobs := append([]Job(nil), s.jobs...)
	s.mu.Unlock()

	for _, job := range jobs {
		s.run(job)
	}
}

func (s *Scheduler) run(job Job) {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	start := time.Now()
	n, err := job.Run(ctx)
	if err != nil {
		s.logger.Error("job failed", slog.String("job", job.Name), sl.Err(err))
		return
	}

	s.logger.Debug("job done",
		slog.String("job", job.Name),
		slog.Int("affected", n),
		slog.Duration("took", time.Since(start)))
}

func (s *Scheduler) Start() {
	s.logger.Info("scheduler started", slog.Int("jobs", len(s.jobs)))
	s.c.Start()
}

// Stop cancels running jobs and waits for them to return
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.c.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// cronLogger adapts slog to cron.Logger
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append([]any{sl.Err(err)}, keysAndValues...)...)
}
