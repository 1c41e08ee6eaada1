package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/erp/posync/internal/domain/bulk"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Submit and configuration errors
var (
	ErrSchedulerNotRunning = errors.New("scheduler is not running")
	ErrJobQueueFull        = errors.New("job queue is full")
	// ErrJobAlreadyQueued means the same path is waiting or running
	ErrJobAlreadyQueued = errors.New("file is already queued")
	ErrInvalidConfig    = errors.New("invalid scheduler configuration")
)

// Job is one inbox file waiting to be imported
type Job struct {
	ID       uuid.UUID
	Entity   bulk.ImportEntityType
	Path     string
	QueuedAt time.Time
}

func NewJob(entity bulk.ImportEntityType, path string) *Job {
	return &Job{ID: uuid.New(), Entity: entity, Path: path, QueuedAt: time.Now()}
}

func (j *Job) fields() []zap.Field {
	return []zap.Field{
		zap.String("job_id", j.ID.String()),
		zap.String("entity", string(j.Entity)),
		zap.String("path", j.Path),
	}
}

// JobExecutor runs a single job
type JobExecutor interface {
	Execute(ctx context.Context, job *Job) error
}

// SchedulerConfig sizes the worker pool
type SchedulerConfig struct {
	Workers    int
	QueueSize  int
	JobTimeout time.Duration
}

// DefaultSchedulerConfig runs one job at a time so exports of the same
// kind are applied in the order they were queued.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{Workers: 1, QueueSize: 100, JobTimeout: 30 * time.Minute}
}

func (c SchedulerConfig) Validate() error {
	switch {
	case c.Workers < 1:
		return fmt.Errorf("%w: workers must be at least 1", ErrInvalidConfig)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue size must be at least 1", ErrInvalidConfig)
	case c.JobTimeout <= 0:
		return fmt.Errorf("%w: job timeout must be positive", ErrInvalidConfig)
	}
	return nil
}

// Scheduler runs import jobs on a fixed pool of workers. A path is held
// from Submit until its job returns, so the poller cannot queue a file
// twice.
type Scheduler struct {
	cfg  SchedulerConfig
	exec JobExecutor
	log  *zap.Logger

	mu      sync.Mutex
	queue   chan *Job // nil while stopped
	held    map[string]struct{}
	cancel  context.CancelFunc
	workers *errgroup.Group
}

func NewScheduler(cfg SchedulerConfig, exec JobExecutor, log *zap.Logger) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Scheduler{cfg: cfg, exec: exec, log: log, held: make(map[string]struct{})}, nil
}

// Start launches the workers. Starting a running scheduler does nothing.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queue != nil {
		return nil
	}

	queue := make(chan *Job, s.cfg.QueueSize)
	ctx, s.cancel = context.WithCancel(ctx)
	s.workers = new(errgroup.Group)
	for id := range s.cfg.Workers {
		s.workers.Go(func() error {
			s.work(ctx, id, queue)
			return nil
		})
	}
	s.queue = queue

	s.log.Info("Import scheduler started",
		zap.Int("workers", s.cfg.Workers),
		zap.Duration("job_timeout", s.cfg.JobTimeout),
	)
	return nil
}

// Stop cancels the running job, drops the queued ones and waits for the
// workers until ctx expires.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.queue == nil {
		s.mu.Unlock()
		return nil
	}
	close(s.queue)
	s.queue = nil
	cancel, workers := s.cancel, s.workers
	s.mu.Unlock()

	cancel()
	done := make(chan struct{})
	go func() {
		_ = workers.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.log.Info("Import scheduler stopped")
		return nil
	case <-ctx.Done():
		s.log.Warn("Import scheduler stop timed out")
		return ctx.Err()
	}
}

// Submit queues a job without blocking
func (s *Scheduler) Submit(job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch _, held := s.held[job.Path]; {
	case s.queue == nil:
		return ErrSchedulerNotRunning
	case held:
		return ErrJobAlreadyQueued
	}
	select {
	case s.queue <- job:
		s.held[job.Path] = struct{}{}
		s.log.Debug("Job submitted", job.fields()...)
		return nil
	default:
		return ErrJobQueueFull
	}
}

// IsQueued reports whether a path is waiting or running
func (s *Scheduler) IsQueued(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.held[path]
	return ok
}

// waiting is the number of jobs no worker has picked up yet
func (s *Scheduler) waiting() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

func (s *Scheduler) work(ctx context.Context, id int, queue <-chan *Job) {
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-queue:
			if !ok {
				return
			}
			s.run(ctx, id, job)
		}
	}
}

func (s *Scheduler) run(ctx context.Context, worker int, job *Job) {
	defer func() {
		s.mu.Lock()
		delete(s.held, job.Path)
		s.mu.Unlock()
	}()

	log := s.log.With(append(job.fields(), zap.Int("worker_id", worker))...)
	if ctx.Err() != nil {
		// stopping: leave the file for the next start
		log.Info("Import job dropped")
		return
	}
	log.Info("Processing import job", zap.Duration("waited", time.Since(job.QueuedAt)))

	ctx, cancel := context.WithTimeout(ctx, s.cfg.JobTimeout)
	defer cancel()

	start := time.Now()
	if err := s.exec.Execute(ctx, job); err != nil {
		log.Error("Import job failed", zap.Error(err))
		return
	}
	log.Info("Import job completed", zap.Duration("elapsed", time.Since(start)))
}
