package jobqueue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Pool runs jobs on a fixed number of in-process workers. Jobs still queued
// when the pool stops are dropped.
type Pool struct {
	*handlerSet
	config Config
	logger *zap.Logger

	jobs    chan *Job
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewPool creates a pool. Register handlers before calling Start.
func NewPool(cfg Config, log *zap.Logger, opts ...Option) *Pool {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultConfig().QueueSize
	}
	return &Pool{
		handlerSet: newHandlerSet(cfg.JobTimeout, log, opts),
		config:     cfg,
		logger:     log,
		jobs:       make(chan *Job, cfg.QueueSize),
	}
}

// Start launches the workers. Calling Start on a running pool is a no-op.
func (p *Pool) Start(ctx context.Context) error {
	if err := p.config.validate(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return nil
	}
	ctx, p.cancel = context.WithCancel(ctx)
	p.running = true

	for i := 0; i < p.config.Workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}

	p.logger.Info("Job pool started",
		zap.Int("workers", p.config.Workers),
		zap.Int("queue_size", p.config.QueueSize),
		zap.Duration("job_timeout", p.config.JobTimeout),
	)
	return nil
}

// Stop cancels in-flight jobs and waits for the workers to exit or ctx to end
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	p.cancel()
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("Job pool stopped gracefully")
		return nil
	case <-ctx.Done():
		p.logger.Warn("Job pool stop timed out")
		return ctx.Err()
	}
}

// Schedule enqueues name with args for asynchronous execution
func (p *Pool) Schedule(_ context.Context, name string, args map[string]string) error {
	if _, ok := p.lookup(name); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	job := NewJob(name, args)
	if err := p.enqueue(job); err != nil {
		return err
	}
	p.logger.Debug("Job scheduled", zap.String("job_id", job.ID), zap.String("job_name", name))
	return nil
}

func (p *Pool) enqueue(job *Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return ErrNotRunning
	}
	select {
	case p.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

func (p *Pool) worker(ctx context.Context, workerID int) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-p.jobs:
			p.process(ctx, job, workerID)
		}
	}
}

func (p *Pool) process(ctx context.Context, job *Job, workerID int) {
	job.Attempt++
	err := p.run(ctx, job)
	if err == nil {
		p.logger.Info("Job completed",
			zap.Int("worker_id", workerID),
			zap.String("job_id", job.ID),
			zap.String("job_name", job.Name),
		)
		return
	}

	p.logger.Error("Job failed",
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID),
		zap.String("job_name", job.Name),
		zap.Int("attempt", job.Attempt),
		zap.Error(err),
	)
	if job.Attempt > p.config.RetryAttempts {
		p.metrics.RecordDeadLetter(ctx, job.Name)
		p.logger.Error("Job abandoned after final attempt",
			zap.String("job_id", job.ID),
			zap.String("job_name", job.Name),
			zap.Any("args", job.Args),
		)
		return
	}
	p.metrics.RecordRetry(ctx, job.Name)
	p.wg.Add(1)
	go p.retryAfter(ctx, job, p.config.RetryDelay)
}

func (p *Pool) retryAfter(ctx context.Context, job *Job, delay time.Duration) {
	defer p.wg.Done()
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}
	if err := p.enqueue(job); err != nil {
		p.logger.Warn("Failed to re-queue job for retry",
			zap.String("job_id", job.ID),
			zap.Error(err),
		)
	}
}
