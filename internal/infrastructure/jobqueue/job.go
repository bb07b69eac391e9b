// Package jobqueue delivers deferred invocations of named operations to
// registered handlers. Pool runs them in process; RedisQueue hands them to
// worker processes through a Redis list. Both retry failed jobs after a delay
// and give up after the configured number of attempts.
package jobqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tradecomply/backend/internal/infrastructure/config"
	"github.com/tradecomply/backend/internal/infrastructure/logger"
	"github.com/tradecomply/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Handler executes one delivery of a job
type Handler func(ctx context.Context, args map[string]string) error

// Job is a single enqueued invocation
type Job struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Args       map[string]string `json:"args"`
	Attempt    int               `json:"attempt"`
	EnqueuedAt time.Time         `json:"enqueued_at"`
}

// NewJob creates a job with a fresh ID
func NewJob(name string, args map[string]string) *Job {
	copied := make(map[string]string, len(args))
	for k, v := range args {
		copied[k] = v
	}
	return &Job{
		ID:         uuid.NewString(),
		Name:       name,
		Args:       copied,
		EnqueuedAt: time.Now().UTC(),
	}
}

func (j *Job) encode() (string, error) {
	data, err := json.Marshal(j)
	if err != nil {
		return "", fmt.Errorf("encode job %s: %w", j.ID, err)
	}
	return string(data), nil
}

func decodeJob(payload string) (*Job, error) {
	var job Job
	if err := json.Unmarshal([]byte(payload), &job); err != nil {
		return nil, fmt.Errorf("decode job: %w", err)
	}
	if job.Name == "" {
		return nil, fmt.Errorf("decode job: missing name")
	}
	return &job, nil
}

// Config holds settings shared by both queue implementations
type Config struct {
	Workers       int
	QueueSize     int
	JobTimeout    time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	QueueName     string
}

// DefaultConfig returns default queue configuration
func DefaultConfig() Config {
	return Config{
		Workers:       4,
		QueueSize:     100,
		JobTimeout:    30 * time.Minute,
		RetryAttempts: 3,
		RetryDelay:    30 * time.Second,
		QueueName:     "bulk:jobs",
	}
}

// ConfigFrom converts the jobs section of the application config
func ConfigFrom(cfg config.JobsConfig) Config {
	return Config{
		Workers:       cfg.Workers,
		QueueSize:     cfg.QueueSize,
		JobTimeout:    cfg.JobTimeout,
		RetryAttempts: cfg.RetryAttempts,
		RetryDelay:    cfg.RetryDelay,
		QueueName:     cfg.QueueName,
	}
}

func (c Config) validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("%w: workers must be positive", ErrInvalidConfig)
	}
	if c.RetryAttempts < 0 {
		return fmt.Errorf("%w: retry attempts cannot be negative", ErrInvalidConfig)
	}
	return nil
}

// Option configures a queue
type Option func(*handlerSet)

// WithMetrics records job outcomes on metrics
func WithMetrics(metrics *telemetry.JobMetrics) Option {
	return func(h *handlerSet) {
		h.metrics = metrics
	}
}

// handlerSet holds registered handlers and runs a single delivery
type handlerSet struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	timeout  time.Duration
	logger   *zap.Logger
	metrics  *telemetry.JobMetrics
}

func newHandlerSet(timeout time.Duration, log *zap.Logger, opts []Option) *handlerSet {
	if log == nil {
		log = zap.NewNop()
	}
	h := &handlerSet{
		handlers: make(map[string]Handler),
		timeout:  timeout,
		logger:   log,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register binds handler to name, replacing any previous binding
func (h *handlerSet) Register(name string, handler Handler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers[name] = handler
}

// Names returns the registered job names in sorted order
func (h *handlerSet) Names() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := make([]string, 0, len(h.handlers))
	for name := range h.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (h *handlerSet) lookup(name string) (Handler, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	handler, ok := h.handlers[name]
	return handler, ok
}

// run executes job with the configured timeout. A panicking handler is
// reported as an error.
func (h *handlerSet) run(ctx context.Context, job *Job) (err error) {
	handler, ok := h.lookup(job.Name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, job.Name)
	}

	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}
	ctx = logger.WithContext(ctx, h.logger.With(
		zap.String("job_id", job.ID),
		zap.String("job_name", job.Name),
		zap.Int("attempt", job.Attempt),
	))

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", job.Name, r)
		}
		h.metrics.RecordProcessed(ctx, job.Name, time.Since(start), err)
	}()

	return handler(ctx, job.Args)
}
