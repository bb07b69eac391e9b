package jobqueue

import "errors"

var (
	// ErrNotRunning is returned when scheduling on a stopped pool
	ErrNotRunning = errors.New("job queue is not running")

	// ErrQueueFull is returned when the in-process queue has no free slot
	ErrQueueFull = errors.New("job queue is full")

	// ErrUnknownJob is returned when no handler is registered for a job name
	ErrUnknownJob = errors.New("no handler registered for job")

	// ErrConsumerActive is returned by Run when another process holds the
	// consumer lease for the same queue
	ErrConsumerActive = errors.New("another consumer is running on this queue")

	// ErrLeaseLost is returned by Run when the consumer lease expired or was
	// taken over while jobs were running
	ErrLeaseLost = errors.New("consumer lease lost")

	// ErrInvalidConfig is returned when the queue configuration is unusable
	ErrInvalidConfig = errors.New("invalid job queue configuration")
)
