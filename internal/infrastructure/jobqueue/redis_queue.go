package jobqueue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	blockTimeout    = 5 * time.Second
	promoteInterval = time.Second
	leaseTTL        = 30 * time.Second
	leaseRefresh    = leaseTTL / 3
)

var (
	refreshLease = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)
	releaseLease = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)
)

// RedisQueue is a reliable queue on Redis lists. A worker moves each payload
// from the pending list into a processing list while it runs, so a crashed
// worker's jobs survive and are requeued by the next Run. Failed jobs wait in
// a sorted set scored by their retry time; exhausted jobs land in a dead list.
// A consumer lease keeps a second process from consuming the same queue.
type RedisQueue struct {
	*handlerSet
	client redis.UniversalClient
	config Config
	logger *zap.Logger
}

// NewRedisQueue creates a queue on client under cfg.QueueName
func NewRedisQueue(client redis.UniversalClient, cfg Config, log *zap.Logger, opts ...Option) (*RedisQueue, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: redis client is nil", ErrInvalidConfig)
	}
	if cfg.QueueName == "" {
		cfg.QueueName = DefaultConfig().QueueName
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisQueue{
		handlerSet: newHandlerSet(cfg.JobTimeout, log, opts),
		client:     client,
		config:     cfg,
		logger:     log.Named("jobqueue"),
	}, nil
}

func (q *RedisQueue) pendingKey() string    { return q.config.QueueName }
func (q *RedisQueue) processingKey() string { return q.config.QueueName + ":processing" }
func (q *RedisQueue) delayedKey() string    { return q.config.QueueName + ":delayed" }
func (q *RedisQueue) deadKey() string       { return q.config.QueueName + ":dead" }
func (q *RedisQueue) leaseKey() string      { return q.config.QueueName + ":consumer" }

// Schedule pushes name with args onto the pending list. Handlers need only
// be registered in the consuming process.
func (q *RedisQueue) Schedule(ctx context.Context, name string, args map[string]string) error {
	return q.push(ctx, NewJob(name, args))
}

func (q *RedisQueue) push(ctx context.Context, job *Job) error {
	payload, err := job.encode()
	if err != nil {
		return err
	}
	if err := q.client.LPush(ctx, q.pendingKey(), payload).Err(); err != nil {
		return fmt.Errorf("enqueue job %s: %w", job.Name, err)
	}
	return nil
}

// Stats reports the length of each list
type Stats struct {
	Pending    int64
	Processing int64
	Delayed    int64
	Dead       int64
}

// Stats returns the current queue depths
func (q *RedisQueue) Stats(ctx context.Context) (Stats, error) {
	pipe := q.client.Pipeline()
	pending := pipe.LLen(ctx, q.pendingKey())
	processing := pipe.LLen(ctx, q.processingKey())
	delayed := pipe.ZCard(ctx, q.delayedKey())
	dead := pipe.LLen(ctx, q.deadKey())
	if _, err := pipe.Exec(ctx); err != nil {
		return Stats{}, fmt.Errorf("queue stats: %w", err)
	}
	return Stats{
		Pending:    pending.Val(),
		Processing: processing.Val(),
		Delayed:    delayed.Val(),
		Dead:       dead.Val(),
	}, nil
}

// Run consumes jobs until ctx is cancelled. It first takes the queue's
// consumer lease and returns ErrConsumerActive if another process holds it;
// jobs left in processing are requeued only once the lease is held.
func (q *RedisQueue) Run(ctx context.Context) error {
	if err := q.config.validate(); err != nil {
		return err
	}
	token := uuid.NewString()
	acquired, err := q.client.SetNX(ctx, q.leaseKey(), token, leaseTTL).Result()
	if err != nil {
		return fmt.Errorf("acquire consumer lease: %w", err)
	}
	if !acquired {
		return fmt.Errorf("%w: %s", ErrConsumerActive, q.config.QueueName)
	}
	defer q.releaseLease(token)

	requeued, err := q.requeueProcessing(ctx)
	if err != nil {
		return err
	}
	q.logger.Info("Job consumer started",
		zap.String("queue", q.config.QueueName),
		zap.Int("workers", q.config.Workers),
		zap.Int("requeued", requeued),
		zap.Strings("jobs", q.Names()),
	)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var lost bool
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if !q.holdLease(runCtx, token) {
			lost = true
			cancel()
		}
	}()
	go func() {
		defer wg.Done()
		q.promoteLoop(runCtx)
	}()
	for i := 0; i < q.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			q.worker(runCtx, workerID)
		}(i)
	}
	wg.Wait()

	if lost {
		q.logger.Error("Job consumer stopped after losing its lease", zap.String("queue", q.config.QueueName))
		return fmt.Errorf("%w: %s", ErrLeaseLost, q.config.QueueName)
	}
	q.logger.Info("Job consumer stopped", zap.String("queue", q.config.QueueName))
	return nil
}

// holdLease extends the lease until ctx ends. It reports false when the lease
// is no longer owned by token.
func (q *RedisQueue) holdLease(ctx context.Context, token string) bool {
	ticker := time.NewTicker(leaseRefresh)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return true
		case <-ticker.C:
			held, err := refreshLease.Run(ctx, q.client, []string{q.leaseKey()}, token, leaseTTL.Milliseconds()).Int()
			if err != nil {
				if ctx.Err() != nil {
					return true
				}
				q.logger.Warn("Failed to refresh consumer lease", zap.Error(err))
				continue
			}
			if held == 0 {
				return false
			}
		}
	}
}

func (q *RedisQueue) releaseLease(token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := releaseLease.Run(ctx, q.client, []string{q.leaseKey()}, token).Err(); err != nil {
		q.logger.Warn("Failed to release consumer lease", zap.Error(err))
	}
}

func (q *RedisQueue) requeueProcessing(ctx context.Context) (int, error) {
	moved := 0
	for {
		err := q.client.LMove(ctx, q.processingKey(), q.pendingKey(), "RIGHT", "RIGHT").Err()
		if errors.Is(err, redis.Nil) {
			return moved, nil
		}
		if err != nil {
			return moved, fmt.Errorf("requeue processing jobs: %w", err)
		}
		moved++
	}
}

func (q *RedisQueue) worker(ctx context.Context, workerID int) {
	for ctx.Err() == nil {
		payload, err := q.client.BLMove(ctx, q.pendingKey(), q.processingKey(), "RIGHT", "LEFT", blockTimeout).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			q.logger.Warn("Failed to fetch job", zap.Int("worker_id", workerID), zap.Error(err))
			sleep(ctx, time.Second)
			continue
		}
		q.process(ctx, payload, workerID)
	}
}

func (q *RedisQueue) process(ctx context.Context, payload string, workerID int) {
	job, err := decodeJob(payload)
	if err != nil {
		q.logger.Error("Discarding malformed job", zap.String("payload", payload), zap.Error(err))
		q.finish(ctx, payload, func(pipe redis.Pipeliner) {
			pipe.LPush(ctx, q.deadKey(), payload)
		})
		return
	}

	job.Attempt++
	runErr := q.run(ctx, job)
	if ctx.Err() != nil {
		// Left in processing; the next Run requeues it.
		return
	}
	if runErr == nil {
		q.logger.Info("Job completed",
			zap.Int("worker_id", workerID),
			zap.String("job_id", job.ID),
			zap.String("job_name", job.Name),
		)
		q.finish(ctx, payload, nil)
		return
	}

	q.logger.Error("Job failed",
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID),
		zap.String("job_name", job.Name),
		zap.Int("attempt", job.Attempt),
		zap.Error(runErr),
	)
	next, err := job.encode()
	if err != nil {
		q.logger.Error("Failed to encode job for retry", zap.Error(err))
		return
	}
	if job.Attempt > q.config.RetryAttempts {
		q.metrics.RecordDeadLetter(ctx, job.Name)
		q.finish(ctx, payload, func(pipe redis.Pipeliner) {
			pipe.LPush(ctx, q.deadKey(), next)
		})
		return
	}
	q.metrics.RecordRetry(ctx, job.Name)
	readyAt := time.Now().Add(q.config.RetryDelay)
	q.finish(ctx, payload, func(pipe redis.Pipeliner) {
		pipe.ZAdd(ctx, q.delayedKey(), redis.Z{Score: float64(readyAt.UnixMilli()), Member: next})
	})
}

// finish removes payload from processing and applies then in the same transaction
func (q *RedisQueue) finish(ctx context.Context, payload string, then func(redis.Pipeliner)) {
	_, err := q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LRem(ctx, q.processingKey(), 1, payload)
		if then != nil {
			then(pipe)
		}
		return nil
	})
	if err != nil {
		q.logger.Error("Failed to settle job", zap.Error(err))
	}
}

func (q *RedisQueue) promoteLoop(ctx context.Context) {
	ticker := time.NewTicker(promoteInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := q.PromoteDue(ctx, time.Now()); err != nil && ctx.Err() == nil {
				q.logger.Warn("Failed to promote delayed jobs", zap.Error(err))
			}
		}
	}
}

// PromoteDue moves delayed jobs whose retry time is at or before now back to
// the pending list and returns how many moved
func (q *RedisQueue) PromoteDue(ctx context.Context, now time.Time) (int, error) {
	due, err := q.client.ZRangeByScore(ctx, q.delayedKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("list delayed jobs: %w", err)
	}

	moved := 0
	for _, payload := range due {
		removed, err := q.client.ZRem(ctx, q.delayedKey(), payload).Result()
		if err != nil {
			return moved, fmt.Errorf("claim delayed job: %w", err)
		}
		if removed == 0 {
			continue
		}
		if err := q.client.LPush(ctx, q.pendingKey(), payload).Err(); err != nil {
			return moved, fmt.Errorf("promote delayed job: %w", err)
		}
		moved++
	}
	return moved, nil
}

func sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
