// Package cache provides the idempotency stores used to skip redelivered
// replay jobs.
package cache

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/tradecomply/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// NewIdempotencyStore picks the store matching the jobs backend. The redis
// backend needs client; the memory backend ignores it.
func NewIdempotencyStore(backend string, client redis.UniversalClient, logger *zap.Logger) (shared.IdempotencyStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch backend {
	case "redis":
		if client == nil {
			return nil, fmt.Errorf("redis idempotency store requires a client")
		}
		logger.Info("using Redis idempotency store")
		return NewRedisIdempotencyStore(client, DefaultKeyPrefix), nil
	case "memory", "":
		logger.Info("using in-memory idempotency store")
		return NewMemoryIdempotencyStore(), nil
	default:
		return nil, fmt.Errorf("unknown idempotency backend %q", backend)
	}
}
