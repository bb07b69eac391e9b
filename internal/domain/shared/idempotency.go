package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers which keys have already been processed so that
// redelivered work can be skipped
type IdempotencyStore interface {
	// MarkProcessed marks key as processed for ttl.
	// Returns true if the key was newly marked, false if it was already processed.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed reports whether key has been marked and not yet expired
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Close releases resources held by the store
	Close() error
}

// IdempotencyConfig holds configuration for idempotency handling
type IdempotencyConfig struct {
	// TTL is how long a processed key is remembered
	TTL time.Duration

	// Enabled determines whether idempotency checking is enabled
	Enabled bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
