package bulkapp

import (
	"context"
	"errors"
	"fmt"

	"github.com/tradecomply/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ReplayHandler executes replay jobs delivered by the dispatcher. Redelivered
// jobs whose snapshot key is already marked processed are skipped.
type ReplayHandler struct {
	runner *Runner
	store  shared.IdempotencyStore
	config shared.IdempotencyConfig
	logger *zap.Logger
}

// NewReplayHandler creates a ReplayHandler. A nil store disables deduplication.
func NewReplayHandler(runner *Runner, store shared.IdempotencyStore, config shared.IdempotencyConfig, logger *zap.Logger) *ReplayHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReplayHandler{
		runner: runner,
		store:  store,
		config: config,
		logger: logger,
	}
}

// Handle replays the work order named by args
func (h *ReplayHandler) Handle(ctx context.Context, args map[string]string) error {
	bucket, key, action := args[ArgBucket], args[ArgKey], args[ArgAction]
	if bucket == "" || key == "" || action == "" {
		return fmt.Errorf("%w: bucket=%q key=%q action=%q", ErrInvalidReplayJob, bucket, key, action)
	}

	dedupe := h.store != nil && h.config.Enabled
	if dedupe {
		processed, err := h.store.IsProcessed(ctx, key)
		if err != nil {
			h.logger.Warn("failed to check replay idempotency, replaying anyway",
				zap.String("key", key),
				zap.Error(err),
			)
		} else if processed {
			h.runner.metrics.RecordDuplicate(ctx, action)
			h.logger.Info("work order already replayed, skipping", zap.String("key", key))
			return nil
		}
	}

	log, err := h.runner.RunSnapshot(ctx, bucket, key, action)
	if errors.Is(err, ErrSnapshotNotFound) {
		h.logger.Warn("work order snapshot missing, nothing to replay", zap.String("key", key))
		return nil
	}
	if err != nil {
		return err
	}

	if dedupe {
		if _, err := h.store.MarkProcessed(ctx, key, h.config.TTL); err != nil {
			h.logger.Warn("failed to mark work order replayed",
				zap.String("key", key),
				zap.String("process_log_id", log.ID.String()),
				zap.Error(err),
			)
		}
	}
	return nil
}
