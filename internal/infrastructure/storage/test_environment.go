package storage

import (
	"context"
	"fmt"
	"path"
	"strings"

	bulkapp "github.com/tradecomply/backend/internal/application/bulk"
	"github.com/tradecomply/backend/internal/domain/trade"
	"go.uber.org/zap"
)

// Ensure TestEnvironmentForwarder implements TestEnvironmentSubmitter
var _ bulkapp.TestEnvironmentSubmitter = (*TestEnvironmentForwarder)(nil)

// TestEnvironmentForwarder resubmits integration files by copying them into the
// bucket and prefix watched by the test environment's file intake.
type TestEnvironmentForwarder struct {
	store  bulkapp.BlobStore
	bucket string
	prefix string
	logger *zap.Logger
}

// NewTestEnvironmentForwarder creates a forwarder writing into bucket/prefix
func NewTestEnvironmentForwarder(store bulkapp.BlobStore, bucket, prefix string, logger *zap.Logger) *TestEnvironmentForwarder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TestEnvironmentForwarder{
		store:  store,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		logger: logger,
	}
}

// SendToTest copies the file into the test environment intake
func (f *TestEnvironmentForwarder) SendToTest(ctx context.Context, file trade.FileRef) error {
	if file.IsZero() {
		return ErrEmptyKey
	}
	data, err := f.store.Get(ctx, file.Bucket, file.Path)
	if err != nil {
		return fmt.Errorf("failed to read integration file: %w", err)
	}

	name := file.FileName
	if name == "" {
		name = path.Base(file.Path)
	}
	target := name
	if f.prefix != "" {
		target = f.prefix + "/" + name
	}
	if err := f.store.Put(ctx, f.bucket, target, data); err != nil {
		return fmt.Errorf("failed to submit integration file: %w", err)
	}

	f.logger.Info("Integration file sent to test",
		zap.String("source", file.Bucket+"/"+file.Path),
		zap.String("target", f.bucket+"/"+target),
	)
	return nil
}
