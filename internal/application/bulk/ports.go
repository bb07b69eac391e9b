package bulkapp

import (
	"context"

	"github.com/tradecomply/backend/internal/domain/audit"
	"github.com/tradecomply/backend/internal/domain/bulk"
	"github.com/tradecomply/backend/internal/domain/comment"
	"github.com/tradecomply/backend/internal/domain/identity"
	"github.com/tradecomply/backend/internal/domain/trade"
)

// ReplayJobName is the dispatcher operation that replays a stored work order
const ReplayJobName = "bulk.replay"

// Replay job argument keys
const (
	ArgBucket = "bucket"
	ArgKey    = "key"
	ArgAction = "action"
)

// BlobStore is durable storage keyed by bucket and path
type BlobStore interface {
	Put(ctx context.Context, bucket, key string, data []byte) error
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	Delete(ctx context.Context, bucket, key string) error
	Exists(ctx context.Context, bucket, key string) (bool, error)
}

// JobDispatcher enqueues a deferred invocation of a named operation.
// Delivery is at-least-once with no ordering across distinct enqueues.
type JobDispatcher interface {
	Schedule(ctx context.Context, name string, args map[string]string) error
}

// TestEnvironmentSubmitter resubmits an integration file to the test environment
type TestEnvironmentSubmitter interface {
	SendToTest(ctx context.Context, file trade.FileRef) error
}

// TransactionScope runs a replay inside one database transaction.
// If fn returns an error, every write made through repos is rolled back.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides the repositories a replay may touch.
// All repositories returned share the same underlying database transaction.
type TransactionalRepositories interface {
	ProcessLogs() bulk.ProcessLogRepository
	Records() bulk.RecordDirectory
	Users() identity.UserRepository
	Orders() trade.OrderRepository
	Entries() trade.EntryRepository
	Comments() comment.Repository
	Snapshots() audit.SnapshotRepository
}
