package bulkapp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tradecomply/backend/internal/domain/bulk"
	"github.com/tradecomply/backend/internal/domain/identity"
	"github.com/tradecomply/backend/internal/domain/search"
	"github.com/tradecomply/backend/internal/domain/shared"
	"github.com/tradecomply/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// RunnerConfig holds the runner settings
type RunnerConfig struct {
	// Bucket receives work order snapshots
	Bucket string
	// Prefix is prepended to snapshot keys
	Prefix string
	// MaxResults bounds search-run submissions; 0 disables the check
	MaxResults int
}

// Runner submits bulk work orders and replays them
type Runner struct {
	scope      TransactionScope
	searchRuns search.Repository
	store      BlobStore
	dispatcher JobDispatcher
	registry   *Registry
	config     RunnerConfig
	logger     *zap.Logger
	metrics    *telemetry.BulkMetrics
	now        func() time.Time
}

// RunnerOption configures a Runner
type RunnerOption func(*Runner)

// WithRunnerLogger sets the logger
func WithRunnerLogger(logger *zap.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithRunnerClock overrides time.Now
func WithRunnerClock(now func() time.Time) RunnerOption {
	return func(r *Runner) {
		r.now = now
	}
}

// WithBulkMetrics sets the metrics recorder
func WithBulkMetrics(m *telemetry.BulkMetrics) RunnerOption {
	return func(r *Runner) {
		r.metrics = m
	}
}

// NewRunner creates a Runner
func NewRunner(
	scope TransactionScope,
	searchRuns search.Repository,
	store BlobStore,
	dispatcher JobDispatcher,
	registry *Registry,
	config RunnerConfig,
	opts ...RunnerOption,
) *Runner {
	r := &Runner{
		scope:      scope,
		searchRuns: searchRuns,
		store:      store,
		dispatcher: dispatcher,
		registry:   registry,
		config:     config,
		logger:     zap.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Registry returns the action registry
func (r *Runner) Registry() *Registry {
	return r.registry
}

// ProcessFromParameters routes a submission to the search-run path when a numeric
// search_run_id is present, else to the explicit-id path when pk is non-empty.
func (r *Runner) ProcessFromParameters(
	ctx context.Context,
	user *identity.User,
	params bulk.Params,
	action Action,
	opts bulk.Options,
) (*bulk.Submission, error) {
	if params.HasSearchRun() {
		id, err := params.SearchRun()
		if err != nil {
			return nil, r.reject(ctx, action, err)
		}
		return r.ProcessSearchRun(ctx, user, id, action, opts)
	}
	if params.PK.Len() > 0 {
		return r.ProcessObjectIDs(ctx, user, params.PK.Values(), action, opts)
	}
	return nil, r.reject(ctx, action, bulk.NewInvalidRequestError(params.Malformed()...))
}

// ProcessSearchRun resolves the full result set of a search run and dispatches it.
// The max_results ceiling is checked before anything is written.
func (r *Runner) ProcessSearchRun(
	ctx context.Context,
	user *identity.User,
	searchRunID int64,
	action Action,
	opts bulk.Options,
) (*bulk.Submission, error) {
	run, err := r.searchRuns.FindByID(ctx, searchRunID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, r.reject(ctx, action, shared.NewDomainError(bulk.ErrCodeInvalidRequest,
				fmt.Sprintf("Search run %d does not exist", searchRunID)))
		}
		return nil, fmt.Errorf("failed to load search run %d: %w", searchRunID, err)
	}
	if err := r.checkMaxResults(run.TotalObjects); err != nil {
		return nil, r.reject(ctx, action, err)
	}

	keys, err := r.searchRuns.FindAllObjectKeys(ctx, searchRunID)
	if err != nil {
		return nil, fmt.Errorf("failed to load search run %d results: %w", searchRunID, err)
	}
	if err := r.checkMaxResults(len(keys)); err != nil {
		return nil, r.reject(ctx, action, err)
	}
	if len(keys) == 0 {
		return nil, r.reject(ctx, action, shared.NewDomainError(bulk.ErrCodeInvalidRequest,
			fmt.Sprintf("Search run %d has no results", searchRunID)))
	}
	return r.ProcessObjectIDs(ctx, user, keys, action, opts)
}

func (r *Runner) checkMaxResults(total int) error {
	if r.config.MaxResults > 0 && total > r.config.MaxResults {
		return bulk.NewTooManyBulkObjectsError(total, r.config.MaxResults)
	}
	return nil
}

// ProcessObjectIDs stores the work order and schedules its replay. It returns as
// soon as the replay is enqueued.
func (r *Runner) ProcessObjectIDs(
	ctx context.Context,
	user *identity.User,
	keys []string,
	action Action,
	opts bulk.Options,
) (*bulk.Submission, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "bulk_runner", "process_object_ids")
	defer span.End()

	if _, err := r.registry.Lookup(action.BulkType()); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if user == nil {
		return nil, shared.ErrUnauthorized
	}
	for _, k := range keys {
		if strings.TrimSpace(k) == "" {
			return nil, r.reject(ctx, action, bulk.NewInvalidRequestError("pk"))
		}
	}

	wo, err := bulk.NewWorkOrder(user.ID, keys, opts)
	if err != nil {
		return nil, r.reject(ctx, action, err)
	}
	data, err := wo.Marshal()
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	submittedAt := r.now()
	hash := bulk.ContentHash(data)
	key := bulk.SnapshotKey(r.config.Prefix, hash, submittedAt)
	telemetry.SetAttributes(span,
		"bulk.action_type", action.BulkType(),
		"bulk.key_count", len(keys),
		"bulk.snapshot_key", key,
	)

	if err := r.store.Put(ctx, r.config.Bucket, key, data); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to store work order: %w", err)
	}

	args := map[string]string{
		ArgBucket: r.config.Bucket,
		ArgKey:    key,
		ArgAction: action.BulkType(),
	}
	if err := r.dispatcher.Schedule(ctx, ReplayJobName, args); err != nil {
		telemetry.RecordError(span, err)
		if delErr := r.store.Delete(ctx, r.config.Bucket, key); delErr != nil {
			r.logger.Warn("failed to remove undispatched work order",
				zap.String("key", key),
				zap.Error(delErr),
			)
		}
		return nil, fmt.Errorf("failed to schedule bulk replay: %w", err)
	}

	r.metrics.RecordSubmission(ctx, action.BulkType(), len(keys))
	r.logger.Info("bulk work order submitted",
		zap.String("action_type", action.BulkType()),
		zap.String("user_id", user.ID.String()),
		zap.String("key", key),
		zap.Int("key_count", len(keys)),
	)

	return &bulk.Submission{
		Bucket:      r.config.Bucket,
		Key:         key,
		ContentHash: hash,
		KeyCount:    len(keys),
		ActionType:  action.BulkType(),
		SubmittedAt: submittedAt,
	}, nil
}

func (r *Runner) reject(ctx context.Context, action Action, err error) error {
	reason := "invalid"
	if bulk.IsTooManyBulkObjects(err) {
		reason = "too_many_objects"
	}
	r.metrics.RecordRejected(ctx, action.BulkType(), reason)
	return err
}

// LoadWorkOrder reads and decodes a stored work order
func (r *Runner) LoadWorkOrder(ctx context.Context, bucket, key string) (*bulk.WorkOrder, error) {
	exists, err := r.store.Exists(ctx, bucket, key)
	if err != nil {
		return nil, fmt.Errorf("failed to check work order %s: %w", key, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s/%s", ErrSnapshotNotFound, bucket, key)
	}
	data, err := r.store.Get(ctx, bucket, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read work order %s: %w", key, err)
	}
	return bulk.UnmarshalWorkOrder(data)
}

// RunSnapshot replays a stored work order inside one transaction. On success
// the snapshot is deleted and the completed process log returned. On any error
// the transaction is rolled back and the snapshot is kept.
func (r *Runner) RunSnapshot(ctx context.Context, bucket, key, actionType string) (*bulk.ProcessLog, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "bulk_runner", "run_snapshot")
	defer span.End()
	telemetry.SetAttributes(span, "bulk.action_type", actionType, "bulk.snapshot_key", key)

	action, err := r.registry.Lookup(actionType)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	wo, err := r.LoadWorkOrder(ctx, bucket, key)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var result *bulk.ProcessLog
	err = r.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		user, err := repos.Users().FindByID(ctx, wo.UserID)
		if err != nil {
			return fmt.Errorf("failed to find user %s: %w", wo.UserID, err)
		}

		bracket := NewLogBracket(repos.ProcessLogs(), r.now)
		log, err := bracket.WithLog(ctx, user, action.BulkType(), key, func(session *ProcessLogSession) error {
			for i, recordID := range wo.Keys {
				seq := i + 1
				req := ActRequest{
					User:           user,
					RecordID:       recordID,
					Options:        wo.Opts,
					Log:            session,
					SequenceNumber: seq,
					Repos:          repos,
				}
				if err := action.Act(ctx, req); err != nil {
					return fmt.Errorf("record %s (sequence %d): %w", recordID, seq, err)
				}
				pl := session.ProcessLog()
				if pl.CountAt(seq) != 1 || len(pl.ChangeRecords) != seq {
					return fmt.Errorf("%w: record %s (sequence %d) has %d change records",
						ErrChangeRecordContract, recordID, seq, pl.CountAt(seq))
				}
			}
			return nil
		})
		result = log
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		r.metrics.RecordRunAborted(ctx, action.BulkType())
		r.logger.Error("bulk run aborted, work order retained",
			zap.String("action_type", action.BulkType()),
			zap.String("bucket", bucket),
			zap.String("key", key),
			zap.Error(err),
		)
		return nil, err
	}

	if err := r.store.Delete(ctx, bucket, key); err != nil {
		r.logger.Warn("failed to delete work order after run",
			zap.String("bucket", bucket),
			zap.String("key", key),
			zap.Error(err),
		)
	}

	r.metrics.RecordRunCompleted(ctx, action.BulkType(), result.SucceededCount(), result.FailedCount())
	r.logger.Info("bulk run completed",
		zap.String("process_log_id", result.ID.String()),
		zap.String("action_type", action.BulkType()),
		zap.Int("records", len(result.ChangeRecords)),
		zap.Int("failed", result.FailedCount()),
	)
	return result, nil
}
