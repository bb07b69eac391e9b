package bulkapp

import (
	"context"
	"fmt"
	"time"

	"github.com/tradecomply/backend/internal/domain/trade"
	"go.uber.org/zap"
)

// BulkTypeSendToTest labels Bulk Send To Test runs
const BulkTypeSendToTest = "Bulk Send To Test"

// SendToTestAction resubmits each entry's last integration file to the test
// environment. Entries without a last file are recorded as successes.
type SendToTestAction struct {
	store     BlobStore
	submitter TestEnvironmentSubmitter
	logger    *zap.Logger
	now       func() time.Time
}

// NewSendToTestAction creates a SendToTestAction
func NewSendToTestAction(store BlobStore, submitter TestEnvironmentSubmitter, logger *zap.Logger) *SendToTestAction {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SendToTestAction{
		store:     store,
		submitter: submitter,
		logger:    logger,
		now:       time.Now,
	}
}

// BulkType implements Action
func (a *SendToTestAction) BulkType() string { return BulkTypeSendToTest }

// Act implements Action
func (a *SendToTestAction) Act(ctx context.Context, req ActRequest) error {
	record, err := req.Repos.Records().FindRecord(ctx, trade.RecordTypeEntry, req.RecordID)
	if err != nil {
		return fmt.Errorf("failed to find entry %s: %w", req.RecordID, err)
	}
	entry, ok := record.(*trade.Entry)
	if !ok {
		return fmt.Errorf("record directory returned %T for an entry", record)
	}

	ref := entry.Ref()
	if !entry.CanSendToTest(req.User) {
		return req.Log.Fail(ctx, ref, req.SequenceNumber,
			fmt.Sprintf("You do not have permission to send the record with ID %s to test.", req.RecordID))
	}

	file := entry.IntegrationFile()
	if file == nil {
		return req.Log.Succeed(ctx, ref, req.SequenceNumber)
	}

	exists, err := a.store.Exists(ctx, file.Bucket, file.Path)
	if err != nil {
		return fmt.Errorf("failed to check integration file %s/%s: %w", file.Bucket, file.Path, err)
	}
	if !exists {
		return req.Log.Fail(ctx, ref, req.SequenceNumber,
			fmt.Sprintf("The integration file for the record with ID %s could not be found.", req.RecordID))
	}

	if err := a.submitter.SendToTest(ctx, *file); err != nil {
		a.logger.Warn("send to test failed",
			zap.String("entry_id", req.RecordID),
			zap.String("path", file.Path),
			zap.Error(err),
		)
		return req.Log.Fail(ctx, ref, req.SequenceNumber,
			fmt.Sprintf("The record with ID %s could not be sent to test: %s", req.RecordID, err.Error()))
	}

	entry.MarkSentToTest(a.now())
	if err := req.Repos.Entries().Save(ctx, entry); err != nil {
		return fmt.Errorf("failed to save entry %s: %w", req.RecordID, err)
	}
	return req.Log.Succeed(ctx, ref, req.SequenceNumber)
}
