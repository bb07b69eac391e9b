package bulkapp

import (
	"context"
	"fmt"

	"github.com/tradecomply/backend/internal/domain/comment"
	"github.com/tradecomply/backend/internal/domain/identity"
)

// BulkTypeComment labels Bulk Comment runs
const BulkTypeComment = "Bulk Comment"

// Commentable is a record that decides who may comment on it
type Commentable interface {
	CanComment(u *identity.User) bool
}

// CommentAction attaches a comment to each record of the run.
// Options: module_type, subject, body.
type CommentAction struct{}

// NewCommentAction creates a CommentAction
func NewCommentAction() *CommentAction {
	return &CommentAction{}
}

// BulkType implements Action
func (a *CommentAction) BulkType() string { return BulkTypeComment }

// Act implements Action
func (a *CommentAction) Act(ctx context.Context, req ActRequest) error {
	moduleType := req.Options.String("module_type")
	record, err := req.Repos.Records().FindRecord(ctx, moduleType, req.RecordID)
	if err != nil {
		return fmt.Errorf("failed to find %s %s: %w", moduleType, req.RecordID, err)
	}

	commentable, ok := record.(Commentable)
	if !ok || !commentable.CanComment(req.User) {
		return req.Log.Fail(ctx, record.Ref(), req.SequenceNumber,
			fmt.Sprintf("You do not have permission to comment on the record with ID %s.", req.RecordID))
	}

	c, err := comment.NewComment(record.Ref(), req.User.ID, req.Options.String("subject"), req.Options.String("body"))
	if err != nil {
		if msg, ok := domainMessage(err); ok {
			return req.Log.Fail(ctx, record.Ref(), req.SequenceNumber, msg)
		}
		return err
	}
	if err := req.Repos.Comments().Create(ctx, c); err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return req.Log.Succeed(ctx, record.Ref(), req.SequenceNumber)
}
