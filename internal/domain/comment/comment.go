package comment

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/tradecomply/backend/internal/domain/shared"
)

// Comment is a note attached to any commentable business record
type Comment struct {
	shared.BaseEntity
	Commentable shared.RecordRef
	UserID      uuid.UUID
	Subject     string
	Body        string
}

// NewComment creates a new comment on the referenced record
func NewComment(commentable shared.RecordRef, userID uuid.UUID, subject, body string) (*Comment, error) {
	if commentable.IsZero() {
		return nil, shared.NewDomainError("INVALID_COMMENTABLE", "Comment must be attached to a record")
	}
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "Comment must have an author")
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, shared.NewDomainError("INVALID_SUBJECT", "Subject can't be blank")
	}
	if strings.TrimSpace(body) == "" {
		return nil, shared.NewDomainError("INVALID_BODY", "Body can't be blank")
	}
	return &Comment{
		BaseEntity:  shared.NewBaseEntity(),
		Commentable: commentable,
		UserID:      userID,
		Subject:     subject,
		Body:        body,
	}, nil
}

// Repository defines the interface for comment persistence
type Repository interface {
	Create(ctx context.Context, c *Comment) error
	FindByCommentable(ctx context.Context, ref shared.RecordRef) ([]Comment, error)
}
