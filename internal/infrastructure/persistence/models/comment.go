package models

import (
	"github.com/google/uuid"
	"github.com/tradecomply/backend/internal/domain/comment"
)

// CommentModel is the persistence model for the Comment domain entity.
type CommentModel struct {
	BaseModel
	Commentable RecordRefColumns `gorm:"embedded;embeddedPrefix:commentable_"`
	UserID      uuid.UUID        `gorm:"type:uuid;not null;index"`
	Subject     string           `gorm:"type:varchar(255);not null"`
	Body        string           `gorm:"type:text;not null"`
}

// TableName returns the table name for GORM
func (CommentModel) TableName() string {
	return "comments"
}

// ToDomain converts the persistence model to a domain Comment.
func (m *CommentModel) ToDomain() *comment.Comment {
	return &comment.Comment{
		BaseEntity:  m.BaseModel.ToDomain(),
		Commentable: m.Commentable.ToDomain(),
		UserID:      m.UserID,
		Subject:     m.Subject,
		Body:        m.Body,
	}
}

// CommentModelFromDomain creates a new persistence model from a domain Comment.
func CommentModelFromDomain(c *comment.Comment) *CommentModel {
	m := &CommentModel{
		Commentable: RecordRefColumnsFromDomain(c.Commentable),
		UserID:      c.UserID,
		Subject:     c.Subject,
		Body:        c.Body,
	}
	m.FromDomainBaseEntity(c.BaseEntity)
	return m
}
