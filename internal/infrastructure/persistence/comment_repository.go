package persistence

import (
	"context"

	"github.com/tradecomply/backend/internal/domain/audit"
	"github.com/tradecomply/backend/internal/domain/comment"
	"github.com/tradecomply/backend/internal/domain/shared"
	"github.com/tradecomply/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCommentRepository implements comment.Repository using GORM
type GormCommentRepository struct {
	db *gorm.DB
}

// NewGormCommentRepository creates a new GormCommentRepository
func NewGormCommentRepository(db *gorm.DB) *GormCommentRepository {
	return &GormCommentRepository{db: db}
}

// Create inserts a comment
func (r *GormCommentRepository) Create(ctx context.Context, c *comment.Comment) error {
	return r.db.WithContext(ctx).Create(models.CommentModelFromDomain(c)).Error
}

// FindByCommentable lists the comments on a record, oldest first
func (r *GormCommentRepository) FindByCommentable(ctx context.Context, ref shared.RecordRef) ([]comment.Comment, error) {
	var rows []models.CommentModel
	if err := r.db.WithContext(ctx).
		Where("commentable_type = ? AND commentable_id = ?", ref.Type, ref.ID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	comments := make([]comment.Comment, len(rows))
	for i := range rows {
		comments[i] = *rows[i].ToDomain()
	}
	return comments, nil
}

// GormSnapshotRepository implements audit.SnapshotRepository using GORM
type GormSnapshotRepository struct {
	db *gorm.DB
}

// NewGormSnapshotRepository creates a new GormSnapshotRepository
func NewGormSnapshotRepository(db *gorm.DB) *GormSnapshotRepository {
	return &GormSnapshotRepository{db: db}
}

// Create inserts an entity snapshot
func (r *GormSnapshotRepository) Create(ctx context.Context, s *audit.EntitySnapshot) error {
	return r.db.WithContext(ctx).Create(models.EntitySnapshotModelFromDomain(s)).Error
}

// FindByRecordable lists the snapshots of a record, oldest first
func (r *GormSnapshotRepository) FindByRecordable(ctx context.Context, ref shared.RecordRef) ([]audit.EntitySnapshot, error) {
	var rows []models.EntitySnapshotModel
	if err := r.db.WithContext(ctx).
		Where("recordable_type = ? AND recordable_id = ?", ref.Type, ref.ID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	snapshots := make([]audit.EntitySnapshot, len(rows))
	for i := range rows {
		snapshots[i] = *rows[i].ToDomain()
	}
	return snapshots, nil
}

var (
	_ comment.Repository       = (*GormCommentRepository)(nil)
	_ audit.SnapshotRepository = (*GormSnapshotRepository)(nil)
)
