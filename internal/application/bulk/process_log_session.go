package bulkapp

import (
	"context"
	"fmt"
	"time"

	"github.com/tradecomply/backend/internal/domain/bulk"
	"github.com/tradecomply/backend/internal/domain/identity"
	"github.com/tradecomply/backend/internal/domain/shared"
)

// LogBracket opens and closes process logs on one repository
type LogBracket struct {
	repo bulk.ProcessLogRepository
	now  func() time.Time
}

// NewLogBracket creates a LogBracket. A nil clock uses time.Now.
func NewLogBracket(repo bulk.ProcessLogRepository, now func() time.Time) *LogBracket {
	if now == nil {
		now = time.Now
	}
	return &LogBracket{repo: repo, now: now}
}

// WithLog creates a started process log, runs fn with it, and stamps completion
// only when fn returns nil. An error from fn is returned unchanged and the log is
// left incomplete.
func (b *LogBracket) WithLog(
	ctx context.Context,
	user *identity.User,
	actionType string,
	snapshotKey string,
	fn func(session *ProcessLogSession) error,
) (*bulk.ProcessLog, error) {
	log, err := bulk.NewProcessLog(user.ID, actionType, b.now())
	if err != nil {
		return nil, err
	}
	log.SnapshotKey = snapshotKey
	if err := b.repo.Create(ctx, log); err != nil {
		return nil, fmt.Errorf("failed to create process log: %w", err)
	}

	if err := fn(&ProcessLogSession{log: log, repo: b.repo, now: b.now}); err != nil {
		return log, err
	}

	if err := log.Complete(b.now()); err != nil {
		return log, err
	}
	if err := b.repo.Save(ctx, log); err != nil {
		return log, fmt.Errorf("failed to complete process log: %w", err)
	}
	return log, nil
}

// ProcessLogSession is the handle an action uses to record its outcome
type ProcessLogSession struct {
	log  *bulk.ProcessLog
	repo bulk.ProcessLogRepository
	now  func() time.Time
}

// ProcessLog returns the log being written
func (s *ProcessLogSession) ProcessLog() *bulk.ProcessLog {
	return s.log
}

// CreateChangeRecord appends and persists one outcome
func (s *ProcessLogSession) CreateChangeRecord(ctx context.Context, recordable shared.RecordRef, seq int, failed bool) (*bulk.ChangeRecord, error) {
	cr, err := s.log.AppendChangeRecord(recordable, seq, failed, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateChangeRecord(ctx, cr); err != nil {
		return nil, fmt.Errorf("failed to create change record: %w", err)
	}
	return cr, nil
}

// AddMessage appends text to cr and persists the message list
func (s *ProcessLogSession) AddMessage(ctx context.Context, cr *bulk.ChangeRecord, text string) error {
	cr.AddMessage(text)
	if err := s.repo.SaveChangeRecordMessages(ctx, cr); err != nil {
		return fmt.Errorf("failed to save change record messages: %w", err)
	}
	return nil
}

// Succeed records a successful outcome with optional messages
func (s *ProcessLogSession) Succeed(ctx context.Context, recordable shared.RecordRef, seq int, messages ...string) error {
	return s.record(ctx, recordable, seq, false, messages)
}

// Fail records a failed outcome explained by message
func (s *ProcessLogSession) Fail(ctx context.Context, recordable shared.RecordRef, seq int, message string) error {
	return s.record(ctx, recordable, seq, true, []string{message})
}

func (s *ProcessLogSession) record(ctx context.Context, recordable shared.RecordRef, seq int, failed bool, messages []string) error {
	cr, err := s.CreateChangeRecord(ctx, recordable, seq, failed)
	if err != nil {
		return err
	}
	for _, m := range messages {
		if err := s.AddMessage(ctx, cr, m); err != nil {
			return err
		}
	}
	return nil
}
