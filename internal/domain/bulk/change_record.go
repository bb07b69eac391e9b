package bulk

import (
	"time"

	"github.com/google/uuid"
	"github.com/tradecomply/backend/internal/domain/shared"
)

// ChangeRecord is the immutable outcome of acting on one key of a run
type ChangeRecord struct {
	ID                   uuid.UUID        `json:"id"`
	ProcessLogID         uuid.UUID        `json:"process_log_id"`
	Recordable           shared.RecordRef `json:"recordable"`
	RecordSequenceNumber int              `json:"record_sequence_number"`
	Failed               bool             `json:"failed"`
	Messages             []string         `json:"messages"`
	CreatedAt            time.Time        `json:"created_at"`
}

// AddMessage appends an explanation to the record's message list
func (c *ChangeRecord) AddMessage(text string) {
	c.Messages = append(c.Messages, text)
}
