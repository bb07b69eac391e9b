package trade

import (
	"context"
	"strconv"
	"strings"

	"github.com/tradecomply/backend/internal/domain/shared"
)

// OrderRepository defines the interface for order persistence
type OrderRepository interface {
	// FindByID finds an order by ID
	FindByID(ctx context.Context, id int64) (*Order, error)

	// Save creates or updates an order
	Save(ctx context.Context, order *Order) error
}

// EntryRepository defines the interface for customs entry persistence
type EntryRepository interface {
	// FindByID finds an entry by ID
	FindByID(ctx context.Context, id int64) (*Entry, error)

	// Save creates or updates an entry
	Save(ctx context.Context, entry *Entry) error
}

// ParseRecordID parses the numeric id of an order or entry
func ParseRecordID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, shared.NewDomainError("INVALID_RECORD_ID", "Invalid record ID: "+s)
	}
	return id, nil
}
