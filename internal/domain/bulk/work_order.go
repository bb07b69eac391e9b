package bulk

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tradecomply/backend/internal/domain/shared"
)

// Options is the open, action-specific configuration forwarded verbatim to an action
type Options map[string]any

// UnmarshalJSON keeps numbers as json.Number so integers survive a round trip
// through the snapshot with their original digits.
func (o *Options) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return err
	}
	*o = m
	return nil
}

// String returns the trimmed value for key rendered as text, or "" when absent
func (o Options) String(key string) string {
	v, ok := o[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

// Has reports whether key is present
func (o Options) Has(key string) bool {
	_, ok := o[key]
	return ok
}

// Clone returns a shallow copy
func (o Options) Clone() Options {
	c := make(Options, len(o))
	for k, v := range o {
		c[k] = v
	}
	return c
}

// WorkOrder is the durable description of one bulk run
type WorkOrder struct {
	UserID uuid.UUID `json:"user_id"`
	Keys   []string  `json:"keys"`
	Opts   Options   `json:"opts"`
}

// NewWorkOrder creates a validated work order
func NewWorkOrder(userID uuid.UUID, keys []string, opts Options) (*WorkOrder, error) {
	if opts == nil {
		opts = Options{}
	}
	wo := &WorkOrder{UserID: userID, Keys: keys, Opts: opts}
	if err := wo.Validate(); err != nil {
		return nil, err
	}
	return wo, nil
}

// Validate checks that the work order names an initiator and at least one key
func (w *WorkOrder) Validate() error {
	if w.UserID == uuid.Nil {
		return shared.NewDomainError("INVALID_WORK_ORDER", "Work order requires a user")
	}
	if len(w.Keys) == 0 {
		return shared.NewDomainError("INVALID_WORK_ORDER", "Work order requires at least one key")
	}
	return nil
}

// Marshal serializes the work order. encoding/json sorts map keys, so equal work
// orders always produce equal bytes.
func (w *WorkOrder) Marshal() ([]byte, error) {
	data, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal work order: %w", err)
	}
	return data, nil
}

// UnmarshalWorkOrder parses and validates a serialized work order
func UnmarshalWorkOrder(data []byte) (*WorkOrder, error) {
	var w WorkOrder
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&w); err != nil {
		return nil, fmt.Errorf("failed to unmarshal work order: %w", err)
	}
	if w.Opts == nil {
		w.Opts = Options{}
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &w, nil
}

// ContentHash returns the hex SHA-256 of the serialized form
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// SnapshotKey derives the storage key for a serialized work order submitted at t
func SnapshotKey(prefix, hash string, t time.Time) string {
	name := fmt.Sprintf("%s-%d.json", hash, t.UnixNano())
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

func asDomainError(err error) (*shared.DomainError, bool) {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
