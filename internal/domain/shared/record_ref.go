package shared

import "fmt"

// RecordRef is a polymorphic back-reference to a business record (type tag + id).
// It does not own the referenced record.
type RecordRef struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// NewRecordRef creates a new RecordRef
func NewRecordRef(recordType, id string) RecordRef {
	return RecordRef{Type: recordType, ID: id}
}

// IsZero reports whether the reference is empty
func (r RecordRef) IsZero() bool {
	return r.Type == "" && r.ID == ""
}

// String returns "Type#ID"
func (r RecordRef) String() string {
	return fmt.Sprintf("%s#%s", r.Type, r.ID)
}
