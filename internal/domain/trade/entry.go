package trade

import (
	"strconv"
	"strings"
	"time"

	"github.com/tradecomply/backend/internal/domain/identity"
	"github.com/tradecomply/backend/internal/domain/shared"
)

// RecordTypeEntry is the record-type tag for customs entries
const RecordTypeEntry = "Entry"

// FileRef points at an integration file held in the blob store
type FileRef struct {
	Bucket   string
	Path     string
	FileName string
}

// IsZero reports whether the reference is empty
func (f FileRef) IsZero() bool {
	return f.Bucket == "" || f.Path == ""
}

// Entry is a customs entry filed by the broker
type Entry struct {
	ID               int64
	EntryNumber      string
	BrokerReference  string
	CustomerNumber   string
	LastFile         *FileRef
	LastSentToTestAt *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewEntry creates a new customs entry
func NewEntry(brokerReference string) (*Entry, error) {
	brokerReference = strings.TrimSpace(brokerReference)
	if brokerReference == "" {
		return nil, shared.NewDomainError("INVALID_BROKER_REFERENCE", "Broker reference cannot be empty")
	}
	now := time.Now()
	return &Entry{
		BrokerReference: brokerReference,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// RecordType implements the record contract used by bulk actions
func (e *Entry) RecordType() string { return RecordTypeEntry }

// RecordID implements the record contract used by bulk actions
func (e *Entry) RecordID() string { return strconv.FormatInt(e.ID, 10) }

// Ref returns a polymorphic reference to the entry
func (e *Entry) Ref() shared.RecordRef {
	return shared.NewRecordRef(RecordTypeEntry, e.RecordID())
}

// IntegrationFile returns the last file the entry was integrated from, if any
func (e *Entry) IntegrationFile() *FileRef {
	if e.LastFile == nil || e.LastFile.IsZero() {
		return nil
	}
	return e.LastFile
}

// AttachFile records the file the entry was last integrated from
func (e *Entry) AttachFile(f FileRef) {
	e.LastFile = &f
	e.UpdatedAt = time.Now()
}

// MarkSentToTest stamps the last test resubmission time
func (e *Entry) MarkSentToTest(at time.Time) {
	e.LastSentToTestAt = &at
	e.UpdatedAt = at
}

// CanView reports whether the user may see the entry
func (e *Entry) CanView(u *identity.User) bool {
	return u.HasPermission(identity.PermissionEntryView) || u.HasPermission(identity.PermissionEntryEdit)
}

// CanComment reports whether the user may attach a comment to the entry
func (e *Entry) CanComment(u *identity.User) bool {
	return e.CanView(u) && u.HasPermission(identity.PermissionComment)
}

// CanSendToTest reports whether the user may resubmit the entry to a test environment
func (e *Entry) CanSendToTest(u *identity.User) bool {
	return e.CanView(u) && u.HasPermission(identity.PermissionSendToTest)
}
