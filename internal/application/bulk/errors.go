package bulkapp

import "errors"

var (
	// ErrChangeRecordContract is returned when an action does not leave exactly one
	// change record with the expected sequence number
	ErrChangeRecordContract = errors.New("action broke the change record contract")

	// ErrUnknownAction is returned for action types missing from the registry
	ErrUnknownAction = errors.New("unknown bulk action type")

	// ErrSnapshotNotFound is returned when a work order snapshot no longer exists
	ErrSnapshotNotFound = errors.New("work order snapshot not found")

	// ErrInvalidReplayJob is returned for replay jobs missing required arguments
	ErrInvalidReplayJob = errors.New("invalid replay job arguments")
)
