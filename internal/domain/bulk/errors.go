package bulk

import (
	"fmt"
	"strings"

	"github.com/tradecomply/backend/internal/domain/shared"
)

// Error codes surfaced synchronously to submitters
const (
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeTooManyBulkObjects = "TOO_MANY_BULK_OBJECTS"
)

// NewInvalidRequestError reports malformed or ambiguous submission parameters.
// The offending parameter names are listed in the message.
func NewInvalidRequestError(params ...string) *shared.DomainError {
	msg := "Bulk request must contain a numeric search_run_id or a non-empty pk mapping"
	if len(params) > 0 {
		msg = fmt.Sprintf("%s (malformed parameters: %s)", msg, strings.Join(params, ", "))
	}
	return shared.NewDomainError(ErrCodeInvalidRequest, msg)
}

// NewTooManyBulkObjectsError reports a search run whose result count exceeds the ceiling
func NewTooManyBulkObjectsError(total, max int) *shared.DomainError {
	return shared.NewDomainError(ErrCodeTooManyBulkObjects,
		fmt.Sprintf("Bulk actions are limited to %d objects; this search returned %d", max, total))
}

// IsInvalidRequest reports whether err carries the invalid-request code
func IsInvalidRequest(err error) bool {
	return hasCode(err, ErrCodeInvalidRequest)
}

// IsTooManyBulkObjects reports whether err carries the too-many-objects code
func IsTooManyBulkObjects(err error) bool {
	return hasCode(err, ErrCodeTooManyBulkObjects)
}

func hasCode(err error, code string) bool {
	de, ok := asDomainError(err)
	return ok && de.Code == code
}
