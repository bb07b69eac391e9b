package bulkapp

import (
	"errors"

	"github.com/tradecomply/backend/internal/domain/shared"
)

// domainMessage extracts the message of an expected domain failure
func domainMessage(err error) (string, bool) {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return de.Message, true
	}
	return "", false
}
