// Package storage provides blob store implementations keyed by bucket and path.
package storage

import "errors"

// ErrObjectNotFound is returned by Get when the object does not exist
var ErrObjectNotFound = errors.New("storage: object not found")

// ErrEmptyKey is returned for operations on a blank bucket or key
var ErrEmptyKey = errors.New("storage: bucket and key are required")
