// Package common defines shared constants and sentinel errors used across
// client and server layers of the ledger. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound    = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// ErrStore marks persistence failures: backend unavailable, timed out,
	// or returning malformed data.
	ErrStore = errors.New("store error")

	// ErrWriteConflict is raised by stores when a concurrent writer changed a
	// record between read and write. It is retried inside AtomicUpdate and
	// never reaches callers of the service layer.
	ErrWriteConflict = errors.New("write conflict")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrRateLimited    = errors.New("rate increase requested too soon")
	ErrInvalidInput   = errors.New("invalid input")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
)

// Stable machine-readable error kinds.
const (
	KindNotFound      = "not_found"
	KindAlreadyExists = "already_exists"
	KindRateLimited   = "rate_limited"
	KindInvalidInput  = "invalid_input"
	KindStore         = "store_error"
	KindUnauthorized  = "unauthorized"
	KindInternal      = "internal"
)

// Kind maps err to its stable kind code. Unknown errors are internal.
// A write conflict that escaped the store is reported as a store error.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrRateLimited):
		return KindRateLimited
	case errors.Is(err, ErrorNotFound):
		return KindNotFound
	case errors.Is(err, ErrAlreadyExists):
		return KindAlreadyExists
	case errors.Is(err, ErrorUnauthorized), errors.Is(err, ErrInvalidToken):
		return KindUnauthorized
	case errors.Is(err, ErrStore), errors.Is(err, ErrWriteConflict):
		return KindStore
	default:
		return KindInternal
	}
}
