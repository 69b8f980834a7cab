// Package sentinel holds the error values stores return for factual states
// about persisted resources. Services translate them into coded domain
// errors; handlers never see them directly.
package sentinel

import "errors"

var (
	// ErrNotFound: the row does not exist in the caller's scope. Stores
	// return it both for genuinely missing rows and for rows outside the
	// caller's company so tenancy violations are indistinguishable.
	ErrNotFound = errors.New("not found")

	// ErrConflict: a uniqueness or concurrency rule refused the write
	// (duplicate link, lost conditional update).
	ErrConflict = errors.New("conflict")

	// ErrInvalidState: the entity exists but its lifecycle state forbids
	// the requested operation.
	ErrInvalidState = errors.New("invalid state")

	// ErrUnavailable: the backing store could not be reached.
	ErrUnavailable = errors.New("unavailable")
)
