package logic

import "errors"

var (
	// ErrNotFound is returned when a match record does not exist, or when a
	// match_id lookup is excluded by additional filters.
	ErrNotFound = errors.New("match record not found")

	// ErrConflict is returned when creating a record whose match_id exists.
	ErrConflict = errors.New("match record already exists")

	// ErrInvalidFilter is returned for malformed query parameters. Bad input
	// is rejected, never silently ignored.
	ErrInvalidFilter = errors.New("invalid filter")

	// ErrInvariant is returned when a write attempts to change immutable
	// identity fields of an existing record.
	ErrInvariant = errors.New("invariant violation")

	// ErrStoreUnavailable wraps infrastructure-level store failures. It aborts
	// batch runs and surfaces to the caller.
	ErrStoreUnavailable = errors.New("store unavailable")
)
