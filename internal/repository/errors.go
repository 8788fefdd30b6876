package repository

import "errors"

// Storage-level sentinel errors. Infra implementations must map driver
// errors onto these; services map them onto the business error taxonomy.
var (
	// ErrNotFound means the requested record does not exist.
	ErrNotFound = errors.New("repository: record not found")
	// ErrDuplicateEntry means a write violated a unique constraint.
	ErrDuplicateEntry = errors.New("repository: duplicate entry")
	// ErrSeatConflict means the conditional seat reservation lost the race:
	// the session was already at capacity (or ended) when the guarded
	// write executed.
	ErrSeatConflict = errors.New("repository: seat capacity exhausted")
	// ErrInsufficientBalance means a conditional debit found less balance
	// than the requested amount.
	ErrInsufficientBalance = errors.New("repository: insufficient balance")
	// ErrStaleUpdate means a conditional update matched no row, i.e. the
	// guard predicate no longer held.
	ErrStaleUpdate = errors.New("repository: stale conditional update")
)

// Resource-specific aliases of the generic sentinels.
var (
	ErrSessionNotFound     = ErrNotFound
	ErrParticipantNotFound = ErrNotFound
	ErrInvitationNotFound  = ErrNotFound
	ErrProfileNotFound     = ErrNotFound
)
