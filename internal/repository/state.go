package repository

import (
	"context"
	"time"
)

// StateRepository holds the ephemeral coordination state in redis: live
// slot signup counters and disconnect grace windows. Nothing here is
// authoritative for seats or phases — that lives in the SQL store.
type StateRepository interface {
	// IncrSlotQueue bumps the live signup counter for a slot and returns
	// the new count. The key carries a TTL past the slot start so stale
	// counters clean themselves up.
	IncrSlotQueue(ctx context.Context, slot time.Time) (int, error)

	// DecrSlotQueue undoes one signup (leave/cancel before start). Never
	// drops the counter below zero.
	DecrSlotQueue(ctx context.Context, slot time.Time) error

	// SlotQueueCount reads the live counter; a missing key counts as zero.
	SlotQueueCount(ctx context.Context, slot time.Time) (int, error)

	// MarkDisconnect opens a grace window for the participant. While the
	// window is open, rejoining reuses the seat instead of reserving a new
	// one.
	MarkDisconnect(ctx context.Context, sessionID, userID uint, grace time.Duration) error

	// InGraceWindow reports whether the participant's grace window is
	// still open.
	InGraceWindow(ctx context.Context, sessionID, userID uint) (bool, error)

	// ClearDisconnect closes the grace window after a successful rejoin.
	ClearDisconnect(ctx context.Context, sessionID, userID uint) error

	// MarkPresent records that the participant currently holds an open
	// presence connection for the session.
	MarkPresent(ctx context.Context, sessionID, userID uint) error

	// ClearPresent removes the presence marker on disconnect.
	ClearPresent(ctx context.Context, sessionID, userID uint) error

	// IsPresent reports whether the participant is currently connected.
	// The seat reaper uses this to avoid reaping a reconnected seat.
	IsPresent(ctx context.Context, sessionID, userID uint) (bool, error)
}
