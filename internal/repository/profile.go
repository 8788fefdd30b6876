package repository

import (
	"context"
	"time"
)

// ProfileRepository is the slice of the user/profile collaborator this core
// consumes: the banned flag for invitation screening and the counters
// bumped once per completed human participant.
type ProfileRepository interface {
	// IsBanned reports whether the user is currently banned. Unknown users
	// are not banned.
	IsBanned(ctx context.Context, userID uint) (bool, error)

	// IncrementCompletionStats adds one completed session and the accrued
	// focus minutes to the user's profile.
	IncrementCompletionStats(ctx context.Context, userID uint, focusMinutes int) error

	// IncrementStreak extends the user's daily streak for the given day.
	// Completing a second session on the same day is a no-op; a gap of
	// more than one day resets the streak to 1.
	IncrementStreak(ctx context.Context, userID uint, day time.Time) error

	// FindReferrer returns the id of the user who referred this user, or
	// nil when there is none.
	FindReferrer(ctx context.Context, userID uint) (*uint, error)
}
