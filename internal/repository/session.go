package repository

import (
	"context"
	"time"

	"github.com/ytchou/focus-squad-sub000/internal/domain"
)

// SessionFilters narrows the public-session search at a slot. Empty fields
// match anything.
type SessionFilters struct {
	Topic    string
	Mode     domain.SessionMode
	Language string
}

// Matches reports whether the session satisfies every set filter field.
func (f SessionFilters) Matches(s *domain.Session) bool {
	if f.Topic != "" && f.Topic != s.Topic {
		return false
	}
	if f.Mode != "" && f.Mode != s.Mode {
		return false
	}
	if f.Language != "" && f.Language != s.Language {
		return false
	}
	return true
}

// Empty reports whether the caller supplied no hard filter at all.
func (f SessionFilters) Empty() bool {
	return f.Topic == "" && f.Mode == "" && f.Language == ""
}

// SessionRepository owns session rows and the seat-occupancy invariant.
// ReserveSeat and ReleaseSeat are the only operations allowed to mutate
// occupancy; both are single conditional writes so that no caller can ever
// observe occupied seats above MaxSeats, even transiently.
type SessionRepository interface {
	// Create persists a new session and derives its unique room name from
	// the assigned id within the same transaction.
	Create(ctx context.Context, session *domain.Session) error

	// FindByID returns ErrSessionNotFound when the id is unknown.
	FindByID(ctx context.Context, id uint) (*domain.Session, error)

	// FindJoinableAtSlot returns public, non-ended sessions starting at the
	// given slot that still report a free seat. Filter preference is
	// applied by the caller.
	FindJoinableAtSlot(ctx context.Context, slot time.Time) ([]domain.Session, error)

	// ReserveSeat atomically claims one seat of the session and inserts the
	// participant row with the lowest free seat number. Returns
	// ErrSeatConflict when the session is full or ended — never a silent
	// double booking.
	ReserveSeat(ctx context.Context, sessionID uint, p *domain.Participant) error

	// ReleaseSeat soft-closes the participant (sets left_at) and frees its
	// seat in the occupancy count. Releasing an already-left participant is
	// a no-op.
	ReleaseSeat(ctx context.Context, sessionID, participantID uint, leftAt time.Time) error

	// AdvancePhase moves the stored phase cache only while the stored
	// value still matches `from`, so overlapping sweeps with different
	// captured clocks cannot regress the phase. Returns ErrStaleUpdate
	// when another writer got there first (treated as an idempotent
	// no-op by the sweep).
	AdvancePhase(ctx context.Context, sessionID uint, from, to domain.Phase, at time.Time) error

	// FindActiveBatch pages through non-ended sessions in id order, for the
	// periodic sweep. Returns at most limit rows with id > afterID.
	FindActiveBatch(ctx context.Context, afterID uint, limit int) ([]domain.Session, error)

	// HasUserOverlap reports whether the user holds an active (non-left)
	// seat in any non-ended session whose window overlaps a session
	// starting at slot.
	HasUserOverlap(ctx context.Context, userID uint, slot time.Time) (bool, error)
}
