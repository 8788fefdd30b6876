package repository

import (
	"context"

	"github.com/ytchou/focus-squad-sub000/internal/domain"
)

// ParticipantRepository reads and updates participant rows. Seat creation
// and release go through SessionRepository so occupancy stays guarded.
type ParticipantRepository interface {
	// FindByID returns ErrParticipantNotFound when the id is unknown.
	FindByID(ctx context.Context, id uint) (*domain.Participant, error)

	// FindActiveBySession returns all participants of the session with
	// left_at still null, ordered by seat number.
	FindActiveBySession(ctx context.Context, sessionID uint) ([]domain.Participant, error)

	// FindActiveByUser returns the user's active participant row in the
	// session, or ErrParticipantNotFound.
	FindActiveByUser(ctx context.Context, sessionID, userID uint) (*domain.Participant, error)

	// FindHumansBySession returns every human participant of the session,
	// left or not, for completion-time stats.
	FindHumansBySession(ctx context.Context, sessionID uint) ([]domain.Participant, error)

	// IncrementDisconnect bumps the participant's disconnect counter.
	IncrementDisconnect(ctx context.Context, participantID uint) error

	// AccrueActiveMinutes adds minutes to the participant's active total.
	AccrueActiveMinutes(ctx context.Context, participantID uint, minutes int) error
}
