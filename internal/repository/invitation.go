package repository

import (
	"context"

	"github.com/ytchou/focus-squad-sub000/internal/domain"
)

// InvitationRepository owns invitation rows. Status transitions are
// conditional on the current stored status so concurrent responses cannot
// both apply.
type InvitationRepository interface {
	Create(ctx context.Context, inv *domain.Invitation) error

	// FindByID returns ErrInvitationNotFound when the id is unknown.
	FindByID(ctx context.Context, id uint) (*domain.Invitation, error)

	// FindPendingForInvitee lists the user's pending invitations, newest
	// first. Derived expiry is applied by the service, not here.
	FindPendingForInvitee(ctx context.Context, inviteeID uint) ([]domain.Invitation, error)

	// UpdateStatus moves the invitation from one stored status to another.
	// Returns ErrStaleUpdate when the stored status was not `from`.
	UpdateStatus(ctx context.Context, id uint, from, to domain.InvitationStatus) error
}
