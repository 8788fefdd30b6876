package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/ytchou/focus-squad-sub000/internal/domain"
)

// InvitationRepository is a mock of repository.InvitationRepository.
type InvitationRepository struct {
	mock.Mock
}

func (m *InvitationRepository) Create(ctx context.Context, inv *domain.Invitation) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}

func (m *InvitationRepository) FindByID(ctx context.Context, id uint) (*domain.Invitation, error) {
	args := m.Called(ctx, id)
	if inv, ok := args.Get(0).(*domain.Invitation); ok {
		return inv, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *InvitationRepository) FindPendingForInvitee(ctx context.Context, inviteeID uint) ([]domain.Invitation, error) {
	args := m.Called(ctx, inviteeID)
	if invs, ok := args.Get(0).([]domain.Invitation); ok {
		return invs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *InvitationRepository) UpdateStatus(ctx context.Context, id uint, from, to domain.InvitationStatus) error {
	args := m.Called(ctx, id, from, to)
	return args.Error(0)
}
