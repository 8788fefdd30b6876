package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/ytchou/focus-squad-sub000/internal/domain"
)

// ParticipantRepository is a mock of repository.ParticipantRepository.
type ParticipantRepository struct {
	mock.Mock
}

func (m *ParticipantRepository) FindByID(ctx context.Context, id uint) (*domain.Participant, error) {
	args := m.Called(ctx, id)
	if p, ok := args.Get(0).(*domain.Participant); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ParticipantRepository) FindActiveBySession(ctx context.Context, sessionID uint) ([]domain.Participant, error) {
	args := m.Called(ctx, sessionID)
	if p, ok := args.Get(0).([]domain.Participant); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ParticipantRepository) FindActiveByUser(ctx context.Context, sessionID, userID uint) (*domain.Participant, error) {
	args := m.Called(ctx, sessionID, userID)
	if p, ok := args.Get(0).(*domain.Participant); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ParticipantRepository) FindHumansBySession(ctx context.Context, sessionID uint) ([]domain.Participant, error) {
	args := m.Called(ctx, sessionID)
	if p, ok := args.Get(0).([]domain.Participant); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ParticipantRepository) IncrementDisconnect(ctx context.Context, participantID uint) error {
	args := m.Called(ctx, participantID)
	return args.Error(0)
}

func (m *ParticipantRepository) AccrueActiveMinutes(ctx context.Context, participantID uint, minutes int) error {
	args := m.Called(ctx, participantID, minutes)
	return args.Error(0)
}
