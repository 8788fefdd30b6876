package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

// ProfileRepository is a mock of repository.ProfileRepository.
type ProfileRepository struct {
	mock.Mock
}

func (m *ProfileRepository) IsBanned(ctx context.Context, userID uint) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *ProfileRepository) IncrementCompletionStats(ctx context.Context, userID uint, focusMinutes int) error {
	args := m.Called(ctx, userID, focusMinutes)
	return args.Error(0)
}

func (m *ProfileRepository) IncrementStreak(ctx context.Context, userID uint, day time.Time) error {
	args := m.Called(ctx, userID, day)
	return args.Error(0)
}

func (m *ProfileRepository) FindReferrer(ctx context.Context, userID uint) (*uint, error) {
	args := m.Called(ctx, userID)
	if ref, ok := args.Get(0).(*uint); ok {
		return ref, args.Error(1)
	}
	return nil, args.Error(1)
}
