package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

// StateRepository is a mock of repository.StateRepository.
type StateRepository struct {
	mock.Mock
}

func (m *StateRepository) IncrSlotQueue(ctx context.Context, slot time.Time) (int, error) {
	args := m.Called(ctx, slot)
	return args.Int(0), args.Error(1)
}

func (m *StateRepository) DecrSlotQueue(ctx context.Context, slot time.Time) error {
	args := m.Called(ctx, slot)
	return args.Error(0)
}

func (m *StateRepository) SlotQueueCount(ctx context.Context, slot time.Time) (int, error) {
	args := m.Called(ctx, slot)
	return args.Int(0), args.Error(1)
}

func (m *StateRepository) MarkDisconnect(ctx context.Context, sessionID, userID uint, grace time.Duration) error {
	args := m.Called(ctx, sessionID, userID, grace)
	return args.Error(0)
}

func (m *StateRepository) InGraceWindow(ctx context.Context, sessionID, userID uint) (bool, error) {
	args := m.Called(ctx, sessionID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *StateRepository) ClearDisconnect(ctx context.Context, sessionID, userID uint) error {
	args := m.Called(ctx, sessionID, userID)
	return args.Error(0)
}

func (m *StateRepository) MarkPresent(ctx context.Context, sessionID, userID uint) error {
	args := m.Called(ctx, sessionID, userID)
	return args.Error(0)
}

func (m *StateRepository) ClearPresent(ctx context.Context, sessionID, userID uint) error {
	args := m.Called(ctx, sessionID, userID)
	return args.Error(0)
}

func (m *StateRepository) IsPresent(ctx context.Context, sessionID, userID uint) (bool, error) {
	args := m.Called(ctx, sessionID, userID)
	return args.Bool(0), args.Error(1)
}
