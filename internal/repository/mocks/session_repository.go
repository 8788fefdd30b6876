// Package mocks provides hand-written testify mocks for the repository
// interfaces and the job scheduler.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/ytchou/focus-squad-sub000/internal/domain"
)

// SessionRepository is a mock of repository.SessionRepository.
type SessionRepository struct {
	mock.Mock
}

func (m *SessionRepository) Create(ctx context.Context, session *domain.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *SessionRepository) FindByID(ctx context.Context, id uint) (*domain.Session, error) {
	args := m.Called(ctx, id)
	if s, ok := args.Get(0).(*domain.Session); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SessionRepository) FindJoinableAtSlot(ctx context.Context, slot time.Time) ([]domain.Session, error) {
	args := m.Called(ctx, slot)
	if s, ok := args.Get(0).([]domain.Session); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SessionRepository) ReserveSeat(ctx context.Context, sessionID uint, p *domain.Participant) error {
	args := m.Called(ctx, sessionID, p)
	return args.Error(0)
}

func (m *SessionRepository) ReleaseSeat(ctx context.Context, sessionID, participantID uint, leftAt time.Time) error {
	args := m.Called(ctx, sessionID, participantID, leftAt)
	return args.Error(0)
}

func (m *SessionRepository) AdvancePhase(ctx context.Context, sessionID uint, from, to domain.Phase, at time.Time) error {
	args := m.Called(ctx, sessionID, from, to, at)
	return args.Error(0)
}

func (m *SessionRepository) FindActiveBatch(ctx context.Context, afterID uint, limit int) ([]domain.Session, error) {
	args := m.Called(ctx, afterID, limit)
	if s, ok := args.Get(0).([]domain.Session); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SessionRepository) HasUserOverlap(ctx context.Context, userID uint, slot time.Time) (bool, error) {
	args := m.Called(ctx, userID, slot)
	return args.Bool(0), args.Error(1)
}
