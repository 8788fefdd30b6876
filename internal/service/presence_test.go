package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ytchou/focus-squad-sub000/internal/domain"
	"github.com/ytchou/focus-squad-sub000/internal/repository"
	"github.com/ytchou/focus-squad-sub000/internal/service"
	"github.com/ytchou/focus-squad-sub000/internal/tasks"
)

func TestMatchService_HandleDisconnect_OpensGraceWindowAndSchedulesReap(t *testing.T) {
	f := newMatchFixture()
	ctx := context.Background()
	userID := uint(7)
	sessionID := uint(11)
	participant := &domain.Participant{ID: 55, SessionID: sessionID, UserID: &userID, JoinedAt: time.Now().UTC()}

	f.participantRepo.On("FindActiveByUser", ctx, sessionID, userID).Return(participant, nil).Once()
	f.stateRepo.On("ClearPresent", ctx, sessionID, userID).Return(nil).Once()
	f.stateRepo.On("MarkDisconnect", ctx, sessionID, userID, service.DisconnectGrace).Return(nil).Once()
	f.sched.On("RunAt", ctx, tasks.TypeSeatReap, mock.Anything, mock.MatchedBy(func(at time.Time) bool {
		// The reap fires after the grace window, never inside it.
		return time.Until(at) > service.DisconnectGrace
	})).Return(nil).Once()

	f.svc.HandleDisconnect(ctx, sessionID, userID)

	f.stateRepo.AssertExpectations(t)
	f.sched.AssertExpectations(t)
}

func TestMatchService_HandleDisconnect_NoSeatNoWindow(t *testing.T) {
	f := newMatchFixture()
	ctx := context.Background()

	f.participantRepo.On("FindActiveByUser", ctx, uint(11), uint(7)).
		Return(nil, repository.ErrParticipantNotFound).Once()

	f.svc.HandleDisconnect(ctx, 11, 7)

	f.stateRepo.AssertNotCalled(t, "MarkDisconnect", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.sched.AssertNotCalled(t, "RunAt", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestMatchService_Rejoin_WithinGraceReusesSeat(t *testing.T) {
	f := newMatchFixture()
	ctx := context.Background()
	userID := uint(7)
	start := time.Now().UTC().Add(-10 * time.Minute)
	session := publicSession(11, start)
	session.CurrentPhase = domain.PhaseWork1
	participant := &domain.Participant{
		ID:         55,
		SessionID:  session.ID,
		UserID:     &userID,
		SeatNumber: 3,
		Identity:   "user-7",
		JoinedAt:   start,
	}

	f.sessionRepo.On("FindByID", ctx, session.ID).Return(session, nil).Once()
	f.participantRepo.On("FindActiveByUser", ctx, session.ID, userID).Return(participant, nil).Once()
	f.stateRepo.On("InGraceWindow", ctx, session.ID, userID).Return(true, nil).Once()
	f.participantRepo.On("IncrementDisconnect", ctx, participant.ID).Return(nil).Once()
	f.stateRepo.On("ClearDisconnect", ctx, session.ID, userID).Return(nil).Once()
	f.stateRepo.On("MarkPresent", ctx, session.ID, userID).Return(nil).Once()

	result, err := f.svc.Rejoin(ctx, session.ID, userID)

	require.NoError(t, err)
	assert.Equal(t, 3, result.SeatNumber, "the original seat is reused")
	assert.NotEmpty(t, result.Token, "rejoin re-mints the room credential")
	assert.True(t, result.IsImmediate)
	// Rejoin never reserves a new seat or debits again.
	f.sessionRepo.AssertNotCalled(t, "ReserveSeat", mock.Anything, mock.Anything, mock.Anything)
	f.ledger.AssertNotCalled(t, "Debit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestMatchService_Rejoin_ReapedSeatIsGone(t *testing.T) {
	f := newMatchFixture()
	ctx := context.Background()
	userID := uint(7)
	start := time.Now().UTC().Add(-10 * time.Minute)
	session := publicSession(11, start)
	session.CurrentPhase = domain.PhaseWork1

	f.sessionRepo.On("FindByID", ctx, session.ID).Return(session, nil).Once()
	f.participantRepo.On("FindActiveByUser", ctx, session.ID, userID).
		Return(nil, repository.ErrParticipantNotFound).Once()

	result, err := f.svc.Rejoin(ctx, session.ID, userID)

	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, service.ErrSessionFull))
}

func TestMatchService_Rejoin_EndedSessionRejected(t *testing.T) {
	f := newMatchFixture()
	ctx := context.Background()
	start := time.Now().UTC().Add(-2 * time.Hour)
	session := publicSession(11, start)
	session.CurrentPhase = domain.PhaseEnded

	f.sessionRepo.On("FindByID", ctx, session.ID).Return(session, nil).Once()

	_, err := f.svc.Rejoin(ctx, session.ID, 7)

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrSessionPhase))
}

func TestMatchService_ReapSeat_AbsentSeatReleased(t *testing.T) {
	f := newMatchFixture()
	ctx := context.Background()

	f.stateRepo.On("IsPresent", ctx, uint(11), uint(7)).Return(false, nil).Once()
	f.stateRepo.On("InGraceWindow", ctx, uint(11), uint(7)).Return(false, nil).Once()
	f.sessionRepo.On("ReleaseSeat", ctx, uint(11), uint(55), mock.AnythingOfType("time.Time")).Return(nil).Once()

	err := f.svc.ReapSeat(ctx, 11, 55, 7)

	require.NoError(t, err)
	f.sessionRepo.AssertExpectations(t)
}

func TestMatchService_ReapSeat_FreshGraceWindowKeepsSeat(t *testing.T) {
	f := newMatchFixture()
	ctx := context.Background()

	// The participant rejoined and dropped again, so a newer window is
	// open when the reap scheduled by the first disconnect fires.
	f.stateRepo.On("IsPresent", ctx, uint(11), uint(7)).Return(false, nil).Once()
	f.stateRepo.On("InGraceWindow", ctx, uint(11), uint(7)).Return(true, nil).Once()

	err := f.svc.ReapSeat(ctx, 11, 55, 7)

	require.NoError(t, err)
	f.sessionRepo.AssertNotCalled(t, "ReleaseSeat", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestMatchService_ReapSeat_ReconnectedSeatKept(t *testing.T) {
	f := newMatchFixture()
	ctx := context.Background()

	f.stateRepo.On("IsPresent", ctx, uint(11), uint(7)).Return(true, nil).Once()

	err := f.svc.ReapSeat(ctx, 11, 55, 7)

	require.NoError(t, err)
	f.sessionRepo.AssertNotCalled(t, "ReleaseSeat", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
