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
	"github.com/ytchou/focus-squad-sub000/internal/repository/mocks"
	"github.com/ytchou/focus-squad-sub000/internal/service"
	"github.com/ytchou/focus-squad-sub000/internal/tasks"
)

type phaseFixture struct {
	sessionRepo     *mocks.SessionRepository
	participantRepo *mocks.ParticipantRepository
	profileRepo     *mocks.ProfileRepository
	ledger          *mocks.CreditLedger
	sched           *mocks.Scheduler
	svc             *service.PhaseService
}

func newPhaseFixture() *phaseFixture {
	f := &phaseFixture{
		sessionRepo:     new(mocks.SessionRepository),
		participantRepo: new(mocks.ParticipantRepository),
		profileRepo:     new(mocks.ProfileRepository),
		ledger:          new(mocks.CreditLedger),
		sched:           new(mocks.Scheduler),
	}
	f.svc = service.NewPhaseService(f.sessionRepo, f.participantRepo, f.profileRepo, f.ledger, f.sched)
	return f
}

// sessionInPhase builds a session whose wall-clock phase is the one after
// storedPhase, by placing its start so that elapsed lands mid-phase.
func sessionElapsed(id uint, elapsed time.Duration, stored domain.Phase) domain.Session {
	start := time.Now().UTC().Add(-elapsed)
	return domain.Session{
		ID:             id,
		StartTime:      start,
		EndTime:        start.Add(domain.SessionDuration),
		CurrentPhase:   stored,
		PhaseStartedAt: start,
		RoomName:       domain.RoomNameFor(id),
		MaxSeats:       domain.MaxSeats,
	}
}

func TestPhaseService_AdvanceAll_ConsistentSessionIsNoOp(t *testing.T) {
	f := newPhaseFixture()
	ctx := context.Background()

	// Four minutes in: both stored and derived phase are WORK_1.
	s := sessionElapsed(1, 4*time.Minute, domain.PhaseWork1)
	f.sessionRepo.On("FindActiveBatch", ctx, uint(0), 50).Return([]domain.Session{s}, nil).Once()

	err := f.svc.AdvanceAll(ctx)

	require.NoError(t, err)
	f.sessionRepo.AssertNotCalled(t, "AdvancePhase", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPhaseService_AdvanceAll_MovesLaggingPhase(t *testing.T) {
	f := newPhaseFixture()
	ctx := context.Background()

	// 29 minutes in, still recorded as WORK_1: the sweep moves it to BREAK.
	s := sessionElapsed(2, 29*time.Minute, domain.PhaseWork1)
	f.sessionRepo.On("FindActiveBatch", ctx, uint(0), 50).Return([]domain.Session{s}, nil).Once()
	f.sessionRepo.On("AdvancePhase", ctx, s.ID, domain.PhaseWork1, domain.PhaseBreak, mock.AnythingOfType("time.Time")).Return(nil).Once()

	err := f.svc.AdvanceAll(ctx)

	require.NoError(t, err)
	f.sessionRepo.AssertExpectations(t)
}

func TestPhaseService_AdvanceAll_FailureIsolatedPerSession(t *testing.T) {
	f := newPhaseFixture()
	ctx := context.Background()

	broken := sessionElapsed(3, 29*time.Minute, domain.PhaseWork1)
	healthy := sessionElapsed(4, 31*time.Minute, domain.PhaseBreak)
	f.sessionRepo.On("FindActiveBatch", ctx, uint(0), 50).Return([]domain.Session{broken, healthy}, nil).Once()
	f.sessionRepo.On("AdvancePhase", ctx, broken.ID, domain.PhaseWork1, domain.PhaseBreak, mock.AnythingOfType("time.Time")).
		Return(errors.New("deadlock")).Once()
	// The failure on session 3 must not stop session 4 from advancing.
	f.sessionRepo.On("AdvancePhase", ctx, healthy.ID, domain.PhaseBreak, domain.PhaseWork2, mock.AnythingOfType("time.Time")).Return(nil).Once()

	err := f.svc.AdvanceAll(ctx)

	require.NoError(t, err, "per-session failures never fail the sweep")
	f.sessionRepo.AssertExpectations(t)
}

func TestPhaseService_AdvanceAll_StaleUpdateTreatedAsNoOp(t *testing.T) {
	f := newPhaseFixture()
	ctx := context.Background()

	s := sessionElapsed(5, 29*time.Minute, domain.PhaseWork1)
	f.sessionRepo.On("FindActiveBatch", ctx, uint(0), 50).Return([]domain.Session{s}, nil).Once()
	// A concurrent sweep already applied the same transition.
	f.sessionRepo.On("AdvancePhase", ctx, s.ID, domain.PhaseWork1, domain.PhaseBreak, mock.AnythingOfType("time.Time")).
		Return(repository.ErrStaleUpdate).Once()

	err := f.svc.AdvanceAll(ctx)

	require.NoError(t, err)
	// No end-of-session side effects were fired.
	f.sched.AssertNotCalled(t, "RunAt", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPhaseService_AdvanceAll_OverlappingSweepCannotRegress(t *testing.T) {
	f := newPhaseFixture()
	ctx := context.Background()

	// A slow sweep loaded the row while it still read WORK_1; by the time
	// its write lands, a faster sweep has moved the row on. The write is
	// keyed on the observed WORK_1, so it loses instead of rolling the
	// newer phase back.
	s := sessionElapsed(7, 29*time.Minute, domain.PhaseWork1)
	f.sessionRepo.On("FindActiveBatch", ctx, uint(0), 50).Return([]domain.Session{s}, nil).Once()
	f.sessionRepo.On("AdvancePhase", ctx, s.ID, domain.PhaseWork1, domain.PhaseBreak, mock.AnythingOfType("time.Time")).
		Return(repository.ErrStaleUpdate).Once()

	err := f.svc.AdvanceAll(ctx)

	require.NoError(t, err, "losing the conditional write is not a sweep failure")
	f.sessionRepo.AssertExpectations(t)
	f.sched.AssertNotCalled(t, "RunAt", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPhaseService_AdvanceAll_EndedSessionSideEffects(t *testing.T) {
	f := newPhaseFixture()
	ctx := context.Background()

	s := sessionElapsed(6, 56*time.Minute, domain.PhaseSocial)
	f.sessionRepo.On("FindActiveBatch", ctx, uint(0), 50).Return([]domain.Session{s}, nil).Once()
	f.sessionRepo.On("AdvancePhase", ctx, s.ID, domain.PhaseSocial, domain.PhaseEnded, mock.AnythingOfType("time.Time")).Return(nil).Once()

	// Delayed room teardown.
	f.sched.On("RunAt", ctx, tasks.TypeRoomCleanup, mock.Anything, mock.AnythingOfType("time.Time")).Return(nil).Once()

	stayerID := uint(70)
	leaverID := uint(71)
	left := s.StartTime.Add(10 * time.Minute)
	stayer := domain.Participant{ID: 201, SessionID: s.ID, UserID: &stayerID, ParticipantType: domain.ParticipantHuman, JoinedAt: s.StartTime}
	leaver := domain.Participant{ID: 202, SessionID: s.ID, UserID: &leaverID, ParticipantType: domain.ParticipantHuman, JoinedAt: s.StartTime, LeftAt: &left}
	f.participantRepo.On("FindHumansBySession", ctx, s.ID).Return([]domain.Participant{stayer, leaver}, nil).Once()

	// Only the participant still seated at the end counts as completed.
	f.participantRepo.On("AccrueActiveMinutes", ctx, stayer.ID, 55).Return(nil).Once()
	f.profileRepo.On("IncrementCompletionStats", ctx, stayerID, 55).Return(nil).Once()
	f.profileRepo.On("IncrementStreak", ctx, stayerID, mock.AnythingOfType("time.Time")).Return(nil).Once()
	referrer := uint(99)
	f.profileRepo.On("FindReferrer", ctx, stayerID).Return(&referrer, nil).Once()
	f.ledger.On("Credit", ctx, referrer, 1, "referral_bonus").Return(nil).Once()

	err := f.svc.AdvanceAll(ctx)

	require.NoError(t, err)
	f.sched.AssertExpectations(t)
	f.profileRepo.AssertExpectations(t)
	f.ledger.AssertExpectations(t)
	f.profileRepo.AssertNotCalled(t, "IncrementCompletionStats", ctx, leaverID, mock.Anything)
}

func TestPhaseService_AdvanceAll_PagesThroughBatches(t *testing.T) {
	f := newPhaseFixture()
	ctx := context.Background()

	first := make([]domain.Session, 50)
	for i := range first {
		first[i] = sessionElapsed(uint(i+1), 4*time.Minute, domain.PhaseWork1)
	}
	second := []domain.Session{sessionElapsed(51, 4*time.Minute, domain.PhaseWork1)}

	f.sessionRepo.On("FindActiveBatch", ctx, uint(0), 50).Return(first, nil).Once()
	f.sessionRepo.On("FindActiveBatch", ctx, uint(50), 50).Return(second, nil).Once()

	err := f.svc.AdvanceAll(ctx)

	require.NoError(t, err)
	f.sessionRepo.AssertExpectations(t)
	assert.True(t, f.sessionRepo.AssertNumberOfCalls(t, "FindActiveBatch", 2))
}
