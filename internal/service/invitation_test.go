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
)

type invitationFixture struct {
	*matchFixture
	invitationRepo *mocks.InvitationRepository
	profileRepo    *mocks.ProfileRepository
	svc            *service.InvitationService
}

func newInvitationFixture() *invitationFixture {
	mf := newMatchFixture()
	f := &invitationFixture{
		matchFixture:   mf,
		invitationRepo: new(mocks.InvitationRepository),
		profileRepo:    new(mocks.ProfileRepository),
	}
	f.svc = service.NewInvitationService(f.invitationRepo, f.sessionRepo, f.profileRepo, mf.svc)
	return f
}

func privateSession(id, creatorID uint, slot time.Time) *domain.Session {
	s := publicSession(id, slot)
	s.IsPrivate = true
	s.CreatedBy = creatorID
	return s
}

func TestInvitationService_Respond_ExpiredPendingRowRejected(t *testing.T) {
	f := newInvitationFixture()
	ctx := context.Background()
	inviteeID := uint(8)

	// 25 hours old, still pending in storage: derived expiry wins.
	inv := &domain.Invitation{
		ID:        41,
		SessionID: 11,
		InviterID: 7,
		InviteeID: inviteeID,
		Status:    domain.InvitationPending,
		CreatedAt: time.Now().UTC().Add(-25 * time.Hour),
	}
	f.invitationRepo.On("FindByID", ctx, inv.ID).Return(inv, nil).Once()

	result, err := f.svc.Respond(ctx, inv.ID, inviteeID, true)

	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, service.ErrInvitationExpired))
	f.invitationRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestInvitationService_Respond_OnlyInviteeMayRespond(t *testing.T) {
	f := newInvitationFixture()
	ctx := context.Background()

	inv := &domain.Invitation{
		ID:        42,
		SessionID: 11,
		InviterID: 7,
		InviteeID: 8,
		Status:    domain.InvitationPending,
		CreatedAt: time.Now().UTC().Add(-time.Hour),
	}
	f.invitationRepo.On("FindByID", ctx, inv.ID).Return(inv, nil).Once()

	result, err := f.svc.Respond(ctx, inv.ID, 999, true)

	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, service.ErrInvitationNotFound))
}

func TestInvitationService_Respond_Decline(t *testing.T) {
	f := newInvitationFixture()
	ctx := context.Background()
	inviteeID := uint(8)

	inv := &domain.Invitation{
		ID:        43,
		SessionID: 11,
		InviterID: 7,
		InviteeID: inviteeID,
		Status:    domain.InvitationPending,
		CreatedAt: time.Now().UTC().Add(-time.Hour),
	}
	f.invitationRepo.On("FindByID", ctx, inv.ID).Return(inv, nil).Once()
	f.invitationRepo.On("UpdateStatus", ctx, inv.ID, domain.InvitationPending, domain.InvitationDeclined).Return(nil).Once()

	result, err := f.svc.Respond(ctx, inv.ID, inviteeID, false)

	require.NoError(t, err)
	assert.Nil(t, result, "declining returns no seat")
	f.invitationRepo.AssertExpectations(t)
	f.sessionRepo.AssertNotCalled(t, "ReserveSeat", mock.Anything, mock.Anything, mock.Anything)
}

func TestInvitationService_Respond_AcceptSeatsTheInvitee(t *testing.T) {
	f := newInvitationFixture()
	ctx := context.Background()
	inviteeID := uint(8)
	slot := futureSlot()
	session := privateSession(11, 7, slot)

	inv := &domain.Invitation{
		ID:        44,
		SessionID: session.ID,
		InviterID: 7,
		InviteeID: inviteeID,
		Status:    domain.InvitationPending,
		CreatedAt: time.Now().UTC().Add(-time.Hour),
	}
	f.invitationRepo.On("FindByID", ctx, inv.ID).Return(inv, nil).Once()
	f.invitationRepo.On("UpdateStatus", ctx, inv.ID, domain.InvitationPending, domain.InvitationAccepted).Return(nil).Once()
	f.sessionRepo.On("FindByID", ctx, session.ID).Return(session, nil).Once()
	f.sessionRepo.On("HasUserOverlap", ctx, inviteeID, slot).Return(false, nil).Once()
	f.sessionRepo.On("ReserveSeat", ctx, session.ID, mock.AnythingOfType("*domain.Participant")).
		Run(func(args mock.Arguments) {
			p := args.Get(2).(*domain.Participant)
			p.ID = 301
			p.SeatNumber = 2
		}).
		Return(nil).Once()
	f.ledger.On("Debit", ctx, inviteeID, 1, "session_join").Return(nil).Once()

	result, err := f.svc.Respond(ctx, inv.ID, inviteeID, true)

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 2, result.SeatNumber)
	assert.NotEmpty(t, result.Token)
	// Private tables never touch the public slot counters.
	f.stateRepo.AssertNotCalled(t, "IncrSlotQueue", mock.Anything, mock.Anything)
	f.invitationRepo.AssertExpectations(t)
}

func TestInvitationService_Respond_JoinFailureRevertsToPending(t *testing.T) {
	f := newInvitationFixture()
	ctx := context.Background()
	inviteeID := uint(8)
	slot := futureSlot()
	session := privateSession(11, 7, slot)

	inv := &domain.Invitation{
		ID:        45,
		SessionID: session.ID,
		InviterID: 7,
		InviteeID: inviteeID,
		Status:    domain.InvitationPending,
		CreatedAt: time.Now().UTC().Add(-time.Hour),
	}
	f.invitationRepo.On("FindByID", ctx, inv.ID).Return(inv, nil).Once()
	f.invitationRepo.On("UpdateStatus", ctx, inv.ID, domain.InvitationPending, domain.InvitationAccepted).Return(nil).Once()
	f.sessionRepo.On("FindByID", ctx, session.ID).Return(session, nil).Once()
	f.sessionRepo.On("HasUserOverlap", ctx, inviteeID, slot).Return(false, nil).Once()
	f.sessionRepo.On("ReserveSeat", ctx, session.ID, mock.AnythingOfType("*domain.Participant")).
		Return(repository.ErrSeatConflict).Once()
	// The failed join puts the invitation back so the invitee can retry.
	f.invitationRepo.On("UpdateStatus", ctx, inv.ID, domain.InvitationAccepted, domain.InvitationPending).Return(nil).Once()

	result, err := f.svc.Respond(ctx, inv.ID, inviteeID, true)

	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, service.ErrSessionFull))
	f.invitationRepo.AssertExpectations(t)
}

func TestInvitationService_Respond_ConcurrentResponseLoses(t *testing.T) {
	f := newInvitationFixture()
	ctx := context.Background()
	inviteeID := uint(8)

	inv := &domain.Invitation{
		ID:        46,
		SessionID: 11,
		InviterID: 7,
		InviteeID: inviteeID,
		Status:    domain.InvitationPending,
		CreatedAt: time.Now().UTC().Add(-time.Hour),
	}
	f.invitationRepo.On("FindByID", ctx, inv.ID).Return(inv, nil).Once()
	f.invitationRepo.On("UpdateStatus", ctx, inv.ID, domain.InvitationPending, domain.InvitationAccepted).
		Return(repository.ErrStaleUpdate).Once()

	result, err := f.svc.Respond(ctx, inv.ID, inviteeID, true)

	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, service.ErrInvitationNotFound))
}

func TestInvitationService_Invite_SkipsBannedAndSelf(t *testing.T) {
	f := newInvitationFixture()
	ctx := context.Background()
	creatorID := uint(7)
	slot := futureSlot()
	session := privateSession(11, creatorID, slot)

	f.sessionRepo.On("FindByID", ctx, session.ID).Return(session, nil).Once()
	f.profileRepo.On("IsBanned", ctx, uint(8)).Return(false, nil).Once()
	f.profileRepo.On("IsBanned", ctx, uint(9)).Return(true, nil).Once()
	f.invitationRepo.On("Create", ctx, mock.MatchedBy(func(inv *domain.Invitation) bool {
		return inv.InviteeID == 8 && inv.Status == domain.InvitationPending
	})).Return(nil).Once()

	invitations, err := f.svc.Invite(ctx, creatorID, session.ID, []uint{8, 9, creatorID})

	require.NoError(t, err)
	require.Len(t, invitations, 1)
	assert.Equal(t, uint(8), invitations[0].InviteeID)
	f.invitationRepo.AssertExpectations(t)
	// The creator never checks their own ban status.
	f.profileRepo.AssertNotCalled(t, "IsBanned", ctx, creatorID)
}

func TestInvitationService_Invite_OnlyCreatorOfPrivateSession(t *testing.T) {
	f := newInvitationFixture()
	ctx := context.Background()
	slot := futureSlot()
	session := privateSession(11, 7, slot)

	f.sessionRepo.On("FindByID", ctx, session.ID).Return(session, nil).Once()

	_, err := f.svc.Invite(ctx, 999, session.ID, []uint{8})

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrSessionNotFound))
	f.invitationRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestInvitationService_ListPending_FiltersDerivedExpiry(t *testing.T) {
	f := newInvitationFixture()
	ctx := context.Background()
	inviteeID := uint(8)

	now := time.Now().UTC()
	fresh := domain.Invitation{ID: 1, InviteeID: inviteeID, Status: domain.InvitationPending, CreatedAt: now.Add(-time.Hour)}
	stale := domain.Invitation{ID: 2, InviteeID: inviteeID, Status: domain.InvitationPending, CreatedAt: now.Add(-25 * time.Hour)}
	f.invitationRepo.On("FindPendingForInvitee", ctx, inviteeID).Return([]domain.Invitation{fresh, stale}, nil).Once()

	invitations, err := f.svc.ListPending(ctx, inviteeID)

	require.NoError(t, err)
	require.Len(t, invitations, 1)
	assert.Equal(t, fresh.ID, invitations[0].ID)
}
