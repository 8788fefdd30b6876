package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ytchou/focus-squad-sub000/internal/domain"
	"github.com/ytchou/focus-squad-sub000/internal/repository"
)

// PrivateSessionRequest describes a private table created from a recurring
// schedule (or ad hoc) together with its initial invitees.
type PrivateSessionRequest struct {
	StartTime           time.Time
	Mode                domain.SessionMode
	Topic               string
	Language            string
	MaxSeats            int
	RecurringScheduleID *uint
	InviteeIDs          []uint
}

// InvitationService manages the invitation lifecycle of private tables.
// "Expired" is derived from age at response time, never stored: an aged
// row that is still pending in storage is rejected as expired.
type InvitationService struct {
	invitationRepo repository.InvitationRepository
	sessionRepo    repository.SessionRepository
	profileRepo    repository.ProfileRepository
	match          *MatchService
	now            func() time.Time
}

// NewInvitationService creates an InvitationService instance.
func NewInvitationService(
	invitationRepo repository.InvitationRepository,
	sessionRepo repository.SessionRepository,
	profileRepo repository.ProfileRepository,
	match *MatchService,
) *InvitationService {
	if invitationRepo == nil || sessionRepo == nil || profileRepo == nil {
		panic("repositories cannot be nil for InvitationService")
	}
	if match == nil {
		panic("MatchService cannot be nil for InvitationService")
	}
	return &InvitationService{
		invitationRepo: invitationRepo,
		sessionRepo:    sessionRepo,
		profileRepo:    profileRepo,
		match:          match,
		now:            time.Now,
	}
}

// CreatePrivateSession creates an invitation-only table, seats the creator,
// schedules its lifecycle jobs, and invites the requested users.
func (s *InvitationService) CreatePrivateSession(ctx context.Context, creatorID uint, req PrivateSessionRequest) (*MatchResult, []domain.Invitation, error) {
	now := s.now().UTC()
	logCtx := logrus.WithFields(logrus.Fields{"creator_id": creatorID, "start_time": req.StartTime.Format(time.RFC3339)})

	maxSeats := req.MaxSeats
	if maxSeats < domain.MinSeats || maxSeats > domain.MaxSeats {
		maxSeats = domain.MaxSeats
	}
	mode := req.Mode
	if mode == "" {
		mode = domain.ModeForcedAudio
	}
	language := req.Language
	if language == "" {
		language = "en"
	}

	session := &domain.Session{
		StartTime:           req.StartTime.UTC(),
		EndTime:             req.StartTime.UTC().Add(domain.SessionDuration),
		Mode:                mode,
		Topic:               req.Topic,
		Language:            language,
		CurrentPhase:        domain.PhaseSetup,
		PhaseStartedAt:      now,
		IsPrivate:           true,
		MaxSeats:            maxSeats,
		CreatedBy:           creatorID,
		RecurringScheduleID: req.RecurringScheduleID,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		logCtx.WithError(err).Error("CreatePrivateSession: session insert failed")
		return nil, nil, ErrInternalServer
	}
	logCtx = logCtx.WithField("session_id", session.ID)

	if err := s.match.scheduleLifecycleJobs(ctx, session, now); err != nil {
		logCtx.WithError(err).Error("CreatePrivateSession: failed to schedule lifecycle jobs")
	}

	result, err := s.match.joinSession(ctx, creatorID, session, now)
	if err != nil {
		return nil, nil, err
	}

	invitations, err := s.Invite(ctx, creatorID, session.ID, req.InviteeIDs)
	if err != nil {
		return nil, nil, err
	}
	logCtx.WithField("invitations", len(invitations)).Info("Private session created")
	return result, invitations, nil
}

// Invite creates pending invitations to a private session, skipping
// currently-banned invitees. Only the session's creator may invite.
func (s *InvitationService) Invite(ctx context.Context, inviterID, sessionID uint, inviteeIDs []uint) ([]domain.Invitation, error) {
	logCtx := logrus.WithFields(logrus.Fields{"inviter_id": inviterID, "session_id": sessionID})

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, ErrInternalServer
	}
	if !session.IsPrivate || session.CreatedBy != inviterID {
		return nil, ErrSessionNotFound
	}
	if session.CurrentPhase.Terminal() {
		return nil, ErrSessionPhase
	}

	invitations := make([]domain.Invitation, 0, len(inviteeIDs))
	for _, inviteeID := range inviteeIDs {
		if inviteeID == inviterID {
			continue
		}
		banned, err := s.profileRepo.IsBanned(ctx, inviteeID)
		if err != nil {
			logCtx.WithField("invitee_id", inviteeID).WithError(err).Error("Invite: banned check failed, skipping invitee")
			continue
		}
		if banned {
			logCtx.WithField("invitee_id", inviteeID).Warn("Invite: invitee is banned, skipping")
			continue
		}
		inv := domain.Invitation{
			SessionID: sessionID,
			InviterID: inviterID,
			InviteeID: inviteeID,
			Status:    domain.InvitationPending,
		}
		if err := s.invitationRepo.Create(ctx, &inv); err != nil {
			logCtx.WithField("invitee_id", inviteeID).WithError(err).Error("Invite: invitation insert failed, skipping")
			continue
		}
		invitations = append(invitations, inv)
	}
	return invitations, nil
}

// Respond accepts or declines an invitation. Only the invitee may respond;
// non-pending rows and rows older than the expiry window are rejected.
// Accepting reserves a seat through the same atomic join path as quick
// match; a failed join reverts the invitation to pending so the invitee
// can retry.
func (s *InvitationService) Respond(ctx context.Context, invitationID, userID uint, accept bool) (*MatchResult, error) {
	now := s.now().UTC()
	logCtx := logrus.WithFields(logrus.Fields{"invitation_id": invitationID, "user_id": userID, "accept": accept})

	inv, err := s.invitationRepo.FindByID(ctx, invitationID)
	if err != nil {
		if errors.Is(err, repository.ErrInvitationNotFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, ErrInternalServer
	}
	if inv.InviteeID != userID {
		logCtx.Warn("Respond: responder is not the invitee")
		return nil, ErrInvitationNotFound
	}
	if inv.Status != domain.InvitationPending {
		return nil, ErrInvitationNotFound
	}
	if inv.Expired(now) {
		logCtx.Info("Respond: invitation aged past the expiry window")
		return nil, ErrInvitationExpired
	}

	target := domain.InvitationAccepted
	if !accept {
		target = domain.InvitationDeclined
	}
	if err := s.invitationRepo.UpdateStatus(ctx, invitationID, domain.InvitationPending, target); err != nil {
		if errors.Is(err, repository.ErrStaleUpdate) {
			// A concurrent response won.
			return nil, ErrInvitationNotFound
		}
		logCtx.WithError(err).Error("Respond: status update failed")
		return nil, ErrInternalServer
	}

	if !accept {
		logCtx.Info("Invitation declined")
		return nil, nil
	}

	result, err := s.match.JoinSession(ctx, userID, inv.SessionID)
	if err != nil {
		if revertErr := s.invitationRepo.UpdateStatus(ctx, invitationID, domain.InvitationAccepted, domain.InvitationPending); revertErr != nil {
			logCtx.WithError(revertErr).Error("Respond: failed to revert invitation after join failure")
		}
		return nil, err
	}
	logCtx.WithField("session_id", inv.SessionID).Info("Invitation accepted")
	return result, nil
}

// ListPending returns the user's pending invitations with derived expiry
// applied, newest first.
func (s *InvitationService) ListPending(ctx context.Context, userID uint) ([]domain.Invitation, error) {
	now := s.now().UTC()
	invitations, err := s.invitationRepo.FindPendingForInvitee(ctx, userID)
	if err != nil {
		logrus.WithField("user_id", userID).WithError(err).Error("ListPending: lookup failed")
		return nil, ErrInternalServer
	}
	fresh := invitations[:0]
	for _, inv := range invitations {
		if !inv.Expired(now) {
			fresh = append(fresh, inv)
		}
	}
	return fresh, nil
}
