package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ytchou/focus-squad-sub000/internal/domain"
	"github.com/ytchou/focus-squad-sub000/internal/repository"
	"github.com/ytchou/focus-squad-sub000/internal/scheduler"
	"github.com/ytchou/focus-squad-sub000/internal/tasks"
)

const (
	// RoomCreationLeadTime is how long before start the room-creation job
	// fires, so the room exists when the first client connects.
	RoomCreationLeadTime = 30 * time.Second
	// RoomCleanupDelay keeps the room alive briefly after ENDED for a
	// graceful client exit.
	RoomCleanupDelay = 5 * time.Minute
	// DisconnectGrace is the window during which a disconnected
	// participant keeps their seat.
	DisconnectGrace = 120 * time.Second
	// joinCost is the credit price of one seat.
	joinCost = 1
	// immediateThreshold is the wait below which a match counts as
	// immediate.
	immediateThreshold = time.Minute
)

// MatchResult is what a successful join hands back to the client.
type MatchResult struct {
	Session     *domain.Session `json:"session"`
	Token       string          `json:"token"`
	SeatNumber  int             `json:"seat_number"`
	WaitMinutes int             `json:"wait_minutes"`
	IsImmediate bool            `json:"is_immediate"`
}

// MatchService is the match engine: it places a user into a time-slotted
// session with an atomically reserved seat, couples the seat to a credit
// debit, and schedules the room-lifecycle jobs around the session.
type MatchService struct {
	sessionRepo     repository.SessionRepository
	participantRepo repository.ParticipantRepository
	stateRepo       repository.StateRepository
	ledger          repository.CreditLedger
	sched           scheduler.Scheduler
	rooms           *RoomService
	now             func() time.Time
}

// NewMatchService creates a MatchService instance.
func NewMatchService(
	sessionRepo repository.SessionRepository,
	participantRepo repository.ParticipantRepository,
	stateRepo repository.StateRepository,
	ledger repository.CreditLedger,
	sched scheduler.Scheduler,
	rooms *RoomService,
) *MatchService {
	if sessionRepo == nil || participantRepo == nil || stateRepo == nil {
		panic("repositories cannot be nil for MatchService")
	}
	if ledger == nil {
		panic("CreditLedger cannot be nil for MatchService")
	}
	if sched == nil {
		panic("Scheduler cannot be nil for MatchService")
	}
	if rooms == nil {
		panic("RoomService cannot be nil for MatchService")
	}
	return &MatchService{
		sessionRepo:     sessionRepo,
		participantRepo: participantRepo,
		stateRepo:       stateRepo,
		ledger:          ledger,
		sched:           sched,
		rooms:           rooms,
		now:             time.Now,
	}
}

// QuickMatch places the user into the best open public session at the
// target slot, creating one when nothing fits. The seat reservation is a
// single conditional write in the store; losing the race for a candidate
// falls through to the next candidate and finally to session creation.
func (s *MatchService) QuickMatch(ctx context.Context, userID uint, filters repository.SessionFilters, targetSlot *time.Time) (*MatchResult, error) {
	now := s.now().UTC()
	logCtx := logrus.WithField("user_id", userID)

	slot := s.resolveSlot(targetSlot, now)
	logCtx = logCtx.WithField("slot", slot.Format(time.RFC3339))

	held, err := s.sessionRepo.HasUserOverlap(ctx, userID, slot)
	if err != nil {
		logCtx.WithError(err).Error("QuickMatch: overlap check failed")
		return nil, ErrInternalServer
	}
	if held {
		logCtx.Warn("QuickMatch: user already seated in an overlapping session")
		return nil, ErrAlreadyInSession
	}

	candidates, err := s.sessionRepo.FindJoinableAtSlot(ctx, slot)
	if err != nil {
		logCtx.WithError(err).Error("QuickMatch: candidate lookup failed")
		return nil, ErrInternalServer
	}

	// Exact filter matches first; any open session only as a fallback for
	// filterless callers.
	ordered := make([]*domain.Session, 0, len(candidates))
	for i := range candidates {
		if filters.Matches(&candidates[i]) {
			ordered = append(ordered, &candidates[i])
		}
	}
	if len(ordered) == 0 && filters.Empty() {
		for i := range candidates {
			ordered = append(ordered, &candidates[i])
		}
	}

	for _, candidate := range ordered {
		result, err := s.joinSession(ctx, userID, candidate, now)
		if err != nil {
			if errors.Is(err, ErrSessionFull) {
				logCtx.WithField("session_id", candidate.ID).Debug("QuickMatch: lost seat race, trying next candidate")
				continue
			}
			return nil, err
		}
		logCtx.WithField("session_id", candidate.ID).Info("QuickMatch: joined existing session")
		return result, nil
	}

	session, err := s.createSession(ctx, userID, filters, slot, now)
	if err != nil {
		return nil, err
	}
	result, err := s.joinSession(ctx, userID, session, now)
	if err != nil {
		logCtx.WithField("session_id", session.ID).WithError(err).Warn("QuickMatch: failed to seat creator in fresh session")
		return nil, err
	}
	logCtx.WithField("session_id", session.ID).Info("QuickMatch: created and joined new session")
	return result, nil
}

// JoinSession seats the user in a specific session (invitation accepts,
// rejoin of a known table). The same reservation/debit coupling as
// QuickMatch applies.
func (s *MatchService) JoinSession(ctx context.Context, userID, sessionID uint) (*MatchResult, error) {
	now := s.now().UTC()
	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, ErrInternalServer
	}
	if session.CurrentPhase.Terminal() {
		return nil, ErrSessionPhase
	}
	held, err := s.sessionRepo.HasUserOverlap(ctx, userID, session.StartTime)
	if err != nil {
		return nil, ErrInternalServer
	}
	if held {
		return nil, ErrAlreadyInSession
	}
	return s.joinSession(ctx, userID, session, now)
}

// joinSession reserves a seat, debits the credit, and mints the token.
// Seat and debit are coupled: a debit failure releases the seat, a token
// failure releases the seat and refunds the debit — the caller never sees
// a partially-applied state.
func (s *MatchService) joinSession(ctx context.Context, userID uint, session *domain.Session, now time.Time) (*MatchResult, error) {
	logCtx := logrus.WithFields(logrus.Fields{"user_id": userID, "session_id": session.ID})

	participant := &domain.Participant{
		UserID:          &userID,
		ParticipantType: domain.ParticipantHuman,
		Identity:        fmt.Sprintf("user-%d", userID),
		DisplayName:     fmt.Sprintf("user-%d", userID),
		JoinedAt:        now,
	}
	if err := s.sessionRepo.ReserveSeat(ctx, session.ID, participant); err != nil {
		switch {
		case errors.Is(err, repository.ErrSeatConflict):
			return nil, ErrSessionFull
		case errors.Is(err, repository.ErrSessionNotFound):
			return nil, ErrSessionNotFound
		default:
			logCtx.WithError(err).Error("joinSession: seat reservation failed")
			return nil, ErrInternalServer
		}
	}
	logCtx = logCtx.WithField("seat", participant.SeatNumber)

	if err := s.ledger.Debit(ctx, userID, joinCost, "session_join"); err != nil {
		s.releaseQuietly(ctx, session.ID, participant.ID, now, logCtx)
		if errors.Is(err, repository.ErrInsufficientBalance) {
			logCtx.Warn("joinSession: insufficient credits, seat rolled back")
			return nil, ErrInsufficientCredits
		}
		logCtx.WithError(err).Error("joinSession: credit debit failed, seat rolled back")
		return nil, ErrInternalServer
	}

	token, err := s.rooms.IssueToken(session, participant)
	if err != nil {
		s.releaseQuietly(ctx, session.ID, participant.ID, now, logCtx)
		if refundErr := s.ledger.Credit(ctx, userID, joinCost, "session_join_rollback"); refundErr != nil {
			logCtx.WithError(refundErr).Error("joinSession: rollback refund failed")
		}
		return nil, err
	}

	if !session.IsPrivate {
		if _, err := s.stateRepo.IncrSlotQueue(ctx, session.StartTime); err != nil {
			// Counter is advisory only; the seat stays.
			logCtx.WithError(err).Warn("joinSession: slot queue increment failed")
		}
	}

	wait := session.StartTime.Sub(now)
	if wait < 0 {
		wait = 0
	}
	return &MatchResult{
		Session:     session,
		Token:       token,
		SeatNumber:  participant.SeatNumber,
		WaitMinutes: int(wait / time.Minute),
		IsImmediate: wait <= immediateThreshold,
	}, nil
}

// createSession builds a fresh public session at the slot and schedules
// its room creation (T-30s) and synthetic seat fill (T+0).
func (s *MatchService) createSession(ctx context.Context, userID uint, filters repository.SessionFilters, slot time.Time, now time.Time) (*domain.Session, error) {
	logCtx := logrus.WithFields(logrus.Fields{"user_id": userID, "slot": slot.Format(time.RFC3339)})

	mode := filters.Mode
	if mode == "" {
		mode = domain.ModeForcedAudio
	}
	language := filters.Language
	if language == "" {
		language = "en"
	}
	session := &domain.Session{
		StartTime:      slot,
		EndTime:        slot.Add(domain.SessionDuration),
		Mode:           mode,
		Topic:          filters.Topic,
		Language:       language,
		CurrentPhase:   domain.PhaseSetup,
		PhaseStartedAt: now,
		IsPrivate:      false,
		MaxSeats:       domain.MaxSeats,
		CreatedBy:      userID,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		logCtx.WithError(err).Error("createSession: session insert failed")
		return nil, ErrInternalServer
	}
	logCtx = logCtx.WithField("session_id", session.ID)

	if err := s.scheduleLifecycleJobs(ctx, session, now); err != nil {
		// Jobs are retried by the worker; a scheduling failure here is an
		// operational signal, not a user-facing one.
		logCtx.WithError(err).Error("createSession: failed to schedule lifecycle jobs")
	}
	return session, nil
}

// scheduleLifecycleJobs enqueues the room-creation and seat-fill one-shots
// around the session's start time.
func (s *MatchService) scheduleLifecycleJobs(ctx context.Context, session *domain.Session, now time.Time) error {
	createAt := session.StartTime.Add(-RoomCreationLeadTime)
	if createAt.Before(now) {
		createAt = now
	}
	createPayload, err := tasks.NewRoomCreatePayload(session.ID, session.RoomName)
	if err != nil {
		return fmt.Errorf("encode room create payload: %w", err)
	}
	if err := s.sched.RunAt(ctx, tasks.TypeRoomCreate, createPayload, createAt); err != nil {
		return err
	}

	fillPayload, err := tasks.NewSeatFillPayload(session.ID)
	if err != nil {
		return fmt.Errorf("encode seat fill payload: %w", err)
	}
	return s.sched.RunAt(ctx, tasks.TypeSeatFill, fillPayload, session.StartTime)
}

// Leave soft-closes the user's seat. Leaving before start refunds the
// credit and releases the slot signup.
func (s *MatchService) Leave(ctx context.Context, sessionID, userID uint, reason string) error {
	now := s.now().UTC()
	logCtx := logrus.WithFields(logrus.Fields{"session_id": sessionID, "user_id": userID, "reason": reason})

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return ErrSessionNotFound
		}
		return ErrInternalServer
	}
	participant, err := s.participantRepo.FindActiveByUser(ctx, sessionID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrParticipantNotFound) {
			return ErrSessionNotFound
		}
		return ErrInternalServer
	}

	if err := s.sessionRepo.ReleaseSeat(ctx, sessionID, participant.ID, now); err != nil {
		logCtx.WithError(err).Error("Leave: seat release failed")
		return ErrInternalServer
	}

	if now.Before(session.StartTime) {
		if err := s.ledger.Credit(ctx, userID, joinCost, "session_leave_refund"); err != nil {
			logCtx.WithError(err).Error("Leave: pre-start refund failed")
		}
		if !session.IsPrivate {
			if err := s.stateRepo.DecrSlotQueue(ctx, session.StartTime); err != nil {
				logCtx.WithError(err).Warn("Leave: slot queue decrement failed")
			}
		}
	} else {
		minutes := int(now.Sub(participant.JoinedAt) / time.Minute)
		if err := s.participantRepo.AccrueActiveMinutes(ctx, participant.ID, minutes); err != nil {
			logCtx.WithError(err).Warn("Leave: failed to accrue active minutes")
		}
	}

	logCtx.Info("Participant left session")
	return nil
}

// Cancel is the pre-start full-refund variant of Leave. Once the session
// has started it is rejected with ErrSessionPhase.
func (s *MatchService) Cancel(ctx context.Context, sessionID, userID uint) error {
	now := s.now().UTC()
	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return ErrSessionNotFound
		}
		return ErrInternalServer
	}
	if !now.Before(session.StartTime) {
		return ErrSessionPhase
	}
	return s.Leave(ctx, sessionID, userID, "cancelled")
}

// resolveSlot validates the requested slot or falls back to the next
// bookable one.
func (s *MatchService) resolveSlot(target *time.Time, now time.Time) time.Time {
	if target != nil {
		return target.UTC()
	}
	return domain.NextSlotTimes(now, 1, domain.SlotInterval, domain.SlotSkipThreshold)[0]
}

// releaseQuietly rolls a reservation back during join failure handling.
func (s *MatchService) releaseQuietly(ctx context.Context, sessionID, participantID uint, at time.Time, logCtx *logrus.Entry) {
	if err := s.sessionRepo.ReleaseSeat(ctx, sessionID, participantID, at); err != nil {
		logCtx.WithError(err).Error("failed to roll back seat reservation")
	}
}
