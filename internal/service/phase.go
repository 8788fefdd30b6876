package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ytchou/focus-squad-sub000/internal/domain"
	"github.com/ytchou/focus-squad-sub000/internal/repository"
	"github.com/ytchou/focus-squad-sub000/internal/scheduler"
	"github.com/ytchou/focus-squad-sub000/internal/tasks"
)

// phaseSweepBatchSize bounds memory when many tables are active at once.
const phaseSweepBatchSize = 50

// PhaseService is the phase progressor: a periodic sweep that reconciles
// every non-ended session's stored phase with the phase derived from
// wall-clock time, and fires the end-of-session side effects exactly when
// a session crosses into ENDED.
type PhaseService struct {
	sessionRepo     repository.SessionRepository
	participantRepo repository.ParticipantRepository
	profileRepo     repository.ProfileRepository
	ledger          repository.CreditLedger
	sched           scheduler.Scheduler
	now             func() time.Time
}

// NewPhaseService creates a PhaseService instance.
func NewPhaseService(
	sessionRepo repository.SessionRepository,
	participantRepo repository.ParticipantRepository,
	profileRepo repository.ProfileRepository,
	ledger repository.CreditLedger,
	sched scheduler.Scheduler,
) *PhaseService {
	if sessionRepo == nil || participantRepo == nil || profileRepo == nil {
		panic("repositories cannot be nil for PhaseService")
	}
	if ledger == nil {
		panic("CreditLedger cannot be nil for PhaseService")
	}
	if sched == nil {
		panic("Scheduler cannot be nil for PhaseService")
	}
	return &PhaseService{
		sessionRepo:     sessionRepo,
		participantRepo: participantRepo,
		profileRepo:     profileRepo,
		ledger:          ledger,
		sched:           sched,
		now:             time.Now,
	}
}

// AdvanceAll sweeps every non-ended session in id-ordered batches. A
// failure on one session is logged and skipped; it never halts the batch.
func (p *PhaseService) AdvanceAll(ctx context.Context) error {
	now := p.now().UTC()
	var afterID uint
	advanced, failed := 0, 0

	for {
		batch, err := p.sessionRepo.FindActiveBatch(ctx, afterID, phaseSweepBatchSize)
		if err != nil {
			logrus.WithError(err).Error("Phase sweep: batch fetch failed")
			return ErrInternalServer
		}
		if len(batch) == 0 {
			break
		}
		for i := range batch {
			session := &batch[i]
			afterID = session.ID
			moved, err := p.advanceOne(ctx, session, now)
			if err != nil {
				failed++
				logrus.WithFields(logrus.Fields{
					"session_id":     session.ID,
					"stored_phase":   session.CurrentPhase,
					"expected_phase": domain.PhaseAt(session.StartTime, now),
				}).WithError(err).Error("Phase sweep: session advance failed, continuing")
				continue
			}
			if moved {
				advanced++
			}
		}
		if len(batch) < phaseSweepBatchSize {
			break
		}
	}

	if advanced > 0 || failed > 0 {
		logrus.WithFields(logrus.Fields{"advanced": advanced, "failed": failed}).Info("Phase sweep completed")
	}
	return nil
}

// advanceOne reconciles a single session. Re-running it on an already
// consistent (or already ended) session is a no-op.
func (p *PhaseService) advanceOne(ctx context.Context, session *domain.Session, now time.Time) (bool, error) {
	expected := domain.PhaseAt(session.StartTime, now)
	if expected == session.CurrentPhase {
		return false, nil
	}

	// Keyed on the phase this sweep observed: a slower sweep loses the
	// write instead of regressing a row another sweep already moved.
	err := p.sessionRepo.AdvancePhase(ctx, session.ID, session.CurrentPhase, expected, now)
	if err != nil {
		if errors.Is(err, repository.ErrStaleUpdate) {
			// Another sweep got there first.
			return false, nil
		}
		return false, err
	}

	logrus.WithFields(logrus.Fields{
		"session_id": session.ID,
		"from":       session.CurrentPhase,
		"to":         expected,
	}).Info("Session phase advanced")

	if expected.Terminal() {
		p.onSessionEnded(ctx, session, now)
	}
	return true, nil
}

// onSessionEnded schedules the delayed room teardown and runs the
// post-session collaborators once per completed human participant.
// Collaborator failures are logged per participant; the session's logical
// lifecycle does not depend on them.
func (p *PhaseService) onSessionEnded(ctx context.Context, session *domain.Session, now time.Time) {
	logCtx := logrus.WithField("session_id", session.ID)

	payload, err := tasks.NewRoomCleanupPayload(session.ID, session.RoomName)
	if err != nil {
		logCtx.WithError(err).Error("Session end: failed to encode cleanup payload")
	} else if err := p.sched.RunAt(ctx, tasks.TypeRoomCleanup, payload, now.Add(RoomCleanupDelay)); err != nil {
		logCtx.WithError(err).Error("Session end: failed to schedule room cleanup")
	}

	humans, err := p.participantRepo.FindHumansBySession(ctx, session.ID)
	if err != nil {
		logCtx.WithError(err).Error("Session end: failed to load human participants")
		return
	}

	for i := range humans {
		participant := &humans[i]
		// Completed means the participant still held their seat at the end.
		if !participant.Active() || participant.UserID == nil {
			continue
		}
		userID := *participant.UserID
		userCtx := logCtx.WithField("user_id", userID)

		minutes := int(session.EndTime.Sub(participant.JoinedAt) / time.Minute)
		if minutes < 0 {
			minutes = 0
		}
		if err := p.participantRepo.AccrueActiveMinutes(ctx, participant.ID, minutes); err != nil {
			userCtx.WithError(err).Warn("Session end: failed to accrue active minutes")
		}
		if err := p.profileRepo.IncrementCompletionStats(ctx, userID, minutes); err != nil {
			userCtx.WithError(err).Error("Session end: stats increment failed")
		}
		if err := p.profileRepo.IncrementStreak(ctx, userID, now); err != nil {
			userCtx.WithError(err).Error("Session end: streak increment failed")
		}
		referrer, err := p.profileRepo.FindReferrer(ctx, userID)
		if err != nil {
			if !errors.Is(err, repository.ErrProfileNotFound) {
				userCtx.WithError(err).Error("Session end: referrer lookup failed")
			}
			continue
		}
		if referrer != nil {
			if err := p.ledger.Credit(ctx, *referrer, 1, "referral_bonus"); err != nil {
				userCtx.WithField("referrer_id", *referrer).WithError(err).Error("Session end: referral bonus failed")
			}
		}
	}
}
