package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ytchou/focus-squad-sub000/internal/repository"
	"github.com/ytchou/focus-squad-sub000/internal/tasks"
)

// Disconnect/reconnect handling. A dropped participant keeps their seat
// for DisconnectGrace; rejoining inside the window reuses the seat and
// bumps disconnect_count. After the window a reap job closes the seat,
// which then becomes available to synthetic backfill only — mid-session
// human joins of a freed seat are deliberately not allowed.

// HandleConnect records an open presence connection for the participant.
func (s *MatchService) HandleConnect(ctx context.Context, sessionID, userID uint) error {
	if _, err := s.participantRepo.FindActiveByUser(ctx, sessionID, userID); err != nil {
		if errors.Is(err, repository.ErrParticipantNotFound) {
			return ErrSessionNotFound
		}
		return ErrInternalServer
	}
	if err := s.stateRepo.MarkPresent(ctx, sessionID, userID); err != nil {
		logrus.WithFields(logrus.Fields{"session_id": sessionID, "user_id": userID}).
			WithError(err).Warn("HandleConnect: failed to mark presence")
	}
	return nil
}

// HandleDisconnect opens the grace window for a dropped participant and
// schedules the seat reap at window expiry. Reaping is conditional on the
// participant still being absent, so a reconnect cancels it naturally.
func (s *MatchService) HandleDisconnect(ctx context.Context, sessionID, userID uint) {
	now := s.now().UTC()
	logCtx := logrus.WithFields(logrus.Fields{"session_id": sessionID, "user_id": userID})

	participant, err := s.participantRepo.FindActiveByUser(ctx, sessionID, userID)
	if err != nil {
		if !errors.Is(err, repository.ErrParticipantNotFound) {
			logCtx.WithError(err).Error("HandleDisconnect: participant lookup failed")
		}
		return
	}

	if err := s.stateRepo.ClearPresent(ctx, sessionID, userID); err != nil {
		logCtx.WithError(err).Warn("HandleDisconnect: failed to clear presence")
	}
	if err := s.stateRepo.MarkDisconnect(ctx, sessionID, userID, DisconnectGrace); err != nil {
		logCtx.WithError(err).Error("HandleDisconnect: failed to open grace window")
	}

	payload, err := tasks.NewSeatReapPayload(sessionID, participant.ID, userID)
	if err != nil {
		logCtx.WithError(err).Error("HandleDisconnect: failed to encode reap payload")
		return
	}
	// A small margin past the window avoids racing a last-second rejoin.
	reapAt := now.Add(DisconnectGrace + 5*time.Second)
	if err := s.sched.RunAt(ctx, tasks.TypeSeatReap, payload, reapAt); err != nil {
		logCtx.WithError(err).Error("HandleDisconnect: failed to schedule seat reap")
	}
	logCtx.Info("Participant disconnected, grace window opened")
}

// Rejoin reuses a disconnected participant's seat. The seat must still be
// active; once reaped it is gone for humans and only synthetic backfill
// may take it.
func (s *MatchService) Rejoin(ctx context.Context, sessionID, userID uint) (*MatchResult, error) {
	now := s.now().UTC()
	logCtx := logrus.WithFields(logrus.Fields{"session_id": sessionID, "user_id": userID})

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

	participant, err := s.participantRepo.FindActiveByUser(ctx, sessionID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrParticipantNotFound) {
			logCtx.Warn("Rejoin: seat already reclaimed")
			return nil, ErrSessionFull
		}
		return nil, ErrInternalServer
	}

	inGrace, err := s.stateRepo.InGraceWindow(ctx, sessionID, userID)
	if err != nil {
		logCtx.WithError(err).Warn("Rejoin: grace window check failed, allowing seat reuse")
		inGrace = true
	}
	if inGrace {
		if err := s.participantRepo.IncrementDisconnect(ctx, participant.ID); err != nil {
			logCtx.WithError(err).Warn("Rejoin: failed to bump disconnect count")
		}
		if err := s.stateRepo.ClearDisconnect(ctx, sessionID, userID); err != nil {
			logCtx.WithError(err).Warn("Rejoin: failed to close grace window")
		}
	}
	if err := s.stateRepo.MarkPresent(ctx, sessionID, userID); err != nil {
		logCtx.WithError(err).Warn("Rejoin: failed to mark presence")
	}

	token, err := s.rooms.IssueToken(session, participant)
	if err != nil {
		return nil, err
	}

	wait := session.StartTime.Sub(now)
	if wait < 0 {
		wait = 0
	}
	logCtx.WithField("seat", participant.SeatNumber).Info("Participant rejoined within grace window")
	return &MatchResult{
		Session:     session,
		Token:       token,
		SeatNumber:  participant.SeatNumber,
		WaitMinutes: int(wait / time.Minute),
		IsImmediate: wait <= immediateThreshold,
	}, nil
}

// ReapSeat closes a disconnected participant's seat after the grace window
// elapsed without a reconnect. A rejoin-then-disconnect opens a fresh
// window, so a reap scheduled by the earlier disconnect defers to it.
// Safe to run more than once.
func (s *MatchService) ReapSeat(ctx context.Context, sessionID, participantID, userID uint) error {
	now := s.now().UTC()
	logCtx := logrus.WithFields(logrus.Fields{"session_id": sessionID, "participant_id": participantID})

	present, err := s.stateRepo.IsPresent(ctx, sessionID, userID)
	if err != nil {
		logCtx.WithError(err).Error("ReapSeat: presence check failed")
		return ErrInternalServer
	}
	if present {
		logCtx.Debug("ReapSeat: participant reconnected, keeping seat")
		return nil
	}

	inGrace, err := s.stateRepo.InGraceWindow(ctx, sessionID, userID)
	if err != nil {
		logCtx.WithError(err).Error("ReapSeat: grace window check failed")
		return ErrInternalServer
	}
	if inGrace {
		logCtx.Debug("ReapSeat: a newer grace window is still open, keeping seat")
		return nil
	}

	if err := s.sessionRepo.ReleaseSeat(ctx, sessionID, participantID, now); err != nil {
		logCtx.WithError(err).Error("ReapSeat: seat release failed")
		return ErrInternalServer
	}
	logCtx.Info("Seat reaped after grace window expiry")
	return nil
}
