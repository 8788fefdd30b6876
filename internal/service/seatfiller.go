package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ytchou/focus-squad-sub000/internal/domain"
	"github.com/ytchou/focus-squad-sub000/internal/repository"
)

// SeatFillerService fills unoccupied seats with synthetic companion
// participants at session start, so nobody works at an empty table.
type SeatFillerService struct {
	sessionRepo     repository.SessionRepository
	participantRepo repository.ParticipantRepository
}

// NewSeatFillerService creates a SeatFillerService instance.
func NewSeatFillerService(sessionRepo repository.SessionRepository, participantRepo repository.ParticipantRepository) *SeatFillerService {
	if sessionRepo == nil {
		panic("SessionRepository cannot be nil for SeatFillerService")
	}
	if participantRepo == nil {
		panic("ParticipantRepository cannot be nil for SeatFillerService")
	}
	return &SeatFillerService{sessionRepo: sessionRepo, participantRepo: participantRepo}
}

// FillEmptySeats tops the session up with synthetic participants drawn
// from the companion roster, never repeating a profile within one session.
// Idempotent: a full session (or a second invocation) is a no-op, and a
// lost race against a late human joiner simply stops the fill.
func (s *SeatFillerService) FillEmptySeats(ctx context.Context, sessionID uint) error {
	logCtx := logrus.WithField("session_id", sessionID)

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return ErrSessionNotFound
		}
		logCtx.WithError(err).Error("FillEmptySeats: session lookup failed")
		return ErrInternalServer
	}
	if session.CurrentPhase.Terminal() {
		logCtx.Debug("FillEmptySeats: session already ended, skipping")
		return nil
	}

	active, err := s.participantRepo.FindActiveBySession(ctx, sessionID)
	if err != nil {
		logCtx.WithError(err).Error("FillEmptySeats: active participant lookup failed")
		return ErrInternalServer
	}
	missing := session.MaxSeats - len(active)
	if missing <= 0 {
		logCtx.Debug("FillEmptySeats: session already full")
		return nil
	}

	used := make(map[string]bool, len(active))
	for _, p := range active {
		if p.CompanionSlug != "" {
			used[p.CompanionSlug] = true
		}
	}

	filled := 0
	for _, profile := range domain.CompanionRoster {
		if filled == missing {
			break
		}
		if used[profile.Slug] {
			continue
		}
		meta, err := profile.MarshalMeta()
		if err != nil {
			logCtx.WithField("companion", profile.Slug).WithError(err).Error("FillEmptySeats: metadata encode failed")
			continue
		}
		participant := &domain.Participant{
			ParticipantType: domain.ParticipantSynthetic,
			Identity:        "companion-" + uuid.NewString(),
			DisplayName:     profile.DisplayName,
			CompanionSlug:   profile.Slug,
			CompanionMeta:   meta,
		}
		if err := s.sessionRepo.ReserveSeat(ctx, sessionID, participant); err != nil {
			if errors.Is(err, repository.ErrSeatConflict) {
				// A human took the seat first; the table is full enough.
				logCtx.Debug("FillEmptySeats: session filled up mid-run")
				return nil
			}
			logCtx.WithField("companion", profile.Slug).WithError(err).Error("FillEmptySeats: seat reservation failed")
			return ErrInternalServer
		}
		filled++
	}

	logCtx.WithField("filled", filled).Info("Synthetic seats filled")
	return nil
}
