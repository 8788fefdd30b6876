package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ytchou/focus-squad-sub000/internal/domain"
	"github.com/ytchou/focus-squad-sub000/internal/repository"
)

// SlotService lists the next bookable slots, merging the pure boundary
// calculation with live signup counters and the demand heuristic.
type SlotService struct {
	sessionRepo repository.SessionRepository
	stateRepo   repository.StateRepository
	now         func() time.Time
}

// NewSlotService creates a SlotService instance.
func NewSlotService(sessionRepo repository.SessionRepository, stateRepo repository.StateRepository) *SlotService {
	if sessionRepo == nil {
		panic("SessionRepository cannot be nil for SlotService")
	}
	if stateRepo == nil {
		panic("StateRepository cannot be nil for SlotService")
	}
	return &SlotService{sessionRepo: sessionRepo, stateRepo: stateRepo, now: time.Now}
}

// NextSlots returns the next bookable slots for the user. Counter and
// booking lookups are advisory: a failure degrades the listing instead of
// failing it.
func (s *SlotService) NextSlots(ctx context.Context, userID uint) ([]domain.TimeSlot, error) {
	now := s.now().UTC()
	times := domain.NextSlotTimes(now, domain.DefaultSlotCount, domain.SlotInterval, domain.SlotSkipThreshold)

	slots := make([]domain.TimeSlot, 0, len(times))
	for _, t := range times {
		queue, err := s.stateRepo.SlotQueueCount(ctx, t)
		if err != nil {
			logrus.WithField("slot", t.Format(time.RFC3339)).WithError(err).Warn("NextSlots: queue count lookup failed")
			queue = 0
		}
		hasSession, err := s.sessionRepo.HasUserOverlap(ctx, userID, t)
		if err != nil {
			logrus.WithField("slot", t.Format(time.RFC3339)).WithError(err).Warn("NextSlots: booking lookup failed")
			hasSession = false
		}
		slots = append(slots, domain.TimeSlot{
			StartTime:      t,
			QueueCount:     queue,
			EstimatedCount: domain.EstimateSignups(t),
			HasUserSession: hasSession,
		})
	}
	return slots, nil
}
