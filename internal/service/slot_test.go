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
	"github.com/ytchou/focus-squad-sub000/internal/repository/mocks"
	"github.com/ytchou/focus-squad-sub000/internal/service"
)

func TestSlotService_NextSlots(t *testing.T) {
	sessionRepo := new(mocks.SessionRepository)
	stateRepo := new(mocks.StateRepository)
	svc := service.NewSlotService(sessionRepo, stateRepo)
	ctx := context.Background()
	userID := uint(7)

	stateRepo.On("SlotQueueCount", ctx, mock.AnythingOfType("time.Time")).Return(3, nil).Times(domain.DefaultSlotCount)
	sessionRepo.On("HasUserOverlap", ctx, userID, mock.AnythingOfType("time.Time")).Return(false, nil).Times(domain.DefaultSlotCount)

	slots, err := svc.NextSlots(ctx, userID)

	require.NoError(t, err)
	require.Len(t, slots, domain.DefaultSlotCount)
	now := time.Now().UTC()
	for i, slot := range slots {
		assert.Zero(t, slot.StartTime.Minute()%30, "slot %d not on a half-hour boundary", i)
		assert.GreaterOrEqual(t, slot.StartTime.Sub(now), domain.SlotSkipThreshold-time.Second)
		assert.Equal(t, 3, slot.QueueCount)
		assert.Positive(t, slot.EstimatedCount)
		assert.False(t, slot.HasUserSession)
	}
}

func TestSlotService_NextSlots_AdvisoryLookupsDegrade(t *testing.T) {
	sessionRepo := new(mocks.SessionRepository)
	stateRepo := new(mocks.StateRepository)
	svc := service.NewSlotService(sessionRepo, stateRepo)
	ctx := context.Background()
	userID := uint(7)

	// Redis being down must not fail the listing.
	stateRepo.On("SlotQueueCount", ctx, mock.AnythingOfType("time.Time")).
		Return(0, errors.New("connection refused")).Times(domain.DefaultSlotCount)
	sessionRepo.On("HasUserOverlap", ctx, userID, mock.AnythingOfType("time.Time")).Return(false, nil).Times(domain.DefaultSlotCount)

	slots, err := svc.NextSlots(ctx, userID)

	require.NoError(t, err)
	require.Len(t, slots, domain.DefaultSlotCount)
	for _, slot := range slots {
		assert.Zero(t, slot.QueueCount)
	}
}
