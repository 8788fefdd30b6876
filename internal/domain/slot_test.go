package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytchou/focus-squad-sub000/internal/domain"
)

func nextSlots(now time.Time) []time.Time {
	return domain.NextSlotTimes(now, domain.DefaultSlotCount, domain.SlotInterval, domain.SlotSkipThreshold)
}

func TestNextSlotTimes_MidInterval(t *testing.T) {
	now := time.Date(2025, 6, 2, 14, 12, 0, 0, time.UTC)
	slots := nextSlots(now)

	require.Len(t, slots, domain.DefaultSlotCount)
	assert.Equal(t, time.Date(2025, 6, 2, 14, 30, 0, 0, time.UTC), slots[0])
	for i, s := range slots {
		assert.Zero(t, s.Minute()%30, "slot %d not aligned to half hour: %s", i, s)
		assert.Zero(t, s.Second())
		assert.GreaterOrEqual(t, s.Sub(now), domain.SlotSkipThreshold)
		if i > 0 {
			assert.Equal(t, domain.SlotInterval, s.Sub(slots[i-1]))
		}
	}
}

func TestNextSlotTimes_SkipsTooCloseBoundary(t *testing.T) {
	// 14:28 is two minutes from 14:30, inside the skip threshold, so the
	// listing starts at 15:00.
	now := time.Date(2025, 6, 2, 14, 28, 0, 0, time.UTC)
	slots := nextSlots(now)

	require.NotEmpty(t, slots)
	assert.Equal(t, time.Date(2025, 6, 2, 15, 0, 0, 0, time.UTC), slots[0])
}

func TestNextSlotTimes_ThresholdEdge(t *testing.T) {
	// Exactly three minutes out is bookable.
	now := time.Date(2025, 6, 2, 14, 27, 0, 0, time.UTC)
	slots := nextSlots(now)

	require.NotEmpty(t, slots)
	assert.Equal(t, time.Date(2025, 6, 2, 14, 30, 0, 0, time.UTC), slots[0])
}

func TestNextSlotTimes_OnBoundary(t *testing.T) {
	// Standing exactly on a boundary: that slot has zero lead time and is
	// excluded.
	now := time.Date(2025, 6, 2, 14, 30, 0, 0, time.UTC)
	slots := nextSlots(now)

	require.NotEmpty(t, slots)
	assert.Equal(t, time.Date(2025, 6, 2, 15, 0, 0, 0, time.UTC), slots[0])
}

func TestNextSlotTimes_CrossesMidnight(t *testing.T) {
	now := time.Date(2025, 6, 2, 23, 10, 0, 0, time.UTC)
	slots := nextSlots(now)

	require.Len(t, slots, 6)
	assert.Equal(t, time.Date(2025, 6, 2, 23, 30, 0, 0, time.UTC), slots[0])
	assert.Equal(t, time.Date(2025, 6, 3, 2, 0, 0, 0, time.UTC), slots[5])
}

func TestEstimateSignups_Deterministic(t *testing.T) {
	slot := time.Date(2025, 6, 2, 19, 0, 0, 0, time.UTC) // Monday evening
	first := domain.EstimateSignups(slot)
	assert.Equal(t, first, domain.EstimateSignups(slot))
	assert.Positive(t, first)

	// Weekend traffic estimates below the weekday evening peak.
	weekend := time.Date(2025, 6, 7, 19, 0, 0, 0, time.UTC) // Saturday
	assert.Less(t, domain.EstimateSignups(weekend), first)
}
