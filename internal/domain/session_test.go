package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ytchou/focus-squad-sub000/internal/domain"
)

func TestRoomNameFor(t *testing.T) {
	assert.Equal(t, "table-42", domain.RoomNameFor(42))
}

func TestSession_HasFreeSeat(t *testing.T) {
	s := domain.Session{MaxSeats: 4, OccupiedSeats: 3}
	assert.True(t, s.HasFreeSeat())
	s.OccupiedSeats = 4
	assert.False(t, s.HasFreeSeat())
}

func TestSession_Overlaps(t *testing.T) {
	start := time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC)
	s := domain.Session{StartTime: start, EndTime: start.Add(domain.SessionDuration)}

	assert.True(t, s.Overlaps(start), "same slot overlaps")
	assert.True(t, s.Overlaps(start.Add(30*time.Minute)), "next slot starts inside the session")
	assert.True(t, s.Overlaps(start.Add(-30*time.Minute)), "previous slot runs into the session")
	assert.False(t, s.Overlaps(start.Add(domain.SessionDuration)), "window starting at end does not overlap")
	assert.False(t, s.Overlaps(start.Add(-domain.SessionDuration)), "window ending at start does not overlap")
	assert.False(t, s.Overlaps(start.Add(2*time.Hour)))
}

func TestInvitation_Expired(t *testing.T) {
	created := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	inv := domain.Invitation{CreatedAt: created}

	assert.False(t, inv.Expired(created.Add(23*time.Hour)))
	assert.False(t, inv.Expired(created.Add(domain.InvitationTTL)), "exactly at the window edge is still valid")
	assert.True(t, inv.Expired(created.Add(25*time.Hour)))
}

func TestCompanionRoster_UniqueSlugs(t *testing.T) {
	seen := make(map[string]bool)
	for _, p := range domain.CompanionRoster {
		assert.False(t, seen[p.Slug], "duplicate roster slug %s", p.Slug)
		seen[p.Slug] = true
		assert.Equal(t, domain.CompanionMetaVersion, p.Meta.Version)
	}
}
