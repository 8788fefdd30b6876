package domain

import (
	"fmt"
	"time"
)

// SessionMode controls the audio contract of a table: forced-audio tables
// grant publish permission on the room token, quiet tables do not.
type SessionMode string

const (
	ModeForcedAudio SessionMode = "forced_audio"
	ModeQuiet       SessionMode = "quiet"
)

// Seat capacity bounds for a table.
const (
	MinSeats = 2
	MaxSeats = 4
)

// Session is one co-working table. Created by the match engine (or the
// invitation scheduler for private tables), its phase is advanced only by
// the periodic sweep, and it is never deleted once ended.
type Session struct {
	ID                  uint        `gorm:"primaryKey"`
	StartTime           time.Time   `gorm:"index;not null"`
	EndTime             time.Time   `gorm:"not null"`
	Mode                SessionMode `gorm:"type:varchar(32);not null"`
	Topic               string      `gorm:"type:varchar(64);index"`
	Language            string      `gorm:"type:varchar(16);index"`
	CurrentPhase        Phase       `gorm:"type:varchar(16);index;not null"`
	PhaseStartedAt      time.Time   `gorm:"not null"`
	RoomName            string      `gorm:"type:varchar(64);uniqueIndex"`
	IsPrivate           bool        `gorm:"index;not null"`
	MaxSeats            int         `gorm:"not null"`
	OccupiedSeats       int         `gorm:"not null"` // guarded by the conditional reserve write
	CreatedBy           uint        `gorm:"index;not null"`
	RecurringScheduleID *uint       `gorm:"index"`
	CreatedAt           time.Time   `gorm:"autoCreateTime"`
	UpdatedAt           time.Time   `gorm:"autoUpdateTime"`
}

// RoomNameFor derives the unique provider room name from a session id.
func RoomNameFor(sessionID uint) string {
	return fmt.Sprintf("table-%d", sessionID)
}

// HasFreeSeat reports whether the cached occupancy leaves room for one more
// participant. The authoritative check is the conditional write in the
// repository; this is only used for candidate filtering.
func (s *Session) HasFreeSeat() bool {
	return s.OccupiedSeats < s.MaxSeats
}

// Overlaps reports whether the session's scheduled window overlaps the
// window starting at otherStart with the standard duration.
func (s *Session) Overlaps(otherStart time.Time) bool {
	otherEnd := otherStart.Add(SessionDuration)
	return s.StartTime.Before(otherEnd) && otherStart.Before(s.EndTime)
}
