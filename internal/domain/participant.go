package domain

import (
	"time"

	"gorm.io/datatypes"
)

// ParticipantType is the discriminant of the participant variant: human
// participants carry a UserID and accrue stats, synthetic ones carry a
// companion profile and never touch the downstream collaborators.
type ParticipantType string

const (
	ParticipantHuman     ParticipantType = "human"
	ParticipantSynthetic ParticipantType = "synthetic"
)

// Participant is one occupied seat of a session. Rows are soft-closed via
// LeftAt and never hard-deleted.
type Participant struct {
	ID              uint            `gorm:"primaryKey"`
	SessionID       uint            `gorm:"index:idx_session_seat,priority:1;not null"`
	UserID          *uint           `gorm:"index"` // nil for synthetic participants
	ParticipantType ParticipantType `gorm:"type:varchar(16);not null"`
	SeatNumber      int             `gorm:"index:idx_session_seat,priority:2;not null"`
	Identity        string          `gorm:"type:varchar(64);not null"` // room token identity
	DisplayName     string          `gorm:"type:varchar(64);not null"`
	CompanionSlug   string          `gorm:"type:varchar(32)"` // set for synthetic only
	CompanionMeta   datatypes.JSON  // versioned CompanionMeta snapshot, synthetic only

	JoinedAt           time.Time `gorm:"not null"`
	LeftAt             *time.Time
	DisconnectCount    int `gorm:"not null;default:0"`
	TotalActiveMinutes int `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// Active reports whether the participant still holds its seat.
func (p *Participant) Active() bool {
	return p.LeftAt == nil
}

// Human reports whether stats accrual applies to this participant.
func (p *Participant) Human() bool {
	return p.ParticipantType == ParticipantHuman
}
