package domain

import "time"

// UserProfile carries the per-user counters touched by the post-session
// collaborators. Profile CRUD itself lives outside this core; only the
// completion-time increments and the banned flag are consumed here.
type UserProfile struct {
	UserID            uint `gorm:"primaryKey"`
	FocusMinutes      int  `gorm:"not null;default:0"`
	SessionsCompleted int  `gorm:"not null;default:0"`
	StreakDays        int  `gorm:"not null;default:0"`
	LastStreakDay     *time.Time
	ReferredBy        *uint `gorm:"index"`
	Banned            bool  `gorm:"not null;default:false"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}
