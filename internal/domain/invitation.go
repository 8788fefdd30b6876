package domain

import "time"

// InvitationStatus is the stored lifecycle state of an invitation.
// "Expired" is deliberately not a stored status: it is derived from the
// invitation's age at read/response time, so an aged row that is still
// pending in storage behaves as expired regardless.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationDeclined InvitationStatus = "declined"
)

// InvitationTTL is the window after which a pending invitation can no
// longer be acted upon.
const InvitationTTL = 24 * time.Hour

// Invitation invites a user to a private table.
type Invitation struct {
	ID        uint             `gorm:"primaryKey"`
	SessionID uint             `gorm:"index;not null"`
	InviterID uint             `gorm:"index;not null"`
	InviteeID uint             `gorm:"index;not null"`
	Status    InvitationStatus `gorm:"type:varchar(16);not null"`
	CreatedAt time.Time        `gorm:"autoCreateTime"`
	UpdatedAt time.Time        `gorm:"autoUpdateTime"`
}

// Expired reports whether the invitation has aged past the response window.
func (i *Invitation) Expired(now time.Time) bool {
	return now.Sub(i.CreatedAt) > InvitationTTL
}
