package domain

import "time"

// CreditAccount holds a user's spendable balance. Debits are applied with
// a conditional decrement so the balance can never go negative under
// concurrent spends.
type CreditAccount struct {
	UserID    uint      `gorm:"primaryKey"`
	Balance   int       `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// CreditEntry is the append-only ledger line behind every balance change.
type CreditEntry struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"index;not null"`
	Amount    int       `gorm:"not null"` // negative for debits
	Reason    string    `gorm:"type:varchar(64);not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}
