package gormpersistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/ytchou/focus-squad-sub000/internal/domain"
	"github.com/ytchou/focus-squad-sub000/internal/repository"
)

// GormCreditLedger is the GORM implementation of the credit collaborator.
// Debits use the same guarded-UPDATE pattern as seat reservation so the
// balance cannot go negative under concurrent spends.
type GormCreditLedger struct {
	db *gorm.DB
}

// NewGormCreditLedger creates a GormCreditLedger instance.
func NewGormCreditLedger(db *gorm.DB) *GormCreditLedger {
	if db == nil {
		panic("database connection cannot be nil for GormCreditLedger")
	}
	return &GormCreditLedger{db: db}
}

func (l *GormCreditLedger) Debit(ctx context.Context, userID uint, amount int, reason string) error {
	if amount <= 0 {
		return fmt.Errorf("gorm: debit amount must be positive, got %d", amount)
	}
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.CreditAccount{}).
			Where("user_id = ? AND balance >= ?", userID, amount).
			UpdateColumn("balance", gorm.Expr("balance - ?", amount))
		if res.Error != nil {
			return fmt.Errorf("gorm: debit %d credits from user %d: %w", amount, userID, res.Error)
		}
		if res.RowsAffected == 0 {
			return repository.ErrInsufficientBalance
		}
		entry := domain.CreditEntry{UserID: userID, Amount: -amount, Reason: reason}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("gorm: record debit entry for user %d: %w", userID, err)
		}
		return nil
	})
}

func (l *GormCreditLedger) Credit(ctx context.Context, userID uint, amount int, reason string) error {
	if amount <= 0 {
		return fmt.Errorf("gorm: credit amount must be positive, got %d", amount)
	}
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.CreditAccount{}).
			Where("user_id = ?", userID).
			UpdateColumn("balance", gorm.Expr("balance + ?", amount))
		if res.Error != nil {
			return fmt.Errorf("gorm: credit %d credits to user %d: %w", amount, userID, res.Error)
		}
		if res.RowsAffected == 0 {
			account := domain.CreditAccount{UserID: userID, Balance: amount}
			if err := tx.Create(&account).Error; err != nil {
				return fmt.Errorf("gorm: create credit account for user %d: %w", userID, err)
			}
		}
		entry := domain.CreditEntry{UserID: userID, Amount: amount, Reason: reason}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("gorm: record credit entry for user %d: %w", userID, err)
		}
		return nil
	})
}
