package setup

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/ytchou/focus-squad-sub000/internal/domain"
)

// MigrateDB applies the schema for every model owned by this service.
func MigrateDB(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("setup: cannot migrate with nil DB connection")
	}
	err := db.AutoMigrate(
		&domain.Session{},
		&domain.Participant{},
		&domain.Invitation{},
		&domain.CreditAccount{},
		&domain.CreditEntry{},
		&domain.UserProfile{},
	)
	if err != nil {
		return fmt.Errorf("setup: auto-migrate tables: %w", err)
	}
	return nil
}
