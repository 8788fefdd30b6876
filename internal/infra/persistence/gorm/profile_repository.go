package gormpersistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ytchou/focus-squad-sub000/internal/domain"
	"github.com/ytchou/focus-squad-sub000/internal/repository"
)

// GormProfileRepository is the GORM implementation of ProfileRepository.
type GormProfileRepository struct {
	db *gorm.DB
}

// NewGormProfileRepository creates a GormProfileRepository instance.
func NewGormProfileRepository(db *gorm.DB) *GormProfileRepository {
	if db == nil {
		panic("database connection cannot be nil for GormProfileRepository")
	}
	return &GormProfileRepository{db: db}
}

func (r *GormProfileRepository) IsBanned(ctx context.Context, userID uint) (bool, error) {
	var profile domain.UserProfile
	err := r.db.WithContext(ctx).Select("banned").First(&profile, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("gorm: check banned flag of user %d: %w", userID, err)
	}
	return profile.Banned, nil
}

// IncrementCompletionStats upserts the profile row and bumps the
// completion counters.
func (r *GormProfileRepository) IncrementCompletionStats(ctx context.Context, userID uint, focusMinutes int) error {
	profile := domain.UserProfile{
		UserID:            userID,
		FocusMinutes:      focusMinutes,
		SessionsCompleted: 1,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"focus_minutes":      gorm.Expr("focus_minutes + ?", focusMinutes),
			"sessions_completed": gorm.Expr("sessions_completed + 1"),
		}),
	}).Create(&profile).Error
	if err != nil {
		return fmt.Errorf("gorm: increment completion stats of user %d: %w", userID, err)
	}
	return nil
}

// IncrementStreak extends the daily streak: same-day completions are
// no-ops, a one-day gap extends, anything longer resets to 1.
func (r *GormProfileRepository) IncrementStreak(ctx context.Context, userID uint, day time.Time) error {
	day = day.Truncate(24 * time.Hour)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var profile domain.UserProfile
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&profile, userID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				profile = domain.UserProfile{UserID: userID, StreakDays: 1, LastStreakDay: &day}
				if err := tx.Create(&profile).Error; err != nil {
					return fmt.Errorf("gorm: create profile for streak of user %d: %w", userID, err)
				}
				return nil
			}
			return fmt.Errorf("gorm: load profile for streak of user %d: %w", userID, err)
		}

		streak := 1
		if profile.LastStreakDay != nil {
			last := profile.LastStreakDay.Truncate(24 * time.Hour)
			switch {
			case last.Equal(day):
				return nil
			case day.Sub(last) == 24*time.Hour:
				streak = profile.StreakDays + 1
			}
		}
		err = tx.Model(&profile).Updates(map[string]interface{}{
			"streak_days":     streak,
			"last_streak_day": day,
		}).Error
		if err != nil {
			return fmt.Errorf("gorm: update streak of user %d: %w", userID, err)
		}
		return nil
	})
}

func (r *GormProfileRepository) FindReferrer(ctx context.Context, userID uint) (*uint, error) {
	var profile domain.UserProfile
	err := r.db.WithContext(ctx).Select("referred_by").First(&profile, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrProfileNotFound
		}
		return nil, fmt.Errorf("gorm: find referrer of user %d: %w", userID, err)
	}
	return profile.ReferredBy, nil
}
