package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/ytchou/focus-squad-sub000/internal/domain"
	"github.com/ytchou/focus-squad-sub000/internal/repository"
)

// GormParticipantRepository is the GORM implementation of
// ParticipantRepository.
type GormParticipantRepository struct {
	db *gorm.DB
}

// NewGormParticipantRepository creates a GormParticipantRepository instance.
func NewGormParticipantRepository(db *gorm.DB) *GormParticipantRepository {
	if db == nil {
		panic("database connection cannot be nil for GormParticipantRepository")
	}
	return &GormParticipantRepository{db: db}
}

func (r *GormParticipantRepository) FindByID(ctx context.Context, id uint) (*domain.Participant, error) {
	var p domain.Participant
	err := r.db.WithContext(ctx).First(&p, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrParticipantNotFound
		}
		return nil, fmt.Errorf("gorm: find participant by id %d: %w", id, err)
	}
	return &p, nil
}

func (r *GormParticipantRepository) FindActiveBySession(ctx context.Context, sessionID uint) ([]domain.Participant, error) {
	var participants []domain.Participant
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND left_at IS NULL", sessionID).
		Order("seat_number").
		Find(&participants).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find active participants of session %d: %w", sessionID, err)
	}
	return participants, nil
}

func (r *GormParticipantRepository) FindActiveByUser(ctx context.Context, sessionID, userID uint) (*domain.Participant, error) {
	var p domain.Participant
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND user_id = ? AND left_at IS NULL", sessionID, userID).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrParticipantNotFound
		}
		return nil, fmt.Errorf("gorm: find active participant of user %d in session %d: %w", userID, sessionID, err)
	}
	return &p, nil
}

func (r *GormParticipantRepository) FindHumansBySession(ctx context.Context, sessionID uint) ([]domain.Participant, error) {
	var participants []domain.Participant
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND participant_type = ?", sessionID, domain.ParticipantHuman).
		Order("seat_number").
		Find(&participants).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find human participants of session %d: %w", sessionID, err)
	}
	return participants, nil
}

func (r *GormParticipantRepository) IncrementDisconnect(ctx context.Context, participantID uint) error {
	err := r.db.WithContext(ctx).Model(&domain.Participant{}).
		Where("id = ?", participantID).
		UpdateColumn("disconnect_count", gorm.Expr("disconnect_count + 1")).Error
	if err != nil {
		return fmt.Errorf("gorm: increment disconnect count of participant %d: %w", participantID, err)
	}
	return nil
}

func (r *GormParticipantRepository) AccrueActiveMinutes(ctx context.Context, participantID uint, minutes int) error {
	if minutes <= 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Model(&domain.Participant{}).
		Where("id = ?", participantID).
		UpdateColumn("total_active_minutes", gorm.Expr("total_active_minutes + ?", minutes)).Error
	if err != nil {
		return fmt.Errorf("gorm: accrue active minutes for participant %d: %w", participantID, err)
	}
	return nil
}
