package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/ytchou/focus-squad-sub000/internal/domain"
	"github.com/ytchou/focus-squad-sub000/internal/repository"
)

// GormInvitationRepository is the GORM implementation of
// InvitationRepository.
type GormInvitationRepository struct {
	db *gorm.DB
}

// NewGormInvitationRepository creates a GormInvitationRepository instance.
func NewGormInvitationRepository(db *gorm.DB) *GormInvitationRepository {
	if db == nil {
		panic("database connection cannot be nil for GormInvitationRepository")
	}
	return &GormInvitationRepository{db: db}
}

func (r *GormInvitationRepository) Create(ctx context.Context, inv *domain.Invitation) error {
	if err := r.db.WithContext(ctx).Create(inv).Error; err != nil {
		if isDuplicateEntry(err) {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: create invitation: %w", err)
	}
	return nil
}

func (r *GormInvitationRepository) FindByID(ctx context.Context, id uint) (*domain.Invitation, error) {
	var inv domain.Invitation
	err := r.db.WithContext(ctx).First(&inv, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrInvitationNotFound
		}
		return nil, fmt.Errorf("gorm: find invitation by id %d: %w", id, err)
	}
	return &inv, nil
}

func (r *GormInvitationRepository) FindPendingForInvitee(ctx context.Context, inviteeID uint) ([]domain.Invitation, error) {
	var invitations []domain.Invitation
	err := r.db.WithContext(ctx).
		Where("invitee_id = ? AND status = ?", inviteeID, domain.InvitationPending).
		Order("created_at DESC").
		Find(&invitations).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find pending invitations for invitee %d: %w", inviteeID, err)
	}
	return invitations, nil
}

// UpdateStatus applies the transition only while the stored status still
// matches `from`, so concurrent responses cannot both win.
func (r *GormInvitationRepository) UpdateStatus(ctx context.Context, id uint, from, to domain.InvitationStatus) error {
	res := r.db.WithContext(ctx).Model(&domain.Invitation{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return fmt.Errorf("gorm: update invitation %d status %s -> %s: %w", id, from, to, res.Error)
	}
	if res.RowsAffected == 0 {
		return repository.ErrStaleUpdate
	}
	return nil
}
