package gormpersistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ytchou/focus-squad-sub000/internal/domain"
	"github.com/ytchou/focus-squad-sub000/internal/repository"
)

// GormSessionRepository is the GORM implementation of SessionRepository.
// All occupancy mutations are guarded conditional writes; RowsAffected is
// the linearization point for the seat-capacity invariant.
type GormSessionRepository struct {
	db *gorm.DB
}

// NewGormSessionRepository creates a GormSessionRepository instance.
func NewGormSessionRepository(db *gorm.DB) *GormSessionRepository {
	if db == nil {
		panic("database connection cannot be nil for GormSessionRepository")
	}
	return &GormSessionRepository{db: db}
}

// Create inserts the session and derives its room name from the assigned
// id in the same transaction, so the unique room name is visible together
// with the row.
func (r *GormSessionRepository) Create(ctx context.Context, session *domain.Session) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(session).Error; err != nil {
			if isDuplicateEntry(err) {
				return repository.ErrDuplicateEntry
			}
			return fmt.Errorf("gorm: create session: %w", err)
		}
		session.RoomName = domain.RoomNameFor(session.ID)
		if err := tx.Model(session).UpdateColumn("room_name", session.RoomName).Error; err != nil {
			return fmt.Errorf("gorm: set room name for session %d: %w", session.ID, err)
		}
		return nil
	})
}

// FindByID implements lookup by session id.
func (r *GormSessionRepository) FindByID(ctx context.Context, id uint) (*domain.Session, error) {
	var session domain.Session
	err := r.db.WithContext(ctx).First(&session, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrSessionNotFound
		}
		return nil, fmt.Errorf("gorm: find session by id %d: %w", id, err)
	}
	return &session, nil
}

// FindJoinableAtSlot returns public non-ended sessions at the slot that
// still report a free seat.
func (r *GormSessionRepository) FindJoinableAtSlot(ctx context.Context, slot time.Time) ([]domain.Session, error) {
	var sessions []domain.Session
	err := r.db.WithContext(ctx).
		Where("start_time = ? AND is_private = ? AND current_phase <> ? AND occupied_seats < max_seats",
			slot, false, domain.PhaseEnded).
		Order("id").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find joinable sessions at %s: %w", slot.Format(time.RFC3339), err)
	}
	return sessions, nil
}

// ReserveSeat claims one seat with a single guarded UPDATE, then inserts
// the participant row with the lowest free seat number while holding row
// locks on the session's active participants. A lost race surfaces as
// ErrSeatConflict, never as a silent double booking.
func (r *GormSessionRepository) ReserveSeat(ctx context.Context, sessionID uint, p *domain.Participant) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Session{}).
			Where("id = ? AND occupied_seats < max_seats AND current_phase <> ?", sessionID, domain.PhaseEnded).
			UpdateColumn("occupied_seats", gorm.Expr("occupied_seats + 1"))
		if res.Error != nil {
			return fmt.Errorf("gorm: reserve seat in session %d: %w", sessionID, res.Error)
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&domain.Session{}).Where("id = ?", sessionID).Count(&count).Error; err != nil {
				return fmt.Errorf("gorm: check session %d existence: %w", sessionID, err)
			}
			if count == 0 {
				return repository.ErrSessionNotFound
			}
			return repository.ErrSeatConflict
		}

		var taken []int
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Model(&domain.Participant{}).
			Where("session_id = ? AND left_at IS NULL", sessionID).
			Order("seat_number").
			Pluck("seat_number", &taken).Error
		if err != nil {
			return fmt.Errorf("gorm: list taken seats for session %d: %w", sessionID, err)
		}
		seat := 1
		for _, t := range taken {
			if t == seat {
				seat++
			}
		}

		p.SessionID = sessionID
		p.SeatNumber = seat
		if p.JoinedAt.IsZero() {
			p.JoinedAt = time.Now().UTC()
		}
		if err := tx.Create(p).Error; err != nil {
			if isDuplicateEntry(err) {
				return repository.ErrDuplicateEntry
			}
			return fmt.Errorf("gorm: insert participant for session %d seat %d: %w", sessionID, seat, err)
		}
		return nil
	})
}

// ReleaseSeat soft-closes the participant and frees the seat. Releasing an
// already-left participant is a no-op so leave/reap paths stay idempotent.
func (r *GormSessionRepository) ReleaseSeat(ctx context.Context, sessionID, participantID uint, leftAt time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Participant{}).
			Where("id = ? AND session_id = ? AND left_at IS NULL", participantID, sessionID).
			Update("left_at", leftAt)
		if res.Error != nil {
			return fmt.Errorf("gorm: close participant %d: %w", participantID, res.Error)
		}
		if res.RowsAffected == 0 {
			return nil // already released
		}
		err := tx.Model(&domain.Session{}).
			Where("id = ? AND occupied_seats > 0", sessionID).
			UpdateColumn("occupied_seats", gorm.Expr("occupied_seats - 1")).Error
		if err != nil {
			return fmt.Errorf("gorm: free seat in session %d: %w", sessionID, err)
		}
		return nil
	})
}

// AdvancePhase applies the transition only while the stored phase still
// matches `from`, so a delayed sweep carrying a stale snapshot cannot
// overwrite a newer phase or resurrect an ended session.
func (r *GormSessionRepository) AdvancePhase(ctx context.Context, sessionID uint, from, to domain.Phase, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&domain.Session{}).
		Where("id = ? AND current_phase = ?", sessionID, from).
		Updates(map[string]interface{}{
			"current_phase":    to,
			"phase_started_at": at,
		})
	if res.Error != nil {
		return fmt.Errorf("gorm: advance phase of session %d %s -> %s: %w", sessionID, from, to, res.Error)
	}
	if res.RowsAffected == 0 {
		return repository.ErrStaleUpdate
	}
	return nil
}

// FindActiveBatch pages through non-ended sessions in id order.
func (r *GormSessionRepository) FindActiveBatch(ctx context.Context, afterID uint, limit int) ([]domain.Session, error) {
	var sessions []domain.Session
	err := r.db.WithContext(ctx).
		Where("current_phase <> ? AND id > ?", domain.PhaseEnded, afterID).
		Order("id").
		Limit(limit).
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find active sessions after id %d: %w", afterID, err)
	}
	return sessions, nil
}

// HasUserOverlap reports whether the user already holds an active seat in
// a non-ended session overlapping a table starting at slot.
func (r *GormSessionRepository) HasUserOverlap(ctx context.Context, userID uint, slot time.Time) (bool, error) {
	slotEnd := slot.Add(domain.SessionDuration)
	var count int64
	err := r.db.WithContext(ctx).
		Table("participants").
		Joins("JOIN sessions ON sessions.id = participants.session_id").
		Where("participants.user_id = ? AND participants.left_at IS NULL", userID).
		Where("sessions.current_phase <> ?", domain.PhaseEnded).
		Where("sessions.start_time < ? AND sessions.end_time > ?", slotEnd, slot).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("gorm: check active overlap for user %d: %w", userID, err)
	}
	return count > 0, nil
}

// isDuplicateEntry classifies MySQL unique-constraint violations.
func isDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
