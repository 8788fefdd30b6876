package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ytchou/focus-squad-sub000/internal/domain"
	"github.com/ytchou/focus-squad-sub000/internal/repository"
	"github.com/ytchou/focus-squad-sub000/internal/rtc"
)

// roomMetadata is embedded in the provider room so downstream consumers
// (recording, moderation) can read the table's audio contract without a
// database lookup.
type roomMetadata struct {
	Mode  domain.SessionMode `json:"mode"`
	Topic string             `json:"topic,omitempty"`
}

// RoomService drives the lifecycle of the external room bound 1:1 to a
// session: provisioning shortly before start, token minting for joiners,
// and idempotent teardown after the table ends.
type RoomService struct {
	provider    rtc.Provider
	minter      *rtc.TokenMinter
	sessionRepo repository.SessionRepository
}

// NewRoomService creates a RoomService instance.
func NewRoomService(provider rtc.Provider, minter *rtc.TokenMinter, sessionRepo repository.SessionRepository) *RoomService {
	if provider == nil {
		panic("Provider cannot be nil for RoomService")
	}
	if minter == nil {
		panic("TokenMinter cannot be nil for RoomService")
	}
	if sessionRepo == nil {
		panic("SessionRepository cannot be nil for RoomService")
	}
	return &RoomService{provider: provider, minter: minter, sessionRepo: sessionRepo}
}

// EnsureRoom provisions the session's room. Running it again for an
// existing room is safe: providers treat create-by-name as an upsert, and
// an ended session is skipped entirely.
func (s *RoomService) EnsureRoom(ctx context.Context, sessionID uint) error {
	logCtx := logrus.WithField("session_id", sessionID)

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return ErrSessionNotFound
		}
		logCtx.WithError(err).Error("EnsureRoom: failed to load session")
		return ErrInternalServer
	}
	if session.CurrentPhase.Terminal() {
		logCtx.Info("EnsureRoom: session already ended, skipping room creation")
		return nil
	}

	meta, err := json.Marshal(roomMetadata{Mode: session.Mode, Topic: session.Topic})
	if err != nil {
		logCtx.WithError(err).Error("EnsureRoom: failed to encode room metadata")
		return ErrInternalServer
	}

	room, err := s.provider.CreateRoom(ctx, session.RoomName, session.MaxSeats, string(meta))
	if err != nil {
		logCtx.WithError(err).Warn("EnsureRoom: provider call failed")
		return fmt.Errorf("%w: %v", ErrRoomService, err)
	}
	logCtx.WithFields(logrus.Fields{"room": room.Name, "room_sid": room.SID}).Info("Room provisioned")
	return nil
}

// TeardownRoom deletes the session's room. Deleting an already-absent room
// is success, so duplicate cleanup jobs are harmless.
func (s *RoomService) TeardownRoom(ctx context.Context, roomName string) error {
	if err := s.provider.DeleteRoom(ctx, roomName); err != nil {
		logrus.WithField("room", roomName).WithError(err).Warn("TeardownRoom: provider call failed")
		return fmt.Errorf("%w: %v", ErrRoomService, err)
	}
	logrus.WithField("room", roomName).Info("Room torn down")
	return nil
}

// IssueToken mints a signed, time-bounded room credential for one
// participant. Publish permission follows the session mode.
func (s *RoomService) IssueToken(session *domain.Session, p *domain.Participant) (string, error) {
	token, err := s.minter.Mint(session.RoomName, p.Identity, p.DisplayName, session.Mode)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"session_id": session.ID,
			"identity":   p.Identity,
		}).WithError(err).Error("IssueToken: failed to mint room token")
		return "", fmt.Errorf("%w: %v", ErrRoomService, err)
	}
	return token, nil
}
