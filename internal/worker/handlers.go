package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/ytchou/focus-squad-sub000/internal/service"
	"github.com/ytchou/focus-squad-sub000/internal/tasks"
)

// Returning an error from a handler makes asynq retry the task (bounded by
// MaxRetry). Handlers therefore return errors only for failures that a
// retry can fix — provider hiccups, transient store errors — and swallow
// everything that is already final.

func (ws *WorkerServer) handleRoomCreate(ctx context.Context, t *asynq.Task) error {
	var payload tasks.RoomPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		ws.log.WithError(err).Error("room:create: malformed payload, dropping")
		return nil
	}
	logCtx := ws.log.WithFields(logrus.Fields{"session_id": payload.SessionID, "room": payload.RoomName})

	err := ws.rooms.EnsureRoom(ctx, payload.SessionID)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			logCtx.Warn("room:create: session vanished, dropping")
			return nil
		}
		if errors.Is(err, service.ErrRoomService) {
			return fmt.Errorf("room:create session %d: %w", payload.SessionID, err)
		}
		logCtx.WithError(err).Error("room:create: unexpected failure, dropping")
		return nil
	}
	return nil
}

func (ws *WorkerServer) handleRoomCleanup(ctx context.Context, t *asynq.Task) error {
	var payload tasks.RoomPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		ws.log.WithError(err).Error("room:cleanup: malformed payload, dropping")
		return nil
	}
	if err := ws.rooms.TeardownRoom(ctx, payload.RoomName); err != nil {
		return fmt.Errorf("room:cleanup %s: %w", payload.RoomName, err)
	}
	return nil
}

func (ws *WorkerServer) handleSeatFill(ctx context.Context, t *asynq.Task) error {
	var payload tasks.SeatFillPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		ws.log.WithError(err).Error("session:fill_seats: malformed payload, dropping")
		return nil
	}
	err := ws.filler.FillEmptySeats(ctx, payload.SessionID)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			ws.log.WithField("session_id", payload.SessionID).Warn("session:fill_seats: session vanished, dropping")
			return nil
		}
		return fmt.Errorf("session:fill_seats %d: %w", payload.SessionID, err)
	}
	return nil
}

func (ws *WorkerServer) handleSeatReap(ctx context.Context, t *asynq.Task) error {
	var payload tasks.SeatReapPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		ws.log.WithError(err).Error("session:reap_seat: malformed payload, dropping")
		return nil
	}
	err := ws.match.ReapSeat(ctx, payload.SessionID, payload.ParticipantID, payload.UserID)
	if err != nil {
		return fmt.Errorf("session:reap_seat participant %d: %w", payload.ParticipantID, err)
	}
	return nil
}

func (ws *WorkerServer) handlePhaseSweep(ctx context.Context, t *asynq.Task) error {
	if err := ws.phases.AdvanceAll(ctx); err != nil {
		return fmt.Errorf("session:phase_sweep: %w", err)
	}
	return nil
}
