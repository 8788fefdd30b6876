// Package tasks defines the task types flowing through the job scheduler
// and their payload shapes. Every task here is idempotent: the scheduler
// only guarantees at-least-once delivery, so duplicate executions must be
// harmless.
package tasks

import "encoding/json"

// Task type constants. Room jobs run on the critical queue; the sweep and
// housekeeping run on default.
const (
	TypeRoomCreate  = "room:create"
	TypeRoomCleanup = "room:cleanup"
	TypeSeatFill    = "session:fill_seats"
	TypePhaseSweep  = "session:phase_sweep"
	TypeSeatReap    = "session:reap_seat"
)

// RoomPayload drives both room creation and cleanup.
type RoomPayload struct {
	SessionID uint   `json:"session_id"`
	RoomName  string `json:"room_name"`
}

// SeatFillPayload triggers synthetic seat filling at session start.
type SeatFillPayload struct {
	SessionID uint `json:"session_id"`
}

// SeatReapPayload closes a disconnected participant's seat after the grace
// window has elapsed without a reconnect.
type SeatReapPayload struct {
	SessionID     uint `json:"session_id"`
	ParticipantID uint `json:"participant_id"`
	UserID        uint `json:"user_id"`
}

// NewRoomCreatePayload builds the payload for a room-creation job.
func NewRoomCreatePayload(sessionID uint, roomName string) ([]byte, error) {
	return json.Marshal(RoomPayload{SessionID: sessionID, RoomName: roomName})
}

// NewRoomCleanupPayload builds the payload for a room-teardown job.
func NewRoomCleanupPayload(sessionID uint, roomName string) ([]byte, error) {
	return json.Marshal(RoomPayload{SessionID: sessionID, RoomName: roomName})
}

// NewSeatFillPayload builds the payload for the session-start seat fill.
func NewSeatFillPayload(sessionID uint) ([]byte, error) {
	return json.Marshal(SeatFillPayload{SessionID: sessionID})
}

// NewSeatReapPayload builds the payload for a grace-expiry seat reap.
func NewSeatReapPayload(sessionID, participantID, userID uint) ([]byte, error) {
	return json.Marshal(SeatReapPayload{SessionID: sessionID, ParticipantID: participantID, UserID: userID})
}

// NewPhaseSweepPayload builds the (empty) payload for the periodic sweep.
func NewPhaseSweepPayload() ([]byte, error) {
	return json.Marshal(struct{}{})
}
