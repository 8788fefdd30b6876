// Package rtc wraps the external real-time audio/video room provider. The
// provider is the only network boundary in this core: every failure is
// folded into ErrProvider and the scheduled jobs around it retry with a
// bounded attempt count.
package rtc

import (
	"context"
	"errors"
)

// ErrProvider wraps every provider-side failure (network, HTTP status,
// malformed response) so callers can match one error kind.
var ErrProvider = errors.New("rtc: room provider failure")

// Room describes a provisioned room as reported by the provider.
type Room struct {
	Name            string `json:"name"`
	SID             string `json:"sid"`
	MaxParticipants int    `json:"max_participants"`
	Metadata        string `json:"metadata"`
}

// Provider provisions and tears down rooms. DeleteRoom is idempotent:
// deleting a room that is already gone is success, not an error.
type Provider interface {
	CreateRoom(ctx context.Context, name string, maxParticipants int, metadata string) (*Room, error)
	DeleteRoom(ctx context.Context, name string) error
}
