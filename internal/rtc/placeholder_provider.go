package rtc

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// PlaceholderProvider stands in when no provider credentials are
// configured (local development, CI). It returns deterministic room
// handles instead of failing, so the rest of the lifecycle can run.
type PlaceholderProvider struct{}

// NewPlaceholderProvider creates a PlaceholderProvider instance.
func NewPlaceholderProvider() *PlaceholderProvider {
	return &PlaceholderProvider{}
}

func (p *PlaceholderProvider) CreateRoom(ctx context.Context, name string, maxParticipants int, metadata string) (*Room, error) {
	logrus.WithField("room", name).Debug("Placeholder provider: returning deterministic room")
	return &Room{
		Name:            name,
		SID:             fmt.Sprintf("dev-%s", name),
		MaxParticipants: maxParticipants,
		Metadata:        metadata,
	}, nil
}

func (p *PlaceholderProvider) DeleteRoom(ctx context.Context, name string) error {
	return nil
}
