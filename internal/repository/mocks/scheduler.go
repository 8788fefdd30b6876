package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

// Scheduler is a mock of scheduler.Scheduler.
type Scheduler struct {
	mock.Mock
}

func (m *Scheduler) RunAt(ctx context.Context, taskType string, payload []byte, t time.Time) error {
	args := m.Called(ctx, taskType, payload, t)
	return args.Error(0)
}

func (m *Scheduler) RunEvery(spec string, taskType string, payload []byte) error {
	args := m.Called(spec, taskType, payload)
	return args.Error(0)
}
