package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// CreditLedger is a mock of repository.CreditLedger.
type CreditLedger struct {
	mock.Mock
}

func (m *CreditLedger) Debit(ctx context.Context, userID uint, amount int, reason string) error {
	args := m.Called(ctx, userID, amount, reason)
	return args.Error(0)
}

func (m *CreditLedger) Credit(ctx context.Context, userID uint, amount int, reason string) error {
	args := m.Called(ctx, userID, amount, reason)
	return args.Error(0)
}
