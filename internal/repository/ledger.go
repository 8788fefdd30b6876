package repository

import "context"

// CreditLedger is the transactional debit/credit primitive consumed by the
// match engine. Balance policy (top-ups, pricing) lives outside this core.
type CreditLedger interface {
	// Debit atomically removes amount from the user's balance. Returns
	// ErrInsufficientBalance when the balance is below amount; the balance
	// is never driven negative.
	Debit(ctx context.Context, userID uint, amount int, reason string) error

	// Credit adds amount back (refunds, referral bonuses).
	Credit(ctx context.Context, userID uint, amount int, reason string) error
}
