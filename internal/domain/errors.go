package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency. Every one of these
// is an expected, user-facing outcome; the HTTP layer maps each to a status.

var (
	// Earning errors
	ErrRuleNotFound      = errors.New("no active earn rule for task type")
	ErrCooldownActive    = errors.New("earn cooldown still active")
	ErrDailyLimitReached = errors.New("daily limit reached")
	ErrUnknownReason     = errors.New("unknown reason")

	// Wallet ledger errors
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrSpendCapExceeded    = errors.New("amount exceeds single-transaction spend ceiling")

	// Refund errors
	ErrTransactionNotFound = errors.New("ledger entry not found")
	ErrInvalidRefundTarget = errors.New("only SPEND entries can be refunded")
	ErrAlreadyRefunded     = errors.New("entry has already been refunded")

	// Redemption errors
	ErrRewardNotFound    = errors.New("reward item not found")
	ErrRewardUnavailable = errors.New("reward item is not available")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("invalid redemption quantity")

	// Boundary errors
	ErrUnauthorized = errors.New("caller is not authorized")
)
