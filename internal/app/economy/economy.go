// Package economy holds the application services of the coin economy:
// the wallet ledger service (the single path through which a balance ever
// changes), the earning rule engine, the redemption engine, and the admin
// adjustment service.
//
// All services are stateless — constructed once at process start and passed
// into the HTTP handlers. The only process-wide state is the rate limiter's
// counter map, which is itself an injected component.
package economy

import (
	"errors"

	"github.com/sureshield/coinledger/internal/domain"
)

// expected reports whether err is one of the domain's expected, user-facing
// outcomes (as opposed to an unexpected store failure worth an error log).
func expected(err error) bool {
	for _, sentinel := range []error{
		domain.ErrRuleNotFound,
		domain.ErrCooldownActive,
		domain.ErrDailyLimitReached,
		domain.ErrUnknownReason,
		domain.ErrInvalidAmount,
		domain.ErrInsufficientBalance,
		domain.ErrSpendCapExceeded,
		domain.ErrTransactionNotFound,
		domain.ErrInvalidRefundTarget,
		domain.ErrAlreadyRefunded,
		domain.ErrRewardNotFound,
		domain.ErrRewardUnavailable,
		domain.ErrInsufficientStock,
		domain.ErrInvalidQuantity,
		domain.ErrUnauthorized,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// outcome labels an error for metrics: "ok", the sentinel's short name, or
// "error" for unexpected failures.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrRuleNotFound):
		return "rule_not_found"
	case errors.Is(err, domain.ErrCooldownActive):
		return "cooldown"
	case errors.Is(err, domain.ErrDailyLimitReached):
		return "daily_limit"
	case errors.Is(err, domain.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, domain.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, domain.ErrSpendCapExceeded):
		return "spend_cap"
	case errors.Is(err, domain.ErrTransactionNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidRefundTarget):
		return "invalid_refund_target"
	case errors.Is(err, domain.ErrAlreadyRefunded):
		return "already_refunded"
	case errors.Is(err, domain.ErrRewardNotFound):
		return "reward_not_found"
	case errors.Is(err, domain.ErrRewardUnavailable):
		return "reward_unavailable"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrInvalidQuantity):
		return "invalid_quantity"
	case expected(err):
		return "rejected"
	default:
		return "error"
	}
}
