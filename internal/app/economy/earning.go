package economy

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sureshield/coinledger/internal/domain"
	"github.com/sureshield/coinledger/internal/infra/observability"
	"github.com/sureshield/coinledger/internal/infra/ratelimit"
)

// EarnService decides whether a user may earn right now and, if so, credits
// the wallet. It is the only legitimate caller of the ledger's earn path for
// non-administrative reasons — earn itself re-validates nothing, so the trust
// boundary stays here.
type EarnService struct {
	wallets *WalletService
	rules   domain.RuleStore
	counts  domain.WalletStore
	limiter *ratelimit.Limiter
	log     *logrus.Logger
	now     func() time.Time
}

// NewEarnService creates the earning rule engine.
func NewEarnService(wallets *WalletService, rules domain.RuleStore, counts domain.WalletStore, limiter *ratelimit.Limiter, log *logrus.Logger) *EarnService {
	return &EarnService{
		wallets: wallets,
		rules:   rules,
		counts:  counts,
		limiter: limiter,
		log:     log,
		now:     time.Now,
	}
}

// SetClock overrides the time source for tests.
func (s *EarnService) SetClock(now func() time.Time) { s.now = now }

// RequestEarn runs the full earning decision for one task completion:
//
//  1. an active rule must exist for the reason,
//  2. the per-task cooldown window must be free (best-effort limiter),
//  3. today's earns for this reason must be under the rule's daily cap
//     (UTC calendar day),
//  4. the credited amount is the rule's, or adminOverride for ADMIN_CREDIT.
//
// The cooldown window is consumed even when a later check fails — matching
// the fixed-window counter's semantics.
func (s *EarnService) RequestEarn(ctx context.Context, userID string, reason domain.Reason, adminOverride int64, metadata map[string]any) (entry *domain.LedgerEntry, w *domain.Wallet, err error) {
	defer func() {
		observability.EarnRequests.WithLabelValues(string(reason), outcome(err)).Inc()
	}()

	rule, err := s.rules.ActiveRule(ctx, reason)
	if err != nil {
		return nil, nil, err
	}

	dec := s.limiter.Check(ratelimit.EarnKey(userID, reason), rule.Cooldown(), 1)
	recordRateDecision("earn_cooldown", dec)
	if !dec.Allowed {
		return nil, nil, domain.ErrCooldownActive
	}

	count, err := s.counts.CountEarnsOn(ctx, userID, reason, s.now())
	if err != nil {
		s.log.WithFields(logrus.Fields{"op": "request_earn", "user_id": userID, "reason": string(reason)}).
			WithError(err).Error("daily earn count failed")
		return nil, nil, err
	}
	if count >= rule.MaxPerDay {
		return nil, nil, domain.ErrDailyLimitReached
	}

	amount := rule.CoinAmount
	if reason == domain.ReasonAdminCredit && adminOverride > 0 {
		amount = adminOverride
	}
	return s.wallets.Earn(ctx, userID, reason, amount, metadata)
}

// ActiveRules lists the active earn rules for UI display of "ways to earn".
func (s *EarnService) ActiveRules(ctx context.Context) ([]domain.EarnRule, error) {
	return s.rules.ListActiveRules(ctx)
}

func recordRateDecision(scope string, dec domain.RateDecision) {
	decision := "allowed"
	if !dec.Allowed {
		decision = "denied"
	}
	observability.RateLimitDecisions.WithLabelValues(scope, decision).Inc()
}
