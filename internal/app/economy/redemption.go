package economy

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sureshield/coinledger/internal/domain"
	"github.com/sureshield/coinledger/internal/infra/observability"
)

// RedemptionService manages the reward catalog and turns a redemption
// request into an atomic debit-plus-stock-decrement at the store.
type RedemptionService struct {
	rewards     domain.RewardStore
	log         *logrus.Logger
	maxQuantity int
	maxSpend    int64
	now         func() time.Time
}

// NewRedemptionService creates the redemption engine. maxQuantity is the
// fixed per-request quantity ceiling; maxSpend mirrors the wallet ledger's
// single-transaction spend ceiling.
func NewRedemptionService(rewards domain.RewardStore, log *logrus.Logger, maxQuantity int, maxSpend int64) *RedemptionService {
	return &RedemptionService{
		rewards:     rewards,
		log:         log,
		maxQuantity: maxQuantity,
		maxSpend:    maxSpend,
		now:         time.Now,
	}
}

// SetClock overrides the time source for tests.
func (s *RedemptionService) SetClock(now func() time.Time) { s.now = now }

// Redeem validates the request against the catalog, the per-day cap, and
// the quantity and spend ceilings, then delegates to the store's single
// transaction. The pre-reads here give friendly errors; the authoritative
// stock and balance guards live inside that transaction.
func (s *RedemptionService) Redeem(ctx context.Context, userID, itemID string, quantity int) (red *domain.Redemption, w *domain.Wallet, err error) {
	defer func() {
		observability.Redemptions.WithLabelValues(outcome(err)).Inc()
		if err != nil {
			s.logRedeem(userID, itemID, err)
		}
	}()

	if quantity < 1 || quantity > s.maxQuantity {
		return nil, nil, domain.ErrInvalidQuantity
	}

	item, err := s.rewards.GetRewardItem(ctx, itemID)
	if err != nil {
		return nil, nil, err
	}
	if !item.IsAvailable {
		return nil, nil, domain.ErrRewardUnavailable
	}
	if item.Stock < int64(quantity) {
		return nil, nil, domain.ErrInsufficientStock
	}

	if item.MaxPerDay > 0 {
		count, err := s.rewards.CountRedemptionsOn(ctx, userID, itemID, s.now())
		if err != nil {
			return nil, nil, err
		}
		if count >= item.MaxPerDay {
			return nil, nil, domain.ErrDailyLimitReached
		}
	}

	totalCost := item.CoinCost * int64(quantity)
	if s.maxSpend > 0 && totalCost > s.maxSpend {
		return nil, nil, domain.ErrSpendCapExceeded
	}

	red, w, err = s.rewards.RedeemReward(ctx, userID, itemID, quantity)
	if err == nil {
		observability.CoinsMoved.WithLabelValues(string(domain.KindSpend)).Add(float64(red.CoinsCost))
	}
	return red, w, err
}

// Catalog lists the active reward items.
func (s *RedemptionService) Catalog(ctx context.Context) ([]domain.RewardItem, error) {
	return s.rewards.ListRewardItems(ctx)
}

func (s *RedemptionService) logRedeem(userID, itemID string, err error) {
	fields := logrus.Fields{"op": "redeem", "user_id": userID, "reward_item_id": itemID}
	if expected(err) {
		s.log.WithFields(fields).WithError(err).Debug("redemption rejected")
		return
	}
	s.log.WithFields(fields).WithError(err).Error("redemption failed")
}
