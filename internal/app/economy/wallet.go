package economy

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sureshield/coinledger/internal/domain"
	"github.com/sureshield/coinledger/internal/infra/observability"
)

// WalletService is the wallet ledger: the only component allowed to change a
// balance or append a ledger entry. Earn performs no rule checks — callers
// (the earning engine, the admin service) are trusted to have authorized the
// amount already.
type WalletService struct {
	store    domain.WalletStore
	log      *logrus.Logger
	maxSpend int64 // single-transaction spend ceiling, 0 = unlimited
}

// NewWalletService creates the wallet ledger service.
func NewWalletService(store domain.WalletStore, log *logrus.Logger, maxSpend int64) *WalletService {
	return &WalletService{store: store, log: log, maxSpend: maxSpend}
}

// GetOrCreate returns the user's wallet, creating one on first reference.
func (s *WalletService) GetOrCreate(ctx context.Context, userID string) (*domain.Wallet, error) {
	w, err := s.store.GetOrCreateWallet(ctx, userID)
	if err != nil {
		s.logOp("get_or_create", userID, "", err)
	}
	return w, err
}

// Earn appends an EARN entry and credits the balance. Unconditional,
// trusted write path.
func (s *WalletService) Earn(ctx context.Context, userID string, reason domain.Reason, amount int64, metadata map[string]any) (*domain.LedgerEntry, *domain.Wallet, error) {
	if !reason.Valid() {
		return nil, nil, domain.ErrUnknownReason
	}
	if amount <= 0 {
		return nil, nil, domain.ErrInvalidAmount
	}

	entry, w, err := s.observe(ctx, "earn", userID, reason, func(ctx context.Context) (*domain.LedgerEntry, *domain.Wallet, error) {
		return s.store.Earn(ctx, userID, reason, amount, metadata)
	})
	if err == nil {
		observability.CoinsMoved.WithLabelValues(string(domain.KindEarn)).Add(float64(amount))
	}
	return entry, w, err
}

// Spend appends a SPEND entry and debits the balance. Rejects non-positive
// amounts and amounts above the spend ceiling before touching the store;
// the store's conditional update rejects overdraft.
func (s *WalletService) Spend(ctx context.Context, userID string, amount int64, reason domain.Reason, metadata map[string]any) (*domain.LedgerEntry, *domain.Wallet, error) {
	if !reason.Valid() {
		return nil, nil, domain.ErrUnknownReason
	}
	if amount <= 0 {
		return nil, nil, domain.ErrInvalidAmount
	}
	if s.maxSpend > 0 && amount > s.maxSpend {
		return nil, nil, domain.ErrSpendCapExceeded
	}

	entry, w, err := s.observe(ctx, "spend", userID, reason, func(ctx context.Context) (*domain.LedgerEntry, *domain.Wallet, error) {
		return s.store.Spend(ctx, userID, amount, reason, metadata)
	})
	if err == nil {
		observability.CoinsMoved.WithLabelValues(string(domain.KindSpend)).Add(float64(amount))
	}
	return entry, w, err
}

// Refund reverses a SPEND entry. The original entry stays untouched; a
// REFUND entry referencing it is appended.
func (s *WalletService) Refund(ctx context.Context, entryID, actingAdminID string) (*domain.LedgerEntry, *domain.Wallet, error) {
	entry, w, err := s.observe(ctx, "refund", actingAdminID, "", func(ctx context.Context) (*domain.LedgerEntry, *domain.Wallet, error) {
		return s.store.Refund(ctx, entryID, actingAdminID)
	})
	if err == nil {
		observability.CoinsMoved.WithLabelValues(string(domain.KindRefund)).Add(float64(entry.Amount))
	}
	return entry, w, err
}

// Recent returns the user's most recent ledger entries, newest first.
func (s *WalletService) Recent(ctx context.Context, userID string, limit int) ([]domain.LedgerEntry, error) {
	return s.store.RecentEntries(ctx, userID, limit)
}

func (s *WalletService) observe(ctx context.Context, op, userID string, reason domain.Reason, fn func(context.Context) (*domain.LedgerEntry, *domain.Wallet, error)) (*domain.LedgerEntry, *domain.Wallet, error) {
	start := time.Now()
	entry, w, err := fn(ctx)
	observability.LedgerOpDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	observability.LedgerOps.WithLabelValues(op, outcome(err)).Inc()
	if err != nil {
		s.logOp(op, userID, reason, err)
	}
	return entry, w, err
}

// Expected outcomes log at debug; store failures log at error with enough
// context to diagnose.
func (s *WalletService) logOp(op, userID string, reason domain.Reason, err error) {
	fields := logrus.Fields{"op": op, "user_id": userID}
	if reason != "" {
		fields["reason"] = string(reason)
	}
	if expected(err) {
		s.log.WithFields(fields).WithError(err).Debug("ledger operation rejected")
		return
	}
	s.log.WithFields(fields).WithError(err).Error("ledger operation failed")
}
