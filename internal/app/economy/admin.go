package economy

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/sureshield/coinledger/internal/domain"
	"github.com/sureshield/coinledger/internal/infra/observability"
)

// AdminService is the manual override surface for support staff. It bypasses
// the earning engine's cooldown and daily-cap checks, but every write still
// goes through the wallet ledger's own validation — a debit can never
// overdraw. Role authorization happens at the HTTP boundary, not here.
type AdminService struct {
	wallets *WalletService
	log     *logrus.Logger
}

// NewAdminService creates the admin adjustment service.
func NewAdminService(wallets *WalletService, log *logrus.Logger) *AdminService {
	return &AdminService{wallets: wallets, log: log}
}

// BatchAction selects the per-user operation a batch applies.
type BatchAction string

const (
	BatchCredit BatchAction = "credit"
	BatchDebit  BatchAction = "debit"
)

// ErrInvalidBatchAction rejects batch requests with an unknown action.
var ErrInvalidBatchAction = errors.New("invalid batch action")

// BatchOutcome is one user's result within a batch adjustment.
type BatchOutcome struct {
	UserID string              `json:"user_id"`
	OK     bool                `json:"ok"`
	Error  string              `json:"error,omitempty"`
	Entry  *domain.LedgerEntry `json:"transaction,omitempty"`
}

// BatchResult aggregates a best-effort batch adjustment.
type BatchResult struct {
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	Outcomes  []BatchOutcome `json:"outcomes"`
}

// Credit manually grants coins. An empty reason defaults to ADMIN_CREDIT.
func (s *AdminService) Credit(ctx context.Context, userID string, amount int64, reason domain.Reason, actingAdminID string) (*domain.LedgerEntry, *domain.Wallet, error) {
	if reason == "" {
		reason = domain.ReasonAdminCredit
	}
	entry, w, err := s.wallets.Earn(ctx, userID, reason, amount, adminMeta(actingAdminID))
	observability.AdminAdjustments.WithLabelValues("credit", outcome(err)).Inc()
	return entry, w, err
}

// Debit manually removes coins. Still rejects overdraft at the ledger.
func (s *AdminService) Debit(ctx context.Context, userID string, amount int64, reason domain.Reason, actingAdminID string) (*domain.LedgerEntry, *domain.Wallet, error) {
	if reason == "" {
		reason = domain.ReasonAdminDebit
	}
	entry, w, err := s.wallets.Spend(ctx, userID, amount, reason, adminMeta(actingAdminID))
	observability.AdminAdjustments.WithLabelValues("debit", outcome(err)).Inc()
	return entry, w, err
}

// RefundTransaction reverses a SPEND entry on a user's behalf.
func (s *AdminService) RefundTransaction(ctx context.Context, entryID, actingAdminID string) (*domain.LedgerEntry, *domain.Wallet, error) {
	entry, w, err := s.wallets.Refund(ctx, entryID, actingAdminID)
	observability.AdminAdjustments.WithLabelValues("refund", outcome(err)).Inc()
	return entry, w, err
}

// Batch applies the single-user operation independently per user: one
// transaction each, no cross-user rollback. A failed user is recorded and
// the batch moves on.
func (s *AdminService) Batch(ctx context.Context, action BatchAction, userIDs []string, amount int64, reason domain.Reason, actingAdminID string) (*BatchResult, error) {
	result := &BatchResult{Outcomes: make([]BatchOutcome, 0, len(userIDs))}

	for _, userID := range userIDs {
		var entry *domain.LedgerEntry
		var err error
		switch action {
		case BatchCredit:
			entry, _, err = s.Credit(ctx, userID, amount, reason, actingAdminID)
		case BatchDebit:
			entry, _, err = s.Debit(ctx, userID, amount, reason, actingAdminID)
		default:
			return nil, ErrInvalidBatchAction
		}

		if err != nil {
			result.Failed++
			result.Outcomes = append(result.Outcomes, BatchOutcome{UserID: userID, Error: err.Error()})
			continue
		}
		result.Succeeded++
		result.Outcomes = append(result.Outcomes, BatchOutcome{UserID: userID, OK: true, Entry: entry})
	}

	s.log.WithFields(logrus.Fields{
		"op":        "admin_batch",
		"action":    string(action),
		"acted_by":  actingAdminID,
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
	}).Info("batch adjustment finished")
	return result, nil
}

func adminMeta(actingAdminID string) map[string]any {
	return map[string]any{"acted_by": actingAdminID, "source": "admin"}
}
