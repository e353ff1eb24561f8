package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/sureshield/coinledger/internal/app/economy"
	"github.com/sureshield/coinledger/internal/auth"
	"github.com/sureshield/coinledger/internal/domain"
)

// ─── Coin Economy API ───────────────────────────────────────────────────────
// REST endpoints consumed by the web front-end and the admin console.
//
// POST /api/coins/earn        — complete a task, maybe get coins
// GET  /api/coins/balance     — wallet snapshot + recent history + earn rules
// GET  /api/coins/rewards     — active reward catalog
// POST /api/coins/redeem      — buy a reward with coins
// POST /api/admin/coins       — single manual adjustment (credit/debit/refund)
// POST /api/admin/coins/batch — best-effort batch adjustment

// EconomyAPI holds references to the coin economy services.
type EconomyAPI struct {
	Wallet     *economy.WalletService
	Earn       *economy.EarnService
	Redemption *economy.RedemptionService
	Admin      *economy.AdminService

	Log *logrus.Logger
	// RecentLimit is how many ledger entries the balance endpoint returns.
	RecentLimit int
}

// HandleEarn runs the earning engine for the authenticated user.
// POST /api/coins/earn
func (e *EconomyAPI) HandleEarn(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.IdentityFrom(r.Context())

	var req struct {
		Reason   string         `json:"reason"`
		Metadata map[string]any `json:"metadata"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reason := domain.Reason(req.Reason)
	if !reason.Valid() {
		writeError(w, http.StatusBadRequest, domain.ErrUnknownReason.Error())
		return
	}

	entry, wallet, err := e.Earn.RequestEarn(r.Context(), claims.UserID, reason, 0, req.Metadata)
	if err != nil {
		e.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"transaction": entry,
		"wallet":      wallet,
	})
}

// HandleBalance returns the wallet snapshot, recent ledger entries, and the
// active earn rules for "ways to earn" display.
// GET /api/coins/balance
func (e *EconomyAPI) HandleBalance(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.IdentityFrom(r.Context())

	wallet, err := e.Wallet.GetOrCreate(r.Context(), claims.UserID)
	if err != nil {
		e.respondError(w, err)
		return
	}
	entries, err := e.Wallet.Recent(r.Context(), claims.UserID, e.recentLimit())
	if err != nil {
		e.respondError(w, err)
		return
	}
	rules, err := e.Earn.ActiveRules(r.Context())
	if err != nil {
		e.respondError(w, err)
		return
	}

	if entries == nil {
		entries = []domain.LedgerEntry{}
	}
	if rules == nil {
		rules = []domain.EarnRule{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"wallet":       wallet,
		"transactions": entries,
		"earn_rules":   rules,
	})
}

// HandleRewards returns the active reward catalog.
// GET /api/coins/rewards
func (e *EconomyAPI) HandleRewards(w http.ResponseWriter, r *http.Request) {
	items, err := e.Redemption.Catalog(r.Context())
	if err != nil {
		e.respondError(w, err)
		return
	}
	if items == nil {
		items = []domain.RewardItem{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"rewards": items})
}

// HandleRedeem purchases a reward for the authenticated user.
// POST /api/coins/redeem
func (e *EconomyAPI) HandleRedeem(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.IdentityFrom(r.Context())

	var req struct {
		RewardItemID string `json:"reward_item_id"`
		Quantity     int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	redemption, wallet, err := e.Redemption.Redeem(r.Context(), claims.UserID, req.RewardItemID, req.Quantity)
	if err != nil {
		e.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"redemption": redemption,
		"wallet":     wallet,
	})
}

// adminAdjustRequest is the single manual adjustment payload.
type adminAdjustRequest struct {
	Action        string `json:"action"` // credit | debit | refund
	UserID        string `json:"user_id"`
	Amount        int64  `json:"amount"`
	Reason        string `json:"reason"`
	TransactionID string `json:"transaction_id"` // refund only
}

// HandleAdminAdjust applies one manual credit, debit, or refund.
// POST /api/admin/coins
func (e *EconomyAPI) HandleAdminAdjust(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.IdentityFrom(r.Context())

	var req adminAdjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var (
		entry  *domain.LedgerEntry
		wallet *domain.Wallet
		err    error
	)
	switch req.Action {
	case "credit":
		entry, wallet, err = e.Admin.Credit(r.Context(), req.UserID, req.Amount, domain.Reason(req.Reason), claims.UserID)
	case "debit":
		entry, wallet, err = e.Admin.Debit(r.Context(), req.UserID, req.Amount, domain.Reason(req.Reason), claims.UserID)
	case "refund":
		entry, wallet, err = e.Admin.RefundTransaction(r.Context(), req.TransactionID, claims.UserID)
	default:
		writeError(w, http.StatusBadRequest, "unknown action")
		return
	}
	if err != nil {
		e.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"transaction": entry,
		"wallet":      wallet,
	})
}

// HandleAdminBatch applies one adjustment per user, best effort: one user's
// failure never rolls back another's.
// POST /api/admin/coins/batch
func (e *EconomyAPI) HandleAdminBatch(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.IdentityFrom(r.Context())

	var req struct {
		Action  string   `json:"action"`
		UserIDs []string `json:"user_ids"`
		Amount  int64    `json:"amount"`
		Reason  string   `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.UserIDs) == 0 {
		writeError(w, http.StatusBadRequest, "user_ids must not be empty")
		return
	}

	result, err := e.Admin.Batch(r.Context(), economy.BatchAction(req.Action), req.UserIDs, req.Amount, domain.Reason(req.Reason), claims.UserID)
	if err != nil {
		e.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (e *EconomyAPI) recentLimit() int {
	if e.RecentLimit > 0 {
		return e.RecentLimit
	}
	return 20
}

// respondError maps domain outcomes to client-visible statuses. Everything
// in the taxonomy is an expected outcome; anything else is a logged 500.
func (e *EconomyAPI) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUnknownReason),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrSpendCapExceeded),
		errors.Is(err, domain.ErrInvalidRefundTarget),
		errors.Is(err, economy.ErrInvalidBatchAction):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrRuleNotFound),
		errors.Is(err, domain.ErrRewardNotFound),
		errors.Is(err, domain.ErrTransactionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrAlreadyRefunded):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrCooldownActive),
		errors.Is(err, domain.ErrDailyLimitReached):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, domain.ErrInsufficientBalance),
		errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrRewardUnavailable):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		if e.Log != nil {
			e.Log.WithError(err).Error("internal error")
		}
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
