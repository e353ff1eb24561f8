// Package domain contains pure coin-economy types with ZERO infrastructure
// imports. This is the innermost ring — it depends on nothing.
package domain

import "time"

// ─── Ledger Types ───────────────────────────────────────────────────────────

// Kind is the accounting direction of a ledger entry.
type Kind string

const (
	KindEarn   Kind = "EARN"
	KindSpend  Kind = "SPEND"
	KindRefund Kind = "REFUND"
)

// Reason is the business cause of a balance change. It is a closed set:
// the earning engine is the only place a reason maps to a coin amount,
// so no other code carries per-reason magic numbers.
type Reason string

const (
	ReasonSignUp         Reason = "SIGN_UP"
	ReasonDailyLogin     Reason = "DAILY_LOGIN"
	ReasonPolicyPurchase Reason = "POLICY_PURCHASE"
	ReasonReferral       Reason = "REFERRAL"
	ReasonHealthQuiz     Reason = "HEALTH_QUIZ"
	ReasonDocumentUpload Reason = "DOCUMENT_UPLOAD"
	ReasonAdminCredit    Reason = "ADMIN_CREDIT"
	ReasonAdminDebit     Reason = "ADMIN_DEBIT"
	ReasonReward         Reason = "REWARD"
)

// Reasons lists every known reason, in a stable order.
func Reasons() []Reason {
	return []Reason{
		ReasonSignUp,
		ReasonDailyLogin,
		ReasonPolicyPurchase,
		ReasonReferral,
		ReasonHealthQuiz,
		ReasonDocumentUpload,
		ReasonAdminCredit,
		ReasonAdminDebit,
		ReasonReward,
	}
}

// Valid reports whether r is a member of the closed reason set.
func (r Reason) Valid() bool {
	for _, known := range Reasons() {
		if r == known {
			return true
		}
	}
	return false
}

// Wallet is the per-user coin balance record, 1:1 with a user.
// Created lazily on first reference; mutated only by the wallet ledger.
type Wallet struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Balance     int64     `json:"balance"`
	TotalEarned int64     `json:"total_earned"`
	TotalSpent  int64     `json:"total_spent"`
	LastUpdated time.Time `json:"last_updated"`
}

// LedgerEntry is one immutable, append-only record of a balance change.
// A REFUND references its originating SPEND via RefundOf; the original
// entry is never touched.
type LedgerEntry struct {
	ID        string         `json:"id"`
	WalletID  string         `json:"wallet_id"`
	Kind      Kind           `json:"kind"`
	Amount    int64          `json:"amount"`
	Reason    Reason         `json:"reason"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	RefundOf  string         `json:"refund_of,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// ─── Configuration Types ────────────────────────────────────────────────────

// EarnRule configures how a task type grants coins: the amount per
// completion, the cooldown between completions, and a per-day cap.
// One active rule per task type.
type EarnRule struct {
	TaskType        Reason `json:"task_type"`
	CoinAmount      int64  `json:"coin_amount"`
	CooldownMinutes int    `json:"cooldown_minutes"`
	MaxPerDay       int    `json:"max_per_day"`
	IsActive        bool   `json:"is_active"`
}

// Cooldown returns the rule's cooldown as a duration.
func (r EarnRule) Cooldown() time.Duration {
	return time.Duration(r.CooldownMinutes) * time.Minute
}

// ─── Reward Types ───────────────────────────────────────────────────────────

// RewardItem is a catalog entry with finite stock.
type RewardItem struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	CoinCost      int64  `json:"coin_cost"`
	Category      string `json:"category"`
	Stock         int64  `json:"stock"`
	MaxPerDay     int    `json:"max_per_day"`
	IsAvailable   bool   `json:"is_available"`
	IsActive      bool   `json:"is_active"`
	RedeemedCount int64  `json:"redeemed_count"`
}

// RedemptionStatus tracks fulfillment of a reward purchase.
type RedemptionStatus string

const (
	RedemptionPending   RedemptionStatus = "PENDING"
	RedemptionFulfilled RedemptionStatus = "FULFILLED"
	RedemptionCancelled RedemptionStatus = "CANCELLED"
)

// Redemption records a successful reward purchase. CoinsCost snapshots
// coin_cost × quantity at redemption time, so later catalog price changes
// never rewrite history.
type Redemption struct {
	ID              string           `json:"id"`
	WalletID        string           `json:"wallet_id"`
	RewardItemID    string           `json:"reward_item_id"`
	CoinsCost       int64            `json:"coins_cost"`
	Quantity        int              `json:"quantity"`
	Status          RedemptionStatus `json:"status"`
	FulfillmentData map[string]any   `json:"fulfillment_data,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}

// ─── Rate Limiting Types ────────────────────────────────────────────────────

// RateDecision is the outcome of a fixed-window rate limit check.
type RateDecision struct {
	Allowed   bool      `json:"allowed"`
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"reset_at"`
}

// ─── Time Helpers ───────────────────────────────────────────────────────────

// DayWindow returns the UTC calendar-day bounds [start, end) containing t.
// Daily caps are counted against these bounds.
func DayWindow(t time.Time) (start, end time.Time) {
	u := t.UTC()
	start = time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.Add(24 * time.Hour)
}
