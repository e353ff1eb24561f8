package domain

import (
	"context"
	"time"
)

// ─── Store Interfaces ───────────────────────────────────────────────────────
// These interfaces define boundaries between layers.
// Infrastructure implements them; application layer depends on them.
//
// Every mutating method runs as one atomic transaction in the relational
// store: a ledger entry row is never visible without the wallet change it
// describes, and vice versa.

// WalletStore owns wallet rows and the append-only ledger.
type WalletStore interface {
	// GetOrCreateWallet returns the user's wallet, creating a zeroed one
	// on first reference. Idempotent.
	GetOrCreateWallet(ctx context.Context, userID string) (*Wallet, error)

	// Earn appends an EARN entry and credits the balance. The caller is
	// trusted to have authorized the amount — no rule checks happen here.
	Earn(ctx context.Context, userID string, reason Reason, amount int64, metadata map[string]any) (*LedgerEntry, *Wallet, error)

	// Spend appends a SPEND entry and debits the balance. Fails with
	// ErrInsufficientBalance when amount exceeds the committed balance;
	// the check and the debit are one atomic statement.
	Spend(ctx context.Context, userID string, amount int64, reason Reason, metadata map[string]any) (*LedgerEntry, *Wallet, error)

	// Refund appends a REFUND entry reversing a SPEND. The original entry
	// is referenced, never mutated. A SPEND can be refunded once.
	Refund(ctx context.Context, entryID, actingAdminID string) (*LedgerEntry, *Wallet, error)

	// GetEntry loads a single ledger entry by id.
	GetEntry(ctx context.Context, entryID string) (*LedgerEntry, error)

	// RecentEntries returns the user's most recent ledger entries,
	// newest first.
	RecentEntries(ctx context.Context, userID string, limit int) ([]LedgerEntry, error)

	// CountEarnsOn counts EARN entries for the user+reason within the UTC
	// calendar day containing t.
	CountEarnsOn(ctx context.Context, userID string, reason Reason, t time.Time) (int, error)
}

// RuleStore reads earn rule configuration. Rules are configuration data —
// read-only from the ledger's perspective.
type RuleStore interface {
	ActiveRule(ctx context.Context, task Reason) (*EarnRule, error)
	ListActiveRules(ctx context.Context) ([]EarnRule, error)
	UpsertRule(ctx context.Context, rule EarnRule) error
}

// RewardStore manages the reward catalog and redemptions.
type RewardStore interface {
	GetRewardItem(ctx context.Context, id string) (*RewardItem, error)
	ListRewardItems(ctx context.Context) ([]RewardItem, error)
	UpsertRewardItem(ctx context.Context, item RewardItem) (string, error)

	// RedeemReward debits coins, decrements stock, and records the
	// redemption in one transaction. Stock and balance guards are
	// conditional updates inside that transaction, so concurrent
	// redemptions can never double-decrement either.
	RedeemReward(ctx context.Context, userID, itemID string, quantity int) (*Redemption, *Wallet, error)

	// CountRedemptionsOn counts the user's redemptions of an item within
	// the UTC calendar day containing t.
	CountRedemptionsOn(ctx context.Context, userID, itemID string, t time.Time) (int, error)
}
