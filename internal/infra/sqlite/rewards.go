package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/sureshield/coinledger/internal/domain"
)

// ─── Reward Catalog Operations ──────────────────────────────────────────────

// GetRewardItem loads a catalog item. Inactive items are invisible:
// ErrRewardNotFound, same as a missing row.
func (db *DB) GetRewardItem(ctx context.Context, id string) (*domain.RewardItem, error) {
	row := db.db.QueryRowContext(ctx, `
		SELECT id, name, coin_cost, category, stock, max_per_day, is_available, is_active, redeemed_count
		FROM reward_items WHERE id = ? AND is_active = 1
	`, id)
	item, err := scanRewardItem(row)
	if err == sql.ErrNoRows {
		return nil, domain.ErrRewardNotFound
	}
	return item, err
}

// ListRewardItems returns all active catalog items.
func (db *DB) ListRewardItems(ctx context.Context) ([]domain.RewardItem, error) {
	rows, err := db.db.QueryContext(ctx, `
		SELECT id, name, coin_cost, category, stock, max_per_day, is_available, is_active, redeemed_count
		FROM reward_items WHERE is_active = 1 ORDER BY category, name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.RewardItem
	for rows.Next() {
		item, err := scanRewardItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// UpsertRewardItem inserts or updates a catalog item, generating an id when
// absent. Returns the item's id.
func (db *DB) UpsertRewardItem(ctx context.Context, item domain.RewardItem) (string, error) {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	available, active := 0, 0
	if item.IsAvailable {
		available = 1
	}
	if item.IsActive {
		active = 1
	}
	_, err := db.db.ExecContext(ctx, `
		INSERT INTO reward_items (id, name, coin_cost, category, stock, max_per_day, is_available, is_active, redeemed_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name         = excluded.name,
			coin_cost    = excluded.coin_cost,
			category     = excluded.category,
			stock        = excluded.stock,
			max_per_day  = excluded.max_per_day,
			is_available = excluded.is_available,
			is_active    = excluded.is_active
	`, item.ID, item.Name, item.CoinCost, item.Category, item.Stock, item.MaxPerDay, available, active, item.RedeemedCount)
	return item.ID, err
}

// RedeemReward turns a redemption request into an atomic
// debit-plus-stock-decrement. One transaction covers the stock guard, the
// spend, and the redemption row; if any step fails nothing is persisted —
// no partial stock decrement.
func (db *DB) RedeemReward(ctx context.Context, userID, itemID string, quantity int) (*domain.Redemption, *domain.Wallet, error) {
	if quantity < 1 {
		return nil, nil, domain.ErrInvalidQuantity
	}
	now := db.now().UTC()

	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	var coinCost int64
	var available int
	err = tx.QueryRowContext(ctx, `
		SELECT coin_cost, is_available FROM reward_items WHERE id = ? AND is_active = 1
	`, itemID).Scan(&coinCost, &available)
	if err == sql.ErrNoRows {
		return nil, nil, domain.ErrRewardNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	if available != 1 {
		return nil, nil, domain.ErrRewardUnavailable
	}

	// Stock guard: conditional decrement, losers of a race see zero rows.
	res, err := tx.ExecContext(ctx, `
		UPDATE reward_items
		SET stock = stock - ?, redeemed_count = redeemed_count + ?
		WHERE id = ? AND stock >= ?
	`, quantity, quantity, itemID, quantity)
	if err != nil {
		return nil, nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil, domain.ErrInsufficientStock
	}

	totalCost := coinCost * int64(quantity)

	w, err := getOrCreateWalletTx(ctx, tx, userID, now)
	if err != nil {
		return nil, nil, err
	}

	res, err = tx.ExecContext(ctx, `
		UPDATE wallets
		SET balance = balance - ?, total_spent = total_spent + ?, last_updated = ?
		WHERE id = ? AND balance >= ?
	`, totalCost, totalCost, fmtTime(now), w.ID, totalCost)
	if err != nil {
		return nil, nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil, domain.ErrInsufficientBalance
	}

	redemptionID := uuid.NewString()
	meta := map[string]any{
		"reward_item_id": itemID,
		"quantity":       quantity,
		"redemption_id":  redemptionID,
	}
	if _, err := insertEntryTx(ctx, tx, w.ID, domain.KindSpend, totalCost, domain.ReasonReward, meta, "", now); err != nil {
		return nil, nil, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO redemptions (id, wallet_id, reward_item_id, coins_cost, quantity, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, redemptionID, w.ID, itemID, totalCost, quantity, string(domain.RedemptionPending), fmtTime(now))
	if err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}

	w.Balance -= totalCost
	w.TotalSpent += totalCost
	w.LastUpdated = now

	return &domain.Redemption{
		ID:           redemptionID,
		WalletID:     w.ID,
		RewardItemID: itemID,
		CoinsCost:    totalCost,
		Quantity:     quantity,
		Status:       domain.RedemptionPending,
		CreatedAt:    now,
	}, w, nil
}

// CountRedemptionsOn counts the user's redemptions of an item within the
// UTC calendar day containing t.
func (db *DB) CountRedemptionsOn(ctx context.Context, userID, itemID string, t time.Time) (int, error) {
	start, end := domain.DayWindow(t)
	var count int
	err := db.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM redemptions r
		JOIN wallets w ON w.id = r.wallet_id
		WHERE w.user_id = ? AND r.reward_item_id = ?
		  AND r.created_at >= ? AND r.created_at < ?
	`, userID, itemID, fmtTime(start), fmtTime(end)).Scan(&count)
	return count, err
}

func scanRewardItem(row scanner) (*domain.RewardItem, error) {
	item := &domain.RewardItem{}
	var available, active int
	err := row.Scan(&item.ID, &item.Name, &item.CoinCost, &item.Category, &item.Stock,
		&item.MaxPerDay, &available, &active, &item.RedeemedCount)
	if err != nil {
		return nil, err
	}
	item.IsAvailable = available == 1
	item.IsActive = active == 1
	return item, nil
}
