package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/sureshield/coinledger/internal/domain"
)

// ─── Wallet Ledger Operations ───────────────────────────────────────────────
// Each exported method is one transaction: exactly one wallet update and
// exactly one ledger append commit together or not at all.

// GetOrCreateWallet returns the user's wallet, creating a zeroed one on
// first reference. Idempotent.
func (db *DB) GetOrCreateWallet(ctx context.Context, userID string) (*domain.Wallet, error) {
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	w, err := getOrCreateWalletTx(ctx, tx, userID, db.now())
	if err != nil {
		return nil, err
	}
	return w, tx.Commit()
}

// Earn credits the wallet and appends an EARN entry. Trusted write path —
// the earning engine or admin service has already authorized the amount.
func (db *DB) Earn(ctx context.Context, userID string, reason domain.Reason, amount int64, metadata map[string]any) (*domain.LedgerEntry, *domain.Wallet, error) {
	if amount <= 0 {
		return nil, nil, domain.ErrInvalidAmount
	}
	now := db.now().UTC()

	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	w, err := getOrCreateWalletTx(ctx, tx, userID, now)
	if err != nil {
		return nil, nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE wallets
		SET balance = balance + ?, total_earned = total_earned + ?, last_updated = ?
		WHERE id = ?
	`, amount, amount, fmtTime(now), w.ID)
	if err != nil {
		return nil, nil, err
	}

	entry, err := insertEntryTx(ctx, tx, w.ID, domain.KindEarn, amount, reason, metadata, "", now)
	if err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}

	w.Balance += amount
	w.TotalEarned += amount
	w.LastUpdated = now
	return entry, w, nil
}

// Spend debits the wallet and appends a SPEND entry. The overdraft guard is
// the conditional UPDATE itself: two concurrent spends serialize on the
// wallet row and the loser sees the decremented balance.
func (db *DB) Spend(ctx context.Context, userID string, amount int64, reason domain.Reason, metadata map[string]any) (*domain.LedgerEntry, *domain.Wallet, error) {
	if amount <= 0 {
		return nil, nil, domain.ErrInvalidAmount
	}
	now := db.now().UTC()

	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	w, err := getOrCreateWalletTx(ctx, tx, userID, now)
	if err != nil {
		return nil, nil, err
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE wallets
		SET balance = balance - ?, total_spent = total_spent + ?, last_updated = ?
		WHERE id = ? AND balance >= ?
	`, amount, amount, fmtTime(now), w.ID, amount)
	if err != nil {
		return nil, nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil, domain.ErrInsufficientBalance
	}

	entry, err := insertEntryTx(ctx, tx, w.ID, domain.KindSpend, amount, reason, metadata, "", now)
	if err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}

	w.Balance -= amount
	w.TotalSpent += amount
	w.LastUpdated = now
	return entry, w, nil
}

// Refund reverses a SPEND entry: credits the balance back, decrements
// total_spent (it tracks net-outstanding spend), and appends a REFUND entry
// referencing the original. The unique index on refund_of makes a second
// refund of the same entry fail before any balance change commits.
func (db *DB) Refund(ctx context.Context, entryID, actingAdminID string) (*domain.LedgerEntry, *domain.Wallet, error) {
	now := db.now().UTC()

	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	orig, err := getEntryTx(ctx, tx, entryID)
	if err != nil {
		return nil, nil, err
	}
	if orig.Kind != domain.KindSpend {
		return nil, nil, domain.ErrInvalidRefundTarget
	}

	var refunded int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ledger_entries WHERE refund_of = ?`, entryID,
	).Scan(&refunded)
	if err != nil {
		return nil, nil, err
	}
	if refunded > 0 {
		return nil, nil, domain.ErrAlreadyRefunded
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE wallets
		SET balance = balance + ?, total_spent = total_spent - ?, last_updated = ?
		WHERE id = ?
	`, orig.Amount, orig.Amount, fmtTime(now), orig.WalletID)
	if err != nil {
		return nil, nil, err
	}

	meta := map[string]any{"refund_of": entryID, "acted_by": actingAdminID}
	entry, err := insertEntryTx(ctx, tx, orig.WalletID, domain.KindRefund, orig.Amount, orig.Reason, meta, entryID, now)
	if err != nil {
		return nil, nil, err
	}

	w, err := getWalletByIDTx(ctx, tx, orig.WalletID)
	if err != nil {
		return nil, nil, err
	}
	return entry, w, tx.Commit()
}

// GetEntry loads a single ledger entry by id.
func (db *DB) GetEntry(ctx context.Context, entryID string) (*domain.LedgerEntry, error) {
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	entry, err := getEntryTx(ctx, tx, entryID)
	if err != nil {
		return nil, err
	}
	return entry, tx.Commit()
}

// RecentEntries returns the user's most recent ledger entries, newest first.
// A user with no wallet yet has an empty history, not an error.
func (db *DB) RecentEntries(ctx context.Context, userID string, limit int) ([]domain.LedgerEntry, error) {
	rows, err := db.db.QueryContext(ctx, `
		SELECT e.id, e.wallet_id, e.kind, e.amount, e.reason, e.metadata_json, e.refund_of, e.created_at
		FROM ledger_entries e
		JOIN wallets w ON w.id = e.wallet_id
		WHERE w.user_id = ?
		ORDER BY e.rowid DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

// CountEarnsOn counts EARN entries for the user+reason within the UTC
// calendar day containing t. Usable inside rule checks.
func (db *DB) CountEarnsOn(ctx context.Context, userID string, reason domain.Reason, t time.Time) (int, error) {
	start, end := domain.DayWindow(t)
	var count int
	err := db.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM ledger_entries e
		JOIN wallets w ON w.id = e.wallet_id
		WHERE w.user_id = ? AND e.reason = ? AND e.kind = 'EARN'
		  AND e.created_at >= ? AND e.created_at < ?
	`, userID, string(reason), fmtTime(start), fmtTime(end)).Scan(&count)
	return count, err
}

// ─── Transaction-Scoped Helpers ─────────────────────────────────────────────

func getOrCreateWalletTx(ctx context.Context, tx *sql.Tx, userID string, now time.Time) (*domain.Wallet, error) {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO wallets (id, user_id, last_updated)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO NOTHING
	`, uuid.NewString(), userID, fmtTime(now.UTC()))
	if err != nil {
		return nil, err
	}

	w := &domain.Wallet{}
	var lastUpdated string
	err = tx.QueryRowContext(ctx, `
		SELECT id, user_id, balance, total_earned, total_spent, last_updated
		FROM wallets WHERE user_id = ?
	`, userID).Scan(&w.ID, &w.UserID, &w.Balance, &w.TotalEarned, &w.TotalSpent, &lastUpdated)
	if err != nil {
		return nil, err
	}
	w.LastUpdated = parseTime(lastUpdated)
	return w, nil
}

func getWalletByIDTx(ctx context.Context, tx *sql.Tx, walletID string) (*domain.Wallet, error) {
	w := &domain.Wallet{}
	var lastUpdated string
	err := tx.QueryRowContext(ctx, `
		SELECT id, user_id, balance, total_earned, total_spent, last_updated
		FROM wallets WHERE id = ?
	`, walletID).Scan(&w.ID, &w.UserID, &w.Balance, &w.TotalEarned, &w.TotalSpent, &lastUpdated)
	if err != nil {
		return nil, err
	}
	w.LastUpdated = parseTime(lastUpdated)
	return w, nil
}

func insertEntryTx(ctx context.Context, tx *sql.Tx, walletID string, kind domain.Kind, amount int64, reason domain.Reason, metadata map[string]any, refundOf string, now time.Time) (*domain.LedgerEntry, error) {
	entry := &domain.LedgerEntry{
		ID:        uuid.NewString(),
		WalletID:  walletID,
		Kind:      kind,
		Amount:    amount,
		Reason:    reason,
		Metadata:  metadata,
		RefundOf:  refundOf,
		CreatedAt: now,
	}

	var refundVal any
	if refundOf != "" {
		refundVal = refundOf
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO ledger_entries (id, wallet_id, kind, amount, reason, metadata_json, refund_of, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, walletID, string(kind), amount, string(reason), marshalMeta(metadata), refundVal, fmtTime(now))
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*domain.LedgerEntry, error) {
	entry := &domain.LedgerEntry{}
	var kind, reason, meta, createdAt string
	var refundOf sql.NullString
	err := row.Scan(&entry.ID, &entry.WalletID, &kind, &entry.Amount, &reason, &meta, &refundOf, &createdAt)
	if err != nil {
		return nil, err
	}
	entry.Kind = domain.Kind(kind)
	entry.Reason = domain.Reason(reason)
	entry.Metadata = unmarshalMeta(meta)
	entry.RefundOf = refundOf.String
	entry.CreatedAt = parseTime(createdAt)
	return entry, nil
}

func getEntryTx(ctx context.Context, tx *sql.Tx, entryID string) (*domain.LedgerEntry, error) {
	row := tx.QueryRowContext(ctx, `
		SELECT id, wallet_id, kind, amount, reason, metadata_json, refund_of, created_at
		FROM ledger_entries WHERE id = ?
	`, entryID)
	entry, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, domain.ErrTransactionNotFound
	}
	return entry, err
}
