// Package sqlite persists wallets, the append-only coin ledger, earn rules,
// the reward catalog, and redemptions.
//
// Every mutating operation runs inside one transaction, and the overdraft /
// stock guards are conditional UPDATE statements evaluated by the store, so
// concurrent callers serialize on the wallet row rather than on any
// application-level lock. The ledger_entries table is append-only: no code
// path issues UPDATE or DELETE against it — corrections are REFUND rows.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"time"

	_ "modernc.org/sqlite"
)

// timeLayout is RFC 3339 with fixed nine-digit fractions so stored UTC
// timestamps compare correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// DB wraps the SQLite handle.
type DB struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the database at path and runs migrations.
// WAL mode for crash safety; a single writer connection so ledger
// transactions serialize in the store instead of failing with SQLITE_BUSY.
func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	handle, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	handle.SetMaxOpenConns(1)

	db := &DB{db: handle, now: time.Now}
	if err := db.migrate(); err != nil {
		handle.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the underlying handle.
func (db *DB) Close() error { return db.db.Close() }

// SetClock overrides the time source. Tests use this to cross day
// boundaries without sleeping.
func (db *DB) SetClock(now func() time.Time) { db.now = now }

// Migrations returns the schema migration statements.
// Each string is a single SQL statement (SQLite executes one at a time).
func Migrations() []string {
	return []string{
		// One wallet per user, created lazily on first reference.
		`CREATE TABLE IF NOT EXISTS wallets (
			id           TEXT PRIMARY KEY,
			user_id      TEXT NOT NULL UNIQUE,
			balance      INTEGER NOT NULL DEFAULT 0 CHECK(balance >= 0),
			total_earned INTEGER NOT NULL DEFAULT 0,
			total_spent  INTEGER NOT NULL DEFAULT 0,
			last_updated TEXT NOT NULL
		)`,

		// Append-only transaction log. refund_of carries the idempotency
		// guard: a SPEND can be referenced by at most one REFUND.
		`CREATE TABLE IF NOT EXISTS ledger_entries (
			id            TEXT PRIMARY KEY,
			wallet_id     TEXT NOT NULL REFERENCES wallets(id),
			kind          TEXT NOT NULL CHECK(kind IN ('EARN','SPEND','REFUND')),
			amount        INTEGER NOT NULL CHECK(amount > 0),
			reason        TEXT NOT NULL,
			metadata_json TEXT NOT NULL DEFAULT '{}',
			refund_of     TEXT,
			created_at    TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_wallet ON ledger_entries(wallet_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_wallet_reason ON ledger_entries(wallet_id, reason, kind, created_at)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_ledger_refund_of ON ledger_entries(refund_of) WHERE refund_of IS NOT NULL`,

		// Earning rule configuration, one active row per task type.
		`CREATE TABLE IF NOT EXISTS earn_rules (
			task_type        TEXT PRIMARY KEY,
			coin_amount      INTEGER NOT NULL,
			cooldown_minutes INTEGER NOT NULL DEFAULT 0,
			max_per_day      INTEGER NOT NULL DEFAULT 1,
			is_active        INTEGER NOT NULL DEFAULT 1
		)`,

		// Reward catalog with finite stock.
		`CREATE TABLE IF NOT EXISTS reward_items (
			id             TEXT PRIMARY KEY,
			name           TEXT NOT NULL,
			coin_cost      INTEGER NOT NULL CHECK(coin_cost > 0),
			category       TEXT NOT NULL DEFAULT 'general',
			stock          INTEGER NOT NULL DEFAULT 0 CHECK(stock >= 0),
			max_per_day    INTEGER NOT NULL DEFAULT 1,
			is_available   INTEGER NOT NULL DEFAULT 1,
			is_active      INTEGER NOT NULL DEFAULT 1,
			redeemed_count INTEGER NOT NULL DEFAULT 0
		)`,

		// Successful reward purchases. coins_cost is snapshotted.
		`CREATE TABLE IF NOT EXISTS redemptions (
			id               TEXT PRIMARY KEY,
			wallet_id        TEXT NOT NULL REFERENCES wallets(id),
			reward_item_id   TEXT NOT NULL REFERENCES reward_items(id),
			coins_cost       INTEGER NOT NULL,
			quantity         INTEGER NOT NULL,
			status           TEXT NOT NULL DEFAULT 'PENDING',
			fulfillment_json TEXT NOT NULL DEFAULT '{}',
			created_at       TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_redemptions_wallet_item ON redemptions(wallet_id, reward_item_id, created_at)`,
	}
}

func (db *DB) migrate() error {
	for _, stmt := range Migrations() {
		if _, err := db.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// ─── Shared Helpers ─────────────────────────────────────────────────────────

func fmtTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}

func marshalMeta(m map[string]any) string {
	if len(m) == 0 {
		return "{}"
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(data)
}

func unmarshalMeta(s string) map[string]any {
	if s == "" || s == "{}" {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil
	}
	return m
}
