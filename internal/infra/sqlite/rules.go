package sqlite

import (
	"context"
	"database/sql"

	"github.com/sureshield/coinledger/internal/domain"
)

// ─── Earn Rule Operations ───────────────────────────────────────────────────
// Rules are configuration data: read-only from the ledger's perspective,
// written only by seeding and admin tooling.

// ActiveRule returns the active rule for a task type, or ErrRuleNotFound.
func (db *DB) ActiveRule(ctx context.Context, task domain.Reason) (*domain.EarnRule, error) {
	rule := &domain.EarnRule{}
	var taskType string
	var active int
	err := db.db.QueryRowContext(ctx, `
		SELECT task_type, coin_amount, cooldown_minutes, max_per_day, is_active
		FROM earn_rules WHERE task_type = ? AND is_active = 1
	`, string(task)).Scan(&taskType, &rule.CoinAmount, &rule.CooldownMinutes, &rule.MaxPerDay, &active)
	if err == sql.ErrNoRows {
		return nil, domain.ErrRuleNotFound
	}
	if err != nil {
		return nil, err
	}
	rule.TaskType = domain.Reason(taskType)
	rule.IsActive = active == 1
	return rule, nil
}

// ListActiveRules returns all active rules, for the "ways to earn" display.
func (db *DB) ListActiveRules(ctx context.Context) ([]domain.EarnRule, error) {
	rows, err := db.db.QueryContext(ctx, `
		SELECT task_type, coin_amount, cooldown_minutes, max_per_day, is_active
		FROM earn_rules WHERE is_active = 1 ORDER BY task_type
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []domain.EarnRule
	for rows.Next() {
		var rule domain.EarnRule
		var taskType string
		var active int
		if err := rows.Scan(&taskType, &rule.CoinAmount, &rule.CooldownMinutes, &rule.MaxPerDay, &active); err != nil {
			return nil, err
		}
		rule.TaskType = domain.Reason(taskType)
		rule.IsActive = active == 1
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// UpsertRule inserts or replaces the rule for a task type.
func (db *DB) UpsertRule(ctx context.Context, rule domain.EarnRule) error {
	active := 0
	if rule.IsActive {
		active = 1
	}
	_, err := db.db.ExecContext(ctx, `
		INSERT INTO earn_rules (task_type, coin_amount, cooldown_minutes, max_per_day, is_active)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(task_type) DO UPDATE SET
			coin_amount      = excluded.coin_amount,
			cooldown_minutes = excluded.cooldown_minutes,
			max_per_day      = excluded.max_per_day,
			is_active        = excluded.is_active
	`, string(rule.TaskType), rule.CoinAmount, rule.CooldownMinutes, rule.MaxPerDay, active)
	return err
}
