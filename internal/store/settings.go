package store

import (
	"context"
	"fmt"

	"github.com/Simplici0/printledger/internal/pricing"
)

// ResolveSettings reads every persisted setting and merges it over the defaults.
func (s *Store) ResolveSettings(ctx context.Context) (pricing.Settings, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT setting_key, setting_value FROM business_settings`)
	if err != nil {
		return pricing.Settings{}, fmt.Errorf("query settings: %w", err)
	}
	defer rows.Close()

	raw := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return pricing.Settings{}, fmt.Errorf("scan setting: %w", err)
		}
		raw[key] = value
	}
	if err := rows.Err(); err != nil {
		return pricing.Settings{}, fmt.Errorf("iterate settings: %w", err)
	}

	return pricing.ParseStored(raw).WithDefaults(), nil
}

// UpsertSettings writes every set field of update, leaving other keys untouched.
func (s *Store) UpsertSettings(ctx context.Context, update pricing.StoredSettings) error {
	pairs := update.Pairs()
	if len(pairs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin settings transaction: %w", err)
	}
	defer tx.Rollback()

	for key, value := range pairs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO business_settings (setting_key, setting_value)
			VALUES (?, ?)
			ON CONFLICT(setting_key) DO UPDATE SET
				setting_value = excluded.setting_value,
				updated_at = CURRENT_TIMESTAMP
		`, key, value); err != nil {
			return fmt.Errorf("upsert setting %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit settings transaction: %w", err)
	}
	return nil
}
