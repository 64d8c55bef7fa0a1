package seed

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/Simplici0/printledger/internal/pricing"
)

const (
	defaultFilamentColor    = "Black"
	defaultFilamentBrand    = "Bambu Lab"
	defaultFilamentMaterial = "PLA"
	defaultFilamentPrice    = 20.0
)

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
}

// Run executes the startup seed in an idempotent way.
func Run(ctx context.Context, db *sql.DB) (Stats, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}

	if err := ensureSettings(ctx, tx, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	if err := ensureFilament(ctx, tx, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

// ensureSettings writes every default that is not already persisted.
// Existing values are never overwritten.
func ensureSettings(ctx context.Context, tx *sql.Tx, stats *Stats) error {
	defaults := pricing.DefaultSettings()
	values := map[string]string{
		pricing.KeyHourlyRate:            strconv.FormatFloat(defaults.HourlyRate, 'f', -1, 64),
		pricing.KeyElectricityCostPerKWh: strconv.FormatFloat(defaults.ElectricityCostPerKWh, 'f', -1, 64),
		pricing.KeyPrinterPowerW:         strconv.FormatFloat(defaults.PrinterPowerW, 'f', -1, 64),
		pricing.KeyProfitMargin:          strconv.FormatFloat(defaults.ProfitMargin, 'f', -1, 64),
		pricing.KeyCurrency:              defaults.Currency,
	}

	for key, value := range values {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO business_settings (setting_key, setting_value)
			VALUES (?, ?)
			ON CONFLICT(setting_key) DO NOTHING
		`, key, value)
		if err != nil {
			return fmt.Errorf("insert default setting %s: %w", key, err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("read seeded setting %s: %w", key, err)
		}
		stats.Inserts += int(n)
	}
	return nil
}

func ensureFilament(ctx context.Context, tx *sql.Tx, stats *Stats) error {
	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM filaments LIMIT 1)`).Scan(&exists); err != nil {
		return fmt.Errorf("check filament existence: %w", err)
	}
	if exists {
		return nil
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO filaments (color_name, brand, material, diameter_mm, price_per_kg, cost_per_gram)
		VALUES (?, ?, ?, ?, ?, ?)
	`, defaultFilamentColor, defaultFilamentBrand, defaultFilamentMaterial, 1.75, defaultFilamentPrice, pricing.CostPerGram(defaultFilamentPrice)); err != nil {
		return fmt.Errorf("insert default filament: %w", err)
	}
	stats.Inserts++
	return nil
}
