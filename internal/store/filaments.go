package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Simplici0/printledger/internal/pricing"
)

// Filament is a spool type available for printing.
type Filament struct {
	ID          int64   `json:"id"`
	ColorName   string  `json:"color_name"`
	Brand       string  `json:"brand"`
	Material    string  `json:"material"`
	DiameterMM  float64 `json:"diameter_mm"`
	PricePerKg  float64 `json:"price_per_kg"`
	CostPerGram float64 `json:"cost_per_gram"`
	Notes       *string `json:"notes"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// FilamentInput holds the user-entered filament fields.
type FilamentInput struct {
	ColorName  string
	Brand      string
	Material   string
	DiameterMM float64
	PricePerKg float64
	Notes      *string
}

const filamentColumns = `id, color_name, brand, material, diameter_mm, price_per_kg, cost_per_gram, notes, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFilament(row rowScanner) (Filament, error) {
	var f Filament
	var notes sql.NullString
	err := row.Scan(&f.ID, &f.ColorName, &f.Brand, &f.Material, &f.DiameterMM, &f.PricePerKg, &f.CostPerGram, &notes, &f.CreatedAt, &f.UpdatedAt)
	f.Notes = stringPtr(notes)
	return f, err
}

// ListFilaments returns all filaments ordered by color name.
func (s *Store) ListFilaments(ctx context.Context) ([]Filament, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+filamentColumns+` FROM filaments ORDER BY color_name COLLATE NOCASE, id`)
	if err != nil {
		return nil, fmt.Errorf("query filaments: %w", err)
	}
	defer rows.Close()

	filaments := make([]Filament, 0)
	for rows.Next() {
		f, err := scanFilament(rows)
		if err != nil {
			return nil, fmt.Errorf("scan filament: %w", err)
		}
		filaments = append(filaments, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate filaments: %w", err)
	}

	return filaments, nil
}

// GetFilament returns one filament or ErrNotFound.
func (s *Store) GetFilament(ctx context.Context, id int64) (Filament, error) {
	f, err := scanFilament(s.db.QueryRowContext(ctx, `SELECT `+filamentColumns+` FROM filaments WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Filament{}, ErrNotFound
	}
	if err != nil {
		return Filament{}, fmt.Errorf("query filament: %w", err)
	}
	return f, nil
}

// CreateFilament inserts a filament, deriving cost_per_gram from price_per_kg.
func (s *Store) CreateFilament(ctx context.Context, in FilamentInput) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO filaments (color_name, brand, material, diameter_mm, price_per_kg, cost_per_gram, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, in.ColorName, in.Brand, in.Material, in.DiameterMM, in.PricePerKg, pricing.CostPerGram(in.PricePerKg), nullableText(in.Notes))
	if err != nil {
		return 0, fmt.Errorf("insert filament: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read filament id: %w", err)
	}
	return id, nil
}

// UpdateFilament edits a filament. cost_per_gram is re-derived for future items;
// items that already reference the filament keep their frozen costs.
func (s *Store) UpdateFilament(ctx context.Context, id int64, in FilamentInput) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE filaments
		SET
			color_name = ?,
			brand = ?,
			material = ?,
			diameter_mm = ?,
			price_per_kg = ?,
			cost_per_gram = ?,
			notes = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, in.ColorName, in.Brand, in.Material, in.DiameterMM, in.PricePerKg, pricing.CostPerGram(in.PricePerKg), nullableText(in.Notes), id)
	if err != nil {
		return fmt.Errorf("update filament: %w", err)
	}

	return requireAffected(result)
}

// DeleteFilament removes a filament. It returns ErrInUse while any item references it.
func (s *Store) DeleteFilament(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin filament delete: %w", err)
	}
	defer tx.Rollback()

	var inUse bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM items WHERE filament_id = ?)`, id).Scan(&inUse); err != nil {
		return fmt.Errorf("check filament usage: %w", err)
	}
	if inUse {
		return ErrInUse
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM filaments WHERE id = ?`, id)
	if isForeignKeyViolation(err) {
		return ErrInUse
	}
	if err != nil {
		return fmt.Errorf("delete filament: %w", err)
	}
	if err := requireAffected(result); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit filament delete: %w", err)
	}
	return nil
}
