package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Simplici0/printledger/internal/pricing"
)

// Item is a manufactured product with its pricing frozen at creation time.
type Item struct {
	ID               int64    `json:"id"`
	Name             string   `json:"name"`
	Color            *string  `json:"color"`
	FilamentID       *int64   `json:"filament_id"`
	FilamentColor    *string  `json:"filament_color"`
	FilamentBrand    *string  `json:"filament_brand"`
	GramsUsed        *float64 `json:"grams_used"`
	MaterialCost     float64  `json:"material_cost"`
	PrintTimeHours   float64  `json:"print_time_hours"`
	HourlyRate       float64  `json:"hourly_rate"`
	LaborCost        float64  `json:"labor_cost"`
	ElectricityKW    float64  `json:"electricity_kw"`
	ElectricityCost  float64  `json:"electricity_cost"`
	TotalCostNoLabor float64  `json:"total_cost_no_labor"`
	ProfitMargin     float64  `json:"profit_margin"`
	FinalPrice       float64  `json:"final_price"`
	BuildPrice       float64  `json:"build_price"`
	CreatedAt        string   `json:"created_at"`
}

// ItemDraft holds the descriptive item fields that are stored next to the pricing snapshot.
type ItemDraft struct {
	Name       string
	Color      *string
	FilamentID *int64
	GramsUsed  *float64
}

const itemSelect = `
	SELECT
		i.id, i.name, i.color, i.filament_id, f.color_name, f.brand,
		i.grams_used, i.material_cost, i.print_time_hours, i.hourly_rate, i.labor_cost,
		i.electricity_kw, i.electricity_cost, i.total_cost_no_labor,
		i.profit_margin, i.final_price, i.build_price, i.created_at
	FROM items i
	LEFT JOIN filaments f ON f.id = i.filament_id
`

func scanItem(row rowScanner) (Item, error) {
	var it Item
	var color, filamentColor, filamentBrand sql.NullString
	var filamentID sql.NullInt64
	var grams sql.NullFloat64
	err := row.Scan(
		&it.ID, &it.Name, &color, &filamentID, &filamentColor, &filamentBrand,
		&grams, &it.MaterialCost, &it.PrintTimeHours, &it.HourlyRate, &it.LaborCost,
		&it.ElectricityKW, &it.ElectricityCost, &it.TotalCostNoLabor,
		&it.ProfitMargin, &it.FinalPrice, &it.BuildPrice, &it.CreatedAt,
	)
	it.Color = stringPtr(color)
	it.FilamentID = int64Ptr(filamentID)
	it.FilamentColor = stringPtr(filamentColor)
	it.FilamentBrand = stringPtr(filamentBrand)
	it.GramsUsed = floatPtr(grams)
	return it, err
}

// ListItems returns all items joined with their filament's display fields, newest first.
func (s *Store) ListItems(ctx context.Context) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx, itemSelect+` ORDER BY i.created_at DESC, i.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}

	return items, nil
}

// GetItem returns one item or ErrNotFound.
func (s *Store) GetItem(ctx context.Context, id int64) (Item, error) {
	it, err := scanItem(s.db.QueryRowContext(ctx, itemSelect+` WHERE i.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Item{}, ErrNotFound
	}
	if err != nil {
		return Item{}, fmt.Errorf("query item: %w", err)
	}
	return it, nil
}

// CreateItem persists an item together with its pricing snapshot.
func (s *Store) CreateItem(ctx context.Context, draft ItemDraft, snap pricing.Snapshot) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO items (
			name, color, filament_id, grams_used, material_cost,
			print_time_hours, hourly_rate, labor_cost,
			electricity_kw, electricity_cost, total_cost_no_labor,
			profit_margin, final_price, build_price
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		draft.Name, nullableText(draft.Color), nullable(draft.FilamentID), nullable(draft.GramsUsed), snap.MaterialCost,
		snap.PrintTimeHours, snap.HourlyRate, snap.LaborCost,
		snap.ElectricityKW, snap.ElectricityCost, snap.TotalCostNoLabor,
		snap.ProfitMargin, snap.FinalPrice, snap.BuildPrice,
	)
	if isForeignKeyViolation(err) {
		return 0, ErrInvalidReference
	}
	if err != nil {
		return 0, fmt.Errorf("insert item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read item id: %w", err)
	}
	return id, nil
}

// DeleteItem removes an item; its orders are removed by the ON DELETE CASCADE constraint.
func (s *Store) DeleteItem(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return requireAffected(result)
}
