package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Simplici0/printledger/internal/pricing"
)

// Order is a sale of an item joined with the item's frozen cost fields.
type Order struct {
	ID        int64
	ItemID    int64
	Quantity  int
	SalePrice float64
	SaleDate  string
	Notes     *string
	Paid      bool
	Delivered bool
	CreatedAt string

	ItemName        string
	ItemColor       *string
	MaterialCost    float64
	LaborCost       float64
	ElectricityCost float64
	FinalPrice      float64
	BuildPrice      float64
	PrintTimeHours  float64
}

// Line returns the order as an input row for the aggregator.
func (o Order) Line() pricing.OrderLine {
	return pricing.OrderLine{
		Quantity:        o.Quantity,
		SalePrice:       o.SalePrice,
		MaterialCost:    o.MaterialCost,
		LaborCost:       o.LaborCost,
		ElectricityCost: o.ElectricityCost,
		BuildPrice:      o.BuildPrice,
		PrintTimeHours:  o.PrintTimeHours,
	}
}

// OrderInput holds the user-entered order fields.
type OrderInput struct {
	ItemID    int64
	Quantity  int
	SalePrice float64
	SaleDate  string
	Notes     *string
	Paid      bool
	Delivered bool
}

// ListOrders returns all orders with their item fields, most recent sale first.
func (s *Store) ListOrders(ctx context.Context) ([]Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			o.id, o.item_id, o.quantity, o.sale_price, o.sale_date, o.notes,
			o.paid, o.delivered, o.created_at,
			i.name, i.color, i.material_cost, i.labor_cost, i.electricity_cost,
			i.final_price, i.build_price, i.print_time_hours
		FROM orders o
		JOIN items i ON i.id = o.item_id
		ORDER BY o.sale_date DESC, o.created_at DESC, o.id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]Order, 0)
	for rows.Next() {
		var o Order
		var notes, color sql.NullString
		if err := rows.Scan(
			&o.ID, &o.ItemID, &o.Quantity, &o.SalePrice, &o.SaleDate, &notes,
			&o.Paid, &o.Delivered, &o.CreatedAt,
			&o.ItemName, &color, &o.MaterialCost, &o.LaborCost, &o.ElectricityCost,
			&o.FinalPrice, &o.BuildPrice, &o.PrintTimeHours,
		); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o.Notes = stringPtr(notes)
		o.ItemColor = stringPtr(color)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}

	return orders, nil
}

// ListOrderLines returns every order as an aggregator row.
func (s *Store) ListOrderLines(ctx context.Context) ([]pricing.OrderLine, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			o.quantity, o.sale_price,
			i.material_cost, i.labor_cost, i.electricity_cost, i.build_price, i.print_time_hours
		FROM orders o
		JOIN items i ON i.id = o.item_id
	`)
	if err != nil {
		return nil, fmt.Errorf("query order lines: %w", err)
	}
	defer rows.Close()

	lines := make([]pricing.OrderLine, 0)
	for rows.Next() {
		var l pricing.OrderLine
		if err := rows.Scan(&l.Quantity, &l.SalePrice, &l.MaterialCost, &l.LaborCost, &l.ElectricityCost, &l.BuildPrice, &l.PrintTimeHours); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order lines: %w", err)
	}

	return lines, nil
}

// CreateOrder inserts an order. It returns ErrInvalidReference when the item does not exist.
func (s *Store) CreateOrder(ctx context.Context, in OrderInput) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO orders (item_id, quantity, sale_price, sale_date, notes, paid, delivered)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, in.ItemID, in.Quantity, in.SalePrice, in.SaleDate, nullableText(in.Notes), in.Paid, in.Delivered)
	if isForeignKeyViolation(err) {
		return 0, ErrInvalidReference
	}
	if err != nil {
		return 0, fmt.Errorf("insert order: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read order id: %w", err)
	}
	return id, nil
}

// UpdateOrder replaces the user-entered fields of an order.
func (s *Store) UpdateOrder(ctx context.Context, id int64, in OrderInput) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE orders
		SET
			item_id = ?,
			quantity = ?,
			sale_price = ?,
			sale_date = ?,
			notes = ?,
			paid = ?,
			delivered = ?
		WHERE id = ?
	`, in.ItemID, in.Quantity, in.SalePrice, in.SaleDate, nullableText(in.Notes), in.Paid, in.Delivered, id)
	if isForeignKeyViolation(err) {
		return ErrInvalidReference
	}
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	return requireAffected(result)
}

// DeleteOrder removes an order.
func (s *Store) DeleteOrder(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	return requireAffected(result)
}
