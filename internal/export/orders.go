package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/Simplici0/printledger/internal/pricing"
	"github.com/Simplici0/printledger/internal/store"
)

const sheetName = "Orders"

var header = []string{
	"id", "sale_date", "item", "quantity", "sale_price", "total",
	"build_price", "profit_with_labor", "profit_without_labor", "paid", "delivered", "notes",
}

type row struct {
	id        int64
	saleDate  string
	item      string
	quantity  int
	money     [5]decimal.Decimal
	paid      bool
	delivered bool
	notes     string
}

func toRows(orders []store.Order) []row {
	rows := make([]row, 0, len(orders))
	for _, o := range orders {
		p := pricing.ProfitOf(o.Line())
		r := row{
			id:        o.ID,
			saleDate:  o.SaleDate,
			item:      o.ItemName,
			quantity:  o.Quantity,
			paid:      o.Paid,
			delivered: o.Delivered,
			money: [5]decimal.Decimal{
				cents(o.SalePrice),
				cents(p.Revenue),
				cents(o.BuildPrice),
				cents(p.ProfitWithLabor),
				cents(p.ProfitWithoutLabor),
			},
		}
		if o.Notes != nil {
			r.notes = *o.Notes
		}
		rows = append(rows, r)
	}
	return rows
}

// cents rounds a stored amount for display. Stored values are never rounded.
func cents(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

// WriteCSV writes orders as CSV with a header row.
func WriteCSV(w io.Writer, orders []store.Order) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, r := range toRows(orders) {
		record := []string{
			strconv.FormatInt(r.id, 10),
			r.saleDate,
			r.item,
			strconv.Itoa(r.quantity),
		}
		for _, m := range r.money {
			record = append(record, m.StringFixed(2))
		}
		record = append(record, strconv.FormatBool(r.paid), strconv.FormatBool(r.delivered), r.notes)

		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row %d: %w", r.id, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// WriteXLSX writes orders to a single-sheet workbook.
func WriteXLSX(w io.Writer, orders []store.Order) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	for i, h := range header {
		if err := setCell(f, i+1, 1, h); err != nil {
			return err
		}
	}

	for i, r := range toRows(orders) {
		line := i + 2
		values := []any{r.id, r.saleDate, r.item, r.quantity}
		for _, m := range r.money {
			values = append(values, m.InexactFloat64())
		}
		values = append(values, r.paid, r.delivered, r.notes)

		for col, v := range values {
			if err := setCell(f, col+1, line, v); err != nil {
				return err
			}
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func setCell(f *excelize.File, col, line int, v any) error {
	cell, err := excelize.CoordinatesToCellName(col, line)
	if err != nil {
		return fmt.Errorf("resolve cell: %w", err)
	}
	if err := f.SetCellValue(sheetName, cell, v); err != nil {
		return fmt.Errorf("set cell %s: %w", cell, err)
	}
	return nil
}
