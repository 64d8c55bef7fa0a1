package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/Simplici0/printledger/internal/db"
	"github.com/Simplici0/printledger/internal/migrations"
	"github.com/Simplici0/printledger/internal/store"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()

	h, _ := newTestHandlerWithDB(t)
	return h
}

func newTestHandlerWithDB(t *testing.T) (http.Handler, *sql.DB) {
	t.Helper()

	ctx := context.Background()
	database, err := db.Open(ctx, filepath.Join(t.TempDir(), "server-test.db"), db.Options{MaxOpenConns: 4})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	_, err = migrations.Up(ctx, database)
	require.NoError(t, err)

	return newServer(store.New(database), zap.NewNop()).routes(), database
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func createFilament(t *testing.T, h http.Handler, color string, pricePerKg float64) int64 {
	t.Helper()

	rec := do(t, h, http.MethodPost, "/api/filaments", map[string]any{"color_name": color, "price_per_kg": pricePerKg})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return int64(decodeBody[map[string]float64](t, rec)["id"])
}

func createItem(t *testing.T, h http.Handler, body map[string]any) quoteResponse {
	t.Helper()

	rec := do(t, h, http.MethodPost, "/api/items", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[quoteResponse](t, rec)
}

func createOrder(t *testing.T, h http.Handler, body map[string]any) int64 {
	t.Helper()

	rec := do(t, h, http.MethodPost, "/api/orders", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[map[string]int64](t, rec)["id"]
}

func TestHealthzSetsRequestID(t *testing.T) {
	h := newTestHandler(t)

	rec := do(t, h, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "ok", decodeBody[map[string]string](t, rec)["status"])
}

func TestSettings_DefaultsThenUpdate(t *testing.T) {
	h := newTestHandler(t)

	rec := do(t, h, http.MethodGet, "/api/settings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[map[string]any](t, rec)
	assert.Equal(t, 1.0, got["default_hourly_rate"])
	assert.Equal(t, 0.25, got["electricity_cost_per_kwh"])
	assert.Equal(t, 250.0, got["average_printer_power_w"])
	assert.Equal(t, 50.0, got["default_profit_margin"])
	assert.Equal(t, "EUR", got["currency"])

	rec = do(t, h, http.MethodPut, "/api/settings", map[string]any{"default_hourly_rate": 2.5, "currency": "USD"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got = decodeBody[map[string]any](t, do(t, h, http.MethodGet, "/api/settings", nil))
	assert.Equal(t, 2.5, got["default_hourly_rate"])
	assert.Equal(t, "USD", got["currency"])
	assert.Equal(t, 50.0, got["default_profit_margin"])
}

func TestSettings_RejectsInvalidUpdates(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name string
		body string
	}{
		{"unknown key", `{"tax_rate": 21}`},
		{"negative number", `{"electricity_cost_per_kwh": -1}`},
		{"wrong type", `{"default_profit_margin": "lots"}`},
		{"empty body", ``},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPut, "/api/settings", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, decodeBody[map[string]string](t, rec)["error"])
		})
	}
}

func TestSettings_ReadFailureServesDefaultsButBlocksPricing(t *testing.T) {
	h, database := newTestHandlerWithDB(t)

	rec := do(t, h, http.MethodPut, "/api/settings", map[string]any{"default_hourly_rate": 9, "currency": "USD"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, database.Close())

	rec = do(t, h, http.MethodGet, "/api/settings", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, map[string]any{
		"default_hourly_rate":      1.0,
		"electricity_cost_per_kwh": 0.25,
		"average_printer_power_w":  250.0,
		"default_profit_margin":    50.0,
		"currency":                 "EUR",
	}, decodeBody[map[string]any](t, rec))

	rec = do(t, h, http.MethodPost, "/api/items", map[string]any{"name": "Vase", "print_time_hours": 1})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotEmpty(t, decodeBody[map[string]string](t, rec)["error"])

	rec = do(t, h, http.MethodPost, "/api/items/quote", map[string]any{"print_time_hours": 1})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestFilaments_CreateListAndValidate(t *testing.T) {
	h := newTestHandler(t)

	rec := do(t, h, http.MethodPost, "/api/filaments", map[string]any{"color_name": "Galaxy", "price_per_kg": 25, "cost_per_gram": 99})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.InDelta(t, 0.025, decodeBody[map[string]float64](t, rec)["cost_per_gram"], 1e-12)

	filaments := decodeBody[[]store.Filament](t, do(t, h, http.MethodGet, "/api/filaments", nil))
	require.Len(t, filaments, 1)
	assert.Equal(t, "Bambu Lab", filaments[0].Brand)
	assert.Equal(t, "PLA", filaments[0].Material)
	assert.Equal(t, 1.75, filaments[0].DiameterMM)
	assert.InDelta(t, 0.025, filaments[0].CostPerGram, 1e-12)

	for _, body := range []map[string]any{
		{"price_per_kg": 20},
		{"color_name": "Red"},
		{"color_name": "Red", "price_per_kg": 0},
	} {
		rec := do(t, h, http.MethodPost, "/api/filaments", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}

	rec = do(t, h, http.MethodPut, "/api/filaments/999", map[string]any{"color_name": "Red", "price_per_kg": 20})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFilaments_DeleteInUseConflicts(t *testing.T) {
	h := newTestHandler(t)

	filamentID := createFilament(t, h, "Black", 20)
	item := createItem(t, h, map[string]any{"name": "Hook", "filament_id": filamentID, "grams_used": 10})

	rec := do(t, h, http.MethodDelete, "/api/filaments/"+itoa(filamentID), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	require.Equal(t, http.StatusOK, do(t, h, http.MethodDelete, "/api/items/"+itoa(*item.ID), nil).Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodDelete, "/api/filaments/"+itoa(filamentID), nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, "/api/filaments/"+itoa(filamentID), nil).Code)
}

func TestItems_CreateFreezesPricing(t *testing.T) {
	h := newTestHandler(t)

	filamentID := createFilament(t, h, "White", 20)
	created := createItem(t, h, map[string]any{
		"name":             "Vase",
		"filament_id":      filamentID,
		"grams_used":       100,
		"print_time_hours": 2,
		"electricity_kw":   0.1,
	})

	require.NotNil(t, created.ID)
	assert.InDelta(t, 2.0, created.MaterialCost, 1e-9)
	assert.InDelta(t, 2.0, created.LaborCost, 1e-9)
	assert.InDelta(t, 0.025, created.ElectricityCost, 1e-9)
	assert.InDelta(t, 2.025, created.TotalCostNoLabor, 1e-9)
	assert.InDelta(t, 4.025, created.TotalCostNoProfit, 1e-9)
	assert.Equal(t, created.TotalCostNoProfit, created.BuildPrice)
	assert.InDelta(t, 6.0375, created.FinalPrice, 1e-9)
	assert.Nil(t, created.SuggestedElectricityKW)

	rec := do(t, h, http.MethodPut, "/api/filaments/"+itoa(filamentID), map[string]any{"color_name": "White", "price_per_kg": 80})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, h, http.MethodPut, "/api/settings", map[string]any{"default_hourly_rate": 10, "default_profit_margin": 100})
	require.Equal(t, http.StatusOK, rec.Code)

	items := decodeBody[[]store.Item](t, do(t, h, http.MethodGet, "/api/items", nil))
	require.Len(t, items, 1)
	assert.InDelta(t, 2.0, items[0].MaterialCost, 1e-9)
	assert.InDelta(t, 1.0, items[0].HourlyRate, 1e-9)
	assert.InDelta(t, 50.0, items[0].ProfitMargin, 1e-9)
	assert.InDelta(t, 6.0375, items[0].FinalPrice, 1e-9)
	assert.Equal(t, "White", *items[0].FilamentColor)
}

func TestItems_CreateValidation(t *testing.T) {
	h := newTestHandler(t)

	rec := do(t, h, http.MethodPost, "/api/items", map[string]any{"name": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/items", map[string]any{"name": "Ghost", "filament_id": 42, "grams_used": 5})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "filament does not exist", decodeBody[map[string]string](t, rec)["error"])

	for _, field := range []string{"grams_used", "print_time_hours", "hourly_rate", "electricity_kw"} {
		rec = do(t, h, http.MethodPost, "/api/items", map[string]any{"name": "Negative", field: -1})
		assert.Equal(t, http.StatusBadRequest, rec.Code, field)
		assert.Equal(t, field+" must not be negative", decodeBody[map[string]string](t, rec)["error"])

		rec = do(t, h, http.MethodPost, "/api/items/quote", map[string]any{field: -1})
		assert.Equal(t, http.StatusBadRequest, rec.Code, field)
	}
	created := createItem(t, h, map[string]any{"name": "Discounted", "electricity_kw": 1, "profit_margin": -20})
	assert.InDelta(t, 0.2, created.FinalPrice, 1e-12)

	items := decodeBody[[]store.Item](t, do(t, h, http.MethodGet, "/api/items", nil))
	require.Len(t, items, 1)
	assert.Equal(t, "Discounted", items[0].Name)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, "/api/items/7", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodDelete, "/api/items/abc", nil).Code)
}

func TestItems_ExplicitZeroOverridesAreHonored(t *testing.T) {
	h := newTestHandler(t)

	created := createItem(t, h, map[string]any{
		"name":             "Free labor",
		"print_time_hours": 3,
		"hourly_rate":      0,
		"electricity_kw":   1,
		"profit_margin":    0,
	})
	assert.Equal(t, 0.0, created.LaborCost)
	assert.InDelta(t, 0.25, created.BuildPrice, 1e-12)
	assert.InDelta(t, 0.25, created.FinalPrice, 1e-12)
}

func TestItemsQuote_SuggestsElectricityWithoutSaving(t *testing.T) {
	h := newTestHandler(t)

	rec := do(t, h, http.MethodPost, "/api/items/quote", map[string]any{"print_time_hours": 3})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	q := decodeBody[quoteResponse](t, rec)
	assert.Nil(t, q.ID)
	require.NotNil(t, q.SuggestedElectricityKW)
	assert.InDelta(t, 0.75, *q.SuggestedElectricityKW, 1e-12)
	assert.Equal(t, 0.0, q.ElectricityCost)
	assert.InDelta(t, 3.0, q.LaborCost, 1e-12)
	assert.InDelta(t, 4.5, q.FinalPrice, 1e-12)

	q = decodeBody[quoteResponse](t, do(t, h, http.MethodPost, "/api/items/quote", map[string]any{"print_time_hours": 3, "electricity_kw": 0.5}))
	assert.Nil(t, q.SuggestedElectricityKW)

	items := decodeBody[[]store.Item](t, do(t, h, http.MethodGet, "/api/items", nil))
	assert.Empty(t, items)
}

func TestOrders_LifecycleAndSummary(t *testing.T) {
	h := newTestHandler(t)

	summary := decodeBody[map[string]float64](t, do(t, h, http.MethodGet, "/api/summary", nil))
	for key, v := range summary {
		assert.Zero(t, v, key)
	}

	filamentID := createFilament(t, h, "Orange", 20)
	item := createItem(t, h, map[string]any{
		"name": "Vase", "filament_id": filamentID, "grams_used": 100, "print_time_hours": 2, "electricity_kw": 0.1,
	})

	orderID := createOrder(t, h, map[string]any{"item_id": *item.ID, "quantity": 2, "sale_price": 10, "sale_date": "2024-06-01", "notes": "market"})

	orders := decodeBody[[]orderResponse](t, do(t, h, http.MethodGet, "/api/orders", nil))
	require.Len(t, orders, 1)
	assert.Equal(t, "Vase", orders[0].ItemName)
	assert.InDelta(t, 20, orders[0].Total, 1e-9)
	assert.InDelta(t, 11.95, orders[0].ProfitWithLabor, 1e-9)
	assert.InDelta(t, 15.95, orders[0].ProfitWithoutLabor, 1e-9)
	assert.Equal(t, "market", *orders[0].Notes)

	summary = decodeBody[map[string]float64](t, do(t, h, http.MethodGet, "/api/summary", nil))
	assert.InDelta(t, 20, summary["total_revenue"], 1e-9)
	assert.InDelta(t, 4.05, summary["total_cost_no_labor"], 1e-9)
	assert.InDelta(t, 8.05, summary["total_cost"], 1e-9)
	assert.InDelta(t, 4, summary["total_labor_hours"], 1e-9)
	assert.InDelta(t, 15.95, summary["profit_excluding_labor"], 1e-9)
	assert.InDelta(t, 11.95, summary["profit_including_labor"], 1e-9)
	assert.Equal(t, 1.0, summary["total_orders"])
	assert.Equal(t, 2.0, summary["total_items_sold"])

	rec := do(t, h, http.MethodPut, "/api/orders/"+itoa(orderID), map[string]any{
		"item_id": *item.ID, "quantity": 1, "sale_price": 12, "sale_date": "2024-06-02", "paid": true, "delivered": true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	orders = decodeBody[[]orderResponse](t, do(t, h, http.MethodGet, "/api/orders", nil))
	require.Len(t, orders, 1)
	assert.True(t, orders[0].Paid)
	assert.True(t, orders[0].Delivered)
	assert.Nil(t, orders[0].Notes)
	assert.InDelta(t, 12, orders[0].Total, 1e-9)

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodDelete, "/api/orders/"+itoa(orderID), nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, "/api/orders/"+itoa(orderID), nil).Code)
}

func TestOrders_Validation(t *testing.T) {
	h := newTestHandler(t)
	item := createItem(t, h, map[string]any{"name": "Cube"})

	valid := func() map[string]any {
		return map[string]any{"item_id": *item.ID, "quantity": 1, "sale_price": 5, "sale_date": "2024-01-31"}
	}
	orderPath := "/api/orders/" + itoa(createOrder(t, h, valid()))

	tests := []struct {
		name   string
		mutate func(map[string]any)
	}{
		{"missing item", func(b map[string]any) { delete(b, "item_id") }},
		{"missing quantity", func(b map[string]any) { delete(b, "quantity") }},
		{"zero quantity", func(b map[string]any) { b["quantity"] = 0 }},
		{"huge quantity", func(b map[string]any) { b["quantity"] = maxOrderQuantity + 1 }},
		{"max int quantity", func(b map[string]any) { b["quantity"] = int64(9223372036854775807) }},
		{"missing sale price", func(b map[string]any) { delete(b, "sale_price") }},
		{"negative sale price", func(b map[string]any) { b["sale_price"] = -1 }},
		{"missing sale date", func(b map[string]any) { delete(b, "sale_date") }},
		{"bad sale date", func(b map[string]any) { b["sale_date"] = "31/01/2024" }},
		{"unknown item", func(b map[string]any) { b["item_id"] = 4242 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			body := valid()
			tc.mutate(body)

			rec := do(t, h, http.MethodPost, "/api/orders", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

			rec = do(t, h, http.MethodPut, orderPath, body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}

	atLimit := valid()
	atLimit["quantity"] = maxOrderQuantity
	createOrder(t, h, atLimit)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPut, "/api/orders/999", valid()).Code)
}

func TestDeleteItemRemovesOrders(t *testing.T) {
	h := newTestHandler(t)

	item := createItem(t, h, map[string]any{"name": "Lamp"})
	createOrder(t, h, map[string]any{"item_id": *item.ID, "quantity": 1, "sale_price": 30, "sale_date": "2024-02-10"})

	require.Equal(t, http.StatusOK, do(t, h, http.MethodDelete, "/api/items/"+itoa(*item.ID), nil).Code)

	orders := decodeBody[[]orderResponse](t, do(t, h, http.MethodGet, "/api/orders", nil))
	assert.Empty(t, orders)
}

func TestOrdersExport(t *testing.T) {
	h := newTestHandler(t)

	item := createItem(t, h, map[string]any{"name": "Planter", "print_time_hours": 1})
	createOrder(t, h, map[string]any{"item_id": *item.ID, "quantity": 2, "sale_price": 7.5, "sale_date": "2024-03-03"})

	rec := do(t, h, http.MethodGet, "/api/orders/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "id,sale_date,item"))
	assert.Contains(t, lines[1], "Planter")

	rec = do(t, h, http.MethodGet, "/api/orders/export?format=xlsx", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Orders")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Planter", rows[1][2])

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/orders/export?format=pdf", nil).Code)
}

func TestNotes_CRUD(t *testing.T) {
	h := newTestHandler(t)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/notes", map[string]any{"content": "no title"}).Code)

	rec := do(t, h, http.MethodPost, "/api/notes", map[string]any{"title": "Restock", "content": "PETG black"})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeBody[map[string]int64](t, rec)["id"]

	rec = do(t, h, http.MethodPut, "/api/notes/"+itoa(id), map[string]any{"title": "Restock", "content": "PETG black and white"})
	require.Equal(t, http.StatusOK, rec.Code)

	notes := decodeBody[[]store.Note](t, do(t, h, http.MethodGet, "/api/notes", nil))
	require.Len(t, notes, 1)
	assert.Equal(t, "PETG black and white", notes[0].Content)

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodDelete, "/api/notes/"+itoa(id), nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, "/api/notes/"+itoa(id), nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPut, "/api/notes/"+itoa(id), map[string]any{"title": "x"}).Code)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
