package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Simplici0/printledger/internal/pricing"
	"github.com/Simplici0/printledger/internal/store"
)

var errUnknownFilament = errors.New("filament does not exist")

type itemRequest struct {
	Name           string   `json:"name"`
	Color          *string  `json:"color"`
	FilamentID     *int64   `json:"filament_id"`
	GramsUsed      *float64 `json:"grams_used"`
	PrintTimeHours *float64 `json:"print_time_hours"`
	HourlyRate     *float64 `json:"hourly_rate"`
	ElectricityKW  *float64 `json:"electricity_kw"`
	ProfitMargin   *float64 `json:"profit_margin"`
}

// validate rejects negative quantities. The profit margin may be negative.
func (req itemRequest) validate() error {
	fields := []struct {
		name  string
		value *float64
	}{
		{"grams_used", req.GramsUsed},
		{"print_time_hours", req.PrintTimeHours},
		{"hourly_rate", req.HourlyRate},
		{"electricity_kw", req.ElectricityKW},
	}
	for _, f := range fields {
		if f.value != nil && *f.value < 0 {
			return fmt.Errorf("%s must not be negative", f.name)
		}
	}
	return nil
}

func (req itemRequest) pricingInput() pricing.ItemInput {
	return pricing.ItemInput{
		GramsUsed:      req.GramsUsed,
		PrintTimeHours: req.PrintTimeHours,
		HourlyRate:     req.HourlyRate,
		ElectricityKW:  req.ElectricityKW,
		ProfitMargin:   req.ProfitMargin,
	}
}

type quoteResponse struct {
	ID                     *int64   `json:"id,omitempty"`
	MaterialCost           float64  `json:"material_cost"`
	PrintTimeHours         float64  `json:"print_time_hours"`
	HourlyRate             float64  `json:"hourly_rate"`
	LaborCost              float64  `json:"labor_cost"`
	ElectricityKW          float64  `json:"electricity_kw"`
	ElectricityCost        float64  `json:"electricity_cost"`
	TotalCostNoLabor       float64  `json:"total_cost_no_labor"`
	TotalCostNoProfit      float64  `json:"total_cost_no_profit"`
	BuildPrice             float64  `json:"build_price"`
	ProfitMargin           float64  `json:"profit_margin"`
	FinalPrice             float64  `json:"final_price"`
	SuggestedElectricityKW *float64 `json:"suggested_electricity_kw,omitempty"`
}

func newQuoteResponse(snap pricing.Snapshot) quoteResponse {
	return quoteResponse{
		MaterialCost:      snap.MaterialCost,
		PrintTimeHours:    snap.PrintTimeHours,
		HourlyRate:        snap.HourlyRate,
		LaborCost:         snap.LaborCost,
		ElectricityKW:     snap.ElectricityKW,
		ElectricityCost:   snap.ElectricityCost,
		TotalCostNoLabor:  snap.TotalCostNoLabor,
		TotalCostNoProfit: snap.BuildPrice,
		BuildPrice:        snap.BuildPrice,
		ProfitMargin:      snap.ProfitMargin,
		FinalPrice:        snap.FinalPrice,
	}
}

// quote reads the current settings and filament price and runs the pricing pipeline.
func (s *server) quote(ctx context.Context, req itemRequest) (pricing.Snapshot, pricing.Settings, error) {
	settings, err := s.store.ResolveSettings(ctx)
	if err != nil {
		return pricing.Snapshot{}, settings, err
	}

	var costPerGram *float64
	if req.FilamentID != nil {
		filament, err := s.store.GetFilament(ctx, *req.FilamentID)
		if errors.Is(err, store.ErrNotFound) {
			return pricing.Snapshot{}, settings, errUnknownFilament
		}
		if err != nil {
			return pricing.Snapshot{}, settings, err
		}
		costPerGram = &filament.CostPerGram
	}

	return pricing.Quote(req.pricingInput(), costPerGram, settings), settings, nil
}

func (s *server) handleItemsList(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListItems(r.Context())
	if err != nil {
		s.internalError(w, r, "failed to fetch items", err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *server) handleItemsCreate(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	snap, _, err := s.quote(r.Context(), req)
	if errors.Is(err, errUnknownFilament) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.internalError(w, r, "failed to price item", err)
		return
	}

	id, err := s.store.CreateItem(r.Context(), store.ItemDraft{
		Name:       req.Name,
		Color:      req.Color,
		FilamentID: req.FilamentID,
		GramsUsed:  req.GramsUsed,
	}, snap)
	if errors.Is(err, store.ErrInvalidReference) {
		writeError(w, http.StatusBadRequest, errUnknownFilament.Error())
		return
	}
	if err != nil {
		s.internalError(w, r, "failed to add item", err)
		return
	}

	resp := newQuoteResponse(snap)
	resp.ID = &id
	writeJSON(w, http.StatusCreated, resp)
}

// handleItemsQuote prices an item without storing it. When print time is known
// but electricity is not, it also suggests a consumption from the printer power.
func (s *server) handleItemsQuote(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	snap, settings, err := s.quote(r.Context(), req)
	if errors.Is(err, errUnknownFilament) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.internalError(w, r, "failed to price item", err)
		return
	}

	resp := newQuoteResponse(snap)
	if req.PrintTimeHours != nil && req.ElectricityKW == nil {
		kw := pricing.SuggestElectricityKW(settings.PrinterPowerW, *req.PrintTimeHours)
		resp.SuggestedElectricityKW = &kw
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *server) handleItemsDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	err = s.store.DeleteItem(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "item not found")
		return
	}
	if err != nil {
		s.internalError(w, r, "failed to delete item", err)
		return
	}
	writeMessage(w, "Item deleted successfully")
}
