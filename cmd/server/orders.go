package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Simplici0/printledger/internal/export"
	"github.com/Simplici0/printledger/internal/pricing"
	"github.com/Simplici0/printledger/internal/store"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	// maxOrderQuantity keeps summed quantities far from int overflow.
	maxOrderQuantity = 1_000_000
)

type orderRequest struct {
	ItemID    *int64   `json:"item_id"`
	Quantity  *int     `json:"quantity"`
	SalePrice *float64 `json:"sale_price"`
	SaleDate  string   `json:"sale_date"`
	Notes     *string  `json:"notes"`
	Paid      bool     `json:"paid"`
	Delivered bool     `json:"delivered"`
}

func (req orderRequest) input() (store.OrderInput, error) {
	if req.ItemID == nil || req.Quantity == nil || req.SalePrice == nil || req.SaleDate == "" {
		return store.OrderInput{}, errors.New("item_id, quantity, sale_price, and sale_date are required")
	}
	if *req.Quantity <= 0 {
		return store.OrderInput{}, errors.New("quantity must be greater than 0")
	}
	if *req.Quantity > maxOrderQuantity {
		return store.OrderInput{}, fmt.Errorf("quantity must not exceed %d", maxOrderQuantity)
	}
	if *req.SalePrice < 0 {
		return store.OrderInput{}, errors.New("sale_price must not be negative")
	}
	if _, err := time.Parse(time.DateOnly, req.SaleDate); err != nil {
		return store.OrderInput{}, errors.New("sale_date must be formatted as YYYY-MM-DD")
	}

	return store.OrderInput{
		ItemID:    *req.ItemID,
		Quantity:  *req.Quantity,
		SalePrice: *req.SalePrice,
		SaleDate:  req.SaleDate,
		Notes:     req.Notes,
		Paid:      req.Paid,
		Delivered: req.Delivered,
	}, nil
}

type orderResponse struct {
	ID                 int64   `json:"id"`
	ItemID             int64   `json:"item_id"`
	Quantity           int     `json:"quantity"`
	SalePrice          float64 `json:"sale_price"`
	SaleDate           string  `json:"sale_date"`
	Notes              *string `json:"notes"`
	Paid               bool    `json:"paid"`
	Delivered          bool    `json:"delivered"`
	CreatedAt          string  `json:"created_at"`
	ItemName           string  `json:"item_name"`
	Color              *string `json:"color"`
	MaterialCost       float64 `json:"material_cost"`
	LaborCost          float64 `json:"labor_cost"`
	ElectricityCost    float64 `json:"electricity_cost"`
	FinalPrice         float64 `json:"final_price"`
	BuildPrice         float64 `json:"build_price"`
	Total              float64 `json:"total"`
	ProfitWithLabor    float64 `json:"profit_with_labor"`
	ProfitWithoutLabor float64 `json:"profit_without_labor"`
}

func newOrderResponse(o store.Order) orderResponse {
	p := pricing.ProfitOf(o.Line())
	return orderResponse{
		ID:                 o.ID,
		ItemID:             o.ItemID,
		Quantity:           o.Quantity,
		SalePrice:          o.SalePrice,
		SaleDate:           o.SaleDate,
		Notes:              o.Notes,
		Paid:               o.Paid,
		Delivered:          o.Delivered,
		CreatedAt:          o.CreatedAt,
		ItemName:           o.ItemName,
		Color:              o.ItemColor,
		MaterialCost:       o.MaterialCost,
		LaborCost:          o.LaborCost,
		ElectricityCost:    o.ElectricityCost,
		FinalPrice:         o.FinalPrice,
		BuildPrice:         o.BuildPrice,
		Total:              p.Revenue,
		ProfitWithLabor:    p.ProfitWithLabor,
		ProfitWithoutLabor: p.ProfitWithoutLabor,
	}
}

func (s *server) handleOrdersList(w http.ResponseWriter, r *http.Request) {
	orders, err := s.store.ListOrders(r.Context())
	if err != nil {
		s.internalError(w, r, "failed to fetch orders", err)
		return
	}

	resp := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, newOrderResponse(o))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *server) handleOrdersCreate(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	in, err := req.input()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.store.CreateOrder(r.Context(), in)
	if errors.Is(err, store.ErrInvalidReference) {
		writeError(w, http.StatusBadRequest, "item does not exist")
		return
	}
	if err != nil {
		s.internalError(w, r, "failed to add order", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *server) handleOrdersUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var req orderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	in, err := req.input()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	err = s.store.UpdateOrder(r.Context(), id, in)
	switch {
	case errors.Is(err, store.ErrInvalidReference):
		writeError(w, http.StatusBadRequest, "item does not exist")
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "order not found")
	case err != nil:
		s.internalError(w, r, "failed to update order", err)
	default:
		writeMessage(w, "Order updated successfully")
	}
}

func (s *server) handleOrdersDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	err = s.store.DeleteOrder(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	if err != nil {
		s.internalError(w, r, "failed to delete order", err)
		return
	}
	writeMessage(w, "Order deleted successfully")
}

func (s *server) handleOrdersExport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}

	var (
		write       func(io.Writer, []store.Order) error
		contentType string
	)
	switch format {
	case "csv":
		write = export.WriteCSV
		contentType = "text/csv; charset=utf-8"
	case "xlsx":
		write = export.WriteXLSX
		contentType = xlsxContentType
	default:
		writeError(w, http.StatusBadRequest, "format must be csv or xlsx")
		return
	}

	orders, err := s.store.ListOrders(r.Context())
	if err != nil {
		s.internalError(w, r, "failed to fetch orders", err)
		return
	}

	var buf bytes.Buffer
	if err := write(&buf, orders); err != nil {
		s.internalError(w, r, "failed to export orders", err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="orders.`+format+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *server) handleSummary(w http.ResponseWriter, r *http.Request) {
	lines, err := s.store.ListOrderLines(r.Context())
	if err != nil {
		s.internalError(w, r, "failed to fetch summary", err)
		return
	}
	writeJSON(w, http.StatusOK, pricing.Summarize(lines))
}
