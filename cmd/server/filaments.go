package main

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Simplici0/printledger/internal/pricing"
	"github.com/Simplici0/printledger/internal/store"
)

const (
	defaultBrand      = "Bambu Lab"
	defaultMaterial   = "PLA"
	defaultDiameterMM = 1.75
)

type filamentRequest struct {
	ColorName  string   `json:"color_name"`
	Brand      string   `json:"brand"`
	Material   string   `json:"material"`
	DiameterMM *float64 `json:"diameter_mm"`
	PricePerKg *float64 `json:"price_per_kg"`
	Notes      *string  `json:"notes"`
}

// input validates the request. cost_per_gram is never taken from the client.
func (req filamentRequest) input() (store.FilamentInput, error) {
	in := store.FilamentInput{
		ColorName:  strings.TrimSpace(req.ColorName),
		Brand:      strings.TrimSpace(req.Brand),
		Material:   strings.TrimSpace(req.Material),
		DiameterMM: defaultDiameterMM,
		Notes:      req.Notes,
	}
	if in.ColorName == "" {
		return in, errors.New("color_name is required")
	}
	if req.PricePerKg == nil {
		return in, errors.New("price_per_kg is required")
	}
	if *req.PricePerKg <= 0 {
		return in, errors.New("price_per_kg must be greater than 0")
	}
	in.PricePerKg = *req.PricePerKg

	if in.Brand == "" {
		in.Brand = defaultBrand
	}
	if in.Material == "" {
		in.Material = defaultMaterial
	}
	if req.DiameterMM != nil {
		if *req.DiameterMM <= 0 {
			return in, errors.New("diameter_mm must be greater than 0")
		}
		in.DiameterMM = *req.DiameterMM
	}
	return in, nil
}

func (s *server) handleFilamentsList(w http.ResponseWriter, r *http.Request) {
	filaments, err := s.store.ListFilaments(r.Context())
	if err != nil {
		s.internalError(w, r, "failed to fetch filaments", err)
		return
	}
	writeJSON(w, http.StatusOK, filaments)
}

func (s *server) handleFilamentsCreate(w http.ResponseWriter, r *http.Request) {
	var req filamentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	in, err := req.input()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.store.CreateFilament(r.Context(), in)
	if err != nil {
		s.internalError(w, r, "failed to add filament", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":            id,
		"cost_per_gram": pricing.CostPerGram(in.PricePerKg),
	})
}

func (s *server) handleFilamentsUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid filament id")
		return
	}

	var req filamentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	in, err := req.input()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	err = s.store.UpdateFilament(r.Context(), id, in)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "filament not found")
		return
	}
	if err != nil {
		s.internalError(w, r, "failed to update filament", err)
		return
	}
	writeMessage(w, "Filament updated successfully")
}

func (s *server) handleFilamentsDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid filament id")
		return
	}

	err = s.store.DeleteFilament(r.Context(), id)
	switch {
	case errors.Is(err, store.ErrInUse):
		writeError(w, http.StatusConflict, "filament is used by existing items")
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "filament not found")
	case err != nil:
		s.internalError(w, r, "failed to delete filament", err)
	default:
		writeMessage(w, "Filament deleted successfully")
	}
}
