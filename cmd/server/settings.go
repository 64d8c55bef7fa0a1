package main

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/Simplici0/printledger/internal/pricing"
)

func (s *server) handleSettingsGet(w http.ResponseWriter, r *http.Request) {
	settings, err := s.store.ResolveSettings(r.Context())
	if err != nil {
		s.logger.Warn("read settings failed, serving defaults", zap.Error(err))
		settings = pricing.DefaultSettings()
	}
	writeJSON(w, http.StatusOK, settings.Map())
}

func (s *server) handleSettingsPut(w http.ResponseWriter, r *http.Request) {
	var update pricing.StoredSettings
	if err := decodeStrictJSON(w, r, &update); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateSettings(update); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.UpsertSettings(r.Context(), update); err != nil {
		s.internalError(w, r, "failed to update settings", err)
		return
	}
	writeMessage(w, "Settings updated successfully")
}

func validateSettings(update pricing.StoredSettings) error {
	numbers := []struct {
		key   string
		value *float64
	}{
		{pricing.KeyHourlyRate, update.HourlyRate},
		{pricing.KeyElectricityCostPerKWh, update.ElectricityCostPerKWh},
		{pricing.KeyPrinterPowerW, update.PrinterPowerW},
		{pricing.KeyProfitMargin, update.ProfitMargin},
	}
	for _, n := range numbers {
		if n.value != nil && *n.value < 0 {
			return fmt.Errorf("%s must not be negative", n.key)
		}
	}
	return nil
}
