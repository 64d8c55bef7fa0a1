package pricing

import (
	"strconv"
	"strings"
)

// Persisted setting keys. They match the keys the web client reads and writes.
const (
	KeyHourlyRate            = "default_hourly_rate"
	KeyElectricityCostPerKWh = "electricity_cost_per_kwh"
	KeyPrinterPowerW         = "average_printer_power_w"
	KeyProfitMargin          = "default_profit_margin"
	KeyCurrency              = "currency"
)

const (
	defaultHourlyRate            = 1.0
	defaultElectricityCostPerKWh = 0.25
	defaultPrinterPowerW         = 250
	defaultProfitMargin          = 50.0
	defaultCurrency              = "EUR"
)

// Settings holds the business parameters used when an item omits its own values.
// Every field is populated; see StoredSettings.WithDefaults.
type Settings struct {
	HourlyRate            float64
	ElectricityCostPerKWh float64
	PrinterPowerW         float64
	ProfitMargin          float64
	Currency              string
}

// DefaultSettings returns the hard-coded fallbacks for unset keys.
func DefaultSettings() Settings {
	return Settings{
		HourlyRate:            defaultHourlyRate,
		ElectricityCostPerKWh: defaultElectricityCostPerKWh,
		PrinterPowerW:         defaultPrinterPowerW,
		ProfitMargin:          defaultProfitMargin,
		Currency:              defaultCurrency,
	}
}

// Map renders the settings as the flat key/value mapping served to clients.
func (s Settings) Map() map[string]any {
	return map[string]any{
		KeyHourlyRate:            s.HourlyRate,
		KeyElectricityCostPerKWh: s.ElectricityCostPerKWh,
		KeyPrinterPowerW:         s.PrinterPowerW,
		KeyProfitMargin:          s.ProfitMargin,
		KeyCurrency:              s.Currency,
	}
}

// StoredSettings is what is actually persisted. A nil field means the key is unset.
type StoredSettings struct {
	HourlyRate            *float64 `json:"default_hourly_rate,omitempty"`
	ElectricityCostPerKWh *float64 `json:"electricity_cost_per_kwh,omitempty"`
	PrinterPowerW         *float64 `json:"average_printer_power_w,omitempty"`
	ProfitMargin          *float64 `json:"default_profit_margin,omitempty"`
	Currency              *string  `json:"currency,omitempty"`
}

// WithDefaults merges the stored values over DefaultSettings.
func (s StoredSettings) WithDefaults() Settings {
	out := DefaultSettings()
	if s.HourlyRate != nil {
		out.HourlyRate = *s.HourlyRate
	}
	if s.ElectricityCostPerKWh != nil {
		out.ElectricityCostPerKWh = *s.ElectricityCostPerKWh
	}
	if s.PrinterPowerW != nil {
		out.PrinterPowerW = *s.PrinterPowerW
	}
	if s.ProfitMargin != nil {
		out.ProfitMargin = *s.ProfitMargin
	}
	if s.Currency != nil && strings.TrimSpace(*s.Currency) != "" {
		out.Currency = strings.TrimSpace(*s.Currency)
	}
	return out
}

// Pairs returns the set fields as key/value strings ready for an upsert.
func (s StoredSettings) Pairs() map[string]string {
	pairs := make(map[string]string, 5)
	put := func(key string, v *float64) {
		if v != nil {
			pairs[key] = strconv.FormatFloat(*v, 'f', -1, 64)
		}
	}
	put(KeyHourlyRate, s.HourlyRate)
	put(KeyElectricityCostPerKWh, s.ElectricityCostPerKWh)
	put(KeyPrinterPowerW, s.PrinterPowerW)
	put(KeyProfitMargin, s.ProfitMargin)
	if s.Currency != nil {
		pairs[KeyCurrency] = strings.TrimSpace(*s.Currency)
	}
	return pairs
}

// ParseStored converts raw key/value rows into StoredSettings.
// Unknown keys are ignored and numeric values that do not parse are treated as unset.
func ParseStored(raw map[string]string) StoredSettings {
	var s StoredSettings
	num := func(key string) *float64 {
		v, ok := raw[key]
		if !ok {
			return nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil
		}
		return &f
	}
	s.HourlyRate = num(KeyHourlyRate)
	s.ElectricityCostPerKWh = num(KeyElectricityCostPerKWh)
	s.PrinterPowerW = num(KeyPrinterPowerW)
	s.ProfitMargin = num(KeyProfitMargin)
	if v, ok := raw[KeyCurrency]; ok {
		s.Currency = &v
	}
	return s
}
