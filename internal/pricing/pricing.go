package pricing

// ItemInput represents the raw, optional inputs entered for a manufactured item.
type ItemInput struct {
	GramsUsed      *float64
	PrintTimeHours *float64
	HourlyRate     *float64
	ElectricityKW  *float64
	ProfitMargin   *float64
}

// CostBreakdown contains the cost components of an item before profit.
type CostBreakdown struct {
	MaterialCost     float64
	PrintTimeHours   float64
	HourlyRate       float64
	LaborCost        float64
	ElectricityKW    float64
	ElectricityCost  float64
	TotalCostNoLabor float64
	BuildPrice       float64
}

// Snapshot is the frozen pricing of an item as of its creation.
// It is persisted once and never recomputed from live filament or settings state.
type Snapshot struct {
	CostBreakdown
	ProfitMargin float64
	FinalPrice   float64
}

// ComposeCosts computes material, labor and electricity costs and the build price.
// costPerGram is nil when the item references no filament. Missing inputs count as zero.
func ComposeCosts(in ItemInput, costPerGram *float64, s Settings) CostBreakdown {
	materialCost := 0.0
	if costPerGram != nil && in.GramsUsed != nil {
		materialCost = *costPerGram * *in.GramsUsed
	}

	hourlyRate := valueOr(in.HourlyRate, s.HourlyRate)
	printTime := valueOr(in.PrintTimeHours, 0)
	laborCost := hourlyRate * printTime

	electricityKW := valueOr(in.ElectricityKW, 0)
	electricityCost := electricityKW * s.ElectricityCostPerKWh

	totalNoLabor := materialCost + electricityCost

	return CostBreakdown{
		MaterialCost:     materialCost,
		PrintTimeHours:   printTime,
		HourlyRate:       hourlyRate,
		LaborCost:        laborCost,
		ElectricityKW:    electricityKW,
		ElectricityCost:  electricityCost,
		TotalCostNoLabor: totalNoLabor,
		BuildPrice:       totalNoLabor + laborCost,
	}
}

// EffectiveMargin returns the margin percentage applied when margin is omitted.
func EffectiveMargin(margin *float64, s Settings) float64 {
	return valueOr(margin, s.ProfitMargin)
}

// DerivePrice applies the profit margin percentage to the build price.
func DerivePrice(buildPrice float64, margin *float64, s Settings) float64 {
	return buildPrice * (1 + EffectiveMargin(margin, s)/100)
}

// Quote runs the full item pricing pipeline and returns the snapshot to persist.
func Quote(in ItemInput, costPerGram *float64, s Settings) Snapshot {
	costs := ComposeCosts(in, costPerGram, s)
	return Snapshot{
		CostBreakdown: costs,
		ProfitMargin:  EffectiveMargin(in.ProfitMargin, s),
		FinalPrice:    DerivePrice(costs.BuildPrice, in.ProfitMargin, s),
	}
}

// CostPerGram converts a filament price per kilogram into a price per gram.
// It is evaluated when a filament is entered or edited and stored as is.
func CostPerGram(pricePerKg float64) float64 {
	return pricePerKg / 1000
}

// SuggestElectricityKW estimates energy use from the average printer draw.
// It only pre-fills a form field; ComposeCosts never applies it on its own.
func SuggestElectricityKW(printerPowerW, printTimeHours float64) float64 {
	return (printerPowerW / 1000) * printTimeHours
}

func valueOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}
