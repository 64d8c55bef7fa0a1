package pricing

// OrderLine is one order joined with the frozen cost fields of its item.
type OrderLine struct {
	Quantity        int
	SalePrice       float64
	MaterialCost    float64
	LaborCost       float64
	ElectricityCost float64
	BuildPrice      float64
	PrintTimeHours  float64
}

// LineProfit holds the per-order figures computed at query time.
type LineProfit struct {
	Revenue            float64
	ProfitWithLabor    float64
	ProfitWithoutLabor float64
}

// Summary contains totals across all orders.
type Summary struct {
	TotalRevenue         float64 `json:"total_revenue"`
	TotalCostNoLabor     float64 `json:"total_cost_no_labor"`
	TotalCost            float64 `json:"total_cost"`
	TotalMaterialCost    float64 `json:"total_material_cost"`
	TotalLaborCost       float64 `json:"total_labor_cost"`
	TotalElectricityCost float64 `json:"total_electricity_cost"`
	TotalLaborHours      float64 `json:"total_labor_hours"`
	ProfitExcludingLabor float64 `json:"profit_excluding_labor"`
	ProfitIncludingLabor float64 `json:"profit_including_labor"`
	TotalOrders          int     `json:"total_orders"`
	TotalItemsSold       int     `json:"total_items_sold"`
}

// ProfitOf computes revenue and both profit variants for one order.
func ProfitOf(l OrderLine) LineProfit {
	qty := float64(l.Quantity)
	return LineProfit{
		Revenue:            l.SalePrice * qty,
		ProfitWithLabor:    (l.SalePrice - l.BuildPrice) * qty,
		ProfitWithoutLabor: (l.SalePrice - (l.MaterialCost + l.ElectricityCost)) * qty,
	}
}

// Summarize aggregates order lines. No lines yields the zero Summary.
func Summarize(lines []OrderLine) Summary {
	var s Summary
	for _, l := range lines {
		qty := float64(l.Quantity)
		revenue := l.SalePrice * qty
		costNoLabor := (l.MaterialCost + l.ElectricityCost) * qty
		labor := l.LaborCost * qty

		s.TotalRevenue += revenue
		s.TotalCostNoLabor += costNoLabor
		s.TotalCost += costNoLabor + labor
		s.TotalMaterialCost += l.MaterialCost * qty
		s.TotalLaborCost += labor
		s.TotalElectricityCost += l.ElectricityCost * qty
		s.TotalLaborHours += l.PrintTimeHours * qty
		s.ProfitExcludingLabor += revenue - costNoLabor
		s.ProfitIncludingLabor += revenue - l.BuildPrice*qty
		s.TotalOrders++
		s.TotalItemsSold += l.Quantity
	}
	return s
}
