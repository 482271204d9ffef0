package planning

import "math"

// ReorderPlan is the safety-stock and reorder recommendation for one
// product. All quantities are m² and never negative.
type ReorderPlan struct {
	SafetyStockM2  float64 `json:"safety_stock_m2"`
	ReorderPointM2 float64 `json:"reorder_point_m2"`
	// DaysOfStock is total position divided by daily demand. Valid only
	// when HasVelocity is set; with zero demand there is no stockout date.
	DaysOfStock    float64 `json:"days_of_stock"`
	HasVelocity    bool    `json:"has_velocity"`
	ShouldReorder  bool    `json:"should_reorder"`
	RecommendedM2  float64 `json:"recommended_m2"`
	LowConfidence  bool    `json:"low_confidence"`
}

// ComputeReorder runs the safety-stock math for one product:
//
//	safety_stock  = z * sigma * sqrt(L/7)
//	reorder_point = d * (L/7) + safety_stock
//
// with d and sigma in m²/week and L the lead time in days. A reorder is
// recommended when the total position is at or below the reorder point;
// the recommended quantity tops the position up to reorder point plus one
// order cycle of demand. Negative demand inputs are clamped to zero, so
// zero sales history can never produce a negative or infinite
// recommendation.
func ComputeReorder(est DemandEstimate, pos StockPosition, p Policy) ReorderPlan {
	d := math.Max(est.WeeklyMean, 0)
	sigma := math.Max(est.WeeklyStdDev, 0)
	leadWeeks := float64(p.LeadTimeDays) / 7

	plan := ReorderPlan{LowConfidence: est.LowConfidence}
	plan.SafetyStockM2 = p.SafetyStockZScore * sigma * math.Sqrt(leadWeeks)
	if plan.SafetyStockM2 < 0 {
		// negative z-score is a policy choice for low service levels;
		// quantities still stay non-negative
		plan.SafetyStockM2 = 0
	}
	plan.ReorderPointM2 = d*leadWeeks + plan.SafetyStockM2

	daily := d / 7
	if daily > 0 {
		plan.DaysOfStock = pos.TotalM2 / daily
		plan.HasVelocity = true
	}

	if pos.TotalM2 <= plan.ReorderPointM2 {
		plan.ShouldReorder = true
		cycleDemand := d * float64(p.OrderCycleDays) / 7
		plan.RecommendedM2 = plan.ReorderPointM2 + cycleDemand - pos.TotalM2
		if plan.RecommendedM2 < 0 {
			plan.RecommendedM2 = 0
		}
	}

	// A plan with no demand signal recommends nothing on its own; any
	// order is then driven purely by minimum-stock policy.
	if d == 0 && sigma == 0 {
		plan.ShouldReorder = false
		plan.RecommendedM2 = 0
	}

	return plan
}

// OverstockedAt reports whether the position is far above target: more
// than the configured multiple of reorder point plus one cycle of demand.
func OverstockedAt(plan ReorderPlan, pos StockPosition, est DemandEstimate, p Policy) bool {
	if p.OverstockMultiple <= 0 {
		return false
	}
	cycleDemand := math.Max(est.WeeklyMean, 0) * float64(p.OrderCycleDays) / 7
	target := plan.ReorderPointM2 + cycleDemand
	if target <= 0 {
		return false
	}
	return pos.TotalM2 > target*p.OverstockMultiple
}
