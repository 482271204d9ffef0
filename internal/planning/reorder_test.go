package planning

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func testPolicy() Policy {
	return Policy{
		LeadTimeDays:         45,
		SafetyStockZScore:    1.645,
		OrderCycleDays:       30,
		VelocityWindowWeeks:  12,
		ContainerMaxPallets:  14,
		ContainerMaxWeightKg: 28000,
		ContainerMaxM2:       1881,
		M2PerPallet:          135,
		WeightPerM2Kg:        14.90,
		BoatMinContainers:    3,
		BoatMaxContainers:    5,
		StockoutCriticalDays: 14,
		StockoutWarningDays:  30,
		FreeDaysCritical:     2,
		FreeDaysWarning:      5,
		BookingBufferDays:    3,
		OverstockMultiple:    2.0,
		ContainerMinFillPct:  85.0,
	}
}

func TestComputeReorderFormulas(t *testing.T) {
	est := DemandEstimate{WeeklyMean: 500, WeeklyStdDev: 50, Weeks: 12}
	pos := StockPosition{TotalM2: 100}

	plan := ComputeReorder(est, pos, testPolicy())

	leadWeeks := 45.0 / 7
	wantSafety := 1.645 * 50 * math.Sqrt(leadWeeks)
	wantReorder := 500*leadWeeks + wantSafety

	require.InDelta(t, wantSafety, plan.SafetyStockM2, 0.01)
	require.InDelta(t, wantReorder, plan.ReorderPointM2, 0.01)
	require.True(t, plan.HasVelocity)
	require.True(t, plan.ShouldReorder)

	// Recommendation tops up to reorder point plus one cycle of demand
	cycleDemand := 500.0 * 30 / 7
	require.InDelta(t, wantReorder+cycleDemand-100, plan.RecommendedM2, 0.01)

	// 100 m² at ~71.4 m²/day is a little over a day of stock
	require.InDelta(t, 100/(500.0/7), plan.DaysOfStock, 0.01)
}

func TestComputeReorderAboveReorderPoint(t *testing.T) {
	est := DemandEstimate{WeeklyMean: 100, WeeklyStdDev: 10, Weeks: 12}
	pos := StockPosition{TotalM2: 50000}

	plan := ComputeReorder(est, pos, testPolicy())

	require.False(t, plan.ShouldReorder)
	require.Zero(t, plan.RecommendedM2)
	require.True(t, plan.HasVelocity)
}

func TestComputeReorderZeroDemand(t *testing.T) {
	est := DemandEstimate{WeeklyMean: 0, WeeklyStdDev: 0, Weeks: 0, LowConfidence: true}
	pos := StockPosition{TotalM2: 0}

	plan := ComputeReorder(est, pos, testPolicy())

	// No demand signal: nothing to recommend, no stockout horizon
	require.False(t, plan.ShouldReorder)
	require.Zero(t, plan.RecommendedM2)
	require.False(t, plan.HasVelocity)
	require.Zero(t, plan.DaysOfStock)
	require.True(t, plan.LowConfidence)
}

func TestComputeReorderClampsNegativeInputs(t *testing.T) {
	est := DemandEstimate{WeeklyMean: -10, WeeklyStdDev: -5, Weeks: 3}
	pos := StockPosition{TotalM2: 0}

	plan := ComputeReorder(est, pos, testPolicy())

	require.GreaterOrEqual(t, plan.SafetyStockM2, 0.0)
	require.GreaterOrEqual(t, plan.ReorderPointM2, 0.0)
	require.GreaterOrEqual(t, plan.RecommendedM2, 0.0)
}

func TestOverstockedAt(t *testing.T) {
	p := testPolicy()
	est := DemandEstimate{WeeklyMean: 100, WeeklyStdDev: 10, Weeks: 12}

	target := func(pos StockPosition) ReorderPlan {
		return ComputeReorder(est, pos, p)
	}

	low := StockPosition{TotalM2: 500}
	require.False(t, OverstockedAt(target(low), low, est, p))

	// Far above twice the replenishment target
	high := StockPosition{TotalM2: 50000}
	require.True(t, OverstockedAt(target(high), high, est, p))
}

func TestOverstockedAtZeroTarget(t *testing.T) {
	p := testPolicy()
	est := DemandEstimate{}
	pos := StockPosition{TotalM2: 1000}
	plan := ComputeReorder(est, pos, p)

	// With no demand there is no meaningful target to be above
	require.False(t, OverstockedAt(plan, pos, est, p))
}
