package planning

import "math"

// DemandEstimate is the weekly demand profile for a product over the
// trailing sales window.
type DemandEstimate struct {
	WeeklyMean   float64 `json:"weekly_mean"`
	WeeklyStdDev float64 `json:"weekly_std_dev"`
	Weeks        int     `json:"weeks"`
	// LowConfidence is set with fewer than two data points. It is a
	// quality flag, not an error; the estimate is still usable.
	LowConfidence bool `json:"low_confidence"`
}

// DailyMean converts the weekly demand mean to a per-day rate
func (d DemandEstimate) DailyMean() float64 {
	return d.WeeklyMean / 7
}

// EstimateDemand computes mean and standard deviation of weekly sales
// quantities. Negative inputs are clamped to zero before use. Zero history
// yields a zero estimate rather than an error.
func EstimateDemand(weeklyQty []float64) DemandEstimate {
	est := DemandEstimate{Weeks: len(weeklyQty)}
	if len(weeklyQty) < 2 {
		est.LowConfidence = true
	}
	if len(weeklyQty) == 0 {
		return est
	}

	var sum float64
	for _, q := range weeklyQty {
		if q < 0 {
			q = 0
		}
		sum += q
	}
	mean := sum / float64(len(weeklyQty))

	var sqDiff float64
	for _, q := range weeklyQty {
		if q < 0 {
			q = 0
		}
		sqDiff += (q - mean) * (q - mean)
	}
	variance := sqDiff / float64(len(weeklyQty))

	est.WeeklyMean = mean
	est.WeeklyStdDev = math.Sqrt(variance)
	return est
}
