package planning

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEstimateDemandBasics(t *testing.T) {
	est := EstimateDemand([]float64{400, 500, 600})

	require.Equal(t, 3, est.Weeks)
	require.False(t, est.LowConfidence)
	require.InDelta(t, 500, est.WeeklyMean, 0.001)

	// Population standard deviation over the window
	want := math.Sqrt(((400.0-500)*(400.0-500) + 0 + (600.0-500)*(600.0-500)) / 3)
	require.InDelta(t, want, est.WeeklyStdDev, 0.001)
	require.InDelta(t, 500.0/7, est.DailyMean(), 0.001)
}

func TestEstimateDemandEmptyHistory(t *testing.T) {
	est := EstimateDemand(nil)

	require.Zero(t, est.WeeklyMean)
	require.Zero(t, est.WeeklyStdDev)
	require.Zero(t, est.Weeks)
	require.True(t, est.LowConfidence)
}

func TestEstimateDemandSinglePointIsLowConfidence(t *testing.T) {
	est := EstimateDemand([]float64{700})

	require.True(t, est.LowConfidence)
	require.InDelta(t, 700, est.WeeklyMean, 0.001)
	require.Zero(t, est.WeeklyStdDev)
}

func TestEstimateDemandClampsNegatives(t *testing.T) {
	est := EstimateDemand([]float64{-100, 100})

	// The returned batch had a negative week; it counts as zero
	require.InDelta(t, 50, est.WeeklyMean, 0.001)
}
