package metrics

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestRecordSweepTracksOutcomes(t *testing.T) {
	c := NewCollector()

	c.RecordSweep("alert_sweep", time.Now(), nil)
	c.RecordSweep("alert_sweep", time.Now(), errors.New("db down"))

	snap := c.Snapshot()
	stats, ok := snap.Sweeps["alert_sweep"]
	require.True(t, ok)
	require.Equal(t, int64(2), stats.Runs)
	require.Equal(t, int64(1), stats.Failures)
	require.InDelta(t, 50.0, stats.FailureRate, 0.01)
	require.LessOrEqual(t, stats.MinMs, stats.MaxMs)

	// Health follows the most recent outcome
	require.False(t, snap.Health["alert_sweep"])

	c.RecordSweep("alert_sweep", time.Now(), nil)
	require.True(t, c.Healthy()["alert_sweep"])
}

func TestCountersAndGauges(t *testing.T) {
	c := NewCollector()

	c.Add("alerts_inserted", 3)
	c.Add("alerts_inserted", 2)
	c.SetGauge("goroutines", 12)
	c.SetGauge("goroutines", 9)

	snap := c.Snapshot()
	require.Equal(t, int64(5), snap.Counters["alerts_inserted"])
	require.Equal(t, int64(9), snap.Gauges["goroutines"])
	require.GreaterOrEqual(t, snap.UptimeSeconds, int64(0))
}

func TestSetHealth(t *testing.T) {
	c := NewCollector()

	c.SetHealth("document_processor", true)
	c.SetHealth("document_processor", false)

	require.False(t, c.Healthy()["document_processor"])
}
