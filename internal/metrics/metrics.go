package metrics

import (
	"sync"
	"time"
)

// SweepStats summarizes one recurring job: the alert sweep, the document
// expiry sweep, or anything else recorded through RecordSweep.
type SweepStats struct {
	Runs        int64   `json:"runs"`
	Failures    int64   `json:"failures"`
	FailureRate float64 `json:"failure_rate"`
	AvgMs       float64 `json:"avg_ms"`
	MinMs       int64   `json:"min_ms"`
	MaxMs       int64   `json:"max_ms"`
	LastMs      int64   `json:"last_ms"`
}

// Snapshot is the full metrics view served on /metrics
type Snapshot struct {
	UptimeSeconds int64                 `json:"uptime_seconds"`
	Counters      map[string]int64      `json:"counters"`
	Gauges        map[string]int64      `json:"gauges"`
	Sweeps        map[string]SweepStats `json:"sweeps"`
	Health        map[string]bool       `json:"health"`
}

type sweepTally struct {
	runs     int64
	failures int64
	totalMs  int64
	minMs    int64
	maxMs    int64
	lastMs   int64
}

// Collector aggregates in-process operational metrics. Everything lives in
// memory; the /metrics endpoint serves a point-in-time snapshot.
type Collector struct {
	mu       sync.Mutex
	counters map[string]int64
	gauges   map[string]int64
	sweeps   map[string]*sweepTally
	health   map[string]bool
	started  time.Time
}

// NewCollector creates a new metrics collector
func NewCollector() *Collector {
	return &Collector{
		counters: make(map[string]int64),
		gauges:   make(map[string]int64),
		sweeps:   make(map[string]*sweepTally),
		health:   make(map[string]bool),
		started:  time.Now(),
	}
}

// Add increments a counter
func (c *Collector) Add(name string, delta int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters[name] += delta
}

// SetGauge sets a gauge to a point-in-time value
func (c *Collector) SetGauge(name string, value int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gauges[name] = value
}

// SetHealth flags a component healthy or unhealthy
func (c *Collector) SetHealth(component string, healthy bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.health[component] = healthy
}

// RecordSweep records one run of a recurring job: its duration, whether it
// failed, and the component health flag derived from the outcome.
func (c *Collector) RecordSweep(name string, started time.Time, err error) {
	elapsed := time.Since(started).Milliseconds()

	c.mu.Lock()
	defer c.mu.Unlock()

	tally, ok := c.sweeps[name]
	if !ok {
		tally = &sweepTally{minMs: elapsed}
		c.sweeps[name] = tally
	}

	tally.runs++
	tally.totalMs += elapsed
	tally.lastMs = elapsed
	if elapsed < tally.minMs {
		tally.minMs = elapsed
	}
	if elapsed > tally.maxMs {
		tally.maxMs = elapsed
	}
	if err != nil {
		tally.failures++
	}
	c.health[name] = err == nil
}

// Healthy reports every component's current health flag
func (c *Collector) Healthy() map[string]bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	health := make(map[string]bool, len(c.health))
	for name, ok := range c.health {
		health[name] = ok
	}
	return health
}

// Snapshot copies the current state of every metric
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		UptimeSeconds: int64(time.Since(c.started).Seconds()),
		Counters:      make(map[string]int64, len(c.counters)),
		Gauges:        make(map[string]int64, len(c.gauges)),
		Sweeps:        make(map[string]SweepStats, len(c.sweeps)),
		Health:        make(map[string]bool, len(c.health)),
	}
	for name, value := range c.counters {
		snap.Counters[name] = value
	}
	for name, value := range c.gauges {
		snap.Gauges[name] = value
	}
	for name, tally := range c.sweeps {
		stats := SweepStats{
			Runs:     tally.runs,
			Failures: tally.failures,
			MinMs:    tally.minMs,
			MaxMs:    tally.maxMs,
			LastMs:   tally.lastMs,
		}
		if tally.runs > 0 {
			stats.FailureRate = float64(tally.failures) / float64(tally.runs) * 100.0
			stats.AvgMs = float64(tally.totalMs) / float64(tally.runs)
		}
		snap.Sweeps[name] = stats
	}
	for name, ok := range c.health {
		snap.Health[name] = ok
	}
	return snap
}
