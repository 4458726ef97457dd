package spine

import (
	"sync/atomic"
	"time"
)

// LatencyBuckets defines the tick-duration histogram buckets in
// nanoseconds, roughly logarithmically spaced from 1us to 100ms — the cognitive
// loop's budget is 500us per tick, so this range brackets both the
// nominal case and gross overruns.
var LatencyBuckets = []uint64{
	1_000,       // 1us
	10_000,      // 10us
	100_000,     // 100us
	500_000,     // 500us (nominal tick budget)
	1_000_000,   // 1ms
	5_000_000,   // 5ms
	10_000_000,  // 10ms
	100_000_000, // 100ms
}

const numLatencyBuckets = 8

// Metrics tracks cognitive-loop performance and ring/broadcast
// statistics for a Nexus Spine region.
type Metrics struct {
	Ticks              atomic.Uint64
	BroadcastCycles    atomic.Uint64
	ConsolidationRuns  atomic.Uint64
	InterruptsDrained  atomic.Uint64
	InterruptsDropped  atomic.Uint64
	SeqlockRetries     atomic.Uint64

	TotalTickLatencyNs atomic.Uint64
	TickLatencyBuckets [numLatencyBuckets]atomic.Uint64

	StartTime atomic.Int64
	StopTime  atomic.Int64
}

// NewMetrics creates a new metrics instance.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

// RecordTick records one cognitive-loop iteration's duration.
func (m *Metrics) RecordTick(durationNs uint64) {
	m.Ticks.Add(1)
	m.TotalTickLatencyNs.Add(durationNs)
	for i, bucket := range LatencyBuckets {
		if durationNs <= bucket {
			m.TickLatencyBuckets[i].Add(1)
		}
	}
}

// RecordBroadcast records that a GWT broadcast cycle ran.
func (m *Metrics) RecordBroadcast() { m.BroadcastCycles.Add(1) }

// RecordConsolidation records that a consolidation cycle ran.
func (m *Metrics) RecordConsolidation() { m.ConsolidationRuns.Add(1) }

// RecordInterruptDrain records the number of interrupts drained in one tick.
func (m *Metrics) RecordInterruptDrain(n int) { m.InterruptsDrained.Add(uint64(n)) }

// RecordInterruptDrop records a dropped (rejected) push.
func (m *Metrics) RecordInterruptDrop() { m.InterruptsDropped.Add(1) }

// RecordSeqlockRetries records the retry count of a seqlock read.
func (m *Metrics) RecordSeqlockRetries(n uint32) { m.SeqlockRetries.Add(uint64(n)) }

// Stop marks the engine as stopped.
func (m *Metrics) Stop() { m.StopTime.Store(time.Now().UnixNano()) }

// MetricsSnapshot is a point-in-time snapshot of Metrics.
type MetricsSnapshot struct {
	Ticks             uint64
	BroadcastCycles   uint64
	ConsolidationRuns uint64
	InterruptsDrained uint64
	InterruptsDropped uint64
	SeqlockRetries    uint64

	AvgTickLatencyNs uint64
	TickP50Ns        uint64
	TickP99Ns        uint64
	TickP999Ns       uint64
	TickLatencyHistogram [numLatencyBuckets]uint64

	UptimeNs     uint64
	HeadroomPct  float64 // spare fraction of the tick budget, 0-100
}

// Snapshot creates a point-in-time snapshot of metrics. cycleBudgetNs is
// the configured tick period, used to compute headroom.
func (m *Metrics) Snapshot(cycleBudgetNs uint64) MetricsSnapshot {
	snap := MetricsSnapshot{
		Ticks:             m.Ticks.Load(),
		BroadcastCycles:   m.BroadcastCycles.Load(),
		ConsolidationRuns: m.ConsolidationRuns.Load(),
		InterruptsDrained: m.InterruptsDrained.Load(),
		InterruptsDropped: m.InterruptsDropped.Load(),
		SeqlockRetries:    m.SeqlockRetries.Load(),
	}

	ticks := snap.Ticks
	totalNs := m.TotalTickLatencyNs.Load()
	if ticks > 0 {
		snap.AvgTickLatencyNs = totalNs / ticks
	}

	startTime := m.StartTime.Load()
	stopTime := m.StopTime.Load()
	if stopTime > 0 {
		snap.UptimeNs = uint64(stopTime - startTime)
	} else {
		snap.UptimeNs = uint64(time.Now().UnixNano() - startTime)
	}

	for i := 0; i < numLatencyBuckets; i++ {
		snap.TickLatencyHistogram[i] = m.TickLatencyBuckets[i].Load()
	}

	if ticks > 0 {
		snap.TickP50Ns = m.calculatePercentile(0.50)
		snap.TickP99Ns = m.calculatePercentile(0.99)
		snap.TickP999Ns = m.calculatePercentile(0.999)
	}

	if cycleBudgetNs > 0 && snap.AvgTickLatencyNs > 0 {
		headroom := 1.0 - float64(snap.AvgTickLatencyNs)/float64(cycleBudgetNs)
		if headroom < 0 {
			headroom = 0
		}
		snap.HeadroomPct = headroom * 100.0
	}

	return snap
}

// calculatePercentile estimates tick latency at the given percentile
// (0.0-1.0) via linear interpolation between histogram buckets.
func (m *Metrics) calculatePercentile(percentile float64) uint64 {
	totalTicks := m.Ticks.Load()
	if totalTicks == 0 {
		return 0
	}
	targetCount := uint64(float64(totalTicks) * percentile)

	prevBucket := uint64(0)
	for i, bucket := range LatencyBuckets {
		bucketCount := m.TickLatencyBuckets[i].Load()
		if bucketCount >= targetCount {
			prevCount := uint64(0)
			if i > 0 {
				prevCount = m.TickLatencyBuckets[i-1].Load()
			}
			if bucketCount == prevCount {
				return bucket
			}
			fraction := float64(targetCount-prevCount) / float64(bucketCount-prevCount)
			return prevBucket + uint64(fraction*float64(bucket-prevBucket))
		}
		prevBucket = bucket
	}
	return LatencyBuckets[numLatencyBuckets-1]
}

// Observer allows pluggable cognitive-loop observation.
type Observer interface {
	ObserveTick(durationNs uint64)
	ObserveBroadcast()
	ObserveConsolidation()
	ObserveInterruptDrain(n int)
	ObserveInterruptDrop()
	ObserveSeqlockRetries(n uint32)
}

// NoOpObserver is a no-op implementation of Observer.
type NoOpObserver struct{}

func (NoOpObserver) ObserveTick(uint64)           {}
func (NoOpObserver) ObserveBroadcast()             {}
func (NoOpObserver) ObserveConsolidation()         {}
func (NoOpObserver) ObserveInterruptDrain(int)     {}
func (NoOpObserver) ObserveInterruptDrop()         {}
func (NoOpObserver) ObserveSeqlockRetries(uint32)  {}

// MetricsObserver implements Observer using the built-in Metrics.
type MetricsObserver struct {
	metrics *Metrics
}

// NewMetricsObserver creates an observer that records to the given metrics.
func NewMetricsObserver(m *Metrics) *MetricsObserver { return &MetricsObserver{metrics: m} }

func (o *MetricsObserver) ObserveTick(durationNs uint64)  { o.metrics.RecordTick(durationNs) }
func (o *MetricsObserver) ObserveBroadcast()               { o.metrics.RecordBroadcast() }
func (o *MetricsObserver) ObserveConsolidation()           { o.metrics.RecordConsolidation() }
func (o *MetricsObserver) ObserveInterruptDrain(n int)     { o.metrics.RecordInterruptDrain(n) }
func (o *MetricsObserver) ObserveInterruptDrop()           { o.metrics.RecordInterruptDrop() }
func (o *MetricsObserver) ObserveSeqlockRetries(n uint32)  { o.metrics.RecordSeqlockRetries(n) }

// Compile-time interface checks.
var _ Observer = (*MetricsObserver)(nil)
var _ Observer = (*NoOpObserver)(nil)
