// Package stats aggregates per-worker counters into process-wide totals and
// exposes them both as Prometheus metrics and as periodic stdout summaries,
// in the style of the teacher's pkg/metrics/custom.go counter/gauge pairs
// and goovo's bench-core/main.go printResults loop. It is purely
// observational: nothing here feeds back into engine or worker behavior.
package stats

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Delta is a chunk of locally-accumulated worker counters folded into the
// shared Aggregator.
type Delta struct {
	Processed    uint64
	Rejects      uint64
	CancelMisses uint64
	DoneFills    uint64
}

// Snapshot is a point-in-time read of the aggregator's counters.
type Snapshot struct {
	Processed    uint64
	Rejects      uint64
	CancelMisses uint64
	DoneFills    uint64
	Trades       uint64
	Volume       uint64
	QueueFull    uint64
	EmptySpins   uint64
}

// Aggregator collects folded counters from every worker. Processed,
// Rejects, CancelMisses, and DoneFills are additive across folds; Trades
// and Volume are last-write-wins per worker slot summed at snapshot time,
// since each worker reports its own engine's running total rather than a
// delta.
type Aggregator struct {
	processed    uint64
	rejects      uint64
	cancelMisses uint64
	doneFills    uint64
	queueFull    uint64
	emptySpins   uint64

	workerTrades []uint64
	workerVolume []uint64

	metrics *promMetrics
}

// NewAggregator builds an aggregator sized for workerCount workers.
func NewAggregator(workerCount int, reg prometheus.Registerer) *Aggregator {
	a := &Aggregator{
		workerTrades: make([]uint64, workerCount),
		workerVolume: make([]uint64, workerCount),
	}
	if reg != nil {
		a.metrics = newPromMetrics(reg)
	}
	return a
}

// Fold merges one worker's local counter chunk into the aggregate. The
// per-worker trade/volume totals are reported separately through
// FoldWorkerTotals.
func (a *Aggregator) Fold(d Delta) {
	atomic.AddUint64(&a.processed, d.Processed)
	atomic.AddUint64(&a.rejects, d.Rejects)
	atomic.AddUint64(&a.cancelMisses, d.CancelMisses)
	atomic.AddUint64(&a.doneFills, d.DoneFills)
	if a.metrics != nil {
		a.metrics.processed.Add(float64(d.Processed))
		a.metrics.rejects.Add(float64(d.Rejects))
	}
}

// FoldWorkerTotals records worker workerID's current cumulative trade and
// volume counters, replacing its previous contribution to the sum reported
// by Snapshot. workerID must be a stable id in [0, workerCount).
func (a *Aggregator) FoldWorkerTotals(workerID int, trades, volume uint64) {
	atomic.StoreUint64(&a.workerTrades[workerID], trades)
	atomic.StoreUint64(&a.workerVolume[workerID], volume)
	if a.metrics != nil {
		a.metrics.trades.Set(float64(a.sumTrades()))
		a.metrics.volume.Set(float64(a.sumVolume()))
	}
}

// IncQueueFull records one producer-observed full-ring event.
func (a *Aggregator) IncQueueFull() {
	atomic.AddUint64(&a.queueFull, 1)
	if a.metrics != nil {
		a.metrics.queueFull.Inc()
	}
}

// IncEmptySpin records one worker spin against an empty ring.
func (a *Aggregator) IncEmptySpin() {
	atomic.AddUint64(&a.emptySpins, 1)
}

func (a *Aggregator) sumTrades() uint64 {
	var sum uint64
	for i := range a.workerTrades {
		sum += atomic.LoadUint64(&a.workerTrades[i])
	}
	return sum
}

func (a *Aggregator) sumVolume() uint64 {
	var sum uint64
	for i := range a.workerVolume {
		sum += atomic.LoadUint64(&a.workerVolume[i])
	}
	return sum
}

// Snapshot takes a point-in-time read of every counter.
func (a *Aggregator) Snapshot() Snapshot {
	return Snapshot{
		Processed:    atomic.LoadUint64(&a.processed),
		Rejects:      atomic.LoadUint64(&a.rejects),
		CancelMisses: atomic.LoadUint64(&a.cancelMisses),
		DoneFills:    atomic.LoadUint64(&a.doneFills),
		Trades:       a.sumTrades(),
		Volume:       a.sumVolume(),
		QueueFull:    atomic.LoadUint64(&a.queueFull),
		EmptySpins:   atomic.LoadUint64(&a.emptySpins),
	}
}

type promMetrics struct {
	processed prometheus.Counter
	rejects   prometheus.Counter
	trades    prometheus.Gauge
	volume    prometheus.Gauge
	queueFull prometheus.Counter
}

func newPromMetrics(reg prometheus.Registerer) *promMetrics {
	m := &promMetrics{
		processed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "obench_messages_processed_total",
			Help: "Total order messages applied to an engine.",
		}),
		rejects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "obench_rejects_total",
			Help: "Total AddLimit calls rejected (bad input or resource exhaustion).",
		}),
		trades: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "obench_trades_total",
			Help: "Cumulative trades executed across all engines.",
		}),
		volume: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "obench_volume_total",
			Help: "Cumulative traded quantity across all engines.",
		}),
		queueFull: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "obench_queue_full_total",
			Help: "Total Push calls that found their ring full.",
		}),
	}
	reg.MustRegister(m.processed, m.rejects, m.trades, m.volume, m.queueFull)
	return m
}
