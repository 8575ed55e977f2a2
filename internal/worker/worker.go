// Package worker implements the single-goroutine-per-engine drain loop that
// applies OrderMsg traffic from a ring to a matching.Engine. The loop shape
// is grounded on handikong's internal/engine/actor.go SymbolActor.Run, but
// it never blocks: each pass drains whatever has queued up, up to a batch
// ceiling, and an empty pass spins, yielding the processor every 64 empty
// passes. Unlike the actor it's grounded on, this loop has no WAL, no
// outbox, and no publisher — the engine here does not persist state, by
// design.
package worker

import (
	"context"
	"runtime"

	"obench/internal/matching"
	"obench/internal/queue"
	"obench/internal/stats"
)

// Config tunes one worker's drain loop.
type Config struct {
	// BatchSize bounds how many messages a single non-blocking drain will
	// take off the ring before the worker checks whether to fold counters
	// and loops again.
	BatchSize int
	// StatsChunk is the minimum number of processed messages a worker
	// accumulates locally before folding into the shared aggregator, per
	// the fold-in-chunks-of-at-least-50K discipline.
	StatsChunk uint64
}

// DefaultConfig matches the batch/fold sizing called out in the design
// notes: large enough batches to amortize ring contention, chunked folds
// large enough to keep atomic traffic on the shared aggregator rare.
func DefaultConfig() Config {
	return Config{BatchSize: 8192, StatsChunk: 50_000}
}

// HandleObserver is notified of every handle a worker's engine assigns to a
// newly-resting order. The generator implements this to seed its own
// cancel-replay bookkeeping with handles that actually exist.
type HandleObserver interface {
	Note(workerID int, handle uint32)
}

// OrderRecorder is notified of the full order behind a newly-assigned
// handle, so external bookkeeping (internal/ordermanager) can retain
// metadata the engine itself drops once an order stops resting, and of
// every handle a worker successfully cancels, so that bookkeeping can be
// released in step with the engine.
type OrderRecorder interface {
	Record(workerID int, handle uint32, msg matching.OrderMsg)
	Forget(handle uint32)
}

// Worker owns one Engine and the ring feeding it. It is the sole caller of
// every method on its Engine, satisfying the engine's single-owner
// requirement.
type Worker struct {
	id       int
	engine   *matching.Engine
	ring     *queue.Ring[matching.OrderMsg]
	agg      *stats.Aggregator
	observer HandleObserver
	recorder OrderRecorder
	cfg      Config
}

// New builds a worker over an existing engine and ring. observer and
// recorder may both be nil.
func New(id int, engine *matching.Engine, ring *queue.Ring[matching.OrderMsg], agg *stats.Aggregator, observer HandleObserver, cfg Config) *Worker {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultConfig().BatchSize
	}
	if cfg.StatsChunk == 0 {
		cfg.StatsChunk = DefaultConfig().StatsChunk
	}
	return &Worker{id: id, engine: engine, ring: ring, agg: agg, observer: observer, cfg: cfg}
}

// WithRecorder attaches an OrderRecorder to an already-built worker.
func (w *Worker) WithRecorder(recorder OrderRecorder) *Worker {
	w.recorder = recorder
	return w
}

// Run drains the ring until ctx is cancelled and the ring has gone empty.
// Callers signal shutdown by cancelling ctx once no more producers will
// push to this worker's ring; Run keeps draining until the ring is
// observed empty after that point, so in-flight messages are never
// dropped on shutdown.
func (w *Worker) Run(ctx context.Context) {
	batch := make([]matching.OrderMsg, w.cfg.BatchSize)
	var processed, rejects, cancelMisses, doneFills uint64

	fold := func() {
		if processed == 0 {
			return
		}
		w.agg.Fold(stats.Delta{
			Processed:    processed,
			Rejects:      rejects,
			CancelMisses: cancelMisses,
			DoneFills:    doneFills,
		})
		w.agg.FoldWorkerTotals(w.id, w.engine.TotalTrades(), w.engine.TotalVolume())
		processed, rejects, cancelMisses, doneFills = 0, 0, 0, 0
	}

	spins := 0
	for {
		n := w.ring.PopBatch(batch)
		if n == 0 {
			select {
			case <-ctx.Done():
				if w.ring.Empty() {
					fold()
					return
				}
			default:
			}
			spins++
			if spins < 64 {
				continue
			}
			runtime.Gosched()
			spins = 0
			continue
		}
		spins = 0

		for i := 0; i < n; i++ {
			msg := batch[i]
			switch msg.Type {
			case matching.MsgAdd:
				h := w.engine.AddLimit(matching.OrderIn{
					ClientID:  msg.ClientID,
					PriceTick: msg.PriceTick,
					Qty:       msg.Qty,
					Side:      msg.Side,
					Flags:     msg.Flags,
				}, nil)
				switch h {
				case matching.NilHandle:
					rejects++
				case matching.DoneFillHandle:
					doneFills++
				default:
					if w.observer != nil {
						w.observer.Note(w.id, h)
					}
					if w.recorder != nil {
						w.recorder.Record(w.id, h, msg)
					}
				}
			case matching.MsgCancel:
				if !w.engine.Cancel(msg.HandleToCancel) {
					cancelMisses++
				} else if w.recorder != nil {
					w.recorder.Forget(msg.HandleToCancel)
				}
			}
			processed++
		}

		if processed >= w.cfg.StatsChunk {
			fold()
		}
	}
}
