package worker

import (
	"context"
	"testing"
	"time"

	"obench/internal/matching"
	"obench/internal/queue"
	"obench/internal/stats"
)

type noteRecorder struct {
	notes []uint32
}

func (n *noteRecorder) Note(workerID int, handle uint32) {
	n.notes = append(n.notes, handle)
}

func TestWorker_AppliesCrossingAdds(t *testing.T) {
	engine := matching.NewEngine(1024, 64)
	ring := queue.NewRing[matching.OrderMsg](16)
	agg := stats.NewAggregator(1, nil)
	rec := &noteRecorder{}
	w := New(0, engine, ring, agg, rec, Config{BatchSize: 8, StatsChunk: 1})

	ring.Push(matching.OrderMsg{Type: matching.MsgAdd, PriceTick: 10, Qty: 5, Side: matching.Buy})
	ring.Push(matching.OrderMsg{Type: matching.MsgAdd, PriceTick: 10, Qty: 3, Side: matching.Sell})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	w.Run(ctx)

	snap := agg.Snapshot()
	if snap.Trades != 1 {
		t.Fatalf("expected 1 trade folded into aggregator, got %d", snap.Trades)
	}
	if snap.Volume != 3 {
		t.Fatalf("expected volume 3, got %d", snap.Volume)
	}
	if len(rec.notes) != 1 {
		t.Fatalf("expected exactly one resting handle observed, got %d", len(rec.notes))
	}
}

func TestWorker_CancelMissIsCounted(t *testing.T) {
	engine := matching.NewEngine(1024, 64)
	ring := queue.NewRing[matching.OrderMsg](16)
	agg := stats.NewAggregator(1, nil)
	w := New(0, engine, ring, agg, nil, Config{BatchSize: 8, StatsChunk: 1})

	ring.Push(matching.OrderMsg{Type: matching.MsgCancel, HandleToCancel: 999})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	w.Run(ctx)

	if snap := agg.Snapshot(); snap.CancelMisses != 1 {
		t.Fatalf("expected 1 cancel miss, got %d", snap.CancelMisses)
	}
}
