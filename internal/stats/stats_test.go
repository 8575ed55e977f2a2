package stats

import (
	"sync"
	"testing"
)

func TestAggregator_FoldSumsAcrossWorkers(t *testing.T) {
	agg := NewAggregator(3, nil)

	var wg sync.WaitGroup
	for w := 0; w < 3; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				agg.Fold(Delta{Processed: 10, Rejects: 1})
			}
			agg.FoldWorkerTotals(id, 50, 500)
		}(w)
	}
	wg.Wait()

	snap := agg.Snapshot()
	if snap.Processed != 3*100*10 {
		t.Fatalf("Processed = %d, want %d", snap.Processed, 3*100*10)
	}
	if snap.Rejects != 3*100 {
		t.Fatalf("Rejects = %d, want %d", snap.Rejects, 3*100)
	}
	if snap.Trades != 3*50 {
		t.Fatalf("Trades = %d, want %d", snap.Trades, 3*50)
	}
	if snap.Volume != 3*500 {
		t.Fatalf("Volume = %d, want %d", snap.Volume, 3*500)
	}
}

func TestAggregator_FoldWorkerTotalsIsLastWriteWinsPerWorker(t *testing.T) {
	agg := NewAggregator(2, nil)

	agg.FoldWorkerTotals(0, 10, 100)
	agg.FoldWorkerTotals(1, 20, 200)
	agg.FoldWorkerTotals(0, 15, 150) // supersedes worker 0's first report

	snap := agg.Snapshot()
	if snap.Trades != 35 {
		t.Fatalf("Trades = %d, want 35 (15+20)", snap.Trades)
	}
	if snap.Volume != 350 {
		t.Fatalf("Volume = %d, want 350 (150+200)", snap.Volume)
	}
}

func TestAggregator_QueueFullAndEmptySpin(t *testing.T) {
	agg := NewAggregator(1, nil)
	agg.IncQueueFull()
	agg.IncQueueFull()
	agg.IncEmptySpin()

	snap := agg.Snapshot()
	if snap.QueueFull != 2 {
		t.Fatalf("QueueFull = %d, want 2", snap.QueueFull)
	}
	if snap.EmptySpins != 1 {
		t.Fatalf("EmptySpins = %d, want 1", snap.EmptySpins)
	}
}
