package matching

import (
	"math/rand"
	"testing"
)

// TestProperty_ConservationAndNoCrossedBook drives a long randomized
// sequence of AddLimit/Cancel calls and checks universal properties 1 and 3
// after every step: the book never ends an operation crossed, and the
// running total of quantity added never escapes volume traded, quantity
// still resting, quantity cancelled, and quantity rejected.
func TestProperty_ConservationAndNoCrossedBook(t *testing.T) {
	const maxTicks = 64
	const ops = 2000

	e := NewEngine(maxTicks, 4096)
	rnd := rand.New(rand.NewSource(20260802))

	var qtyAdded, qtyCancelled, qtyRejected uint64
	live := make(map[uint32]uint32) // handle -> remaining resting qty

	for i := 0; i < ops; i++ {
		if len(live) > 0 && rnd.Intn(3) == 0 {
			// Cancel a random live handle.
			var target uint32
			n := rnd.Intn(len(live))
			j := 0
			for h := range live {
				if j == n {
					target = h
					break
				}
				j++
			}
			if e.Cancel(target) {
				qtyCancelled += uint64(live[target])
				delete(live, target)
			}
		} else {
			side := Buy
			if rnd.Intn(2) == 1 {
				side = Sell
			}
			qty := uint32(rnd.Intn(20)) + 1
			tick := uint32(rnd.Intn(maxTicks))
			var flags uint8
			if rnd.Intn(10) == 0 {
				flags |= FlagIOC
			}

			qtyAdded += uint64(qty)
			volBefore := e.TotalVolume()
			h := e.AddLimit(OrderIn{PriceTick: tick, Qty: qty, Side: side, Flags: flags}, noopEmit)
			filled := e.TotalVolume() - volBefore
			remaining := uint64(qty) - filled

			switch h {
			case DoneFillHandle:
				// remaining must be 0; nothing further to track.
			case NilHandle:
				qtyRejected += remaining
			default:
				live[h] = uint32(remaining)
			}
		}

		bid, bidOK := e.BestBid()
		ask, askOK := e.BestAsk()
		if bidOK && askOK && bid >= ask {
			t.Fatalf("op %d: crossed book at rest: best_bid=%d best_ask=%d", i, bid, ask)
		}
	}

	var qtyRemainingResting uint64
	for _, q := range live {
		qtyRemainingResting += uint64(q)
	}

	got := e.TotalVolume() + qtyRemainingResting + qtyCancelled + qtyRejected
	if got != qtyAdded {
		t.Fatalf("conservation violated: qty_added=%d != volume=%d + resting=%d + cancelled=%d + rejected=%d (sum=%d)",
			qtyAdded, e.TotalVolume(), qtyRemainingResting, qtyCancelled, qtyRejected, got)
	}
}

// TestProperty_HandleStability exercises universal property 5: a handle
// identifies exactly one order until that order fills or is cancelled, and
// once released, a later reallocation of the same numeric handle identifies
// the new order rather than resurrecting the old one.
func TestProperty_HandleStability(t *testing.T) {
	e := NewEngine(64, 2)

	h1 := e.AddLimit(OrderIn{PriceTick: 1, Qty: 1, Side: Buy}, noopEmit)
	if h1 == NilHandle || h1 == DoneFillHandle {
		t.Fatalf("expected a live resting handle, got %d", h1)
	}
	if !e.Cancel(h1) {
		t.Fatalf("expected h1 to cancel successfully")
	}
	if e.Cancel(h1) {
		t.Fatalf("h1 should no longer identify any order once released")
	}

	reused := NilHandle
	for i := 0; i < 8 && reused == NilHandle; i++ {
		h := e.AddLimit(OrderIn{PriceTick: 2, Qty: 1, Side: Sell}, noopEmit)
		if h == h1 {
			reused = h
			break
		}
		e.Cancel(h)
	}
	if reused == NilHandle {
		t.Fatalf("expected handle %d to be reallocated within a handful of adds", h1)
	}
	if !e.Cancel(reused) {
		t.Fatalf("reallocated handle should identify the new order, not the stale one")
	}
}
