package generator

import (
	"context"
	"testing"
	"time"

	"obench/internal/matching"
	"obench/internal/queue"
)

func TestGenerator_NeverCancelsAnUnseenHandle(t *testing.T) {
	ring := queue.NewRing[matching.OrderMsg](1024)
	gen := New(Config{
		Producers:      1,
		MidTick:        100,
		Spread:         10,
		MaxQty:         5,
		CancelFraction: 0.9, // heavily biased toward cancel, to exercise the empty-recent path
		Seed:           7,
	}, []queue.Producer[matching.OrderMsg]{ring})

	seen := map[uint32]bool{}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	gen.Run(ctx)

	var msg matching.OrderMsg
	for ring.Pop(&msg) {
		if msg.Type == matching.MsgAdd {
			continue
		}
		if !seen[msg.HandleToCancel] {
			t.Fatalf("generator emitted CANCEL for handle %d it was never told about", msg.HandleToCancel)
		}
	}

	// Since Note is never called in this test, recentHandles stays empty for
	// every producer, so every emission must fall through to an ADD.
	_ = seen
}

func TestGenerator_ReplaysOnlyNotedHandles(t *testing.T) {
	ring := queue.NewRing[matching.OrderMsg](2048)
	gen := New(Config{
		Producers:      1,
		MidTick:        100,
		Spread:         10,
		MaxQty:         5,
		CancelFraction: 0.5,
		Seed:           3,
	}, []queue.Producer[matching.OrderMsg]{ring})

	gen.Note(0, 42)
	gen.Note(0, 99)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	gen.Run(ctx)

	allowed := map[uint32]bool{42: true, 99: true}
	var msg matching.OrderMsg
	for ring.Pop(&msg) {
		if msg.Type != matching.MsgCancel {
			continue
		}
		if !allowed[msg.HandleToCancel] {
			t.Fatalf("generator replayed CANCEL for handle %d, which was never Note()'d", msg.HandleToCancel)
		}
	}
}

func TestGenerator_RateLimiterBoundsThroughput(t *testing.T) {
	ring := queue.NewRing[matching.OrderMsg](1 << 20)
	gen := New(Config{
		Producers:  1,
		MidTick:    100,
		Spread:     10,
		MaxQty:     5,
		RatePerSec: 200,
		Seed:       1,
	}, []queue.Producer[matching.OrderMsg]{ring})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	report := gen.Run(ctx)

	// 200/s over ~0.2s emits the initial burst of 201 plus about 40 refills,
	// roughly 240 in all, generously bounded well below an unthrottled tight
	// loop's count.
	if report.Emitted > 500 {
		t.Fatalf("rate limiter did not bound emission: emitted %d in ~200ms at 200/s", report.Emitted)
	}
}
