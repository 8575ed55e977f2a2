// Package generator produces synthetic OrderMsg traffic and routes it to
// worker rings. It plays the role goovo's cmd/bench-core/main.go worker()
// goroutines play — draw a random order, send it, repeat — generalized to
// rate-limited, multi-worker, cancel-replaying traffic instead of a tight
// unthrottled loop, and targeting the queue/matching types instead of
// goovo's decimal Order.
package generator

import (
	"context"
	"encoding/binary"
	"math/rand"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"obench/internal/matching"
	"obench/internal/queue"
	"obench/pkg/metrics"
	"obench/pkg/ratelimit"
)

// Config tunes one generator run.
type Config struct {
	// RatePerSec bounds total emission rate across all producer goroutines;
	// 0 means unlimited.
	RatePerSec float64
	// Producers is the number of independent emitting goroutines; each is
	// assigned one sink round-robin, matching the one-ring-per-worker
	// deployment.
	Producers int
	// MidTick is the center of the synthetic price distribution.
	MidTick uint32
	// Spread bounds how far a generated price wanders from MidTick.
	Spread uint32
	// MaxQty bounds generated order quantity (minimum is always 1).
	MaxQty uint32
	// CancelFraction is the probability [0,1] that an emission is a CANCEL
	// of a previously issued handle rather than a new ADD.
	CancelFraction float64
	// IOCFraction and FOKFraction are the probabilities [0,1] that an ADD
	// carries the corresponding flag. They are independent; an order can
	// carry both.
	IOCFraction float64
	FOKFraction float64
	// Seed seeds the random source for reproducible runs.
	Seed int64
}

// Report summarizes one generator run.
type Report struct {
	Emitted   uint64
	Throttled uint64
	Dropped   uint64 // sink.Push found its ring full
}

// recentHandles is a small ring of handles a worker has actually assigned,
// fed back through Note, so the generator can replay a fraction of traffic
// as CANCELs without ever inventing a handle it never saw — bookkeeping
// distinct from both the engine's own handle table and from
// internal/ordermanager.
type recentHandles struct {
	mu   sync.Mutex
	buf  []uint32
	next int
	n    int
}

func newRecentHandles(capacity int) *recentHandles {
	return &recentHandles{buf: make([]uint32, capacity)}
}

func (r *recentHandles) add(h uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf[r.next] = h
	r.next = (r.next + 1) % len(r.buf)
	if r.n < len(r.buf) {
		r.n++
	}
}

func (r *recentHandles) sample(rnd *rand.Rand) (uint32, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.n == 0 {
		return 0, false
	}
	return r.buf[rnd.Intn(r.n)], true
}

// Generator drives Config.Producers goroutines, each pushing onto one sink
// from sinks.
type Generator struct {
	cfg      Config
	sinks    []queue.Producer[matching.OrderMsg]
	recent   []*recentHandles // indexed by worker id (= sink index)
	limiters *ratelimit.Store // one entry per producer id, lazily created
}

// New builds a generator targeting sinks, one worker per sink.
func New(cfg Config, sinks []queue.Producer[matching.OrderMsg]) *Generator {
	if cfg.Producers <= 0 {
		cfg.Producers = 1
	}
	if cfg.MaxQty == 0 {
		cfg.MaxQty = 10
	}
	recent := make([]*recentHandles, len(sinks))
	for i := range recent {
		recent[i] = newRecentHandles(4096)
	}
	g := &Generator{cfg: cfg, sinks: sinks, recent: recent}
	if cfg.RatePerSec > 0 {
		perProducer := cfg.RatePerSec / float64(cfg.Producers)
		g.limiters = ratelimit.NewStore(rate.Limit(perProducer), int(perProducer)+1, 0)
	}
	return g
}

// Note records a handle a worker actually assigned, so the generator can
// legitimately replay it as a future CANCEL. Callers (typically the worker
// loop) should call this for every successfully-resting AddLimit.
func (g *Generator) Note(workerID int, handle uint32) {
	if workerID < 0 || workerID >= len(g.recent) {
		return
	}
	g.recent[workerID].add(handle)
}

// Run emits traffic until ctx is cancelled, one goroutine per configured
// producer, and returns a merged report once all producers have stopped.
func (g *Generator) Run(ctx context.Context) Report {
	reports := make([]Report, g.cfg.Producers)
	done := make(chan struct{}, g.cfg.Producers)

	for p := 0; p < g.cfg.Producers; p++ {
		go func(idx int) {
			reports[idx] = g.runProducer(ctx, idx)
			done <- struct{}{}
		}(p)
	}
	for i := 0; i < g.cfg.Producers; i++ {
		<-done
	}

	var total Report
	for _, r := range reports {
		total.Emitted += r.Emitted
		total.Throttled += r.Throttled
		total.Dropped += r.Dropped
	}
	return total
}

func (g *Generator) runProducer(ctx context.Context, idx int) Report {
	sinkIdx := idx % len(g.sinks)
	sink := g.sinks[sinkIdx]
	recent := g.recent[sinkIdx]
	rnd := rand.New(rand.NewSource(g.cfg.Seed + int64(idx)))
	limiterKey := strconv.Itoa(idx)

	var report Report
	for {
		select {
		case <-ctx.Done():
			return report
		default:
		}

		if g.limiters != nil && !g.limiters.Allow(limiterKey) {
			report.Throttled++
			metrics.RateLimitBlockTotal.WithLabelValues(strconv.Itoa(sinkIdx)).Inc()
			continue
		}

		msg := g.nextMessage(sinkIdx, rnd, recent)
		if !sink.Push(msg) {
			report.Dropped++
			continue
		}
		report.Emitted++
	}
}

func (g *Generator) nextMessage(workerID int, rnd *rand.Rand, recent *recentHandles) matching.OrderMsg {
	if h, ok := recent.sample(rnd); ok && rnd.Float64() < g.cfg.CancelFraction {
		return matching.OrderMsg{
			Type:           matching.MsgCancel,
			WorkerID:       uint32(workerID),
			HandleToCancel: h,
		}
	}

	side := matching.Buy
	if rnd.Intn(2) == 1 {
		side = matching.Sell
	}
	offset := int64(0)
	if g.cfg.Spread > 0 {
		offset = rnd.Int63n(int64(2*g.cfg.Spread+1)) - int64(g.cfg.Spread)
	}
	tick := int64(g.cfg.MidTick) + offset
	if tick < 0 {
		tick = 0
	}

	var flags uint8
	if rnd.Float64() < g.cfg.IOCFraction {
		flags |= matching.FlagIOC
	}
	if rnd.Float64() < g.cfg.FOKFraction {
		flags |= matching.FlagFOK
	}

	return matching.OrderMsg{
		Type:      matching.MsgAdd,
		ClientID:  newClientID(),
		PriceTick: uint32(tick),
		Qty:       uint32(rnd.Intn(int(g.cfg.MaxQty))) + 1,
		Side:      side,
		Flags:     flags,
		WorkerID:  uint32(workerID),
	}
}

// newClientID mints an opaque 64-bit identifier for a non-trivial payload
// the caller tracks externally (the engine itself never resolves this to
// anything), by folding a uuid down to 8 bytes.
func newClientID() uint64 {
	id := uuid.New()
	return binary.BigEndian.Uint64(id[:8])
}
