package matching

// Engine owns one symbol's order book: a pooled arena of resting orders, a
// handle table mapping external handles to pool slots, and a bid/ask book
// pair. It is not safe for concurrent use — exactly one worker goroutine may
// call AddLimit, Cancel, or Replace on a given Engine, the same single-owner
// discipline handikong's actor.go gives its per-symbol actor.
//
// Crossing is modeled on levell_book_heap.go's MatchLimitEmit: trades are
// reported through a caller-supplied callback instead of an allocated
// slice, so a taker that fully crosses the book without resting produces
// zero heap allocations.
type Engine struct {
	pool    *Pool
	handles *HandleTable
	bids    *book
	asks    *book

	maxTicks uint32
	totalTrades uint64
	totalVolume uint64
}

// NewEngine builds an engine with room for maxOrders resting orders and a
// price domain of [0, maxTicks).
func NewEngine(maxTicks, maxOrders uint32) *Engine {
	return &Engine{
		pool:     NewPool(maxOrders),
		handles:  NewHandleTable(maxOrders),
		bids:     newBook(maxTicks, true),
		asks:     newBook(maxTicks, false),
		maxTicks: maxTicks,
	}
}

func (e *Engine) bookFor(s Side) *book {
	if s == Buy {
		return e.bids
	}
	return e.asks
}

func (e *Engine) oppositeBookFor(s Side) *book {
	if s == Buy {
		return e.asks
	}
	return e.bids
}

// AddLimit submits a new limit order, crossing against resting liquidity on
// the opposite side first and resting any remainder unless the order carries
// FlagIOC or FlagFOK. It returns the resting handle, DoneFillHandle if the
// order fully executed without resting, or NilHandle if the order was
// rejected (bad price/qty, an IOC/FOK order with an unfilled remainder, or
// the pool/handle table is exhausted when a remainder needs to rest).
//
// FOK is honored on a best-effort basis: AddLimit does not pre-scan the
// opposite book to guarantee the full quantity is fillable before it starts
// consuming liquidity, so a FOK order can partially fill before the flag's
// intent is enforced by discarding the remainder instead of resting it. See
// the FOK open question in DESIGN.md.
func (e *Engine) AddLimit(in OrderIn, emit func(Trade)) uint32 {
	if in.Qty == 0 || in.PriceTick >= e.maxTicks {
		return NilHandle
	}
	if emit == nil {
		emit = func(Trade) {}
	}

	takerIsBid := in.Side == Buy
	opp := e.oppositeBookFor(in.Side)
	remaining := in.Qty

	for remaining > 0 && opp.crosses(in.PriceTick, takerIsBid) {
		tick, _ := opp.BestPrice()
		lvl := &opp.levels[tick]
		for remaining > 0 && lvl.HeadIdx != NilHandle {
			makerIdx := lvl.HeadIdx
			maker := e.pool.Get(makerIdx)
			exec := remaining
			if maker.Qty < exec {
				exec = maker.Qty
			}
			remaining -= exec
			maker.Qty -= exec
			lvl.TotalQty -= uint64(exec)
			e.totalTrades++
			e.totalVolume += uint64(exec)
			emit(Trade{
				TakerClientID: in.ClientID,
				MakerHandle:   maker.Handle,
				PriceTick:     tick,
				Qty:           exec,
			})
			if maker.Qty == 0 {
				h := maker.Handle
				opp.removeFront(tick, e.pool)
				e.handles.Release(h)
				e.pool.Free(makerIdx)
			}
		}
	}

	if remaining == 0 {
		return DoneFillHandle
	}
	if in.Flags&(FlagIOC|FlagFOK) != 0 {
		return NilHandle
	}

	idx := e.pool.Alloc()
	if idx == NilHandle {
		return NilHandle
	}
	handle := e.handles.Alloc(idx)
	if handle == NilHandle {
		e.pool.Free(idx)
		return NilHandle
	}

	node := e.pool.Get(idx)
	node.Handle = handle
	node.PriceTick = in.PriceTick
	node.Qty = remaining
	node.Side = in.Side

	own := e.bookFor(in.Side)
	own.pushBack(in.PriceTick, idx, e.pool)
	own.levels[in.PriceTick].TotalQty += uint64(remaining)

	return handle
}

// Cancel removes a resting order by handle. It reports false if the handle
// is not currently live.
func (e *Engine) Cancel(handle uint32) bool {
	idx := e.handles.Lookup(handle)
	if idx == NilHandle {
		return false
	}
	node := e.pool.Get(idx)
	own := e.bookFor(node.Side)
	lvl := &own.levels[node.PriceTick]
	lvl.TotalQty -= uint64(node.Qty)
	own.unlink(node.PriceTick, idx, e.pool)
	e.handles.Release(handle)
	e.pool.Free(idx)
	return true
}

// Replace cancels handle and submits a fresh order at a new price/qty on
// the same side, per the engine's cancel-then-add replace semantics (no
// in-place price-level modification is supported). It returns the new
// handle, DoneFillHandle, or NilHandle exactly as AddLimit would for a
// freshly submitted order; if handle is not live, it returns NilHandle
// without side effects.
func (e *Engine) Replace(handle uint32, newPriceTick, newQty uint32, flags uint8, emit func(Trade)) uint32 {
	idx := e.handles.Lookup(handle)
	if idx == NilHandle {
		return NilHandle
	}
	side := e.pool.Get(idx).Side
	e.Cancel(handle)
	return e.AddLimit(OrderIn{
		PriceTick: newPriceTick,
		Qty:       newQty,
		Side:      side,
		Flags:     flags,
	}, emit)
}

// BestBid reports the highest occupied bid tick, if any.
func (e *Engine) BestBid() (uint32, bool) { return e.bids.BestPrice() }

// BestAsk reports the lowest occupied ask tick, if any.
func (e *Engine) BestAsk() (uint32, bool) { return e.asks.BestPrice() }

// TotalTrades reports the cumulative number of fills executed since
// construction or the last Reset.
func (e *Engine) TotalTrades() uint64 { return e.totalTrades }

// TotalVolume reports the cumulative executed quantity since construction
// or the last Reset.
func (e *Engine) TotalVolume() uint64 { return e.totalVolume }

// Reset discards every resting order and zeroes the trade/volume counters,
// returning the engine to its just-constructed state.
func (e *Engine) Reset() {
	e.pool.Reset()
	e.handles.Reset()
	e.bids.reset()
	e.asks.reset()
	e.totalTrades = 0
	e.totalVolume = 0
}
