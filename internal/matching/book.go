package matching

// book is one side of the order book: a tick-indexed array of price levels
// plus an occupancy bitset for best-price lookup. It is the tick-array
// generalization of handikong's level_book.go, which keyed its levels by a
// Go map[int64]*priceLevel; here the price domain is bounded ([0, maxTicks)
// per the engine's configured tick resolution) so direct indexing replaces
// hashing, and the side's best price is cached instead of recomputed by a
// linear scan over the map on every removal.
type book struct {
	levels   []PriceLevel
	occ      *Bitset
	best     uint32 // NoPriceTick when the side is empty
	isBid    bool
	maxTicks uint32
}

func newBook(maxTicks uint32, isBid bool) *book {
	b := &book{
		levels:   make([]PriceLevel, maxTicks),
		occ:      NewBitset(maxTicks),
		isBid:    isBid,
		maxTicks: maxTicks,
	}
	b.reset()
	return b
}

func (b *book) reset() {
	for i := range b.levels {
		b.levels[i] = PriceLevel{HeadIdx: NilHandle, TailIdx: NilHandle}
	}
	for i := range b.occ.words {
		b.occ.words[i] = 0
	}
	b.best = NoPriceTick
}

// BestPrice reports the side's best occupied tick, if any.
func (b *book) BestPrice() (uint32, bool) {
	if b.best == NoPriceTick {
		return 0, false
	}
	return b.best, true
}

// crosses reports whether an incoming order at takerTick on the opposite
// side would trade against this side's current best price.
func (b *book) crosses(takerTick uint32, takerIsBid bool) bool {
	if b.best == NoPriceTick {
		return false
	}
	if takerIsBid {
		return takerTick >= b.best // buying taker crosses resting asks at or below its price
	}
	return takerTick <= b.best // selling taker crosses resting bids at or above its price
}

// pushBack appends idx to the FIFO at tick, updating occupancy and best
// price if this is the tick's first resting order.
func (b *book) pushBack(tick uint32, idx uint32, pool *Pool) {
	lvl := &b.levels[tick]
	node := pool.Get(idx)
	node.PrevIdx, node.NextIdx = NilHandle, NilHandle
	if lvl.HeadIdx == NilHandle {
		lvl.HeadIdx = idx
		lvl.TailIdx = idx
		b.occ.Set(tick)
		b.onNewLiquidity(tick)
	} else {
		tail := pool.Get(lvl.TailIdx)
		tail.NextIdx = idx
		node.PrevIdx = lvl.TailIdx
		lvl.TailIdx = idx
	}
}

// onNewLiquidity updates the cached best price by a single comparison when
// tick goes from empty to occupied; it never needs a bitset scan, since the
// previous best (if any) is still valid and only improves.
func (b *book) onNewLiquidity(tick uint32) {
	if b.best == NoPriceTick {
		b.best = tick
		return
	}
	if b.isBid && tick > b.best {
		b.best = tick
	} else if !b.isBid && tick < b.best {
		b.best = tick
	}
}

// removeFront pops the head of tick's FIFO, which the caller has already
// matched or cancelled down to zero qty.
func (b *book) removeFront(tick uint32, pool *Pool) {
	lvl := &b.levels[tick]
	head := pool.Get(lvl.HeadIdx)
	next := head.NextIdx
	if next == NilHandle {
		lvl.HeadIdx = NilHandle
		lvl.TailIdx = NilHandle
	} else {
		pool.Get(next).PrevIdx = NilHandle
		lvl.HeadIdx = next
	}
	if lvl.HeadIdx == NilHandle {
		b.emptyTick(tick)
	}
}

// unlink removes an arbitrary node (not necessarily the head) from tick's
// FIFO, for Cancel.
func (b *book) unlink(tick uint32, idx uint32, pool *Pool) {
	lvl := &b.levels[tick]
	node := pool.Get(idx)
	if node.PrevIdx != NilHandle {
		pool.Get(node.PrevIdx).NextIdx = node.NextIdx
	} else {
		lvl.HeadIdx = node.NextIdx
	}
	if node.NextIdx != NilHandle {
		pool.Get(node.NextIdx).PrevIdx = node.PrevIdx
	} else {
		lvl.TailIdx = node.PrevIdx
	}
	if lvl.HeadIdx == NilHandle {
		b.emptyTick(tick)
	}
}

// emptyTick clears occupancy for a tick that just lost its last resting
// order, and slides the cached best price to the next occupied tick if the
// vacated tick was it.
func (b *book) emptyTick(tick uint32) {
	b.occ.Clear(tick)
	if b.best != tick {
		return
	}
	if b.isBid {
		if p, ok := b.occ.PrevSet(int64(tick) - 1); ok {
			b.best = p
		} else {
			b.best = NoPriceTick
		}
	} else {
		if p, ok := b.occ.NextSet(tick + 1); ok {
			b.best = p
		} else {
			b.best = NoPriceTick
		}
	}
}
