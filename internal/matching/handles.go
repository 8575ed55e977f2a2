package matching

// HandleTable maps external, caller-visible handles to Pool indices. It
// plays the role handikong's level_book.go gives its byID map — O(1)
// handle-to-node lookup for Cancel — but as a flat array instead of a map,
// since the handle space is bounded by max_orders and a map's hashing and
// bucket churn buy nothing over direct indexing here.
//
// Handles are allocated with a rolling cursor rather than reused in LIFO
// order: starting the search for the next free slot where the last
// allocation left off keeps the table from repeatedly handing out the same
// few handles, which would otherwise make stale-handle bugs in callers
// harder to catch. Released handles are still handed out again later, so a
// handle identifies an order only while that order rests, not across time.
type HandleTable struct {
	slots  []uint32 // slots[handle] = pool index, or NilHandle if free
	cursor uint32
	live   uint32
}

// NewHandleTable builds a table with exactly capacity handle slots.
func NewHandleTable(capacity uint32) *HandleTable {
	t := &HandleTable{slots: make([]uint32, capacity)}
	t.reset()
	return t
}

func (t *HandleTable) reset() {
	for i := range t.slots {
		t.slots[i] = NilHandle
	}
	t.cursor = 0
	t.live = 0
}

// Cap reports the table's fixed capacity.
func (t *HandleTable) Cap() uint32 { return uint32(len(t.slots)) }

// Alloc claims the next free handle bound to poolIdx, or NilHandle if every
// slot is in use.
func (t *HandleTable) Alloc(poolIdx uint32) uint32 {
	n := uint32(len(t.slots))
	if t.live >= n {
		return NilHandle
	}
	for i := uint32(0); i < n; i++ {
		h := (t.cursor + i) % n
		if t.slots[h] == NilHandle {
			t.slots[h] = poolIdx
			t.cursor = h + 1
			t.live++
			return h
		}
	}
	return NilHandle
}

// Lookup returns the pool index bound to handle, or NilHandle if the handle
// is not currently live.
func (t *HandleTable) Lookup(handle uint32) uint32 {
	if handle >= uint32(len(t.slots)) {
		return NilHandle
	}
	return t.slots[handle]
}

// Release frees handle so it can be reallocated.
func (t *HandleTable) Release(handle uint32) {
	if handle >= uint32(len(t.slots)) {
		return
	}
	if t.slots[handle] != NilHandle {
		t.live--
	}
	t.slots[handle] = NilHandle
}

// Reset clears every handle back to free.
func (t *HandleTable) Reset() { t.reset() }
