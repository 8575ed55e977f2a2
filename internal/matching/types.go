// Package matching implements the price-time-priority limit order book and
// the single-threaded engine that drives it. Every exported operation here
// assumes single-owner access: the worker goroutine that calls AddLimit,
// Cancel, and Replace on a given Engine is the only caller, ever. Concurrency
// lives one layer down, in the queues that feed the engine, not in here.
package matching

// Side identifies which book an order or resting level belongs to.
type Side uint8

const (
	Buy Side = iota
	Sell
)

// MsgType tags the payload carried on a worker's ring queue.
type MsgType uint8

const (
	MsgAdd MsgType = iota + 1
	MsgCancel
)

// Flag bits carried on an incoming order.
const (
	FlagIOC uint8 = 1 << iota
	FlagFOK
)

// Sentinels. NilHandle and NoPriceTick share the same bit pattern by
// convention (both mean "no value" for a uint32 slot); DoneFillHandle is
// reserved so a fully-filled IOC/FOK order can be told apart from a rejected
// one without a second return value on the hot path.
const (
	NilHandle      uint32 = 0xFFFFFFFF
	NoPriceTick    uint32 = 0xFFFFFFFF
	DoneFillHandle uint32 = 0xFFFFFFFE
)

// OrderIn is the decoded, engine-facing view of an incoming limit order.
// Workers build one of these from an OrderMsg popped off the ring.
type OrderIn struct {
	ClientID  uint64
	PriceTick uint32
	Qty       uint32
	Side      Side
	Flags     uint8
}

// OrderMsg is the fixed-layout payload type stored in the ring cells.
// Field order and sizes are chosen to keep the struct small and free of
// pointers, so a Ring[OrderMsg] cell can be copied by value with no escape
// to the heap.
type OrderMsg struct {
	ClientID       uint64
	PriceTick      uint32
	Qty            uint32
	HandleToCancel uint32
	WorkerID       uint32
	Side           Side
	Flags          uint8
	Type           MsgType
	_              uint8 // pad the fields to 28 bytes; alignment makes the struct 32
}

// OrderNode is one resting order, stored by value inside the Pool's backing
// array. PrevIdx/NextIdx link it into its PriceLevel's FIFO while resting;
// once freed, NextIdx is repurposed as the free-list link (see Pool).
type OrderNode struct {
	Handle    uint32
	PriceTick uint32
	Qty       uint32
	Side      Side
	PrevIdx   uint32
	NextIdx   uint32
}

// PriceLevel is one occupied tick on one side of the book: an intrusive
// doubly-linked FIFO of pool indices, oldest order at HeadIdx.
type PriceLevel struct {
	HeadIdx  uint32
	TailIdx  uint32
	TotalQty uint64
}

// Trade is one execution resulting from a crossing AddLimit call. Engines
// report these through a caller-supplied callback rather than an allocated
// slice, so a hot-path fill never allocates. The engine does not retain
// client ids for resting orders (OrderNode carries only a handle, per the
// pool record layout), so a fill reports the maker's handle rather than its
// original client id.
type Trade struct {
	TakerClientID uint64
	MakerHandle   uint32
	PriceTick     uint32
	Qty           uint32
}
