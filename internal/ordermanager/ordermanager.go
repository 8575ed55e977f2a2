// Package ordermanager is the external id->order bookkeeping map described
// by the order manager component: a lookup table a caller can query for an
// order's metadata after the engine itself has forgotten it (the engine's
// own handle table and node pool only know about a resting order while it
// is actually resting). The matching engine never calls it; a worker's loop
// only writes to it (Record/Forget, after the engine call has returned) and
// never reads from it. Nothing here is synchronized with the engine's
// single-owner discipline. Grounded on the teacher's pkg/xredis client for
// the Redis-backed variant, generalized from its ad-hoc key/value usage to
// a typed Record store.
package ordermanager

import (
	"obench/internal/matching"
)

// Record is the metadata the manager remembers about one order, keyed by
// the handle the engine assigned it.
type Record struct {
	ClientID        uint64
	Handle          uint32
	Side            matching.Side
	OriginalQty     uint32
	PriceTick       uint32
	SubmitTimestamp int64
}

// Manager records, forgets, and looks up order metadata by handle.
// Implementations must be safe for concurrent use: Record/Forget are
// typically called from worker goroutines via a HandleObserver-style
// callback, while Lookup is called from a reporting or CLI path.
type Manager interface {
	Record(r Record) error
	Forget(handle uint32) error
	Lookup(handle uint32) (Record, bool, error)
}
