package ordermanager

import "sync"

const defaultShards = 16

// MemoryManager is the default Manager: an in-process map of handle to
// Record, split across a fixed number of lock-sharded buckets so lookups
// and updates from different workers don't contend on a single mutex. The
// sharding-by-index approach is grounded on the teacher's
// internal/quotes/kline/shard.go, which routes by a hashed key into one of
// N independent shards; here the key (a handle) is already a small
// integer, so the shard index is a plain modulo instead of an FNV hash.
type MemoryManager struct {
	shards []memShard
}

type memShard struct {
	mu      sync.RWMutex
	records map[uint32]Record
}

// NewMemoryManager builds a manager with the default shard count.
func NewMemoryManager() *MemoryManager {
	return NewMemoryManagerShards(defaultShards)
}

// NewMemoryManagerShards builds a manager with an explicit shard count,
// mainly for tests that want to exercise shard boundaries directly.
func NewMemoryManagerShards(shardCount int) *MemoryManager {
	if shardCount <= 0 {
		shardCount = defaultShards
	}
	m := &MemoryManager{shards: make([]memShard, shardCount)}
	for i := range m.shards {
		m.shards[i].records = make(map[uint32]Record)
	}
	return m
}

func (m *MemoryManager) shardFor(handle uint32) *memShard {
	return &m.shards[handle%uint32(len(m.shards))]
}

// Record stores r, keyed by r.Handle. A second Record for the same handle
// overwrites the first.
func (m *MemoryManager) Record(r Record) error {
	sh := m.shardFor(r.Handle)
	sh.mu.Lock()
	sh.records[r.Handle] = r
	sh.mu.Unlock()
	return nil
}

// Forget removes handle's record, if any. Forgetting an unknown handle is
// not an error.
func (m *MemoryManager) Forget(handle uint32) error {
	sh := m.shardFor(handle)
	sh.mu.Lock()
	delete(sh.records, handle)
	sh.mu.Unlock()
	return nil
}

// Lookup returns handle's record and whether it was found.
func (m *MemoryManager) Lookup(handle uint32) (Record, bool, error) {
	sh := m.shardFor(handle)
	sh.mu.RLock()
	r, ok := sh.records[handle]
	sh.mu.RUnlock()
	return r, ok, nil
}
