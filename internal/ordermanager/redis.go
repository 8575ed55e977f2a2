package ordermanager

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"

	"obench/internal/matching"
)

// RedisManager is the persistent Manager variant: each Record is stored as
// a Redis hash under a per-handle key, so order metadata survives a
// process restart and can be queried from a second process. It is built on
// the same *redis.Client the teacher's pkg/xredis.NewRedis constructs;
// nothing here is consulted by the matching engine itself.
type RedisManager struct {
	rdb    *redis.Client
	ctx    context.Context
	prefix string
}

// NewRedisManager wraps an existing redis client. prefix namespaces every
// key this manager writes, so one Redis instance can back several runs.
func NewRedisManager(rdb *redis.Client, prefix string) *RedisManager {
	if prefix == "" {
		prefix = "obench:order:"
	}
	return &RedisManager{rdb: rdb, ctx: context.Background(), prefix: prefix}
}

func (m *RedisManager) key(handle uint32) string {
	return m.prefix + strconv.FormatUint(uint64(handle), 10)
}

// Record writes r as a Redis hash.
func (m *RedisManager) Record(r Record) error {
	key := m.key(r.Handle)
	return m.rdb.HSet(m.ctx, key, map[string]interface{}{
		"client_id":  strconv.FormatUint(r.ClientID, 10),
		"handle":     r.Handle,
		"side":       uint8(r.Side),
		"qty":        r.OriginalQty,
		"price_tick": r.PriceTick,
		"submit_ts":  r.SubmitTimestamp,
	}).Err()
}

// Forget deletes handle's hash.
func (m *RedisManager) Forget(handle uint32) error {
	return m.rdb.Del(m.ctx, m.key(handle)).Err()
}

// Lookup reads handle's hash back into a Record.
func (m *RedisManager) Lookup(handle uint32) (Record, bool, error) {
	vals, err := m.rdb.HGetAll(m.ctx, m.key(handle)).Result()
	if err != nil {
		return Record{}, false, err
	}
	if len(vals) == 0 {
		return Record{}, false, nil
	}

	clientID, err := strconv.ParseUint(vals["client_id"], 10, 64)
	if err != nil {
		return Record{}, false, err
	}
	side, err := strconv.ParseUint(vals["side"], 10, 8)
	if err != nil {
		return Record{}, false, err
	}
	qty, err := strconv.ParseUint(vals["qty"], 10, 32)
	if err != nil {
		return Record{}, false, err
	}
	priceTick, err := strconv.ParseUint(vals["price_tick"], 10, 32)
	if err != nil {
		return Record{}, false, err
	}
	submitTS, err := strconv.ParseInt(vals["submit_ts"], 10, 64)
	if err != nil {
		return Record{}, false, err
	}

	return Record{
		ClientID:        clientID,
		Handle:          handle,
		Side:            matching.Side(side),
		OriginalQty:     uint32(qty),
		PriceTick:       uint32(priceTick),
		SubmitTimestamp: submitTS,
	}, true, nil
}
