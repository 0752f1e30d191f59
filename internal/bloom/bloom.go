// Package bloom deduplicates ingested parts with a RedisBloom filter.
package bloom

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	// PartsKey is the RedisBloom filter key for committed part crawls.
	PartsKey = "bf:parts"

	defaultErrorRate = 0.001
	defaultCapacity  = 1_000_000
)

// Doer is the subset of *redis.Client the filter needs.
type Doer interface {
	Do(ctx context.Context, args ...interface{}) *redis.Cmd
}

// Filter answers "probably seen before" for part keys.
type Filter struct {
	rdb Doer
	key string
}

// New returns a filter over key, reserving it on first use. Reserve errors
// are logged only since the filter usually exists already.
func New(ctx context.Context, rdb Doer, key string) *Filter {
	if key == "" {
		key = PartsKey
	}
	// BF.RESERVE fails with "item exists" when the filter was created earlier.
	if err := rdb.Do(ctx, "BF.RESERVE", key, defaultErrorRate, defaultCapacity).Err(); err != nil {
		log.Debug().Err(err).Str("key", key).Msg("bloom: reserve (may already exist)")
	}
	return &Filter{rdb: rdb, key: key}
}

// Exists reports whether key was probably added before. Redis failures
// count as absent so ingest is never blocked on dedupe.
func (f *Filter) Exists(ctx context.Context, key string) bool {
	if f == nil || f.rdb == nil {
		return false
	}
	ok, err := reply(f.rdb.Do(ctx, "BF.EXISTS", f.key, key))
	if err != nil {
		log.Warn().Err(err).Str("key", f.key).Msg("bloom: BF.EXISTS failed")
		return false
	}
	return ok
}

// Add records key. Call it only once the keyed row is committed.
func (f *Filter) Add(ctx context.Context, key string) error {
	if f == nil || f.rdb == nil {
		return nil
	}
	_, err := reply(f.rdb.Do(ctx, "BF.ADD", f.key, key))
	return err
}

// reply reads a BF.* boolean: 1/0 on RESP2, true/false on RESP3.
func reply(res *redis.Cmd) (bool, error) {
	if err := res.Err(); err != nil {
		return false, err
	}
	if n, err := res.Int(); err == nil {
		return n == 1, nil
	}
	return res.Bool()
}
