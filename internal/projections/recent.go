package projections

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"pcadvisor/internal/model"
)

const (
	// RecentCap bounds each per-category feed.
	RecentCap = 50
	// RecentTTL expires a feed that stops receiving parts.
	RecentTTL = 24 * time.Hour
)

// RecentKey is the Redis list holding the newest accepted parts of c.
func RecentKey(c model.Category) string {
	return "recent:" + c.String()
}

// ListWriter is the subset of *redis.Client the recent feed writes with.
type ListWriter interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	LTrim(ctx context.Context, key string, start, stop int64) *redis.StatusCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// RecentFeed keeps a capped, newest-first list of accepted parts per
// category.
type RecentFeed struct {
	rdb ListWriter
}

func NewRecentFeed(rdb ListWriter) *RecentFeed {
	return &RecentFeed{rdb: rdb}
}

// Apply pushes evt onto its category feed.
func (f *RecentFeed) Apply(ctx context.Context, evt model.PartAccepted) error {
	if !evt.Category.Valid() {
		return nil
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	key := RecentKey(evt.Category)
	if err := f.rdb.LPush(ctx, key, data).Err(); err != nil {
		return err
	}
	if err := f.rdb.LTrim(ctx, key, 0, RecentCap-1).Err(); err != nil {
		return err
	}
	if err := f.rdb.Expire(ctx, key, RecentTTL).Err(); err != nil {
		return err
	}
	log.Debug().Str("key", key).Int64("part_id", evt.PartID).Msg("projections: recent feed updated")
	return nil
}
