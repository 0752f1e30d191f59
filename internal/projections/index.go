// Package projections maintains Redis read models derived from accepted
// catalog parts.
package projections

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"pcadvisor/internal/model"
)

// FilterKey is the Redis set holding the observed values of one filterable
// field of a category.
func FilterKey(c model.Category, field string) string {
	return "filters:" + c.String() + ":" + field
}

// SetAdder is the subset of *redis.Client the projector writes with.
type SetAdder interface {
	SAdd(ctx context.Context, key string, members ...interface{}) *redis.IntCmd
}

// FilterIndex records the values of allow-listed fields so the filter
// options endpoint can list them.
type FilterIndex struct {
	rdb SetAdder
}

func NewFilterIndex(rdb SetAdder) *FilterIndex {
	return &FilterIndex{rdb: rdb}
}

// Apply adds the event's allow-listed values to their sets.
func (ix *FilterIndex) Apply(ctx context.Context, evt model.PartAccepted) error {
	if !evt.Category.Valid() {
		return nil
	}
	added := 0
	for _, field := range evt.Category.FilterableFields() {
		v := evt.Specs[field]
		if field == "manufacturer" && evt.Manufacturer != "" {
			v = evt.Manufacturer
		}
		if v == "" {
			continue
		}
		if err := ix.rdb.SAdd(ctx, FilterKey(evt.Category, field), v).Err(); err != nil {
			return err
		}
		added++
	}
	log.Debug().Str("category", evt.Category.String()).Int64("part_id", evt.PartID).
		Int("fields", added).Msg("projections: filter index updated")
	return nil
}
