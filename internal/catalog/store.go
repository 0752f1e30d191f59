// Package catalog holds the read interface over component records and its
// in-memory and Postgres implementations.
package catalog

import (
	"context"
	"errors"

	"pcadvisor/internal/filter"
	"pcadvisor/internal/model"
)

// ErrInvalidQuery is returned for queries with a negative limit or offset.
var ErrInvalidQuery = errors.New("catalog: invalid query")

// Query is one filtered, sorted, paginated read.
type Query struct {
	Predicate filter.Predicate
	Sort      model.Sort
	Limit     int
	Offset    int
}

// Store is the catalog read interface.
type Store interface {
	Query(ctx context.Context, q Query) (model.Page, error)
	FindByIDs(ctx context.Context, ids []int64) ([]model.Part, error)
}

func (q Query) validate() error {
	if q.Limit < 0 || q.Offset < 0 {
		return ErrInvalidQuery
	}
	return nil
}

// orderByIDs returns parts in the order of ids, dropping unknown ids.
func orderByIDs(parts []model.Part, ids []int64) []model.Part {
	byID := make(map[int64]model.Part, len(parts))
	for _, p := range parts {
		byID[p.ID] = p
	}
	out := make([]model.Part, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok && !seen[id] {
			out = append(out, p)
			seen[id] = true
		}
	}
	return out
}
