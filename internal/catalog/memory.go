package catalog

import (
	"context"
	"sort"
	"sync"

	"pcadvisor/internal/model"
)

// MemoryStore is a Store over an in-memory slice of parts.
type MemoryStore struct {
	mu    sync.RWMutex
	parts []model.Part
}

// NewMemoryStore copies parts into a new store.
func NewMemoryStore(parts []model.Part) *MemoryStore {
	return &MemoryStore{parts: append([]model.Part(nil), parts...)}
}

// Put adds or replaces a part by ID.
func (s *MemoryStore) Put(p model.Part) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.parts {
		if s.parts[i].ID == p.ID {
			s.parts[i] = p
			return
		}
	}
	s.parts = append(s.parts, p)
}

// Len returns the number of stored parts.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.parts)
}

func (s *MemoryStore) Query(ctx context.Context, q Query) (model.Page, error) {
	if err := q.validate(); err != nil {
		return model.Page{}, err
	}
	if err := ctx.Err(); err != nil {
		return model.Page{}, err
	}

	s.mu.RLock()
	matched := make([]model.Part, 0, len(s.parts))
	for _, p := range s.parts {
		if q.Predicate.Match(p) {
			matched = append(matched, p)
		}
	}
	s.mu.RUnlock()

	sortParts(matched, q.Sort)

	page := model.Page{Total: len(matched), Limit: q.Limit, Offset: q.Offset}
	if q.Offset >= len(matched) {
		page.Parts = []model.Part{}
		return page, nil
	}
	end := len(matched)
	if q.Limit > 0 && q.Offset+q.Limit < end {
		end = q.Offset + q.Limit
	}
	page.Parts = matched[q.Offset:end]
	return page, nil
}

func (s *MemoryStore) FindByIDs(ctx context.Context, ids []int64) ([]model.Part, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return orderByIDs(s.parts, ids), nil
}

// sortParts orders parts by the sort key with ID as a stable tiebreak.
func sortParts(parts []model.Part, by model.Sort) {
	compare := func(a, b model.Part) int {
		switch by.Field {
		case model.SortByPrice:
			return compareInt(a.Price, b.Price)
		case model.SortByReviewCount:
			return compareInt(a.ReviewCount, b.ReviewCount)
		case model.SortByStarRating:
			switch {
			case a.StarRating < b.StarRating:
				return -1
			case a.StarRating > b.StarRating:
				return 1
			}
			return 0
		case model.SortByName:
			switch {
			case a.Name < b.Name:
				return -1
			case a.Name > b.Name:
				return 1
			}
			return 0
		}
		return 0
	}
	sort.SliceStable(parts, func(i, j int) bool {
		c := compare(parts[i], parts[j])
		if by.Desc {
			c = -c
		}
		if c != 0 {
			return c < 0
		}
		return parts[i].ID < parts[j].ID
	})
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
