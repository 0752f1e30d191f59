// Package discovery serves the Redis read models: filter options and the
// recently accepted parts feed.
package discovery

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"pcadvisor/internal/model"
	"pcadvisor/internal/projections"
	"pcadvisor/internal/respond"
)

// Reader is the subset of *redis.Client the read side uses.
type Reader interface {
	SMembers(ctx context.Context, key string) *redis.StringSliceCmd
	LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
}

// Service reads the projections.
type Service struct {
	rdb Reader
}

func NewService(rdb Reader) *Service {
	return &Service{rdb: rdb}
}

// RegisterRoutes wires GET /api/filters and GET /api/recent.
func (s *Service) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/filters", s.filtersHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/recent", s.recentHandler).Methods(http.MethodGet)
}

// FilterOptions returns every allow-listed field of c with its sorted
// observed values. Fields never seen map to an empty list.
func (s *Service) FilterOptions(ctx context.Context, c model.Category) (map[string][]string, error) {
	fields := c.FilterableFields()
	out := make(map[string][]string, len(fields))
	for _, field := range fields {
		values, err := s.rdb.SMembers(ctx, projections.FilterKey(c, field)).Result()
		if err != nil {
			return nil, err
		}
		sort.Strings(values)
		if values == nil {
			values = []string{}
		}
		out[field] = values
	}
	return out, nil
}

// Recent returns up to limit of the newest accepted parts of c. Entries
// that no longer decode are skipped.
func (s *Service) Recent(ctx context.Context, c model.Category, limit int) ([]model.PartAccepted, error) {
	if limit <= 0 || limit > projections.RecentCap {
		limit = projections.RecentCap
	}
	raw, err := s.rdb.LRange(ctx, projections.RecentKey(c), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]model.PartAccepted, 0, len(raw))
	for _, item := range raw {
		var evt model.PartAccepted
		if err := json.Unmarshal([]byte(item), &evt); err != nil {
			log.Warn().Err(err).Str("category", c.String()).Msg("discovery: skipping malformed recent entry")
			continue
		}
		out = append(out, evt)
	}
	return out, nil
}

func (s *Service) filtersHandler(w http.ResponseWriter, r *http.Request) {
	c, ok := model.ParseCategory(r.URL.Query().Get("category"))
	if !ok {
		respond.Error(w, http.StatusBadRequest, "unknown category")
		return
	}

	options, err := s.FilterOptions(r.Context(), c)
	if err != nil {
		log.Error().Err(err).Str("category", c.String()).Msg("discovery: filter options lookup failed")
		respond.Error(w, http.StatusInternalServerError, "filter lookup failed")
		return
	}
	respond.JSON(w, http.StatusOK, options)
}

func (s *Service) recentHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	c, ok := model.ParseCategory(q.Get("category"))
	if !ok {
		respond.Error(w, http.StatusBadRequest, "unknown category")
		return
	}
	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respond.Error(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	parts, err := s.Recent(r.Context(), c, limit)
	if err != nil {
		log.Error().Err(err).Str("category", c.String()).Msg("discovery: recent feed lookup failed")
		respond.Error(w, http.StatusInternalServerError, "recent lookup failed")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"success": true, "data": parts, "count": len(parts)})
}
