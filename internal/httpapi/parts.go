package httpapi

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"pcadvisor/internal/catalog"
	"pcadvisor/internal/filter"
	"pcadvisor/internal/model"
	"pcadvisor/internal/respond"
)

// Query parameters that control paging and are never filter criteria.
const (
	paramPage = "page"
	paramSize = "size"
	paramSort = "sort"
)

var sortFields = map[string]model.SortField{
	"id":           model.SortByID,
	"price":        model.SortByPrice,
	"review_count": model.SortByReviewCount,
	"reviewcount":  model.SortByReviewCount,
	"star_rating":  model.SortByStarRating,
	"starrating":   model.SortByStarRating,
	"name":         model.SortByName,
}

// partsHandler handles GET /api/parts?<criteria>&page=&size=&sort=.
func (s *Server) partsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, size, err := paging(q)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	by, err := parseSort(q.Get(paramSort))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	pred := filter.Compile(filter.FromQuery(q, paramPage, paramSize, paramSort))
	result, err := s.store.Query(r.Context(), catalog.Query{
		Predicate: pred,
		Sort:      by,
		Limit:     size,
		Offset:    page * size,
	})
	if err != nil {
		log.Error().Err(err).Str("predicate", pred.Kind.String()).Msg("httpapi: parts query failed")
		respond.Error(w, http.StatusInternalServerError, "catalog query failed")
		return
	}

	parts := result.Parts
	if parts == nil {
		parts = []model.Part{}
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"data":     parts,
		"count":    len(parts),
		"total":    result.Total,
		"page":     page,
		"size":     size,
		"has_more": result.HasMore(),
	})
}

// compareHandler handles GET /api/parts/compare?ids=1,2,3.
func (s *Server) compareHandler(w http.ResponseWriter, r *http.Request) {
	ids, err := parseIDs(r.URL.Query()["ids"])
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	parts, err := s.store.FindByIDs(r.Context(), ids)
	if err != nil {
		log.Error().Err(err).Int("ids", len(ids)).Msg("httpapi: compare lookup failed")
		respond.Error(w, http.StatusInternalServerError, "catalog lookup failed")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    parts,
		"count":   len(parts),
	})
}

func paging(q url.Values) (page, size int, err error) {
	size = defaultPageSize
	if v := q.Get(paramPage); v != "" {
		page, err = strconv.Atoi(v)
		if err != nil || page < 0 {
			return 0, 0, fmt.Errorf("invalid page %q", v)
		}
	}
	if v := q.Get(paramSize); v != "" {
		size, err = strconv.Atoi(v)
		if err != nil || size <= 0 {
			return 0, 0, fmt.Errorf("invalid size %q", v)
		}
		size = min(size, maxPageSize)
	}
	if page > math.MaxInt/size {
		return 0, 0, fmt.Errorf("invalid page %q", q.Get(paramPage))
	}
	return page, size, nil
}

// parseSort reads "field[,asc|desc]". Empty sorts by id ascending.
func parseSort(v string) (model.Sort, error) {
	if v == "" {
		return model.Sort{Field: model.SortByID}, nil
	}
	name, dir, _ := strings.Cut(v, ",")
	field, ok := sortFields[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return model.Sort{}, fmt.Errorf("invalid sort field %q", name)
	}
	switch strings.ToLower(strings.TrimSpace(dir)) {
	case "", "asc":
		return model.Sort{Field: field}, nil
	case "desc":
		return model.Sort{Field: field, Desc: true}, nil
	}
	return model.Sort{}, fmt.Errorf("invalid sort direction %q", dir)
}

// parseIDs accepts comma-separated and repeated ids values.
func parseIDs(values []string) ([]int64, error) {
	var ids []int64
	for _, v := range values {
		for _, s := range strings.Split(v, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			id, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid id %q", s)
			}
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, errors.New("ids is required")
	}
	return ids, nil
}
