package catalog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"pcadvisor/internal/filter"
	"pcadvisor/internal/model"
)

var specKeyPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// sqlBuilder renders predicates as parameterized Postgres SQL.
type sqlBuilder struct {
	args []any
}

func (b *sqlBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return "$" + strconv.Itoa(len(b.args))
}

func (b *sqlBuilder) column(f filter.Field) (string, error) {
	switch f {
	case filter.FieldCategory:
		return "p.category", nil
	case filter.FieldName:
		return "p.name", nil
	case filter.FieldManufacturer:
		return "p.manufacturer", nil
	}
	if !specKeyPattern.MatchString(string(f)) {
		return "", fmt.Errorf("%w: spec key %q", ErrInvalidQuery, f)
	}
	return "(s.specs->>" + b.arg(string(f)) + ")", nil
}

func (b *sqlBuilder) where(p filter.Predicate) (string, error) {
	switch p.Kind {
	case filter.KindTrue:
		return "TRUE", nil
	case filter.KindAnd:
		parts := make([]string, 0, len(p.Clauses))
		for _, c := range p.Clauses {
			s, err := b.where(c)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return "(" + strings.Join(parts, " AND ") + ")", nil
	}

	if len(p.Values) == 0 {
		return "", fmt.Errorf("%w: %s clause without values", ErrInvalidQuery, p.Kind)
	}
	col, err := b.column(p.Field)
	if err != nil {
		return "", err
	}
	switch p.Kind {
	case filter.KindEquals:
		return col + " = " + b.arg(p.Values[0]), nil
	case filter.KindMembership:
		placeholders := make([]string, len(p.Values))
		for i, v := range p.Values {
			placeholders[i] = b.arg(v)
		}
		return col + " IN (" + strings.Join(placeholders, ", ") + ")", nil
	case filter.KindSubstring:
		return col + ` ILIKE ` + b.arg("%"+escapeLike(p.Values[0])+"%") + ` ESCAPE '\'`, nil
	}
	return "", fmt.Errorf("%w: predicate kind %s", ErrInvalidQuery, p.Kind)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func orderBy(s model.Sort) string {
	col := "p.id"
	switch s.Field {
	case model.SortByPrice:
		col = "p.price"
	case model.SortByReviewCount:
		col = "COALESCE(p.review_count, 0)"
	case model.SortByStarRating:
		col = "COALESCE(p.star_rating, 0)"
	case model.SortByName:
		col = "p.name"
	}
	dir := "ASC"
	if s.Desc {
		dir = "DESC"
	}
	if col == "p.id" {
		return col + " " + dir
	}
	return col + " " + dir + ", p.id ASC"
}
