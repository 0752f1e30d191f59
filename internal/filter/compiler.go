// Package filter turns search query parameters into catalog predicates.
package filter

import (
	"net/url"
	"sort"

	"pcadvisor/internal/model"
)

// Reserved criteria keys.
const (
	KeyCategory = "category"
	KeyKeyword  = "keyword"
)

type entry struct {
	key    string
	values []string
}

// Criteria is an insertion-ordered multi-valued key/value map.
type Criteria struct {
	entries []entry
}

// Add appends values to key, creating it on first use.
func (c *Criteria) Add(key string, values ...string) {
	for i := range c.entries {
		if c.entries[i].key == key {
			c.entries[i].values = append(c.entries[i].values, values...)
			return
		}
	}
	c.entries = append(c.entries, entry{key: key, values: append([]string(nil), values...)})
}

// Keys returns the keys in insertion order.
func (c Criteria) Keys() []string {
	keys := make([]string, len(c.entries))
	for i, e := range c.entries {
		keys[i] = e.key
	}
	return keys
}

// Values returns the values stored for key.
func (c Criteria) Values(key string) []string {
	for _, e := range c.entries {
		if e.key == key {
			return e.values
		}
	}
	return nil
}

// FromQuery builds criteria from URL query values, skipping the reserved
// pagination keys. Keys are added in sorted order since url.Values is unordered.
func FromQuery(q url.Values, skip ...string) Criteria {
	skipped := make(map[string]bool, len(skip))
	for _, k := range skip {
		skipped[k] = true
	}
	keys := make([]string, 0, len(q))
	for k := range q {
		if !skipped[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var c Criteria
	for _, k := range keys {
		c.Add(k, q[k]...)
	}
	return c
}

// Compile converts criteria into a single conjunction of per-key clauses.
// A key contributes nothing when its first value is empty. Keys other than
// category and keyword are accepted and ignored: attribute filtering is
// switched off, see AttributeClause.
func Compile(c Criteria) Predicate {
	clauses := make([]Predicate, 0, len(c.entries))
	for _, e := range c.entries {
		if len(e.values) == 0 || e.values[0] == "" {
			continue
		}
		switch e.key {
		case KeyCategory:
			clauses = append(clauses, categoryClause(e.values))
		case KeyKeyword:
			clauses = append(clauses, Contains(FieldName, e.values[0]))
		}
	}
	return And(clauses...)
}

// AttributeClause is the membership clause an attribute key would compile to
// if attribute filtering were enabled. ok is false when no value is usable.
func AttributeClause(key string, values []string) (p Predicate, ok bool) {
	nonEmpty := compact(values)
	if len(nonEmpty) == 0 {
		return True(), false
	}
	return In(Field(key), nonEmpty...), true
}

// categoryClause accepts storage labels and English names alike; unknown
// values are kept verbatim and simply match nothing.
func categoryClause(values []string) Predicate {
	labels := make([]string, 0, len(values))
	for _, v := range compact(values) {
		if c, ok := model.ParseCategory(v); ok {
			labels = append(labels, c.Label())
			continue
		}
		labels = append(labels, v)
	}
	return In(FieldCategory, labels...)
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
