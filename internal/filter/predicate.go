package filter

import (
	"encoding/json"
	"strings"

	"pcadvisor/internal/model"
)

// Kind tags the Predicate variant.
type Kind int

const (
	KindTrue Kind = iota
	KindEquals
	KindMembership
	KindSubstring
	KindAnd
)

func (k Kind) String() string {
	switch k {
	case KindTrue:
		return "true"
	case KindEquals:
		return "equals"
	case KindMembership:
		return "membership"
	case KindSubstring:
		return "substring"
	case KindAnd:
		return "and"
	}
	return "unknown"
}

// Field names a part attribute. Anything other than the column fields below
// is looked up in the part's spec blob.
type Field string

const (
	FieldCategory     Field = "category"
	FieldName         Field = "name"
	FieldManufacturer Field = "manufacturer"
)

// IsColumn reports whether f is a first-class part column rather than a spec key.
func (f Field) IsColumn() bool {
	switch f {
	case FieldCategory, FieldName, FieldManufacturer:
		return true
	}
	return false
}

// Predicate is a boolean expression over parts. Only the members relevant to
// Kind are set: Field and Values for the leaf kinds, Clauses for KindAnd.
type Predicate struct {
	Kind    Kind
	Field   Field
	Values  []string
	Clauses []Predicate
}

// True matches every part.
func True() Predicate { return Predicate{Kind: KindTrue} }

// Equals matches parts whose field equals value.
func Equals(f Field, value string) Predicate {
	return Predicate{Kind: KindEquals, Field: f, Values: []string{value}}
}

// In matches parts whose field is one of values.
func In(f Field, values ...string) Predicate {
	return Predicate{Kind: KindMembership, Field: f, Values: append([]string(nil), values...)}
}

// Contains matches parts whose field contains needle, ignoring case.
func Contains(f Field, needle string) Predicate {
	return Predicate{Kind: KindSubstring, Field: f, Values: []string{needle}}
}

// And conjoins clauses. Nested conjunctions are flattened and True clauses
// dropped; zero clauses yield True and a single clause is returned as is.
func And(clauses ...Predicate) Predicate {
	flat := make([]Predicate, 0, len(clauses))
	for _, c := range clauses {
		switch c.Kind {
		case KindTrue:
			continue
		case KindAnd:
			flat = append(flat, c.Clauses...)
		default:
			flat = append(flat, c)
		}
	}
	switch len(flat) {
	case 0:
		return True()
	case 1:
		return flat[0]
	}
	return Predicate{Kind: KindAnd, Clauses: flat}
}

// IsTrue reports whether p matches everything.
func (p Predicate) IsTrue() bool { return p.Kind == KindTrue }

// Match evaluates p against a part.
func (p Predicate) Match(part model.Part) bool {
	switch p.Kind {
	case KindTrue:
		return true
	case KindAnd:
		for _, c := range p.Clauses {
			if !c.Match(part) {
				return false
			}
		}
		return true
	}

	value, ok := fieldValue(part, p.Field)
	if !ok || len(p.Values) == 0 {
		return false
	}
	switch p.Kind {
	case KindEquals:
		return value == p.Values[0]
	case KindMembership:
		for _, v := range p.Values {
			if value == v {
				return true
			}
		}
		return false
	case KindSubstring:
		return strings.Contains(strings.ToLower(value), strings.ToLower(p.Values[0]))
	}
	return false
}

func fieldValue(part model.Part, f Field) (string, bool) {
	switch f {
	case FieldCategory:
		return part.Category.Label(), true
	case FieldName:
		return part.Name, true
	case FieldManufacturer:
		return part.Manufacturer, true
	}
	if part.Specs == "" {
		return "", false
	}
	var specs map[string]any
	if err := json.Unmarshal([]byte(part.Specs), &specs); err != nil {
		return "", false
	}
	v, ok := specs[string(f)]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
