package filter_test

import (
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"pcadvisor/internal/filter"
	"pcadvisor/internal/model"
)

var parts = []model.Part{
	{ID: 1, Name: "AMD 라이젠5 7600", Category: model.CPU, Price: 220000, Specs: `{"socket":"AM5"}`},
	{ID: 2, Name: "인텔 코어i5-14400F", Category: model.CPU, Price: 250000},
	{ID: 3, Name: "MSI 지포스 RTX 4060", Category: model.GPU, Price: 400000, Specs: `{"nvidia_chipset":"RTX 4060"}`},
	{ID: 4, Name: "삼성 DDR5-5600 16GB", Category: model.RAM, Price: 60000},
}

func matching(p filter.Predicate) []int64 {
	var ids []int64
	for _, part := range parts {
		if p.Match(part) {
			ids = append(ids, part.ID)
		}
	}
	return ids
}

func TestCompileEmptyValuesMatchAll(t *testing.T) {
	var c filter.Criteria
	c.Add("category", "")
	c.Add("keyword", "", "")
	c.Add("socket", "")
	c.Add("manufacturer")

	p := filter.Compile(c)
	assert.True(t, p.IsTrue())
	assert.Equal(t, []int64{1, 2, 3, 4}, matching(p))
}

func TestCompileCategoryMembership(t *testing.T) {
	var c filter.Criteria
	c.Add("category", "CPU")

	p := filter.Compile(c)
	assert.Equal(t, []int64{1, 2}, matching(p))
	for _, part := range parts {
		if p.Match(part) {
			assert.Equal(t, model.CPU, part.Category)
		}
	}
}

func TestCompileCategoryAcceptsEnglishNames(t *testing.T) {
	var c filter.Criteria
	c.Add("category", "gpu", "RAM")

	assert.Equal(t, []int64{3, 4}, matching(filter.Compile(c)))
}

func TestCompileKeywordUsesFirstValueOnly(t *testing.T) {
	var c filter.Criteria
	c.Add("keyword", "rtx", "라이젠")

	p := filter.Compile(c)
	assert.Equal(t, filter.Contains(filter.FieldName, "rtx"), p)
	assert.Equal(t, []int64{3}, matching(p))
}

func TestCompileKeywordMatchesNameOnly(t *testing.T) {
	var c filter.Criteria
	c.Add("keyword", "AM5")

	assert.Empty(t, matching(filter.Compile(c)))
}

func TestCompileIgnoresAttributeKeys(t *testing.T) {
	var c filter.Criteria
	c.Add("category", "CPU")
	c.Add("socket", "AM5")
	c.Add("no_such_field", "x")

	p := filter.Compile(c)
	assert.Equal(t, []int64{1, 2}, matching(p))
}

func TestCompileConjunction(t *testing.T) {
	var c filter.Criteria
	c.Add("category", "CPU")
	c.Add("keyword", "인텔")

	want := filter.Predicate{
		Kind: filter.KindAnd,
		Clauses: []filter.Predicate{
			filter.In(filter.FieldCategory, "CPU"),
			filter.Contains(filter.FieldName, "인텔"),
		},
	}
	got := filter.Compile(c)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Compile mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []int64{2}, matching(got))
}

func TestAttributeClause(t *testing.T) {
	p, ok := filter.AttributeClause("socket", []string{"", "AM5"})
	assert.True(t, ok)
	assert.Equal(t, filter.In("socket", "AM5"), p)
	assert.Equal(t, []int64{1}, matching(p))

	_, ok = filter.AttributeClause("socket", []string{""})
	assert.False(t, ok)
}

func TestAndFlattens(t *testing.T) {
	a := filter.Equals(filter.FieldManufacturer, "AMD")
	b := filter.Contains(filter.FieldName, "x")
	got := filter.And(filter.True(), filter.And(a, b), filter.True())

	assert.Equal(t, filter.KindAnd, got.Kind)
	assert.Len(t, got.Clauses, 2)
	assert.Equal(t, a, filter.And(a))
	assert.True(t, filter.And().IsTrue())
}

func TestFromQuerySkipsReservedKeys(t *testing.T) {
	q := url.Values{
		"page":     {"2"},
		"size":     {"10"},
		"keyword":  {"RTX"},
		"category": {"그래픽카드"},
	}
	c := filter.FromQuery(q, "page", "size", "sort")

	assert.Equal(t, []string{"category", "keyword"}, c.Keys())
	assert.Equal(t, []string{"RTX"}, c.Values("keyword"))
	assert.Equal(t, []int64{3}, matching(filter.Compile(c)))
}
