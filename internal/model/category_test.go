package model_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pcadvisor/internal/model"
)

func TestParseCategory(t *testing.T) {
	cases := []struct {
		in   string
		want model.Category
	}{
		{"CPU", model.CPU},
		{"그래픽카드", model.GPU},
		{"gpu", model.GPU},
		{"메인보드", model.Motherboard},
		{" 파워 ", model.PSU},
		{"Case", model.Case},
		{"쿨러", model.Cooler},
	}
	for _, tc := range cases {
		got, ok := model.ParseCategory(tc.in)
		require.True(t, ok, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	_, ok := model.ParseCategory("모니터")
	assert.False(t, ok)
}

func TestEveryCategoryHasTableRow(t *testing.T) {
	for _, c := range model.Categories() {
		assert.True(t, c.Valid())
		assert.NotEmpty(t, c.Label(), c.String())
		assert.NotEmpty(t, c.FilterableFields(), c.String())
		assert.True(t, c.IsFilterable("manufacturer"), c.String())
	}
	assert.False(t, model.Category(42).Valid())
	assert.Empty(t, model.Category(42).Label())
}

func TestDigestProjection(t *testing.T) {
	assert.Equal(t, []model.SpecSegment{{"nvidia_chipset", "amd_chipset"}, {"gpu_memory_capacity"}}, model.GPU.DigestProjection())
	assert.Len(t, model.CPU.DigestProjection(), 3)
	assert.Nil(t, model.SSD.DigestProjection())
}

func TestCategoryJSONUsesStorageLabel(t *testing.T) {
	data, err := json.Marshal(model.Part{ID: 1, Name: "RTX", Category: model.GPU})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"category":"그래픽카드"`)

	var p model.Part
	require.NoError(t, json.Unmarshal(data, &p))
	assert.Equal(t, model.GPU, p.Category)

	err = json.Unmarshal([]byte(`{"category":"모니터"}`), &p)
	assert.Error(t, err)
}

func TestEstimateRequestDefaults(t *testing.T) {
	req := model.EstimateRequest{Budget: 200}.WithDefaults()
	assert.Equal(t, model.EstimateSummary{
		Mode:     "게이밍",
		Budget:   200,
		CPUBrand: "intel",
		GPUBrand: "nvidia",
		Storage:  "SSD만",
		Monitor:  "포함",
	}, req.Summary())
}
