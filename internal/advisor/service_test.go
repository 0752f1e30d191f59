package advisor_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pcadvisor/internal/advisor"
	"pcadvisor/internal/catalog"
	"pcadvisor/internal/gemini"
	"pcadvisor/internal/model"
	"pcadvisor/internal/normalize"
)

type fakeGenerator struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string, _ time.Duration) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	return g.reply, g.err
}

func (g *fakeGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}

type memRecorder struct {
	events []model.EstimateRecorded
	err    error
}

func (r *memRecorder) Record(_ context.Context, ev model.EstimateRecorded) error {
	r.events = append(r.events, ev)
	return r.err
}

func testStore() *catalog.MemoryStore {
	parts := []model.Part{
		{ID: 1, Name: "Ryzen 5 7600", Category: model.CPU, Price: 220000, ReviewCount: 900, StarRating: 4.8,
			Specs: `{"cores":"6","threads":"12","socket":"AM5"}`},
		{ID: 2, Name: "Core i5-14400F", Category: model.CPU, Price: 250000, ReviewCount: 1200, StarRating: 4.7},
		{ID: 3, Name: "RTX 4060", Category: model.GPU, Price: 399000, ReviewCount: 50, StarRating: 4.5,
			Specs: `{"nvidia_chipset":"RTX 4060","gpu_memory_capacity":"8GB"}`},
		{ID: 4, Name: "B650M", Category: model.Motherboard, Price: 180000, ReviewCount: 300, StarRating: 4.6},
	}
	for i := int64(10); i < 20; i++ {
		parts = append(parts, model.Part{ID: i, Name: "DDR5 16GB", Category: model.RAM, Price: int(50000 + i), ReviewCount: int(i)})
	}
	return catalog.NewMemoryStore(parts)
}

func TestExtractCategory(t *testing.T) {
	cases := []struct {
		query string
		want  model.Category
	}{
		{"CPU 추천해줘", model.CPU},
		{"게임용 그래픽카드 알려줘", model.GPU},
		{"VGA 뭐가 좋아?", model.GPU},
		{"메인보드 골라줘", model.Motherboard},
		{"램 16기가", model.RAM},
		{"SSD 1TB", model.SSD},
		{"하드 디스크", model.HDD},
		{"파워 서플라이", model.PSU},
		{"컴퓨터케이스 추천", model.Case},
		{"수냉 쿨러", model.Cooler},
		{"cpu랑 그래픽카드 같이 추천해줘", model.CPU},
	}
	for _, tc := range cases {
		got, ok := advisor.ExtractCategory(tc.query)
		require.True(t, ok, tc.query)
		assert.Equal(t, tc.want, got, tc.query)
	}

	_, ok := advisor.ExtractCategory("안녕하세요")
	assert.False(t, ok)
}

func TestChatWithoutIntentSkipsGateway(t *testing.T) {
	gen := &fakeGenerator{reply: "unused"}
	svc := advisor.NewService(testStore(), nil, gen, nil, advisor.Options{})

	assert.Equal(t, advisor.NoIntent, svc.Chat(t.Context(), "오늘 날씨 어때?"))
	assert.Zero(t, gen.calls())
}

func TestChatEmptyCategorySkipsGateway(t *testing.T) {
	gen := &fakeGenerator{reply: "unused"}
	svc := advisor.NewService(testStore(), nil, gen, nil, advisor.Options{})

	assert.Equal(t, "SSD 카테고리의 부품 정보를 찾을 수 없어요.", svc.Chat(t.Context(), "SSD 추천해줘"))
	assert.Zero(t, gen.calls())
}

func TestChatGroundsOnCheapestParts(t *testing.T) {
	gen := &fakeGenerator{reply: "컴박사입니다! 🤖 Ryzen 5 7600을 추천해요."}
	rec := &memRecorder{}
	svc := advisor.NewService(testStore(), nil, gen, rec, advisor.Options{})

	got := svc.Chat(t.Context(), "CPU 추천해줘")
	assert.True(t, strings.HasPrefix(got, "컴박사입니다! 🤖"))
	require.Equal(t, 1, gen.calls())

	p := gen.prompts[0]
	assert.Contains(t, p, "제품명: Ryzen 5 7600, 가격: 220000원, 스펙: 6 / 12 / AM5\n제품명: Core i5-14400F, 가격: 250000원, 스펙: 상세 스펙 정보 없음")
	assert.NotContains(t, p, "RTX 4060")
	assert.Contains(t, p, "# 사용자 질문\nCPU 추천해줘\n")

	require.Len(t, rec.events, 1)
	ev := rec.events[0]
	assert.Equal(t, model.FlowChat, ev.Flow)
	assert.Equal(t, "CPU", ev.Category)
	assert.Equal(t, "ok", ev.Outcome)
	assert.NotEmpty(t, ev.ID)
}

func TestChatLimitsContext(t *testing.T) {
	gen := &fakeGenerator{reply: "ok"}
	svc := advisor.NewService(testStore(), nil, gen, nil, advisor.Options{})

	svc.Chat(t.Context(), "램 추천")
	require.Equal(t, 1, gen.calls())
	assert.Equal(t, 5, strings.Count(gen.prompts[0], "제품명: DDR5 16GB"))
	assert.Contains(t, gen.prompts[0], "가격: 50010원")
	assert.NotContains(t, gen.prompts[0], "가격: 50015원")
}

func TestChatGatewayFailure(t *testing.T) {
	gen := &fakeGenerator{err: &gemini.Error{Kind: gemini.KindStatus, StatusCode: 429}}
	rec := &memRecorder{err: errors.New("broker down")}
	svc := advisor.NewService(testStore(), nil, gen, rec, advisor.Options{})

	assert.Equal(t, "AI 응답 생성 중 오류가 발생했습니다: HTTP 429", svc.Chat(t.Context(), "cpu"))
	require.Len(t, rec.events, 1)
	assert.Equal(t, "status", rec.events[0].Outcome)
}

func TestLegacyEstimate(t *testing.T) {
	gen := &fakeGenerator{reply: "컴박사입니다! 🤖 견적입니다."}
	svc := advisor.NewService(testStore(), nil, gen, nil, advisor.Options{})

	got := svc.LegacyEstimate(t.Context(), model.LegacyEstimateRequest{Budget: "1500000", Purpose: "게임"})
	assert.Equal(t, "컴박사입니다! 🤖 견적입니다.", got)

	p := gen.prompts[0]
	assert.Contains(t, p, "[CPU]\n- Core i5-14400F: 250000원 (리뷰: 1200개, 별점: 4.7)\n- Ryzen 5 7600: 220000원 (리뷰: 900개, 별점: 4.8)\n")
	assert.Equal(t, 3, strings.Count(p, "- DDR5 16GB"))
	assert.NotContains(t, p, "[SSD]")
}

func TestEstimate(t *testing.T) {
	gen := &fakeGenerator{reply: "```json\n{\"items\":[{\"cat\":\"CPU\",\"name\":\"Ryzen 5 7600\",\"price\":22},{\"cat\":\"그래픽카드\",\"name\":\"RTX 4060\",\"price\":40}],\"reasoning\":\"가성비\"}\n```"}
	rec := &memRecorder{}
	svc := advisor.NewService(testStore(), nil, gen, rec, advisor.Options{})

	got := svc.Estimate(t.Context(), model.EstimateRequest{Budget: 120})
	assert.Equal(t, 62.0, got.Total)
	assert.Len(t, got.Items, 2)
	assert.Equal(t, "가성비", got.Reasoning)
	assert.Equal(t, normalize.Note, got.Note)
	assert.Equal(t, 120, got.Summary.Budget)
	assert.Equal(t, model.DefaultMode, got.Summary.Mode)

	p := gen.prompts[0]
	assert.Contains(t, p, "[CPU]\n- Core i5-14400F: 25만원\n- Ryzen 5 7600: 22만원\n")
	assert.Contains(t, p, "총합이 예산(120만원)을 넘지 않게")

	require.Len(t, rec.events, 1)
	require.NotNil(t, rec.events[0].Summary)
	assert.Equal(t, 120, rec.events[0].Summary.Budget)
}

func TestEstimateGatewayFailure(t *testing.T) {
	gen := &fakeGenerator{err: &gemini.Error{Kind: gemini.KindNetwork, Err: context.DeadlineExceeded}}
	svc := advisor.NewService(testStore(), nil, gen, nil, advisor.Options{})

	got := svc.Estimate(t.Context(), model.EstimateRequest{})
	assert.Empty(t, got.Items)
	assert.Zero(t, got.Total)
	assert.Equal(t, normalize.GatewayFailed, got.Reasoning)
	assert.Equal(t, 1, gen.calls())
}
