package httpapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pcadvisor/internal/catalog"
	"pcadvisor/internal/httpapi"
	"pcadvisor/internal/model"
)

type stubAdvisor struct {
	chats   []string
	legacy  []model.LegacyEstimateRequest
	structs []model.EstimateRequest
}

func (a *stubAdvisor) Chat(_ context.Context, q string) string {
	a.chats = append(a.chats, q)
	return "컴박사입니다! 🤖 " + q
}

func (a *stubAdvisor) LegacyEstimate(_ context.Context, req model.LegacyEstimateRequest) string {
	a.legacy = append(a.legacy, req)
	return "legacy"
}

func (a *stubAdvisor) Estimate(_ context.Context, req model.EstimateRequest) model.EstimateResult {
	a.structs = append(a.structs, req)
	return model.EstimateResult{Summary: req.Summary(), Items: []model.EstimateItem{}, Reasoning: "r"}
}

type memIngest struct{ batches []model.IngestBatch }

func (m *memIngest) PublishIngest(_ context.Context, b model.IngestBatch) error {
	m.batches = append(m.batches, b)
	return nil
}

func newTestRouter(t *testing.T, adv httpapi.Advisor, ingest httpapi.IngestPublisher, opts httpapi.Options) *mux.Router {
	t.Helper()
	store := catalog.NewMemoryStore([]model.Part{
		{ID: 1, Name: "Ryzen 5 7600", Category: model.CPU, Price: 220000, Manufacturer: "AMD"},
		{ID: 2, Name: "Core i5-14400F", Category: model.CPU, Price: 250000, Manufacturer: "Intel"},
		{ID: 3, Name: "RTX 4060", Category: model.GPU, Price: 399000},
		{ID: 4, Name: "Ryzen 7 7800X3D", Category: model.CPU, Price: 520000, Manufacturer: "AMD"},
	})
	r := mux.NewRouter()
	httpapi.NewServer(store, adv, ingest, opts).RegisterRoutes(r)
	return r
}

func do(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, target, strings.NewReader(body)))
	return rec
}

type partsEnvelope struct {
	Success bool         `json:"success"`
	Data    []model.Part `json:"data"`
	Count   int          `json:"count"`
	Total   int          `json:"total"`
	Page    int          `json:"page"`
	Size    int          `json:"size"`
	HasMore bool         `json:"has_more"`
}

func TestHealth(t *testing.T) {
	rec := do(newTestRouter(t, &stubAdvisor{}, nil, httpapi.Options{}), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestPartsFiltersAndPages(t *testing.T) {
	r := newTestRouter(t, &stubAdvisor{}, nil, httpapi.Options{})
	q := url.Values{"category": {"CPU"}, "keyword": {"ryzen"}, "sort": {"price,desc"}, "size": {"1"}}

	rec := do(r, http.MethodGet, "/api/parts?"+q.Encode(), "")
	require.Equal(t, http.StatusOK, rec.Code)

	var env partsEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.True(t, env.Success)
	assert.Equal(t, 2, env.Total)
	assert.Equal(t, 1, env.Count)
	assert.Equal(t, 1, env.Size)
	assert.True(t, env.HasMore)
	require.Len(t, env.Data, 1)
	assert.Equal(t, "Ryzen 7 7800X3D", env.Data[0].Name)

	q.Set("page", "1")
	rec = do(r, http.MethodGet, "/api/parts?"+q.Encode(), "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "Ryzen 5 7600", env.Data[0].Name)
	assert.False(t, env.HasMore)
}

func TestPartsEmptyCriteriaMatchesAll(t *testing.T) {
	rec := do(newTestRouter(t, &stubAdvisor{}, nil, httpapi.Options{}), http.MethodGet, "/api/parts?size=500&unknown=x", "")
	var env partsEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, 4, env.Total)
	assert.Equal(t, 100, env.Size)
	assert.Equal(t, 0, env.Page)
}

func TestPartsBadParams(t *testing.T) {
	r := newTestRouter(t, &stubAdvisor{}, nil, httpapi.Options{})
	for _, target := range []string{"/api/parts?page=-1", "/api/parts?page=9223372036854775807&size=20", "/api/parts?size=abc", "/api/parts?sort=color,asc", "/api/parts?sort=price,up"} {
		rec := do(r, http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.JSONEq(t, `false`, mustField(t, rec.Body.Bytes(), "success"), target)
	}
}

func TestCompare(t *testing.T) {
	r := newTestRouter(t, &stubAdvisor{}, nil, httpapi.Options{})
	rec := do(r, http.MethodGet, "/api/parts/compare?ids=3,1&ids=99", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var env partsEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.Len(t, env.Data, 2)
	assert.Equal(t, int64(3), env.Data[0].ID)
	assert.Equal(t, int64(1), env.Data[1].ID)

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/api/parts/compare", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/api/parts/compare?ids=a", "").Code)
}

func TestChat(t *testing.T) {
	adv := &stubAdvisor{}
	rec := do(newTestRouter(t, adv, nil, httpapi.Options{}), http.MethodPost, "/api/chat", "  CPU 추천해줘\n")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "컴박사입니다! 🤖 CPU 추천해줘", rec.Body.String())
	assert.Equal(t, []string{"CPU 추천해줘"}, adv.chats)
}

func TestEstimateDispatch(t *testing.T) {
	adv := &stubAdvisor{}
	r := newTestRouter(t, adv, nil, httpapi.Options{})

	rec := do(r, http.MethodPost, "/api/estimate", `{"mode":"작업용","budget":200}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var res model.EstimateResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 200, res.Summary.Budget)
	assert.Equal(t, model.DefaultCPUBrand, res.Summary.CPUBrand)

	rec = do(r, http.MethodPost, "/api/estimate", `{"budget":1500000,"purpose":"게임"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "legacy", rec.Body.String())
	require.Len(t, adv.legacy, 1)
	assert.Equal(t, model.LegacyEstimateRequest{Budget: "1500000", Purpose: "게임"}, adv.legacy[0])

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/api/estimate", `{"mode":"x","budget":-3}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/api/estimate", `not json`).Code)
	assert.Len(t, adv.structs, 1)
}

func TestAIRoutesRateLimited(t *testing.T) {
	r := newTestRouter(t, &stubAdvisor{}, nil, httpapi.Options{AIRatePerSec: 0.001, AIBurst: 1})

	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/api/chat", "cpu").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(r, http.MethodPost, "/api/chat", "cpu").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/parts", "").Code)
}

func TestIngest(t *testing.T) {
	ingest := &memIngest{}
	r := newTestRouter(t, &stubAdvisor{}, ingest, httpapi.Options{})

	rec := do(r, http.MethodPost, "/api/ingest", `{"batch_id":"b1","parts":[{"name":"r5","category":"CPU","price":1,"link":"https://x.example/1"}]}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, ingest.batches, 1)
	assert.Equal(t, "b1", ingest.batches[0].BatchID)

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/api/ingest", `{"batch_id":"b2","parts":[]}`).Code)

	noIngest := newTestRouter(t, &stubAdvisor{}, nil, httpapi.Options{})
	assert.Equal(t, http.StatusNotFound, do(noIngest, http.MethodPost, "/api/ingest", `{}`).Code)
}

func mustField(t *testing.T, body []byte, key string) string {
	t.Helper()
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &m))
	return string(m[key])
}
