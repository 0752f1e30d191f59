package gemini

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Config{APIKey: "k", BaseURL: srv.URL, Model: "test-model"})
}

func TestGenerateSuccess(t *testing.T) {
	var got GenerateRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/test-model:generateContent", r.URL.Path)
		assert.Equal(t, "k", r.URL.Query().Get("key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"컴박사입니다! 🤖 추천은..."}]}}]}`))
	})

	text, err := c.Generate(t.Context(), "CPU 추천해줘", 0)
	require.NoError(t, err)
	assert.Equal(t, "컴박사입니다! 🤖 추천은...", text)
	require.Len(t, got.Contents, 1)
	require.Len(t, got.Contents[0].Parts, 1)
	assert.Equal(t, "CPU 추천해줘", got.Contents[0].Parts[0].Text)
}

func TestGenerateStatusFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"overloaded"}`, http.StatusServiceUnavailable)
	})

	_, err := c.Generate(t.Context(), "p", 0)
	ge := Classify(err)
	require.NotNil(t, ge)
	assert.Equal(t, KindStatus, ge.Kind)
	assert.Equal(t, http.StatusServiceUnavailable, ge.StatusCode)
	assert.EqualError(t, err, "gemini: HTTP 503")
}

func TestGenerateMalformed(t *testing.T) {
	cases := map[string]string{
		"no candidates": `{"candidates":[]}`,
		"no parts":      `{"candidates":[{"content":{"parts":[]}}]}`,
		"no content":    `{"candidates":[{}]}`,
		"empty text":    `{"candidates":[{"content":{"parts":[{"text":""}]}}]}`,
		"not json":      `<html>oops</html>`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			})
			_, err := c.Generate(t.Context(), "p", 0)
			require.Error(t, err)
			assert.Equal(t, KindMalformed, Classify(err).Kind)
		})
	}
}

func TestGenerateTimeout(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	_, err := c.Generate(t.Context(), "p", 50*time.Millisecond)
	ge := Classify(err)
	require.NotNil(t, ge)
	assert.Equal(t, KindNetwork, ge.Kind)
	assert.True(t, ge.Timeout())
}

func TestGenerateNetworkErrorHidesKey(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c := NewClient(Config{APIKey: "secret-key", BaseURL: base})
	_, err := c.Generate(t.Context(), "p", time.Second)
	require.Error(t, err)
	assert.Equal(t, KindNetwork, Classify(err).Kind)
	assert.NotContains(t, err.Error(), "secret-key")
}

func TestClassifyForeignError(t *testing.T) {
	assert.Nil(t, Classify(nil))
	ge := Classify(assert.AnError)
	assert.Equal(t, KindNetwork, ge.Kind)
	assert.ErrorIs(t, ge, assert.AnError)
}
