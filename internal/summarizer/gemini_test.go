package summarizer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"techtrends/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleArticles() []domain.ArticleWithTags {
	return []domain.ArticleWithTags{
		{
			Article: domain.Article{Title: "Go generics in practice", TrendScore: 40, LikesCount: 20},
			Tags:    []domain.Tag{{Name: "Go"}, {Name: "generics"}},
		},
		{
			Article: domain.Article{Title: "React Server Components", TrendScore: 35, LikesCount: 15},
			Tags:    []domain.Tag{{Name: "React"}},
		},
	}
}

func candidateResponse(text string) string {
	resp := map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]any{{"text": text}}}},
		},
	}
	b, _ := json.Marshal(resp)
	return string(b)
}

func newGemini(baseURL string, models ...string) *Gemini {
	return NewGemini(Config{
		APIKey:         "test-key",
		Models:         models,
		BaseURL:        baseURL,
		Timeout:        5 * time.Second,
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
	}, testLogger())
}

func TestSummarizeParsesFencedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "models/gemini-2.5-flash:generateContent")
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), "Go generics in practice")

		text := "以下が分析結果です。\n```json\n{\"summary\":\"Goが強い\",\"emerging_topics\":[\"generics\"],\"recommendations\":[\"学ぶ\"]}\n```"
		io.WriteString(w, candidateResponse(text))
	}))
	defer srv.Close()

	g := newGemini(srv.URL, "gemini-2.5-flash")
	analysis, err := g.Summarize(context.Background(), sampleArticles())
	require.NoError(t, err)
	assert.Equal(t, "Goが強い", analysis.Summary)
	assert.Equal(t, []string{"generics"}, analysis.EmergingTopics)
	assert.Equal(t, []string{"学ぶ"}, analysis.Recommendations)
}

func TestSummarizeBareJSONWithProse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		text := "結果: {\"summary\":\"要約\",\"emerging_topics\":[],\"recommendations\":[]} 以上です"
		io.WriteString(w, candidateResponse(text))
	}))
	defer srv.Close()

	g := newGemini(srv.URL, "gemini-2.5-flash")
	analysis, err := g.Summarize(context.Background(), sampleArticles())
	require.NoError(t, err)
	assert.Equal(t, "要約", analysis.Summary)
}

func TestSummarizeFallsBackToNextModel(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if strings.Contains(r.URL.Path, "gemini-2.5-flash") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		io.WriteString(w, candidateResponse(`{"summary":"fallback worked","emerging_topics":[],"recommendations":[]}`))
	}))
	defer srv.Close()

	g := newGemini(srv.URL, "gemini-2.5-flash", "gemini-2.5-pro")
	analysis, err := g.Summarize(context.Background(), sampleArticles())
	require.NoError(t, err)
	assert.Equal(t, "fallback worked", analysis.Summary)
	assert.Equal(t, int32(2), calls.Load())
}

func TestSummarizeRetriesOnOverload(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, candidateResponse(`{"summary":"retried","emerging_topics":[],"recommendations":[]}`))
	}))
	defer srv.Close()

	g := newGemini(srv.URL, "gemini-2.5-flash")
	analysis, err := g.Summarize(context.Background(), sampleArticles())
	require.NoError(t, err)
	assert.Equal(t, "retried", analysis.Summary)
	assert.Equal(t, int32(2), calls.Load())
}

func TestSummarizeAllModelsFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	g := newGemini(srv.URL, "gemini-2.5-flash", "gemini-2.5-pro")
	_, err := g.Summarize(context.Background(), sampleArticles())
	require.Error(t, err)

	var upstreamErr *domain.UpstreamError
	require.True(t, errors.As(err, &upstreamErr))
	assert.Equal(t, http.StatusBadRequest, upstreamErr.StatusCode)
}

func TestSummarizeMissingAPIKey(t *testing.T) {
	g := NewGemini(Config{Models: []string{"gemini-2.5-flash"}}, testLogger())

	_, err := g.Summarize(context.Background(), sampleArticles())
	var cfgErr *domain.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "gemini.api_key", cfgErr.Setting)
}

func TestSummarizeEmptyBatch(t *testing.T) {
	g := newGemini("http://unused", "gemini-2.5-flash")
	_, err := g.Summarize(context.Background(), nil)
	require.Error(t, err)
}

func TestParseAnalysisRejectsEmptySummary(t *testing.T) {
	_, err := parseAnalysis(`{"summary":"","emerging_topics":[],"recommendations":[]}`)
	require.Error(t, err)
}
