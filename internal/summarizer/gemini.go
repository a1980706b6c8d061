// Package summarizer produces an AI-written digest of the current
// trend landscape from a batch of collected articles.
package summarizer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"techtrends/internal/domain"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com"

// TrendAnalysis is the structured digest the model is asked to return.
type TrendAnalysis struct {
	Summary         string   `json:"summary"`
	EmergingTopics  []string `json:"emerging_topics"`
	Recommendations []string `json:"recommendations"`
}

type Config struct {
	APIKey         string
	Models         []string
	BaseURL        string
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Gemini calls the Generative Language REST API. Models are tried in
// configured order so a retired or overloaded model falls through to
// the next one.
type Gemini struct {
	httpClient     *http.Client
	apiKey         string
	models         []string
	baseURL        string
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	logger         *slog.Logger
}

func NewGemini(cfg Config, logger *slog.Logger) *Gemini {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	return &Gemini{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		apiKey:         cfg.APIKey,
		models:         cfg.Models,
		baseURL:        baseURL,
		maxAttempts:    maxAttempts,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		logger:         logger.With("component", "summarizer"),
	}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Summarize asks the model for a trend digest over the given articles.
func (g *Gemini) Summarize(ctx context.Context, articles []domain.ArticleWithTags) (*TrendAnalysis, error) {
	if g.apiKey == "" {
		return nil, &domain.ConfigurationError{Setting: "gemini.api_key"}
	}
	if len(articles) == 0 {
		return nil, fmt.Errorf("no articles to summarize")
	}

	prompt := buildPrompt(articles)

	var lastErr error
	for _, model := range g.models {
		text, err := g.generate(ctx, model, prompt)
		if err != nil {
			g.logger.Warn("model failed, trying next", "model", model, "error", err)
			lastErr = err
			continue
		}

		analysis, err := parseAnalysis(text)
		if err != nil {
			g.logger.Warn("unparseable model output, trying next", "model", model, "error", err)
			lastErr = err
			continue
		}

		g.logger.Debug("trend analysis generated", "model", model)
		return analysis, nil
	}

	return nil, fmt.Errorf("all models failed: %w", lastErr)
}

func (g *Gemini) generate(ctx context.Context, model, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	u := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", g.baseURL, model, g.apiKey)

	var lastErr error
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(g.backoff(attempt - 1)):
			}
		}

		text, retryable, err := g.doGenerate(ctx, u, body)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !retryable {
			return "", err
		}
		g.logger.Warn("model overloaded, retrying", "model", model, "attempt", attempt, "error", err)
	}

	return "", lastErr
}

func (g *Gemini) doGenerate(ctx context.Context, u string, body []byte) (text string, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, strings.NewReader(string(body)))
	if err != nil {
		return "", false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", true, &domain.UpstreamError{Source: "gemini", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		retryable := resp.StatusCode == http.StatusServiceUnavailable ||
			resp.StatusCode == http.StatusTooManyRequests
		return "", retryable, &domain.UpstreamError{Source: "gemini", StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, &domain.UpstreamError{Source: "gemini", Err: err}
	}

	var genResp generateResponse
	if err := json.Unmarshal(data, &genResp); err != nil {
		return "", false, &domain.UpstreamError{Source: "gemini", Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return "", false, &domain.UpstreamError{Source: "gemini", Err: fmt.Errorf("empty candidate list")}
	}

	return genResp.Candidates[0].Content.Parts[0].Text, false, nil
}

func (g *Gemini) backoff(retry int) time.Duration {
	d := g.initialBackoff
	if d <= 0 {
		d = time.Second
	}
	for i := 1; i < retry; i++ {
		d *= 2
		if g.maxBackoff > 0 && d >= g.maxBackoff {
			return g.maxBackoff
		}
	}
	return d
}

// buildPrompt condenses the batch into engagement stats and a tag
// frequency table so the model sees the shape of the data, not every
// article body.
func buildPrompt(articles []domain.ArticleWithTags) string {
	tagFreq := make(map[string]int)
	totalLikes := 0
	for _, a := range articles {
		totalLikes += a.LikesCount
		for _, t := range a.Tags {
			tagFreq[t.Name]++
		}
	}

	type tagCount struct {
		name  string
		count int
	}
	tags := make([]tagCount, 0, len(tagFreq))
	for name, count := range tagFreq {
		tags = append(tags, tagCount{name: name, count: count})
	}
	sort.Slice(tags, func(i, j int) bool {
		if tags[i].count != tags[j].count {
			return tags[i].count > tags[j].count
		}
		return tags[i].name < tags[j].name
	})
	if len(tags) > 20 {
		tags = tags[:20]
	}

	var b strings.Builder
	b.WriteString("あなたは技術トレンドアナリストです。以下の技術記事データを分析し、現在のトレンドを要約してください。\n\n")
	fmt.Fprintf(&b, "記事数: %d\n総いいね数: %d\n\n", len(articles), totalLikes)

	b.WriteString("頻出タグ:\n")
	for _, t := range tags {
		fmt.Fprintf(&b, "- %s (%d件)\n", t.name, t.count)
	}

	b.WriteString("\n注目記事:\n")
	top := articles
	if len(top) > 15 {
		top = top[:15]
	}
	for _, a := range top {
		fmt.Fprintf(&b, "- %s (スコア: %d, いいね: %d)\n", a.Title, a.TrendScore, a.LikesCount)
	}

	b.WriteString(`
次のJSON形式のみで回答してください:
{
  "summary": "トレンド全体の要約（日本語、3〜4文）",
  "emerging_topics": ["新興トピック1", "新興トピック2", "新興トピック3"],
  "recommendations": ["エンジニアへの提言1", "エンジニアへの提言2"]
}
`)
	return b.String()
}

var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// parseAnalysis tolerates the model wrapping its JSON in a markdown
// fence or leading prose.
func parseAnalysis(text string) (*TrendAnalysis, error) {
	payload := text
	if m := fencedJSON.FindStringSubmatch(text); len(m) == 2 {
		payload = m[1]
	} else if start := strings.Index(text, "{"); start >= 0 {
		if end := strings.LastIndex(text, "}"); end > start {
			payload = text[start : end+1]
		}
	}

	var analysis TrendAnalysis
	if err := json.Unmarshal([]byte(payload), &analysis); err != nil {
		return nil, fmt.Errorf("parse analysis: %w", err)
	}
	if analysis.Summary == "" {
		return nil, fmt.Errorf("parse analysis: empty summary")
	}
	return &analysis, nil
}
