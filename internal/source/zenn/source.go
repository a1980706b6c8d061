package zenn

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"techtrends/internal/domain"
	"techtrends/internal/trend"
)

const SourceName = "zenn"

type Config struct {
	BaseURL string
	Order   string
	Count   int
	Timeout time.Duration
}

// Source fetches the Zenn trending feed. The list API exposes likes
// only: no bookmark or view counters and no tags, so the trend score
// rests on likes plus recency decay and the tag list is always empty.
type Source struct {
	httpClient *http.Client
	baseURL    string
	order      string
	count      int
	logger     *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Source {
	return &Source{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		order:   cfg.Order,
		count:   cfg.Count,
		logger:  logger.With("source", SourceName),
	}
}

func (s *Source) Name() string {
	return SourceName
}

func (s *Source) FetchArticles(ctx context.Context) ([]domain.Collected, error) {
	u := fmt.Sprintf("%s/articles?order=%s&count=%d", s.baseURL, s.order, s.count)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &domain.UpstreamError{Source: SourceName, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.UpstreamError{Source: SourceName, StatusCode: resp.StatusCode}
	}

	var apiResp APIResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, &domain.UpstreamError{Source: SourceName, Err: fmt.Errorf("decode response: %w", err)}
	}

	s.logger.Debug("fetched articles", "count", len(apiResp.Articles))

	now := time.Now()
	collected := make([]domain.Collected, 0, len(apiResp.Articles))
	for _, a := range apiResp.Articles {
		mapped, err := mapArticle(a, now)
		if err != nil {
			s.logger.Warn("skipping article", "external_id", a.ID, "error", err)
			continue
		}
		collected = append(collected, mapped)
	}

	return collected, nil
}

func mapArticle(a Article, now time.Time) (domain.Collected, error) {
	publishedAt, err := time.Parse(time.RFC3339, a.PublishedAt)
	if err != nil {
		return domain.Collected{}, &domain.MappingError{
			Source:     SourceName,
			ExternalID: strconv.FormatInt(a.ID, 10),
			Err:        fmt.Errorf("parse published_at %q: %w", a.PublishedAt, err),
		}
	}

	authorName := a.User.Name
	if authorName == "" {
		authorName = a.User.Username
	}

	articleURL := "https://zenn.dev" + a.Path
	description := a.Emoji + " " + a.Title
	profileURL := "https://zenn.dev/" + a.User.Username

	return domain.Collected{
		Article: domain.Article{
			ExternalID:       strconv.FormatInt(a.ID, 10),
			Title:            a.Title,
			URL:              articleURL,
			Description:      &description,
			LikesCount:       a.LikedCount,
			TrendScore:       trend.ScoreAt(a.LikedCount, 0, 0, publishedAt, now),
			AuthorName:       authorName,
			AuthorID:         a.User.Username,
			AuthorProfileURL: &profileURL,
			AuthorAvatarURL:  &a.User.AvatarSmallURL,
			PublishedAt:      publishedAt,
		},
		// The list API carries no tag data; resolving tags would take
		// one detail call per article, which we deliberately avoid.
		TagNames: nil,
	}, nil
}
