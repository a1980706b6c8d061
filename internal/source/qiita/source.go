package qiita

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"techtrends/internal/domain"
	"techtrends/internal/trend"
)

const SourceName = "qiita"

// Config holds Qiita source configuration. AccessToken is required;
// collection for this source fails without it.
type Config struct {
	BaseURL        string
	AccessToken    string
	PerPage        int
	WindowDays     int
	MinStocks      int
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Source fetches trending items from the Qiita REST API using a
// structured query that combines a recency constraint with a minimum
// stock count.
type Source struct {
	httpClient     *http.Client
	baseURL        string
	accessToken    string
	perPage        int
	windowDays     int
	minStocks      int
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	logger         *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Source {
	return &Source{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:        cfg.BaseURL,
		accessToken:    cfg.AccessToken,
		perPage:        cfg.PerPage,
		windowDays:     cfg.WindowDays,
		minStocks:      cfg.MinStocks,
		maxAttempts:    cfg.MaxAttempts,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		logger:         logger.With("source", SourceName),
	}
}

func (s *Source) Name() string {
	return SourceName
}

// FetchArticles fetches one page of items matching the trend query.
func (s *Source) FetchArticles(ctx context.Context) ([]domain.Collected, error) {
	if s.accessToken == "" {
		return nil, &domain.ConfigurationError{Setting: "sources.qiita.access_token"}
	}

	since := time.Now().AddDate(0, 0, -s.windowDays).Format("2006-01-02")
	query := fmt.Sprintf("created:>%s stocks:>%d", since, s.minStocks)

	items, err := s.fetchItems(ctx, query)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("fetched items", "count", len(items))

	now := time.Now()
	collected := make([]domain.Collected, 0, len(items))
	for _, item := range items {
		a, err := mapItem(item, now)
		if err != nil {
			s.logger.Warn("skipping item", "external_id", item.ID, "error", err)
			continue
		}
		collected = append(collected, a)
	}

	return collected, nil
}

func (s *Source) fetchItems(ctx context.Context, query string) ([]Item, error) {
	var items []Item
	var err error

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		items, err = s.doRequest(ctx, query)
		if err == nil {
			return items, nil
		}

		if attempt == s.maxAttempts {
			break
		}

		backoff := s.calculateBackoff(attempt)
		s.logger.Warn("request failed, retrying",
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	return nil, fmt.Errorf("after %d attempts: %w", s.maxAttempts, err)
}

func (s *Source) doRequest(ctx context.Context, query string) ([]Item, error) {
	u := fmt.Sprintf("%s/items?page=1&per_page=%d&query=%s",
		s.baseURL, s.perPage, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &domain.UpstreamError{Source: SourceName, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.UpstreamError{Source: SourceName, StatusCode: resp.StatusCode}
	}

	var items []Item
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, &domain.UpstreamError{Source: SourceName, Err: fmt.Errorf("decode response: %w", err)}
	}

	return items, nil
}

func (s *Source) calculateBackoff(attempt int) time.Duration {
	backoff := s.initialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
	}
	if backoff > s.maxBackoff {
		backoff = s.maxBackoff
	}
	return backoff
}

// mapItem converts one Qiita item to the common article shape. Qiita
// stocks map to bookmarks; the list API carries no thumbnail or view
// count.
func mapItem(item Item, now time.Time) (domain.Collected, error) {
	publishedAt, err := time.Parse(time.RFC3339, item.CreatedAt)
	if err != nil {
		return domain.Collected{}, &domain.MappingError{
			Source:     SourceName,
			ExternalID: item.ID,
			Err:        fmt.Errorf("parse created_at %q: %w", item.CreatedAt, err),
		}
	}

	authorName := item.User.Name
	if authorName == "" {
		authorName = item.User.ID
	}

	description := truncateRunes(item.Body, 200)
	profileURL := "https://qiita.com/" + item.User.ID

	tags := make([]string, 0, len(item.Tags))
	for _, t := range item.Tags {
		tags = append(tags, t.Name)
	}

	return domain.Collected{
		Article: domain.Article{
			ExternalID:       item.ID,
			Title:            item.Title,
			URL:              item.URL,
			Description:      &description,
			Body:             &item.Body,
			LikesCount:       item.LikesCount,
			BookmarksCount:   item.StocksCount,
			CommentsCount:    item.CommentsCount,
			TrendScore:       trend.ScoreAt(item.LikesCount, item.StocksCount, item.CommentsCount, publishedAt, now),
			AuthorName:       authorName,
			AuthorID:         item.User.ID,
			AuthorProfileURL: &profileURL,
			AuthorAvatarURL:  &item.User.ProfileImageURL,
			PublishedAt:      publishedAt,
		},
		TagNames: tags,
	}, nil
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
