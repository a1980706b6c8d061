package note

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"techtrends/internal/domain"
	"techtrends/internal/trend"
)

const SourceName = "note"

const maxKeywords = 6

type Config struct {
	BaseURL        string
	Keywords       []string
	PageSize       int
	RequestDelay   time.Duration
	BlockedAuthors []string
	Timeout        time.Duration
}

// Source searches the unofficial note.com API one keyword at a time.
// Results are deduplicated by raw id across keywords, paid notes and a
// configured author block-list are skipped, and sequential keyword
// queries are paced with a fixed delay so the upstream does not
// rate-limit us.
type Source struct {
	httpClient     *http.Client
	baseURL        string
	keywords       []string
	pageSize       int
	limiter        *rate.Limiter
	blockedAuthors map[string]struct{}
	logger         *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Source {
	blocked := make(map[string]struct{}, len(cfg.BlockedAuthors))
	for _, a := range cfg.BlockedAuthors {
		blocked[a] = struct{}{}
	}

	keywords := cfg.Keywords
	if len(keywords) > maxKeywords {
		keywords = keywords[:maxKeywords]
	}

	return &Source{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:        cfg.BaseURL,
		keywords:       keywords,
		pageSize:       cfg.PageSize,
		limiter:        rate.NewLimiter(rate.Every(cfg.RequestDelay), 1),
		blockedAuthors: blocked,
		logger:         logger.With("source", SourceName),
	}
}

func (s *Source) Name() string {
	return SourceName
}

// FetchArticles aggregates search results across all configured
// keywords. A failing keyword query is logged and skipped; the source
// as a whole fails only when every keyword failed.
func (s *Source) FetchArticles(ctx context.Context) ([]domain.Collected, error) {
	var (
		notes    []Note
		seen     = make(map[string]struct{})
		failures int
		lastErr  error
	)

	for _, keyword := range s.keywords {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		results, err := s.search(ctx, keyword)
		if err != nil {
			s.logger.Warn("keyword search failed", "keyword", keyword, "error", err)
			failures++
			lastErr = err
			continue
		}

		for _, n := range results {
			id := n.ID.String()
			if id == "" {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			if n.Price > 0 {
				continue
			}
			if n.User != nil {
				if _, blocked := s.blockedAuthors[n.User.URLName]; blocked {
					continue
				}
			}
			seen[id] = struct{}{}
			notes = append(notes, n)
		}
	}

	if failures == len(s.keywords) && failures > 0 {
		return nil, lastErr
	}

	s.logger.Debug("aggregated search results", "count", len(notes), "failed_keywords", failures)

	now := time.Now()
	collected := make([]domain.Collected, 0, len(notes))
	for _, n := range notes {
		collected = append(collected, mapNote(n, now))
	}

	return collected, nil
}

func (s *Source) search(ctx context.Context, keyword string) ([]Note, error) {
	params := url.Values{}
	params.Set("q", keyword)
	params.Set("context", "note")
	params.Set("size", fmt.Sprint(s.pageSize))
	params.Set("start", "0")

	u := s.baseURL + "/searches?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &domain.UpstreamError{Source: SourceName, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.UpstreamError{Source: SourceName, StatusCode: resp.StatusCode}
	}

	var searchResp searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, &domain.UpstreamError{Source: SourceName, Err: fmt.Errorf("decode response: %w", err)}
	}

	return searchResp.Data.Notes.Contents, nil
}

// mapNote converts one note to the common article shape. The search
// payload has no bookmark or view counters, and sometimes no URL, in
// which case one is constructed from the author handle and note key.
func mapNote(n Note, now time.Time) domain.Collected {
	publishedAt := parseTime(n.PublishAt)
	if publishedAt.IsZero() {
		publishedAt = parseTime(n.CreatedAt)
	}
	if publishedAt.IsZero() {
		publishedAt = now
	}

	urlname := ""
	if n.User != nil {
		urlname = n.User.URLName
	}

	articleURL := n.NoteURL
	if articleURL == "" {
		key := n.Key
		if key == "" {
			key = n.ID.String()
		}
		owner := urlname
		if owner == "" {
			owner = "unknown"
		}
		articleURL = fmt.Sprintf("https://note.com/%s/n/%s", owner, key)
	}

	title := n.Name
	if title == "" {
		title = "無題"
	}

	description := ""
	if n.Description != nil && *n.Description != "" {
		description = *n.Description
	} else {
		description = truncateRunes(title, 200)
	}

	authorName := "匿名"
	authorID := n.ID.String()
	var profileURL, avatarURL *string
	if n.User != nil {
		switch {
		case n.User.Nickname != "":
			authorName = n.User.Nickname
		case n.User.Name != "":
			authorName = n.User.Name
		}
		if urlname != "" {
			authorID = urlname
			p := "https://note.com/" + urlname
			profileURL = &p
		} else if n.User.ID.String() != "" {
			authorID = n.User.ID.String()
		}
		if n.User.UserProfileImagePath != "" {
			avatarURL = &n.User.UserProfileImagePath
		}
	}

	var thumbnail *string
	if n.Eyecatch != "" {
		thumbnail = &n.Eyecatch
	}

	tags := make([]string, 0, len(n.Hashtags))
	for _, h := range n.Hashtags {
		if h.Name != "" {
			tags = append(tags, h.Name)
		}
	}

	return domain.Collected{
		Article: domain.Article{
			ExternalID:       n.ID.String(),
			Title:            title,
			URL:              articleURL,
			Description:      &description,
			ThumbnailURL:     thumbnail,
			LikesCount:       n.LikeCount,
			CommentsCount:    n.CommentCount,
			TrendScore:       trend.ScoreAt(n.LikeCount, 0, n.CommentCount, publishedAt, now),
			AuthorName:       authorName,
			AuthorID:         authorID,
			AuthorProfileURL: profileURL,
			AuthorAvatarURL:  avatarURL,
			PublishedAt:      publishedAt,
		},
		TagNames: tags,
	}
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
