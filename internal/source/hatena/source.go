package hatena

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"

	"techtrends/internal/domain"
	"techtrends/internal/trend"
)

const SourceName = "hatena"

type Config struct {
	FeedURLs []string
	Limit    int
	Timeout  time.Duration
}

// Source collects from a fixed list of engineering blog RSS feeds. The
// feeds carry no engagement counters, so recency alone drives the trend
// score and feed categories substitute for tags. Feeds are fetched in
// parallel and a dead feed is logged and skipped so it cannot void the
// rest of the batch.
type Source struct {
	feedURLs []string
	limit    int
	timeout  time.Duration
	logger   *slog.Logger
}

// hatenaIDPattern matches the "id:username" convention hatena authors
// embed in article bodies.
var hatenaIDPattern = regexp.MustCompile(`id:([a-zA-Z0-9_-]+)`)

// blogNames maps well-known feed hostnames to display names used when a
// feed entry carries no author.
var blogNames = map[string]string{
	"developer.hatenastaff.com": "Hatena Developer Blog",
	"devblog.thebase.in":        "BASE",
	"engineering.mercari.com":   "Mercari",
	"tech.smarthr.jp":           "SmartHR",
	"blog.cybozu.io":            "Cybozu",
	"tech.gunosy.io":            "Gunosy",
	"techlife.cookpad.com":      "Cookpad",
	"tech.pepabo.com":           "Pepabo",
}

func New(cfg Config, logger *slog.Logger) *Source {
	return &Source{
		feedURLs: cfg.FeedURLs,
		limit:    cfg.Limit,
		timeout:  cfg.Timeout,
		logger:   logger.With("source", SourceName),
	}
}

func (s *Source) Name() string {
	return SourceName
}

// FetchArticles fetches every configured feed concurrently, merges the
// entries, sorts newest first and truncates to the configured limit.
func (s *Source) FetchArticles(ctx context.Context) ([]domain.Collected, error) {
	fetchCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	type feedResult struct {
		items []*gofeed.Item
	}

	results := make([]feedResult, len(s.feedURLs))

	var wg sync.WaitGroup
	for i, feedURL := range s.feedURLs {
		wg.Add(1)
		go func(i int, feedURL string) {
			defer wg.Done()

			parser := gofeed.NewParser()
			feed, err := parser.ParseURLWithContext(feedURL, fetchCtx)
			if err != nil {
				s.logger.Warn("feed fetch failed", "feed", feedURL, "error", err)
				return
			}
			results[i] = feedResult{items: feed.Items}
		}(i, feedURL)
	}
	wg.Wait()

	var items []*gofeed.Item
	for _, r := range results {
		items = append(items, r.items...)
	}

	if err := ctx.Err(); err != nil && len(items) == 0 {
		return nil, err
	}

	sort.SliceStable(items, func(i, j int) bool {
		return publishedTime(items[i]).After(publishedTime(items[j]))
	})

	if s.limit > 0 && len(items) > s.limit {
		items = items[:s.limit]
	}

	now := time.Now()
	collected := make([]domain.Collected, 0, len(items))
	for _, item := range items {
		if item.Link == "" || item.Title == "" {
			continue
		}
		collected = append(collected, mapItem(item, now))
	}

	s.logger.Debug("fetched feed entries", "count", len(collected), "feeds", len(s.feedURLs))

	return collected, nil
}

// mapItem converts one feed entry to the common article shape. The
// external id is derived from the last URL path segment, which is
// stable per entry.
func mapItem(item *gofeed.Item, now time.Time) domain.Collected {
	publishedAt := publishedTime(item)
	if publishedAt.IsZero() {
		publishedAt = now
	}

	body := item.Content
	if body == "" {
		body = item.Description
	}

	description := item.Description
	if description == "" {
		description = body
	}

	authorName := extractAuthorName(item, body)
	blogURL := extractBlogURL(item.Link)

	var thumbnail *string
	if item.Image != nil && item.Image.URL != "" {
		thumbnail = &item.Image.URL
	}

	var bodyPtr, descPtr *string
	if body != "" {
		bodyPtr = &body
	}
	if description != "" {
		descPtr = &description
	}

	var profileURL *string
	if blogURL != "" {
		profileURL = &blogURL
	}

	authorID := blogURL
	if authorID == "" {
		authorID = authorName
	}

	return domain.Collected{
		Article: domain.Article{
			ExternalID:       idFromURL(item.Link),
			Title:            item.Title,
			URL:              item.Link,
			Description:      descPtr,
			Body:             bodyPtr,
			ThumbnailURL:     thumbnail,
			TrendScore:       trend.FeedScoreAt(publishedAt, now),
			AuthorName:       authorName,
			AuthorID:         authorID,
			AuthorProfileURL: profileURL,
			PublishedAt:      publishedAt,
		},
		TagNames: item.Categories,
	}
}

func publishedTime(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed
	}
	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed
	}
	return time.Time{}
}

// idFromURL uses the last path segment of the entry URL as a stable
// external id.
func idFromURL(link string) string {
	parts := strings.Split(strings.TrimRight(link, "/"), "/")
	if len(parts) == 0 || parts[len(parts)-1] == "" {
		return link
	}
	return parts[len(parts)-1]
}

func extractBlogURL(link string) string {
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return ""
	}
	return fmt.Sprintf("%s://%s", u.Scheme, u.Host)
}

// extractAuthorName prefers the feed's author field, then the id:xxx
// convention in the body, then the known-blog hostname mapping.
func extractAuthorName(item *gofeed.Item, body string) string {
	if item.Author != nil && item.Author.Name != "" {
		return item.Author.Name
	}
	if len(item.Authors) > 0 && item.Authors[0].Name != "" {
		return item.Authors[0].Name
	}

	if m := hatenaIDPattern.FindStringSubmatch(body); len(m) == 2 {
		return m[1]
	}

	u, err := url.Parse(item.Link)
	if err == nil {
		if name, ok := blogNames[u.Hostname()]; ok {
			return name
		}
		if u.Hostname() != "" {
			return u.Hostname()
		}
	}

	return "Unknown"
}
