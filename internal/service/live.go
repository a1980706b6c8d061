package service

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"techtrends/internal/domain"
	"techtrends/internal/source"
)

// LiveService answers article queries by fetching from the upstream
// APIs on demand instead of reading the store. It filters, sorts and
// pages entirely in memory, so it carries no persistence dependency and
// no idempotency guarantee; articles are identified by url only.
//
// Only the adapters handed to the constructor can serve live requests.
// The wired set currently covers qiita and zenn; note and hatena
// articles appear in live results once their adapters are passed in.
type LiveService struct {
	sources []source.Source
	catalog map[string]domain.MediaSource
	logger  *slog.Logger
}

func NewLiveService(sources []source.Source, catalog []domain.MediaSource, logger *slog.Logger) *LiveService {
	byName := make(map[string]domain.MediaSource, len(catalog))
	for _, m := range catalog {
		byName[m.Name] = m
	}
	return &LiveService{
		sources: sources,
		catalog: byName,
		logger:  logger,
	}
}

// GetLiveArticles fetches from each active, filter-selected source
// concurrently and assembles one page. Inactive and filtered-out
// sources are never contacted. A failing source is logged and
// contributes nothing; the call errors only when every selected source
// failed. The period defaults to the last three days, not to all time:
// the upstreams only serve recent pages anyway.
func (s *LiveService) GetLiveArticles(ctx context.Context, filter domain.ArticleFilter) (*domain.LivePage, error) {
	if filter.Period == "" {
		filter.Period = domain.PeriodThreeDay
	}
	filter.Normalize()

	selected := s.selectSources(filter.MediaNames)

	type result struct {
		items []domain.Collected
		name  string
		err   error
	}
	results := make([]result, len(selected))

	var wg sync.WaitGroup
	for i, src := range selected {
		wg.Add(1)
		go func(i int, src source.Source) {
			defer wg.Done()
			items, err := src.FetchArticles(ctx)
			results[i] = result{items: items, name: src.Name(), err: err}
		}(i, src)
	}
	wg.Wait()

	var (
		articles []domain.LiveArticle
		failures int
		lastErr  error
	)
	for _, r := range results {
		if r.err != nil {
			s.logger.Warn("live fetch failed", "source", r.name, "error", r.err)
			failures++
			lastErr = r.err
			continue
		}
		media := s.catalog[r.name]
		for _, item := range r.items {
			item.MediaSourceID = media.ID
			articles = append(articles, domain.LiveArticle{
				Article:     item.Article,
				MediaSource: media,
				TagNames:    item.TagNames,
			})
		}
	}
	if failures == len(selected) && failures > 0 {
		return nil, lastErr
	}

	articles = filterLive(articles, filter, time.Now())
	sortLive(articles, filter.Sort)

	total := len(articles)
	page := &domain.LivePage{
		Articles:   pageSlice(articles, filter),
		Total:      total,
		TotalPages: domain.PageCount(total, filter.Limit),
	}
	return page, nil
}

// selectSources narrows the adapter set to sources that are active in
// the catalog and, when a media filter is present, named by it. An
// adapter without a catalog entry counts as inactive.
func (s *LiveService) selectSources(mediaNames []string) []source.Source {
	var wanted map[string]struct{}
	if len(mediaNames) > 0 {
		wanted = make(map[string]struct{}, len(mediaNames))
		for _, n := range mediaNames {
			wanted[n] = struct{}{}
		}
	}

	selected := make([]source.Source, 0, len(s.sources))
	for _, src := range s.sources {
		media, ok := s.catalog[src.Name()]
		if !ok || !media.IsActive {
			continue
		}
		if wanted != nil {
			if _, ok := wanted[src.Name()]; !ok {
				continue
			}
		}
		selected = append(selected, src)
	}
	return selected
}

// filterLive applies the in-memory filters. Media selection already
// happened before the fetch, so only period, search and tags remain.
func filterLive(articles []domain.LiveArticle, f domain.ArticleFilter, now time.Time) []domain.LiveArticle {
	var tagSet map[string]struct{}
	if len(f.TagNames) > 0 {
		tagSet = make(map[string]struct{}, len(f.TagNames))
		for _, n := range f.TagNames {
			tagSet[strings.ToLower(n)] = struct{}{}
		}
	}

	start := f.Period.Start(now)
	search := strings.ToLower(f.Search)

	filtered := articles[:0]
	for _, a := range articles {
		if start != nil && a.PublishedAt.Before(*start) {
			continue
		}
		if search != "" && !matchesSearch(a, search) {
			continue
		}
		if tagSet != nil && !hasAnyTag(a.TagNames, tagSet) {
			continue
		}
		filtered = append(filtered, a)
	}
	return filtered
}

func matchesSearch(a domain.LiveArticle, search string) bool {
	if strings.Contains(strings.ToLower(a.Title), search) {
		return true
	}
	if a.Description != nil && strings.Contains(strings.ToLower(*a.Description), search) {
		return true
	}
	return false
}

// hasAnyTag matches raw tag names case-insensitively; the live path has
// no slug normalization to lean on.
func hasAnyTag(tagNames []string, tagSet map[string]struct{}) bool {
	for _, t := range tagNames {
		if _, ok := tagSet[strings.ToLower(t)]; ok {
			return true
		}
	}
	return false
}

func sortLive(articles []domain.LiveArticle, key domain.SortKey) {
	sort.SliceStable(articles, func(i, j int) bool {
		switch key {
		case domain.SortLikes:
			return articles[i].LikesCount > articles[j].LikesCount
		case domain.SortBookmarks:
			return articles[i].BookmarksCount > articles[j].BookmarksCount
		case domain.SortLatest:
			return articles[i].PublishedAt.After(articles[j].PublishedAt)
		default:
			return articles[i].TrendScore > articles[j].TrendScore
		}
	})
}

func pageSlice(articles []domain.LiveArticle, f domain.ArticleFilter) []domain.LiveArticle {
	start := f.Offset()
	if start >= len(articles) {
		return []domain.LiveArticle{}
	}
	end := start + f.Limit
	if end > len(articles) {
		end = len(articles)
	}
	return articles[start:end]
}
