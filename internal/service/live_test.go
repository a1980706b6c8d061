package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"techtrends/internal/domain"
	"techtrends/internal/source"
)

func liveItem(url string, likes, score int, age time.Duration, tags ...string) domain.Collected {
	return domain.Collected{
		Article: domain.Article{
			Title:       "title " + url,
			URL:         url,
			LikesCount:  likes,
			TrendScore:  score,
			PublishedAt: time.Now().Add(-age),
		},
		TagNames: tags,
	}
}

func newLiveService(t *testing.T, sources ...source.Source) *LiveService {
	t.Helper()
	catalog := []domain.MediaSource{
		{ID: 1, Name: "qiita", DisplayName: "Qiita", IsActive: true},
		{ID: 2, Name: "zenn", DisplayName: "Zenn", IsActive: true},
	}
	return NewLiveService(sources, catalog, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestLiveFailingSourceContributesNothing(t *testing.T) {
	qiita := &stubSource{name: "qiita", items: []domain.Collected{
		liveItem("https://qiita.com/1", 10, 20, time.Hour),
		liveItem("https://qiita.com/2", 5, 10, time.Hour),
		liveItem("https://qiita.com/3", 1, 2, time.Hour),
	}}
	zenn := &stubSource{name: "zenn", err: &domain.UpstreamError{Source: "zenn", StatusCode: 500}}

	svc := newLiveService(t, qiita, zenn)
	page, err := svc.GetLiveArticles(context.Background(), domain.ArticleFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Len(t, page.Articles, 3)
}

func TestLiveAllSourcesFailing(t *testing.T) {
	qiita := &stubSource{name: "qiita", err: &domain.UpstreamError{Source: "qiita", StatusCode: 500}}
	zenn := &stubSource{name: "zenn", err: &domain.UpstreamError{Source: "zenn", StatusCode: 503}}

	svc := newLiveService(t, qiita, zenn)
	_, err := svc.GetLiveArticles(context.Background(), domain.ArticleFilter{})
	require.Error(t, err)
}

func TestLiveSortAndPagination(t *testing.T) {
	items := make([]domain.Collected, 0, 15)
	for i := 0; i < 15; i++ {
		items = append(items, liveItem(
			"https://zenn.dev/a/"+string(rune('a'+i)), i, i, time.Hour))
	}
	zenn := &stubSource{name: "zenn", items: items}

	svc := newLiveService(t, zenn)
	page, err := svc.GetLiveArticles(context.Background(), domain.ArticleFilter{
		Sort: domain.SortLikes, Page: 2, Limit: 12,
	})
	require.NoError(t, err)
	assert.Equal(t, 15, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Articles, 3)
	// Page 2 holds the tail of the descending likes order.
	assert.Equal(t, 2, page.Articles[0].LikesCount)
	assert.Equal(t, 0, page.Articles[2].LikesCount)
}

func TestLiveFilters(t *testing.T) {
	qiita := &stubSource{name: "qiita", items: []domain.Collected{
		liveItem("https://qiita.com/old", 1, 1, 40*24*time.Hour, "go"),
		liveItem("https://qiita.com/new", 2, 2, time.Hour, "go"),
		liveItem("https://qiita.com/other", 3, 3, time.Hour, "rust"),
	}}
	zenn := &stubSource{name: "zenn", items: []domain.Collected{
		liveItem("https://zenn.dev/new", 4, 4, time.Hour, "go"),
	}}
	svc := newLiveService(t, qiita, zenn)

	t.Run("period", func(t *testing.T) {
		page, err := svc.GetLiveArticles(context.Background(), domain.ArticleFilter{Period: domain.PeriodWeek})
		require.NoError(t, err)
		assert.Equal(t, 3, page.Total)
	})

	t.Run("period defaults to three days", func(t *testing.T) {
		page, err := svc.GetLiveArticles(context.Background(), domain.ArticleFilter{})
		require.NoError(t, err)
		assert.Equal(t, 3, page.Total, "the 40-day-old article drops out")
	})

	t.Run("tag", func(t *testing.T) {
		page, err := svc.GetLiveArticles(context.Background(), domain.ArticleFilter{TagNames: []string{"rust"}})
		require.NoError(t, err)
		require.Equal(t, 1, page.Total)
		assert.Equal(t, "https://qiita.com/other", page.Articles[0].URL)
	})

	t.Run("tag match is case-insensitive", func(t *testing.T) {
		page, err := svc.GetLiveArticles(context.Background(), domain.ArticleFilter{
			Period: domain.PeriodAll, TagNames: []string{"GO"},
		})
		require.NoError(t, err)
		assert.Equal(t, 3, page.Total)
	})

	t.Run("media", func(t *testing.T) {
		page, err := svc.GetLiveArticles(context.Background(), domain.ArticleFilter{MediaNames: []string{"zenn"}})
		require.NoError(t, err)
		require.Equal(t, 1, page.Total)
		assert.Equal(t, "zenn", page.Articles[0].MediaSource.Name)
	})

	t.Run("search is case-insensitive", func(t *testing.T) {
		page, err := svc.GetLiveArticles(context.Background(), domain.ArticleFilter{Search: "TITLE HTTPS://ZENN"})
		require.NoError(t, err)
		assert.Equal(t, 1, page.Total)
	})
}

func TestLiveInactiveSourceNotFetched(t *testing.T) {
	qiita := &stubSource{name: "qiita", items: []domain.Collected{
		liveItem("https://qiita.com/1", 1, 1, time.Hour),
	}}
	zenn := &stubSource{name: "zenn", items: []domain.Collected{
		liveItem("https://zenn.dev/a/1", 2, 2, time.Hour),
	}}
	catalog := []domain.MediaSource{
		{ID: 1, Name: "qiita", DisplayName: "Qiita", IsActive: true},
		{ID: 2, Name: "zenn", DisplayName: "Zenn", IsActive: false},
	}
	svc := NewLiveService([]source.Source{qiita, zenn}, catalog, slog.New(slog.NewTextHandler(io.Discard, nil)))

	page, err := svc.GetLiveArticles(context.Background(), domain.ArticleFilter{})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, "https://qiita.com/1", page.Articles[0].URL)
	assert.Zero(t, zenn.fetches.Load(), "inactive sources are never contacted")
}

func TestLiveMediaFilterSkipsFetch(t *testing.T) {
	qiita := &stubSource{name: "qiita", items: []domain.Collected{
		liveItem("https://qiita.com/1", 1, 1, time.Hour),
	}}
	zenn := &stubSource{name: "zenn", items: []domain.Collected{
		liveItem("https://zenn.dev/a/1", 2, 2, time.Hour),
	}}
	svc := newLiveService(t, qiita, zenn)

	page, err := svc.GetLiveArticles(context.Background(), domain.ArticleFilter{MediaNames: []string{"qiita"}})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, "qiita", page.Articles[0].MediaSource.Name)
	assert.Zero(t, zenn.fetches.Load(), "filtered-out sources are never contacted")
}
