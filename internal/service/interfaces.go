package service

import (
	"context"

	"techtrends/internal/domain"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

type ArticleStore interface {
	Upsert(ctx context.Context, article *domain.Article) (int64, error)
	GetByURL(ctx context.Context, url string) (*domain.Article, error)
	GetByID(ctx context.Context, id int64) (*domain.Article, error)
	Query(ctx context.Context, filter domain.ArticleFilter) ([]domain.Article, int, error)
}

type TagStore interface {
	UpsertBySlug(ctx context.Context, tag *domain.Tag) (int64, error)
	LinkArticle(ctx context.Context, articleID, tagID int64) error
	ArticleIDsByNames(ctx context.Context, names []string) ([]int64, error)
	GetByArticleIDs(ctx context.Context, articleIDs []int64) (map[int64][]domain.Tag, error)
	ListWithCounts(ctx context.Context, limit int) ([]domain.Tag, error)
}

type MediaSourceStore interface {
	ListActive(ctx context.Context) ([]domain.MediaSource, error)
	GetByIDs(ctx context.Context, ids []int64) (map[int64]domain.MediaSource, error)
}

type CrawlLogStore interface {
	Insert(ctx context.Context, log *domain.CrawlLog) error
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Publisher emits article change events to downstream consumers. The
// collector treats it as optional and non-fatal.
type Publisher interface {
	PublishArticle(ctx context.Context, action string, article *domain.Article) error
}
