package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"techtrends/internal/domain"
)

// QueryService serves read requests against the persisted article
// corpus.
type QueryService struct {
	articles ArticleStore
	tags     TagStore
	media    MediaSourceStore
	logger   *slog.Logger
}

func NewQueryService(articles ArticleStore, tags TagStore, media MediaSourceStore, logger *slog.Logger) *QueryService {
	return &QueryService{
		articles: articles,
		tags:     tags,
		media:    media,
		logger:   logger,
	}
}

// GetArticles returns one filtered, sorted page. Tag filters are
// resolved to an article-id allow-list first; when no article carries
// the requested tags the query short-circuits to an empty page without
// touching the articles table. Tags and media sources for the page are
// each resolved with a single batched query.
func (s *QueryService) GetArticles(ctx context.Context, filter domain.ArticleFilter) (*domain.ArticlePage, error) {
	filter.Normalize()

	if len(filter.TagNames) > 0 {
		ids, err := s.tags.ArticleIDsByNames(ctx, filter.TagNames)
		if err != nil {
			return nil, fmt.Errorf("resolve tag filter: %w", err)
		}
		if len(ids) == 0 {
			return &domain.ArticlePage{Articles: []domain.ArticleWithTags{}}, nil
		}
		filter.ArticleIDs = ids
	}

	articles, total, err := s.articles.Query(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}

	page := &domain.ArticlePage{
		Articles:   make([]domain.ArticleWithTags, 0, len(articles)),
		Total:      total,
		TotalPages: domain.PageCount(total, filter.Limit),
	}
	if len(articles) == 0 {
		return page, nil
	}

	articleIDs := make([]int64, 0, len(articles))
	mediaIDSet := make(map[int64]struct{})
	for _, a := range articles {
		articleIDs = append(articleIDs, a.ID)
		mediaIDSet[a.MediaSourceID] = struct{}{}
	}
	mediaIDs := make([]int64, 0, len(mediaIDSet))
	for id := range mediaIDSet {
		mediaIDs = append(mediaIDs, id)
	}

	tagsByArticle, err := s.tags.GetByArticleIDs(ctx, articleIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve article tags: %w", err)
	}
	mediaByID, err := s.media.GetByIDs(ctx, mediaIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve media sources: %w", err)
	}

	for _, a := range articles {
		page.Articles = append(page.Articles, domain.ArticleWithTags{
			Article:     a,
			MediaSource: mediaByID[a.MediaSourceID],
			Tags:        tagsByArticle[a.ID],
		})
	}

	return page, nil
}

// GetArticleByID returns one article with its media source and tags.
// An absent id yields nil, not an error.
func (s *QueryService) GetArticleByID(ctx context.Context, id int64) (*domain.ArticleWithTags, error) {
	article, err := s.articles.GetByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	tagsByArticle, err := s.tags.GetByArticleIDs(ctx, []int64{article.ID})
	if err != nil {
		return nil, fmt.Errorf("resolve article tags: %w", err)
	}
	mediaByID, err := s.media.GetByIDs(ctx, []int64{article.MediaSourceID})
	if err != nil {
		return nil, fmt.Errorf("resolve media source: %w", err)
	}

	return &domain.ArticleWithTags{
		Article:     *article,
		MediaSource: mediaByID[article.MediaSourceID],
		Tags:        tagsByArticle[article.ID],
	}, nil
}

// GetTags lists tags ordered by article count.
func (s *QueryService) GetTags(ctx context.Context, limit int) ([]domain.Tag, error) {
	return s.tags.ListWithCounts(ctx, limit)
}
