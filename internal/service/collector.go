package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"techtrends/internal/domain"
	"techtrends/internal/source"
	"techtrends/internal/tagslug"
)

const (
	actionCreate = "create"
	actionUpdate = "update"
)

// Collector runs one collection cycle over every active media source.
// Sources run concurrently and fail independently: a dead upstream
// produces a failed crawl log and an error entry in the summary, never
// an aborted cycle.
type Collector struct {
	sources   []source.Source
	media     MediaSourceStore
	articles  ArticleStore
	tags      TagStore
	crawlLogs CrawlLogStore
	txManager TransactionManager
	publisher Publisher
	logger    *slog.Logger
}

func NewCollector(
	sources []source.Source,
	media MediaSourceStore,
	articles ArticleStore,
	tags TagStore,
	crawlLogs CrawlLogStore,
	txManager TransactionManager,
	publisher Publisher,
	logger *slog.Logger,
) *Collector {
	return &Collector{
		sources:   sources,
		media:     media,
		articles:  articles,
		tags:      tags,
		crawlLogs: crawlLogs,
		txManager: txManager,
		publisher: publisher,
		logger:    logger,
	}
}

// Collect fetches and stores articles from every active source that has
// a registered adapter. It returns one summary per collected source;
// the only error condition is failing to load the source catalog.
func (c *Collector) Collect(ctx context.Context) ([]domain.SourceSummary, error) {
	active, err := c.media.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active media sources: %w", err)
	}

	byName := make(map[string]source.Source, len(c.sources))
	for _, s := range c.sources {
		byName[s.Name()] = s
	}

	type pair struct {
		media domain.MediaSource
		src   source.Source
	}
	var pairs []pair
	for _, m := range active {
		src, ok := byName[m.Name]
		if !ok {
			c.logger.Debug("no adapter registered for source", "source", m.Name)
			continue
		}
		pairs = append(pairs, pair{media: m, src: src})
	}

	summaries := make([]domain.SourceSummary, len(pairs))
	var wg sync.WaitGroup
	for i, p := range pairs {
		wg.Add(1)
		go func(i int, p pair) {
			defer wg.Done()
			summaries[i] = c.collectSource(ctx, p.media, p.src)
		}(i, p)
	}
	wg.Wait()

	return summaries, nil
}

func (c *Collector) collectSource(ctx context.Context, media domain.MediaSource, src source.Source) domain.SourceSummary {
	logger := c.logger.With("source", media.Name)
	startedAt := time.Now()

	items, err := src.FetchArticles(ctx)
	if err != nil {
		logger.Error("collection failed", "error", err)
		c.writeCrawlLog(ctx, media.ID, domain.CrawlFailed, 0, err, startedAt)
		return domain.SourceSummary{
			Source: media.Name,
			Status: domain.CrawlFailed,
			Error:  err.Error(),
		}
	}

	stored, failed := 0, 0
	for _, item := range items {
		if err := c.storeItem(ctx, media, item); err != nil {
			logger.Warn("failed to store article", "url", item.URL, "error", err)
			failed++
			continue
		}
		stored++
	}

	status := domain.CrawlSuccess
	var cause error
	if failed > 0 {
		status = domain.CrawlPartial
		cause = fmt.Errorf("%d of %d articles failed to store", failed, len(items))
	}
	c.writeCrawlLog(ctx, media.ID, status, stored, cause, startedAt)

	logger.Info("collection completed", "collected", stored, "failed", failed)

	return domain.SourceSummary{
		Source:    media.Name,
		Status:    status,
		Collected: stored,
	}
}

// storeItem upserts one article with its tags in a single transaction.
// The url probe before the upsert decides whether the published event
// is a create or an update.
func (c *Collector) storeItem(ctx context.Context, media domain.MediaSource, item domain.Collected) error {
	item.MediaSourceID = media.ID

	var isNew bool
	err := c.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		_, err := c.articles.GetByURL(txCtx, item.URL)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			isNew = true
		case err != nil:
			return err
		}

		articleID, err := c.articles.Upsert(txCtx, &item.Article)
		if err != nil {
			return fmt.Errorf("upsert article: %w", err)
		}

		for _, name := range item.TagNames {
			slug := tagslug.Make(name)
			if slug == "" {
				continue
			}
			tagID, err := c.tags.UpsertBySlug(txCtx, &domain.Tag{
				Name:        name,
				DisplayName: name,
				Slug:        slug,
			})
			if err != nil {
				return fmt.Errorf("upsert tag %q: %w", name, err)
			}
			if err := c.tags.LinkArticle(txCtx, articleID, tagID); err != nil {
				return fmt.Errorf("link tag %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if c.publisher != nil {
		action := actionUpdate
		if isNew {
			action = actionCreate
		}
		if err := c.publisher.PublishArticle(ctx, action, &item.Article); err != nil {
			c.logger.Warn("failed to publish article event", "url", item.URL, "error", err)
		}
	}

	return nil
}

// writeCrawlLog records the source's cycle outcome. The insert runs
// detached from the cycle's cancellation: a timed-out cycle still needs
// its audit row, and the expired context would reject it.
func (c *Collector) writeCrawlLog(ctx context.Context, mediaSourceID int64, status domain.CrawlStatus, collected int, cause error, startedAt time.Time) {
	completedAt := time.Now()
	log := &domain.CrawlLog{
		MediaSourceID:     mediaSourceID,
		Status:            status,
		ArticlesCollected: collected,
		StartedAt:         startedAt,
		CompletedAt:       &completedAt,
	}
	if cause != nil {
		msg := cause.Error()
		log.ErrorMessage = &msg
	}

	if err := c.crawlLogs.Insert(context.WithoutCancel(ctx), log); err != nil {
		c.logger.Error("failed to write crawl log", "media_source_id", mediaSourceID, "error", err)
	}
}
