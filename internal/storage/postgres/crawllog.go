package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"techtrends/internal/domain"
)

type CrawlLogStore struct {
	db *sqlx.DB
}

func NewCrawlLogStore(db *sqlx.DB) *CrawlLogStore {
	return &CrawlLogStore{db: db}
}

// Insert appends one crawl record. The table is append-only: every
// collection cycle writes one row per source, success or failure.
func (s *CrawlLogStore) Insert(ctx context.Context, log *domain.CrawlLog) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO crawl_logs (
			media_source_id, status, articles_collected, error_message,
			started_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6)`,
		log.MediaSourceID,
		log.Status,
		log.ArticlesCollected,
		log.ErrorMessage,
		log.StartedAt,
		log.CompletedAt,
	)
	return err
}

// ListRecent returns the newest crawl records, most recent first.
func (s *CrawlLogStore) ListRecent(ctx context.Context, limit int) ([]domain.CrawlLog, error) {
	var logs []domain.CrawlLog
	err := s.db.SelectContext(ctx, &logs,
		"SELECT * FROM crawl_logs ORDER BY started_at DESC LIMIT $1", limit)
	if err != nil {
		return nil, err
	}
	return logs, nil
}
