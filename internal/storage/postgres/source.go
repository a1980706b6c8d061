package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"techtrends/internal/domain"
)

type MediaSourceStore struct {
	db *sqlx.DB
}

func NewMediaSourceStore(db *sqlx.DB) *MediaSourceStore {
	return &MediaSourceStore{db: db}
}

func (s *MediaSourceStore) ListActive(ctx context.Context) ([]domain.MediaSource, error) {
	var sources []domain.MediaSource
	err := s.db.SelectContext(ctx, &sources,
		"SELECT * FROM media_sources WHERE is_active = TRUE ORDER BY id")
	if err != nil {
		return nil, err
	}
	return sources, nil
}

func (s *MediaSourceStore) GetByIDs(ctx context.Context, ids []int64) (map[int64]domain.MediaSource, error) {
	if len(ids) == 0 {
		return map[int64]domain.MediaSource{}, nil
	}

	var sources []domain.MediaSource
	err := s.db.SelectContext(ctx, &sources,
		"SELECT * FROM media_sources WHERE id = ANY($1)", pq.Array(ids))
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]domain.MediaSource, len(sources))
	for _, m := range sources {
		byID[m.ID] = m
	}
	return byID, nil
}

// Seed registers the configured source catalog. Existing rows keep
// their state so an operator toggling is_active is not overwritten on
// restart.
func (s *MediaSourceStore) Seed(ctx context.Context, sources []domain.MediaSource) error {
	for _, m := range sources {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO media_sources (name, display_name, base_url, is_active)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (name) DO NOTHING`,
			m.Name, m.DisplayName, m.BaseURL, m.IsActive,
		)
		if err != nil {
			return err
		}
	}
	return nil
}
