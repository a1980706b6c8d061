package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"techtrends/internal/domain"
)

const uniqueViolation = "23505"

type FavoriteStore struct {
	db *sqlx.DB
}

func NewFavoriteStore(db *sqlx.DB) *FavoriteStore {
	return &FavoriteStore{db: db}
}

// Add stores a favorite keyed by (user, article url). Favoriting the
// same article twice surfaces as ErrAlreadyExists.
func (s *FavoriteStore) Add(ctx context.Context, fav *domain.Favorite) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO favorites (user_id, article_url, article_title, media_source_name)
		VALUES ($1, $2, $3, $4)`,
		fav.UserID, fav.ArticleURL, fav.ArticleTitle, fav.MediaSourceName,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return domain.ErrAlreadyExists
	}
	return err
}

func (s *FavoriteStore) Remove(ctx context.Context, userID, articleURL string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM favorites WHERE user_id = $1 AND article_url = $2",
		userID, articleURL,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByUser pages through a user's favorites, newest first.
func (s *FavoriteStore) ListByUser(ctx context.Context, userID string, page, limit int) ([]domain.Favorite, int, error) {
	var total int
	err := s.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM favorites WHERE user_id = $1", userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return nil, 0, nil
	}

	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit

	var favorites []domain.Favorite
	err = s.db.SelectContext(ctx, &favorites, `
		SELECT * FROM favorites
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	return favorites, total, nil
}

func (s *FavoriteStore) IsFavorited(ctx context.Context, userID, articleURL string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS (SELECT 1 FROM favorites WHERE user_id = $1 AND article_url = $2)",
		userID, articleURL,
	)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, err
	}
	return exists, nil
}

// CheckMany reports which of the given urls the user has favorited, in
// one query.
func (s *FavoriteStore) CheckMany(ctx context.Context, userID string, articleURLs []string) (map[string]bool, error) {
	result := make(map[string]bool, len(articleURLs))
	for _, u := range articleURLs {
		result[u] = false
	}
	if len(articleURLs) == 0 {
		return result, nil
	}

	var favorited []string
	err := s.db.SelectContext(ctx, &favorited, `
		SELECT article_url FROM favorites
		WHERE user_id = $1 AND article_url = ANY($2)`,
		userID, pq.Array(articleURLs),
	)
	if err != nil {
		return nil, err
	}
	for _, u := range favorited {
		result[u] = true
	}
	return result, nil
}
