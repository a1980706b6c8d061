package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"techtrends/internal/domain"
)

type TagStore struct {
	db *sqlx.DB
}

func NewTagStore(db *sqlx.DB) *TagStore {
	return &TagStore{db: db}
}

// UpsertBySlug inserts the tag keyed by its slug and returns the id of
// the existing row on conflict. The slug is derived from the name, so
// two raw names that normalize identically share one tag row.
func (s *TagStore) UpsertBySlug(ctx context.Context, tag *domain.Tag) (int64, error) {
	exec := GetExecutor(ctx, s.db)

	var id int64
	err := exec.QueryRowxContext(ctx, `
		INSERT INTO tags (name, display_name, slug)
		VALUES ($1, $2, $3)
		ON CONFLICT (slug) DO NOTHING
		RETURNING id`,
		tag.Name, tag.DisplayName, tag.Slug,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	// Conflict path: DO NOTHING returns no row, fetch the survivor.
	err = sqlx.GetContext(ctx, exec, &id,
		"SELECT id FROM tags WHERE slug = $1", tag.Slug)
	if err != nil {
		return 0, fmt.Errorf("resolve tag %q: %w", tag.Slug, err)
	}
	return id, nil
}

func (s *TagStore) LinkArticle(ctx context.Context, articleID, tagID int64) error {
	exec := GetExecutor(ctx, s.db)

	_, err := exec.ExecContext(ctx, `
		INSERT INTO article_tags (article_id, tag_id)
		VALUES ($1, $2)
		ON CONFLICT (article_id, tag_id) DO NOTHING`,
		articleID, tagID,
	)
	return err
}

// ArticleIDsByNames returns the ids of articles linked to any of the
// given tag names. An empty result means no article carries the tags.
func (s *TagStore) ArticleIDsByNames(ctx context.Context, names []string) ([]int64, error) {
	if len(names) == 0 {
		return nil, nil
	}

	var ids []int64
	err := s.db.SelectContext(ctx, &ids, `
		SELECT DISTINCT at.article_id
		FROM article_tags at
		INNER JOIN tags t ON t.id = at.tag_id
		WHERE t.name = ANY($1)`,
		pq.Array(names),
	)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// GetByArticleIDs resolves the tags of a whole article page in one
// query, grouped by article id.
func (s *TagStore) GetByArticleIDs(ctx context.Context, articleIDs []int64) (map[int64][]domain.Tag, error) {
	if len(articleIDs) == 0 {
		return map[int64][]domain.Tag{}, nil
	}

	type taggedRow struct {
		ArticleID int64 `db:"article_id"`
		domain.Tag
	}

	var rows []taggedRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT at.article_id, t.id, t.name, t.display_name, t.slug,
		       t.color, t.icon_url, t.created_at, t.updated_at
		FROM article_tags at
		INNER JOIN tags t ON t.id = at.tag_id
		WHERE at.article_id = ANY($1)
		ORDER BY at.article_id, t.name`,
		pq.Array(articleIDs),
	)
	if err != nil {
		return nil, err
	}

	byArticle := make(map[int64][]domain.Tag, len(articleIDs))
	for _, r := range rows {
		byArticle[r.ArticleID] = append(byArticle[r.ArticleID], r.Tag)
	}
	return byArticle, nil
}

// ListWithCounts returns tags ordered by how many articles carry them.
func (s *TagStore) ListWithCounts(ctx context.Context, limit int) ([]domain.Tag, error) {
	query := `
		SELECT t.id, t.name, t.display_name, t.slug, t.color, t.icon_url,
		       COUNT(at.article_id) AS article_count,
		       t.created_at, t.updated_at
		FROM tags t
		LEFT JOIN article_tags at ON at.tag_id = t.id
		GROUP BY t.id
		ORDER BY article_count DESC, t.name ASC`

	var args []interface{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	var tags []domain.Tag
	if err := s.db.SelectContext(ctx, &tags, query, args...); err != nil {
		return nil, err
	}
	return tags, nil
}
