package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"techtrends/internal/domain"
)

type ArticleStore struct {
	db *sqlx.DB
}

func NewArticleStore(db *sqlx.DB) *ArticleStore {
	return &ArticleStore{db: db}
}

// Upsert inserts the article or, when the url already exists, updates
// only the mutable engagement fields, the trend score and updated_at.
// Author, body and published_at keep their first-collection values.
// The url unique constraint is the idempotency key; a conflict on it is
// the expected update trigger, not an error.
func (s *ArticleStore) Upsert(ctx context.Context, article *domain.Article) (int64, error) {
	query := `
		INSERT INTO articles (
			external_id, media_source_id, title, url, description, body,
			thumbnail_url, likes_count, bookmarks_count, comments_count,
			views_count, trend_score, author_name, author_id,
			author_profile_url, author_avatar_url, published_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17
		)
		ON CONFLICT (url) DO UPDATE SET
			likes_count = EXCLUDED.likes_count,
			bookmarks_count = EXCLUDED.bookmarks_count,
			comments_count = EXCLUDED.comments_count,
			views_count = EXCLUDED.views_count,
			trend_score = EXCLUDED.trend_score,
			updated_at = NOW()
		RETURNING id`

	exec := GetExecutor(ctx, s.db)

	var id int64
	err := exec.QueryRowxContext(ctx, query,
		article.ExternalID,
		article.MediaSourceID,
		article.Title,
		article.URL,
		article.Description,
		article.Body,
		article.ThumbnailURL,
		article.LikesCount,
		article.BookmarksCount,
		article.CommentsCount,
		article.ViewsCount,
		article.TrendScore,
		article.AuthorName,
		article.AuthorID,
		article.AuthorProfileURL,
		article.AuthorAvatarURL,
		article.PublishedAt,
	).Scan(&id)
	if err != nil {
		return 0, err
	}

	return id, nil
}

func (s *ArticleStore) GetByURL(ctx context.Context, url string) (*domain.Article, error) {
	exec := GetExecutor(ctx, s.db)

	var article domain.Article
	err := sqlx.GetContext(ctx, exec, &article,
		"SELECT * FROM articles WHERE url = $1", url)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &article, nil
}

func (s *ArticleStore) GetByID(ctx context.Context, id int64) (*domain.Article, error) {
	var article domain.Article
	err := s.db.GetContext(ctx, &article,
		"SELECT * FROM articles WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &article, nil
}

// Query runs one count query and one page query over the article ⋈
// media-source relation. Inactive sources are always excluded; the
// remaining dimensions are a single conjunctive condition set.
func (s *ArticleStore) Query(ctx context.Context, f domain.ArticleFilter) ([]domain.Article, int, error) {
	conds := []string{"m.is_active = TRUE"}
	var args []interface{}

	if len(f.MediaNames) > 0 {
		args = append(args, pq.Array(f.MediaNames))
		conds = append(conds, fmt.Sprintf("m.name = ANY($%d)", len(args)))
	}

	if start := f.Period.Start(time.Now()); start != nil {
		args = append(args, *start)
		conds = append(conds, fmt.Sprintf("a.published_at >= $%d", len(args)))
	}

	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(a.title ILIKE $%d OR a.description ILIKE $%d)", n, n))
	}

	if len(f.ArticleIDs) > 0 {
		args = append(args, pq.Array(f.ArticleIDs))
		conds = append(conds, fmt.Sprintf("a.id = ANY($%d)", len(args)))
	}

	where := strings.Join(conds, " AND ")
	from := "FROM articles a INNER JOIN media_sources m ON m.id = a.media_source_id"

	var total int
	countQuery := "SELECT COUNT(*) " + from + " WHERE " + where
	if err := s.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count articles: %w", err)
	}
	if total == 0 {
		return nil, 0, nil
	}

	args = append(args, f.Limit)
	limitPos := len(args)
	args = append(args, f.Offset())
	offsetPos := len(args)

	pageQuery := fmt.Sprintf(
		"SELECT a.* %s WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d",
		from, where, orderBy(f.Sort), limitPos, offsetPos,
	)

	var articles []domain.Article
	if err := s.db.SelectContext(ctx, &articles, pageQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("select articles: %w", err)
	}

	return articles, total, nil
}

func orderBy(sort domain.SortKey) string {
	switch sort {
	case domain.SortLikes:
		return "a.likes_count DESC, a.id DESC"
	case domain.SortBookmarks:
		return "a.bookmarks_count DESC, a.id DESC"
	case domain.SortLatest:
		return "a.published_at DESC, a.id DESC"
	default:
		return "a.trend_score DESC, a.id DESC"
	}
}
