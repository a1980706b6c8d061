package domain

import "time"

// MediaSource is one upstream content platform. Seeded at startup;
// is_active gates both collection and querying.
type MediaSource struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	DisplayName string    `db:"display_name" json:"display_name"`
	BaseURL     string    `db:"base_url" json:"base_url"`
	APIEndpoint *string   `db:"api_endpoint" json:"api_endpoint"`
	IconURL     *string   `db:"icon_url" json:"icon_url"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Article is the normalized form every source adapter maps into.
// URL is globally unique and is the idempotency key for upserts.
type Article struct {
	ID               int64     `db:"id" json:"id"`
	ExternalID       string    `db:"external_id" json:"external_id"`
	MediaSourceID    int64     `db:"media_source_id" json:"media_source_id"`
	Title            string    `db:"title" json:"title"`
	URL              string    `db:"url" json:"url"`
	Description      *string   `db:"description" json:"description"`
	Body             *string   `db:"body" json:"body"`
	ThumbnailURL     *string   `db:"thumbnail_url" json:"thumbnail_url"`
	LikesCount       int       `db:"likes_count" json:"likes_count"`
	BookmarksCount   int       `db:"bookmarks_count" json:"bookmarks_count"`
	CommentsCount    int       `db:"comments_count" json:"comments_count"`
	ViewsCount       int       `db:"views_count" json:"views_count"`
	TrendScore       int       `db:"trend_score" json:"trend_score"`
	AuthorName       string    `db:"author_name" json:"author_name"`
	AuthorID         string    `db:"author_id" json:"author_id"`
	AuthorProfileURL *string   `db:"author_profile_url" json:"author_profile_url"`
	AuthorAvatarURL  *string   `db:"author_avatar_url" json:"author_avatar_url"`
	PublishedAt      time.Time `db:"published_at" json:"published_at"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// Collected is what an adapter emits: the mapped article plus the raw
// tag names extracted from the upstream payload. MediaSourceID is
// stamped by the collector, not the adapter.
type Collected struct {
	Article
	TagNames []string
}

type Tag struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	DisplayName  string    `db:"display_name" json:"display_name"`
	Slug         string    `db:"slug" json:"slug"`
	Color        *string   `db:"color" json:"color"`
	IconURL      *string   `db:"icon_url" json:"icon_url"`
	ArticleCount int       `db:"article_count" json:"article_count"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ArticleWithTags is the query-side projection: an article joined with
// its media source and resolved tags.
type ArticleWithTags struct {
	Article
	MediaSource MediaSource `json:"media_source"`
	Tags        []Tag       `json:"tags"`
}

// LiveArticle is the store-less variant of ArticleWithTags: identified
// by URL only, tags are the raw names straight from the adapter.
type LiveArticle struct {
	Article
	MediaSource MediaSource `json:"media_source"`
	TagNames    []string    `json:"tags"`
}

// Favorite associates a user with an article URL. The (user, url) pair
// is unique; the URL key survives articles that were never persisted.
type Favorite struct {
	ID              int64     `db:"id"`
	UserID          string    `db:"user_id"`
	ArticleURL      string    `db:"article_url"`
	ArticleTitle    *string   `db:"article_title"`
	MediaSourceName *string   `db:"media_source_name"`
	CreatedAt       time.Time `db:"created_at"`
}
