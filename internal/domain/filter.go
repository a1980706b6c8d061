package domain

import (
	"math"
	"time"
)

// Period restricts results to articles published within a fixed window.
type Period string

const (
	PeriodDay      Period = "day"
	PeriodThreeDay Period = "3days"
	PeriodWeek     Period = "week"
	PeriodMonth    Period = "month"
	PeriodAll      Period = "all"
)

// Start returns the lower bound of the window, or nil for "all" and
// unrecognized values.
func (p Period) Start(now time.Time) *time.Time {
	var d time.Duration
	switch p {
	case PeriodDay:
		d = 24 * time.Hour
	case PeriodThreeDay:
		d = 3 * 24 * time.Hour
	case PeriodWeek:
		d = 7 * 24 * time.Hour
	case PeriodMonth:
		d = 30 * 24 * time.Hour
	default:
		return nil
	}
	t := now.Add(-d)
	return &t
}

// SortKey selects the descending order applied to article listings.
type SortKey string

const (
	SortTrend     SortKey = "trend"
	SortLikes     SortKey = "likes"
	SortBookmarks SortKey = "bookmarks"
	SortLatest    SortKey = "latest"
)

const (
	DefaultPage  = 1
	DefaultLimit = 12
)

// ArticleFilter is the common filter set for both the persisted and the
// live query paths. Empty slices mean "no restriction" for that
// dimension; inactive media sources are always excluded.
type ArticleFilter struct {
	MediaNames []string
	Period     Period
	TagNames   []string
	Search     string
	Sort       SortKey
	Page       int
	Limit      int

	// ArticleIDs is filled by the query service after tag resolution;
	// callers leave it empty.
	ArticleIDs []int64
}

// Normalize fills defaults for zero values.
func (f *ArticleFilter) Normalize() {
	if f.Page < 1 {
		f.Page = DefaultPage
	}
	if f.Limit < 1 {
		f.Limit = DefaultLimit
	}
	if f.Period == "" {
		f.Period = PeriodAll
	}
	if f.Sort == "" {
		f.Sort = SortTrend
	}
}

// Offset returns the row offset for the current page.
func (f ArticleFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// ArticlePage is one page of a filtered listing.
type ArticlePage struct {
	Articles   []ArticleWithTags `json:"articles"`
	Total      int               `json:"total"`
	TotalPages int               `json:"total_pages"`
}

// LivePage mirrors ArticlePage for the store-less variant.
type LivePage struct {
	Articles   []LiveArticle `json:"articles"`
	Total      int           `json:"total"`
	TotalPages int           `json:"total_pages"`
}

// PageCount returns ceil(total/limit); zero totals yield zero pages.
func PageCount(total, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(limit)))
}
