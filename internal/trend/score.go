// Package trend computes the recency-decayed engagement score used to
// rank articles.
package trend

import (
	"math"
	"time"
)

// ScoreAt computes likes*2 + bookmarks*3 + comments - 0.1 per hour since
// publication, floored at zero and rounded to the nearest integer.
// Bookmarks outweigh likes because they signal durable value; the linear
// decay demotes stale content without a cliff.
func ScoreAt(likes, bookmarks, comments int, publishedAt, now time.Time) int {
	hours := now.Sub(publishedAt).Hours()
	s := float64(likes)*2 + float64(bookmarks)*3 + float64(comments) - hours*0.1
	if s < 0 {
		return 0
	}
	return int(math.Round(s))
}

// Score is ScoreAt against the current time.
func Score(likes, bookmarks, comments int, publishedAt time.Time) int {
	return ScoreAt(likes, bookmarks, comments, publishedAt, time.Now())
}

// FeedScoreAt scores sources that expose no engagement counters at all
// (RSS feeds): recency alone, 100 minus half a point per hour, floored
// at zero.
func FeedScoreAt(publishedAt, now time.Time) int {
	s := 100 - now.Sub(publishedAt).Hours()*0.5
	if s < 0 {
		return 0
	}
	return int(math.Floor(s))
}

// FeedScore is FeedScoreAt against the current time.
func FeedScore(publishedAt time.Time) int {
	return FeedScoreAt(publishedAt, time.Now())
}
