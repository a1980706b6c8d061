package trend

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScoreAt(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		likes     int
		bookmarks int
		comments  int
		hoursAgo  float64
		want      int
	}{
		{"fresh article", 10, 5, 2, 0, 37},
		{"decayed below zero floors", 10, 5, 2, 400, 0},
		{"zero engagement zero age", 0, 0, 0, 0, 0},
		{"bookmarks weigh triple", 0, 10, 0, 0, 30},
		{"likes weigh double", 10, 0, 0, 0, 20},
		{"comments weigh single", 0, 0, 10, 0, 10},
		{"one day decay", 10, 5, 2, 24, 35}, // 37 - 2.4 = 34.6 -> 35
		{"rounds half up", 0, 0, 5, 5, 5},   // 5 - 0.5 = 4.5 -> 5
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			publishedAt := now.Add(-time.Duration(tt.hoursAgo * float64(time.Hour)))
			got := ScoreAt(tt.likes, tt.bookmarks, tt.comments, publishedAt, now)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFeedScoreAt(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 100, FeedScoreAt(now, now))
	assert.Equal(t, 88, FeedScoreAt(now.Add(-24*time.Hour), now))
	assert.Equal(t, 0, FeedScoreAt(now.Add(-300*time.Hour), now))
	// floor, not round
	assert.Equal(t, 99, FeedScoreAt(now.Add(-90*time.Minute), now))
}
