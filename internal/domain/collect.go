package domain

import "time"

// CrawlStatus classifies the outcome of one collection run for one source.
type CrawlStatus string

const (
	CrawlSuccess CrawlStatus = "success"
	CrawlFailed  CrawlStatus = "failed"
	CrawlPartial CrawlStatus = "partial"
)

// CrawlLog is the audit record appended once per source per collection
// cycle. Never mutated after insert.
type CrawlLog struct {
	ID                int64       `db:"id"`
	MediaSourceID     int64       `db:"media_source_id"`
	Status            CrawlStatus `db:"status"`
	ArticlesCollected int         `db:"articles_collected"`
	ErrorMessage      *string     `db:"error_message"`
	StartedAt         time.Time   `db:"started_at"`
	CompletedAt       *time.Time  `db:"completed_at"`
	CreatedAt         time.Time   `db:"created_at"`
}

// SourceSummary is the per-source entry in a collection cycle's result.
type SourceSummary struct {
	Source    string      `json:"source"`
	Status    CrawlStatus `json:"status"`
	Collected int         `json:"collected"`
	Error     string      `json:"error,omitempty"`
}
