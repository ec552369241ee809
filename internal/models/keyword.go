package models

import (
	"time"

	"github.com/google/uuid"
)

// KeywordRecord is the durable per-keyword counter row.
type KeywordRecord struct {
	ID              uuid.UUID  `json:"id"`
	Keyword         string     `json:"keyword"`
	SearchCount     int64      `json:"search_count"`
	FirstSearchedAt *time.Time `json:"first_searched_at"`
	LastSearchedAt  *time.Time `json:"last_searched_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// NewKeywordRecord builds a record for a keyword seen count times.
// Both timestamps default to now unless at is given.
func NewKeywordRecord(keyword string, count int64, at ...time.Time) KeywordRecord {
	ts := time.Now()
	if len(at) > 0 {
		ts = at[0]
	}
	first, last := ts, ts
	return KeywordRecord{
		Keyword:         keyword,
		SearchCount:     count,
		FirstSearchedAt: &first,
		LastSearchedAt:  &last,
	}
}

// Keywords extracts the keyword column, preserving order.
func Keywords(records []KeywordRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Keyword)
	}
	return out
}
