package models

import "time"

// Snapshot is the popular/recent pair returned by the fast ingestion path.
type Snapshot struct {
	Popular []string `json:"popular"`
	Recent  []string `json:"recent"`
}

// ScoredKeyword is a ranked-cache member with its accumulated score.
type ScoredKeyword struct {
	Keyword string  `json:"keyword"`
	Score   float64 `json:"score"`
}

// RankedSnapshot is a full dump of the ranked cache structures.
type RankedSnapshot struct {
	PopularWithScores []ScoredKeyword `json:"popular_with_scores"`
	Recent            []string        `json:"recent"`
	PopularCount      int64           `json:"popular_count"`
	RecentCount       int64           `json:"recent_count"`
}

// Statistics is a cheap health snapshot across both stores.
type Statistics struct {
	TotalKeywords     int64     `json:"total_keywords"`
	RankedCardinality int64     `json:"ranked_cardinality"`
	RecentCount       int64     `json:"recent_count"`
	LastUpdated       time.Time `json:"last_updated"`
}

// Comparison reports the same top-N query answered by both stores.
type Comparison struct {
	RankedResult     []string `json:"ranked_result"`
	DurableResult    []string `json:"durable_result"`
	RankedLatencyMs  float64  `json:"ranked_latency_ms"`
	DurableLatencyMs float64  `json:"durable_latency_ms"`
	SpeedupFactor    float64  `json:"speedup_factor"`
}
