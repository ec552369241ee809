package search

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"searchrank/internal/models"
	"searchrank/internal/validation"
)

// persist merges increments into the durable store: read the existing rows,
// add the deltas in memory, write everything back.
//
// The read and the write are not atomic. Two writers merging the same
// keyword concurrently can both read count N and both write N+delta, losing
// one increment. This is accepted; removing it needs an atomic increment in
// the store or an optimistic retry, either of which changes the store
// contract.
func (s *Service) persist(ctx context.Context, increments map[string]int64, now time.Time) error {
	if len(increments) == 0 {
		return nil
	}

	keywords := slices.Sorted(maps.Keys(increments))
	existing, err := s.store.FindByKeywords(ctx, keywords)
	if err != nil {
		return fmt.Errorf("load keywords: %w", err)
	}

	if err := s.store.UpsertAll(ctx, mergeIncrements(existing, increments, now)); err != nil {
		return fmt.Errorf("save keywords: %w", err)
	}
	return nil
}

// mergeIncrements applies increments to existing records, creating records
// for keywords not seen before. Output is ordered by keyword.
func mergeIncrements(existing []models.KeywordRecord, increments map[string]int64, now time.Time) []models.KeywordRecord {
	byKeyword := make(map[string]models.KeywordRecord, len(existing))
	for _, r := range existing {
		byKeyword[r.Keyword] = r
	}

	out := make([]models.KeywordRecord, 0, len(increments))
	for _, keyword := range slices.Sorted(maps.Keys(increments)) {
		delta := increments[keyword]

		r, ok := byKeyword[keyword]
		if !ok {
			out = append(out, models.NewKeywordRecord(keyword, delta, now))
			continue
		}

		last := now
		r.SearchCount += delta
		r.LastSearchedAt = &last
		if r.FirstSearchedAt == nil {
			first := now
			r.FirstSearchedAt = &first
		}
		out = append(out, r)
	}
	return out
}

func normalizeKeyword(keyword string) (string, error) {
	k := validation.NormalizeKeyword(keyword)
	if !validation.ValidateKeyword(k) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKeyword, keyword)
	}
	return k, nil
}

// normalizeBatch validates a batch and returns normalized copies of it.
// Keywords that normalize to the same value have their increments summed.
func normalizeBatch(increments map[string]int64, recent []string) (map[string]int64, []string, error) {
	inc := make(map[string]int64, len(increments))
	for keyword, delta := range increments {
		k, err := normalizeKeyword(keyword)
		if err != nil {
			return nil, nil, err
		}
		if delta < 1 {
			return nil, nil, fmt.Errorf("%w: %q has %d", ErrInvalidIncrement, k, delta)
		}
		inc[k] += delta
	}

	rec := make([]string, 0, len(recent))
	for _, keyword := range recent {
		k, err := normalizeKeyword(keyword)
		if err != nil {
			return nil, nil, err
		}
		rec = append(rec, k)
	}
	return inc, rec, nil
}
