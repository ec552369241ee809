package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"searchrank/internal/models"
)

// keywordColumns is the standard column list for keyword queries.
const keywordColumns = `id, keyword, search_count, first_searched_at, last_searched_at, created_at, updated_at`

// scanKeyword scans a row into a KeywordRecord.
func scanKeyword(row pgx.Row) (*models.KeywordRecord, error) {
	var k models.KeywordRecord
	err := row.Scan(
		&k.ID,
		&k.Keyword,
		&k.SearchCount,
		&k.FirstSearchedAt,
		&k.LastSearchedAt,
		&k.CreatedAt,
		&k.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrKeywordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &k, nil
}

// scanKeywords scans multiple rows into a slice of KeywordRecords.
func scanKeywords(rows pgx.Rows) ([]models.KeywordRecord, error) {
	defer rows.Close()

	var records []models.KeywordRecord
	for rows.Next() {
		var k models.KeywordRecord
		if err := rows.Scan(
			&k.ID,
			&k.Keyword,
			&k.SearchCount,
			&k.FirstSearchedAt,
			&k.LastSearchedAt,
			&k.CreatedAt,
			&k.UpdatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, k)
	}

	return records, rows.Err()
}

// GetKeyword returns the record for a single keyword.
func (d *DB) GetKeyword(ctx context.Context, keyword string) (*models.KeywordRecord, error) {
	row := d.Pool.QueryRow(ctx, `SELECT `+keywordColumns+` FROM search_keywords WHERE keyword = $1`, keyword)
	return scanKeyword(row)
}

// FindByKeywords returns the existing records for the given keywords.
// Keywords without a row are simply absent from the result.
func (d *DB) FindByKeywords(ctx context.Context, keywords []string) ([]models.KeywordRecord, error) {
	if len(keywords) == 0 {
		return nil, nil
	}
	rows, err := d.Pool.Query(ctx, `
		SELECT `+keywordColumns+`
		FROM search_keywords
		WHERE keyword = ANY($1)
	`, keywords)
	if err != nil {
		return nil, fmt.Errorf("failed to find keywords: %w", err)
	}
	return scanKeywords(rows)
}

// FindByPrefix returns keywords starting with prefix, most searched first.
func (d *DB) FindByPrefix(ctx context.Context, prefix string, limit int) ([]models.KeywordRecord, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := d.Pool.Query(ctx, `
		SELECT `+keywordColumns+`
		FROM search_keywords
		WHERE keyword LIKE $1 ESCAPE '\'
		ORDER BY search_count DESC, keyword ASC
		LIMIT $2
	`, escapeLike(prefix)+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find keywords by prefix: %w", err)
	}
	return scanKeywords(rows)
}

// FindTopByCount returns the n most searched keywords.
func (d *DB) FindTopByCount(ctx context.Context, n int) ([]models.KeywordRecord, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := d.Pool.Query(ctx, `
		SELECT `+keywordColumns+`
		FROM search_keywords
		ORDER BY search_count DESC, keyword ASC
		LIMIT $1
	`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to find top keywords: %w", err)
	}
	return scanKeywords(rows)
}

// FindTopByRecency returns the n most recently searched keywords.
func (d *DB) FindTopByRecency(ctx context.Context, n int) ([]models.KeywordRecord, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := d.Pool.Query(ctx, `
		SELECT `+keywordColumns+`
		FROM search_keywords
		ORDER BY last_searched_at DESC NULLS LAST, keyword ASC
		LIMIT $1
	`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to find recent keywords: %w", err)
	}
	return scanKeywords(rows)
}

// UpsertAll writes the given records in one transaction. Counts and
// timestamps are stored as given; callers compute the merged values.
func (d *DB) UpsertAll(ctx context.Context, records []models.KeywordRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := d.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(`
			INSERT INTO search_keywords (keyword, search_count, first_searched_at, last_searched_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (keyword) DO UPDATE
			SET search_count = EXCLUDED.search_count,
				first_searched_at = EXCLUDED.first_searched_at,
				last_searched_at = EXCLUDED.last_searched_at,
				updated_at = NOW()
		`, r.Keyword, r.SearchCount, r.FirstSearchedAt, r.LastSearchedAt)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to upsert keywords: %w", err)
	}

	return tx.Commit(ctx)
}

// Count returns the number of keyword rows.
func (d *DB) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := d.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM search_keywords`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count keywords: %w", err)
	}
	return n, nil
}

// escapeLike escapes LIKE metacharacters so prefix is matched literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
