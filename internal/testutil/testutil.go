// Package testutil provides test utilities and helpers.
package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"searchrank/internal/db"
	"searchrank/internal/models"
)

// TestDB creates a test database connection and returns a cleanup function.
// Skips the test unless TEST_DATABASE_URL is set.
func TestDB(t *testing.T) (*db.DB, func()) {
	t.Helper()

	connString := os.Getenv("TEST_DATABASE_URL")
	if connString == "" {
		t.Skip("Skipping integration test: TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	database, err := db.New(ctx, connString)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	if err := database.RunMigrations(connString); err != nil {
		database.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	database.Pool.Exec(ctx, "DELETE FROM search_keywords")

	cleanup := func() {
		database.Pool.Exec(ctx, "DELETE FROM search_keywords")
		database.Close()
	}

	return database, cleanup
}

// Redis starts an in-process Redis server and returns it with a connected
// client. Both are closed when the test ends.
func Redis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return mr, client
}

// SeedKeywords stores records with the given counts in store.
func SeedKeywords(t *testing.T, store interface {
	UpsertAll(ctx context.Context, records []models.KeywordRecord) error
}, counts map[string]int64) {
	t.Helper()

	records := make([]models.KeywordRecord, 0, len(counts))
	for k, n := range counts {
		records = append(records, models.NewKeywordRecord(k, n))
	}
	if err := store.UpsertAll(context.Background(), records); err != nil {
		t.Fatalf("failed to seed keywords: %v", err)
	}
}
