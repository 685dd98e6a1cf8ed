package repository

import (
	"context"
	"errors"
	"os"
	"testing"
)

// newTestPostgres connects to NEWSROOM_TEST_DSN and starts from empty tables.
func newTestPostgres(t *testing.T) *PostgresStore {
	t.Helper()
	dsn := os.Getenv("NEWSROOM_TEST_DSN")
	if dsn == "" {
		t.Skip("NEWSROOM_TEST_DSN not set")
	}

	ctx := context.Background()
	db, err := OpenPostgres(ctx, dsn)
	if err != nil {
		t.Fatalf("OpenPostgres: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store := NewPostgresStore(db)
	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	if _, err := db.ExecContext(ctx, `TRUNCATE posts, activity_logs`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return store
}

func TestPostgresStoreRoundTrip(t *testing.T) {
	store := newTestPostgres(t)
	ctx := context.Background()

	first := samplePost("1", "one")
	second := samplePost("2", "two")
	second.Tags = nil
	if err := store.Insert(ctx, first); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := store.Insert(ctx, second); err != nil {
		t.Fatalf("Insert(nil tags): %v", err)
	}

	posts, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(posts) != 2 || posts[0].ID != "1" || posts[1].ID != "2" {
		t.Fatalf("posts not in insertion order: %+v", posts)
	}
	if posts[1].Tags == nil || len(posts[1].Tags) != 0 {
		t.Fatalf("expected empty tags, got %#v", posts[1].Tags)
	}
	if !posts[0].PublishedAt.Equal(first.PublishedAt) {
		t.Fatalf("publishedAt = %v", posts[0].PublishedAt)
	}

	first.Title = "Changed"
	if err := store.Update(ctx, first); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := store.Delete(ctx, "2"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	posts, _ = store.List(ctx)
	if len(posts) != 1 || posts[0].Title != "Changed" {
		t.Fatalf("after update/delete: %+v", posts)
	}

	var logged int
	if err := store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM activity_logs`).Scan(&logged); err != nil {
		t.Fatalf("count activity: %v", err)
	}
	if logged != 4 {
		t.Fatalf("expected 4 activity rows, got %d", logged)
	}
}

func TestPostgresStoreNotFound(t *testing.T) {
	store := newTestPostgres(t)
	ctx := context.Background()

	if err := store.Update(ctx, samplePost("missing", "missing")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Update: expected ErrNotFound, got %v", err)
	}
	if err := store.Delete(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Delete: expected ErrNotFound, got %v", err)
	}
}
