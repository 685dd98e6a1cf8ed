package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/lumenresearch/newsroom/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS posts (
	id           TEXT PRIMARY KEY,
	slug         TEXT NOT NULL UNIQUE,
	title        TEXT NOT NULL,
	excerpt      TEXT NOT NULL,
	content      TEXT NOT NULL,
	category     TEXT NOT NULL,
	author       TEXT NOT NULL,
	published_at TIMESTAMPTZ NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL,
	featured     BOOLEAN NOT NULL DEFAULT FALSE,
	image_url    TEXT,
	tags         TEXT[] NOT NULL DEFAULT '{}',
	status       TEXT NOT NULL DEFAULT 'draft',
	position     BIGSERIAL
);

CREATE TABLE IF NOT EXISTS activity_logs (
	id         BIGSERIAL PRIMARY KEY,
	action     TEXT NOT NULL,
	post_id    TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

const selectColumns = `id, slug, title, excerpt, content, category, author,
	published_at, updated_at, featured, image_url, tags, status`

// PostgresStore is a Store backed by Postgres. Every write runs in a
// transaction together with an activity log entry.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a store on an open lib/pq connection pool
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// OpenPostgres opens and pings a connection pool for the given DSN
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// EnsureSchema creates the posts and activity_logs tables if missing
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// List returns all posts in insertion order
func (s *PostgresStore) List(ctx context.Context) ([]models.Post, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM posts ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate posts: %w", err)
	}

	return posts, nil
}

// Insert creates a new post and logs the activity in a transaction
func (s *PostgresStore) Insert(ctx context.Context, post models.Post) error {
	return s.withTx(ctx, "new_post", post.ID, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO posts (id, slug, title, excerpt, content, category, author,
				published_at, updated_at, featured, image_url, tags, status)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			post.ID, post.Slug, post.Title, post.Excerpt, post.Content, post.Category, post.Author,
			post.PublishedAt, post.UpdatedAt, post.Featured, nullString(post.ImageURL),
			pq.Array(tagsOrEmpty(post.Tags)), string(post.Status),
		)
		if err != nil {
			return fmt.Errorf("failed to insert post: %w", err)
		}
		return nil
	})
}

// Update replaces an existing post
func (s *PostgresStore) Update(ctx context.Context, post models.Post) error {
	return s.withTx(ctx, "update_post", post.ID, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE posts SET slug = $2, title = $3, excerpt = $4, content = $5, category = $6,
				author = $7, published_at = $8, updated_at = $9, featured = $10,
				image_url = $11, tags = $12, status = $13
			 WHERE id = $1`,
			post.ID, post.Slug, post.Title, post.Excerpt, post.Content, post.Category, post.Author,
			post.PublishedAt, post.UpdatedAt, post.Featured, nullString(post.ImageURL),
			pq.Array(tagsOrEmpty(post.Tags)), string(post.Status),
		)
		if err != nil {
			return fmt.Errorf("failed to update post: %w", err)
		}
		return expectOneRow(result)
	})
}

// Delete removes a post
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	return s.withTx(ctx, "delete_post", id, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete post: %w", err)
		}
		return expectOneRow(result)
	})
}

func (s *PostgresStore) withTx(ctx context.Context, action, postID string, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO activity_logs (action, post_id) VALUES ($1, $2)`,
		action, postID,
	); err != nil {
		return fmt.Errorf("failed to insert activity log: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (models.Post, error) {
	var (
		post     models.Post
		imageURL sql.NullString
		tags     pq.StringArray
		status   string
	)

	err := row.Scan(&post.ID, &post.Slug, &post.Title, &post.Excerpt, &post.Content,
		&post.Category, &post.Author, &post.PublishedAt, &post.UpdatedAt, &post.Featured,
		&imageURL, &tags, &status)
	if err != nil {
		return models.Post{}, fmt.Errorf("failed to scan post: %w", err)
	}

	post.ImageURL = imageURL.String
	post.Tags = []string(tags)
	if post.Tags == nil {
		post.Tags = []string{}
	}
	post.Status = models.Status(status)
	post.Format = models.FormatMarkdown

	return post, nil
}

func expectOneRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// tagsOrEmpty keeps nil slices from being written as NULL
func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
