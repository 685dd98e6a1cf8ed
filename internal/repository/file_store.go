package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/lumenresearch/newsroom/internal/models"
)

// FileStore keeps all posts in a single JSON array on disk.
// Every write rewrites the whole file; concurrent writers race and the last one wins.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by the JSON file at path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path
func (s *FileStore) Path() string {
	return s.path
}

// ensure creates the directory and an empty array file on first access
func (s *FileStore) ensure() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create content directory: %w", err)
	}

	if _, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) {
		return s.write([]models.Post{})
	} else if err != nil {
		return fmt.Errorf("failed to stat posts file: %w", err)
	}

	return nil
}

// List returns all posts in file order
func (s *FileStore) List(ctx context.Context) ([]models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.ensure(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read posts file: %w", err)
	}

	var posts []models.Post
	if err := json.Unmarshal(data, &posts); err != nil {
		return nil, fmt.Errorf("failed to parse posts file %s: %w", s.path, err)
	}
	if posts == nil {
		posts = []models.Post{}
	}

	return posts, nil
}

// Insert appends a post and persists the whole store
func (s *FileStore) Insert(ctx context.Context, post models.Post) error {
	posts, err := s.List(ctx)
	if err != nil {
		return err
	}

	return s.write(append(posts, post))
}

// Update replaces the post with the same id and persists the whole store
func (s *FileStore) Update(ctx context.Context, post models.Post) error {
	posts, err := s.List(ctx)
	if err != nil {
		return err
	}

	idx := indexOf(posts, post.ID)
	if idx == -1 {
		return ErrNotFound
	}
	posts[idx] = post

	return s.write(posts)
}

// Delete removes the post with the given id and persists the whole store
func (s *FileStore) Delete(ctx context.Context, id string) error {
	posts, err := s.List(ctx)
	if err != nil {
		return err
	}

	idx := indexOf(posts, id)
	if idx == -1 {
		return ErrNotFound
	}

	return s.write(append(posts[:idx], posts[idx+1:]...))
}

// write replaces the file atomically via a temp file in the same directory
func (s *FileStore) write(posts []models.Post) error {
	data, err := json.MarshalIndent(posts, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal posts: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".posts-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write posts: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace posts file: %w", err)
	}

	return nil
}

func indexOf(posts []models.Post, id string) int {
	for i, p := range posts {
		if p.ID == id {
			return i
		}
	}
	return -1
}
