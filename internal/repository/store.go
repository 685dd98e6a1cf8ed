package repository

import (
	"context"
	"errors"

	"github.com/lumenresearch/newsroom/internal/models"
)

// ErrNotFound is returned when a post id does not exist in the store
var ErrNotFound = errors.New("post not found")

// Store is the local durable store for posts
type Store interface {
	// List returns every post in storage order, drafts included.
	List(ctx context.Context) ([]models.Post, error)
	// Insert appends a new post.
	Insert(ctx context.Context, post models.Post) error
	// Update replaces the post with the same id.
	Update(ctx context.Context, post models.Post) error
	// Delete removes the post with the given id.
	Delete(ctx context.Context, id string) error
}
