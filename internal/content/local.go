package content

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/lumenresearch/newsroom/internal/logging"
	"github.com/lumenresearch/newsroom/internal/models"
	"github.com/lumenresearch/newsroom/internal/repository"
)

// LocalSource serves reads and all writes from the local durable store.
type LocalSource struct {
	store  repository.Store
	logger logging.Logger
	now    func() time.Time
	newID  func() string
}

// Option customises a LocalSource.
type Option func(*LocalSource)

// WithClock overrides the time source used for publishedAt/updatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *LocalSource) { s.now = now }
}

// WithIDGenerator overrides how fresh post ids are produced.
func WithIDGenerator(fn func() string) Option {
	return func(s *LocalSource) { s.newID = fn }
}

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) Option {
	return func(s *LocalSource) { s.logger = logger }
}

// NewLocalSource creates a LocalSource over store.
func NewLocalSource(store repository.Store, opts ...Option) *LocalSource {
	s := &LocalSource{
		store:  store,
		logger: logging.NoOp(),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AllPosts returns every post in storage order, drafts included.
func (s *LocalSource) AllPosts(ctx context.Context) ([]models.Post, error) {
	return s.store.List(ctx)
}

// PostByID returns the post with the given id regardless of status.
func (s *LocalSource) PostByID(ctx context.Context, id string) (*models.Post, error) {
	posts, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		if posts[i].ID == id {
			return &posts[i], nil
		}
	}
	return nil, ErrNotFound
}

// PublishedPosts returns published posts, newest publishedAt first.
func (s *LocalSource) PublishedPosts(ctx context.Context) ([]models.Post, error) {
	posts, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	published := models.Published(posts)
	SortNewestFirst(published)
	return published, nil
}

// LatestPosts returns the first limit published posts.
func (s *LocalSource) LatestPosts(ctx context.Context, limit int) ([]models.Post, error) {
	posts, err := s.PublishedPosts(ctx)
	if err != nil {
		return nil, err
	}
	return take(posts, limit), nil
}

// FeaturedPosts returns up to limit featured published posts.
func (s *LocalSource) FeaturedPosts(ctx context.Context, limit int) ([]models.Post, error) {
	posts, err := s.PublishedPosts(ctx)
	if err != nil {
		return nil, err
	}
	return take(filter(posts, func(p models.Post) bool { return p.Featured }), limit), nil
}

// PostBySlug returns the published post with the given slug.
func (s *LocalSource) PostBySlug(ctx context.Context, slug string) (*models.Post, error) {
	posts, err := s.PublishedPosts(ctx)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		if posts[i].Slug == slug {
			return &posts[i], nil
		}
	}
	return nil, ErrNotFound
}

// PostsByCategory returns published posts whose category matches exactly.
func (s *LocalSource) PostsByCategory(ctx context.Context, category string) ([]models.Post, error) {
	posts, err := s.PublishedPosts(ctx)
	if err != nil {
		return nil, err
	}
	return filter(posts, func(p models.Post) bool { return p.Category == category }), nil
}

// Slugs returns the slug of every published post.
func (s *LocalSource) Slugs(ctx context.Context) ([]string, error) {
	posts, err := s.PublishedPosts(ctx)
	if err != nil {
		return nil, err
	}
	slugs := make([]string, 0, len(posts))
	for _, p := range posts {
		slugs = append(slugs, p.Slug)
	}
	return slugs, nil
}

// Tags returns the sorted, de-duplicated tags of all published posts.
func (s *LocalSource) Tags(ctx context.Context) ([]string, error) {
	posts, err := s.PublishedPosts(ctx)
	if err != nil {
		return nil, err
	}
	var tags []string
	for _, p := range posts {
		tags = append(tags, p.Tags...)
	}
	return SortedTags(tags), nil
}

// SearchPosts does a case-insensitive substring match over published posts.
func (s *LocalSource) SearchPosts(ctx context.Context, query string) ([]models.Post, error) {
	posts, err := s.PublishedPosts(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []models.Post{}, nil
	}
	return filter(posts, func(p models.Post) bool {
		return strings.Contains(strings.ToLower(p.Title), q) ||
			strings.Contains(strings.ToLower(p.Excerpt), q) ||
			strings.Contains(strings.ToLower(p.Content), q)
	}), nil
}

// CreatePost validates input, assigns an id and a unique slug, and persists the post.
func (s *LocalSource) CreatePost(ctx context.Context, input models.PostInput) (*models.Post, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	posts, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	post := models.Post{
		ID:          s.newID(),
		Slug:        UniqueSlug(DeriveSlug(input.Title), slugTaken(posts, "")),
		Title:       input.Title,
		Excerpt:     input.Excerpt,
		Content:     input.Content,
		Category:    input.Category,
		Author:      input.Author,
		PublishedAt: now,
		UpdatedAt:   now,
		Featured:    input.Featured != nil && *input.Featured,
		ImageURL:    input.ImageURL,
		Tags:        models.NormalizeTags(input.Tags),
		Status:      input.Status,
		Format:      models.FormatMarkdown,
	}
	if post.Status == "" {
		post.Status = models.StatusDraft
	}

	if err := s.store.Insert(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	s.logger.Info("post created", "id", post.ID, "slug", post.Slug, "status", post.Status)
	return &post, nil
}

// UpdatePost merges patch over the stored post and refreshes updatedAt.
// A changed title re-derives the slug, ignoring the post's own current slug.
func (s *LocalSource) UpdatePost(ctx context.Context, id string, patch models.PostPatch) (*models.Post, error) {
	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	posts, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range posts {
		if posts[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, ErrNotFound
	}

	existing := posts[idx]
	updated := applyPatch(existing, patch)
	updated.UpdatedAt = s.now()

	if patch.Title != nil && *patch.Title != existing.Title {
		updated.Slug = UniqueSlug(DeriveSlug(*patch.Title), slugTaken(posts, id))
	}

	if err := s.store.Update(ctx, updated); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update post: %w", err)
	}

	s.logger.Info("post updated", "id", updated.ID, "slug", updated.Slug)
	return &updated, nil
}

// DeletePost removes the post with the given id.
func (s *LocalSource) DeletePost(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete post: %w", err)
	}

	s.logger.Info("post deleted", "id", id)
	return nil
}

func applyPatch(post models.Post, patch models.PostPatch) models.Post {
	if patch.Title != nil {
		post.Title = *patch.Title
	}
	if patch.Excerpt != nil {
		post.Excerpt = *patch.Excerpt
	}
	if patch.Content != nil {
		post.Content = *patch.Content
	}
	if patch.Category != nil {
		post.Category = *patch.Category
	}
	if patch.Author != nil {
		post.Author = *patch.Author
	}
	if patch.Featured != nil {
		post.Featured = *patch.Featured
	}
	if patch.ImageURL != nil {
		post.ImageURL = *patch.ImageURL
	}
	if patch.Tags != nil {
		post.Tags = models.NormalizeTags(*patch.Tags)
	}
	if patch.Status != nil {
		post.Status = *patch.Status
	}
	return post
}

func validateInput(input models.PostInput) error {
	err := validation.ValidateStruct(&input,
		validation.Field(&input.Title, validation.Required),
		validation.Field(&input.Excerpt, validation.Required),
		validation.Field(&input.Content, validation.Required),
		validation.Field(&input.Category, validation.Required),
		validation.Field(&input.Author, validation.Required),
		validation.Field(&input.Status, validation.In(models.StatusDraft, models.StatusPublished)),
	)
	return wrapValidationError(err, "invalid post input")
}

func validatePatch(patch models.PostPatch) error {
	err := validation.ValidateStruct(&patch,
		validation.Field(&patch.Title, validation.NilOrNotEmpty),
		validation.Field(&patch.Excerpt, validation.NilOrNotEmpty),
		validation.Field(&patch.Content, validation.NilOrNotEmpty),
		validation.Field(&patch.Category, validation.NilOrNotEmpty),
		validation.Field(&patch.Author, validation.NilOrNotEmpty),
		validation.Field(&patch.Status, validation.NilOrNotEmpty, validation.In(models.StatusDraft, models.StatusPublished)),
	)
	return wrapValidationError(err, "invalid post update")
}

func slugTaken(posts []models.Post, exceptID string) func(string) bool {
	return func(slug string) bool {
		for _, p := range posts {
			if p.ID != exceptID && p.Slug == slug {
				return true
			}
		}
		return false
	}
}

// SortNewestFirst orders posts by publishedAt descending, keeping ties stable.
func SortNewestFirst(posts []models.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].PublishedAt.After(posts[j].PublishedAt)
	})
}

// SortedTags trims, de-duplicates and sorts tags lexicographically.
func SortedTags(tags []string) []string {
	out := models.NormalizeTags(tags)
	sort.Strings(out)
	return out
}

func take(posts []models.Post, limit int) []models.Post {
	if limit <= 0 {
		return []models.Post{}
	}
	if len(posts) > limit {
		return posts[:limit]
	}
	return posts
}

func filter(posts []models.Post, keep func(models.Post) bool) []models.Post {
	out := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}
