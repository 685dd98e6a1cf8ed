package content

import (
	"context"

	"github.com/lumenresearch/newsroom/internal/logging"
	"github.com/lumenresearch/newsroom/internal/models"
)

// Source is a read-only provider of published posts.
type Source interface {
	PublishedPosts(ctx context.Context) ([]models.Post, error)
	LatestPosts(ctx context.Context, limit int) ([]models.Post, error)
	FeaturedPosts(ctx context.Context, limit int) ([]models.Post, error)
	PostBySlug(ctx context.Context, slug string) (*models.Post, error)
	PostsByCategory(ctx context.Context, category string) ([]models.Post, error)
	Slugs(ctx context.Context) ([]string, error)
	Tags(ctx context.Context) ([]string, error)
}

var _ Source = (*LocalSource)(nil)

// Resolver answers read requests from the remote source when one is
// configured and from the local store otherwise. Any remote error,
// including an unknown slug, falls through to the local store; local
// errors are returned as-is.
type Resolver struct {
	remote Source
	local  *LocalSource
	logger logging.Logger
}

// NewResolver composes the sources. remote may be nil, which disables it
// for the lifetime of the resolver.
func NewResolver(remote Source, local *LocalSource, logger logging.Logger) *Resolver {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &Resolver{remote: remote, local: local, logger: logger}
}

// RemoteEnabled reports whether reads try the remote source first.
func (r *Resolver) RemoteEnabled() bool {
	return r.remote != nil
}

// Local returns the local source backing the resolver.
func (r *Resolver) Local() *LocalSource {
	return r.local
}

// resolve tries the remote source and falls back to the local one.
// fields describe the read in the fallback log entry.
func resolve[T any](r *Resolver, fields map[string]any, fromRemote func(Source) (T, error), fromLocal func(*LocalSource) (T, error)) (T, error) {
	if r.remote != nil {
		v, err := fromRemote(r.remote)
		if err == nil {
			return v, nil
		}
		logging.With(r.logger, fields).Debug("remote source unavailable, using local store", "err", err)
	}
	return fromLocal(r.local)
}

func op(name string) map[string]any {
	return map[string]any{"op": name}
}

// PublishedPosts returns all published posts, newest first.
func (r *Resolver) PublishedPosts(ctx context.Context) ([]models.Post, error) {
	remote := func(s Source) ([]models.Post, error) {
		posts, err := s.PublishedPosts(ctx)
		if err != nil {
			return nil, err
		}
		return publishedNewestFirst(posts), nil
	}
	local := func(s *LocalSource) ([]models.Post, error) { return s.PublishedPosts(ctx) }
	return resolve(r, op("published_posts"), remote, local)
}

// LatestPosts returns the limit newest published posts.
func (r *Resolver) LatestPosts(ctx context.Context, limit int) ([]models.Post, error) {
	if limit <= 0 {
		return []models.Post{}, nil
	}
	remote := func(s Source) ([]models.Post, error) {
		posts, err := s.LatestPosts(ctx, limit)
		if err != nil {
			return nil, err
		}
		return take(publishedNewestFirst(posts), limit), nil
	}
	local := func(s *LocalSource) ([]models.Post, error) { return s.LatestPosts(ctx, limit) }
	return resolve(r, op("latest_posts"), remote, local)
}

// FeaturedPosts returns up to limit featured published posts, newest first.
func (r *Resolver) FeaturedPosts(ctx context.Context, limit int) ([]models.Post, error) {
	if limit <= 0 {
		return []models.Post{}, nil
	}
	remote := func(s Source) ([]models.Post, error) {
		posts, err := s.FeaturedPosts(ctx, limit)
		if err != nil {
			return nil, err
		}
		featured := filter(publishedNewestFirst(posts), func(p models.Post) bool { return p.Featured })
		return take(featured, limit), nil
	}
	local := func(s *LocalSource) ([]models.Post, error) { return s.FeaturedPosts(ctx, limit) }
	return resolve(r, op("featured_posts"), remote, local)
}

// PostBySlug returns the published post with the given slug or ErrNotFound.
func (r *Resolver) PostBySlug(ctx context.Context, slug string) (*models.Post, error) {
	remote := func(s Source) (*models.Post, error) {
		post, err := s.PostBySlug(ctx, slug)
		if err != nil {
			return nil, err
		}
		if post == nil || !post.IsPublished() || post.Slug != slug {
			return nil, ErrNotFound
		}
		return post, nil
	}
	local := func(s *LocalSource) (*models.Post, error) { return s.PostBySlug(ctx, slug) }
	return resolve(r, map[string]any{"op": "post_by_slug", "slug": slug}, remote, local)
}

// PostsByCategory returns published posts in the category, newest first.
func (r *Resolver) PostsByCategory(ctx context.Context, category string) ([]models.Post, error) {
	remote := func(s Source) ([]models.Post, error) {
		posts, err := s.PostsByCategory(ctx, category)
		if err != nil {
			return nil, err
		}
		return publishedNewestFirst(posts), nil
	}
	local := func(s *LocalSource) ([]models.Post, error) { return s.PostsByCategory(ctx, category) }
	return resolve(r, map[string]any{"op": "posts_by_category", "category": category}, remote, local)
}

// Slugs returns the slugs of all published posts.
func (r *Resolver) Slugs(ctx context.Context) ([]string, error) {
	remote := func(s Source) ([]string, error) { return s.Slugs(ctx) }
	local := func(s *LocalSource) ([]string, error) { return s.Slugs(ctx) }
	return resolve(r, op("slugs"), remote, local)
}

// Tags returns the sorted, de-duplicated tag list.
func (r *Resolver) Tags(ctx context.Context) ([]string, error) {
	remote := func(s Source) ([]string, error) {
		tags, err := s.Tags(ctx)
		if err != nil {
			return nil, err
		}
		return SortedTags(tags), nil
	}
	local := func(s *LocalSource) ([]string, error) { return s.Tags(ctx) }
	return resolve(r, op("tags"), remote, local)
}

// RelatedPosts returns up to limit published posts sharing post's
// category, excluding post itself.
func (r *Resolver) RelatedPosts(ctx context.Context, post models.Post, limit int) ([]models.Post, error) {
	posts, err := r.PublishedPosts(ctx)
	if err != nil {
		return nil, err
	}
	related := filter(posts, func(p models.Post) bool {
		return p.ID != post.ID && p.Category == post.Category
	})
	return take(related, limit), nil
}

func publishedNewestFirst(posts []models.Post) []models.Post {
	published := models.Published(posts)
	SortNewestFirst(published)
	return published
}
