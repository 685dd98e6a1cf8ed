package content

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/lumenresearch/newsroom/internal/models"
)

var errRemoteDown = errors.New("remote down")

// stubSource is a canned remote. A nil err with nil posts returns an empty set.
type stubSource struct {
	posts []models.Post
	tags  []string
	err   error
	calls int
}

func (s *stubSource) list() ([]models.Post, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return append([]models.Post(nil), s.posts...), nil
}

func (s *stubSource) PublishedPosts(context.Context) ([]models.Post, error) { return s.list() }

func (s *stubSource) LatestPosts(_ context.Context, limit int) ([]models.Post, error) {
	posts, err := s.list()
	if err != nil {
		return nil, err
	}
	return take(posts, limit), nil
}

func (s *stubSource) FeaturedPosts(context.Context, int) ([]models.Post, error) { return s.list() }

func (s *stubSource) PostBySlug(_ context.Context, slug string) (*models.Post, error) {
	posts, err := s.list()
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

func (s *stubSource) PostsByCategory(context.Context, string) ([]models.Post, error) {
	return s.list()
}

func (s *stubSource) Slugs(context.Context) ([]string, error) {
	posts, err := s.list()
	if err != nil {
		return nil, err
	}
	out := []string{}
	for _, p := range posts {
		out = append(out, p.Slug)
	}
	return out, nil
}

func (s *stubSource) Tags(context.Context) ([]string, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.tags, nil
}

func remotePost(id, slug string, day int, status models.Status, featured bool) models.Post {
	return models.Post{
		ID:          id,
		Slug:        slug,
		Title:       slug,
		Category:    "Research",
		PublishedAt: time.Date(2025, 2, day, 0, 0, 0, 0, time.UTC),
		Status:      status,
		Featured:    featured,
		Format:      models.FormatHTML,
	}
}

func TestResolverRemoteDisabledUsesLocal(t *testing.T) {
	local, _ := newTestLocal(t)
	ctx := context.Background()

	pub := input("Published one")
	pub.Status = models.StatusPublished
	mustCreate(t, local, pub)
	mustCreate(t, local, input("Draft one"))

	r := NewResolver(nil, local, nil)
	if r.RemoteEnabled() {
		t.Fatalf("remote should be disabled")
	}

	posts, err := r.PublishedPosts(ctx)
	if err != nil {
		t.Fatalf("PublishedPosts: %v", err)
	}
	if len(posts) != 1 || posts[0].Title != "Published one" {
		t.Fatalf("expected exactly the published post, got %v", titles(posts))
	}

	slugs, err := r.Slugs(ctx)
	if err != nil {
		t.Fatalf("Slugs: %v", err)
	}
	if !reflect.DeepEqual(slugs, []string{"published-one"}) {
		t.Fatalf("Slugs = %v", slugs)
	}
}

func TestResolverPrefersRemote(t *testing.T) {
	local, _ := newTestLocal(t)
	seedPublished(t, local)
	remote := &stubSource{posts: []models.Post{
		remotePost("1", "older", 1, models.StatusPublished, false),
		remotePost("2", "hidden", 3, models.StatusDraft, true),
		remotePost("3", "newer", 2, models.StatusPublished, true),
	}}
	r := NewResolver(remote, local, nil)
	ctx := context.Background()

	posts, err := r.PublishedPosts(ctx)
	if err != nil {
		t.Fatalf("PublishedPosts: %v", err)
	}
	if got := titles(posts); !reflect.DeepEqual(got, []string{"newer", "older"}) {
		t.Fatalf("remote results should be filtered and sorted, got %v", got)
	}

	featured, _ := r.FeaturedPosts(ctx, 3)
	if got := titles(featured); !reflect.DeepEqual(got, []string{"newer"}) {
		t.Fatalf("FeaturedPosts = %v", got)
	}

	if _, err := r.PostBySlug(ctx, "hidden"); !IsNotFound(err) {
		// the draft is rejected remotely and is unknown locally
		t.Fatalf("draft reachable by slug: %v", err)
	}
}

func TestResolverFallsBackOnRemoteFailure(t *testing.T) {
	local, _ := newTestLocal(t)
	seedPublished(t, local)
	remote := &stubSource{err: errRemoteDown}
	r := NewResolver(remote, local, nil)
	ctx := context.Background()

	posts, err := r.PublishedPosts(ctx)
	if err != nil {
		t.Fatalf("remote failure must not surface: %v", err)
	}
	if got := titles(posts); !reflect.DeepEqual(got, []string{"Newest", "Middle", "Oldest"}) {
		t.Fatalf("expected local posts, got %v", got)
	}

	latest, err := r.LatestPosts(ctx, 1)
	if err != nil || len(latest) != 1 || latest[0].Title != "Newest" {
		t.Fatalf("LatestPosts fallback = %v, %v", titles(latest), err)
	}

	byCat, err := r.PostsByCategory(ctx, "Case Study")
	if err != nil || !reflect.DeepEqual(titles(byCat), []string{"Middle"}) {
		t.Fatalf("PostsByCategory fallback = %v, %v", titles(byCat), err)
	}

	tags, err := r.Tags(ctx)
	if err != nil || !reflect.DeepEqual(tags, []string{"attention", "audio", "ctv", "tv"}) {
		t.Fatalf("Tags fallback = %v, %v", tags, err)
	}

	if remote.calls == 0 {
		t.Fatalf("remote should have been tried first")
	}
}

func TestResolverSlugMissingRemotelyFallsBack(t *testing.T) {
	local, _ := newTestLocal(t)
	seedPublished(t, local)
	remote := &stubSource{posts: []models.Post{remotePost("9", "remote-only", 1, models.StatusPublished, false)}}
	r := NewResolver(remote, local, nil)

	post, err := r.PostBySlug(context.Background(), "oldest")
	if err != nil {
		t.Fatalf("PostBySlug: %v", err)
	}
	if post.Title != "Oldest" {
		t.Fatalf("expected local post, got %+v", post)
	}

	if _, err := r.PostBySlug(context.Background(), "nowhere"); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

type fallbackLog struct {
	entries [][]any
}

func (l *fallbackLog) Debug(_ string, args ...any) { l.entries = append(l.entries, args) }
func (l *fallbackLog) Info(string, ...any)         {}
func (l *fallbackLog) Warn(string, ...any)         {}
func (l *fallbackLog) Error(string, ...any)        {}

func TestResolverFallbackLogsReadFields(t *testing.T) {
	local, _ := newTestLocal(t)
	seedPublished(t, local)
	log := &fallbackLog{}
	r := NewResolver(&stubSource{err: errRemoteDown}, local, log)

	if _, err := r.PostBySlug(context.Background(), "oldest"); err != nil {
		t.Fatalf("PostBySlug: %v", err)
	}

	if len(log.entries) != 1 {
		t.Fatalf("expected one fallback entry, got %d", len(log.entries))
	}
	want := []any{"op", "post_by_slug", "slug", "oldest", "err", errRemoteDown}
	if !reflect.DeepEqual(log.entries[0], want) {
		t.Fatalf("fields = %v, want %v", log.entries[0], want)
	}
}

func TestResolverRemoteTagsAreSortedAndDeduped(t *testing.T) {
	local, _ := newTestLocal(t)
	remote := &stubSource{tags: []string{"Video", "audio", " Video", ""}}
	r := NewResolver(remote, local, nil)

	tags, err := r.Tags(context.Background())
	if err != nil {
		t.Fatalf("Tags: %v", err)
	}
	if !reflect.DeepEqual(tags, []string{"Video", "audio"}) {
		t.Fatalf("Tags = %v", tags)
	}
}

func TestResolverNonPositiveLimit(t *testing.T) {
	local, _ := newTestLocal(t)
	seedPublished(t, local)
	remote := &stubSource{}
	r := NewResolver(remote, local, nil)

	latest, err := r.LatestPosts(context.Background(), 0)
	if err != nil || len(latest) != 0 {
		t.Fatalf("LatestPosts(0) = %v, %v", titles(latest), err)
	}
	if remote.calls != 0 {
		t.Fatalf("no source should be queried for an empty page")
	}
}

func TestResolverLatestIsPrefixOfPublished(t *testing.T) {
	local, _ := newTestLocal(t)
	seedPublished(t, local)
	r := NewResolver(nil, local, nil)
	ctx := context.Background()

	all, _ := r.PublishedPosts(ctx)
	for n := 1; n <= len(all)+1; n++ {
		latest, err := r.LatestPosts(ctx, n)
		if err != nil {
			t.Fatalf("LatestPosts(%d): %v", n, err)
		}
		want := n
		if want > len(all) {
			want = len(all)
		}
		if len(latest) != want {
			t.Fatalf("LatestPosts(%d) returned %d posts", n, len(latest))
		}
		for i := range latest {
			if latest[i].ID != all[i].ID {
				t.Fatalf("LatestPosts(%d) is not a prefix of PublishedPosts", n)
			}
		}
	}
}

func TestResolverRelatedPosts(t *testing.T) {
	local, _ := newTestLocal(t)
	seedPublished(t, local)
	r := NewResolver(nil, local, nil)
	ctx := context.Background()

	newest, err := r.PostBySlug(ctx, "newest")
	if err != nil {
		t.Fatalf("PostBySlug: %v", err)
	}
	related, err := r.RelatedPosts(ctx, *newest, 3)
	if err != nil {
		t.Fatalf("RelatedPosts: %v", err)
	}
	if got := titles(related); !reflect.DeepEqual(got, []string{"Oldest"}) {
		t.Fatalf("RelatedPosts = %v", got)
	}
}
