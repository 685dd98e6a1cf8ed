package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/lumenresearch/newsroom/internal/content"
	"github.com/lumenresearch/newsroom/internal/logging"
	"github.com/lumenresearch/newsroom/internal/models"
	"github.com/lumenresearch/newsroom/internal/render"
)

const (
	defaultLimit = 3
	relatedLimit = 3
)

// Searcher runs full-text queries over published posts.
type Searcher interface {
	SearchPosts(ctx context.Context, query string) ([]models.Post, error)
}

// NewsHandler serves the public read API through the content resolver.
type NewsHandler struct {
	resolver *content.Resolver
	searcher Searcher
	logger   logging.Logger
}

// NewNewsHandler builds the public handler. searcher may be nil, in which
// case search runs against the local store.
func NewNewsHandler(resolver *content.Resolver, searcher Searcher, logger logging.Logger) *NewsHandler {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &NewsHandler{
		resolver: resolver,
		searcher: searcher,
		logger:   logger,
	}
}

// ListPublished handles GET /api/news
func (h *NewsHandler) ListPublished(w http.ResponseWriter, r *http.Request) {
	posts, err := h.resolver.PublishedPosts(r.Context())
	h.respondPosts(w, posts, err)
}

// Latest handles GET /api/news/latest?limit=N
func (h *NewsHandler) Latest(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	posts, err := h.resolver.LatestPosts(r.Context(), limit)
	h.respondPosts(w, posts, err)
}

// Featured handles GET /api/news/featured?limit=N
func (h *NewsHandler) Featured(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	posts, err := h.resolver.FeaturedPosts(r.Context(), limit)
	h.respondPosts(w, posts, err)
}

// ByCategory handles GET /api/news/category/{category}
func (h *NewsHandler) ByCategory(w http.ResponseWriter, r *http.Request) {
	posts, err := h.resolver.PostsByCategory(r.Context(), mux.Vars(r)["category"])
	h.respondPosts(w, posts, err)
}

// Slugs handles GET /api/news/slugs
func (h *NewsHandler) Slugs(w http.ResponseWriter, r *http.Request) {
	slugs, err := h.resolver.Slugs(r.Context())
	if err != nil {
		h.logger.Error("failed to fetch slugs", "err", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch slugs")
		return
	}
	respondJSON(w, http.StatusOK, slugs)
}

// Tags handles GET /api/news/tags
func (h *NewsHandler) Tags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.resolver.Tags(r.Context())
	if err != nil {
		h.logger.Error("failed to fetch tags", "err", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch tags")
		return
	}
	respondJSON(w, http.StatusOK, tags)
}

// Categories handles GET /api/news/categories
func (h *NewsHandler) Categories(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, models.Categories)
}

// Search handles GET /api/news/search?q=<query>
func (h *NewsHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		respondError(w, http.StatusBadRequest, "Query parameter is required")
		return
	}

	posts, err := h.search(r.Context(), query)
	if err != nil {
		h.logger.Error("failed to search posts", "err", err)
		respondError(w, http.StatusInternalServerError, "Failed to search posts")
		return
	}

	respondJSON(w, http.StatusOK, models.SearchResponse{Posts: posts, Total: len(posts)})
}

func (h *NewsHandler) search(ctx context.Context, query string) ([]models.Post, error) {
	if h.searcher != nil {
		posts, err := h.searcher.SearchPosts(ctx, query)
		if err == nil {
			return posts, nil
		}
		h.logger.Warn("search index unavailable, scanning local store", "err", err)
	}
	return h.resolver.Local().SearchPosts(ctx, query)
}

// GetBySlug handles GET /api/news/post/{slug}
func (h *NewsHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]

	post, err := h.resolver.PostBySlug(r.Context(), slug)
	if err != nil {
		if content.IsNotFound(err) {
			respondError(w, http.StatusNotFound, "Post not found")
			return
		}
		h.logger.Error("failed to fetch post", "slug", slug, "err", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch post")
		return
	}

	related, err := h.resolver.RelatedPosts(r.Context(), *post, relatedLimit)
	if err != nil {
		h.logger.Warn("failed to fetch related posts", "slug", slug, "err", err)
		related = []models.Post{}
	}

	respondJSON(w, http.StatusOK, models.PostView{
		Post:    *post,
		HTML:    render.HTML(*post),
		Related: related,
	})
}

func (h *NewsHandler) respondPosts(w http.ResponseWriter, posts []models.Post, err error) {
	if err != nil {
		h.logger.Error("failed to fetch posts", "err", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch posts")
		return
	}
	respondJSON(w, http.StatusOK, posts)
}

func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultLimit, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid limit")
		return 0, false
	}
	return limit, true
}
