package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/lumenresearch/newsroom/internal/content"
	"github.com/lumenresearch/newsroom/internal/logging"
	"github.com/lumenresearch/newsroom/internal/models"
)

// Indexer mirrors post writes into a search index.
type Indexer interface {
	IndexPost(ctx context.Context, post models.Post) error
	DeletePost(ctx context.Context, id string) error
}

// PostHandler serves the admin CRUD API over the local store.
type PostHandler struct {
	local   *content.LocalSource
	indexer Indexer
	logger  logging.Logger
}

// NewPostHandler builds the admin handler. indexer may be nil.
func NewPostHandler(local *content.LocalSource, indexer Indexer, logger logging.Logger) *PostHandler {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &PostHandler{
		local:   local,
		indexer: indexer,
		logger:  logger,
	}
}

// ListPosts handles GET /api/posts
func (h *PostHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.local.AllPosts(r.Context())
	if err != nil {
		h.logger.Error("failed to fetch posts", "err", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch posts")
		return
	}
	respondJSON(w, http.StatusOK, posts)
}

// CreatePost handles POST /api/posts
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req models.PostInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	post, err := h.local.CreatePost(r.Context(), req)
	if err != nil {
		if content.IsValidation(err) {
			respondValidation(w, err)
			return
		}
		h.logger.Error("failed to create post", "err", err)
		respondError(w, http.StatusInternalServerError, "Failed to create post")
		return
	}

	h.index(r.Context(), *post)
	respondJSON(w, http.StatusCreated, post)
}

// GetPost handles GET /api/posts/{id}
func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	post, err := h.local.PostByID(r.Context(), id)
	if err != nil {
		if content.IsNotFound(err) {
			respondError(w, http.StatusNotFound, "Post not found")
			return
		}
		h.logger.Error("failed to fetch post", "id", id, "err", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch post")
		return
	}
	respondJSON(w, http.StatusOK, post)
}

// UpdatePost handles PUT /api/posts/{id}
func (h *PostHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req models.PostPatch
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	post, err := h.local.UpdatePost(r.Context(), id, req)
	if err != nil {
		switch {
		case content.IsNotFound(err):
			respondError(w, http.StatusNotFound, "Post not found")
		case content.IsValidation(err):
			respondValidation(w, err)
		default:
			h.logger.Error("failed to update post", "id", id, "err", err)
			respondError(w, http.StatusInternalServerError, "Failed to update post")
		}
		return
	}

	h.index(r.Context(), *post)
	respondJSON(w, http.StatusOK, post)
}

// DeletePost handles DELETE /api/posts/{id}
func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.local.DeletePost(r.Context(), id); err != nil {
		if content.IsNotFound(err) {
			respondError(w, http.StatusNotFound, "Post not found")
			return
		}
		h.logger.Error("failed to delete post", "id", id, "err", err)
		respondError(w, http.StatusInternalServerError, "Failed to delete post")
		return
	}

	if h.indexer != nil {
		if err := h.indexer.DeletePost(r.Context(), id); err != nil {
			h.logger.Warn("failed to remove post from search index", "id", id, "err", err)
		}
	}
	respondJSON(w, http.StatusOK, messageResponse{Message: "Post deleted successfully"})
}

// index keeps the search index in step with the store. The write has
// already succeeded, so a failure here is only logged.
func (h *PostHandler) index(ctx context.Context, post models.Post) {
	if h.indexer == nil {
		return
	}
	if err := h.indexer.IndexPost(ctx, post); err != nil {
		h.logger.Warn("failed to index post", "id", post.ID, "err", err)
	}
}
