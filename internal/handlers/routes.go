package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterRoutes mounts the admin and public APIs and the health check on r.
func RegisterRoutes(r *mux.Router, posts *PostHandler, news *NewsHandler, health *HealthHandler) {
	r.HandleFunc("/api/posts", posts.ListPosts).Methods(http.MethodGet)
	r.HandleFunc("/api/posts", posts.CreatePost).Methods(http.MethodPost)
	r.HandleFunc("/api/posts/{id}", posts.GetPost).Methods(http.MethodGet)
	r.HandleFunc("/api/posts/{id}", posts.UpdatePost).Methods(http.MethodPut)
	r.HandleFunc("/api/posts/{id}", posts.DeletePost).Methods(http.MethodDelete)

	// single posts live under /post so a slug can never collide with a listing route
	r.HandleFunc("/api/news", news.ListPublished).Methods(http.MethodGet)
	r.HandleFunc("/api/news/latest", news.Latest).Methods(http.MethodGet)
	r.HandleFunc("/api/news/featured", news.Featured).Methods(http.MethodGet)
	r.HandleFunc("/api/news/slugs", news.Slugs).Methods(http.MethodGet)
	r.HandleFunc("/api/news/tags", news.Tags).Methods(http.MethodGet)
	r.HandleFunc("/api/news/categories", news.Categories).Methods(http.MethodGet)
	r.HandleFunc("/api/news/search", news.Search).Methods(http.MethodGet)
	r.HandleFunc("/api/news/category/{category}", news.ByCategory).Methods(http.MethodGet)
	r.HandleFunc("/api/news/post/{slug}", news.GetBySlug).Methods(http.MethodGet)

	r.HandleFunc("/healthz", health.Health).Methods(http.MethodGet)
}
