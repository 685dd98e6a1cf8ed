package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"

	"github.com/lumenresearch/newsroom/internal/cache"
	"github.com/lumenresearch/newsroom/internal/config"
	"github.com/lumenresearch/newsroom/internal/content"
	"github.com/lumenresearch/newsroom/internal/handlers"
	"github.com/lumenresearch/newsroom/internal/logging"
	"github.com/lumenresearch/newsroom/internal/repository"
	"github.com/lumenresearch/newsroom/internal/search"
	"github.com/lumenresearch/newsroom/internal/wordpress"
)

const startupTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "server:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logs, err := logging.NewProvider(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		return err
	}
	logger := logs.Module("server")
	logger.Info("configuration loaded", "config", cfg.String())

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	// Initialize the local store
	store, db, err := initStore(ctx, cfg)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}
	local := content.NewLocalSource(store, content.WithLogger(logs.Module("content")))

	// Initialize Redis
	var responseCache *cache.RedisCache
	checks := map[string]handlers.Pinger{}
	if cfg.CacheEnabled() {
		redisClient, err := cache.NewRedisClient(ctx, cfg.RedisAddr)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		responseCache = cache.NewRedisCache(redisClient)
		checks["redis"] = responseCache
		logger.Info("redis connected", "addr", cfg.RedisAddr)
	}

	// Initialize the WordPress source; a nil Source disables it
	var remote content.Source
	if cfg.RemoteEnabled() {
		opts := []wordpress.Option{
			wordpress.WithTimeout(cfg.WordPress.Timeout),
			wordpress.WithDefaultAuthor(cfg.WordPress.DefaultAuthor),
			wordpress.WithLogger(logs.Module("wordpress")),
		}
		if responseCache != nil {
			opts = append(opts, wordpress.WithCache(responseCache, cfg.WordPress.CacheTTL))
		}
		remote = wordpress.NewClient(cfg.WordPress.BaseURL, opts...)
		logger.Info("wordpress source enabled", "url", cfg.WordPress.BaseURL)
	}
	resolver := content.NewResolver(remote, local, logs.Module("resolver"))

	// Initialize Elasticsearch
	var (
		indexer  handlers.Indexer
		searcher handlers.Searcher
	)
	if cfg.SearchEnabled() {
		es, err := initSearch(ctx, cfg, local, logs.Module("search"))
		if err != nil {
			return err
		}
		indexer, searcher = es, es
	}

	// Setup routes
	r := mux.NewRouter()
	handlers.RegisterRoutes(r,
		handlers.NewPostHandler(local, indexer, logs.Module("admin")),
		handlers.NewNewsHandler(resolver, searcher, logs.Module("news")),
		handlers.NewHealthHandler(checks, logs.Module("health")),
	)

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("server starting", "port", cfg.ServerPort)
	return srv.ListenAndServe()
}

func initStore(ctx context.Context, cfg *config.Config) (repository.Store, *sql.DB, error) {
	if cfg.Store.Driver != config.StorePostgres {
		return repository.NewFileStore(cfg.Store.PostsFile), nil, nil
	}

	db, err := repository.OpenPostgres(ctx, cfg.Database.DSN())
	if err != nil {
		return nil, nil, err
	}
	store := repository.NewPostgresStore(db)
	if err := store.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return store, db, nil
}

// initSearch connects to the cluster, creates the index and loads the
// current published posts into it.
func initSearch(ctx context.Context, cfg *config.Config, local *content.LocalSource, logger logging.Logger) (*search.ElasticSearch, error) {
	client, err := search.NewClient(ctx, cfg.Elasticsearch.URL)
	if err != nil {
		return nil, err
	}
	es := search.NewElasticSearch(client, cfg.Elasticsearch.Index, logger)

	if err := es.CreateIndex(ctx); err != nil {
		return nil, err
	}

	posts, err := local.PublishedPosts(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := es.Reindex(ctx, posts); err != nil {
		logger.Warn("some posts could not be indexed", "err", err)
	}
	return es, nil
}
