// Command import loads markdown files with front matter into the
// configured local post store.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/lumenresearch/newsroom/internal/config"
	"github.com/lumenresearch/newsroom/internal/content"
	"github.com/lumenresearch/newsroom/internal/importer"
	"github.com/lumenresearch/newsroom/internal/logging"
	"github.com/lumenresearch/newsroom/internal/models"
	"github.com/lumenresearch/newsroom/internal/repository"
	"github.com/lumenresearch/newsroom/internal/search"
)

func main() {
	dir := flag.String("dir", "", "directory containing *.md files (required)")
	skipExisting := flag.Bool("skip-existing", false, "skip files whose slug already exists")
	flag.Parse()

	if *dir == "" {
		fmt.Fprintln(os.Stderr, "import: -dir is required")
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	failed, err := run(ctx, *dir, *skipExisting)
	if err != nil {
		fmt.Fprintln(os.Stderr, "import:", err)
		os.Exit(1)
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func run(ctx context.Context, dir string, skipExisting bool) (int, error) {
	cfg, err := config.Load()
	if err != nil {
		return 0, err
	}

	logs, err := logging.NewProvider(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		return 0, err
	}
	logger := logs.Module("import")

	var store repository.Store
	if cfg.Store.Driver == config.StorePostgres {
		db, err := repository.OpenPostgres(ctx, cfg.Database.DSN())
		if err != nil {
			return 0, err
		}
		defer db.Close()
		pg := repository.NewPostgresStore(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			return 0, err
		}
		store = pg
	} else {
		store = repository.NewFileStore(cfg.Store.PostsFile)
	}

	local := content.NewLocalSource(store, content.WithLogger(logs.Module("content")))
	imp := importer.New(local,
		importer.WithLogger(logger),
		importer.SkipExisting(skipExisting),
	)

	results, err := imp.ImportDir(ctx, dir)
	if err != nil {
		return 0, err
	}

	var imported []models.Post
	for _, r := range results {
		switch {
		case r.Err != nil:
			fmt.Printf("FAIL  %s: %v\n", r.File, r.Err)
		case r.Skipped:
			fmt.Printf("SKIP  %s\n", r.File)
		default:
			fmt.Printf("OK    %s -> %s (%s)\n", r.File, r.Post.Slug, r.Post.Status)
			imported = append(imported, *r.Post)
		}
	}

	if cfg.SearchEnabled() && len(imported) > 0 {
		client, err := search.NewClient(ctx, cfg.Elasticsearch.URL)
		if err != nil {
			logger.Warn("search index not updated", "err", err)
		} else {
			es := search.NewElasticSearch(client, cfg.Elasticsearch.Index, logs.Module("search"))
			if _, err := es.Reindex(ctx, imported); err != nil {
				logger.Warn("some imported posts could not be indexed", "err", err)
			}
		}
	}

	summary := importer.Summarize(results)
	fmt.Printf("imported %d, skipped %d, failed %d\n", summary.Imported, summary.Skipped, summary.Failed)
	return summary.Failed, nil
}
