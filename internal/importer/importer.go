// Package importer loads markdown files with YAML front matter into the
// local post store.
package importer

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/adrg/frontmatter"

	"github.com/lumenresearch/newsroom/internal/content"
	"github.com/lumenresearch/newsroom/internal/logging"
	"github.com/lumenresearch/newsroom/internal/models"
)

const defaultPattern = "*.md"

// Result is the outcome of importing one file.
type Result struct {
	File    string
	Post    *models.Post
	Skipped bool
	Err     error
}

// Summary totals a run of the importer.
type Summary struct {
	Imported int
	Skipped  int
	Failed   int
}

// Summarize counts the results by outcome.
func Summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		switch {
		case r.Err != nil:
			s.Failed++
		case r.Skipped:
			s.Skipped++
		default:
			s.Imported++
		}
	}
	return s
}

// Importer creates posts from markdown documents.
type Importer struct {
	local        *content.LocalSource
	logger       logging.Logger
	skipExisting bool
}

// Option customizes an Importer.
type Option func(*Importer)

// WithLogger sets the importer logger.
func WithLogger(logger logging.Logger) Option {
	return func(i *Importer) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// SkipExisting leaves files alone when a post with the same derived slug exists.
func SkipExisting(skip bool) Option {
	return func(i *Importer) {
		i.skipExisting = skip
	}
}

func New(local *content.LocalSource, opts ...Option) *Importer {
	i := &Importer{local: local, logger: logging.NoOp()}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

type frontMatterEnvelope struct {
	Title    string   `yaml:"title"`
	Excerpt  string   `yaml:"excerpt"`
	Category string   `yaml:"category"`
	Author   string   `yaml:"author"`
	Tags     []string `yaml:"tags"`
	Featured *bool    `yaml:"featured"`
	Status   string   `yaml:"status"`
	ImageURL string   `yaml:"imageUrl"`
}

// ParseDocument splits a markdown document into post input and body.
func ParseDocument(source []byte) (models.PostInput, error) {
	var meta frontMatterEnvelope
	body, err := frontmatter.Parse(bytes.NewReader(source), &meta)
	if err != nil {
		return models.PostInput{}, fmt.Errorf("parse frontmatter: %w", err)
	}

	return models.PostInput{
		Title:    strings.TrimSpace(meta.Title),
		Excerpt:  strings.TrimSpace(meta.Excerpt),
		Content:  strings.TrimSpace(string(body)),
		Category: strings.TrimSpace(meta.Category),
		Author:   strings.TrimSpace(meta.Author),
		Featured: meta.Featured,
		ImageURL: strings.TrimSpace(meta.ImageURL),
		Tags:     meta.Tags,
		Status:   models.Status(strings.TrimSpace(meta.Status)),
	}, nil
}

// ImportDir imports every *.md file directly inside dir, in name order.
// A file that fails is reported in its Result and the run continues;
// only an unreadable directory or a cancelled context stops it.
func (i *Importer) ImportDir(ctx context.Context, dir string) ([]Result, error) {
	return i.ImportFS(ctx, os.DirFS(dir))
}

// ImportFS is ImportDir over an arbitrary filesystem.
func (i *Importer) ImportFS(ctx context.Context, fsys fs.FS) ([]Result, error) {
	files, err := fs.Glob(fsys, defaultPattern)
	if err != nil {
		return nil, fmt.Errorf("failed to list markdown files: %w", err)
	}
	sort.Strings(files)

	existing := map[string]bool{}
	if i.skipExisting {
		posts, err := i.local.AllPosts(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load existing posts: %w", err)
		}
		for _, p := range posts {
			existing[p.Slug] = true
		}
	}

	results := make([]Result, 0, len(files))
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		result := i.importFile(ctx, fsys, file, existing)
		if result.Err != nil {
			i.logger.Warn("import failed", "file", file, "err", result.Err)
		}
		results = append(results, result)
	}

	s := Summarize(results)
	i.logger.Info("import finished", "imported", s.Imported, "skipped", s.Skipped, "failed", s.Failed)
	return results, nil
}

func (i *Importer) importFile(ctx context.Context, fsys fs.FS, file string, existing map[string]bool) Result {
	result := Result{File: path.Base(file)}

	data, err := fs.ReadFile(fsys, file)
	if err != nil {
		result.Err = fmt.Errorf("read %s: %w", file, err)
		return result
	}

	input, err := ParseDocument(data)
	if err != nil {
		result.Err = fmt.Errorf("%s: %w", file, err)
		return result
	}

	if slug := content.DeriveSlug(input.Title); i.skipExisting && existing[slug] {
		result.Skipped = true
		return result
	}

	post, err := i.local.CreatePost(ctx, input)
	if err != nil {
		result.Err = err
		return result
	}
	existing[post.Slug] = true
	result.Post = post
	return result
}
