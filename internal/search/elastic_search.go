package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/lumenresearch/newsroom/internal/logging"
	"github.com/lumenresearch/newsroom/internal/models"
)

const (
	DefaultIndex = "posts"
	maxResults   = 50
)

const indexMapping = `{
	"mappings": {
		"properties": {
			"id": {"type": "keyword"},
			"slug": {"type": "keyword"},
			"title": {"type": "text"},
			"excerpt": {"type": "text"},
			"content": {"type": "text"},
			"category": {"type": "keyword"},
			"author": {"type": "keyword"},
			"tags": {"type": "keyword"},
			"status": {"type": "keyword"},
			"featured": {"type": "boolean"},
			"publishedAt": {"type": "date"},
			"updatedAt": {"type": "date"}
		}
	}
}`

// ElasticSearch keeps a full-text index of published posts.
type ElasticSearch struct {
	client *elasticsearch.Client
	index  string
	logger logging.Logger
}

func NewElasticSearch(client *elasticsearch.Client, index string, logger logging.Logger) *ElasticSearch {
	if index == "" {
		index = DefaultIndex
	}
	if logger == nil {
		logger = logging.NoOp()
	}
	return &ElasticSearch{client: client, index: index, logger: logger}
}

// NewClient connects to the cluster at url and checks that it answers
// before ctx is done.
func NewClient(ctx context.Context, url string) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{url},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}

	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to reach elasticsearch: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch info error: %s", res.String())
	}
	return client, nil
}

// CreateIndex creates the posts index with proper mapping
func (es *ElasticSearch) CreateIndex(ctx context.Context) error {
	req := esapi.IndicesCreateRequest{
		Index: es.index,
		Body:  strings.NewReader(indexMapping),
	}

	res, err := req.Do(ctx, es.client)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() && !strings.Contains(res.String(), "resource_already_exists_exception") {
		return fmt.Errorf("error creating index: %s", res.String())
	}

	return nil
}

// IndexPost indexes a published post. Any other post is removed from the
// index so drafts never show up in search results.
func (es *ElasticSearch) IndexPost(ctx context.Context, post models.Post) error {
	if !post.IsPublished() {
		return es.DeletePost(ctx, post.ID)
	}

	docJSON, err := json.Marshal(post)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      es.index,
		DocumentID: post.ID,
		Body:       bytes.NewReader(docJSON),
		Refresh:    "true",
	}

	res, err := req.Do(ctx, es.client)
	if err != nil {
		return fmt.Errorf("failed to index document: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error indexing document: %s", res.String())
	}

	es.logger.Debug("document indexed", "id", post.ID, "index", es.index)
	return nil
}

// DeletePost removes a post from the index. Deleting an unknown id succeeds.
func (es *ElasticSearch) DeletePost(ctx context.Context, id string) error {
	req := esapi.DeleteRequest{
		Index:      es.index,
		DocumentID: id,
		Refresh:    "true",
	}

	res, err := req.Do(ctx, es.client)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("error deleting document: %s", res.String())
	}
	return nil
}

// Reindex indexes every post, continuing past failures. It returns the
// number of posts indexed and the joined errors.
func (es *ElasticSearch) Reindex(ctx context.Context, posts []models.Post) (int, error) {
	var errs []error
	indexed := 0
	for _, post := range posts {
		if err := es.IndexPost(ctx, post); err != nil {
			errs = append(errs, fmt.Errorf("post %s: %w", post.ID, err))
			continue
		}
		if post.IsPublished() {
			indexed++
		}
	}
	es.logger.Info("reindex finished", "indexed", indexed, "failed", len(errs))
	return indexed, errors.Join(errs...)
}

type searchResult struct {
	Hits struct {
		Hits []struct {
			ID     string      `json:"_id"`
			Score  float64     `json:"_score"`
			Source models.Post `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// SearchPosts performs full-text search over published posts
func (es *ElasticSearch) SearchPosts(ctx context.Context, query string) ([]models.Post, error) {
	searchQuery := map[string]any{
		"size": maxResults,
		"query": map[string]any{
			"bool": map[string]any{
				"must": map[string]any{
					"multi_match": map[string]any{
						"query":  query,
						"fields": []string{"title^2", "excerpt", "content", "tags"},
					},
				},
				"filter": map[string]any{
					"term": map[string]any{"status": string(models.StatusPublished)},
				},
			},
		},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(searchQuery); err != nil {
		return nil, fmt.Errorf("failed to encode query: %w", err)
	}

	res, err := es.client.Search(
		es.client.Search.WithContext(ctx),
		es.client.Search.WithIndex(es.index),
		es.client.Search.WithBody(&buf),
		es.client.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search error: %s", res.String())
	}

	var result searchResult
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	posts := make([]models.Post, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		post := hit.Source
		if post.ID == "" {
			post.ID = hit.ID
		}
		posts = append(posts, post)
	}
	return posts, nil
}
