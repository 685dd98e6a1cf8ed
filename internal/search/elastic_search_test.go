package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/lumenresearch/newsroom/internal/models"
)

type recorded struct {
	method string
	path   string
	body   string
}

// fakeCluster answers like an Elasticsearch node and records requests.
type fakeCluster struct {
	mu         sync.Mutex
	requests   []recorded
	searchBody string
	status     int
}

func newFakeCluster(t *testing.T) (*fakeCluster, *elasticsearch.Client) {
	t.Helper()
	fc := &fakeCluster{status: http.StatusOK, searchBody: `{"hits":{"hits":[]}}`}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		fc.mu.Lock()
		fc.requests = append(fc.requests, recorded{method: r.Method, path: r.URL.Path, body: string(body)})
		status := fc.status
		searchBody := fc.searchBody
		fc.mu.Unlock()

		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if r.URL.Path == "/posts/_search" {
			_, _ = io.WriteString(w, searchBody)
			return
		}
		_, _ = io.WriteString(w, `{"result":"ok"}`)
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return fc, client
}

func (fc *fakeCluster) respond(status int, searchBody string) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.status = status
	if searchBody != "" {
		fc.searchBody = searchBody
	}
}

func (fc *fakeCluster) all() []recorded {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return append([]recorded(nil), fc.requests...)
}

func TestIndexPostPublishedAndDraft(t *testing.T) {
	fc, client := newFakeCluster(t)
	es := NewElasticSearch(client, "", nil)
	ctx := context.Background()

	published := models.Post{ID: "p1", Slug: "one", Title: "One", Status: models.StatusPublished, Tags: []string{}}
	if err := es.IndexPost(ctx, published); err != nil {
		t.Fatalf("IndexPost: %v", err)
	}
	draft := models.Post{ID: "d1", Status: models.StatusDraft}
	if err := es.IndexPost(ctx, draft); err != nil {
		t.Fatalf("IndexPost(draft): %v", err)
	}

	reqs := fc.all()
	if len(reqs) != 2 {
		t.Fatalf("expected 2 requests, got %d: %+v", len(reqs), reqs)
	}
	if reqs[0].method != http.MethodPut || reqs[0].path != "/posts/_doc/p1" {
		t.Fatalf("index request = %s %s", reqs[0].method, reqs[0].path)
	}
	var doc models.Post
	if err := json.Unmarshal([]byte(reqs[0].body), &doc); err != nil || doc.Slug != "one" {
		t.Fatalf("indexed body = %s (%v)", reqs[0].body, err)
	}
	if reqs[1].method != http.MethodDelete || reqs[1].path != "/posts/_doc/d1" {
		t.Fatalf("draft should be deleted, got %s %s", reqs[1].method, reqs[1].path)
	}
}

func TestDeleteUnknownPostSucceeds(t *testing.T) {
	fc, client := newFakeCluster(t)
	fc.respond(http.StatusNotFound, "")
	es := NewElasticSearch(client, DefaultIndex, nil)

	if err := es.DeletePost(context.Background(), "missing"); err != nil {
		t.Fatalf("DeletePost: %v", err)
	}
}

func TestSearchPostsDecodesHits(t *testing.T) {
	fc, client := newFakeCluster(t)
	fc.respond(http.StatusOK, `{"hits":{"hits":[
		{"_id":"a","_score":2.5,"_source":{"id":"a","slug":"first","title":"First","status":"published","tags":["ctv"]}},
		{"_id":"b","_score":1.0,"_source":{"slug":"second","title":"Second","status":"published"}}
	]}}`)
	es := NewElasticSearch(client, DefaultIndex, nil)

	posts, err := es.SearchPosts(context.Background(), "attention")
	if err != nil {
		t.Fatalf("SearchPosts: %v", err)
	}
	if len(posts) != 2 || posts[0].Slug != "first" || posts[1].ID != "b" {
		t.Fatalf("unexpected hits: %+v", posts)
	}

	reqs := fc.all()
	var query map[string]any
	if err := json.Unmarshal([]byte(reqs[len(reqs)-1].body), &query); err != nil {
		t.Fatalf("query body: %v", err)
	}
	if _, ok := query["query"].(map[string]any)["bool"]; !ok {
		t.Fatalf("expected bool query, got %v", query)
	}
}

func TestSearchPostsError(t *testing.T) {
	fc, client := newFakeCluster(t)
	fc.respond(http.StatusInternalServerError, "")
	es := NewElasticSearch(client, DefaultIndex, nil)

	if _, err := es.SearchPosts(context.Background(), "x"); err == nil {
		t.Fatalf("expected an error for a failing cluster")
	}
}

func TestReindexCountsPublished(t *testing.T) {
	_, client := newFakeCluster(t)
	es := NewElasticSearch(client, DefaultIndex, nil)

	n, err := es.Reindex(context.Background(), []models.Post{
		{ID: "1", Status: models.StatusPublished},
		{ID: "2", Status: models.StatusDraft},
		{ID: "3", Status: models.StatusPublished},
	})
	if err != nil {
		t.Fatalf("Reindex: %v", err)
	}
	if n != 2 {
		t.Fatalf("indexed %d, want 2", n)
	}
}

func TestNewClientHonoursContext(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	if _, err := NewClient(ctx, srv.URL); err == nil {
		t.Fatalf("expected an error from a stalled cluster")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("NewClient ignored the deadline, took %v", elapsed)
	}
}

func TestNewClientChecksCluster(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"version":{"number":"8.11.0"}}`)
	}))
	t.Cleanup(srv.Close)

	if _, err := NewClient(context.Background(), srv.URL); err != nil {
		t.Fatalf("NewClient: %v", err)
	}
}
