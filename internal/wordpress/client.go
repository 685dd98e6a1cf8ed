// Package wordpress reads published posts from a WordPress site through
// its REST API (wp-json/wp/v2). The site is read-only from here.
package wordpress

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/lumenresearch/newsroom/internal/content"
	"github.com/lumenresearch/newsroom/internal/logging"
	"github.com/lumenresearch/newsroom/internal/models"
)

const (
	apiPath         = "/wp-json/wp/v2"
	maxPerPage      = 100
	defaultCategory = "Uncategorised"
	defaultAuthor   = "Lumen Research"
	defaultTimeout  = 10 * time.Second
)

// ErrUnavailable is returned for network failures, non-2xx responses and
// payloads that cannot be decoded. Callers treat it as "try another source".
var ErrUnavailable = goerrors.New("wordpress source unavailable", goerrors.CategoryExternal).
	WithTextCode("WORDPRESS_UNAVAILABLE")

// ResponseCache stores raw response bodies keyed by request URL.
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Client is a content.Source backed by the WordPress REST API.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	cache         ResponseCache
	cacheTTL      time.Duration
	defaultAuthor string
	logger        logging.Logger
}

var _ content.Source = (*Client)(nil)

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithCache stores successful responses in cache for ttl.
func WithCache(cache ResponseCache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = cache
		c.cacheTTL = ttl
	}
}

// WithDefaultAuthor sets the author used when a post has no embedded author.
func WithDefaultAuthor(author string) Option {
	return func(c *Client) {
		if strings.TrimSpace(author) != "" {
			c.defaultAuthor = author
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(logger logging.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a client for the site at baseURL, e.g. https://blog.example.com.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		httpClient:    &http.Client{Timeout: defaultTimeout},
		defaultAuthor: defaultAuthor,
		logger:        logging.NoOp(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// wpPost is the subset of the WordPress post resource we read.
type wpPost struct {
	ID          int64    `json:"id"`
	Date        string   `json:"date"`
	DateGMT     string   `json:"date_gmt"`
	Modified    string   `json:"modified"`
	ModifiedGMT string   `json:"modified_gmt"`
	Slug        string   `json:"slug"`
	Status      string   `json:"status"`
	Title       rendered `json:"title"`
	Content     rendered `json:"content"`
	Excerpt     rendered `json:"excerpt"`
	Sticky      bool     `json:"sticky"`
	Embedded    *struct {
		Author []struct {
			Name string `json:"name"`
		} `json:"author"`
		FeaturedMedia []struct {
			SourceURL string `json:"source_url"`
		} `json:"wp:featuredmedia"`
		Terms [][]wpTerm `json:"wp:term"`
	} `json:"_embedded"`
}

type rendered struct {
	Rendered string `json:"rendered"`
}

type wpTerm struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// PublishedPosts returns up to 100 published posts, newest first.
func (c *Client) PublishedPosts(ctx context.Context) ([]models.Post, error) {
	return c.posts(ctx, fmt.Sprintf("/posts?status=publish&per_page=%d&orderby=date&order=desc", maxPerPage))
}

// LatestPosts returns the limit newest published posts.
func (c *Client) LatestPosts(ctx context.Context, limit int) ([]models.Post, error) {
	if limit <= 0 {
		return []models.Post{}, nil
	}
	return c.posts(ctx, fmt.Sprintf("/posts?status=publish&per_page=%d&orderby=date&order=desc", perPage(limit)))
}

// FeaturedPosts returns up to limit sticky posts.
func (c *Client) FeaturedPosts(ctx context.Context, limit int) ([]models.Post, error) {
	if limit <= 0 {
		return []models.Post{}, nil
	}
	return c.posts(ctx, fmt.Sprintf("/posts?status=publish&sticky=true&per_page=%d&orderby=date&order=desc", perPage(limit)))
}

// PostBySlug returns the published post with the slug, or content.ErrNotFound.
func (c *Client) PostBySlug(ctx context.Context, slug string) (*models.Post, error) {
	posts, err := c.posts(ctx, "/posts?slug="+url.QueryEscape(slug)+"&status=publish")
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, content.ErrNotFound
	}
	return &posts[0], nil
}

// PostsByCategory resolves the category name to a WordPress term and
// returns its published posts.
func (c *Client) PostsByCategory(ctx context.Context, category string) ([]models.Post, error) {
	var terms []wpTerm
	endpoint := fmt.Sprintf("/categories?search=%s&per_page=%d", url.QueryEscape(category), maxPerPage)
	if err := c.get(ctx, endpoint, &terms); err != nil {
		return nil, err
	}
	term, ok := matchTerm(terms, category)
	if !ok {
		return nil, fmt.Errorf("%w: no category matching %q", ErrUnavailable, category)
	}
	return c.posts(ctx, fmt.Sprintf("/posts?status=publish&categories=%d&per_page=%d&orderby=date&order=desc", term.ID, maxPerPage))
}

// Slugs returns the slugs of up to 100 published posts.
func (c *Client) Slugs(ctx context.Context) ([]string, error) {
	var rows []struct {
		Slug string `json:"slug"`
	}
	if err := c.get(ctx, fmt.Sprintf("/posts?status=publish&per_page=%d&_fields=slug", maxPerPage), &rows); err != nil {
		return nil, err
	}
	slugs := make([]string, 0, len(rows))
	for _, row := range rows {
		slugs = append(slugs, row.Slug)
	}
	return slugs, nil
}

// Tags returns the site's tag names.
func (c *Client) Tags(ctx context.Context) ([]string, error) {
	var terms []wpTerm
	if err := c.get(ctx, fmt.Sprintf("/tags?per_page=%d&orderby=name&order=asc", maxPerPage), &terms); err != nil {
		return nil, err
	}
	tags := make([]string, 0, len(terms))
	for _, term := range terms {
		tags = append(tags, html.UnescapeString(term.Name))
	}
	return tags, nil
}

func (c *Client) posts(ctx context.Context, endpoint string) ([]models.Post, error) {
	var raw []wpPost
	if err := c.get(ctx, endpoint, &raw); err != nil {
		return nil, err
	}
	posts := make([]models.Post, 0, len(raw))
	for _, wp := range raw {
		posts = append(posts, c.toPost(wp))
	}
	return posts, nil
}

// get fetches endpoint and decodes the JSON body into out. Bodies that
// decode are cached; cache failures only cost a round trip.
func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	target := c.endpointURL(endpoint)

	if c.cache != nil {
		body, ok, err := c.cache.Get(ctx, target)
		if err != nil {
			c.logger.Warn("wordpress cache read failed", "url", target, "err", err)
		}
		if ok && json.Unmarshal(body, out) == nil {
			return nil
		}
	}

	body, err := c.fetch(ctx, target)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: failed to decode %s: %w", ErrUnavailable, endpoint, err)
	}

	if c.cache != nil && c.cacheTTL > 0 {
		if err := c.cache.Set(ctx, target, body, c.cacheTTL); err != nil {
			c.logger.Warn("wordpress cache write failed", "url", target, "err", err)
		}
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to build request: %w", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned status %d", ErrUnavailable, target, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read body: %w", ErrUnavailable, err)
	}
	c.logger.Debug("wordpress request", "url", target, "status", resp.StatusCode, "bytes", len(body))
	return body, nil
}

// endpointURL builds the API URL and asks WordPress to embed authors,
// terms and media in the response.
func (c *Client) endpointURL(endpoint string) string {
	sep := "?"
	if strings.Contains(endpoint, "?") {
		sep = "&"
	}
	return c.baseURL + apiPath + endpoint + sep + "_embed"
}

func (c *Client) toPost(wp wpPost) models.Post {
	post := models.Post{
		ID:          strconv.FormatInt(wp.ID, 10),
		Slug:        wp.Slug,
		Title:       stripHTML(wp.Title.Rendered),
		Excerpt:     stripHTML(wp.Excerpt.Rendered),
		Content:     wp.Content.Rendered,
		Category:    defaultCategory,
		Author:      c.defaultAuthor,
		PublishedAt: parseTime(wp.DateGMT, wp.Date),
		UpdatedAt:   parseTime(wp.ModifiedGMT, wp.Modified),
		Featured:    wp.Sticky,
		Tags:        []string{},
		Status:      models.StatusDraft,
		Format:      models.FormatHTML,
	}
	if wp.Status == "publish" {
		post.Status = models.StatusPublished
	}

	if e := wp.Embedded; e != nil {
		if len(e.Author) > 0 && e.Author[0].Name != "" {
			post.Author = e.Author[0].Name
		}
		if len(e.FeaturedMedia) > 0 {
			post.ImageURL = e.FeaturedMedia[0].SourceURL
		}
		if len(e.Terms) > 0 && len(e.Terms[0]) > 0 {
			post.Category = html.UnescapeString(e.Terms[0][0].Name)
		}
		if len(e.Terms) > 1 {
			names := make([]string, 0, len(e.Terms[1]))
			for _, term := range e.Terms[1] {
				names = append(names, html.UnescapeString(term.Name))
			}
			post.Tags = models.NormalizeTags(names)
		}
	}
	return post
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

func stripHTML(s string) string {
	s = tagPattern.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(html.UnescapeString(s))
}

// parseTime reads a WordPress timestamp. The *_gmt fields carry no offset
// and are UTC; the local fields are used when the GMT ones are missing.
func parseTime(gmt, local string) time.Time {
	for _, value := range []string{gmt, local} {
		if value == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339, value); err == nil {
			return t.UTC()
		}
		if t, err := time.Parse("2006-01-02T15:04:05", value); err == nil {
			return t
		}
	}
	return time.Time{}
}

// matchTerm prefers an exact name or slug match over the search ranking.
func matchTerm(terms []wpTerm, category string) (wpTerm, bool) {
	if len(terms) == 0 {
		return wpTerm{}, false
	}
	for _, term := range terms {
		if strings.EqualFold(html.UnescapeString(term.Name), category) || strings.EqualFold(term.Slug, category) {
			return term, true
		}
	}
	return terms[0], true
}

func perPage(limit int) int {
	if limit > maxPerPage {
		return maxPerPage
	}
	return limit
}
