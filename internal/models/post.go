package models

import (
	"strings"
	"time"
)

// Status is the publication state of a post
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// Format describes how a post body is encoded
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// Categories is the fixed set of categories a local post can use
var Categories = []string{
	"Industry News",
	"Case Study",
	"Research",
	"Company Updates",
	"Thought Leadership",
	"Product Updates",
}

// Post represents a news/blog post
type Post struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Excerpt     string    `json:"excerpt"`
	Content     string    `json:"content"`
	Category    string    `json:"category"`
	Author      string    `json:"author"`
	PublishedAt time.Time `json:"publishedAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Featured    bool      `json:"featured"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	Tags        []string  `json:"tags"`
	Status      Status    `json:"status"`
	Format      Format    `json:"format,omitempty"`
}

// IsPublished reports whether the post may appear on public read paths
func (p Post) IsPublished() bool {
	return p.Status == StatusPublished
}

// BodyFormat returns the post format, treating an unset format as markdown
func (p Post) BodyFormat() Format {
	if p.Format == "" {
		return FormatMarkdown
	}
	return p.Format
}

// PostInput represents the request body for creating a post
type PostInput struct {
	Title    string   `json:"title"`
	Excerpt  string   `json:"excerpt"`
	Content  string   `json:"content"`
	Category string   `json:"category"`
	Author   string   `json:"author"`
	Featured *bool    `json:"featured,omitempty"`
	ImageURL string   `json:"imageUrl,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Status   Status   `json:"status,omitempty"`
}

// PostPatch represents the request body for updating a post. Nil fields are left untouched.
type PostPatch struct {
	Title    *string   `json:"title,omitempty"`
	Excerpt  *string   `json:"excerpt,omitempty"`
	Content  *string   `json:"content,omitempty"`
	Category *string   `json:"category,omitempty"`
	Author   *string   `json:"author,omitempty"`
	Featured *bool     `json:"featured,omitempty"`
	ImageURL *string   `json:"imageUrl,omitempty"`
	Tags     *[]string `json:"tags,omitempty"`
	Status   *Status   `json:"status,omitempty"`
}

// PostView is a rendered post together with its related posts
type PostView struct {
	Post    Post   `json:"post"`
	HTML    string `json:"html"`
	Related []Post `json:"related"`
}

// SearchResponse represents search results
type SearchResponse struct {
	Posts []Post `json:"posts"`
	Total int    `json:"total"`
}

// NormalizeTags trims tags, drops empty ones and removes duplicates, keeping first-seen order
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// Published returns the published posts from the slice, preserving order
func Published(posts []Post) []Post {
	out := make([]Post, 0, len(posts))
	for _, p := range posts {
		if p.IsPublished() {
			out = append(out, p)
		}
	}
	return out
}
