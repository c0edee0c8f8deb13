// Package domain contains core models shared by the pipeline stages.
package domain

import (
	"strings"
	"time"
)

// Candidate is an article reference discovered on a listing page. It is never
// mutated once built.
type Candidate struct {
	Title      string
	Href       string
	URL        string
	SourceID   string
	SourceName string
	// PublishedHint is set by feed and sitemap listings that carry a date.
	PublishedHint time.Time
}

// Article is a candidate after enrichment.
type Article struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Source      string    `json:"source"`
	URL         string    `json:"url"`
	Image       *string   `json:"image"`
	PublishedAt time.Time `json:"publishedAt"`
}

// MergedArticle is one story after duplicate collapsing, with its score.
type MergedArticle struct {
	Article
	Score float64 `json:"score"`
}

// Sources splits the merged source attribution back into names.
func (m MergedArticle) Sources() []string {
	return SplitSources(m.Source)
}

// SourceSeparator joins source names on a merged article.
const SourceSeparator = ", "

// SplitSources splits a merged source attribution.
func SplitSources(joined string) []string {
	if joined == "" {
		return nil
	}
	return strings.Split(joined, SourceSeparator)
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
