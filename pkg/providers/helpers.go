package providers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Adda-Baaj/seema-khobor/internal/domain"
	"github.com/Adda-Baaj/seema-khobor/pkg/httpclient"
)

const maxListingBodyBytes = 4 << 20 // 4 MiB

// fetchPage downloads a listing, capped at maxListingBodyBytes, and returns
// the body with its Content-Type.
func fetchPage(ctx context.Context, client httpclient.Client, cfg Provider) ([]byte, string, error) {
	resp, err := client.Get(ctx, cfg.SourceURL, Headers(cfg))
	if err != nil {
		return nil, "", fmt.Errorf("fetch %s listing: %w", cfg.ID, err)
	}

	body := resp.Body()
	if len(body) > maxListingBodyBytes {
		body = body[:maxListingBodyBytes]
	}
	return body, resp.Header().Get("Content-Type"), nil
}

// validateProvider checks the fields every listing fetcher needs.
func validateProvider(cfg Provider, wantType string) error {
	typ := strings.ToLower(strings.TrimSpace(cfg.Type))
	if typ == "" {
		typ = ProviderTypeHTML
	}
	if typ != wantType {
		return fmt.Errorf("%s fetcher received incompatible provider type %q", wantType, cfg.Type)
	}
	if strings.TrimSpace(cfg.SourceURL) == "" {
		return fmt.Errorf("provider %q source_url is empty", cfg.ID)
	}
	return nil
}

// candidateCollector keeps first-seen candidates for one listing.
type candidateCollector struct {
	cfg   Provider
	match Matcher
	seen  map[string]struct{}
	out   []domain.Candidate
}

func newCandidateCollector(cfg Provider, match Matcher) *candidateCollector {
	return &candidateCollector{cfg: cfg, match: match, seen: make(map[string]struct{})}
}

// add records a candidate when its title is on topic and its URL is new.
func (c *candidateCollector) add(title, href string, published time.Time) {
	title = strings.TrimSpace(title)
	if c.match != nil && !c.match.Matches(title) {
		return
	}
	c.addMatched(title, href, published)
}

// addMatched records a candidate whose topic was already checked.
func (c *candidateCollector) addMatched(title, href string, published time.Time) {
	title = strings.TrimSpace(title)
	if title == "" || href == "" {
		return
	}
	resolved, ok := ResolveURL(c.cfg.SourceURL, href)
	if !ok {
		return
	}
	if _, dup := c.seen[resolved]; dup {
		return
	}
	c.seen[resolved] = struct{}{}
	c.out = append(c.out, domain.Candidate{
		Title:         title,
		Href:          href,
		URL:           resolved,
		SourceID:      c.cfg.ID,
		SourceName:    c.cfg.DisplayName(),
		PublishedHint: published,
	})
}

// parsePublicationDate attempts to parse a feed or sitemap publication date.
func parsePublicationDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}

	for _, layout := range []string{time.RFC3339, time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}

	return time.Time{}
}
