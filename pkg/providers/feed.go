package providers

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/Adda-Baaj/seema-khobor/internal/domain"
)

// feedFetcher discovers candidates from RSS or Atom feeds.
type feedFetcher struct {
	client HTTPClient
}

// NewFeedFetcher builds a Fetcher for RSS/Atom listing feeds.
func NewFeedFetcher(client HTTPClient) Fetcher {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &feedFetcher{client: client}
}

func (f *feedFetcher) ID() string {
	return ProviderTypeRSS
}

// Fetch parses the feed and keeps items whose title matches.
func (f *feedFetcher) Fetch(ctx context.Context, cfg Provider, match Matcher) ([]domain.Candidate, error) {
	if err := validateProvider(cfg, ProviderTypeRSS); err != nil {
		return nil, err
	}

	raw, _, err := fetchPage(ctx, f.client, cfg)
	if err != nil {
		return nil, err
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode %s feed: %w", cfg.ID, err)
	}

	collector := newCandidateCollector(cfg, match)
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		collector.add(item.Title, item.Link, itemPublished(item))
	}
	return collector.out, nil
}

// itemPublished prefers the published date over the updated one.
func itemPublished(item *gofeed.Item) time.Time {
	switch {
	case item.PublishedParsed != nil:
		return item.PublishedParsed.UTC()
	case item.UpdatedParsed != nil:
		return item.UpdatedParsed.UTC()
	default:
		return time.Time{}
	}
}
