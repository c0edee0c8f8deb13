package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/Adda-Baaj/seema-khobor/internal/domain"
)

// htmlListingFetcher scans a listing page's anchors for on-topic headlines.
type htmlListingFetcher struct {
	client HTTPClient
}

// NewHTMLListingFetcher builds a Fetcher for plain HTML listing pages.
func NewHTMLListingFetcher(client HTTPClient) Fetcher {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &htmlListingFetcher{client: client}
}

func (f *htmlListingFetcher) ID() string {
	return ProviderTypeHTML
}

// Fetch downloads the listing page and keeps anchors whose text matches.
func (f *htmlListingFetcher) Fetch(ctx context.Context, cfg Provider, match Matcher) ([]domain.Candidate, error) {
	if err := validateProvider(cfg, ProviderTypeHTML); err != nil {
		return nil, err
	}

	raw, contentType, err := fetchPage(ctx, f.client, cfg)
	if err != nil {
		return nil, err
	}
	raw = ToUTF8(raw, contentType)

	links, err := ExtractLinks(raw)
	if err != nil {
		return nil, fmt.Errorf("extract %s links: %w", cfg.ID, err)
	}

	collector := newCandidateCollector(cfg, match)
	for _, l := range links {
		collector.add(l.Text, l.Href, time.Time{})
	}
	return collector.out, nil
}
