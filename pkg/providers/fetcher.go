package providers

import (
	"fmt"
	"strings"
	"sync"

	"github.com/Adda-Baaj/seema-khobor/pkg/httpclient"
)

type fetcherRegistry struct {
	fetchers map[string]Fetcher
	mu       sync.RWMutex
}

// NewFetcherRegistry builds a registry for the provided fetcher implementations.
func NewFetcherRegistry(fetchers ...Fetcher) FetcherRegistry {
	reg := &fetcherRegistry{
		fetchers: make(map[string]Fetcher, len(fetchers)),
	}

	for _, f := range fetchers {
		if f == nil {
			continue
		}
		reg.fetchers[strings.ToLower(strings.TrimSpace(f.ID()))] = f
	}

	return reg
}

// FetcherFor selects the fetcher for the given provider based on its listing type.
// An empty type means an HTML listing page.
func (r *fetcherRegistry) FetcherFor(cfg Provider) (Fetcher, error) {
	if cfg.ID == "" {
		return nil, fmt.Errorf("provider id is empty")
	}

	key := strings.ToLower(strings.TrimSpace(cfg.Type))
	if key == "" {
		key = ProviderTypeHTML
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if f, ok := r.fetchers[key]; ok {
		return f, nil
	}

	return nil, fmt.Errorf("no fetcher registered for provider %q type %q", cfg.ID, cfg.Type)
}

// DefaultHTTPClient returns the resty client used when none is injected.
func DefaultHTTPClient() HTTPClient { return httpclient.NewRestyClient(httpclient.DefaultTimeout) }

// DefaultFetcherRegistry wires up the known listing fetchers.
func DefaultFetcherRegistry(client HTTPClient) FetcherRegistry {
	if client == nil {
		client = DefaultHTTPClient()
	}

	return NewFetcherRegistry(
		NewHTMLListingFetcher(client),
		NewFeedFetcher(client),
		NewGoogleNewsFetcher(client),
	)
}
