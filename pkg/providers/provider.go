package providers

import (
	"context"
	"strings"
	"time"

	"github.com/Adda-Baaj/seema-khobor/internal/domain"
	"github.com/Adda-Baaj/seema-khobor/pkg/httpclient"
)

// Supported listing types.
const (
	ProviderTypeHTML       = "html"
	ProviderTypeRSS        = "rss"
	ProviderTypeGoogleNews = "sitemap"
)

// Provider is one configured news outlet and its listing URL.
type Provider struct {
	ID             string            `mapstructure:"id" yaml:"id" json:"id"`
	Name           string            `mapstructure:"name" yaml:"name" json:"name"`
	Type           string            `mapstructure:"type" yaml:"type" json:"type"`
	SourceURL      string            `mapstructure:"url" yaml:"url" json:"url"`
	Headers        map[string]string `mapstructure:"headers" yaml:"headers" json:"headers,omitempty"`
	RequestDelayMS int               `mapstructure:"request_delay_ms" yaml:"request_delay_ms" json:"request_delay_ms,omitempty"`
}

// RequestDelay returns the pause between article requests for this provider.
func (p Provider) RequestDelay() time.Duration {
	if p.RequestDelayMS <= 0 {
		return 0
	}
	return time.Duration(p.RequestDelayMS) * time.Millisecond
}

// DisplayName falls back to the id when no name is configured.
func (p Provider) DisplayName() string {
	if name := strings.TrimSpace(p.Name); name != "" {
		return name
	}
	return p.ID
}

// Headers returns a copy of the provider's request headers.
func Headers(cfg Provider) map[string]string {
	if len(cfg.Headers) == 0 {
		return nil
	}
	out := make(map[string]string, len(cfg.Headers))
	for k, v := range cfg.Headers {
		out[k] = v
	}
	return out
}

// HTTPClient is the transport used by fetchers.
type HTTPClient = httpclient.Client

// Matcher decides whether discovered text is on topic.
type Matcher interface {
	Matches(text string) bool
}

// Fetcher discovers candidates on a provider's listing.
type Fetcher interface {
	ID() string
	Fetch(ctx context.Context, cfg Provider, match Matcher) ([]domain.Candidate, error)
}

// FetcherRegistry selects a Fetcher for a provider.
type FetcherRegistry interface {
	FetcherFor(cfg Provider) (Fetcher, error)
}
