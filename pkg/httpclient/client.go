// Package httpclient is the single outbound HTTP surface of the harvester.
package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultTimeout bounds every outbound request.
const DefaultTimeout = 15 * time.Second

const defaultUserAgent = "Mozilla/5.0 (compatible; seema-khobor/1.0; +https://github.com/Adda-Baaj/seema-khobor)"

// Client performs GET requests. Implementations must honour ctx and their own timeout.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (*resty.Response, error)
}

// StatusError reports a response that arrived with a non-2xx status.
type StatusError struct {
	URL        string
	StatusCode int
	Snippet    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d body: %s", e.URL, e.StatusCode, e.Snippet)
}

type restyClient struct {
	r *resty.Client
}

// NewRestyClient returns a resty-backed Client with the given timeout and no retries.
func NewRestyClient(timeout time.Duration) Client {
	return NewRestyClientWithAgent(timeout, "")
}

// NewRestyClientWithAgent is NewRestyClient with an explicit User-Agent.
func NewRestyClientWithAgent(timeout time.Duration, userAgent string) Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if strings.TrimSpace(userAgent) == "" {
		userAgent = defaultUserAgent
	}

	r := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(10)).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	return &restyClient{r: r}
}

// Get issues a GET and returns a *StatusError for non-2xx responses.
func (c *restyClient) Get(ctx context.Context, url string, headers map[string]string) (*resty.Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	req := c.r.R().SetContext(ctx)
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}

	resp, err := req.Get(url)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		return resp, &StatusError{
			URL:        url,
			StatusCode: resp.StatusCode(),
			Snippet:    Snippet(resp.Body()),
		}
	}
	return resp, nil
}

// Snippet returns a truncated body excerpt for logs and errors.
func Snippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}
