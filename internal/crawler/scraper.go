package crawler

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/Adda-Baaj/seema-khobor/internal/domain"
	"github.com/Adda-Baaj/seema-khobor/internal/logger"
	"github.com/Adda-Baaj/seema-khobor/pkg/httpclient"
	"github.com/Adda-Baaj/seema-khobor/pkg/providers"

	"github.com/PuerkitoBio/goquery"
)

const (
	maxHTMLBodyBytes  = 1 << 20 // 1 MiB
	maxArticleWorkers = 10
)

// Options tunes the Scraper.
type Options struct {
	// Workers caps concurrent article fetches. Zero means maxArticleWorkers.
	Workers int
	// RequestDelay spaces out article requests across all workers.
	RequestDelay time.Duration
	// Rules selects publish-time extraction per source.
	Rules *DateRules
	// Headers returns extra request headers for a source id.
	Headers func(sourceID string) map[string]string
	// SourceDelay returns an extra pause before each article fetch of a source.
	SourceDelay func(sourceID string) time.Duration
}

// Scraper enriches candidates by scraping their article pages for metadata.
type Scraper struct {
	client httpclient.Client
	log    logger.Logger
	opts   Options
}

// NewScraper creates a new Scraper with the given HTTP client and logger.
func NewScraper(client httpclient.Client, log logger.Logger, opts Options) *Scraper {
	if client == nil {
		client = providers.DefaultHTTPClient()
	}
	if opts.Workers <= 0 {
		opts.Workers = maxArticleWorkers
	}
	if opts.Rules == nil {
		opts.Rules = DefaultDateRules()
	}
	return &Scraper{client: client, log: logger.Ensure(log), opts: opts}
}

// Enrich fetches every candidate's page once and fills in description, image
// and publish time. It never fails: a candidate whose page cannot be fetched
// keeps empty metadata and a fallback timestamp (its feed hint, else capturedAt).
func (s *Scraper) Enrich(ctx context.Context, candidates []domain.Candidate, capturedAt time.Time) []domain.Article {
	out := make([]domain.Article, len(candidates))
	for i, c := range candidates {
		out[i] = baseArticle(c, capturedAt) // partial results survive cancellation
	}

	if len(candidates) == 0 {
		return out
	}

	workerCount := min(len(candidates), s.opts.Workers)

	var limiter <-chan time.Time
	if s.opts.RequestDelay > 0 {
		ticker := time.NewTicker(s.opts.RequestDelay)
		limiter = ticker.C
		defer ticker.Stop()
	}

	jobCh := make(chan int)
	var wg sync.WaitGroup

	for workerID := range workerCount {
		wg.Add(1)
		go s.articleWorker(ctx, candidates, limiter, jobCh, out, &wg, workerID)
	}

dispatch:
	for idx := range candidates {
		select {
		case <-ctx.Done():
			break dispatch
		case jobCh <- idx:
		}
	}
	close(jobCh)

	wg.Wait()

	return out
}

// articleWorker processes candidates from the job channel, respecting the rate limiter.
func (s *Scraper) articleWorker(
	ctx context.Context,
	candidates []domain.Candidate,
	limiter <-chan time.Time,
	jobCh <-chan int,
	out []domain.Article,
	wg *sync.WaitGroup,
	workerID int,
) {
	defer wg.Done()

	for idx := range jobCh {
		if ctx.Err() != nil {
			continue // drain so the dispatcher never blocks
		}

		if limiter != nil {
			select {
			case <-ctx.Done():
				continue
			case <-limiter:
			}
		}

		c := candidates[idx]
		if !s.pause(ctx, c.SourceID) {
			continue
		}
		enriched, err := s.fetchAndParse(ctx, c, out[idx], workerID)
		if err != nil {
			s.log.WarnObj("article metadata scrape failed", "metadata_error", map[string]any{
				"worker_id": workerID,
				"source_id": c.SourceID,
				"url":       c.URL,
				"error":     err.Error(),
			})
			continue
		}
		out[idx] = enriched
	}
}

// pause waits out the source's politeness delay. It reports false when ctx
// ended first.
func (s *Scraper) pause(ctx context.Context, sourceID string) bool {
	if s.opts.SourceDelay == nil {
		return true
	}
	d := s.opts.SourceDelay(sourceID)
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// fetchAndParse fetches the article HTML and parses metadata into art.
func (s *Scraper) fetchAndParse(ctx context.Context, c domain.Candidate, art domain.Article, workerID int) (domain.Article, error) {
	var headers map[string]string
	if s.opts.Headers != nil {
		headers = s.opts.Headers(c.SourceID)
	}

	s.log.DebugObj("scraping article metadata", "scrape_start", map[string]any{
		"worker_id": workerID,
		"source_id": c.SourceID,
		"url":       c.URL,
	})

	resp, err := s.client.Get(ctx, c.URL, headers)
	if err != nil {
		return art, fmt.Errorf("http fetch: %w", err)
	}

	body := resp.Body()
	if len(body) > maxHTMLBodyBytes {
		s.log.InfoObj("html body truncated", "truncation", map[string]any{
			"worker_id": workerID,
			"source_id": c.SourceID,
			"url":       c.URL,
			"original":  len(body),
			"kept":      maxHTMLBodyBytes,
		})
		body = body[:maxHTMLBodyBytes]
	}
	body = providers.ToUTF8(body, resp.Header().Get("Content-Type"))

	meta, err := parseMeta(body, s.opts.Rules.For(c.SourceID))
	if err != nil {
		return art, err
	}

	updated := art
	updated.Description = meta.Description
	if meta.ImageURL != "" {
		updated.Image = domain.StringPtr(resolveURL(meta.ImageURL, c.URL))
	}
	if !meta.PublishedAt.IsZero() {
		updated.PublishedAt = meta.PublishedAt
	}

	return updated, nil
}

// baseArticle is the article a candidate becomes before (or without) enrichment.
func baseArticle(c domain.Candidate, capturedAt time.Time) domain.Article {
	published := capturedAt
	if !c.PublishedHint.IsZero() {
		published = c.PublishedHint
	}
	return domain.Article{
		Title:       c.Title,
		Source:      c.SourceName,
		URL:         c.URL,
		PublishedAt: published,
	}
}

// parseMeta extracts page metadata from the HTML body.
func parseMeta(body []byte, dateSelectors []Selector) (pageMeta, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return pageMeta{}, fmt.Errorf("parse html: %w", err)
	}

	pm := pageMeta{}

	extract := func(sel string) string {
		if node := doc.Find(sel).First(); node.Length() > 0 {
			if val, ok := node.Attr("content"); ok {
				return strings.TrimSpace(val)
			}
		}
		return ""
	}

	pm.Description = firstNonEmpty(
		extract(`meta[name="description"]`),
		doc.Find("p").First().Text(),
	)

	firstImg, _ := doc.Find("img").First().Attr("src")
	pm.ImageURL = firstNonEmpty(
		extract(`meta[property="og:image"]`),
		firstImg,
	)

	if t, ok := extractPublished(doc, dateSelectors); ok {
		pm.PublishedAt = t
	}

	return pm, nil
}

// pageMeta holds metadata extracted from an HTML page.
type pageMeta struct {
	Description string
	ImageURL    string
	PublishedAt time.Time
}

// firstNonEmpty returns the first non-empty string from the given values.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// resolveURL resolves a possibly relative URL against a base URL.
func resolveURL(raw, base string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if parsed.IsAbs() {
		return parsed.String()
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return raw
	}

	return baseURL.ResolveReference(parsed).String()
}
