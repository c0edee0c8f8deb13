// Package aggregator runs the full harvest: discovery, enrichment, merge,
// scoring and ordering.
package aggregator

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Adda-Baaj/seema-khobor/internal/crawler"
	"github.com/Adda-Baaj/seema-khobor/internal/domain"
	"github.com/Adda-Baaj/seema-khobor/internal/keywords"
	"github.com/Adda-Baaj/seema-khobor/internal/logger"
	"github.com/Adda-Baaj/seema-khobor/internal/merge"
	"github.com/Adda-Baaj/seema-khobor/internal/rank"
	"github.com/Adda-Baaj/seema-khobor/pkg/httpclient"
	"github.com/Adda-Baaj/seema-khobor/pkg/providers"
)

const defaultSourceWorkers = 4

// ErrTransportUnavailable is returned when no connection to any source could
// be established at all.
var ErrTransportUnavailable = errors.New("transport unavailable: no source could be reached")

// Options wires a Pipeline. Sources and Keywords are required; everything
// else has a default.
type Options struct {
	Sources  []providers.Provider
	Keywords []string

	Client        httpclient.Client
	Fetchers      providers.FetcherRegistry
	DateRules     *crawler.DateRules
	MergeMode     string
	SourceWorkers int
	EnrichWorkers int
	RequestDelay  time.Duration
	// RunBudget bounds a whole run; zero disables the budget.
	RunBudget time.Duration
	Logger    logger.Logger
	// Now is the clock; tests pin it.
	Now func() time.Time
}

// Stats summarizes one run.
type Stats struct {
	SourcesTotal  int  `json:"sourcesTotal"`
	SourcesFailed int  `json:"sourcesFailed"`
	Candidates    int  `json:"candidates"`
	Merged        int  `json:"merged"`
	BudgetHit     bool `json:"budgetHit"`
}

// Result is the ordered output of one run.
type Result struct {
	RunID      string                 `json:"runId"`
	Articles   []domain.MergedArticle `json:"articles"`
	CapturedAt time.Time              `json:"capturedAt"`
	Stats      Stats                  `json:"stats"`
}

// Pipeline is stateless between runs; Run may be called concurrently.
type Pipeline struct {
	sources       []providers.Provider
	filter        *keywords.Filter
	fetchers      providers.FetcherRegistry
	scraper       *crawler.Scraper
	merger        *merge.Engine
	sourceWorkers int
	runBudget     time.Duration
	log           logger.Logger
	now           func() time.Time
}

// New builds a Pipeline from opts.
func New(opts Options) (*Pipeline, error) {
	log := logger.Ensure(opts.Logger)

	client := opts.Client
	if client == nil {
		client = providers.DefaultHTTPClient()
	}
	fetchers := opts.Fetchers
	if fetchers == nil {
		fetchers = providers.DefaultFetcherRegistry(client)
	}
	merger, err := merge.New(opts.MergeMode)
	if err != nil {
		return nil, err
	}
	workers := opts.SourceWorkers
	if workers <= 0 {
		workers = defaultSourceWorkers
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	sources := make([]providers.Provider, len(opts.Sources))
	copy(sources, opts.Sources)

	byID := make(map[string]providers.Provider, len(sources))
	for _, src := range sources {
		byID[src.ID] = src
	}

	scraper := crawler.NewScraper(client, log, crawler.Options{
		Workers:      opts.EnrichWorkers,
		RequestDelay: opts.RequestDelay,
		Rules:        opts.DateRules,
		Headers: func(sourceID string) map[string]string {
			return providers.Headers(byID[sourceID])
		},
		SourceDelay: func(sourceID string) time.Duration {
			return byID[sourceID].RequestDelay()
		},
	})

	return &Pipeline{
		sources:       sources,
		filter:        keywords.New(opts.Keywords),
		fetchers:      fetchers,
		scraper:       scraper,
		merger:        merger,
		sourceWorkers: workers,
		runBudget:     opts.RunBudget,
		log:           log,
		now:           now,
	}, nil
}

// Run performs one aggregation. Partial failures never abort it; they only
// shrink the result, and an empty registry or every source failing yields an
// empty list. The one error, always alongside an empty list, is
// ErrTransportUnavailable. When the run budget expires the articles gathered
// so far are returned.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	capturedAt := p.now().UTC()
	res := Result{RunID: uuid.NewString(), CapturedAt: capturedAt, Articles: []domain.MergedArticle{}}
	res.Stats.SourcesTotal = len(p.sources)

	if len(p.sources) == 0 {
		p.log.WarnObj("no sources configured", "run_no_sources", map[string]any{
			"run_id": res.RunID,
		})
		return res, nil
	}

	if p.runBudget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.runBudget)
		defer cancel()
	}

	discovered := p.discover(ctx)

	transportDown := true
	var candidates []domain.Candidate
	for _, d := range discovered {
		if d.err != nil {
			res.Stats.SourcesFailed++
			if !isUnreachable(d.err) {
				transportDown = false
			}
			continue
		}
		transportDown = false
		candidates = append(candidates, d.candidates...)
	}
	if transportDown && ctx.Err() == nil {
		p.log.ErrorObj("no source could be reached", "run_transport_down", map[string]any{
			"run_id":  res.RunID,
			"sources": res.Stats.SourcesTotal,
		})
		return res, ErrTransportUnavailable
	}

	candidates = dedupByURL(candidates)
	res.Stats.Candidates = len(candidates)

	articles := p.scraper.Enrich(ctx, candidates, capturedAt)

	merged := p.merger.Merge(articles)
	rank.Apply(merged, p.now(), p.filter)
	rank.Sort(merged)

	if merged != nil {
		res.Articles = merged
	}
	res.Stats.Merged = len(merged)
	res.Stats.BudgetHit = ctx.Err() != nil

	p.log.InfoObj("aggregation finished", "run_complete", map[string]any{
		"run_id":         res.RunID,
		"sources":        res.Stats.SourcesTotal,
		"keywords":       p.filter.Len(),
		"sources_failed": res.Stats.SourcesFailed,
		"candidates":     res.Stats.Candidates,
		"merged":         res.Stats.Merged,
		"budget_hit":     res.Stats.BudgetHit,
		"elapsed_ms":     p.now().Sub(capturedAt).Milliseconds(),
	})
	return res, nil
}

// sourceResult is what one discovery task produced.
type sourceResult struct {
	candidates []domain.Candidate
	err        error
}

// discover scans every source with bounded concurrency. Results are indexed
// by registry position so downstream order never depends on completion order.
func (p *Pipeline) discover(ctx context.Context) []sourceResult {
	results := make([]sourceResult, len(p.sources))

	var g errgroup.Group
	g.SetLimit(p.sourceWorkers)

	for i, src := range p.sources {
		g.Go(func() error {
			results[i] = p.discoverSource(ctx, src)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// discoverSource fetches one listing, logging and returning any failure.
func (p *Pipeline) discoverSource(ctx context.Context, src providers.Provider) sourceResult {
	if err := ctx.Err(); err != nil {
		return sourceResult{err: err}
	}

	fetcher, err := p.fetchers.FetcherFor(src)
	if err != nil {
		p.log.ErrorObj("no fetcher for source", "source_config_error", map[string]any{
			"source_id": src.ID,
			"error":     err.Error(),
		})
		return sourceResult{err: err}
	}

	candidates, err := fetcher.Fetch(ctx, src, p.filter)
	if err != nil {
		p.log.WarnObj("source listing fetch failed", "source_error", map[string]any{
			"source_id": src.ID,
			"url":       src.SourceURL,
			"error":     err.Error(),
		})
		return sourceResult{err: err}
	}

	p.log.DebugObj("source listing scanned", "source_scanned", map[string]any{
		"source_id":  src.ID,
		"candidates": len(candidates),
	})
	return sourceResult{candidates: candidates}
}

// dedupByURL keeps the first candidate for each URL.
func dedupByURL(in []domain.Candidate) []domain.Candidate {
	seen := make(map[string]struct{}, len(in))
	out := make([]domain.Candidate, 0, len(in))
	for _, c := range in {
		if _, ok := seen[c.URL]; ok {
			continue
		}
		seen[c.URL] = struct{}{}
		out = append(out, c)
	}
	return out
}

// isUnreachable reports whether err means no connection was ever made: a
// failed name lookup or a refused dial. Timeouts are ordinary source failures.
func isUnreachable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return false
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}
