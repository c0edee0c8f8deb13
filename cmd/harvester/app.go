package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Adda-Baaj/seema-khobor/internal/aggregator"
	"github.com/Adda-Baaj/seema-khobor/internal/config"
	"github.com/Adda-Baaj/seema-khobor/internal/domain"
	"github.com/Adda-Baaj/seema-khobor/internal/logger"
	"github.com/Adda-Baaj/seema-khobor/pkg/httpclient"
	"github.com/Adda-Baaj/seema-khobor/pkg/providers"
	"github.com/Adda-Baaj/seema-khobor/pkg/publishers"
)

// runner is the part of the pipeline the commands depend on.
type runner interface {
	Run(ctx context.Context) (aggregator.Result, error)
}

// app bundles everything a command needs once config is loaded.
type app struct {
	cfg      *config.Config
	log      logger.Logger
	pipeline *aggregator.Pipeline
}

// newApp loads config and builds the pipeline. A non-empty only restricts the
// run to that source (matched by id or display name).
func newApp(path, only string) (*app, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return nil, err
	}

	sources := cfg.Sources
	if only = strings.TrimSpace(only); only != "" {
		src, ok := cfg.SourceByName(only)
		if !ok {
			return nil, fmt.Errorf("unknown source %q", only)
		}
		sources = []providers.Provider{src}
	}

	rules, err := cfg.BuildDateRules()
	if err != nil {
		return nil, err
	}

	pipeline, err := aggregator.New(aggregator.Options{
		Sources:       sources,
		Keywords:      cfg.Keywords,
		Client:        httpclient.NewRestyClientWithAgent(cfg.HTTP.Timeout, cfg.HTTP.UserAgent),
		DateRules:     rules,
		MergeMode:     cfg.Merge.Mode,
		SourceWorkers: cfg.Pipeline.SourceWorkers,
		EnrichWorkers: cfg.Pipeline.EnrichWorkers,
		RequestDelay:  cfg.Pipeline.RequestDelay,
		RunBudget:     cfg.Pipeline.RunBudget,
		Logger:        log,
	})
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, log: log, pipeline: pipeline}, nil
}

// publish fans the ranked articles out to every enabled publisher.
func (a *app) publish(ctx context.Context, res aggregator.Result) error {
	if strings.TrimSpace(a.cfg.PublishersFile) == "" {
		return fmt.Errorf("no publishers_file configured")
	}
	reg, err := publishers.LoadRegistry(a.cfg.PublishersFile)
	if err != nil {
		return err
	}
	pubs, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), reg.Enabled(), a.log)
	if err != nil {
		return err
	}
	if len(pubs) == 0 {
		a.log.WarnObj("no enabled publishers", "publish_skipped", map[string]any{
			"file": a.cfg.PublishersFile,
		})
		return nil
	}
	_, err = publishers.PublishAll(ctx, pubs, publishers.Batch{
		RunID:      res.RunID,
		CapturedAt: res.CapturedAt,
		Articles:   res.Articles,
	}, a.log)
	return err
}

// envelope is the response shape of both the CLI and the HTTP route.
type envelope struct {
	Success   bool                   `json:"success"`
	Data      []domain.MergedArticle `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
}

type errorEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// scrapeFailed is the body returned when a run produced nothing usable.
var scrapeFailed = errorEnvelope{Success: false, Error: "Scraping failed"}

func okEnvelope(articles []domain.MergedArticle, at time.Time) envelope {
	if articles == nil {
		articles = []domain.MergedArticle{}
	}
	return envelope{Success: true, Data: articles, Timestamp: at.UTC()}
}

// filterBySource keeps articles whose source list contains name. Empty and
// "all" keep everything.
func filterBySource(articles []domain.MergedArticle, name string) []domain.MergedArticle {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "all") {
		return articles
	}
	out := make([]domain.MergedArticle, 0, len(articles))
	for _, a := range articles {
		if strings.Contains(a.Source, name) {
			out = append(out, a)
		}
	}
	return out
}

// distinctSources lists every contributing source name in first-seen order.
func distinctSources(articles []domain.MergedArticle) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, a := range articles {
		for _, s := range a.Sources() {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
