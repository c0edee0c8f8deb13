// Package config loads harvester settings from YAML, .env and HARVESTER_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Adda-Baaj/seema-khobor/internal/crawler"
	"github.com/Adda-Baaj/seema-khobor/internal/merge"
	"github.com/Adda-Baaj/seema-khobor/pkg/providers"
)

// Config is the root configuration.
type Config struct {
	Log            LogConfig                     `mapstructure:"log"             yaml:"log"`
	HTTP           HTTPConfig                    `mapstructure:"http"            yaml:"http"`
	Pipeline       PipelineConfig                `mapstructure:"pipeline"        yaml:"pipeline"`
	Merge          MergeConfig                   `mapstructure:"merge"           yaml:"merge"`
	Keywords       []string                      `mapstructure:"keywords"        yaml:"keywords"`
	Sources        []providers.Provider          `mapstructure:"sources"         yaml:"sources"`
	DateRules      map[string][]crawler.Selector `mapstructure:"date_rules"      yaml:"date_rules"`
	Cache          CacheConfig                   `mapstructure:"cache"           yaml:"cache"`
	Server         ServerConfig                  `mapstructure:"server"          yaml:"server"`
	PublishersFile string                        `mapstructure:"publishers_file" yaml:"publishers_file"`
}

// LogConfig selects zap level and encoder.
type LogConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// HTTPConfig controls the outbound client.
type HTTPConfig struct {
	Timeout   time.Duration `mapstructure:"timeout"    yaml:"timeout"`
	UserAgent string        `mapstructure:"user_agent" yaml:"user_agent"`
}

// PipelineConfig bounds the fan-out of a run.
type PipelineConfig struct {
	SourceWorkers int           `mapstructure:"source_workers" yaml:"source_workers"`
	EnrichWorkers int           `mapstructure:"enrich_workers" yaml:"enrich_workers"`
	RequestDelay  time.Duration `mapstructure:"request_delay"  yaml:"request_delay"`
	RunBudget     time.Duration `mapstructure:"run_budget"     yaml:"run_budget"`
}

// MergeConfig picks the duplicate relation.
type MergeConfig struct {
	Mode string `mapstructure:"mode" yaml:"mode"`
}

// CacheConfig controls the serve command's snapshot reuse.
type CacheConfig struct {
	Path string        `mapstructure:"path" yaml:"path"`
	TTL  time.Duration `mapstructure:"ttl"  yaml:"ttl"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// DefaultKeywords is the defence and internal-security topic list.
func DefaultKeywords() []string {
	return []string{
		"war", "attack", "border", "terror", "clash", "military", "army", "navy", "air force",
		"loc", "ladakh", "kashmir", "pakistan", "china", "drdo", "naxal", "manipur", "insurgency",
		"operation", "terrorist", "counter terror", "bombing", "ied", "terror suspect", "terror cell",
	}
}

// DefaultSources are the national news listings scanned out of the box.
func DefaultSources() []providers.Provider {
	return []providers.Provider{
		{ID: "the-hindu", Name: "The Hindu", Type: providers.ProviderTypeHTML, SourceURL: "https://www.thehindu.com/news/national/"},
		{ID: "indian-express", Name: "Indian Express", Type: providers.ProviderTypeHTML, SourceURL: "https://indianexpress.com/section/india/"},
		{ID: "wion", Name: "WION", Type: providers.ProviderTypeHTML, SourceURL: "https://www.wionews.com/india"},
	}
}

// DefaultConfig returns the configuration used when nothing overrides it.
func DefaultConfig() *Config {
	return &Config{
		Log:  LogConfig{Level: "info", Format: "json"},
		HTTP: HTTPConfig{Timeout: 15 * time.Second},
		Pipeline: PipelineConfig{
			SourceWorkers: 4,
			EnrichWorkers: 10,
			RunBudget:     50 * time.Second,
		},
		Merge:    MergeConfig{Mode: merge.ModeExact},
		Keywords: DefaultKeywords(),
		Sources:  DefaultSources(),
		Cache:    CacheConfig{Path: "harvester.db", TTL: time.Hour},
		Server:   ServerConfig{Addr: ":8080"},
	}
}

// Validate checks the settings a run depends on.
func (c *Config) Validate() error {
	var errs []error

	if c.HTTP.Timeout <= 0 {
		errs = append(errs, errors.New("http.timeout must be positive"))
	}
	if c.Pipeline.SourceWorkers <= 0 {
		errs = append(errs, errors.New("pipeline.source_workers must be positive"))
	}
	if c.Pipeline.EnrichWorkers <= 0 {
		errs = append(errs, errors.New("pipeline.enrich_workers must be positive"))
	}
	if c.Pipeline.RunBudget < 0 {
		errs = append(errs, errors.New("pipeline.run_budget must not be negative"))
	}
	if c.Cache.TTL < 0 {
		errs = append(errs, errors.New("cache.ttl must not be negative"))
	}
	if _, err := merge.New(c.Merge.Mode); err != nil {
		errs = append(errs, err)
	}

	hasKeyword := false
	for _, kw := range c.Keywords {
		if strings.TrimSpace(kw) != "" {
			hasKeyword = true
			break
		}
	}
	if !hasKeyword {
		errs = append(errs, errors.New("keywords must contain at least one entry"))
	}

	ids := make(map[string]struct{}, len(c.Sources))
	for i, src := range c.Sources {
		id := strings.ToLower(strings.TrimSpace(src.ID))
		if id == "" {
			errs = append(errs, fmt.Errorf("sources[%d]: id is required", i))
			continue
		}
		if _, dup := ids[id]; dup {
			errs = append(errs, fmt.Errorf("sources[%d]: duplicate id %q", i, src.ID))
		}
		ids[id] = struct{}{}
		if strings.TrimSpace(src.SourceURL) == "" {
			errs = append(errs, fmt.Errorf("sources[%d]: url is required for %q", i, src.ID))
		}
		switch strings.ToLower(strings.TrimSpace(src.Type)) {
		case "", providers.ProviderTypeHTML, providers.ProviderTypeRSS, providers.ProviderTypeGoogleNews:
		default:
			errs = append(errs, fmt.Errorf("sources[%d]: type %q not supported", i, src.Type))
		}
	}

	return errors.Join(errs...)
}

// BuildDateRules layers configured rules over the built-in ones.
func (c *Config) BuildDateRules() (*crawler.DateRules, error) {
	rules := crawler.DefaultDateRules()
	for id, sels := range c.DateRules {
		if err := rules.Register(id, sels...); err != nil {
			return nil, err
		}
	}
	return rules, nil
}

// SourceByName returns the provider whose display name or id equals name.
func (c *Config) SourceByName(name string) (providers.Provider, bool) {
	name = strings.TrimSpace(name)
	for _, src := range c.Sources {
		if strings.EqualFold(src.DisplayName(), name) || strings.EqualFold(src.ID, name) {
			return src, true
		}
	}
	return providers.Provider{}, false
}
