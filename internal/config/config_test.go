package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "harvester.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Sources) != 3 || cfg.Sources[0].Name != "The Hindu" {
		t.Errorf("default sources = %+v", cfg.Sources)
	}
	if cfg.HTTP.Timeout != 15*time.Second {
		t.Errorf("timeout = %s", cfg.HTTP.Timeout)
	}
	if len(cfg.Keywords) != len(DefaultKeywords()) {
		t.Errorf("keywords = %v", cfg.Keywords)
	}
	if cfg.Merge.Mode != "exact" {
		t.Errorf("default merge mode = %s", cfg.Merge.Mode)
	}
}

func TestLoadFileReplacesListsAndEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
keywords: [war, border]
sources:
  - id: wion
    name: WION
    type: rss
    url: https://www.wionews.com/feeds/india.xml
pipeline:
  run_budget: 20s
  enrich_workers: 3
merge:
  mode: containment
date_rules:
  wion:
    - kind: xpath
      expr: //time
      attr: datetime
`)
	t.Setenv("HARVESTER_PIPELINE_ENRICH_WORKERS", "7")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Sources) != 1 || cfg.Sources[0].Type != "rss" {
		t.Errorf("sources = %+v", cfg.Sources)
	}
	if strings.Join(cfg.Keywords, ",") != "war,border" {
		t.Errorf("keywords = %v", cfg.Keywords)
	}
	if cfg.Pipeline.RunBudget != 20*time.Second {
		t.Errorf("run budget = %s", cfg.Pipeline.RunBudget)
	}
	if cfg.Pipeline.EnrichWorkers != 7 {
		t.Errorf("env override ignored: %d", cfg.Pipeline.EnrichWorkers)
	}
	if cfg.Merge.Mode != "containment" {
		t.Errorf("merge mode = %s", cfg.Merge.Mode)
	}

	rules, err := cfg.BuildDateRules()
	if err != nil {
		t.Fatalf("BuildDateRules: %v", err)
	}
	if sels := rules.For("wion"); len(sels) != 1 || sels[0].Attr != "datetime" {
		t.Errorf("wion rule = %+v", sels)
	}
	if len(rules.For("the-hindu")) == 0 {
		t.Error("built-in rules should survive")
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing explicit file")
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sources = append(cfg.Sources, cfg.Sources[0])
	cfg.Sources = append(cfg.Sources, DefaultSources()[0])
	cfg.Sources[len(cfg.Sources)-1].ID = "other"
	cfg.Sources[len(cfg.Sources)-1].Type = "gopher"
	cfg.Keywords = []string{" "}
	cfg.Merge.Mode = "fuzzy"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, want := range []string{"duplicate id", "keywords", "not supported"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}

	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestSourceByName(t *testing.T) {
	cfg := DefaultConfig()
	if src, ok := cfg.SourceByName("wion"); !ok || src.Name != "WION" {
		t.Errorf("lookup by id failed: %+v", src)
	}
	if _, ok := cfg.SourceByName("Reuters"); ok {
		t.Error("unknown name should miss")
	}
}
