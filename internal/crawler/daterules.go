package crawler

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"
)

// Selector kinds.
const (
	SelectorCSS   = "css"
	SelectorXPath = "xpath"
)

// DefaultRuleKey names the rule used for sources without their own entry.
const DefaultRuleKey = "default"

// Selector is one strategy for locating a publish timestamp. When Attr is
// empty the element text is used.
type Selector struct {
	Kind string `mapstructure:"kind" yaml:"kind" json:"kind"`
	Expr string `mapstructure:"expr" yaml:"expr" json:"expr"`
	Attr string `mapstructure:"attr" yaml:"attr" json:"attr,omitempty"`
}

// DateRules maps a source id to its ordered publish-time selectors.
type DateRules struct {
	mu    sync.RWMutex
	rules map[string][]Selector
}

// NewDateRules builds a registry from the given entries.
func NewDateRules(entries map[string][]Selector) (*DateRules, error) {
	r := &DateRules{rules: make(map[string][]Selector, len(entries))}
	for id, sels := range entries {
		if err := r.Register(id, sels...); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// DefaultDateRules covers the stock sources plus a generic fallback.
func DefaultDateRules() *DateRules {
	r, _ := NewDateRules(map[string][]Selector{
		"the-hindu": {
			{Kind: SelectorCSS, Expr: `meta[property="article:published_time"]`, Attr: "content"},
			{Kind: SelectorCSS, Expr: `meta[name="publish-date"]`, Attr: "content"},
		},
		"indian-express": {
			{Kind: SelectorCSS, Expr: `meta[itemprop="datePublished"]`, Attr: "content"},
			{Kind: SelectorCSS, Expr: `meta[property="article:published_time"]`, Attr: "content"},
		},
		"wion": {
			{Kind: SelectorCSS, Expr: `time[datetime]`, Attr: "datetime"},
			{Kind: SelectorXPath, Expr: `//meta[@property="article:published_time"]`, Attr: "content"},
		},
		DefaultRuleKey: {
			{Kind: SelectorCSS, Expr: `meta[property="article:published_time"]`, Attr: "content"},
			{Kind: SelectorXPath, Expr: `//meta[@itemprop="datePublished"]`, Attr: "content"},
		},
	})
	return r
}

// Register adds or replaces the selectors for a source id.
func (r *DateRules) Register(sourceID string, sels ...Selector) error {
	key := strings.ToLower(strings.TrimSpace(sourceID))
	if key == "" {
		return fmt.Errorf("date rule source id is empty")
	}

	clean := make([]Selector, 0, len(sels))
	for i, s := range sels {
		s.Kind = strings.ToLower(strings.TrimSpace(s.Kind))
		if s.Kind == "" {
			s.Kind = SelectorCSS
		}
		s.Expr = strings.TrimSpace(s.Expr)
		s.Attr = strings.TrimSpace(s.Attr)
		if s.Expr == "" {
			return fmt.Errorf("date rule %q selector %d: expr is empty", sourceID, i)
		}
		switch s.Kind {
		case SelectorCSS:
		case SelectorXPath:
			if _, err := xpath.Compile(s.Expr); err != nil {
				return fmt.Errorf("date rule %q selector %d: %w", sourceID, i, err)
			}
		default:
			return fmt.Errorf("date rule %q selector %d: kind %q not supported", sourceID, i, s.Kind)
		}
		clean = append(clean, s)
	}

	r.mu.Lock()
	r.rules[key] = clean
	r.mu.Unlock()
	return nil
}

// For returns the selectors for a source, falling back to the default rule.
func (r *DateRules) For(sourceID string) []Selector {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if sels, ok := r.rules[strings.ToLower(strings.TrimSpace(sourceID))]; ok {
		return sels
	}
	return r.rules[DefaultRuleKey]
}

// extractPublished tries each selector in order and returns the first timestamp that parses.
func extractPublished(doc *goquery.Document, sels []Selector) (time.Time, bool) {
	for _, sel := range sels {
		raw := selectValue(doc, sel)
		if raw == "" {
			continue
		}
		if t, ok := parseTimestamp(raw); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// selectValue evaluates one selector against the document.
func selectValue(doc *goquery.Document, sel Selector) string {
	switch sel.Kind {
	case SelectorXPath:
		if len(doc.Nodes) == 0 {
			return ""
		}
		node, err := htmlquery.Query(doc.Nodes[0], sel.Expr)
		if err != nil || node == nil {
			return ""
		}
		if sel.Attr != "" {
			return strings.TrimSpace(htmlquery.SelectAttr(node, sel.Attr))
		}
		return strings.TrimSpace(htmlquery.InnerText(node))
	default:
		node := doc.Find(sel.Expr).First()
		if node.Length() == 0 {
			return ""
		}
		if sel.Attr != "" {
			val, _ := node.Attr(sel.Attr)
			return strings.TrimSpace(val)
		}
		return strings.TrimSpace(node.Text())
	}
}

var timestampLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05.000Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC1123Z,
	time.RFC1123,
	"Jan 2, 2006 15:04 MST",
	"January 2, 2006 15:04 MST",
	"2006-01-02",
}

// parseTimestamp parses the formats news sites commonly put in meta tags.
// Zone-less values are read as UTC.
func parseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
