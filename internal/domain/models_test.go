package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestMergedArticleJSONShape(t *testing.T) {
	m := MergedArticle{
		Article: Article{
			Title:       "Army clash at border",
			Source:      "The Hindu, WION",
			URL:         "https://example.com/a",
			PublishedAt: time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC),
		},
		Score: 12.5,
	}
	raw, err := json.Marshal(m)
	if err != nil {
		t.Fatal(err)
	}
	got := string(raw)
	for _, want := range []string{`"image":null`, `"publishedAt":"2026-10-16T08:00:00Z"`, `"score":12.5`, `"source":"The Hindu, WION"`} {
		if !strings.Contains(got, want) {
			t.Errorf("json %s missing %s", got, want)
		}
	}
	if names := m.Sources(); len(names) != 2 || names[1] != "WION" {
		t.Errorf("Sources() = %v", names)
	}
}

func TestStringPtr(t *testing.T) {
	if StringPtr("") != nil {
		t.Error("empty string should map to nil")
	}
	if p := StringPtr("x"); p == nil || *p != "x" {
		t.Error("non-empty string should round trip")
	}
}
