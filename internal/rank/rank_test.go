package rank

import (
	"math"
	"testing"
	"time"

	"github.com/Adda-Baaj/seema-khobor/internal/domain"
	"github.com/Adda-Baaj/seema-khobor/internal/keywords"
)

var now = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

func TestScoreFreshArticleWithTwoKeywords(t *testing.T) {
	kw := keywords.New([]string{"army", "border", "navy"})
	got := Score("Update", "army moves to the border; army on alert", now, now, kw)
	if got != 70 {
		t.Errorf("score = %v, want 70", got)
	}
}

func TestRecencyBonusMonotonicAndZeroPastWindow(t *testing.T) {
	prev := -1.0
	for age := 120; age >= 0; age-- {
		bonus := RecencyBonus(now.Add(-time.Duration(age)*time.Minute), now)
		if bonus < prev {
			t.Fatalf("bonus decreased at age %d: %v < %v", age, bonus, prev)
		}
		if age >= 60 && bonus != 0 {
			t.Fatalf("bonus at age %d = %v, want 0", age, bonus)
		}
		prev = bonus
	}
	if got := RecencyBonus(now.Add(-15*time.Minute), now); math.Abs(got-45) > 1e-9 {
		t.Errorf("bonus at 15m = %v", got)
	}
	if got := RecencyBonus(now.Add(10*time.Minute), now); got != 60 {
		t.Errorf("future timestamps should cap at 60, got %v", got)
	}
}

func TestScoreWithoutMatcher(t *testing.T) {
	if got := Score("army", "", now.Add(-2*time.Hour), now, nil); got != 0 {
		t.Errorf("score = %v", got)
	}
}

func TestSortRecencyFirstScoreTieBreak(t *testing.T) {
	older := now.Add(-time.Hour)
	articles := []domain.MergedArticle{
		{Article: domain.Article{URL: "old-high", PublishedAt: older}, Score: 99},
		{Article: domain.Article{URL: "new-low", PublishedAt: now}, Score: 1},
		{Article: domain.Article{URL: "new-high", PublishedAt: now}, Score: 50},
		{Article: domain.Article{URL: "new-low-2", PublishedAt: now}, Score: 1},
	}
	Sort(articles)

	want := []string{"new-high", "new-low", "new-low-2", "old-high"}
	for i, w := range want {
		if articles[i].URL != w {
			t.Errorf("position %d = %s, want %s", i, articles[i].URL, w)
		}
	}
}

func TestApply(t *testing.T) {
	kw := keywords.New([]string{"war"})
	articles := []domain.MergedArticle{
		{Article: domain.Article{Title: "War", PublishedAt: now.Add(-3 * time.Hour)}},
	}
	Apply(articles, now, kw)
	if articles[0].Score != 5 {
		t.Errorf("score = %v", articles[0].Score)
	}
}
