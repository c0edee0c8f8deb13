// Package rank scores merged articles and fixes their display order.
package rank

import (
	"math"
	"sort"
	"time"

	"github.com/Adda-Baaj/seema-khobor/internal/domain"
)

const (
	// KeywordWeight is added once per distinct keyword present.
	KeywordWeight = 5.0
	// RecencyWindow is the age after which the recency bonus is zero.
	RecencyWindow = 60 * time.Minute
)

// KeywordMatcher returns the distinct keywords found in text.
type KeywordMatcher interface {
	Matched(text string) []string
}

// Score is KeywordWeight per distinct keyword in title+description plus
// max(0, 60-ageMinutes). Timestamps in the future are treated as age zero.
func Score(title, description string, publishedAt, now time.Time, kw KeywordMatcher) float64 {
	var score float64
	if kw != nil {
		score = KeywordWeight * float64(len(kw.Matched(title+" "+description)))
	}
	return score + RecencyBonus(publishedAt, now)
}

// RecencyBonus is the linear freshness term of Score.
func RecencyBonus(publishedAt, now time.Time) float64 {
	age := now.Sub(publishedAt).Minutes()
	if age < 0 {
		age = 0
	}
	return math.Max(0, RecencyWindow.Minutes()-age)
}

// Apply scores every article in place against now.
func Apply(articles []domain.MergedArticle, now time.Time, kw KeywordMatcher) {
	for i := range articles {
		a := &articles[i]
		a.Score = Score(a.Title, a.Description, a.PublishedAt, now, kw)
	}
}

// Sort orders newest first; equal publish times fall back to higher score.
// Ties on both keep their input order.
func Sort(articles []domain.MergedArticle) {
	sort.SliceStable(articles, func(i, j int) bool {
		return Less(articles[i], articles[j])
	})
}

// Less reports whether a is displayed before b.
func Less(a, b domain.MergedArticle) bool {
	if !a.PublishedAt.Equal(b.PublishedAt) {
		return a.PublishedAt.After(b.PublishedAt)
	}
	return a.Score > b.Score
}
