// Package merge collapses articles that report the same story.
//
// Two articles are related when their normalized titles are equal or, in
// containment mode, when one normalized title is a substring of the other and
// the shorter one has at least MinContainmentWords words. The floor keeps
// single-word tag and nav anchors from absorbing every story on that topic.
// Containment is not transitive, so groups are formed as the transitive
// closure of the pairwise relation (union-find). The outcome therefore does
// not depend on the order pairs are examined; only the input order decides
// which member anchors a group.
package merge

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Adda-Baaj/seema-khobor/internal/domain"
)

// Modes.
const (
	ModeExact       = "exact"
	ModeContainment = "containment"
)

const (
	// MinContainmentWords is the shortest title allowed to match by containment.
	MinContainmentWords = 3
	// MaxDescriptionRunes is the longest description kept verbatim.
	MaxDescriptionRunes = 250
	ellipsis            = "..."
)

// Engine merges near-duplicate articles.
type Engine struct {
	mode string
}

// New returns an Engine for mode; an empty mode means exact.
func New(mode string) (*Engine, error) {
	switch m := strings.ToLower(strings.TrimSpace(mode)); m {
	case "", ModeExact:
		return &Engine{mode: ModeExact}, nil
	case ModeContainment:
		return &Engine{mode: ModeContainment}, nil
	default:
		return nil, fmt.Errorf("merge mode %q not supported", mode)
	}
}

// Mode returns the active relation.
func (e *Engine) Mode() string { return e.mode }

// Merge groups related articles and returns one record per group, ordered by
// the position of each group's first member. Scores are left at zero.
func (e *Engine) Merge(articles []domain.Article) []domain.MergedArticle {
	if len(articles) == 0 {
		return nil
	}

	norms := make([]string, len(articles))
	for i, a := range articles {
		norms[i] = Normalize(a.Title)
	}

	uf := newUnionFind(len(articles))
	byURL := make(map[string]int, len(articles))
	for i, a := range articles {
		if j, ok := byURL[a.URL]; ok {
			uf.union(j, i)
		} else {
			byURL[a.URL] = i
		}
		for j := 0; j < i; j++ {
			if e.related(norms[i], norms[j]) {
				uf.union(j, i)
			}
		}
	}

	groups := make(map[int][]int, len(articles))
	var anchors []int
	for i := range articles {
		root := uf.find(i)
		if _, ok := groups[root]; !ok {
			anchors = append(anchors, root)
		}
		groups[root] = append(groups[root], i)
	}

	out := make([]domain.MergedArticle, 0, len(anchors))
	for _, root := range anchors {
		members := groups[root]
		anchor := articles[members[0]]

		merged := domain.MergedArticle{Article: anchor}
		merged.Source = joinSources(articles, members)
		merged.Description = TruncateDescription(anchor.Description)
		out = append(out, merged)
	}
	return out
}

// related reports whether two normalized titles describe the same story.
func (e *Engine) related(a, b string) bool {
	if a == b {
		return true
	}
	if e.mode != ModeContainment {
		return false
	}
	fa, fb := strings.Fields(a), strings.Fields(b)
	if min(len(fa), len(fb)) < MinContainmentWords {
		return false
	}
	ja, jb := strings.Join(fa, " "), strings.Join(fb, " ")
	return strings.Contains(ja, jb) || strings.Contains(jb, ja)
}

// Normalize lower-cases title and keeps only ASCII letters and spaces.
func Normalize(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	for _, r := range strings.ToLower(title) {
		if (r >= 'a' && r <= 'z') || r == ' ' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// TruncateDescription caps s at MaxDescriptionRunes, ending with "..." when cut.
func TruncateDescription(s string) string {
	if utf8.RuneCountInString(s) <= MaxDescriptionRunes {
		return s
	}
	keep := MaxDescriptionRunes - len(ellipsis)
	runes := []rune(s)
	return string(runes[:keep]) + ellipsis
}

// joinSources lists each distinct member source once, in member order.
func joinSources(articles []domain.Article, members []int) string {
	seen := make(map[string]struct{}, len(members))
	names := make([]string, 0, len(members))
	for _, idx := range members {
		for _, name := range domain.SplitSources(articles[idx].Source) {
			if name == "" {
				continue
			}
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	return strings.Join(names, domain.SourceSeparator)
}

type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return &unionFind{parent: p}
}

func (u *unionFind) find(i int) int {
	for u.parent[i] != i {
		u.parent[i] = u.parent[u.parent[i]]
		i = u.parent[i]
	}
	return i
}

// union keeps the smaller index as root so a group's root is its first member.
func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if rb < ra {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
}
