// Package keywords implements the topical keyword filter used for discovery
// and scoring.
package keywords

import "strings"

// Filter matches text against a fixed keyword list. Matching is a
// case-insensitive substring test; embedded matches inside longer words count.
type Filter struct {
	words []string
}

// New builds a Filter from list. Blank and repeated keywords are dropped.
func New(list []string) *Filter {
	seen := make(map[string]struct{}, len(list))
	words := make([]string, 0, len(list))
	for _, kw := range list {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		words = append(words, kw)
	}
	return &Filter{words: words}
}

// Matches reports whether text contains at least one keyword.
func (f *Filter) Matches(text string) bool {
	if f == nil {
		return false
	}
	lower := strings.ToLower(text)
	for _, kw := range f.words {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Matched returns the distinct keywords found in text, in list order.
func (f *Filter) Matched(text string) []string {
	if f == nil {
		return nil
	}
	lower := strings.ToLower(text)
	var out []string
	for _, kw := range f.words {
		if strings.Contains(lower, kw) {
			out = append(out, kw)
		}
	}
	return out
}

// Words returns a copy of the normalized keyword list.
func (f *Filter) Words() []string {
	if f == nil {
		return nil
	}
	out := make([]string, len(f.words))
	copy(out, f.words)
	return out
}

// Len returns the number of keywords.
func (f *Filter) Len() int {
	if f == nil {
		return 0
	}
	return len(f.words)
}
