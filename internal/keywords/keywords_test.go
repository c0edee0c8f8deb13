package keywords

import (
	"reflect"
	"testing"
)

func TestMatches(t *testing.T) {
	f := New([]string{"war", "border"})

	tests := []struct {
		text string
		want bool
	}{
		{"Border tension rises", true},
		{"Weather update", false},
		{"WARNING issued downtown", true}, // substring inside a longer word
		{"", false},
	}
	for _, tt := range tests {
		if got := f.Matches(tt.text); got != tt.want {
			t.Errorf("Matches(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestNewNormalizesList(t *testing.T) {
	f := New([]string{" IED ", "ied", "", "Air Force"})
	if got, want := f.Words(), []string{"ied", "air force"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Words() = %v, want %v", got, want)
	}
	if !f.Matches("Indian AIR FORCE drills") {
		t.Error("multi-word keyword should match case-insensitively")
	}
}

func TestMatchedIsDistinctAndOrdered(t *testing.T) {
	f := New([]string{"army", "clash", "navy"})
	got := f.Matched("Army clash: army units clash again")
	if want := []string{"army", "clash"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Matched = %v, want %v", got, want)
	}
}

func TestNilFilter(t *testing.T) {
	var f *Filter
	if f.Matches("war") || f.Len() != 0 || f.Matched("war") != nil {
		t.Error("nil filter should match nothing")
	}
}
