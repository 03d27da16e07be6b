// Package filter selects contests whose titles carry a beginner-friendly
// marker.
//
// A contest passes when its title contains at least one keyword as a
// case-insensitive substring. Keywords are not whole-word matches: "abc"
// matches "AtCoder Beginner Contest" only through "beginner", but it also
// matches "ABC 300".
//
// Example usage:
//
//	f := filter.NewFilter()
//	f.Limit = 7
//	kept := f.Apply(contests)
package filter

import (
	"fmt"
	"strings"

	"github.com/pfrederiksen/contest-digest/internal/contest"
)

// DefaultKeywords mark easy, educational and recurring rounds
var DefaultKeywords = []string{
	"beginner", "easy", "basic", "abc", "school",
	"div. 3", "div.3", "div 3",
	"div. 4", "div.4", "div 4",
	"biweekly", "weekly", "starters", "cook-off", "lunchtime",
}

// Filter represents contest selection criteria
type Filter struct {
	// Keywords are matched as case-insensitive substrings of the title.
	// An empty list matches every contest.
	Keywords []string `json:"keywords" yaml:"keywords"`

	// Limit caps the number of contests Apply returns. Zero means no cap.
	Limit int `json:"limit,omitempty" yaml:"limit,omitempty"`
}

// NewFilter creates a filter with the default keyword list and no limit
func NewFilter() *Filter {
	return NewKeywordFilter(DefaultKeywords)
}

// NewKeywordFilter creates a filter for the given keywords. Keywords are
// lowercased and trimmed; blanks are dropped.
func NewKeywordFilter(keywords []string) *Filter {
	normalized := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			normalized = append(normalized, kw)
		}
	}
	return &Filter{Keywords: normalized}
}

// IsEmpty checks if the filter has any active criteria
func (f *Filter) IsEmpty() bool {
	return len(f.Keywords) == 0 && f.Limit <= 0
}

// Matches checks if a contest title contains at least one keyword
func (f *Filter) Matches(c *contest.Contest) bool {
	if len(f.Keywords) == 0 {
		return true
	}

	titleLower := strings.ToLower(c.Event)
	for _, kw := range f.Keywords {
		if strings.Contains(titleLower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// Apply returns the matching contests in input order, truncated to Limit.
// The input slice is not modified.
func (f *Filter) Apply(contests []contest.Contest) []contest.Contest {
	filtered := make([]contest.Contest, 0, len(contests))
	for i := range contests {
		if !f.Matches(&contests[i]) {
			continue
		}
		filtered = append(filtered, contests[i])
		if f.Limit > 0 && len(filtered) == f.Limit {
			break
		}
	}
	return filtered
}

// String returns a human-readable description of the filter
func (f *Filter) String() string {
	if f.IsEmpty() {
		return "No active filters"
	}

	var parts []string
	if len(f.Keywords) > 0 {
		parts = append(parts, fmt.Sprintf("Keywords: %s", strings.Join(f.Keywords, ", ")))
	}
	if f.Limit > 0 {
		parts = append(parts, fmt.Sprintf("Limit: %d", f.Limit))
	}
	return strings.Join(parts, " | ")
}
