package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/pfrederiksen/contest-digest/internal/format"
)

func sampleContests() []format.Contest {
	base := time.Date(2025, 1, 2, 14, 30, 0, 0, time.UTC)
	return []format.Contest{
		{ID: 3, Title: "Starters 150", Platform: "Codechef.com", Start: base, End: base.Add(2 * time.Hour), StartLocal: "Thu, 2 Jan, 8:00 PM", Duration: "2h 0m"},
		{ID: 1, Title: "abc 390", Platform: "Atcoder.jp", Start: base.Add(24 * time.Hour), End: base.Add(26 * time.Hour), StartLocal: "Fri, 3 Jan, 8:00 PM", Duration: "1h 40m", Link: "https://atcoder.jp"},
		{ID: 2, Title: "Biweekly Contest 100", Platform: "Leetcode.com", Start: base.Add(-2 * time.Hour), End: base.Add(-30 * time.Minute), StartLocal: "Thu, 2 Jan, 6:00 PM", Duration: "1h 30m"},
	}
}

func titles(contests []format.Contest) []string {
	out := make([]string, len(contests))
	for i, c := range contests {
		out[i] = c.Title
	}
	return out
}

func TestSortContests(t *testing.T) {
	tests := []struct {
		order SortOrder
		want  []string
	}{
		{SortByStart, []string{"Biweekly Contest 100", "Starters 150", "abc 390"}},
		{SortByPlatform, []string{"abc 390", "Starters 150", "Biweekly Contest 100"}},
		{SortByTitle, []string{"abc 390", "Biweekly Contest 100", "Starters 150"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.order), func(t *testing.T) {
			contests := sampleContests()
			sortContests(contests, tt.order)
			got := titles(contests)
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("sortContests(%s) = %v, want %v", tt.order, got, tt.want)
					break
				}
			}
		})
	}
}

func TestSortOrderValid(t *testing.T) {
	if !SortByTitle.Valid() || SortOrder("rating").Valid() {
		t.Error("Valid() mismatch")
	}
}

func TestWriteText(t *testing.T) {
	now := time.Date(2025, 1, 2, 15, 0, 0, 0, time.UTC)
	result := &OutputResult{GeneratedAt: now, LookaheadDays: 5, Contests: sampleContests(), Total: 3}

	var buf bytes.Buffer
	if err := WriteOutput(&buf, result, FormatText, true); err != nil {
		t.Fatalf("WriteOutput() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"Thu, 2 Jan, 8:00 PM  Starters 150 (Codechef.com)",
		"live now, ends",
		"starts 23 hours from now",
		"Link: https://atcoder.jp",
		"ID: 3",
		"Total: 3 contests in the next 5 days",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteText_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteOutput(&buf, &OutputResult{LookaheadDays: 5}, FormatText, false); err != nil {
		t.Fatalf("WriteOutput() error = %v", err)
	}
	if buf.String() != "No contests found in the next 5 days.\n" {
		t.Errorf("output = %q", buf.String())
	}
}

func TestWriteOutput_UnknownFormat(t *testing.T) {
	if err := WriteOutput(&bytes.Buffer{}, &OutputResult{}, OutputFormat("xml"), false); err == nil {
		t.Error("WriteOutput() expected error for unknown format")
	}
}
