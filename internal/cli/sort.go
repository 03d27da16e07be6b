package cli

import (
	"sort"
	"strings"

	"github.com/pfrederiksen/contest-digest/internal/format"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortByStart    SortOrder = "start"
	SortByPlatform SortOrder = "platform"
	SortByTitle    SortOrder = "title"
)

// Valid reports whether o is a known sort order
func (o SortOrder) Valid() bool {
	switch o {
	case SortByStart, SortByPlatform, SortByTitle:
		return true
	}
	return false
}

// sortContests sorts contests in place. Ties fall back to start time.
func sortContests(contests []format.Contest, order SortOrder) {
	switch order {
	case SortByStart:
		sort.SliceStable(contests, func(i, j int) bool {
			return contests[i].Start.Before(contests[j].Start)
		})
	case SortByPlatform:
		sort.SliceStable(contests, func(i, j int) bool {
			pi, pj := strings.ToLower(contests[i].Platform), strings.ToLower(contests[j].Platform)
			if pi != pj {
				return pi < pj
			}
			return contests[i].Start.Before(contests[j].Start)
		})
	case SortByTitle:
		sort.SliceStable(contests, func(i, j int) bool {
			ti, tj := strings.ToLower(contests[i].Title), strings.ToLower(contests[j].Title)
			if ti != tj {
				return ti < tj
			}
			return contests[i].Start.Before(contests[j].Start)
		})
	}
}
