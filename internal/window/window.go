package window

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// QueryLayout is the timestamp format used in clist query parameters
	QueryLayout = "2006-01-02T15:04:05"
	// LabelLayout is the DD-MM-YYYY date label shown in digest headers
	LabelLayout = "02-01-2006"
	// DefaultOffset is India Standard Time, the zone every digest is built in
	DefaultOffset = "+05:30"
	// DefaultLookaheadDays matches the standalone upcoming listing
	DefaultLookaheadDays = 5
)

// Clock returns the current instant. Tests inject a fixed one.
type Clock func() time.Time

// SystemClock is the wall clock
func SystemClock() time.Time {
	return time.Now()
}

// Window is a UTC time range for a contest query
type Window struct {
	Start     time.Time `json:"-"`
	End       time.Time `json:"-"`
	UTCStart  string    `json:"utc_start"`
	UTCEnd    string    `json:"utc_end"`
	DateLabel string    `json:"date_label,omitempty"`
}

// String formats the window for logs
func (w Window) String() string {
	if w.DateLabel != "" {
		return fmt.Sprintf("%s (%s..%s)", w.DateLabel, w.UTCStart, w.UTCEnd)
	}
	return fmt.Sprintf("%s..%s", w.UTCStart, w.UTCEnd)
}

// Day returns the window for the local calendar day dayOffset days after
// today. Days are added on the calendar, not as 24h steps.
func Day(now time.Time, dayOffset int, loc *time.Location) Window {
	return Span(now, dayOffset, dayOffset, loc)
}

// Span returns one window from the start of local day fromOffset to the end
// of local day toOffset. The date label is that of the first day.
func Span(now time.Time, fromOffset, toOffset int, loc *time.Location) Window {
	local := now.In(loc)
	first := local.AddDate(0, 0, fromOffset)
	last := local.AddDate(0, 0, toOffset)

	start := time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, loc)
	end := time.Date(last.Year(), last.Month(), last.Day(), 23, 59, 59, 999000000, loc)

	return Window{
		Start:     start.UTC(),
		End:       end.UTC(),
		UTCStart:  start.UTC().Format(QueryLayout),
		UTCEnd:    end.UTC().Format(QueryLayout),
		DateLabel: start.Format(LabelLayout),
	}
}

// Lookahead returns now through now+days in UTC, with no date label
func Lookahead(now time.Time, days int) Window {
	if days <= 0 {
		days = DefaultLookaheadDays
	}
	start := now.UTC()
	end := start.Add(time.Duration(days) * 24 * time.Hour)

	return Window{
		Start:    start,
		End:      end,
		UTCStart: start.Format(QueryLayout),
		UTCEnd:   end.Format(QueryLayout),
	}
}

// LocalDate returns midnight of t's calendar date in loc
func LocalDate(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// DaysBetween returns the number of local calendar days from a to b
func DaysBetween(a, b time.Time, loc *time.Location) int {
	da := LocalDate(a, loc)
	db := LocalDate(b, loc)
	// Rounding absorbs any 23h/25h days if loc ever carries DST.
	return int(db.Sub(da).Round(24*time.Hour) / (24 * time.Hour))
}

// ParseOffset parses "+05:30", "-0800", "UTC+5:30" or "Z" into a fixed zone
func ParseOffset(s string) (*time.Location, error) {
	raw := strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.ToUpper(raw), "UTC")
	if s == "" || s == "Z" {
		return time.UTC, nil
	}

	sign := 1
	switch s[0] {
	case '+':
	case '-':
		sign = -1
	default:
		return nil, fmt.Errorf("invalid offset %q: must start with + or -", raw)
	}
	s = s[1:]

	var hourStr, minStr string
	if h, m, ok := strings.Cut(s, ":"); ok {
		hourStr, minStr = h, m
	} else if len(s) == 4 {
		hourStr, minStr = s[:2], s[2:]
	} else {
		hourStr, minStr = s, "0"
	}

	hours, err := strconv.Atoi(hourStr)
	if err != nil || hours < 0 || hours > 14 {
		return nil, fmt.Errorf("invalid offset %q: bad hours", raw)
	}
	minutes, err := strconv.Atoi(minStr)
	if err != nil || minutes < 0 || minutes > 59 {
		return nil, fmt.Errorf("invalid offset %q: bad minutes", raw)
	}

	seconds := sign * (hours*3600 + minutes*60)
	return time.FixedZone("UTC"+formatOffset(seconds), seconds), nil
}

func formatOffset(seconds int) string {
	sign := '+'
	if seconds < 0 {
		sign = '-'
		seconds = -seconds
	}
	return fmt.Sprintf("%c%02d:%02d", sign, seconds/3600, (seconds%3600)/60)
}
