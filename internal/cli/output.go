package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/pfrederiksen/contest-digest/internal/format"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// OutputResult contains data to be output
type OutputResult struct {
	GeneratedAt   time.Time        `json:"generated_at"`
	LookaheadDays int              `json:"lookahead_days"`
	Contests      []format.Contest `json:"contests"`
	Total         int              `json:"total"`
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, outputFormat OutputFormat, verbose bool) error {
	switch outputFormat {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result, verbose)
	default:
		return fmt.Errorf("unknown format: %s", outputFormat)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, result *OutputResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// writeText outputs results as human-readable text
func writeText(w io.Writer, result *OutputResult, verbose bool) error {
	if result.Total == 0 {
		fmt.Fprintf(w, "No contests found in the next %d days.\n", result.LookaheadDays)
		return nil
	}

	for _, c := range result.Contests {
		fmt.Fprintf(w, "%s  %s (%s)\n", c.StartLocal, c.Title, c.Platform)
		fmt.Fprintf(w, "     %s, %s\n", relative(c, result.GeneratedAt), c.Duration)
		if verbose {
			if c.ID != 0 {
				fmt.Fprintf(w, "     ID: %d\n", c.ID)
			}
			fmt.Fprintf(w, "     Ends: %s\n", c.EndLocal)
			if c.Link != "" {
				fmt.Fprintf(w, "     Link: %s\n", c.Link)
			}
		}
	}
	fmt.Fprintf(w, "\nTotal: %d %s in the next %d days\n", result.Total, pluralContests(result.Total), result.LookaheadDays)

	return nil
}

// relative describes when c starts relative to now, e.g. "starts 3 hours from now"
func relative(c format.Contest, now time.Time) string {
	if c.IsLive(now) {
		return "live now, ends " + humanize.RelTime(c.End, now, "ago", "from now")
	}
	return "starts " + humanize.RelTime(c.Start, now, "ago", "from now")
}

func pluralContests(n int) string {
	if n == 1 {
		return "contest"
	}
	return "contests"
}
