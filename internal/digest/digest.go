package digest

import (
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/contest-digest/internal/format"
)

// Placeholders for empty sections
const (
	NoContestsToday    = "❌ No contests found for today."
	NoContestsTomorrow = "❌ No contests found for tomorrow."
	NoContestsDayAfter = "❌ No contests found for the day after tomorrow."
	NoContestsLive     = "🛑 No contests are currently live."
)

// Options controls which optional sections are composed
type Options struct {
	LiveNow   bool
	Timestamp bool
	Flavor    format.Flavor
	// Now and Location stamp the generation line
	Now      time.Time
	Location *time.Location
}

// Section is one header plus its entries
type Section struct {
	Name        string   `json:"name"`
	Header      string   `json:"header"`
	Entries     []string `json:"entries"`
	Placeholder string   `json:"placeholder,omitempty"`
	separator   string
}

// Body returns the joined entries, or the placeholder when there are none
func (s Section) Body() string {
	if len(s.Entries) == 0 {
		return s.Placeholder
	}
	sep := s.separator
	if sep == "" {
		sep = "\n"
	}
	return strings.Join(s.Entries, sep)
}

// String renders the header followed by the body
func (s Section) String() string {
	if s.Header == "" {
		return s.Body()
	}
	return s.Header + "\n\n" + s.Body()
}

// Counts reports how many contests landed in each bucket
type Counts struct {
	Today            int `json:"today"`
	Tomorrow         int `json:"tomorrow"`
	DayAfterTomorrow int `json:"dayAfterTomorrow"`
	Live             int `json:"live"`
}

// Total returns the number of contests across day buckets
func (c Counts) Total() int {
	return c.Today + c.Tomorrow + c.DayAfterTomorrow
}

// Digest is a composed message ready for delivery
type Digest struct {
	Sections []Section
	Text     string
	Counts   Counts
	Buckets  int
}

// Compose renders the buckets into a single message
func Compose(b Buckets, opts Options) *Digest {
	sep := "\n\n"
	if opts.Flavor == format.FlavorCompact {
		sep = "\n"
	}

	d := &Digest{
		Buckets: b.Count(),
		Counts: Counts{
			Today:            len(b.Day(Today)),
			Tomorrow:         len(b.Day(Tomorrow)),
			DayAfterTomorrow: len(b.Day(DayAfterTomorrow)),
			Live:             len(b.Live),
		},
	}

	d.Sections = append(d.Sections, Section{
		Name:        "today",
		Header:      fmt.Sprintf("## ✅ Contests for Today — `%s`", b.Label(Today)),
		Entries:     format.RenderAll(b.Day(Today), opts.Flavor),
		Placeholder: NoContestsToday,
		separator:   sep,
	})

	if opts.LiveNow {
		d.Sections = append(d.Sections, Section{
			Name:        "live",
			Header:      "## 🔴 Live Contests Happening Now",
			Entries:     format.RenderAll(b.Live, opts.Flavor),
			Placeholder: NoContestsLive,
			separator:   sep,
		})
	}

	if b.Count() > Tomorrow {
		d.Sections = append(d.Sections, Section{
			Name:        "tomorrow",
			Header:      fmt.Sprintf("## 📅 Contests for Tomorrow — `%s`", b.Label(Tomorrow)),
			Entries:     format.RenderAll(b.Day(Tomorrow), opts.Flavor),
			Placeholder: NoContestsTomorrow,
			separator:   sep,
		})
	}

	if b.Count() > DayAfterTomorrow {
		d.Sections = append(d.Sections, Section{
			Name:        "day_after_tomorrow",
			Header:      fmt.Sprintf("## 🗓️ Contests for Day After Tomorrow — `%s`", b.Label(DayAfterTomorrow)),
			Entries:     format.RenderAll(b.Day(DayAfterTomorrow), opts.Flavor),
			Placeholder: NoContestsDayAfter,
			separator:   sep,
		})
	}

	if opts.Timestamp {
		d.Sections = append(d.Sections, Section{
			Name:    "generated",
			Entries: []string{generatedLine(opts.Now, opts.Location)},
		})
	}

	parts := make([]string, 0, len(d.Sections))
	for _, s := range d.Sections {
		parts = append(parts, s.String())
	}
	d.Text = strings.Join(parts, "\n\n")

	return d
}

// Section returns the named section, if composed
func (d *Digest) Section(name string) (Section, bool) {
	for _, s := range d.Sections {
		if s.Name == name {
			return s, true
		}
	}
	return Section{}, false
}

// Summary creates a one-line summary for short-form sinks
func (d *Digest) Summary() string {
	parts := []string{fmt.Sprintf("%d today", d.Counts.Today)}
	if d.Buckets > Tomorrow {
		parts = append(parts, fmt.Sprintf("%d tomorrow", d.Counts.Tomorrow))
	}
	if d.Buckets > DayAfterTomorrow {
		parts = append(parts, fmt.Sprintf("%d the day after", d.Counts.DayAfterTomorrow))
	}

	msg := fmt.Sprintf("🏁 Beginner-friendly contest%s: %s", pluralize(d.Counts.Total()), strings.Join(parts, ", "))
	if d.Counts.Live > 0 {
		msg += fmt.Sprintf(" (%d live now)", d.Counts.Live)
	}
	return msg
}

func generatedLine(now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return fmt.Sprintf("_Generated at %s (%s)_", now.In(loc).Format("02-01-2006 3:04 PM"), loc.String())
}

func pluralize(count int) string {
	if count == 1 {
		return ""
	}
	return "s"
}
