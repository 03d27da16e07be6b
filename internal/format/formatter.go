package format

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/pfrederiksen/contest-digest/internal/contest"
)

// DisplayLayout renders local start and end times
const DisplayLayout = "Mon, 2 Jan, 3:04 PM"

// Flavor selects a rendering template
type Flavor int

const (
	// FlavorFull renders one field per paragraph, the webhook default
	FlavorFull Flavor = iota
	// FlavorCompact renders one line per contest including the end time
	FlavorCompact
)

func (f Flavor) String() string {
	if f == FlavorCompact {
		return "compact"
	}
	return "full"
}

// ParseFlavor maps "full" or "compact" to a Flavor
func ParseFlavor(s string) (Flavor, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "full":
		return FlavorFull, nil
	case "compact":
		return FlavorCompact, nil
	default:
		return FlavorFull, fmt.Errorf("unknown flavor %q (must be 'full' or 'compact')", s)
	}
}

// Options controls optional fields
type Options struct {
	IncludeLink bool
}

// Contest is the display view of a contest record
type Contest struct {
	ID         int       `json:"id,omitempty"`
	Title      string    `json:"title"`
	Platform   string    `json:"platform"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	StartLocal string    `json:"start_local"`
	EndLocal   string    `json:"end_local"`
	Duration   string    `json:"duration"`
	Link       string    `json:"link,omitempty"`
}

// IsLive reports whether now falls within [Start, End]
func (f Contest) IsLive(now time.Time) bool {
	return !now.Before(f.Start) && !now.After(f.End)
}

// Error is returned for records that cannot be rendered
type Error struct {
	ID    int
	Event string
	Err   error
}

func (e *Error) Error() string {
	name := e.Event
	if name == "" {
		name = fmt.Sprintf("#%d", e.ID)
	}
	return fmt.Sprintf("formatting contest %s: %v", name, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Format builds the display view of c with times in loc
func Format(c contest.Contest, loc *time.Location, opts Options) (Contest, error) {
	if err := c.Validate(); err != nil {
		return Contest{}, &Error{ID: c.ID, Event: c.Event, Err: err}
	}

	start, err := c.StartTime()
	if err != nil {
		return Contest{}, &Error{ID: c.ID, Event: c.Event, Err: err}
	}
	end, err := c.EndTime()
	if err != nil {
		return Contest{}, &Error{ID: c.ID, Event: c.Event, Err: err}
	}

	f := Contest{
		ID:         c.ID,
		Title:      c.Event,
		Platform:   PlatformLabel(c.Resource),
		Start:      start.In(loc),
		End:        end.In(loc),
		StartLocal: start.In(loc).Format(DisplayLayout),
		EndLocal:   end.In(loc).Format(DisplayLayout),
		Duration:   DurationLabel(c.Duration),
	}
	if opts.IncludeLink {
		f.Link = c.Href
	}
	return f, nil
}

// DurationLabel renders seconds as "{h}h {m}m", dropping leftover seconds
func DurationLabel(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

// PlatformLabel upper-cases the first letter of a resource slug and leaves
// the rest untouched
func PlatformLabel(resource string) string {
	if resource == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(resource)
	return string(unicode.ToUpper(r)) + resource[size:]
}

// Render renders a formatted contest as Markdown
func Render(f Contest, flavor Flavor) string {
	if flavor == FlavorCompact {
		return renderCompact(f)
	}

	var msg strings.Builder

	msg.WriteString(fmt.Sprintf("🎯 **%s**\n\n", f.Title))
	msg.WriteString(fmt.Sprintf("🌐 Platform: `%s`\n\n", f.Platform))
	msg.WriteString(fmt.Sprintf("🗓️ Start: `%s`\n\n", f.StartLocal))
	msg.WriteString(fmt.Sprintf("⌛ Duration: `%s`", f.Duration))

	if f.Link != "" {
		msg.WriteString(fmt.Sprintf("\n\n🔗 [Join Contest](%s)", f.Link))
	}

	return msg.String()
}

func renderCompact(f Contest) string {
	var msg strings.Builder

	msg.WriteString(fmt.Sprintf("• **%s** · %s · %s → %s · %s", f.Title, f.Platform, f.StartLocal, f.EndLocal, f.Duration))
	if f.Link != "" {
		msg.WriteString(fmt.Sprintf(" · [link](%s)", f.Link))
	}

	return msg.String()
}

// RenderAll renders each contest and returns the snippets in order
func RenderAll(contests []Contest, flavor Flavor) []string {
	out := make([]string, 0, len(contests))
	for _, f := range contests {
		out = append(out, Render(f, flavor))
	}
	return out
}
