// Package calendar exports contests as an iCalendar feed.
package calendar

import (
	"fmt"
	"hash/fnv"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/pfrederiksen/contest-digest/internal/format"
)

const (
	productName = "contest-digest"
	uidDomain   = "clist.by"
)

// Build creates a calendar holding one VEVENT per contest. stamp is written
// as DTSTAMP on every event.
func Build(contests []format.Contest, stamp time.Time) *ical.Calendar {
	cal := ical.NewCalendarFor(productName)
	cal.SetMethod(ical.MethodPublish)
	cal.SetXWRCalName("Upcoming contests")

	for _, c := range contests {
		ev := cal.AddEvent(UID(c))
		ev.SetDtStampTime(stamp.UTC())
		ev.SetStartAt(c.Start.UTC())
		ev.SetEndAt(c.End.UTC())
		ev.SetSummary(c.Title)
		ev.SetLocation(c.Platform)
		ev.SetDescription(description(c))
		if c.Link != "" {
			ev.SetURL(c.Link)
		}
	}

	return cal
}

// Write serializes the calendar for contests to w
func Write(w io.Writer, contests []format.Contest, stamp time.Time) error {
	_, err := io.WriteString(w, Build(contests, stamp).Serialize())
	return err
}

// UID returns a stable identifier for c. clist ids are used when present;
// otherwise the title and start are hashed.
func UID(c format.Contest) string {
	if c.ID != 0 {
		return fmt.Sprintf("contest-%d@%s", c.ID, uidDomain)
	}
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%d", c.Title, c.Start.Unix())
	return fmt.Sprintf("contest-%x@%s", h.Sum64(), uidDomain)
}

func description(c format.Contest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Platform: %s\nDuration: %s", c.Platform, c.Duration)
	if c.Link != "" {
		fmt.Fprintf(&b, "\nJoin: %s", c.Link)
	}
	return b.String()
}
