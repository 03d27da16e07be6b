package contest

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// ErrMissingField is wrapped by Validate when a required field is empty
var ErrMissingField = errors.New("missing field")

// Contest represents a single contest record from clist.by
type Contest struct {
	ID         int    `json:"id"`
	Event      string `json:"event"`
	Resource   string `json:"resource"`
	ResourceID int    `json:"resource_id,omitempty"`
	Start      string `json:"start"`
	End        string `json:"end,omitempty"`
	Duration   int    `json:"duration"`
	Href       string `json:"href"`
}

// Validate checks that the fields needed for rendering are present and sane
func (c *Contest) Validate() error {
	switch {
	case strings.TrimSpace(c.Event) == "":
		return fmt.Errorf("%w: event", ErrMissingField)
	case strings.TrimSpace(c.Resource) == "":
		return fmt.Errorf("%w: resource", ErrMissingField)
	case strings.TrimSpace(c.Start) == "":
		return fmt.Errorf("%w: start", ErrMissingField)
	case c.Duration < 0:
		return fmt.Errorf("negative duration %d", c.Duration)
	}
	return nil
}

// StartTime parses Start as a UTC instant
func (c *Contest) StartTime() (time.Time, error) {
	return ParseStart(c.Start)
}

// EndTime returns End when the record carries one, otherwise Start plus Duration
func (c *Contest) EndTime() (time.Time, error) {
	if c.End != "" {
		if end, err := ParseStart(c.End); err == nil {
			return end, nil
		}
	}
	start, err := c.StartTime()
	if err != nil {
		return time.Time{}, err
	}
	return start.Add(time.Duration(c.Duration) * time.Second), nil
}

// NormalizeTitle strips markup and entities from a contest title and
// collapses runs of whitespace. Some judges publish titles containing
// "&amp;" or inline tags.
func NormalizeTitle(title string) string {
	if !strings.ContainsAny(title, "<&") {
		return strings.Join(strings.Fields(title), " ")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(title))
	if err != nil {
		return strings.Join(strings.Fields(title), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
