package contest

import (
	"fmt"
	"strings"
	"time"
)

// naiveLayouts are tried in order. clist returns "2025-01-01T14:00:00" but
// older responses and hand-written fixtures use a space separator, a fraction
// or a trailing zone.
var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	time.RFC3339,
}

// ParseStart parses a clist timestamp. Naive timestamps are taken as UTC;
// timestamps with an explicit offset are converted to UTC.
func ParseStart(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: timestamp", ErrMissingField)
	}

	for _, layout := range naiveLayouts {
		t, err := time.ParseInLocation(layout, s, time.UTC)
		if err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
