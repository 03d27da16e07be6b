package digest

import (
	"time"

	"github.com/pfrederiksen/contest-digest/internal/format"
	"github.com/pfrederiksen/contest-digest/internal/window"
)

// Day bucket indexes
const (
	Today = iota
	Tomorrow
	DayAfterTomorrow
)

// MaxBuckets is the largest supported number of day buckets
const MaxBuckets = 3

// Buckets holds formatted contests grouped by local start day
type Buckets struct {
	// Labels holds the DD-MM-YYYY label of each day bucket in use
	Labels []string
	// Days holds the contests of each bucket, in input order
	Days [][]format.Contest
	// Live holds contests running at assignment time
	Live []format.Contest
}

// Count returns the number of day buckets in use
func (b Buckets) Count() int {
	return len(b.Days)
}

// Day returns the contests of bucket i, or nil when the bucket is not in use
func (b Buckets) Day(i int) []format.Contest {
	if i < 0 || i >= len(b.Days) {
		return nil
	}
	return b.Days[i]
}

// Label returns the date label of bucket i
func (b Buckets) Label(i int) string {
	if i < 0 || i >= len(b.Labels) {
		return ""
	}
	return b.Labels[i]
}

// BucketOf returns the number of local calendar days between now and start:
// 0 for today, 1 for tomorrow and so on. Negative values mean the contest
// started before today.
func BucketOf(start, now time.Time, loc *time.Location) int {
	return window.DaysBetween(now, start, loc)
}

// ClampCount limits a configured bucket count to 1..MaxBuckets
func ClampCount(count int) int {
	if count < 1 {
		return 1
	}
	if count > MaxBuckets {
		return MaxBuckets
	}
	return count
}

// Assign groups contests into count day buckets and collects live contests.
// Contests outside the buckets are dropped.
func Assign(contests []format.Contest, now time.Time, loc *time.Location, count int) Buckets {
	count = ClampCount(count)

	b := Buckets{
		Labels: make([]string, count),
		Days:   make([][]format.Contest, count),
	}
	for i := 0; i < count; i++ {
		b.Labels[i] = window.Day(now, i, loc).DateLabel
		b.Days[i] = []format.Contest{}
	}

	for _, c := range contests {
		if c.IsLive(now) {
			b.Live = append(b.Live, c)
		}

		day := BucketOf(c.Start, now, loc)
		if day < 0 || day >= count {
			continue
		}
		b.Days[day] = append(b.Days[day], c)
	}

	return b
}
