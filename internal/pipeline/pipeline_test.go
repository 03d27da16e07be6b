package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pfrederiksen/contest-digest/internal/clist"
	"github.com/pfrederiksen/contest-digest/internal/config"
	"github.com/pfrederiksen/contest-digest/internal/contest"
	"github.com/pfrederiksen/contest-digest/internal/digest"
	"github.com/pfrederiksen/contest-digest/internal/filter"
	"github.com/pfrederiksen/contest-digest/internal/format"
	"github.com/pfrederiksen/contest-digest/internal/notifier"
	"github.com/pfrederiksen/contest-digest/internal/window"
)

var ist = mustOffset("+05:30")

func mustOffset(s string) *time.Location {
	loc, err := window.ParseOffset(s)
	if err != nil {
		panic(err)
	}
	return loc
}

// 13:30 IST on 1 Jan 2025
var testNow = time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

// fakeFetcher answers by window start and records every window it saw
type fakeFetcher struct {
	mu      sync.Mutex
	byStart map[string][]contest.Contest
	errs    map[string]error
	windows []window.Window
}

func (f *fakeFetcher) FetchContests(_ context.Context, w window.Window, _ []int) ([]contest.Contest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.windows = append(f.windows, w)
	if err := f.errs[w.UTCStart]; err != nil {
		return nil, err
	}
	return f.byStart[w.UTCStart], nil
}

type recordingNotifier struct {
	got []*digest.Digest
	err error
}

func (r *recordingNotifier) Notify(_ context.Context, d *digest.Digest) error {
	r.got = append(r.got, d)
	return r.err
}

var (
	todayStart = window.Day(testNow, 0, ist).UTCStart
	laterStart = window.Day(testNow, 1, ist).UTCStart
)

func scenarioFetcher() *fakeFetcher {
	return &fakeFetcher{
		byStart: map[string][]contest.Contest{
			todayStart: {
				{ID: 1, Event: "Biweekly Contest 100", Resource: "leetcode", Start: "2025-01-01T14:00:00", Duration: 5400, Href: "https://x"},
				{ID: 2, Event: "Grand Final", Resource: "codeforces", Start: "2025-01-01T14:00:00", Duration: 7200, Href: "https://y"},
			},
			laterStart: {
				{ID: 3, Event: "Starters 150 (Div. 4)", Resource: "codechef", Start: "2025-01-02T14:30:00", Duration: 7200, Href: "https://z"},
				{ID: 4, Event: "ABC 390", Resource: "", Start: "2025-01-02T12:00:00", Duration: 6000},
			},
		},
	}
}

func scenarioOptions() Options {
	return Options{
		Buckets:  2,
		Format:   format.Options{IncludeLink: true},
		LiveNow:  true,
		Clock:    fixedClock,
		Location: ist,
	}
}

func TestService_Run(t *testing.T) {
	fetcher := scenarioFetcher()
	n := &recordingNotifier{}
	svc := New(fetcher, filter.NewFilter(), n, scenarioOptions())

	res, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if res.RunID == "" {
		t.Error("RunID is empty")
	}
	if res.Fetched != 4 || res.Kept != 3 || res.Malformed != 1 {
		t.Errorf("Fetched/Kept/Malformed = %d/%d/%d, want 4/3/1", res.Fetched, res.Kept, res.Malformed)
	}

	want := digest.Counts{Today: 1, Tomorrow: 1}
	if res.Digest.Counts != want {
		t.Errorf("Counts = %+v, want %+v", res.Digest.Counts, want)
	}

	if len(n.got) != 1 || n.got[0] != res.Digest {
		t.Fatalf("notifier received %d digests", len(n.got))
	}

	text := res.Digest.Text
	for _, s := range []string{"Biweekly Contest 100", "Leetcode", "1h 30m", "(https://x)", "Starters 150 (Div. 4)", digest.NoContestsLive} {
		if !strings.Contains(text, s) {
			t.Errorf("digest missing %q", s)
		}
	}
	if strings.Contains(text, "Grand Final") {
		t.Error("digest contains unfiltered contest")
	}
}

func TestService_FetchWindows(t *testing.T) {
	tests := []struct {
		name    string
		buckets int
		want    []string
	}{
		{
			name:    "one bucket fetches today only",
			buckets: 1,
			want:    []string{"2024-12-31T18:30:00..2025-01-01T18:29:59"},
		},
		{
			name:    "two buckets fetch today and tomorrow",
			buckets: 2,
			want: []string{
				"2024-12-31T18:30:00..2025-01-01T18:29:59",
				"2025-01-01T18:30:00..2025-01-02T18:29:59",
			},
		},
		{
			name:    "three buckets fetch today and a two-day span",
			buckets: 3,
			want: []string{
				"2024-12-31T18:30:00..2025-01-01T18:29:59",
				"2025-01-01T18:30:00..2025-01-03T18:29:59",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := &fakeFetcher{}
			opts := scenarioOptions()
			opts.Buckets = tt.buckets

			if _, err := New(fetcher, nil, nil, opts).Build(context.Background()); err != nil {
				t.Fatalf("Build() error = %v", err)
			}

			got := make(map[string]bool)
			for _, w := range fetcher.windows {
				got[w.UTCStart+".."+w.UTCEnd] = true
			}
			if len(fetcher.windows) != len(tt.want) {
				t.Fatalf("fetched %d windows, want %d", len(fetcher.windows), len(tt.want))
			}
			for _, w := range tt.want {
				if !got[w] {
					t.Errorf("missing window %s, got %v", w, got)
				}
			}
		})
	}
}

// barrierFetcher holds every call until want calls are in flight, so it only
// succeeds when the fetches run concurrently
type barrierFetcher struct {
	want    int
	timeout time.Duration

	mu      sync.Mutex
	arrived int
	ready   chan struct{}
}

func newBarrierFetcher(want int) *barrierFetcher {
	return &barrierFetcher{want: want, timeout: 2 * time.Second, ready: make(chan struct{})}
}

func (b *barrierFetcher) FetchContests(ctx context.Context, w window.Window, _ []int) ([]contest.Contest, error) {
	b.mu.Lock()
	b.arrived++
	if b.arrived == b.want {
		close(b.ready)
	}
	b.mu.Unlock()

	select {
	case <-b.ready:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(b.timeout):
		return nil, errors.New("fetch for " + w.String() + " waited alone: fetches are not concurrent")
	}
}

func TestService_FetchesRunConcurrently(t *testing.T) {
	for _, buckets := range []int{2, 3} {
		fetcher := newBarrierFetcher(2)
		opts := scenarioOptions()
		opts.Buckets = buckets

		if _, err := New(fetcher, filter.NewFilter(), nil, opts).Build(context.Background()); err != nil {
			t.Errorf("buckets=%d: Build() error = %v", buckets, err)
		}
		if fetcher.arrived != 2 {
			t.Errorf("buckets=%d: %d fetches, want 2", buckets, fetcher.arrived)
		}
	}
}

func TestService_FetchFailure(t *testing.T) {
	fetcher := scenarioFetcher()
	fetcher.errs = map[string]error{
		laterStart: &clist.FetchError{StatusCode: http.StatusUnauthorized, Detail: "Invalid API key"},
	}
	n := &recordingNotifier{}

	_, err := New(fetcher, filter.NewFilter(), n, scenarioOptions()).Run(context.Background())

	var fe *clist.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("Run() error = %v, want *clist.FetchError", err)
	}
	if fe.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d", fe.StatusCode)
	}
	if len(n.got) != 0 {
		t.Error("digest delivered after a fetch failure")
	}
}

func TestService_StrictRecords(t *testing.T) {
	opts := scenarioOptions()
	opts.StrictRecords = true

	_, err := New(scenarioFetcher(), filter.NewFilter(), &recordingNotifier{}, opts).Run(context.Background())

	var fmtErr *format.Error
	if !errors.As(err, &fmtErr) {
		t.Fatalf("Run() error = %v, want *format.Error", err)
	}
	if fmtErr.ID != 4 {
		t.Errorf("format.Error.ID = %d, want 4", fmtErr.ID)
	}
}

func TestService_DeliveryFailure(t *testing.T) {
	n := &recordingNotifier{err: &notifier.DeliveryError{Sink: "webhook", StatusCode: 404}}

	res, err := New(scenarioFetcher(), filter.NewFilter(), n, scenarioOptions()).Run(context.Background())

	var de *notifier.DeliveryError
	if !errors.As(err, &de) {
		t.Fatalf("Run() error = %v, want *notifier.DeliveryError", err)
	}
	if res == nil || res.Digest == nil {
		t.Error("Run() should return the composed digest alongside a delivery failure")
	}
}

func TestService_NoNotifier(t *testing.T) {
	_, err := New(scenarioFetcher(), nil, nil, scenarioOptions()).Run(context.Background())
	if !errors.Is(err, ErrNoNotifier) {
		t.Errorf("Run() error = %v, want ErrNoNotifier", err)
	}
}

func TestService_EmptyBuckets(t *testing.T) {
	opts := scenarioOptions()
	opts.Buckets = 3

	res, err := New(&fakeFetcher{}, filter.NewFilter(), nil, opts).Build(context.Background())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	for name, placeholder := range map[string]string{
		"today":              digest.NoContestsToday,
		"tomorrow":           digest.NoContestsTomorrow,
		"day_after_tomorrow": digest.NoContestsDayAfter,
		"live":               digest.NoContestsLive,
	} {
		s, ok := res.Digest.Section(name)
		if !ok {
			t.Errorf("section %s missing", name)
			continue
		}
		if s.Body() != placeholder {
			t.Errorf("section %s body = %q, want %q", name, s.Body(), placeholder)
		}
	}
}

func TestService_Upcoming(t *testing.T) {
	lookaheadStart := testNow.Format(window.QueryLayout)
	fetcher := &fakeFetcher{
		byStart: map[string][]contest.Contest{
			lookaheadStart: {
				{ID: 10, Event: "AtCoder Beginner Contest 390", Resource: "atcoder", Start: "2025-01-04T12:00:00", Duration: 6000, Href: "https://atcoder.jp/contests/abc390"},
				{ID: 11, Event: "Codeforces Round 999 (Div. 1)", Resource: "codeforces", Start: "2025-01-03T14:35:00", Duration: 7200},
			},
		},
	}

	got, err := New(fetcher, filter.NewFilter(), nil, scenarioOptions()).Upcoming(context.Background())
	if err != nil {
		t.Fatalf("Upcoming() error = %v", err)
	}

	if len(fetcher.windows) != 1 || fetcher.windows[0].UTCEnd != "2025-01-06T08:00:00" {
		t.Errorf("windows = %+v, want one five-day lookahead", fetcher.windows)
	}
	if len(got) != 1 || got[0].Title != "AtCoder Beginner Contest 390" {
		t.Fatalf("Upcoming() = %+v", got)
	}
	if got[0].Link != "https://atcoder.jp/contests/abc390" {
		t.Errorf("Link = %q", got[0].Link)
	}
}

func TestRun_EndToEnd(t *testing.T) {
	var authHeader string
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		objects := []contest.Contest{}
		if r.URL.Query().Get("start__gt") == todayStart {
			objects = append(objects,
				contest.Contest{ID: 1, Event: "Biweekly Contest 100", Resource: "leetcode", Start: "2025-01-01T14:00:00", Duration: 5400, Href: "https://x"},
				contest.Contest{ID: 2, Event: "Grand Final", Resource: "codeforces", Start: "2025-01-01T14:00:00", Duration: 7200, Href: "https://y"},
			)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"meta": map[string]int{"limit": 1000}, "objects": objects})
	}))
	defer api.Close()

	var posted struct {
		Content string `json:"content"`
	}
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&posted)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer hook.Close()

	cfg := config.Default()
	cfg.Username = "alice"
	cfg.APIKey = "secret"
	cfg.BaseURL = api.URL + "/api/v2/"
	cfg.WebhookURL = hook.URL

	svc := FromConfig(cfg, notifier.NewWebhookNotifier(cfg.WebhookURL, hook.Client()), fixedClock)
	res, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if authHeader != "ApiKey alice:secret" {
		t.Errorf("Authorization = %q", authHeader)
	}
	if res.Digest.Counts.Today != 1 || res.Digest.Counts.Tomorrow != 0 {
		t.Errorf("Counts = %+v", res.Digest.Counts)
	}
	for _, s := range []string{"Biweekly Contest 100", "Leetcode", "1h 30m", "https://x", digest.NoContestsTomorrow, "`01-01-2025`"} {
		if !strings.Contains(posted.Content, s) {
			t.Errorf("posted content missing %q", s)
		}
	}
}
