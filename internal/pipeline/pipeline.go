// Package pipeline runs one digest request end to end: compute windows, fetch
// both windows concurrently, filter, format, bucket, compose and deliver.
//
// A Service holds no per-run state. Every Run builds its own windows and
// results, so the HTTP handler, the CLI and the scheduler can share one.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pfrederiksen/contest-digest/internal/contest"
	"github.com/pfrederiksen/contest-digest/internal/digest"
	"github.com/pfrederiksen/contest-digest/internal/filter"
	"github.com/pfrederiksen/contest-digest/internal/format"
	"github.com/pfrederiksen/contest-digest/internal/logger"
	"github.com/pfrederiksen/contest-digest/internal/notifier"
	"github.com/pfrederiksen/contest-digest/internal/window"
)

// ErrNoNotifier is returned by Run when the service has no sink
var ErrNoNotifier = errors.New("no notifier configured")

// Fetcher retrieves contests starting inside a window
type Fetcher interface {
	FetchContests(ctx context.Context, w window.Window, resourceIDs []int) ([]contest.Contest, error)
}

// Options configures a Service
type Options struct {
	Buckets       int
	ResourceIDs   []int
	Format        format.Options
	Flavor        format.Flavor
	LiveNow       bool
	Timestamp     bool
	LookaheadDays int
	// StrictRecords aborts a run on the first malformed record instead of
	// skipping it
	StrictRecords bool

	Clock    window.Clock
	Location *time.Location
}

// Service runs digest requests
type Service struct {
	fetcher  Fetcher
	filter   *filter.Filter
	notifier notifier.Notifier
	opts     Options
}

// Result describes one completed run
type Result struct {
	RunID     string
	Digest    *digest.Digest
	Fetched   int
	Kept      int
	Malformed int
}

// New creates a Service. A nil filter keeps every contest; n may be nil for
// services that only Build.
func New(fetcher Fetcher, f *filter.Filter, n notifier.Notifier, opts Options) *Service {
	if f == nil {
		f = filter.NewKeywordFilter(nil)
	}
	if opts.Clock == nil {
		opts.Clock = window.SystemClock
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	opts.Buckets = digest.ClampCount(opts.Buckets)
	if opts.LookaheadDays <= 0 {
		opts.LookaheadDays = window.DefaultLookaheadDays
	}

	return &Service{
		fetcher:  fetcher,
		filter:   f,
		notifier: n,
		opts:     opts,
	}
}

// Build fetches and composes a digest without delivering it
func (s *Service) Build(ctx context.Context) (*Result, error) {
	started := time.Now()
	now := s.opts.Clock()
	loc := s.opts.Location
	res := &Result{RunID: uuid.NewString()}
	log := logger.Default().With(logger.Fields{"run_id": res.RunID})

	raw, err := s.fetchBuckets(ctx, now)
	if err != nil {
		log.Error("Fetching contests failed", nil, err)
		return nil, err
	}
	res.Fetched = len(raw)

	kept := s.filter.Apply(raw)
	res.Kept = len(kept)

	formatted, malformed, err := s.formatAll(kept, log)
	res.Malformed = malformed
	if err != nil {
		return nil, err
	}

	buckets := digest.Assign(formatted, now, loc, s.opts.Buckets)
	res.Digest = digest.Compose(buckets, digest.Options{
		LiveNow:   s.opts.LiveNow,
		Timestamp: s.opts.Timestamp,
		Flavor:    s.opts.Flavor,
		Now:       now,
		Location:  loc,
	})

	logger.IncrCounterBy("contests.kept", int64(res.Kept))
	logger.RecordTiming("pipeline.build", time.Since(started))
	log.Info("Digest composed", logger.Fields{
		"fetched":   res.Fetched,
		"kept":      res.Kept,
		"malformed": res.Malformed,
		"today":     res.Digest.Counts.Today,
		"tomorrow":  res.Digest.Counts.Tomorrow,
		"live":      res.Digest.Counts.Live,
	})

	return res, nil
}

// Run builds the digest and delivers it to the notifier
func (s *Service) Run(ctx context.Context) (*Result, error) {
	if s.notifier == nil {
		return nil, ErrNoNotifier
	}

	started := time.Now()
	res, err := s.Build(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.notifier.Notify(ctx, res.Digest); err != nil {
		logger.Error("Delivering digest failed", logger.Fields{"run_id": res.RunID}, err)
		return res, err
	}

	logger.RecordTiming("pipeline.run", time.Since(started))
	logger.Info("Digest sent", logger.Fields{
		"run_id": res.RunID,
		"length": len(res.Digest.Text),
	})
	return res, nil
}

// Upcoming lists filtered contests starting within the lookahead window,
// ordered by start
func (s *Service) Upcoming(ctx context.Context) ([]format.Contest, error) {
	w := window.Lookahead(s.opts.Clock(), s.opts.LookaheadDays)

	raw, err := s.fetcher.FetchContests(ctx, w, s.opts.ResourceIDs)
	if err != nil {
		return nil, err
	}

	log := logger.Default().With(logger.Fields{"window": w.String()})
	formatted, _, err := s.formatAll(s.filter.Apply(raw), log)
	if err != nil {
		return nil, err
	}
	return formatted, nil
}

// fetchBuckets fetches today and, when more than one bucket is in use, the
// following days in a single span. Both requests run concurrently and the
// first failure cancels the other.
func (s *Service) fetchBuckets(ctx context.Context, now time.Time) ([]contest.Contest, error) {
	loc := s.opts.Location
	g, gctx := errgroup.WithContext(ctx)

	var today, later []contest.Contest

	todayWindow := window.Day(now, 0, loc)
	g.Go(func() error {
		var err error
		today, err = s.fetcher.FetchContests(gctx, todayWindow, s.opts.ResourceIDs)
		return err
	})

	if s.opts.Buckets > 1 {
		laterWindow := window.Span(now, 1, s.opts.Buckets-1, loc)
		g.Go(func() error {
			var err error
			later, err = s.fetcher.FetchContests(gctx, laterWindow, s.opts.ResourceIDs)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	all := make([]contest.Contest, 0, len(today)+len(later))
	all = append(all, today...)
	return append(all, later...), nil
}

// formatAll formats contests in order. Malformed records are skipped and
// counted unless StrictRecords is set.
func (s *Service) formatAll(contests []contest.Contest, log *logger.Logger) ([]format.Contest, int, error) {
	out := make([]format.Contest, 0, len(contests))
	malformed := 0

	for _, c := range contests {
		f, err := format.Format(c, s.opts.Location, s.opts.Format)
		if err != nil {
			if s.opts.StrictRecords {
				log.Error("Malformed contest record", logger.Fields{"id": c.ID, "event": c.Event}, err)
				return nil, malformed, err
			}
			malformed++
			logger.IncrCounter("contests.malformed")
			log.Warn("Skipping malformed contest record", logger.Fields{
				"id":       c.ID,
				"event":    c.Event,
				"resource": c.Resource,
				"start":    c.Start,
				"error":    err.Error(),
			})
			continue
		}
		out = append(out, f)
	}

	return out, malformed, nil
}

// String describes the service configuration for logs
func (s *Service) String() string {
	return fmt.Sprintf("buckets=%d live_now=%v timestamp=%v %s", s.opts.Buckets, s.opts.LiveNow, s.opts.Timestamp, s.filter.String())
}
