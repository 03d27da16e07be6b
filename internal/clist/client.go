package clist

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dghubble/sling"

	"github.com/pfrederiksen/contest-digest/internal/contest"
	"github.com/pfrederiksen/contest-digest/internal/logger"
	"github.com/pfrederiksen/contest-digest/internal/window"
)

const (
	DefaultBaseURL = "https://clist.by/api/v2/"
	UserAgent      = "contest-digest/1.0 (github.com/pfrederiksen/contest-digest)"
	DefaultTimeout = 30 * time.Second
)

// DefaultResourceIDs are codeforces.com (1), codechef.com (2),
// atcoder.jp (93), leetcode.com (102) and geeksforgeeks.org (12)
var DefaultResourceIDs = []int{1, 2, 93, 102, 12}

// Credentials authenticate against clist.by
type Credentials struct {
	Username string
	APIKey   string
}

// IsZero reports whether no credentials were supplied
func (c Credentials) IsZero() bool {
	return c.Username == "" && c.APIKey == ""
}

// Header returns the Authorization header value
func (c Credentials) Header() string {
	return fmt.Sprintf("ApiKey %s:%s", c.Username, c.APIKey)
}

// Client is a clist.by API client
type Client struct {
	creds   Credentials
	baseURL string
	base    *sling.Sling
}

// NewClient creates a new clist.by API client. An empty baseURL selects
// DefaultBaseURL; a zero timeout selects DefaultTimeout.
func NewClient(creds Credentials, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	base := sling.New().
		Client(&http.Client{Timeout: timeout}).
		Base(baseURL).
		Set("User-Agent", UserAgent).
		Set("Accept", "application/json")
	if !creds.IsZero() {
		base = base.Set("Authorization", creds.Header())
	}

	return &Client{
		creds:   creds,
		baseURL: baseURL,
		base:    base,
	}
}

// contestQuery holds the /contest/ query parameters
type contestQuery struct {
	StartAfter  string `url:"start__gt"`
	StartBefore string `url:"start__lt"`
	OrderBy     string `url:"order_by"`
	ResourceIDs []int  `url:"resource_id__in,comma,omitempty"`
}

// contestList is the paginated /contest/ response
type contestList struct {
	Meta struct {
		Limit      int  `json:"limit"`
		Offset     int  `json:"offset"`
		TotalCount *int `json:"total_count"`
	} `json:"meta"`
	Objects []contest.Contest `json:"objects"`
}

// apiError is the body clist returns alongside 4xx/5xx statuses
type apiError struct {
	Detail string `json:"detail"`
	Error  string `json:"error"`
}

// FetchContests returns contests starting strictly inside w for the given
// resources, ordered by start ascending
func (c *Client) FetchContests(ctx context.Context, w window.Window, resourceIDs []int) ([]contest.Contest, error) {
	started := time.Now()

	params := &contestQuery{
		StartAfter:  w.UTCStart,
		StartBefore: w.UTCEnd,
		OrderBy:     "start",
		ResourceIDs: resourceIDs,
	}

	req, err := c.base.New().Get("contest/").QueryStruct(params).Request()
	if err != nil {
		return nil, &FetchError{Window: w, Err: fmt.Errorf("creating request: %w", err)}
	}
	req = req.WithContext(ctx)

	var list contestList
	var failure apiError
	resp, err := c.base.Do(req, &list, &failure)
	logger.RecordTiming("clist.fetch", time.Since(started))

	if resp != nil && (resp.StatusCode < 200 || resp.StatusCode > 299) {
		detail := failure.Detail
		if detail == "" {
			detail = failure.Error
		}
		return nil, &FetchError{
			Window:     w,
			StatusCode: resp.StatusCode,
			Detail:     detail,
			Err:        fmt.Errorf("unexpected status code: %d", resp.StatusCode),
		}
	}
	if err != nil {
		if resp == nil {
			return nil, &FetchError{Window: w, Err: fmt.Errorf("fetching contests: %w", err)}
		}
		return nil, &FetchError{Window: w, StatusCode: resp.StatusCode, Err: fmt.Errorf("parsing response: %w", err)}
	}
	if list.Objects == nil {
		return nil, &FetchError{Window: w, StatusCode: resp.StatusCode, Err: errors.New("parsing response: missing objects")}
	}

	for i := range list.Objects {
		list.Objects[i].Event = contest.NormalizeTitle(list.Objects[i].Event)
	}

	logger.Debug("Fetched contests", logger.Fields{
		"window": w.String(),
		"count":  len(list.Objects),
	})
	logger.IncrCounterBy("contests.fetched", int64(len(list.Objects)))

	return list.Objects, nil
}
