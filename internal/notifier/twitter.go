package notifier

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dghubble/go-twitter/twitter" //nolint:staticcheck // Using stable v1.1 API
	"github.com/dghubble/oauth1"

	"github.com/pfrederiksen/contest-digest/internal/digest"
	"github.com/pfrederiksen/contest-digest/internal/logger"
)

// TwitterMaxLength is the tweet ceiling
const TwitterMaxLength = 280

// TwitterCredentials are the four OAuth1 values for a user context
type TwitterCredentials struct {
	APIKey       string
	APISecret    string
	AccessToken  string
	AccessSecret string
}

// TwitterNotifier posts a one-line summary of the digest
type TwitterNotifier struct {
	httpClient *http.Client
}

// NewTwitterNotifier creates a Twitter sink signing requests with creds
func NewTwitterNotifier(creds TwitterCredentials) (*TwitterNotifier, error) {
	if creds.APIKey == "" || creds.APISecret == "" || creds.AccessToken == "" || creds.AccessSecret == "" {
		return nil, fmt.Errorf("missing required Twitter credentials")
	}

	config := oauth1.NewConfig(creds.APIKey, creds.APISecret)
	token := oauth1.NewToken(creds.AccessToken, creds.AccessSecret)
	return newTwitterNotifier(config.Client(oauth1.NoContext, token)), nil
}

func newTwitterNotifier(httpClient *http.Client) *TwitterNotifier {
	return &TwitterNotifier{httpClient: httpClient}
}

// contextTransport attaches ctx to every request, since go-twitter builds its
// requests without one
type contextTransport struct {
	ctx  context.Context
	base http.RoundTripper
}

func (t contextTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.base.RoundTrip(req.WithContext(t.ctx))
}

// clientFor returns a go-twitter client whose requests are canceled with ctx
func (n *TwitterNotifier) clientFor(ctx context.Context) *twitter.Client {
	base := n.httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	hc := *n.httpClient
	hc.Transport = contextTransport{ctx: ctx, base: base}
	return twitter.NewClient(&hc)
}

// Notify posts the digest summary
func (n *TwitterNotifier) Notify(ctx context.Context, d *digest.Digest) error {
	if err := ctx.Err(); err != nil {
		return &DeliveryError{Sink: "twitter", Err: err}
	}

	tweet := formatTweet(d)
	_, resp, err := n.clientFor(ctx).Statuses.Update(tweet, nil)
	if err != nil {
		de := &DeliveryError{Sink: "twitter", Err: err}
		if resp != nil {
			de.StatusCode = resp.StatusCode
		}
		return de
	}

	logger.Debug("Tweet posted", logger.Fields{"length": len(tweet)})
	return nil
}

// formatTweet formats the digest summary as a tweet
func formatTweet(d *digest.Digest) string {
	tweet := d.Summary() + "\n\n#competitiveprogramming #coding"
	return truncate(tweet, TwitterMaxLength)
}
