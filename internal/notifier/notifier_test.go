package notifier

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/pfrederiksen/contest-digest/internal/config"
	"github.com/pfrederiksen/contest-digest/internal/digest"
)

func testDigest(text string) *digest.Digest {
	return &digest.Digest{
		Text:    text,
		Buckets: 2,
		Counts:  digest.Counts{Today: 2, Tomorrow: 1, Live: 1},
	}
}

type recordingNotifier struct {
	got []*digest.Digest
	err error
}

func (r *recordingNotifier) Notify(_ context.Context, d *digest.Digest) error {
	r.got = append(r.got, d)
	return r.err
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		limit int
		want  string
	}{
		{"under limit", "hello", 10, "hello"},
		{"at limit", "hello", 5, "hello"},
		{"over limit", "hello world", 5, "hell…"},
		{"runes not bytes", "🎯🎯🎯🎯", 3, "🎯🎯…"},
		{"no limit", "hello", 0, "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.input, tt.limit)
			if got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.limit, got, tt.want)
			}
			if tt.limit > 0 && utf8.RuneCountInString(got) > tt.limit {
				t.Errorf("truncate() length %d exceeds %d", utf8.RuneCountInString(got), tt.limit)
			}
		})
	}
}

func TestDeliveryError(t *testing.T) {
	cause := errors.New("connection refused")
	err := &DeliveryError{Sink: "webhook", StatusCode: 404, Detail: "Unknown Webhook", Err: cause}

	want := "delivering to webhook: status 404: Unknown Webhook: connection refused"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is() should find the cause")
	}
}

func TestMulti(t *testing.T) {
	ok := &recordingNotifier{}
	failing := &recordingNotifier{err: &DeliveryError{Sink: "telegram", StatusCode: 400}}
	last := &recordingNotifier{}

	err := Multi{ok, failing, last}.Notify(context.Background(), testDigest("hi"))
	if err == nil {
		t.Fatal("Notify() error = nil, want joined failure")
	}

	var de *DeliveryError
	if !errors.As(err, &de) || de.Sink != "telegram" {
		t.Errorf("errors.As() = %v, want telegram DeliveryError", err)
	}
	if len(ok.got) != 1 || len(last.got) != 1 {
		t.Error("every sink should be attempted even after a failure")
	}
}

func TestMulti_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := &recordingNotifier{}
	err := Multi{rec}.Notify(ctx, testDigest("hi"))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Notify() error = %v, want context.Canceled", err)
	}
	if len(rec.got) != 0 {
		t.Error("canceled run should not reach the sink")
	}
}

func TestDryRunNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewDryRunNotifier(&buf)

	if err := n.Notify(context.Background(), testDigest("## ✅ Contests for Today")); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "## ✅ Contests for Today") {
		t.Errorf("output missing digest text: %q", out)
	}
	if !strings.Contains(out, "(Length: 23 characters)") {
		t.Errorf("output missing rune length: %q", out)
	}

	buf.Reset()
	long := strings.Repeat("x", DiscordMaxLength+1)
	if err := n.Notify(context.Background(), testDigest(long)); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if !strings.Contains(buf.String(), "webhook will truncate") {
		t.Error("expected truncation note for oversize digest")
	}
}

func TestFormatTweet(t *testing.T) {
	tweet := formatTweet(testDigest("ignored"))

	for _, want := range []string{"2 today", "1 tomorrow", "1 live now", "#competitiveprogramming"} {
		if !strings.Contains(tweet, want) {
			t.Errorf("formatTweet() = %q, missing %q", tweet, want)
		}
	}
	if utf8.RuneCountInString(tweet) > TwitterMaxLength {
		t.Errorf("tweet length %d exceeds %d", utf8.RuneCountInString(tweet), TwitterMaxLength)
	}
}

func TestNewTwitterNotifier_MissingCredentials(t *testing.T) {
	if _, err := NewTwitterNotifier(TwitterCredentials{APIKey: "k"}); err == nil {
		t.Error("NewTwitterNotifier() expected error for incomplete credentials")
	}
}

func TestFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Sinks = []string{config.SinkWebhook, config.SinkStdout}
	cfg.WebhookURL = "https://discord.example/hook"

	n, err := FromConfig(cfg, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("FromConfig() error = %v", err)
	}
	multi, ok := n.(Multi)
	if !ok || len(multi) != 2 {
		t.Fatalf("FromConfig() = %#v, want Multi of 2", n)
	}
	if _, ok := multi[0].(*WebhookNotifier); !ok {
		t.Errorf("first sink = %T, want *WebhookNotifier", multi[0])
	}
	if _, ok := multi[1].(*DryRunNotifier); !ok {
		t.Errorf("second sink = %T, want *DryRunNotifier", multi[1])
	}

	cfg.Sinks = nil
	if _, err := FromConfig(cfg, nil); err == nil {
		t.Error("FromConfig() expected error for no sinks")
	}

	cfg.Sinks = []string{config.SinkTwitter}
	if _, err := FromConfig(cfg, nil); err == nil {
		t.Error("FromConfig() expected error for twitter without credentials")
	}
}
