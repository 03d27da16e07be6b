package notifier

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/pfrederiksen/contest-digest/internal/digest"
	"github.com/pfrederiksen/contest-digest/internal/logger"
)

// Notifier defines the interface for delivering a digest
type Notifier interface {
	// Notify delivers the digest to the sink
	Notify(ctx context.Context, d *digest.Digest) error
}

// DeliveryError reports a sink that did not accept the message
type DeliveryError struct {
	Sink       string
	StatusCode int
	Detail     string
	Err        error
}

func (e *DeliveryError) Error() string {
	msg := fmt.Sprintf("delivering to %s", e.Sink)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": status %d", e.StatusCode)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Multi delivers to every sink in order
type Multi []Notifier

// Notify delivers to all sinks even when one fails, and joins the failures
func (m Multi) Notify(ctx context.Context, d *digest.Digest) error {
	var errs []error
	for _, n := range m {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := n.Notify(ctx, d); err != nil {
			errs = append(errs, err)
			continue
		}
		logger.IncrCounter("notifier.sent")
	}
	return errors.Join(errs...)
}

// truncate shortens s to at most limit runes, ending with an ellipsis when cut
// fitMessage truncates text to the sink ceiling. Truncation drops contests
// from the end of the digest, so it is logged and counted.
func fitMessage(sink, text string, limit int) string {
	fitted := truncate(text, limit)
	if fitted != text {
		logger.IncrCounter("notifier.truncated")
		logger.Warn("Digest truncated to fit sink", logger.Fields{
			"sink":             sink,
			"original_length":  utf8.RuneCountInString(text),
			"truncated_length": utf8.RuneCountInString(fitted),
		})
	}
	return fitted
}

func truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit-1]) + "…"
}
