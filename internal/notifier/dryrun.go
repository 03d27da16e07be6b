package notifier

import (
	"context"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/pfrederiksen/contest-digest/internal/digest"
)

// DryRunNotifier prints what would be posted without sending anything
type DryRunNotifier struct {
	out io.Writer
}

// NewDryRunNotifier creates a dry-run sink writing to out, or stdout when nil
func NewDryRunNotifier(out io.Writer) *DryRunNotifier {
	if out == nil {
		out = os.Stdout
	}
	return &DryRunNotifier{out: out}
}

// Notify prints the digest text and its length
func (n *DryRunNotifier) Notify(_ context.Context, d *digest.Digest) error {
	length := utf8.RuneCountInString(d.Text)
	if _, err := fmt.Fprintf(n.out, "%s\n\n(Length: %d characters", d.Text, length); err != nil {
		return err
	}
	if length > DiscordMaxLength {
		fmt.Fprintf(n.out, ", webhook will truncate to %d", DiscordMaxLength)
	}
	_, err := fmt.Fprintln(n.out, ")")
	return err
}
