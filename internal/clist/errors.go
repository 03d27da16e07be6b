package clist

import (
	"fmt"

	"github.com/pfrederiksen/contest-digest/internal/window"
)

// FetchError reports a failed contest query: a transport error, a non-2xx
// status or a body that could not be decoded
type FetchError struct {
	Window     window.Window
	StatusCode int
	Detail     string
	Err        error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("fetching contests for %s", e.Window)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
