// Package cli implements the command-line interface for contest-digest.
//
// The cli package provides the Cobra-based CLI: send (run once and deliver),
// preview (print the digest), upcoming (list the lookahead window as text or
// JSON), ics (export an iCalendar file) and serve (HTTP trigger plus optional
// cron schedule). Configuration comes from internal/config with persistent
// flags applied last.
package cli
