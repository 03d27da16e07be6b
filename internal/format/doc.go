// Package format turns contest records into display-ready values and renders
// them as Markdown snippets for chat webhooks.
//
// Times are shown in the configured local zone with the layout
// "Mon, 2 Jan, 3:04 PM" (short weekday, day, short month, 12-hour clock).
// Durations are always rendered as "{h}h {m}m".
package format
