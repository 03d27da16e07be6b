// Package digest groups formatted contests into day buckets and composes the
// single Markdown message posted to a chat webhook.
//
// Sections always appear in the same order: today, live now, tomorrow, day
// after tomorrow and an optional generation timestamp. An empty bucket
// renders its placeholder line, never an empty string. The composer enforces
// no length limit; each notifier applies its own ceiling.
package digest
