// Package contest provides the contest record returned by the clist.by
// aggregation API and helpers for reading its timestamps.
//
// Records are read-only: they are decoded from the API response, validated,
// and handed to the filter and formatter. The start timestamp arrives as a
// naive UTC string without an offset marker; ParseStart interprets it.
package contest
