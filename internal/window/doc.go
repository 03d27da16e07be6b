// Package window computes the UTC query windows sent to the contest API.
//
// A day window covers one local calendar day, 00:00:00.000 through
// 23:59:59.999 in the configured fixed offset, converted to UTC. A lookahead
// window simply spans now through now plus N days. Timestamps are rendered
// without fraction or zone suffix, the format clist expects for start__gt and
// start__lt.
package window
