// Package clist fetches contest listings from the clist.by v2 API.
//
// Each FetchContests call issues exactly one authenticated GET against the
// /contest/ endpoint for a UTC window and a set of resource ids. There is no
// retry and no caching; any transport error, non-2xx status or malformed body
// is returned as a *FetchError.
package clist
