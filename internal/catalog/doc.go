// Package catalog wraps the canonical GraphQL media catalog.
//
// Client issues search, lookup, and seasonal discovery queries and fetches the
// bulk id dumps used for crawling. Every GraphQL request first acquires the
// client's SlidingWindow, which allows at most N requests to open within a
// rolling window and makes callers above the limit poll until capacity frees.
package catalog
