// Package linking queries an external id-linking service that maps a catalog
// secondary id to provider pages it already knows about. Calls are spaced by a
// fixed delay because the service enforces a strict rate limit.
package linking
