// Package aggregator is the read-through service the CLI drives.
//
// Identity, episode/chapter lists and source bundles are served from the
// cache when fresh and fetched upstream otherwise. Cache writes happen in the
// background through store.AsyncWriter, so concurrent misses for the same id
// may each fetch and write; the last writer wins.
package aggregator
