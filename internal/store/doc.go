// Package store defines the cache layer contract shared by the SQLite and
// Badger backends.
//
// Identity records are insert-if-absent and never updated. Content and source
// entries are inserted on first fetch and updated in place afterwards. Reads
// report absence as (nil, nil); callers decide freshness with Fresh.
//
// Writes triggered by a cache miss run through AsyncWriter so the caller never
// waits on them. There is no in-flight de-duplication: two callers missing the
// same id may both fetch upstream and both write, and the last write wins.
package store
