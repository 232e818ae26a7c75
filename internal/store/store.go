package store

import (
	"context"
	"time"

	"animap/internal/media"
)

// Store is the cache layer contract.
type Store interface {
	// GetRecord returns the resolved identity, or nil when absent.
	GetRecord(ctx context.Context, id int64, mediaType media.Type) (*media.ResolvedRecord, error)
	// InsertRecord stores rec unless a record for its id already exists. It
	// reports whether a row was written.
	InsertRecord(ctx context.Context, rec media.ResolvedRecord) (bool, error)
	GetContent(ctx context.Context, id int64, mediaType media.Type) (*media.ContentEntry, error)
	PutContent(ctx context.Context, entry media.ContentEntry) error
	GetSources(ctx context.Context, id int64, secondaryID string, mediaType media.Type) (*media.SourceEntry, error)
	PutSources(ctx context.Context, entry media.SourceEntry) error
	Stats(ctx context.Context) (Stats, error)
	Clear(ctx context.Context) error
	Close() error
}

// Counts holds row counts for one media type.
type Counts struct {
	Records int
	Content int
	Sources int
}

// Stats reports cache sizes per media type.
type Stats struct {
	Backend string
	Path    string
	ByType  map[media.Type]Counts
}

// Total sums the per-type counts.
func (s Stats) Total() Counts {
	var total Counts
	for _, c := range s.ByType {
		total.Records += c.Records
		total.Content += c.Content
		total.Sources += c.Sources
	}
	return total
}

// Fresh reports whether a cached payload may be served. Empty payloads are
// never fresh; never-expiring policies ignore age; otherwise the entry must be
// strictly younger than the TTL.
func Fresh(now, lastCachedAt time.Time, payloadLen int, policy media.CachePolicy) bool {
	if payloadLen == 0 {
		return false
	}
	if policy.NeverExpires {
		return true
	}
	return now.Sub(lastCachedAt) < policy.TTL
}

// EffectivePolicy fills an unset provider TTL with the global cache timeout.
func EffectivePolicy(policy media.CachePolicy, global time.Duration) media.CachePolicy {
	if policy.NeverExpires || policy.TTL > 0 {
		return policy
	}
	return media.CachePolicy{TTL: global}
}

// ContentFresh applies Fresh to a content entry under the global timeout.
func ContentFresh(now time.Time, entry *media.ContentEntry, timeout time.Duration) bool {
	if entry == nil {
		return false
	}
	return Fresh(now, entry.LastCachedAt, len(entry.Payload), media.CachePolicy{TTL: timeout})
}

// SourcesFresh applies Fresh to a source entry under its provider's policy.
func SourcesFresh(now time.Time, entry *media.SourceEntry, policy media.CachePolicy) bool {
	if entry == nil {
		return false
	}
	return Fresh(now, entry.LastCachedAt, len(entry.Payload.Sources), policy)
}
