package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"animap/internal/media"
	"animap/internal/store"
)

// GetRecord returns the resolved identity for (id, mediaType).
func (s *Store) GetRecord(ctx context.Context, id int64, mediaType media.Type) (*media.ResolvedRecord, error) {
	ctx = ensureContext(ctx)
	var snapshot, connectors string
	err := s.db.QueryRowContext(ctx,
		`SELECT snapshot, connectors FROM records WHERE canonical_id = ? AND media_type = ?`,
		id, string(mediaType),
	).Scan(&snapshot, &connectors)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record %d: %w", id, err)
	}

	rec := &media.ResolvedRecord{CanonicalID: id}
	if err := json.Unmarshal([]byte(snapshot), &rec.Snapshot); err != nil {
		return nil, fmt.Errorf("decode record snapshot %d: %w", id, err)
	}
	if err := json.Unmarshal([]byte(connectors), &rec.Connectors); err != nil {
		return nil, fmt.Errorf("decode record connectors %d: %w", id, err)
	}
	return rec, nil
}

// InsertRecord writes rec unless its id is already cached.
func (s *Store) InsertRecord(ctx context.Context, rec media.ResolvedRecord) (bool, error) {
	if !rec.Valid() {
		return false, fmt.Errorf("insert record %d: snapshot id %d does not match", rec.CanonicalID, rec.Snapshot.ID)
	}
	snapshot, err := json.Marshal(rec.Snapshot)
	if err != nil {
		return false, fmt.Errorf("encode record snapshot: %w", err)
	}
	connectors := rec.Connectors
	if connectors == nil {
		connectors = []media.Connector{}
	}
	encodedConnectors, err := json.Marshal(connectors)
	if err != nil {
		return false, fmt.Errorf("encode record connectors: %w", err)
	}

	res, err := s.execWithRetry(ctx,
		`INSERT INTO records (canonical_id, media_type, snapshot, connectors, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (canonical_id, media_type) DO NOTHING`,
		rec.CanonicalID, string(rec.Snapshot.Type), string(snapshot), string(encodedConnectors), time.Now().UnixNano(),
	)
	if err != nil {
		return false, fmt.Errorf("insert record %d: %w", rec.CanonicalID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert record %d: %w", rec.CanonicalID, err)
	}
	return affected > 0, nil
}

// GetContent returns the cached episode or chapter list.
func (s *Store) GetContent(ctx context.Context, id int64, mediaType media.Type) (*media.ContentEntry, error) {
	ctx = ensureContext(ctx)
	var (
		payload  string
		cachedAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, last_cached_at FROM content WHERE canonical_id = ? AND media_type = ?`,
		id, string(mediaType),
	).Scan(&payload, &cachedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get content %d: %w", id, err)
	}
	entry := &media.ContentEntry{CanonicalID: id, Type: mediaType, LastCachedAt: time.Unix(0, cachedAt)}
	if err := json.Unmarshal([]byte(payload), &entry.Payload); err != nil {
		return nil, fmt.Errorf("decode content %d: %w", id, err)
	}
	return entry, nil
}

// PutContent inserts or replaces the content entry.
func (s *Store) PutContent(ctx context.Context, entry media.ContentEntry) error {
	payload, err := json.Marshal(entry.Payload)
	if err != nil {
		return fmt.Errorf("encode content: %w", err)
	}
	_, err = s.execWithRetry(ctx,
		`INSERT INTO content (canonical_id, media_type, payload, last_cached_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (canonical_id, media_type) DO UPDATE SET
		   payload = excluded.payload,
		   last_cached_at = excluded.last_cached_at`,
		entry.CanonicalID, string(entry.Type), string(payload), cachedAt(entry.LastCachedAt),
	)
	if err != nil {
		return fmt.Errorf("put content %d: %w", entry.CanonicalID, err)
	}
	return nil
}

// GetSources returns the cached source bundle for an episode or chapter.
func (s *Store) GetSources(ctx context.Context, id int64, secondaryID string, mediaType media.Type) (*media.SourceEntry, error) {
	ctx = ensureContext(ctx)
	var (
		provider, payload string
		cachedAt          int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT provider, payload, last_cached_at FROM sources
		 WHERE canonical_id = ? AND secondary_id = ? AND media_type = ?`,
		id, secondaryID, string(mediaType),
	).Scan(&provider, &payload, &cachedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get sources %d/%s: %w", id, secondaryID, err)
	}
	entry := &media.SourceEntry{
		CanonicalID:  id,
		SecondaryID:  secondaryID,
		Provider:     provider,
		Type:         mediaType,
		LastCachedAt: time.Unix(0, cachedAt),
	}
	if err := json.Unmarshal([]byte(payload), &entry.Payload); err != nil {
		return nil, fmt.Errorf("decode sources %d/%s: %w", id, secondaryID, err)
	}
	return entry, nil
}

// PutSources inserts or replaces the source entry.
func (s *Store) PutSources(ctx context.Context, entry media.SourceEntry) error {
	payload, err := json.Marshal(entry.Payload)
	if err != nil {
		return fmt.Errorf("encode sources: %w", err)
	}
	_, err = s.execWithRetry(ctx,
		`INSERT INTO sources (canonical_id, secondary_id, media_type, provider, payload, last_cached_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (canonical_id, secondary_id, media_type) DO UPDATE SET
		   provider = excluded.provider,
		   payload = excluded.payload,
		   last_cached_at = excluded.last_cached_at`,
		entry.CanonicalID, entry.SecondaryID, string(entry.Type), entry.Provider, string(payload), cachedAt(entry.LastCachedAt),
	)
	if err != nil {
		return fmt.Errorf("put sources %d/%s: %w", entry.CanonicalID, entry.SecondaryID, err)
	}
	return nil
}

// Stats counts rows per media type.
func (s *Store) Stats(ctx context.Context) (store.Stats, error) {
	ctx = ensureContext(ctx)
	stats := store.Stats{Backend: Backend, Path: s.path, ByType: map[media.Type]store.Counts{}}
	for _, table := range []string{"records", "content", "sources"} {
		rows, err := s.db.QueryContext(ctx, "SELECT media_type, COUNT(1) FROM "+table+" GROUP BY media_type")
		if err != nil {
			return store.Stats{}, fmt.Errorf("count %s: %w", table, err)
		}
		for rows.Next() {
			var (
				mediaType string
				count     int
			)
			if err := rows.Scan(&mediaType, &count); err != nil {
				rows.Close()
				return store.Stats{}, fmt.Errorf("scan %s count: %w", table, err)
			}
			counts := stats.ByType[media.Type(mediaType)]
			switch table {
			case "records":
				counts.Records = count
			case "content":
				counts.Content = count
			default:
				counts.Sources = count
			}
			stats.ByType[media.Type(mediaType)] = counts
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return store.Stats{}, fmt.Errorf("iterate %s counts: %w", table, err)
		}
	}
	return stats, nil
}

// Clear removes every cached row.
func (s *Store) Clear(ctx context.Context) error {
	for _, table := range []string{"records", "content", "sources"} {
		if _, err := s.execWithRetry(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

func cachedAt(t time.Time) int64 {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UnixNano()
}
