// Package badgerstore implements the cache layer on BadgerDB. Each media type
// gets its own key prefix per collection:
//
//	rec:{TYPE}:{id}
//	content:{TYPE}:{id}
//	src:{TYPE}:{id}:{secondary id}
//
// Values are JSON documents.
package badgerstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"animap/internal/config"
	"animap/internal/media"
	"animap/internal/store"
)

// Backend is the cache.backend value selecting this store.
const Backend = config.BackendBadger

const (
	recordPrefix  = "rec:"
	contentPrefix = "content:"
	sourcePrefix  = "src:"

	conflictRetries = 5
)

// Store persists cache entries in BadgerDB.
type Store struct {
	db   *badger.DB
	path string
}

var _ store.Store = (*Store)(nil)

// Open opens (or creates) the Badger directory at path.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("badger cache path required")
	}
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// OpenInMemory opens a store that never touches disk.
func OpenInMemory() (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open in-memory badger db: %w", err)
	}
	return &Store{db: db, path: ":memory:"}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func recordKey(mediaType media.Type, id int64) []byte {
	return []byte(recordPrefix + string(mediaType) + ":" + strconv.FormatInt(id, 10))
}

func contentKey(mediaType media.Type, id int64) []byte {
	return []byte(contentPrefix + string(mediaType) + ":" + strconv.FormatInt(id, 10))
}

func sourceKey(mediaType media.Type, id int64, secondaryID string) []byte {
	return []byte(sourcePrefix + string(mediaType) + ":" + strconv.FormatInt(id, 10) + ":" + secondaryID)
}

func (s *Store) get(key []byte, out any) (bool, error) {
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, out)
		})
	})
	return found, err
}

func (s *Store) put(key []byte, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
}

// GetRecord returns the resolved identity for (id, mediaType).
func (s *Store) GetRecord(_ context.Context, id int64, mediaType media.Type) (*media.ResolvedRecord, error) {
	var rec media.ResolvedRecord
	found, err := s.get(recordKey(mediaType, id), &rec)
	if err != nil {
		return nil, fmt.Errorf("get record %d: %w", id, err)
	}
	if !found {
		return nil, nil
	}
	if rec.Connectors == nil {
		rec.Connectors = []media.Connector{}
	}
	return &rec, nil
}

// InsertRecord writes rec unless its id is already cached. Conflicting
// concurrent inserts retry and observe the winner's row.
func (s *Store) InsertRecord(ctx context.Context, rec media.ResolvedRecord) (bool, error) {
	if !rec.Valid() {
		return false, fmt.Errorf("insert record %d: snapshot id %d does not match", rec.CanonicalID, rec.Snapshot.ID)
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return false, fmt.Errorf("encode record: %w", err)
	}
	key := recordKey(rec.Snapshot.Type, rec.CanonicalID)

	for attempt := 0; ; attempt++ {
		inserted := false
		err = s.db.Update(func(txn *badger.Txn) error {
			_, err := txn.Get(key)
			if err == nil {
				return nil
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			inserted = true
			return txn.Set(key, data)
		})
		if errors.Is(err, badger.ErrConflict) && attempt < conflictRetries {
			if ctx != nil && ctx.Err() != nil {
				return false, ctx.Err()
			}
			continue
		}
		if err != nil {
			return false, fmt.Errorf("insert record %d: %w", rec.CanonicalID, err)
		}
		return inserted, nil
	}
}

// GetContent returns the cached episode or chapter list.
func (s *Store) GetContent(_ context.Context, id int64, mediaType media.Type) (*media.ContentEntry, error) {
	var entry media.ContentEntry
	found, err := s.get(contentKey(mediaType, id), &entry)
	if err != nil {
		return nil, fmt.Errorf("get content %d: %w", id, err)
	}
	if !found {
		return nil, nil
	}
	return &entry, nil
}

// PutContent inserts or replaces the content entry.
func (s *Store) PutContent(_ context.Context, entry media.ContentEntry) error {
	if entry.LastCachedAt.IsZero() {
		entry.LastCachedAt = time.Now()
	}
	if err := s.put(contentKey(entry.Type, entry.CanonicalID), entry); err != nil {
		return fmt.Errorf("put content %d: %w", entry.CanonicalID, err)
	}
	return nil
}

// GetSources returns the cached source bundle for an episode or chapter.
func (s *Store) GetSources(_ context.Context, id int64, secondaryID string, mediaType media.Type) (*media.SourceEntry, error) {
	var entry media.SourceEntry
	found, err := s.get(sourceKey(mediaType, id, secondaryID), &entry)
	if err != nil {
		return nil, fmt.Errorf("get sources %d/%s: %w", id, secondaryID, err)
	}
	if !found {
		return nil, nil
	}
	return &entry, nil
}

// PutSources inserts or replaces the source entry.
func (s *Store) PutSources(_ context.Context, entry media.SourceEntry) error {
	if entry.LastCachedAt.IsZero() {
		entry.LastCachedAt = time.Now()
	}
	if err := s.put(sourceKey(entry.Type, entry.CanonicalID, entry.SecondaryID), entry); err != nil {
		return fmt.Errorf("put sources %d/%s: %w", entry.CanonicalID, entry.SecondaryID, err)
	}
	return nil
}

// Stats counts keys per collection and media type.
func (s *Store) Stats(_ context.Context) (store.Stats, error) {
	stats := store.Stats{Backend: Backend, Path: s.path, ByType: map[media.Type]store.Counts{}}
	err := s.db.View(func(txn *badger.Txn) error {
		for _, mediaType := range []media.Type{media.Anime, media.Manga} {
			counts := store.Counts{
				Records: countPrefix(txn, recordPrefix+string(mediaType)+":"),
				Content: countPrefix(txn, contentPrefix+string(mediaType)+":"),
				Sources: countPrefix(txn, sourcePrefix+string(mediaType)+":"),
			}
			if counts != (store.Counts{}) {
				stats.ByType[mediaType] = counts
			}
		}
		return nil
	})
	if err != nil {
		return store.Stats{}, fmt.Errorf("badger stats: %w", err)
	}
	return stats, nil
}

func countPrefix(txn *badger.Txn, prefix string) int {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	defer it.Close()

	count := 0
	p := []byte(prefix)
	for it.Seek(p); it.ValidForPrefix(p); it.Next() {
		count++
	}
	return count
}

// Clear drops every key.
func (s *Store) Clear(_ context.Context) error {
	if err := s.db.DropAll(); err != nil {
		return fmt.Errorf("badger clear: %w", err)
	}
	return nil
}
