package badgerstore_test

import (
	"context"
	"path/filepath"
	"testing"

	"animap/internal/media"
	"animap/internal/store"
	"animap/internal/store/badgerstore"
	"animap/internal/store/storetest"
)

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := badgerstore.Open(filepath.Join(t.TempDir(), "badger"))
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestInMemoryStore(t *testing.T) {
	s, err := badgerstore.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	defer s.Close()

	rec := media.ResolvedRecord{CanonicalID: 1735, Snapshot: media.CanonicalEntity{ID: 1735, Type: media.Anime}}
	if _, err := s.InsertRecord(context.Background(), rec); err != nil {
		t.Fatalf("InsertRecord: %v", err)
	}
	stats, err := s.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Backend != "badger" || stats.ByType[media.Anime].Records != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if _, ok := stats.ByType[media.Manga]; ok {
		t.Fatal("expected empty media types to be omitted")
	}
}
