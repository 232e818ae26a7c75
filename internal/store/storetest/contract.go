// Package storetest holds the behaviour every cache backend must share.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"animap/internal/media"
	"animap/internal/store"
)

// Opener returns a fresh, empty store for one subtest.
type Opener func(t *testing.T) store.Store

// Run exercises the full Store contract against a backend.
func Run(t *testing.T, open Opener) {
	t.Helper()
	t.Run("absent rows are nil", func(t *testing.T) { testAbsent(t, open(t)) })
	t.Run("record insert is insert-if-absent", func(t *testing.T) { testRecordInsertOnce(t, open(t)) })
	t.Run("records are keyed by media type", func(t *testing.T) { testRecordsPerType(t, open(t)) })
	t.Run("content upserts in place", func(t *testing.T) { testContentUpsert(t, open(t)) })
	t.Run("sources upsert in place", func(t *testing.T) { testSourcesUpsert(t, open(t)) })
	t.Run("stats and clear", func(t *testing.T) { testStatsAndClear(t, open(t)) })
	t.Run("concurrent writers", func(t *testing.T) { testConcurrentWrites(t, open(t)) })
}

func narutoRecord() media.ResolvedRecord {
	return media.ResolvedRecord{
		CanonicalID: 20,
		Snapshot: media.CanonicalEntity{
			ID:       20,
			Type:     media.Anime,
			Title:    media.Title{Romaji: "NARUTO", English: "Naruto"},
			Synonyms: []string{"NARUTO"},
			Payload:  []byte(`{"id":20}`),
		},
		Connectors: []media.Connector{
			{Locator: "p1/naruto", Similarity: media.Similarity{IsMatch: true, Score: 1}},
		},
	}
}

func testAbsent(t *testing.T, s store.Store) {
	ctx := context.Background()
	rec, err := s.GetRecord(ctx, 1, media.Anime)
	if err != nil || rec != nil {
		t.Fatalf("expected absent record, got %+v %v", rec, err)
	}
	content, err := s.GetContent(ctx, 1, media.Anime)
	if err != nil || content != nil {
		t.Fatalf("expected absent content, got %+v %v", content, err)
	}
	sources, err := s.GetSources(ctx, 1, "ep-1", media.Anime)
	if err != nil || sources != nil {
		t.Fatalf("expected absent sources, got %+v %v", sources, err)
	}
}

func testRecordInsertOnce(t *testing.T, s store.Store) {
	ctx := context.Background()
	first := narutoRecord()
	inserted, err := s.InsertRecord(ctx, first)
	if err != nil || !inserted {
		t.Fatalf("expected first insert to write, got %v %v", inserted, err)
	}

	second := narutoRecord()
	second.Connectors = []media.Connector{{Locator: "p2/other", Similarity: media.Similarity{Score: 0.1}}}
	inserted, err = s.InsertRecord(ctx, second)
	if err != nil {
		t.Fatalf("second insert: %v", err)
	}
	if inserted {
		t.Fatal("expected second insert to be a no-op")
	}

	got, err := s.GetRecord(ctx, 20, media.Anime)
	if err != nil || got == nil {
		t.Fatalf("GetRecord: %+v %v", got, err)
	}
	if len(got.Connectors) != 1 || got.Connectors[0].Locator != "p1/naruto" {
		t.Fatalf("identity row must never be updated, got %+v", got.Connectors)
	}
	if got.Snapshot.Title.English != "Naruto" || !got.Valid() {
		t.Fatalf("unexpected snapshot: %+v", got.Snapshot)
	}

	bad := narutoRecord()
	bad.Snapshot.ID = 21
	if _, err := s.InsertRecord(ctx, bad); err == nil {
		t.Fatal("expected mismatched record to be rejected")
	}
}

func testRecordsPerType(t *testing.T, s store.Store) {
	ctx := context.Background()
	manga := media.ResolvedRecord{CanonicalID: 20, Snapshot: media.CanonicalEntity{ID: 20, Type: media.Manga}}
	if _, err := s.InsertRecord(ctx, manga); err != nil {
		t.Fatalf("InsertRecord: %v", err)
	}
	if rec, _ := s.GetRecord(ctx, 20, media.Anime); rec != nil {
		t.Fatalf("expected anime lookup to miss, got %+v", rec)
	}
	rec, err := s.GetRecord(ctx, 20, media.Manga)
	if err != nil || rec == nil {
		t.Fatalf("expected manga record, got %+v %v", rec, err)
	}
	if rec.Connectors == nil {
		t.Fatal("expected connectors to decode as an empty list")
	}
}

func testContentUpsert(t *testing.T, s store.Store) {
	ctx := context.Background()
	first := time.Unix(1_700_000_000, 0)
	entry := media.ContentEntry{
		CanonicalID:  20,
		Type:         media.Anime,
		Payload:      []media.ContentBundle{{Provider: "p1", Content: []media.Content{{ID: "ep-1", Number: 1}}}},
		LastCachedAt: first,
	}
	if err := s.PutContent(ctx, entry); err != nil {
		t.Fatalf("PutContent: %v", err)
	}
	second := first.Add(time.Hour)
	entry.Payload = append(entry.Payload, media.ContentBundle{Provider: "p2", Content: []media.Content{{ID: "x", Number: 1}}})
	entry.LastCachedAt = second
	if err := s.PutContent(ctx, entry); err != nil {
		t.Fatalf("PutContent update: %v", err)
	}

	got, err := s.GetContent(ctx, 20, media.Anime)
	if err != nil || got == nil {
		t.Fatalf("GetContent: %+v %v", got, err)
	}
	if len(got.Payload) != 2 {
		t.Fatalf("expected updated payload, got %+v", got.Payload)
	}
	if !got.LastCachedAt.Equal(second) {
		t.Fatalf("expected timestamp %v, got %v", second, got.LastCachedAt)
	}
}

func testSourcesUpsert(t *testing.T, s store.Store) {
	ctx := context.Background()
	entry := media.SourceEntry{
		CanonicalID:  20,
		SecondaryID:  "naruto-ep-1",
		Provider:     "p1",
		Type:         media.Anime,
		Payload:      media.SourceBundle{Sources: []media.Source{{URL: "https://cdn.example/1.m3u8"}}},
		LastCachedAt: time.Unix(1_700_000_000, 0),
	}
	if err := s.PutSources(ctx, entry); err != nil {
		t.Fatalf("PutSources: %v", err)
	}
	entry.Provider = "p2"
	entry.Payload.Headers = map[string]string{"Referer": "https://p2.example"}
	if err := s.PutSources(ctx, entry); err != nil {
		t.Fatalf("PutSources update: %v", err)
	}
	got, err := s.GetSources(ctx, 20, "naruto-ep-1", media.Anime)
	if err != nil || got == nil {
		t.Fatalf("GetSources: %+v %v", got, err)
	}
	if got.Provider != "p2" || got.Payload.Headers["Referer"] == "" {
		t.Fatalf("expected updated source entry, got %+v", got)
	}
	if other, _ := s.GetSources(ctx, 20, "naruto-ep-2", media.Anime); other != nil {
		t.Fatalf("expected other secondary id to miss, got %+v", other)
	}
}

func testStatsAndClear(t *testing.T, s store.Store) {
	ctx := context.Background()
	if _, err := s.InsertRecord(ctx, narutoRecord()); err != nil {
		t.Fatalf("InsertRecord: %v", err)
	}
	if err := s.PutContent(ctx, media.ContentEntry{CanonicalID: 30013, Type: media.Manga, Payload: []media.ContentBundle{{Provider: "m"}}}); err != nil {
		t.Fatalf("PutContent: %v", err)
	}
	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.ByType[media.Anime].Records != 1 || stats.ByType[media.Manga].Content != 1 {
		t.Fatalf("unexpected stats: %+v", stats.ByType)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	stats, err = s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats after clear: %v", err)
	}
	if total := stats.Total(); total != (store.Counts{}) {
		t.Fatalf("expected empty cache after clear, got %+v", total)
	}
}

func testConcurrentWrites(t *testing.T, s store.Store) {
	ctx := context.Background()
	var wg sync.WaitGroup
	results := make(chan bool, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			inserted, err := s.InsertRecord(ctx, narutoRecord())
			if err != nil {
				t.Errorf("InsertRecord: %v", err)
				return
			}
			results <- inserted
			if err := s.PutContent(ctx, media.ContentEntry{
				CanonicalID: 20,
				Type:        media.Anime,
				Payload:     []media.ContentBundle{{Provider: "p1", Content: []media.Content{{ID: "ep", Number: float64(i)}}}},
			}); err != nil {
				t.Errorf("PutContent: %v", err)
			}
		}(i)
	}
	wg.Wait()
	close(results)
	writes := 0
	for inserted := range results {
		if inserted {
			writes++
		}
	}
	if writes != 1 {
		t.Fatalf("expected exactly one identity insert to win, got %d", writes)
	}
	entry, err := s.GetContent(ctx, 20, media.Anime)
	if err != nil || entry == nil || len(entry.Payload) != 1 {
		t.Fatalf("expected last writer's content, got %+v %v", entry, err)
	}
}
