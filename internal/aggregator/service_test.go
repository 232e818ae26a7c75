package aggregator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"animap/internal/config"
	"animap/internal/media"
	"animap/internal/metrics"
	"animap/internal/provider"
	"animap/internal/resolve"
	"animap/internal/services"
	"animap/internal/store"
	"animap/internal/testsupport"
)

type fixture struct {
	cfg     *config.Config
	svc     *Service
	cache   store.Store
	writer  *store.AsyncWriter
	catalog *testsupport.StubCatalog
	p1      *testsupport.StubProvider
	p2      *testsupport.StubProvider
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cache := testsupport.MustOpenStore(t, cfg)
	writer := store.NewAsyncWriter(nil)
	t.Cleanup(writer.Wait)

	cat := &testsupport.StubCatalog{
		Entities: []media.CanonicalEntity{
			{ID: 20, Type: media.Anime, Title: media.Title{Romaji: "Naruto"}},
			{ID: 1735, Type: media.Anime, Title: media.Title{Romaji: "Naruto: Shippuden"}},
			{ID: 77, Type: media.Anime, Title: media.Title{Romaji: "Obscure Title Nobody Hosts"}},
		},
		IDs:     map[media.Type][]string{media.Anime: {"20", "abc", "999", "1735", "42"}},
		FailIDs: map[int64]bool{42: true},
	}
	p1 := &testsupport.StubProvider{
		Observations: []media.Observation{{Title: "Naruto", Locator: "p1/naruto"}},
		ContentByID:  map[string][]media.Content{"naruto": {{ID: "naruto-1", Number: 1}, {ID: "naruto-2", Number: 2}}},
		SourcesByID:  map[string]*media.SourceBundle{"naruto-1": {Sources: []media.Source{{URL: "https://cdn.example/1.m3u8"}}}},
	}
	p2 := &testsupport.StubProvider{
		Observations: []media.Observation{{Title: "Naruto Shippuden", Locator: "p2/naruto-shippuden"}},
		SourcesByID:  map[string]*media.SourceBundle{"s-1": {Sources: []media.Source{{URL: "https://cdn.example/s1.mp4"}}}},
	}
	reg := testsupport.NewRegistry(t,
		provider.Entry{Name: "p1", Type: media.Anime, BaseURL: "p1", Provider: p1},
		provider.Entry{Name: "p2", Type: media.Anime, BaseURL: "p2", Provider: p2, Policy: media.CachePolicy{NeverExpires: true}},
	)

	resolver, err := resolve.NewResolver(resolve.Dependencies{
		Catalog:  cat,
		Registry: reg,
		Store:    cache,
		Writer:   writer,
	}, resolve.OptionsFromConfig(cfg))
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	svc, err := New(cfg, cat, resolver, reg, cache, writer, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return &fixture{cfg: cfg, svc: svc, cache: cache, writer: writer, catalog: cat, p1: p1, p2: p2}
}

func TestInfoReadThrough(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	hits := testutil.ToFloat64(metrics.CacheLookups.WithLabelValues("record", metrics.ResultHit))

	rec, err := f.svc.Info(ctx, 20, media.Anime)
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if rec == nil || rec.CanonicalID != 20 || len(rec.Connectors) != 1 || rec.Connectors[0].Locator != "p1/naruto" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	f.writer.Wait()

	again, err := f.svc.Info(ctx, 20, media.Anime)
	if err != nil {
		t.Fatalf("Info (cached): %v", err)
	}
	if again == nil || again.CanonicalID != 20 {
		t.Fatalf("unexpected cached record: %+v", again)
	}
	if lookups := f.catalog.Lookups(); len(lookups) != 1 {
		t.Fatalf("expected a single catalog lookup, got %v", lookups)
	}
	if got := testutil.ToFloat64(metrics.CacheLookups.WithLabelValues("record", metrics.ResultHit)); got != hits+1 {
		t.Fatalf("expected one recorded cache hit, got %v", got-hits)
	}
}

func TestInfoSnapshotOnlyAndMissing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec, err := f.svc.Info(ctx, 77, media.Anime)
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if rec == nil || rec.CanonicalID != 77 || len(rec.Connectors) != 0 || !rec.Valid() {
		t.Fatalf("expected connector-less record, got %+v", rec)
	}
	f.writer.Wait()
	if cached, err := f.cache.GetRecord(ctx, 77, media.Anime); err != nil || cached != nil {
		t.Fatalf("expected snapshot-only record to stay uncached, got %+v %v", cached, err)
	}

	missing, err := f.svc.Info(ctx, 999, media.Anime)
	if err != nil || missing != nil {
		t.Fatalf("expected absence, got %+v, %v", missing, err)
	}

	if _, err := f.svc.Info(ctx, 20, media.Type("NOVEL")); !errors.Is(err, services.ErrUnknownMediaType) {
		t.Fatalf("expected unknown media type, got %v", err)
	}
}

func TestInfoRecoversAfterProviderOutage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.p1.Err = errors.New("site down")
	f.p2.Err = errors.New("site down")

	rec, err := f.svc.Info(ctx, 20, media.Anime)
	if err != nil {
		t.Fatalf("Info during outage: %v", err)
	}
	if rec == nil || rec.CanonicalID != 20 || len(rec.Connectors) != 0 {
		t.Fatalf("expected connector-less record during outage, got %+v", rec)
	}
	f.writer.Wait()

	f.p1.Err = nil
	f.p2.Err = nil
	rec, err = f.svc.Info(ctx, 20, media.Anime)
	if err != nil {
		t.Fatalf("Info after recovery: %v", err)
	}
	if rec == nil || len(rec.Connectors) != 1 || rec.Connectors[0].Locator != "p1/naruto" {
		t.Fatalf("expected connectors after recovery, got %+v", rec)
	}
	f.writer.Wait()

	bundles, err := f.svc.Content(ctx, 20, media.Anime)
	if err != nil {
		t.Fatalf("Content: %v", err)
	}
	if len(bundles) != 1 || len(bundles[0].Content) != 2 {
		t.Fatalf("expected episodes after recovery, got %+v", bundles)
	}
}

func TestContentFetchesOnceThenServesCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	bundles, err := f.svc.Content(ctx, 20, media.Anime)
	if err != nil {
		t.Fatalf("Content: %v", err)
	}
	if len(bundles) != 1 || bundles[0].Provider != "p1" || len(bundles[0].Content) != 2 {
		t.Fatalf("unexpected bundles: %+v", bundles)
	}
	f.writer.Wait()

	cached, err := f.svc.Content(ctx, 20, media.Anime)
	if err != nil {
		t.Fatalf("Content (cached): %v", err)
	}
	if len(cached) != 1 || len(cached[0].Content) != 2 {
		t.Fatalf("unexpected cached bundles: %+v", cached)
	}
	if calls := f.p1.Calls("content"); calls != 1 {
		t.Fatalf("expected one upstream content call, got %d", calls)
	}
}

func TestContentRefetchesStaleEntries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	timeout := f.cfg.CacheTimeout()
	now := time.Now()
	f.svc.now = func() time.Time { return now }

	stale := media.ContentEntry{
		CanonicalID:  20,
		Type:         media.Anime,
		Payload:      []media.ContentBundle{{Provider: "p1", Content: []media.Content{{ID: "old", Number: 1}}}},
		LastCachedAt: now.Add(-(timeout + time.Second)),
	}
	if err := f.cache.PutContent(ctx, stale); err != nil {
		t.Fatalf("PutContent: %v", err)
	}

	bundles, err := f.svc.Content(ctx, 20, media.Anime)
	if err != nil {
		t.Fatalf("Content: %v", err)
	}
	if len(bundles) != 1 || bundles[0].Content[0].ID != "naruto-1" {
		t.Fatalf("expected a refetch, got %+v", bundles)
	}

	f.writer.Wait()
	entry, err := f.cache.GetContent(ctx, 20, media.Anime)
	if err != nil || entry == nil {
		t.Fatalf("GetContent: %+v, %v", entry, err)
	}
	if !entry.LastCachedAt.Equal(now) {
		t.Fatalf("expected refreshed timestamp, got %v", entry.LastCachedAt)
	}
}

func TestSourcesFollowProviderPolicy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	old := time.Now().Add(-365 * 24 * time.Hour)

	for _, entry := range []media.SourceEntry{
		{CanonicalID: 1735, SecondaryID: "s-1", Provider: "p2", Type: media.Anime, LastCachedAt: old,
			Payload: media.SourceBundle{Sources: []media.Source{{URL: "https://cdn.example/pinned.mp4"}}}},
		{CanonicalID: 20, SecondaryID: "naruto-1", Provider: "p1", Type: media.Anime, LastCachedAt: old,
			Payload: media.SourceBundle{Sources: []media.Source{{URL: "https://cdn.example/expired.m3u8"}}}},
	} {
		if err := f.cache.PutSources(ctx, entry); err != nil {
			t.Fatalf("PutSources: %v", err)
		}
	}

	pinned, err := f.svc.Sources(ctx, 1735, "p2", "s-1", media.Anime)
	if err != nil {
		t.Fatalf("Sources (p2): %v", err)
	}
	if pinned.Sources[0].URL != "https://cdn.example/pinned.mp4" || f.p2.Calls("sources") != 0 {
		t.Fatalf("expected never-expiring cache hit, got %+v", pinned)
	}

	refreshed, err := f.svc.Sources(ctx, 20, "p1", "naruto-1", media.Anime)
	if err != nil {
		t.Fatalf("Sources (p1): %v", err)
	}
	if refreshed.Sources[0].URL != "https://cdn.example/1.m3u8" || f.p1.Calls("sources") != 1 {
		t.Fatalf("expected stale entry to be refetched, got %+v", refreshed)
	}

	if _, err := f.svc.Sources(ctx, 20, "nope", "x", media.Anime); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for unknown provider, got %v", err)
	}
}

func TestSourcesIgnoreEntriesFromOtherProviders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	expired := media.SourceEntry{
		CanonicalID:  1735,
		SecondaryID:  "s-1",
		Provider:     "p1",
		Type:         media.Anime,
		LastCachedAt: time.Now().Add(-365 * 24 * time.Hour),
		Payload:      media.SourceBundle{Sources: []media.Source{{URL: "https://cdn.example/p1-expired.m3u8"}}},
	}
	if err := f.cache.PutSources(ctx, expired); err != nil {
		t.Fatalf("PutSources: %v", err)
	}

	bundle, err := f.svc.Sources(ctx, 1735, "p2", "s-1", media.Anime)
	if err != nil {
		t.Fatalf("Sources: %v", err)
	}
	if len(bundle.Sources) != 1 || bundle.Sources[0].URL != "https://cdn.example/s1.mp4" {
		t.Fatalf("expected p2 sources, got %+v", bundle)
	}
	if calls := f.p2.Calls("sources"); calls != 1 {
		t.Fatalf("expected p2 to be asked once, got %d", calls)
	}

	f.writer.Wait()
	entry, err := f.cache.GetSources(ctx, 1735, "s-1", media.Anime)
	if err != nil || entry == nil {
		t.Fatalf("GetSources: %+v %v", entry, err)
	}
	if entry.Provider != "p2" {
		t.Fatalf("expected cached entry to be rewritten by p2, got %q", entry.Provider)
	}
}

func TestSourcesProviderFailureYieldsEmpty(t *testing.T) {
	f := newFixture(t)
	f.p1.Err = errors.New("site down")

	bundle, err := f.svc.Sources(context.Background(), 20, "p1", "naruto-1", media.Anime)
	if err != nil {
		t.Fatalf("Sources: %v", err)
	}
	if !bundle.Empty() {
		t.Fatalf("expected empty bundle, got %+v", bundle)
	}
}

func TestSeasonalPassThrough(t *testing.T) {
	f := newFixture(t)
	f.catalog.Seasons = &media.Seasonal{Trending: []media.CanonicalEntity{{ID: 20}}}

	seasonal, err := f.svc.Seasonal(context.Background(), media.Anime, 1, 10)
	if err != nil {
		t.Fatalf("Seasonal: %v", err)
	}
	if len(seasonal.Trending) != 1 || seasonal.Trending[0].ID != 20 {
		t.Fatalf("unexpected seasonal lists: %+v", seasonal)
	}
}

func TestCrawl(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.cache.InsertRecord(ctx, media.ResolvedRecord{
		CanonicalID: 1735,
		Snapshot:    media.CanonicalEntity{ID: 1735, Type: media.Anime},
	}); err != nil {
		t.Fatalf("InsertRecord: %v", err)
	}

	var progress []int
	report, err := f.svc.Crawl(ctx, media.Anime, CrawlOptions{Progress: func(done, _ int) { progress = append(progress, done) }})
	if err != nil {
		t.Fatalf("Crawl: %v", err)
	}
	want := CrawlReport{Total: 5, Resolved: 1, Skipped: 1, Missing: 1, Failed: 2}
	if report != want {
		t.Fatalf("report = %+v, want %+v", report, want)
	}
	if len(progress) != 5 || progress[4] != 5 {
		t.Fatalf("unexpected progress callbacks: %v", progress)
	}

	limited, err := f.svc.Crawl(ctx, media.Anime, CrawlOptions{Limit: 1})
	if err != nil {
		t.Fatalf("Crawl (limited): %v", err)
	}
	if limited.Total != 1 {
		t.Fatalf("expected limit to apply, got %+v", limited)
	}
}

func TestCrawlRejectsUnknownTypeAndConcurrentRuns(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Crawl(ctx, media.Type("NOVEL"), CrawlOptions{}); !errors.Is(err, services.ErrUnknownMediaType) {
		t.Fatalf("expected unknown media type, got %v", err)
	}

	held := flock.New(f.cfg.CrawlLockPath())
	ok, err := held.TryLock()
	if err != nil || !ok {
		t.Fatalf("TryLock: %v %v", ok, err)
	}
	defer held.Unlock()

	if _, err := f.svc.Crawl(ctx, media.Anime, CrawlOptions{}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected concurrent crawl to be rejected, got %v", err)
	}
}

func TestOpenStoreBackends(t *testing.T) {
	for _, backend := range []string{config.BackendSQLite, config.BackendBadger} {
		t.Run(backend, func(t *testing.T) {
			cfg := testsupport.NewConfig(t, testsupport.WithBackend(backend))
			cache, err := OpenStore(cfg)
			if err != nil {
				t.Fatalf("OpenStore: %v", err)
			}
			defer cache.Close()
			stats, err := cache.Stats(context.Background())
			if err != nil {
				t.Fatalf("Stats: %v", err)
			}
			if stats.Backend != backend {
				t.Fatalf("backend = %q, want %q", stats.Backend, backend)
			}
		})
	}

	cfg := testsupport.NewConfig(t)
	cfg.Cache.Backend = "redis"
	if _, err := OpenStore(cfg); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
