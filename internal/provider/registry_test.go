package provider

import (
	"context"
	"errors"
	"testing"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"animap/internal/config"
	"animap/internal/media"
	"animap/internal/services"
)

type stubProvider struct {
	observations []media.Observation
	err          error
	calls        int
}

func (s *stubProvider) Search(context.Context, string) ([]media.Observation, error) {
	s.calls++
	return s.observations, s.err
}

func (s *stubProvider) Content(context.Context, string) ([]media.Content, error) {
	s.calls++
	return nil, s.err
}

func (s *stubProvider) Sources(context.Context, string) (*media.SourceBundle, error) {
	s.calls++
	return &media.SourceBundle{}, s.err
}

func TestRegistryOrderAndLookup(t *testing.T) {
	reg, err := NewRegistry(
		Entry{Name: "b", Type: media.Anime, BaseURL: "https://b.example", Provider: &stubProvider{}},
		Entry{Name: "m", Type: media.Manga, BaseURL: "https://m.example", Provider: &stubProvider{}, Policy: media.CachePolicy{NeverExpires: true}},
		Entry{Name: "a", Type: media.Anime, BaseURL: "https://a.example", Provider: &stubProvider{}},
	)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	anime := reg.ForType(media.Anime)
	if len(anime) != 2 || anime[0].Name != "b" || anime[1].Name != "a" {
		t.Fatalf("expected registry order, got %+v", anime)
	}
	if _, ok := reg.Lookup("m"); !ok {
		t.Fatal("expected lookup to find m")
	}
	if _, ok := reg.Lookup("zz"); ok {
		t.Fatal("unexpected lookup hit")
	}
	policy, ok := reg.Policy("m")
	if !ok || !policy.NeverExpires {
		t.Fatalf("unexpected policy: %+v %v", policy, ok)
	}
	if reg.Len() != 3 {
		t.Fatalf("unexpected length %d", reg.Len())
	}
}

func TestRegistryRejectsDuplicatesAndBadEntries(t *testing.T) {
	stub := &stubProvider{}
	if _, err := NewRegistry(
		Entry{Name: "a", Type: media.Anime, Provider: stub},
		Entry{Name: "a", Type: media.Manga, Provider: stub},
	); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected duplicate rejection, got %v", err)
	}
	if _, err := NewRegistry(Entry{Name: "a", Type: media.Type("NOVEL"), Provider: stub}); !errors.Is(err, services.ErrUnknownMediaType) {
		t.Fatalf("expected unknown media type, got %v", err)
	}
	if _, err := NewRegistry(Entry{Name: "a", Type: media.Anime}); err == nil {
		t.Fatal("expected missing adapter rejection")
	}
}

func TestForLocatorMatchesBoundaryAndLongestBase(t *testing.T) {
	reg, err := NewRegistry(
		Entry{Name: "p1", Type: media.Anime, BaseURL: "p1", Provider: &stubProvider{}},
		Entry{Name: "p10", Type: media.Anime, BaseURL: "p10", Provider: &stubProvider{}},
		Entry{Name: "deep", Type: media.Anime, BaseURL: "https://x.example/anime/", Provider: &stubProvider{}},
		Entry{Name: "shallow", Type: media.Anime, BaseURL: "https://x.example", Provider: &stubProvider{}},
	)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	tests := []struct {
		locator string
		name    string
		id      string
	}{
		{"p1/naruto", "p1", "naruto"},
		{"p10/naruto-shippuden", "p10", "naruto-shippuden"},
		{"https://x.example/anime/one-piece", "deep", "one-piece"},
		{"https://x.example/manga/berserk", "shallow", "manga/berserk"},
	}
	for _, tt := range tests {
		entry, id, ok := reg.ForLocator(tt.locator)
		if !ok || entry.Name != tt.name || id != tt.id {
			t.Errorf("ForLocator(%q) = %q %q %v, want %q %q", tt.locator, entry.Name, id, ok, tt.name, tt.id)
		}
	}
	if _, _, ok := reg.ForLocator("p2/naruto"); ok {
		t.Fatal("expected unknown locator to miss")
	}
}

func TestGuardOpensAfterConsecutiveFailures(t *testing.T) {
	inner := &stubProvider{err: errors.New("upstream 503")}
	guard := NewGuard("flaky", inner, BreakerSettings{ConsecutiveFailures: 2, Timeout: time.Hour}, nil)

	for i := 0; i < 2; i++ {
		if _, err := guard.Search(context.Background(), "x"); !errors.Is(err, services.ErrProviderFailure) {
			t.Fatalf("expected provider failure, got %v", err)
		}
	}
	_, err := guard.Search(context.Background(), "x")
	if !errors.Is(err, services.ErrProviderFailure) {
		t.Fatalf("expected rejected call to be a provider failure, got %v", err)
	}
	if inner.calls != 2 {
		t.Fatalf("expected open breaker to skip the adapter, calls=%d", inner.calls)
	}
}

func TestGuardIgnoresCallerCancellation(t *testing.T) {
	inner := &stubProvider{err: fmt.Errorf("search aborted: %w", context.Canceled)}
	guard := NewGuard("healthy", inner, BreakerSettings{ConsecutiveFailures: 2, Timeout: time.Hour}, nil)

	for i := 0; i < 5; i++ {
		if _, err := guard.Search(context.Background(), "x"); !errors.Is(err, context.Canceled) {
			t.Fatalf("expected cancellation to surface, got %v", err)
		}
	}
	if inner.calls != 5 {
		t.Fatalf("expected every call to reach the adapter, calls=%d", inner.calls)
	}
	if state := guard.State(); state != gobreaker.StateClosed {
		t.Fatalf("breaker state = %v, want closed", state)
	}
}

func TestGuardPassesResultsThrough(t *testing.T) {
	inner := &stubProvider{observations: []media.Observation{{Title: "Naruto", Locator: "p1/naruto"}}}
	guard := NewGuard("ok", inner, DefaultBreakerSettings(), nil)
	got, err := guard.Search(context.Background(), "naruto")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].Locator != "p1/naruto" {
		t.Fatalf("unexpected observations: %+v", got)
	}
	bundle, err := guard.Sources(context.Background(), "ep")
	if err != nil || bundle == nil {
		t.Fatalf("unexpected sources result: %+v %v", bundle, err)
	}
}

func TestBuildFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Providers = []config.Provider{
		{Name: "gogo", Kind: "http", MediaType: "ANIME", BaseURL: "https://gogo.example", NeverExpires: true, TimeoutSeconds: 5},
		{Name: "dex", Kind: "http", MediaType: "MANGA", BaseURL: "https://dex.example", CacheTTLSeconds: 60, TimeoutSeconds: 5},
	}
	reg, err := Build(&cfg, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	gogo, ok := reg.Lookup("gogo")
	if !ok || gogo.Type != media.Anime || !gogo.Policy.NeverExpires {
		t.Fatalf("unexpected gogo entry: %+v", gogo)
	}
	if _, isGuard := gogo.Provider.(*Guard); !isGuard {
		t.Fatalf("expected guarded adapter, got %T", gogo.Provider)
	}
	dex, _ := reg.Lookup("dex")
	if dex.Policy.TTL != time.Minute {
		t.Fatalf("unexpected dex ttl: %v", dex.Policy.TTL)
	}

	cfg.Providers[0].Kind = "grpc"
	if _, err := Build(&cfg, nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected unsupported kind error, got %v", err)
	}
}
