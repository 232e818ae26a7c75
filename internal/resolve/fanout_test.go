package resolve

import (
	"context"
	"errors"
	"testing"

	"animap/internal/media"
	"animap/internal/provider"
	"animap/internal/testsupport"
)

func TestFanoutRecoversProviderFailures(t *testing.T) {
	good := &testsupport.StubProvider{Observations: []media.Observation{{Title: "Naruto", Locator: "p1/naruto"}}}
	bad := &testsupport.StubProvider{Err: errors.New("boom")}
	manga := &testsupport.StubProvider{Observations: []media.Observation{{Title: "Naruto", Locator: "m/naruto"}}}
	reg := testsupport.NewRegistry(t,
		provider.Entry{Name: "p1", Type: media.Anime, BaseURL: "https://p1.example", Provider: good},
		provider.Entry{Name: "p2", Type: media.Anime, BaseURL: "https://p2.example", Provider: bad},
		provider.Entry{Name: "m", Type: media.Manga, BaseURL: "https://m.example", Provider: manga},
	)

	results := Fanout(context.Background(), reg, "naruto", media.Anime, nil)
	if len(results) != 2 {
		t.Fatalf("expected one result per anime provider, got %d", len(results))
	}
	if results[0].Provider != "p1" || results[1].Provider != "p2" {
		t.Fatalf("expected registry order, got %s, %s", results[0].Provider, results[1].Provider)
	}
	if len(results[0].Observations) != 1 || results[0].Observations[0].Provider != "p1" {
		t.Fatalf("unexpected observations: %+v", results[0].Observations)
	}
	if len(results[1].Observations) != 0 {
		t.Fatalf("expected failing provider to contribute nothing, got %+v", results[1].Observations)
	}
	if manga.Calls("search") != 0 {
		t.Fatal("manga provider should not be queried for anime")
	}
}
