package linking_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"animap/internal/linking"
	"animap/internal/media"
)

func TestLookupFlattensSitesInStableOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/mal/anime/20" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"id":20,"Sites":{
			"Zoro":{"77":{"identifier":77,"url":"https://zoro.example/naruto-77"}},
			"Gogoanime":{"naruto":{"identifier":"naruto","url":"https://gogo.example/category/naruto"},
			             "naruto-dub":{"identifier":"naruto-dub","url":"https://gogo.example/category/naruto-dub"}}}}`))
	}))
	t.Cleanup(server.Close)

	client, err := linking.New(server.URL, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	locators, err := client.Lookup(context.Background(), media.Anime, 20)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	want := []string{
		"https://gogo.example/category/naruto",
		"https://gogo.example/category/naruto-dub",
		"https://zoro.example/naruto-77",
	}
	if strings.Join(locators, " ") != strings.Join(want, " ") {
		t.Fatalf("unexpected locators: %v", locators)
	}
}

func TestLookupNotFoundIsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	client, _ := linking.New(server.URL, 0)
	locators, err := client.Lookup(context.Background(), media.Manga, 2)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(locators) != 0 {
		t.Fatalf("expected no locators, got %v", locators)
	}
}

func TestLookupSpacesCalls(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"Sites":{}}`))
	}))
	t.Cleanup(server.Close)

	client, _ := linking.New(server.URL, 50*time.Millisecond)
	start := time.Now()
	for i := int64(1); i <= 3; i++ {
		if _, err := client.Lookup(context.Background(), media.Anime, i); err != nil {
			t.Fatalf("Lookup: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 90*time.Millisecond {
		t.Fatalf("expected two enforced delays, took %v", elapsed)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 calls, got %d", calls.Load())
	}
}

func TestLookupSkipsMissingSecondaryID(t *testing.T) {
	client, _ := linking.New("https://linking.example", 0)
	locators, err := client.Lookup(context.Background(), media.Anime, 0)
	if err != nil || locators != nil {
		t.Fatalf("expected nil result, got %v %v", locators, err)
	}
}
