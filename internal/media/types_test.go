package media

import (
	"errors"
	"testing"

	"animap/internal/services"
)

func TestParseType(t *testing.T) {
	cases := map[string]Type{"anime": Anime, " MANGA ": Manga, "Anime": Anime}
	for input, want := range cases {
		got, err := ParseType(input)
		if err != nil {
			t.Fatalf("ParseType(%q) error: %v", input, err)
		}
		if got != want {
			t.Fatalf("ParseType(%q) = %q, want %q", input, got, want)
		}
	}
	if _, err := ParseType("novel"); !errors.Is(err, services.ErrUnknownMediaType) {
		t.Fatalf("expected ErrUnknownMediaType, got %v", err)
	}
}

func TestVariantsOrderAndSkipsEmpty(t *testing.T) {
	e := CanonicalEntity{
		ID:       16498,
		Title:    Title{Romaji: "Shingeki no Kyojin", English: "Attack on Titan", Native: ""},
		Synonyms: []string{"AoT", "", "SnK"},
	}
	got := e.Variants()
	want := []string{"Shingeki no Kyojin", "Attack on Titan", "AoT", "SnK"}
	if len(got) != len(want) {
		t.Fatalf("unexpected variants: %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("variant %d = %q, want %q", i, got[i], want[i])
		}
	}
	if e.PreferredTitle() != "Attack on Titan" {
		t.Fatalf("unexpected preferred title: %q", e.PreferredTitle())
	}
}

func TestResolvedRecordValid(t *testing.T) {
	r := ResolvedRecord{CanonicalID: 20, Snapshot: CanonicalEntity{ID: 20}}
	if !r.Valid() {
		t.Fatal("expected valid record")
	}
	r.Snapshot.ID = 21
	if r.Valid() {
		t.Fatal("expected mismatched ids to be invalid")
	}
}

func TestSourceBundleEmpty(t *testing.T) {
	var nilBundle *SourceBundle
	if !nilBundle.Empty() {
		t.Fatal("nil bundle should be empty")
	}
	if (&SourceBundle{Sources: []Source{{URL: "https://cdn.example/1.m3u8"}}}).Empty() {
		t.Fatal("bundle with a source should not be empty")
	}
}
