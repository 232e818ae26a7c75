package resolve

import (
	"testing"

	"animap/internal/media"
)

func entity(id int64, title string) media.CanonicalEntity {
	return media.CanonicalEntity{ID: id, Type: media.Anime, Title: media.Title{Romaji: title}}
}

func conn(locator string, score float64) media.Connector {
	return media.Connector{Locator: locator, Similarity: media.Similarity{IsMatch: score > 0.6, Score: score}}
}

func TestGroupFirstSeenOrder(t *testing.T) {
	a, b := entity(7, "A"), entity(3, "B")
	pairs := []Pair{
		{Entity: a, Connector: conn("p1/a", 1)},
		{Entity: b, Connector: conn("p1/b", 0.9)},
		{Entity: a, Connector: conn("p2/a", 0.8)},
		{Entity: b, Connector: conn("p2/b", 0.7)},
		{Entity: a, Connector: conn("p1/a", 1)},
	}

	records := Group(pairs)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].CanonicalID != 7 || records[1].CanonicalID != 3 {
		t.Fatalf("unexpected order: %d, %d", records[0].CanonicalID, records[1].CanonicalID)
	}
	if len(records[0].Connectors) != 3 || len(records[1].Connectors) != 2 {
		t.Fatalf("unexpected connector counts: %d, %d", len(records[0].Connectors), len(records[1].Connectors))
	}
	for _, rec := range records {
		if !rec.Valid() {
			t.Fatalf("record %d snapshot mismatch", rec.CanonicalID)
		}
	}
}

func TestGroupEmpty(t *testing.T) {
	records := Group(nil)
	if records == nil || len(records) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", records)
	}
}
