package media

import (
	"strings"
	"time"

	"github.com/goccy/go-json"

	"animap/internal/services"
)

// Type is the closed set of media kinds known to the catalog.
type Type string

const (
	// Anime is episodic media.
	Anime Type = "ANIME"
	// Manga is chaptered media.
	Manga Type = "MANGA"
)

// ParseType accepts "anime" or "manga" in any case.
func ParseType(value string) (Type, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case string(Anime):
		return Anime, nil
	case string(Manga):
		return Manga, nil
	default:
		return "", services.Wrap(services.ErrUnknownMediaType, "media", "parse type", value, nil)
	}
}

// Valid reports whether t is one of the two known kinds.
func (t Type) Valid() bool {
	return t == Anime || t == Manga
}

// ContentNoun returns "episodes" or "chapters".
func (t Type) ContentNoun() string {
	if t == Manga {
		return "chapters"
	}
	return "episodes"
}

func (t Type) String() string { return string(t) }

// Title holds the catalog's named title variants. Empty fields are absent.
type Title struct {
	Romaji        string `json:"romaji,omitempty"`
	English       string `json:"english,omitempty"`
	Native        string `json:"native,omitempty"`
	UserPreferred string `json:"userPreferred,omitempty"`
}

// CanonicalEntity is a catalog snapshot. It is never mutated locally.
type CanonicalEntity struct {
	ID          int64           `json:"id"`
	SecondaryID int64           `json:"idMal,omitempty"`
	Type        Type            `json:"type"`
	Title       Title           `json:"title"`
	Synonyms    []string        `json:"synonyms,omitempty"`
	Format      string          `json:"format,omitempty"`
	Status      string          `json:"status,omitempty"`
	Season      string          `json:"season,omitempty"`
	SeasonYear  int             `json:"seasonYear,omitempty"`
	Episodes    int             `json:"episodes,omitempty"`
	Chapters    int             `json:"chapters,omitempty"`
	CoverImage  string          `json:"coverImage,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
}

// Variants returns the non-empty title variants followed by the synonyms.
func (e CanonicalEntity) Variants() []string {
	out := make([]string, 0, 4+len(e.Synonyms))
	for _, v := range []string{e.Title.Romaji, e.Title.English, e.Title.Native, e.Title.UserPreferred} {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	for _, s := range e.Synonyms {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

// PreferredTitle picks the best display title.
func (e CanonicalEntity) PreferredTitle() string {
	for _, v := range []string{e.Title.UserPreferred, e.Title.English, e.Title.Romaji, e.Title.Native} {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// Observation is one provider search result.
type Observation struct {
	Title     string   `json:"title"`
	Locator   string   `json:"locator"`
	AltTitles []string `json:"altTitles,omitempty"`
	Provider  string   `json:"provider,omitempty"`
}

// Similarity is a match confidence.
type Similarity struct {
	IsMatch bool    `json:"isMatch"`
	Score   float64 `json:"score"`
}

// Connector links a canonical entity to one provider locator.
type Connector struct {
	Locator    string     `json:"locator"`
	Similarity Similarity `json:"similarity"`
}

// ResolvedRecord is the reconciled identity for one canonical id.
type ResolvedRecord struct {
	CanonicalID int64           `json:"canonicalId"`
	Snapshot    CanonicalEntity `json:"snapshot"`
	Connectors  []Connector     `json:"connectors"`
}

// Valid checks the record's identity invariant.
func (r ResolvedRecord) Valid() bool {
	return r.CanonicalID == r.Snapshot.ID
}

// Content is a single episode or chapter.
type Content struct {
	ID     string            `json:"id"`
	Number float64           `json:"number"`
	Title  string            `json:"title,omitempty"`
	URL    string            `json:"url,omitempty"`
	Extras map[string]string `json:"extras,omitempty"`
}

// ContentBundle groups the content one provider returned.
type ContentBundle struct {
	Provider string    `json:"provider"`
	Content  []Content `json:"content"`
}

// Source is one playable video or readable page.
type Source struct {
	URL     string `json:"url"`
	Quality string `json:"quality,omitempty"`
	Kind    string `json:"kind,omitempty"`
}

// Subtitle is a subtitle track attached to a video source.
type Subtitle struct {
	URL  string `json:"url"`
	Lang string `json:"lang,omitempty"`
}

// SourceBundle holds video sources or page images for one episode or chapter.
type SourceBundle struct {
	Sources   []Source          `json:"sources"`
	Subtitles []Subtitle        `json:"subtitles,omitempty"`
	Headers   map[string]string `json:"headers,omitempty"`
}

// Empty reports whether the bundle carries nothing to serve.
func (b *SourceBundle) Empty() bool {
	return b == nil || len(b.Sources) == 0
}

// ContentEntry is the cached episode or chapter list for a canonical id.
type ContentEntry struct {
	CanonicalID  int64           `json:"canonicalId"`
	Type         Type            `json:"type"`
	Payload      []ContentBundle `json:"payload"`
	LastCachedAt time.Time       `json:"lastCachedAt"`
}

// SourceEntry is the cached source bundle for one (canonical id, secondary id) pair.
type SourceEntry struct {
	CanonicalID  int64        `json:"canonicalId"`
	SecondaryID  string       `json:"secondaryId"`
	Provider     string       `json:"provider"`
	Type         Type         `json:"type"`
	Payload      SourceBundle `json:"payload"`
	LastCachedAt time.Time    `json:"lastCachedAt"`
}

// CachePolicy controls how long cached sources from a provider stay fresh.
// A zero TTL without NeverExpires defers to the global cache timeout.
type CachePolicy struct {
	TTL          time.Duration
	NeverExpires bool
}

// Seasonal holds the five catalog discovery lists.
type Seasonal struct {
	Trending   []CanonicalEntity `json:"trending"`
	Season     []CanonicalEntity `json:"season"`
	NextSeason []CanonicalEntity `json:"nextSeason"`
	Popular    []CanonicalEntity `json:"popular"`
	Top        []CanonicalEntity `json:"top"`
}
