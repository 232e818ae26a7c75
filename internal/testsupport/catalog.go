package testsupport

import (
	"context"
	"strings"
	"sync"

	"animap/internal/media"
	"animap/internal/services"
)

// StubCatalog serves canned catalog entities. Search returns every entity of
// the requested type unless Results maps the query to a narrower list.
type StubCatalog struct {
	Entities []media.CanonicalEntity
	Results  map[string][]media.CanonicalEntity
	Seasons  *media.Seasonal
	IDs      map[media.Type][]string
	// FailQueries makes Search fail for the listed queries.
	FailQueries map[string]bool
	// FailIDs makes GetByID fail for the listed ids.
	FailIDs map[int64]bool

	mu       sync.Mutex
	searches []string
	lookups  []int64
}

func (s *StubCatalog) Search(_ context.Context, query string, mediaType media.Type, _, _ int) ([]media.CanonicalEntity, error) {
	s.mu.Lock()
	s.searches = append(s.searches, query)
	s.mu.Unlock()

	if s.FailQueries[query] {
		return nil, services.Wrap(services.ErrCatalog, "catalog", "search", "stub failure", nil)
	}
	if narrowed, ok := s.Results[strings.ToLower(query)]; ok {
		return narrowed, nil
	}
	var out []media.CanonicalEntity
	for _, e := range s.Entities {
		if e.Type == "" || e.Type == mediaType {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *StubCatalog) GetByID(_ context.Context, id int64) (*media.CanonicalEntity, error) {
	s.mu.Lock()
	s.lookups = append(s.lookups, id)
	s.mu.Unlock()

	if s.FailIDs[id] {
		return nil, services.Wrap(services.ErrCatalog, "catalog", "get_by_id", "stub failure", nil)
	}
	for _, e := range s.Entities {
		if e.ID == id {
			entity := e
			return &entity, nil
		}
	}
	return nil, nil
}

func (s *StubCatalog) Seasonal(context.Context, media.Type, int, int) (*media.Seasonal, error) {
	if s.Seasons == nil {
		return &media.Seasonal{}, nil
	}
	return s.Seasons, nil
}

func (s *StubCatalog) AnimeIDs(context.Context) ([]string, error) {
	return s.IDs[media.Anime], nil
}

func (s *StubCatalog) MangaIDs(context.Context) ([]string, error) {
	return s.IDs[media.Manga], nil
}

// Searches returns the queries Search received, in call order.
func (s *StubCatalog) Searches() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.searches...)
}

// Lookups returns the ids GetByID received, in call order.
func (s *StubCatalog) Lookups() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.lookups...)
}
