package testsupport

import (
	"context"
	"sync"
	"testing"

	"animap/internal/media"
	"animap/internal/provider"
)

// StubProvider is a provider.Provider with canned responses. It is safe for
// concurrent use.
type StubProvider struct {
	Observations []media.Observation
	ContentByID  map[string][]media.Content
	SourcesByID  map[string]*media.SourceBundle
	Err          error

	mu    sync.Mutex
	calls map[string]int
}

func (s *StubProvider) record(op string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls == nil {
		s.calls = make(map[string]int)
	}
	s.calls[op]++
}

// Calls reports how many times op ("search", "content", "sources") ran.
func (s *StubProvider) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func (s *StubProvider) Search(context.Context, string) ([]media.Observation, error) {
	s.record("search")
	if s.Err != nil {
		return nil, s.Err
	}
	return append([]media.Observation(nil), s.Observations...), nil
}

func (s *StubProvider) Content(_ context.Context, id string) ([]media.Content, error) {
	s.record("content")
	if s.Err != nil {
		return nil, s.Err
	}
	return s.ContentByID[id], nil
}

func (s *StubProvider) Sources(_ context.Context, id string) (*media.SourceBundle, error) {
	s.record("sources")
	if s.Err != nil {
		return nil, s.Err
	}
	if bundle, ok := s.SourcesByID[id]; ok {
		return bundle, nil
	}
	return &media.SourceBundle{}, nil
}

// NewRegistry builds a registry from entries or fails the test.
func NewRegistry(t testing.TB, entries ...provider.Entry) *provider.Registry {
	t.Helper()

	reg, err := provider.NewRegistry(entries...)
	if err != nil {
		t.Fatalf("provider.NewRegistry: %v", err)
	}
	return reg
}
