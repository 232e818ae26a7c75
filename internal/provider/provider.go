package provider

import (
	"context"

	"animap/internal/media"
)

// Provider is the adapter contract for one external site. Search returns
// observations; Content returns episodes or chapters for a native id; Sources
// returns video sources or page images for an episode or chapter id.
type Provider interface {
	Search(ctx context.Context, query string) ([]media.Observation, error)
	Content(ctx context.Context, id string) ([]media.Content, error)
	Sources(ctx context.Context, id string) (*media.SourceBundle, error)
}

// Kind selects the adapter implementation for a configured provider.
type Kind string

const (
	// KindHTTP is the generic JSON-over-HTTP adapter.
	KindHTTP Kind = "http"
)

// Entry is one registered provider.
type Entry struct {
	Name     string
	Kind     Kind
	Type     media.Type
	BaseURL  string
	Policy   media.CachePolicy
	Provider Provider
}
