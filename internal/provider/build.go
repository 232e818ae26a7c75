package provider

import (
	"fmt"
	"log/slog"
	"net/http"

	"animap/internal/config"
	"animap/internal/media"
	"animap/internal/provider/httpprovider"
	"animap/internal/services"
)

// Build constructs the registry from the [[providers]] table. Each adapter is
// wrapped in a Guard.
func Build(cfg *config.Config, logger *slog.Logger) (*Registry, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "provider", "build", "config required", nil)
	}
	entries := make([]Entry, 0, len(cfg.Providers))
	for _, p := range cfg.Providers {
		mediaType, err := media.ParseType(p.MediaType)
		if err != nil {
			return nil, err
		}
		adapter, err := newAdapter(Kind(p.Kind), p)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{
			Name:     p.Name,
			Kind:     Kind(p.Kind),
			Type:     mediaType,
			BaseURL:  p.BaseURL,
			Policy:   media.CachePolicy{TTL: p.CacheTTL(), NeverExpires: p.NeverExpires},
			Provider: NewGuard(p.Name, adapter, DefaultBreakerSettings(), logger),
		})
	}
	return NewRegistry(entries...)
}

func newAdapter(kind Kind, p config.Provider) (Provider, error) {
	switch kind {
	case KindHTTP:
		return httpprovider.New(p.Name, p.BaseURL,
			httpprovider.WithHTTPClient(&http.Client{Timeout: p.Timeout()}),
			httpprovider.WithEndpoints(httpprovider.Endpoints{
				Search:  p.SearchPath,
				Content: p.ContentPath,
				Sources: p.SourcesPath,
			}),
		)
	default:
		return nil, services.Wrap(services.ErrConfiguration, "provider", "build", fmt.Sprintf("unsupported kind %q for %q", kind, p.Name), nil)
	}
}
