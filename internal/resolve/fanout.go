package resolve

import (
	"context"
	"log/slog"
	"sync"

	"animap/internal/logging"
	"animap/internal/media"
	"animap/internal/provider"
	"animap/internal/services"
)

// ProviderResult is one provider's search output.
type ProviderResult struct {
	Provider     string
	Observations []media.Observation
}

// Fanout searches every provider serving mediaType concurrently and waits for
// all of them. A failing provider contributes an empty list. Results follow
// registry order.
func Fanout(ctx context.Context, registry *provider.Registry, query string, mediaType media.Type, logger *slog.Logger) []ProviderResult {
	entries := registry.ForType(mediaType)
	results := make([]ProviderResult, len(entries))
	if logger == nil {
		logger = logging.NewNop()
	}

	var wg sync.WaitGroup
	for i, entry := range entries {
		results[i].Provider = entry.Name
		wg.Add(1)
		go func(i int, entry provider.Entry) {
			defer wg.Done()
			pctx := services.WithProvider(ctx, entry.Name)
			observations, err := entry.Provider.Search(pctx, query)
			if err != nil {
				logging.WarnWithContext(logging.WithContext(pctx, logger), "provider search failed", "provider_search_failed",
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "provider may be down or its response format changed"),
					logging.String(logging.FieldImpact, "results from this provider are omitted"),
				)
				return
			}
			for j := range observations {
				if observations[j].Provider == "" {
					observations[j].Provider = entry.Name
				}
			}
			results[i].Observations = observations
		}(i, entry)
	}
	wg.Wait()

	total := 0
	for _, r := range results {
		total += len(r.Observations)
	}
	logger.Debug("provider fan-out complete",
		logging.Int("providers", len(entries)),
		logging.Int("observations", total),
	)
	return results
}
