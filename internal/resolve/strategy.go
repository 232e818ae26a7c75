package resolve

import (
	"context"
	"log/slog"
	"sync"

	"animap/internal/catalog"
	"animap/internal/linking"
	"animap/internal/logging"
	"animap/internal/media"
	"animap/internal/textutil"
)

// Pair links one catalog entity to one connector before grouping.
type Pair struct {
	Entity    media.CanonicalEntity
	Connector media.Connector
}

// bestHit scores obs against every title variant of every hit and returns the
// hit with the highest score. The first hit reaching the maximum wins. A hit
// must score above zero to be found.
func bestHit(hits []media.CanonicalEntity, obs media.Observation) (media.CanonicalEntity, media.Similarity, bool) {
	var (
		best      media.CanonicalEntity
		bestScore media.Similarity
		found     bool
	)
	for _, hit := range hits {
		for _, variant := range hit.Variants() {
			sim := textutil.BestSimilarity(variant, obs.Title, obs.AltTitles)
			if sim.Score > bestScore.Score {
				best, bestScore, found = hit, sim, true
			}
		}
	}
	return best, bestScore, found
}

// CatalogFirst matches every observation against a single catalog search for
// the caller's query.
func CatalogFirst(hits []media.CanonicalEntity, results []ProviderResult) []Pair {
	var pairs []Pair
	for _, result := range results {
		for _, obs := range result.Observations {
			hit, sim, ok := bestHit(hits, obs)
			if !ok {
				continue
			}
			pairs = append(pairs, Pair{Entity: hit, Connector: media.Connector{Locator: obs.Locator, Similarity: sim}})
		}
	}
	return pairs
}

// ProviderFirst re-queries the catalog with each observation's normalized
// title, concurrently, and matches the observation within its own re-query.
// A failed re-query skips that observation.
func ProviderFirst(ctx context.Context, searcher catalog.Searcher, mediaType media.Type, perPage int, results []ProviderResult, logger *slog.Logger) []Pair {
	var observations []media.Observation
	for _, result := range results {
		observations = append(observations, result.Observations...)
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	found := make([]*Pair, len(observations))
	var wg sync.WaitGroup
	for i, obs := range observations {
		query := textutil.NormalizeTitle(obs.Title)
		if query == "" {
			continue
		}
		wg.Add(1)
		go func(i int, obs media.Observation, query string) {
			defer wg.Done()
			hits, err := searcher.Search(ctx, query, mediaType, 1, perPage)
			if err != nil {
				logger.Debug("provider-first catalog query failed",
					logging.String("query", query),
					logging.Provider(obs.Provider),
					logging.Error(err),
				)
				return
			}
			hit, sim, ok := bestHit(hits, obs)
			if !ok {
				return
			}
			found[i] = &Pair{Entity: hit, Connector: media.Connector{Locator: obs.Locator, Similarity: sim}}
		}(i, obs, query)
	}
	wg.Wait()

	pairs := make([]Pair, 0, len(found))
	for _, p := range found {
		if p != nil {
			pairs = append(pairs, *p)
		}
	}
	return pairs
}

// Linking asks the linking service for every hit with a secondary id. Each
// returned locator becomes a certain connector. Lookups run one at a time;
// the linker spaces them.
func Linking(ctx context.Context, linker linking.Linker, hits []media.CanonicalEntity, mediaType media.Type, logger *slog.Logger) []Pair {
	if linker == nil {
		return nil
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	var pairs []Pair
	for _, hit := range hits {
		if hit.SecondaryID <= 0 {
			continue
		}
		locators, err := linker.Lookup(ctx, mediaType, hit.SecondaryID)
		if err != nil {
			logging.WarnWithContext(logger, "linking lookup failed", "linking_lookup_failed",
				logging.CanonicalID(hit.ID),
				logging.Int64("secondary_id", hit.SecondaryID),
				logging.Error(err),
				logging.String(logging.FieldImpact, "linked connectors missing for this entity"),
			)
			if ctx.Err() != nil {
				return pairs
			}
			continue
		}
		for _, locator := range locators {
			pairs = append(pairs, Pair{
				Entity:    hit,
				Connector: media.Connector{Locator: locator, Similarity: media.Similarity{IsMatch: true, Score: 1}},
			})
		}
	}
	return pairs
}
