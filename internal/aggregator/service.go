package aggregator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"animap/internal/catalog"
	"animap/internal/config"
	"animap/internal/logging"
	"animap/internal/media"
	"animap/internal/metrics"
	"animap/internal/provider"
	"animap/internal/resolve"
	"animap/internal/services"
	"animap/internal/store"
)

// Catalog is the part of the catalog client the service uses.
type Catalog interface {
	catalog.Searcher
	GetByID(ctx context.Context, id int64) (*media.CanonicalEntity, error)
	Seasonal(ctx context.Context, mediaType media.Type, page, perPage int) (*media.Seasonal, error)
	AnimeIDs(ctx context.Context) ([]string, error)
	MangaIDs(ctx context.Context) ([]string, error)
}

// Service wires the catalog, resolver, provider registry and cache together.
type Service struct {
	cfg      *config.Config
	catalog  Catalog
	resolver *resolve.Resolver
	registry *provider.Registry
	store    store.Store
	writer   *store.AsyncWriter
	logger   *slog.Logger
	now      func() time.Time
}

// New constructs a Service with initialized dependencies.
func New(cfg *config.Config, cat Catalog, resolver *resolve.Resolver, registry *provider.Registry, cache store.Store, writer *store.AsyncWriter, logger *slog.Logger) (*Service, error) {
	if cfg == nil || cat == nil || resolver == nil || registry == nil || cache == nil || writer == nil {
		return nil, errors.New("aggregator requires config, catalog, resolver, registry, store, and writer")
	}
	return &Service{
		cfg:      cfg,
		catalog:  cat,
		resolver: resolver,
		registry: registry,
		store:    cache,
		writer:   writer,
		logger:   logging.NewComponentLogger(logger, "aggregator"),
		now:      time.Now,
	}, nil
}

func (s *Service) scoped(ctx context.Context, id int64, mediaType media.Type) (context.Context, *slog.Logger) {
	ctx = services.WithMediaType(ctx, string(mediaType))
	if id > 0 {
		ctx = services.WithCanonicalID(ctx, id)
	}
	return ctx, logging.WithContext(ctx, s.logger)
}

// Search resolves query into records.
func (s *Service) Search(ctx context.Context, query string, mediaType media.Type) ([]media.ResolvedRecord, error) {
	return s.resolver.Resolve(ctx, query, mediaType)
}

// Info returns the resolved identity for id. A cache miss fetches the entity
// from the catalog and resolves it by its preferred title. An id the catalog
// does not know yields (nil, nil).
func (s *Service) Info(ctx context.Context, id int64, mediaType media.Type) (*media.ResolvedRecord, error) {
	if !mediaType.Valid() {
		return nil, services.Wrap(services.ErrUnknownMediaType, "aggregator", "info", fmt.Sprintf("media type %q", mediaType), nil)
	}
	ctx, logger := s.scoped(ctx, id, mediaType)

	cached, err := s.store.GetRecord(ctx, id, mediaType)
	if err != nil {
		logging.WarnWithContext(logger, "cache read failed", "cache_read_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "identity is resolved upstream"),
		)
	}
	if cached != nil {
		metrics.RecordCacheLookup("record", metrics.ResultHit)
		return cached, nil
	}
	metrics.RecordCacheLookup("record", metrics.ResultMiss)

	entity, err := s.catalog.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entity == nil || (entity.Type != "" && entity.Type != mediaType) {
		logger.Debug("catalog has no entity for id")
		return nil, nil
	}

	records, err := s.resolver.Resolve(ctx, entity.PreferredTitle(), mediaType)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		if rec.CanonicalID == id {
			return &rec, nil
		}
	}

	// Not cached: identity rows are never updated, and an empty resolution may
	// only mean every provider was down.
	rec := media.ResolvedRecord{CanonicalID: id, Snapshot: *entity, Connectors: []media.Connector{}}
	logger.Info("no provider matched entity",
		logging.Args(logging.DecisionAttrs("identity", "snapshot_only", "resolution produced no record for id")...)...)
	return &rec, nil
}

// Content returns the episode (anime) or chapter (manga) lists for id,
// one bundle per provider that returned anything.
func (s *Service) Content(ctx context.Context, id int64, mediaType media.Type) ([]media.ContentBundle, error) {
	if !mediaType.Valid() {
		return nil, services.Wrap(services.ErrUnknownMediaType, "aggregator", "content", fmt.Sprintf("media type %q", mediaType), nil)
	}
	ctx, logger := s.scoped(ctx, id, mediaType)
	kind := mediaType.ContentNoun()

	entry, err := s.store.GetContent(ctx, id, mediaType)
	if err != nil {
		logging.WarnWithContext(logger, "cache read failed", "cache_read_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, kind+" are fetched upstream"),
		)
	}
	if store.ContentFresh(s.now(), entry, s.cfg.CacheTimeout()) {
		metrics.RecordCacheLookup(kind, metrics.ResultHit)
		return entry.Payload, nil
	}
	if entry != nil {
		metrics.RecordCacheLookup(kind, metrics.ResultStale)
	} else {
		metrics.RecordCacheLookup(kind, metrics.ResultMiss)
	}

	rec, err := s.Info(ctx, id, mediaType)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}

	bundles := s.fetchContent(ctx, rec, mediaType, logger)
	if len(bundles) == 0 {
		return []media.ContentBundle{}, nil
	}
	fresh := media.ContentEntry{CanonicalID: id, Type: mediaType, Payload: bundles, LastCachedAt: s.now()}
	s.writer.Go(ctx, "put_content", func(ctx context.Context) error {
		return s.store.PutContent(ctx, fresh)
	})
	return bundles, nil
}

// fetchContent queries every connector's provider concurrently and keeps the
// non-empty results in connector order.
func (s *Service) fetchContent(ctx context.Context, rec *media.ResolvedRecord, mediaType media.Type, logger *slog.Logger) []media.ContentBundle {
	results := make([]media.ContentBundle, len(rec.Connectors))
	var wg sync.WaitGroup
	for i, conn := range rec.Connectors {
		entry, nativeID, ok := s.registry.ForLocator(conn.Locator)
		if !ok || entry.Type != mediaType {
			logger.Debug("no provider owns locator", logging.String("locator", conn.Locator))
			continue
		}
		wg.Add(1)
		go func(i int, entry provider.Entry, nativeID string) {
			defer wg.Done()
			pctx := services.WithProvider(ctx, entry.Name)
			content, err := entry.Provider.Content(pctx, nativeID)
			if err != nil {
				logging.WarnWithContext(logging.WithContext(pctx, s.logger), "provider content fetch failed", "provider_content_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "this provider's list is omitted"),
				)
				return
			}
			results[i] = media.ContentBundle{Provider: entry.Name, Content: content}
		}(i, entry, nativeID)
	}
	wg.Wait()

	bundles := make([]media.ContentBundle, 0, len(results))
	for _, b := range results {
		if len(b.Content) > 0 {
			bundles = append(bundles, b)
		}
	}
	return bundles
}

// Sources returns the video sources or page images for one episode or
// chapter. Freshness follows the provider's cache policy. A failed fetch
// yields an empty bundle.
func (s *Service) Sources(ctx context.Context, id int64, providerName, secondaryID string, mediaType media.Type) (*media.SourceBundle, error) {
	if !mediaType.Valid() {
		return nil, services.Wrap(services.ErrUnknownMediaType, "aggregator", "sources", fmt.Sprintf("media type %q", mediaType), nil)
	}
	entry, ok := s.registry.Lookup(providerName)
	if !ok || entry.Type != mediaType {
		return nil, services.Wrap(services.ErrValidation, "aggregator", "sources", fmt.Sprintf("no %s provider named %q", mediaType, providerName), nil)
	}
	if secondaryID == "" {
		return nil, services.Wrap(services.ErrValidation, "aggregator", "sources", "episode or chapter id is required", nil)
	}
	ctx, logger := s.scoped(services.WithProvider(ctx, entry.Name), id, mediaType)

	cached, err := s.store.GetSources(ctx, id, secondaryID, mediaType)
	if err != nil {
		logging.WarnWithContext(logger, "cache read failed", "cache_read_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "sources are fetched upstream"),
		)
	}
	if cached != nil && cached.Provider != entry.Name {
		logger.Debug("cached sources belong to another provider",
			logging.String("cached_provider", cached.Provider),
		)
		cached = nil
	}
	if store.SourcesFresh(s.now(), cached, s.sourcesPolicy(cached)) {
		metrics.RecordCacheLookup("sources", metrics.ResultHit)
		return &cached.Payload, nil
	}
	if cached != nil {
		metrics.RecordCacheLookup("sources", metrics.ResultStale)
	} else {
		metrics.RecordCacheLookup("sources", metrics.ResultMiss)
	}

	bundle, err := entry.Provider.Sources(ctx, secondaryID)
	if err != nil {
		logging.WarnWithContext(logger, "provider sources fetch failed", "provider_sources_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "no sources returned"),
		)
		return &media.SourceBundle{}, nil
	}
	if bundle.Empty() {
		return &media.SourceBundle{}, nil
	}

	fresh := media.SourceEntry{
		CanonicalID:  id,
		SecondaryID:  secondaryID,
		Provider:     entry.Name,
		Type:         mediaType,
		Payload:      *bundle,
		LastCachedAt: s.now(),
	}
	s.writer.Go(ctx, "put_sources", func(ctx context.Context) error {
		return s.store.PutSources(ctx, fresh)
	})
	return bundle, nil
}

// sourcesPolicy is the cache policy of the provider that wrote entry, falling
// back to the global timeout.
func (s *Service) sourcesPolicy(entry *media.SourceEntry) media.CachePolicy {
	var policy media.CachePolicy
	if entry != nil {
		policy, _ = s.registry.Policy(entry.Provider)
	}
	return store.EffectivePolicy(policy, s.cfg.CacheTimeout())
}

// Seasonal returns the catalog's discovery lists.
func (s *Service) Seasonal(ctx context.Context, mediaType media.Type, page, perPage int) (*media.Seasonal, error) {
	if !mediaType.Valid() {
		return nil, services.Wrap(services.ErrUnknownMediaType, "aggregator", "seasonal", fmt.Sprintf("media type %q", mediaType), nil)
	}
	return s.catalog.Seasonal(ctx, mediaType, page, perPage)
}

// Stats reports cache sizes.
func (s *Service) Stats(ctx context.Context) (store.Stats, error) {
	return s.store.Stats(ctx)
}

// ClearCache removes every cached row.
func (s *Service) ClearCache(ctx context.Context) error {
	return s.store.Clear(ctx)
}
