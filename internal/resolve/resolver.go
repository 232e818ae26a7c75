package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"animap/internal/catalog"
	"animap/internal/config"
	"animap/internal/linking"
	"animap/internal/logging"
	"animap/internal/media"
	"animap/internal/provider"
	"animap/internal/services"
	"animap/internal/store"
)

// Dependencies are the collaborators a Resolver drives.
type Dependencies struct {
	Catalog  catalog.Searcher
	Linker   linking.Linker
	Registry *provider.Registry
	// Store and Writer are optional; without them records are not cached.
	Store  store.Store
	Writer *store.AsyncWriter
	Logger *slog.Logger
}

// Options selects strategies and the reconciliation operator.
type Options struct {
	Strategies    []string
	Merge         string
	Threshold     float64
	KeepUnmatched bool
	PerPage       int
}

// OptionsFromConfig maps the resolve and catalog sections onto Options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Strategies:    append([]string(nil), cfg.Resolve.Strategies...),
		Merge:         cfg.Resolve.Merge,
		Threshold:     cfg.Resolve.Threshold,
		KeepUnmatched: cfg.Resolve.KeepUnmatched,
		PerPage:       cfg.Catalog.PerPage,
	}
}

// Resolver runs the full identity pipeline for a query.
type Resolver struct {
	deps   Dependencies
	opts   Options
	merge  MergeFunc
	logger *slog.Logger
}

// NewResolver validates opts and builds a Resolver.
func NewResolver(deps Dependencies, opts Options) (*Resolver, error) {
	if deps.Catalog == nil {
		return nil, services.Wrap(services.ErrConfiguration, "resolver", "init", "catalog client is required", nil)
	}
	if deps.Registry == nil {
		return nil, services.Wrap(services.ErrConfiguration, "resolver", "init", "provider registry is required", nil)
	}
	if len(opts.Strategies) == 0 {
		opts.Strategies = []string{config.StrategyCatalog, config.StrategyProvider}
	}
	for _, s := range opts.Strategies {
		switch s {
		case config.StrategyCatalog, config.StrategyProvider:
		case config.StrategyLinking:
			if deps.Linker == nil {
				return nil, services.Wrap(services.ErrConfiguration, "resolver", "init", "linking strategy requires a linking client", nil)
			}
		default:
			return nil, services.Wrap(services.ErrConfiguration, "resolver", "init", fmt.Sprintf("unknown strategy %q", s), nil)
		}
	}

	var merge MergeFunc
	switch strings.ToLower(opts.Merge) {
	case "", config.MergeSoft:
		opts.Merge = config.MergeSoft
		merge = SoftMerge
	case config.MergeHard:
		opts.Merge = config.MergeHard
		merge = HardMerge
	default:
		return nil, services.Wrap(services.ErrConfiguration, "resolver", "init", fmt.Sprintf("unknown merge operator %q", opts.Merge), nil)
	}
	if opts.PerPage <= 0 {
		opts.PerPage = 15
	}

	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Resolver{
		deps:   deps,
		opts:   opts,
		merge:  merge,
		logger: logging.NewComponentLogger(logger, "resolver"),
	}, nil
}

// Resolve fans query out to every provider of mediaType, runs each configured
// strategy and folds the grouped results left with the configured merge
// operator. Resulting records are cached insert-if-absent in the background.
// Provider failures only reduce coverage; a failed direct catalog search is
// returned as an error.
func (r *Resolver) Resolve(ctx context.Context, query string, mediaType media.Type) ([]media.ResolvedRecord, error) {
	if !mediaType.Valid() {
		return nil, services.Wrap(services.ErrUnknownMediaType, "resolver", "resolve", fmt.Sprintf("media type %q", mediaType), nil)
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, services.Wrap(services.ErrValidation, "resolver", "resolve", "query is empty", nil)
	}
	if _, ok := services.RequestIDFromContext(ctx); !ok {
		ctx = services.WithRequestID(ctx, uuid.NewString())
	}
	ctx = services.WithMediaType(ctx, string(mediaType))
	logger := logging.WithContext(ctx, r.logger)

	results := Fanout(ctx, r.deps.Registry, query, mediaType, logger)

	var (
		hits       []media.CanonicalEntity
		hitsLoaded bool
	)
	directHits := func() ([]media.CanonicalEntity, error) {
		if hitsLoaded {
			return hits, nil
		}
		found, err := r.deps.Catalog.Search(ctx, query, mediaType, 1, r.opts.PerPage)
		if err != nil {
			return nil, err
		}
		hits, hitsLoaded = found, true
		return hits, nil
	}

	var merged []media.ResolvedRecord
	for i, strategy := range r.opts.Strategies {
		var pairs []Pair
		switch strategy {
		case config.StrategyCatalog:
			found, err := directHits()
			if err != nil {
				return nil, err
			}
			pairs = CatalogFirst(found, results)
		case config.StrategyProvider:
			pairs = ProviderFirst(ctx, r.deps.Catalog, mediaType, r.opts.PerPage, results, logger)
		case config.StrategyLinking:
			found, err := directHits()
			if err != nil {
				return nil, err
			}
			pairs = Linking(ctx, r.deps.Linker, found, mediaType, logger)
		}
		records := Group(pairs)
		logger.Debug("strategy complete",
			logging.String("strategy", strategy),
			logging.Int("pairs", len(pairs)),
			logging.Int("records", len(records)),
		)
		if i == 0 {
			merged = records
			continue
		}
		merged = r.merge(merged, records, MergeOptions{Threshold: r.opts.Threshold, KeepUnmatched: r.opts.KeepUnmatched})
	}

	attrs := logging.DecisionAttrs("merge", r.opts.Merge, strings.Join(r.opts.Strategies, ","))
	attrs = append(attrs, logging.Int("records", len(merged)), logging.String("query", query))
	logger.Info("resolution complete", logging.Args(attrs...)...)

	r.cacheRecords(ctx, merged)
	if merged == nil {
		merged = []media.ResolvedRecord{}
	}
	return merged, nil
}

func (r *Resolver) cacheRecords(ctx context.Context, records []media.ResolvedRecord) {
	if r.deps.Store == nil || r.deps.Writer == nil {
		return
	}
	for _, rec := range records {
		r.deps.Writer.Go(services.WithCanonicalID(ctx, rec.CanonicalID), "insert_record", func(ctx context.Context) error {
			_, err := r.deps.Store.InsertRecord(ctx, rec)
			return err
		})
	}
}
