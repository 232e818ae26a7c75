package testsupport

import (
	"path/filepath"
	"testing"

	"animap/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Cache.Path = filepath.Join(base, "data", "cache.db")
	cfgVal.Catalog.AnimeIDsURL = ""
	cfgVal.Catalog.MangaIDsURL = ""
	cfgVal.Linking.DelayMillis = 0
	cfgVal.Metrics.Listen = ""

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithBackend selects the cache backend and points the cache path at a
// matching file or directory under the test's temp dir.
func WithBackend(backend string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Cache.Backend = backend
		switch backend {
		case config.BackendBadger:
			b.cfg.Cache.Path = filepath.Join(b.baseDir, "data", "cache.badger")
		default:
			b.cfg.Cache.Path = filepath.Join(b.baseDir, "data", "cache.db")
		}
	}
}

// WithCatalogURL points the catalog client at url, typically an httptest server.
func WithCatalogURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Catalog.BaseURL = url
	}
}

// WithStrategies overrides the resolution strategies.
func WithStrategies(strategies ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Resolve.Strategies = strategies
	}
}

// WithProviders replaces the provider table.
func WithProviders(providers ...config.Provider) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Providers = providers
	}
}

// WithCacheTimeout overrides the global cache timeout in seconds.
func WithCacheTimeout(seconds int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Cache.TimeoutSeconds = seconds
	}
}
