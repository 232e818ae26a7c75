package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCatalog()
	c.normalizeLinking()
	if err := c.normalizeCache(); err != nil {
		return err
	}
	c.normalizeResolve()
	c.normalizeLogging()
	c.Metrics.Listen = strings.TrimSpace(c.Metrics.Listen)
	c.normalizeProviders()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.DataDir, "logs")
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeCatalog() {
	if value, ok := os.LookupEnv("ANIMAP_CATALOG_URL"); ok && strings.TrimSpace(value) != "" {
		c.Catalog.BaseURL = value
	}
	c.Catalog.BaseURL = strings.TrimRight(strings.TrimSpace(c.Catalog.BaseURL), "/")
	if c.Catalog.BaseURL == "" {
		c.Catalog.BaseURL = defaultCatalogBaseURL
	}
	c.Catalog.AnimeIDsURL = strings.TrimSpace(c.Catalog.AnimeIDsURL)
	c.Catalog.MangaIDsURL = strings.TrimSpace(c.Catalog.MangaIDsURL)
	if c.Catalog.RequestsPerMinute <= 0 {
		c.Catalog.RequestsPerMinute = defaultCatalogRequestsPerMin
	}
	if c.Catalog.PerPage <= 0 {
		c.Catalog.PerPage = defaultCatalogPerPage
	}
	if c.Catalog.TimeoutSeconds <= 0 {
		c.Catalog.TimeoutSeconds = defaultCatalogTimeoutSeconds
	}
}

func (c *Config) normalizeLinking() {
	c.Linking.BaseURL = strings.TrimRight(strings.TrimSpace(c.Linking.BaseURL), "/")
	if c.Linking.BaseURL == "" {
		c.Linking.BaseURL = defaultLinkingBaseURL
	}
	if c.Linking.DelayMillis < 0 {
		c.Linking.DelayMillis = defaultLinkingDelayMillis
	}
	if c.Linking.TimeoutSeconds <= 0 {
		c.Linking.TimeoutSeconds = defaultLinkingTimeoutSeconds
	}
}

func (c *Config) normalizeCache() error {
	c.Cache.Backend = strings.ToLower(strings.TrimSpace(c.Cache.Backend))
	if c.Cache.Backend == "" {
		c.Cache.Backend = defaultCacheBackend
	}
	if strings.TrimSpace(c.Cache.Path) == "" {
		switch c.Cache.Backend {
		case BackendBadger:
			c.Cache.Path = filepath.Join(c.Paths.DataDir, "cache.badger")
		default:
			c.Cache.Path = filepath.Join(c.Paths.DataDir, "cache.db")
		}
	}
	var err error
	if c.Cache.Path, err = expandPath(c.Cache.Path); err != nil {
		return fmt.Errorf("cache.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeResolve() {
	strategies := make([]string, 0, len(c.Resolve.Strategies))
	seen := make(map[string]struct{}, len(c.Resolve.Strategies))
	for _, strategy := range c.Resolve.Strategies {
		normalized := strings.ToLower(strings.TrimSpace(strategy))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		strategies = append(strategies, normalized)
	}
	if len(strategies) == 0 {
		strategies = []string{StrategyCatalog, StrategyProvider}
	}
	c.Resolve.Strategies = strategies

	c.Resolve.Merge = strings.ToLower(strings.TrimSpace(c.Resolve.Merge))
	if c.Resolve.Merge == "" {
		c.Resolve.Merge = defaultResolveMerge
	}
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch format {
	case "", "console", "text":
		c.Logging.Format = "console"
	default:
		c.Logging.Format = format
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeProviders() {
	for i := range c.Providers {
		p := &c.Providers[i]
		p.Name = strings.ToLower(strings.TrimSpace(p.Name))
		p.Kind = strings.ToLower(strings.TrimSpace(p.Kind))
		if p.Kind == "" {
			p.Kind = defaultProviderKind
		}
		p.MediaType = strings.ToUpper(strings.TrimSpace(p.MediaType))
		p.BaseURL = strings.TrimRight(strings.TrimSpace(p.BaseURL), "/")
		p.SearchPath = normalizeEndpoint(p.SearchPath, defaultProviderSearchPath)
		p.ContentPath = normalizeEndpoint(p.ContentPath, defaultProviderContentPath)
		p.SourcesPath = normalizeEndpoint(p.SourcesPath, defaultProviderSourcesPath)
		if p.TimeoutSeconds <= 0 {
			p.TimeoutSeconds = defaultProviderTimeoutSeconds
		}
		if p.CacheTTLSeconds < 0 {
			p.CacheTTLSeconds = 0
		}
	}
}

func normalizeEndpoint(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	if !strings.HasPrefix(value, "/") {
		value = "/" + value
	}
	return value
}
