package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
)

var validStrategies = []string{StrategyCatalog, StrategyProvider, StrategyLinking}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateCatalog(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validateResolve(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateProviders(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateCatalog() error {
	if _, err := parseHTTPURL(c.Catalog.BaseURL); err != nil {
		return fmt.Errorf("catalog.base_url: %w", err)
	}
	for key, value := range map[string]string{
		"catalog.anime_ids_url": c.Catalog.AnimeIDsURL,
		"catalog.manga_ids_url": c.Catalog.MangaIDsURL,
	} {
		if value == "" {
			continue
		}
		if _, err := parseHTTPURL(value); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	if c.Linking.Enabled {
		if _, err := parseHTTPURL(c.Linking.BaseURL); err != nil {
			return fmt.Errorf("linking.base_url: %w", err)
		}
	}
	return nil
}

func (c *Config) validateCache() error {
	switch c.Cache.Backend {
	case BackendSQLite, BackendBadger:
	default:
		return fmt.Errorf("cache.backend must be %q or %q, got %q", BackendSQLite, BackendBadger, c.Cache.Backend)
	}
	if c.Cache.TimeoutSeconds <= 0 {
		return errors.New("cache.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateResolve() error {
	for _, strategy := range c.Resolve.Strategies {
		if !slices.Contains(validStrategies, strategy) {
			return fmt.Errorf("resolve.strategies: unsupported strategy %q (valid: %s)", strategy, strings.Join(validStrategies, ", "))
		}
		if strategy == StrategyLinking && !c.Linking.Enabled {
			return errors.New("resolve.strategies includes \"linking\" but linking.enabled is false")
		}
	}
	switch c.Resolve.Merge {
	case MergeSoft, MergeHard:
	default:
		return fmt.Errorf("resolve.merge must be %q or %q, got %q", MergeSoft, MergeHard, c.Resolve.Merge)
	}
	if c.Resolve.Threshold < 0 || c.Resolve.Threshold > 1 {
		return errors.New("resolve.threshold must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be \"console\" or \"json\", got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported level %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateProviders() error {
	seen := make(map[string]struct{}, len(c.Providers))
	for i, p := range c.Providers {
		prefix := fmt.Sprintf("providers[%d]", i)
		if p.Name == "" {
			return fmt.Errorf("%s.name must be set", prefix)
		}
		if _, exists := seen[p.Name]; exists {
			return fmt.Errorf("%s.name %q is declared more than once", prefix, p.Name)
		}
		seen[p.Name] = struct{}{}
		if p.Kind != defaultProviderKind {
			return fmt.Errorf("%s.kind: unsupported provider kind %q", prefix, p.Kind)
		}
		switch p.MediaType {
		case "ANIME", "MANGA":
		default:
			return fmt.Errorf("%s.media_type must be anime or manga, got %q", prefix, p.MediaType)
		}
		if _, err := parseHTTPURL(p.BaseURL); err != nil {
			return fmt.Errorf("%s.base_url: %w", prefix, err)
		}
	}
	return nil
}

func parseHTTPURL(value string) (*url.URL, error) {
	if strings.TrimSpace(value) == "" {
		return nil, errors.New("must be set")
	}
	parsed, err := url.Parse(value)
	if err != nil {
		return nil, err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, errors.New("missing host")
	}
	return parsed, nil
}
