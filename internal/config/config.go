package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Catalog contains configuration for the canonical catalog (GraphQL API).
type Catalog struct {
	BaseURL           string `toml:"base_url"`
	AnimeIDsURL       string `toml:"anime_ids_url"`
	MangaIDsURL       string `toml:"manga_ids_url"`
	RequestsPerMinute int    `toml:"requests_per_minute"`
	PerPage           int    `toml:"per_page"`
	TimeoutSeconds    int    `toml:"timeout_seconds"`
}

// Linking contains configuration for the external id-linking service.
type Linking struct {
	Enabled        bool   `toml:"enabled"`
	BaseURL        string `toml:"base_url"`
	DelayMillis    int    `toml:"delay_ms"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Cache contains configuration for the resolved-record and content cache.
type Cache struct {
	Backend        string `toml:"backend"` // "sqlite" or "badger"
	Path           string `toml:"path"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Resolve contains configuration for the resolution pipeline.
type Resolve struct {
	// Strategies run in order; the first is the merge base.
	Strategies []string `toml:"strategies"`
	// Merge selects the reconciliation operator: "soft" or "hard".
	Merge string `toml:"merge"`
	// Threshold is the minimum score an incoming connector needs to replace a base one.
	Threshold float64 `toml:"threshold"`
	// KeepUnmatched carries ids found by only one strategy into the result.
	KeepUnmatched bool `toml:"keep_unmatched"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	Debug  bool   `toml:"debug"`
}

// Metrics contains configuration for the Prometheus endpoint.
type Metrics struct {
	Listen string `toml:"listen"`
}

// Provider declares one external content provider.
type Provider struct {
	Name            string `toml:"name"`
	Kind            string `toml:"kind"`
	MediaType       string `toml:"media_type"`
	BaseURL         string `toml:"base_url"`
	SearchPath      string `toml:"search_path"`
	ContentPath     string `toml:"content_path"`
	SourcesPath     string `toml:"sources_path"`
	CacheTTLSeconds int    `toml:"cache_ttl_seconds"`
	NeverExpires    bool   `toml:"never_expires"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
}

// Config encapsulates all configuration values for animap.
//
// Configuration sections by subsystem:
//   - Paths: data and log directories
//   - Catalog: canonical catalog endpoint and rate limit
//   - Linking: external id-linking service
//   - Cache: backend selection and content/source timeout
//   - Resolve: strategies and reconciliation operator
//   - Logging: log format, level, and debug tracing
//   - Metrics: Prometheus listener
//   - Providers: the provider registry table
type Config struct {
	Paths     Paths      `toml:"paths"`
	Catalog   Catalog    `toml:"catalog"`
	Linking   Linking    `toml:"linking"`
	Cache     Cache      `toml:"cache"`
	Resolve   Resolve    `toml:"resolve"`
	Logging   Logging    `toml:"logging"`
	Metrics   Metrics    `toml:"metrics"`
	Providers []Provider `toml:"providers"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("animap.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the data and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CacheTimeout is the age after which content and source entries are stale.
func (c *Config) CacheTimeout() time.Duration {
	return time.Duration(c.Cache.TimeoutSeconds) * time.Second
}

// LinkingDelay is the fixed delay enforced between linking service calls.
func (c *Config) LinkingDelay() time.Duration {
	return time.Duration(c.Linking.DelayMillis) * time.Millisecond
}

// CrawlLockPath is the file lock guarding bulk crawls against the cache.
func (c *Config) CrawlLockPath() string {
	return filepath.Join(c.Paths.DataDir, "crawl.lock")
}

// CacheTTL returns the provider's own cache TTL, or zero to use the global timeout.
func (p Provider) CacheTTL() time.Duration {
	return time.Duration(p.CacheTTLSeconds) * time.Second
}

// Timeout returns the provider's HTTP timeout.
func (p Provider) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
