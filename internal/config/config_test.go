package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"animap/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "animap")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Cache.Path != filepath.Join(wantData, "cache.db") {
		t.Fatalf("unexpected cache path: %q", cfg.Cache.Path)
	}
	if cfg.Cache.Backend != config.BackendSQLite {
		t.Fatalf("expected sqlite backend by default, got %q", cfg.Cache.Backend)
	}
	if got := strings.Join(cfg.Resolve.Strategies, ","); got != "catalog,provider" {
		t.Fatalf("unexpected default strategies: %q", got)
	}
	if cfg.Resolve.Merge != config.MergeSoft {
		t.Fatalf("expected soft merge by default, got %q", cfg.Resolve.Merge)
	}
	if cfg.Resolve.Threshold != 0.6 {
		t.Fatalf("unexpected threshold: %v", cfg.Resolve.Threshold)
	}
	if cfg.Resolve.KeepUnmatched {
		t.Fatal("expected keep_unmatched disabled by default")
	}
	if cfg.LinkingDelay() != time.Second {
		t.Fatalf("unexpected linking delay: %v", cfg.LinkingDelay())
	}
	if cfg.CacheTimeout() != 24*time.Hour {
		t.Fatalf("unexpected cache timeout: %v", cfg.CacheTimeout())
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("unexpected log format: %q", cfg.Logging.Format)
	}
}

func TestLoadCustomConfigFile(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(t.TempDir(), "config.toml")
	content := `
[paths]
data_dir = "~/animap-data"

[cache]
backend = "Badger"
timeout_seconds = 600

[resolve]
strategies = ["provider", "catalog", "provider", ""]
merge = "HARD"
threshold = 0.75

[logging]
format = "JSON"
level = "DEBUG"

[[providers]]
name = " Gogo "
media_type = "anime"
base_url = "https://gogo.example/"
never_expires = true
search_path = "find"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if cfg.Paths.DataDir != filepath.Join(tempHome, "animap-data") {
		t.Fatalf("unexpected data dir: %q", cfg.Paths.DataDir)
	}
	if cfg.Paths.LogDir != filepath.Join(tempHome, ".local", "share", "animap", "logs") {
		t.Fatalf("unexpected log dir: %q", cfg.Paths.LogDir)
	}
	if cfg.Cache.Backend != config.BackendBadger {
		t.Fatalf("unexpected backend: %q", cfg.Cache.Backend)
	}
	if cfg.Cache.Path != filepath.Join(tempHome, "animap-data", "cache.badger") {
		t.Fatalf("unexpected cache path: %q", cfg.Cache.Path)
	}
	if got := strings.Join(cfg.Resolve.Strategies, ","); got != "provider,catalog" {
		t.Fatalf("expected deduplicated strategies, got %q", got)
	}
	if cfg.Resolve.Merge != config.MergeHard {
		t.Fatalf("unexpected merge: %q", cfg.Resolve.Merge)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging config: %+v", cfg.Logging)
	}
	if len(cfg.Providers) != 1 {
		t.Fatalf("expected one provider, got %d", len(cfg.Providers))
	}
	p := cfg.Providers[0]
	if p.Name != "gogo" || p.Kind != "http" || p.MediaType != "ANIME" {
		t.Fatalf("unexpected provider identity: %+v", p)
	}
	if p.BaseURL != "https://gogo.example" {
		t.Fatalf("expected trailing slash trimmed, got %q", p.BaseURL)
	}
	if p.SearchPath != "/find" || p.ContentPath != "/content" {
		t.Fatalf("unexpected endpoints: %q %q", p.SearchPath, p.ContentPath)
	}
	if !p.NeverExpires {
		t.Fatal("expected never_expires to be decoded")
	}
	if p.Timeout() != 20*time.Second {
		t.Fatalf("unexpected provider timeout: %v", p.Timeout())
	}
}

func TestCatalogURLFromEnvironment(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("ANIMAP_CATALOG_URL", "http://127.0.0.1:9999/graphql/")

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Catalog.BaseURL != "http://127.0.0.1:9999/graphql" {
		t.Fatalf("unexpected catalog url: %q", cfg.Catalog.BaseURL)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cases := []struct {
		name    string
		content string
		want    string
	}{
		{"backend", "[cache]\nbackend = \"redis\"\n", "cache.backend"},
		{"merge", "[resolve]\nmerge = \"fuzzy\"\n", "resolve.merge"},
		{"threshold", "[resolve]\nthreshold = 1.5\n", "resolve.threshold"},
		{"strategy", "[resolve]\nstrategies = [\"oracle\"]\n", "unsupported strategy"},
		{"linking disabled", "[resolve]\nstrategies = [\"catalog\", \"linking\"]\n", "linking.enabled"},
		{"provider kind", "[[providers]]\nname = \"a\"\nkind = \"grpc\"\nmedia_type = \"anime\"\nbase_url = \"https://a.example\"\n", "unsupported provider kind"},
		{"provider type", "[[providers]]\nname = \"a\"\nmedia_type = \"novel\"\nbase_url = \"https://a.example\"\n", "media_type"},
		{"provider duplicate", "[[providers]]\nname = \"a\"\nmedia_type = \"anime\"\nbase_url = \"https://a.example\"\n[[providers]]\nname = \"A\"\nmedia_type = \"manga\"\nbase_url = \"https://b.example\"\n", "more than once"},
		{"provider url", "[[providers]]\nname = \"a\"\nmedia_type = \"anime\"\nbase_url = \"ftp://a.example\"\n", "unsupported scheme"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			_, _, _, err := config.Load(path)
			if err == nil {
				t.Fatalf("expected error containing %q", tc.want)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[cache]\nttl = 5\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected unknown field to be rejected")
	}
}

func TestCreateSampleProducesLoadableConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var decoded map[string]any
	if err := toml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("sample is not valid TOML: %v", err)
	}
	if _, ok := decoded["cache"]; !ok {
		t.Fatal("expected [cache] section in sample")
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Cache.TimeoutSeconds != 86400 {
		t.Fatalf("unexpected sample cache timeout: %d", cfg.Cache.TimeoutSeconds)
	}
}

func TestEnsureDirectoriesCreatesDataAndLogDirs(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "data", "logs")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q: %v", dir, err)
		}
	}
	if cfg.CrawlLockPath() != filepath.Join(base, "data", "crawl.lock") {
		t.Fatalf("unexpected lock path: %q", cfg.CrawlLockPath())
	}
}
