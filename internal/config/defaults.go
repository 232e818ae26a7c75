package config

const (
	defaultConfigPath             = "~/.config/animap/config.toml"
	defaultDataDir                = "~/.local/share/animap"
	defaultLogDir                 = "~/.local/share/animap/logs"
	defaultCatalogBaseURL         = "https://graphql.anilist.co"
	defaultCatalogRequestsPerMin  = 90
	defaultCatalogPerPage         = 15
	defaultCatalogTimeoutSeconds  = 15
	defaultLinkingBaseURL         = "https://api.malsync.moe"
	defaultLinkingDelayMillis     = 1000
	defaultLinkingTimeoutSeconds  = 10
	defaultCacheBackend           = "sqlite"
	defaultCacheTimeoutSeconds    = 60 * 60 * 24
	defaultResolveMerge           = "soft"
	defaultResolveThreshold       = 0.6
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
	defaultProviderKind           = "http"
	defaultProviderTimeoutSeconds = 20
	defaultProviderSearchPath     = "/search"
	defaultProviderContentPath    = "/content"
	defaultProviderSourcesPath    = "/sources"
)

const (
	// BackendSQLite stores the cache in an embedded SQLite database.
	BackendSQLite = "sqlite"
	// BackendBadger stores the cache in a BadgerDB key-value directory.
	BackendBadger = "badger"

	MergeSoft = "soft"
	MergeHard = "hard"

	StrategyCatalog  = "catalog"
	StrategyProvider = "provider"
	StrategyLinking  = "linking"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Catalog: Catalog{
			BaseURL:           defaultCatalogBaseURL,
			RequestsPerMinute: defaultCatalogRequestsPerMin,
			PerPage:           defaultCatalogPerPage,
			TimeoutSeconds:    defaultCatalogTimeoutSeconds,
		},
		Linking: Linking{
			BaseURL:        defaultLinkingBaseURL,
			DelayMillis:    defaultLinkingDelayMillis,
			TimeoutSeconds: defaultLinkingTimeoutSeconds,
		},
		Cache: Cache{
			Backend:        defaultCacheBackend,
			TimeoutSeconds: defaultCacheTimeoutSeconds,
		},
		Resolve: Resolve{
			Strategies: []string{StrategyCatalog, StrategyProvider},
			Merge:      defaultResolveMerge,
			Threshold:  defaultResolveThreshold,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
