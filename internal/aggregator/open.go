package aggregator

import (
	"fmt"

	"animap/internal/config"
	"animap/internal/services"
	"animap/internal/store"
	"animap/internal/store/badgerstore"
	"animap/internal/store/sqlitestore"
)

// OpenStore opens the cache backend selected by cfg.Cache.Backend.
func OpenStore(cfg *config.Config) (store.Store, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "aggregator", "open_store", "config is required", nil)
	}
	switch cfg.Cache.Backend {
	case config.BackendSQLite:
		return sqlitestore.Open(cfg.Cache.Path)
	case config.BackendBadger:
		return badgerstore.Open(cfg.Cache.Path)
	default:
		return nil, services.Wrap(services.ErrConfiguration, "aggregator", "open_store", fmt.Sprintf("unsupported cache backend %q", cfg.Cache.Backend), nil)
	}
}
