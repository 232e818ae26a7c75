package testsupport

import (
	"testing"

	"animap/internal/config"
	"animap/internal/store/sqlitestore"
)

// MustOpenStore opens the sqlite cache at cfg.Cache.Path for tests and
// registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *sqlitestore.Store {
	t.Helper()

	store, err := sqlitestore.Open(cfg.Cache.Path)
	if err != nil {
		t.Fatalf("sqlitestore.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
