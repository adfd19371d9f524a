package testsupport

import (
	"testing"

	"emotrace/internal/config"
	"emotrace/internal/results"
)

// MustOpenStore opens the results store and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *results.Store {
	t.Helper()

	store, err := results.Open(cfg)
	if err != nil {
		t.Fatalf("results.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
