package testsupport

import (
	"context"
	"testing"

	"talknote/internal/config"
	"talknote/internal/ledger"
)

// MustOpenLedger opens a ledger.Store for tests and registers cleanup.
func MustOpenLedger(t testing.TB, cfg *config.Config) *ledger.Store {
	t.Helper()

	store, err := ledger.Open(cfg)
	if err != nil {
		t.Fatalf("ledger.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewJob creates a pending file job for tests using the provided store.
func NewJob(t testing.TB, store *ledger.Store, owner, source string) *ledger.Job {
	t.Helper()

	job, err := store.Create(context.Background(), owner, ledger.SourceFile, source)
	if err != nil {
		t.Fatalf("store.Create: %v", err)
	}
	return job
}
