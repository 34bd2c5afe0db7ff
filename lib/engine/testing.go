package engine

import (
	"go.uber.org/zap"
	"testing"
)

// NewTestStore returns an isolated in-memory store for tests and benchmarks.
// The store is closed automatically when the test finishes.
func NewTestStore(t testing.TB) *Store {
	t.Helper()

	store, err := NewStore(InMemory, zap.NewNop())
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})

	return store
}
