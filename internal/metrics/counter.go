package metrics

import (
	"log"
	"sync"
)

var (
	globalStore *Store
	initOnce    sync.Once
	initErr     error
)

// Init initializes the global metrics store.
// This should be called once at application startup.
// It is safe to call multiple times; subsequent calls are no-ops.
func Init() error {
	initOnce.Do(func() {
		globalStore, initErr = NewStore()
		if initErr != nil {
			log.Printf("metrics: failed to initialize store: %v", initErr)
		}
	})
	return initErr
}

// RecordInvocation increments the invocation count for the given mode.
// If the store is not initialized, this is a no-op (logs a warning).
func RecordInvocation(mode Mode) {
	if globalStore == nil {
		if err := Init(); err != nil {
			log.Printf("metrics: cannot record invocation, store not initialized: %v", err)
			return
		}
	}

	if err := globalStore.Increment(mode); err != nil {
		log.Printf("metrics: failed to record invocation for %s: %v", mode, err)
	}
}

// RecordSearch stores one finished query in the local history.
// Best effort: failures are logged, never surfaced to the caller.
func RecordSearch(run SearchRun) {
	if globalStore == nil {
		if err := Init(); err != nil {
			return
		}
	}

	if err := globalStore.RecordSearchRun(run); err != nil {
		log.Printf("metrics: failed to record search %s: %v", run.SearchID, err)
	}
}

// GetStats returns the cumulative invocation counts for all modes.
// Returns nil if the store is not initialized.
func GetStats() map[Mode]int64 {
	if globalStore == nil {
		return nil
	}

	stats, err := globalStore.GetAllTotals()
	if err != nil {
		log.Printf("metrics: failed to get stats: %v", err)
		return nil
	}
	return stats
}

// RecentSearches returns the most recent search runs, newest first.
// Returns nil if the store is not initialized.
func RecentSearches(n int) []SearchRun {
	if globalStore == nil {
		return nil
	}

	runs, err := globalStore.RecentSearchRuns(n)
	if err != nil {
		log.Printf("metrics: failed to get recent searches: %v", err)
		return nil
	}
	return runs
}

// Close closes the global metrics store.
// Should be called at application shutdown.
func Close() error {
	if globalStore != nil {
		return globalStore.Close()
	}
	return nil
}

// SetStoreForTesting sets the global store instance for testing purposes.
// This should only be used in tests.
func SetStoreForTesting(store *Store) {
	globalStore = store
}

// ResetForTesting resets the global state for testing purposes.
// This should only be used in tests.
func ResetForTesting() {
	if globalStore != nil {
		_ = globalStore.Close()
	}
	globalStore = nil
	initOnce = sync.Once{}
	initErr = nil
}
