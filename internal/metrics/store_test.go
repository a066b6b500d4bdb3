package metrics

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStoreWithPath(filepath.Join(t.TempDir(), "stats.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestIncrementAndTotals(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Increment(ModeSearch))
	require.NoError(t, store.Increment(ModeSearch))
	require.NoError(t, store.Increment(ModeMCP))

	total, err := store.GetTotalByMode(ModeSearch)
	require.NoError(t, err)
	require.Equal(t, int64(2), total)

	totals, err := store.GetAllTotals()
	require.NoError(t, err)
	require.Equal(t, int64(2), totals[ModeSearch])
	require.Equal(t, int64(1), totals[ModeMCP])
	require.Equal(t, int64(0), totals[ModeReport])
}

func TestGetCountByDate(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Increment(ModeReport))

	today := time.Now().Format("2006-01-02")
	count, err := store.GetCountByDate(ModeReport, today)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)

	count, err = store.GetCountByDate(ModeReport, "1999-01-01")
	require.NoError(t, err)
	require.Equal(t, int64(0), count)
}

func TestRecordSearchRun(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.RecordSearchRun(SearchRun{
		SearchID:      "run-1",
		Query:         "spotify premium",
		RawCount:      40,
		FilteredCount: 12,
		Returned:      10,
		DurationMS:    812,
		RanAt:         "2026-08-30T10:00:00Z",
	}))
	require.NoError(t, store.RecordSearchRun(SearchRun{
		SearchID:      "run-2",
		Query:         "xbox game pass",
		RawCount:      25,
		FilteredCount: 9,
		Returned:      9,
		DurationMS:    640,
		RanAt:         "2026-08-30T11:00:00Z",
	}))

	runs, err := store.RecentSearchRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.Equal(t, "run-2", runs[0].SearchID, "most recent run should come first")
	require.Equal(t, "spotify premium", runs[1].Query)
	require.Equal(t, 12, runs[1].FilteredCount)

	runs, err = store.RecentSearchRuns(1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
}

func TestRecordSearchRunFillsTimestamp(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.RecordSearchRun(SearchRun{
		SearchID: "run-3",
		Query:    "netflix",
	}))

	runs, err := store.RecentSearchRuns(1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.NotEmpty(t, runs[0].RanAt)

	_, err = time.Parse(time.RFC3339, runs[0].RanAt)
	require.NoError(t, err)
}

func TestRecordSearchRunUpsertsBySearchID(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.RecordSearchRun(SearchRun{SearchID: "run-4", Query: "first", RanAt: "2026-08-30T09:00:00Z"}))
	require.NoError(t, store.RecordSearchRun(SearchRun{SearchID: "run-4", Query: "second", RanAt: "2026-08-30T09:05:00Z"}))

	runs, err := store.RecentSearchRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, "second", runs[0].Query)
}
