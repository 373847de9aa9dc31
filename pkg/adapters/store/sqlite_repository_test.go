package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renjie/cellmatch-core/pkg/adapters/store"
	"github.com/renjie/cellmatch-core/pkg/core/domain"
)

func testResult(runID string, createdAt time.Time) *domain.GroupingResult {
	return &domain.GroupingResult{
		RunID:    runID,
		Series:   2,
		Parallel: 2,
		Modules: []domain.Module{
			{
				Index: 1,
				Members: []domain.Cell{
					{ID: "AA01", Resistance: 0.0152, Voltage: 3.6512},
					{ID: "AA04", Resistance: 0.0161, Voltage: 3.6489},
				},
				CombinedResistance: 0.00782,
			},
			{
				Index: 2,
				Members: []domain.Cell{
					{ID: "AA02", Resistance: 0.0158, Voltage: 3.6498},
					{ID: "AA03", Resistance: 0.0155, Voltage: 3.6533},
				},
				CombinedResistance: 0.00782,
			},
		},
		Excluded: []domain.ExcludedCell{
			{Cell: domain.Cell{ID: "AA05", Resistance: 0.0452, Voltage: 3.6011}, Reason: domain.ReasonOutlierHigh},
			{Cell: domain.Cell{ID: "AA06", Resistance: -1, Voltage: 0.02}, Reason: domain.ReasonInvalidResistance},
		},
		Stats: domain.PackStatistics{
			Min: 0.00782, Max: 0.00782, Avg: 0.00782,
		},
		CreatedAt: createdAt,
	}
}

func openTestRepo(t *testing.T) *store.SqliteRunRepository {
	t.Helper()
	repo, err := store.Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSqliteRunRepositoryRoundTrip(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	created := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	original := testResult("01JRUNAAAAAAAAAAAAAAAAAAAA", created)
	require.NoError(t, repo.SaveRun(ctx, original))

	loaded, err := repo.GetRun(ctx, original.RunID)
	require.NoError(t, err)

	assert.Equal(t, original.RunID, loaded.RunID)
	assert.Equal(t, original.Series, loaded.Series)
	assert.Equal(t, original.Parallel, loaded.Parallel)
	assert.True(t, created.Equal(loaded.CreatedAt))
	assert.Equal(t, original.Modules, loaded.Modules)
	assert.Equal(t, original.Excluded, loaded.Excluded)
	assert.Equal(t, original.Stats, loaded.Stats)
}

func TestSqliteRunRepositoryListRuns(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.SaveRun(ctx, testResult("01JRUNAAAAAAAAAAAAAAAAAAAA", base)))
	require.NoError(t, repo.SaveRun(ctx, testResult("01JRUNBBBBBBBBBBBBBBBBBBBB", base.Add(time.Hour))))

	runs, err := repo.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	// 倒序: 最新的在前
	assert.Equal(t, "01JRUNBBBBBBBBBBBBBBBBBBBB", runs[0].RunID)
	assert.Equal(t, 4, runs[0].CellCount)
	assert.Equal(t, 2, runs[0].ExcludedCount)
}

func TestSqliteRunRepositoryLimit(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	ids := []string{
		"01JRUNAAAAAAAAAAAAAAAAAAAA",
		"01JRUNBBBBBBBBBBBBBBBBBBBB",
		"01JRUNCCCCCCCCCCCCCCCCCCCC",
	}
	for i, id := range ids {
		require.NoError(t, repo.SaveRun(ctx, testResult(id, base.Add(time.Duration(i)*time.Minute))))
	}

	runs, err := repo.ListRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestSqliteRunRepositoryGetMissing(t *testing.T) {
	repo := openTestRepo(t)

	_, err := repo.GetRun(context.Background(), "01JNOSUCHRUN00000000000000")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")
}
