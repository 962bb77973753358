package sqlite

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/pidsearch/pkg/types"
)

func seedStatsFixture(t *testing.T, b *Backend) {
	t.Helper()
	table := identifiersTableOf(t, b)

	jan := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC).Unix()
	mar := time.Date(2024, 3, 2, 8, 30, 0, 0, time.UTC).Unix()

	records := []*types.Identifier{
		{
			Identifier: "ark:/12345/s1", Owner: "ark:/99166/p9alice",
			CreateTime: jan, UpdateTime: jan, Status: types.StatusPublic,
			MappedTitle: "First", MappedCreator: "Doe, Jane",
		},
		{
			Identifier: "ark:/12345/s2", Owner: "ark:/99166/p9alice",
			CreateTime: jan, UpdateTime: jan, Status: types.StatusPublic,
		},
		{
			Identifier: "doi:10.1234/S3", Owner: "ark:/99166/p9bob",
			CreateTime: mar, UpdateTime: mar, Status: types.StatusPublic,
			MappedTitle: "Third",
		},
		{
			// Test namespace, never counted.
			Identifier: "ark:/99999/fk4s4", Owner: "ark:/99166/p9alice",
			CreateTime: mar, UpdateTime: mar, Status: types.StatusPublic,
		},
	}
	for _, rec := range records {
		_, err := table.Set("", rec)
		require.NoError(t, err)
	}
	require.NoError(t, b.RecomputeStatistics())
}

func TestRecomputeStatistics(t *testing.T) {
	b := setupBackend(t)
	seedStatsFixture(t, b)

	total, err := b.QueryStatistics(types.StatsFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total, "test identifiers are excluded")

	byOwner, err := b.QueryStatistics(types.StatsFilter{Owner: "ark:/99166/p9alice"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), byOwner)

	byType, err := b.QueryStatistics(types.StatsFilter{Type: "doi"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), byType, "type filter is case-insensitive")

	// Title without creator does not count as metadata.
	hasMeta := true
	withMeta, err := b.QueryStatistics(types.StatsFilter{HasMetadata: &hasMeta})
	require.NoError(t, err)
	assert.Equal(t, int64(1), withMeta)

	byMonth, err := b.QueryStatistics(types.StatsFilter{Month: "2024-01"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), byMonth)
}

func TestRecomputeReplacesPreviousCounts(t *testing.T) {
	b := setupBackend(t)
	seedStatsFixture(t, b)

	table := identifiersTableOf(t, b)
	apr := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC).Unix()
	_, err := table.Set("", &types.Identifier{
		Identifier: "ark:/12345/s5", Owner: "ark:/99166/p9carol",
		CreateTime: apr, UpdateTime: apr, Status: types.StatusPublic,
	})
	require.NoError(t, err)

	// Until recompute, statistics still reflect the old snapshot.
	total, err := b.QueryStatistics(types.StatsFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	require.NoError(t, b.RecomputeStatistics())
	total, err = b.QueryStatistics(types.StatsFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
}

func TestMonthlyStatisticsFillsGaps(t *testing.T) {
	b := setupBackend(t)
	seedStatsFixture(t, b)

	table, err := b.MonthlyStatistics("")
	require.NoError(t, err)
	require.Len(t, table, 3, "january through march inclusive")

	assert.Equal(t, "2024-01", table[0].Month)
	assert.Equal(t, int64(2), table[0].Total)
	assert.Equal(t, int64(2), table[0].ByType["ARK"])
	assert.Equal(t, int64(1), table[0].WithMetadata)

	assert.Equal(t, "2024-02", table[1].Month)
	assert.Zero(t, table[1].Total)
	assert.Empty(t, table[1].ByType)

	assert.Equal(t, "2024-03", table[2].Month)
	assert.Equal(t, int64(1), table[2].ByType["DOI"])
	assert.Zero(t, table[2].WithMetadata)
}

func TestMonthlyStatisticsByOwner(t *testing.T) {
	b := setupBackend(t)
	seedStatsFixture(t, b)

	table, err := b.MonthlyStatistics("ark:/99166/p9bob")
	require.NoError(t, err)
	require.Len(t, table, 1)
	assert.Equal(t, "2024-03", table[0].Month)
	assert.Equal(t, int64(1), table[0].Total)
}

func TestMonthlyStatisticsEmpty(t *testing.T) {
	b := setupBackend(t)
	require.NoError(t, b.RecomputeStatistics())

	table, err := b.MonthlyStatistics("")
	require.NoError(t, err)
	require.NotNil(t, table)
	assert.Empty(t, table)
}
