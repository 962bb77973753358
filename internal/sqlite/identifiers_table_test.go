package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/pidsearch/pkg/types"
)

// identifiersTableOf fetches the identifier accessor from an attached
// backend.
func identifiersTableOf(t *testing.T, b *Backend) types.Table {
	t.Helper()
	table, err := b.GetTable(types.TableIdentifiers)
	require.NoError(t, err)
	return table
}

func TestIdentifierSetGetRoundTrip(t *testing.T) {
	b := setupBackend(t)
	table := identifiersTableOf(t, b)

	rec := &types.Identifier{
		Identifier:    "ark:/99999/fk4x1y2z",
		Owner:         "ark:/99166/p92z12p14",
		CoOwners:      []string{"ark:/99166/q8x"},
		CreateTime:    1000,
		UpdateTime:    1000,
		Status:        types.StatusPublic,
		MappedTitle:   "Test Dataset",
		MappedCreator: "Doe, Jane",
	}
	id, err := table.Set("", rec)
	require.NoError(t, err)
	assert.Equal(t, "ark:/99999/fk4x1y2z", id)

	entity, err := table.Get(id)
	require.NoError(t, err)
	got := entity.(*types.Identifier)
	assert.Equal(t, rec.Identifier, got.Identifier)
	assert.Equal(t, rec.Owner, got.Owner)
	assert.Equal(t, []string{"ark:/99166/q8x"}, got.CoOwners)
	assert.Equal(t, int64(1000), got.CreateTime)
	assert.Equal(t, int64(1000), got.UpdateTime)
	assert.Equal(t, types.StatusPublic, got.Status)
	assert.Equal(t, "Test Dataset", got.MappedTitle)
	assert.Equal(t, "Doe, Jane", got.MappedCreator)
}

func TestIdentifierSetNormalizes(t *testing.T) {
	b := setupBackend(t)
	table := identifiersTableOf(t, b)

	rec := &types.Identifier{
		Identifier: "ARK:/99999/FK4ABC",
		Owner:      "ark:/99166/p9owner",
		CreateTime: 100,
		UpdateTime: 100,
		Status:     types.StatusReserved,
	}
	id, err := table.Set("", rec)
	require.NoError(t, err)
	assert.Equal(t, "ark:/99999/fk4abc", id)
	// Caller's record is left as passed.
	assert.Equal(t, "ARK:/99999/FK4ABC", rec.Identifier)

	entity, err := table.Get("ark:/99999/fk4abc")
	require.NoError(t, err)
	assert.Equal(t, "ark:/99999/fk4abc", entity.(*types.Identifier).Identifier)
}

func TestIdentifierSetValidation(t *testing.T) {
	b := setupBackend(t)
	table := identifiersTableOf(t, b)

	tests := []struct {
		name    string
		rec     *types.Identifier
		wantErr error
	}{
		{
			name:    "wrong type",
			rec:     nil,
			wantErr: types.ErrInvalidData,
		},
		{
			name:    "empty identifier",
			rec:     &types.Identifier{Owner: "ark:/99166/p9x", Status: types.StatusPublic},
			wantErr: types.ErrEmptyIdentifier,
		},
		{
			name: "empty owner",
			rec: &types.Identifier{
				Identifier: "ark:/99999/fk4noowner",
				Status:     types.StatusPublic,
			},
			wantErr: types.ErrEmptyOwner,
		},
		{
			name: "update before create",
			rec: &types.Identifier{
				Identifier: "ark:/99999/fk4times",
				Owner:      "ark:/99166/p9x",
				CreateTime: 2000,
				UpdateTime: 1000,
				Status:     types.StatusPublic,
			},
			wantErr: types.ErrTimeOrder,
		},
		{
			name: "bad status",
			rec: &types.Identifier{
				Identifier: "ark:/99999/fk4status",
				Owner:      "ark:/99166/p9x",
				Status:     "published",
			},
			wantErr: types.ErrInvalidStatus,
		},
		{
			name: "shadow ark",
			rec: &types.Identifier{
				Identifier: "ark:/b5072/fk2test",
				Owner:      "ark:/99166/p9x",
				Status:     types.StatusPublic,
			},
			wantErr: types.ErrShadowIdentifier,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var data any
			if tt.rec != nil {
				data = tt.rec
			} else {
				data = "not an identifier"
			}
			_, err := table.Set("", data)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestIdentifierSetRejectsUnknownScheme(t *testing.T) {
	b := setupBackend(t)
	table := identifiersTableOf(t, b)

	_, err := table.Set("", &types.Identifier{
		Identifier: "urn:nbn:de:101-2008082", // no urn support
		Owner:      "ark:/99166/p9x",
		Status:     types.StatusPublic,
	})
	assert.Error(t, err)
}

func TestIdentifierUpdateReconcilesOwnership(t *testing.T) {
	b := setupBackend(t)
	table := identifiersTableOf(t, b)
	ownership, err := b.GetTable(types.TableOwnership)
	require.NoError(t, err)

	rec := &types.Identifier{
		Identifier: "ark:/99999/fk4own",
		Owner:      "ark:/99166/p9alice",
		CoOwners:   []string{"ark:/99166/p9bob", "ark:/99166/p9carol"},
		CreateTime: 100,
		UpdateTime: 100,
		Status:     types.StatusPublic,
	}
	_, err = table.Set("", rec)
	require.NoError(t, err)

	rows, err := ownership.Get("ark:/99999/fk4own")
	require.NoError(t, err)
	assert.Len(t, rows.([]*types.OwnershipEntry), 3)

	// Drop carol, add dave, keep owner.
	rec.CoOwners = []string{"ark:/99166/p9bob", "ark:/99166/p9dave"}
	rec.UpdateTime = 200
	_, err = table.Set("", rec)
	require.NoError(t, err)

	rows, err = ownership.Get("ark:/99999/fk4own")
	require.NoError(t, err)
	agents := []string{}
	for _, entry := range rows.([]*types.OwnershipEntry) {
		agents = append(agents, entry.Owner)
	}
	assert.ElementsMatch(t, []string{"ark:/99166/p9alice", "ark:/99166/p9bob", "ark:/99166/p9dave"}, agents)
}

func TestIdentifierDuplicateOwnersCollapse(t *testing.T) {
	b := setupBackend(t)
	table := identifiersTableOf(t, b)
	ownership, err := b.GetTable(types.TableOwnership)
	require.NoError(t, err)

	// Owner repeated as co-owner yields a single ownership row.
	_, err = table.Set("", &types.Identifier{
		Identifier: "ark:/99999/fk4dup",
		Owner:      "ark:/99166/p9alice",
		CoOwners:   []string{"ark:/99166/p9alice", ""},
		CreateTime: 100,
		UpdateTime: 100,
		Status:     types.StatusPublic,
	})
	require.NoError(t, err)

	rows, err := ownership.Get("ark:/99999/fk4dup")
	require.NoError(t, err)
	assert.Len(t, rows.([]*types.OwnershipEntry), 1)
}

func TestIdentifierDeleteCascades(t *testing.T) {
	b := setupBackend(t)
	table := identifiersTableOf(t, b)
	ownership, err := b.GetTable(types.TableOwnership)
	require.NoError(t, err)

	_, err = table.Set("", &types.Identifier{
		Identifier: "ark:/99999/fk4gone",
		Owner:      "ark:/99166/p9alice",
		CoOwners:   []string{"ark:/99166/p9bob"},
		CreateTime: 100,
		UpdateTime: 100,
		Status:     types.StatusPublic,
	})
	require.NoError(t, err)

	require.NoError(t, table.Delete("ark:/99999/fk4gone"))

	_, err = table.Get("ark:/99999/fk4gone")
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = ownership.Get("ark:/99999/fk4gone")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestIdentifierDeleteMissing(t *testing.T) {
	b := setupBackend(t)
	table := identifiersTableOf(t, b)

	err := table.Delete("ark:/99999/fk4never")
	assert.ErrorIs(t, err, types.ErrNotFound)

	err = table.Delete("")
	assert.ErrorIs(t, err, types.ErrInvalidID)
}

func TestIdentifierGetMissing(t *testing.T) {
	b := setupBackend(t)
	table := identifiersTableOf(t, b)

	_, err := table.Get("ark:/99999/fk4never")
	assert.ErrorIs(t, err, types.ErrNotFound)

	_, err = table.Get("")
	assert.ErrorIs(t, err, types.ErrInvalidID)
}

// seedIdentifiers writes a small fixture set covering two owners, a
// co-ownership, and both schemes.
func seedIdentifiers(t *testing.T, table types.Table) {
	t.Helper()
	records := []*types.Identifier{
		{
			Identifier: "ark:/12345/x1", Owner: "ark:/99166/p9alice",
			CreateTime: 100, UpdateTime: 100, Status: types.StatusPublic,
		},
		{
			Identifier: "ark:/12345/x2", Owner: "ark:/99166/p9alice",
			CoOwners:   []string{"ark:/99166/p9bob"},
			CreateTime: 200, UpdateTime: 200, Status: types.StatusReserved,
		},
		{
			Identifier: "doi:10.1234/A1", Owner: "ark:/99166/p9bob",
			CreateTime: 300, UpdateTime: 300, Status: types.StatusPublic,
		},
		{
			Identifier: "doi:10.1234/B2", Owner: "ark:/99166/p9carol",
			CreateTime: 400, UpdateTime: 400, Status: types.StatusUnavailable,
		},
	}
	for _, rec := range records {
		_, err := table.Set("", rec)
		require.NoError(t, err)
	}
}

func TestIdentifierFetchByOwner(t *testing.T) {
	b := setupBackend(t)
	table := identifiersTableOf(t, b)
	seedIdentifiers(t, table)

	// Bob owns one DOI and co-owns one ARK.
	entities, err := table.Fetch(map[string]any{"owner": "ark:/99166/p9bob"})
	require.NoError(t, err)
	names := []string{}
	for _, entity := range entities {
		names = append(names, entity.(*types.Identifier).Identifier)
	}
	assert.Equal(t, []string{"ark:/12345/x2", "doi:10.1234/A1"}, names)

	// Unknown owner matches nothing, and the result is non-nil.
	entities, err = table.Fetch(map[string]any{"owner": "ark:/99166/p9nobody"})
	require.NoError(t, err)
	require.NotNil(t, entities)
	assert.Empty(t, entities)
}

func TestIdentifierFetchAll(t *testing.T) {
	b := setupBackend(t)
	table := identifiersTableOf(t, b)
	seedIdentifiers(t, table)

	entities, err := table.Fetch(nil)
	require.NoError(t, err)
	assert.Len(t, entities, 4)

	// Ordered by identifier: arks sort before dois.
	first := entities[0].(*types.Identifier)
	assert.Equal(t, "ark:/12345/x1", first.Identifier)
}

func TestIdentifierFetchFilters(t *testing.T) {
	b := setupBackend(t)
	table := identifiersTableOf(t, b)
	seedIdentifiers(t, table)

	entities, err := table.Fetch(map[string]any{"status": types.StatusPublic})
	require.NoError(t, err)
	assert.Len(t, entities, 2)

	entities, err = table.Fetch(map[string]any{"after": "ark:/12345/x2", "limit": 1})
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, "doi:10.1234/A1", entities[0].(*types.Identifier).Identifier)
}

func TestIdentifierFetchBadFilter(t *testing.T) {
	b := setupBackend(t)
	table := identifiersTableOf(t, b)

	tests := []struct {
		name   string
		filter map[string]any
	}{
		{"owner not string", map[string]any{"owner": 7}},
		{"status not string", map[string]any{"status": true}},
		{"limit not int", map[string]any{"limit": "10"}},
		{"negative limit", map[string]any{"limit": -1}},
		{"unknown key", map[string]any{"color": "red"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := table.Fetch(tt.filter)
			assert.ErrorIs(t, err, types.ErrInvalidFilter)
		})
	}
}
