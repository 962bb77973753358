package sqlite

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/pidsearch/pkg/types"
)

func TestDumpAndLoad(t *testing.T) {
	b := setupBackend(t)
	seedIdentifiers(t, identifiersTableOf(t, b))
	seedShoulders(t, shouldersTableOf(t, b))

	identifiers, shoulders, err := b.Dump()
	require.NoError(t, err)
	assert.Equal(t, 4, identifiers)
	assert.Equal(t, 3, shoulders)

	dataDir := b.DataDir()
	for _, name := range []string{identifiersDumpFile, shouldersDumpFile} {
		_, err := os.Stat(filepath.Join(dataDir, name))
		assert.NoError(t, err, "dump file %s should exist", name)
	}

	// Restore into a fresh store from the same dump files.
	restoreDir := t.TempDir()
	for _, name := range []string{identifiersDumpFile, shouldersDumpFile} {
		data, err := os.ReadFile(filepath.Join(dataDir, name))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(restoreDir, name), data, 0o644))
	}

	b2 := NewBackend()
	require.NoError(t, b2.Attach(types.Config{Backend: "sqlite", DataDir: restoreDir}))
	t.Cleanup(func() { b2.Detach() })

	applied, skipped, err := b2.Load()
	require.NoError(t, err)
	assert.Equal(t, 7, applied)
	assert.Zero(t, skipped)

	// Ownership rows are rebuilt on load, so owner search works.
	table, err := b2.GetTable(types.TableIdentifiers)
	require.NoError(t, err)
	entities, err := table.Fetch(map[string]any{"owner": "ark:/99166/p9bob"})
	require.NoError(t, err)
	assert.Len(t, entities, 2)

	shoulderTable, err := b2.GetTable(types.TableShoulders)
	require.NoError(t, err)
	entity, err := shoulderTable.Get("doi:10.5072/FK2")
	require.NoError(t, err)
	assert.Equal(t, "TEST.TEST", entity.(*types.Shoulder).Datacenter)
}

func TestLoadSkipsBadRecords(t *testing.T) {
	dataDir := t.TempDir()
	lines := `{"Identifier":"ark:/12345/good","Owner":"ark:/99166/p9alice","CreateTime":100,"UpdateTime":100,"Status":"public"}
not json at all
{"Identifier":"ark:/12345/noowner","Owner":"","CreateTime":100,"UpdateTime":100,"Status":"public"}
{"Identifier":"ark:/b5072/fk2shadow","Owner":"ark:/99166/p9alice","CreateTime":100,"UpdateTime":100,"Status":"public"}
`
	path := filepath.Join(dataDir, identifiersDumpFile)
	require.NoError(t, os.WriteFile(path, []byte(lines), 0o644))

	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: "sqlite", DataDir: dataDir}))
	t.Cleanup(func() { b.Detach() })

	applied, skipped, err := b.Load()
	require.NoError(t, err)
	assert.Equal(t, 1, applied)
	assert.Equal(t, 3, skipped)

	table, err := b.GetTable(types.TableIdentifiers)
	require.NoError(t, err)
	_, err = table.Get("ark:/12345/good")
	assert.NoError(t, err)
}

func TestLoadWithoutDumpFiles(t *testing.T) {
	b := setupBackend(t)
	applied, skipped, err := b.Load()
	require.NoError(t, err)
	assert.Zero(t, applied)
	assert.Zero(t, skipped)
}
