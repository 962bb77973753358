package sqlite

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/pidsearch/pkg/types"
)

func queueTableOf(t *testing.T, b *Backend) types.Table {
	t.Helper()
	table, err := b.GetTable(types.TableQueue)
	require.NoError(t, err)
	return table
}

func TestQueueEnqueueAssignsSequence(t *testing.T) {
	b := setupBackend(t)
	table := queueTableOf(t, b)

	first := &types.QueueEntry{
		Identifier: "ark:/12345/x1",
		Operation:  types.OperationCreate,
		Metadata:   map[string]string{"_o": "ark:/99166/p9alice"},
	}
	id1, err := table.Set("", first)
	require.NoError(t, err)

	second := &types.QueueEntry{
		Identifier: "ark:/12345/x2",
		Operation:  types.OperationUpdate,
	}
	id2, err := table.Set("", second)
	require.NoError(t, err)

	seq1, err := strconv.ParseInt(id1, 10, 64)
	require.NoError(t, err)
	seq2, err := strconv.ParseInt(id2, 10, 64)
	require.NoError(t, err)
	assert.Less(t, seq1, seq2, "sequence numbers are monotonic")
	assert.Equal(t, seq1, first.Seq, "assigned sequence is written back")
	assert.NotZero(t, first.EnqueueTime, "zero enqueue time is stamped")
}

func TestQueueRoundTrip(t *testing.T) {
	b := setupBackend(t)
	table := queueTableOf(t, b)

	entry := &types.QueueEntry{
		Identifier: "doi:10.1234/A1",
		Operation:  types.OperationUpdate,
		Metadata: map[string]string{
			"_o":      "ark:/99166/p9bob",
			"_c":      "1000",
			"_u":      "2000",
			"erc.who": "Doe, Jane",
		},
		EnqueueTime: 5000,
	}
	id, err := table.Set("", entry)
	require.NoError(t, err)

	got, err := table.Get(id)
	require.NoError(t, err)
	fetched := got.(*types.QueueEntry)
	assert.Equal(t, entry.Identifier, fetched.Identifier)
	assert.Equal(t, entry.Operation, fetched.Operation)
	assert.Equal(t, entry.Metadata, fetched.Metadata)
	assert.Equal(t, int64(5000), fetched.EnqueueTime)
}

func TestQueueSetValidation(t *testing.T) {
	b := setupBackend(t)
	table := queueTableOf(t, b)

	_, err := table.Set("7", &types.QueueEntry{Identifier: "ark:/12345/x1", Operation: types.OperationCreate})
	assert.ErrorIs(t, err, types.ErrInvalidID, "entries cannot be addressed on insert")

	_, err = table.Set("", "not an entry")
	assert.ErrorIs(t, err, types.ErrInvalidData)

	_, err = table.Set("", &types.QueueEntry{Operation: types.OperationCreate})
	assert.ErrorIs(t, err, types.ErrEmptyIdentifier)

	_, err = table.Set("", &types.QueueEntry{Identifier: "ark:/12345/x1", Operation: "upsert"})
	assert.ErrorIs(t, err, types.ErrInvalidOperation)
}

func TestQueueDelete(t *testing.T) {
	b := setupBackend(t)
	table := queueTableOf(t, b)

	id, err := table.Set("", &types.QueueEntry{
		Identifier: "ark:/12345/x1",
		Operation:  types.OperationDelete,
	})
	require.NoError(t, err)

	require.NoError(t, table.Delete(id))
	_, err = table.Get(id)
	assert.ErrorIs(t, err, types.ErrNotFound)

	assert.ErrorIs(t, table.Delete(id), types.ErrNotFound)
	assert.ErrorIs(t, table.Delete("zero"), types.ErrInvalidID)
	assert.ErrorIs(t, table.Delete(""), types.ErrInvalidID)
}

func TestQueueFetchOrderAndLimit(t *testing.T) {
	b := setupBackend(t)
	table := queueTableOf(t, b)

	for i, name := range []string{"ark:/12345/q1", "ark:/12345/q2", "ark:/12345/q3"} {
		_, err := table.Set("", &types.QueueEntry{
			Identifier:  name,
			Operation:   types.OperationCreate,
			EnqueueTime: int64(100 + i),
		})
		require.NoError(t, err)
	}

	entries, err := table.Fetch(nil)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for i := 1; i < len(entries); i++ {
		prev := entries[i-1].(*types.QueueEntry)
		cur := entries[i].(*types.QueueEntry)
		assert.Less(t, prev.Seq, cur.Seq, "entries come back in sequence order")
	}

	limited, err := table.Fetch(map[string]any{"limit": 2})
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "ark:/12345/q1", limited[0].(*types.QueueEntry).Identifier)

	byIdent, err := table.Fetch(map[string]any{"identifier": "ark:/12345/q2"})
	require.NoError(t, err)
	require.Len(t, byIdent, 1)

	_, err = table.Fetch(map[string]any{"limit": "all"})
	assert.ErrorIs(t, err, types.ErrInvalidFilter)
}
