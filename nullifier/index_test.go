package nullifier

import (
	"testing"

	"github.com/stretchr/testify/require"

	"animica.dev/node/consensus"
)

func nullifierAt(b byte) [32]byte {
	var n [32]byte
	n[0] = b
	return n
}

func TestInsertAndContains(t *testing.T) {
	idx := NewIndex(2000)
	n := nullifierAt(1)

	require.False(t, idx.Contains(n))
	require.NoError(t, idx.InsertBatch([][32]byte{n}, 100))
	require.True(t, idx.Contains(n))
}

func TestInsertBatchRejectsLiveReuse(t *testing.T) {
	idx := NewIndex(2000)
	n := nullifierAt(1)
	require.NoError(t, idx.InsertBatch([][32]byte{n}, 100))

	err := idx.InsertBatch([][32]byte{n}, 101)
	require.Error(t, err)
	code, ok := consensus.CodeOf(err)
	require.True(t, ok)
	require.Equal(t, consensus.ErrNullifierReuse, code)
}

func TestInsertBatchRejectsDuplicateWithinBatch(t *testing.T) {
	idx := NewIndex(2000)
	n := nullifierAt(1)

	err := idx.InsertBatch([][32]byte{n, n}, 100)
	require.Error(t, err)

	// A rejected batch must not mutate the index at all.
	require.False(t, idx.Contains(n))
	require.Equal(t, 0, idx.Len())
}

func TestExpireRemovesOnlyPastTTL(t *testing.T) {
	idx := NewIndex(10)
	n100 := nullifierAt(1)
	n105 := nullifierAt(2)
	require.NoError(t, idx.InsertBatch([][32]byte{n100}, 100))
	require.NoError(t, idx.InsertBatch([][32]byte{n105}, 105))

	idx.Expire(109) // cutoff = 99, nothing expires yet
	require.True(t, idx.Contains(n100))
	require.True(t, idx.Contains(n105))

	idx.Expire(110) // cutoff = 100, n100 expires, n105 survives
	require.False(t, idx.Contains(n100))
	require.True(t, idx.Contains(n105))
}

func TestExpireBelowTTLIsNoop(t *testing.T) {
	idx := NewIndex(2000)
	n := nullifierAt(1)
	require.NoError(t, idx.InsertBatch([][32]byte{n}, 5))
	idx.Expire(10) // upToHeight < ttl, must not underflow or expire anything
	require.True(t, idx.Contains(n))
}

func TestRewindRestoresExactMembership(t *testing.T) {
	idx := NewIndex(2000)
	n100 := nullifierAt(1)
	n101 := nullifierAt(2)
	require.NoError(t, idx.InsertBatch([][32]byte{n100}, 100))
	require.NoError(t, idx.InsertBatch([][32]byte{n101}, 101))

	idx.Rewind(100)
	require.True(t, idx.Contains(n100))
	require.False(t, idx.Contains(n101))
	require.Equal(t, 1, idx.Len())

	// After rewind, n101 is usable again.
	require.NoError(t, idx.InsertBatch([][32]byte{n101}, 102))
	require.True(t, idx.Contains(n101))
}

func TestRewindThenReapplyDifferentBranch(t *testing.T) {
	idx := NewIndex(2000)
	nOnA := nullifierAt(1)
	require.NoError(t, idx.InsertBatch([][32]byte{nOnA}, 101))

	idx.Rewind(100)
	require.False(t, idx.Contains(nOnA))

	nOnB := nullifierAt(2)
	require.NoError(t, idx.InsertBatch([][32]byte{nOnB}, 101))
	require.True(t, idx.Contains(nOnB))
	require.False(t, idx.Contains(nOnA))
}
