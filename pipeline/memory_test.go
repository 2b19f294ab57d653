package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCommitAndLookup(t *testing.T) {
	m := NewMemory()
	_, ok := m.Lookup("/w/a.sc")
	require.False(t, ok)

	err := m.Commit(context.Background(), &Batch{
		Epoch: 1,
		UpdatedFiles: []File{
			{Path: "/w/a.sc", Contents: "alpha", Kind: FileNormal},
			{Path: "/w/b.sc", Contents: "beta", Kind: FileNormal},
		},
	})
	require.NoError(t, err)

	got, ok := m.Lookup("/w/a.sc")
	require.True(t, ok)
	assert.Equal(t, "alpha", got)
	assert.Equal(t, uint64(1), m.Epoch())
	assert.Equal(t, 2, m.Len())

	// Later epochs overwrite.
	require.NoError(t, m.Commit(context.Background(), &Batch{
		Epoch:        3,
		UpdatedFiles: []File{{Path: "/w/a.sc", Contents: ""}},
	}))
	got, ok = m.Lookup("/w/a.sc")
	require.True(t, ok)
	assert.Equal(t, "", got, "empty contents still count as committed")
}

func TestMemoryRejectsStaleEpoch(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Commit(context.Background(), &Batch{Epoch: 5}))
	err := m.Commit(context.Background(), &Batch{Epoch: 4})
	require.Error(t, err)
	assert.Equal(t, uint64(5), m.Epoch())
}

func TestMemoryOnCommit(t *testing.T) {
	m := NewMemory()
	var seen []uint64
	m.OnCommit(func(b *Batch) { seen = append(seen, b.Epoch) })
	require.NoError(t, m.Commit(context.Background(), &Batch{Epoch: 1}))
	require.NoError(t, m.Commit(context.Background(), &Batch{Epoch: 2}))
	assert.Equal(t, []uint64{1, 2}, seen)
}

func TestMemoryCanceledContext(t *testing.T) {
	m := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := m.Commit(ctx, &Batch{Epoch: 1, UpdatedFiles: []File{{Path: "/w/a.sc"}}})
	require.Error(t, err)
	_, ok := m.Lookup("/w/a.sc")
	assert.False(t, ok)
}
