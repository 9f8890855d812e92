package logic_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabula-vn/fabula/pkg/logic"
)

func TestMemoryStore_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	store := logic.NewMemoryStore()
	g, _, _ := goldGraph(t)

	require.NoError(t, store.SaveGraph(ctx, g))

	got, err := store.GetGraph(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, g.ID, got.ID)
	assert.Len(t, got.Nodes, 2)

	// The store hands out clones: mutating the result must not change the
	// stored copy.
	require.NoError(t, got.RemoveNode(got.StartNodeID))
	again, err := store.GetGraph(ctx, g.ID)
	require.NoError(t, err)
	assert.Len(t, again.Nodes, 2)
}

func TestMemoryStore_GetMissing(t *testing.T) {
	store := logic.NewMemoryStore()
	_, err := store.GetGraph(context.Background(), "nope")
	assert.ErrorIs(t, err, logic.ErrGraphNotFound)
}

func TestMemoryStore_DeleteMissing(t *testing.T) {
	store := logic.NewMemoryStore()
	err := store.DeleteGraph(context.Background(), "nope")
	assert.ErrorIs(t, err, logic.ErrGraphNotFound)
}

func TestMemoryStore_List(t *testing.T) {
	ctx := context.Background()
	store := logic.NewMemoryStore()

	infos, err := store.ListGraphs(ctx)
	require.NoError(t, err)
	assert.Empty(t, infos)

	a, _, _ := goldGraph(t)
	b := logic.NewGraph("empty")
	require.NoError(t, store.SaveGraph(ctx, a))
	require.NoError(t, store.SaveGraph(ctx, b))

	infos, err = store.ListGraphs(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	for _, info := range infos {
		if info.ID == a.ID {
			assert.Equal(t, 2, info.NodeCount)
			assert.Equal(t, a.Version, info.Version)
		}
	}

	require.NoError(t, store.DeleteGraph(ctx, a.ID))
	infos, err = store.ListGraphs(ctx)
	require.NoError(t, err)
	assert.Len(t, infos, 1)
}

func TestMemoryStore_SaveRejectsNil(t *testing.T) {
	store := logic.NewMemoryStore()
	assert.Error(t, store.SaveGraph(context.Background(), nil))
}
