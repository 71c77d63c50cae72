package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VoxKiosk/OrderOS/backend/internal/shared/types"
)

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, ok, err := m.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	snap := types.CartSnapshot{
		Lines:   []types.CartLine{{ItemID: 11, Name: "Cheeseburger", Price: 10.99, Quantity: 2}},
		Total:   21.98,
		SavedAt: time.Now(),
	}
	require.NoError(t, m.Save(ctx, snap))

	got, ok, err := m.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, snap.Total, got.Total)
	assert.Len(t, got.Lines, 1)
}

func TestMemoryDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Save(ctx, types.CartSnapshot{SavedAt: time.Now()}))
	require.NoError(t, m.Delete(ctx))

	_, ok, err := m.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemorySaveReplaces(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Save(ctx, types.CartSnapshot{Total: 1}))
	require.NoError(t, m.Save(ctx, types.CartSnapshot{Total: 2}))

	got, ok, _ := m.Load(ctx)
	require.True(t, ok)
	assert.Equal(t, 2.0, got.Total)
}
