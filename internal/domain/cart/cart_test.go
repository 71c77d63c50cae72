package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VoxKiosk/OrderOS/backend/internal/infrastructure/logging"
	"github.com/VoxKiosk/OrderOS/backend/internal/shared/types"
	"github.com/VoxKiosk/OrderOS/backend/internal/storage"
)

var (
	burger = types.MenuItem{ID: 11, Name: "Cheeseburger", Price: 10.99, Category: "Mains"}
	tea    = types.MenuItem{ID: 20, Name: "Iced Tea", Price: 2.99, Category: "Drinks"}
)

func newCart(t *testing.T) (*Cart, *storage.Memory) {
	t.Helper()
	store := storage.NewMemory()
	return New(store, 24*time.Hour, logging.NewNop()), store
}

func TestAddMergesByItemID(t *testing.T) {
	ctx := context.Background()
	c, _ := newCart(t)

	c.Add(ctx, burger, 1)
	c.Add(ctx, burger, 2)
	c.Add(ctx, burger, 1)

	lines := c.Lines()
	require.Len(t, lines, 1, "repeated adds of one item must keep a single line")
	assert.Equal(t, 4, lines[0].Quantity)
	assert.Equal(t, 4, c.ItemCount())
}

func TestTotalRecomputedOnEveryMutation(t *testing.T) {
	ctx := context.Background()
	c, _ := newCart(t)

	c.Add(ctx, burger, 2)
	assert.InDelta(t, 21.98, c.Total(), 0.001)

	c.Add(ctx, tea, 1)
	assert.InDelta(t, 24.97, c.Total(), 0.001)

	c.SetQuantity(ctx, burger.ID, 1)
	assert.InDelta(t, 13.98, c.Total(), 0.001)

	c.Remove(ctx, tea.ID)
	assert.InDelta(t, 10.99, c.Total(), 0.001)

	c.Clear(ctx)
	assert.Zero(t, c.Total())
}

func TestSetQuantityZeroEqualsRemove(t *testing.T) {
	ctx := context.Background()
	c, _ := newCart(t)

	c.Add(ctx, burger, 3)
	c.Add(ctx, tea, 1)

	require.True(t, c.SetQuantity(ctx, burger.ID, 0))
	assert.Equal(t, 1, c.ItemCount())
	assert.Len(t, c.Lines(), 1)

	require.True(t, c.Remove(ctx, tea.ID))
	assert.Zero(t, c.ItemCount())
}

func TestRemoveUnknownItem(t *testing.T) {
	ctx := context.Background()
	c, _ := newCart(t)

	assert.False(t, c.Remove(ctx, 999))
	assert.False(t, c.SetQuantity(ctx, 999, 5))
}

func TestValidate(t *testing.T) {
	ctx := context.Background()
	c, _ := newCart(t)

	violations := c.Validate()
	require.Len(t, violations, 1)
	assert.Equal(t, types.ViolationEmptyCart, violations[0].Code)

	c.Add(ctx, burger, 1)
	assert.Empty(t, c.Validate())

	// Validation must not mutate.
	assert.Equal(t, 1, c.ItemCount())
}

func TestMutationsPersistSnapshots(t *testing.T) {
	ctx := context.Background()
	c, store := newCart(t)

	c.Add(ctx, burger, 2)

	snap, ok, err := store.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 21.98, snap.Total, 0.001)
	require.Len(t, snap.Lines, 1)
	assert.Equal(t, 2, snap.Lines[0].Quantity)
}

type failingStore struct{ storage.Memory }

func (f *failingStore) Save(context.Context, types.CartSnapshot) error {
	return errors.New("disk on fire")
}

func TestPersistenceFailureKeepsCartCorrect(t *testing.T) {
	ctx := context.Background()
	c := New(&failingStore{}, 24*time.Hour, logging.NewNop())

	c.Add(ctx, burger, 2)
	c.Add(ctx, tea, 1)

	assert.InDelta(t, 24.97, c.Total(), 0.001)
	assert.Equal(t, 3, c.ItemCount())
}

func TestHydrateFreshSnapshot(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	require.NoError(t, store.Save(ctx, types.CartSnapshot{
		Lines:   []types.CartLine{{ItemID: 11, Name: "Cheeseburger", Price: 10.99, Quantity: 2}},
		Total:   21.98,
		SavedAt: time.Now().Add(-time.Hour),
	}))

	c := New(store, 24*time.Hour, logging.NewNop())
	c.Hydrate(ctx)

	assert.Equal(t, 2, c.ItemCount())
	assert.InDelta(t, 21.98, c.Total(), 0.001)
}

func TestHydrateDiscardsStaleSnapshot(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	require.NoError(t, store.Save(ctx, types.CartSnapshot{
		Lines:   []types.CartLine{{ItemID: 11, Name: "Cheeseburger", Price: 10.99, Quantity: 2}},
		Total:   21.98,
		SavedAt: time.Now().Add(-25 * time.Hour),
	}))

	c := New(store, 24*time.Hour, logging.NewNop())
	c.Hydrate(ctx)

	assert.Zero(t, c.ItemCount(), "stale snapshot must be discarded")

	// The stale snapshot is also gone from storage.
	_, ok, err := store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAddClampsQuantity(t *testing.T) {
	ctx := context.Background()
	c, _ := newCart(t)

	c.Add(ctx, burger, 0)
	assert.Equal(t, 1, c.ItemCount())

	c.Add(ctx, burger, -3)
	assert.Equal(t, 2, c.ItemCount())
}
