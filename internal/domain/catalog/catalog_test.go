package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VoxKiosk/OrderOS/backend/internal/infrastructure/logging"
	"github.com/VoxKiosk/OrderOS/backend/internal/shared/types"
)

func TestLoadFallsBackToSampleMenu(t *testing.T) {
	c := Load("does/not/exist.yaml", logging.NewNop())

	require.NotEmpty(t, c.Menu())
	_, ok := c.Category("appetizers")
	assert.True(t, ok)
}

func TestLoadMalformedFileFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "menu.yaml")
	require.NoError(t, os.WriteFile(path, []byte("categories: [not: valid: yaml"), 0o644))

	c := Load(path, logging.NewNop())
	assert.NotEmpty(t, c.Items())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "menu.yaml")
	menu := `
categories:
  - name: Drinks
    items:
      - id: 1
        name: Cold Brew
        price: 4.50
        description: Slow-steeped
`
	require.NoError(t, os.WriteFile(path, []byte(menu), 0o644))

	c := Load(path, logging.NewNop())
	cat, ok := c.Category("Drinks")
	require.True(t, ok)
	require.Len(t, cat.Items, 1)
	assert.Equal(t, "Cold Brew", cat.Items[0].Name)
	assert.Equal(t, "Drinks", cat.Items[0].Category)
}

func TestCategoryPluralTolerance(t *testing.T) {
	c := Load("missing.yaml", logging.NewNop())

	for _, name := range []string{"drink", "Drinks", "DRINKS", "drinks"} {
		_, ok := c.Category(name)
		assert.True(t, ok, "category %q should resolve", name)
	}

	_, ok := c.Category("weapons")
	assert.False(t, ok)
}

func TestNewRejectsDuplicateIDs(t *testing.T) {
	_, err := New([]types.MenuCategory{
		{Name: "A", Items: []types.MenuItem{{ID: 1, Name: "x", Price: 1}}},
		{Name: "B", Items: []types.MenuItem{{ID: 1, Name: "y", Price: 1}}},
	})
	assert.Error(t, err)
}

func TestNewRejectsNegativePrice(t *testing.T) {
	_, err := New([]types.MenuCategory{
		{Name: "A", Items: []types.MenuItem{{ID: 1, Name: "x", Price: -0.01}}},
	})
	assert.Error(t, err)
}

func TestItemsOrderIsStable(t *testing.T) {
	c := Load("missing.yaml", logging.NewNop())

	first := c.Items()
	second := c.Items()
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}
}

func TestItemLookup(t *testing.T) {
	c := Load("missing.yaml", logging.NewNop())

	item, ok := c.Item(10)
	require.True(t, ok)
	assert.Equal(t, "Grilled Salmon", item.Name)

	_, ok = c.Item(9999)
	assert.False(t, ok)
}
