package catalog

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"go.uber.org/zap"

	"github.com/VoxKiosk/OrderOS/backend/internal/infrastructure/logging"
	"github.com/VoxKiosk/OrderOS/backend/internal/shared/types"
)

// Provider is the catalog query contract consumed by the orchestrator.
type Provider interface {
	Menu() []types.MenuCategory
	Category(name string) (types.MenuCategory, bool)
	Items() []types.MenuItem
	Item(id int) (types.MenuItem, bool)
}

// Catalog holds the loaded menu. Immutable after construction.
type Catalog struct {
	categories []types.MenuCategory
	byName     map[string]int
	items      []types.MenuItem
	byID       map[int]int
}

// menuFile is the YAML shape of the catalog file.
type menuFile struct {
	Categories []struct {
		Name  string `yaml:"name"`
		Items []struct {
			ID          int     `yaml:"id"`
			Name        string  `yaml:"name"`
			Price       float64 `yaml:"price"`
			Description string  `yaml:"description"`
		} `yaml:"items"`
	} `yaml:"categories"`
}

// Load reads the menu from path. Any failure (missing file, parse error,
// invalid data) falls back to the built-in sample menu; the catalog
// collaborator never hard-fails the kiosk.
func Load(path string, logger *logging.Logger) *Catalog {
	log := logger.Component("catalog")

	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn("menu file unavailable, using sample menu",
			zap.String("path", path), zap.Error(err))
		return mustNew(sampleMenu())
	}

	var file menuFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		log.Warn("menu file malformed, using sample menu",
			zap.String("path", path), zap.Error(err))
		return mustNew(sampleMenu())
	}

	categories := make([]types.MenuCategory, 0, len(file.Categories))
	for _, c := range file.Categories {
		cat := types.MenuCategory{Name: c.Name}
		for _, it := range c.Items {
			cat.Items = append(cat.Items, types.MenuItem{
				ID:          it.ID,
				Name:        it.Name,
				Price:       it.Price,
				Description: it.Description,
				Category:    c.Name,
			})
		}
		categories = append(categories, cat)
	}

	cat, err := New(categories)
	if err != nil {
		log.Warn("menu file invalid, using sample menu", zap.Error(err))
		return mustNew(sampleMenu())
	}

	log.Info("menu loaded",
		zap.String("path", path),
		zap.Int("categories", len(cat.categories)),
		zap.Int("items", len(cat.items)),
	)
	return cat
}

// New builds a catalog from category listings, validating item IDs are
// unique and prices nonnegative.
func New(categories []types.MenuCategory) (*Catalog, error) {
	c := &Catalog{
		byName: make(map[string]int, len(categories)),
		byID:   make(map[int]int),
	}

	for _, cat := range categories {
		if cat.Name == "" {
			return nil, fmt.Errorf("category with empty name")
		}
		key := normalizeCategory(cat.Name)
		if _, dup := c.byName[key]; dup {
			return nil, fmt.Errorf("duplicate category %q", cat.Name)
		}
		c.byName[key] = len(c.categories)
		c.categories = append(c.categories, cat)

		for _, item := range cat.Items {
			if _, dup := c.byID[item.ID]; dup {
				return nil, fmt.Errorf("duplicate item id %d (%s)", item.ID, item.Name)
			}
			if item.Price < 0 {
				return nil, fmt.Errorf("negative price on item %d (%s)", item.ID, item.Name)
			}
			c.byID[item.ID] = len(c.items)
			c.items = append(c.items, item)
		}
	}
	return c, nil
}

func mustNew(categories []types.MenuCategory) *Catalog {
	c, err := New(categories)
	if err != nil {
		panic(fmt.Sprintf("invalid built-in menu: %v", err))
	}
	return c
}

// Menu returns all categories in insertion order.
func (c *Catalog) Menu() []types.MenuCategory {
	out := make([]types.MenuCategory, len(c.categories))
	copy(out, c.categories)
	return out
}

// Category resolves a category by name, tolerating case and plural forms
// ("appetizers" matches "Appetizers", "drink" matches "Drinks").
func (c *Catalog) Category(name string) (types.MenuCategory, bool) {
	key := normalizeCategory(name)
	if idx, ok := c.byName[key]; ok {
		return c.categories[idx], true
	}
	// Singular/plural tolerance in both directions.
	if idx, ok := c.byName[key+"s"]; ok {
		return c.categories[idx], true
	}
	if idx, ok := c.byName[strings.TrimSuffix(key, "s")]; ok {
		return c.categories[idx], true
	}
	return types.MenuCategory{}, false
}

// Items returns all items across categories in insertion order. The
// orchestrator's fuzzy name match depends on this order being stable.
func (c *Catalog) Items() []types.MenuItem {
	out := make([]types.MenuItem, len(c.items))
	copy(out, c.items)
	return out
}

// Item resolves an item by ID.
func (c *Catalog) Item(id int) (types.MenuItem, bool) {
	idx, ok := c.byID[id]
	if !ok {
		return types.MenuItem{}, false
	}
	return c.items[idx], true
}

func normalizeCategory(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// sampleMenu is the fallback catalog used when no menu file is available.
func sampleMenu() []types.MenuCategory {
	return []types.MenuCategory{
		{Name: "Appetizers", Items: []types.MenuItem{
			{ID: 1, Name: "Spring Rolls", Price: 6.99, Description: "Crispy vegetable rolls with sweet chili dip", Category: "Appetizers"},
			{ID: 2, Name: "Garlic Bread", Price: 4.99, Description: "Toasted baguette with garlic butter", Category: "Appetizers"},
			{ID: 3, Name: "Soup of the Day", Price: 5.99, Description: "Ask the kiosk, it knows", Category: "Appetizers"},
		}},
		{Name: "Mains", Items: []types.MenuItem{
			{ID: 10, Name: "Grilled Salmon", Price: 18.99, Description: "Atlantic salmon with lemon butter", Category: "Mains"},
			{ID: 11, Name: "Cheeseburger", Price: 10.99, Description: "Beef patty, cheddar, brioche bun", Category: "Mains"},
			{ID: 12, Name: "Margherita Pizza", Price: 12.49, Description: "Tomato, mozzarella, basil", Category: "Mains"},
			{ID: 13, Name: "Pad Thai", Price: 13.50, Description: "Rice noodles, tamarind, peanuts", Category: "Mains"},
		}},
		{Name: "Drinks", Items: []types.MenuItem{
			{ID: 20, Name: "Iced Tea", Price: 2.99, Description: "House-brewed, lightly sweetened", Category: "Drinks"},
			{ID: 21, Name: "Lemonade", Price: 3.49, Description: "Fresh squeezed", Category: "Drinks"},
			{ID: 22, Name: "Espresso", Price: 2.49, Description: "Double shot", Category: "Drinks"},
		}},
		{Name: "Desserts", Items: []types.MenuItem{
			{ID: 30, Name: "Chocolate Cake", Price: 6.49, Description: "Warm, with vanilla ice cream", Category: "Desserts"},
			{ID: 31, Name: "Cheesecake", Price: 5.99, Description: "New York style", Category: "Desserts"},
		}},
	}
}
