// Package cart owns the order state: the line items, the derived total,
// and their persistence. All mutation funnels through Cart methods; the
// total is recomputed from scratch on every mutation so it can never
// drift, and a snapshot is persisted after each one.
package cart

import (
	"context"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/VoxKiosk/OrderOS/backend/internal/infrastructure/logging"
	"github.com/VoxKiosk/OrderOS/backend/internal/shared/types"
	"github.com/VoxKiosk/OrderOS/backend/internal/storage"
)

// Cart is the order state machine. Exactly one line exists per distinct
// item ID; a quantity reaching zero removes the line.
type Cart struct {
	mu    sync.Mutex
	lines []types.CartLine
	total float64

	store     storage.Store
	freshness time.Duration
	logger    *logging.Logger
}

// New creates an empty cart backed by store. Snapshots older than
// freshness are rejected on hydration.
func New(store storage.Store, freshness time.Duration, logger *logging.Logger) *Cart {
	return &Cart{
		store:     store,
		freshness: freshness,
		logger:    logger.Component("cart"),
	}
}

// Hydrate restores the cart from persisted storage. A missing, stale, or
// unreadable snapshot results in a fresh empty cart; hydration never fails.
func (c *Cart) Hydrate(ctx context.Context) {
	snap, ok, err := c.store.Load(ctx)
	if err != nil {
		c.logger.Warn("cart hydration failed, starting empty", zap.Error(err))
		return
	}
	if !ok {
		return
	}
	if age := time.Since(snap.SavedAt); age > c.freshness {
		c.logger.Info("discarding stale cart snapshot",
			zap.Duration("age", age),
			zap.Duration("freshness", c.freshness),
		)
		if err := c.store.Delete(ctx); err != nil {
			c.logger.Warn("failed to delete stale snapshot", zap.Error(err))
		}
		return
	}

	c.mu.Lock()
	c.lines = append(c.lines[:0], snap.Lines...)
	c.recompute()
	c.mu.Unlock()

	c.logger.Info("cart hydrated",
		zap.Int("lines", len(snap.Lines)),
		zap.Float64("total", snap.Total),
	)
}

// Add merges qty of item into the existing line for that item ID, or
// inserts a new line. qty < 1 is treated as 1.
func (c *Cart) Add(ctx context.Context, item types.MenuItem, qty int) {
	if qty < 1 {
		qty = 1
	}

	c.mu.Lock()
	merged := false
	for i := range c.lines {
		if c.lines[i].ItemID == item.ID {
			c.lines[i].Quantity += qty
			merged = true
			break
		}
	}
	if !merged {
		c.lines = append(c.lines, types.CartLine{
			ItemID:   item.ID,
			Name:     item.Name,
			Price:    item.Price,
			Quantity: qty,
		})
	}
	c.recompute()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.persist(ctx, snap)
}

// Remove eliminates the line for itemID. Returns false when no such line.
func (c *Cart) Remove(ctx context.Context, itemID int) bool {
	c.mu.Lock()
	removed := c.removeLocked(itemID)
	c.recompute()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if removed {
		c.persist(ctx, snap)
	}
	return removed
}

// SetQuantity sets the line quantity for itemID; n <= 0 removes the line.
// Returns false when no such line exists.
func (c *Cart) SetQuantity(ctx context.Context, itemID, n int) bool {
	c.mu.Lock()
	var changed bool
	if n <= 0 {
		changed = c.removeLocked(itemID)
	} else {
		for i := range c.lines {
			if c.lines[i].ItemID == itemID {
				c.lines[i].Quantity = n
				changed = true
				break
			}
		}
	}
	c.recompute()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if changed {
		c.persist(ctx, snap)
	}
	return changed
}

// Clear empties the cart and removes the persisted snapshot.
func (c *Cart) Clear(ctx context.Context) {
	c.mu.Lock()
	c.lines = c.lines[:0]
	c.total = 0
	c.mu.Unlock()

	if err := c.store.Delete(ctx); err != nil {
		c.logger.Warn("failed to clear persisted cart", zap.Error(err))
	}
}

// Total returns the current derived total.
func (c *Cart) Total() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// ItemCount returns the sum of line quantities, not the line count.
func (c *Cart) ItemCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

// Lines returns a copy of the current lines in insertion order.
func (c *Cart) Lines() []types.CartLine {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]types.CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

// Snapshot returns a point-in-time copy of the cart.
func (c *Cart) Snapshot() types.CartSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Validate reports violations without mutating state.
func (c *Cart) Validate() []types.CartViolation {
	c.mu.Lock()
	defer c.mu.Unlock()

	var violations []types.CartViolation
	if len(c.lines) == 0 {
		violations = append(violations, types.CartViolation{
			Code:    types.ViolationEmptyCart,
			Message: "cart is empty",
		})
	}
	for _, l := range c.lines {
		if l.Quantity <= 0 {
			violations = append(violations, types.CartViolation{
				Code:    types.ViolationBadQuantity,
				Message: "non-positive quantity on " + l.Name,
			})
		}
		if l.Price <= 0 {
			violations = append(violations, types.CartViolation{
				Code:    types.ViolationBadPrice,
				Message: "non-positive price on " + l.Name,
			})
		}
	}
	return violations
}

// removeLocked deletes the line for itemID preserving order. Callers must
// hold c.mu.
func (c *Cart) removeLocked(itemID int) bool {
	for i := range c.lines {
		if c.lines[i].ItemID == itemID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return true
		}
	}
	return false
}

// recompute rebuilds the total from scratch, rounded to cents. Callers
// must hold c.mu.
func (c *Cart) recompute() {
	total := 0.0
	for _, l := range c.lines {
		total += l.Price * float64(l.Quantity)
	}
	c.total = math.Round(total*100) / 100
}

// snapshotLocked copies the current state. Callers must hold c.mu.
func (c *Cart) snapshotLocked() types.CartSnapshot {
	lines := make([]types.CartLine, len(c.lines))
	copy(lines, c.lines)
	return types.CartSnapshot{
		Lines:   lines,
		Total:   c.total,
		SavedAt: time.Now(),
	}
}

// persist writes the snapshot. Failures are logged and swallowed; the
// in-memory cart stays correct even when durability does not.
func (c *Cart) persist(ctx context.Context, snap types.CartSnapshot) {
	if err := c.store.Save(ctx, snap); err != nil {
		c.logger.Warn("cart persistence failed", zap.Error(err))
	}
}
