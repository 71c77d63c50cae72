package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/VoxKiosk/OrderOS/backend/internal/domain/speech"
	"github.com/VoxKiosk/OrderOS/backend/internal/shared/id"
	"github.com/VoxKiosk/OrderOS/backend/internal/shared/types"
)

var greetings = []string{
	"Welcome! What can I get started for you today?",
	"Hi there! Take a look at the menu and let me know what sounds good.",
	"Hello! I'm ready to take your order whenever you are.",
}

// handleBrowseMenu shows one category when named, else the category list.
func (o *Orchestrator) handleBrowseMenu(_ context.Context, result *types.IntentResult) {
	if name := result.Entity(types.EntityCategory); name != "" {
		if cat, ok := o.catalog.Category(name); ok {
			o.mu.Lock()
			o.state.View = types.ViewItems
			o.state.CurrentCategory = cat.Name
			o.mu.Unlock()

			o.bus.PublishUI(types.UIEvent{Type: types.UIShowCategory, Category: &cat})
			o.speech.Enqueue(fmt.Sprintf("Here are our %s.", strings.ToLower(cat.Name)), speech.Options{})
			return
		}
		o.logger.Debug("unknown category requested", zap.String("category", name))
	}

	menu := o.catalog.Menu()
	names := make([]string, len(menu))
	for i, cat := range menu {
		names[i] = cat.Name
	}

	o.mu.Lock()
	o.state.View = types.ViewCategories
	o.state.CurrentCategory = ""
	o.mu.Unlock()

	o.bus.PublishUI(types.UIEvent{Type: types.UIShowCategories, Categories: names})
	o.speech.Enqueue("Here's our menu. What would you like to see?", speech.Options{})
}

// handleAddItem resolves the spoken item name against the catalog and
// adds one of it to the cart.
func (o *Orchestrator) handleAddItem(ctx context.Context, result *types.IntentResult) {
	name := result.Entity(types.EntityItemName)
	if name == "" {
		o.speech.Enqueue("What would you like to add to your order?", speech.Options{})
		return
	}

	item, ok := o.findItem(name)
	if !ok {
		o.speech.Enqueue(fmt.Sprintf("Sorry, I couldn't find %s on the menu.", name), speech.Options{})
		return
	}

	o.cart.Add(ctx, item, 1)
	snap := o.cart.Snapshot()
	o.bus.PublishUI(types.UIEvent{Type: types.UIShowCart, Cart: &snap})
	o.speech.Enqueue(fmt.Sprintf("Added %s to your order.", item.Name), speech.Options{})
}

// handleViewCart shows the cart and speaks a one-line summary.
func (o *Orchestrator) handleViewCart(_ context.Context, _ *types.IntentResult) {
	o.mu.Lock()
	o.state.View = types.ViewCart
	o.mu.Unlock()

	snap := o.cart.Snapshot()
	o.bus.PublishUI(types.UIEvent{Type: types.UIShowCart, Cart: &snap})

	count := o.cart.ItemCount()
	if count == 0 {
		o.speech.Enqueue("Your cart is empty. Would you like to see the menu?", speech.Options{})
		return
	}
	noun := "items"
	if count == 1 {
		noun = "item"
	}
	o.speech.Enqueue(fmt.Sprintf("You have %d %s in your cart, totaling $%.2f.", count, noun, snap.Total), speech.Options{})
}

// handleCheckout validates the cart and starts the settlement timer.
// Re-entry while a settlement is pending is rejected, not raced.
func (o *Orchestrator) handleCheckout(_ context.Context, _ *types.IntentResult) {
	o.mu.Lock()
	if o.settling {
		o.mu.Unlock()
		o.speech.Enqueue("Your order is already being processed, one moment.", speech.Options{})
		return
	}

	if violations := o.cart.Validate(); len(violations) > 0 {
		o.mu.Unlock()
		o.logger.Info("checkout rejected", zap.Any("violations", violations))
		if o.cart.ItemCount() == 0 {
			o.speech.Enqueue("Your cart is empty. Add some items before checking out.", speech.Options{})
		} else {
			o.speech.Enqueue("There's a problem with your order. Please review your cart.", speech.Options{})
		}
		if o.cfg.OnCheckout != nil {
			o.cfg.OnCheckout("rejected")
		}
		return
	}

	o.settling = true
	o.settle = o.deferSettlement()
	o.mu.Unlock()

	o.bus.PublishUI(types.UIEvent{Type: types.UIProcessCheckout})
	o.speech.Enqueue("Processing your order now.", speech.Options{})
}

// deferSettlement arms the settlement timer. Caller holds o.mu.
func (o *Orchestrator) deferSettlement() *time.Timer {
	return time.AfterFunc(o.cfg.SettlementDelay, func() {
		_ = o.guard.Protect("settle_checkout", func() error {
			o.settleCheckout(context.Background())
			return nil
		})
	})
}

// settleCheckout finishes a checkout: assign an order id, clear the
// cart, announce the confirmation, end the session on screen.
func (o *Orchestrator) settleCheckout(ctx context.Context) {
	o.mu.Lock()
	if !o.settling {
		o.mu.Unlock()
		return
	}
	o.settling = false
	o.settle = nil
	o.mu.Unlock()

	orderID := id.NewOrderID()
	total := o.cart.Total()
	o.cart.Clear(ctx)

	result := types.CheckoutResult{OrderID: orderID.String(), Total: total}
	o.bus.PublishUI(types.UIEvent{Type: types.UIProcessCheckout, Checkout: &result})
	o.bus.PublishUI(types.UIEvent{Type: types.UIEndSession})

	o.speech.Enqueue(fmt.Sprintf("Your order %s is confirmed. The total was $%.2f. Thank you!", orderID.Spoken(), total), speech.Options{})
	if o.cfg.OnCheckout != nil {
		o.cfg.OnCheckout("settled")
	}
	o.logger.Info("checkout settled",
		zap.String("order_id", orderID.String()),
		zap.Float64("total", total),
	)
}

// CancelSettlement aborts a pending settlement, if any. Used when the
// session is torn down mid-checkout.
func (o *Orchestrator) CancelSettlement() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.settle != nil {
		o.settle.Stop()
		o.settle = nil
	}
	o.settling = false
}

// SettlementPending reports whether a checkout is awaiting settlement.
func (o *Orchestrator) SettlementPending() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.settling
}

func (o *Orchestrator) handleHelp(_ context.Context, _ *types.IntentResult) {
	o.speech.Enqueue("You can say things like show me the menu, I'd like a cheeseburger, what's in my cart, or checkout.", speech.Options{})
}

func (o *Orchestrator) handleGreeting(_ context.Context, _ *types.IntentResult) {
	o.speech.Enqueue(greetings[o.cfg.RandInt(len(greetings))], speech.Options{})
}

// findItem fuzzy-matches a spoken name against the catalog: the match
// succeeds when either normalized name contains the other. Catalog
// insertion order decides ties; first match wins.
func (o *Orchestrator) findItem(name string) (types.MenuItem, bool) {
	target := strings.ToLower(strings.TrimSpace(name))
	if target == "" {
		return types.MenuItem{}, false
	}

	o.mu.Lock()
	if o.itemIndex == nil {
		items := o.catalog.Items()
		o.itemIndex = make([]indexedItem, len(items))
		for i, item := range items {
			o.itemIndex[i] = indexedItem{norm: strings.ToLower(item.Name), item: item}
		}
	}
	index := o.itemIndex
	o.mu.Unlock()

	for _, entry := range index {
		if strings.Contains(entry.norm, target) || strings.Contains(target, entry.norm) {
			return entry.item, true
		}
	}
	return types.MenuItem{}, false
}
