package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/VoxKiosk/OrderOS/backend/internal/domain/cart"
	"github.com/VoxKiosk/OrderOS/backend/internal/domain/catalog"
	"github.com/VoxKiosk/OrderOS/backend/internal/domain/faults"
	"github.com/VoxKiosk/OrderOS/backend/internal/domain/orchestrator"
	"github.com/VoxKiosk/OrderOS/backend/internal/infrastructure/logging"
	"github.com/VoxKiosk/OrderOS/backend/internal/infrastructure/monitoring"
	"github.com/VoxKiosk/OrderOS/backend/internal/shared/types"
)

// Handlers contains the REST handlers.
type Handlers struct {
	orch     *orchestrator.Orchestrator
	cart     *cart.Cart
	catalog  catalog.Provider
	faultLog *faults.Log
	metrics  *monitoring.Metrics
	voices   func(ctx context.Context) ([]string, error)
	logger   *logging.Logger
}

// NewHandlers creates the handler set. voices may be nil when no speech
// service is configured.
func NewHandlers(
	orch *orchestrator.Orchestrator,
	crt *cart.Cart,
	cat catalog.Provider,
	faultLog *faults.Log,
	metrics *monitoring.Metrics,
	voices func(ctx context.Context) ([]string, error),
	logger *logging.Logger,
) *Handlers {
	return &Handlers{
		orch:     orch,
		cart:     crt,
		catalog:  cat,
		faultLog: faultLog,
		metrics:  metrics,
		voices:   voices,
		logger:   logger.Component("http"),
	}
}

// Root handles the liveness check.
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "OrderOS Kiosk Backend",
		"version": "0.2.0",
	})
}

// Health reports backend health plus the current session state.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"state":  h.orch.State(),
		"cart": gin.H{
			"items": h.cart.ItemCount(),
			"total": h.cart.Total(),
		},
	})
}

// State returns the orchestration state snapshot.
func (h *Handlers) State(c *gin.Context) {
	c.JSON(http.StatusOK, h.orch.State())
}

// Menu returns the full catalog.
func (h *Handlers) Menu(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": h.catalog.Menu()})
}

// Category returns one category by name.
func (h *Handlers) Category(c *gin.Context) {
	name := c.Param("name")
	cat, ok := h.catalog.Category(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "category not found"})
		return
	}
	c.JSON(http.StatusOK, cat)
}

// Cart returns the current cart snapshot.
func (h *Handlers) Cart(c *gin.Context) {
	c.JSON(http.StatusOK, h.cart.Snapshot())
}

type addItemRequest struct {
	ItemID   int `json:"item_id" binding:"required"`
	Quantity int `json:"quantity"`
}

// AddCartItem adds a catalog item to the cart (touch path).
func (h *Handlers) AddCartItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "item_id is required"})
		return
	}

	item, ok := h.catalog.Item(req.ItemID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
		return
	}

	qty := req.Quantity
	if qty <= 0 {
		qty = 1
	}
	h.cart.Add(c.Request.Context(), item, qty)
	h.metrics.RecordCartMutation(h.cart.ItemCount())

	c.JSON(http.StatusOK, h.cart.Snapshot())
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// SetCartQuantity updates a line's quantity; zero removes the line.
func (h *Handlers) SetCartQuantity(c *gin.Context) {
	itemID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
		return
	}

	var req setQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quantity is required"})
		return
	}

	if !h.cart.SetQuantity(c.Request.Context(), itemID, req.Quantity) {
		c.JSON(http.StatusNotFound, gin.H{"error": "item not in cart"})
		return
	}
	h.metrics.RecordCartMutation(h.cart.ItemCount())

	c.JSON(http.StatusOK, h.cart.Snapshot())
}

// RemoveCartItem removes one line from the cart.
func (h *Handlers) RemoveCartItem(c *gin.Context) {
	itemID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
		return
	}

	if !h.cart.Remove(c.Request.Context(), itemID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "item not in cart"})
		return
	}
	h.metrics.RecordCartMutation(h.cart.ItemCount())

	c.JSON(http.StatusOK, h.cart.Snapshot())
}

// ClearCart empties the cart.
func (h *Handlers) ClearCart(c *gin.Context) {
	h.cart.Clear(c.Request.Context())
	h.metrics.RecordCartMutation(0)
	c.JSON(http.StatusOK, h.cart.Snapshot())
}

// Checkout starts checkout through the touch path. The confirmation
// arrives over the bridge after the settlement delay.
func (h *Handlers) Checkout(c *gin.Context) {
	if h.orch.SettlementPending() {
		c.JSON(http.StatusConflict, gin.H{"error": "an order is already being processed"})
		return
	}
	if h.cart.ItemCount() == 0 {
		h.metrics.RecordCheckout("rejected")
		c.JSON(http.StatusBadRequest, gin.H{"error": "cart is empty"})
		return
	}

	h.orch.HandleTouch(c.Request.Context(), types.IntentCheckout, nil)
	h.metrics.RecordCheckout("pending")

	c.JSON(http.StatusAccepted, gin.H{
		"status": "processing",
		"total":  h.cart.Total(),
	})
}

// Utterance feeds a recognized text through the classification pipeline.
// Primarily a debugging surface; production input arrives over the bridge.
func (h *Handlers) Utterance(c *gin.Context) {
	var utt types.Utterance
	if err := c.ShouldBindJSON(&utt); err != nil || utt.Text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}
	if utt.Source == "" {
		utt.Source = "frontend"
	}

	// The pipeline outlives the 202; net/http cancels the request context
	// the moment the handler returns.
	go h.orch.ProcessUtterance(context.WithoutCancel(c.Request.Context()), utt)
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

// Voices lists the speech voices available for synthesis.
func (h *Handlers) Voices(c *gin.Context) {
	if h.voices == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "speech service not configured"})
		return
	}
	voices, err := h.voices(c.Request.Context())
	if err != nil {
		h.logger.Warn("voice listing failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "speech service unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"voices": voices})
}

// Diagnostics returns the fault log and a metrics snapshot for operators.
func (h *Handlers) Diagnostics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"state":   h.orch.State(),
		"faults":  h.faultLog.Entries(),
		"metrics": h.metrics.GetSnapshot(),
	})
}
