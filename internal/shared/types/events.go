package types

import "time"

// UIEventType enumerates the closed set of UI-update variants.
type UIEventType string

const (
	UIShowCategories  UIEventType = "show-categories"
	UIShowCategory    UIEventType = "show-category"
	UIShowCart        UIEventType = "show-cart"
	UIProcessCheckout UIEventType = "process-checkout"
	UIEndSession      UIEventType = "end-session"
	UIFeedback        UIEventType = "feedback"
	UIListening       UIEventType = "listening"
	UITalking         UIEventType = "talking"
)

// UIEvent is one UI-update event consumed by the presentation layer.
// Exactly one of the payload fields is set, keyed by Type.
type UIEvent struct {
	Type       UIEventType     `json:"type"`
	Categories []string        `json:"categories,omitempty"`
	Category   *MenuCategory   `json:"category,omitempty"`
	Cart       *CartSnapshot   `json:"cart,omitempty"`
	Checkout   *CheckoutResult `json:"checkout,omitempty"`
	Text       string          `json:"text,omitempty"`
	Active     bool            `json:"active,omitempty"`
}

// CheckoutResult carries the outcome of a settled checkout.
type CheckoutResult struct {
	OrderID string  `json:"order_id"`
	Total   float64 `json:"total"`
}

// Health is the overall speech-service health signal.
type Health string

const (
	HealthHealthy  Health = "healthy"
	HealthDegraded Health = "degraded"
	HealthDown     Health = "down"
)

// StatusEvent reports speech-service health: healthy when both sub-services
// are up, degraded when one is down, down when both are.
type StatusEvent struct {
	Overall   Health          `json:"overall"`
	Services  map[string]bool `json:"services,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}
