package types

import "time"

// CartLine is one row of the order: a distinct item with its quantity and
// the price snapshotted when it was first added.
type CartLine struct {
	ItemID        int      `json:"item_id"`
	Name          string   `json:"name"`
	Price         float64  `json:"price"`
	Quantity      int      `json:"quantity"`
	Modifications []string `json:"modifications,omitempty"`
}

// CartSnapshot is the persisted form of the cart. SavedAt drives the
// freshness check on hydration.
type CartSnapshot struct {
	Lines   []CartLine `json:"lines"`
	Total   float64    `json:"total"`
	SavedAt time.Time  `json:"saved_at"`
}

// CartViolation describes a validation failure without mutating the cart.
type CartViolation struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	ViolationEmptyCart   = "empty_cart"
	ViolationBadQuantity = "non_positive_quantity"
	ViolationBadPrice    = "non_positive_price"
)
