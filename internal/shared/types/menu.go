package types

// MenuItem is an immutable catalog entry. Cart lines reference items by ID
// and snapshot the price at add-time; they never mutate the item itself.
type MenuItem struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
}

// MenuCategory groups items under a named category, in catalog order.
type MenuCategory struct {
	Name  string     `json:"name"`
	Items []MenuItem `json:"items"`
}
