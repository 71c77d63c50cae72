package types

import "time"

// Intent identifies a classified user goal
type Intent string

const (
	IntentBrowseMenu Intent = "browse_menu"
	IntentAddItem    Intent = "add_item"
	IntentViewCart   Intent = "view_cart"
	IntentCheckout   Intent = "checkout"
	IntentHelp       Intent = "help"
	IntentGreeting   Intent = "greeting"
	IntentUnknown    Intent = "unknown"
)

// Entity keys extracted alongside an intent
const (
	EntityCategory = "category"
	EntityItemName = "item_name"
)

// Utterance is one unit of recognized speech text submitted for classification.
// Transient: created per speech event, consumed once.
type Utterance struct {
	Text       string    `json:"text"`
	Confidence float64   `json:"confidence"`
	Source     string    `json:"source"`
	Timestamp  time.Time `json:"timestamp"`
}

// IntentResult is produced by the classifier and consumed exactly once
// by the orchestrator.
type IntentResult struct {
	Intent       Intent            `json:"intent"`
	Entities     map[string]string `json:"entities"`
	Confidence   float64           `json:"confidence"`
	ResponseText string            `json:"response_text,omitempty"`
}

// Entity returns the named entity or "" when absent.
func (r *IntentResult) Entity(key string) string {
	if r == nil || r.Entities == nil {
		return ""
	}
	return r.Entities[key]
}
