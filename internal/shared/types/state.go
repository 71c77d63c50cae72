package types

// Mode is the active input surface.
type Mode string

const (
	ModeVoice Mode = "voice"
	ModeTouch Mode = "touch"
)

// View is the active display surface.
type View string

const (
	ViewCategories View = "categories"
	ViewItems      View = "items"
	ViewCart       View = "cart"
)

// OrchState is a point-in-time snapshot of the orchestrator. The orchestrator
// owns the live state; everyone else sees copies of this struct.
type OrchState struct {
	Mode            Mode   `json:"mode"`
	View            View   `json:"view"`
	CurrentCategory string `json:"current_category,omitempty"`
	Listening       bool   `json:"listening"`
	Processing      bool   `json:"processing"`
}
