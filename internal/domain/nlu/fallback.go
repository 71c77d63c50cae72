package nlu

import (
	"strings"

	"github.com/VoxKiosk/OrderOS/backend/internal/shared/types"
)

// fallbackConfidence is fixed: the local matcher has no real calibration.
const fallbackConfidence = 0.8

// rule pairs a predicate with an intent producer. Rules are evaluated in
// priority order; the first match wins.
type rule struct {
	name    string
	match   func(text string) bool
	produce func(text string) *types.IntentResult
}

// Fallback is the deterministic local intent matcher.
type Fallback struct {
	rules []rule
}

var (
	browseTerms   = []string{"menu", "show me", "browse", "what do you have", "what's available", "see the"}
	addTerms      = []string{"add", "i want", "i'd like", "i would like", "i'll have", "i will have", "order", "get me", "give me"}
	cartTerms     = []string{"cart", "basket", "what do i have", "total"}
	checkoutTerms = []string{"checkout", "check out", "pay", "i'm done", "that's all", "finish", "complete my order"}
	helpTerms     = []string{"help", "what can you do", "how does this work", "how do i"}
	greetingTerms = []string{"hello", "hi", "hey", "good morning", "good afternoon", "good evening"}
)

// categoryTerms maps spoken category keywords to the canonical category
// entity value.
var categoryTerms = []struct {
	keyword  string
	category string
}{
	{"appetizer", "appetizers"},
	{"starter", "appetizers"},
	{"main", "mains"},
	{"entree", "mains"},
	{"drink", "drinks"},
	{"beverage", "drinks"},
	{"dessert", "desserts"},
}

// NewFallback builds the rule cascade.
func NewFallback() *Fallback {
	f := &Fallback{}
	f.rules = []rule{
		{
			name: "browse_menu",
			// A category mention alone is a browse request even without
			// explicit menu phrasing ("show me the appetizers", "desserts").
			match: func(text string) bool {
				return containsAny(text, browseTerms) || matchCategory(text) != ""
			},
			produce: func(text string) *types.IntentResult {
				res := &types.IntentResult{
					Intent:     types.IntentBrowseMenu,
					Entities:   map[string]string{},
					Confidence: fallbackConfidence,
				}
				if cat := matchCategory(text); cat != "" {
					res.Entities[types.EntityCategory] = cat
				}
				return res
			},
		},
		{
			name: "add_item",
			// Add/order phrasing loses to checkout phrasing: "I want to
			// checkout" is a checkout, not an add.
			match: func(text string) bool {
				return containsAny(text, addTerms) && !containsAny(text, checkoutTerms)
			},
			produce: func(text string) *types.IntentResult {
				res := &types.IntentResult{
					Intent:     types.IntentAddItem,
					Entities:   map[string]string{},
					Confidence: fallbackConfidence,
				}
				if name := extractItemName(text); name != "" {
					res.Entities[types.EntityItemName] = name
				}
				return res
			},
		},
		{
			name:    "view_cart",
			match:   func(text string) bool { return containsAny(text, cartTerms) },
			produce: simpleIntent(types.IntentViewCart),
		},
		{
			name:    "checkout",
			match:   func(text string) bool { return containsAny(text, checkoutTerms) },
			produce: simpleIntent(types.IntentCheckout),
		},
		{
			name:    "help",
			match:   func(text string) bool { return containsAny(text, helpTerms) },
			produce: simpleIntent(types.IntentHelp),
		},
		{
			name:    "greeting",
			match:   func(text string) bool { return containsAny(text, greetingTerms) },
			produce: simpleIntent(types.IntentGreeting),
		},
	}
	return f
}

// Classify runs the rule cascade. No match produces the unknown intent.
func (f *Fallback) Classify(text string) *types.IntentResult {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, r := range f.rules {
		if r.match(lower) {
			return r.produce(lower)
		}
	}
	return &types.IntentResult{
		Intent:     types.IntentUnknown,
		Entities:   map[string]string{},
		Confidence: fallbackConfidence,
	}
}

func simpleIntent(intent types.Intent) func(string) *types.IntentResult {
	return func(string) *types.IntentResult {
		return &types.IntentResult{
			Intent:     intent,
			Entities:   map[string]string{},
			Confidence: fallbackConfidence,
		}
	}
}

func containsAny(text string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}

func matchCategory(text string) string {
	for _, c := range categoryTerms {
		if strings.Contains(text, c.keyword) {
			return c.category
		}
	}
	return ""
}

// extractItemName strips the add phrasing and filler words, leaving the
// part of the utterance most likely to name a menu item.
func extractItemName(text string) string {
	rest := text
	for _, term := range addTerms {
		if idx := strings.Index(rest, term); idx >= 0 {
			rest = rest[idx+len(term):]
			break
		}
	}
	rest = strings.TrimSpace(rest)
	for _, filler := range []string{"to order", "a ", "an ", "the ", "some ", "one "} {
		rest = strings.TrimSpace(strings.TrimPrefix(rest, filler))
	}
	return strings.TrimSuffix(rest, " please")
}
