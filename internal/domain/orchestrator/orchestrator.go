package orchestrator

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/VoxKiosk/OrderOS/backend/internal/domain/cart"
	"github.com/VoxKiosk/OrderOS/backend/internal/domain/catalog"
	"github.com/VoxKiosk/OrderOS/backend/internal/domain/faults"
	"github.com/VoxKiosk/OrderOS/backend/internal/domain/speech"
	"github.com/VoxKiosk/OrderOS/backend/internal/events"
	"github.com/VoxKiosk/OrderOS/backend/internal/infrastructure/logging"
	"github.com/VoxKiosk/OrderOS/backend/internal/shared/types"
)

// Speaker enqueues spoken output.
type Speaker interface {
	Enqueue(text string, opts speech.Options)
}

// Classifier maps an utterance to an intent.
type Classifier interface {
	Classify(ctx context.Context, text string) *types.IntentResult
}

// Capture controls the speech-capture collaborator. Optional; a nil
// Capture means the host process owns the microphone.
type Capture interface {
	Start() error
	Stop() error
}

// Config tunes orchestrator timing and randomness.
type Config struct {
	// SettlementDelay is the simulated wait between checkout submission
	// and order confirmation.
	SettlementDelay time.Duration
	// RandInt picks greetings; defaults to math/rand. Injectable for
	// deterministic tests.
	RandInt func(n int) int
	// OnFault reports contained faults by kind, for metrics. May be nil.
	OnFault func(kind string)
	// OnDrop reports utterances rejected by the overlap guard, for
	// metrics. May be nil.
	OnDrop func()
	// OnCheckout reports checkout outcomes ("settled", "rejected"),
	// for metrics. May be nil.
	OnCheckout func(outcome string)
}

// Deps are the orchestrator's collaborators.
type Deps struct {
	Catalog    catalog.Provider
	Cart       *cart.Cart
	Classifier Classifier
	Speech     Speaker
	Bus        *events.Bus
	Capture    Capture
	FaultLog   *faults.Log
	Logger     *logging.Logger
}

// Orchestrator is the interaction state machine. All session mutation
// funnels through its methods.
type Orchestrator struct {
	mu       sync.Mutex
	state    types.OrchState
	settling bool
	settle   *time.Timer

	// itemIndex memoizes normalized catalog item names for the fuzzy
	// match. Rebuilt lazily; dropped on fault recovery.
	itemIndex []indexedItem

	catalog    catalog.Provider
	cart       *cart.Cart
	classifier Classifier
	speech     Speaker
	bus        *events.Bus
	capture    Capture
	guard      *faults.Guard
	logger     *logging.Logger
	cfg        Config

	handlers map[types.Intent]handler
}

type handler func(ctx context.Context, result *types.IntentResult)

type indexedItem struct {
	norm string
	item types.MenuItem
}

// New creates an orchestrator. The fault guard is built here so its
// recovery hook can reset this orchestrator's state.
func New(deps Deps, cfg Config) *Orchestrator {
	if cfg.SettlementDelay <= 0 {
		cfg.SettlementDelay = 3 * time.Second
	}
	if cfg.RandInt == nil {
		cfg.RandInt = rand.IntN
	}
	o := &Orchestrator{
		state: types.OrchState{
			Mode: types.ModeTouch,
			View: types.ViewCategories,
		},
		catalog:    deps.Catalog,
		cart:       deps.Cart,
		classifier: deps.Classifier,
		speech:     deps.Speech,
		bus:        deps.Bus,
		capture:    deps.Capture,
		logger:     deps.Logger.Component("orchestrator"),
		cfg:        cfg,
	}
	o.guard = faults.NewGuard(deps.FaultLog, faults.GuardConfig{
		OnRecover: o.recoverFromFault,
		State:     o.stateDescription,
		OnFault:   cfg.OnFault,
	}, deps.Logger)
	o.handlers = map[types.Intent]handler{
		types.IntentBrowseMenu: o.handleBrowseMenu,
		types.IntentAddItem:    o.handleAddItem,
		types.IntentViewCart:   o.handleViewCart,
		types.IntentCheckout:   o.handleCheckout,
		types.IntentHelp:       o.handleHelp,
		types.IntentGreeting:   o.handleGreeting,
	}
	return o
}

// State returns a snapshot of the session state.
func (o *Orchestrator) State() types.OrchState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Faults exposes the guard for collaborators that record non-panic
// faults (the IPC bridge, the speech poller).
func (o *Orchestrator) Faults() *faults.Guard {
	return o.guard
}

// SetMode switches the active input surface. Unconditional; in-flight
// work is unaffected.
func (o *Orchestrator) SetMode(m types.Mode) {
	o.mu.Lock()
	o.state.Mode = m
	o.mu.Unlock()
	o.logger.Info("mode changed", zap.String("mode", string(m)))
}

// StartListening opens a voice capture session. No-op while a
// classification pipeline is in flight. A capture failure resets the
// listening flag and is returned to the caller after user feedback.
func (o *Orchestrator) StartListening() error {
	o.mu.Lock()
	if o.state.Processing {
		o.mu.Unlock()
		return nil
	}
	o.state.Listening = true
	o.mu.Unlock()

	o.bus.PublishUI(types.UIEvent{Type: types.UIListening, Active: true})

	if o.capture != nil {
		if err := o.capture.Start(); err != nil {
			o.mu.Lock()
			o.state.Listening = false
			o.mu.Unlock()
			o.bus.PublishUI(types.UIEvent{Type: types.UIListening, Active: false})
			o.speech.Enqueue("I'm having trouble hearing you. Please use the touch screen.", speech.Options{})
			o.guard.Report("capture_failure", err.Error())
			return err
		}
	}
	return nil
}

// StopListening closes the capture session. The listening flag is
// cleared even when the underlying stop call fails.
func (o *Orchestrator) StopListening() {
	o.mu.Lock()
	o.state.Listening = false
	o.mu.Unlock()

	o.bus.PublishUI(types.UIEvent{Type: types.UIListening, Active: false})

	if o.capture != nil {
		if err := o.capture.Stop(); err != nil {
			o.logger.Warn("capture stop failed", zap.Error(err))
		}
	}
}

// ProcessUtterance runs one classification pipeline. A second utterance
// arriving while one is in flight is dropped. Panics anywhere in the
// pipeline are contained by the fault guard.
func (o *Orchestrator) ProcessUtterance(ctx context.Context, utt types.Utterance) {
	o.mu.Lock()
	if o.state.Processing {
		o.mu.Unlock()
		o.logger.Debug("utterance dropped, pipeline busy", zap.String("text", utt.Text))
		if o.cfg.OnDrop != nil {
			o.cfg.OnDrop()
		}
		return
	}
	o.state.Processing = true
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.state.Processing = false
		o.mu.Unlock()
	}()

	err := o.guard.Protect("process_utterance", func() error {
		o.logger.Info("processing utterance",
			zap.String("text", utt.Text),
			zap.Float64("confidence", utt.Confidence),
		)

		result := o.classifier.Classify(ctx, utt.Text)
		if result == nil || result.Intent == "" {
			o.speech.Enqueue("I didn't catch that. Could you try again?", speech.Options{})
			return nil
		}
		o.dispatch(ctx, result)
		return nil
	})
	if err != nil {
		// The guard already reset state and apologized; nothing to
		// propagate past this boundary.
		o.logger.Warn("utterance pipeline recovered", zap.Error(err))
	}
}

// HandleTouch dispatches a touch action through the intent handler
// table with a synthetic, full-confidence result.
func (o *Orchestrator) HandleTouch(ctx context.Context, intent types.Intent, entities map[string]string) {
	_ = o.guard.Protect("handle_touch", func() error {
		o.dispatch(ctx, &types.IntentResult{
			Intent:     intent,
			Entities:   entities,
			Confidence: 1.0,
		})
		return nil
	})
}

// dispatch routes a resolved intent to its handler. Unknown intents get
// the generic fallback response.
func (o *Orchestrator) dispatch(ctx context.Context, result *types.IntentResult) {
	h, ok := o.handlers[result.Intent]
	if !ok {
		o.speech.Enqueue("I'm not sure how to help with that. You can browse the menu, add items, or check out.", speech.Options{})
		return
	}
	h(ctx, result)
}

// recoverFromFault restores a usable session after a contained panic:
// transient flags cleared, overlays removed, lookup caches dropped, and
// an apology spoken.
func (o *Orchestrator) recoverFromFault(origin string) {
	o.mu.Lock()
	o.state.Listening = false
	o.state.Processing = false
	o.itemIndex = nil
	o.mu.Unlock()

	o.bus.PublishUI(types.UIEvent{Type: types.UIListening, Active: false})
	o.bus.PublishUI(types.UIEvent{Type: types.UIFeedback, Active: false})
	o.speech.Enqueue("Sorry, something went wrong on my end. Let's try that again.", speech.Options{})

	o.logger.Info("session recovered", zap.String("origin", origin))
}

// stateDescription summarizes the session for fault log entries.
func (o *Orchestrator) stateDescription() string {
	s := o.State()
	var b strings.Builder
	b.WriteString("mode=")
	b.WriteString(string(s.Mode))
	b.WriteString(" view=")
	b.WriteString(string(s.View))
	if s.CurrentCategory != "" {
		b.WriteString(" category=")
		b.WriteString(s.CurrentCategory)
	}
	if s.Listening {
		b.WriteString(" listening")
	}
	if s.Processing {
		b.WriteString(" processing")
	}
	return b.String()
}
