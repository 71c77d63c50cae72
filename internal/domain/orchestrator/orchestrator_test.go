package orchestrator

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VoxKiosk/OrderOS/backend/internal/domain/cart"
	"github.com/VoxKiosk/OrderOS/backend/internal/domain/catalog"
	"github.com/VoxKiosk/OrderOS/backend/internal/domain/faults"
	"github.com/VoxKiosk/OrderOS/backend/internal/domain/nlu"
	"github.com/VoxKiosk/OrderOS/backend/internal/domain/speech"
	"github.com/VoxKiosk/OrderOS/backend/internal/events"
	"github.com/VoxKiosk/OrderOS/backend/internal/infrastructure/logging"
	"github.com/VoxKiosk/OrderOS/backend/internal/shared/id"
	"github.com/VoxKiosk/OrderOS/backend/internal/shared/types"
	"github.com/VoxKiosk/OrderOS/backend/internal/storage"
)

// fakeSpeaker records enqueued utterances.
type fakeSpeaker struct {
	mu    sync.Mutex
	texts []string
}

func (f *fakeSpeaker) Enqueue(text string, _ speech.Options) {
	f.mu.Lock()
	f.texts = append(f.texts, text)
	f.mu.Unlock()
}

func (f *fakeSpeaker) all() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}

func (f *fakeSpeaker) last() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.texts) == 0 {
		return ""
	}
	return f.texts[len(f.texts)-1]
}

// fallbackClassifier adapts the rule matcher to the orchestrator's
// Classifier contract.
type fallbackClassifier struct{ f *nlu.Fallback }

func (c fallbackClassifier) Classify(_ context.Context, text string) *types.IntentResult {
	return c.f.Classify(text)
}

// blockingClassifier holds classification until released.
type blockingClassifier struct {
	started chan struct{}
	release chan struct{}
}

func (c *blockingClassifier) Classify(_ context.Context, _ string) *types.IntentResult {
	close(c.started)
	<-c.release
	return &types.IntentResult{Intent: types.IntentHelp, Confidence: 1.0}
}

// panicClassifier blows up the pipeline.
type panicClassifier struct{}

func (panicClassifier) Classify(_ context.Context, _ string) *types.IntentResult {
	panic("classifier exploded")
}

type fixture struct {
	orch    *Orchestrator
	speaker *fakeSpeaker
	cart    *cart.Cart
	bus     *events.Bus
	log     *faults.Log
	catalog catalog.Provider
}

func newFixture(t *testing.T, classifier Classifier, cfg Config) *fixture {
	t.Helper()
	logger := logging.NewNop()
	cat := catalog.Load("", logger)
	crt := cart.New(storage.NewMemory(), 24*time.Hour, logger)
	speaker := &fakeSpeaker{}
	bus := events.NewBus(logger)
	faultLog := faults.NewLog()

	if classifier == nil {
		classifier = fallbackClassifier{f: nlu.NewFallback()}
	}
	if cfg.SettlementDelay == 0 {
		cfg.SettlementDelay = 10 * time.Millisecond
	}
	if cfg.RandInt == nil {
		cfg.RandInt = func(int) int { return 0 }
	}

	orch := New(Deps{
		Catalog:    cat,
		Cart:       crt,
		Classifier: classifier,
		Speech:     speaker,
		Bus:        bus,
		FaultLog:   faultLog,
		Logger:     logger,
	}, cfg)

	return &fixture{orch: orch, speaker: speaker, cart: crt, bus: bus, log: faultLog, catalog: cat}
}

func (fx *fixture) utter(text string) {
	fx.orch.ProcessUtterance(context.Background(), types.Utterance{
		Text: text, Confidence: 0.95, Source: "frontend", Timestamp: time.Now(),
	})
}

func TestBrowseMenuShowsCategory(t *testing.T) {
	fx := newFixture(t, nil, Config{})

	var shown []types.UIEvent
	fx.bus.SubscribeUI(func(ev types.UIEvent) { shown = append(shown, ev) })

	fx.utter("show me the appetizers")

	state := fx.orch.State()
	assert.Equal(t, types.ViewItems, state.View)
	assert.Equal(t, "Appetizers", state.CurrentCategory)

	require.NotEmpty(t, shown)
	assert.Equal(t, types.UIShowCategory, shown[0].Type)
	require.NotNil(t, shown[0].Category)
	assert.Equal(t, "Appetizers", shown[0].Category.Name)
	assert.Contains(t, fx.speaker.last(), "appetizers")
}

func TestBrowseMenuWithoutCategoryShowsAll(t *testing.T) {
	fx := newFixture(t, nil, Config{})

	var shown []types.UIEvent
	fx.bus.SubscribeUI(func(ev types.UIEvent) { shown = append(shown, ev) })

	fx.utter("show me the menu")

	assert.Equal(t, types.ViewCategories, fx.orch.State().View)
	require.NotEmpty(t, shown)
	assert.Equal(t, types.UIShowCategories, shown[0].Type)
	assert.NotEmpty(t, shown[0].Categories)
}

func TestAddItemFuzzyMatch(t *testing.T) {
	fx := newFixture(t, nil, Config{})

	fx.utter("I'll have the salmon")

	assert.Equal(t, 1, fx.cart.ItemCount())
	lines := fx.cart.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "Grilled Salmon", lines[0].Name)
	assert.Contains(t, fx.speaker.last(), "Grilled Salmon")
}

func TestAddItemNotFound(t *testing.T) {
	fx := newFixture(t, nil, Config{})

	fx.utter("I'd like a flux capacitor")

	assert.Equal(t, 0, fx.cart.ItemCount())
	assert.Contains(t, fx.speaker.last(), "couldn't find")
}

func TestViewCartSummary(t *testing.T) {
	fx := newFixture(t, nil, Config{})

	fx.utter("what's in my cart")
	assert.Contains(t, fx.speaker.last(), "empty")

	item, ok := fx.catalog.Item(11)
	require.True(t, ok)
	fx.cart.Add(context.Background(), item, 2)

	fx.utter("what's in my cart")
	assert.Equal(t, types.ViewCart, fx.orch.State().View)
	assert.Contains(t, fx.speaker.last(), "2 items")
}

func TestCheckoutEmptyCartRejected(t *testing.T) {
	fx := newFixture(t, nil, Config{})

	fx.utter("I want to checkout")

	assert.Contains(t, fx.speaker.last(), "empty")
	assert.False(t, fx.orch.SettlementPending())
	assert.Equal(t, 0, fx.cart.ItemCount())
}

func TestCheckoutSettlesAndClearsCart(t *testing.T) {
	fx := newFixture(t, nil, Config{SettlementDelay: 50 * time.Millisecond})

	burger, ok := fx.catalog.Item(11)
	require.True(t, ok)
	fx.cart.Add(context.Background(), burger, 2)
	require.InDelta(t, 21.98, fx.cart.Total(), 0.001)

	settled := make(chan types.UIEvent, 4)
	fx.bus.SubscribeUI(func(ev types.UIEvent) {
		if ev.Type == types.UIProcessCheckout && ev.Checkout != nil {
			settled <- ev
		}
	})

	fx.utter("I want to checkout")
	require.True(t, fx.orch.SettlementPending())
	assert.Equal(t, 2, fx.cart.ItemCount(), "cart untouched until settlement")

	var ev types.UIEvent
	select {
	case ev = <-settled:
		assert.InDelta(t, 21.98, ev.Checkout.Total, 0.001)
		assert.True(t, strings.HasPrefix(ev.Checkout.OrderID, "ord_"))
	case <-time.After(time.Second):
		t.Fatal("settlement never fired")
	}

	// Voice confirmation carries a speakable order reference and the total.
	ref := id.OrderID(ev.Checkout.OrderID).Spoken()
	assert.Eventually(t, func() bool {
		texts := fx.speaker.all()
		if len(texts) == 0 {
			return false
		}
		last := texts[len(texts)-1]
		return strings.Contains(last, ref) && strings.Contains(last, "$21.98")
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, 0, fx.cart.ItemCount())
	assert.False(t, fx.orch.SettlementPending())
}

func TestCheckoutReentryRejectedWhilePending(t *testing.T) {
	fx := newFixture(t, nil, Config{SettlementDelay: time.Hour})

	item, ok := fx.catalog.Item(11)
	require.True(t, ok)
	fx.cart.Add(context.Background(), item, 1)

	fx.utter("checkout please")
	require.True(t, fx.orch.SettlementPending())

	fx.utter("checkout please")
	assert.Contains(t, fx.speaker.last(), "already being processed")

	fx.orch.CancelSettlement()
	assert.False(t, fx.orch.SettlementPending())
	assert.Equal(t, 1, fx.cart.ItemCount(), "cancelled settlement leaves cart intact")
}

func TestProcessUtteranceGuardDropsOverlap(t *testing.T) {
	blocker := &blockingClassifier{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	var dropped atomic.Int32
	fx := newFixture(t, blocker, Config{OnDrop: func() { dropped.Add(1) }})

	go fx.utter("first utterance")
	<-blocker.started
	require.True(t, fx.orch.State().Processing)

	// Arrives mid-pipeline; must be dropped without a second classification.
	fx.utter("second utterance")

	close(blocker.release)
	assert.Eventually(t, func() bool {
		return !fx.orch.State().Processing
	}, time.Second, 5*time.Millisecond)

	texts := fx.speaker.all()
	assert.Len(t, texts, 1)
	assert.Equal(t, int32(1), dropped.Load())
}

func TestStartListeningNoOpWhileProcessing(t *testing.T) {
	blocker := &blockingClassifier{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	fx := newFixture(t, blocker, Config{})

	go fx.utter("hello there")
	<-blocker.started

	require.NoError(t, fx.orch.StartListening())
	assert.False(t, fx.orch.State().Listening)

	close(blocker.release)
}

func TestPanicInPipelineIsContained(t *testing.T) {
	fx := newFixture(t, panicClassifier{}, Config{})

	require.NoError(t, fx.orch.StartListening())
	fx.utter("anything")

	state := fx.orch.State()
	assert.False(t, state.Processing)
	assert.False(t, state.Listening)

	entries := fx.log.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "panic", entries[0].Type)
	assert.Contains(t, entries[0].Message, "classifier exploded")

	assert.Contains(t, fx.speaker.last(), "Sorry")
}

func TestUnknownIntentSpeaksFallback(t *testing.T) {
	fx := newFixture(t, nil, Config{})

	fx.utter("asdkjasd")

	assert.Contains(t, fx.speaker.last(), "not sure")
	assert.Equal(t, 0, fx.cart.ItemCount())
}

func TestGreetingPicksFromFixedList(t *testing.T) {
	fx := newFixture(t, nil, Config{RandInt: func(n int) int { return n - 1 }})

	fx.utter("hello")

	assert.Equal(t, greetings[len(greetings)-1], fx.speaker.last())
}

func TestHandleTouchBypassesClassifier(t *testing.T) {
	fx := newFixture(t, panicClassifier{}, Config{})

	fx.orch.HandleTouch(context.Background(), types.IntentBrowseMenu, map[string]string{
		types.EntityCategory: "desserts",
	})

	state := fx.orch.State()
	assert.Equal(t, types.ViewItems, state.View)
	assert.Equal(t, "Desserts", state.CurrentCategory)
	assert.Empty(t, fx.log.Entries(), "classifier must not run on touch input")
}

func TestSetMode(t *testing.T) {
	fx := newFixture(t, nil, Config{})

	fx.orch.SetMode(types.ModeVoice)
	assert.Equal(t, types.ModeVoice, fx.orch.State().Mode)

	fx.orch.SetMode(types.ModeTouch)
	assert.Equal(t, types.ModeTouch, fx.orch.State().Mode)
}
