// Package events provides the typed event channel between the orchestration
// core and the presentation layer.
//
// UI updates and speech-service status are a closed set of variants
// (types.UIEvent, types.StatusEvent) dispatched to registered handlers.
// A misbehaving handler never takes down a publisher.
package events

import (
	"sync"

	"go.uber.org/zap"

	"github.com/VoxKiosk/OrderOS/backend/internal/infrastructure/logging"
	"github.com/VoxKiosk/OrderOS/backend/internal/shared/types"
)

// UIHandler consumes UI-update events.
type UIHandler func(types.UIEvent)

// StatusHandler consumes speech-service status events.
type StatusHandler func(types.StatusEvent)

// Bus fans events out to registered handlers. Dispatch is synchronous;
// handler panics are contained and logged.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	ui     map[int]UIHandler
	status map[int]StatusHandler
	logger *logging.Logger
}

// NewBus creates an event bus.
func NewBus(logger *logging.Logger) *Bus {
	return &Bus{
		ui:     make(map[int]UIHandler),
		status: make(map[int]StatusHandler),
		logger: logger.Component("events"),
	}
}

// SubscribeUI registers a UI-event handler and returns an unsubscribe func.
func (b *Bus) SubscribeUI(h UIHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.ui[id] = h
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.ui, id)
	}
}

// SubscribeStatus registers a status-event handler and returns an
// unsubscribe func.
func (b *Bus) SubscribeStatus(h StatusHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.status[id] = h
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.status, id)
	}
}

// PublishUI delivers a UI event to every registered handler.
func (b *Bus) PublishUI(ev types.UIEvent) {
	b.mu.RLock()
	handlers := make([]UIHandler, 0, len(b.ui))
	for _, h := range b.ui {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		b.dispatch(func() { h(ev) }, string(ev.Type))
	}
}

// PublishStatus delivers a status event to every registered handler.
func (b *Bus) PublishStatus(ev types.StatusEvent) {
	b.mu.RLock()
	handlers := make([]StatusHandler, 0, len(b.status))
	for _, h := range b.status {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		b.dispatch(func() { h(ev) }, "status")
	}
}

// dispatch runs one handler, containing panics.
func (b *Bus) dispatch(fn func(), event string) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				zap.String("event", event),
				zap.Any("panic", r),
			)
		}
	}()
	fn()
}
