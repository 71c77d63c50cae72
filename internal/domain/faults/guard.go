package faults

import (
	"fmt"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/VoxKiosk/OrderOS/backend/internal/infrastructure/logging"
)

// Guard wraps fallible work with panic containment. A contained panic is
// recorded in the fault log and handed to the recovery hook so the session
// can be reset instead of crashing the process.
type Guard struct {
	log       *Log
	logger    *logging.Logger
	onRecover func(origin string)
	state     func() string
	onFault   func(kind string)
}

// GuardConfig wires a Guard.
type GuardConfig struct {
	// OnRecover is called after a panic is contained, with the name of
	// the operation that failed. It should restore a usable session
	// state. May be nil.
	OnRecover func(origin string)
	// State, when set, captures a short state description stored with
	// each fault entry.
	State func() string
	// OnFault reports contained faults by kind, for metrics. May be nil.
	OnFault func(kind string)
}

// NewGuard creates a Guard recording into log.
func NewGuard(log *Log, cfg GuardConfig, logger *logging.Logger) *Guard {
	return &Guard{
		log:       log,
		logger:    logger.Component("faults"),
		onRecover: cfg.OnRecover,
		state:     cfg.State,
		onFault:   cfg.OnFault,
	}
}

// Protect runs fn, containing any panic. It returns fn's error, or a
// recovered-panic error when fn panicked.
func (g *Guard) Protect(origin string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: recovered from panic: %v", origin, r)
			g.contain(origin, r)
		}
	}()
	return fn()
}

// Go runs fn on a new goroutine with the same containment as Protect.
func (g *Guard) Go(origin string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				g.contain(origin, r)
			}
		}()
		fn()
	}()
}

// Report records a non-panic fault (a failed dependency, a rejected
// input) without invoking recovery.
func (g *Guard) Report(kind, message string) {
	entry := Entry{Type: kind, Message: message}
	if g.state != nil {
		entry.State = g.state()
	}
	g.log.Record(entry)
	if g.onFault != nil {
		g.onFault(kind)
	}
}

func (g *Guard) contain(origin string, r any) {
	stack := string(debug.Stack())
	entry := Entry{
		Type:    "panic",
		Message: fmt.Sprintf("%s: %v", origin, r),
		Stack:   stack,
	}
	if g.state != nil {
		entry.State = g.state()
	}
	g.log.Record(entry)

	g.logger.Error("contained panic",
		zap.String("origin", origin),
		zap.Any("panic", r),
		zap.String("stack", stack),
	)
	if g.onFault != nil {
		g.onFault("panic")
	}
	if g.onRecover != nil {
		// Recovery itself must never re-panic the caller.
		func() {
			defer func() {
				if rr := recover(); rr != nil {
					g.logger.Error("recovery hook panicked", zap.Any("panic", rr))
				}
			}()
			g.onRecover(origin)
		}()
	}
}
