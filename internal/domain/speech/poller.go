package speech

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/VoxKiosk/OrderOS/backend/internal/events"
	"github.com/VoxKiosk/OrderOS/backend/internal/infrastructure/logging"
	"github.com/VoxKiosk/OrderOS/backend/internal/shared/types"
)

// HealthChecker probes the speech service.
type HealthChecker interface {
	Health(ctx context.Context) types.StatusEvent
}

// Poller watches speech-service health and publishes a status event
// whenever the overall signal changes.
type Poller struct {
	checker  HealthChecker
	bus      *events.Bus
	interval time.Duration
	logger   *logging.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewPoller creates a health poller. interval <= 0 defaults to 15s.
func NewPoller(checker HealthChecker, bus *events.Bus, interval time.Duration, logger *logging.Logger) *Poller {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Poller{
		checker:  checker,
		bus:      bus,
		interval: interval,
		logger:   logger.Component("speech.health"),
		done:     make(chan struct{}),
	}
}

// Start begins polling. The first probe runs immediately so the UI gets a
// status without waiting a full interval.
func (p *Poller) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	go p.run(ctx)
}

// Stop halts polling and waits for the loop to exit.
func (p *Poller) Stop() {
	if p.cancel != nil {
		p.cancel()
		<-p.done
	}
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.done)

	last := p.probe(ctx, "")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			last = p.probe(ctx, last)
		}
	}
}

// probe checks health once and publishes on change. Returns the new
// overall signal.
func (p *Poller) probe(ctx context.Context, last types.Health) types.Health {
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	ev := p.checker.Health(probeCtx)
	if ev.Overall != last {
		p.logger.Info("speech service health changed",
			zap.String("from", string(last)),
			zap.String("to", string(ev.Overall)),
		)
		p.bus.PublishStatus(ev)
	}
	return ev.Overall
}
