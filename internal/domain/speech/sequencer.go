package speech

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/VoxKiosk/OrderOS/backend/internal/events"
	"github.com/VoxKiosk/OrderOS/backend/internal/infrastructure/logging"
	"github.com/VoxKiosk/OrderOS/backend/internal/shared/types"
)

// entry is one queued utterance.
type entry struct {
	text string
	opts Options
}

// SequencerConfig tunes sequencer timing.
type SequencerConfig struct {
	// SimulatedPerChar is the per-character wait used when no synthesizer
	// is available or synthesis fails before producing audio.
	SimulatedPerChar time.Duration
	// FeedbackHide is how long the spoken text stays visible after the
	// utterance finishes.
	FeedbackHide time.Duration
	// OnDepthChange reports queue depth transitions, for metrics. May be nil.
	OnDepthChange func(depth int)
}

// Sequencer serializes speech output. Producers enqueue from any
// goroutine; a single drain goroutine plays entries in enqueue order.
type Sequencer struct {
	mu       sync.Mutex
	queue    []entry
	draining bool
	active   bool

	synth  Synthesizer // may be nil
	bus    *events.Bus
	cfg    SequencerConfig
	logger *logging.Logger

	hideMu    sync.Mutex
	hideTimer *time.Timer

	ctx    context.Context
	cancel context.CancelFunc
	done   sync.WaitGroup
}

// NewSequencer creates a sequencer. synth may be nil; utterance durations
// are then simulated.
func NewSequencer(synth Synthesizer, bus *events.Bus, cfg SequencerConfig, logger *logging.Logger) *Sequencer {
	if cfg.SimulatedPerChar <= 0 {
		cfg.SimulatedPerChar = 50 * time.Millisecond
	}
	if cfg.FeedbackHide <= 0 {
		cfg.FeedbackHide = 2 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Sequencer{
		synth:  synth,
		bus:    bus,
		cfg:    cfg,
		logger: logger.Component("speech"),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Enqueue appends an utterance and starts draining if the queue was idle.
// A call during an active drain only extends the queue; it never
// interrupts the current utterance.
func (s *Sequencer) Enqueue(text string, opts Options) {
	s.mu.Lock()
	s.queue = append(s.queue, entry{text: text, opts: opts})
	depth := len(s.queue)
	start := !s.draining
	if start {
		s.draining = true
		s.done.Add(1)
	}
	s.mu.Unlock()

	if s.cfg.OnDepthChange != nil {
		s.cfg.OnDepthChange(depth)
	}
	if start {
		go s.drain()
	}
}

// Active reports whether an utterance is currently playing.
func (s *Sequencer) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Depth returns the number of queued, not-yet-started utterances.
func (s *Sequencer) Depth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Wait blocks until the current drain finishes. Test helper.
func (s *Sequencer) Wait() {
	s.done.Wait()
}

// Close stops the sequencer; in-flight simulated waits are cut short.
func (s *Sequencer) Close() {
	s.cancel()
	s.done.Wait()
	s.hideMu.Lock()
	if s.hideTimer != nil {
		s.hideTimer.Stop()
	}
	s.hideMu.Unlock()
}

// drain plays queued entries one at a time until the queue is empty.
// A single entry's failure never aborts the loop.
func (s *Sequencer) drain() {
	defer s.done.Done()
	for {
		s.mu.Lock()
		if len(s.queue) == 0 || s.ctx.Err() != nil {
			s.draining = false
			s.mu.Unlock()
			return
		}
		next := s.queue[0]
		s.queue = s.queue[1:]
		depth := len(s.queue)
		s.active = true
		s.mu.Unlock()

		if s.cfg.OnDepthChange != nil {
			s.cfg.OnDepthChange(depth)
		}

		s.speakImmediate(next)

		s.mu.Lock()
		s.active = false
		s.mu.Unlock()
	}
}

// speakImmediate plays one utterance: show feedback, mark talking,
// synthesize (or simulate), unmark talking, then hide feedback after a
// fixed delay.
func (s *Sequencer) speakImmediate(e entry) {
	s.bus.PublishUI(types.UIEvent{Type: types.UIFeedback, Text: e.text, Active: true})
	s.bus.PublishUI(types.UIEvent{Type: types.UITalking, Active: true})

	if s.synth != nil {
		if err := s.synth.Speak(s.ctx, e.text, e.opts); err != nil {
			s.logger.Warn("synthesis failed, simulating duration",
				zap.Error(err),
				zap.Int("chars", len(e.text)),
			)
			s.simulate(e.text)
		}
	} else {
		s.simulate(e.text)
	}

	s.bus.PublishUI(types.UIEvent{Type: types.UITalking, Active: false})
	s.scheduleHide()
}

// simulate waits the deterministic utterance duration.
func (s *Sequencer) simulate(text string) {
	d := time.Duration(len(text)) * s.cfg.SimulatedPerChar
	select {
	case <-time.After(d):
	case <-s.ctx.Done():
	}
}

// scheduleHide arms the feedback-hide timer, replacing any earlier one so
// back-to-back utterances keep the bubble up until the last one settles.
func (s *Sequencer) scheduleHide() {
	s.hideMu.Lock()
	defer s.hideMu.Unlock()
	if s.hideTimer != nil {
		s.hideTimer.Stop()
	}
	s.hideTimer = time.AfterFunc(s.cfg.FeedbackHide, func() {
		s.bus.PublishUI(types.UIEvent{Type: types.UIFeedback, Active: false})
	})
}
