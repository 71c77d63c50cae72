package speech

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VoxKiosk/OrderOS/backend/internal/events"
	"github.com/VoxKiosk/OrderOS/backend/internal/infrastructure/logging"
	"github.com/VoxKiosk/OrderOS/backend/internal/shared/types"
)

// recordingSynth records spoken texts in call order and tracks how many
// utterances are in flight at once.
type recordingSynth struct {
	mu       sync.Mutex
	spoken   []string
	inFlight int32
	maxSeen  int32
	delay    time.Duration
	fail     bool
}

func (r *recordingSynth) Speak(ctx context.Context, text string, opts Options) error {
	n := atomic.AddInt32(&r.inFlight, 1)
	defer atomic.AddInt32(&r.inFlight, -1)
	for {
		max := atomic.LoadInt32(&r.maxSeen)
		if n <= max || atomic.CompareAndSwapInt32(&r.maxSeen, max, n) {
			break
		}
	}
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	r.mu.Lock()
	r.spoken = append(r.spoken, text)
	r.mu.Unlock()
	if r.fail {
		return fmt.Errorf("synth unavailable")
	}
	return nil
}

func newTestSequencer(t *testing.T, synth Synthesizer) (*Sequencer, *events.Bus) {
	t.Helper()
	bus := events.NewBus(logging.NewNop())
	seq := NewSequencer(synth, bus, SequencerConfig{
		SimulatedPerChar: time.Millisecond,
		FeedbackHide:     10 * time.Millisecond,
	}, logging.NewNop())
	t.Cleanup(seq.Close)
	return seq, bus
}

func TestSequencerPlaysInEnqueueOrder(t *testing.T) {
	synth := &recordingSynth{}
	seq, _ := newTestSequencer(t, synth)

	want := []string{"first", "second", "third", "fourth"}
	for _, text := range want {
		seq.Enqueue(text, Options{})
	}
	seq.Wait()

	synth.mu.Lock()
	defer synth.mu.Unlock()
	assert.Equal(t, want, synth.spoken)
}

func TestSequencerAtMostOneActive(t *testing.T) {
	synth := &recordingSynth{delay: 5 * time.Millisecond}
	seq, _ := newTestSequencer(t, synth)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			seq.Enqueue(fmt.Sprintf("utterance %d", i), Options{})
		}(i)
	}
	wg.Wait()
	seq.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&synth.maxSeen))
	synth.mu.Lock()
	defer synth.mu.Unlock()
	assert.Len(t, synth.spoken, 8)
}

func TestSequencerFailureDoesNotStopDrain(t *testing.T) {
	synth := &recordingSynth{fail: true}
	seq, _ := newTestSequencer(t, synth)

	seq.Enqueue("a", Options{})
	seq.Enqueue("b", Options{})
	seq.Wait()

	synth.mu.Lock()
	defer synth.mu.Unlock()
	assert.Equal(t, []string{"a", "b"}, synth.spoken)
}

func TestSequencerSimulatesWithoutSynthesizer(t *testing.T) {
	seq, bus := newTestSequencer(t, nil)

	var mu sync.Mutex
	var got []types.UIEvent
	bus.SubscribeUI(func(ev types.UIEvent) {
		mu.Lock()
		got = append(got, ev)
		mu.Unlock()
	})

	seq.Enqueue("hi", Options{})
	seq.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.GreaterOrEqual(t, len(got), 3)
	assert.Equal(t, types.UIFeedback, got[0].Type)
	assert.Equal(t, "hi", got[0].Text)
	assert.True(t, got[0].Active)
	assert.Equal(t, types.UITalking, got[1].Type)
	assert.True(t, got[1].Active)
	assert.Equal(t, types.UITalking, got[2].Type)
	assert.False(t, got[2].Active)
}

func TestSequencerFeedbackHides(t *testing.T) {
	seq, bus := newTestSequencer(t, &recordingSynth{})

	hidden := make(chan struct{}, 1)
	bus.SubscribeUI(func(ev types.UIEvent) {
		if ev.Type == types.UIFeedback && !ev.Active {
			select {
			case hidden <- struct{}{}:
			default:
			}
		}
	})

	seq.Enqueue("done", Options{})
	seq.Wait()

	select {
	case <-hidden:
	case <-time.After(time.Second):
		t.Fatal("feedback never hidden")
	}
}
