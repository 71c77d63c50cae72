package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the kiosk backend.
type Metrics struct {
	// HTTP surface
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Interaction pipeline
	UtterancesTotal   prometheus.Counter
	IntentsTotal      *prometheus.CounterVec
	FallbackTotal     prometheus.Counter
	ClassifyDuration  prometheus.Histogram
	UtterancesDropped prometheus.Counter

	// Cart
	CartMutations prometheus.Counter
	CartItems     prometheus.Gauge

	// Speech output
	SpeechEnqueued   prometheus.Counter
	SpeechQueueDepth prometheus.Gauge

	// Checkout
	CheckoutsTotal *prometheus.CounterVec

	// Fault containment
	FaultsTotal *prometheus.CounterVec

	// WebSocket bridge
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	// System
	Uptime    prometheus.Gauge
	startTime time.Time

	// Snapshot for the JSON diagnostics API
	snapshot Snapshot
	mu       sync.RWMutex
}

// Snapshot holds current values for the JSON diagnostics API.
type Snapshot struct {
	TotalRequests   int64   `json:"total_requests"`
	TotalErrors     int64   `json:"total_errors"`
	Utterances      int64   `json:"utterances"`
	Fallbacks       int64   `json:"fallbacks"`
	FaultsContained int64   `json:"faults_contained"`
	UptimeSeconds   float64 `json:"uptime_seconds"`
}

// NewMetrics creates a metrics collector and registers everything with
// the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		startTime: time.Now(),

		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kiosk_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kiosk_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),

		UtterancesTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "kiosk_utterances_total",
				Help: "Total number of utterances processed",
			},
		),
		IntentsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kiosk_intents_total",
				Help: "Total classified intents by name",
			},
			[]string{"intent"},
		),
		FallbackTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "kiosk_classifier_fallback_total",
				Help: "Classifications served by the local fallback matcher",
			},
		),
		ClassifyDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "kiosk_classify_duration_seconds",
				Help:    "Intent classification duration in seconds",
				Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5},
			},
		),
		UtterancesDropped: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "kiosk_utterances_dropped_total",
				Help: "Utterances dropped because a pipeline was in flight",
			},
		),

		CartMutations: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "kiosk_cart_mutations_total",
				Help: "Total cart mutations",
			},
		),
		CartItems: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "kiosk_cart_items",
				Help: "Current number of items in the cart",
			},
		),

		SpeechEnqueued: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "kiosk_speech_enqueued_total",
				Help: "Total utterances enqueued for speech output",
			},
		),
		SpeechQueueDepth: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "kiosk_speech_queue_depth",
				Help: "Queued, not-yet-spoken utterances",
			},
		),

		CheckoutsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kiosk_checkouts_total",
				Help: "Checkout attempts by outcome",
			},
			[]string{"outcome"},
		),

		FaultsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kiosk_faults_total",
				Help: "Contained faults by kind",
			},
			[]string{"kind"},
		),

		WSConnections: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "kiosk_ws_connections",
				Help: "Active WebSocket bridge connections",
			},
		),
		WSMessages: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kiosk_ws_messages_total",
				Help: "WebSocket bridge messages",
			},
			[]string{"direction", "type"},
		),

		Uptime: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "kiosk_uptime_seconds",
				Help: "Backend uptime in seconds",
			},
		),
	}

	go m.updateUptime()

	return m
}

func (m *Metrics) updateUptime() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.Uptime.Set(time.Since(m.startTime).Seconds())
	}
}

// RecordHTTPRequest records one HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.TotalRequests++
	if status[0] == '4' || status[0] == '5' {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordIntent records one classified utterance.
func (m *Metrics) RecordIntent(intent string, fallback bool) {
	m.UtterancesTotal.Inc()
	m.IntentsTotal.WithLabelValues(intent).Inc()

	m.mu.Lock()
	m.snapshot.Utterances++
	if fallback {
		m.snapshot.Fallbacks++
	}
	m.mu.Unlock()

	if fallback {
		m.FallbackTotal.Inc()
	}
}

// RecordUtteranceDropped records one utterance rejected by the overlap guard.
func (m *Metrics) RecordUtteranceDropped() {
	m.UtterancesDropped.Inc()
}

// RecordFault records one contained fault.
func (m *Metrics) RecordFault(kind string) {
	m.FaultsTotal.WithLabelValues(kind).Inc()
	m.mu.Lock()
	m.snapshot.FaultsContained++
	m.mu.Unlock()
}

// RecordCheckout records a checkout attempt outcome
// ("settled", "rejected", "pending").
func (m *Metrics) RecordCheckout(outcome string) {
	m.CheckoutsTotal.WithLabelValues(outcome).Inc()
}

// RecordCartMutation records one cart mutation and the resulting size.
func (m *Metrics) RecordCartMutation(itemCount int) {
	m.CartMutations.Inc()
	m.CartItems.Set(float64(itemCount))
}

// RecordSpeechEnqueued records one enqueued utterance and the queue depth.
func (m *Metrics) RecordSpeechEnqueued(depth int) {
	m.SpeechEnqueued.Inc()
	m.SpeechQueueDepth.Set(float64(depth))
}

// SetSpeechQueueDepth updates the queue gauge as the sequencer drains.
func (m *Metrics) SetSpeechQueueDepth(depth int) {
	m.SpeechQueueDepth.Set(float64(depth))
}

// RecordWSMessage records one bridge message.
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments active bridge connections.
func (m *Metrics) IncWSConnections() { m.WSConnections.Inc() }

// DecWSConnections decrements active bridge connections.
func (m *Metrics) DecWSConnections() { m.WSConnections.Dec() }

// GetSnapshot returns current values for the JSON diagnostics API.
func (m *Metrics) GetSnapshot() Snapshot {
	m.mu.RLock()
	snap := m.snapshot
	m.mu.RUnlock()
	snap.UptimeSeconds = time.Since(m.startTime).Seconds()
	return snap
}
