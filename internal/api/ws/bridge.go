package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/VoxKiosk/OrderOS/backend/internal/domain/orchestrator"
	"github.com/VoxKiosk/OrderOS/backend/internal/events"
	"github.com/VoxKiosk/OrderOS/backend/internal/infrastructure/logging"
	"github.com/VoxKiosk/OrderOS/backend/internal/infrastructure/monitoring"
	"github.com/VoxKiosk/OrderOS/backend/internal/shared/types"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// The UI runs in a local webview; origin checks happen upstream.
		return true
	},
}

// inbound is a message from the UI.
type inbound struct {
	Type       string            `json:"type"`
	Text       string            `json:"text,omitempty"`
	Confidence float64           `json:"confidence,omitempty"`
	Source     string            `json:"source,omitempty"`
	Timestamp  int64             `json:"timestamp,omitempty"`
	Intent     string            `json:"intent,omitempty"`
	Entities   map[string]string `json:"entities,omitempty"`
	Mode       string            `json:"mode,omitempty"`
}

// outbound wraps an event for the UI.
type outbound struct {
	Type      string             `json:"type"`
	Event     *types.UIEvent     `json:"event,omitempty"`
	Status    *types.StatusEvent `json:"status,omitempty"`
	Message   string             `json:"message,omitempty"`
	Timestamp int64              `json:"timestamp"`
}

// Bridge manages WebSocket connections from the kiosk UI.
type Bridge struct {
	orch    *orchestrator.Orchestrator
	bus     *events.Bus
	metrics *monitoring.Metrics
	logger  *logging.Logger
}

// NewBridge creates a bridge.
func NewBridge(orch *orchestrator.Orchestrator, bus *events.Bus, metrics *monitoring.Metrics, logger *logging.Logger) *Bridge {
	return &Bridge{
		orch:    orch,
		bus:     bus,
		metrics: metrics,
		logger:  logger.Component("ws"),
	}
}

// HandleConnection upgrades the request and runs the bridge session.
func (b *Bridge) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		b.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	b.metrics.IncWSConnections()
	defer b.metrics.DecWSConnections()

	sess := &session{
		id:     uuid.NewString(),
		bridge: b,
		conn:   conn,
		out:    make(chan []byte, 64),
		closed: make(chan struct{}),
	}
	b.logger.Info("ui connected", zap.String("conn_id", sess.id))
	defer b.logger.Info("ui disconnected", zap.String("conn_id", sess.id))
	sess.run(c.Request.Context())
}

// session is one UI connection.
type session struct {
	id     string
	bridge *Bridge
	conn   *websocket.Conn
	out    chan []byte
	closed chan struct{}
}

func (s *session) run(ctx context.Context) {
	b := s.bridge

	unsubUI := b.bus.SubscribeUI(func(ev types.UIEvent) {
		s.push(outbound{Type: "ui", Event: &ev, Timestamp: time.Now().Unix()})
		b.metrics.RecordWSMessage("out", string(ev.Type))
	})
	unsubStatus := b.bus.SubscribeStatus(func(ev types.StatusEvent) {
		s.push(outbound{Type: "status", Status: &ev, Timestamp: time.Now().Unix()})
		b.metrics.RecordWSMessage("out", "status")
	})
	defer unsubUI()
	defer unsubStatus()

	go s.writePump()
	defer close(s.closed)

	s.push(outbound{Type: "system", Message: "connected", Timestamp: time.Now().Unix()})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				b.logger.Warn("websocket read error", zap.Error(err))
			}
			return
		}

		var msg inbound
		if err := sonic.Unmarshal(data, &msg); err != nil {
			b.logger.Warn("malformed bridge message", zap.Error(err))
			s.push(outbound{Type: "error", Message: "malformed message", Timestamp: time.Now().Unix()})
			continue
		}

		b.metrics.RecordWSMessage("in", msg.Type)
		s.dispatch(ctx, msg)
	}
}

// dispatch routes one inbound message. Utterance processing runs off the
// read loop so listening control stays responsive mid-pipeline.
func (s *session) dispatch(ctx context.Context, msg inbound) {
	b := s.bridge
	switch msg.Type {
	case "speech_result":
		utt := types.Utterance{
			Text:       msg.Text,
			Confidence: msg.Confidence,
			Source:     msg.Source,
			Timestamp:  time.Unix(msg.Timestamp, 0),
		}
		if utt.Source == "" {
			utt.Source = "frontend"
		}
		// A dropped connection must not abort a pipeline already running.
		go b.orch.ProcessUtterance(context.WithoutCancel(ctx), utt)

	case "touch":
		go b.orch.HandleTouch(context.WithoutCancel(ctx), types.Intent(msg.Intent), msg.Entities)

	case "set_mode":
		switch types.Mode(msg.Mode) {
		case types.ModeVoice, types.ModeTouch:
			b.orch.SetMode(types.Mode(msg.Mode))
		default:
			s.push(outbound{Type: "error", Message: "unknown mode", Timestamp: time.Now().Unix()})
		}

	case "start_listening":
		if err := b.orch.StartListening(); err != nil {
			s.push(outbound{Type: "error", Message: "speech capture unavailable", Timestamp: time.Now().Unix()})
		}

	case "stop_listening":
		b.orch.StopListening()

	case "ping":
		s.push(outbound{Type: "pong", Timestamp: time.Now().Unix()})

	default:
		b.orch.Faults().Report("bridge_message", "unknown message type: "+msg.Type)
		s.push(outbound{Type: "error", Message: "unknown message type", Timestamp: time.Now().Unix()})
	}
}

// push queues one outbound message. A full buffer means the UI stopped
// reading; the connection is torn down by the write pump.
func (s *session) push(msg outbound) {
	data, err := sonic.Marshal(msg)
	if err != nil {
		s.bridge.logger.Error("outbound marshal failed", zap.Error(err))
		return
	}
	select {
	case s.out <- data:
	case <-s.closed:
	default:
		s.bridge.logger.Warn("outbound buffer full, dropping event", zap.String("type", msg.Type))
	}
}

func (s *session) writePump() {
	defer s.conn.Close()
	for {
		select {
		case data := <-s.out:
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-s.closed:
			return
		}
	}
}
