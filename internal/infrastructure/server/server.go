package server

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/VoxKiosk/OrderOS/backend/internal/api/http"
	"github.com/VoxKiosk/OrderOS/backend/internal/api/middleware"
	"github.com/VoxKiosk/OrderOS/backend/internal/api/ws"
	"github.com/VoxKiosk/OrderOS/backend/internal/domain/cart"
	"github.com/VoxKiosk/OrderOS/backend/internal/domain/catalog"
	"github.com/VoxKiosk/OrderOS/backend/internal/domain/faults"
	"github.com/VoxKiosk/OrderOS/backend/internal/domain/nlu"
	"github.com/VoxKiosk/OrderOS/backend/internal/domain/orchestrator"
	"github.com/VoxKiosk/OrderOS/backend/internal/domain/speech"
	"github.com/VoxKiosk/OrderOS/backend/internal/events"
	"github.com/VoxKiosk/OrderOS/backend/internal/infrastructure/config"
	"github.com/VoxKiosk/OrderOS/backend/internal/infrastructure/logging"
	"github.com/VoxKiosk/OrderOS/backend/internal/infrastructure/monitoring"
	"github.com/VoxKiosk/OrderOS/backend/internal/shared/types"
	"github.com/VoxKiosk/OrderOS/backend/internal/storage"
)

// Server wraps the HTTP server and the orchestration core.
type Server struct {
	router    *gin.Engine
	orch      *orchestrator.Orchestrator
	sequencer *speech.Sequencer
	poller    *speech.Poller
	redis     *storage.Redis
	logger    *logging.Logger
	config    *config.Config
	metrics   *monitoring.Metrics
}

// meteredClassifier records every classified intent.
type meteredClassifier struct {
	inner    nlu.Classifier
	metrics  *monitoring.Metrics
	observed *fallbackFlag
}

// fallbackFlag lets the OnFallback hook mark the current classification.
type fallbackFlag struct{ hit bool }

func (m *meteredClassifier) Classify(ctx context.Context, text string) *types.IntentResult {
	m.observed.hit = false
	start := time.Now()
	result := m.inner.Classify(ctx, text)
	m.metrics.ClassifyDuration.Observe(time.Since(start).Seconds())
	m.metrics.RecordIntent(string(result.Intent), m.observed.hit)
	return result
}

// meteredSpeaker records enqueue volume and queue depth.
type meteredSpeaker struct {
	inner   *speech.Sequencer
	metrics *monitoring.Metrics
}

func (m *meteredSpeaker) Enqueue(text string, opts speech.Options) {
	m.inner.Enqueue(text, opts)
	m.metrics.RecordSpeechEnqueued(m.inner.Depth())
}

// NewServer builds the whole backend from configuration.
func NewServer(cfg *config.Config) (*Server, error) {
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		OutputPaths: []string{"stdout"},
	})
	if err != nil {
		logger = logging.NewDefault()
	}

	logger.Info("initializing kiosk backend",
		zap.String("port", cfg.Server.Port),
		zap.String("nlu_url", cfg.NLU.URL),
		zap.String("speech_url", cfg.Speech.URL),
	)

	metrics := monitoring.NewMetrics()
	bus := events.NewBus(logger)
	faultLog := faults.NewLog()

	// Catalog. Load never fails; a missing or broken menu file falls back
	// to the built-in sample menu.
	cat := catalog.Load(cfg.Catalog.Path, logger)

	// Cart persistence. Redis when enabled and reachable, memory otherwise.
	var store storage.Store
	var redisStore *storage.Redis
	if cfg.Redis.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisStore, err = storage.NewRedis(ctx, storage.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Cart.Freshness + time.Hour,
		})
		cancel()
		if err != nil {
			logger.Warn("redis unavailable, cart persistence degraded to memory", zap.Error(err))
			store = storage.NewMemory()
		} else {
			store = redisStore
			logger.Info("cart persistence on redis", zap.String("addr", cfg.Redis.Addr))
		}
	} else {
		store = storage.NewMemory()
	}

	crt := cart.New(store, cfg.Cart.Freshness, logger)
	{
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		crt.Hydrate(ctx)
		cancel()
	}

	// Intent classification: remote NLU behind a breaker, local matcher
	// as fallback.
	flag := &fallbackFlag{}
	nluService := nlu.NewService(
		nlu.NewClient(nlu.ClientConfig{URL: cfg.NLU.URL, Timeout: cfg.NLU.Timeout}),
		nlu.ServiceConfig{
			BreakerThreshold: cfg.NLU.BreakerThreshold,
			BreakerCooldown:  cfg.NLU.BreakerCooldown,
			OnFallback:       func() { flag.hit = true },
		},
		logger,
	)
	classifier := &meteredClassifier{inner: nluService, metrics: metrics, observed: flag}

	// Speech output.
	speechClient := speech.NewClient(speech.ClientConfig{
		URL:     cfg.Speech.URL,
		Timeout: cfg.Speech.Timeout,
		Voice:   cfg.Speech.Voice,
	})
	sequencer := speech.NewSequencer(speechClient, bus, speech.SequencerConfig{
		SimulatedPerChar: cfg.Speech.SimulatedPerChar,
		FeedbackHide:     cfg.Speech.FeedbackHide,
		OnDepthChange:    metrics.SetSpeechQueueDepth,
	}, logger)
	speaker := &meteredSpeaker{inner: sequencer, metrics: metrics}

	poller := speech.NewPoller(speechClient, bus, cfg.Speech.HealthInterval, logger)

	orch := orchestrator.New(orchestrator.Deps{
		Catalog:    cat,
		Cart:       crt,
		Classifier: classifier,
		Speech:     speaker,
		Bus:        bus,
		FaultLog:   faultLog,
		Logger:     logger,
	}, orchestrator.Config{
		SettlementDelay: cfg.Checkout.SettlementDelay,
		OnFault:         metrics.RecordFault,
		OnDrop:          metrics.RecordUtteranceDropped,
		OnCheckout:      metrics.RecordCheckout,
	})

	// Router and middleware.
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(cfg.RateLimit))
	}

	handlers := apihttp.NewHandlers(orch, crt, cat, faultLog, metrics, speechClient.Voices, logger)
	bridge := ws.NewBridge(orch, bus, metrics, logger)

	router.GET("/", handlers.Root)
	router.GET("/api/v1/health", handlers.Health)
	router.GET("/api/v1/state", handlers.State)

	router.GET("/api/v1/menu", handlers.Menu)
	router.GET("/api/v1/menu/categories/:name", handlers.Category)

	router.GET("/api/v1/cart", handlers.Cart)
	router.POST("/api/v1/cart/items", handlers.AddCartItem)
	router.PUT("/api/v1/cart/items/:id", handlers.SetCartQuantity)
	router.DELETE("/api/v1/cart/items/:id", handlers.RemoveCartItem)
	router.DELETE("/api/v1/cart", handlers.ClearCart)

	router.POST("/api/v1/checkout", handlers.Checkout)
	router.POST("/api/v1/utterance", handlers.Utterance)
	router.GET("/api/v1/speech/voices", handlers.Voices)
	router.GET("/api/v1/diagnostics", handlers.Diagnostics)

	router.GET("/stream", bridge.HandleConnection)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	logger.Info("kiosk backend initialized")

	return &Server{
		router:    router,
		orch:      orch,
		sequencer: sequencer,
		poller:    poller,
		redis:     redisStore,
		logger:    logger,
		config:    cfg,
		metrics:   metrics,
	}, nil
}

// Run starts the health poller and the HTTP server.
func (s *Server) Run() error {
	s.poller.Start()
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.logger.Info("starting HTTP server", zap.String("addr", addr))
	return s.router.Run(addr)
}

// Close shuts the backend down: poller stopped, pending settlement
// cancelled, speech queue drained, Redis connection closed.
func (s *Server) Close() error {
	s.logger.Info("shutting down")

	s.poller.Stop()
	s.orch.CancelSettlement()
	s.sequencer.Close()

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("failed to close redis", zap.Error(err))
			return err
		}
	}

	s.logger.Sync()
	return nil
}
