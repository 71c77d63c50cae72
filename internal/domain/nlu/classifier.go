package nlu

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/VoxKiosk/OrderOS/backend/internal/infrastructure/logging"
	"github.com/VoxKiosk/OrderOS/backend/internal/infrastructure/resilience"
	"github.com/VoxKiosk/OrderOS/backend/internal/shared/types"
)

// Classifier maps an utterance to an intent. Implementations never fail;
// degraded paths produce a result instead of an error.
type Classifier interface {
	Classify(ctx context.Context, text string) *types.IntentResult
}

// remote is the primary delegate contract, satisfied by *Client.
type remote interface {
	Classify(ctx context.Context, text string) (*types.IntentResult, error)
}

// Service is the production classifier: primary NLU service behind a
// circuit breaker, local rule matcher as fallback.
type Service struct {
	primary  remote
	fallback *Fallback
	breaker  *resilience.Breaker
	logger   *logging.Logger

	onFallback func() // metrics hook, may be nil
}

// ServiceConfig configures the classifier service.
type ServiceConfig struct {
	BreakerThreshold int
	BreakerCooldown  time.Duration
	// OnFallback is invoked each time classification drops to the local
	// matcher.
	OnFallback func()
}

// NewService wires the primary client and the local fallback.
func NewService(primary remote, cfg ServiceConfig, logger *logging.Logger) *Service {
	log := logger.Component("nlu")
	breaker := resilience.New("nlu", resilience.Settings{
		FailureThreshold: cfg.BreakerThreshold,
		Cooldown:         cfg.BreakerCooldown,
		OnStateChange: func(name string, from, to resilience.State) {
			log.Warn("classifier breaker state change",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return &Service{
		primary:    primary,
		fallback:   NewFallback(),
		breaker:    breaker,
		logger:     log,
		onFallback: cfg.OnFallback,
	}
}

// Classify resolves text to an intent. Transport faults, malformed
// responses, and an open breaker all land on the local matcher; the
// caller never sees an error.
func (s *Service) Classify(ctx context.Context, text string) *types.IntentResult {
	if s.primary == nil {
		return s.classifyLocal(text)
	}

	var result *types.IntentResult
	err := s.breaker.Execute(func() error {
		res, err := s.primary.Classify(ctx, text)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		s.logger.Debug("primary classification unavailable, using local matcher",
			zap.Error(err))
		return s.classifyLocal(text)
	}
	return result
}

func (s *Service) classifyLocal(text string) *types.IntentResult {
	if s.onFallback != nil {
		s.onFallback()
	}
	return s.fallback.Classify(text)
}
