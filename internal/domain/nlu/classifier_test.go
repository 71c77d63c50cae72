package nlu

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VoxKiosk/OrderOS/backend/internal/infrastructure/logging"
	"github.com/VoxKiosk/OrderOS/backend/internal/shared/types"
)

type fakeRemote struct {
	result *types.IntentResult
	err    error
	calls  int
}

func (f *fakeRemote) Classify(_ context.Context, _ string) (*types.IntentResult, error) {
	f.calls++
	return f.result, f.err
}

func TestServicePrefersPrimary(t *testing.T) {
	remote := &fakeRemote{result: &types.IntentResult{
		Intent:     types.IntentAddItem,
		Entities:   map[string]string{types.EntityItemName: "pad thai"},
		Confidence: 0.93,
	}}
	s := NewService(remote, ServiceConfig{BreakerThreshold: 3, BreakerCooldown: time.Minute}, logging.NewNop())

	res := s.Classify(context.Background(), "pad thai please")
	assert.Equal(t, types.IntentAddItem, res.Intent)
	assert.Equal(t, 0.93, res.Confidence)
}

func TestServiceFallsBackOnPrimaryError(t *testing.T) {
	fallbacks := 0
	remote := &fakeRemote{err: errors.New("connection refused")}
	s := NewService(remote, ServiceConfig{
		BreakerThreshold: 3,
		BreakerCooldown:  time.Minute,
		OnFallback:       func() { fallbacks++ },
	}, logging.NewNop())

	res := s.Classify(context.Background(), "show me the appetizers")
	require.NotNil(t, res)
	assert.Equal(t, types.IntentBrowseMenu, res.Intent)
	assert.Equal(t, "appetizers", res.Entity(types.EntityCategory))
	assert.Equal(t, 1, fallbacks)
}

func TestServiceBreakerStopsCallingPrimary(t *testing.T) {
	remote := &fakeRemote{err: errors.New("down")}
	s := NewService(remote, ServiceConfig{BreakerThreshold: 2, BreakerCooldown: time.Minute}, logging.NewNop())

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		res := s.Classify(ctx, "hello")
		assert.Equal(t, types.IntentGreeting, res.Intent)
	}

	// After two consecutive failures the breaker is open and the primary
	// is no longer invoked.
	assert.Equal(t, 2, remote.calls)
}

func TestServiceWithoutPrimary(t *testing.T) {
	s := NewService(nil, ServiceConfig{BreakerThreshold: 3, BreakerCooldown: time.Minute}, logging.NewNop())

	res := s.Classify(context.Background(), "checkout please")
	assert.Equal(t, types.IntentCheckout, res.Intent)
}

func TestClientRejectsMalformedResponses(t *testing.T) {
	cases := map[string]string{
		"missing intent": `{"entities":{},"confidence":0.9}`,
		"non-object":     `["not","an","object"]`,
		"bad confidence": `{"intent":"add_item","confidence":7.5}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			client := NewClient(ClientConfig{URL: srv.URL, Timeout: time.Second})
			_, err := client.Classify(context.Background(), "hi")
			assert.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}

func TestClientParsesValidResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"intent":"view_cart","entities":{},"confidence":0.88}`))
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{URL: srv.URL, Timeout: time.Second})
	res, err := client.Classify(context.Background(), "what's in my cart")
	require.NoError(t, err)
	assert.Equal(t, types.IntentViewCart, res.Intent)
	assert.Equal(t, 0.88, res.Confidence)
}

func TestClientErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{URL: srv.URL, Timeout: time.Second})
	_, err := client.Classify(context.Background(), "hi")
	assert.Error(t, err)
}
