package speech

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/VoxKiosk/OrderOS/backend/internal/shared/types"
)

// maxSynthesisChars mirrors the speech service's input limit.
const maxSynthesisChars = 1000

// Options tune one utterance.
type Options struct {
	Voice string  `json:"voice,omitempty"`
	Speed float64 `json:"speed,omitempty"`
	Pitch float64 `json:"pitch,omitempty"`
}

// Synthesizer converts text to audio. Implementations block until the
// utterance has been produced.
type Synthesizer interface {
	Speak(ctx context.Context, text string, opts Options) error
}

// Client talks to the speech service over HTTP with retries.
type Client struct {
	http    *retryablehttp.Client
	baseURL string
	voice   string
	// onAudio receives synthesized WAV data; nil discards it (the
	// presentation layer fetches audio through its own channel).
	onAudio func([]byte)
}

// ClientConfig configures the speech service client.
type ClientConfig struct {
	URL     string
	Timeout time.Duration
	Voice   string
	OnAudio func([]byte)
}

// NewClient creates a speech service client.
func NewClient(cfg ClientConfig) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.HTTPClient.Timeout = cfg.Timeout
	rc.Logger = nil
	return &Client{
		http:    rc,
		baseURL: strings.TrimRight(cfg.URL, "/"),
		voice:   cfg.Voice,
		onAudio: cfg.OnAudio,
	}
}

// synthesisRequest mirrors the speech service's SynthesisRequest model.
type synthesisRequest struct {
	Text  string  `json:"text"`
	Voice string  `json:"voice"`
	Speed float64 `json:"speed"`
	Pitch float64 `json:"pitch"`
}

// Speak synthesizes text. Client-side validation mirrors the service:
// empty or oversized text is rejected before any network call.
func (c *Client) Speak(ctx context.Context, text string, opts Options) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return fmt.Errorf("synthesis text cannot be empty")
	}
	if len(text) > maxSynthesisChars {
		return fmt.Errorf("synthesis text too long: %d chars (max %d)", len(text), maxSynthesisChars)
	}

	req := synthesisRequest{Text: text, Voice: c.voice, Speed: 1.0, Pitch: 1.0}
	if opts.Voice != "" {
		req.Voice = opts.Voice
	}
	if opts.Speed > 0 {
		req.Speed = opts.Speed
	}
	if opts.Pitch > 0 {
		req.Pitch = opts.Pitch
	}

	body, err := sonic.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode synthesis request: %w", err)
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/speech/synthesize", body)
	if err != nil {
		return fmt.Errorf("failed to build synthesis request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("synthesis request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("speech service returned status %d", resp.StatusCode)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read synthesized audio: %w", err)
	}
	if c.onAudio != nil {
		c.onAudio(audio)
	}
	return nil
}

// healthResponse mirrors the speech service's HealthResponse model.
type healthResponse struct {
	Status   string          `json:"status"`
	Services map[string]bool `json:"services"`
	Version  string          `json:"version"`
}

// Health queries the speech service and maps sub-service availability to
// the three-state overall signal: both up is healthy, one down is
// degraded, both down (or unreachable) is down.
func (c *Client) Health(ctx context.Context) types.StatusEvent {
	ev := types.StatusEvent{Overall: types.HealthDown, Timestamp: time.Now()}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/health", nil)
	if err != nil {
		return ev
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return ev
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ev
	}
	var health healthResponse
	if err := sonic.Unmarshal(body, &health); err != nil {
		return ev
	}

	up := 0
	for _, ok := range health.Services {
		if ok {
			up++
		}
	}
	switch {
	case len(health.Services) > 0 && up == len(health.Services):
		ev.Overall = types.HealthHealthy
	case up > 0:
		ev.Overall = types.HealthDegraded
	}
	ev.Services = health.Services
	return ev
}

// Voices lists the TTS voices the speech service offers.
func (c *Client) Voices(ctx context.Context) ([]string, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/speech/voices", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("voices request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var out struct {
		Voices []string `json:"voices"`
	}
	if err := sonic.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode voices response: %w", err)
	}
	return out.Voices, nil
}
