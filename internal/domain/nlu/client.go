package nlu

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"

	"github.com/VoxKiosk/OrderOS/backend/internal/shared/types"
)

// ErrMalformedResponse marks a response that failed schema validation.
// Callers treat it exactly like a transport failure.
var ErrMalformedResponse = errors.New("malformed classifier response")

// Client calls the external NLU service over HTTP.
type Client struct {
	http *resty.Client
}

// ClientConfig configures the NLU service client.
type ClientConfig struct {
	URL     string
	Timeout time.Duration
}

// NewClient creates an NLU service client.
func NewClient(cfg ClientConfig) *Client {
	c := resty.New().
		SetBaseURL(cfg.URL).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")
	return &Client{http: c}
}

// classifyRequest is the wire request shape.
type classifyRequest struct {
	Text string `json:"text"`
}

// classifyResponse is the wire response shape. Anything that does not
// decode into this, or decodes with an empty intent, is malformed.
type classifyResponse struct {
	Intent       string            `json:"intent"`
	Entities     map[string]string `json:"entities"`
	Confidence   float64           `json:"confidence"`
	ResponseText string            `json:"response_text"`
}

// Classify sends the utterance to the NLU service and validates the
// response schema strictly. No heuristic reconstruction of ambiguous
// payloads: any shape violation is an error.
func (c *Client) Classify(ctx context.Context, text string) (*types.IntentResult, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(classifyRequest{Text: text}).
		Post("/api/v1/intent/classify")
	if err != nil {
		return nil, fmt.Errorf("nlu request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("nlu service returned status %d", resp.StatusCode())
	}

	var out classifyResponse
	if err := sonic.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if out.Intent == "" {
		return nil, fmt.Errorf("%w: missing intent field", ErrMalformedResponse)
	}
	if out.Confidence < 0 || out.Confidence > 1 {
		return nil, fmt.Errorf("%w: confidence %f out of range", ErrMalformedResponse, out.Confidence)
	}

	entities := out.Entities
	if entities == nil {
		entities = map[string]string{}
	}
	return &types.IntentResult{
		Intent:       types.Intent(out.Intent),
		Entities:     entities,
		Confidence:   out.Confidence,
		ResponseText: out.ResponseText,
	}, nil
}
