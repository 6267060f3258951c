// Package reasoner is the boundary to the external reasoning collaborator.
// The client speaks the OpenAI-compatible chat-completions API and returns
// the model's raw JSON payload; it performs no schema validation beyond
// extracting the message content. Callers must treat the payload as
// untrusted.
package reasoner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/optiflow/decision-engine/pkg/metrics"
	"github.com/optiflow/decision-engine/pkg/models"
)

// Request is the structured context sent with every analysis call.
type Request struct {
	Triggers []string               `json:"triggers"`
	Summary  models.SnapshotSummary `json:"summaries"`
}

// Source obtains a candidate analysis for a snapshot context. Implementations
// may be unreachable, slow, or return structurally invalid output; callers
// own the fallback strategy.
type Source interface {
	Analyze(ctx context.Context, req Request) (json.RawMessage, error)
}

const systemPrompt = `You are a business operations analyst. Given alert triggers and
aggregated operational summaries for a single business, respond with ONLY a JSON object:
{"health_score": <0-100>, "critical_issues": [{"type","severity","description","immediate_action"}],
"recommendations": [{"category","priority","title","description","expected_savings",
"implementation_steps","confidence_score","auto_implementable"}],
"financial_impact": {"potential_savings": <number>}}.
Priorities are one of low, medium, high, critical. Confidence scores are integers 0-100.`

// Client calls an OpenAI-compatible chat-completions endpoint.
type Client struct {
	log        *zap.Logger
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	maxRetries int
}

// NewClient builds a reasoner client. baseURL is trimmed of trailing slashes;
// timeout bounds every call including retries' individual attempts.
func NewClient(log *zap.Logger, baseURL, apiKey, model string, timeout time.Duration) *Client {
	return &Client{
		log:        log.Named("reasoner"),
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: 1,
	}
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat *respFormat   `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type respFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Analyze sends the structured context and returns the model's JSON payload.
func (c *Client) Analyze(ctx context.Context, req Request) (json.RawMessage, error) {
	user, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal analysis request: %w", err)
	}

	body := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: string(user)},
		},
		Temperature:    0.2,
		ResponseFormat: &respFormat{Type: "json_object"},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		raw, retryable, err := c.do(ctx, payload)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		if !retryable || ctx.Err() != nil {
			break
		}
		c.log.Warn("analysis attempt failed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}
	return nil, lastErr
}

// do performs a single chat-completions call. retryable is true for
// transport errors and 5xx responses.
func (c *Client) do(ctx context.Context, payload []byte) (json.RawMessage, bool, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, true, fmt.Errorf("reasoner call: %w", err)
	}
	defer resp.Body.Close()
	metrics.ReasonerLatency.Observe(time.Since(start).Seconds())

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, true, fmt.Errorf("read reasoner response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode >= 500, fmt.Errorf("reasoner returned status %d", resp.StatusCode)
	}

	var chat chatResponse
	if err := json.Unmarshal(raw, &chat); err != nil {
		return nil, false, fmt.Errorf("decode reasoner response: %w", err)
	}
	if len(chat.Choices) == 0 || strings.TrimSpace(chat.Choices[0].Message.Content) == "" {
		return nil, false, fmt.Errorf("reasoner returned no content")
	}

	c.log.Debug("analysis call completed",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("bytes", len(chat.Choices[0].Message.Content)),
	)
	return json.RawMessage(chat.Choices[0].Message.Content), false, nil
}
