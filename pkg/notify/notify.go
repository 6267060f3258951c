// Package notify is the engine's outbound alert boundary. The engine only
// constructs one payload per critical issue; delivery mechanics live behind
// the Dispatcher interface and never block or roll back the decision
// pipeline.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/optiflow/decision-engine/pkg/models"
)

// Dispatcher emits alerts for critical issues. Implementations report
// delivery counts instead of returning errors; a failed alert is counted,
// never propagated.
type Dispatcher interface {
	Notify(ctx context.Context, tenantID string, issues []models.CriticalIssue) models.NotifyResult
}

// alertPayload is the wire format of one critical-issue alert.
type alertPayload struct {
	ID              string `json:"id"`
	TenantID        string `json:"tenant_id"`
	Type            string `json:"type"`
	Severity        string `json:"severity"`
	Description     string `json:"description"`
	ImmediateAction string `json:"immediate_action"`
	OccurredAt      string `json:"occurred_at"`
}

// WebhookDispatcher posts one JSON alert per critical issue to a configured
// endpoint.
type WebhookDispatcher struct {
	log    *zap.Logger
	url    string
	client *http.Client
}

// NewWebhookDispatcher creates a dispatcher for the given webhook URL.
func NewWebhookDispatcher(log *zap.Logger, url string) *WebhookDispatcher {
	return &WebhookDispatcher{
		log:    log.Named("notify"),
		url:    url,
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

// Notify posts each issue and tallies the outcomes. Failures are logged and
// counted; the caller's pipeline continues regardless.
func (d *WebhookDispatcher) Notify(ctx context.Context, tenantID string, issues []models.CriticalIssue) models.NotifyResult {
	var result models.NotifyResult
	for _, issue := range issues {
		if err := d.send(ctx, tenantID, issue); err != nil {
			d.log.Warn("alert delivery failed",
				zap.String("tenant_id", tenantID),
				zap.String("issue_type", issue.Type),
				zap.Error(err),
			)
			result.Failed++
			continue
		}
		result.Sent++
	}
	return result
}

func (d *WebhookDispatcher) send(ctx context.Context, tenantID string, issue models.CriticalIssue) error {
	payload := alertPayload{
		ID:              uuid.New().String(),
		TenantID:        tenantID,
		Type:            issue.Type,
		Severity:        issue.Severity,
		Description:     issue.Description,
		ImmediateAction: issue.ImmediateAction,
		OccurredAt:      time.Now().UTC().Format(time.RFC3339),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("http post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d from webhook", resp.StatusCode)
	}
	return nil
}

// NoopDispatcher drops all alerts. Used when no webhook is configured.
type NoopDispatcher struct{}

func (NoopDispatcher) Notify(_ context.Context, _ string, issues []models.CriticalIssue) models.NotifyResult {
	return models.NotifyResult{}
}
