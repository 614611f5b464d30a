// Package sinks provides the dispatcher's delivery destinations: a signed
// webhook POST and a Redis publish with per-organization timelines.
package sinks

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/louisbranch/cadence.team/internal/services/dispatcher/domain"
)

// SignatureHeader carries the hex HMAC-SHA256 of the webhook request body.
const SignatureHeader = "X-Cadence-Signature"

// EventTypeHeader carries the event type so receivers can route without
// parsing the body.
const EventTypeHeader = "X-Cadence-Event"

// WebhookSink POSTs each dispatch to one endpoint as a signed JSON body.
type WebhookSink struct {
	endpoint string
	secret   []byte
	client   *http.Client
}

// NewWebhookSink constructs a webhook sink. The secret signs every request
// body so receivers can authenticate the sender.
func NewWebhookSink(endpoint string, secret []byte, client *http.Client) (*WebhookSink, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("webhook endpoint is required")
	}
	if len(secret) == 0 {
		return nil, fmt.Errorf("webhook secret is required")
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &WebhookSink{endpoint: endpoint, secret: secret, client: client}, nil
}

// Name implements domain.Sink.
func (s *WebhookSink) Name() string { return "webhook" }

type webhookBody struct {
	EventID   string          `json:"event_id"`
	OrgID     string          `json:"org_id"`
	MeetingID string          `json:"meeting_id,omitempty"`
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
}

// Deliver implements domain.Sink. Any non-2xx response is a failed attempt.
func (s *WebhookSink) Deliver(ctx context.Context, dispatch domain.Dispatch) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("webhook sink is not configured")
	}
	payload := json.RawMessage(dispatch.PayloadJSON)
	if !json.Valid(payload) {
		payload = json.RawMessage("{}")
	}
	body, err := json.Marshal(webhookBody{
		EventID:   dispatch.EventID,
		OrgID:     dispatch.OrgID,
		MeetingID: dispatch.MeetingID,
		EventType: dispatch.EventType,
		Payload:   payload,
	})
	if err != nil {
		return fmt.Errorf("marshal webhook body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(EventTypeHeader, dispatch.EventType)
	req.Header.Set(SignatureHeader, Sign(s.secret, body))

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("webhook endpoint returned %d", resp.StatusCode)
	}
	return nil
}

// Sign returns the hex HMAC-SHA256 signature of body under the secret.
func Sign(secret []byte, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
