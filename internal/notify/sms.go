package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SMSSender delivers one text message and returns a provider message identifier.
type SMSSender interface {
	Send(ctx context.Context, to string, message string) (string, error)
}

// WebhookSMSSender posts messages to a gateway webhook (the pattern most
// regional SMS providers expose).
type WebhookSMSSender struct {
	url   string
	token string
	http  *http.Client
}

func NewWebhookSMSSender(url string, token string) *WebhookSMSSender {
	return &WebhookSMSSender{
		url:   strings.TrimSpace(url),
		token: strings.TrimSpace(token),
		http: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

func (s *WebhookSMSSender) Send(ctx context.Context, to string, message string) (string, error) {
	if s.url == "" {
		return "", errors.New("sms webhook url not configured")
	}
	raw, err := json.Marshal(map[string]string{
		"to":   to,
		"body": message,
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", errors.New("sms webhook returned non-2xx")
	}

	var body struct {
		MessageID string `json:"message_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.MessageID != "" {
		return body.MessageID, nil
	}
	return "sms-" + uuid.NewString(), nil
}

// NoopSMSSender drops messages; the default when no provider is configured.
type NoopSMSSender struct{}

func (NoopSMSSender) Send(_ context.Context, _ string, _ string) (string, error) {
	return "sms-noop", nil
}
