// Package events publishes verdict notifications as signed CloudEvents.
package events

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"

	"github.com/fr0stylo/trustguard/internal/app/domain"
	"github.com/fr0stylo/trustguard/internal/app/ports"
)

// Event types.
const (
	TypeURLFlagged       = domain.EventURLFlagged
	TypeDonationVerified = domain.EventDonationVerified
)

const (
	defaultSource         = "trustguard"
	defaultPublishTimeout = 10 * time.Second
)

// Publisher posts CloudEvents in structured JSON mode to one sink.
type Publisher struct {
	Endpoint   string
	Secret     string
	Source     string
	Timeout    time.Duration
	HTTPClient *http.Client
	Log        *slog.Logger
}

// BuildEventBody renders n as a structured-mode CloudEvent.
func BuildEventBody(source string, n ports.Notification, now time.Time) ([]byte, error) {
	if strings.TrimSpace(n.Type) == "" {
		return nil, fmt.Errorf("event type is required")
	}
	if source == "" {
		source = defaultSource
	}
	event := cloudevents.NewEvent()
	event.SetID(uuid.NewString())
	event.SetSource(source)
	event.SetType(n.Type)
	event.SetTime(now.UTC())
	if n.Subject != "" {
		event.SetSubject(n.Subject)
	}
	if err := event.SetData(cloudevents.ApplicationJSON, n.Data); err != nil {
		return nil, fmt.Errorf("set event data: %w", err)
	}
	if err := event.Validate(); err != nil {
		return nil, fmt.Errorf("invalid event: %w", err)
	}
	return json.Marshal(event)
}

// Publish sends one notification synchronously.
func (p *Publisher) Publish(ctx context.Context, n ports.Notification) error {
	endpoint := strings.TrimSpace(p.Endpoint)
	if endpoint == "" {
		return fmt.Errorf("endpoint is required")
	}
	body, err := BuildEventBody(p.Source, n, time.Now())
	if err != nil {
		return err
	}

	httpClient := p.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/cloudevents+json")
	if secret := strings.TrimSpace(p.Secret); secret != "" {
		req.Header.Set("X-Webhook-Signature", sign(body, secret))
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("event sink rejected: status=%s body=%s", resp.Status, strings.TrimSpace(string(payload)))
	}
	return nil
}

// Notify publishes in the background with its own deadline. Failures are
// logged only.
func (p *Publisher) Notify(ctx context.Context, n ports.Notification) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}
	log := p.Log
	if log == nil {
		log = slog.Default()
	}
	detached := context.WithoutCancel(ctx)
	go func() {
		publishCtx, cancel := context.WithTimeout(detached, timeout)
		defer cancel()
		if err := p.Publish(publishCtx, n); err != nil {
			log.WarnContext(publishCtx, "event publish failed", "type", n.Type, "subject", n.Subject, "error", err)
		}
	}()
}

func sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
