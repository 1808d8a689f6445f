// Package goplus is the risk-scan gateway backed by the GoPlus Security API.
package goplus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/cast"

	"github.com/fr0stylo/trustguard/internal/app/domain"
	"github.com/fr0stylo/trustguard/internal/app/ports"
	"github.com/fr0stylo/trustguard/internal/upstream"
)

// Source is the provenance name used in errors and verdicts.
const Source = "goplus"

// PhishingSitePath is the endpoint whose empty answers are delegated to safe browsing.
const PhishingSitePath = "/api/v1/phishing_site/"

type envelope struct {
	Code    *int            `json:"code"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// Client calls the GoPlus API.
type Client struct {
	base         string
	http         *upstream.Client
	safeBrowsing ports.SafeBrowsing
}

// New creates a GoPlus gateway. safeBrowsing may be nil, in which case an
// empty phishing answer is reported as an empty result.
func New(base string, client *upstream.Client, safeBrowsing ports.SafeBrowsing) *Client {
	return &Client{
		base:         strings.TrimRight(strings.TrimSpace(base), "/"),
		http:         client,
		safeBrowsing: safeBrowsing,
	}
}

// Scan performs one API call and returns its "result" object.
func (c *Client) Scan(ctx context.Context, req ports.RiskScanRequest) (map[string]any, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	target := c.base + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body any
	if method != http.MethodGet {
		body = req.Body
	}
	resp, err := c.http.Do(ctx, operation(req.Path), method, target, body)
	if err != nil {
		return nil, domain.Unavailable(Source, "Unable to process request at the moment.", nil, err)
	}
	if !resp.OK() {
		return nil, domain.Unavailable(Source,
			fmt.Sprintf("Unexpected response code %d", resp.StatusCode),
			string(resp.Body), nil)
	}

	var env envelope
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		return nil, domain.EmptyResult(Source, "Invalid JSON from GoPlus", nil, string(resp.Body))
	}

	var raw map[string]any
	_ = json.Unmarshal(resp.Body, &raw)

	var result map[string]any
	if len(env.Result) > 0 {
		_ = json.Unmarshal(env.Result, &result)
	}
	if len(result) == 0 {
		message := env.Message
		if message == "" {
			message = "No valid data returned"
		}
		return nil, domain.EmptyResult(Source, message, env.Code, raw)
	}
	return result, nil
}

// PhishingSite checks one URL. A missing or unusable "phishing" field is
// delegated to safe browsing and that gateway's signal or error is returned.
func (c *Client) PhishingSite(ctx context.Context, rawURL string) (domain.PhishingSignal, error) {
	result, err := c.Scan(ctx, ports.RiskScanRequest{
		Path:  PhishingSitePath,
		Query: url.Values{"url": []string{rawURL}},
	})
	if err != nil && !errors.Is(err, domain.ErrUpstreamEmptyResult) {
		return domain.PhishingSignal{}, err
	}

	if err == nil {
		if value, ok := result["phishing"]; ok && value != nil {
			flag, castErr := cast.ToIntE(value)
			if castErr == nil {
				return domain.PhishingSignal{Flagged: flag == 1, Source: domain.SourceGoPlus, Raw: result}, nil
			}
		}
	}

	if c.safeBrowsing == nil {
		if err != nil {
			return domain.PhishingSignal{}, err
		}
		return domain.PhishingSignal{}, domain.EmptyResult(Source, "No phishing verdict returned", nil, result)
	}
	return c.safeBrowsing.CheckURL(ctx, rawURL)
}

// operation turns "/api/v1/token_security/56" into "token_security".
func operation(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) >= 3 && parts[0] == "api" {
		return parts[2]
	}
	if len(parts) > 0 && parts[0] != "" {
		return parts[len(parts)-1]
	}
	return "call"
}
