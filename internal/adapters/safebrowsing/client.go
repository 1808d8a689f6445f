// Package safebrowsing checks URLs against Google Safe Browsing v4.
package safebrowsing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/fr0stylo/trustguard/internal/app/domain"
	"github.com/fr0stylo/trustguard/internal/upstream"
)

// Source is the provenance name used in errors and verdicts.
const Source = "google"

// DefaultEndpoint is the threatMatches:find endpoint.
const DefaultEndpoint = "https://safebrowsing.googleapis.com/v4/threatMatches:find"

type clientInfo struct {
	ClientID      string `json:"clientId"`
	ClientVersion string `json:"clientVersion"`
}

type threatEntry struct {
	URL string `json:"url"`
}

type threatInfo struct {
	ThreatTypes      []string      `json:"threatTypes"`
	PlatformTypes    []string      `json:"platformTypes"`
	ThreatEntryTypes []string      `json:"threatEntryTypes"`
	ThreatEntries    []threatEntry `json:"threatEntries"`
}

type findRequest struct {
	Client     clientInfo `json:"client"`
	ThreatInfo threatInfo `json:"threatInfo"`
}

// Client is the safe-browsing gateway.
type Client struct {
	endpoint string
	apiKey   string
	version  string
	http     *upstream.Client
}

// New creates a client. An empty endpoint selects DefaultEndpoint.
func New(endpoint, apiKey, version string, client *upstream.Client) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if version == "" {
		version = "1.0"
	}
	return &Client{endpoint: endpoint, apiKey: apiKey, version: version, http: client}
}

// CheckURL posts a fixed threat-match query for rawURL. Any match flags it.
func (c *Client) CheckURL(ctx context.Context, rawURL string) (domain.PhishingSignal, error) {
	target, err := url.Parse(c.endpoint)
	if err != nil {
		return domain.PhishingSignal{}, domain.Unavailable(Source, "Invalid Google Safe Browsing endpoint", nil, err)
	}
	query := target.Query()
	query.Set("key", c.apiKey)
	target.RawQuery = query.Encode()

	resp, err := c.http.PostJSON(ctx, "threat_matches", target.String(), findRequest{
		Client: clientInfo{ClientID: "web3trustguard", ClientVersion: c.version},
		ThreatInfo: threatInfo{
			ThreatTypes:      []string{"MALWARE", "SOCIAL_ENGINEERING", "UNWANTED_SOFTWARE"},
			PlatformTypes:    []string{"ANY_PLATFORM"},
			ThreatEntryTypes: []string{"URL"},
			ThreatEntries:    []threatEntry{{URL: rawURL}},
		},
	})
	if err != nil {
		return domain.PhishingSignal{}, domain.Unavailable(Source, "Google Safe Browsing request failed", nil, err)
	}
	if !resp.OK() {
		return domain.PhishingSignal{}, domain.Unavailable(Source,
			fmt.Sprintf("Google Safe Browsing HTTP %d", resp.StatusCode), string(resp.Body), nil)
	}

	var payload map[string]any
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return domain.PhishingSignal{}, domain.EmptyResult(Source, "Invalid JSON from Google Safe Browsing", nil, string(resp.Body))
	}
	_, flagged := payload["matches"]
	return domain.PhishingSignal{Flagged: flagged, Source: domain.SourceGoogle, Raw: payload}, nil
}
