// Package covalent resolves EVM transactions through the Covalent API.
package covalent

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/fr0stylo/trustguard/internal/app/domain"
	"github.com/fr0stylo/trustguard/internal/app/ports"
	"github.com/fr0stylo/trustguard/internal/upstream"
)

// Source is the provenance name used in errors.
const Source = "covalent"

// DefaultBase is the public API base URL.
const DefaultBase = "https://api.covalenthq.com"

type item struct {
	TxHash      string `json:"tx_hash"`
	FromAddress string `json:"from_address"`
	ToAddress   string `json:"to_address"`
	Successful  *bool  `json:"successful"`
}

type response struct {
	Data *struct {
		Items []json.RawMessage `json:"items"`
	} `json:"data"`
	Error        bool   `json:"error"`
	ErrorMessage string `json:"error_message"`
	ErrorCode    *int   `json:"error_code"`
}

// Client is the chain-indexer gateway.
type Client struct {
	base   string
	apiKey string
	http   *upstream.Client
}

// New creates a Covalent client.
func New(base, apiKey string, client *upstream.Client) *Client {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		base = DefaultBase
	}
	return &Client{base: base, apiKey: apiKey, http: client}
}

// GetTransaction returns the first item of the transaction_v2 lookup.
func (c *Client) GetTransaction(ctx context.Context, chainID int64, txHash string) (ports.EVMTransaction, error) {
	target := fmt.Sprintf("%s/v1/%d/transaction_v2/%s/?%s",
		c.base, chainID, url.PathEscape(txHash), url.Values{"key": []string{c.apiKey}}.Encode())

	resp, err := c.http.Get(ctx, "transaction_v2", target)
	if err != nil {
		return ports.EVMTransaction{}, domain.Unavailable(Source, "Transaction lookup failed", nil, err)
	}

	var decoded response
	decodeErr := json.Unmarshal(resp.Body, &decoded)
	if !resp.OK() {
		message := fmt.Sprintf("Covalent HTTP %d", resp.StatusCode)
		if decodeErr == nil && decoded.ErrorMessage != "" {
			message = decoded.ErrorMessage
		}
		return ports.EVMTransaction{}, domain.Unavailable(Source, message, string(resp.Body), nil)
	}
	if decodeErr != nil {
		return ports.EVMTransaction{}, domain.EmptyResult(Source, "Invalid JSON from Covalent", nil, string(resp.Body))
	}
	if decoded.Error || decoded.Data == nil || len(decoded.Data.Items) == 0 {
		message := decoded.ErrorMessage
		if message == "" {
			message = "Unable to retrieve transaction."
		}
		var raw map[string]any
		_ = json.Unmarshal(resp.Body, &raw)
		return ports.EVMTransaction{}, domain.EmptyResult(Source, message, decoded.ErrorCode, raw)
	}

	first := decoded.Data.Items[0]
	var tx item
	if err := json.Unmarshal(first, &tx); err != nil {
		return ports.EVMTransaction{}, domain.EmptyResult(Source, "Unexpected transaction shape", nil, string(first))
	}
	var raw map[string]any
	_ = json.Unmarshal(first, &raw)

	return ports.EVMTransaction{
		TxHash:      tx.TxHash,
		FromAddress: tx.FromAddress,
		ToAddress:   tx.ToAddress,
		Successful:  tx.Successful,
		Raw:         raw,
	}, nil
}
