// Package solanarpc resolves Solana transactions over JSON-RPC 2.0.
package solanarpc

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/fr0stylo/trustguard/internal/app/domain"
	"github.com/fr0stylo/trustguard/internal/app/ports"
	"github.com/fr0stylo/trustguard/internal/upstream"
)

// Source is the provenance name used in errors.
const Source = "solana"

// Default configuration values.
const (
	DefaultEndpoint = "https://api.mainnet-beta.solana.com"
	DefaultMethod   = "getConfirmedTransaction"
)

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

type parsedInstruction struct {
	Program   string          `json:"program"`
	ProgramID string          `json:"programId"`
	Parsed    json.RawMessage `json:"parsed"`
}

type parsedBody struct {
	Type string `json:"type"`
	Info struct {
		Destination string `json:"destination"`
	} `json:"info"`
}

type transactionResult struct {
	Slot        int64 `json:"slot"`
	Transaction struct {
		Message struct {
			Instructions []parsedInstruction `json:"instructions"`
		} `json:"message"`
	} `json:"transaction"`
}

// Client is the Solana chain RPC gateway.
type Client struct {
	endpoint  string
	method    string
	http      *upstream.Client
	requestID atomic.Uint64
}

// New creates a client. method selects the RPC used for lookups.
func New(endpoint, method string, client *upstream.Client) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if method == "" {
		method = DefaultMethod
	}
	return &Client{endpoint: endpoint, method: method, http: client}
}

// GetConfirmedTransaction looks up one transaction by signature with parsed
// instructions.
func (c *Client) GetConfirmedTransaction(ctx context.Context, signature string) (ports.SolanaTransaction, error) {
	config := map[string]any{"encoding": "jsonParsed", "commitment": "confirmed"}
	if c.method == "getTransaction" {
		config["maxSupportedTransactionVersion"] = 0
	}

	raw, err := c.call(ctx, c.method, []any{signature, config})
	if err != nil {
		return ports.SolanaTransaction{}, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return ports.SolanaTransaction{}, domain.EmptyResult(Source, "Transaction not found", nil, nil)
	}

	var result transactionResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return ports.SolanaTransaction{}, domain.EmptyResult(Source, "Unexpected transaction shape", nil, string(raw))
	}

	tx := ports.SolanaTransaction{Slot: result.Slot, Raw: raw}
	for _, ix := range result.Transaction.Message.Instructions {
		instruction := ports.SolanaInstruction{Program: ix.Program, ProgramID: ix.ProgramID}
		var body parsedBody
		// Some programs report "parsed" as a plain string.
		if len(ix.Parsed) > 0 && json.Unmarshal(ix.Parsed, &body) == nil {
			instruction.Type = body.Type
			instruction.Destination = body.Info.Destination
		}
		tx.Instructions = append(tx.Instructions, instruction)
	}
	return tx, nil
}

func (c *Client) call(ctx context.Context, method string, params []any) (json.RawMessage, error) {
	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      c.requestID.Add(1),
		Method:  method,
		Params:  params,
	}

	resp, err := c.http.PostJSON(ctx, method, c.endpoint, req)
	if err != nil {
		return nil, domain.Unavailable(Source, "Transaction lookup failed", nil, err)
	}
	if !resp.OK() {
		return nil, domain.Unavailable(Source, fmt.Sprintf("Solana RPC HTTP %d", resp.StatusCode), string(resp.Body), nil)
	}

	var decoded rpcResponse
	if err := json.Unmarshal(resp.Body, &decoded); err != nil {
		return nil, domain.EmptyResult(Source, "Invalid JSON-RPC response", nil, string(resp.Body))
	}
	if decoded.Error != nil {
		code := decoded.Error.Code
		return nil, &domain.UpstreamError{
			Kind:    domain.ErrorKindUpstreamUnavailable,
			Source:  Source,
			Message: decoded.Error.Message,
			Code:    &code,
			Err:     decoded.Error,
		}
	}
	return decoded.Result, nil
}
