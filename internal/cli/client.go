package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/fr0stylo/trustguard/internal/upstream"
)

const clientGateway = "trustguard"

// envelope mirrors the server's response wrapper.
type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Code    any             `json:"code"`
	Raw     json.RawMessage `json:"raw"`
}

// apiError is a failure envelope returned by the server.
type apiError struct {
	Status  int
	Message string
	Code    any
}

func (e *apiError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Code != nil {
		return fmt.Sprintf("%s (code %v, HTTP %d)", msg, e.Code, e.Status)
	}
	return fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
}

type apiClient struct {
	base string
	http *upstream.Client
}

func newAPIClient(cfg *clientConfig) *apiClient {
	return &apiClient{
		base: strings.TrimRight(cfg.serverAddr, "/"),
		http: upstream.New(clientGateway, cfg.timeout),
	}
}

// call invokes a tool endpoint and returns the data member of a successful
// envelope.
func (c *apiClient) call(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	resp, err := c.http.Do(ctx, strings.Trim(path, "/"), method, c.base+path, body)
	if err != nil {
		return nil, err
	}
	var env envelope
	if err := json.Unmarshal(resp.Body, &env); err != nil || env.Success == nil {
		return nil, fmt.Errorf("unexpected response from %s (HTTP %d)", path, resp.StatusCode)
	}
	if !*env.Success {
		return nil, &apiError{Status: resp.StatusCode, Message: env.Message, Code: env.Code}
	}
	return env.Data, nil
}

// raw fetches a document that is not wrapped in an envelope.
func (c *apiClient) raw(ctx context.Context, path string) ([]byte, error) {
	resp, err := c.http.Get(ctx, strings.Trim(path, "/"), c.base+path)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, &apiError{Status: resp.StatusCode}
	}
	return resp.Body, nil
}

func printJSON(w io.Writer, data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
