// Package causesource reads verified donation recipient lists over HTTP.
package causesource

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cast"

	"github.com/fr0stylo/trustguard/internal/app/domain"
	"github.com/fr0stylo/trustguard/internal/upstream"
)

// Gateway is the upstream gateway name for cause lists.
const Gateway = "causes"

// HTTPSource fetches one JSON array of causes from a URL.
type HTTPSource struct {
	url  string
	http *upstream.Client
	log  *slog.Logger
}

// New creates a source for url.
func New(url string, client *upstream.Client, log *slog.Logger) *HTTPSource {
	if log == nil {
		log = slog.Default()
	}
	return &HTTPSource{url: strings.TrimSpace(url), http: client, log: log}
}

// FromList builds one source per non-empty URL, keeping declaration order.
func FromList(urls []string, client *upstream.Client, log *slog.Logger) []*HTTPSource {
	out := make([]*HTTPSource, 0, len(urls))
	for _, u := range urls {
		if strings.TrimSpace(u) == "" {
			continue
		}
		out = append(out, New(u, client, log))
	}
	return out
}

// Name identifies the source in failure reports.
func (s *HTTPSource) Name() string {
	return s.url
}

// FetchCauses returns the causes in list order. Entries that are not usable
// causes are skipped; a body that is not a JSON array is a failure.
func (s *HTTPSource) FetchCauses(ctx context.Context) ([]domain.Cause, error) {
	resp, err := s.http.Get(ctx, "fetch", s.url)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	var entries []map[string]any
	dec := json.NewDecoder(bytes.NewReader(resp.Body))
	dec.UseNumber()
	if err := dec.Decode(&entries); err != nil {
		return nil, fmt.Errorf("invalid cause list: %w", err)
	}

	causes := make([]domain.Cause, 0, len(entries))
	for i, entry := range entries {
		cause, err := decodeCause(entry)
		if err != nil {
			s.log.WarnContext(ctx, "skipping cause entry", "source", s.url, "index", i, "error", err)
			continue
		}
		causes = append(causes, cause)
	}
	return causes, nil
}

func decodeCause(entry map[string]any) (domain.Cause, error) {
	chain, ok := domain.ParseChain(cast.ToString(entry["chain"]))
	if !ok {
		return domain.Cause{}, fmt.Errorf("unknown chain %q", cast.ToString(entry["chain"]))
	}
	address := strings.TrimSpace(cast.ToString(entry["address"]))
	if address == "" {
		return domain.Cause{}, errors.New("missing address")
	}

	cause := domain.Cause{
		Chain:   chain,
		Address: address,
		Name:    strings.TrimSpace(cast.ToString(entry["name"])),
	}
	if raw, present := entry["chain_id"]; present && raw != nil {
		id, err := domain.ParseChainID(raw)
		if err != nil {
			return domain.Cause{}, fmt.Errorf("invalid chain_id: %w", err)
		}
		cause.ChainID = &id
	}
	if chain == domain.ChainEVM && cause.ChainID == nil {
		return domain.Cause{}, fmt.Errorf("evm cause %s has no chain_id", address)
	}
	return cause, nil
}
