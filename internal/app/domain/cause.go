package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Chain is a blockchain family.
type Chain string

const (
	// ChainEVM covers every EVM-compatible network, told apart by chain id.
	ChainEVM Chain = "evm"
	// ChainSolana is Solana mainnet.
	ChainSolana Chain = "solana"
)

// ParseChain normalizes a chain family name. Empty input is not a chain.
func ParseChain(value string) (Chain, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(ChainEVM):
		return ChainEVM, true
	case string(ChainSolana):
		return ChainSolana, true
	default:
		return "", false
	}
}

// ParseRequestChain is ParseChain for request parameters, where an omitted
// chain means evm.
func ParseRequestChain(value string) (Chain, bool) {
	if strings.TrimSpace(value) == "" {
		return ChainEVM, true
	}
	return ParseChain(value)
}

// ParseChainID accepts an integer chain id as a JSON number or a string of
// decimal digits. Booleans, fractions and exponent forms are rejected.
func ParseChainID(raw any) (int64, error) {
	switch v := raw.(type) {
	case json.Number:
		return parseDecimalChainID(v.String())
	case string:
		return parseDecimalChainID(strings.TrimSpace(v))
	case float64:
		if v != math.Trunc(v) || v < math.MinInt64 || v >= math.MaxInt64 {
			return 0, fmt.Errorf("chain id %v is not an integer", v)
		}
		return int64(v), nil
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	default:
		return 0, fmt.Errorf("chain id must be an integer, got %T", raw)
	}
}

func parseDecimalChainID(s string) (int64, error) {
	digits := strings.TrimPrefix(s, "-")
	if digits == "" || strings.TrimLeft(digits, "0123456789") != "" {
		return 0, fmt.Errorf("chain id %q is not a decimal integer", s)
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("chain id %q: %w", s, err)
	}
	return id, nil
}

// Cause is a verified donation recipient.
type Cause struct {
	Chain   Chain  `json:"chain"`
	ChainID *int64 `json:"chain_id,omitempty"`
	Address string `json:"address"`
	Name    string `json:"name"`
}

// Matches reports whether destination on the given chain pays this cause.
// EVM addresses compare case-insensitively and require an equal chain id;
// Solana addresses compare exactly.
func (c Cause) Matches(chain Chain, chainID int64, destination string) bool {
	if c.Chain != chain || destination == "" {
		return false
	}
	switch chain {
	case ChainEVM:
		if c.ChainID == nil || *c.ChainID != chainID {
			return false
		}
		return strings.ToLower(c.Address) == strings.ToLower(destination)
	case ChainSolana:
		return c.Address == destination
	default:
		return false
	}
}

// SourceFailure records one cause source that could not be read.
type SourceFailure struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}

// CauseRegistrySnapshot is the aggregate of every configured cause source,
// built fresh per request.
type CauseRegistrySnapshot struct {
	Causes        []Cause
	FailedSources []SourceFailure
}

// Unreliable reports whether the snapshot cannot distinguish "no recipients"
// from a total outage.
func (s CauseRegistrySnapshot) Unreliable() bool {
	return len(s.Causes) == 0 && len(s.FailedSources) > 0
}

// DonationMatch is the result of matching a transaction against the registry.
type DonationMatch struct {
	Chain                Chain
	ChainID              *int64
	TxHash               string
	DestinationAddresses []string
	Verified             bool
	Cause                *Cause
}

// CauseName returns the matched cause name, or nil when nothing matched.
func (m DonationMatch) CauseName() *string {
	if m.Cause == nil {
		return nil
	}
	name := m.Cause.Name
	return &name
}
