package ports

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/fr0stylo/trustguard/internal/app/domain"
)

// RiskScanRequest is one call against the risk-scan API.
type RiskScanRequest struct {
	Path   string
	Method string
	Query  url.Values
	Body   any
}

// RiskScanner is the risk-scan gateway. Scan returns the decoded "result"
// object or an *domain.UpstreamError.
type RiskScanner interface {
	Scan(ctx context.Context, req RiskScanRequest) (map[string]any, error)
	// PhishingSite checks a URL. When the risk-scan API has no usable answer
	// the gateway delegates to safe browsing and returns that signal instead.
	PhishingSite(ctx context.Context, rawURL string) (domain.PhishingSignal, error)
}

// SafeBrowsing is the safe-browsing gateway.
type SafeBrowsing interface {
	CheckURL(ctx context.Context, rawURL string) (domain.PhishingSignal, error)
}

// EVMTransaction is the part of an indexed EVM transaction the verifier needs.
type EVMTransaction struct {
	TxHash      string
	FromAddress string
	ToAddress   string
	Successful  *bool
	Raw         map[string]any
}

// TransactionIndexer is the EVM chain-indexer gateway.
type TransactionIndexer interface {
	GetTransaction(ctx context.Context, chainID int64, txHash string) (EVMTransaction, error)
}

// SolanaInstruction is one top-level instruction of a parsed Solana transaction.
type SolanaInstruction struct {
	Program     string
	ProgramID   string
	Type        string
	Destination string
}

// SolanaTransaction is a confirmed Solana transaction as returned by RPC.
type SolanaTransaction struct {
	Slot         int64
	Instructions []SolanaInstruction
	Raw          json.RawMessage
}

// SolanaRPC is the Solana chain RPC gateway.
type SolanaRPC interface {
	GetConfirmedTransaction(ctx context.Context, signature string) (SolanaTransaction, error)
}

// CauseSource is one external list of verified donation recipients.
type CauseSource interface {
	Name() string
	FetchCauses(ctx context.Context) ([]domain.Cause, error)
}
