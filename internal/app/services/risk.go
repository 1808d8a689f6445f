package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/spf13/cast"

	"github.com/fr0stylo/trustguard/internal/app/ports"
)

// solanaChainID is the GoPlus chain id for Solana token lookups.
const solanaChainID = "101"

// tokenWarningFields are GoPlus token flags reported as warnings when "1".
var tokenWarningFields = []string{
	"is_mintable",
	"is_proxy",
	"hidden_owner",
	"can_take_back_ownership",
	"owner_change_balance",
	"selfdestruct",
	"external_call",
	"transfer_pausable",
	"cannot_sell_all",
	"cannot_buy",
	"trading_cooldown",
	"is_anti_whale",
	"anti_whale_modifiable",
	"slippage_modifiable",
	"personal_slippage_modifiable",
	"is_blacklisted",
	"is_whitelisted",
}

// TokenReport summarizes an EVM token scan.
type TokenReport struct {
	Address       string         `json:"address"`
	ChainID       int64          `json:"chain_id"`
	ScamRisk      string         `json:"scam_risk"`
	Blacklisted   string         `json:"blacklisted"`
	BuyTax        string         `json:"buy_tax"`
	SellTax       string         `json:"sell_tax"`
	HolderCount   string         `json:"holder_count"`
	LPHolderCount string         `json:"lp_holder_count"`
	Warnings      []string       `json:"warnings"`
	Raw           map[string]any `json:"raw"`
}

// WalletReport summarizes an address scan.
type WalletReport struct {
	Address        string         `json:"address"`
	ChainID        int64          `json:"chain_id"`
	MaliciousLabel any            `json:"malicious_label"`
	SecurityLevel  any            `json:"security_level"`
	RiskFlags      []string       `json:"risk_flags"`
	Raw            map[string]any `json:"raw"`
}

// NFTReport summarizes an NFT scan.
type NFTReport struct {
	Contract         string         `json:"contract"`
	TokenID          string         `json:"token_id"`
	ChainID          int64          `json:"chain_id"`
	SecurityRisk     any            `json:"security_risk"`
	VerifiedContract bool           `json:"verified_contract"`
	Raw              map[string]any `json:"raw"`
}

// SolanaTokenReport summarizes an SPL token scan.
type SolanaTokenReport struct {
	Address          string         `json:"address"`
	ScamRisk         string         `json:"scam_risk"`
	Mintable         string         `json:"mintable"`
	TransferPausable string         `json:"transfer_pausable"`
	OwnerAddress     string         `json:"owner_address"`
	Raw              map[string]any `json:"raw"`
}

// SimulationReport summarizes a Solana transaction simulation.
type SimulationReport struct {
	Simulated bool           `json:"simulated"`
	RiskLevel string         `json:"risk_level"`
	Raw       map[string]any `json:"raw"`
}

// URLReport is the phishing verdict for one URL.
type URLReport struct {
	URL        string `json:"url"`
	IsPhishing bool   `json:"is_phishing"`
	Source     string `json:"source"`
	Note       string `json:"note"`
	Raw        any    `json:"raw"`
}

// RiskDispatcher maps single-purpose risk queries onto the risk-scan gateway.
// Gateway errors are returned unchanged; only URL checks cascade, through
// the phishing resolver.
type RiskDispatcher struct {
	scanner  ports.RiskScanner
	phishing *PhishingResolver
}

// NewRiskDispatcher creates a dispatcher.
func NewRiskDispatcher(scanner ports.RiskScanner, phishing *PhishingResolver) *RiskDispatcher {
	return &RiskDispatcher{scanner: scanner, phishing: phishing}
}

// CheckURL resolves a URL through the phishing cascade.
func (d *RiskDispatcher) CheckURL(ctx context.Context, rawURL string) (URLReport, error) {
	verdict, err := d.phishing.Resolve(ctx, rawURL)
	if err != nil {
		return URLReport{}, err
	}
	report := URLReport{
		URL:        rawURL,
		IsPhishing: verdict.Flagged,
		Source:     string(verdict.Source),
		Raw:        verdict.Raw,
	}
	if verdict.Flagged {
		report.Note = fmt.Sprintf("Flagged as phishing by %s.", verdict.Source)
	} else {
		report.Note = "No phishing signal from the risk scan, safe browsing or community feeds."
	}
	return report, nil
}

// CheckToken scans an EVM token contract.
func (d *RiskDispatcher) CheckToken(ctx context.Context, chainID int64, address string) (TokenReport, error) {
	result, err := d.scanner.Scan(ctx, ports.RiskScanRequest{
		Path:  fmt.Sprintf("/api/v1/token_security/%d", chainID),
		Query: url.Values{"contract_addresses": []string{address}},
	})
	if err != nil {
		return TokenReport{}, err
	}
	token := unwrapByAddress(result, address)
	return TokenReport{
		Address:       address,
		ChainID:       chainID,
		ScamRisk:      fieldOr(token, "is_honeypot", "0"),
		Blacklisted:   fieldOr(token, "is_blacklisted", "0"),
		BuyTax:        field(token, "buy_tax"),
		SellTax:       field(token, "sell_tax"),
		HolderCount:   field(token, "holder_count"),
		LPHolderCount: field(token, "lp_holder_count"),
		Warnings:      tokenWarnings(token),
		Raw:           token,
	}, nil
}

// CheckWallet scans an address for malicious activity.
func (d *RiskDispatcher) CheckWallet(ctx context.Context, chainID int64, address string) (WalletReport, error) {
	result, err := d.scanner.Scan(ctx, ports.RiskScanRequest{
		Path:  fmt.Sprintf("/api/v1/address_security/%d", chainID),
		Query: url.Values{"address": []string{address}},
	})
	if err != nil {
		return WalletReport{}, err
	}
	return WalletReport{
		Address:        address,
		ChainID:        chainID,
		MaliciousLabel: result["malicious_label"],
		SecurityLevel:  result["security_level"],
		RiskFlags:      raisedFlags(result),
		Raw:            result,
	}, nil
}

// CheckNFT scans an NFT contract and token id.
func (d *RiskDispatcher) CheckNFT(ctx context.Context, chainID int64, contract, tokenID string) (NFTReport, error) {
	result, err := d.scanner.Scan(ctx, ports.RiskScanRequest{
		Path: fmt.Sprintf("/api/v1/nft_security/%d", chainID),
		Query: url.Values{
			"contract_address": []string{contract},
			"token_id":         []string{tokenID},
		},
	})
	if err != nil {
		return NFTReport{}, err
	}
	return NFTReport{
		Contract:         contract,
		TokenID:          tokenID,
		ChainID:          chainID,
		SecurityRisk:     result["security_risk"],
		VerifiedContract: field(result, "nft_verified") == "1",
		Raw:              result,
	}, nil
}

// CheckSolanaToken scans an SPL token mint.
func (d *RiskDispatcher) CheckSolanaToken(ctx context.Context, address string) (SolanaTokenReport, error) {
	result, err := d.scanner.Scan(ctx, ports.RiskScanRequest{
		Path:  "/api/v1/token_security/" + solanaChainID,
		Query: url.Values{"contract_address": []string{address}},
	})
	if err != nil {
		return SolanaTokenReport{}, err
	}
	token := unwrapByAddress(result, address)
	return SolanaTokenReport{
		Address:          address,
		ScamRisk:         fieldOr(token, "is_honeypot", "0"),
		Mintable:         fieldOr(token, "mintable", fieldOr(token, "is_mintable", "0")),
		TransferPausable: fieldOr(token, "transfer_pausable", "0"),
		OwnerAddress:     firstField(token, "owner_address", "owner", "creator_address"),
		Raw:              token,
	}, nil
}

// SimulateSolanaTx asks the risk-scan API to simulate a base64 transaction.
func (d *RiskDispatcher) SimulateSolanaTx(ctx context.Context, txBase64 string) (SimulationReport, error) {
	result, err := d.scanner.Scan(ctx, ports.RiskScanRequest{
		Path:   "/api/v1/solana_transaction_simulate",
		Method: http.MethodPost,
		Body:   map[string]string{"transaction": txBase64},
	})
	if err != nil {
		return SimulationReport{}, err
	}
	return SimulationReport{
		Simulated: true,
		RiskLevel: fieldOr(result, "risk_level", "low"),
		Raw:       result,
	}, nil
}

// unwrapByAddress returns the per-address object GoPlus keys token results by,
// or the result itself when it is not keyed.
func unwrapByAddress(result map[string]any, address string) map[string]any {
	want := strings.ToLower(address)
	for key, value := range result {
		if strings.ToLower(key) != want {
			continue
		}
		if nested, ok := value.(map[string]any); ok {
			return nested
		}
	}
	if len(result) == 1 {
		for _, value := range result {
			if nested, ok := value.(map[string]any); ok {
				return nested
			}
		}
	}
	return result
}

// field reads a GoPlus flag. Values may be strings, numbers, booleans or
// {"status": ...} objects.
func field(data map[string]any, key string) string {
	value, ok := data[key]
	if !ok || value == nil {
		return ""
	}
	switch v := value.(type) {
	case map[string]any:
		return cast.ToString(v["status"])
	case bool:
		if v {
			return "1"
		}
		return "0"
	default:
		return cast.ToString(v)
	}
}

func fieldOr(data map[string]any, key, fallback string) string {
	if value := field(data, key); value != "" {
		return value
	}
	return fallback
}

func firstField(data map[string]any, keys ...string) string {
	for _, key := range keys {
		if value := field(data, key); value != "" {
			return value
		}
	}
	return ""
}

func tokenWarnings(token map[string]any) []string {
	warnings := make([]string, 0)
	for _, key := range tokenWarningFields {
		if field(token, key) == "1" {
			warnings = append(warnings, key)
		}
	}
	if field(token, "is_open_source") == "0" {
		warnings = append(warnings, "not_open_source")
	}
	return warnings
}

// raisedFlags lists every top-level field set to "1", sorted.
func raisedFlags(result map[string]any) []string {
	flags := make([]string, 0)
	for key := range result {
		if field(result, key) == "1" {
			flags = append(flags, key)
		}
	}
	sort.Strings(flags)
	return flags
}
