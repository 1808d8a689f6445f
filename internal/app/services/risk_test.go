package services

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fr0stylo/trustguard/internal/app/domain"
)

func TestCheckTokenUnwrapsAddressKey(t *testing.T) {
	scanner := &fakeScanner{result: map[string]any{
		"0xabc": map[string]any{
			"is_honeypot":    "1",
			"buy_tax":        "0.1",
			"is_mintable":    "1",
			"is_open_source": "0",
			"holder_count":   42,
		},
	}}

	report, err := NewRiskDispatcher(scanner, nil).CheckToken(context.Background(), 56, "0xABC")

	require.NoError(t, err)
	require.Len(t, scanner.requests, 1)
	assert.Equal(t, "/api/v1/token_security/56", scanner.requests[0].Path)
	assert.Equal(t, "0xABC", scanner.requests[0].Query.Get("contract_addresses"))
	assert.Equal(t, "1", report.ScamRisk)
	assert.Equal(t, "0", report.Blacklisted)
	assert.Equal(t, "0.1", report.BuyTax)
	assert.Equal(t, "42", report.HolderCount)
	assert.Equal(t, []string{"is_mintable", "not_open_source"}, report.Warnings)
}

func TestCheckWalletListsRaisedFlags(t *testing.T) {
	scanner := &fakeScanner{result: map[string]any{
		"phishing_activities": "1",
		"cybercrime":          "1",
		"stealing_attack":     "0",
		"malicious_label":     "1",
	}}

	report, err := NewRiskDispatcher(scanner, nil).CheckWallet(context.Background(), 1, "0xdead")

	require.NoError(t, err)
	assert.Equal(t, "/api/v1/address_security/1", scanner.requests[0].Path)
	assert.Equal(t, []string{"cybercrime", "malicious_label", "phishing_activities"}, report.RiskFlags)
}

func TestCheckNFTReadsStatusObjects(t *testing.T) {
	scanner := &fakeScanner{result: map[string]any{
		"nft_verified":  map[string]any{"status": 1},
		"security_risk": "low",
	}}

	report, err := NewRiskDispatcher(scanner, nil).CheckNFT(context.Background(), 1, "0xnft", "7")

	require.NoError(t, err)
	assert.Equal(t, "7", scanner.requests[0].Query.Get("token_id"))
	assert.True(t, report.VerifiedContract)
	assert.Equal(t, "low", report.SecurityRisk)
}

func TestSimulateSolanaTxPosts(t *testing.T) {
	scanner := &fakeScanner{result: map[string]any{}}

	report, err := NewRiskDispatcher(scanner, nil).SimulateSolanaTx(context.Background(), "AQID")

	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, scanner.requests[0].Method)
	assert.Equal(t, map[string]string{"transaction": "AQID"}, scanner.requests[0].Body)
	assert.True(t, report.Simulated)
	assert.Equal(t, "low", report.RiskLevel)
}

func TestCheckSolanaTokenUsesSolanaChain(t *testing.T) {
	scanner := &fakeScanner{result: map[string]any{"Mint111": map[string]any{"mintable": map[string]any{"status": "1"}, "creator_address": "Creator"}}}

	report, err := NewRiskDispatcher(scanner, nil).CheckSolanaToken(context.Background(), "Mint111")

	require.NoError(t, err)
	assert.Equal(t, "/api/v1/token_security/101", scanner.requests[0].Path)
	assert.Equal(t, "1", report.Mintable)
	assert.Equal(t, "Creator", report.OwnerAddress)
}

func TestDispatcherReturnsGatewayErrorsUnchanged(t *testing.T) {
	gatewayErr := domain.EmptyResult("goplus", "no data", nil, nil)
	scanner := &fakeScanner{scanErr: gatewayErr}

	_, err := NewRiskDispatcher(scanner, nil).CheckToken(context.Background(), 1, "0xabc")

	assert.Same(t, gatewayErr, err)
}

func TestCheckURLReportsVerdict(t *testing.T) {
	scanner := &fakeScanner{signal: domain.PhishingSignal{Flagged: true, Source: domain.SourceGoPlus}}
	dispatcher := NewRiskDispatcher(scanner, NewPhishingResolver(scanner, nil, nil))

	report, err := dispatcher.CheckURL(context.Background(), phishURL)

	require.NoError(t, err)
	assert.True(t, report.IsPhishing)
	assert.Equal(t, "goplus", report.Source)
	assert.Equal(t, fmt.Sprintf("Flagged as phishing by %s.", "goplus"), report.Note)
}

func TestClassifyError(t *testing.T) {
	cases := []struct {
		err  error
		want domain.ErrorKind
	}{
		{nil, domain.ErrorKindUnknown},
		{errBoom, domain.ErrorKindUnknown},
		{domain.Invalid("url", "is required"), domain.ErrorKindValidation},
		{&domain.AggregateError{}, domain.ErrorKindSourceAggregateFailure},
		{fmt.Errorf("wrap: %w", domain.EmptyResult("goplus", "x", nil, nil)), domain.ErrorKindUpstreamEmptyResult},
		{domain.Unavailable("covalent", "x", nil, errBoom), domain.ErrorKindUpstreamUnavailable},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifyError(tc.err))
	}
}
