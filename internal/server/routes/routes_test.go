package routes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fr0stylo/trustguard/internal/app/domain"
	"github.com/fr0stylo/trustguard/internal/app/ports"
	appservices "github.com/fr0stylo/trustguard/internal/app/services"
	"github.com/fr0stylo/trustguard/internal/feeds"
	"github.com/fr0stylo/trustguard/internal/server"
	"github.com/fr0stylo/trustguard/internal/server/routes"
)

const (
	evmAddress = "0x00000000000000000000000000000000000000aa"
	evmTxHash  = "0x1111111111111111111111111111111111111111111111111111111111111111"
)

type stubScanner struct {
	scans   int
	result  map[string]any
	scanErr error
	signal  domain.PhishingSignal
	siteErr error
}

func (s *stubScanner) Scan(context.Context, ports.RiskScanRequest) (map[string]any, error) {
	s.scans++
	return s.result, s.scanErr
}

func (s *stubScanner) PhishingSite(context.Context, string) (domain.PhishingSignal, error) {
	return s.signal, s.siteErr
}

type stubCauseSource struct {
	name   string
	causes []domain.Cause
	err    error
}

func (s stubCauseSource) Name() string { return s.name }

func (s stubCauseSource) FetchCauses(context.Context) ([]domain.Cause, error) {
	return s.causes, s.err
}

type stubIndexer struct {
	calls int
	to    string
}

func (s *stubIndexer) GetTransaction(context.Context, int64, string) (ports.EVMTransaction, error) {
	s.calls++
	return ports.EVMTransaction{ToAddress: s.to}, nil
}

type stubSolana struct {
	destinations []string
}

func (s *stubSolana) GetConfirmedTransaction(context.Context, string) (ports.SolanaTransaction, error) {
	tx := ports.SolanaTransaction{}
	for _, d := range s.destinations {
		tx.Instructions = append(tx.Instructions, ports.SolanaInstruction{Program: "system", Type: "transfer", Destination: d})
	}
	return tx, nil
}

type stubFeedStatuses struct{}

func (stubFeedStatuses) Statuses() []feeds.Status {
	return []feeds.Status{
		{Name: domain.FeedOpenPhish, Entries: 3, FetchedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), Age: time.Minute, Fresh: true},
		{Name: domain.FeedURLhaus},
	}
}

type fixture struct {
	scanner *stubScanner
	sources []ports.CauseSource
	indexer *stubIndexer
	solana  *stubSolana
}

func newFixture() *fixture {
	return &fixture{
		scanner: &stubScanner{},
		indexer: &stubIndexer{},
		solana:  &stubSolana{},
	}
}

func (f *fixture) handler() http.Handler {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := server.New(log, "trustguard-test")

	phishing := appservices.NewPhishingResolver(f.scanner, nil, nil)
	registry := appservices.NewCauseRegistry(f.sources, nil, log)
	verifier := appservices.NewDonationVerifier(registry, f.indexer, f.solana, nil)

	srv.RegisterRouter(routes.NewRiskRoutes(appservices.NewRiskDispatcher(f.scanner, phishing)))
	srv.RegisterRouter(routes.NewDonationRoutes(verifier, registry))
	srv.RegisterRouter(routes.NewManifestRoutes())
	srv.RegisterRouter(routes.NewHealthRoutes(stubFeedStatuses{}))
	return srv.Handler()
}

func do(t *testing.T, h http.Handler, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var decoded map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func data(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	require.Equal(t, true, body["success"], "body: %v", body)
	out, ok := body["data"].(map[string]any)
	require.True(t, ok)
	return out
}

func TestManifestListsEightTools(t *testing.T) {
	rec, body := do(t, newFixture().handler(), http.MethodGet, "/mcp.json", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	tools, ok := body["tools"].([]any)
	require.True(t, ok)
	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		names = append(names, tool.(map[string]any)["function"].(map[string]any)["name"].(string))
	}
	assert.Equal(t, []string{
		"check_token", "check_wallet", "check_nft", "check_url",
		"simulate_sol_tx", "check_sol_token", "verify_donation", "list_verified_causes",
	}, names)

	manifest, err := routes.LoadManifest()
	require.NoError(t, err)
	assert.Len(t, manifest.Tools, 8)
}

func TestRootRedirectsToManifest(t *testing.T) {
	rec, _ := do(t, newFixture().handler(), http.MethodGet, "/", nil)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/mcp.json", rec.Header().Get("Location"))
}

func TestHealthReportsFeeds(t *testing.T) {
	rec, body := do(t, newFixture().handler(), http.MethodGet, "/healthz", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	feedList := body["feeds"].([]any)
	require.Len(t, feedList, 2)
	first := feedList[0].(map[string]any)
	assert.Equal(t, "openphish", first["name"])
	assert.Equal(t, "2026-01-02T03:04:05Z", first["fetched_at"])
	assert.EqualValues(t, 60, first["age_seconds"])
	assert.Nil(t, feedList[1].(map[string]any)["fetched_at"])
}

func TestCheckURLFlagged(t *testing.T) {
	f := newFixture()
	f.scanner.signal = domain.PhishingSignal{Flagged: true, Source: domain.SourceGoogle}

	rec, body := do(t, f.handler(), http.MethodPost, "/check_url/", map[string]any{"url": "https://evil.example/login"})

	require.Equal(t, http.StatusOK, rec.Code)
	got := data(t, body)
	assert.Equal(t, true, got["is_phishing"])
	assert.Equal(t, "google", got["source"])
}

func TestCheckURLAbortIsApplicationFailure(t *testing.T) {
	f := newFixture()
	f.scanner.siteErr = domain.Unavailable("goplus", "Unable to process request at the moment.", nil, nil)

	rec, body := do(t, f.handler(), http.MethodPost, "/check_url/", map[string]any{"url": "https://evil.example/login"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Unable to process request at the moment.", body["message"])
	assert.Contains(t, body, "code")
	assert.Contains(t, body, "raw")
}

func TestCheckURLRejectsRelativeURL(t *testing.T) {
	rec, body := do(t, newFixture().handler(), http.MethodPost, "/check_url/", map[string]any{"url": "not a url"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, map[string]any{"field": "url"}, body["raw"])
}

func TestCheckTokenAcceptsStringChainID(t *testing.T) {
	f := newFixture()
	f.scanner.result = map[string]any{evmAddress: map[string]any{"is_honeypot": "1"}}

	rec, body := do(t, f.handler(), http.MethodPost, "/check_token/", map[string]any{"address": evmAddress, "chain_id": "56"})

	require.Equal(t, http.StatusOK, rec.Code)
	got := data(t, body)
	assert.Equal(t, "1", got["scam_risk"])
	assert.EqualValues(t, 56, got["chain_id"])
}

func TestCheckTokenValidation(t *testing.T) {
	cases := map[string]map[string]any{
		"missing chain id": {"address": evmAddress},
		"bad address":      {"address": "0x123", "chain_id": 1},
		"zero chain id":    {"address": evmAddress, "chain_id": 0},
		"non numeric id":   {"address": evmAddress, "chain_id": "bsc"},
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			rec, body := do(t, newFixture().handler(), http.MethodPost, "/check_token/", payload)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, false, body["success"])
		})
	}
}

func TestChainIDRejectsNonIntegers(t *testing.T) {
	cases := map[string]any{
		"bool":            true,
		"fraction":        56.9,
		"fraction string": "56.9",
		"hex string":      "0x38",
		"object":          map[string]any{"id": 56},
	}
	for name, chainID := range cases {
		t.Run("check_token "+name, func(t *testing.T) {
			f := newFixture()
			rec, body := do(t, f.handler(), http.MethodPost, "/check_token/", map[string]any{"address": evmAddress, "chain_id": chainID})

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, map[string]any{"field": "chain_id"}, body["raw"])
			assert.Zero(t, f.scanner.scans)
		})
		t.Run("verify_donation "+name, func(t *testing.T) {
			f := newFixture()
			rec, body := do(t, f.handler(), http.MethodPost, "/verify_donation/", map[string]any{"tx_hash": evmTxHash, "chain_id": chainID})

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, map[string]any{"field": "chain_id"}, body["raw"])
			assert.Zero(t, f.indexer.calls)
		})
	}
}

func TestCheckTokenEmptyResultCarriesUpstreamCode(t *testing.T) {
	f := newFixture()
	code := 2
	f.scanner.scanErr = domain.EmptyResult("goplus", "partial data", &code, map[string]any{"code": 2})

	rec, body := do(t, f.handler(), http.MethodPost, "/check_token/", map[string]any{"address": evmAddress, "chain_id": 1})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "partial data", body["message"])
	assert.EqualValues(t, 2, body["code"])
}

func TestCheckSolTokenRequiresBase58Address(t *testing.T) {
	f := newFixture()
	f.scanner.result = map[string]any{}
	handler := f.handler()

	rec, _ := do(t, handler, http.MethodPost, "/check_sol_token/", map[string]any{"address": "0OIl"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	mint := base58.Encode(bytes.Repeat([]byte{9}, 32))
	rec, body := do(t, handler, http.MethodPost, "/check_sol_token/", map[string]any{"address": mint})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, mint, data(t, body)["address"])
}

func TestSimulateSolTxRequiresBase64(t *testing.T) {
	f := newFixture()
	f.scanner.result = map[string]any{"risk_level": "high"}
	handler := f.handler()

	rec, _ := do(t, handler, http.MethodPost, "/simulate_sol_tx/", map[string]any{"tx_base64": "***"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body := do(t, handler, http.MethodPost, "/simulate_sol_tx/", map[string]any{"tx_base64": "AQID"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "high", data(t, body)["risk_level"])
}

func TestVerifyDonationEVM(t *testing.T) {
	f := newFixture()
	f.sources = []ports.CauseSource{stubCauseSource{name: "list", causes: []domain.Cause{
		{Chain: domain.ChainEVM, ChainID: int64Ptr(56), Address: "0x" + strings.ToUpper(evmAddress[2:]), Name: "X"},
	}}}
	f.indexer.to = evmAddress

	rec, body := do(t, f.handler(), http.MethodPost, "/verify_donation/", map[string]any{"tx_hash": evmTxHash, "chain_id": 56})

	require.Equal(t, http.StatusOK, rec.Code)
	got := data(t, body)
	assert.Equal(t, true, got["verified"])
	assert.Equal(t, "X", got["cause"])
	assert.Equal(t, evmAddress, got["to"])
	assert.EqualValues(t, 56, got["chain_id"])
	assert.Equal(t, evmTxHash, got["tx_hash"])
}

func TestVerifyDonationSolana(t *testing.T) {
	f := newFixture()
	f.sources = []ports.CauseSource{stubCauseSource{name: "list", causes: []domain.Cause{
		{Chain: domain.ChainSolana, Address: "Addr2", Name: "S"},
	}}}
	f.solana.destinations = []string{"Addr1", "Addr2"}
	signature := base58.Encode(bytes.Repeat([]byte{7}, 64))

	rec, body := do(t, f.handler(), http.MethodPost, "/verify_donation/", map[string]any{"tx_hash": signature, "chain": "solana"})

	require.Equal(t, http.StatusOK, rec.Code)
	got := data(t, body)
	assert.Equal(t, "solana", got["chain"])
	assert.Equal(t, []any{"Addr1", "Addr2"}, got["to"])
	assert.Equal(t, true, got["verified"])
	assert.Equal(t, "S", got["cause"])
}

func TestVerifyDonationUnmatchedHasNullCause(t *testing.T) {
	f := newFixture()
	f.sources = []ports.CauseSource{stubCauseSource{name: "list", causes: []domain.Cause{
		{Chain: domain.ChainEVM, ChainID: int64Ptr(56), Address: "0x00000000000000000000000000000000000000ab", Name: "X"},
	}}}
	f.indexer.to = evmAddress

	rec, body := do(t, f.handler(), http.MethodPost, "/verify_donation/", map[string]any{"tx_hash": evmTxHash, "chain_id": 56})

	require.Equal(t, http.StatusOK, rec.Code)
	got := data(t, body)
	assert.Equal(t, false, got["verified"])
	assert.Contains(t, got, "cause")
	assert.Nil(t, got["cause"])
}

func TestVerifyDonationAllSourcesFailed(t *testing.T) {
	f := newFixture()
	f.sources = []ports.CauseSource{
		stubCauseSource{name: "https://a.example", err: assert.AnError},
		stubCauseSource{name: "https://b.example", err: assert.AnError},
	}

	rec, body := do(t, f.handler(), http.MethodPost, "/verify_donation/", map[string]any{"tx_hash": evmTxHash, "chain_id": 56})

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "All cause sources failed", body["message"])
	assert.Len(t, body["raw"], 2)
	assert.Zero(t, f.indexer.calls)
}

func TestVerifyDonationValidation(t *testing.T) {
	cases := map[string]map[string]any{
		"evm without chain id":   {"tx_hash": evmTxHash},
		"evm hash too short":     {"tx_hash": "0x1234", "chain_id": 1},
		"solana hash not base58": {"tx_hash": evmTxHash, "chain": "solana"},
		"unknown chain":          {"tx_hash": evmTxHash, "chain": "bitcoin"},
		"missing tx hash":        {"chain_id": 1},
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture()
			rec, body := do(t, f.handler(), http.MethodPost, "/verify_donation/", payload)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, false, body["success"])
			assert.Zero(t, f.indexer.calls)
		})
	}
}

func TestListCauses(t *testing.T) {
	f := newFixture()
	f.sources = []ports.CauseSource{
		stubCauseSource{name: "a", causes: []domain.Cause{{Chain: domain.ChainSolana, Address: "Addr2", Name: "S"}}},
		stubCauseSource{name: "b", err: assert.AnError},
	}

	rec, body := do(t, f.handler(), http.MethodGet, "/causes/", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	got := data(t, body)
	assert.Len(t, got["causes"], 1)
	failed := got["failed_sources"].([]any)
	require.Len(t, failed, 1)
	assert.Equal(t, "b", failed[0].(map[string]any)["source"])
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	rec, body := do(t, newFixture().handler(), http.MethodGet, "/nope", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, body["success"])
}

func int64Ptr(v int64) *int64 { return &v }
