package safebrowsing

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fr0stylo/trustguard/internal/app/domain"
	"github.com/fr0stylo/trustguard/internal/upstream"
)

func TestCheckURLFlagsOnMatches(t *testing.T) {
	var got findRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.URL.Query().Get("key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"matches":[{"threatType":"SOCIAL_ENGINEERING"}]}`))
	}))
	defer srv.Close()

	client := New(srv.URL, "secret", "", upstream.New(Source, time.Second))
	signal, err := client.CheckURL(context.Background(), "https://evil.example/")
	require.NoError(t, err)
	assert.True(t, signal.Flagged)
	assert.Equal(t, domain.SourceGoogle, signal.Source)

	assert.Equal(t, "web3trustguard", got.Client.ClientID)
	assert.Equal(t, []string{"MALWARE", "SOCIAL_ENGINEERING", "UNWANTED_SOFTWARE"}, got.ThreatInfo.ThreatTypes)
	assert.Equal(t, []string{"ANY_PLATFORM"}, got.ThreatInfo.PlatformTypes)
	require.Len(t, got.ThreatInfo.ThreatEntries, 1)
	assert.Equal(t, "https://evil.example/", got.ThreatInfo.ThreatEntries[0].URL)
}

func TestCheckURLCleanOnEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	signal, err := New(srv.URL, "k", "", upstream.New(Source, time.Second)).CheckURL(context.Background(), "https://ok.example/")
	require.NoError(t, err)
	assert.False(t, signal.Flagged)
}

func TestCheckURLNon200IsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := New(srv.URL, "k", "", upstream.New(Source, time.Second)).CheckURL(context.Background(), "https://ok.example/")
	require.ErrorIs(t, err, domain.ErrUpstreamUnavailable)

	var upstreamErr *domain.UpstreamError
	require.True(t, errors.As(err, &upstreamErr))
	assert.Equal(t, Source, upstreamErr.Source)
	assert.Equal(t, "Google Safe Browsing HTTP 429", upstreamErr.Message)
}
