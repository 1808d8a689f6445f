package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fr0stylo/trustguard/internal/app/domain"
	"github.com/fr0stylo/trustguard/internal/app/ports"
)

type fakeScanner struct {
	mu       sync.Mutex
	requests []ports.RiskScanRequest
	result   map[string]any
	scanErr  error

	phishingCalls int
	signal        domain.PhishingSignal
	phishingErr   error
}

func (f *fakeScanner) Scan(_ context.Context, req ports.RiskScanRequest) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.result, f.scanErr
}

func (f *fakeScanner) PhishingSite(context.Context, string) (domain.PhishingSignal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.phishingCalls++
	return f.signal, f.phishingErr
}

type fakeSafeBrowsing struct {
	calls  int
	signal domain.PhishingSignal
	err    error
}

func (f *fakeSafeBrowsing) CheckURL(context.Context, string) (domain.PhishingSignal, error) {
	f.calls++
	return f.signal, f.err
}

type fakeFeeds struct {
	sets  map[string][]string
	reads []string
}

func (f *fakeFeeds) Get(_ context.Context, name string) *domain.FeedSnapshot {
	f.reads = append(f.reads, name)
	return domain.NewFeedSnapshot(name, f.sets[name], time.Time{})
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []ports.Notification
}

func (n *recordingNotifier) Notify(_ context.Context, note ports.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, note)
}

type fakeCauseSource struct {
	name   string
	causes []domain.Cause
	err    error
}

func (f fakeCauseSource) Name() string { return f.name }

func (f fakeCauseSource) FetchCauses(context.Context) ([]domain.Cause, error) {
	return f.causes, f.err
}

type fakeIndexer struct {
	calls int
	tx    ports.EVMTransaction
	err   error
}

func (f *fakeIndexer) GetTransaction(context.Context, int64, string) (ports.EVMTransaction, error) {
	f.calls++
	return f.tx, f.err
}

type fakeSolana struct {
	calls int
	tx    ports.SolanaTransaction
	err   error
}

func (f *fakeSolana) GetConfirmedTransaction(context.Context, string) (ports.SolanaTransaction, error) {
	f.calls++
	return f.tx, f.err
}

var errBoom = errors.New("boom")

func int64Ptr(v int64) *int64 { return &v }
