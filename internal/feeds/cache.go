// Package feeds keeps TTL-bounded snapshots of community phishing blocklists.
package feeds

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/fr0stylo/trustguard/internal/app/domain"
	"github.com/fr0stylo/trustguard/internal/app/ports"
	"github.com/fr0stylo/trustguard/internal/observability"
	"github.com/fr0stylo/trustguard/internal/upstream"
)

const (
	// DefaultTTL is how long a fetched snapshot is served without refetching.
	DefaultTTL = 15 * time.Minute
	// Gateway names feed downloads in spans and latency stats.
	Gateway = "feeds"
)

// Source describes one blocklist feed.
type Source struct {
	Name   string
	URL    string
	Parser Parser
}

// DefaultSources returns the three public feeds in lookup order.
func DefaultSources(openPhishURL, urlhausURL, phishTankURL string) []Source {
	return []Source{
		{Name: domain.FeedOpenPhish, URL: openPhishURL, Parser: &PlainListParser{}},
		{Name: domain.FeedURLhaus, URL: urlhausURL, Parser: &PlainListParser{}},
		{Name: domain.FeedPhishTank, URL: phishTankURL, Parser: &PhishTankParser{}},
	}
}

type feedState struct {
	source     Source
	snapshot   atomic.Pointer[domain.FeedSnapshot]
	refreshing atomic.Bool
}

// Cache serves feed snapshots, refreshing lazily on read once the TTL has
// passed. Refresh failures are never returned to callers.
type Cache struct {
	client  *upstream.Client
	ttl     time.Duration
	now     func() time.Time
	log     *slog.Logger
	store   ports.FeedSnapshotStore
	metrics *observability.Metrics
	feeds   map[string]*feedState
	order   []string
}

// Option configures Cache.
type Option func(*Cache)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the logger for refresh failures.
func WithLogger(log *slog.Logger) Option {
	return func(c *Cache) {
		if log != nil {
			c.log = log
		}
	}
}

// WithStore persists successful refreshes and allows Warm.
func WithStore(store ports.FeedSnapshotStore) Option {
	return func(c *Cache) {
		c.store = store
	}
}

// WithMetrics records refresh outcomes.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(c *Cache) {
		c.metrics = metrics
	}
}

// NewCache creates a cache with one empty, already-expired snapshot per source.
func NewCache(client *upstream.Client, sources []Source, opts ...Option) *Cache {
	c := &Cache{
		client: client,
		ttl:    DefaultTTL,
		now:    time.Now,
		log:    slog.Default(),
		feeds:  make(map[string]*feedState, len(sources)),
	}
	for _, opt := range opts {
		opt(c)
	}
	for _, source := range sources {
		state := &feedState{source: source}
		state.snapshot.Store(domain.NewFeedSnapshot(source.Name, nil, time.Time{}))
		c.feeds[source.Name] = state
		c.order = append(c.order, source.Name)
	}
	return c
}

// Get returns the snapshot for name, refreshing it first when expired. While
// one caller refreshes a feed, concurrent callers get the previous snapshot.
// Unknown feed names yield an empty snapshot.
func (c *Cache) Get(ctx context.Context, name string) *domain.FeedSnapshot {
	state, ok := c.feeds[name]
	if !ok {
		return domain.NewFeedSnapshot(name, nil, time.Time{})
	}

	current := state.snapshot.Load()
	if c.fresh(current) {
		return current
	}
	if !state.refreshing.CompareAndSwap(false, true) {
		return current
	}
	defer state.refreshing.Store(false)

	// Another caller may have finished a refresh between Load and CAS.
	if latest := state.snapshot.Load(); c.fresh(latest) {
		return latest
	}

	fetched, err := c.fetch(context.WithoutCancel(ctx), state.source)
	c.metrics.FeedRefresh(ctx, name, err == nil)
	if err != nil {
		c.log.WarnContext(ctx, "feed refresh failed, serving previous snapshot",
			"feed", name,
			"entries", current.Size(),
			"error", err,
		)
		return current
	}

	state.snapshot.Store(fetched)
	c.persist(ctx, fetched)
	return fetched
}

// Warm loads persisted snapshots, keeping their original fetch time so the
// TTL still decides when to refetch.
func (c *Cache) Warm(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	snapshots, err := c.store.LoadFeedSnapshots(ctx)
	if err != nil {
		return fmt.Errorf("load feed snapshots: %w", err)
	}
	for _, snapshot := range snapshots {
		if snapshot == nil {
			continue
		}
		state, ok := c.feeds[snapshot.Name]
		if !ok {
			continue
		}
		state.snapshot.Store(snapshot)
		c.log.InfoContext(ctx, "feed snapshot restored",
			"feed", snapshot.Name,
			"entries", snapshot.Size(),
			"fetched_at", snapshot.FetchedAt,
		)
	}
	return nil
}

// Status describes one feed snapshot without triggering a refresh.
type Status struct {
	Name      string
	Entries   int
	FetchedAt time.Time
	Age       time.Duration
	Fresh     bool
}

// Statuses reports every feed in lookup order.
func (c *Cache) Statuses() []Status {
	now := c.now()
	out := make([]Status, 0, len(c.order))
	for _, name := range c.order {
		snapshot := c.feeds[name].snapshot.Load()
		status := Status{
			Name:      name,
			Entries:   snapshot.Size(),
			FetchedAt: snapshot.FetchedAt,
			Fresh:     c.fresh(snapshot),
		}
		if !snapshot.FetchedAt.IsZero() {
			status.Age = now.Sub(snapshot.FetchedAt)
		}
		out = append(out, status)
	}
	return out
}

func (c *Cache) fresh(snapshot *domain.FeedSnapshot) bool {
	if snapshot == nil || snapshot.FetchedAt.IsZero() {
		return false
	}
	return c.now().Sub(snapshot.FetchedAt) < c.ttl
}

func (c *Cache) fetch(ctx context.Context, source Source) (*domain.FeedSnapshot, error) {
	resp, err := c.client.Get(ctx, source.Name, source.URL)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	entries, err := source.Parser.Parse(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("parse %s feed: %w", source.Name, err)
	}
	return domain.NewFeedSnapshot(source.Name, entries, c.now()), nil
}

func (c *Cache) persist(ctx context.Context, snapshot *domain.FeedSnapshot) {
	if c.store == nil {
		return
	}
	if err := c.store.SaveFeedSnapshot(context.WithoutCancel(ctx), snapshot); err != nil {
		c.log.WarnContext(ctx, "feed snapshot not persisted", "feed", snapshot.Name, "error", err)
	}
}
