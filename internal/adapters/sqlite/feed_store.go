package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/fr0stylo/trustguard/internal/app/domain"
	"github.com/fr0stylo/trustguard/internal/app/ports"
	"github.com/fr0stylo/trustguard/internal/db"
	"github.com/fr0stylo/trustguard/internal/upstream"
)

var _ ports.FeedSnapshotStore = (*FeedStore)(nil)

// FeedStore persists blocklist snapshots in SQLite.
type FeedStore struct {
	db      feedDatabase
	now     func() time.Time
	closeFn func() error
}

// NewFeedStore wraps an open database.
func NewFeedStore(database feedDatabase) *FeedStore {
	return &FeedStore{db: database, now: time.Now}
}

// OpenFeedStore opens (and migrates) the database at path. Query latencies go
// to tracker.
func OpenFeedStore(path string, tracker *upstream.LatencyTracker) (*FeedStore, error) {
	database, err := db.New(path, tracker)
	if err != nil {
		return nil, err
	}
	store := NewFeedStore(database)
	store.closeFn = database.Close
	return store, nil
}

// SaveFeedSnapshot replaces the stored copy of snapshot.Name.
func (s *FeedStore) SaveFeedSnapshot(ctx context.Context, snapshot *domain.FeedSnapshot) error {
	if snapshot == nil {
		return nil
	}
	entries := snapshot.List()
	sort.Strings(entries)
	encoded, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode %s entries: %w", snapshot.Name, err)
	}
	return s.db.UpsertFeedSnapshot(ctx, db.FeedSnapshotRow{
		Name:        snapshot.Name,
		FetchedAt:   snapshot.FetchedAt.UnixMilli(),
		EntryCount:  int64(len(entries)),
		EntriesJSON: string(encoded),
		UpdatedAt:   s.now().UnixMilli(),
	})
}

// LoadFeedSnapshots returns every stored snapshot. Rows that fail to decode
// are skipped so one bad row does not block warm start of the others.
func (s *FeedStore) LoadFeedSnapshots(ctx context.Context) ([]*domain.FeedSnapshot, error) {
	rows, err := s.db.ListFeedSnapshots(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.FeedSnapshot, 0, len(rows))
	for _, row := range rows {
		var entries []string
		if err := json.Unmarshal([]byte(row.EntriesJSON), &entries); err != nil {
			continue
		}
		out = append(out, domain.NewFeedSnapshot(row.Name, entries, time.UnixMilli(row.FetchedAt).UTC()))
	}
	return out, nil
}

// Close releases the database when the store opened it.
func (s *FeedStore) Close() error {
	if s.closeFn == nil {
		return nil
	}
	return s.closeFn()
}
