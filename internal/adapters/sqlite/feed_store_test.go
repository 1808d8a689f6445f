package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/fr0stylo/trustguard/internal/app/domain"
	"github.com/fr0stylo/trustguard/internal/db"
)

func TestFeedStoreRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, err := OpenFeedStore(filepath.Join(t.TempDir(), "feeds"), nil)
	if err != nil {
		t.Fatalf("open feed store: %v", err)
	}
	defer func() { _ = store.Close() }()

	fetchedAt := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)
	snapshot := domain.NewFeedSnapshot(domain.FeedOpenPhish, []string{"https://b.example/", "https://a.example/"}, fetchedAt)
	if err := store.SaveFeedSnapshot(ctx, snapshot); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}

	loaded, err := store.LoadFeedSnapshots(ctx)
	if err != nil {
		t.Fatalf("load snapshots: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("expected 1 snapshot, got %d", len(loaded))
	}
	got := loaded[0]
	if got.Name != domain.FeedOpenPhish || got.Size() != 2 || !got.Contains("https://a.example/") {
		t.Fatalf("unexpected snapshot: %+v", got)
	}
	if !got.FetchedAt.Equal(fetchedAt) {
		t.Fatalf("fetched_at not preserved: %s", got.FetchedAt)
	}
}

type fakeFeedDatabase struct {
	rows    []db.FeedSnapshotRow
	listErr error
}

func (f *fakeFeedDatabase) UpsertFeedSnapshot(_ context.Context, row db.FeedSnapshotRow) error {
	f.rows = append(f.rows, row)
	return nil
}

func (f *fakeFeedDatabase) ListFeedSnapshots(context.Context) ([]db.FeedSnapshotRow, error) {
	return f.rows, f.listErr
}

func TestFeedStoreSkipsUndecodableRows(t *testing.T) {
	t.Parallel()

	fake := &fakeFeedDatabase{rows: []db.FeedSnapshotRow{
		{Name: "urlhaus", EntriesJSON: "not json"},
		{Name: "phishtank", EntriesJSON: `["x"]`, FetchedAt: 1000},
	}}
	loaded, err := NewFeedStore(fake).LoadFeedSnapshots(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 1 || loaded[0].Name != "phishtank" {
		t.Fatalf("unexpected snapshots: %+v", loaded)
	}
}

func TestFeedStorePropagatesListError(t *testing.T) {
	t.Parallel()

	fake := &fakeFeedDatabase{listErr: errors.New("locked")}
	if _, err := NewFeedStore(fake).LoadFeedSnapshots(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
