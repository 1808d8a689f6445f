package sqlite

import (
	"context"

	"github.com/fr0stylo/trustguard/internal/db"
)

type feedDatabase interface {
	UpsertFeedSnapshot(ctx context.Context, row db.FeedSnapshotRow) error
	ListFeedSnapshots(ctx context.Context) ([]db.FeedSnapshotRow, error)
}
