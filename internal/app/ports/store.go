package ports

import (
	"context"

	"github.com/fr0stylo/trustguard/internal/app/domain"
)

// FeedReader serves blocklist snapshots. Get never fails; on refresh failure
// it returns the last known (possibly empty) snapshot.
type FeedReader interface {
	Get(ctx context.Context, name string) *domain.FeedSnapshot
}

// FeedSnapshotStore persists feed snapshots across restarts.
type FeedSnapshotStore interface {
	LoadFeedSnapshots(ctx context.Context) ([]*domain.FeedSnapshot, error)
	SaveFeedSnapshot(ctx context.Context, snapshot *domain.FeedSnapshot) error
}

// Notification is one outbound event about a verdict.
type Notification struct {
	Type    string
	Subject string
	Data    any
}

// Notifier publishes verdict notifications. Implementations must not block
// the caller on network I/O.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NopNotifier discards notifications.
type NopNotifier struct{}

// Notify implements Notifier.
func (NopNotifier) Notify(context.Context, Notification) {}
