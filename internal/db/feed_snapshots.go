package db

import (
	"context"
	"fmt"
	"time"

	"github.com/fr0stylo/trustguard/internal/observability"
)

// FeedSnapshotRow is one persisted blocklist snapshot.
type FeedSnapshotRow struct {
	Name        string
	FetchedAt   int64
	EntryCount  int64
	EntriesJSON string
	UpdatedAt   int64
}

const upsertFeedSnapshot = `INSERT INTO feed_snapshots (name, fetched_at, entry_count, entries_json, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(name) DO UPDATE SET
    fetched_at = excluded.fetched_at,
    entry_count = excluded.entry_count,
    entries_json = excluded.entries_json,
    updated_at = excluded.updated_at`

const listFeedSnapshots = `SELECT name, fetched_at, entry_count, entries_json, updated_at
FROM feed_snapshots
ORDER BY name`

// UpsertFeedSnapshot replaces the stored snapshot for row.Name.
func (c *Database) UpsertFeedSnapshot(ctx context.Context, row FeedSnapshotRow) error {
	ctx, span := observability.StartDBSpan(ctx, "upsert_feed_snapshot", "exec")
	defer span.End()

	start := time.Now()
	_, err := c.db.ExecContext(ctx, upsertFeedSnapshot,
		row.Name, row.FetchedAt, row.EntryCount, row.EntriesJSON, row.UpdatedAt)
	c.tracker.Observe(Gateway+".upsert_feed_snapshot", time.Since(start))
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("upsert feed snapshot %s: %w", row.Name, err)
	}
	return nil
}

// ListFeedSnapshots returns every stored snapshot ordered by name.
func (c *Database) ListFeedSnapshots(ctx context.Context) ([]FeedSnapshotRow, error) {
	ctx, span := observability.StartDBSpan(ctx, "list_feed_snapshots", "query")
	defer span.End()

	start := time.Now()
	rows, err := c.db.QueryContext(ctx, listFeedSnapshots)
	defer func() { c.tracker.Observe(Gateway+".list_feed_snapshots", time.Since(start)) }()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list feed snapshots: %w", err)
	}
	defer rows.Close()

	var out []FeedSnapshotRow
	for rows.Next() {
		var row FeedSnapshotRow
		if err := rows.Scan(&row.Name, &row.FetchedAt, &row.EntryCount, &row.EntriesJSON, &row.UpdatedAt); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("scan feed snapshot: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("iterate feed snapshots: %w", err)
	}
	return out, nil
}
