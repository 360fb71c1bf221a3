package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dfryer1193/blogo/blog/domain"
	"github.com/dfryer1193/blogo/shared/db"
)

var _ domain.SyncStateRepository = (*SQLiteSyncStateRepository)(nil)

// SQLiteSyncStateRepository stores one sync marker per source branch.
// Markers are kept apart from posts.updated_at, which manual edits and publishing also move.
type SQLiteSyncStateRepository struct {
	db *sql.DB
}

func NewSyncStateRepository(sqlDB *sql.DB) *SQLiteSyncStateRepository {
	return &SQLiteSyncStateRepository{
		db: sqlDB,
	}
}

const getSyncedAtQuery = `SELECT synced_at FROM sync_state WHERE branch = ?`

// GetSyncedAt returns the zero time for a branch that was never synced.
func (r *SQLiteSyncStateRepository) GetSyncedAt(ctx context.Context, branch string) (time.Time, error) {
	var syncedAt sql.NullTime
	err := db.GetExecutor(ctx, r.db).QueryRowContext(ctx, getSyncedAtQuery, branch).Scan(&syncedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get sync marker for branch %s: %w", branch, err)
	}
	return syncedAt.Time, nil
}

// Timestamps are written in UTC, so the text comparison below orders them chronologically.
const setSyncedAtQuery = `
	INSERT INTO sync_state (branch, synced_at)
	VALUES (?, ?)
	ON CONFLICT(branch) DO UPDATE SET
		synced_at = excluded.synced_at
	WHERE excluded.synced_at > sync_state.synced_at
`

// SetSyncedAt moves the branch marker forward to at. Older values are ignored.
func (r *SQLiteSyncStateRepository) SetSyncedAt(ctx context.Context, branch string, at time.Time) error {
	if branch == "" {
		return fmt.Errorf("branch cannot be empty")
	}
	if at.IsZero() {
		return nil
	}

	if _, err := db.GetExecutor(ctx, r.db).ExecContext(ctx, setSyncedAtQuery, branch, at.UTC()); err != nil {
		return fmt.Errorf("failed to set sync marker for branch %s: %w", branch, err)
	}
	return nil
}
