package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jtpk2168/deskly-mobile-app-sub000/pkg/database"
	apperrors "github.com/jtpk2168/deskly-mobile-app-sub000/pkg/errors"
)

const (
	loadQuery = `SELECT payload FROM cart_snapshots WHERE slot_key = $1`

	saveQuery = `
		INSERT INTO cart_snapshots (slot_key, payload, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (slot_key) DO UPDATE
		SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`
)

// SnapshotStore implements repository.SnapshotStore on one row of the
// cart_snapshots table.
type SnapshotStore struct {
	pool database.DBTX
	key  string
	now  func() time.Time
}

// NewSnapshotStore creates a PostgreSQL-backed snapshot store for key.
func NewSnapshotStore(pool database.DBTX, key string) *SnapshotStore {
	return &SnapshotStore{
		pool: pool,
		key:  key,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Load reads the snapshot row.
func (s *SnapshotStore) Load(ctx context.Context) (blob []byte, err error) {
	ctx, end := database.TraceQuery(ctx, "LoadCartSnapshot", loadQuery)
	defer func() { end(err) }()

	if err = s.pool.QueryRow(ctx, loadQuery, s.key).Scan(&blob); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("cart snapshot", s.key)
		}
		return nil, fmt.Errorf("select cart snapshot: %w", err)
	}
	return blob, nil
}

// Save upserts the snapshot row.
func (s *SnapshotStore) Save(ctx context.Context, blob []byte) (err error) {
	ctx, end := database.TraceQuery(ctx, "SaveCartSnapshot", saveQuery)
	defer func() { end(err) }()

	if _, err = s.pool.Exec(ctx, saveQuery, s.key, blob, s.now()); err != nil {
		return fmt.Errorf("upsert cart snapshot: %w", err)
	}
	return nil
}

// Ping runs a trivial query.
func (s *SnapshotStore) Ping(ctx context.Context) error {
	var one int
	return s.pool.QueryRow(ctx, "SELECT 1").Scan(&one)
}
