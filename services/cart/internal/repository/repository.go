package repository

import (
	"context"
)

// SnapshotStore holds the serialized cart in a single fixed slot.
type SnapshotStore interface {
	// Load returns the stored blob. An empty slot yields an apperrors
	// NOT_FOUND error.
	Load(ctx context.Context) ([]byte, error)

	// Save overwrites the slot with blob.
	Save(ctx context.Context, blob []byte) error

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
}
