package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/jtpk2168/deskly-mobile-app-sub000/pkg/errors"
)

// SnapshotStore implements repository.SnapshotStore on a single Redis key.
// The key has no TTL: the cart outlives any session.
type SnapshotStore struct {
	client *redis.Client
	key    string
}

// NewSnapshotStore creates a Redis-backed snapshot store for key.
func NewSnapshotStore(client *redis.Client, key string) *SnapshotStore {
	return &SnapshotStore{
		client: client,
		key:    key,
	}
}

// Load reads the snapshot blob.
func (s *SnapshotStore) Load(ctx context.Context) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound("cart snapshot", s.key)
		}
		return nil, fmt.Errorf("redis get cart snapshot: %w", err)
	}
	return data, nil
}

// Save overwrites the snapshot blob.
func (s *SnapshotStore) Save(ctx context.Context, blob []byte) error {
	if err := s.client.Set(ctx, s.key, blob, 0).Err(); err != nil {
		return fmt.Errorf("redis set cart snapshot: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func (s *SnapshotStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
