// Package memory provides a process-local snapshot store for development and
// tests. Snapshots do not survive a restart.
package memory

import (
	"context"
	"sync"

	apperrors "github.com/jtpk2168/deskly-mobile-app-sub000/pkg/errors"
)

// SnapshotStore keeps the snapshot blob in memory.
type SnapshotStore struct {
	mu   sync.RWMutex
	blob []byte
	set  bool
}

// NewSnapshotStore returns an empty store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

// Load returns a copy of the stored blob.
func (s *SnapshotStore) Load(_ context.Context) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.set {
		return nil, apperrors.NotFound("cart snapshot", "memory")
	}
	out := make([]byte, len(s.blob))
	copy(out, s.blob)
	return out, nil
}

// Save stores a copy of blob.
func (s *SnapshotStore) Save(_ context.Context, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blob = append(s.blob[:0], blob...)
	s.set = true
	return nil
}

// Ping always succeeds.
func (s *SnapshotStore) Ping(_ context.Context) error {
	return nil
}
