// Package memory provides an in-memory attachment store for tests and
// local development
package memory

import (
	"context"
	"sync"

	pkgerrors "maxnotes/pkg/errors"
)

// Store implements ports.AttachmentStore backed by a map
type Store struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{blobs: make(map[string][]byte)}
}

// Save stores a copy of the blob under the key, replacing any previous
// blob with the same key
func (s *Store) Save(ctx context.Context, data []byte, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", pkgerrors.NewCancelledError("save attachment")
	}
	if key == "" {
		return "", pkgerrors.NewValidationError("attachment key cannot be empty")
	}

	stored := make([]byte, len(data))
	copy(stored, data)

	s.mu.Lock()
	s.blobs[key] = stored
	s.mu.Unlock()
	return key, nil
}

// Load returns a copy of the blob for a ref
func (s *Store) Load(ctx context.Context, ref string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, pkgerrors.NewCancelledError("load attachment")
	}

	s.mu.RLock()
	stored, ok := s.blobs[ref]
	s.mu.RUnlock()
	if !ok {
		return nil, pkgerrors.NewNotFoundError("attachment")
	}

	data := make([]byte, len(stored))
	copy(data, stored)
	return data, nil
}

// Delete removes the blob for a ref. Deleting a missing blob succeeds.
func (s *Store) Delete(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return pkgerrors.NewCancelledError("delete attachment")
	}

	s.mu.Lock()
	delete(s.blobs, ref)
	s.mu.Unlock()
	return nil
}

// Len reports the number of stored blobs
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
