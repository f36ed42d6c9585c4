package memory

import (
	"context"
	"sort"
	"sync"

	"maxnotes/application/ports"
	"maxnotes/domain/core/entities"
	"maxnotes/domain/core/valueobjects"
	pkgerrors "maxnotes/pkg/errors"

	"go.uber.org/zap"
)

// NoteRepository is the in-memory implementation of ports.NoteRepository.
// It satisfies the identical contract as the SurrealDB implementation and
// backs tests and development setups without a running backend.
type NoteRepository struct {
	scope  string
	logger *zap.Logger

	mu     sync.Mutex
	notes  map[string]*entities.Note
	subs   map[int]*ports.Subscription
	nextID int
	closed bool
}

// NewNoteRepository creates an empty in-memory repository bound to scope
func NewNoteRepository(scope string, logger *zap.Logger) *NoteRepository {
	return &NoteRepository{
		scope:  scope,
		logger: logger,
		notes:  make(map[string]*entities.Note),
		subs:   make(map[int]*ports.Subscription),
	}
}

// Scope returns the user id this repository is bound to
func (r *NoteRepository) Scope() string {
	return r.scope
}

// Stream opens a fresh subscription and immediately pushes the current
// snapshot, even if empty
func (r *NoteRepository) Stream(ctx context.Context) (*ports.Subscription, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, pkgerrors.NewTransportError("repository is closed", nil)
	}

	id := r.nextID
	r.nextID++

	sub := ports.NewSubscription(func() {
		r.mu.Lock()
		delete(r.subs, id)
		r.mu.Unlock()
	})
	r.subs[id] = sub
	snapshot := r.snapshotLocked()
	r.mu.Unlock()

	sub.Publish(snapshot)
	return sub, nil
}

// Add persists a new note
func (r *NoteRepository) Add(ctx context.Context, note *entities.Note) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return pkgerrors.NewWriteError("add", nil)
	}
	r.notes[note.ID().String()] = note.Clone()
	r.broadcastLocked()
	r.mu.Unlock()
	return nil
}

// Update upserts a note by id
func (r *NoteRepository) Update(ctx context.Context, note *entities.Note) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return pkgerrors.NewWriteError("update", nil)
	}
	r.notes[note.ID().String()] = note.Clone()
	r.broadcastLocked()
	r.mu.Unlock()
	return nil
}

// Delete removes a note by id; a missing id is not an error
func (r *NoteRepository) Delete(ctx context.Context, id valueobjects.NoteID) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return pkgerrors.NewWriteError("delete", nil)
	}
	if _, ok := r.notes[id.String()]; ok {
		delete(r.notes, id.String())
		r.broadcastLocked()
	}
	r.mu.Unlock()
	return nil
}

// Close abandons the repository and releases every open subscription.
// Buffered pushes are dropped.
func (r *NoteRepository) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	subs := make([]*ports.Subscription, 0, len(r.subs))
	for _, sub := range r.subs {
		subs = append(subs, sub)
	}
	r.subs = make(map[int]*ports.Subscription)
	r.mu.Unlock()

	for _, sub := range subs {
		sub.Close() //nolint:errcheck
	}
	return nil
}

func (r *NoteRepository) broadcastLocked() {
	snapshot := r.snapshotLocked()
	for _, sub := range r.subs {
		sub.Publish(snapshot)
	}
}

// snapshotLocked builds the full collection snapshot ordered by UpdatedAt
// descending, cloning every note so consumers hold read-only copies
func (r *NoteRepository) snapshotLocked() ports.Snapshot {
	snapshot := make(ports.Snapshot, 0, len(r.notes))
	for _, note := range r.notes {
		snapshot = append(snapshot, note.Clone())
	}
	sort.Slice(snapshot, func(i, j int) bool {
		ti, tj := snapshot[i].UpdatedAt(), snapshot[j].UpdatedAt()
		if ti.Equal(tj) {
			return snapshot[i].ID().String() < snapshot[j].ID().String()
		}
		return ti.After(tj)
	})
	return snapshot
}
