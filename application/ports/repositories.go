package ports

import (
	"context"

	"maxnotes/domain/core/entities"
	"maxnotes/domain/core/valueobjects"
)

// Snapshot is the full current set of notes for one scope, ordered by
// UpdatedAt descending. Snapshots handed to consumers are read-only
// copies; the next push invalidates them.
type Snapshot []*entities.Note

// NoteRepository is the per-session abstraction over the remote note
// collection. This is a port in hexagonal architecture - the domain doesn't
// know about the implementation.
//
// Mutations carry no application-level locking and may be issued
// concurrently; callers must not assume their write is visible in the next
// snapshot push, only eventual convergence.
type NoteRepository interface {
	// Scope returns the user id this repository instance is bound to
	Scope() string

	// Stream opens a fresh subscription to the collection. An initial
	// snapshot is pushed as soon as it is available, even if empty, and a
	// new snapshot is pushed on every remote change. The caller owns the
	// returned subscription and must Close it on all exit paths.
	Stream(ctx context.Context) (*Subscription, error)

	// Add persists a new note. The caller guarantees a fresh id.
	Add(ctx context.Context, note *entities.Note) error

	// Update upserts a note by id: merges into the remote representation
	// if the id exists, creates otherwise.
	Update(ctx context.Context, note *entities.Note) error

	// Delete removes a note by id. Deleting a non-existent id is not an
	// error.
	Delete(ctx context.Context, id valueobjects.NoteID) error

	// Close abandons the repository: every open subscription is failed
	// over to closed state and backend listeners are released. Buffered
	// pushes are dropped, not delivered.
	Close() error
}

// NoteRepositoryFactory constructs a repository bound to a scope.
// SessionController uses it to build a fresh instance per login.
type NoteRepositoryFactory func(ctx context.Context, scope string) (NoteRepository, error)
