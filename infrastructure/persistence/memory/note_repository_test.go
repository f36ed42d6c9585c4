package memory

import (
	"context"
	"testing"
	"time"

	"maxnotes/application/ports"
	"maxnotes/domain/core/entities"
	"maxnotes/domain/core/valueobjects"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newNote(t *testing.T, title string) *entities.Note {
	t.Helper()
	note, err := entities.NewNote(title, "body")
	require.NoError(t, err)
	return note
}

func receive(t *testing.T, sub *ports.Subscription) ports.Snapshot {
	t.Helper()
	select {
	case snapshot, ok := <-sub.Snapshots():
		require.True(t, ok, "subscription closed unexpectedly")
		return snapshot
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return nil
	}
}

func TestNoteRepository_StreamPushesInitialSnapshot(t *testing.T) {
	repo := NewNoteRepository("alice", zap.NewNop())
	ctx := context.Background()

	sub, err := repo.Stream(ctx)
	require.NoError(t, err)
	defer sub.Close() //nolint:errcheck

	snapshot := receive(t, sub)
	assert.Empty(t, snapshot)
}

func TestNoteRepository_AddBroadcastsNewestFirst(t *testing.T) {
	repo := NewNoteRepository("alice", zap.NewNop())
	ctx := context.Background()

	first := newNote(t, "first")
	require.NoError(t, repo.Add(ctx, first))

	sub, err := repo.Stream(ctx)
	require.NoError(t, err)
	defer sub.Close() //nolint:errcheck
	receive(t, sub) // initial

	time.Sleep(5 * time.Millisecond) // distinct updatedAt
	second := newNote(t, "second")
	require.NoError(t, repo.Add(ctx, second))

	snapshot := receive(t, sub)
	require.Len(t, snapshot, 2)
	assert.Equal(t, "second", snapshot[0].Title())
	assert.Equal(t, "first", snapshot[1].Title())
}

func TestNoteRepository_UpdateMovesNoteToFront(t *testing.T) {
	repo := NewNoteRepository("alice", zap.NewNop())
	ctx := context.Background()

	older := newNote(t, "older")
	require.NoError(t, repo.Add(ctx, older))
	time.Sleep(5 * time.Millisecond)
	newer := newNote(t, "newer")
	require.NoError(t, repo.Add(ctx, newer))

	sub, err := repo.Stream(ctx)
	require.NoError(t, err)
	defer sub.Close() //nolint:errcheck
	receive(t, sub)

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, older.UpdateContent("older revised", "body"))
	require.NoError(t, repo.Update(ctx, older))

	snapshot := receive(t, sub)
	require.Len(t, snapshot, 2)
	assert.Equal(t, "older revised", snapshot[0].Title())
}

func TestNoteRepository_DeleteIsIdempotent(t *testing.T) {
	repo := NewNoteRepository("alice", zap.NewNop())
	ctx := context.Background()

	note := newNote(t, "doomed")
	require.NoError(t, repo.Add(ctx, note))

	sub, err := repo.Stream(ctx)
	require.NoError(t, err)
	defer sub.Close() //nolint:errcheck
	receive(t, sub)

	require.NoError(t, repo.Delete(ctx, note.ID()))
	snapshot := receive(t, sub)
	assert.Empty(t, snapshot)

	// Deleting again is a silent success and pushes nothing.
	require.NoError(t, repo.Delete(ctx, note.ID()))
	select {
	case extra := <-sub.Snapshots():
		t.Fatalf("unexpected push after idempotent delete: %v", extra)
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, repo.Delete(ctx, valueobjects.NewNoteID()))
}

func TestNoteRepository_SnapshotsAreIsolatedCopies(t *testing.T) {
	repo := NewNoteRepository("alice", zap.NewNop())
	ctx := context.Background()

	note := newNote(t, "original")
	require.NoError(t, repo.Add(ctx, note))

	sub, err := repo.Stream(ctx)
	require.NoError(t, err)
	defer sub.Close() //nolint:errcheck

	snapshot := receive(t, sub)
	require.Len(t, snapshot, 1)

	// Mutating the received copy must not leak into the store.
	require.NoError(t, snapshot[0].UpdateContent("mutated", "body"))

	sub2, err := repo.Stream(ctx)
	require.NoError(t, err)
	defer sub2.Close() //nolint:errcheck
	fresh := receive(t, sub2)
	require.Len(t, fresh, 1)
	assert.Equal(t, "original", fresh[0].Title())
}

func TestNoteRepository_CloseReleasesSubscriptions(t *testing.T) {
	repo := NewNoteRepository("alice", zap.NewNop())
	ctx := context.Background()

	sub, err := repo.Stream(ctx)
	require.NoError(t, err)
	receive(t, sub)

	require.NoError(t, repo.Close())

	_, ok := <-sub.Snapshots()
	assert.False(t, ok)
	assert.NoError(t, sub.Err())

	// A closed repository accepts no further work.
	_, err = repo.Stream(ctx)
	assert.Error(t, err)
	assert.Error(t, repo.Add(ctx, newNote(t, "late")))
	require.NoError(t, repo.Close())
}
