package entities

import (
	"strings"
	"testing"
	"time"

	"maxnotes/domain/config"
	"maxnotes/domain/core/valueobjects"
	pkgerrors "maxnotes/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNote(t *testing.T) {
	note, err := NewNote("Groceries", "milk, eggs")
	require.NoError(t, err)

	assert.False(t, note.ID().IsZero())
	assert.Equal(t, "Groceries", note.Title())
	assert.Equal(t, "milk, eggs", note.Body())
	assert.Nil(t, note.Location())
	assert.False(t, note.HasAttachment())
	assert.Equal(t, note.CreatedAt(), note.UpdatedAt())
}

func TestNewNote_TrimsWhitespace(t *testing.T) {
	note, err := NewNote("  Groceries  ", "  milk  ")
	require.NoError(t, err)
	assert.Equal(t, "Groceries", note.Title())
	assert.Equal(t, "milk", note.Body())
}

func TestNewNote_RejectsEmptyTitle(t *testing.T) {
	for _, title := range []string{"", "   ", "\t\n"} {
		_, err := NewNote(title, "body")
		require.Error(t, err, "title %q", title)
		assert.True(t, pkgerrors.IsValidation(err))
	}
}

func TestNewNote_EnforcesConfiguredLengths(t *testing.T) {
	cfg := &config.DomainConfig{MaxTitleLength: 10, MaxBodyLength: 20}

	_, err := NewNoteWithConfig(strings.Repeat("a", 11), "body", cfg)
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = NewNoteWithConfig("title", strings.Repeat("b", 21), cfg)
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = NewNoteWithConfig(strings.Repeat("a", 10), strings.Repeat("b", 20), cfg)
	assert.NoError(t, err)
}

func TestNote_LengthLimitsCountRunesNotBytes(t *testing.T) {
	cfg := &config.DomainConfig{MaxTitleLength: 4, MaxBodyLength: 100}

	// Four runes, twelve bytes.
	_, err := NewNoteWithConfig("日本語で", "", cfg)
	assert.NoError(t, err)
}

func TestNote_UpdateContent(t *testing.T) {
	note, err := NewNote("Groceries", "milk")
	require.NoError(t, err)
	before := note.UpdatedAt()

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, note.UpdateContent("Groceries", "milk and eggs"))

	assert.Equal(t, "milk and eggs", note.Body())
	assert.True(t, note.UpdatedAt().After(before))
}

func TestNote_UpdateContentWithSameValuesIsNoOp(t *testing.T) {
	note, err := NewNote("Groceries", "milk")
	require.NoError(t, err)
	before := note.UpdatedAt()

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, note.UpdateContent("Groceries", "milk"))

	assert.Equal(t, before, note.UpdatedAt())
}

func TestNote_UpdateContentRejectsInvalidWithoutMutating(t *testing.T) {
	note, err := NewNote("Groceries", "milk")
	require.NoError(t, err)

	err = note.UpdateContent("", "new body")
	require.Error(t, err)
	assert.Equal(t, "Groceries", note.Title())
	assert.Equal(t, "milk", note.Body())
}

func TestNote_AttachmentLifecycle(t *testing.T) {
	note, err := NewNote("Trip", "photos")
	require.NoError(t, err)

	require.Error(t, note.SetAttachmentRef(""))
	assert.False(t, note.HasAttachment())

	require.NoError(t, note.SetAttachmentRef(note.ID().String()))
	assert.True(t, note.HasAttachment())
	assert.Equal(t, note.ID().String(), note.AttachmentRef())

	note.ClearAttachment()
	assert.False(t, note.HasAttachment())
	assert.Empty(t, note.AttachmentRef())
}

func TestReconstructNote(t *testing.T) {
	id := valueobjects.NewNoteID()
	loc, err := valueobjects.NewLocation(48.2, 16.37)
	require.NoError(t, err)
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	updated := created.Add(time.Hour)

	note, err := ReconstructNote(id, "Trip", "photos", &loc, "ref-1", created, updated)
	require.NoError(t, err)

	assert.True(t, note.ID().Equals(id))
	assert.Equal(t, created, note.CreatedAt())
	assert.Equal(t, updated, note.UpdatedAt())
	require.NotNil(t, note.Location())
	assert.True(t, note.Location().Equals(loc))
	assert.Equal(t, "ref-1", note.AttachmentRef())
}

func TestReconstructNote_RejectsStructuralViolations(t *testing.T) {
	now := time.Now()

	_, err := ReconstructNote(valueobjects.NoteID{}, "t", "b", nil, "", now, now)
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = ReconstructNote(valueobjects.NewNoteID(), "t", "b", nil, "", now, now.Add(-time.Second))
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestReconstructNote_SkipsContentValidation(t *testing.T) {
	now := time.Now()

	// Stored data is trusted even when it would fail creation rules.
	note, err := ReconstructNote(valueobjects.NewNoteID(), "", strings.Repeat("x", 100000), nil, "", now, now)
	require.NoError(t, err)
	assert.Empty(t, note.Title())
}

func TestNote_CloneIsIndependent(t *testing.T) {
	loc, err := valueobjects.NewLocation(48.2, 16.37)
	require.NoError(t, err)

	note, err := NewNote("Trip", "photos")
	require.NoError(t, err)
	note.SetLocation(loc)

	clone := note.Clone()
	require.NoError(t, clone.UpdateContent("Changed", "changed"))
	other, err := valueobjects.NewLocation(-33.86, 151.2)
	require.NoError(t, err)
	clone.SetLocation(other)

	assert.Equal(t, "Trip", note.Title())
	assert.True(t, note.Location().Equals(loc))
}

func TestNote_TouchAdvancesUpdatedAt(t *testing.T) {
	note, err := NewNote("Trip", "photos")
	require.NoError(t, err)
	before := note.UpdatedAt()

	time.Sleep(5 * time.Millisecond)
	note.Touch()

	assert.True(t, note.UpdatedAt().After(before))
	assert.False(t, note.UpdatedAt().Before(note.CreatedAt()))
}
