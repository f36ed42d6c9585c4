package entities

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"maxnotes/domain/config"
	"maxnotes/domain/core/valueobjects"
	pkgerrors "maxnotes/pkg/errors"
)

// Note is the main entity representing a user-authored note.
// This is a rich domain model with encapsulated business logic: the id is
// immutable after creation and updatedAt never precedes createdAt.
type Note struct {
	id            valueobjects.NoteID
	title         string
	body          string
	location      *valueobjects.Location
	attachmentRef string
	createdAt     time.Time
	updatedAt     time.Time
}

// NewNote creates a new note with business rule validation
func NewNote(title, body string) (*Note, error) {
	return NewNoteWithConfig(title, body, config.DefaultDomainConfig())
}

// NewNoteWithConfig creates a new note with validation and configuration
func NewNoteWithConfig(title, body string, cfg *config.DomainConfig) (*Note, error) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	title = strings.TrimSpace(title)
	body = strings.TrimSpace(body)

	if err := validateContent(title, body, cfg); err != nil {
		return nil, err
	}

	now := time.Now()
	return &Note{
		id:        valueobjects.NewNoteID(),
		title:     title,
		body:      body,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructNote reconstructs a note from repository data with preserved
// timestamps. No content validation is applied: existing stored data is
// trusted, only structural invariants are enforced.
func ReconstructNote(
	id valueobjects.NoteID,
	title, body string,
	location *valueobjects.Location,
	attachmentRef string,
	createdAt, updatedAt time.Time,
) (*Note, error) {
	if id.IsZero() {
		return nil, pkgerrors.NewValidationError("note ID cannot be empty")
	}
	if updatedAt.Before(createdAt) {
		return nil, pkgerrors.NewValidationError("updatedAt cannot precede createdAt")
	}

	n := &Note{
		id:            id,
		title:         title,
		body:          body,
		attachmentRef: attachmentRef,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
	if location != nil {
		loc := *location
		n.location = &loc
	}
	return n, nil
}

// ID returns the note's unique identifier
func (n *Note) ID() valueobjects.NoteID {
	return n.id
}

// Title returns the note's title
func (n *Note) Title() string {
	return n.title
}

// Body returns the note's body text
func (n *Note) Body() string {
	return n.body
}

// Location returns the note's location, or nil if none was recorded
func (n *Note) Location() *valueobjects.Location {
	if n.location == nil {
		return nil
	}
	loc := *n.location
	return &loc
}

// AttachmentRef returns the opaque key of the note's attachment blob,
// or "" if the note has no attachment
func (n *Note) AttachmentRef() string {
	return n.attachmentRef
}

// HasAttachment reports whether the note references an attachment blob
func (n *Note) HasAttachment() bool {
	return n.attachmentRef != ""
}

// CreatedAt returns when the note was created
func (n *Note) CreatedAt() time.Time {
	return n.createdAt
}

// UpdatedAt returns when the note was last updated
func (n *Note) UpdatedAt() time.Time {
	return n.updatedAt
}

// UpdateContent replaces title and body with validation
func (n *Note) UpdateContent(title, body string) error {
	return n.UpdateContentWithConfig(title, body, config.DefaultDomainConfig())
}

// UpdateContentWithConfig replaces title and body with validation and
// configuration
func (n *Note) UpdateContentWithConfig(title, body string, cfg *config.DomainConfig) error {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	title = strings.TrimSpace(title)
	body = strings.TrimSpace(body)

	if err := validateContent(title, body, cfg); err != nil {
		return err
	}

	if title == n.title && body == n.body {
		return nil
	}

	n.title = title
	n.body = body
	n.touch()
	return nil
}

// SetLocation records the note's location
func (n *Note) SetLocation(location valueobjects.Location) {
	loc := location
	n.location = &loc
	n.touch()
}

// SetAttachmentRef points the note at an attachment blob
func (n *Note) SetAttachmentRef(ref string) error {
	if ref == "" {
		return pkgerrors.NewValidationError("attachment ref cannot be empty")
	}
	n.attachmentRef = ref
	n.touch()
	return nil
}

// ClearAttachment removes the note's attachment reference.
// The blob itself is owned by the attachment store, not by the note.
func (n *Note) ClearAttachment() {
	if n.attachmentRef == "" {
		return
	}
	n.attachmentRef = ""
	n.touch()
}

// Touch marks the note as updated now. Persisting an edit always advances
// updatedAt even when no field changed.
func (n *Note) Touch() {
	n.touch()
}

// Clone returns an independent copy of the note. Stream consumers receive
// read-only snapshots; editing always works on a clone.
func (n *Note) Clone() *Note {
	clone := *n
	if n.location != nil {
		loc := *n.location
		clone.location = &loc
	}
	return &clone
}

// touch advances updatedAt, never letting it precede createdAt
func (n *Note) touch() {
	now := time.Now()
	if now.Before(n.createdAt) {
		now = n.createdAt
	}
	n.updatedAt = now
}

func validateContent(title, body string, cfg *config.DomainConfig) error {
	if title == "" {
		return pkgerrors.NewValidationError("title cannot be empty")
	}
	if utf8.RuneCountInString(title) > cfg.MaxTitleLength {
		return pkgerrors.NewValidationError(
			fmt.Sprintf("title exceeds maximum length of %d characters", cfg.MaxTitleLength))
	}
	if utf8.RuneCountInString(body) > cfg.MaxBodyLength {
		return pkgerrors.NewValidationError(
			fmt.Sprintf("body exceeds maximum length of %d characters", cfg.MaxBodyLength))
	}
	return nil
}
