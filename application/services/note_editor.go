package services

import (
	"context"
	"strings"
	"sync"

	"maxnotes/application/ports"
	"maxnotes/domain/core/entities"
	pkgerrors "maxnotes/pkg/errors"

	"go.uber.org/zap"
)

// NoteEditor orchestrates a single note's edit transaction: location
// resolution for new notes, the attachment pipeline, persistence through
// the repository, and attachment cleanup on deletion or detachment.
//
// One editor owns one draft at a time. The internal mutex serializes all
// operations, which also provides the external sequencing the attachment
// store requires for a given key.
type NoteEditor struct {
	repo        ports.NoteRepository
	attachments ports.AttachmentStore
	processor   ports.AttachmentProcessor
	location    ports.LocationResolver
	logger      *zap.Logger

	mu      sync.Mutex
	target  *entities.Note // nil while drafting a new note
	title   string
	body    string
	pending []byte // processed attachment bytes not yet persisted
}

// NewNoteEditor creates an editor bound to one repository instance
func NewNoteEditor(
	repo ports.NoteRepository,
	attachments ports.AttachmentStore,
	processor ports.AttachmentProcessor,
	location ports.LocationResolver,
	logger *zap.Logger,
) *NoteEditor {
	return &NoteEditor{
		repo:        repo,
		attachments: attachments,
		processor:   processor,
		location:    location,
		logger:      logger,
	}
}

// BeginEdit loads draft state from note, or an empty draft for a new note
// when note is nil. Any pending attachment buffer from a previous draft is
// discarded.
func (e *NoteEditor) BeginEdit(note *entities.Note) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.pending = nil
	if note == nil {
		e.target = nil
		e.title = ""
		e.body = ""
		return
	}
	e.target = note.Clone()
	e.title = note.Title()
	e.body = note.Body()
}

// SetTitle updates the draft title
func (e *NoteEditor) SetTitle(title string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.title = title
}

// SetBody updates the draft body
func (e *NoteEditor) SetBody(body string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.body = body
}

// IsNew reports whether the draft targets a not-yet-persisted note
func (e *NoteEditor) IsNew() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.target == nil
}

// HasPendingAttachment reports whether processed attachment bytes await
// persistence
func (e *NoteEditor) HasPendingAttachment() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending != nil
}

// AttachPendingBlob runs the attachment processor over raw bytes and, on
// success, stages the result as the draft's pending attachment. On a
// processing failure the prior attachment state is left untouched; the
// error is recoverable.
func (e *NoteEditor) AttachPendingBlob(raw []byte) error {
	processed, err := e.processor.Compress(raw)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.pending = processed
	return nil
}

// RemoveAttachment clears the pending buffer and detaches any persisted
// attachment from the draft. The blob delete is best-effort: a dangling
// blob is acceptable, a lost edit is not.
func (e *NoteEditor) RemoveAttachment(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.pending = nil
	if e.target == nil || !e.target.HasAttachment() {
		return
	}

	ref := e.target.AttachmentRef()
	if err := e.attachments.Delete(ctx, ref); err != nil {
		e.logger.Warn("failed to delete attachment blob",
			zap.String("ref", ref),
			zap.Error(err),
		)
	}
	e.target.ClearAttachment()
}

// Save persists the draft. For a new note the location is resolved first
// (location is mandatory context for new notes only); the attachment blob,
// if pending, is written before the record so a failed record write can at
// worst orphan a blob, never produce a record referencing a blob that was
// never written. On any failure the draft is left as-is so the caller can
// retry unchanged.
func (e *NoteEditor) Save(ctx context.Context) (*entities.Note, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if strings.TrimSpace(e.title) == "" {
		// No I/O is attempted for an invalid draft.
		return nil, pkgerrors.NewValidationError("title cannot be empty")
	}

	if e.target == nil {
		return e.saveNew(ctx)
	}
	return e.saveExisting(ctx)
}

func (e *NoteEditor) saveNew(ctx context.Context) (*entities.Note, error) {
	note, err := entities.NewNote(e.title, e.body)
	if err != nil {
		return nil, err
	}

	location, err := e.location.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	note.SetLocation(location)

	if e.pending != nil {
		ref, err := e.attachments.Save(ctx, e.pending, note.ID().String())
		if err != nil {
			return nil, err
		}
		if err := note.SetAttachmentRef(ref); err != nil {
			return nil, err
		}
	}

	if err := e.repo.Add(ctx, note); err != nil {
		return nil, err
	}

	e.target = note
	e.pending = nil
	return note.Clone(), nil
}

func (e *NoteEditor) saveExisting(ctx context.Context) (*entities.Note, error) {
	working := e.target.Clone()
	if err := working.UpdateContent(e.title, e.body); err != nil {
		return nil, err
	}
	working.Touch()

	if e.pending != nil {
		// Blob keys reuse the note id deliberately: updating an
		// attachment replaces the blob in place.
		ref, err := e.attachments.Save(ctx, e.pending, working.ID().String())
		if err != nil {
			return nil, err
		}
		if err := working.SetAttachmentRef(ref); err != nil {
			return nil, err
		}
	}

	if err := e.repo.Update(ctx, working); err != nil {
		return nil, err
	}

	e.target = working
	e.pending = nil
	return working.Clone(), nil
}

// Delete removes the persisted target note, then best-effort deletes its
// attachment blob. Success of the record deletion is never blocked by an
// attachment deletion failure. With no persisted target, Delete is a no-op
// success.
func (e *NoteEditor) Delete(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.target == nil {
		return nil
	}

	if err := e.repo.Delete(ctx, e.target.ID()); err != nil {
		// The record still exists; leave the draft (and the blob) alone.
		return err
	}

	if ref := e.target.AttachmentRef(); ref != "" {
		if err := e.attachments.Delete(ctx, ref); err != nil {
			e.logger.Warn("failed to delete attachment blob of deleted note",
				zap.String("noteID", e.target.ID().String()),
				zap.String("ref", ref),
				zap.Error(err),
			)
		}
	}

	e.target = nil
	e.pending = nil
	e.title = ""
	e.body = ""
	return nil
}
