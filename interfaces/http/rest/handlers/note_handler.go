package handlers

import (
	"io"
	"net/http"

	"maxnotes/application/ports"
	"maxnotes/application/services"
	"maxnotes/domain/config"
	"maxnotes/domain/core/entities"
	"maxnotes/domain/core/valueobjects"
	"maxnotes/pkg/common"
	pkgerrors "maxnotes/pkg/errors"
	"maxnotes/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// NoteHandler exposes the note collection over REST. Reads come from the
// feed's latest snapshot; writes go through a short-lived editor bound to
// the session's repository.
type NoteHandler struct {
	session     *services.SessionController
	feed        *services.NoteFeed
	attachments ports.AttachmentStore
	processor   ports.AttachmentProcessor
	location    ports.LocationResolver
	domainCfg   *config.DomainConfig
	errors      *pkgerrors.ErrorHandler
	logger      *zap.Logger
}

// NewNoteHandler creates a note handler
func NewNoteHandler(
	session *services.SessionController,
	feed *services.NoteFeed,
	attachments ports.AttachmentStore,
	processor ports.AttachmentProcessor,
	location ports.LocationResolver,
	domainCfg *config.DomainConfig,
	errorHandler *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *NoteHandler {
	return &NoteHandler{
		session:     session,
		feed:        feed,
		attachments: attachments,
		processor:   processor,
		location:    location,
		domainCfg:   domainCfg,
		errors:      errorHandler,
		logger:      logger,
	}
}

type noteRequest struct {
	Title string `json:"title" validate:"required,max=200"`
	Body  string `json:"body" validate:"max=50000"`
}

// ListNotes returns the latest snapshot, newest first
func (h *NoteHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	if _, err := h.requireRepository(); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if err := h.feed.Err(); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, ToNoteResponses(h.feed.Current()))
}

// GetNote returns a single note from the latest snapshot
func (h *NoteHandler) GetNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.findNote(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, ToNoteResponse(note))
}

// CreateNote creates a note, geotagging it with the resolved position
func (h *NoteHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	repo, err := h.requireRepository()
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	var req noteRequest
	if err := common.ParseJSONBody(w, r, &req, 1<<20); err != nil {
		common.RespondError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	editor := h.newEditor(repo)
	editor.BeginEdit(nil)
	editor.SetTitle(req.Title)
	editor.SetBody(req.Body)

	note, err := editor.Save(r.Context())
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, ToNoteResponse(note))
}

// UpdateNote replaces a note's content
func (h *NoteHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	repo, err := h.requireRepository()
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	note, err := h.findNote(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	var req noteRequest
	if err := common.ParseJSONBody(w, r, &req, 1<<20); err != nil {
		common.RespondError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	editor := h.newEditor(repo)
	editor.BeginEdit(note)
	editor.SetTitle(req.Title)
	editor.SetBody(req.Body)

	updated, err := editor.Save(r.Context())
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, ToNoteResponse(updated))
}

// DeleteNote removes a note and its attachment blob
func (h *NoteHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	repo, err := h.requireRepository()
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	note, err := h.findNote(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	editor := h.newEditor(repo)
	editor.BeginEdit(note)
	if err := editor.Delete(r.Context()); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// UploadAttachment stages an image on the note and saves it. The image is
// compressed before storage; a body that is not a decodable image is
// rejected without touching the note.
func (h *NoteHandler) UploadAttachment(w http.ResponseWriter, r *http.Request) {
	repo, err := h.requireRepository()
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	note, err := h.findNote(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, int64(h.domainCfg.MaxAttachmentBytes)))
	if err != nil {
		common.RespondError(w, http.StatusRequestEntityTooLarge, "BAD_REQUEST", "attachment too large")
		return
	}
	if len(raw) == 0 {
		common.RespondError(w, http.StatusBadRequest, "BAD_REQUEST", "attachment body is empty")
		return
	}

	editor := h.newEditor(repo)
	editor.BeginEdit(note)
	if err := editor.AttachPendingBlob(raw); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	updated, err := editor.Save(r.Context())
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, ToNoteResponse(updated))
}

// FetchAttachment serves the stored attachment image
func (h *NoteHandler) FetchAttachment(w http.ResponseWriter, r *http.Request) {
	note, err := h.findNote(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if note.AttachmentRef() == "" {
		h.errors.Handle(w, r, pkgerrors.NewNotFoundError("attachment"))
		return
	}

	data, err := h.attachments.Load(r.Context(), note.AttachmentRef())
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.WriteHeader(http.StatusOK)
	w.Write(data) //nolint:errcheck
}

// RemoveAttachment detaches and deletes the attachment blob
func (h *NoteHandler) RemoveAttachment(w http.ResponseWriter, r *http.Request) {
	repo, err := h.requireRepository()
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	note, err := h.findNote(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	editor := h.newEditor(repo)
	editor.BeginEdit(note)
	editor.RemoveAttachment(r.Context())

	updated, err := editor.Save(r.Context())
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, ToNoteResponse(updated))
}

func (h *NoteHandler) newEditor(repo ports.NoteRepository) *services.NoteEditor {
	return services.NewNoteEditor(repo, h.attachments, h.processor, h.location, h.logger)
}

func (h *NoteHandler) requireRepository() (ports.NoteRepository, error) {
	repo := h.session.Repository()
	if repo == nil {
		return nil, pkgerrors.NewUnauthorizedError("no active session")
	}
	return repo, nil
}

func (h *NoteHandler) findNote(r *http.Request) (*entities.Note, error) {
	if _, err := h.requireRepository(); err != nil {
		return nil, err
	}
	id, err := valueobjects.NewNoteIDFromString(chi.URLParam(r, "noteID"))
	if err != nil {
		return nil, pkgerrors.NewValidationError("invalid note id")
	}
	return h.feed.FindByID(id)
}
