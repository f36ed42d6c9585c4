package handlers

import (
	"maxnotes/application/ports"
	"maxnotes/domain/core/entities"
	"maxnotes/pkg/utils"
)

// NoteResponse is the wire form of a note
type NoteResponse struct {
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	Body          string            `json:"body"`
	Location      *LocationResponse `json:"location,omitempty"`
	HasAttachment bool              `json:"has_attachment"`
	CreatedAt     string            `json:"created_at"`
	UpdatedAt     string            `json:"updated_at"`
}

// LocationResponse is the wire form of a note's position
type LocationResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func ToNoteResponse(note *entities.Note) NoteResponse {
	resp := NoteResponse{
		ID:            note.ID().String(),
		Title:         note.Title(),
		Body:          note.Body(),
		HasAttachment: note.AttachmentRef() != "",
		CreatedAt:     utils.FormatRFC3339(note.CreatedAt()),
		UpdatedAt:     utils.FormatRFC3339(note.UpdatedAt()),
	}
	if loc := note.Location(); loc != nil {
		resp.Location = &LocationResponse{
			Latitude:  loc.Latitude(),
			Longitude: loc.Longitude(),
		}
	}
	return resp
}

func ToNoteResponses(snapshot ports.Snapshot) []NoteResponse {
	responses := make([]NoteResponse, 0, len(snapshot))
	for _, note := range snapshot {
		responses = append(responses, ToNoteResponse(note))
	}
	return responses
}
