package main

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Simplici0/printledger/internal/store"
)

type noteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (s *server) handleNotesList(w http.ResponseWriter, r *http.Request) {
	notes, err := s.store.ListNotes(r.Context())
	if err != nil {
		s.internalError(w, r, "failed to fetch notes", err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

func (s *server) handleNotesCreate(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeNote(w, r)
	if !ok {
		return
	}

	id, err := s.store.CreateNote(r.Context(), req.Title, req.Content)
	if err != nil {
		s.internalError(w, r, "failed to add note", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *server) handleNotesUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid note id")
		return
	}
	req, ok := decodeNote(w, r)
	if !ok {
		return
	}

	err = s.store.UpdateNote(r.Context(), id, req.Title, req.Content)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "note not found")
		return
	}
	if err != nil {
		s.internalError(w, r, "failed to update note", err)
		return
	}
	writeMessage(w, "Note updated successfully")
}

func (s *server) handleNotesDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid note id")
		return
	}

	err = s.store.DeleteNote(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "note not found")
		return
	}
	if err != nil {
		s.internalError(w, r, "failed to delete note", err)
		return
	}
	writeMessage(w, "Note deleted successfully")
}

// decodeNote writes a 400 and returns false when the body is unusable.
func decodeNote(w http.ResponseWriter, r *http.Request) (noteRequest, bool) {
	var req noteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return req, false
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return req, false
	}
	return req, true
}
