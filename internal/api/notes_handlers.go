package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pantera3000/sistema-dental-01/internal/audit"
	"github.com/pantera3000/sistema-dental-01/internal/repo"
)

type noteResponse struct {
	ID          string      `json:"id"`
	PatientID   *string     `json:"patient_id"`
	PatientName string      `json:"patient_name,omitempty"`
	Title       string      `json:"title"`
	Content     string      `json:"content"`
	Images      []imageItem `json:"images"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

func noteResponseFrom(n *repo.Note) noteResponse {
	out := noteResponse{
		ID:          n.ID.String(),
		PatientID:   uuidString(n.PatientID),
		PatientName: n.PatientName,
		Title:       n.Title,
		Content:     n.Content,
		Images:      make([]imageItem, len(n.Images)),
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   n.UpdatedAt,
	}
	for i, img := range n.Images {
		out.Images[i] = imageItem{ID: img.ID.String(), URL: img.URL, Description: img.Description, CreatedAt: img.CreatedAt}
	}
	return out
}

type noteRequest struct {
	PatientID string         `json:"patient_id"`
	Title     string         `json:"title"`
	Content   string         `json:"content"`
	Images    []imageRequest `json:"images"`
}

// resolveNotePatient checks the optional patient reference and fills the cached name.
func (h *Handler) resolveNotePatient(w http.ResponseWriter, r *http.Request, raw string, n *repo.Note) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		n.PatientID = nil
		n.PatientName = ""
		return true
	}
	pid, err := uuid.Parse(raw)
	if err != nil {
		http.Error(w, `{"error":"invalid patient_id"}`, http.StatusBadRequest)
		return false
	}
	p, err := repo.PatientByID(r.Context(), h.DB, pid)
	if err != nil {
		if repo.IsNotFound(err) {
			http.Error(w, `{"error":"paciente no encontrado"}`, http.StatusBadRequest)
			return false
		}
		dbError(w, r, err, "get patient")
		return false
	}
	n.PatientID = &pid
	n.PatientName = p.FullName
	return true
}

func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	limit, offset := ParseLimitOffset(r)
	f := repo.NoteFilter{Q: r.URL.Query().Get("q"), Limit: limit, Offset: offset}
	if s := r.URL.Query().Get("patient_id"); s != "" {
		pid, err := uuid.Parse(s)
		if err != nil {
			http.Error(w, `{"error":"invalid patient_id"}`, http.StatusBadRequest)
			return
		}
		f.PatientID = &pid
	}
	list, total, err := repo.ListNotes(r.Context(), h.DB, f)
	if err != nil {
		dbError(w, r, err, "list notes")
		return
	}
	out := make([]noteResponse, len(list))
	for i := range list {
		out[i] = noteResponseFrom(&list[i])
	}
	writeJSON(w, http.StatusOK, listResponse(out, limit, offset, total))
}

func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	n, err := repo.NoteByID(r.Context(), h.DB, id)
	if err != nil {
		dbError(w, r, err, "get note")
		return
	}
	writeJSON(w, http.StatusOK, noteResponseFrom(n))
}

func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		http.Error(w, `{"error":"título requerido"}`, http.StatusBadRequest)
		return
	}
	n := &repo.Note{Title: req.Title, Content: strings.TrimSpace(req.Content), CreatedBy: actorID(r)}
	if !h.resolveNotePatient(w, r, req.PatientID, n) {
		return
	}
	for i := range req.Images {
		if !req.Images[i].normalize() {
			http.Error(w, `{"error":"URL de imagen inválida"}`, http.StatusBadRequest)
			return
		}
		n.Images = append(n.Images, repo.NoteImage{URL: req.Images[i].URL, Description: req.Images[i].Description})
	}
	if err := repo.CreateNote(r.Context(), h.DB, n); err != nil {
		dbError(w, r, err, "create note")
		return
	}
	resp := noteResponseFrom(n)
	h.Audit.Record(r, audit.Event{
		Action:     audit.ActionCreate,
		Model:      "note",
		ObjectID:   resp.ID,
		ObjectRepr: n.Title,
		Changes:    audit.Diff(nil, resp, "images", "patient_name"),
	})
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req noteRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		http.Error(w, `{"error":"título requerido"}`, http.StatusBadRequest)
		return
	}
	n, err := repo.NoteByID(r.Context(), h.DB, id)
	if err != nil {
		dbError(w, r, err, "get note")
		return
	}
	before := noteResponseFrom(n)
	if !h.resolveNotePatient(w, r, req.PatientID, n) {
		return
	}
	n.Title = req.Title
	n.Content = strings.TrimSpace(req.Content)
	if err := repo.UpdateNote(r.Context(), h.DB, n); err != nil {
		dbError(w, r, err, "update note")
		return
	}
	after := noteResponseFrom(n)
	changes := audit.Diff(before, after, "images", "patient_name", "updated_at")
	h.Audit.Record(r, audit.Event{
		Action:     audit.ActionUpdate,
		Model:      "note",
		ObjectID:   after.ID,
		ObjectRepr: n.Title,
		Changes:    changes,
		Details:    strings.Join(audit.Fields(changes), ", "),
	})
	writeJSON(w, http.StatusOK, after)
}

func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	n, err := repo.NoteByID(r.Context(), h.DB, id)
	if err != nil {
		dbError(w, r, err, "get note")
		return
	}
	if err := repo.DeleteNote(r.Context(), h.DB, id); err != nil {
		dbError(w, r, err, "delete note")
		return
	}
	h.Audit.Record(r, audit.Event{
		Action:     audit.ActionDelete,
		Model:      "note",
		ObjectID:   id.String(),
		ObjectRepr: n.Title,
		Changes:    audit.Diff(noteResponseFrom(n), nil, "images", "patient_name"),
		Severity:   audit.SeverityWarning,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AddNoteImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req imageRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	if !req.normalize() {
		http.Error(w, `{"error":"URL de imagen inválida"}`, http.StatusBadRequest)
		return
	}
	n, err := repo.NoteByID(r.Context(), h.DB, id)
	if err != nil {
		dbError(w, r, err, "get note")
		return
	}
	img := &repo.NoteImage{NoteID: id, URL: req.URL, Description: req.Description}
	if err := repo.AddNoteImage(r.Context(), h.DB, img); err != nil {
		dbError(w, r, err, "add note image")
		return
	}
	h.Audit.Record(r, audit.Event{
		Action:     audit.ActionCreate,
		Model:      "note_image",
		ObjectID:   img.ID.String(),
		ObjectRepr: n.Title,
		Details:    img.URL,
	})
	writeJSON(w, http.StatusCreated, imageItem{ID: img.ID.String(), URL: img.URL, Description: img.Description, CreatedAt: img.CreatedAt})
}

func (h *Handler) DeleteNoteImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	imageID, ok := pathID(w, r, "imageId")
	if !ok {
		return
	}
	if err := repo.DeleteNoteImage(r.Context(), h.DB, id, imageID); err != nil {
		dbError(w, r, err, "delete note image")
		return
	}
	h.Audit.Record(r, audit.Event{
		Action:   audit.ActionDelete,
		Model:    "note_image",
		ObjectID: imageID.String(),
	})
	w.WriteHeader(http.StatusNoContent)
}
