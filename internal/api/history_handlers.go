package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/pantera3000/sistema-dental-01/internal/audit"
	"github.com/pantera3000/sistema-dental-01/internal/dental"
	"github.com/pantera3000/sistema-dental-01/internal/repo"
)

type imageItem struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type imageRequest struct {
	URL         string `json:"url"`
	Description string `json:"description"`
}

// normalize converts share links and rejects anything but http(s) URLs.
func (req *imageRequest) normalize() bool {
	req.URL = dental.NormalizeImageURL(strings.TrimSpace(req.URL))
	req.Description = strings.TrimSpace(req.Description)
	return dental.IsValidImageURL(req.URL)
}

type historyResponse struct {
	ID        string      `json:"id"`
	PatientID string      `json:"patient_id"`
	Reason    string      `json:"reason"`
	Diagnosis string      `json:"diagnosis"`
	Notes     string      `json:"notes"`
	Evolution string      `json:"evolution"`
	Images    []imageItem `json:"images"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func historyResponseFrom(h *repo.ClinicalHistory) historyResponse {
	out := historyResponse{
		ID:        h.ID.String(),
		PatientID: h.PatientID.String(),
		Reason:    h.Reason,
		Diagnosis: h.Diagnosis,
		Notes:     h.Notes,
		Evolution: h.Evolution,
		Images:    make([]imageItem, len(h.Images)),
		CreatedAt: h.CreatedAt,
		UpdatedAt: h.UpdatedAt,
	}
	for i, img := range h.Images {
		out.Images[i] = imageItem{ID: img.ID.String(), URL: img.URL, Description: img.Description, CreatedAt: img.CreatedAt}
	}
	return out
}

type historyRequest struct {
	Reason    string         `json:"reason"`
	Diagnosis string         `json:"diagnosis"`
	Notes     string         `json:"notes"`
	Evolution string         `json:"evolution"`
	Images    []imageRequest `json:"images"`
}

func (req *historyRequest) normalize() bool {
	req.Reason = strings.TrimSpace(req.Reason)
	req.Diagnosis = strings.TrimSpace(req.Diagnosis)
	req.Notes = strings.TrimSpace(req.Notes)
	req.Evolution = strings.TrimSpace(req.Evolution)
	return req.Reason != ""
}

func (h *Handler) ListHistories(w http.ResponseWriter, r *http.Request) {
	pid, ok := pathID(w, r, "patientId")
	if !ok {
		return
	}
	limit, offset := ParseLimitOffset(r)
	list, total, err := repo.HistoriesByPatient(r.Context(), h.DB, pid, limit, offset)
	if err != nil {
		dbError(w, r, err, "list histories")
		return
	}
	out := make([]historyResponse, len(list))
	for i := range list {
		out[i] = historyResponseFrom(&list[i])
	}
	writeJSON(w, http.StatusOK, listResponse(out, limit, offset, total))
}

func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	hist, err := repo.HistoryByID(r.Context(), h.DB, id)
	if err != nil {
		dbError(w, r, err, "get history")
		return
	}
	writeJSON(w, http.StatusOK, historyResponseFrom(hist))
}

func (h *Handler) CreateHistory(w http.ResponseWriter, r *http.Request) {
	pid, ok := pathID(w, r, "patientId")
	if !ok {
		return
	}
	var req historyRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	if !req.normalize() {
		http.Error(w, `{"error":"motivo de consulta requerido"}`, http.StatusBadRequest)
		return
	}
	p, err := repo.PatientByID(r.Context(), h.DB, pid)
	if err != nil {
		dbError(w, r, err, "get patient")
		return
	}
	hist := &repo.ClinicalHistory{
		PatientID: pid,
		Reason:    req.Reason,
		Diagnosis: req.Diagnosis,
		Notes:     req.Notes,
		Evolution: req.Evolution,
	}
	for i := range req.Images {
		if !req.Images[i].normalize() {
			http.Error(w, `{"error":"URL de imagen inválida"}`, http.StatusBadRequest)
			return
		}
		hist.Images = append(hist.Images, repo.HistoryImage{URL: req.Images[i].URL, Description: req.Images[i].Description})
	}
	if err := repo.CreateHistory(r.Context(), h.DB, hist); err != nil {
		dbError(w, r, err, "create history")
		return
	}
	resp := historyResponseFrom(hist)
	h.Audit.Record(r, audit.Event{
		Action:     audit.ActionCreate,
		Model:      "clinical_history",
		ObjectID:   resp.ID,
		ObjectRepr: p.FullName + " - " + hist.Reason,
		Changes:    audit.Diff(nil, resp, "images"),
	})
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) UpdateHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req historyRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	if !req.normalize() {
		http.Error(w, `{"error":"motivo de consulta requerido"}`, http.StatusBadRequest)
		return
	}
	hist, err := repo.HistoryByID(r.Context(), h.DB, id)
	if err != nil {
		dbError(w, r, err, "get history")
		return
	}
	before := historyResponseFrom(hist)
	hist.Reason, hist.Diagnosis, hist.Notes, hist.Evolution = req.Reason, req.Diagnosis, req.Notes, req.Evolution
	if err := repo.UpdateHistory(r.Context(), h.DB, hist); err != nil {
		dbError(w, r, err, "update history")
		return
	}
	after := historyResponseFrom(hist)
	changes := audit.Diff(before, after, "images")
	h.Audit.Record(r, audit.Event{
		Action:     audit.ActionUpdate,
		Model:      "clinical_history",
		ObjectID:   after.ID,
		ObjectRepr: hist.Reason,
		Changes:    changes,
		Details:    strings.Join(audit.Fields(changes), ", "),
	})
	writeJSON(w, http.StatusOK, after)
}

func (h *Handler) DeleteHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	hist, err := repo.HistoryByID(r.Context(), h.DB, id)
	if err != nil {
		dbError(w, r, err, "get history")
		return
	}
	if err := repo.DeleteHistory(r.Context(), h.DB, id); err != nil {
		dbError(w, r, err, "delete history")
		return
	}
	h.Audit.Record(r, audit.Event{
		Action:     audit.ActionDelete,
		Model:      "clinical_history",
		ObjectID:   id.String(),
		ObjectRepr: hist.Reason,
		Changes:    audit.Diff(historyResponseFrom(hist), nil, "images"),
		Severity:   audit.SeverityWarning,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AddHistoryImage(w http.ResponseWriter, r *http.Request) {
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
	if _, err := repo.HistoryByID(r.Context(), h.DB, id); err != nil {
		dbError(w, r, err, "get history")
		return
	}
	img := &repo.HistoryImage{HistoryID: id, URL: req.URL, Description: req.Description}
	if err := repo.AddHistoryImage(r.Context(), h.DB, img); err != nil {
		dbError(w, r, err, "add history image")
		return
	}
	h.Audit.Record(r, audit.Event{
		Action:     audit.ActionCreate,
		Model:      "clinical_history_image",
		ObjectID:   img.ID.String(),
		ObjectRepr: img.URL,
	})
	writeJSON(w, http.StatusCreated, imageItem{ID: img.ID.String(), URL: img.URL, Description: img.Description, CreatedAt: img.CreatedAt})
}

func (h *Handler) DeleteHistoryImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	imageID, ok := pathID(w, r, "imageId")
	if !ok {
		return
	}
	if err := repo.DeleteHistoryImage(r.Context(), h.DB, id, imageID); err != nil {
		dbError(w, r, err, "delete history image")
		return
	}
	h.Audit.Record(r, audit.Event{
		Action:   audit.ActionDelete,
		Model:    "clinical_history_image",
		ObjectID: imageID.String(),
	})
	w.WriteHeader(http.StatusNoContent)
}
