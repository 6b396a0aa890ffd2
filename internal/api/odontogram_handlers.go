package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pantera3000/sistema-dental-01/internal/audit"
	"github.com/pantera3000/sistema-dental-01/internal/auth"
	"github.com/pantera3000/sistema-dental-01/internal/dental"
	"github.com/pantera3000/sistema-dental-01/internal/pdf"
	"github.com/pantera3000/sistema-dental-01/internal/repo"
)

const (
	odontogramHistoryLimit    = 50
	odontogramHistoryMaxLimit = 200
)

type toothStateResponse struct {
	Tooth       int       `json:"tooth"`
	Face        string    `json:"face"`
	FaceLabel   string    `json:"face_label"`
	State       string    `json:"state"`
	StateLabel  string    `json:"state_label"`
	TreatmentID *string   `json:"treatment_id"`
	Notes       string    `json:"notes"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toothStateFrom(s *repo.ToothState) toothStateResponse {
	return toothStateResponse{
		Tooth:       s.Tooth,
		Face:        s.Face,
		FaceLabel:   dental.FaceLabel(s.Face),
		State:       s.State,
		StateLabel:  dental.ToothStateLabel(s.State),
		TreatmentID: uuidString(s.TreatmentID),
		Notes:       s.Notes,
		UpdatedAt:   s.UpdatedAt,
	}
}

func uuidString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

type catalogItem struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

func odontogramCatalog() map[string]interface{} {
	states := []catalogItem{}
	for _, s := range dental.ToothStates() {
		states = append(states, catalogItem{Code: s.Code, Label: s.Label})
	}
	faces := []catalogItem{}
	for _, f := range []string{"V", "L", "M", "D", "O", "C"} {
		faces = append(faces, catalogItem{Code: f, Label: dental.FaceLabel(f)})
	}
	return map[string]interface{}{"states": states, "faces": faces}
}

// GetOdontogram returns every current face state plus the catalogue the UI needs.
func (h *Handler) GetOdontogram(w http.ResponseWriter, r *http.Request) {
	pid, ok := pathID(w, r, "patientId")
	if !ok {
		return
	}
	if _, err := repo.PatientByID(r.Context(), h.DB, pid); err != nil {
		dbError(w, r, err, "get patient")
		return
	}
	list, err := repo.OdontogramByPatient(r.Context(), h.DB, pid)
	if err != nil {
		dbError(w, r, err, "odontogram")
		return
	}
	out := make([]toothStateResponse, len(list))
	for i := range list {
		out[i] = toothStateFrom(&list[i])
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"patient_id": pid.String(),
		"items":      out,
		"catalog":    odontogramCatalog(),
	})
}

type saveToothRequest struct {
	Tooth       int    `json:"tooth"`
	Face        string `json:"face"`
	State       string `json:"state"`
	TreatmentID string `json:"treatment_id"`
	Notes       string `json:"notes"`
}

// SaveToothState upserts one face and appends the change to the history.
func (h *Handler) SaveToothState(w http.ResponseWriter, r *http.Request) {
	pid, ok := pathID(w, r, "patientId")
	if !ok {
		return
	}
	var req saveToothRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, dental.ErrIncompleteData.Error())
		return
	}
	req.Face = strings.ToUpper(strings.TrimSpace(req.Face))
	req.State = strings.ToLower(strings.TrimSpace(req.State))
	if err := dental.ValidateToothEntry(req.Tooth, req.Face, req.State); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := repo.PatientByID(r.Context(), h.DB, pid)
	if err != nil {
		dbError(w, r, err, "get patient")
		return
	}
	in := repo.SaveToothInput{
		PatientID: pid,
		Tooth:     req.Tooth,
		Face:      req.Face,
		State:     req.State,
		Notes:     strings.TrimSpace(req.Notes),
		UserID:    actorID(r),
		Username:  auth.UsernameFrom(r.Context()),
	}
	if s := strings.TrimSpace(req.TreatmentID); s != "" {
		tid, err := uuid.Parse(s)
		if err != nil {
			http.Error(w, `{"error":"invalid treatment_id"}`, http.StatusBadRequest)
			return
		}
		t, err := repo.TreatmentByID(r.Context(), h.DB, tid)
		if err != nil || t.PatientID != pid {
			http.Error(w, `{"error":"el tratamiento no pertenece al paciente"}`, http.StatusBadRequest)
			return
		}
		in.TreatmentID = &tid
	}
	saved, prev, err := repo.SaveToothState(r.Context(), h.DB, in)
	if err != nil {
		dbError(w, r, err, "save tooth")
		return
	}
	action := audit.ActionUpdate
	if prev == "" {
		action = audit.ActionCreate
	}
	h.Audit.Record(r, audit.Event{
		Action:     action,
		Model:      "odontogram",
		ObjectID:   saved.ID.String(),
		ObjectRepr: p.FullName + " - diente " + strconv.Itoa(req.Tooth) + " " + req.Face,
		Changes:    map[string]audit.Change{"state": {Old: prev, New: req.State}},
	})
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":        true,
		"previous_state": prev,
		"item":           toothStateFrom(saved),
	})
}

type toothChangeResponse struct {
	Tooth         int       `json:"tooth"`
	Face          string    `json:"face"`
	PreviousState string    `json:"previous_state"`
	NewState      string    `json:"new_state"`
	NewStateLabel string    `json:"new_state_label"`
	TreatmentID   *string   `json:"treatment_id"`
	Notes         string    `json:"notes"`
	ChangedBy     string    `json:"changed_by"`
	CreatedAt     time.Time `json:"created_at"`
}

func (h *Handler) OdontogramHistory(w http.ResponseWriter, r *http.Request) {
	pid, ok := pathID(w, r, "patientId")
	if !ok {
		return
	}
	limit := odontogramHistoryLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			limit = n
			if limit > odontogramHistoryMaxLimit {
				limit = odontogramHistoryMaxLimit
			}
		}
	}
	list, err := repo.OdontogramHistory(r.Context(), h.DB, pid, limit)
	if err != nil {
		dbError(w, r, err, "odontogram history")
		return
	}
	out := make([]toothChangeResponse, len(list))
	for i, c := range list {
		out[i] = toothChangeResponse{
			Tooth:         c.Tooth,
			Face:          c.Face,
			PreviousState: c.PreviousState,
			NewState:      c.NewState,
			NewStateLabel: dental.ToothStateLabel(c.NewState),
			TreatmentID:   uuidString(c.TreatmentID),
			Notes:         c.Notes,
			ChangedBy:     c.ChangedByName,
			CreatedAt:     c.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": out, "limit": limit})
}

func (h *Handler) OdontogramPDF(w http.ResponseWriter, r *http.Request) {
	pid, ok := pathID(w, r, "patientId")
	if !ok {
		return
	}
	p, err := repo.PatientByID(r.Context(), h.DB, pid)
	if err != nil {
		dbError(w, r, err, "get patient")
		return
	}
	list, err := repo.OdontogramByPatient(r.Context(), h.DB, pid)
	if err != nil {
		dbError(w, r, err, "odontogram")
		return
	}
	now := h.clock()
	entries := make([]pdf.ToothEntry, len(list))
	for i, s := range list {
		entries[i] = pdf.ToothEntry{
			Tooth:     s.Tooth,
			Face:      dental.FaceLabel(s.Face),
			State:     dental.ToothStateLabel(s.State),
			Notes:     s.Notes,
			UpdatedAt: s.UpdatedAt.In(h.Cfg.Location()),
		}
	}
	b, err := pdf.BuildOdontogram(h.clinicHeader(r), h.pdfPatient(p, now), entries, now)
	if err != nil {
		dbError(w, r, err, "odontogram pdf")
		return
	}
	h.Audit.Record(r, audit.Event{
		Action:     audit.ActionExport,
		Model:      "odontogram",
		ObjectID:   pid.String(),
		ObjectRepr: p.FullName,
		Details:    "odontograma PDF",
	})
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="odontograma-`+pid.String()[:8]+`.pdf"`)
	_, _ = w.Write(b)
}
