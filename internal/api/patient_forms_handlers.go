package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pantera3000/sistema-dental-01/internal/audit"
	"github.com/pantera3000/sistema-dental-01/internal/dental"
	"github.com/pantera3000/sistema-dental-01/internal/pdf"
	"github.com/pantera3000/sistema-dental-01/internal/repo"
)

// patientQuestionnaire is a one-per-patient form kept as JSON.
type patientQuestionnaire interface {
	Normalize()
	Validate() error
	Sections() []dental.Section
}

type patientFormKind struct {
	table    repo.PatientFormTable
	route    string
	model    string
	title    string
	filename string
	blank    func() patientQuestionnaire
}

var (
	healthProgramForm = patientFormKind{
		table:    repo.HealthPrograms,
		route:    "health-program",
		model:    "health_program",
		title:    "PROGRAMA DE SALUD",
		filename: "programa-salud",
		blank:    func() patientQuestionnaire { return &dental.HealthProgram{} },
	}
	functionalEvaluationForm = patientFormKind{
		table:    repo.FunctionalEvaluations,
		route:    "functional-evaluation",
		model:    "functional_evaluation",
		title:    "EVALUACIÓN FUNCIONAL INFANTIL",
		filename: "evaluacion-funcional",
		blank:    func() patientQuestionnaire { return &dental.FunctionalEvaluation{} },
	}
)

func (k patientFormKind) decode(raw string) (patientQuestionnaire, error) {
	q := k.blank()
	if err := json.Unmarshal([]byte(raw), q); err != nil {
		return nil, err
	}
	return q, nil
}

func patientFormResponse(f *repo.PatientForm, q patientQuestionnaire) map[string]interface{} {
	out := map[string]interface{}{
		"id":         f.ID.String(),
		"patient_id": f.PatientID.String(),
		"answers":    q,
		"created_at": f.CreatedAt,
		"updated_at": f.UpdatedAt,
	}
	if f.UpdatedBy != nil {
		out["updated_by"] = f.UpdatedBy.String()
	}
	return out
}

// GetPatientForm returns the patient's form of kind k, 404 when none was saved.
func (h *Handler) GetPatientForm(k patientFormKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pid, ok := pathID(w, r, "patientId")
		if !ok {
			return
		}
		f, err := repo.PatientFormByPatient(r.Context(), h.DB, k.table, pid)
		if err != nil {
			dbError(w, r, err, "get "+k.model)
			return
		}
		q, err := k.decode(f.Answers)
		if err != nil {
			dbError(w, r, err, "decode "+k.model)
			return
		}
		writeJSON(w, http.StatusOK, patientFormResponse(f, q))
	}
}

// SavePatientForm creates or replaces the patient's form of kind k.
func (h *Handler) SavePatientForm(k patientFormKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pid, ok := pathID(w, r, "patientId")
		if !ok {
			return
		}
		q := k.blank()
		if err := decodeJSON(r, q); err != nil {
			http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
			return
		}
		q.Normalize()
		if err := q.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		p, err := repo.PatientByID(r.Context(), h.DB, pid)
		if err != nil {
			dbError(w, r, err, "get patient")
			return
		}

		var before patientQuestionnaire
		if prev, err := repo.PatientFormByPatient(r.Context(), h.DB, k.table, pid); err == nil {
			before, _ = k.decode(prev.Answers)
		} else if !repo.IsNotFound(err) {
			dbError(w, r, err, "get "+k.model)
			return
		}

		raw, err := json.Marshal(q)
		if err != nil {
			http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
			return
		}
		f := &repo.PatientForm{PatientID: pid, Answers: string(raw), UpdatedBy: actorID(r)}
		created, err := repo.SavePatientForm(r.Context(), h.DB, k.table, f, h.clock())
		if err != nil {
			dbError(w, r, err, "save "+k.model)
			return
		}

		ev := audit.Event{
			Action:     audit.ActionUpdate,
			Model:      k.model,
			ObjectID:   f.ID.String(),
			ObjectRepr: p.FullName,
		}
		status := http.StatusOK
		if created {
			ev.Action = audit.ActionCreate
			ev.Changes = audit.Diff(nil, q)
			status = http.StatusCreated
		} else {
			changes := audit.Diff(before, q)
			ev.Changes = changes
			ev.Details = strings.Join(audit.Fields(changes), ", ")
		}
		h.Audit.Record(r, ev)
		writeJSON(w, status, patientFormResponse(f, q))
	}
}

// PatientFormPDF prints the patient's form of kind k.
func (h *Handler) PatientFormPDF(k patientFormKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pid, ok := pathID(w, r, "patientId")
		if !ok {
			return
		}
		p, err := repo.PatientByID(r.Context(), h.DB, pid)
		if err != nil {
			dbError(w, r, err, "get patient")
			return
		}
		f, err := repo.PatientFormByPatient(r.Context(), h.DB, k.table, pid)
		if err != nil {
			dbError(w, r, err, "get "+k.model)
			return
		}
		q, err := k.decode(f.Answers)
		if err != nil {
			dbError(w, r, err, "decode "+k.model)
			return
		}
		now := h.clock()
		b, err := pdf.BuildFormReport(h.clinicHeader(r), pdf.FormReport{
			Title:     k.title,
			Patient:   h.pdfPatient(p, now),
			UpdatedAt: f.UpdatedAt.In(h.Cfg.Location()),
			Sections:  pdfSections(q.Sections()),
		}, now)
		if err != nil {
			dbError(w, r, err, k.model+" pdf")
			return
		}
		h.Audit.Record(r, audit.Event{
			Action:     audit.ActionExport,
			Model:      k.model,
			ObjectID:   f.ID.String(),
			ObjectRepr: p.FullName,
			Details:    strings.ToLower(k.title) + " PDF",
		})
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `inline; filename="`+k.filename+`-`+pid.String()[:8]+`.pdf"`)
		_, _ = w.Write(b)
	}
}

func pdfSections(in []dental.Section) []pdf.FormSection {
	out := make([]pdf.FormSection, len(in))
	for i, s := range in {
		lines := make([]pdf.FormLine, len(s.Lines))
		for j, l := range s.Lines {
			lines[j] = pdf.FormLine{Label: l.Label, Value: l.Value}
		}
		out[i] = pdf.FormSection{Title: s.Title, Lines: lines}
	}
	return out
}
