package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pantera3000/sistema-dental-01/internal/audit"
	"github.com/pantera3000/sistema-dental-01/internal/dental"
	"github.com/pantera3000/sistema-dental-01/internal/pdf"
	"github.com/pantera3000/sistema-dental-01/internal/repo"
)

type treatmentResponse struct {
	ID          string          `json:"id"`
	PatientID   string          `json:"patient_id"`
	PatientName string          `json:"patient_name"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	StartDate   string          `json:"start_date"`
	EndDate     *string         `json:"end_date"`
	Status      string          `json:"status"`
	StatusLabel string          `json:"status_label"`
	Balance     dental.Balance  `json:"balance"`
	Payments    []paymentItem   `json:"payments,omitempty"`
	TotalCost   decimal.Decimal `json:"total_cost"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func treatmentResponseFrom(t *repo.TreatmentRow) treatmentResponse {
	return treatmentResponse{
		ID:          t.ID.String(),
		PatientID:   t.PatientID.String(),
		PatientName: t.PatientName,
		Name:        t.Name,
		Description: t.Description,
		StartDate:   t.StartDate.Format("2006-01-02"),
		EndDate:     formatDate(t.EndDate),
		Status:      t.Status,
		StatusLabel: dental.TreatmentStatusLabel(t.Status),
		Balance:     dental.ComputeBalance(t.TotalCost, t.TotalPaid),
		TotalCost:   t.TotalCost,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

type treatmentRequest struct {
	PatientID   string          `json:"patient_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	TotalCost   decimal.Decimal `json:"total_cost"`
	StartDate   string          `json:"start_date"`
	EndDate     string          `json:"end_date"`
	Status      string          `json:"status"`
}

// apply validates req onto t. editing selects the edit-time status rule.
func (req *treatmentRequest) apply(t *repo.Treatment, editing bool, today time.Time) error {
	req.Name = strings.TrimSpace(req.Name)
	req.Status = strings.TrimSpace(req.Status)
	start, err := parseDay(req.StartDate, time.UTC)
	if err != nil {
		return ErrInvalidDate
	}
	if start == nil {
		s := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
		start = &s
	}
	end, err := parseDay(req.EndDate, time.UTC)
	if err != nil {
		return ErrInvalidDate
	}
	if err := dental.ValidateTreatment(req.Name, req.Status, req.TotalCost, *start, end); err != nil {
		return err
	}
	t.Name = req.Name
	t.Description = strings.TrimSpace(req.Description)
	t.TotalCost = req.TotalCost.Round(2)
	t.StartDate = *start
	t.EndDate = end
	t.Status = dental.ResolveStatus(req.Status, end, editing)
	return nil
}

func isTreatmentValidation(err error) bool {
	for _, e := range []error{dental.ErrMissingTreatmnt, dental.ErrNegativeCost, dental.ErrInvalidStatus,
		dental.ErrEndBeforeStart, ErrInvalidDate} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

func (h *Handler) ListTreatments(w http.ResponseWriter, r *http.Request) {
	limit, offset := ParseLimitOffset(r)
	q := r.URL.Query()
	f := repo.TreatmentFilter{
		Q:      q.Get("q"),
		Status: q.Get("estado"),
		Limit:  limit,
		Offset: offset,
	}
	var err error
	if f.From, err = parseDay(q.Get("fecha_inicio"), time.UTC); err != nil {
		writeError(w, http.StatusBadRequest, ErrInvalidDate.Error())
		return
	}
	if f.To, err = parseDay(q.Get("fecha_fin"), time.UTC); err != nil {
		writeError(w, http.StatusBadRequest, ErrInvalidDate.Error())
		return
	}
	if s := q.Get("paciente_id"); s != "" {
		pid, err := uuid.Parse(s)
		if err != nil {
			http.Error(w, `{"error":"invalid paciente_id"}`, http.StatusBadRequest)
			return
		}
		f.PatientID = &pid
	}
	list, total, err := repo.ListTreatments(r.Context(), h.DB, f)
	if err != nil {
		dbError(w, r, err, "list treatments")
		return
	}
	out := make([]treatmentResponse, len(list))
	for i := range list {
		out[i] = treatmentResponseFrom(&list[i])
	}
	writeJSON(w, http.StatusOK, listResponse(out, limit, offset, total))
}

// ListPatientTreatments returns every treatment of a patient with its balance.
func (h *Handler) ListPatientTreatments(w http.ResponseWriter, r *http.Request) {
	pid, ok := pathID(w, r, "patientId")
	if !ok {
		return
	}
	list, err := repo.TreatmentsByPatient(r.Context(), h.DB, pid)
	if err != nil {
		dbError(w, r, err, "patient treatments")
		return
	}
	out := make([]treatmentResponse, len(list))
	cost, paid := decimal.Zero, decimal.Zero
	for i := range list {
		out[i] = treatmentResponseFrom(&list[i])
		cost = cost.Add(list[i].TotalCost)
		paid = paid.Add(list[i].TotalPaid)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items":   out,
		"balance": dental.ComputeBalance(cost, paid),
	})
}

func (h *Handler) GetTreatment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	t, err := repo.TreatmentByID(r.Context(), h.DB, id)
	if err != nil {
		dbError(w, r, err, "get treatment")
		return
	}
	payments, err := repo.PaymentsByTreatment(r.Context(), h.DB, id)
	if err != nil {
		dbError(w, r, err, "treatment payments")
		return
	}
	out := treatmentResponseFrom(t)
	out.Payments = make([]paymentItem, len(payments))
	for i := range payments {
		out.Payments[i] = paymentItemFrom(&payments[i])
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) CreateTreatment(w http.ResponseWriter, r *http.Request) {
	var req treatmentRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	pid, err := uuid.Parse(req.PatientID)
	if err != nil {
		http.Error(w, `{"error":"paciente requerido"}`, http.StatusBadRequest)
		return
	}
	if _, err := repo.PatientByID(r.Context(), h.DB, pid); err != nil {
		if repo.IsNotFound(err) {
			http.Error(w, `{"error":"paciente no encontrado"}`, http.StatusBadRequest)
			return
		}
		dbError(w, r, err, "get patient")
		return
	}
	t := &repo.Treatment{PatientID: pid}
	if err := req.apply(t, false, h.clock()); err != nil {
		h.treatmentWriteError(w, r, err)
		return
	}
	if err := repo.CreateTreatment(r.Context(), h.DB, t); err != nil {
		dbError(w, r, err, "create treatment")
		return
	}
	row, err := repo.TreatmentByID(r.Context(), h.DB, t.ID)
	if err != nil {
		dbError(w, r, err, "reload treatment")
		return
	}
	resp := treatmentResponseFrom(row)
	h.Audit.Record(r, audit.Event{
		Action:     audit.ActionCreate,
		Model:      "treatment",
		ObjectID:   resp.ID,
		ObjectRepr: row.Name + " - " + row.PatientName,
		Changes:    audit.Diff(nil, resp, "balance", "status_label"),
	})
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) UpdateTreatment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req treatmentRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	row, err := repo.TreatmentByID(r.Context(), h.DB, id)
	if err != nil {
		dbError(w, r, err, "get treatment")
		return
	}
	before := treatmentResponseFrom(row)
	t := row.Treatment
	if err := req.apply(&t, true, h.clock()); err != nil {
		h.treatmentWriteError(w, r, err)
		return
	}
	if err := repo.UpdateTreatment(r.Context(), h.DB, &t); err != nil {
		dbError(w, r, err, "update treatment")
		return
	}
	row.Treatment = t
	after := treatmentResponseFrom(row)
	changes := audit.Diff(before, after, "balance", "status_label")
	h.Audit.Record(r, audit.Event{
		Action:     audit.ActionUpdate,
		Model:      "treatment",
		ObjectID:   after.ID,
		ObjectRepr: t.Name + " - " + row.PatientName,
		Changes:    changes,
		Details:    strings.Join(audit.Fields(changes), ", "),
	})
	writeJSON(w, http.StatusOK, after)
}

func (h *Handler) DeleteTreatment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	row, err := repo.TreatmentByID(r.Context(), h.DB, id)
	if err != nil {
		dbError(w, r, err, "get treatment")
		return
	}
	if err := repo.DeleteTreatment(r.Context(), h.DB, id); err != nil {
		if errors.Is(err, dental.ErrHasPayments) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		dbError(w, r, err, "delete treatment")
		return
	}
	h.Audit.Record(r, audit.Event{
		Action:     audit.ActionDelete,
		Model:      "treatment",
		ObjectID:   id.String(),
		ObjectRepr: row.Name + " - " + row.PatientName,
		Changes:    audit.Diff(treatmentResponseFrom(row), nil, "balance", "status_label"),
		Severity:   audit.SeverityWarning,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) treatmentWriteError(w http.ResponseWriter, r *http.Request, err error) {
	if isTreatmentValidation(err) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	dbError(w, r, err, "save treatment")
}

func (h *Handler) clinicHeader(r *http.Request) pdf.Clinic {
	c, err := repo.GetClinicConfig(r.Context(), h.DB)
	if err != nil {
		return pdf.Clinic{Name: repo.DefaultClinicName, Title: repo.DefaultPDFTitle}
	}
	return pdf.Clinic{Name: c.ClinicName, Title: c.PDFTitle, Address: c.Address, Phone: c.Phone, Email: c.Email}
}

func (h *Handler) pdfPatient(p *repo.Patient, today time.Time) pdf.Patient {
	out := pdf.Patient{FullName: p.FullName, DNI: h.openDNI(p), Phone: p.Phone}
	if p.BirthDate != nil {
		out.BirthDate = p.BirthDate.Format("02/01/2006")
		out.Age = strconv.Itoa(dental.Age(*p.BirthDate, today)) + " años"
	}
	return out
}

// TreatmentStatementPDF renders the account statement of one treatment.
// ?form_url=1 prints a QR with a fresh medical-form link.
func (h *Handler) TreatmentStatementPDF(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	row, err := repo.TreatmentByID(r.Context(), h.DB, id)
	if err != nil {
		dbError(w, r, err, "get treatment")
		return
	}
	p, err := repo.PatientByID(r.Context(), h.DB, row.PatientID)
	if err != nil {
		dbError(w, r, err, "get patient")
		return
	}
	payments, err := repo.PaymentsByTreatment(r.Context(), h.DB, id)
	if err != nil {
		dbError(w, r, err, "treatment payments")
		return
	}
	now := h.clock()
	st := pdf.Statement{
		Patient:     h.pdfPatient(p, now),
		Treatment:   row.Name,
		Description: row.Description,
		Status:      dental.TreatmentStatusLabel(row.Status),
		StartDate:   row.StartDate,
		EndDate:     row.EndDate,
		TotalCost:   row.TotalCost,
		TotalPaid:   row.TotalPaid,
	}
	for _, pg := range payments {
		st.Payments = append(st.Payments, pdf.StatementPayment{
			PaidAt: pg.PaidAt.In(h.Cfg.Location()),
			Method: dental.PaymentMethodLabel(pg.Method),
			Amount: pg.Amount,
			Note:   pg.Note,
		})
	}
	if r.URL.Query().Get("form_url") == "1" {
		tok := &repo.MedicalFormToken{
			PatientID: p.ID,
			Token:     dental.NewFormToken(),
			ExpiresAt: now.AddDate(0, 0, h.formTTLDays()),
			CreatedBy: actorID(r),
			CreatedAt: now,
		}
		if err := repo.CreateMedicalFormToken(r.Context(), h.DB, tok); err == nil {
			st.FormURL = h.formURL(tok.Token)
		}
	}
	b, err := pdf.BuildStatement(h.clinicHeader(r), st, now)
	if err != nil {
		dbError(w, r, err, "statement pdf")
		return
	}
	h.Audit.Record(r, audit.Event{
		Action:     audit.ActionExport,
		Model:      "treatment",
		ObjectID:   id.String(),
		ObjectRepr: row.Name + " - " + row.PatientName,
		Details:    "estado de cuenta PDF",
	})
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="estado-cuenta-`+id.String()[:8]+`.pdf"`)
	_, _ = w.Write(b)
}
