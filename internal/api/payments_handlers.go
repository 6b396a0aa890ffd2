package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pantera3000/sistema-dental-01/internal/audit"
	"github.com/pantera3000/sistema-dental-01/internal/dental"
	"github.com/pantera3000/sistema-dental-01/internal/repo"
)

type paymentItem struct {
	ID            string          `json:"id"`
	TreatmentID   string          `json:"treatment_id"`
	TreatmentName string          `json:"treatment_name,omitempty"`
	PatientID     string          `json:"patient_id,omitempty"`
	PatientName   string          `json:"patient_name,omitempty"`
	PaidAt        time.Time       `json:"paid_at"`
	Amount        decimal.Decimal `json:"amount"`
	Method        string          `json:"method"`
	MethodLabel   string          `json:"method_label"`
	Note          string          `json:"note"`
}

func paymentItemFrom(p *repo.Payment) paymentItem {
	return paymentItem{
		ID:          p.ID.String(),
		TreatmentID: p.TreatmentID.String(),
		PaidAt:      p.PaidAt,
		Amount:      p.Amount,
		Method:      p.Method,
		MethodLabel: dental.PaymentMethodLabel(p.Method),
		Note:        p.Note,
	}
}

func paymentRowItem(p *repo.PaymentRow) paymentItem {
	out := paymentItemFrom(&p.Payment)
	out.TreatmentName = p.TreatmentName
	out.PatientID = p.PatientID.String()
	out.PatientName = p.PatientName
	return out
}

type paymentRequest struct {
	TreatmentID string          `json:"treatment_id"`
	PaidAt      string          `json:"paid_at"`
	Amount      decimal.Decimal `json:"amount"`
	Method      string          `json:"method"`
	Note        string          `json:"note"`
}

func (req *paymentRequest) apply(p *repo.Payment, loc *time.Location) error {
	req.Method = strings.ToLower(strings.TrimSpace(req.Method))
	if err := dental.ValidatePayment(req.Amount, req.Method); err != nil {
		return err
	}
	if s := strings.TrimSpace(req.PaidAt); s != "" {
		t, err := parseInstant(s, loc)
		if err != nil {
			return ErrInvalidDate
		}
		p.PaidAt = t
	}
	p.Amount = req.Amount.Round(2)
	p.Method = req.Method
	p.Note = strings.TrimSpace(req.Note)
	return nil
}

func isPaymentValidation(err error) bool {
	return errors.Is(err, dental.ErrInvalidAmount) || errors.Is(err, dental.ErrInvalidMethod) || errors.Is(err, ErrInvalidDate)
}

func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	limit, offset := ParseLimitOffset(r)
	q := r.URL.Query()
	f := repo.PaymentFilter{
		Q:      q.Get("q"),
		Method: strings.ToLower(q.Get("metodo")),
		Limit:  limit,
		Offset: offset,
	}
	from, to, err := parseFromTo(r, "fecha_inicio", "fecha_fin", h.Cfg.Location())
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrInvalidDate.Error())
		return
	}
	f.From, f.To = from, to
	if s := q.Get("paciente_id"); s != "" {
		pid, err := uuid.Parse(s)
		if err != nil {
			http.Error(w, `{"error":"invalid paciente_id"}`, http.StatusBadRequest)
			return
		}
		f.PatientID = &pid
	}
	list, total, sum, err := repo.ListPayments(r.Context(), h.DB, f)
	if err != nil {
		dbError(w, r, err, "list payments")
		return
	}
	out := make([]paymentItem, len(list))
	for i := range list {
		out[i] = paymentRowItem(&list[i])
	}
	resp := listResponse(out, limit, offset, total)
	resp["sum"] = sum
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	p, err := repo.PaymentByID(r.Context(), h.DB, id)
	if err != nil {
		dbError(w, r, err, "get payment")
		return
	}
	writeJSON(w, http.StatusOK, paymentRowItem(p))
}

func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	tid, err := uuid.Parse(req.TreatmentID)
	if err != nil {
		http.Error(w, `{"error":"tratamiento requerido"}`, http.StatusBadRequest)
		return
	}
	t, err := repo.TreatmentByID(r.Context(), h.DB, tid)
	if err != nil {
		if repo.IsNotFound(err) {
			http.Error(w, `{"error":"tratamiento no encontrado"}`, http.StatusBadRequest)
			return
		}
		dbError(w, r, err, "get treatment")
		return
	}
	p := &repo.Payment{TreatmentID: tid}
	if err := req.apply(p, h.Cfg.Location()); err != nil {
		h.paymentWriteError(w, r, err)
		return
	}
	if p.PaidAt.IsZero() {
		p.PaidAt = h.clock()
	}
	if err := repo.CreatePayment(r.Context(), h.DB, p); err != nil {
		dbError(w, r, err, "create payment")
		return
	}
	row := &repo.PaymentRow{Payment: *p, TreatmentName: t.Name, PatientID: t.PatientID, PatientName: t.PatientName}
	resp := paymentRowItem(row)
	h.Audit.Record(r, audit.Event{
		Action:     audit.ActionCreate,
		Model:      "payment",
		ObjectID:   resp.ID,
		ObjectRepr: paymentRepr(row),
		Changes:    audit.Diff(nil, resp, "method_label"),
	})
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req paymentRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	row, err := repo.PaymentByID(r.Context(), h.DB, id)
	if err != nil {
		dbError(w, r, err, "get payment")
		return
	}
	before := paymentRowItem(row)
	if err := req.apply(&row.Payment, h.Cfg.Location()); err != nil {
		h.paymentWriteError(w, r, err)
		return
	}
	if err := repo.UpdatePayment(r.Context(), h.DB, &row.Payment); err != nil {
		dbError(w, r, err, "update payment")
		return
	}
	after := paymentRowItem(row)
	changes := audit.Diff(before, after, "method_label")
	h.Audit.Record(r, audit.Event{
		Action:     audit.ActionUpdate,
		Model:      "payment",
		ObjectID:   after.ID,
		ObjectRepr: paymentRepr(row),
		Changes:    changes,
		Details:    strings.Join(audit.Fields(changes), ", "),
	})
	writeJSON(w, http.StatusOK, after)
}

func (h *Handler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	row, err := repo.PaymentByID(r.Context(), h.DB, id)
	if err != nil {
		dbError(w, r, err, "get payment")
		return
	}
	if err := repo.DeletePayment(r.Context(), h.DB, id); err != nil {
		dbError(w, r, err, "delete payment")
		return
	}
	h.Audit.Record(r, audit.Event{
		Action:     audit.ActionDelete,
		Model:      "payment",
		ObjectID:   id.String(),
		ObjectRepr: paymentRepr(row),
		Changes:    audit.Diff(paymentRowItem(row), nil, "method_label"),
		Severity:   audit.SeverityWarning,
	})
	w.WriteHeader(http.StatusNoContent)
}

func paymentRepr(p *repo.PaymentRow) string {
	return "S/ " + p.Amount.StringFixed(2) + " - " + p.TreatmentName + " - " + p.PatientName
}

func (h *Handler) paymentWriteError(w http.ResponseWriter, r *http.Request, err error) {
	if isPaymentValidation(err) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	dbError(w, r, err, "save payment")
}
