package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/pantera3000/sistema-dental-01/internal/audit"
	"github.com/pantera3000/sistema-dental-01/internal/dental"
	"github.com/pantera3000/sistema-dental-01/internal/middleware"
	"github.com/pantera3000/sistema-dental-01/internal/repo"
)

func (h *Handler) formTTLDays() int {
	if h.Cfg.MedicalFormTTLDays <= 0 {
		return 7
	}
	return h.Cfg.MedicalFormTTLDays
}

func (h *Handler) formURL(token string) string {
	return strings.TrimRight(h.Cfg.AppPublicURL, "/") + "/formulario/" + token
}

type formLinkResponse struct {
	Token         string     `json:"token"`
	URL           string     `json:"url"`
	ExpiresAt     time.Time  `json:"expires_at"`
	ValidDays     int        `json:"valid_days"`
	DaysRemaining int        `json:"days_remaining"`
	Completed     bool       `json:"completed"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func (h *Handler) formLink(t *repo.MedicalFormToken, now time.Time) formLinkResponse {
	return formLinkResponse{
		Token:         t.Token,
		URL:           h.formURL(t.Token),
		ExpiresAt:     t.ExpiresAt,
		ValidDays:     h.formTTLDays(),
		DaysRemaining: dental.FormDaysRemaining(t.Completed, t.ExpiresAt, now),
		Completed:     t.Completed,
		CompletedAt:   t.CompletedAt,
		CreatedAt:     t.CreatedAt,
	}
}

// CreateMedicalFormLink issues a public link for the patient to fill in their
// medical form, optionally e-mailing it.
func (h *Handler) CreateMedicalFormLink(w http.ResponseWriter, r *http.Request) {
	pid, ok := pathID(w, r, "patientId")
	if !ok {
		return
	}
	var req struct {
		SendEmail bool   `json:"send_email"`
		Email     string `json:"email"`
	}
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
			return
		}
	}
	p, err := repo.PatientByID(r.Context(), h.DB, pid)
	if err != nil {
		dbError(w, r, err, "get patient")
		return
	}
	now := h.clock()
	tok := &repo.MedicalFormToken{
		PatientID: pid,
		Token:     dental.NewFormToken(),
		ExpiresAt: now.AddDate(0, 0, h.formTTLDays()),
		CreatedBy: actorID(r),
		CreatedAt: now,
	}
	if err := repo.CreateMedicalFormToken(r.Context(), h.DB, tok); err != nil {
		dbError(w, r, err, "create form token")
		return
	}
	resp := map[string]interface{}{"link": h.formLink(tok, now)}

	if req.SendEmail {
		to := strings.TrimSpace(req.Email)
		if to == "" {
			to = p.Email
		}
		switch {
		case ValidateEmailRegex(to) != nil:
			resp["email_sent"] = false
			resp["email_error"] = "el paciente no tiene un email válido"
		case h.sendMedicalFormEmail == nil:
			resp["email_sent"] = false
			resp["email_error"] = "envío de correo desactivado"
		default:
			clinic := repo.DefaultClinicName
			if c, err := repo.GetClinicConfig(r.Context(), h.DB); err == nil {
				clinic = c.ClinicName
			}
			if err := h.sendMedicalFormEmail(to, p.FullName, clinic, h.formURL(tok.Token), h.formTTLDays()); err != nil {
				log.Error().Err(err).Str("patient_id", pid.String()).Msg("[email] medical form link not sent")
				resp["email_sent"] = false
				resp["email_error"] = "no se pudo enviar el correo"
			} else {
				resp["email_sent"] = true
			}
		}
	}

	h.Audit.Record(r, audit.Event{
		Action:     audit.ActionCreate,
		Model:      "medical_form_token",
		ObjectID:   tok.ID.String(),
		ObjectRepr: p.FullName,
		Details:    "enlace de ficha médica",
	})
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) ListMedicalFormLinks(w http.ResponseWriter, r *http.Request) {
	pid, ok := pathID(w, r, "patientId")
	if !ok {
		return
	}
	list, err := repo.MedicalFormTokensByPatient(r.Context(), h.DB, pid)
	if err != nil {
		dbError(w, r, err, "list form tokens")
		return
	}
	now := h.clock()
	out := make([]formLinkResponse, len(list))
	for i := range list {
		out[i] = h.formLink(&list[i], now)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": out})
}

// GetPatientMedicalForm returns the last submitted form of a patient.
func (h *Handler) GetPatientMedicalForm(w http.ResponseWriter, r *http.Request) {
	pid, ok := pathID(w, r, "patientId")
	if !ok {
		return
	}
	f, err := repo.MedicalFormByPatient(r.Context(), h.DB, pid)
	if err != nil {
		dbError(w, r, err, "get medical form")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":           f.ID.String(),
		"patient_id":   f.PatientID.String(),
		"answers":      json.RawMessage(f.Answers),
		"submitted_at": f.SubmittedAt,
		"submitted_ip": f.SubmittedIP,
	})
}

// loadOpenToken resolves the route token and answers 404/410 when it cannot be used.
func (h *Handler) loadOpenToken(w http.ResponseWriter, r *http.Request, now time.Time) (*repo.MedicalFormToken, bool) {
	token := strings.TrimSpace(mux.Vars(r)["token"])
	if token == "" {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return nil, false
	}
	tok, err := repo.MedicalFormTokenByToken(r.Context(), h.DB, token)
	if err != nil {
		if repo.IsNotFound(err) {
			http.Error(w, `{"error":"invalid_token"}`, http.StatusNotFound)
			return nil, false
		}
		dbError(w, r, err, "form token")
		return nil, false
	}
	if tok.Completed {
		writeJSON(w, http.StatusGone, map[string]interface{}{"error": "completed", "completed_at": tok.CompletedAt})
		return nil, false
	}
	if !dental.FormTokenValid(tok.Completed, tok.ExpiresAt, now) {
		writeJSON(w, http.StatusGone, map[string]interface{}{"error": "expired", "expired_at": tok.ExpiresAt})
		return nil, false
	}
	return tok, true
}

func (h *Handler) GetPublicMedicalForm(w http.ResponseWriter, r *http.Request) {
	now := h.clock()
	tok, ok := h.loadOpenToken(w, r, now)
	if !ok {
		return
	}
	p, err := repo.PatientByID(r.Context(), h.DB, tok.PatientID)
	if err != nil {
		dbError(w, r, err, "form patient")
		return
	}
	clinic := repo.DefaultClinicName
	if c, err := repo.GetClinicConfig(r.Context(), h.DB); err == nil {
		clinic = c.ClinicName
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"patient_name":   p.FullName,
		"clinic_name":    clinic,
		"expires_at":     tok.ExpiresAt,
		"days_remaining": dental.FormDaysRemaining(tok.Completed, tok.ExpiresAt, now),
		"prefill": map[string]string{
			"email":      p.Email,
			"address":    p.Address,
			"occupation": p.Occupation,
		},
	})
}

func (h *Handler) SubmitPublicMedicalForm(w http.ResponseWriter, r *http.Request) {
	now := h.clock()
	tok, ok := h.loadOpenToken(w, r, now)
	if !ok {
		return
	}
	var answers dental.MedicalFormAnswers
	if err := decodeJSON(r, &answers); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	answers.Normalize()
	if err := answers.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := ValidateEmailRegex(answers.Email); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	raw, err := json.Marshal(answers)
	if err != nil {
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	ip := middleware.ClientIP(r)
	err = repo.SubmitMedicalForm(r.Context(), h.DB, tok, string(raw), answers.Email, answers.Address, answers.Occupation, ip, now)
	if err != nil {
		// lost a race with another submit, or expired in between
		if repo.IsNotFound(err) {
			writeJSON(w, http.StatusGone, map[string]string{"error": "completed"})
			return
		}
		dbError(w, r, err, "submit form")
		return
	}
	h.Audit.Record(r, audit.Event{
		Action:   audit.ActionFormSubmitted,
		Model:    "medical_form",
		ObjectID: tok.PatientID.String(),
		Username: "public",
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Ficha médica enviada. ¡Gracias!"})
}
