package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/pantera3000/sistema-dental-01/internal/audit"
	"github.com/pantera3000/sistema-dental-01/internal/repo"
)

type clinicConfigResponse struct {
	ClinicName string    `json:"clinic_name"`
	PDFTitle   string    `json:"pdf_title"`
	Address    string    `json:"address"`
	Phone      string    `json:"phone"`
	Email      string    `json:"email"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func clinicConfigFrom(c *repo.ClinicConfig) clinicConfigResponse {
	return clinicConfigResponse{
		ClinicName: c.ClinicName,
		PDFTitle:   c.PDFTitle,
		Address:    c.Address,
		Phone:      c.Phone,
		Email:      c.Email,
		UpdatedAt:  c.UpdatedAt,
	}
}

func (h *Handler) GetClinicConfig(w http.ResponseWriter, r *http.Request) {
	c, err := repo.GetClinicConfig(r.Context(), h.DB)
	if err != nil {
		dbError(w, r, err, "clinic config")
		return
	}
	writeJSON(w, http.StatusOK, clinicConfigFrom(c))
}

func (h *Handler) UpdateClinicConfig(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ClinicName string `json:"clinic_name"`
		PDFTitle   string `json:"pdf_title"`
		Address    string `json:"address"`
		Phone      string `json:"phone"`
		Email      string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := validateOptionalEmail(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	c, err := repo.GetClinicConfig(r.Context(), h.DB)
	if err != nil {
		dbError(w, r, err, "clinic config")
		return
	}
	before := clinicConfigFrom(c)
	c.ClinicName = strings.TrimSpace(req.ClinicName)
	c.PDFTitle = strings.TrimSpace(req.PDFTitle)
	c.Address = strings.TrimSpace(req.Address)
	c.Phone = strings.TrimSpace(req.Phone)
	c.Email = req.Email
	if err := repo.SaveClinicConfig(r.Context(), h.DB, c); err != nil {
		dbError(w, r, err, "save clinic config")
		return
	}
	after := clinicConfigFrom(c)
	changes := audit.Diff(before, after, "updated_at")
	h.Audit.Record(r, audit.Event{
		Action:     audit.ActionUpdate,
		Model:      "clinic_config",
		ObjectID:   "1",
		ObjectRepr: c.ClinicName,
		Changes:    changes,
		Details:    strings.Join(audit.Fields(changes), ", "),
	})
	writeJSON(w, http.StatusOK, after)
}
