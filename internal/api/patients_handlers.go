package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pantera3000/sistema-dental-01/internal/audit"
	"github.com/pantera3000/sistema-dental-01/internal/crypto"
	"github.com/pantera3000/sistema-dental-01/internal/dashboard"
	"github.com/pantera3000/sistema-dental-01/internal/dental"
	"github.com/pantera3000/sistema-dental-01/internal/repo"
)

type patientResponse struct {
	ID                 string    `json:"id"`
	FullName           string    `json:"full_name"`
	DNI                string    `json:"dni"`
	BirthDate          *string   `json:"birth_date"`
	Age                *int      `json:"age"`
	DaysUntilBirthday  *int      `json:"days_until_birthday"`
	Gender             string    `json:"gender"`
	MaritalStatus      string    `json:"marital_status"`
	Phone              string    `json:"phone"`
	District           string    `json:"district"`
	Address            string    `json:"address"`
	Email              string    `json:"email"`
	Occupation         string    `json:"occupation"`
	GuardianName       string    `json:"guardian_name"`
	PreviousDiseases   string    `json:"previous_diseases"`
	Allergies          string    `json:"allergies"`
	BloodType          string    `json:"blood_type"`
	PreviousTreatments string    `json:"previous_treatments"`
	DentalExperiences  string    `json:"dental_experiences"`
	Notes              string    `json:"notes"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (h *Handler) openDNI(p *repo.Patient) string {
	if p.DNIEnc == "" || h.Box == nil {
		return ""
	}
	dni, err := h.Box.Open(p.DNIEnc)
	if err != nil {
		log.Warn().Err(err).Str("patient_id", p.ID.String()).Msg("[patients] dni decrypt failed")
		return ""
	}
	return dni
}

func (h *Handler) patientResponse(p *repo.Patient, today time.Time) patientResponse {
	out := patientResponse{
		ID:                 p.ID.String(),
		FullName:           p.FullName,
		DNI:                h.openDNI(p),
		BirthDate:          formatDate(p.BirthDate),
		Gender:             p.Gender,
		MaritalStatus:      p.MaritalStatus,
		Phone:              p.Phone,
		District:           p.District,
		Address:            p.Address,
		Email:              p.Email,
		Occupation:         p.Occupation,
		GuardianName:       p.GuardianName,
		PreviousDiseases:   p.PreviousDiseases,
		Allergies:          p.Allergies,
		BloodType:          p.BloodType,
		PreviousTreatments: p.PreviousTreatments,
		DentalExperiences:  p.DentalExperiences,
		Notes:              p.Notes,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
	if p.BirthDate != nil {
		age := dental.Age(*p.BirthDate, today)
		days := dental.DaysUntilBirthday(*p.BirthDate, today)
		out.Age, out.DaysUntilBirthday = &age, &days
	}
	return out
}

type patientRequest struct {
	FullName           string `json:"full_name"`
	DNI                string `json:"dni"`
	BirthDate          string `json:"birth_date"`
	Gender             string `json:"gender"`
	MaritalStatus      string `json:"marital_status"`
	Phone              string `json:"phone"`
	District           string `json:"district"`
	Address            string `json:"address"`
	Email              string `json:"email"`
	Occupation         string `json:"occupation"`
	GuardianName       string `json:"guardian_name"`
	PreviousDiseases   string `json:"previous_diseases"`
	Allergies          string `json:"allergies"`
	BloodType          string `json:"blood_type"`
	PreviousTreatments string `json:"previous_treatments"`
	DentalExperiences  string `json:"dental_experiences"`
	Notes              string `json:"notes"`
}

// apply validates req and copies it onto p, sealing the DNI.
func (h *Handler) apply(req *patientRequest, p *repo.Patient, today time.Time) error {
	req.FullName = strings.TrimSpace(req.FullName)
	if req.FullName == "" {
		return dental.ErrMissingName
	}
	req.Gender = strings.ToUpper(strings.TrimSpace(req.Gender))
	if !dental.IsValidGender(req.Gender) {
		return dental.ErrInvalidGender
	}
	req.MaritalStatus = strings.ToUpper(strings.TrimSpace(req.MaritalStatus))
	if !dental.IsValidMaritalStatus(req.MaritalStatus) {
		return dental.ErrInvalidMarital
	}
	if err := validateOptionalEmail(req.Email); err != nil {
		return err
	}
	birth, err := parseDay(req.BirthDate, time.UTC)
	if err != nil {
		return ErrInvalidDate
	}
	if birth != nil && birth.After(today) {
		return dental.ErrBirthInFuture
	}

	p.DNIEnc, p.DNIHash = "", nil
	if dni := crypto.NormalizeDNI(req.DNI); dni != "" {
		if !crypto.IsValidDNI(dni) {
			return dental.ErrInvalidDNI
		}
		sealed, err := h.Box.Seal(dni)
		if err != nil {
			return err
		}
		hash := crypto.DNIHash(dni)
		p.DNIEnc, p.DNIHash = sealed, &hash
	}

	p.FullName = req.FullName
	p.BirthDate = birth
	p.Gender = req.Gender
	p.MaritalStatus = req.MaritalStatus
	p.Phone = strings.TrimSpace(req.Phone)
	p.District = strings.TrimSpace(req.District)
	p.Address = strings.TrimSpace(req.Address)
	p.Email = strings.TrimSpace(req.Email)
	p.Occupation = strings.TrimSpace(req.Occupation)
	p.GuardianName = strings.TrimSpace(req.GuardianName)
	p.PreviousDiseases = strings.TrimSpace(req.PreviousDiseases)
	p.Allergies = strings.TrimSpace(req.Allergies)
	p.BloodType = strings.TrimSpace(req.BloodType)
	p.PreviousTreatments = strings.TrimSpace(req.PreviousTreatments)
	p.DentalExperiences = strings.TrimSpace(req.DentalExperiences)
	p.Notes = strings.TrimSpace(req.Notes)
	return nil
}

func isPatientValidation(err error) bool {
	for _, e := range []error{dental.ErrMissingName, dental.ErrInvalidGender, dental.ErrInvalidMarital,
		dental.ErrBirthInFuture, dental.ErrInvalidDNI, ErrInvalidEmail, ErrInvalidDate} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

func (h *Handler) ListPatients(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseLimitOffsetWith(r, patientsPageSize)
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	f := repo.PatientFilter{Q: q, Limit: limit, Offset: offset}
	if hash, ok := dniQuery(q); ok {
		f.DNIHash = hash
	}
	list, total, err := repo.ListPatients(r.Context(), h.DB, f)
	if err != nil {
		dbError(w, r, err, "list patients")
		return
	}
	today := h.clock()
	out := make([]patientResponse, len(list))
	for i := range list {
		out[i] = h.patientResponse(&list[i], today)
	}
	writeJSON(w, http.StatusOK, listResponse(out, limit, offset, total))
}

func (h *Handler) GetPatient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "patientId")
	if !ok {
		return
	}
	p, err := repo.PatientByID(r.Context(), h.DB, id)
	if err != nil {
		dbError(w, r, err, "get patient")
		return
	}
	writeJSON(w, http.StatusOK, h.patientResponse(p, h.clock()))
}

func (h *Handler) CreatePatient(w http.ResponseWriter, r *http.Request) {
	var req patientRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	today := h.clock()
	p := &repo.Patient{}
	if err := h.apply(&req, p, today); err != nil {
		h.patientWriteError(w, r, err)
		return
	}
	if err := repo.CreatePatient(r.Context(), h.DB, p); err != nil {
		h.patientWriteError(w, r, err)
		return
	}
	resp := h.patientResponse(p, today)
	h.Audit.Record(r, audit.Event{
		Action:     audit.ActionCreate,
		Model:      "patient",
		ObjectID:   resp.ID,
		ObjectRepr: p.FullName,
		Changes:    audit.Diff(nil, resp, "dni", "age", "days_until_birthday"),
	})
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) UpdatePatient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "patientId")
	if !ok {
		return
	}
	var req patientRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	p, err := repo.PatientByID(r.Context(), h.DB, id)
	if err != nil {
		dbError(w, r, err, "get patient")
		return
	}
	today := h.clock()
	before := h.patientResponse(p, today)
	if err := h.apply(&req, p, today); err != nil {
		h.patientWriteError(w, r, err)
		return
	}
	if err := repo.UpdatePatient(r.Context(), h.DB, p); err != nil {
		h.patientWriteError(w, r, err)
		return
	}
	after := h.patientResponse(p, today)
	// DNI changes are recorded without the value itself
	changes := audit.Diff(before, after, "dni", "age", "days_until_birthday")
	if before.DNI != after.DNI {
		changes["dni"] = audit.Change{Old: "***", New: "***"}
	}
	h.Audit.Record(r, audit.Event{
		Action:     audit.ActionUpdate,
		Model:      "patient",
		ObjectID:   after.ID,
		ObjectRepr: p.FullName,
		Changes:    changes,
		Details:    strings.Join(audit.Fields(changes), ", "),
	})
	writeJSON(w, http.StatusOK, after)
}

func (h *Handler) DeletePatient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "patientId")
	if !ok {
		return
	}
	p, err := repo.PatientByID(r.Context(), h.DB, id)
	if err != nil {
		dbError(w, r, err, "get patient")
		return
	}
	if err := repo.DeletePatient(r.Context(), h.DB, id); err != nil {
		dbError(w, r, err, "delete patient")
		return
	}
	h.Audit.Record(r, audit.Event{
		Action:     audit.ActionDelete,
		Model:      "patient",
		ObjectID:   id.String(),
		ObjectRepr: p.FullName,
		Changes:    audit.Diff(h.patientResponse(p, h.clock()), nil, "dni", "age", "days_until_birthday"),
		Severity:   audit.SeverityWarning,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) patientWriteError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case isPatientValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case repo.IsUniqueViolation(err):
		writeError(w, http.StatusConflict, dental.ErrDuplicateDNI.Error())
	default:
		dbError(w, r, err, "save patient")
	}
}

// UpcomingBirthdays lists patients whose birthday falls within the window, nearest first.
func (h *Handler) UpcomingBirthdays(w http.ResponseWriter, r *http.Request) {
	list, err := repo.PatientsWithBirthDate(r.Context(), h.DB)
	if err != nil {
		dbError(w, r, err, "birthdays")
		return
	}
	items := dashboard.UpcomingBirthdays(list, h.clock(), dental.BirthdayWindowDays, 0)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items":       items,
		"window_days": dental.BirthdayWindowDays,
		"total":       len(items),
	})
}

type publicRegisterRequest struct {
	FullName    string `json:"full_name"`
	DNI         string `json:"dni"`
	BirthDate   string `json:"birth_date"`
	Gender      string `json:"gender"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	District    string `json:"district"`
	Address     string `json:"address"`
	Occupation  string `json:"occupation"`
	Allergies   string `json:"allergies"`
	Reason      string `json:"reason"`
	Medications string `json:"medications"`
}

// PublicRegister lets a new patient sign themselves up from the public page.
func (h *Handler) PublicRegister(w http.ResponseWriter, r *http.Request) {
	var in publicRegisterRequest
	if err := decodeJSON(r, &in); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(in.Phone) == "" {
		http.Error(w, `{"error":"teléfono requerido"}`, http.StatusBadRequest)
		return
	}
	req := patientRequest{
		FullName:      in.FullName,
		DNI:           in.DNI,
		BirthDate:     in.BirthDate,
		Gender:        in.Gender,
		MaritalStatus: "S",
		Phone:         in.Phone,
		Email:         in.Email,
		District:      in.District,
		Address:       in.Address,
		Occupation:    in.Occupation,
		Allergies:     in.Allergies,
		Notes:         dental.RegistrationNotes(in.Reason, in.Medications),
	}
	today := h.clock()
	p := &repo.Patient{}
	if err := h.apply(&req, p, today); err != nil {
		h.patientWriteError(w, r, err)
		return
	}
	if err := repo.CreatePatient(r.Context(), h.DB, p); err != nil {
		h.patientWriteError(w, r, err)
		return
	}
	h.Audit.Record(r, audit.Event{
		Action:     audit.ActionPublicRegister,
		Model:      "patient",
		ObjectID:   p.ID.String(),
		ObjectRepr: p.FullName,
		Username:   "public",
	})
	writeJSON(w, http.StatusCreated, map[string]string{
		"id":      p.ID.String(),
		"message": "Registro completado. Nos comunicaremos con usted.",
	})
}
