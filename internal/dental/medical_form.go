package dental

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewFormToken returns a 32-char hex token.
func NewFormToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func FormTokenValid(completed bool, expiresAt, now time.Time) bool {
	return !completed && now.Before(expiresAt)
}

// FormDaysRemaining is the whole number of days left, 0 once completed or expired.
func FormDaysRemaining(completed bool, expiresAt, now time.Time) int {
	if completed {
		return 0
	}
	d := expiresAt.Sub(now).Hours() / 24
	if d <= 0 {
		return 0
	}
	return int(math.Floor(d))
}

// MedicalFormAnswers is the questionnaire a patient fills in through a form link.
type MedicalFormAnswers struct {
	Email                  string `json:"email"`
	Address                string `json:"address"`
	Occupation             string `json:"occupation"`
	HasDiseases            bool   `json:"has_diseases"`
	DiseasesDetail         string `json:"diseases_detail"`
	TakesMedication        bool   `json:"takes_medication"`
	MedicationDetail       string `json:"medication_detail"`
	HasAllergies           bool   `json:"has_allergies"`
	AllergiesDetail        string `json:"allergies_detail"`
	IsPregnant             *bool  `json:"is_pregnant,omitempty"`
	HadSurgeries           bool   `json:"had_surgeries"`
	SurgeriesDetail        string `json:"surgeries_detail"`
	LastDentistVisit       string `json:"last_dentist_visit,omitempty"`
	HadDentalTreatments    bool   `json:"had_dental_treatments"`
	DentalTreatmentsDetail string `json:"dental_treatments_detail"`
	CurrentDentalProblems  string `json:"current_dental_problems"`
	ConsultationReason     string `json:"consultation_reason"`
	AcceptsDataProcessing  bool   `json:"accepts_data_processing"`
	AcceptsContact         bool   `json:"accepts_contact"`
}

var (
	ErrFormMissingFields = errors.New("complete los campos obligatorios")
	ErrFormConsent       = errors.New("debe aceptar el tratamiento de datos personales")
)

func (a *MedicalFormAnswers) Normalize() {
	a.Email = strings.TrimSpace(strings.ToLower(a.Email))
	a.Address = strings.TrimSpace(a.Address)
	a.Occupation = strings.TrimSpace(a.Occupation)
	a.CurrentDentalProblems = strings.TrimSpace(a.CurrentDentalProblems)
	a.ConsultationReason = strings.TrimSpace(a.ConsultationReason)
}

func (a *MedicalFormAnswers) Validate() error {
	if a.Email == "" || a.Address == "" || a.CurrentDentalProblems == "" || a.ConsultationReason == "" {
		return ErrFormMissingFields
	}
	if !a.AcceptsDataProcessing {
		return ErrFormConsent
	}
	return nil
}
