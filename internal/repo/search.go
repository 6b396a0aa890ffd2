package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SearchPatient struct {
	ID       uuid.UUID
	FullName string
	Phone    string
}

type SearchTreatment struct {
	ID          uuid.UUID
	Name        string
	Status      string
	PatientName string
}

type SearchHistory struct {
	ID          uuid.UUID
	PatientID   uuid.UUID
	Reason      string
	PatientName string
	CreatedAt   time.Time
}

type SearchResults struct {
	Patients   []SearchPatient
	Treatments []SearchTreatment
	Histories  []SearchHistory
}

// GlobalSearch matches q against patient names (or an exact DNI hash), treatment
// names and clinical history reason/diagnosis. limit applies per kind.
func GlobalSearch(ctx context.Context, db *gorm.DB, q, dniHash string, limit int) (*SearchResults, error) {
	p := likePattern(q)
	out := &SearchResults{}
	if err := db.WithContext(ctx).Raw(`
		SELECT id, full_name, phone FROM patients
		WHERE full_name ILIKE ? OR (?::text IS NOT NULL AND dni_hash = ?)
		ORDER BY full_name LIMIT ?
	`, p, nullIfEmpty(dniHash), dniHash, limit).Scan(&out.Patients).Error; err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Raw(`
		SELECT t.id, t.name, t.status, p.full_name AS patient_name
		FROM treatments t JOIN patients p ON p.id = t.patient_id
		WHERE t.name ILIKE ?
		ORDER BY t.start_date DESC LIMIT ?
	`, p, limit).Scan(&out.Treatments).Error; err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Raw(`
		SELECT h.id, h.patient_id, h.reason, p.full_name AS patient_name, h.created_at
		FROM clinical_histories h JOIN patients p ON p.id = h.patient_id
		WHERE h.reason ILIKE ? OR h.diagnosis ILIKE ?
		ORDER BY h.created_at DESC LIMIT ?
	`, p, p, limit).Scan(&out.Histories).Error; err != nil {
		return nil, err
	}
	return out, nil
}
