package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PatientFormTable names a one-per-patient questionnaire table.
type PatientFormTable string

const (
	HealthPrograms        PatientFormTable = "health_programs"
	FunctionalEvaluations PatientFormTable = "functional_evaluations"
)

// PatientForm is a stored questionnaire. Answers is the JSON document.
type PatientForm struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	PatientID uuid.UUID  `gorm:"type:uuid"`
	Answers   string     `gorm:"type:jsonb"`
	CreatedBy *uuid.UUID `gorm:"type:uuid"`
	UpdatedBy *uuid.UUID `gorm:"type:uuid"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func PatientFormByPatient(ctx context.Context, db *gorm.DB, table PatientFormTable, patientID uuid.UUID) (*PatientForm, error) {
	var f PatientForm
	if err := db.WithContext(ctx).Table(string(table)).First(&f, "patient_id = ?", patientID).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

// SavePatientForm inserts the patient's form or replaces its answers. It
// reports whether a new row was created and fills f's id and timestamps.
func SavePatientForm(ctx context.Context, db *gorm.DB, table PatientFormTable, f *PatientForm, now time.Time) (bool, error) {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	var row struct {
		ID        uuid.UUID
		CreatedBy *uuid.UUID
		CreatedAt time.Time
		Created   bool
	}
	err := db.WithContext(ctx).Raw(`
		INSERT INTO `+string(table)+` AS f (id, patient_id, answers, created_by, updated_by, created_at, updated_at)
		VALUES (?, ?, ?::jsonb, ?, ?, ?, ?)
		ON CONFLICT (patient_id) DO UPDATE
		   SET answers = EXCLUDED.answers, updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at
		RETURNING f.id, f.created_by, f.created_at, (xmax = 0) AS created
	`, f.ID, f.PatientID, f.Answers, f.UpdatedBy, f.UpdatedBy, now, now).Scan(&row).Error
	if err != nil {
		return false, err
	}
	f.ID, f.CreatedBy, f.CreatedAt, f.UpdatedAt = row.ID, row.CreatedBy, row.CreatedAt, now
	return row.Created, nil
}
