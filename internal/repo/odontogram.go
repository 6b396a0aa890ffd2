package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ToothState is the current state of one tooth face. Unique per (patient, tooth, face).
type ToothState struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	PatientID   uuid.UUID `gorm:"type:uuid"`
	Tooth       int
	Face        string
	State       string
	TreatmentID *uuid.UUID `gorm:"type:uuid"`
	Notes       string
	UpdatedBy   *uuid.UUID `gorm:"type:uuid"`
	UpdatedAt   time.Time
}

func (ToothState) TableName() string { return "odontogram_states" }

// ToothChange is an immutable history row written on every save.
type ToothChange struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	PatientID     uuid.UUID `gorm:"type:uuid"`
	Tooth         int
	Face          string
	PreviousState string
	NewState      string
	TreatmentID   *uuid.UUID `gorm:"type:uuid"`
	Notes         string
	ChangedBy     *uuid.UUID `gorm:"type:uuid"`
	ChangedByName string
	CreatedAt     time.Time
}

func (ToothChange) TableName() string { return "odontogram_history" }

type SaveToothInput struct {
	PatientID   uuid.UUID
	Tooth       int
	Face        string
	State       string
	TreatmentID *uuid.UUID
	Notes       string
	UserID      *uuid.UUID
	Username    string
}

// SaveToothState upserts the current state and appends a history row in one transaction.
// It returns the stored state and the state it replaced ("" when new).
func SaveToothState(ctx context.Context, db *gorm.DB, in SaveToothInput) (*ToothState, string, error) {
	var saved ToothState
	var previous string
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var prev struct{ State string }
		if err := tx.Raw(`
			SELECT state FROM odontogram_states
			WHERE patient_id = ? AND tooth = ? AND face = ?
			FOR UPDATE
		`, in.PatientID, in.Tooth, in.Face).Scan(&prev).Error; err != nil {
			return err
		}
		previous = prev.State

		if err := tx.Raw(`
			INSERT INTO odontogram_states (id, patient_id, tooth, face, state, treatment_id, notes, updated_by, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, now())
			ON CONFLICT (patient_id, tooth, face) DO UPDATE
			SET state = EXCLUDED.state,
			    treatment_id = EXCLUDED.treatment_id,
			    notes = EXCLUDED.notes,
			    updated_by = EXCLUDED.updated_by,
			    updated_at = now()
			RETURNING id, patient_id, tooth, face, state, treatment_id, notes, updated_by, updated_at
		`, uuid.New(), in.PatientID, in.Tooth, in.Face, in.State, in.TreatmentID, in.Notes, in.UserID).
			Scan(&saved).Error; err != nil {
			return err
		}

		return tx.Create(&ToothChange{
			ID:            uuid.New(),
			PatientID:     in.PatientID,
			Tooth:         in.Tooth,
			Face:          in.Face,
			PreviousState: previous,
			NewState:      in.State,
			TreatmentID:   in.TreatmentID,
			Notes:         in.Notes,
			ChangedBy:     in.UserID,
			ChangedByName: in.Username,
			CreatedAt:     time.Now(),
		}).Error
	})
	if err != nil {
		return nil, "", err
	}
	return &saved, previous, nil
}

func OdontogramByPatient(ctx context.Context, db *gorm.DB, patientID uuid.UUID) ([]ToothState, error) {
	var list []ToothState
	err := db.WithContext(ctx).Where("patient_id = ?", patientID).Order("tooth, face").Find(&list).Error
	return list, err
}

// OdontogramHistory returns the newest changes first.
func OdontogramHistory(ctx context.Context, db *gorm.DB, patientID uuid.UUID, limit int) ([]ToothChange, error) {
	var list []ToothChange
	err := db.WithContext(ctx).Where("patient_id = ?", patientID).
		Order("created_at DESC").Limit(limit).Find(&list).Error
	return list, err
}
