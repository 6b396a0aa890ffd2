package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MedicalFormToken struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	PatientID   uuid.UUID `gorm:"type:uuid"`
	Token       string
	ExpiresAt   time.Time
	Completed   bool
	CompletedAt *time.Time
	CompletedIP string     `gorm:"column:completed_ip"`
	CreatedBy   *uuid.UUID `gorm:"type:uuid"`
	CreatedAt   time.Time
}

func (MedicalFormToken) TableName() string { return "medical_form_tokens" }

type MedicalForm struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	PatientID   uuid.UUID `gorm:"type:uuid"`
	Answers     string    `gorm:"type:jsonb"`
	SubmittedAt time.Time
	SubmittedIP string `gorm:"column:submitted_ip"`
}

func (MedicalForm) TableName() string { return "medical_forms" }

func CreateMedicalFormToken(ctx context.Context, db *gorm.DB, t *MedicalFormToken) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return db.WithContext(ctx).Create(t).Error
}

func MedicalFormTokenByToken(ctx context.Context, db *gorm.DB, token string) (*MedicalFormToken, error) {
	var t MedicalFormToken
	if err := db.WithContext(ctx).First(&t, "token = ?", token).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func MedicalFormTokensByPatient(ctx context.Context, db *gorm.DB, patientID uuid.UUID) ([]MedicalFormToken, error) {
	var list []MedicalFormToken
	err := db.WithContext(ctx).Where("patient_id = ?", patientID).Order("created_at DESC").Find(&list).Error
	return list, err
}

// SubmitMedicalForm stores (or replaces) the patient's form, copies contact data
// to the patient and closes the token. Fails with ErrRecordNotFound when the
// token was completed concurrently.
func SubmitMedicalForm(ctx context.Context, db *gorm.DB, tok *MedicalFormToken, answers string, email, address, occupation, ip string, now time.Time) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Exec(`
			UPDATE medical_form_tokens SET completed = TRUE, completed_at = ?, completed_ip = ?
			WHERE id = ? AND NOT completed AND expires_at > ?
		`, now, ip, tok.ID, now)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		form := MedicalForm{
			ID:          uuid.New(),
			PatientID:   tok.PatientID,
			Answers:     answers,
			SubmittedAt: now,
			SubmittedIP: ip,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "patient_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"answers", "submitted_at", "submitted_ip"}),
		}).Create(&form).Error; err != nil {
			return err
		}
		return UpdatePatientContact(ctx, tx, tok.PatientID, email, address, occupation)
	})
}

func MedicalFormByPatient(ctx context.Context, db *gorm.DB, patientID uuid.UUID) (*MedicalForm, error) {
	var f MedicalForm
	if err := db.WithContext(ctx).First(&f, "patient_id = ?", patientID).Error; err != nil {
		return nil, err
	}
	return &f, nil
}
