package repo

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Patient struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey"`
	FullName           string
	DNIEnc             string     `gorm:"column:dni_enc"`
	DNIHash            *string    `gorm:"column:dni_hash"`
	BirthDate          *time.Time `gorm:"type:date"`
	Gender             string
	MaritalStatus      string
	Phone              string
	District           string
	Address            string
	Email              string
	Occupation         string
	GuardianName       string
	PreviousDiseases   string
	Allergies          string
	BloodType          string
	PreviousTreatments string
	DentalExperiences  string
	Notes              string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (Patient) TableName() string { return "patients" }

type PatientFilter struct {
	Q string
	// DNIHash, when set, replaces the name search with an exact DNI match.
	DNIHash string
	Limit   int
	Offset  int
}

func ListPatients(ctx context.Context, db *gorm.DB, f PatientFilter) ([]Patient, int64, error) {
	q := db.WithContext(ctx).Model(&Patient{})
	switch {
	case f.DNIHash != "":
		q = q.Where("dni_hash = ?", f.DNIHash)
	case strings.TrimSpace(f.Q) != "":
		q = q.Where("full_name ILIKE ?", likePattern(f.Q))
	}
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []Patient
	err := q.Order("full_name").Limit(f.Limit).Offset(f.Offset).Find(&list).Error
	return list, total, err
}

func PatientByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*Patient, error) {
	var p Patient
	if err := db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func CreatePatient(ctx context.Context, db *gorm.DB, p *Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return db.WithContext(ctx).Create(p).Error
}

func UpdatePatient(ctx context.Context, db *gorm.DB, p *Patient) error {
	p.UpdatedAt = time.Now()
	res := db.WithContext(ctx).Model(&Patient{}).Where("id = ?", p.ID).
		Select("*").Omit("id", "created_at").Updates(p)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeletePatient removes the patient; treatments, payments, odontogram, history
// and notes go with it through ON DELETE CASCADE.
func DeletePatient(ctx context.Context, db *gorm.DB, id uuid.UUID) error {
	res := db.WithContext(ctx).Delete(&Patient{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdatePatientContact is used by the public medical form.
func UpdatePatientContact(ctx context.Context, db *gorm.DB, id uuid.UUID, email, address, occupation string) error {
	return db.WithContext(ctx).Exec(`
		UPDATE patients SET email = ?, address = ?, occupation = ?, updated_at = now() WHERE id = ?
	`, email, address, occupation, id).Error
}

type PatientBirthday struct {
	ID        uuid.UUID
	FullName  string
	Phone     string
	BirthDate time.Time
}

// PatientsWithBirthDate returns every patient with a known birth date.
// Birthday windows are computed by the caller.
func PatientsWithBirthDate(ctx context.Context, db *gorm.DB) ([]PatientBirthday, error) {
	var list []PatientBirthday
	err := db.WithContext(ctx).Raw(`
		SELECT id, full_name, phone, birth_date FROM patients WHERE birth_date IS NOT NULL ORDER BY full_name
	`).Scan(&list).Error
	return list, err
}

func CountPatients(ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&Patient{}).Count(&n).Error
	return n, err
}
