package repo

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pantera3000/sistema-dental-01/internal/dental"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Treatment struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	PatientID   uuid.UUID `gorm:"type:uuid"`
	Name        string
	Description string
	TotalCost   decimal.Decimal `gorm:"type:numeric(10,2)"`
	StartDate   time.Time       `gorm:"type:date"`
	EndDate     *time.Time      `gorm:"type:date"`
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Treatment) TableName() string { return "treatments" }

// TreatmentRow is a treatment joined with its patient name and payment sum.
type TreatmentRow struct {
	Treatment
	PatientName string
	TotalPaid   decimal.Decimal
}

type TreatmentFilter struct {
	Q         string
	Status    string
	From      *time.Time
	To        *time.Time
	PatientID *uuid.UUID
	Limit     int
	Offset    int
}

const treatmentRowSelect = `
	SELECT t.id, t.patient_id, t.name, t.description, t.total_cost, t.start_date, t.end_date, t.status,
	       t.created_at, t.updated_at, p.full_name AS patient_name,
	       COALESCE((SELECT SUM(pg.amount) FROM payments pg WHERE pg.treatment_id = t.id), 0) AS total_paid
	FROM treatments t
	JOIN patients p ON p.id = t.patient_id
`

const treatmentFilterWhere = `
	WHERE (?::text IS NULL OR t.name ILIKE ? OR p.full_name ILIKE ?)
	  AND (?::text IS NULL OR t.status = ?)
	  AND (?::date IS NULL OR t.start_date >= ?)
	  AND (?::date IS NULL OR t.start_date <= ?)
	  AND (?::uuid IS NULL OR t.patient_id = ?)
`

func (f TreatmentFilter) args() []interface{} {
	var q *string
	pattern := ""
	if strings.TrimSpace(f.Q) != "" {
		pattern = likePattern(f.Q)
		q = &pattern
	}
	status := nullIfEmpty(f.Status)
	return []interface{}{q, pattern, pattern, status, status, f.From, f.From, f.To, f.To, f.PatientID, f.PatientID}
}

func ListTreatments(ctx context.Context, db *gorm.DB, f TreatmentFilter) ([]TreatmentRow, int64, error) {
	var total int64
	err := db.WithContext(ctx).Raw(`SELECT COUNT(*) FROM treatments t JOIN patients p ON p.id = t.patient_id`+treatmentFilterWhere, f.args()...).
		Scan(&total).Error
	if err != nil {
		return nil, 0, err
	}
	args := append(f.args(), f.Limit, f.Offset)
	var list []TreatmentRow
	err = db.WithContext(ctx).Raw(treatmentRowSelect+treatmentFilterWhere+`
		ORDER BY t.start_date DESC, t.created_at DESC
		LIMIT ? OFFSET ?
	`, args...).Scan(&list).Error
	return list, total, err
}

func TreatmentByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*TreatmentRow, error) {
	var row TreatmentRow
	err := db.WithContext(ctx).Raw(treatmentRowSelect+` WHERE t.id = ?`, id).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &row, nil
}

func TreatmentsByPatient(ctx context.Context, db *gorm.DB, patientID uuid.UUID) ([]TreatmentRow, error) {
	var list []TreatmentRow
	err := db.WithContext(ctx).Raw(treatmentRowSelect+`
		WHERE t.patient_id = ?
		ORDER BY t.start_date DESC, t.created_at DESC
	`, patientID).Scan(&list).Error
	return list, err
}

func CreateTreatment(ctx context.Context, db *gorm.DB, t *Treatment) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return db.WithContext(ctx).Create(t).Error
}

func UpdateTreatment(ctx context.Context, db *gorm.DB, t *Treatment) error {
	t.UpdatedAt = time.Now()
	res := db.WithContext(ctx).Model(&Treatment{}).Where("id = ?", t.ID).
		Select("name", "description", "total_cost", "start_date", "end_date", "status", "updated_at").
		Updates(t)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteTreatment refuses to delete a treatment that has payments.
func DeleteTreatment(ctx context.Context, db *gorm.DB, id uuid.UUID) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var t Treatment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&t, "id = ?", id).Error; err != nil {
			return err
		}
		var n int64
		if err := tx.Model(&Payment{}).Where("treatment_id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return dental.ErrHasPayments
		}
		return tx.Delete(&Treatment{}, "id = ?", id).Error
	})
}
