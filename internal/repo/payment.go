package repo

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Payment struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	TreatmentID uuid.UUID `gorm:"type:uuid"`
	PaidAt      time.Time
	Amount      decimal.Decimal `gorm:"type:numeric(10,2)"`
	Method      string
	Note        string
	CreatedAt   time.Time
}

func (Payment) TableName() string { return "payments" }

type PaymentRow struct {
	Payment
	TreatmentName string
	PatientID     uuid.UUID
	PatientName   string
}

type PaymentFilter struct {
	Q         string
	Method    string
	From      *time.Time
	To        *time.Time
	PatientID *uuid.UUID
	Limit     int
	Offset    int
}

const paymentRowSelect = `
	SELECT pg.id, pg.treatment_id, pg.paid_at, pg.amount, pg.method, pg.note, pg.created_at,
	       t.name AS treatment_name, p.id AS patient_id, p.full_name AS patient_name
	FROM payments pg
	JOIN treatments t ON t.id = pg.treatment_id
	JOIN patients p ON p.id = t.patient_id
`

const paymentFilterWhere = `
	WHERE (?::text IS NULL OR p.full_name ILIKE ? OR t.name ILIKE ? OR pg.note ILIKE ?)
	  AND (?::text IS NULL OR pg.method = ?)
	  AND (?::timestamptz IS NULL OR pg.paid_at >= ?)
	  AND (?::timestamptz IS NULL OR pg.paid_at <= ?)
	  AND (?::uuid IS NULL OR p.id = ?)
`

func (f PaymentFilter) args() []interface{} {
	var q *string
	pattern := ""
	if strings.TrimSpace(f.Q) != "" {
		pattern = likePattern(f.Q)
		q = &pattern
	}
	method := nullIfEmpty(f.Method)
	return []interface{}{q, pattern, pattern, pattern, method, method, f.From, f.From, f.To, f.To, f.PatientID, f.PatientID}
}

func ListPayments(ctx context.Context, db *gorm.DB, f PaymentFilter) ([]PaymentRow, int64, decimal.Decimal, error) {
	var agg struct {
		Total int64
		Sum   decimal.Decimal
	}
	err := db.WithContext(ctx).Raw(`
		SELECT COUNT(*) AS total, COALESCE(SUM(pg.amount), 0) AS sum
		FROM payments pg
		JOIN treatments t ON t.id = pg.treatment_id
		JOIN patients p ON p.id = t.patient_id
	`+paymentFilterWhere, f.args()...).Scan(&agg).Error
	if err != nil {
		return nil, 0, decimal.Zero, err
	}
	args := append(f.args(), f.Limit, f.Offset)
	var list []PaymentRow
	err = db.WithContext(ctx).Raw(paymentRowSelect+paymentFilterWhere+`
		ORDER BY pg.paid_at DESC
		LIMIT ? OFFSET ?
	`, args...).Scan(&list).Error
	return list, agg.Total, agg.Sum, err
}

func PaymentsByTreatment(ctx context.Context, db *gorm.DB, treatmentID uuid.UUID) ([]Payment, error) {
	var list []Payment
	err := db.WithContext(ctx).Where("treatment_id = ?", treatmentID).Order("paid_at DESC").Find(&list).Error
	return list, err
}

func PaymentByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*PaymentRow, error) {
	var row PaymentRow
	if err := db.WithContext(ctx).Raw(paymentRowSelect+` WHERE pg.id = ?`, id).Scan(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &row, nil
}

func CreatePayment(ctx context.Context, db *gorm.DB, p *Payment) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.PaidAt.IsZero() {
		p.PaidAt = time.Now()
	}
	return db.WithContext(ctx).Create(p).Error
}

func UpdatePayment(ctx context.Context, db *gorm.DB, p *Payment) error {
	res := db.WithContext(ctx).Model(&Payment{}).Where("id = ?", p.ID).
		Select("paid_at", "amount", "method", "note").Updates(p)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func DeletePayment(ctx context.Context, db *gorm.DB, id uuid.UUID) error {
	res := db.WithContext(ctx).Delete(&Payment{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
