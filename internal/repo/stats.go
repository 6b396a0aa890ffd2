package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Aggregate queries behind the dashboard, statistics and reports.

// CountActivePatients counts distinct patients with a treatment started or a
// clinical history entry since the given instant.
func CountActivePatients(ctx context.Context, db *gorm.DB, since time.Time) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Raw(`
		SELECT COUNT(DISTINCT patient_id) FROM (
			SELECT patient_id FROM treatments WHERE start_date >= ?::date
			UNION
			SELECT patient_id FROM clinical_histories WHERE created_at >= ?
		) active
	`, since.Format("2006-01-02"), since).Scan(&n).Error
	return n, err
}

// SumPayments sums payments with from <= paid_at < to. Zero bounds are open.
func SumPayments(ctx context.Context, db *gorm.DB, from, to time.Time) (decimal.Decimal, error) {
	var row struct{ Total decimal.Decimal }
	err := db.WithContext(ctx).Raw(`
		SELECT COALESCE(SUM(amount), 0) AS total FROM payments
		WHERE (?::timestamptz IS NULL OR paid_at >= ?)
		  AND (?::timestamptz IS NULL OR paid_at < ?)
	`, timeOrNil(from), timeOrNil(from), timeOrNil(to), timeOrNil(to)).Scan(&row).Error
	return row.Total, err
}

func SumTreatmentCost(ctx context.Context, db *gorm.DB) (decimal.Decimal, error) {
	var row struct{ Total decimal.Decimal }
	err := db.WithContext(ctx).Raw(`SELECT COALESCE(SUM(total_cost), 0) AS total FROM treatments`).Scan(&row).Error
	return row.Total, err
}

// TotalDebt sums cost minus paid over treatments that are not fully paid.
func TotalDebt(ctx context.Context, db *gorm.DB) (decimal.Decimal, error) {
	var row struct{ Total decimal.Decimal }
	err := db.WithContext(ctx).Raw(`
		SELECT COALESCE(SUM(t.total_cost - COALESCE(p.paid, 0)), 0) AS total
		FROM treatments t
		LEFT JOIN (SELECT treatment_id, SUM(amount) AS paid FROM payments GROUP BY treatment_id) p
		       ON p.treatment_id = t.id
		WHERE COALESCE(p.paid, 0) < t.total_cost
	`).Scan(&row).Error
	return row.Total, err
}

func CountTreatmentsByStatus(ctx context.Context, db *gorm.DB) (map[string]int64, error) {
	var rows []struct {
		Status string
		N      int64
	}
	if err := db.WithContext(ctx).Raw(`SELECT status, COUNT(*) AS n FROM treatments GROUP BY status`).Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := map[string]int64{"pendiente": 0, "en_progreso": 0, "completado": 0}
	for _, r := range rows {
		out[r.Status] = r.N
	}
	return out, nil
}

// TopDebtorTreatments returns treatments with outstanding debt, largest first.
func TopDebtorTreatments(ctx context.Context, db *gorm.DB, limit int) ([]TreatmentRow, error) {
	var list []TreatmentRow
	err := db.WithContext(ctx).Raw(`SELECT * FROM (`+treatmentRowSelect+`) x
		WHERE x.total_paid < x.total_cost
		ORDER BY x.total_cost - x.total_paid DESC
		LIMIT ?
	`, limit).Scan(&list).Error
	return list, err
}

func RecentTreatments(ctx context.Context, db *gorm.DB, limit int) ([]TreatmentRow, error) {
	var list []TreatmentRow
	err := db.WithContext(ctx).Raw(treatmentRowSelect+`
		ORDER BY t.start_date DESC, t.created_at DESC
		LIMIT ?
	`, limit).Scan(&list).Error
	return list, err
}

type MonthAmount struct {
	Month time.Time
	Total decimal.Decimal
}

// PaymentsByMonth groups payments in [from, to) by calendar month in tz.
// Month is returned as a naive date (UTC) for the first day of the month.
func PaymentsByMonth(ctx context.Context, db *gorm.DB, from, to time.Time, tz string) ([]MonthAmount, error) {
	var list []MonthAmount
	err := db.WithContext(ctx).Raw(`
		SELECT date_trunc('month', paid_at AT TIME ZONE ?)::date AS month, SUM(amount) AS total
		FROM payments
		WHERE paid_at >= ? AND paid_at < ?
		GROUP BY 1 ORDER BY 1
	`, tz, from, to).Scan(&list).Error
	return list, err
}

type MonthCount struct {
	Month time.Time
	N     int64
}

func NewPatientsByMonth(ctx context.Context, db *gorm.DB, from, to time.Time, tz string) ([]MonthCount, error) {
	var list []MonthCount
	err := db.WithContext(ctx).Raw(`
		SELECT date_trunc('month', created_at AT TIME ZONE ?)::date AS month, COUNT(*) AS n
		FROM patients
		WHERE created_at >= ? AND created_at < ?
		GROUP BY 1 ORDER BY 1
	`, tz, from, to).Scan(&list).Error
	return list, err
}

// RecurringPatientsByMonth counts, per month, distinct patients with a treatment
// started that month who were registered before the month began. Both sides of
// the comparison are clinic-local timestamps.
func RecurringPatientsByMonth(ctx context.Context, db *gorm.DB, from, to time.Time, tz string) ([]MonthCount, error) {
	var list []MonthCount
	err := db.WithContext(ctx).Raw(`
		SELECT date_trunc('month', t.start_date::timestamp)::date AS month, COUNT(DISTINCT t.patient_id) AS n
		FROM treatments t
		JOIN patients p ON p.id = t.patient_id
		WHERE t.start_date >= ?::date AND t.start_date < ?::date
		  AND (p.created_at AT TIME ZONE ?) < date_trunc('month', t.start_date::timestamp)
		GROUP BY 1 ORDER BY 1
	`, from.Format("2006-01-02"), to.Format("2006-01-02"), tz).Scan(&list).Error
	return list, err
}

type MethodTotal struct {
	Method string
	Total  decimal.Decimal
	Count  int64
}

func PaymentMethodTotals(ctx context.Context, db *gorm.DB) ([]MethodTotal, error) {
	var list []MethodTotal
	err := db.WithContext(ctx).Raw(`
		SELECT method, SUM(amount) AS total, COUNT(*) AS count
		FROM payments GROUP BY method ORDER BY total DESC
	`).Scan(&list).Error
	return list, err
}

type NameCount struct {
	Name string
	N    int64
}

func TopTreatmentNames(ctx context.Context, db *gorm.DB, from, to time.Time, limit int) ([]NameCount, error) {
	var list []NameCount
	err := db.WithContext(ctx).Raw(`
		SELECT name, COUNT(*) AS n FROM treatments
		WHERE start_date >= ?::date AND start_date < ?::date
		GROUP BY name ORDER BY n DESC, name
		LIMIT ?
	`, from.Format("2006-01-02"), to.Format("2006-01-02"), limit).Scan(&list).Error
	return list, err
}

type PatientDebt struct {
	PatientID      uuid.UUID
	FullName       string
	Phone          string
	TotalCost      decimal.Decimal
	TotalDebt      decimal.Decimal
	DebtTreatments int64
	LastPaymentAt  *time.Time
}

type DebtFilter struct {
	// Treatments started in [From, To] (dates). Both must be set to filter.
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

const patientDebtCTE = `
	WITH per_treatment AS (
		SELECT t.id, t.patient_id, t.total_cost,
		       t.total_cost - COALESCE((SELECT SUM(amount) FROM payments pg WHERE pg.treatment_id = t.id), 0) AS debt
		FROM treatments t
		WHERE (?::date IS NULL OR ?::date IS NULL OR (t.start_date >= ? AND t.start_date <= ?))
	), per_patient AS (
		SELECT pt.patient_id,
		       SUM(pt.total_cost) AS total_cost,
		       SUM(pt.debt) AS total_debt,
		       COUNT(*) FILTER (WHERE pt.debt > 0) AS debt_treatments
		FROM per_treatment pt
		GROUP BY pt.patient_id
		HAVING SUM(pt.debt) > 0
	)
`

func (f DebtFilter) args() []interface{} {
	from, to := dateOrNil(f.From), dateOrNil(f.To)
	return []interface{}{from, to, from, to}
}

// PatientDebts lists patients whose treatments (optionally filtered by start date)
// add up to a positive debt, largest first.
func PatientDebts(ctx context.Context, db *gorm.DB, f DebtFilter) ([]PatientDebt, error) {
	args := append(f.args(), f.Limit, f.Offset)
	var list []PatientDebt
	err := db.WithContext(ctx).Raw(patientDebtCTE+`
		SELECT pp.patient_id, p.full_name, p.phone, pp.total_cost, pp.total_debt, pp.debt_treatments,
		       (SELECT MAX(pg.paid_at) FROM payments pg JOIN treatments t ON t.id = pg.treatment_id
		        WHERE t.patient_id = pp.patient_id) AS last_payment_at
		FROM per_patient pp
		JOIN patients p ON p.id = pp.patient_id
		ORDER BY pp.total_debt DESC, p.full_name
		LIMIT ? OFFSET ?
	`, args...).Scan(&list).Error
	return list, err
}

type DebtStats struct {
	Patients int64
	Total    decimal.Decimal
	Average  decimal.Decimal
	Min      decimal.Decimal
	Max      decimal.Decimal
}

func PatientDebtStats(ctx context.Context, db *gorm.DB, f DebtFilter) (DebtStats, error) {
	var s DebtStats
	err := db.WithContext(ctx).Raw(patientDebtCTE+`
		SELECT COUNT(*) AS patients,
		       COALESCE(SUM(total_debt), 0) AS total,
		       COALESCE(ROUND(AVG(total_debt), 2), 0) AS average,
		       COALESCE(MIN(total_debt), 0) AS min,
		       COALESCE(MAX(total_debt), 0) AS max
		FROM per_patient
	`, f.args()...).Scan(&s).Error
	return s, err
}

type PatientTreatmentCount struct {
	PatientID uuid.UUID
	FullName  string
	N         int64
}

func TopPatientsByTreatments(ctx context.Context, db *gorm.DB, limit int) ([]PatientTreatmentCount, error) {
	var list []PatientTreatmentCount
	err := db.WithContext(ctx).Raw(`
		SELECT p.id AS patient_id, p.full_name, COUNT(t.id) AS n
		FROM patients p JOIN treatments t ON t.patient_id = p.id
		GROUP BY p.id, p.full_name
		ORDER BY n DESC, p.full_name
		LIMIT ?
	`, limit).Scan(&list).Error
	return list, err
}

func timeOrNil(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func dateOrNil(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}
