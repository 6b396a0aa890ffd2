package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pantera3000/sistema-dental-01/internal/dental"
	"github.com/pantera3000/sistema-dental-01/internal/repo"
)

type DebtorItem struct {
	PatientID      string          `json:"patient_id"`
	FullName       string          `json:"full_name"`
	Phone          string          `json:"phone"`
	TotalCost      decimal.Decimal `json:"total_cost"`
	TotalDebt      decimal.Decimal `json:"total_debt"`
	PercentDebt    float64         `json:"percent_debt"`
	DebtTreatments int64           `json:"debt_treatments"`
	LastPaymentAt  *time.Time      `json:"last_payment_at"`
}

func debtorItems(rows []repo.PatientDebt) []DebtorItem {
	out := make([]DebtorItem, 0, len(rows))
	for _, r := range rows {
		out = append(out, DebtorItem{
			PatientID:      r.PatientID.String(),
			FullName:       r.FullName,
			Phone:          r.Phone,
			TotalCost:      r.TotalCost,
			TotalDebt:      r.TotalDebt,
			PercentDebt:    dental.Percent(r.TotalDebt, r.TotalCost),
			DebtTreatments: r.DebtTreatments,
			LastPaymentAt:  r.LastPaymentAt,
		})
	}
	return out
}

type PatientCountItem struct {
	PatientID  string `json:"patient_id"`
	FullName   string `json:"full_name"`
	Treatments int64  `json:"treatments"`
}

type Report struct {
	TopDebtors         []DebtorItem       `json:"top_debtors"`
	TopByTreatments    []PatientCountItem `json:"top_by_treatments"`
	TotalIncome        decimal.Decimal    `json:"total_income"`
	TotalDebt          decimal.Decimal    `json:"total_debt"`
	PaymentsThisMonth  decimal.Decimal    `json:"payments_this_month"`
	MonthName          string             `json:"month_name"`
	TotalBilled        decimal.Decimal    `json:"total_billed"`
	TreatmentsByStatus map[string]int64   `json:"treatments_by_status"`
	TotalTreatments    int64              `json:"total_treatments"`
}

func (s *Service) Report(ctx context.Context) (*Report, error) {
	now := s.now()
	monthStart := dental.MonthStart(now)
	r := &Report{MonthName: dental.MonthName(now.Month())}

	debtors, err := repo.PatientDebts(ctx, s.DB, repo.DebtFilter{Limit: reportTopSize})
	if err != nil {
		return nil, fmt.Errorf("top debtors: %w", err)
	}
	r.TopDebtors = debtorItems(debtors)

	stats, err := repo.PatientDebtStats(ctx, s.DB, repo.DebtFilter{})
	if err != nil {
		return nil, fmt.Errorf("debt stats: %w", err)
	}
	r.TotalDebt = stats.Total

	top, err := repo.TopPatientsByTreatments(ctx, s.DB, reportTopSize)
	if err != nil {
		return nil, fmt.Errorf("top patients: %w", err)
	}
	r.TopByTreatments = make([]PatientCountItem, 0, len(top))
	for _, p := range top {
		r.TopByTreatments = append(r.TopByTreatments, PatientCountItem{
			PatientID:  p.PatientID.String(),
			FullName:   p.FullName,
			Treatments: p.N,
		})
	}

	if r.TotalIncome, err = repo.SumPayments(ctx, s.DB, time.Time{}, time.Time{}); err != nil {
		return nil, fmt.Errorf("total income: %w", err)
	}
	if r.PaymentsThisMonth, err = repo.SumPayments(ctx, s.DB, monthStart, monthStart.AddDate(0, 1, 0)); err != nil {
		return nil, fmt.Errorf("month payments: %w", err)
	}
	if r.TotalBilled, err = repo.SumTreatmentCost(ctx, s.DB); err != nil {
		return nil, fmt.Errorf("total billed: %w", err)
	}
	if r.TreatmentsByStatus, err = repo.CountTreatmentsByStatus(ctx, s.DB); err != nil {
		return nil, fmt.Errorf("treatments by status: %w", err)
	}
	for _, n := range r.TreatmentsByStatus {
		r.TotalTreatments += n
	}
	return r, nil
}

// DebtQuery selects patients by the start date of their treatments.
// QuickFilter, when known, overrides From and To.
type DebtQuery struct {
	From        *time.Time
	To          *time.Time
	QuickFilter string
	Page        int
}

type DebtStatsItem struct {
	Patients int64           `json:"patients"`
	Total    decimal.Decimal `json:"total"`
	Average  decimal.Decimal `json:"average"`
	Min      decimal.Decimal `json:"min"`
	Max      decimal.Decimal `json:"max"`
}

type DebtReport struct {
	Items       []DebtorItem  `json:"items"`
	Stats       DebtStatsItem `json:"stats"`
	From        string        `json:"fecha_desde,omitempty"`
	To          string        `json:"fecha_hasta,omitempty"`
	QuickFilter string        `json:"filtro_rapido,omitempty"`
	Page        int           `json:"page"`
	PageSize    int           `json:"page_size"`
	Total       int64         `json:"total"`
}

func (s *Service) Debts(ctx context.Context, q DebtQuery) (*DebtReport, error) {
	if from, to, ok := QuickRange(q.QuickFilter, s.now()); ok {
		q.From, q.To = &from, &to
	} else {
		q.QuickFilter = ""
	}
	// a range needs both ends
	if q.From == nil || q.To == nil {
		q.From, q.To = nil, nil
	}
	if q.Page < 1 {
		q.Page = 1
	}

	f := repo.DebtFilter{From: q.From, To: q.To, Limit: DebtsPageSize, Offset: (q.Page - 1) * DebtsPageSize}
	rows, err := repo.PatientDebts(ctx, s.DB, f)
	if err != nil {
		return nil, fmt.Errorf("patient debts: %w", err)
	}
	stats, err := repo.PatientDebtStats(ctx, s.DB, f)
	if err != nil {
		return nil, fmt.Errorf("debt stats: %w", err)
	}

	out := &DebtReport{
		Items: debtorItems(rows),
		Stats: DebtStatsItem{
			Patients: stats.Patients,
			Total:    stats.Total,
			Average:  stats.Average,
			Min:      stats.Min,
			Max:      stats.Max,
		},
		QuickFilter: q.QuickFilter,
		Page:        q.Page,
		PageSize:    DebtsPageSize,
		Total:       stats.Patients,
	}
	if q.From != nil {
		out.From = q.From.Format("2006-01-02")
		out.To = q.To.Format("2006-01-02")
	}
	return out, nil
}
