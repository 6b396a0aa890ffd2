// Package dashboard assembles the dashboard, statistics and report views.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pantera3000/sistema-dental-01/internal/calendar"
	"github.com/pantera3000/sistema-dental-01/internal/dental"
	"github.com/pantera3000/sistema-dental-01/internal/repo"
)

const (
	activeWindowDays  = 180
	chartMonths       = 6
	listSize          = 5
	reportTopSize     = 10
	DebtsPageSize     = 20
	upcomingBirthdays = 5
)

// EventSource is the subset of the calendar service the dashboard reads.
type EventSource interface {
	Filtered(ctx context.Context, filter string) []calendar.Event
	Upcoming(ctx context.Context, n int) []calendar.Event
}

type Service struct {
	DB       *gorm.DB
	Calendar EventSource
	Loc      *time.Location
	Now      func() time.Time
}

func New(db *gorm.DB, cal EventSource, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{DB: db, Calendar: cal, Loc: loc, Now: time.Now}
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().In(s.Loc)
	}
	return s.Now().In(s.Loc)
}

type TreatmentItem struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	PatientID   string          `json:"patient_id"`
	PatientName string          `json:"patient_name"`
	StartDate   string          `json:"start_date"`
	Status      string          `json:"status"`
	StatusLabel string          `json:"status_label"`
	TotalCost   decimal.Decimal `json:"total_cost"`
	Debt        decimal.Decimal `json:"debt"`
}

func treatmentItem(t repo.TreatmentRow) TreatmentItem {
	return TreatmentItem{
		ID:          t.ID.String(),
		Name:        t.Name,
		PatientID:   t.PatientID.String(),
		PatientName: t.PatientName,
		StartDate:   t.StartDate.Format("2006-01-02"),
		Status:      t.Status,
		StatusLabel: dental.TreatmentStatusLabel(t.Status),
		TotalCost:   t.TotalCost,
		Debt:        t.TotalCost.Sub(t.TotalPaid),
	}
}

type MethodItem struct {
	Method string          `json:"method"`
	Label  string          `json:"label"`
	Total  decimal.Decimal `json:"total"`
	Count  int64           `json:"count"`
}

type Dashboard struct {
	ActivePatients     int64             `json:"active_patients"`
	IncomeThisMonth    decimal.Decimal   `json:"income_this_month"`
	ActiveTreatments   int64             `json:"active_treatments"`
	TotalDebt          decimal.Decimal   `json:"total_debt"`
	AppointmentsWeek   int               `json:"appointments_week"`
	CollectionRate     float64           `json:"collection_rate"`
	MonthlyIncome      []decimal.Decimal `json:"monthly_income"`
	MonthLabels        []string          `json:"month_labels"`
	TreatmentsByStatus map[string]int64  `json:"treatments_by_status"`
	PaymentMethods     []MethodItem      `json:"payment_methods"`
	NewPatientsByMonth []int64           `json:"new_patients_by_month"`
	UpcomingEvents     []calendar.Event  `json:"upcoming_events"`
	TopDebtors         []TreatmentItem   `json:"top_debtors"`
	RecentTreatments   []TreatmentItem   `json:"recent_treatments"`
	UpcomingBirthdays  []Birthday        `json:"upcoming_birthdays"`
}

func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	now := s.now()
	monthStart := dental.MonthStart(now)
	d := &Dashboard{}
	var err error

	if d.ActivePatients, err = repo.CountActivePatients(ctx, s.DB, now.AddDate(0, 0, -activeWindowDays)); err != nil {
		return nil, fmt.Errorf("active patients: %w", err)
	}
	if d.IncomeThisMonth, err = repo.SumPayments(ctx, s.DB, monthStart, monthStart.AddDate(0, 1, 0)); err != nil {
		return nil, fmt.Errorf("month income: %w", err)
	}
	if d.TreatmentsByStatus, err = repo.CountTreatmentsByStatus(ctx, s.DB); err != nil {
		return nil, fmt.Errorf("treatments by status: %w", err)
	}
	d.ActiveTreatments = d.TreatmentsByStatus[dental.StatusInProgress]
	if d.TotalDebt, err = repo.TotalDebt(ctx, s.DB); err != nil {
		return nil, fmt.Errorf("total debt: %w", err)
	}

	billed, err := repo.SumTreatmentCost(ctx, s.DB)
	if err != nil {
		return nil, fmt.Errorf("billed: %w", err)
	}
	collected, err := repo.SumPayments(ctx, s.DB, time.Time{}, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("collected: %w", err)
	}
	d.CollectionRate = dental.Percent(collected, billed)

	months := LastMonths(now, chartMonths)
	end := monthStart.AddDate(0, 1, 0)
	income, err := repo.PaymentsByMonth(ctx, s.DB, months[0], end, s.Loc.String())
	if err != nil {
		return nil, fmt.Errorf("monthly income: %w", err)
	}
	d.MonthlyIncome = FillAmounts(months, income)
	d.MonthLabels = MonthLabels(months)

	newPatients, err := repo.NewPatientsByMonth(ctx, s.DB, months[0], end, s.Loc.String())
	if err != nil {
		return nil, fmt.Errorf("new patients: %w", err)
	}
	d.NewPatientsByMonth = FillCounts(months, newPatients)

	methods, err := repo.PaymentMethodTotals(ctx, s.DB)
	if err != nil {
		return nil, fmt.Errorf("payment methods: %w", err)
	}
	d.PaymentMethods = make([]MethodItem, 0, len(methods))
	for _, m := range methods {
		d.PaymentMethods = append(d.PaymentMethods, MethodItem{
			Method: m.Method,
			Label:  dental.PaymentMethodLabel(m.Method),
			Total:  m.Total,
			Count:  m.Count,
		})
	}

	debtors, err := repo.TopDebtorTreatments(ctx, s.DB, listSize)
	if err != nil {
		return nil, fmt.Errorf("top debtors: %w", err)
	}
	d.TopDebtors = treatmentItems(debtors)

	recent, err := repo.RecentTreatments(ctx, s.DB, listSize)
	if err != nil {
		return nil, fmt.Errorf("recent treatments: %w", err)
	}
	d.RecentTreatments = treatmentItems(recent)

	birthdays, err := repo.PatientsWithBirthDate(ctx, s.DB)
	if err != nil {
		return nil, fmt.Errorf("birthdays: %w", err)
	}
	d.UpcomingBirthdays = UpcomingBirthdays(birthdays, now, dental.BirthdayWindowDays, upcomingBirthdays)

	d.UpcomingEvents = []calendar.Event{}
	if s.Calendar != nil {
		d.AppointmentsWeek = len(s.Calendar.Filtered(ctx, calendar.FilterWeek))
		d.UpcomingEvents = s.Calendar.Upcoming(ctx, listSize)
	}
	return d, nil
}

func treatmentItems(rows []repo.TreatmentRow) []TreatmentItem {
	out := make([]TreatmentItem, 0, len(rows))
	for _, r := range rows {
		out = append(out, treatmentItem(r))
	}
	return out
}

type NameCountItem struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

type Completion struct {
	Completed         int64   `json:"completed"`
	InProgress        int64   `json:"in_progress"`
	Pending           int64   `json:"pending"`
	PercentCompleted  float64 `json:"percent_completed"`
	PercentInProgress float64 `json:"percent_in_progress"`
	PercentPending    float64 `json:"percent_pending"`
}

// CompletionFrom turns per-status counts into percentages of total.
func CompletionFrom(byStatus map[string]int64) (Completion, int64) {
	c := Completion{
		Completed:  byStatus[dental.StatusCompleted],
		InProgress: byStatus[dental.StatusInProgress],
		Pending:    byStatus[dental.StatusPending],
	}
	var total int64
	for _, n := range byStatus {
		total += n
	}
	pct := func(n int64) float64 {
		return dental.Percent(decimal.NewFromInt(n), decimal.NewFromInt(total))
	}
	c.PercentCompleted = pct(c.Completed)
	c.PercentInProgress = pct(c.InProgress)
	c.PercentPending = pct(c.Pending)
	return c, total
}

type Statistics struct {
	Year               int               `json:"year"`
	AvailableYears     []int             `json:"available_years"`
	MonthlyIncome      []decimal.Decimal `json:"monthly_income"`
	MonthLabels        []string          `json:"month_labels"`
	TotalIncome        decimal.Decimal   `json:"total_income"`
	TopTreatments      []NameCountItem   `json:"top_treatments"`
	NewPatientsByMonth []int64           `json:"new_patients_by_month"`
	RecurringByMonth   []int64           `json:"recurring_patients_by_month"`
	TotalNewPatients   int64             `json:"total_new_patients"`
	TotalRecurring     int64             `json:"total_recurring_patients"`
	TotalTreatments    int64             `json:"total_treatments"`
	Completion         Completion        `json:"completion"`
}

// Statistics covers the twelve months of year; year <= 0 means the current one.
func (s *Service) Statistics(ctx context.Context, year int) (*Statistics, error) {
	now := s.now()
	if year <= 0 {
		year = now.Year()
	}
	months := YearMonths(year, s.Loc)
	from := months[0]
	to := from.AddDate(1, 0, 0)
	tz := s.Loc.String()

	st := &Statistics{Year: year, AvailableYears: AvailableYears(now), MonthLabels: MonthNames(months)}

	income, err := repo.PaymentsByMonth(ctx, s.DB, from, to, tz)
	if err != nil {
		return nil, fmt.Errorf("monthly income: %w", err)
	}
	st.MonthlyIncome = FillAmounts(months, income)
	st.TotalIncome = sumDecimals(st.MonthlyIncome)

	names, err := repo.TopTreatmentNames(ctx, s.DB, from, to, reportTopSize)
	if err != nil {
		return nil, fmt.Errorf("top treatments: %w", err)
	}
	st.TopTreatments = make([]NameCountItem, 0, len(names))
	for _, n := range names {
		st.TopTreatments = append(st.TopTreatments, NameCountItem{Name: n.Name, Count: n.N})
	}

	newRows, err := repo.NewPatientsByMonth(ctx, s.DB, from, to, tz)
	if err != nil {
		return nil, fmt.Errorf("new patients: %w", err)
	}
	st.NewPatientsByMonth = FillCounts(months, newRows)
	st.TotalNewPatients = sumInts(st.NewPatientsByMonth)

	recRows, err := repo.RecurringPatientsByMonth(ctx, s.DB, from, to, tz)
	if err != nil {
		return nil, fmt.Errorf("recurring patients: %w", err)
	}
	st.RecurringByMonth = FillCounts(months, recRows)
	st.TotalRecurring = sumInts(st.RecurringByMonth)

	byStatus, err := repo.CountTreatmentsByStatus(ctx, s.DB)
	if err != nil {
		return nil, fmt.Errorf("treatments by status: %w", err)
	}
	st.Completion, st.TotalTreatments = CompletionFrom(byStatus)
	return st, nil
}
