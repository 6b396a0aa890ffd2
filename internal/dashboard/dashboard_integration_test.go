//go:build integration

package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pantera3000/sistema-dental-01/internal/testutil"
)

func newServiceForIntegrationTest(t *testing.T) (*Service, testutil.Ledger) {
	t.Helper()
	ctx := context.Background()
	db, pool := testutil.OpenDB(ctx)
	if db == nil {
		t.Skip("DATABASE_URL not set for integration tests")
	}
	t.Cleanup(pool.Close)
	if err := testutil.MustMigrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := testutil.Truncate(ctx, db); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	l := testutil.SeedLedger(t, db)

	loc, err := time.LoadLocation("America/Lima")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	s := New(db, nil, loc)
	s.Now = func() time.Time { return time.Date(2025, 3, 15, 12, 0, 0, 0, loc) }
	return s, l
}

func amounts(t *testing.T, got []decimal.Decimal, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("amounts: got %v want %v", got, want)
	}
	for i := range want {
		if !got[i].Equal(decimal.RequireFromString(want[i])) {
			t.Fatalf("amounts[%d]: got %v want %v", i, got, want)
		}
	}
}

func counts(t *testing.T, got []int64, want ...int64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("counts: got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("counts[%d]: got %v want %v", i, got, want)
		}
	}
}

func TestIntegration_Dashboard(t *testing.T) {
	s, l := newServiceForIntegrationTest(t)

	d, err := s.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if d.ActivePatients != 3 {
		t.Fatalf("active patients: got %d want 3", d.ActivePatients)
	}
	if !d.IncomeThisMonth.Equal(decimal.NewFromInt(400)) {
		t.Fatalf("income this month: got %s", d.IncomeThisMonth)
	}
	if d.ActiveTreatments != 1 {
		t.Fatalf("active treatments: got %d", d.ActiveTreatments)
	}
	if !d.TotalDebt.Equal(decimal.NewFromInt(700)) {
		t.Fatalf("total debt: got %s want 700", d.TotalDebt)
	}
	// 1100 collected of 1750 billed
	if d.CollectionRate != 62.9 {
		t.Fatalf("collection rate: got %v want 62.9", d.CollectionRate)
	}

	// October 2024 through March 2025
	amounts(t, d.MonthlyIncome, "0", "0", "0", "300", "350", "400")
	counts(t, d.NewPatientsByMonth, 0, 0, 1, 1, 1, 0)
	if len(d.MonthLabels) != 6 {
		t.Fatalf("month labels: %v", d.MonthLabels)
	}

	if len(d.PaymentMethods) == 0 || d.PaymentMethods[0].Method != "tarjeta" {
		t.Fatalf("payment methods: %+v", d.PaymentMethods)
	}
	if len(d.TopDebtors) != 2 || d.TopDebtors[0].PatientID != l.Ana.String() ||
		!d.TopDebtors[0].Debt.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("top debtors: %+v", d.TopDebtors)
	}
	if len(d.RecentTreatments) != 5 || d.RecentTreatments[0].Name != "Endodoncia" {
		t.Fatalf("recent treatments: %+v", d.RecentTreatments)
	}
}

func TestIntegration_Statistics(t *testing.T) {
	s, _ := newServiceForIntegrationTest(t)

	st, err := s.Statistics(context.Background(), 2025)
	if err != nil {
		t.Fatalf("statistics: %v", err)
	}
	amounts(t, st.MonthlyIncome, "300", "350", "400", "0", "0", "0", "0", "0", "0", "0", "0", "0")
	if !st.TotalIncome.Equal(decimal.NewFromInt(1050)) {
		t.Fatalf("total income: got %s want 1050", st.TotalIncome)
	}
	counts(t, st.NewPatientsByMonth, 1, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0)
	counts(t, st.RecurringByMonth, 1, 1, 2, 0, 0, 0, 0, 0, 0, 0, 0, 0)
	if st.TotalNewPatients != 2 || st.TotalRecurring != 4 {
		t.Fatalf("totals: new %d recurring %d", st.TotalNewPatients, st.TotalRecurring)
	}
	if len(st.TopTreatments) != 3 || st.TopTreatments[0] != (NameCountItem{Name: "Limpieza", Count: 2}) {
		t.Fatalf("top treatments: %+v", st.TopTreatments)
	}
	if st.TotalTreatments != 5 || st.Completion.Completed != 3 || st.Completion.PercentCompleted != 60 {
		t.Fatalf("completion: %+v of %d", st.Completion, st.TotalTreatments)
	}
}

func TestIntegration_ReportAndDebts(t *testing.T) {
	s, l := newServiceForIntegrationTest(t)
	ctx := context.Background()

	r, err := s.Report(ctx)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	// net per patient: Ana's overpaid treatment offsets her debt here, unlike the dashboard total
	if !r.TotalDebt.Equal(decimal.NewFromInt(650)) {
		t.Fatalf("report debt: got %s want 650", r.TotalDebt)
	}
	if !r.TotalIncome.Equal(decimal.NewFromInt(1100)) || !r.PaymentsThisMonth.Equal(decimal.NewFromInt(400)) ||
		!r.TotalBilled.Equal(decimal.NewFromInt(1750)) || r.TotalTreatments != 5 {
		t.Fatalf("report totals: %+v", r)
	}
	if len(r.TopDebtors) != 2 || r.TopDebtors[0].PatientID != l.Ana.String() || r.TopDebtors[0].PercentDebt != 40.9 {
		t.Fatalf("report debtors: %+v", r.TopDebtors)
	}
	if len(r.TopByTreatments) == 0 || r.TopByTreatments[0].Treatments != 2 {
		t.Fatalf("top by treatments: %+v", r.TopByTreatments)
	}

	all, err := s.Debts(ctx, DebtQuery{})
	if err != nil {
		t.Fatalf("debts: %v", err)
	}
	if all.Total != 2 || !all.Stats.Total.Equal(decimal.NewFromInt(650)) || !all.Stats.Average.Equal(decimal.NewFromInt(325)) {
		t.Fatalf("debts: %+v", all)
	}

	// 1mes from March 15 reaches back to February 13: only the March treatments
	recent, err := s.Debts(ctx, DebtQuery{QuickFilter: QuickOneMonth})
	if err != nil {
		t.Fatalf("debts 1mes: %v", err)
	}
	if recent.Total != 1 || recent.Items[0].PatientID != l.Beto.String() || recent.From != "2025-02-13" {
		t.Fatalf("debts 1mes: %+v", recent)
	}

	from, to := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	jan, err := s.Debts(ctx, DebtQuery{From: &from, To: &to})
	if err != nil {
		t.Fatalf("debts january: %v", err)
	}
	if jan.Total != 1 || !jan.Items[0].TotalDebt.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("debts january: %+v", jan)
	}
}
