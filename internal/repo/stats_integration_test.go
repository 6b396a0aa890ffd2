//go:build integration

package repo

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pantera3000/sistema-dental-01/internal/testutil"
)

const statsTZ = "America/Lima"

func openDBForStatsTest(t *testing.T) *gorm.DB {
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
	return db
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func limaDate(t *testing.T, y int, m time.Month, d int) time.Time {
	t.Helper()
	loc, err := time.LoadLocation(statsTZ)
	if err != nil {
		t.Fatalf("load %s: %v", statsTZ, err)
	}
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func TestIntegration_StatsTotals(t *testing.T) {
	db := openDBForStatsTest(t)
	ctx := context.Background()
	l := testutil.SeedLedger(t, db)

	debt, err := TotalDebt(ctx, db)
	if err != nil {
		t.Fatalf("total debt: %v", err)
	}
	// Ortodoncia 500 + Beto's Limpieza 200; the overpaid Limpieza does not offset
	if !debt.Equal(dec("700")) {
		t.Fatalf("total debt: got %s want 700", debt)
	}

	billed, err := SumTreatmentCost(ctx, db)
	if err != nil {
		t.Fatalf("billed: %v", err)
	}
	if !billed.Equal(dec("1750")) {
		t.Fatalf("billed: got %s want 1750", billed)
	}

	all, err := SumPayments(ctx, db, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("all payments: %v", err)
	}
	if !all.Equal(dec("1100")) {
		t.Fatalf("all payments: got %s want 1100", all)
	}
	march, err := SumPayments(ctx, db, limaDate(t, 2025, 3, 1), limaDate(t, 2025, 4, 1))
	if err != nil {
		t.Fatalf("march payments: %v", err)
	}
	if !march.Equal(dec("400")) {
		t.Fatalf("march payments: got %s want 400", march)
	}

	byStatus, err := CountTreatmentsByStatus(ctx, db)
	if err != nil {
		t.Fatalf("by status: %v", err)
	}
	if byStatus["completado"] != 3 || byStatus["en_progreso"] != 1 || byStatus["pendiente"] != 1 {
		t.Fatalf("by status: %v", byStatus)
	}

	since := limaDate(t, 2025, 3, 15).AddDate(0, 0, -180)
	active, err := CountActivePatients(ctx, db, since)
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if active != 3 {
		t.Fatalf("active patients: got %d want 3", active)
	}
	if err := db.Exec(`INSERT INTO clinical_histories (patient_id, reason, created_at) VALUES (?, 'control', '2025-03-01T15:00:00Z')`, l.Diego).Error; err != nil {
		t.Fatalf("insert history: %v", err)
	}
	if active, err = CountActivePatients(ctx, db, since); err != nil {
		t.Fatalf("active: %v", err)
	}
	if active != 4 {
		t.Fatalf("active patients after history entry: got %d want 4", active)
	}

	methods, err := PaymentMethodTotals(ctx, db)
	if err != nil {
		t.Fatalf("methods: %v", err)
	}
	wantMethods := []MethodTotal{
		{Method: "tarjeta", Total: dec("400"), Count: 1},
		{Method: "efectivo", Total: dec("350"), Count: 2},
		{Method: "yape", Total: dec("300"), Count: 1},
		{Method: "plin", Total: dec("50"), Count: 1},
	}
	if len(methods) != len(wantMethods) {
		t.Fatalf("methods: got %+v", methods)
	}
	for i, w := range wantMethods {
		m := methods[i]
		if m.Method != w.Method || !m.Total.Equal(w.Total) || m.Count != w.Count {
			t.Fatalf("methods[%d]: got %+v want %+v", i, m, w)
		}
	}

	debtors, err := TopDebtorTreatments(ctx, db, 5)
	if err != nil {
		t.Fatalf("top debtors: %v", err)
	}
	if len(debtors) != 2 || debtors[0].Name != "Ortodoncia" || debtors[1].PatientID != l.Beto {
		t.Fatalf("top debtors: %+v", debtors)
	}
}

func TestIntegration_StatsMonthBucketsUseClinicTimezone(t *testing.T) {
	db := openDBForStatsTest(t)
	ctx := context.Background()
	testutil.SeedLedger(t, db)

	from, to := limaDate(t, 2025, 1, 1), limaDate(t, 2026, 1, 1)

	income, err := PaymentsByMonth(ctx, db, from, to, statsTZ)
	if err != nil {
		t.Fatalf("payments by month: %v", err)
	}
	wantIncome := map[time.Month]string{time.January: "300", time.February: "350", time.March: "400"}
	if len(income) != len(wantIncome) {
		t.Fatalf("payments by month: got %+v", income)
	}
	for _, row := range income {
		if row.Month.Year() != 2025 || !row.Total.Equal(dec(wantIncome[row.Month.Month()])) {
			t.Fatalf("payments by month: %s got %s want %s", row.Month.Format("2006-01"), row.Total, wantIncome[row.Month.Month()])
		}
	}

	newPatients, err := NewPatientsByMonth(ctx, db, from, to, statsTZ)
	if err != nil {
		t.Fatalf("new patients: %v", err)
	}
	// Carla registered late on February 28 local time
	if len(newPatients) != 2 ||
		newPatients[0].Month.Month() != time.January || newPatients[0].N != 1 ||
		newPatients[1].Month.Month() != time.February || newPatients[1].N != 1 {
		t.Fatalf("new patients: %+v", newPatients)
	}

	recurring, err := RecurringPatientsByMonth(ctx, db, from, to, statsTZ)
	if err != nil {
		t.Fatalf("recurring: %v", err)
	}
	wantRecurring := map[time.Month]int64{time.January: 1, time.February: 1, time.March: 2}
	if len(recurring) != len(wantRecurring) {
		t.Fatalf("recurring: got %+v", recurring)
	}
	for _, row := range recurring {
		if row.N != wantRecurring[row.Month.Month()] {
			t.Fatalf("recurring %s: got %d want %d", row.Month.Format("2006-01"), row.N, wantRecurring[row.Month.Month()])
		}
	}

	names, err := TopTreatmentNames(ctx, db, from, to, 10)
	if err != nil {
		t.Fatalf("top names: %v", err)
	}
	wantNames := []NameCount{{"Limpieza", 2}, {"Endodoncia", 1}, {"Ortodoncia", 1}}
	if len(names) != len(wantNames) {
		t.Fatalf("top names: got %+v", names)
	}
	for i := range wantNames {
		if names[i] != wantNames[i] {
			t.Fatalf("top names[%d]: got %+v want %+v", i, names[i], wantNames[i])
		}
	}
}

func TestIntegration_PatientDebtsNetPerPatient(t *testing.T) {
	db := openDBForStatsTest(t)
	ctx := context.Background()
	l := testutil.SeedLedger(t, db)

	rows, err := PatientDebts(ctx, db, DebtFilter{Limit: 20})
	if err != nil {
		t.Fatalf("patient debts: %v", err)
	}
	// Ana owes 500 on Ortodoncia and is 50 ahead on Limpieza. Carla and Diego are settled.
	if len(rows) != 2 {
		t.Fatalf("patient debts: got %+v", rows)
	}
	ana, beto := rows[0], rows[1]
	if ana.PatientID != l.Ana || !ana.TotalDebt.Equal(dec("450")) || !ana.TotalCost.Equal(dec("1100")) || ana.DebtTreatments != 1 {
		t.Fatalf("ana: %+v", ana)
	}
	if ana.LastPaymentAt == nil || !ana.LastPaymentAt.Equal(time.Date(2025, 2, 10, 15, 0, 0, 0, time.UTC)) {
		t.Fatalf("ana last payment: %v", ana.LastPaymentAt)
	}
	if beto.PatientID != l.Beto || !beto.TotalDebt.Equal(dec("200")) || beto.LastPaymentAt != nil {
		t.Fatalf("beto: %+v", beto)
	}

	st, err := PatientDebtStats(ctx, db, DebtFilter{})
	if err != nil {
		t.Fatalf("debt stats: %v", err)
	}
	if st.Patients != 2 || !st.Total.Equal(dec("650")) || !st.Average.Equal(dec("325")) ||
		!st.Min.Equal(dec("200")) || !st.Max.Equal(dec("450")) {
		t.Fatalf("debt stats: %+v", st)
	}

	// only treatments started in Feb..Mar: Ana's overpaid Limpieza nets negative
	from, to := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	f := DebtFilter{From: &from, To: &to, Limit: 20}
	rows, err = PatientDebts(ctx, db, f)
	if err != nil {
		t.Fatalf("filtered debts: %v", err)
	}
	if len(rows) != 1 || rows[0].PatientID != l.Beto {
		t.Fatalf("filtered debts: %+v", rows)
	}
	if st, err = PatientDebtStats(ctx, db, f); err != nil {
		t.Fatalf("filtered stats: %v", err)
	}
	if st.Patients != 1 || !st.Total.Equal(dec("200")) {
		t.Fatalf("filtered stats: %+v", st)
	}

	paged, err := PatientDebts(ctx, db, DebtFilter{Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("paged debts: %v", err)
	}
	if len(paged) != 1 || paged[0].PatientID != l.Beto {
		t.Fatalf("second page: %+v", paged)
	}

	top, err := TopPatientsByTreatments(ctx, db, 10)
	if err != nil {
		t.Fatalf("top patients: %v", err)
	}
	if len(top) != 4 || top[0].PatientID != l.Ana || top[0].N != 2 || top[1].FullName != "Beto Ramos" {
		t.Fatalf("top patients: %+v", top)
	}
}
