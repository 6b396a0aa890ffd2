package dashboard

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pantera3000/sistema-dental-01/internal/repo"
)

func TestLastMonths(t *testing.T) {
	now := time.Date(2026, 2, 15, 10, 0, 0, 0, time.UTC)
	got := MonthLabels(LastMonths(now, 6))
	want := []string{"Sep 2025", "Oct 2025", "Nov 2025", "Dic 2025", "Ene 2026", "Feb 2026"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v want %v", got, want)
	}
}

func TestLastMonthsEndOfMonth(t *testing.T) {
	// AddDate from the 31st must not skip a month
	now := time.Date(2026, 3, 31, 10, 0, 0, 0, time.UTC)
	months := LastMonths(now, 2)
	if months[0].Month() != time.February || months[1].Month() != time.March {
		t.Errorf("got %v", months)
	}
}

func TestFillAmountsAndCounts(t *testing.T) {
	months := YearMonths(2026, time.UTC)[:3]
	rows := []repo.MonthAmount{
		{Month: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), Total: decimal.NewFromInt(150)},
		{Month: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), Total: decimal.NewFromInt(999)},
	}
	amounts := FillAmounts(months, rows)
	if !amounts[0].IsZero() || !amounts[1].Equal(decimal.NewFromInt(150)) || !amounts[2].IsZero() {
		t.Errorf("amounts: %v", amounts)
	}
	if !sumDecimals(amounts).Equal(decimal.NewFromInt(150)) {
		t.Errorf("sum: %s", sumDecimals(amounts))
	}

	counts := FillCounts(months, []repo.MonthCount{{Month: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), N: 4}})
	if !reflect.DeepEqual(counts, []int64{4, 0, 0}) || sumInts(counts) != 4 {
		t.Errorf("counts: %v", counts)
	}
}

func TestMonthNames(t *testing.T) {
	names := MonthNames(YearMonths(2026, time.UTC))
	if len(names) != 12 || names[0] != "Enero" || names[11] != "Diciembre" {
		t.Errorf("names: %v", names)
	}
}

func TestUpcomingBirthdays(t *testing.T) {
	today := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	list := []repo.PatientBirthday{
		{ID: uuid.New(), FullName: "Lejano", BirthDate: time.Date(1990, 12, 1, 0, 0, 0, 0, time.UTC)},
		{ID: uuid.New(), FullName: "Hoy", BirthDate: time.Date(2000, 3, 10, 0, 0, 0, 0, time.UTC)},
		{ID: uuid.New(), FullName: "Pronto", BirthDate: time.Date(1985, 3, 20, 0, 0, 0, 0, time.UTC)},
		{ID: uuid.New(), FullName: "Pasado", BirthDate: time.Date(1985, 3, 1, 0, 0, 0, 0, time.UTC)},
	}
	got := UpcomingBirthdays(list, today, 180, 0)
	if len(got) != 2 {
		t.Fatalf("expected 2 within window, got %+v", got)
	}
	if got[0].FullName != "Hoy" || got[0].DaysLeft != 0 || got[0].Age != 26 {
		t.Errorf("first: %+v", got[0])
	}
	if got[1].FullName != "Pronto" || got[1].DaysLeft != 10 || got[1].Age != 41 {
		t.Errorf("second: %+v", got[1])
	}
	if got := UpcomingBirthdays(list, today, 365, 1); len(got) != 1 {
		t.Errorf("limit not applied: %d", len(got))
	}
}

func TestQuickRange(t *testing.T) {
	today := time.Date(2026, 5, 20, 16, 0, 0, 0, time.UTC)
	day := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }
	cases := []struct {
		name string
		from time.Time
	}{
		{"1mes", day(2026, 4, 20)},
		{"3meses", day(2026, 2, 19)},
		{"6meses", day(2025, 11, 21)},
		{"anio", day(2026, 1, 1)},
	}
	for _, tc := range cases {
		from, to, ok := QuickRange(tc.name, today)
		if !ok || !from.Equal(tc.from) || !to.Equal(day(2026, 5, 20)) {
			t.Errorf("%s: got %s..%s ok=%v", tc.name, from, to, ok)
		}
	}
	if _, _, ok := QuickRange("semana", today); ok {
		t.Error("unknown filter accepted")
	}
}

func TestCompletionFrom(t *testing.T) {
	c, total := CompletionFrom(map[string]int64{"completado": 1, "en_progreso": 1, "pendiente": 1})
	if total != 3 || c.PercentCompleted != 33.3 || c.PercentPending != 33.3 {
		t.Errorf("got %+v total %d", c, total)
	}
	c, total = CompletionFrom(map[string]int64{"completado": 0, "en_progreso": 0, "pendiente": 0})
	if total != 0 || c.PercentCompleted != 0 {
		t.Errorf("empty: %+v", c)
	}
}

func TestAvailableYears(t *testing.T) {
	got := AvailableYears(time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC))
	if !reflect.DeepEqual(got, []int{2020, 2021, 2022}) {
		t.Errorf("got %v", got)
	}
}

func TestDebtorItemsPercent(t *testing.T) {
	items := debtorItems([]repo.PatientDebt{{
		PatientID: uuid.New(),
		FullName:  "Ana",
		TotalCost: decimal.NewFromInt(400),
		TotalDebt: decimal.NewFromInt(100),
	}})
	if items[0].PercentDebt != 25 {
		t.Errorf("percent: %v", items[0].PercentDebt)
	}
}
