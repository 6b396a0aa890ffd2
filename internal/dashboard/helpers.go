package dashboard

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pantera3000/sistema-dental-01/internal/dental"
	"github.com/pantera3000/sistema-dental-01/internal/repo"
)

// LastMonths returns the first instant of the n months ending with now's
// month, oldest first, in now's location.
func LastMonths(now time.Time, n int) []time.Time {
	cur := dental.MonthStart(now)
	out := make([]time.Time, n)
	for i := 0; i < n; i++ {
		out[i] = cur.AddDate(0, i-n+1, 0)
	}
	return out
}

// YearMonths returns the 12 month starts of year in loc.
func YearMonths(year int, loc *time.Location) []time.Time {
	out := make([]time.Time, 12)
	for i := range out {
		out[i] = time.Date(year, time.Month(i+1), 1, 0, 0, 0, 0, loc)
	}
	return out
}

func monthKey(t time.Time) int { return t.Year()*100 + int(t.Month()) }

// FillAmounts maps grouped rows onto months, zero where a month has no rows.
func FillAmounts(months []time.Time, rows []repo.MonthAmount) []decimal.Decimal {
	idx := map[int]decimal.Decimal{}
	for _, r := range rows {
		idx[monthKey(r.Month)] = r.Total
	}
	out := make([]decimal.Decimal, len(months))
	for i, m := range months {
		out[i] = idx[monthKey(m)]
	}
	return out
}

func FillCounts(months []time.Time, rows []repo.MonthCount) []int64 {
	idx := map[int]int64{}
	for _, r := range rows {
		idx[monthKey(r.Month)] = r.N
	}
	out := make([]int64, len(months))
	for i, m := range months {
		out[i] = idx[monthKey(m)]
	}
	return out
}

func MonthLabels(months []time.Time) []string {
	out := make([]string, len(months))
	for i, m := range months {
		out[i] = dental.MonthLabel(m)
	}
	return out
}

func MonthNames(months []time.Time) []string {
	out := make([]string, len(months))
	for i, m := range months {
		out[i] = dental.MonthName(m.Month())
	}
	return out
}

func sumDecimals(v []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, d := range v {
		total = total.Add(d)
	}
	return total
}

func sumInts(v []int64) int64 {
	var total int64
	for _, n := range v {
		total += n
	}
	return total
}

type Birthday struct {
	PatientID string `json:"patient_id"`
	FullName  string `json:"full_name"`
	Phone     string `json:"phone"`
	BirthDate string `json:"birth_date"`
	Age       int    `json:"age"`
	DaysLeft  int    `json:"days_left"`
}

// UpcomingBirthdays keeps patients whose birthday falls within windowDays of
// today, nearest first. limit <= 0 keeps all.
func UpcomingBirthdays(list []repo.PatientBirthday, today time.Time, windowDays, limit int) []Birthday {
	out := []Birthday{}
	for _, p := range list {
		days := dental.DaysUntilBirthday(p.BirthDate, today)
		if days > windowDays {
			continue
		}
		// age they turn on that birthday
		age := dental.Age(p.BirthDate, today)
		if days > 0 {
			age++
		}
		out = append(out, Birthday{
			PatientID: p.ID.String(),
			FullName:  p.FullName,
			Phone:     p.Phone,
			BirthDate: p.BirthDate.Format("2006-01-02"),
			Age:       age,
			DaysLeft:  days,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DaysLeft != out[j].DaysLeft {
			return out[i].DaysLeft < out[j].DaysLeft
		}
		return out[i].FullName < out[j].FullName
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

const (
	QuickOneMonth    = "1mes"
	QuickThreeMonths = "3meses"
	QuickSixMonths   = "6meses"
	QuickYear        = "anio"
)

// QuickRange resolves a debt-report quick filter to an inclusive date range
// ending today. ok is false for unknown names.
func QuickRange(name string, today time.Time) (from, to time.Time, ok bool) {
	to = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	switch name {
	case QuickOneMonth:
		from = to.AddDate(0, 0, -30)
	case QuickThreeMonths:
		from = to.AddDate(0, 0, -90)
	case QuickSixMonths:
		from = to.AddDate(0, 0, -180)
	case QuickYear:
		from = time.Date(to.Year(), time.January, 1, 0, 0, 0, 0, to.Location())
	default:
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

// AvailableYears lists 2020 through the current year.
func AvailableYears(now time.Time) []int {
	out := []int{}
	for y := 2020; y <= now.Year(); y++ {
		out = append(out, y)
	}
	return out
}
