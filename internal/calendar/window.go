package calendar

import "time"

const (
	FilterWeek        = "week"
	FilterMonth       = "month"
	FilterLastMonth   = "last_month"
	FilterNext3Months = "next_3_months"
)

// Window returns the half-open [start, end) range for filter, computed in
// now's location. Empty means week; anything unknown means month.
func Window(filter string, now time.Time) (time.Time, time.Time) {
	today, _ := dayBounds(now)
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
	switch filter {
	case "", FilterWeek:
		offset := (int(today.Weekday()) + 6) % 7
		start := today.AddDate(0, 0, -offset)
		return start, start.AddDate(0, 0, 7)
	case FilterLastMonth:
		return monthStart.AddDate(0, -1, 0), monthStart
	case FilterNext3Months:
		return today, today.AddDate(0, 0, 90)
	default:
		return monthStart, monthStart.AddDate(0, 1, 0)
	}
}

// NormalizeFilter maps a query value to the filter actually applied.
func NormalizeFilter(filter string) string {
	switch filter {
	case "":
		return FilterWeek
	case FilterWeek, FilterMonth, FilterLastMonth, FilterNext3Months:
		return filter
	}
	return FilterMonth
}

func dayBounds(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 0, 1)
}

func Between(events []Event, start, end time.Time) []Event {
	out := []Event{}
	for _, e := range events {
		if !e.Begin.Before(start) && e.Begin.Before(end) {
			out = append(out, e)
		}
	}
	return out
}
