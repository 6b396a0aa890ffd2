package calendar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pantera3000/sistema-dental-01/internal/cache"
)

const sampleICS = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//test//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:b@test\r\n" +
	"DTSTART:20260310T150000Z\r\n" +
	"DTEND:20260310T160000Z\r\n" +
	"SUMMARY:Control ortodoncia\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:a@test\r\n" +
	"DTSTART;TZID=America/Lima:20260310T090000\r\n" +
	"SUMMARY:Limpieza\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:c@test\r\n" +
	"DTSTART;VALUE=DATE:20260312\r\n" +
	"SUMMARY:Feriado\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:d@test\r\n" +
	"DTSTART:20260401T100000\r\n" +
	"SUMMARY:Sin zona\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func lima(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Lima")
	if err != nil {
		t.Fatalf("load tz: %v", err)
	}
	return loc
}

func TestParse(t *testing.T) {
	loc := lima(t)
	events, err := Parse(sampleICS, loc)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(events))
	}
	// 09:00 Lima == 14:00Z, before 15:00Z
	if events[0].UID != "a@test" || events[1].UID != "b@test" {
		t.Fatalf("order: %s, %s", events[0].UID, events[1].UID)
	}
	if got := events[1].Begin; got.Hour() != 10 || got.Location() != loc {
		t.Errorf("utc event should be 10:00 Lima, got %s", got)
	}
	if !events[2].AllDay {
		t.Error("date-only event should be all-day")
	}
	// midnight UTC on the 12th is the evening of the 11th in Lima
	if got := events[2].Begin; got.Day() != 11 || got.Hour() != 19 {
		t.Errorf("all-day begin: %s", got)
	}
	// floating time is read as UTC
	if got := events[3].Begin.UTC(); got.Hour() != 10 {
		t.Errorf("floating begin: %s", got)
	}
}

func TestWindow(t *testing.T) {
	loc := lima(t)
	// Wednesday
	now := time.Date(2026, 3, 11, 15, 30, 0, 0, loc)
	cases := []struct {
		filter     string
		start, end time.Time
	}{
		{"week", time.Date(2026, 3, 9, 0, 0, 0, 0, loc), time.Date(2026, 3, 16, 0, 0, 0, 0, loc)},
		{"", time.Date(2026, 3, 9, 0, 0, 0, 0, loc), time.Date(2026, 3, 16, 0, 0, 0, 0, loc)},
		{"month", time.Date(2026, 3, 1, 0, 0, 0, 0, loc), time.Date(2026, 4, 1, 0, 0, 0, 0, loc)},
		{"last_month", time.Date(2026, 2, 1, 0, 0, 0, 0, loc), time.Date(2026, 3, 1, 0, 0, 0, 0, loc)},
		{"next_3_months", time.Date(2026, 3, 11, 0, 0, 0, 0, loc), time.Date(2026, 6, 9, 0, 0, 0, 0, loc)},
		{"bogus", time.Date(2026, 3, 1, 0, 0, 0, 0, loc), time.Date(2026, 4, 1, 0, 0, 0, 0, loc)},
	}
	for _, tc := range cases {
		s, e := Window(tc.filter, now)
		if !s.Equal(tc.start) || !e.Equal(tc.end) {
			t.Errorf("%q: got [%s, %s)", tc.filter, s, e)
		}
	}
}

func TestWindowSundayAndJanuary(t *testing.T) {
	sunday := time.Date(2026, 1, 4, 10, 0, 0, 0, time.UTC)
	s, _ := Window("week", sunday)
	if !s.Equal(time.Date(2025, 12, 29, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("week start: %s", s)
	}
	s, e := Window("last_month", sunday)
	if !s.Equal(time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)) || !e.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("last month: [%s, %s)", s, e)
	}
}

func TestNormalizeFilter(t *testing.T) {
	for in, want := range map[string]string{"": "week", "month": "month", "x": "month", "next_3_months": "next_3_months"} {
		if got := NormalizeFilter(in); got != want {
			t.Errorf("%q: got %q want %q", in, got, want)
		}
	}
}

func TestServiceCachesFeed(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "text/calendar")
		_, _ = w.Write([]byte(sampleICS))
	}))
	defer srv.Close()

	c := cache.New(time.Minute)
	defer c.Close()
	loc := lima(t)
	s := New(srv.URL, time.Second, c, loc)
	s.now = func() time.Time { return time.Date(2026, 3, 10, 8, 0, 0, 0, loc) }

	ctx := context.Background()
	if got := len(s.Events(ctx)); got != 4 {
		t.Fatalf("events: %d", got)
	}
	if got := len(s.Today(ctx)); got != 2 {
		t.Errorf("today: %d", got)
	}
	if got := len(s.TodayPending(ctx)); got != 2 {
		t.Errorf("pending: %d", got)
	}
	if got := s.Upcoming(ctx, 1); len(got) != 1 || got[0].UID != "a@test" {
		t.Errorf("upcoming: %+v", got)
	}
	if got := len(s.Filtered(ctx, "week")); got != 3 {
		t.Errorf("week: %d", got)
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Errorf("expected a single fetch, got %d", n)
	}
}

func TestServiceErrorsYieldEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := New(srv.URL, time.Second, nil, time.UTC)
	if got := s.Events(context.Background()); got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil list, got %v", got)
	}
	if got := New("", 0, nil, nil).Events(context.Background()); len(got) != 0 {
		t.Errorf("no url: %v", got)
	}
}
