package dental

import (
	"testing"
	"time"
)

func TestNewFormToken(t *testing.T) {
	a, b := NewFormToken(), NewFormToken()
	if len(a) != 32 || a == b {
		t.Fatalf("tokens: %q %q", a, b)
	}
}

func TestFormTokenValidity(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	exp := now.Add(7 * 24 * time.Hour)
	if !FormTokenValid(false, exp, now) {
		t.Fatal("fresh token should be valid")
	}
	if FormTokenValid(true, exp, now) {
		t.Fatal("completed token should be invalid")
	}
	if FormTokenValid(false, now, now) {
		t.Fatal("token expiring now should be invalid")
	}
	cases := []struct {
		completed bool
		exp       time.Time
		want      int
	}{
		{false, exp, 7},
		{false, now.Add(36 * time.Hour), 1},
		{false, now.Add(time.Hour), 0},
		{false, now.Add(-time.Hour), 0},
		{true, exp, 0},
	}
	for _, c := range cases {
		if got := FormDaysRemaining(c.completed, c.exp, now); got != c.want {
			t.Errorf("exp=%s completed=%v got %d want %d", c.exp, c.completed, got, c.want)
		}
	}
}

func TestMedicalFormAnswersValidate(t *testing.T) {
	a := MedicalFormAnswers{
		Email:                 " Ana@Mail.com ",
		Address:               "Av. Arequipa 123",
		CurrentDentalProblems: "Sensibilidad",
		ConsultationReason:    "Control",
		AcceptsDataProcessing: true,
	}
	a.Normalize()
	if a.Email != "ana@mail.com" {
		t.Fatalf("email: %q", a.Email)
	}
	if err := a.Validate(); err != nil {
		t.Fatalf("valid: %v", err)
	}
	a.AcceptsDataProcessing = false
	if err := a.Validate(); err != ErrFormConsent {
		t.Fatalf("consent: %v", err)
	}
	a.Address = ""
	if err := a.Validate(); err != ErrFormMissingFields {
		t.Fatalf("missing: %v", err)
	}
}

func TestMonthHelpers(t *testing.T) {
	if MonthName(time.September) != "Septiembre" {
		t.Fatal("month name")
	}
	if got := MonthLabel(time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)); got != "Mar 2026" {
		t.Fatalf("label: %q", got)
	}
	ms := MonthStart(time.Date(2026, 3, 15, 13, 0, 0, 0, time.UTC))
	if ms.Day() != 1 || ms.Hour() != 0 {
		t.Fatalf("month start: %s", ms)
	}
	ds := DayStart(time.Date(2026, 3, 15, 13, 45, 0, 0, time.UTC))
	if ds.Day() != 15 || ds.Hour() != 0 || ds.Minute() != 0 {
		t.Fatalf("day start: %s", ds)
	}
}
