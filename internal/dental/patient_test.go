package dental

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAge(t *testing.T) {
	birth := day(1990, time.June, 15)
	cases := []struct {
		today time.Time
		want  int
	}{
		{day(2026, time.June, 14), 35},
		{day(2026, time.June, 15), 36},
		{day(2026, time.December, 1), 36},
		{day(1980, time.January, 1), 0},
	}
	for _, c := range cases {
		if got := Age(birth, c.today); got != c.want {
			t.Errorf("Age at %s = %d want %d", c.today.Format("2006-01-02"), got, c.want)
		}
	}
}

func TestDaysUntilBirthday(t *testing.T) {
	cases := []struct {
		birth, today time.Time
		want         int
	}{
		{day(1990, time.March, 10), day(2026, time.March, 10), 0},
		{day(1990, time.March, 11), day(2026, time.March, 10), 1},
		{day(1990, time.March, 9), day(2026, time.March, 10), 364},
		{day(2000, time.February, 29), day(2026, time.February, 20), 9},
		{day(2000, time.February, 29), day(2028, time.February, 20), 9},
		{day(1985, time.January, 1), day(2026, time.December, 31), 1},
	}
	for _, c := range cases {
		if got := DaysUntilBirthday(c.birth, c.today); got != c.want {
			t.Errorf("birth=%s today=%s got %d want %d", c.birth.Format("2006-01-02"), c.today.Format("2006-01-02"), got, c.want)
		}
	}
	if !IsBirthday(day(2000, time.February, 29), day(2027, time.March, 1)) {
		t.Fatal("leap-day birthday should fall on Mar 1 in non-leap years")
	}
}

func TestRegistrationNotes(t *testing.T) {
	cases := []struct {
		reason, meds, want string
	}{
		{"Dolor de muela", "Ibuprofeno", "MOTIVO DE CONSULTA: Dolor de muela\n\nMedicamentos: Ibuprofeno"},
		{"Limpieza", "", "MOTIVO DE CONSULTA: Limpieza"},
		{"", "Paracetamol", "Medicamentos: Paracetamol"},
		{"  ", "", ""},
	}
	for _, c := range cases {
		if got := RegistrationNotes(c.reason, c.meds); got != c.want {
			t.Errorf("got %q want %q", got, c.want)
		}
	}
}

func TestGenderAndMarital(t *testing.T) {
	if !IsValidGender("F") || IsValidGender("X") {
		t.Fatal("gender validation")
	}
	if !IsValidMaritalStatus("U") || IsValidMaritalStatus("Z") {
		t.Fatal("marital validation")
	}
}
