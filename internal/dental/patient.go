package dental

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrMissingName    = errors.New("nombre completo requerido")
	ErrInvalidGender  = errors.New("sexo inválido")
	ErrInvalidMarital = errors.New("estado civil inválido")
	ErrBirthInFuture  = errors.New("la fecha de nacimiento no puede ser futura")
	ErrDuplicateDNI   = errors.New("ya existe un paciente con ese DNI")
	ErrInvalidDNI     = errors.New("el DNI debe tener 8 dígitos")
)

const BirthdayWindowDays = 180

func IsValidGender(g string) bool {
	switch g {
	case "", "M", "F", "O":
		return true
	}
	return false
}

func IsValidMaritalStatus(s string) bool {
	switch s {
	case "", "S", "C", "D", "V", "U":
		return true
	}
	return false
}

// Age returns completed years at today. Both dates are compared as calendar days.
func Age(birth, today time.Time) int {
	years := today.Year() - birth.Year()
	if today.Month() < birth.Month() || (today.Month() == birth.Month() && today.Day() < birth.Day()) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

// nextBirthday returns the birthday on or after today. Feb 29 falls on Mar 1
// in non-leap years.
func nextBirthday(birth, today time.Time) time.Time {
	day := dateOnly(today)
	for y := day.Year(); ; y++ {
		m, d := birth.Month(), birth.Day()
		if m == time.February && d == 29 && !isLeap(y) {
			m, d = time.March, 1
		}
		bd := time.Date(y, m, d, 0, 0, 0, 0, day.Location())
		if !bd.Before(day) {
			return bd
		}
	}
}

// DaysUntilBirthday is 0 when today is the birthday.
func DaysUntilBirthday(birth, today time.Time) int {
	day := dateOnly(today)
	return int(nextBirthday(birth, today).Sub(day).Hours() / 24)
}

// IsBirthday reports whether today is birth's anniversary.
func IsBirthday(birth, today time.Time) bool {
	return DaysUntilBirthday(birth, today) == 0
}

func isLeap(y int) bool {
	return y%4 == 0 && (y%100 != 0 || y%400 == 0)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// RegistrationNotes builds the notes text stored for a self-registered patient.
func RegistrationNotes(reason, medications string) string {
	reason = strings.TrimSpace(reason)
	medications = strings.TrimSpace(medications)
	var b strings.Builder
	if reason != "" {
		b.WriteString("MOTIVO DE CONSULTA: ")
		b.WriteString(reason)
	}
	if medications != "" {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("Medicamentos: ")
		b.WriteString(medications)
	}
	return b.String()
}
