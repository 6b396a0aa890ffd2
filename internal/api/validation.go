package api

import (
	"errors"
	"regexp"
	"strings"

	"github.com/pantera3000/sistema-dental-01/internal/crypto"
)

var (
	ErrInvalidEmail = errors.New("email inválido")
	ErrInvalidDate  = errors.New("fecha inválida, use AAAA-MM-DD")
)

// emailRegex: one @ and a dotted domain.
var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func ValidateEmailRegex(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrInvalidEmail
	}
	if !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

// validateOptionalEmail accepts an empty value.
func validateOptionalEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return nil
	}
	return ValidateEmailRegex(email)
}

// dniQuery reports whether a search term is a bare DNI, returning its hash.
func dniQuery(q string) (string, bool) {
	q = strings.TrimSpace(q)
	if q == "" || onlyDigits(q) != q || !crypto.IsValidDNI(q) {
		return "", false
	}
	return crypto.DNIHash(q), true
}

func onlyDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
