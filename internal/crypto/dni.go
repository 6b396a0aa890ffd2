package crypto

import (
	"regexp"
)

var nonDigits = regexp.MustCompile(`[^0-9]`)

var dniPattern = regexp.MustCompile(`^[0-9]{8}$`)

// NormalizeDNI strips everything but digits.
func NormalizeDNI(dni string) string {
	return nonDigits.ReplaceAllString(dni, "")
}

// IsValidDNI reports whether the normalized value has exactly 8 digits.
func IsValidDNI(dni string) bool {
	return dniPattern.MatchString(dni)
}

// DNIHash is the lookup key stored next to the encrypted DNI.
func DNIHash(normalized string) string {
	return SHA256Hex([]byte(normalized))
}
