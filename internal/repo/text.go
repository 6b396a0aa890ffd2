package repo

import (
	"strings"
	"unicode/utf8"
)

// Clip drops invalid UTF-8 and keeps at most n runes. Postgres refuses
// invalid UTF-8 in text columns, so every client-supplied string goes through here.
func Clip(s string, n int) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for j := range s {
		if i == n {
			return s[:j]
		}
		i++
	}
	return s
}
