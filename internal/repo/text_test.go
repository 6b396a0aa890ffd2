package repo

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestClip(t *testing.T) {
	cases := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"multibyte at the limit", strings.Repeat("a", 254) + "ñ", maxUserAgentLen, strings.Repeat("a", 254) + "ñ"},
		{"multibyte past the limit", strings.Repeat("a", 255) + "ñ", maxUserAgentLen, strings.Repeat("a", 255)},
		{"counts runes", "ñañañ", 3, "ñañ"},
		{"invalid bytes dropped", "Mozilla\xc3\x28/5.0\xff", 0, "Mozilla(/5.0"},
		{"no limit", "hola", 0, "hola"},
		{"short", "hola", 10, "hola"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Clip(c.in, c.n)
			if got != c.want {
				t.Fatalf("Clip = %q, want %q", got, c.want)
			}
			if !utf8.ValidString(got) {
				t.Fatalf("invalid utf-8: %q", got)
			}
		})
	}
}

func TestClipLongUserAgentStaysWithinColumn(t *testing.T) {
	ua := strings.Repeat("é", 400)
	got := Clip(ua, maxUserAgentLen)
	if n := utf8.RuneCountInString(got); n != maxUserAgentLen {
		t.Fatalf("runes = %d", n)
	}
}
