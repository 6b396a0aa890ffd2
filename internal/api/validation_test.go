package api

import (
	"net/http/httptest"
	"testing"

	"github.com/pantera3000/sistema-dental-01/internal/crypto"
)

func TestValidateEmailRegex(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"a@b.com", true},
		{"a+b@b.com.pe", true},
		{"", false},
		{"   ", false},
		{"a@", false},
		{"@b.com", false},
		{"a@b", false},
		{"a b@c.com", false},
	}
	for _, c := range cases {
		err := ValidateEmailRegex(c.in)
		if (err == nil) != c.want {
			t.Fatalf("email=%q wantOk=%v gotErr=%v", c.in, c.want, err)
		}
	}
	if err := validateOptionalEmail(""); err != nil {
		t.Fatalf("empty optional email should pass, got %v", err)
	}
}

func TestDNIQuery(t *testing.T) {
	cases := []struct {
		in     string
		wantOK bool
	}{
		{"12345678", true},
		{" 12345678 ", true},
		{"1234567", false},
		{"123456789", false},
		{"1234-5678", false},
		{"Juan", false},
		{"", false},
	}
	for _, c := range cases {
		hash, ok := dniQuery(c.in)
		if ok != c.wantOK {
			t.Fatalf("dniQuery(%q) ok=%v want %v", c.in, ok, c.wantOK)
		}
		if ok && hash != crypto.DNIHash("12345678") {
			t.Fatalf("dniQuery(%q) hash mismatch", c.in)
		}
	}
}

func TestParseLimitOffsetWith(t *testing.T) {
	cases := []struct {
		query      string
		size       int
		wantLimit  int
		wantOffset int
	}{
		{"", 10, 10, 0},
		{"?limit=5&offset=15", 10, 5, 15},
		{"?limit=500", 20, 100, 0},
		{"?page=3", 10, 10, 20},
		{"?page=2&limit=25", 10, 25, 25},
		{"?page=0", 10, 10, 0},
		{"?limit=-1&offset=-4", 50, 50, 0},
	}
	for _, c := range cases {
		r := httptest.NewRequest("GET", "/x"+c.query, nil)
		l, o := parseLimitOffsetWith(r, c.size)
		if l != c.wantLimit || o != c.wantOffset {
			t.Fatalf("%q: got limit=%d offset=%d, want %d/%d", c.query, l, o, c.wantLimit, c.wantOffset)
		}
	}
	if l, o := ParseLimitOffset(httptest.NewRequest("GET", "/x", nil)); l != 20 || o != 0 {
		t.Fatalf("default: got %d/%d", l, o)
	}
}
