package crypto

import (
	"errors"
	"strings"
	"testing"
)

const testKeys = "v1:AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

func TestBoxSealOpen(t *testing.T) {
	box, err := NewBox(testKeys, "v1")
	if err != nil {
		t.Fatalf("NewBox: %v", err)
	}
	sealed, err := box.Seal("45678912")
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if !strings.HasPrefix(sealed, "v1:") || strings.Contains(sealed, "45678912") {
		t.Fatalf("unexpected sealed value %q", sealed)
	}
	plain, err := box.Open(sealed)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if plain != "45678912" {
		t.Fatalf("got %q", plain)
	}
}

func TestBoxEmptyAndMalformed(t *testing.T) {
	box, err := NewBox(testKeys, "v1")
	if err != nil {
		t.Fatalf("NewBox: %v", err)
	}
	if s, _ := box.Seal(""); s != "" {
		t.Fatalf("empty plain should seal to empty, got %q", s)
	}
	if _, err := box.Open("nocolon"); !errors.Is(err, ErrMalformedSealed) {
		t.Fatalf("want ErrMalformedSealed, got %v", err)
	}
	if _, err := box.Open("v9:AAAA"); !errors.Is(err, ErrUnknownKeyVersion) {
		t.Fatalf("want ErrUnknownKeyVersion, got %v", err)
	}
}

func TestKeyRotation(t *testing.T) {
	old, err := NewBox(testKeys, "v1")
	if err != nil {
		t.Fatalf("NewBox v1: %v", err)
	}
	sealed, err := old.Seal("secreto")
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	rotated, err := NewBox(testKeys+",v2:"+strings.Repeat("B", 43), "v2")
	if err != nil {
		t.Fatalf("NewBox v2: %v", err)
	}
	plain, err := rotated.Open(sealed)
	if err != nil || plain != "secreto" {
		t.Fatalf("rotated box should open v1 values: %q %v", plain, err)
	}
}

func TestParseKeysEnv(t *testing.T) {
	m, err := ParseKeysEnv("v1:" + strings.Repeat("A", 43))
	if err != nil {
		t.Fatalf("ParseKeysEnv: %v", err)
	}
	if len(m["v1"]) != 32 {
		t.Fatalf("key length: %d", len(m["v1"]))
	}
	m, err = ParseKeysEnv("v1:" + strings.Repeat("A", 43) + "=")
	if err != nil || len(m["v1"]) != 32 {
		t.Fatalf("padded key should parse: %v", err)
	}
	if _, err := ParseKeysEnv("v1:AAAA"); err == nil {
		t.Fatal("short key should fail")
	}
	if _, err := NewBox("", "v1"); err == nil {
		t.Fatal("missing current key should fail")
	}
}

func TestDNI(t *testing.T) {
	cases := []struct {
		in    string
		norm  string
		valid bool
	}{
		{"45678912", "45678912", true},
		{" 4567-8912 ", "45678912", true},
		{"1234567", "1234567", false},
		{"123456789", "123456789", false},
		{"abc", "", false},
	}
	for _, c := range cases {
		n := NormalizeDNI(c.in)
		if n != c.norm {
			t.Errorf("NormalizeDNI(%q) = %q want %q", c.in, n, c.norm)
		}
		if IsValidDNI(n) != c.valid {
			t.Errorf("IsValidDNI(%q) = %v want %v", n, !c.valid, c.valid)
		}
	}
	if DNIHash("45678912") != DNIHash("45678912") || len(DNIHash("45678912")) != 64 {
		t.Fatal("DNIHash must be a stable sha256 hex")
	}
}
