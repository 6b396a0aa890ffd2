package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
)

func TestGenerateAndValidateTOTP(t *testing.T) {
	secret, url, err := GenerateTOTP("Consultorio Dental", "dra.rojas")
	if err != nil {
		t.Fatalf("GenerateTOTP: %v", err)
	}
	if secret == "" || !strings.HasPrefix(url, "otpauth://totp/") {
		t.Fatalf("unexpected secret=%q url=%q", secret, url)
	}
	code, err := totp.GenerateCode(secret, time.Now().UTC())
	if err != nil {
		t.Fatalf("GenerateCode: %v", err)
	}
	if !ValidateTOTP(code, secret) {
		t.Fatal("current code should validate")
	}
	if ValidateTOTP("", secret) || ValidateTOTP(code, "") {
		t.Fatal("empty code or secret must not validate")
	}
}
