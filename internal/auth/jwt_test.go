package auth

import (
	"testing"
	"time"
)

func TestBuildAndParseJWT(t *testing.T) {
	secret := []byte("test-secret-min-32-chars-xxxxxxxx")
	tok, err := BuildJWT(secret, "user-123", "dra.rojas", RoleDoctor, time.Hour)
	if err != nil {
		t.Fatalf("BuildJWT: %v", err)
	}
	claims, err := ParseJWT(secret, tok)
	if err != nil {
		t.Fatalf("ParseJWT: %v", err)
	}
	if claims.UserID != "user-123" || claims.Username != "dra.rojas" || claims.Role != RoleDoctor {
		t.Fatalf("claims mismatch: %+v", claims)
	}
}

func TestParseJWT_WrongSecret(t *testing.T) {
	tok, err := BuildJWT([]byte("secret-one-min-32-chars-xxxxxxxxx"), "u1", "ana", RoleAdmin, time.Hour)
	if err != nil {
		t.Fatalf("BuildJWT: %v", err)
	}
	if _, err := ParseJWT([]byte("secret-two-min-32-chars-xxxxxxxxx"), tok); err == nil {
		t.Fatal("expected error for wrong secret")
	}
}

func TestParseJWT_Expired(t *testing.T) {
	secret := []byte("test-secret-min-32-chars-xxxxxxxx")
	tok, err := BuildJWT(secret, "u1", "ana", RoleAssistant, -time.Minute)
	if err != nil {
		t.Fatalf("BuildJWT: %v", err)
	}
	if _, err := ParseJWT(secret, tok); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestParseJWT_UnknownRole(t *testing.T) {
	secret := []byte("test-secret-min-32-chars-xxxxxxxx")
	tok, err := BuildJWT(secret, "u1", "ana", "ROOT", time.Hour)
	if err != nil {
		t.Fatalf("BuildJWT: %v", err)
	}
	if _, err := ParseJWT(secret, tok); err == nil {
		t.Fatal("expected error for unknown role")
	}
}
