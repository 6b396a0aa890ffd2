package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TRUSTED_PROXIES", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("CORS_ORIGINS", "")
	t.Setenv("CLINIC_TZ", "")
	t.Setenv("ENV", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("port: got %q", cfg.Port)
	}
	if string(cfg.JWTSecret) != defaultJWTSecret {
		t.Errorf("short secret should fall back to default, got %q", cfg.JWTSecret)
	}
	if cfg.Location().String() != "America/Lima" {
		t.Errorf("location: got %s", cfg.Location())
	}
	if cfg.CalendarCacheTTL() != 5*time.Minute {
		t.Errorf("calendar ttl: got %s", cfg.CalendarCacheTTL())
	}
	if cfg.MedicalFormTTLDays != 7 {
		t.Errorf("medical form ttl: got %d", cfg.MedicalFormTTLDays)
	}
	if len(cfg.TrustedProxies) != 0 {
		t.Errorf("no proxy should be trusted by default, got %v", cfg.TrustedProxies)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef-test")
	t.Setenv("CORS_ORIGINS", "http://a.local, http://b.local ,")
	t.Setenv("CLINIC_TZ", "Not/AZone")
	t.Setenv("CALENDAR_CACHE_TTL_SEC", "60")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 127.0.0.1")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("port: got %q", cfg.Port)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://b.local" {
		t.Errorf("cors: got %v", cfg.CORSOrigins)
	}
	if cfg.Location() != time.UTC {
		t.Errorf("invalid tz should fall back to UTC, got %s", cfg.Location())
	}
	if cfg.CalendarCacheTTL() != time.Minute {
		t.Errorf("calendar ttl: got %s", cfg.CalendarCacheTTL())
	}
	if len(cfg.TrustedProxies) != 2 || cfg.TrustedProxies[1] != "127.0.0.1" {
		t.Errorf("trusted proxies: got %v", cfg.TrustedProxies)
	}
}

func TestLoadProductionRequiresSecret(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET", "short")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for short JWT_SECRET in production")
	}
}
