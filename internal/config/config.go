package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const defaultJWTSecret = "default-secret-min-32-chars-required!!"

type Config struct {
	Port                string        `mapstructure:"PORT"`
	Env                 string        `mapstructure:"ENV"`
	DatabaseURL         string        `mapstructure:"DATABASE_URL"`
	DBMaxConns          int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns          int32         `mapstructure:"DB_MIN_CONNS"`
	DBMaxConnLifetime   time.Duration `mapstructure:"DB_MAX_CONN_LIFETIME"`
	DBMaxConnIdleTime   time.Duration `mapstructure:"DB_MAX_CONN_IDLE_TIME"`
	JWTSecretRaw        string        `mapstructure:"JWT_SECRET"`
	JWTTTLHours         int           `mapstructure:"JWT_TTL_HOURS"`
	CORSOriginsRaw      string        `mapstructure:"CORS_ORIGINS"`
	RequestTimeoutSec   int           `mapstructure:"REQUEST_TIMEOUT_SEC"`
	DataEncryptionKeys  string        `mapstructure:"DATA_ENCRYPTION_KEYS"`
	CurrentDataKeyVer   string        `mapstructure:"CURRENT_DATA_KEY_VERSION"`
	SMTPHost            string        `mapstructure:"SMTP_HOST"`
	SMTPPort            string        `mapstructure:"SMTP_PORT"`
	SMTPUser            string        `mapstructure:"SMTP_USER"`
	SMTPPass            string        `mapstructure:"SMTP_PASS"`
	SMTPFromName        string        `mapstructure:"SMTP_FROM_NAME"`
	SMTPFromEmail       string        `mapstructure:"SMTP_FROM_EMAIL"`
	AppPublicURL        string        `mapstructure:"APP_PUBLIC_URL"`
	TwilioAccountSid    string        `mapstructure:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken     string        `mapstructure:"TWILIO_AUTH_TOKEN"`
	TwilioWhatsAppFrom  string        `mapstructure:"TWILIO_WHATSAPP_FROM"`
	CalendarICSURL      string        `mapstructure:"CALENDAR_ICS_URL"`
	CalendarCacheTTLSec int           `mapstructure:"CALENDAR_CACHE_TTL_SEC"`
	CalendarTimeoutSec  int           `mapstructure:"CALENDAR_HTTP_TIMEOUT_SEC"`
	ClinicTZ            string        `mapstructure:"CLINIC_TZ"`
	LoginRateLimitRPS   float64       `mapstructure:"LOGIN_RATE_LIMIT_RPS"`
	LoginRateLimitBurst int           `mapstructure:"LOGIN_RATE_LIMIT_BURST"`
	MedicalFormTTLDays  int           `mapstructure:"MEDICAL_FORM_TTL_DAYS"`
	TOTPIssuer          string        `mapstructure:"TOTP_ISSUER"`
	TrustedProxiesRaw   string        `mapstructure:"TRUSTED_PROXIES"`

	JWTSecret      []byte   `mapstructure:"-"`
	CORSOrigins    []string `mapstructure:"-"`
	TrustedProxies []string `mapstructure:"-"`

	loc *time.Location
}

var keys = []string{
	"PORT", "ENV", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS", "DB_MAX_CONN_LIFETIME",
	"DB_MAX_CONN_IDLE_TIME", "JWT_SECRET", "JWT_TTL_HOURS", "CORS_ORIGINS", "REQUEST_TIMEOUT_SEC",
	"DATA_ENCRYPTION_KEYS", "CURRENT_DATA_KEY_VERSION", "SMTP_HOST", "SMTP_PORT", "SMTP_USER",
	"SMTP_PASS", "SMTP_FROM_NAME", "SMTP_FROM_EMAIL", "APP_PUBLIC_URL", "TWILIO_ACCOUNT_SID",
	"TWILIO_AUTH_TOKEN", "TWILIO_WHATSAPP_FROM", "CALENDAR_ICS_URL", "CALENDAR_CACHE_TTL_SEC",
	"CALENDAR_HTTP_TIMEOUT_SEC", "CLINIC_TZ", "LOGIN_RATE_LIMIT_RPS", "LOGIN_RATE_LIMIT_BURST",
	"MEDICAL_FORM_TTL_DAYS", "TOTP_ISSUER", "TRUSTED_PROXIES",
}

// Load reads configuration from the environment and an optional .env file.
// DATABASE_URL is not required here; commands that need the database check it.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 30)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("DB_MAX_CONN_LIFETIME", time.Hour)
	v.SetDefault("DB_MAX_CONN_IDLE_TIME", 30*time.Minute)
	v.SetDefault("JWT_TTL_HOURS", 12)
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173")
	v.SetDefault("REQUEST_TIMEOUT_SEC", 30)
	v.SetDefault("DATA_ENCRYPTION_KEYS", "v1:AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA")
	v.SetDefault("CURRENT_DATA_KEY_VERSION", "v1")
	v.SetDefault("SMTP_HOST", "localhost")
	v.SetDefault("SMTP_PORT", "1025")
	v.SetDefault("SMTP_FROM_NAME", "Consultorio Dental")
	v.SetDefault("SMTP_FROM_EMAIL", "noreply@localhost")
	v.SetDefault("APP_PUBLIC_URL", "http://localhost:5173")
	v.SetDefault("CALENDAR_CACHE_TTL_SEC", 300)
	v.SetDefault("CALENDAR_HTTP_TIMEOUT_SEC", 10)
	v.SetDefault("CLINIC_TZ", "America/Lima")
	v.SetDefault("LOGIN_RATE_LIMIT_RPS", 0.2)
	v.SetDefault("LOGIN_RATE_LIMIT_BURST", 5)
	v.SetDefault("MEDICAL_FORM_TTL_DAYS", 7)
	v.SetDefault("TOTP_ISSUER", "Consultorio Dental")

	for _, k := range keys {
		_ = v.BindEnv(k)
	}
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if len(cfg.JWTSecretRaw) < 32 {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("JWT_SECRET must have at least 32 chars in production")
		}
		log.Warn().Msg("[config] JWT_SECRET missing or too short, using development secret")
		cfg.JWTSecretRaw = defaultJWTSecret
	}
	cfg.JWTSecret = []byte(cfg.JWTSecretRaw)
	cfg.CORSOrigins = splitTrim(cfg.CORSOriginsRaw, ",")
	cfg.TrustedProxies = splitTrim(cfg.TrustedProxiesRaw, ",")

	loc, err := time.LoadLocation(cfg.ClinicTZ)
	if err != nil {
		log.Warn().Err(err).Str("tz", cfg.ClinicTZ).Msg("[config] invalid CLINIC_TZ, falling back to UTC")
		loc = time.UTC
	}
	cfg.loc = loc
	return cfg, nil
}

func (c *Config) IsProduction() bool { return c.Env == "production" }

func (c *Config) IsDev() bool { return c.Env == "development" }

// Location is the clinic timezone. Never nil.
func (c *Config) Location() *time.Location {
	if c == nil || c.loc == nil {
		return time.UTC
	}
	return c.loc
}

func (c *Config) JWTTTL() time.Duration {
	if c.JWTTTLHours <= 0 {
		return 12 * time.Hour
	}
	return time.Duration(c.JWTTTLHours) * time.Hour
}

func (c *Config) CalendarCacheTTL() time.Duration {
	if c.CalendarCacheTTLSec <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.CalendarCacheTTLSec) * time.Second
}

func splitTrim(s, sep string) []string {
	var out []string
	for _, p := range strings.Split(s, sep) {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
