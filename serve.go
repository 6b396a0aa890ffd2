package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/pantera3000/sistema-dental-01/internal/api"
	"github.com/pantera3000/sistema-dental-01/internal/audit"
	"github.com/pantera3000/sistema-dental-01/internal/cache"
	"github.com/pantera3000/sistema-dental-01/internal/calendar"
	"github.com/pantera3000/sistema-dental-01/internal/config"
	"github.com/pantera3000/sistema-dental-01/internal/crypto"
	"github.com/pantera3000/sistema-dental-01/internal/dashboard"
	"github.com/pantera3000/sistema-dental-01/internal/email"
	"github.com/pantera3000/sistema-dental-01/internal/middleware"
	"github.com/pantera3000/sistema-dental-01/internal/migrate"
	"github.com/pantera3000/sistema-dental-01/internal/reminder"
	"github.com/pantera3000/sistema-dental-01/internal/seed"
)

// Deactivation and role changes made on another instance reach tokens within this window.
const accountCacheTTL = 30 * time.Second

func serveCmd() *cobra.Command {
	var skipMigrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Inicia la API HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, !skipMigrate)
		},
	}
	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "no aplica migraciones al iniciar")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, runMigrations bool) error {
	pool, db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDatabase(pool, db)

	if runMigrations {
		if err := migrate.Run(ctx, db, migrationsDir); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		if err := seed.Run(ctx, db, seed.Options{}); err != nil {
			log.Warn().Err(err).Msg("[seed] initial data not applied")
		}
	}

	box, err := crypto.NewBox(cfg.DataEncryptionKeys, cfg.CurrentDataKeyVer)
	if err != nil {
		return fmt.Errorf("encryption keys: %w", err)
	}

	ttl := cache.New(time.Duration(cfg.CalendarCacheTTLSec) * time.Second)
	defer ttl.Close()
	cal := calendar.New(cfg.CalendarICSURL, time.Duration(cfg.CalendarTimeoutSec)*time.Second, ttl, cfg.Location())
	if cfg.CalendarICSURL == "" {
		log.Info().Msg("[calendar] CALENDAR_ICS_URL empty, calendar disabled")
	}

	accounts := cache.New(accountCacheTTL)
	defer accounts.Close()

	h := &api.Handler{
		DB:        db,
		Pool:      pool,
		Cfg:       cfg,
		Box:       box,
		Audit:     audit.NewRecorder(audit.PoolSink{Pool: pool}),
		Calendar:  cal,
		Dashboard: dashboard.New(db, cal, cfg.Location()),
		Accounts:  accounts,
	}
	mailCfg := email.FromEnv(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFromName, cfg.SMTPFromEmail)
	mailCfg.LogConfigSummary()
	h.SetSendMedicalFormEmail(mailCfg.SendMedicalFormLink)
	if sender := reminder.DefaultWhatsAppSender(cfg.TwilioAccountSid, cfg.TwilioAuthToken, cfg.TwilioWhatsAppFrom); sender != nil {
		h.SetWhatsAppSender(sender)
	} else {
		log.Info().Msg("[whatsapp] Twilio not configured, birthday greetings disabled")
	}

	if err := middleware.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return fmt.Errorf("TRUSTED_PROXIES: %w", err)
	}
	loginLimiter := middleware.NewIPRateLimiter(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.LoginRateLimitRPS,
		BurstSize:         cfg.LoginRateLimitBurst,
	})
	publicLimiter := middleware.NewIPRateLimiter(middleware.RateLimitConfig{
		RequestsPerSecond: 1,
		BurstSize:         10,
	})

	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet)
	r.HandleFunc("/ready", readyHandler(pool)).Methods(http.MethodGet)
	h.Register(r, api.RouteLimiters{Login: loginLimiter.Middleware, Public: publicLimiter.Middleware})

	reqTimeout := time.Duration(cfg.RequestTimeoutSec) * time.Second
	chain := middleware.Recover(
		middleware.RequestID(
			middleware.Logger(log.Logger)(
				middleware.Timeout(reqTimeout)(
					middleware.CORS(cfg.CORSOrigins)(
						middleware.Gzip(r))))))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           chain,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      reqTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Str("tz", cfg.Location().String()).Msg("backend listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	log.Info().Msg("backend stopped")
	return nil
}

func readyHandler(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"db unhealthy"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	}
}
