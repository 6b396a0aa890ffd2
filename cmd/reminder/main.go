// Command reminder sends today's birthday greetings over WhatsApp. It is meant
// to run once a day from cron.
package main

import (
	"context"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pantera3000/sistema-dental-01/internal/audit"
	"github.com/pantera3000/sistema-dental-01/internal/config"
	"github.com/pantera3000/sistema-dental-01/internal/reminder"
	"github.com/pantera3000/sistema-dental-01/internal/repo"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("[reminder] config")
	}
	if cfg.IsDev() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	}
	if cfg.DatabaseURL == "" {
		log.Fatal().Msg("[reminder] DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{Logger: logger.Default.LogMode(logger.Error)})
	if err != nil {
		log.Fatal().Err(err).Msg("[reminder] database")
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal().Err(err).Msg("[reminder] db handle")
	}
	defer func() { _ = sqlDB.Close() }()
	if err := sqlDB.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("[reminder] ping")
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("[reminder] audit pool")
	}
	defer pool.Close()

	clinic := repo.DefaultClinicName
	if c, err := repo.GetClinicConfig(ctx, db); err == nil {
		clinic = c.ClinicName
	}

	today := time.Now().In(cfg.Location())
	sender := reminder.DefaultWhatsAppSender(cfg.TwilioAccountSid, cfg.TwilioAuthToken, cfg.TwilioWhatsAppFrom)
	if sender == nil {
		log.Warn().Msg("[reminder] Twilio not configured, every patient will be skipped")
	}
	res := reminder.SendBirthdayGreetings(ctx, today, reminder.DBLister{DB: db}, sender, audit.NewRecorder(audit.PoolSink{Pool: pool}), clinic)
	log.Info().Int("sent", res.Sent).Int("skipped", res.Skipped).Str("date", today.Format("2006-01-02")).Msg("[reminder] done")
}
