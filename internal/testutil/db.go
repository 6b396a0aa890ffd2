// Package testutil opens the integration-test database from DATABASE_URL.
package testutil

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pantera3000/sistema-dental-01/internal/migrate"
)

// OpenDB returns a gorm handle and a pgx pool on DATABASE_URL, or nils when
// the variable is unset or the database is unreachable.
func OpenDB(ctx context.Context) (*gorm.DB, *pgxpool.Pool) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		return nil, nil
	}
	db, err := gorm.Open(postgres.Open(url), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, nil
	}
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, nil
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil
	}
	return db, pool
}

func MustMigrate(ctx context.Context, db *gorm.DB) error {
	dir, err := findMigrationsDir()
	if err != nil {
		return err
	}
	return migrate.Run(ctx, db, dir)
}

// Truncate empties the domain tables between tests. audit_logs is left alone:
// it rejects deletes.
func Truncate(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Exec(`
		TRUNCATE payments, treatments, odontogram_history, odontogram_states,
		         clinical_history_images, clinical_histories, note_images, notes,
		         medical_forms, medical_form_tokens, health_programs, functional_evaluations,
		         patients, users, error_events
		RESTART IDENTITY CASCADE
	`).Error
}

func findMigrationsDir() (string, error) {
	cur, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for i := 0; i < 8; i++ {
		candidate := filepath.Join(cur, "migrations")
		if st, err := os.Stat(candidate); err == nil && st.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			break
		}
		cur = parent
	}
	return "", errors.New("migrations dir not found from working directory")
}
