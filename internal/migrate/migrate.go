package migrate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Run applies the pending *.sql files of dir in name order. Each file and its
// schema_migrations row commit together.
func Run(ctx context.Context, db *gorm.DB, dir string) error {
	pending, err := Pending(ctx, db, dir)
	if err != nil {
		return err
	}
	for _, name := range pending {
		raw, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		version := strings.TrimSuffix(name, ".sql")
		err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(string(raw)).Error; err != nil {
				return fmt.Errorf("apply %s: %w", name, err)
			}
			if err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version).Error; err != nil {
				return fmt.Errorf("record %s: %w", name, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
		log.Info().Str("version", version).Msg("[migrate] applied")
	}
	if len(pending) == 0 {
		log.Info().Msg("[migrate] schema up to date")
	}
	return nil
}

// Pending lists the migration files not yet recorded in schema_migrations.
func Pending(ctx context.Context, db *gorm.DB, dir string) ([]string, error) {
	if err := ensureSchemaMigrations(ctx, db); err != nil {
		return nil, err
	}
	applied, err := appliedVersions(ctx, db)
	if err != nil {
		return nil, err
	}
	names, err := migrationFiles(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, n := range names {
		if !applied[strings.TrimSuffix(n, ".sql")] {
			out = append(out, n)
		}
	}
	return out, nil
}

func migrationFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func ensureSchemaMigrations(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`).Error
}

func appliedVersions(ctx context.Context, db *gorm.DB) (map[string]bool, error) {
	var versions []string
	if err := db.WithContext(ctx).Raw("SELECT version FROM schema_migrations").Scan(&versions).Error; err != nil {
		return nil, err
	}
	m := make(map[string]bool, len(versions))
	for _, v := range versions {
		m[v] = true
	}
	return m, nil
}
