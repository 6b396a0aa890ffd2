package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pantera3000/sistema-dental-01/internal/auth"
	"github.com/pantera3000/sistema-dental-01/internal/crypto"
	"github.com/pantera3000/sistema-dental-01/internal/dental"
	"github.com/pantera3000/sistema-dental-01/internal/repo"
)

var ErrUserExists = errors.New("el usuario ya existe")

type Options struct {
	AdminUsername string
	AdminPassword string
	// Demo adds a handful of patients, treatments and payments.
	Demo bool
	Box  *crypto.Box
}

// Run makes sure the clinic configuration exists, creates the first
// superuser when there is none, and optionally loads demo data.
func Run(ctx context.Context, db *gorm.DB, opts Options) error {
	if _, err := repo.GetClinicConfig(ctx, db); err != nil {
		return fmt.Errorf("clinic config: %w", err)
	}

	n, err := repo.CountSuperusers(ctx, db)
	if err != nil {
		return err
	}
	if n == 0 {
		username := opts.AdminUsername
		if username == "" {
			username = "admin"
		}
		password := opts.AdminPassword
		if password == "" {
			password = "Admin123!"
			log.Warn().Str("username", username).Msg("[seed] creating superuser with the default password; change it")
		}
		if _, err := CreateSuperuser(ctx, db, username, password, ""); err != nil {
			return err
		}
	} else {
		log.Info().Int64("superusers", n).Msg("[seed] superuser present")
	}

	if opts.Demo {
		return seedDemo(ctx, db, opts.Box)
	}
	return nil
}

// CreateSuperuser validates and inserts an active SUPERUSER.
func CreateSuperuser(ctx context.Context, db *gorm.DB, username, password, email string) (*repo.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return nil, errors.New("nombre de usuario requerido")
	}
	if err := auth.ValidatePassword(password); err != nil {
		return nil, err
	}
	if _, err := repo.UserByUsername(ctx, db, username); err == nil {
		return nil, ErrUserExists
	} else if !repo.IsNotFound(err) {
		return nil, err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	u := &repo.User{
		Username:     username,
		Email:        email,
		Role:         auth.RoleSuperuser,
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := repo.CreateUser(ctx, db, u); err != nil {
		if repo.IsUniqueViolation(err) {
			return nil, ErrUserExists
		}
		return nil, err
	}
	log.Info().Str("username", username).Msg("[seed] superuser created")
	return u, nil
}

func seedDemo(ctx context.Context, db *gorm.DB, box *crypto.Box) error {
	count, err := repo.CountPatients(ctx, db)
	if err != nil {
		return err
	}
	if count > 0 {
		log.Info().Int64("patients", count).Msg("[seed] patients present, skipping demo data")
		return nil
	}

	demo := []struct {
		name, dni, phone, gender string
		birth                    time.Time
		treatment                string
		cost, paid               int64
	}{
		{"María Quispe Huamán", "45871236", "987654321", "F", time.Date(1988, 4, 12, 0, 0, 0, 0, time.UTC), "Ortodoncia", 2500, 800},
		{"José Mamani Flores", "40128735", "912345678", "M", time.Date(1975, 11, 3, 0, 0, 0, 0, time.UTC), "Endodoncia", 450, 450},
		{"Lucía Ramos Torres", "72839410", "998877665", "F", time.Date(2012, 1, 25, 0, 0, 0, 0, time.UTC), "Sellantes", 180, 0},
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, d := range demo {
			birth := d.birth
			p := &repo.Patient{
				FullName:      d.name,
				Phone:         d.phone,
				Gender:        d.gender,
				MaritalStatus: "S",
				BirthDate:     &birth,
			}
			if box != nil {
				sealed, err := box.Seal(d.dni)
				if err != nil {
					return err
				}
				hash := crypto.DNIHash(d.dni)
				p.DNIEnc, p.DNIHash = sealed, &hash
			}
			if err := repo.CreatePatient(ctx, tx, p); err != nil {
				return err
			}
			t := &repo.Treatment{
				PatientID: p.ID,
				Name:      d.treatment,
				TotalCost: decimal.NewFromInt(d.cost),
				StartDate: today.AddDate(0, -1, 0),
				Status:    dental.StatusInProgress,
			}
			if err := repo.CreateTreatment(ctx, tx, t); err != nil {
				return err
			}
			if d.paid > 0 {
				if err := repo.CreatePayment(ctx, tx, &repo.Payment{
					TreatmentID: t.ID,
					Amount:      decimal.NewFromInt(d.paid),
					Method:      "efectivo",
				}); err != nil {
					return err
				}
			}
		}
		log.Info().Int("patients", len(demo)).Msg("[seed] demo data inserted")
		return nil
	})
}
