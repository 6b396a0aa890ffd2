package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/pantera3000/sistema-dental-01/internal/crypto"
	"github.com/pantera3000/sistema-dental-01/internal/migrate"
	"github.com/pantera3000/sistema-dental-01/internal/seed"
)

func migrateCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones SQL pendientes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			pool, db, err := openDatabase(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeDatabase(pool, db)
			if dryRun {
				pending, err := migrate.Pending(ctx, db, migrationsDir)
				if err != nil {
					return err
				}
				for _, f := range pending {
					fmt.Fprintln(cmd.OutOrStdout(), f)
				}
				log.Info().Int("pending", len(pending)).Msg("[migrate] dry run")
				return nil
			}
			if err := migrate.Run(ctx, db, migrationsDir); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			log.Info().Msg("[migrate] done")
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "solo lista las migraciones pendientes")
	return cmd
}

func seedCmd() *cobra.Command {
	var opts seed.Options
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Crea la configuración inicial, el superusuario y datos de demostración",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			pool, db, err := openDatabase(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeDatabase(pool, db)
			if opts.Demo {
				if opts.Box, err = crypto.NewBox(cfg.DataEncryptionKeys, cfg.CurrentDataKeyVer); err != nil {
					return fmt.Errorf("encryption keys: %w", err)
				}
			}
			return seed.Run(ctx, db, opts)
		},
	}
	cmd.Flags().StringVar(&opts.AdminUsername, "admin-username", "admin", "usuario del superusuario inicial")
	cmd.Flags().StringVar(&opts.AdminPassword, "admin-password", "", "contraseña del superusuario inicial")
	cmd.Flags().BoolVar(&opts.Demo, "demo", false, "agrega pacientes y tratamientos de ejemplo")
	return cmd
}

func createSuperuserCmd() *cobra.Command {
	var username, password, email string
	cmd := &cobra.Command{
		Use:   "createsuperuser",
		Short: "Crea un usuario SUPERUSER",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			pool, db, err := openDatabase(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeDatabase(pool, db)
			u, err := seed.CreateSuperuser(ctx, db, username, password, email)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "superusuario %q creado\n", u.Username)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "nombre de usuario")
	cmd.Flags().StringVar(&password, "password", "", "contraseña (mínimo 8 caracteres)")
	cmd.Flags().StringVar(&email, "email", "", "correo electrónico")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
