package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/hellojohn-introspect/internal/observability/logger"
	"github.com/dropDatabas3/hellojohn-introspect/internal/store/pg"
	migrations "github.com/dropDatabas3/hellojohn-introspect/migrations/postgres"
)

func newMigrateCmd() *cobra.Command {
	var (
		dsn     string
		dryRun  bool
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones SQL embebidas (oauth_token, oauth_client)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger.Init(logger.Config{Env: envOr("APP_ENV", "dev"), Level: envOr("LOG_LEVEL", "info"), ServiceName: "introspectd-migrate"})
			log := logger.L().With(logger.Component("migrate"))

			m := pg.NewMigrator(migrations.FS, migrations.Dir)
			if dryRun {
				migs, err := m.ParseMigrations()
				if err != nil {
					return err
				}
				for _, mig := range migs {
					fmt.Fprintf(cmd.OutOrStdout(), "%04d %s\n", mig.Version, mig.Name)
				}
				return nil
			}
			if dsn == "" {
				return errors.New("falta DSN (flag --dsn o env STORAGE_DSN)")
			}

			ctx, cancel := contextWithTimeout(cmd, timeout)
			defer cancel()
			s, err := pg.New(ctx, pg.Config{DSN: dsn, MaxConns: 2})
			if err != nil {
				return err
			}
			defer s.Close()

			res, err := m.Run(ctx, s)
			if err != nil {
				log.Error("migrations failed", logger.Err(err))
				return err
			}
			log.Info("migrations done",
				logger.Any("applied", res.Applied),
				logger.Any("skipped", res.Skipped),
				logger.Duration(res.Duration),
			)
			return nil
		},
	}
	cmd.Flags().StringVar(&dsn, "dsn", envOr("STORAGE_DSN", ""), "Postgres DSN (env STORAGE_DSN)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Lista las migraciones sin aplicarlas")
	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "Timeout total")
	return cmd
}
