package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"buzz-quiz-service/internal/config"
	pgmigrations "buzz-quiz-service/internal/infra/postgres/migrations"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

// NewMigrateCmd applies (or with --rollback, reverts) the Postgres schema.
func NewMigrateCmd(configPath *string) *cobra.Command {
	var rollback bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the quizzes and button_mappings tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if rollback {
				return rollbackMigrations(cmd.Context(), cfg)
			}
			return runMigrationsWithConfig(cmd.Context(), cfg)
		},
	}
	cmd.Flags().BoolVar(&rollback, "rollback", false, "revert the last applied migration group")
	return cmd
}

func newMigrator(ctx context.Context, cfg config.Config) (*migrate.Migrator, func(), error) {
	if cfg.Postgres.URL == "" {
		return nil, nil, fmt.Errorf("postgres url not configured")
	}
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
	db := bun.NewDB(sqldb, pgdialect.New())

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return migrator, func() { _ = db.Close() }, nil
}

func runMigrationsWithConfig(ctx context.Context, cfg config.Config) error {
	migrator, closeDB, err := newMigrator(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	group, err := migrator.Migrate(ctx)
	if err != nil {
		return err
	}
	if group.IsZero() {
		log.Printf("migrate: schema up to date")
		return nil
	}
	log.Printf("migrate: applied %s", group)
	return nil
}

func rollbackMigrations(ctx context.Context, cfg config.Config) error {
	migrator, closeDB, err := newMigrator(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	group, err := migrator.Rollback(ctx)
	if err != nil {
		return err
	}
	if group.IsZero() {
		log.Printf("migrate: nothing to roll back")
		return nil
	}
	log.Printf("migrate: rolled back %s", group)
	return nil
}
