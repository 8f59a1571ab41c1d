package main

import (
	"database/sql"
	"os"
	"path/filepath"
	"strconv"

	"hostly/cmd/migration/initialize"
	"hostly/cmd/migration/seed"
	"hostly/config"
	"hostly/internal/database"
	"hostly/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	_ "github.com/lib/pq"
	migrate "github.com/rubenv/sql-migrate"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

const (
	MIGRATION_PATH = "cmd/migration/migrations"
	MIGRATION_DB   = "postgres"
)

func main() {
	log := logger.New("migrations").Function("main")

	if err := newRootCommand(log).Execute(); err != nil {
		log.Er("failed to run migrations", err)
		os.Exit(1)
	}

	log.Info("Migrations complete")
}

func newRootCommand(log logger.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "migration",
		Short:         "Manage the hostly database schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Create tables and apply pending SQL migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDatabase(log, func(db database.DB, cfg config.Config) error {
					return migrateUp(db.SQL, cfg, log)
				})
			},
		},
		&cobra.Command{
			Use:   "down [steps]",
			Short: "Roll back SQL migrations, one step by default",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				steps := 1
				if len(args) == 1 {
					parsed, err := strconv.Atoi(args[0])
					if err != nil || parsed < 1 {
						return log.Error("steps must be a positive integer", "steps", args[0])
					}
					steps = parsed
				}

				cfg, err := config.New()
				if err != nil {
					return err
				}
				return migrateDown(steps, cfg, log)
			},
		},
		&cobra.Command{
			Use:   "seed",
			Short: "Drop every table, migrate and load development data",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDatabase(log, func(db database.DB, cfg config.Config) error {
					return migrateSeed(db, cfg, log)
				})
			},
		},
	)

	return root
}

func withDatabase(log logger.Logger, run func(db database.DB, cfg config.Config) error) error {
	cfg, err := config.New()
	if err != nil {
		return log.Err("failed to initialize config", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		return log.Err("failed to create database", err)
	}
	defer func() { _ = db.Close() }()

	return run(db, cfg)
}

// migrateUp creates the GORM tables first because the SQL migrations add
// partial indexes and check constraints to them.
func migrateUp(db *gorm.DB, config config.Config, log logger.Logger) error {
	log = log.Function("migrateUp")
	log.Info("Running migrations up")

	if err := autoMigrate(db, log); err != nil {
		return log.Err("failed to auto migrate", err)
	}

	if err := runMigrations(config, log, migrate.Up); err != nil {
		return log.Err("failed to run migrations", err)
	}

	if err := initialize.InitializeTables(db, log); err != nil {
		return log.Err("failed to initialize tables", err)
	}

	return nil
}

func migrateDown(steps int, config config.Config, log logger.Logger) error {
	log = log.Function("migrateDown")
	log.Info("Running migrations down", "steps", steps)

	for range steps {
		if err := runMigrations(config, log, migrate.Down); err != nil {
			return log.Err("failed to run migrations", err)
		}
	}

	return nil
}

func migrateSeed(db database.DB, config config.Config, log logger.Logger) error {
	log = log.Function("migrateSeed")
	log.Info("Running seed")

	if err := cleanDatabase(db.SQL, log); err != nil {
		return log.Err("failed to clean database", err)
	}

	if err := db.FlushAllCaches(); err != nil {
		return log.Err("failed to flush cache databases", err)
	}

	if err := migrateUp(db.SQL, config, log); err != nil {
		return log.Err("failed to migrate", err)
	}

	log.Info("Seeding database")
	if err := seed.Seed(db.SQL, config, log); err != nil {
		return log.Err("failed to seed database", err)
	}

	return nil
}

func autoMigrate(db *gorm.DB, log logger.Logger) error {
	log = log.Function("autoMigrate")

	tables := models.All()

	log.Info("Phase 1: Creating tables without foreign key constraints")
	db.Config.DisableForeignKeyConstraintWhenMigrating = true
	for _, table := range tables {
		if !db.Migrator().HasTable(table) {
			if err := db.Migrator().CreateTable(table); err != nil {
				return log.Err("failed to create table structure", err)
			}
		}
	}

	log.Info("Phase 2: Adding foreign key constraints and relationships")
	db.Config.DisableForeignKeyConstraintWhenMigrating = false
	if err := db.AutoMigrate(tables...); err != nil {
		return log.Err("failed to add constraints", err)
	}

	return nil
}

func runMigrations(
	config config.Config,
	log logger.Logger,
	direction migrate.MigrationDirection,
) error {
	log = log.Function("runMigrations")

	files, err := filepath.Glob(filepath.Join(MIGRATION_PATH, "*.sql"))
	if err != nil {
		return log.Err("failed to check for migration files", err)
	}
	if len(files) == 0 {
		log.Info("No migration files found, skipping file-based migrations")
		return nil
	}

	db, err := sql.Open(MIGRATION_DB, database.DSN(config))
	if err != nil {
		return log.Err("failed to open database for migrations", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			log.Er("failed to close database", closeErr)
		}
	}()

	migrations := &migrate.FileMigrationSource{Dir: MIGRATION_PATH}

	limit := 0
	if direction == migrate.Down {
		limit = 1
	}

	n, err := migrate.ExecMax(db, MIGRATION_DB, migrations, direction, limit)
	if err != nil {
		return log.Err("failed to run migrations", err)
	}

	if n == 0 {
		log.Info("No migrations to apply")
	} else {
		log.Info("Applied migrations", "migrationCount", n, "direction", direction)
	}

	return nil
}

func cleanDatabase(db *gorm.DB, log logger.Logger) error {
	log = log.Function("cleanDatabase")
	log.Info("Dropping all tables before seeding")

	tables := models.All()
	for i, j := 0, len(tables)-1; i < j; i, j = i+1, j-1 {
		tables[i], tables[j] = tables[j], tables[i]
	}
	tables = append(tables, "gorp_migrations")

	if err := db.Migrator().DropTable(tables...); err != nil {
		return log.Err("failed to drop tables", err)
	}

	return nil
}
