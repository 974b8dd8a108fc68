package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/operativa/gestionale/internal/database"
	"github.com/operativa/gestionale/internal/migration"
	"github.com/operativa/gestionale/internal/migration/units"
	"github.com/operativa/gestionale/internal/tenant"
	"github.com/operativa/gestionale/pkg/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending schema changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRunner(func(ctx context.Context, runner *migration.Runner) error {
			return runner.Up(ctx)
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Revert the most recently applied schema change",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRunner(func(ctx context.Context, runner *migration.Runner) error {
			return runner.Down(ctx)
		})
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which schema changes are applied",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRunner(func(ctx context.Context, runner *migration.Runner) error {
			statuses, err := runner.Status(ctx)
			if err != nil {
				return err
			}
			for _, s := range statuses {
				state := "pending"
				if s.Applied {
					state = "applied"
				}
				at := ""
				if s.AppliedAt != nil {
					at = s.AppliedAt.Format(time.RFC3339)
				}
				fmt.Printf("%-50s %-8s %s\n", s.Name, state, at)
			}
			return nil
		})
	},
}

// create-tenant predates the shared-schema layout, where every company lived
// in its own schema. Tenants now need no per-company DDL, so this ensures
// the shared tables exist (applying pending migrations when any is missing)
// and reports the id as ready.
var migrateCreateTenantCmd = &cobra.Command{
	Use:   "create-tenant <company-id>",
	Short: "Ensure the schema is ready for a company (no per-tenant DDL under shared schema)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		companyID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid company id %q: %w", args[0], err)
		}

		return withRunnerDB(func(ctx context.Context, db *database.DB, runner *migration.Runner) error {
			missing, err := missingSharedTables(ctx, db)
			if err != nil {
				return err
			}
			if len(missing) > 0 {
				fmt.Printf("missing tables %v: applying pending migrations\n", missing)
				if err := runner.Up(ctx); err != nil {
					return err
				}
				if missing, err = missingSharedTables(ctx, db); err != nil {
					return err
				}
				if len(missing) > 0 {
					return fmt.Errorf("tables still missing after migrate up: %v", missing)
				}
			}
			fmt.Printf("tenant %s ready: shared schema in place\n", companyID)
			return nil
		})
	},
}

func missingSharedTables(ctx context.Context, db *database.DB) ([]string, error) {
	var missing []string
	for _, table := range tenant.AllowedTables() {
		exists, err := migration.TableExists(ctx, db.Pool(), table)
		if err != nil {
			return nil, fmt.Errorf("checking table %s: %w", table, err)
		}
		if !exists {
			missing = append(missing, table)
		}
	}
	return missing, nil
}

func withDB(fn func(ctx context.Context, db *database.DB) error) error {
	cfg, err := loadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	env := appEnv()
	logger.InitWithLevel(env, cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)

	db, err := database.New(cfg.Database, env)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "database close error: %v\n", err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	return fn(ctx, db)
}

func withRunner(fn func(ctx context.Context, runner *migration.Runner) error) error {
	return withRunnerDB(func(ctx context.Context, _ *database.DB, runner *migration.Runner) error {
		return fn(ctx, runner)
	})
}

func withRunnerDB(fn func(ctx context.Context, db *database.DB, runner *migration.Runner) error) error {
	return withDB(func(ctx context.Context, db *database.DB) error {
		runner, err := migration.NewRunner(db, units.All())
		if err != nil {
			return err
		}
		return fn(ctx, db, runner)
	})
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
	migrateCmd.AddCommand(migrateCreateTenantCmd)
}
