package migration

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Structural introspection against the database catalog. These answer the
// runner's IsApplied checks and back the schema helper's column discovery.

func TableExists(ctx context.Context, q sqlx.QueryerContext, table string) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, q, &exists,
		`SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = current_schema() AND table_name = $1
		)`, table)
	return exists, err
}

func ColumnExists(ctx context.Context, q sqlx.QueryerContext, table, column string) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, q, &exists,
		`SELECT EXISTS (
			SELECT 1 FROM information_schema.columns
			WHERE table_schema = current_schema() AND table_name = $1 AND column_name = $2
		)`, table, column)
	return exists, err
}

func ConstraintExists(ctx context.Context, q sqlx.QueryerContext, table, constraint string) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, q, &exists,
		`SELECT EXISTS (
			SELECT 1 FROM information_schema.table_constraints
			WHERE table_schema = current_schema() AND table_name = $1 AND constraint_name = $2
		)`, table, constraint)
	return exists, err
}

// TableColumns returns the live column names for a table, in ordinal order.
func TableColumns(ctx context.Context, q sqlx.QueryerContext, table string) ([]string, error) {
	var cols []string
	err := sqlx.SelectContext(ctx, q, &cols,
		`SELECT column_name FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1
		ORDER BY ordinal_position`, table)
	return cols, err
}

// LatestBackupTable returns the most recent "<table>_backup_<ts>" table, or
// "" when none exists. Rebuild units use it to detect a partially completed
// rename-rebuild and resume instead of renaming again.
func LatestBackupTable(ctx context.Context, q sqlx.QueryerContext, table string) (string, error) {
	var backups []string
	err := sqlx.SelectContext(ctx, q, &backups,
		`SELECT table_name FROM information_schema.tables
		WHERE table_schema = current_schema() AND table_name LIKE $1
		ORDER BY table_name DESC LIMIT 1`, table+`_backup_%`)
	if err != nil {
		return "", err
	}
	if len(backups) == 0 {
		return "", nil
	}
	return backups[0], nil
}
