package migration

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/operativa/gestionale/pkg/logger"
)

// RebuildState tracks how far a rename-rebuild-backfill got. The state is
// derived structurally (which tables exist, which columns the live table
// has), so an interrupted rebuild resumes instead of renaming an
// already-renamed table a second time.
type RebuildState int

const (
	RebuildNotStarted RebuildState = iota
	RebuildBackedUp
	RebuildRebuilt
	RebuildFinalized
)

// Rebuild is the destructive table-rebuild pattern: rename the live table to
// a timestamped backup, create the new shape, best-effort copy the old rows
// across, drop the backup on success and keep it when the transform fails.
// The whole sequence runs inside the owning unit's single transaction.
type Rebuild struct {
	// Table is the live table name.
	Table string
	// MarkerColumn exists only in the new shape; its presence on Table is
	// what distinguishes old from new.
	MarkerColumn string
	// CreateNew creates Table in its new shape.
	CreateNew func(ctx context.Context, tx *sqlx.Tx) error
	// Backfill copies/transforms rows from the backup into the new table.
	// It is best-effort: a failure keeps the backup for manual recovery and
	// does not fail the unit.
	Backfill func(ctx context.Context, tx *sqlx.Tx, backupTable string) error
}

// State inspects the catalog and reports how far a previous run got.
func (rb *Rebuild) State(ctx context.Context, q sqlx.QueryerContext) (RebuildState, string, error) {
	backup, err := LatestBackupTable(ctx, q, rb.Table)
	if err != nil {
		return RebuildNotStarted, "", err
	}

	liveExists, err := TableExists(ctx, q, rb.Table)
	if err != nil {
		return RebuildNotStarted, "", err
	}

	if backup == "" {
		if !liveExists {
			return RebuildNotStarted, "", nil
		}
		newShape, err := ColumnExists(ctx, q, rb.Table, rb.MarkerColumn)
		if err != nil {
			return RebuildNotStarted, "", err
		}
		if newShape {
			return RebuildFinalized, "", nil
		}
		return RebuildNotStarted, "", nil
	}

	if !liveExists {
		return RebuildBackedUp, backup, nil
	}
	return RebuildRebuilt, backup, nil
}

// Applied reports whether the rebuild finished (new shape live, no pending
// intermediate state). A retained backup after a failed backfill still
// counts as applied; the backup is not authoritative.
func (rb *Rebuild) Applied(ctx context.Context, q sqlx.QueryerContext) (bool, error) {
	liveExists, err := TableExists(ctx, q, rb.Table)
	if err != nil {
		return false, err
	}
	if !liveExists {
		return false, nil
	}
	return ColumnExists(ctx, q, rb.Table, rb.MarkerColumn)
}

// Run executes or resumes the rebuild inside tx.
func (rb *Rebuild) Run(ctx context.Context, tx *sqlx.Tx) error {
	state, backup, err := rb.State(ctx, tx)
	if err != nil {
		return err
	}

	switch state {
	case RebuildFinalized:
		return nil

	case RebuildNotStarted:
		backup = fmt.Sprintf("%s_backup_%d", rb.Table, time.Now().Unix())
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf(`ALTER TABLE %s RENAME TO %s`, rb.Table, backup)); err != nil {
			return fmt.Errorf("backing up %s: %w", rb.Table, err)
		}
		fallthrough

	case RebuildBackedUp:
		if err := rb.CreateNew(ctx, tx); err != nil {
			return fmt.Errorf("creating new %s: %w", rb.Table, err)
		}
		fallthrough

	case RebuildRebuilt:
		return rb.backfillAndFinalize(ctx, tx, backup)
	}
	return nil
}

func (rb *Rebuild) backfillAndFinalize(ctx context.Context, tx *sqlx.Tx, backup string) error {
	// Savepoint so a failed best-effort backfill poisons neither the unit's
	// transaction nor the already-performed rename/create.
	if _, err := tx.ExecContext(ctx, `SAVEPOINT rebuild_backfill`); err != nil {
		return err
	}

	if err := rb.Backfill(ctx, tx, backup); err != nil {
		logger.From(ctx).Warn("rebuild backfill failed; keeping backup table",
			"table", rb.Table, "backup", backup, "error", err)
		_, rbErr := tx.ExecContext(ctx, `ROLLBACK TO SAVEPOINT rebuild_backfill`)
		return rbErr
	}

	if _, err := tx.ExecContext(ctx, `RELEASE SAVEPOINT rebuild_backfill`); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DROP TABLE %s`, backup)); err != nil {
		return fmt.Errorf("dropping backup %s: %w", backup, err)
	}
	return nil
}
