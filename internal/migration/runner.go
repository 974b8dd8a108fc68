package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/operativa/gestionale/internal"
	"github.com/operativa/gestionale/internal/database"
	"github.com/operativa/gestionale/pkg/logger"
)

const (
	ledgerTable = "migrations"

	// Advisory lock key guarding a single run. Concurrent runs are expected
	// to be serialized operationally; the lock is a guard, not coordination.
	advisoryLockKey = 474747001
)

type Runner struct {
	db     *database.DB
	units  []Unit
	logger *slog.Logger
}

type UnitStatus struct {
	Name      string
	Applied   bool
	AppliedAt *time.Time
}

// NewRunner validates the unit ordering once; a misnumbered catalog is a
// programming error surfaced at construction.
func NewRunner(db *database.DB, units []Unit) (*Runner, error) {
	if err := validateOrder(units); err != nil {
		return nil, err
	}
	return &Runner{
		db:     db,
		units:  units,
		logger: logger.LoggerWrapper(),
	}, nil
}

// Up applies every pending unit in declared order. The first failure halts
// the run: migrations are not safe to apply out of order, so there is no
// skip-ahead. A failed unit is never recorded in the ledger.
func (r *Runner) Up(ctx context.Context) error {
	if err := r.ensureLedger(ctx); err != nil {
		return err
	}
	unlock, err := r.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	for _, u := range r.units {
		applied, err := u.IsApplied(ctx, r.db.Pool())
		if err != nil {
			return internal.NewMigrationError(fmt.Sprintf("checking %s", u.Name()), err)
		}

		if applied {
			// Structurally present but possibly missing from the ledger
			// (manually run DDL): reconcile the audit row.
			if err := r.recordApplied(ctx, u.Name()); err != nil {
				return internal.NewMigrationError(fmt.Sprintf("reconciling ledger for %s", u.Name()), err)
			}
			continue
		}

		r.logger.Info("applying migration", "unit", u.Name())
		err = r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
			if err := u.Up(ctx, tx); err != nil {
				return err
			}
			// Ledger row written only after the structural change succeeded,
			// inside the same transaction.
			_, err := tx.ExecContext(ctx,
				`INSERT INTO migrations (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`,
				u.Name())
			return err
		})
		if err != nil {
			return internal.NewMigrationError(fmt.Sprintf("applying %s", u.Name()), err)
		}
	}
	return nil
}

// Down reverses only the most recent applied unit. Multi-step rollback is
// deliberately not chained.
func (r *Runner) Down(ctx context.Context) error {
	if err := r.ensureLedger(ctx); err != nil {
		return err
	}
	unlock, err := r.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	for i := len(r.units) - 1; i >= 0; i-- {
		u := r.units[i]
		applied, err := u.IsApplied(ctx, r.db.Pool())
		if err != nil {
			return internal.NewMigrationError(fmt.Sprintf("checking %s", u.Name()), err)
		}
		if !applied {
			continue
		}

		r.logger.Info("reverting migration", "unit", u.Name())
		err = r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
			if err := u.Down(ctx, tx); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, `DELETE FROM migrations WHERE name = $1`, u.Name())
			return err
		})
		if errors.Is(err, ErrIrreversible) {
			r.logger.Warn("migration refuses to reverse a destructive change; leaving state untouched",
				"unit", u.Name())
			return nil
		}
		if err != nil {
			return internal.NewMigrationError(fmt.Sprintf("reverting %s", u.Name()), err)
		}
		return nil
	}

	r.logger.Info("no applied migrations to revert")
	return nil
}

// Status reports applied/pending per unit, applied state derived
// structurally and the ledger timestamp attached when present.
func (r *Runner) Status(ctx context.Context) ([]UnitStatus, error) {
	if err := r.ensureLedger(ctx); err != nil {
		return nil, err
	}

	statuses := make([]UnitStatus, 0, len(r.units))
	for _, u := range r.units {
		applied, err := u.IsApplied(ctx, r.db.Pool())
		if err != nil {
			return nil, internal.NewMigrationError(fmt.Sprintf("checking %s", u.Name()), err)
		}

		st := UnitStatus{Name: u.Name(), Applied: applied}
		if applied {
			var appliedAt time.Time
			err := r.db.GetContext(ctx, &appliedAt,
				`SELECT applied_at FROM migrations WHERE name = $1`, u.Name())
			if err == nil {
				st.AppliedAt = &appliedAt
			} else if err != sql.ErrNoRows {
				return nil, internal.NewMigrationError(fmt.Sprintf("reading ledger for %s", u.Name()), err)
			}
		}
		statuses = append(statuses, st)
	}
	return statuses, nil
}

func (r *Runner) ensureLedger(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS migrations (
			name TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return internal.NewMigrationError("ensuring migrations ledger", err)
	}
	return nil
}

func (r *Runner) recordApplied(ctx context.Context, name string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO migrations (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name)
	return err
}

// lock takes the advisory lock on a dedicated connection held for the whole
// run. Advisory locks are session-level, so acquire and release must happen
// on the same connection; going through the pool would release on whichever
// connection it hands back, silently leaving the lock held.
func (r *Runner) lock(ctx context.Context) (func(), error) {
	conn, err := r.db.Pool().Connx(ctx)
	if err != nil {
		return nil, internal.NewMigrationError("acquiring migration lock", err)
	}
	if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_lock($1)`, advisoryLockKey); err != nil {
		conn.Close()
		return nil, internal.NewMigrationError("acquiring migration lock", err)
	}
	return func() {
		var released bool
		err := conn.QueryRowxContext(ctx, `SELECT pg_advisory_unlock($1)`, advisoryLockKey).Scan(&released)
		if err != nil || !released {
			r.logger.Error("releasing migration lock failed", "error", err, "released", released)
		}
		conn.Close()
	}, nil
}
