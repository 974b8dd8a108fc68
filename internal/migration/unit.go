// Package migration evolves the shared multi-tenant schema through an
// ordered list of named, independently idempotent units. Applied state is
// derived structurally from the database catalog; the migrations ledger is
// an audit log only, written after the structural change succeeds.
package migration

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
)

// ErrIrreversible is returned by Down on units that refuse to reverse a
// destructive change. The runner logs a warning and leaves state untouched.
var ErrIrreversible = errors.New("migration is irreversible")

// Unit is a single schema change. Up and Down run inside one transaction
// owned by the runner. IsApplied must answer from information_schema, not
// from the ledger, so the runner stays safe against manually migrated
// databases.
type Unit interface {
	Name() string
	Up(ctx context.Context, tx *sqlx.Tx) error
	Down(ctx context.Context, tx *sqlx.Tx) error
	IsApplied(ctx context.Context, q sqlx.QueryerContext) (bool, error)
}

// unitSeq parses the strictly increasing numeric prefix of a unit name
// ("014_unique_numero_fattura" -> 14).
func unitSeq(name string) (int, error) {
	idx := strings.Index(name, "_")
	if idx <= 0 {
		return 0, fmt.Errorf("migration name %q has no numeric prefix", name)
	}
	seq, err := strconv.Atoi(name[:idx])
	if err != nil {
		return 0, fmt.Errorf("migration name %q has no numeric prefix", name)
	}
	return seq, nil
}

func validateOrder(units []Unit) error {
	prev := 0
	for _, u := range units {
		seq, err := unitSeq(u.Name())
		if err != nil {
			return err
		}
		if seq <= prev {
			return fmt.Errorf("migration %q breaks the strictly increasing order after %03d", u.Name(), prev)
		}
		prev = seq
	}
	return nil
}
