// Package units is the ordered catalog of schema changes for the shared
// multi-tenant schema. Tenants never get their own tables: every business
// table carries company_id and the catalog evolves once for everyone.
package units

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/operativa/gestionale/internal/migration"
)

// unit is the catalog's plain implementation of migration.Unit.
type unit struct {
	name      string
	up        func(ctx context.Context, tx *sqlx.Tx) error
	down      func(ctx context.Context, tx *sqlx.Tx) error
	isApplied func(ctx context.Context, q sqlx.QueryerContext) (bool, error)
}

func (u *unit) Name() string { return u.name }

func (u *unit) Up(ctx context.Context, tx *sqlx.Tx) error { return u.up(ctx, tx) }

func (u *unit) Down(ctx context.Context, tx *sqlx.Tx) error { return u.down(ctx, tx) }

func (u *unit) IsApplied(ctx context.Context, q sqlx.QueryerContext) (bool, error) {
	return u.isApplied(ctx, q)
}

// createTable builds the common create-table unit: applied when the table
// exists, reversed by dropping it.
func createTable(name, table, ddl string) migration.Unit {
	return &unit{
		name: name,
		up: func(ctx context.Context, tx *sqlx.Tx) error {
			_, err := tx.ExecContext(ctx, ddl)
			return err
		},
		down: func(ctx context.Context, tx *sqlx.Tx) error {
			_, err := tx.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, table))
			return err
		},
		isApplied: func(ctx context.Context, q sqlx.QueryerContext) (bool, error) {
			return migration.TableExists(ctx, q, table)
		},
	}
}

// All returns the catalog in its total order.
func All() []migration.Unit {
	return []migration.Unit{
		createPlans,
		createRoles,
		createCompanies,
		createUsers,
		createClienti,
		createFornitori,
		createCommesse,
		createRapportini,
		createEntrate,
		createUscite,
		createDocuments,
		addCognitoSubToUsers,
		addStatoCheckToCommesse,
		uniqueNumeroFatturaPerCompany,
		rebuildRapportiniHours,
		addBillingFieldsToCompanies,
	}
}
