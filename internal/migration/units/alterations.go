package units

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/operativa/gestionale/internal/migration"
)

// addCognitoSubToUsers links users to the identity provider's stable subject.
// Nullable until first login; re-running against a database that already has
// the column performs no ALTER.
var addCognitoSubToUsers = &unit{
	name: "012_add_cognito_sub_to_users",
	up: func(ctx context.Context, tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`ALTER TABLE users ADD COLUMN cognito_sub TEXT`); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`CREATE UNIQUE INDEX users_cognito_sub_key ON users (cognito_sub)
			WHERE cognito_sub IS NOT NULL`)
		return err
	},
	down: func(ctx context.Context, tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `ALTER TABLE users DROP COLUMN IF EXISTS cognito_sub`)
		return err
	},
	isApplied: func(ctx context.Context, q sqlx.QueryerContext) (bool, error) {
		return migration.ColumnExists(ctx, q, "users", "cognito_sub")
	},
}

var addStatoCheckToCommesse = &unit{
	name: "013_add_stato_check_to_commesse",
	up: func(ctx context.Context, tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx,
			`ALTER TABLE commesse ADD CONSTRAINT commesse_stato_check
			CHECK (stato IN ('aperta', 'in_corso', 'sospesa', 'chiusa'))`)
		return err
	},
	down: func(ctx context.Context, tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx,
			`ALTER TABLE commesse DROP CONSTRAINT IF EXISTS commesse_stato_check`)
		return err
	},
	isApplied: func(ctx context.Context, q sqlx.QueryerContext) (bool, error) {
		return migration.ConstraintExists(ctx, q, "commesse", "commesse_stato_check")
	},
}

// Invoice numbers are unique per tenant, not globally: two companies can
// both issue INV-001. The race between concurrent inserts is settled here,
// by the database.
var uniqueNumeroFatturaPerCompany = &unit{
	name: "014_unique_numero_fattura_per_company",
	up: func(ctx context.Context, tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx,
			`ALTER TABLE entrate ADD CONSTRAINT entrate_company_id_numero_fattura_key
			UNIQUE (company_id, numero_fattura)`)
		return err
	},
	down: func(ctx context.Context, tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx,
			`ALTER TABLE entrate DROP CONSTRAINT IF EXISTS entrate_company_id_numero_fattura_key`)
		return err
	},
	isApplied: func(ctx context.Context, q sqlx.QueryerContext) (bool, error) {
		return migration.ConstraintExists(ctx, q, "entrate", "entrate_company_id_numero_fattura_key")
	},
}

// rebuildRapportiniHours widens ore from INTEGER to NUMERIC(5,2) and adds
// ore_fatturabili through a rename-rebuild-backfill. Down refuses: narrowing
// back to INTEGER would lose fractional hours.
var rapportiniRebuild = &migration.Rebuild{
	Table:        "rapportini",
	MarkerColumn: "ore_fatturabili",
	CreateNew: func(ctx context.Context, tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			CREATE TABLE rapportini (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				company_id UUID NOT NULL REFERENCES companies(id),
				commessa_id UUID REFERENCES commesse(id),
				data DATE NOT NULL,
				ore NUMERIC(5,2) NOT NULL DEFAULT 0,
				ore_fatturabili NUMERIC(5,2),
				note TEXT,
				stato TEXT NOT NULL DEFAULT 'bozza'
					CHECK (stato IN ('bozza', 'inviato', 'approvato')),
				created_by UUID REFERENCES users(id),
				updated_by UUID REFERENCES users(id),
				created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`)
		return err
	},
	Backfill: func(ctx context.Context, tx *sqlx.Tx, backupTable string) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO rapportini
				(id, company_id, commessa_id, data, ore, note, stato,
				 created_by, updated_by, created_at, updated_at)
			SELECT id, company_id, commessa_id, data, ore::numeric(5,2), note, stato,
				 created_by, updated_by, created_at, updated_at
			FROM `+backupTable)
		return err
	},
}

var rebuildRapportiniHours = &unit{
	name: "015_rebuild_rapportini_hours",
	up: func(ctx context.Context, tx *sqlx.Tx) error {
		return rapportiniRebuild.Run(ctx, tx)
	},
	down: func(ctx context.Context, tx *sqlx.Tx) error {
		return migration.ErrIrreversible
	},
	isApplied: func(ctx context.Context, q sqlx.QueryerContext) (bool, error) {
		return rapportiniRebuild.Applied(ctx, q)
	},
}

// Optional billing columns; absent in older environments, substituted with
// typed NULLs by the schema helper.
var addBillingFieldsToCompanies = &unit{
	name: "016_add_billing_fields_to_companies",
	up: func(ctx context.Context, tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`ALTER TABLE companies ADD COLUMN pec_email TEXT`); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `ALTER TABLE companies ADD COLUMN sdi_code TEXT`)
		return err
	},
	down: func(ctx context.Context, tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`ALTER TABLE companies DROP COLUMN IF EXISTS pec_email`); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `ALTER TABLE companies DROP COLUMN IF EXISTS sdi_code`)
		return err
	},
	isApplied: func(ctx context.Context, q sqlx.QueryerContext) (bool, error) {
		pec, err := migration.ColumnExists(ctx, q, "companies", "pec_email")
		if err != nil || !pec {
			return false, err
		}
		return migration.ColumnExists(ctx, q, "companies", "sdi_code")
	},
}
