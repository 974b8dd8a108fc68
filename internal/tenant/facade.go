package tenant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/operativa/gestionale/internal"
	"github.com/operativa/gestionale/internal/database"
)

const defaultFindLimit = 100

// execer is what the facade runs statements through: the pooled connection
// manager, or a transaction during multi-statement mutations. *sqlx.Tx
// satisfies it directly.
type execer interface {
	QueryxContext(ctx context.Context, query string, args ...any) (*sqlx.Rows, error)
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Facade is the tenant-bound data access object, constructed once per
// request. Every statement it issues is constrained by the resolved company
// id; a caller cannot read, move or delete rows across tenants no matter
// what ids or payloads it supplies.
type Facade struct {
	db       *database.DB
	q        execer
	tenantID string
}

func NewFacade(db *database.DB, tenantID string) *Facade {
	return &Facade{db: db, q: db, tenantID: tenantID}
}

// TenantID returns the company this facade is pinned to.
func (f *Facade) TenantID() string {
	return f.tenantID
}

type FindOptions struct {
	// Where holds equality filters; keys must be writable columns of the
	// table, values are always bound parameters.
	Where   map[string]any
	OrderBy string
	Desc    bool
	Limit   int
	Offset  int
}

// Get returns a single row by id within the tenant, or nil when absent.
func (f *Facade) Get(ctx context.Context, table, id string) (map[string]any, error) {
	if err := f.checkTable(table); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT * FROM %s WHERE id = $1 AND company_id = $2`, table)
	return f.queryOne(ctx, query, id, f.tenantID)
}

// FindMany returns rows matching opts, most recently created first unless
// ordered otherwise.
func (f *Facade) FindMany(ctx context.Context, table string, opts FindOptions) ([]map[string]any, error) {
	if err := f.checkTable(table); err != nil {
		return nil, err
	}

	args := []any{f.tenantID}
	var sb strings.Builder
	fmt.Fprintf(&sb, `SELECT * FROM %s WHERE company_id = $1`, table)

	for _, col := range sortedKeys(opts.Where) {
		if err := f.checkColumn(table, col); err != nil {
			return nil, err
		}
		args = append(args, opts.Where[col])
		fmt.Fprintf(&sb, ` AND %s = $%d`, col, len(args))
	}

	orderBy, desc := "created_at", true
	if opts.OrderBy != "" {
		if _, ok := sortableColumns[table][opts.OrderBy]; !ok {
			return nil, internal.NewValidationError(
				fmt.Sprintf("cannot order %s by %q", table, opts.OrderBy),
				internal.ErrCodeInvalidOrderBy)
		}
		orderBy, desc = opts.OrderBy, opts.Desc
	}
	direction := "ASC"
	if desc {
		direction = "DESC"
	}
	fmt.Fprintf(&sb, ` ORDER BY %s %s`, orderBy, direction)

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultFindLimit
	}
	args = append(args, limit)
	fmt.Fprintf(&sb, ` LIMIT $%d`, len(args))
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		fmt.Fprintf(&sb, ` OFFSET $%d`, len(args))
	}

	rows, err := f.q.QueryxContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]map[string]any, 0)
	for rows.Next() {
		row := map[string]any{}
		if err := rows.MapScan(row); err != nil {
			return nil, err
		}
		results = append(results, row)
	}
	return results, rows.Err()
}

// Insert persists data with company_id forcibly set to the facade's tenant;
// any company_id in the payload is discarded. Returns the new row id.
func (f *Facade) Insert(ctx context.Context, table string, data map[string]any) (string, error) {
	if err := f.checkTable(table); err != nil {
		return "", err
	}

	delete(data, "company_id")
	delete(data, "id")
	if len(data) == 0 {
		return "", internal.NewValidationError("nothing to insert", internal.ErrCodeEmptyPayload)
	}

	columns := make([]string, 0, len(data)+1)
	placeholders := make([]string, 0, len(data)+1)
	args := make([]any, 0, len(data)+1)
	for _, col := range sortedKeys(data) {
		if err := f.checkColumn(table, col); err != nil {
			return "", err
		}
		columns = append(columns, col)
		args = append(args, data[col])
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
	}
	columns = append(columns, "company_id")
	args = append(args, f.tenantID)
	placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) RETURNING id`,
		table, strings.Join(columns, ", "), strings.Join(placeholders, ", "))

	var id string
	if err := f.q.GetContext(ctx, &id, query, args...); err != nil {
		return "", database.ConflictFrom(err)
	}
	return id, nil
}

// Update changes a row's writable columns. The payload cannot reassign the
// row's tenant: company_id is stripped from the SET clause and enforced in
// the WHERE clause together with the id. Returns the updated row, or nil
// when the tenant owns no such row.
func (f *Facade) Update(ctx context.Context, table, id string, data map[string]any) (map[string]any, error) {
	if err := f.checkTable(table); err != nil {
		return nil, err
	}

	delete(data, "company_id")
	delete(data, "id")
	if len(data) == 0 {
		return nil, internal.NewValidationError("nothing to update", internal.ErrCodeEmptyPayload)
	}

	sets := make([]string, 0, len(data)+1)
	args := make([]any, 0, len(data)+2)
	for _, col := range sortedKeys(data) {
		if err := f.checkColumn(table, col); err != nil {
			return nil, err
		}
		args = append(args, data[col])
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	sets = append(sets, "updated_at = now()")

	args = append(args, id)
	idPos := len(args)
	args = append(args, f.tenantID)

	query := fmt.Sprintf(`UPDATE %s SET %s WHERE id = $%d AND company_id = $%d RETURNING *`,
		table, strings.Join(sets, ", "), idPos, idPos+1)

	row, err := f.queryOne(ctx, query, args...)
	if err != nil {
		return nil, database.ConflictFrom(err)
	}
	return row, nil
}

// Delete removes a row within the tenant, reporting whether a row actually
// went away.
func (f *Facade) Delete(ctx context.Context, table, id string) (bool, error) {
	if err := f.checkTable(table); err != nil {
		return false, err
	}

	res, err := f.q.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND company_id = $2`, table),
		id, f.tenantID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// CompanyProfile returns the facade's own company row. The column list goes
// through the schema helper, so optional columns added by later migrations
// come back as typed NULLs on databases that predate them.
func (f *Facade) CompanyProfile(ctx context.Context) (map[string]any, error) {
	list, err := defaultSchemaHelper.SelectList(ctx, f.db.Pool(), "companies")
	if err != nil {
		return nil, err
	}
	return f.queryOne(ctx,
		fmt.Sprintf(`SELECT %s FROM companies WHERE id = $1`, list), f.tenantID)
}

// Transaction runs fn against a facade bound to the same tenant inside a
// single database transaction (multi-statement mutations such as
// create-record-plus-attach-files).
func (f *Facade) Transaction(ctx context.Context, fn func(fx *Facade) error) error {
	return f.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		return fn(&Facade{db: f.db, q: tx, tenantID: f.tenantID})
	})
}

func (f *Facade) checkTable(table string) error {
	if !tableAllowed(table) {
		return internal.NewValidationError(
			fmt.Sprintf("table %q is not accessible through the tenant facade", table),
			internal.ErrCodeTableNotAllowed)
	}
	return nil
}

func (f *Facade) checkColumn(table, column string) error {
	if _, ok := writableColumns[table][column]; !ok {
		return internal.NewValidationError(
			fmt.Sprintf("column %q is not writable on %s", column, table),
			internal.ErrCodeValidationFailed)
	}
	return nil
}

func (f *Facade) queryOne(ctx context.Context, query string, args ...any) (map[string]any, error) {
	rows, err := f.q.QueryxContext(ctx, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	row := map[string]any{}
	if err := rows.MapScan(row); err != nil {
		return nil, err
	}
	return row, nil
}

// sortedKeys keeps generated SQL deterministic for a given payload.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
