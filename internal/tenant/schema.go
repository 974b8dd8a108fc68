package tenant

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jmoiron/sqlx"

	"github.com/operativa/gestionale/internal/migration"
)

// OptionalColumn is a column added by a later migration that is nullable in
// every historical schema version. Listing a required column here would
// mask a migration that never ran, which is exactly the failure this
// helper must not hide.
type OptionalColumn struct {
	Name    string
	SQLType string
}

// optionalColumns registers, per table, the columns the helper may replace
// with typed NULL literals when the live database predates their migration.
var optionalColumns = map[string][]OptionalColumn{
	"companies": {
		{Name: "pec_email", SQLType: "text"},
		{Name: "sdi_code", SQLType: "text"},
	},
	"rapportini": {
		{Name: "ore_fatturabili", SQLType: "numeric(5,2)"},
	},
	"users": {
		{Name: "cognito_sub", SQLType: "text"},
	},
}

// SchemaHelper builds SELECT lists that tolerate databases pinned to older
// migrations: optional columns absent from the live table are substituted
// with typed NULLs aliased to the expected name, so one code path runs
// against every environment.
type SchemaHelper struct {
	mu     sync.RWMutex
	cached map[string]string
}

func NewSchemaHelper() *SchemaHelper {
	return &SchemaHelper{cached: make(map[string]string)}
}

// defaultSchemaHelper serves the facade's own tolerant reads; its cache
// lives for the process, same as the schema.
var defaultSchemaHelper = NewSchemaHelper()

// SelectList returns the comma-joined column list for table. Live columns
// appear as-is; registered optional columns missing from the live schema
// become "NULL::<type> AS <name>". The result is cached for the process
// lifetime: the schema only changes when migrations run, at deploy time.
func (h *SchemaHelper) SelectList(ctx context.Context, q sqlx.QueryerContext, table string) (string, error) {
	h.mu.RLock()
	if list, ok := h.cached[table]; ok {
		h.mu.RUnlock()
		return list, nil
	}
	h.mu.RUnlock()

	live, err := migration.TableColumns(ctx, q, table)
	if err != nil {
		return "", err
	}

	liveSet := make(map[string]struct{}, len(live))
	parts := make([]string, 0, len(live)+2)
	for _, col := range live {
		liveSet[col] = struct{}{}
		parts = append(parts, col)
	}
	for _, opt := range optionalColumns[table] {
		if _, ok := liveSet[opt.Name]; !ok {
			parts = append(parts, fmt.Sprintf("NULL::%s AS %s", opt.SQLType, opt.Name))
		}
	}
	list := strings.Join(parts, ", ")

	h.mu.Lock()
	h.cached[table] = list
	h.mu.Unlock()
	return list, nil
}

// Reset drops the cache; the migrate CLI calls it after applying units so a
// long-lived process embedding both does not serve stale lists.
func (h *SchemaHelper) Reset() {
	h.mu.Lock()
	h.cached = make(map[string]string)
	h.mu.Unlock()
}
