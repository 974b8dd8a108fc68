// Package tenant resolves the request's company and exposes the scoped data
// facade: generic CRUD against an explicit allowlist of shared tables, with
// the company id injected and enforced on every statement.
package tenant

// Table identifiers are interpolated into SQL, so they come exclusively
// from this compile-time allowlist, never from user input. Values are
// always bound parameters.
var allowedTables = map[string]struct{}{
	"commesse":   {},
	"rapportini": {},
	"entrate":    {},
	"uscite":     {},
	"clienti":    {},
	"fornitori":  {},
	"documents":  {},
}

// writableColumns lists, per table, the columns route code may filter on,
// set on insert, or change on update. id, company_id and the timestamps are
// managed by the facade itself and deliberately absent here.
var writableColumns = map[string]map[string]struct{}{
	"commesse": cols("codice", "titolo", "descrizione", "cliente_id",
		"data_inizio", "data_fine", "importo", "stato", "created_by", "updated_by"),
	"rapportini": cols("commessa_id", "data", "ore", "ore_fatturabili", "note",
		"stato", "created_by", "updated_by"),
	"entrate": cols("numero_fattura", "cliente_id", "commessa_id", "importo",
		"iva", "data_emissione", "data_incasso", "stato", "created_by", "updated_by"),
	"uscite": cols("fornitore_id", "descrizione", "importo", "data_pagamento",
		"stato", "created_by", "updated_by"),
	"clienti": cols("ragione_sociale", "partita_iva", "codice_fiscale", "email",
		"telefono", "indirizzo", "stato", "created_by", "updated_by"),
	"fornitori": cols("ragione_sociale", "partita_iva", "email", "telefono",
		"indirizzo", "stato", "created_by", "updated_by"),
	"documents": cols("entity_type", "entity_id", "file_name", "file_path",
		"mime_type", "size_bytes", "stato", "created_by", "updated_by"),
}

// sortableColumns is the per-table order-by allowlist.
var sortableColumns = map[string]map[string]struct{}{
	"commesse":   cols("created_at", "updated_at", "codice", "titolo", "data_inizio", "importo", "stato"),
	"rapportini": cols("created_at", "updated_at", "data", "ore", "stato"),
	"entrate":    cols("created_at", "updated_at", "numero_fattura", "importo", "data_emissione", "stato"),
	"uscite":     cols("created_at", "updated_at", "importo", "data_pagamento", "stato"),
	"clienti":    cols("created_at", "updated_at", "ragione_sociale", "stato"),
	"fornitori":  cols("created_at", "updated_at", "ragione_sociale", "stato"),
	"documents":  cols("created_at", "updated_at", "file_name", "entity_type"),
}

func cols(names ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(names))
	for _, n := range names {
		m[n] = struct{}{}
	}
	return m
}

// AllowedTables returns the allowlist as a slice, for the legacy
// create-tenant verification path and status output.
func AllowedTables() []string {
	return []string{"commesse", "rapportini", "entrate", "uscite", "clienti", "fornitori", "documents"}
}

func tableAllowed(table string) bool {
	_, ok := allowedTables[table]
	return ok
}
