package units

// Shared business tables. Every one carries company_id (never null, never
// user-settable on update), audit columns and a stato check constraint.
// Row isolation is enforced by the tenant facade, not by per-tenant DDL.

var createClienti = createTable("005_create_clienti", "clienti", `
	CREATE TABLE clienti (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		company_id UUID NOT NULL REFERENCES companies(id),
		ragione_sociale TEXT NOT NULL,
		partita_iva TEXT,
		codice_fiscale TEXT,
		email TEXT,
		telefono TEXT,
		indirizzo TEXT,
		stato TEXT NOT NULL DEFAULT 'attivo'
			CHECK (stato IN ('attivo', 'archiviato')),
		created_by UUID REFERENCES users(id),
		updated_by UUID REFERENCES users(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`)

var createFornitori = createTable("006_create_fornitori", "fornitori", `
	CREATE TABLE fornitori (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		company_id UUID NOT NULL REFERENCES companies(id),
		ragione_sociale TEXT NOT NULL,
		partita_iva TEXT,
		email TEXT,
		telefono TEXT,
		indirizzo TEXT,
		stato TEXT NOT NULL DEFAULT 'attivo'
			CHECK (stato IN ('attivo', 'archiviato')),
		created_by UUID REFERENCES users(id),
		updated_by UUID REFERENCES users(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`)

var createCommesse = createTable("007_create_commesse", "commesse", `
	CREATE TABLE commesse (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		company_id UUID NOT NULL REFERENCES companies(id),
		codice TEXT NOT NULL,
		titolo TEXT NOT NULL,
		descrizione TEXT,
		cliente_id UUID REFERENCES clienti(id),
		data_inizio DATE,
		data_fine DATE,
		importo NUMERIC(12,2),
		stato TEXT NOT NULL DEFAULT 'aperta',
		created_by UUID REFERENCES users(id),
		updated_by UUID REFERENCES users(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (company_id, codice)
	)`)

var createRapportini = createTable("008_create_rapportini", "rapportini", `
	CREATE TABLE rapportini (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		company_id UUID NOT NULL REFERENCES companies(id),
		commessa_id UUID REFERENCES commesse(id),
		data DATE NOT NULL,
		ore INTEGER NOT NULL DEFAULT 0,
		note TEXT,
		stato TEXT NOT NULL DEFAULT 'bozza'
			CHECK (stato IN ('bozza', 'inviato', 'approvato')),
		created_by UUID REFERENCES users(id),
		updated_by UUID REFERENCES users(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`)

var createEntrate = createTable("009_create_entrate", "entrate", `
	CREATE TABLE entrate (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		company_id UUID NOT NULL REFERENCES companies(id),
		numero_fattura TEXT NOT NULL,
		cliente_id UUID REFERENCES clienti(id),
		commessa_id UUID REFERENCES commesse(id),
		importo NUMERIC(12,2) NOT NULL,
		iva NUMERIC(5,2),
		data_emissione DATE,
		data_incasso DATE,
		stato TEXT NOT NULL DEFAULT 'emessa'
			CHECK (stato IN ('emessa', 'incassata', 'stornata')),
		created_by UUID REFERENCES users(id),
		updated_by UUID REFERENCES users(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`)

var createUscite = createTable("010_create_uscite", "uscite", `
	CREATE TABLE uscite (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		company_id UUID NOT NULL REFERENCES companies(id),
		fornitore_id UUID REFERENCES fornitori(id),
		descrizione TEXT,
		importo NUMERIC(12,2) NOT NULL,
		data_pagamento DATE,
		stato TEXT NOT NULL DEFAULT 'da_pagare'
			CHECK (stato IN ('da_pagare', 'pagata')),
		created_by UUID REFERENCES users(id),
		updated_by UUID REFERENCES users(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`)

var createDocuments = createTable("011_create_documents", "documents", `
	CREATE TABLE documents (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		company_id UUID NOT NULL REFERENCES companies(id),
		entity_type TEXT NOT NULL,
		entity_id UUID,
		file_name TEXT NOT NULL,
		file_path TEXT NOT NULL,
		mime_type TEXT,
		size_bytes BIGINT,
		stato TEXT NOT NULL DEFAULT 'caricato'
			CHECK (stato IN ('caricato', 'eliminato')),
		created_by UUID REFERENCES users(id),
		updated_by UUID REFERENCES users(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`)
