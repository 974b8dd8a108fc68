package units

// Global tables: plans, roles, companies, users. These are not
// tenant-scoped; companies is the tenant registry itself.

var createPlans = createTable("001_create_plans", "plans", `
	CREATE TABLE plans (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		nome TEXT NOT NULL UNIQUE,
		prezzo_mensile NUMERIC(8,2) NOT NULL DEFAULT 0,
		max_utenti INTEGER NOT NULL DEFAULT 5,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`)

var createRoles = createTable("002_create_roles", "roles", `
	CREATE TABLE roles (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name TEXT NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`)

var createCompanies = createTable("003_create_companies", "companies", `
	CREATE TABLE companies (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		slug TEXT NOT NULL UNIQUE,
		nome TEXT NOT NULL,
		email_fatturazione TEXT,
		plan_id UUID REFERENCES plans(id),
		dimensione TEXT,
		settore TEXT,
		paese TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`)

var createUsers = createTable("004_create_users", "users", `
	CREATE TABLE users (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		company_id UUID NOT NULL REFERENCES companies(id),
		email TEXT NOT NULL UNIQUE,
		nome TEXT,
		cognome TEXT,
		role_id UUID REFERENCES roles(id),
		status TEXT NOT NULL DEFAULT 'active'
			CHECK (status IN ('active', 'deleted')),
		last_login_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`)
