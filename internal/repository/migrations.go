package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Amounts are stored as TEXT on SQLite so decimals round-trip exactly.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS clients (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    name TEXT NOT NULL,
    document_id TEXT NOT NULL,
    phone TEXT NOT NULL,
    address TEXT NOT NULL DEFAULT '',
    home_location TEXT NOT NULL DEFAULT '',
    home_reference TEXT NOT NULL DEFAULT '',
    work_location TEXT NOT NULL DEFAULT '',
    work_reference TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'active',
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS loans (
    id TEXT PRIMARY KEY,
    client_id TEXT NOT NULL,
    origination_date DATE NOT NULL,
    principal TEXT NOT NULL,
    interest_rate TEXT NOT NULL,
    installment_count INTEGER NOT NULL CHECK (installment_count > 0),
    payment_interval TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'active',
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL,
    FOREIGN KEY (client_id) REFERENCES clients(id) ON DELETE RESTRICT
);

CREATE TABLE IF NOT EXISTS payments (
    id TEXT PRIMARY KEY,
    loan_id TEXT NOT NULL,
    paid_date DATE NOT NULL,
    amount TEXT NOT NULL,
    method TEXT NOT NULL DEFAULT 'cash',
    created_at DATETIME NOT NULL,
    FOREIGN KEY (loan_id) REFERENCES loans(id) ON DELETE RESTRICT
);

CREATE INDEX IF NOT EXISTS idx_clients_owner_id ON clients(owner_id);
CREATE INDEX IF NOT EXISTS idx_loans_client_id ON loans(client_id);
CREATE INDEX IF NOT EXISTS idx_loans_status ON loans(status);
CREATE INDEX IF NOT EXISTS idx_payments_loan_id ON payments(loan_id);
CREATE INDEX IF NOT EXISTS idx_payments_paid_date ON payments(paid_date);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS clients (
    id UUID PRIMARY KEY,
    owner_id UUID NOT NULL,
    name VARCHAR(200) NOT NULL,
    document_id VARCHAR(50) NOT NULL,
    phone VARCHAR(50) NOT NULL,
    address TEXT NOT NULL DEFAULT '',
    home_location TEXT NOT NULL DEFAULT '',
    home_reference TEXT NOT NULL DEFAULT '',
    work_location TEXT NOT NULL DEFAULT '',
    work_reference TEXT NOT NULL DEFAULT '',
    status VARCHAR(20) NOT NULL DEFAULT 'active',
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS loans (
    id UUID PRIMARY KEY,
    client_id UUID NOT NULL REFERENCES clients(id) ON DELETE RESTRICT,
    origination_date DATE NOT NULL,
    principal NUMERIC(18,2) NOT NULL CHECK (principal > 0),
    interest_rate NUMERIC(9,4) NOT NULL CHECK (interest_rate >= 0),
    installment_count INTEGER NOT NULL CHECK (installment_count > 0),
    payment_interval VARCHAR(20) NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'active',
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS payments (
    id UUID PRIMARY KEY,
    loan_id UUID NOT NULL REFERENCES loans(id) ON DELETE RESTRICT,
    paid_date DATE NOT NULL,
    amount NUMERIC(18,2) NOT NULL CHECK (amount > 0),
    method VARCHAR(20) NOT NULL DEFAULT 'cash',
    created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_clients_owner_id ON clients(owner_id);
CREATE INDEX IF NOT EXISTS idx_loans_client_id ON loans(client_id);
CREATE INDEX IF NOT EXISTS idx_loans_status ON loans(status);
CREATE INDEX IF NOT EXISTS idx_payments_loan_id ON payments(loan_id);
CREATE INDEX IF NOT EXISTS idx_payments_paid_date ON payments(paid_date);
`

// Migrate creates the schema for the connected driver. It is safe to run on every start.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	schema := sqliteSchema
	if isPostgres(db) {
		schema = postgresSchema
	}

	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to run migration %q: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
