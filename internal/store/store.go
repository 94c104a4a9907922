// Package store owns the relational store for extracted financial
// facts: one documents table plus one table per statement category.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite data access layer.
type Store struct {
	db *sql.DB
}

// Open opens a SQLite database at dbPath with foreign-key enforcement
// turned on. The schema is not touched; call Init or Reset.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for query layers.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Init creates all tables. Idempotent.
func (s *Store) Init() error {
	if _, err := s.db.Exec(schemaDDL); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// Reset drops all fact tables and recreates them. Each pipeline run
// starts from an empty store; incremental runs are not supported.
func (s *Store) Reset() error {
	// Children first to respect FK constraints.
	for _, table := range []string{"income_statements", "balance_sheets", "cash_flows", "documents"} {
		if _, err := s.db.Exec("DROP TABLE IF EXISTS " + table); err != nil {
			return fmt.Errorf("drop %s: %w", table, err)
		}
	}
	return s.Init()
}

// fiscal_year is free text, ordered lexicographically by the analytics
// queries; the contract does not guarantee numeric-sortable values.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS documents (
  id            INTEGER PRIMARY KEY AUTOINCREMENT,
  company_name  TEXT NOT NULL CHECK (company_name <> ''),
  fiscal_year   TEXT NOT NULL CHECK (fiscal_year <> ''),
  document_type TEXT NOT NULL,
  created_at    TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS income_statements (
  id               INTEGER PRIMARY KEY AUTOINCREMENT,
  document_id      INTEGER NOT NULL REFERENCES documents(id),
  revenue          REAL,
  operating_income REAL,
  net_income       REAL,
  created_at       TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS balance_sheets (
  id                INTEGER PRIMARY KEY AUTOINCREMENT,
  document_id       INTEGER NOT NULL REFERENCES documents(id),
  total_assets      REAL,
  total_liabilities REAL,
  total_equity      REAL,
  created_at        TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS cash_flows (
  id                  INTEGER PRIMARY KEY AUTOINCREMENT,
  document_id         INTEGER NOT NULL REFERENCES documents(id),
  operating_cash_flow REAL,
  investing_cash_flow REAL,
  financing_cash_flow REAL,
  created_at          TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_income_statements_document ON income_statements(document_id);
CREATE INDEX IF NOT EXISTS idx_balance_sheets_document ON balance_sheets(document_id);
CREATE INDEX IF NOT EXISTS idx_cash_flows_document ON cash_flows(document_id);
CREATE INDEX IF NOT EXISTS idx_documents_fiscal_year ON documents(fiscal_year);
`
