// Package store is the SQLite data access layer for the code-graph index.
// The database always lives in memory: the index is derived state,
// rebuildable from the working tree, and never written to disk.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store indexes files, symbols, imports, and references.
type Store struct {
	db *sql.DB
}

// NewStore opens a fresh in-memory database.
func NewStore() (*Store, error) {
	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// An in-memory database exists per connection; pooling would silently
	// split the index across empty databases.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database, discarding the index.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for ad-hoc queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates all tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	if _, err := s.db.Exec(schemaDDL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Reset drops and recreates every table; used when a checkout replaces
// the whole working tree.
func (s *Store) Reset() error {
	for _, table := range []string{"refs", "imports", "symbols", "files"} {
		if _, err := s.db.Exec("DROP TABLE IF EXISTS " + table); err != nil {
			return fmt.Errorf("reset: drop %s: %w", table, err)
		}
	}
	return s.Migrate()
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS files (
  id            INTEGER PRIMARY KEY,
  path          TEXT NOT NULL UNIQUE,
  language      TEXT NOT NULL,
  hash          TEXT,
  line_count    INTEGER,
  last_indexed  TIMESTAMP
);

CREATE TABLE IF NOT EXISTS symbols (
  id               INTEGER PRIMARY KEY,
  file_id          INTEGER NOT NULL REFERENCES files(id),
  name             TEXT NOT NULL,
  kind             TEXT NOT NULL,
  exported         BOOLEAN DEFAULT FALSE,
  span_start       INTEGER,
  span_end         INTEGER,
  name_start       INTEGER,
  name_end         INTEGER,
  parent_symbol_id INTEGER REFERENCES symbols(id),
  recv             TEXT,
  extended         TEXT
);

CREATE TABLE IF NOT EXISTS imports (
  id            INTEGER PRIMARY KEY,
  symbol_id     INTEGER NOT NULL REFERENCES symbols(id),
  file_id       INTEGER NOT NULL REFERENCES files(id),
  module        TEXT NOT NULL,
  module_start  INTEGER,
  module_end    INTEGER,
  imported_name TEXT,
  name_start    INTEGER,
  name_end      INTEGER,
  local_alias   TEXT,
  kind          TEXT DEFAULT 'module',
  reexported    BOOLEAN DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS refs (
  id        INTEGER PRIMARY KEY,
  file_id   INTEGER NOT NULL REFERENCES files(id),
  name      TEXT NOT NULL,
  qualifier TEXT,
  context   TEXT,
  span_start INTEGER,
  span_end   INTEGER
);

CREATE INDEX IF NOT EXISTS idx_files_language ON files(language);
CREATE INDEX IF NOT EXISTS idx_symbols_file ON symbols(file_id);
CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(name);
CREATE INDEX IF NOT EXISTS idx_symbols_kind ON symbols(kind);
CREATE INDEX IF NOT EXISTS idx_symbols_parent ON symbols(parent_symbol_id);
CREATE INDEX IF NOT EXISTS idx_imports_file ON imports(file_id);
CREATE INDEX IF NOT EXISTS idx_imports_module ON imports(module);
CREATE INDEX IF NOT EXISTS idx_imports_symbol ON imports(symbol_id);
CREATE INDEX IF NOT EXISTS idx_refs_file ON refs(file_id);
CREATE INDEX IF NOT EXISTS idx_refs_name ON refs(name);
`

// DeleteFileData removes all index rows for a file, including the file
// row itself. Deletes in reverse-dependency order.
func (s *Store) DeleteFileData(fileID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, q := range []string{
		"DELETE FROM refs WHERE file_id = ?",
		"DELETE FROM imports WHERE file_id = ?",
		"DELETE FROM symbols WHERE file_id = ?",
		"DELETE FROM files WHERE id = ?",
	} {
		if _, err := tx.Exec(q, fileID); err != nil {
			return fmt.Errorf("delete file data: %w", err)
		}
	}
	return tx.Commit()
}
