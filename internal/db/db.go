package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB holding the manual library.
type DB struct {
	*sql.DB
	path string
}

// Open creates or opens a SQLite database at the given path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	d := &DB{DB: sqlDB, path: path}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return d, nil
}

// OpenMemory creates an in-memory SQLite database (useful for testing).
func OpenMemory() (*DB, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}
	// Every connection to :memory: is a separate database.
	sqlDB.SetMaxOpenConns(1)

	d := &DB{DB: sqlDB, path: ":memory:"}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return d, nil
}

// Path returns the database file path.
func (d *DB) Path() string { return d.path }

// migrate runs all schema migrations.
func (d *DB) migrate() error {
	_, err := d.Exec(schema)
	return err
}

// schema contains the full database schema. New tables are added here.
const schema = `
CREATE TABLE IF NOT EXISTS manuals (
    manual_id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL,
    source_path TEXT UNIQUE NOT NULL,
    language TEXT NOT NULL DEFAULT 'en',
    features TEXT NOT NULL DEFAULT '[]',
    special_features TEXT NOT NULL DEFAULT '[]',
    created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_manuals_title ON manuals(title);

CREATE TABLE IF NOT EXISTS tabs (
    tab_id INTEGER PRIMARY KEY AUTOINCREMENT,
    manual_id INTEGER NOT NULL REFERENCES manuals(manual_id) ON DELETE CASCADE,
    tab_key TEXT NOT NULL,
    title TEXT NOT NULL,
    tab_order INTEGER NOT NULL,
    content_type TEXT NOT NULL CHECK(content_type IN ('list','steps','text'))
);

CREATE INDEX IF NOT EXISTS idx_tabs_manual_order ON tabs(manual_id, tab_order);

CREATE TABLE IF NOT EXISTS tab_content_list (
    item_id INTEGER PRIMARY KEY AUTOINCREMENT,
    tab_id INTEGER NOT NULL REFERENCES tabs(tab_id) ON DELETE CASCADE,
    item_order INTEGER NOT NULL,
    text TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_list_tab_order ON tab_content_list(tab_id, item_order);

CREATE TABLE IF NOT EXISTS tab_content_steps (
    step_id INTEGER PRIMARY KEY AUTOINCREMENT,
    tab_id INTEGER NOT NULL REFERENCES tabs(tab_id) ON DELETE CASCADE,
    step_order INTEGER NOT NULL,
    text TEXT NOT NULL,
    warning TEXT,
    note TEXT
);

CREATE INDEX IF NOT EXISTS idx_steps_tab_order ON tab_content_steps(tab_id, step_order);

CREATE TABLE IF NOT EXISTS tab_content_text (
    text_content_id INTEGER PRIMARY KEY AUTOINCREMENT,
    tab_id INTEGER NOT NULL UNIQUE REFERENCES tabs(tab_id) ON DELETE CASCADE,
    text TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS qa_log (
    id TEXT PRIMARY KEY,
    question TEXT NOT NULL,
    answer TEXT NOT NULL DEFAULT '',
    error TEXT NOT NULL DEFAULT '',
    provider TEXT NOT NULL DEFAULT '',
    context_chars INTEGER NOT NULL DEFAULT 0,
    input_tokens INTEGER NOT NULL DEFAULT 0,
    output_tokens INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_qa_log_created ON qa_log(created_at);
`
