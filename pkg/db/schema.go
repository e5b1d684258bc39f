package db

import "fmt"

// schemaVersion is stored in PRAGMA user_version once the tables exist.
const schemaVersion = 1

const schema = `
-- Performance and reliability settings
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA foreign_keys = ON;
PRAGMA temp_store = MEMORY;

-- Branches: every branch page ever discovered, keyed by its URL
CREATE TABLE IF NOT EXISTS branches (
    branch_id INTEGER PRIMARY KEY AUTOINCREMENT,
    url TEXT NOT NULL UNIQUE,
    domain TEXT NOT NULL,
    path TEXT,
    title TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_branches_domain ON branches(domain);

-- Runs: one row per harvest invocation
CREATE TABLE IF NOT EXISTS runs (
    run_id INTEGER PRIMARY KEY AUTOINCREMENT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    finished_at TIMESTAMP,
    company TEXT NOT NULL,
    city TEXT NOT NULL,
    max_branches INTEGER NOT NULL,
    max_reviews INTEGER NOT NULL,
    status TEXT NOT NULL DEFAULT 'running',  -- running, complete, partial, empty, failed
    branch_count INTEGER DEFAULT 0,
    skipped_count INTEGER DEFAULT 0,
    review_count INTEGER DEFAULT 0,
    run_dir TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
CREATE INDEX IF NOT EXISTS idx_runs_company ON runs(company, city);

-- Run branches: per-run outcome of each discovered branch, in discovery order
CREATE TABLE IF NOT EXISTS run_branches (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id INTEGER NOT NULL,
    branch_id INTEGER NOT NULL,
    position INTEGER NOT NULL,
    status TEXT NOT NULL,          -- done, skipped
    reason TEXT,
    stop_reason TEXT,              -- cap, stall, extent, error
    attempts INTEGER DEFAULT 0,
    fragments INTEGER DEFAULT 0,
    records INTEGER DEFAULT 0,
    malformed INTEGER DEFAULT 0,
    duplicates INTEGER DEFAULT 0,
    snapshot_path TEXT,
    snapshot_hash TEXT,
    FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE,
    FOREIGN KEY (branch_id) REFERENCES branches(branch_id) ON DELETE CASCADE,
    UNIQUE(run_id, position)
);

CREATE INDEX IF NOT EXISTS idx_run_branches_run ON run_branches(run_id);

-- Reviews: extracted records; seq preserves corpus order within a run
CREATE TABLE IF NOT EXISTS reviews (
    review_id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id INTEGER NOT NULL,
    branch_id INTEGER NOT NULL,
    seq INTEGER NOT NULL,
    author TEXT NOT NULL,
    rating REAL NOT NULL,
    review_date TEXT,
    body TEXT,
    company_response TEXT,
    feature_tags TEXT,   -- JSON array, in source order
    keywords TEXT,       -- JSON array, sorted
    sentiment REAL NOT NULL,
    FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE,
    FOREIGN KEY (branch_id) REFERENCES branches(branch_id) ON DELETE CASCADE,
    UNIQUE(run_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_reviews_run ON reviews(run_id);
CREATE INDEX IF NOT EXISTS idx_reviews_branch ON reviews(branch_id);
`

// migrate creates the tables of a fresh database and enables foreign keys
// on an existing one.
func (db *DB) migrate() error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	if version >= schemaVersion {
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			return fmt.Errorf("failed to enable foreign keys: %w", err)
		}
		return nil
	}

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	return nil
}
