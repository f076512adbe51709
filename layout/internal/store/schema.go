// CLAUDE:SUMMARY Applies the layout-memory SQL schema: field_stats, pattern_cache, result_cache.
package store

import "database/sql"

// Schema is the complete layout-memory schema.
const Schema = `
-- Per-(label, field) running position statistics (Welford accumulators)
CREATE TABLE IF NOT EXISTS field_stats (
    label   TEXT NOT NULL,
    field   TEXT NOT NULL,
    n       INTEGER NOT NULL DEFAULT 0,
    mean_px REAL NOT NULL DEFAULT 0,
    mean_py REAL NOT NULL DEFAULT 0,
    m2_px   REAL NOT NULL DEFAULT 0,
    m2_py   REAL NOT NULL DEFAULT 0,
    PRIMARY KEY (label, field)
);

-- Per-(label, field) extraction pattern, last write wins
CREATE TABLE IF NOT EXISTS pattern_cache (
    label   TEXT NOT NULL,
    field   TEXT NOT NULL,
    pattern TEXT NOT NULL,
    PRIMARY KEY (label, field)
);

-- Whole-document results keyed by content fingerprint, no expiry
CREATE TABLE IF NOT EXISTS result_cache (
    fingerprint TEXT PRIMARY KEY,
    label       TEXT NOT NULL DEFAULT '',
    result_json TEXT NOT NULL,
    created_at  INTEGER NOT NULL
);
`

// ApplySchema creates the layout-memory tables if they do not exist.
func ApplySchema(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}
