package observability

import (
	"database/sql"
	"fmt"
)

// Schema holds the extraction event log. One row per extraction request,
// whether served from cache, from layout memory, or via fallback.
const Schema = `
CREATE TABLE IF NOT EXISTS extraction_events (
    event_id       TEXT PRIMARY KEY,
    label          TEXT NOT NULL,
    fingerprint    TEXT NOT NULL,
    transport      TEXT NOT NULL DEFAULT 'http',
    cache_hit      INTEGER NOT NULL DEFAULT 0,
    resolved_count INTEGER NOT NULL DEFAULT 0,
    fallback_count INTEGER NOT NULL DEFAULT 0,
    duration_ms    INTEGER NOT NULL DEFAULT 0,
    created_at     INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_extraction_events_label
    ON extraction_events(label, created_at);
`

// ApplySchema creates the event log tables.
func ApplySchema(db *sql.DB) error {
	if _, err := db.Exec(Schema); err != nil {
		return fmt.Errorf("observability schema: %w", err)
	}
	return nil
}
