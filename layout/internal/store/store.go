// Package store provides the data access layer for learned layout memory.
//
// Three relations, all upsert-by-primary-key: field_stats (position
// statistics), pattern_cache (extraction patterns), result_cache
// (per-document results). The store receives an already-opened *sql.DB
// and never closes it.
package store

import "database/sql"

// Store wraps the gabarit database for layout-memory operations.
type Store struct {
	DB *sql.DB
}

// NewStore creates a Store from an already-opened database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{DB: db}
}
