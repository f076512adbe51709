package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// ResultEntry is one cached whole-document extraction result.
type ResultEntry struct {
	Fingerprint string
	Label       string
	ResultJSON  string
	CreatedAt   int64
}

// GetResult retrieves a cached result by fingerprint.
// Returns (nil, nil) on a cache miss.
func (s *Store) GetResult(ctx context.Context, fingerprint string) (*ResultEntry, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT fingerprint, label, result_json, created_at
		FROM result_cache WHERE fingerprint = ?`, fingerprint)

	var e ResultEntry
	err := row.Scan(&e.Fingerprint, &e.Label, &e.ResultJSON, &e.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan result entry: %w", err)
	}
	return &e, nil
}

// PutResult upserts a cached result. On conflict only result_json is
// replaced; the original label and created_at stay.
func (s *Store) PutResult(ctx context.Context, fingerprint, label, resultJSON string) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO result_cache (fingerprint, label, result_json, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(fingerprint) DO UPDATE SET result_json = excluded.result_json`,
		fingerprint, label, resultJSON, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("put result %s: %w", fingerprint, err)
	}
	return nil
}
