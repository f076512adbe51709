package store

import (
	"context"
	"database/sql"
	"fmt"
)

// GetPattern retrieves the stored extraction pattern for a (label, field)
// pair. Returns "" when none is stored; empty patterns are never persisted,
// so the empty string unambiguously means absent.
func (s *Store) GetPattern(ctx context.Context, label, field string) (string, error) {
	var pattern string
	err := s.DB.QueryRowContext(ctx,
		`SELECT pattern FROM pattern_cache WHERE label = ? AND field = ?`,
		label, field).Scan(&pattern)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("scan pattern: %w", err)
	}
	return pattern, nil
}

// PutPattern upserts the extraction pattern for a (label, field) pair.
// Last write wins. Empty patterns are ignored. No syntax validation here:
// patterns are validated when applied.
func (s *Store) PutPattern(ctx context.Context, label, field, pattern string) error {
	if pattern == "" {
		return nil
	}
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO pattern_cache (label, field, pattern)
		VALUES (?, ?, ?)
		ON CONFLICT(label, field) DO UPDATE SET pattern = excluded.pattern`,
		label, field, pattern)
	if err != nil {
		return fmt.Errorf("put pattern %s/%s: %w", label, field, err)
	}
	return nil
}
