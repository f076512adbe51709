// CLAUDE:SUMMARY Field position statistics: atomic single-statement Welford upsert, point and list reads.
package store

import (
	"context"
	"database/sql"
	"fmt"
)

// FieldStat is one row of running position statistics for a (label, field)
// pair. MeanPX/MeanPY are running means of the block-center coordinates;
// M2PX/M2PY are Welford sums of squared deviations.
type FieldStat struct {
	Label  string
	Field  string
	N      int64
	MeanPX float64
	MeanPY float64
	M2PX   float64
	M2PY   float64
}

// Observe folds one block-center observation into the stored statistics.
//
// The whole Welford step runs inside a single upsert: the DO UPDATE
// expressions are evaluated against the pre-update row, so concurrent
// observers for the same (label, field) serialize on the statement instead
// of racing a read-modify-write.
func (s *Store) Observe(ctx context.Context, label, field string, px, py float64) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO field_stats (label, field, n, mean_px, mean_py, m2_px, m2_py)
		VALUES (?1, ?2, 1, ?3, ?4, 0, 0)
		ON CONFLICT(label, field) DO UPDATE SET
			n       = n + 1,
			mean_px = mean_px + (?3 - mean_px) / (n + 1),
			mean_py = mean_py + (?4 - mean_py) / (n + 1),
			m2_px   = m2_px + (?3 - mean_px) * (?3 - (mean_px + (?3 - mean_px) / (n + 1))),
			m2_py   = m2_py + (?4 - mean_py) * (?4 - (mean_py + (?4 - mean_py) / (n + 1)))`,
		label, field, px, py)
	if err != nil {
		return fmt.Errorf("observe %s/%s: %w", label, field, err)
	}
	return nil
}

// GetFieldStat retrieves the statistics for a (label, field) pair.
// Returns (nil, nil) when no observation has been recorded yet.
func (s *Store) GetFieldStat(ctx context.Context, label, field string) (*FieldStat, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT label, field, n, mean_px, mean_py, m2_px, m2_py
		FROM field_stats WHERE label = ? AND field = ?`, label, field)

	var fs FieldStat
	err := row.Scan(&fs.Label, &fs.Field, &fs.N, &fs.MeanPX, &fs.MeanPY, &fs.M2PX, &fs.M2PY)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan field stat: %w", err)
	}
	return &fs, nil
}

// ListFieldStats returns all learned field statistics for a label,
// ordered by field name.
func (s *Store) ListFieldStats(ctx context.Context, label string) ([]*FieldStat, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT label, field, n, mean_px, mean_py, m2_px, m2_py
		FROM field_stats WHERE label = ? ORDER BY field`, label)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*FieldStat
	for rows.Next() {
		var fs FieldStat
		if err := rows.Scan(&fs.Label, &fs.Field, &fs.N, &fs.MeanPX, &fs.MeanPY, &fs.M2PX, &fs.M2PY); err != nil {
			return nil, fmt.Errorf("scan field stat: %w", err)
		}
		result = append(result, &fs)
	}
	return result, rows.Err()
}
