// Package observability records per-request extraction events so operators
// can see the cache-hit and local-resolution rates that justify the system's
// existence. Recording never blocks or fails the request it describes.
package observability

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/gabarit/idgen"
)

// ExtractionEvent describes one completed extraction request.
type ExtractionEvent struct {
	Label         string
	Fingerprint   string
	Transport     string // "http" or "mcp"
	CacheHit      bool
	ResolvedCount int // fields resolved from layout memory
	FallbackCount int // fields sent to the fallback service
	Duration      time.Duration
}

// Recorder writes extraction events.
type Recorder struct {
	db    *sql.DB
	newID idgen.Generator
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithEventIDGenerator sets a custom ID generator for event IDs.
func WithEventIDGenerator(gen idgen.Generator) RecorderOption {
	return func(r *Recorder) { r.newID = gen }
}

// NewRecorder creates a Recorder and applies its schema.
func NewRecorder(db *sql.DB, opts ...RecorderOption) (*Recorder, error) {
	r := &Recorder{
		db:    db,
		newID: idgen.Prefixed("evt_", idgen.Default),
	}
	for _, o := range opts {
		o(r)
	}
	if err := ApplySchema(db); err != nil {
		return nil, err
	}
	return r, nil
}

// Record writes one event. Non-blocking on failure: errors are logged via
// slog but never propagate, so a failing event store cannot fail an
// extraction that already succeeded.
func (r *Recorder) Record(ctx context.Context, ev ExtractionEvent) {
	if r == nil {
		return
	}
	if ev.Transport == "" {
		ev.Transport = "http"
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO extraction_events (
			event_id, label, fingerprint, transport, cache_hit,
			resolved_count, fallback_count, duration_ms, created_at
		) VALUES (?,?,?,?,?,?,?,?,?)`,
		r.newID(), ev.Label, ev.Fingerprint, ev.Transport, ev.CacheHit,
		ev.ResolvedCount, ev.FallbackCount, ev.Duration.Milliseconds(), time.Now().Unix())
	if err != nil {
		slog.Error("extraction event record failed", "error", err, "label", ev.Label)
	}
}

// LabelSummary aggregates events for one label.
type LabelSummary struct {
	Label         string  `json:"label"`
	Requests      int64   `json:"requests"`
	CacheHits     int64   `json:"cache_hits"`
	ResolvedTotal int64   `json:"resolved_total"`
	FallbackTotal int64   `json:"fallback_total"`
	AvgDurationMs float64 `json:"avg_duration_ms"`
}

// Summary aggregates the event log per label.
func (r *Recorder) Summary(ctx context.Context, label string) (*LabelSummary, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(cache_hit), 0),
		       COALESCE(SUM(resolved_count), 0), COALESCE(SUM(fallback_count), 0),
		       COALESCE(AVG(duration_ms), 0)
		FROM extraction_events WHERE label = ?`, label)
	s := LabelSummary{Label: label}
	if err := row.Scan(&s.Requests, &s.CacheHits, &s.ResolvedTotal, &s.FallbackTotal, &s.AvgDurationMs); err != nil {
		return nil, fmt.Errorf("event summary: %w", err)
	}
	return &s, nil
}

// Cleanup deletes events older than the retention window. Zero days means
// keep everything.
func Cleanup(ctx context.Context, db *sql.DB, retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	cutoff := time.Now().Unix() - int64(retentionDays)*86400
	if _, err := db.ExecContext(ctx, `DELETE FROM extraction_events WHERE created_at < ?`, cutoff); err != nil {
		return fmt.Errorf("event cleanup: %w", err)
	}
	return nil
}
