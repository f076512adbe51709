package observability

import (
	"context"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/gabarit/dbopen"
)

func newTestRecorder(t *testing.T) *Recorder {
	t.Helper()
	db := dbopen.OpenMemory(t)
	r, err := NewRecorder(db)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	return r
}

func TestRecordAndSummary(t *testing.T) {
	r := newTestRecorder(t)
	ctx := context.Background()

	r.Record(ctx, ExtractionEvent{
		Label: "invoice", Fingerprint: "fp-1", CacheHit: true,
		Duration: 3 * time.Millisecond,
	})
	r.Record(ctx, ExtractionEvent{
		Label: "invoice", Fingerprint: "fp-2",
		ResolvedCount: 2, FallbackCount: 1, Duration: 900 * time.Millisecond,
	})
	r.Record(ctx, ExtractionEvent{Label: "receipt", Fingerprint: "fp-3"})

	s, err := r.Summary(ctx, "invoice")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if s.Requests != 2 || s.CacheHits != 1 {
		t.Errorf("requests=%d cache_hits=%d, want 2/1", s.Requests, s.CacheHits)
	}
	if s.ResolvedTotal != 2 || s.FallbackTotal != 1 {
		t.Errorf("resolved=%d fallback=%d, want 2/1", s.ResolvedTotal, s.FallbackTotal)
	}
	if s.AvgDurationMs <= 0 {
		t.Errorf("avg duration = %v, want > 0", s.AvgDurationMs)
	}
}

func TestSummary_EmptyLabel(t *testing.T) {
	r := newTestRecorder(t)
	s, err := r.Summary(context.Background(), "unseen")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if s.Requests != 0 {
		t.Errorf("requests = %d, want 0", s.Requests)
	}
}

func TestRecord_DefaultTransport(t *testing.T) {
	r := newTestRecorder(t)
	ctx := context.Background()
	r.Record(ctx, ExtractionEvent{Label: "invoice", Fingerprint: "fp"})

	var transport string
	if err := r.db.QueryRow(`SELECT transport FROM extraction_events`).Scan(&transport); err != nil {
		t.Fatal(err)
	}
	if transport != "http" {
		t.Errorf("transport = %q, want http", transport)
	}
}

func TestCleanup(t *testing.T) {
	// WHAT: Events past the retention window are deleted, recent ones kept.
	r := newTestRecorder(t)
	ctx := context.Background()

	old := time.Now().Unix() - 10*86400
	if _, err := r.db.Exec(`
		INSERT INTO extraction_events (event_id, label, fingerprint, created_at)
		VALUES ('evt_old', 'invoice', 'fp-old', ?)`, old); err != nil {
		t.Fatal(err)
	}
	r.Record(ctx, ExtractionEvent{Label: "invoice", Fingerprint: "fp-new"})

	if err := Cleanup(ctx, r.db, 7); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM extraction_events`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("rows = %d, want 1 after cleanup", count)
	}
}
