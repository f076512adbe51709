package layout

import (
	"context"
	"database/sql"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/hazyhaar/gabarit/layout/internal/store"
)

// Memory is the layout-memory engine. It wraps the persistent store with
// per-key read-through LRU caches for statistics and patterns; writes
// invalidate only the key they touch, so unrelated fields keep their cached
// reads across updates.
type Memory struct {
	cfg      Config
	store    *store.Store
	stats    *lru.Cache[statKey, *store.FieldStat]
	patterns *lru.Cache[statKey, string]
}

type statKey struct {
	label string
	field string
}

// New builds a Memory on top of db, applying the engine's schema.
func New(db *sql.DB, cfg Config) (*Memory, error) {
	cfg.defaults()
	if err := store.ApplySchema(db); err != nil {
		return nil, fmt.Errorf("layout schema: %w", err)
	}
	stats, err := lru.New[statKey, *store.FieldStat](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("stats cache: %w", err)
	}
	patterns, err := lru.New[statKey, string](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("pattern cache: %w", err)
	}
	return &Memory{
		cfg:      cfg,
		store:    store.NewStore(db),
		stats:    stats,
		patterns: patterns,
	}, nil
}

// Observe records one (px, py) observation for a field and invalidates the
// cached statistics for that key only.
func (m *Memory) Observe(ctx context.Context, label, field string, px, py float64) error {
	if err := m.store.Observe(ctx, label, field, px, py); err != nil {
		return err
	}
	m.stats.Remove(statKey{label, field})
	return nil
}

// fieldStat is the read-through path for statistics. Absence is cached too
// (as a nil entry), so repeated lookups of unseen fields stay cheap.
func (m *Memory) fieldStat(ctx context.Context, label, field string) (*store.FieldStat, error) {
	key := statKey{label, field}
	if fs, ok := m.stats.Get(key); ok {
		return fs, nil
	}
	fs, err := m.store.GetFieldStat(ctx, label, field)
	if err != nil {
		return nil, err
	}
	m.stats.Add(key, fs)
	return fs, nil
}

// FieldStats returns the raw stored statistics for a label, for inspection.
func (m *Memory) FieldStats(ctx context.Context, label string) ([]*store.FieldStat, error) {
	return m.store.ListFieldStats(ctx, label)
}

// LearnPattern stores an extraction pattern for a field, last write wins.
// Empty patterns are ignored.
func (m *Memory) LearnPattern(ctx context.Context, label, field, pattern string) error {
	if pattern == "" {
		return nil
	}
	if err := m.store.PutPattern(ctx, label, field, pattern); err != nil {
		return err
	}
	m.patterns.Remove(statKey{label, field})
	return nil
}

// Pattern returns the stored pattern for a field, or "" when none exists.
func (m *Memory) Pattern(ctx context.Context, label, field string) (string, error) {
	key := statKey{label, field}
	if p, ok := m.patterns.Get(key); ok {
		return p, nil
	}
	p, err := m.store.GetPattern(ctx, label, field)
	if err != nil {
		return "", err
	}
	m.patterns.Add(key, p)
	return p, nil
}

// CachedResult looks up a previously stored extraction result by the
// fingerprint of (schema, document text). Returns nil on miss.
func (m *Memory) CachedResult(ctx context.Context, docText, schemaCanonical string) (Result, error) {
	fp := Fingerprint(docText, schemaCanonical)
	entry, err := m.store.GetResult(ctx, fp)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, nil
	}
	var res Result
	if err := decodeResult(entry.ResultJSON, &res); err != nil {
		return nil, fmt.Errorf("cached result %s: %w", fp, err)
	}
	return res, nil
}

// StoreResult caches a final extraction result under the fingerprint of
// (schema, document text). Overwrites any previous entry.
func (m *Memory) StoreResult(ctx context.Context, docText, schemaCanonical, label string, res Result) error {
	fp := Fingerprint(docText, schemaCanonical)
	raw, err := encodeResult(res)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return m.store.PutResult(ctx, fp, label, raw)
}
