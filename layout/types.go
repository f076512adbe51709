// Package layout is the layout-memory engine: it learns, per (label, field)
// pair, where on the page a field's value tends to appear, derives confidence
// intervals from those statistics, and resolves fields locally — by position
// plus a learned extraction pattern — before anything is sent to the
// generative fallback. Results for whole documents are cached by content
// fingerprint so identical resubmissions cost nothing.
package layout

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Block is a contiguous span of document text with its normalized center
// coordinates, as produced by the document reader. PX and PY are in [0,1]
// relative to the page: PX grows rightward, PY grows downward.
type Block struct {
	Text string  `json:"text"`
	PX   float64 `json:"px"`
	PY   float64 `json:"py"`
}

// Field is one entry of an extraction schema.
type Field struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Schema is an ordered list of fields to extract. Order is iteration order
// for partitioning, which matters because blocks are consumed first-come.
type Schema []Field

// ParseSchema decodes a JSON object of {"field": "description"} pairs into a
// Schema sorted by field name, so the same schema always produces the same
// iteration order and the same canonical form.
func ParseSchema(raw []byte) (Schema, error) {
	var m map[string]string
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	if len(m) == 0 {
		return nil, fmt.Errorf("parse schema: no fields")
	}
	s := make(Schema, 0, len(m))
	for name, desc := range m {
		s = append(s, Field{Name: name, Description: desc})
	}
	sort.Slice(s, func(i, j int) bool { return s[i].Name < s[j].Name })
	return s, nil
}

// Canonical returns the key-sorted JSON serialization of the schema, used as
// the schema half of a result fingerprint. encoding/json sorts map keys, so
// two schemas with the same fields and descriptions always canonicalize
// identically regardless of input ordering.
func (s Schema) Canonical() string {
	m := make(map[string]string, len(s))
	for _, f := range s {
		m[f.Name] = f.Description
	}
	b, _ := json.Marshal(m)
	return string(b)
}

// Significance rates how tightly a field's position is known.
type Significance string

const (
	SignificanceHigh   Significance = "high"
	SignificanceMedium Significance = "medium"
	SignificanceLow    Significance = "low"
)

// ConfidenceInterval is the derived position interval for a field, recomputed
// from the stored statistics on every query.
type ConfidenceInterval struct {
	PXLow        float64      `json:"px_low"`
	PXHigh       float64      `json:"px_high"`
	PYLow        float64      `json:"py_low"`
	PYHigh       float64      `json:"py_high"`
	N            int64        `json:"n"`
	Width        float64      `json:"width"`
	Height       float64      `json:"height"`
	Significance Significance `json:"significance"`
}

// Contains reports whether a block center falls inside the interval.
// Bounds are inclusive.
func (ci *ConfidenceInterval) Contains(px, py float64) bool {
	return px >= ci.PXLow && px <= ci.PXHigh && py >= ci.PYLow && py <= ci.PYHigh
}

// PendingField describes a field the memory could not resolve and that must
// be sent to the fallback service. NeedsPattern is true only when no pattern
// is stored at all; a stored pattern that failed to match or compile leaves
// it false.
type PendingField struct {
	Description  string `json:"description"`
	NeedsPattern bool   `json:"needs_pattern"`
}

// PartitionResult splits a schema into fields resolved from memory and
// fields still pending. Resolved and Pending together cover the schema
// exactly. Remaining holds the indices (into the original block slice) of
// blocks not consumed by a resolved field, in reading order; the fallback
// prompt is built from these and its block references map back through them.
type PartitionResult struct {
	Resolved  map[string]string       `json:"resolved"`
	Pending   map[string]PendingField `json:"pending"`
	Remaining []int                   `json:"remaining"`
}

// Result is a final extraction output: field name to extracted value, with
// nil for fields the document did not yield.
type Result map[string]*string
