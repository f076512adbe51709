package layout

import (
	"context"
	"testing"
)

func TestPartition_UnseenLabel(t *testing.T) {
	// WHAT: With an empty store every field is pending and needs a pattern.
	// WHY: This is the cold-start path; nothing may resolve without
	// learned statistics.
	m := newTestMemory(t)
	schema, _ := ParseSchema([]byte(`{"total": "grand total amount"}`))
	blocks := []Block{
		{Text: "Invoice #123", PX: 0.2, PY: 0.1},
		{Text: "Total: 42,00", PX: 0.8, PY: 0.9},
	}

	res, err := m.Partition(context.Background(), "invoice", schema, blocks)
	if err != nil {
		t.Fatalf("partition: %v", err)
	}
	if len(res.Resolved) != 0 {
		t.Errorf("resolved = %v, want empty", res.Resolved)
	}
	p, ok := res.Pending["total"]
	if !ok {
		t.Fatal("total not pending")
	}
	if p.Description != "grand total amount" || !p.NeedsPattern {
		t.Errorf("pending = %+v", p)
	}
	if len(res.Remaining) != 2 {
		t.Errorf("remaining = %v, want both blocks", res.Remaining)
	}
}

func TestPartition_ResolvesFromMemory(t *testing.T) {
	// WHAT: Converged stats plus a stored pattern resolve the field locally
	// and consume the matched block.
	m := newTestMemory(t)
	ctx := context.Background()
	schema, _ := ParseSchema([]byte(`{"total": "grand total amount"}`))

	observeN(t, m, "invoice", "total", 5, 0.8, 0.9)
	if err := m.LearnPattern(ctx, "invoice", "total", `\d+,\d{2}`); err != nil {
		t.Fatalf("learn: %v", err)
	}

	blocks := []Block{
		{Text: "Invoice #123", PX: 0.2, PY: 0.1},
		{Text: "Total: 42,00", PX: 0.8, PY: 0.9},
	}
	res, err := m.Partition(ctx, "invoice", schema, blocks)
	if err != nil {
		t.Fatalf("partition: %v", err)
	}
	if res.Resolved["total"] != "42,00" {
		t.Errorf("resolved total = %q, want 42,00", res.Resolved["total"])
	}
	if _, ok := res.Pending["total"]; ok {
		t.Error("resolved field must not be pending")
	}
	if len(res.Remaining) != 1 || res.Remaining[0] != 0 {
		t.Errorf("remaining = %v, want [0] (matched block consumed)", res.Remaining)
	}
}

func TestPartition_InvalidStoredPattern(t *testing.T) {
	// WHAT: A stored pattern that fails to compile routes the field to
	// pending with needsPattern false.
	// WHY: A pattern record exists even though it is broken; the fallback
	// is asked for a value but not a new pattern.
	m := newTestMemory(t)
	ctx := context.Background()
	schema, _ := ParseSchema([]byte(`{"total": "grand total amount"}`))

	observeN(t, m, "invoice", "total", 5, 0.8, 0.9)
	if err := m.LearnPattern(ctx, "invoice", "total", `(\d+`); err != nil {
		t.Fatalf("learn: %v", err)
	}

	blocks := []Block{{Text: "Total: 42,00", PX: 0.8, PY: 0.9}}
	res, err := m.Partition(ctx, "invoice", schema, blocks)
	if err != nil {
		t.Fatalf("partition: %v", err)
	}
	p, ok := res.Pending["total"]
	if !ok {
		t.Fatal("field should degrade to pending")
	}
	if p.NeedsPattern {
		t.Error("needsPattern should be false: a pattern record exists")
	}
}

func TestPartition_PatternNoMatchKeepsPattern(t *testing.T) {
	// WHAT: A valid pattern that simply does not match this document still
	// sets needsPattern false.
	m := newTestMemory(t)
	ctx := context.Background()
	schema, _ := ParseSchema([]byte(`{"total": "grand total amount"}`))

	observeN(t, m, "invoice", "total", 5, 0.8, 0.9)
	m.LearnPattern(ctx, "invoice", "total", `\d+,\d{2}`)

	blocks := []Block{{Text: "Total: pending", PX: 0.8, PY: 0.9}}
	res, err := m.Partition(ctx, "invoice", schema, blocks)
	if err != nil {
		t.Fatalf("partition: %v", err)
	}
	p, ok := res.Pending["total"]
	if !ok || p.NeedsPattern {
		t.Errorf("pending = %+v (ok=%v), want pending with needsPattern=false", p, ok)
	}
	if len(res.Remaining) != 1 {
		t.Errorf("unmatched block must stay in the pool, remaining = %v", res.Remaining)
	}
}

func TestPartition_Totality(t *testing.T) {
	// WHAT: Every schema field lands in exactly one of resolved or pending.
	m := newTestMemory(t)
	ctx := context.Background()
	schema, _ := ParseSchema([]byte(`{"total": "amount", "date": "issue date", "vendor": "company name"}`))

	observeN(t, m, "invoice", "total", 5, 0.8, 0.9)
	m.LearnPattern(ctx, "invoice", "total", `\d+,\d{2}`)

	blocks := []Block{
		{Text: "ACME Corp", PX: 0.2, PY: 0.05},
		{Text: "Total: 42,00", PX: 0.8, PY: 0.9},
	}
	res, err := m.Partition(ctx, "invoice", schema, blocks)
	if err != nil {
		t.Fatalf("partition: %v", err)
	}
	for _, f := range schema {
		_, inResolved := res.Resolved[f.Name]
		_, inPending := res.Pending[f.Name]
		if inResolved == inPending {
			t.Errorf("field %s: resolved=%v pending=%v, want exactly one", f.Name, inResolved, inPending)
		}
	}
	if len(res.Resolved)+len(res.Pending) != len(schema) {
		t.Errorf("partition sizes %d+%d != %d", len(res.Resolved), len(res.Pending), len(schema))
	}
}

func TestPartition_BlockConsumedOnce(t *testing.T) {
	// WHAT: A block attributed to one field is not offered to a later field
	// whose interval also covers it.
	// WHY: Resource-contention rule; the consumed set replaces mid-iteration
	// pool mutation.
	m := newTestMemory(t)
	ctx := context.Background()
	schema, _ := ParseSchema([]byte(`{"amount_a": "first amount", "amount_b": "second amount"}`))

	// Both fields converge on the same zone; both have patterns.
	observeN(t, m, "invoice", "amount_a", 5, 0.5, 0.5)
	observeN(t, m, "invoice", "amount_b", 5, 0.5, 0.5)
	m.LearnPattern(ctx, "invoice", "amount_a", `\d+,\d{2}`)
	m.LearnPattern(ctx, "invoice", "amount_b", `\d+,\d{2}`)

	blocks := []Block{
		{Text: "10,00", PX: 0.5, PY: 0.5},
		{Text: "20,00", PX: 0.5, PY: 0.5},
	}
	res, err := m.Partition(ctx, "invoice", schema, blocks)
	if err != nil {
		t.Fatalf("partition: %v", err)
	}
	// Schema order is alphabetical: amount_a takes the first block in
	// reading order, amount_b the second.
	if res.Resolved["amount_a"] != "10,00" || res.Resolved["amount_b"] != "20,00" {
		t.Errorf("resolved = %v", res.Resolved)
	}
	if len(res.Remaining) != 0 {
		t.Errorf("remaining = %v, want empty", res.Remaining)
	}
}

func TestFindCandidate(t *testing.T) {
	blocks := []Block{
		{Text: "a", PX: 0.1, PY: 0.1},
		{Text: "b", PX: 0.5, PY: 0.5},
		{Text: "c", PX: 0.5, PY: 0.5},
	}
	ci := &ConfidenceInterval{
		PXLow: 0.4, PXHigh: 0.6, PYLow: 0.4, PYHigh: 0.6,
		Significance: SignificanceHigh,
	}

	if got := findCandidate(nil, blocks, map[int]bool{}); got != -1 {
		t.Errorf("nil interval: got %d, want -1", got)
	}
	low := *ci
	low.Significance = SignificanceLow
	if got := findCandidate(&low, blocks, map[int]bool{}); got != -1 {
		t.Errorf("low significance: got %d, want -1", got)
	}
	if got := findCandidate(ci, blocks, map[int]bool{}); got != 1 {
		t.Errorf("first in reading order: got %d, want 1", got)
	}
	if got := findCandidate(ci, blocks, map[int]bool{1: true}); got != 2 {
		t.Errorf("consumed skipped: got %d, want 2", got)
	}
	// Inclusive bounds: a center exactly on the edge qualifies.
	edge := []Block{{Text: "e", PX: 0.4, PY: 0.6}}
	if got := findCandidate(ci, edge, map[int]bool{}); got != 0 {
		t.Errorf("edge center: got %d, want 0", got)
	}
}
