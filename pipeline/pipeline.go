// CLAUDE:SUMMARY Extraction pipeline: cache lookup, layout-memory partition, fallback call, learning feedback.
// Package pipeline orchestrates one extraction request end to end: parse the
// document, check the result cache, resolve what the layout memory can,
// send the rest to the fallback extractor, feed the answers back into the
// memory, and cache the combined result.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/hazyhaar/gabarit/docpipe"
	"github.com/hazyhaar/gabarit/kit"
	"github.com/hazyhaar/gabarit/layout"
	"github.com/hazyhaar/gabarit/llm"
	"github.com/hazyhaar/gabarit/observability"
)

// Config wires the pipeline's collaborators.
type Config struct {
	Memory    *layout.Memory
	Extractor llm.Extractor // nil disables the fallback path
	Reader    *docpipe.Reader
	Events    *observability.Recorder // nil disables event recording
	Logger    *slog.Logger
}

// Pipeline runs extraction requests.
type Pipeline struct {
	mem       *layout.Memory
	extractor llm.Extractor
	reader    *docpipe.Reader
	events    *observability.Recorder
	logger    *slog.Logger
}

// New builds a Pipeline. Memory and Reader are required.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Memory == nil {
		return nil, fmt.Errorf("pipeline: memory is required")
	}
	if cfg.Reader == nil {
		return nil, fmt.Errorf("pipeline: reader is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	return &Pipeline{
		mem:       cfg.Memory,
		extractor: cfg.Extractor,
		reader:    cfg.Reader,
		events:    cfg.Events,
		logger:    cfg.Logger,
	}, nil
}

// Outcome is the result of one extraction request.
type Outcome struct {
	Result        layout.Result `json:"result"`
	CacheHit      bool          `json:"cache_hit"`
	ResolvedCount int           `json:"resolved_count"`
	FallbackCount int           `json:"fallback_count"`
}

// ExtractPDF runs the full flow on raw PDF bytes.
func (p *Pipeline) ExtractPDF(ctx context.Context, label string, schemaRaw, pdf []byte) (*Outcome, error) {
	schema, err := layout.ParseSchema(schemaRaw)
	if err != nil {
		return nil, err
	}
	doc, err := p.reader.Parse(pdf)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	blocks := make([]layout.Block, len(doc.Blocks))
	for i, b := range doc.Blocks {
		blocks[i] = layout.Block{Text: b.Text, PX: b.PX, PY: b.PY}
	}
	return p.Extract(ctx, label, schema, blocks, doc.RawText)
}

// Extract runs the flow on already-parsed blocks.
func (p *Pipeline) Extract(ctx context.Context, label string, schema layout.Schema, blocks []layout.Block, rawText string) (*Outcome, error) {
	start := time.Now()
	canonical := schema.Canonical()
	fp := layout.Fingerprint(rawText, canonical)

	cached, err := p.mem.CachedResult(ctx, rawText, canonical)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		out := &Outcome{Result: cached, CacheHit: true}
		p.record(ctx, label, fp, out, start)
		return out, nil
	}

	part, err := p.mem.Partition(ctx, label, schema, blocks)
	if err != nil {
		return nil, err
	}

	result := make(layout.Result, len(schema))
	for name, value := range part.Resolved {
		v := value
		result[name] = &v
	}

	if len(part.Pending) > 0 {
		if err := p.fallback(ctx, label, schema, blocks, part, result); err != nil {
			return nil, err
		}
	}

	if err := p.mem.StoreResult(ctx, rawText, canonical, label, result); err != nil {
		return nil, err
	}

	out := &Outcome{
		Result:        result,
		ResolvedCount: len(part.Resolved),
		FallbackCount: len(part.Pending),
	}
	p.record(ctx, label, fp, out, start)
	return out, nil
}

// fallback sends the pending fields to the extractor and feeds each answer
// back into the layout memory: a successful value with a block reference
// becomes a position observation, a returned pattern is learned for next
// time. Fields missing from the model's answer stay nil in the result.
func (p *Pipeline) fallback(ctx context.Context, label string, schema layout.Schema, blocks []layout.Block, part *layout.PartitionResult, result layout.Result) error {
	if p.extractor == nil {
		return fmt.Errorf("fallback extractor not configured and %d fields unresolved", len(part.Pending))
	}

	req := llm.Request{Label: label, Blocks: make([]string, len(part.Remaining))}
	for i, idx := range part.Remaining {
		req.Blocks[i] = blocks[idx].Text
	}
	// Schema order keeps the prompt deterministic.
	for _, f := range schema {
		if pend, ok := part.Pending[f.Name]; ok {
			req.Fields = append(req.Fields, llm.FieldSpec{
				Name:         f.Name,
				Description:  pend.Description,
				NeedsPattern: pend.NeedsPattern,
			})
		}
	}

	resp, err := p.extractor.Extract(ctx, req)
	if err != nil {
		return fmt.Errorf("fallback extract: %w", err)
	}

	for name := range part.Pending {
		fr, ok := resp[name]
		if !ok {
			result[name] = nil
			continue
		}
		result[name] = fr.Value
		if fr.Value != nil && fr.BlockIndex >= 1 && fr.BlockIndex <= len(part.Remaining) {
			b := blocks[part.Remaining[fr.BlockIndex-1]]
			if err := p.mem.Observe(ctx, label, name, b.PX, b.PY); err != nil {
				return err
			}
		} else if fr.Value != nil {
			p.logger.Warn("fallback value without usable block reference",
				"label", label, "field", name, "block", fr.BlockIndex)
		}
		if fr.Pattern != "" {
			if err := p.mem.LearnPattern(ctx, label, name, fr.Pattern); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Pipeline) record(ctx context.Context, label, fp string, out *Outcome, start time.Time) {
	p.events.Record(ctx, observability.ExtractionEvent{
		Label:         label,
		Fingerprint:   fp,
		Transport:     kit.GetTransport(ctx),
		CacheHit:      out.CacheHit,
		ResolvedCount: out.ResolvedCount,
		FallbackCount: out.FallbackCount,
		Duration:      time.Since(start),
	})
}
