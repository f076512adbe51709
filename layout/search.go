package layout

import (
	"context"
	"regexp"
	"strings"
)

// Partition splits the schema's fields into those resolvable from memory and
// those needing the fallback service. For each field in schema order it
// derives the confidence interval, looks for a candidate block, and applies
// the stored pattern to the candidate's text; only a successful pattern match
// resolves the field and consumes the block. Every schema field lands in
// exactly one of Resolved or Pending.
func (m *Memory) Partition(ctx context.Context, label string, schema Schema, blocks []Block) (*PartitionResult, error) {
	res := &PartitionResult{
		Resolved: make(map[string]string),
		Pending:  make(map[string]PendingField),
	}
	consumed := make(map[int]bool)

	for _, f := range schema {
		ci, err := m.ConfidenceInterval(ctx, label, f.Name)
		if err != nil {
			return nil, err
		}
		pattern, err := m.Pattern(ctx, label, f.Name)
		if err != nil {
			return nil, err
		}

		if idx := findCandidate(ci, blocks, consumed); idx >= 0 && pattern != "" {
			if value, ok := m.applyPattern(label, f.Name, pattern, blocks[idx].Text); ok {
				res.Resolved[f.Name] = value
				consumed[idx] = true
				continue
			}
		}

		res.Pending[f.Name] = PendingField{
			Description:  f.Description,
			NeedsPattern: pattern == "",
		}
	}

	for i := range blocks {
		if !consumed[i] {
			res.Remaining = append(res.Remaining, i)
		}
	}
	return res, nil
}

// applyPattern runs the stored pattern as a multiline search over the
// candidate block's text and returns the trimmed matched span. A pattern
// that does not compile is logged and treated as a non-match; the field
// degrades to the fallback path.
func (m *Memory) applyPattern(label, field, pattern, text string) (string, bool) {
	re, err := regexp.Compile("(?m)" + pattern)
	if err != nil {
		m.cfg.Logger.Warn("invalid stored pattern",
			"label", label, "field", field, "pattern", pattern, "error", err)
		return "", false
	}
	loc := re.FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	return strings.TrimSpace(text[loc[0]:loc[1]]), true
}
