package llm

import (
	"fmt"
	"strings"
)

const systemPrompt = `You extract structured field values from document text blocks.
Respond with a single JSON object mapping each requested field name to an object:
  {"value": string or null, "pattern": string or null, "block": integer or null}
"value" is the extracted value, null if the document does not contain it.
"block" is the 1-based number of the block the value was found in, null if no value.
When a pattern is requested for a field, "pattern" is a regular expression that
matches the value inside its block and would match the same field in similar
documents; otherwise set it to null. Respond with JSON only.`

// buildPrompt renders the user message: the numbered remaining blocks and
// the pending fields. Block numbers are 1-based and must match the "block"
// references in the model's answer.
func buildPrompt(req Request) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Document type: %s\n\nBlocks:\n", req.Label)
	for i, text := range req.Blocks {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, text)
	}
	sb.WriteString("\nFields to extract:\n")
	for _, f := range req.Fields {
		fmt.Fprintf(&sb, "- %s: %s", f.Name, f.Description)
		if f.NeedsPattern {
			sb.WriteString(" (also provide a pattern)")
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
