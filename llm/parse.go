package llm

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// rawFieldResult tolerates the shape drift models produce: block references
// arrive as numbers or numeric strings, and null/absent are both accepted.
type rawFieldResult struct {
	Value   *string         `json:"value"`
	Pattern *string         `json:"pattern"`
	Block   json.RawMessage `json:"block"`
}

// parseResponse decodes a model payload into a Response. Code fences are
// stripped first; anything that still fails to decode surfaces as an
// InvalidResponseError carrying the raw payload.
func parseResponse(raw string) (Response, error) {
	body := stripCodeFence(raw)

	var m map[string]rawFieldResult
	if err := json.Unmarshal([]byte(body), &m); err != nil {
		return nil, &InvalidResponseError{Raw: raw, Err: err}
	}

	resp := make(Response, len(m))
	for name, r := range m {
		fr := FieldResult{Value: r.Value}
		if r.Pattern != nil {
			fr.Pattern = *r.Pattern
		}
		idx, err := parseBlockIndex(r.Block)
		if err != nil {
			return nil, &InvalidResponseError{Raw: raw, Err: fmt.Errorf("field %s: %w", name, err)}
		}
		fr.BlockIndex = idx
		resp[name] = fr
	}
	return resp, nil
}

func parseBlockIndex(raw json.RawMessage) (int, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, nil
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		n, convErr := strconv.Atoi(strings.TrimSpace(s))
		if convErr != nil {
			return 0, fmt.Errorf("block index %q is not a number", s)
		}
		return n, nil
	}
	return 0, fmt.Errorf("block index %s has unsupported type", raw)
}

// stripCodeFence removes a surrounding markdown fence if present.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		// Drop the language tag line.
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
