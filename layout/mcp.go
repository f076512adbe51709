// CLAUDE:SUMMARY Registers gabarit_observe, gabarit_partition, gabarit_field_stats and gabarit_cached_result MCP tools via kit.RegisterMCPTool.
package layout

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/gabarit/kit"
)

// RegisterMCP registers the layout-memory tools on an MCP server.
func (m *Memory) RegisterMCP(srv *mcp.Server) {
	m.registerObserveTool(srv)
	m.registerPartitionTool(srv)
	m.registerFieldStatsTool(srv)
	m.registerCachedResultTool(srv)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// --- observe ---

type observeReq struct {
	Label string  `json:"label"`
	Field string  `json:"field"`
	PX    float64 `json:"px"`
	PY    float64 `json:"py"`
}

func (m *Memory) registerObserveTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "gabarit_observe",
		Description: "Record one normalized position observation for a (label, field) pair.",
		InputSchema: inputSchema(map[string]any{
			"label": map[string]any{"type": "string", "description": "Document-type label"},
			"field": map[string]any{"type": "string", "description": "Field name"},
			"px":    map[string]any{"type": "number", "description": "Normalized horizontal center in [0,1]"},
			"py":    map[string]any{"type": "number", "description": "Normalized vertical center in [0,1]"},
		}, []string{"label", "field", "px", "py"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*observeReq)
		if err := m.Observe(ctx, r.Label, r.Field, r.PX, r.PY); err != nil {
			return nil, err
		}
		return map[string]any{"recorded": true}, nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r observeReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		if r.Label == "" || r.Field == "" {
			return nil, fmt.Errorf("label and field are required")
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- partition ---

type partitionReq struct {
	Label  string            `json:"label"`
	Schema map[string]string `json:"schema"`
	Blocks []Block           `json:"blocks"`
}

func (m *Memory) registerPartitionTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "gabarit_partition",
		Description: "Split a schema into fields resolved from layout memory and fields needing fallback extraction.",
		InputSchema: inputSchema(map[string]any{
			"label": map[string]any{"type": "string", "description": "Document-type label"},
			"schema": map[string]any{
				"type":        "object",
				"description": "Field name to description mapping",
			},
			"blocks": map[string]any{
				"type":        "array",
				"description": "Text blocks with normalized centers, in reading order",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"text": map[string]any{"type": "string"},
						"px":   map[string]any{"type": "number"},
						"py":   map[string]any{"type": "number"},
					},
				},
			},
		}, []string{"label", "schema", "blocks"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*partitionReq)
		raw, err := json.Marshal(r.Schema)
		if err != nil {
			return nil, err
		}
		schema, err := ParseSchema(raw)
		if err != nil {
			return nil, err
		}
		return m.Partition(ctx, r.Label, schema, r.Blocks)
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r partitionReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		if r.Label == "" {
			return nil, fmt.Errorf("label is required")
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- field stats ---

type fieldStatsReq struct {
	Label string `json:"label"`
}

func (m *Memory) registerFieldStatsTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "gabarit_field_stats",
		Description: "List learned position statistics and confidence tiers for all fields of a label.",
		InputSchema: inputSchema(map[string]any{
			"label": map[string]any{"type": "string", "description": "Document-type label"},
		}, []string{"label"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*fieldStatsReq)
		stats, err := m.FieldStats(ctx, r.Label)
		if err != nil {
			return nil, err
		}
		out := make([]map[string]any, 0, len(stats))
		for _, fs := range stats {
			entry := map[string]any{
				"field":   fs.Field,
				"n":       fs.N,
				"mean_px": fs.MeanPX,
				"mean_py": fs.MeanPY,
			}
			ci, err := m.ConfidenceInterval(ctx, r.Label, fs.Field)
			if err != nil {
				return nil, err
			}
			if ci != nil {
				entry["interval"] = ci
			}
			out = append(out, entry)
		}
		return map[string]any{"label": r.Label, "fields": out}, nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r fieldStatsReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		if r.Label == "" {
			return nil, fmt.Errorf("label is required")
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- cached result ---

type cachedResultReq struct {
	Text   string            `json:"text"`
	Schema map[string]string `json:"schema"`
}

func (m *Memory) registerCachedResultTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "gabarit_cached_result",
		Description: "Look up a cached extraction result by document text and schema.",
		InputSchema: inputSchema(map[string]any{
			"text": map[string]any{"type": "string", "description": "Plain-text rendering of the document"},
			"schema": map[string]any{
				"type":        "object",
				"description": "Field name to description mapping",
			},
		}, []string{"text", "schema"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*cachedResultReq)
		raw, err := json.Marshal(r.Schema)
		if err != nil {
			return nil, err
		}
		schema, err := ParseSchema(raw)
		if err != nil {
			return nil, err
		}
		res, err := m.CachedResult(ctx, r.Text, schema.Canonical())
		if err != nil {
			return nil, err
		}
		if res == nil {
			return map[string]any{"hit": false}, nil
		}
		return map[string]any{"hit": true, "result": res}, nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r cachedResultReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}
