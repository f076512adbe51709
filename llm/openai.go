// CLAUDE:SUMMARY OpenAI-backed fallback extractor with JSON-schema structured output.
package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIConfig configures the OpenAI-backed extractor.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// OpenAIExtractor implements Extractor against the OpenAI chat API.
type OpenAIExtractor struct {
	client openai.Client
	model  string
}

// NewOpenAIExtractor builds an extractor. The base URL override allows any
// OpenAI-compatible endpoint.
func NewOpenAIExtractor(cfg OpenAIConfig) (*OpenAIExtractor, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key required")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	model := cfg.Model
	if model == "" {
		model = string(openai.ChatModelGPT4oMini)
	}
	return &OpenAIExtractor{
		client: openai.NewClient(opts...),
		model:  model,
	}, nil
}

// Extract sends one fallback extraction request and parses the structured
// answer. Unparseable payloads return an InvalidResponseError.
func (e *OpenAIExtractor) Extract(ctx context.Context, req Request) (Response, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(e.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(buildPrompt(req)),
		},
		Temperature: openai.Float(0),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   "field_extraction",
					Schema: responseSchema(req.Fields),
				},
			},
		},
	}

	resp, err := e.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, &InvalidResponseError{Raw: "", Err: fmt.Errorf("no choices in response")}
	}
	return parseResponse(resp.Choices[0].Message.Content)
}

// Name returns the provider identifier.
func (e *OpenAIExtractor) Name() string { return "openai" }

// responseSchema builds a JSON schema requiring an answer object for every
// pending field.
func responseSchema(fields []FieldSpec) map[string]any {
	properties := make(map[string]any, len(fields))
	required := make([]string, 0, len(fields))
	for _, f := range fields {
		properties[f.Name] = map[string]any{
			"type": "object",
			"properties": map[string]any{
				"value":   map[string]any{"type": []string{"string", "null"}},
				"pattern": map[string]any{"type": []string{"string", "null"}},
				"block":   map[string]any{"type": []string{"integer", "null"}},
			},
			"required": []string{"value", "pattern", "block"},
		}
		required = append(required, f.Name)
	}
	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

var _ Extractor = (*OpenAIExtractor)(nil)
