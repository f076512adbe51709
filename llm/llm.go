// Package llm is the generative fallback collaborator: given the blocks the
// layout memory could not account for and the schema of unresolved fields,
// it asks a model for per-field value, an optional reusable extraction
// pattern, and the index of the block the value came from.
package llm

import (
	"context"
	"fmt"
)

// FieldSpec describes one field the fallback must resolve.
type FieldSpec struct {
	Name        string
	Description string
	// NeedsPattern asks the model to also propose a reusable regular
	// expression for this field.
	NeedsPattern bool
}

// Request is one fallback extraction call.
type Request struct {
	Label  string
	Blocks []string
	Fields []FieldSpec
}

// FieldResult is the model's answer for one field. Value is nil when the
// document does not contain the field. BlockIndex is 1-based into
// Request.Blocks, 0 when absent.
type FieldResult struct {
	Value      *string
	Pattern    string
	BlockIndex int
}

// Response maps field name to the model's answer.
type Response map[string]FieldResult

// Extractor is the fallback extraction service.
type Extractor interface {
	Extract(ctx context.Context, req Request) (Response, error)
	Name() string
}

// InvalidResponseError reports an unparseable model payload, carrying the
// raw text for diagnosis.
type InvalidResponseError struct {
	Raw string
	Err error
}

func (e *InvalidResponseError) Error() string {
	return fmt.Sprintf("invalid fallback response: %v", e.Err)
}

func (e *InvalidResponseError) Unwrap() error { return e.Err }
