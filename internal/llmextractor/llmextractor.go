// Package llmextractor implements the optional external summary extractor
// from spec.md §4.7: a second, non-authoritative source of dependency edges
// for a function, obtained by asking a hosted model to read the function's
// normalized IR and propose edges in the same shape the cheap pass produces.
// Every edge it returns is re-validated by summary.Normalize alongside the
// cheap-pass baseline, so a bad or hallucinated edge is rejected rather than
// silently trusted (spec.md's baseline-coverage and schema invariants apply
// identically regardless of where an edge came from).
//
// Disabled unless an API key is configured: New returns an error if apiKey is
// empty, and cmd/jsflow only constructs an Extractor when one of the
// --llm-api-key flag or JSFLOW_LLM_API_KEY environment variable is set.
package llmextractor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"jsflow/internal/cheappass"
	"jsflow/internal/ir"
)

// defaultModel mirrors the teacher's embedding engine default of picking a
// current Gemini model rather than requiring the caller to know one.
const defaultModel = "gemini-2.5-flash"

// Extractor calls a hosted model to propose additional dependency edges for
// one function at a time. It implements pipeline.Extractor.
type Extractor struct {
	client *genai.Client
	model  string
}

// New creates an Extractor backed by the Gemini API. apiKey is required;
// model defaults to defaultModel when empty.
func New(ctx context.Context, apiKey, model string) (*Extractor, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("llmextractor: API key is required")
	}
	if model == "" {
		model = defaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("llmextractor: create genai client: %w", err)
	}

	return &Extractor{client: client, model: model}, nil
}

// edgeSetSchema is the response schema handed to the model via
// GenerateContentConfig.ResponseSchema, constraining output to the same
// {from,to} node shape cheappass.Edge.Canonical produces.
var edgeSetSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"edges": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"from": nodeSchema,
					"to":   nodeSchema,
				},
				Required: []string{"from", "to"},
			},
		},
	},
	Required: []string{"edges"},
}

var nodeSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"kind":       {Type: genai.TypeString, Enum: []string{"var", "call_arg", "heap_read", "heap_write", "return"}},
		"id":         {Type: genai.TypeString},
		"callsiteId": {Type: genai.TypeString},
		"index":      {Type: genai.TypeInteger},
		"heapId":     {Type: genai.TypeString},
	},
	Required: []string{"kind"},
}

// Extract asks the model for additional dependency edges for fn, given its
// normalized IR and the cheap pass's baseline as context. Edges that fail to
// parse back into cheappass.Edge are skipped rather than failing the whole
// call, since summary.Normalize downstream rejects anything malformed anyway
// and a single bad suggestion should not sink the rest.
func (e *Extractor) Extract(ctx context.Context, fn *ir.FuncIR, baseline *cheappass.Result) ([]cheappass.Edge, error) {
	prompt := buildPrompt(fn, baseline)

	resp, err := e.client.Models.GenerateContent(ctx, e.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   edgeSetSchema,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("llmextractor: generate content: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, nil
	}

	var parsed struct {
		Edges []map[string]any `json:"edges"`
	}
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, fmt.Errorf("llmextractor: parse response: %w", err)
	}

	edges := make([]cheappass.Edge, 0, len(parsed.Edges))
	for _, raw := range parsed.Edges {
		edge, err := edgeFromRaw(raw)
		if err != nil {
			continue
		}
		edges = append(edges, edge)
	}
	return edges, nil
}

func edgeFromRaw(raw map[string]any) (cheappass.Edge, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return cheappass.Edge{}, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return cheappass.Edge{}, err
	}
	return cheappass.EdgeFromCanonical(m)
}

// buildPrompt renders fn's normalized IR and baseline edges as plain text for
// the model to reason over. It intentionally does not ask the model to
// reproduce the baseline: summary.Normalize's baseline-coverage check runs
// regardless, so asking for it again would only waste output tokens.
func buildPrompt(fn *ir.FuncIR, baseline *cheappass.Result) string {
	var b strings.Builder
	b.WriteString("Propose additional dependency edges for the following normalized function IR.\n")
	b.WriteString("Only propose edges beyond the ones already found by the baseline static pass.\n")
	b.WriteString("An edge's \"from\" must be a var or heap_read node; its \"to\" must be a var, call_arg, heap_write, or return node.\n\n")

	irData, _ := json.Marshal(fn.Canonical())
	b.Write(irData)
	b.WriteString("\n\nBaseline edges already found:\n")

	baselineData, _ := json.Marshal(baselineCanonical(baseline))
	b.Write(baselineData)

	return b.String()
}

func baselineCanonical(baseline *cheappass.Result) []any {
	out := make([]any, 0, len(baseline.Edges))
	for _, e := range baseline.Edges {
		out = append(out, e.Canonical())
	}
	return out
}
