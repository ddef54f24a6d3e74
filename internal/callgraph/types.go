// Package callgraph implements the call-graph mapper from spec.md §4.8: it
// resolves an externally supplied call graph (opaque node ids carrying file
// spans, edges with callsite spans) to this module's own FuncId/CallsiteId
// space, in either strict or lenient path-resolution mode.
package callgraph

import (
	"encoding/json"
	"fmt"

	"jsflow/internal/diagnostics"
)

// ExternalNode is one node of the externally supplied call graph, spec.md §6.
type ExternalNode struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	FilePath string `json:"filePath"`
	Start    int    `json:"startOffset"`
	End      int    `json:"endOffset"`
}

// ExternalCallsite is the span of a call edge's callsite.
type ExternalCallsite struct {
	FilePath string `json:"filePath"`
	Start    int    `json:"startOffset"`
	End      int    `json:"endOffset"`
}

// ExternalEdge is one edge of the externally supplied call graph. Only edges
// with Kind == "call" (the default when Kind is empty) are consumed for
// callsite mapping; "construct" edges are skipped, per spec.md §4.8.
type ExternalEdge struct {
	CallerID string           `json:"callerId"`
	CalleeID string           `json:"calleeId"`
	Callsite ExternalCallsite `json:"callsite"`
	Kind     string           `json:"kind,omitempty"`
}

// ExternalGraph is the call-graph input schema v1, spec.md §6.
type ExternalGraph struct {
	SchemaVersion int            `json:"schemaVersion"`
	Nodes         []ExternalNode `json:"nodes"`
	Edges         []ExternalEdge `json:"edges"`
}

const currentSchemaVersion = 1

// ParseExternalGraph decodes and schema-validates data as an ExternalGraph.
func ParseExternalGraph(data []byte) (*ExternalGraph, error) {
	var g ExternalGraph
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, diagnostics.Wrap(diagnostics.SchemaViolation, "callgraph", err)
	}
	if g.SchemaVersion != currentSchemaVersion {
		return nil, diagnostics.New(diagnostics.SchemaViolation, "callgraph", "unsupported schemaVersion %d, want %d", g.SchemaVersion, currentSchemaVersion)
	}
	for _, n := range g.Nodes {
		if n.ID == "" || n.FilePath == "" {
			return nil, diagnostics.New(diagnostics.SchemaViolation, "callgraph", "node missing id or filePath")
		}
		if n.End < n.Start || n.Start < 0 {
			return nil, diagnostics.New(diagnostics.SchemaViolation, n.ID, "invalid span [%d,%d)", n.Start, n.End)
		}
	}
	for _, e := range g.Edges {
		if e.CallerID == "" || e.CalleeID == "" {
			return nil, diagnostics.New(diagnostics.SchemaViolation, "callgraph", "edge missing callerId or calleeId")
		}
	}
	return &g, nil
}

func (e ExternalEdge) isCall() bool {
	return e.Kind == "" || e.Kind == "call"
}

func (n ExternalNode) String() string {
	return fmt.Sprintf("%s[%s:%d:%d]", n.ID, n.FilePath, n.Start, n.End)
}
