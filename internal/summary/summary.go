// Package summary implements the FuncSummary schema and normalizer from
// spec.md §4.6: the validated, bounded, canonically-sorted edge set a
// function's cheap-pass baseline (and, optionally, an external extractor) is
// reduced to before entering the cache and the interprocedural fixpoint.
package summary

import (
	"jsflow/internal/cheappass"
	"jsflow/internal/ids"
)

// SchemaVersion is the current FuncSummary schema version.
const SchemaVersion = 1

// Summary is `{ schemaVersion, funcId, edges: set<Edge> }` from spec.md §3.
// Nodes and edges reuse cheappass's Node/Edge shapes: the schema is identical,
// since the cheap pass's baseline IS a (minimal, always-accepted) summary.
type Summary struct {
	SchemaVersion int
	FuncID        ids.FuncId
	Edges         []cheappass.Edge
}

// FromBaseline builds the minimal summary consisting of exactly the cheap
// pass's baseline edges, with no additions from an external extractor.
func FromBaseline(funcID ids.FuncId, baseline *cheappass.Result) *Summary {
	edges := make([]cheappass.Edge, len(baseline.Edges))
	copy(edges, baseline.Edges)
	return &Summary{SchemaVersion: SchemaVersion, FuncID: funcID, Edges: edges}
}
