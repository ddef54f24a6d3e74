package summary

import (
	"fmt"

	"jsflow/internal/cheappass"
	"jsflow/internal/ids"
)

// Canonical renders s as a plain map/slice tree suitable for canon.Marshal —
// the on-disk form spec.md §4.7 stores in the summary cache.
func (s *Summary) Canonical() map[string]any {
	edges := make([]any, len(s.Edges))
	for i, e := range s.Edges {
		edges[i] = e.Canonical()
	}
	return map[string]any{
		"schemaVersion": s.SchemaVersion,
		"funcId":        s.FuncID.String(),
		"edges":         edges,
	}
}

// FromCanonical parses the map produced by Canonical, after a JSON
// round-trip (where numbers decode as float64 and nested objects/arrays
// decode as map[string]any/[]any).
func FromCanonical(m map[string]any) (*Summary, error) {
	funcIDStr, _ := m["funcId"].(string)
	funcID, err := ids.ParseFuncID(funcIDStr)
	if err != nil {
		return nil, fmt.Errorf("summary funcId: %w", err)
	}
	schemaVersion, _ := m["schemaVersion"].(float64)

	rawEdges, _ := m["edges"].([]any)
	edges := make([]cheappass.Edge, 0, len(rawEdges))
	for _, raw := range rawEdges {
		em, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("summary edge is not an object")
		}
		e, err := cheappass.EdgeFromCanonical(em)
		if err != nil {
			return nil, fmt.Errorf("summary edge: %w", err)
		}
		edges = append(edges, e)
	}

	return &Summary{SchemaVersion: int(schemaVersion), FuncID: funcID, Edges: edges}, nil
}
