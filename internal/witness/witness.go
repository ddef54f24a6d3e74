// Package witness builds the function-level call-chain witnesses from
// spec.md §6: one record per mapped call edge, in canonical order, so a
// reader of flow-facts output can see which callsite justified a lifted
// fact without re-running the fixpoint.
package witness

import (
	"jsflow/internal/callgraph"
	"jsflow/internal/canon"
	"jsflow/internal/ids"
)

// Step is one hop of a call chain: caller, the callsite it called through,
// and the resolved callee.
type Step struct {
	CallerFuncID ids.FuncId
	CallsiteID   ids.CallsiteId
	CalleeFuncID ids.FuncId
}

// Witness is one JSONL record, spec.md §6: `{schemaVersion, kind:"call_chain",
// steps:[...]}`. This module emits exactly one step per record, one record
// per mapped call edge.
type Witness struct {
	SchemaVersion int
	Kind          string
	Steps         []Step
}

const SchemaVersion = 1

// Build returns one Witness per mapped call edge, in the order given; it does
// not sort. callgraph.Map already returns its edges sorted by (CallerFuncID,
// CallsiteID, CalleeFuncID).
func Build(mapped []callgraph.MappedCallEdge) []Witness {
	out := make([]Witness, 0, len(mapped))
	for _, e := range mapped {
		out = append(out, Witness{
			SchemaVersion: SchemaVersion,
			Kind:          "call_chain",
			Steps: []Step{{
				CallerFuncID: e.CallerFuncID,
				CallsiteID:   e.CallsiteID,
				CalleeFuncID: e.CalleeFuncID,
			}},
		})
	}
	return out
}

// Canonical returns w's canonical JSON form.
func (w Witness) Canonical() map[string]any {
	steps := make([]any, 0, len(w.Steps))
	for _, s := range w.Steps {
		steps = append(steps, map[string]any{
			"callerFuncId": s.CallerFuncID.String(),
			"callsiteId":   s.CallsiteID.String(),
			"calleeFuncId": s.CalleeFuncID.String(),
		})
	}
	return map[string]any{
		"schemaVersion": w.SchemaVersion,
		"kind":          w.Kind,
		"steps":         steps,
	}
}

// MarshalCanonical returns the canonical JSON encoding of w.
func (w Witness) MarshalCanonical() ([]byte, error) {
	return canon.Marshal(w.Canonical())
}
