// Package facts implements the FlowFact type and canonical JSONL emitter from
// spec.md §3/§4.10/§6: the pipeline's final output, produced in a single pass
// after the interprocedural fixpoint converges.
package facts

import (
	"fmt"

	"jsflow/internal/cheappass"
	"jsflow/internal/ids"
)

// SchemaVersion is the current FlowFact wire schema version.
const SchemaVersion = 1

// FlowFact is one `from -> to` record drawn from the node shapes in spec.md §3:
// `var(FuncId,VarId) | call_arg(CallsiteId,index) | heap_read(HeapId) |
// heap_write(HeapId) | return(FuncId)`. Func identifies the function whose
// local reachability produced this fact; it is folded into the canonical form
// of From/To whenever the node kind (var, return) does not already carry a
// FuncId of its own (call_arg and heap_read/heap_write do, via the embedded
// StmtId/HeapId).
type FlowFact struct {
	SchemaVersion int
	Func          ids.FuncId
	From          cheappass.Node
	To            cheappass.Node
}

// New constructs a FlowFact at the current schema version.
func New(fn ids.FuncId, from, to cheappass.Node) FlowFact {
	return FlowFact{SchemaVersion: SchemaVersion, Func: fn, From: from, To: to}
}

// nodeKey returns a node's de-duplication key, including fn when the node
// kind doesn't already embed a FuncId.
func nodeKey(fn ids.FuncId, n cheappass.Node) string {
	switch n.Kind {
	case cheappass.NVar, cheappass.NReturn:
		return fn.String() + ":" + n.String()
	default:
		return n.String()
	}
}

// Key is the de-duplication key for this fact, spec.md §4.10: the composite
// `from->to` string over the canonical node forms.
func (f FlowFact) Key() string {
	return nodeKey(f.Func, f.From) + "->" + nodeKey(f.Func, f.To)
}

// Canonical renders f as a plain map suitable for canon.Marshal, matching the
// wire example in spec.md §6.
func (f FlowFact) Canonical() map[string]any {
	return map[string]any{
		"schemaVersion": f.SchemaVersion,
		"from":          canonicalNode(f.Func, f.From),
		"to":            canonicalNode(f.Func, f.To),
	}
}

func canonicalNode(fn ids.FuncId, n cheappass.Node) map[string]any {
	m := n.Canonical()
	switch n.Kind {
	case cheappass.NVar, cheappass.NReturn:
		m["funcId"] = fn.String()
	}
	return m
}

// Cmp orders facts by (fromKind, fromFields, toKind, toFields), spec.md §4.10.
func Cmp(a, b FlowFact) int {
	if c := cheappass.Cmp(a.From, b.From); c != 0 {
		return c
	}
	if a.Func != b.Func {
		return strCmp(a.Func.String(), b.Func.String())
	}
	return cheappass.Cmp(a.To, b.To)
}

func strCmp(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func (f FlowFact) String() string {
	return fmt.Sprintf("%s: %s -> %s", f.Func, f.From, f.To)
}
