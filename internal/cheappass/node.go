// Package cheappass implements the cheap static pass from spec.md §4.5: a
// single forward scan over a function's Normalized FuncIR producing baseline
// dependency edges and a coarse per-variable heap-anchor model.
package cheappass

import (
	"fmt"
	"strconv"

	"jsflow/internal/ids"
)

// NodeKind tags the shape of a summary graph node: `var(VarId) | call_arg
// (CallsiteId,index) | heap_read(HeapId) | heap_write(HeapId) | return`,
// spec.md §3.
type NodeKind int

const (
	NVar NodeKind = iota
	NCallArg
	NHeapRead
	NHeapWrite
	NReturn
)

// Node is one vertex of a per-function dependency graph.
type Node struct {
	Kind     NodeKind
	Var      ids.VarId
	Callsite ids.CallsiteId
	ArgIndex int
	Heap     ids.HeapId
}

func VarNode(v ids.VarId) Node                       { return Node{Kind: NVar, Var: v} }
func CallArgNode(cs ids.CallsiteId, i int) Node       { return Node{Kind: NCallArg, Callsite: cs, ArgIndex: i} }
func HeapReadNode(h ids.HeapId) Node                  { return Node{Kind: NHeapRead, Heap: h} }
func HeapWriteNode(h ids.HeapId) Node                 { return Node{Kind: NHeapWrite, Heap: h} }
func ReturnNode() Node                                { return Node{Kind: NReturn} }

// String returns a canonical, order-stable representation of the node, used
// as the dedup/sort key for edges that reference it.
func (n Node) String() string {
	switch n.Kind {
	case NVar:
		return "var:" + n.Var.String()
	case NCallArg:
		return "call_arg:" + n.Callsite.String() + ":" + strconv.Itoa(n.ArgIndex)
	case NHeapRead:
		return "heap_read:" + n.Heap.String()
	case NHeapWrite:
		return "heap_write:" + n.Heap.String()
	case NReturn:
		return "return"
	default:
		return "invalid"
	}
}

// Canonical renders n as a plain map suitable for canon.Marshal.
func (n Node) Canonical() map[string]any {
	switch n.Kind {
	case NVar:
		return map[string]any{"kind": "var", "id": n.Var.String()}
	case NCallArg:
		return map[string]any{"kind": "call_arg", "callsiteId": n.Callsite.String(), "index": n.ArgIndex}
	case NHeapRead:
		return map[string]any{"kind": "heap_read", "heapId": n.Heap.String()}
	case NHeapWrite:
		return map[string]any{"kind": "heap_write", "heapId": n.Heap.String()}
	default:
		return map[string]any{"kind": "return"}
	}
}

// NodeFromCanonical parses the map produced by Canonical (after a JSON
// round-trip, where numbers decode as float64).
func NodeFromCanonical(m map[string]any) (Node, error) {
	kind, _ := m["kind"].(string)
	switch kind {
	case "var":
		v, err := ids.ParseVarID(asString(m["id"]))
		if err != nil {
			return Node{}, err
		}
		return VarNode(v), nil
	case "call_arg":
		cs, err := ids.ParseStmtID(asString(m["callsiteId"]))
		if err != nil {
			return Node{}, err
		}
		return CallArgNode(cs, int(asFloat(m["index"]))), nil
	case "heap_read":
		h, err := ids.ParseHeapID(asString(m["heapId"]))
		if err != nil {
			return Node{}, err
		}
		return HeapReadNode(h), nil
	case "heap_write":
		h, err := ids.ParseHeapID(asString(m["heapId"]))
		if err != nil {
			return Node{}, err
		}
		return HeapWriteNode(h), nil
	case "return":
		return ReturnNode(), nil
	default:
		return Node{}, fmt.Errorf("unknown node kind %q", kind)
	}
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

// Cmp is the total order over Node: by Kind, then by canonical string.
func Cmp(a, b Node) int {
	if a.Kind != b.Kind {
		return int(a.Kind) - int(b.Kind)
	}
	as, bs := a.String(), b.String()
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	default:
		return 0
	}
}

// Edge is a dependency edge: from ∈ {var, heap_read}; to ∈ {var, call_arg,
// heap_write, return}, per spec.md §3.
type Edge struct {
	From, To Node
}

// Key is the (from→to) de-duplication key, spec.md §4.10.
func (e Edge) Key() string { return e.From.String() + "->" + e.To.String() }

// Canonical renders e as a plain map suitable for canon.Marshal.
func (e Edge) Canonical() map[string]any {
	return map[string]any{"from": e.From.Canonical(), "to": e.To.Canonical()}
}

// EdgeFromCanonical parses the map produced by Canonical.
func EdgeFromCanonical(m map[string]any) (Edge, error) {
	fromM, ok := m["from"].(map[string]any)
	if !ok {
		return Edge{}, fmt.Errorf("edge missing from-node")
	}
	toM, ok := m["to"].(map[string]any)
	if !ok {
		return Edge{}, fmt.Errorf("edge missing to-node")
	}
	from, err := NodeFromCanonical(fromM)
	if err != nil {
		return Edge{}, err
	}
	to, err := NodeFromCanonical(toM)
	if err != nil {
		return Edge{}, err
	}
	return Edge{From: from, To: to}, nil
}

// CmpEdge orders edges by (from, to), the "(kind, source, target)" order
// spec.md §4.5 requires of the cheap pass's output.
func CmpEdge(a, b Edge) int {
	if c := Cmp(a.From, b.From); c != 0 {
		return c
	}
	return Cmp(a.To, b.To)
}
