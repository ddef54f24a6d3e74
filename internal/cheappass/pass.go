package cheappass

import (
	"jsflow/internal/canon"
	"jsflow/internal/config"
	"jsflow/internal/diagnostics"
	"jsflow/internal/ids"
	"jsflow/internal/ir"
)

// Result is the cheap static pass's output for one function: its baseline
// dependency edges (de-duplicated, canonically sorted) and the final heap
// anchor assigned to every declared variable.
type Result struct {
	Edges   []Edge
	Anchors map[ids.VarId]ids.StmtId
}

// HeapIds returns the set of HeapIds reachable in r's edges — the "baseline
// edges" set the summary normalizer's HeapId membership check (spec.md §4.6)
// validates against.
func (r *Result) HeapIds() map[ids.HeapId]struct{} {
	set := make(map[ids.HeapId]struct{})
	for _, e := range r.Edges {
		if e.From.Kind == NHeapRead {
			set[e.From.Heap] = struct{}{}
		}
		if e.To.Kind == NHeapWrite {
			set[e.To.Heap] = struct{}{}
		}
	}
	return set
}

// Run executes the cheap static pass over f, per spec.md §4.5: a single
// forward scan assigning each variable a heap anchor and emitting baseline
// dependency edges.
func Run(f *ir.FuncIR, cfg *config.PipelineConfig) (*Result, error) {
	anchors := make(map[ids.VarId]ids.StmtId, len(f.Params)+len(f.Locals))
	for i, p := range f.Params {
		anchor, err := synthAnchor(f.FuncID, cfg.HeapAnchorParamBase+int64(i))
		if err != nil {
			return nil, err
		}
		anchors[p] = anchor
	}
	for i, v := range f.Locals {
		anchor, err := synthAnchor(f.FuncID, cfg.HeapAnchorLocalBase+int64(i))
		if err != nil {
			return nil, err
		}
		anchors[v] = anchor
	}

	var edges []Edge
	emit := func(from, to Node) { edges = append(edges, Edge{From: from, To: to}) }

	for _, s := range f.Stmts {
		switch s.Kind {
		case ir.SAssign:
			if s.Src.Kind == ir.RVar {
				anchors[*s.Dst] = anchors[s.Src.Var]
				emit(VarNode(s.Src.Var), VarNode(*s.Dst))
			} else {
				anchors[*s.Dst] = s.Anchor
			}

		case ir.SCall:
			if s.Dst != nil {
				anchors[*s.Dst] = s.Anchor
			}
			for i, a := range s.Args {
				if a.Kind == ir.RVar {
					emit(VarNode(a.Var), CallArgNode(s.Anchor, i))
				}
			}

		case ir.SReturn:
			if s.Value != nil && s.Value.Kind == ir.RVar {
				emit(VarNode(s.Value.Var), ReturnNode())
			}

		case ir.SAwait:
			anchors[*s.Dst] = s.Anchor

		case ir.SMemberWrite:
			objAnchor, ok := anchors[s.Object]
			if !ok {
				return nil, diagnostics.New(diagnostics.InvariantViolation, f.FuncID.String(), "member write on variable with no anchor")
			}
			heap, err := ids.NewHeapID(objAnchor, propName(s.Prop))
			if err != nil {
				return nil, err
			}
			if s.Src.Kind == ir.RVar {
				emit(VarNode(s.Src.Var), HeapWriteNode(heap))
			}

		case ir.SMemberRead:
			objAnchor, ok := anchors[s.Object]
			if !ok {
				return nil, diagnostics.New(diagnostics.InvariantViolation, f.FuncID.String(), "member read on variable with no anchor")
			}
			heap, err := ids.NewHeapID(objAnchor, propName(s.Prop))
			if err != nil {
				return nil, err
			}
			emit(HeapReadNode(heap), VarNode(*s.Dst))
			anchors[*s.Dst] = s.Anchor

		case ir.SSelect, ir.SShortCircuit, ir.SAlloc:
			anchors[*s.Dst] = s.Anchor
		}
	}

	deduped := dedup(edges)
	canon.StableSort(deduped, CmpEdge)
	return &Result{Edges: deduped, Anchors: anchors}, nil
}

func propName(p ir.Property) string {
	if p.Dynamic {
		return ids.DynamicProperty
	}
	return p.Name
}

func synthAnchor(fn ids.FuncId, index int64) (ids.StmtId, error) {
	return ids.NewStmtID(fn, int(index))
}

func dedup(edges []Edge) []Edge {
	seen := make(map[string]struct{}, len(edges))
	out := make([]Edge, 0, len(edges))
	for _, e := range edges {
		k := e.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, e)
	}
	return out
}
