package fixpoint

import (
	"jsflow/internal/cheappass"
	"jsflow/internal/ids"
	"jsflow/internal/ir"
)

// callStmt finds the SCall statement anchored at csID in f, if any.
func callStmt(f *ir.FuncIR, csID ids.CallsiteId) (ir.IrStmt, bool) {
	for _, s := range f.Stmts {
		if s.Kind == ir.SCall && s.Anchor == csID {
			return s, true
		}
	}
	return ir.IrStmt{}, false
}

// argAnchor resolves the i-th call argument to the caller's current anchor for
// it, if that argument is a plain variable reference (spec.md §4.9 lifting
// only fires for "the k-th argument at c is a caller variable a_k").
func argAnchor(call ir.IrStmt, i int, anchors map[ids.VarId]ids.StmtId) (ids.StmtId, bool) {
	if i < 0 || i >= len(call.Args) {
		return ids.StmtId{}, false
	}
	arg := call.Args[i]
	if arg.Kind != ir.RVar {
		return ids.StmtId{}, false
	}
	anchor, ok := anchors[arg.Var]
	return anchor, ok
}

// liftCallsite adds synthetic edges to g for one callsite c in caller F,
// linking G's effects to F's actual arguments and destination, per the four
// lifting rules of spec.md §4.9.
func liftCallsite(g localGraph, callerIR *ir.FuncIR, callerAnchors map[ids.VarId]ids.StmtId, csID ids.CallsiteId, eff effects) {
	call, ok := callStmt(callerIR, csID)
	if !ok {
		return
	}

	// 1. param -> return: call_arg(c,i) -> var(dst(c)).
	if call.Dst != nil {
		for i := range call.Args {
			if eff.paramToReturn[i] {
				g.addEdge(cheappass.CallArgNode(csID, i), cheappass.VarNode(*call.Dst))
			}
		}
	}

	// 2. param -> heap_write: call_arg(c,j) -> heap_write(HeapId(anchor_F(a_k), prop)).
	for _, phw := range eff.paramToHeapWrite {
		anchor, ok := argAnchor(call, phw.toParamAnchor, callerAnchors)
		if !ok {
			continue
		}
		heapID, err := ids.NewHeapID(anchor, phw.prop)
		if err != nil {
			continue
		}
		g.addEdge(cheappass.CallArgNode(csID, phw.fromParam), cheappass.HeapWriteNode(heapID))
	}

	// 3. heap_read -> return: heap_read(HeapId(anchor_F(a_k), prop)) -> var(dst(c)).
	if call.Dst != nil {
		for _, hr := range eff.heapReadToReturn {
			anchor, ok := argAnchor(call, hr.paramAnchor, callerAnchors)
			if !ok {
				continue
			}
			heapID, err := ids.NewHeapID(anchor, hr.prop)
			if err != nil {
				continue
			}
			g.addEdge(cheappass.HeapReadNode(heapID), cheappass.VarNode(*call.Dst))
		}
	}

	// 4. heap_read -> heap_write across two arguments.
	for _, hh := range eff.heapReadToHeapWrite {
		fromAnchor, fromOK := argAnchor(call, hh.fromAnchor, callerAnchors)
		toAnchor, toOK := argAnchor(call, hh.toAnchor, callerAnchors)
		if !fromOK || !toOK {
			continue
		}
		fromHeap, err1 := ids.NewHeapID(fromAnchor, hh.fromProp)
		toHeap, err2 := ids.NewHeapID(toAnchor, hh.toProp)
		if err1 != nil || err2 != nil {
			continue
		}
		g.addEdge(cheappass.HeapReadNode(fromHeap), cheappass.HeapWriteNode(toHeap))
	}
}
