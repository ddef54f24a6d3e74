package fixpoint

import (
	"jsflow/internal/cheappass"
	"jsflow/internal/ids"
)

// effects is the structural summary of a callee's current FuncState that the
// lifter needs, spec.md §4.9's "Effects for G are derived from its current
// FuncState by filtering facts whose endpoints are on synthetic anchors
// belonging to G's parameters, and extracting the (paramIndex, propertyName)
// tuples."
type effects struct {
	// paramToReturn[i] holds iff param i reaches return.
	paramToReturn map[int]bool
	// paramToHeapWrite holds (fromParam, toParamAnchor, prop) for every
	// p_fromParam -> heap_write(HeapId(synth(G,toParamAnchor), prop)).
	paramToHeapWrite []paramHeapWrite
	// heapReadToReturn holds (paramAnchor, prop) for every
	// heap_read(HeapId(synth(G,paramAnchor), prop)) -> return.
	heapReadToReturn []anchorProp
	// heapReadToHeapWrite holds (fromAnchor, fromProp, toAnchor, toProp) for
	// every heap_read(synth(G,fromAnchor),fromProp) -> heap_write(synth(G,toAnchor),toProp).
	heapReadToHeapWrite []heapToHeap
}

type paramHeapWrite struct {
	fromParam     int
	toParamAnchor int
	prop          string
}

type anchorProp struct {
	paramAnchor int
	prop        string
}

type heapToHeap struct {
	fromAnchor int
	fromProp   string
	toAnchor   int
	toProp     string
}

// paramAnchorIndex reports whether stmtID is a synthetic parameter anchor of
// fn (spec.md §4.5: synth(funcId, i) for i = paramBase..paramBase+len(params)-1),
// returning the parameter index i and true if so.
func paramAnchorIndex(stmtID ids.StmtId, fn ids.FuncId, paramBase int64, numParams int) (int, bool) {
	if stmtID.Func != fn {
		return 0, false
	}
	offset := int64(stmtID.Index) - paramBase
	if offset < 0 || offset >= int64(numParams) {
		return 0, false
	}
	return int(offset), true
}

// deriveEffects scans state (G's current fact set) for the structural
// properties the lifter needs, per spec.md §4.9.
func deriveEffects(fn ids.FuncId, state []cheappass.Edge, paramBase int64, numParams int) effects {
	eff := effects{paramToReturn: make(map[int]bool)}
	for _, e := range state {
		switch {
		case e.From.Kind == cheappass.NVar && e.From.Var.Kind == ids.KindParam && e.To.Kind == cheappass.NReturn:
			eff.paramToReturn[e.From.Var.Index] = true

		case e.From.Kind == cheappass.NVar && e.From.Var.Kind == ids.KindParam && e.To.Kind == cheappass.NHeapWrite:
			if k, ok := paramAnchorIndex(e.To.Heap.AllocSite, fn, paramBase, numParams); ok {
				eff.paramToHeapWrite = append(eff.paramToHeapWrite, paramHeapWrite{
					fromParam: e.From.Var.Index, toParamAnchor: k, prop: e.To.Heap.Property,
				})
			}

		case e.From.Kind == cheappass.NHeapRead && e.To.Kind == cheappass.NReturn:
			if k, ok := paramAnchorIndex(e.From.Heap.AllocSite, fn, paramBase, numParams); ok {
				eff.heapReadToReturn = append(eff.heapReadToReturn, anchorProp{paramAnchor: k, prop: e.From.Heap.Property})
			}

		case e.From.Kind == cheappass.NHeapRead && e.To.Kind == cheappass.NHeapWrite:
			fromK, fromOK := paramAnchorIndex(e.From.Heap.AllocSite, fn, paramBase, numParams)
			toK, toOK := paramAnchorIndex(e.To.Heap.AllocSite, fn, paramBase, numParams)
			if fromOK && toOK {
				eff.heapReadToHeapWrite = append(eff.heapReadToHeapWrite, heapToHeap{
					fromAnchor: fromK, fromProp: e.From.Heap.Property,
					toAnchor: toK, toProp: e.To.Heap.Property,
				})
			}
		}
	}
	return eff
}
