package fixpoint

import (
	"sort"

	"jsflow/internal/callgraph"
	"jsflow/internal/canon"
	"jsflow/internal/cheappass"
	"jsflow/internal/config"
	"jsflow/internal/diagnostics"
	"jsflow/internal/facts"
	"jsflow/internal/ids"
	"jsflow/internal/ir"
	"jsflow/internal/summary"
)

// Inputs bundles everything the driver needs per spec.md §4.9: the mapped
// call graph plus, per function, its normalized IR, its baseline cheap-pass
// result (for argument anchors), and its accepted summary (the seed for the
// function's local graph).
type Inputs struct {
	CallEdges []callgraph.MappedCallEdge
	IR        map[ids.FuncId]*ir.FuncIR
	Baseline  map[ids.FuncId]*cheappass.Result
	Summaries map[ids.FuncId]*summary.Summary
}

// Run drives the worklist fixpoint to convergence and returns the final,
// deduplicated, canonically sorted FlowFact set.
func Run(in Inputs, cfg *config.PipelineConfig) ([]facts.FlowFact, error) {
	callsByCaller := make(map[ids.FuncId][]callgraph.MappedCallEdge)
	callersByCallee := make(map[ids.FuncId][]ids.FuncId)
	seenCallerForCallee := make(map[ids.FuncId]map[ids.FuncId]bool)

	var allFuncs []ids.FuncId
	for fn := range in.IR {
		allFuncs = append(allFuncs, fn)
	}
	sort.Slice(allFuncs, func(i, j int) bool { return ids.CmpFuncID(allFuncs[i], allFuncs[j]) < 0 })

	for _, e := range in.CallEdges {
		if _, ok := in.IR[e.CallerFuncID]; !ok {
			return nil, diagnostics.New(diagnostics.InvariantViolation, e.CallerFuncID.String(), "no IR for mapped caller")
		}
		if _, ok := in.Summaries[e.CalleeFuncID]; !ok {
			return nil, diagnostics.New(diagnostics.InvariantViolation, e.CalleeFuncID.String(), "no summary for mapped callee")
		}
		callsByCaller[e.CallerFuncID] = append(callsByCaller[e.CallerFuncID], e)
		if seenCallerForCallee[e.CalleeFuncID] == nil {
			seenCallerForCallee[e.CalleeFuncID] = make(map[ids.FuncId]bool)
		}
		if !seenCallerForCallee[e.CalleeFuncID][e.CallerFuncID] {
			seenCallerForCallee[e.CalleeFuncID][e.CallerFuncID] = true
			callersByCallee[e.CalleeFuncID] = append(callersByCallee[e.CalleeFuncID], e.CallerFuncID)
		}
	}
	for callee := range callersByCallee {
		callers := callersByCallee[callee]
		sort.Slice(callers, func(i, j int) bool { return ids.CmpFuncID(callers[i], callers[j]) < 0 })
		callersByCallee[callee] = callers
	}

	state := make(map[ids.FuncId][]cheappass.Edge, len(allFuncs))

	queue := append([]ids.FuncId(nil), allFuncs...)
	inQueue := make(map[ids.FuncId]bool, len(allFuncs))
	for _, fn := range allFuncs {
		inQueue[fn] = true
	}

	steps := 0
	for len(queue) > 0 {
		if steps >= cfg.MaxSteps {
			return nil, diagnostics.New(diagnostics.FixpointOverflow, "fixpoint", "exceeded maxSteps=%d", cfg.MaxSteps)
		}
		steps++

		fn := queue[0]
		queue = queue[1:]
		inQueue[fn] = false

		next := recompute(fn, in, state, callsByCaller[fn], cfg.HeapAnchorParamBase)
		if factKeysChanged(state[fn], next) {
			state[fn] = next
			for _, caller := range callersByCallee[fn] {
				if !inQueue[caller] {
					inQueue[caller] = true
					queue = append(queue, caller)
				}
			}
		}
	}

	var out []facts.FlowFact
	for fn, edges := range state {
		for _, e := range edges {
			out = append(out, facts.New(fn, e.From, e.To))
		}
	}
	return facts.Dedup(out), nil
}

func recompute(fn ids.FuncId, in Inputs, state map[ids.FuncId][]cheappass.Edge, calls []callgraph.MappedCallEdge, paramBase int64) []cheappass.Edge {
	g := newLocalGraph(in.Summaries[fn].Edges)

	for _, c := range calls {
		calleeIR := in.IR[c.CalleeFuncID]
		if calleeIR == nil {
			continue
		}
		eff := deriveEffects(c.CalleeFuncID, state[c.CalleeFuncID], paramBase, len(calleeIR.Params))
		liftCallsite(g, in.IR[fn], in.Baseline[fn].Anchors, c.CallsiteID, eff)
	}

	var paramNodes []cheappass.Node
	for _, p := range in.IR[fn].Params {
		paramNodes = append(paramNodes, cheappass.VarNode(p))
	}

	var edges []cheappass.Edge
	for _, seed := range seeds(g, paramNodes) {
		for _, sink := range reachableSinks(g, seed) {
			edges = append(edges, cheappass.Edge{From: seed, To: sink})
		}
	}
	return dedupAndSort(edges)
}

func dedupAndSort(edges []cheappass.Edge) []cheappass.Edge {
	seen := make(map[string]bool, len(edges))
	out := make([]cheappass.Edge, 0, len(edges))
	for _, e := range edges {
		k := e.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, e)
	}
	canon.StableSort(out, cheappass.CmpEdge)
	return out
}

func factKeysChanged(old, next []cheappass.Edge) bool {
	if len(old) != len(next) {
		return true
	}
	for i := range old {
		if old[i].Key() != next[i].Key() {
			return true
		}
	}
	return false
}
