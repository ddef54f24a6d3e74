package summary

import (
	"jsflow/internal/canon"
	"jsflow/internal/cheappass"
	"jsflow/internal/config"
	"jsflow/internal/diagnostics"
	"jsflow/internal/ids"
	"jsflow/internal/ir"
)

// Normalize validates s against f (the FuncIR it was derived from) and
// baseline (the cheap pass's result for f), bounds it per cfg, de-duplicates
// and sorts its edges, and rewrites s.Edges to the canonical form in place.
// On any validation failure s is left unmodified. The failure modes mirror
// spec.md §4.6's taxonomy, raised through diagnostics categories:
// SchemaViolation (misplaced nodes), InvariantViolation (undeclared ids,
// out-of-range call-arg indices, unknown callsites, heap ids outside the
// baseline or the function's span), BoundsExceeded, and
// BaselineCoverageMissing.
func Normalize(s *Summary, f *ir.FuncIR, baseline *cheappass.Result, cfg *config.PipelineConfig) error {
	declared := make(map[ids.VarId]struct{}, len(f.Params)+len(f.Locals))
	for _, p := range f.Params {
		declared[p] = struct{}{}
	}
	for _, v := range f.Locals {
		declared[v] = struct{}{}
	}

	callArgCounts := make(map[ids.CallsiteId]int)
	for _, stmt := range f.Stmts {
		if stmt.Kind == ir.SCall {
			callArgCounts[stmt.Anchor] = len(stmt.Args)
		}
	}

	baselineHeapIds := baseline.HeapIds()

	for _, e := range s.Edges {
		if err := checkPosition(s.FuncID, e); err != nil {
			return err
		}
		if err := checkNode(s.FuncID, e.From, declared, callArgCounts, baselineHeapIds, f.FuncID); err != nil {
			return err
		}
		if err := checkNode(s.FuncID, e.To, declared, callArgCounts, baselineHeapIds, f.FuncID); err != nil {
			return err
		}
	}

	deduped := dedupEdges(s.Edges)
	canon.StableSort(deduped, cheappass.CmpEdge)

	if len(deduped) > cfg.MaxEdges {
		return diagnostics.New(diagnostics.BoundsExceeded, s.FuncID.String(), "summary has %d edges, exceeds max_edges %d", len(deduped), cfg.MaxEdges)
	}
	if err := checkFanout(s.FuncID, deduped, cfg.MaxFanoutPerSource); err != nil {
		return err
	}
	if err := checkBaselineCoverage(s.FuncID, deduped, baseline.Edges); err != nil {
		return err
	}

	s.Edges = deduped
	return nil
}

// checkPosition enforces the edge-position rules from spec.md §3: from ∈
// {var, heap_read}; to ∈ {var, call_arg, heap_write, return}.
func checkPosition(funcID ids.FuncId, e cheappass.Edge) error {
	switch e.From.Kind {
	case cheappass.NVar, cheappass.NHeapRead:
	default:
		return diagnostics.New(diagnostics.SchemaViolation, funcID.String(), "edge source %s is not a valid from-position node", e.From)
	}
	switch e.To.Kind {
	case cheappass.NVar, cheappass.NCallArg, cheappass.NHeapWrite, cheappass.NReturn:
	default:
		return diagnostics.New(diagnostics.SchemaViolation, funcID.String(), "edge target %s is not a valid to-position node", e.To)
	}
	return nil
}

func checkNode(
	funcID ids.FuncId,
	n cheappass.Node,
	declared map[ids.VarId]struct{},
	callArgCounts map[ids.CallsiteId]int,
	baselineHeapIds map[ids.HeapId]struct{},
	fnSpan ids.FuncId,
) error {
	switch n.Kind {
	case cheappass.NVar:
		if _, ok := declared[n.Var]; !ok {
			return diagnostics.New(diagnostics.InvariantViolation, funcID.String(), "undeclared VarId %s", n.Var)
		}
	case cheappass.NCallArg:
		count, ok := callArgCounts[n.Callsite]
		if !ok {
			return diagnostics.New(diagnostics.InvariantViolation, funcID.String(), "call_arg references non-existent callsite %s", n.Callsite)
		}
		if n.ArgIndex < 0 || n.ArgIndex >= count {
			return diagnostics.New(diagnostics.InvariantViolation, funcID.String(), "call_arg index %d out of range at callsite %s (argCount=%d)", n.ArgIndex, n.Callsite, count)
		}
	case cheappass.NHeapRead, cheappass.NHeapWrite:
		if n.Heap.AllocSite.Func != fnSpan {
			return diagnostics.New(diagnostics.InvariantViolation, funcID.String(), "heap id %s lies outside function span", n.Heap)
		}
		if _, ok := baselineHeapIds[n.Heap]; !ok {
			return diagnostics.New(diagnostics.InvariantViolation, funcID.String(), "heap id %s is not reachable by the cheap pass baseline", n.Heap)
		}
	case cheappass.NReturn:
		// no further validation
	}
	return nil
}

func dedupEdges(edges []cheappass.Edge) []cheappass.Edge {
	seen := make(map[string]struct{}, len(edges))
	out := make([]cheappass.Edge, 0, len(edges))
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

func checkFanout(funcID ids.FuncId, edges []cheappass.Edge, maxFanout int) error {
	fanout := make(map[string]int)
	for _, e := range edges {
		k := e.From.String()
		fanout[k]++
		if fanout[k] > maxFanout {
			return diagnostics.New(diagnostics.BoundsExceeded, funcID.String(), "source %s has fanout exceeding max_fanout_per_source %d", e.From, maxFanout)
		}
	}
	return nil
}

// checkBaselineCoverage enforces spec.md §4.6's baseline coverage invariant:
// every cheap-pass edge must be present in the summary, so an optional
// extractor may only add edges, never drop baseline semantics.
func checkBaselineCoverage(funcID ids.FuncId, edges, baselineEdges []cheappass.Edge) error {
	present := make(map[string]struct{}, len(edges))
	for _, e := range edges {
		present[e.Key()] = struct{}{}
	}
	for _, e := range baselineEdges {
		if _, ok := present[e.Key()]; !ok {
			return diagnostics.New(diagnostics.BaselineCoverageMissing, funcID.String(), "baseline edge %s is missing from the summary", e.Key())
		}
	}
	return nil
}
