package callgraph

import (
	"sort"

	"bitbucket.org/creachadair/stringset"

	"jsflow/internal/diagnostics"
	"jsflow/internal/ids"
	"jsflow/internal/index"
)

// Mode selects strict or lenient path resolution, spec.md §4.8.
type Mode int

const (
	Strict Mode = iota
	Lenient
)

// MappedCallEdge is `(callerFuncId, calleeFuncId, callsiteId)` with the
// invariant that callsiteId belongs to callerFuncId's span, spec.md §3.
type MappedCallEdge struct {
	CallerFuncID ids.FuncId
	CalleeFuncID ids.FuncId
	CallsiteID   ids.CallsiteId
}

// Map resolves graph's nodes and call edges against fnIdx/callIdx. In Lenient
// mode, resolution failures accumulate as diagnostics and the corresponding
// edges are skipped; the returned error is always nil. In Strict mode any
// resolution failure is fatal: Map returns a single consolidated error
// summarizing every failure. An unresolved node is listed with its three
// nearest indexed file paths; an unresolved callsite is listed without
// candidates.
func Map(graph *ExternalGraph, fnIdx *index.FunctionIndex, callIdx *index.CallsiteIndex, mode Mode) ([]MappedCallEdge, *diagnostics.List, error) {
	diags := diagnostics.NewList()
	indexedPaths := distinctFilePaths(fnIdx)

	nodeToFunc := make(map[string]ids.FuncId, len(graph.Nodes))
	var strictFailures []string
	for _, n := range graph.Nodes {
		fn, warn, ok := resolveNode(n, fnIdx, indexedPaths, mode)
		if !ok {
			msg := "no indexed function matches " + n.String()
			if mode == Strict {
				strictFailures = append(strictFailures, formatStrictFailure(n, indexedPaths))
			}
			diags.Add(diagnostics.Diagnostic{
				FilePath: n.FilePath, Start: n.Start, End: n.End, SubjectID: n.ID,
				Level: diagnostics.LevelError, Category: diagnostics.Resolution, Message: msg,
			})
			continue
		}
		if warn != "" {
			diags.Add(diagnostics.Diagnostic{
				FilePath: n.FilePath, Start: n.Start, End: n.End, SubjectID: n.ID,
				Level: diagnostics.LevelWarning, Category: diagnostics.Resolution,
				Message: "resolved node via lenient " + warn + " match",
			})
		}
		nodeToFunc[n.ID] = fn
	}

	var mapped []MappedCallEdge
	for _, e := range graph.Edges {
		if !e.isCall() {
			continue
		}
		callerFn, callerOK := nodeToFunc[e.CallerID]
		calleeFn, calleeOK := nodeToFunc[e.CalleeID]
		if !callerOK || !calleeOK {
			continue // already diagnosed above as a node-resolution failure
		}
		callsiteID, ok := resolveCallsite(callerFn, e.Callsite, callIdx)
		if !ok {
			msg := "no callsite in " + callerFn.String() + " matches span"
			if mode == Strict {
				strictFailures = append(strictFailures, msg)
			}
			diags.Add(diagnostics.Diagnostic{
				FilePath: e.Callsite.FilePath, Start: e.Callsite.Start, End: e.Callsite.End,
				SubjectID: e.CallerID, Level: diagnostics.LevelError,
				Category: diagnostics.Resolution, Message: msg,
			})
			continue
		}
		mapped = append(mapped, MappedCallEdge{CallerFuncID: callerFn, CalleeFuncID: calleeFn, CallsiteID: callsiteID})
	}

	if mode == Strict && len(strictFailures) > 0 {
		return nil, diags, diagnostics.New(diagnostics.Resolution, "callgraph", "%d strict-mode resolution failure(s):\n  %s", len(strictFailures), joinLines(strictFailures))
	}
	sortMapped(mapped)
	return mapped, diags, nil
}

func resolveNode(n ExternalNode, fnIdx *index.FunctionIndex, indexedPaths []string, mode Mode) (ids.FuncId, string, bool) {
	if entry, ok := fnIdx.BySpan(n.FilePath, n.Start, n.End); ok {
		return entry.ID, "", true
	}
	if mode == Strict {
		return ids.FuncId{}, "", false
	}
	matchedPath, level, ok := resolveLenient(n.FilePath, indexedPaths)
	if !ok {
		return ids.FuncId{}, "", false
	}
	entry, ok := fnIdx.BySpan(matchedPath, n.Start, n.End)
	if !ok {
		return ids.FuncId{}, "", false
	}
	return entry.ID, level, true
}

func resolveCallsite(caller ids.FuncId, site ExternalCallsite, callIdx *index.CallsiteIndex) (ids.CallsiteId, bool) {
	for _, entry := range callIdx.ByFunc(caller) {
		if entry.Node.Start == site.Start && entry.Node.End == site.End {
			return entry.ID, true
		}
	}
	return ids.CallsiteId{}, false
}

func distinctFilePaths(fnIdx *index.FunctionIndex) []string {
	seen := stringset.New()
	for _, e := range fnIdx.All() {
		seen.Add(e.File)
	}
	return seen.Elements()
}

func sortMapped(edges []MappedCallEdge) {
	sort.Slice(edges, func(i, j int) bool {
		a, b := edges[i], edges[j]
		if c := ids.CmpFuncID(a.CallerFuncID, b.CallerFuncID); c != 0 {
			return c < 0
		}
		if c := ids.CmpStmtID(a.CallsiteID, b.CallsiteID); c != 0 {
			return c < 0
		}
		return ids.CmpFuncID(a.CalleeFuncID, b.CalleeFuncID) < 0
	})
}

func formatStrictFailure(n ExternalNode, indexedPaths []string) string {
	candidates := nearestCandidates(n.FilePath, indexedPaths, 3)
	msg := "no indexed function matches " + n.String() + "; nearest candidates: "
	if len(candidates) == 0 {
		return msg + "(none indexed)"
	}
	return msg + joinLines(candidates)
}

func joinLines(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += ", "
		}
		out += l
	}
	return out
}
