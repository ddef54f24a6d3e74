// Package fixpoint implements the deterministic interprocedural worklist from
// spec.md §4.9: it lifts callee summary effects through callsites into caller
// local graphs and re-runs local reachability until every function's fact set
// stops changing.
package fixpoint

import (
	"jsflow/internal/cheappass"
)

// localGraph is one function's adjacency map, the per-function local graph
// from spec.md §4.9: vertices are cheappass.Node values, edges point from a
// baseline/lifted source to whatever it reaches directly.
type localGraph map[cheappass.Node][]cheappass.Node

func newLocalGraph(edges []cheappass.Edge) localGraph {
	g := make(localGraph)
	for _, e := range edges {
		g[e.From] = append(g[e.From], e.To)
	}
	return g
}

func (g localGraph) addEdge(from, to cheappass.Node) {
	g[from] = append(g[from], to)
}

// seeds returns every parameter var node among declaredParams plus every
// heap_read node that appears as an edge source in g, per spec.md §4.9's
// "starting from each parameter and each heap_read source".
func seeds(g localGraph, declaredParams []cheappass.Node) []cheappass.Node {
	out := append([]cheappass.Node(nil), declaredParams...)
	seen := make(map[cheappass.Node]bool, len(out))
	for _, s := range out {
		seen[s] = true
	}
	for from := range g {
		if from.Kind == cheappass.NHeapRead && !seen[from] {
			seen[from] = true
			out = append(out, from)
		}
	}
	return out
}

// reachableSinks returns every node reachable from seed in g whose Kind is
// NReturn, NCallArg, or NHeapWrite — the fact-emitting sink kinds of spec.md
// §4.9's local reachability BFS.
func reachableSinks(g localGraph, seed cheappass.Node) []cheappass.Node {
	visited := map[cheappass.Node]bool{seed: true}
	queue := []cheappass.Node{seed}
	var sinks []cheappass.Node
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, next := range g[n] {
			if visited[next] {
				continue
			}
			visited[next] = true
			queue = append(queue, next)
			switch next.Kind {
			case cheappass.NReturn, cheappass.NCallArg, cheappass.NHeapWrite:
				sinks = append(sinks, next)
			}
		}
	}
	return sinks
}
