package callgraph

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jsflow/internal/astmodel"
	"jsflow/internal/index"
)

// twoFunctionProgram builds:
//
//	function caller() { return callee(1); }
//	function callee(a) { return a; }
//
// in a single file, with caller calling callee.
func twoFunctionProgram() astmodel.Program {
	arg := &astmodel.Node{Kind: astmodel.KindLiteral, LiteralKind: astmodel.LiteralNumber, LiteralValue: float64(1), Start: 35, End: 36}
	call := &astmodel.Node{
		Kind: astmodel.KindCallExpr, Start: 28, End: 37,
		Callee: &astmodel.Node{Kind: astmodel.KindIdentifier, Name: "callee", Start: 28, End: 34},
		Args:   []*astmodel.Node{arg},
	}
	callerReturn := &astmodel.Node{Kind: astmodel.KindReturnStmt, Start: 21, End: 38, Value: call}
	callerBody := &astmodel.Node{Kind: astmodel.KindBlock, Start: 20, End: 39, Children: []*astmodel.Node{callerReturn}}
	callerFn := &astmodel.Node{Kind: astmodel.KindFunctionDecl, Start: 0, End: 39, Params: nil, Body: callerBody}

	calleeReturn := &astmodel.Node{Kind: astmodel.KindReturnStmt, Start: 60, End: 69, Value: &astmodel.Node{Kind: astmodel.KindIdentifier, Name: "a", Start: 67, End: 68}}
	calleeBody := &astmodel.Node{Kind: astmodel.KindBlock, Start: 59, End: 70, Children: []*astmodel.Node{calleeReturn}}
	calleeFn := &astmodel.Node{Kind: astmodel.KindFunctionDecl, Start: 40, End: 70, Params: []string{"a"}, Body: calleeBody}

	root := &astmodel.Node{Kind: astmodel.KindBlock, Children: []*astmodel.Node{callerFn, calleeFn}}
	return astmodel.Program{Files: []astmodel.SourceFile{{Path: "src/app.ts", Root: root}}}
}

func buildIndices(t *testing.T) (*index.Indices, *astmodel.Node, *astmodel.Node) {
	t.Helper()
	program := twoFunctionProgram()
	idx, err := index.Build(program)
	require.NoError(t, err)
	fns := idx.Functions.All()
	require.Len(t, fns, 2)
	// index.Build sorts by FuncId, not declaration order, so recover both
	// Nodes by matching back against the tree we built.
	callerNode := program.Files[0].Root.Children[0]
	calleeNode := program.Files[0].Root.Children[1]
	return idx, callerNode, calleeNode
}

func graphFor(callerID, calleeID string) *ExternalGraph {
	return &ExternalGraph{
		SchemaVersion: 1,
		Nodes: []ExternalNode{
			{ID: callerID, FilePath: "src/app.ts", Start: 0, End: 39},
			{ID: calleeID, FilePath: "src/app.ts", Start: 40, End: 70},
		},
		Edges: []ExternalEdge{
			{CallerID: callerID, CalleeID: calleeID, Kind: "call", Callsite: ExternalCallsite{FilePath: "src/app.ts", Start: 28, End: 37}},
		},
	}
}

func TestParseExternalGraph_RoundTrips(t *testing.T) {
	g := graphFor("n1", "n2")
	data, err := json.Marshal(g)
	require.NoError(t, err)
	parsed, err := ParseExternalGraph(data)
	require.NoError(t, err)
	assert.Equal(t, g.Nodes, parsed.Nodes)
}

func TestParseExternalGraph_RejectsWrongSchemaVersion(t *testing.T) {
	g := graphFor("n1", "n2")
	g.SchemaVersion = 2
	data, err := json.Marshal(g)
	require.NoError(t, err)
	_, err = ParseExternalGraph(data)
	require.Error(t, err)
}

func TestMap_StrictResolvesExactSpans(t *testing.T) {
	idx, callerNode, calleeNode := buildIndices(t)
	caller, ok := idx.Functions.BySpan("src/app.ts", callerNode.Start, callerNode.End)
	require.True(t, ok)
	callee, ok := idx.Functions.BySpan("src/app.ts", calleeNode.Start, calleeNode.End)
	require.True(t, ok)

	graph := graphFor("n1", "n2")
	mapped, diags, err := Map(graph, idx.Functions, idx.Callsites, Strict)
	require.NoError(t, err)
	assert.False(t, diags.HasErrors())
	require.Len(t, mapped, 1)
	assert.Equal(t, caller.ID, mapped[0].CallerFuncID)
	assert.Equal(t, callee.ID, mapped[0].CalleeFuncID)
}

func TestMap_StrictFailsOnUnresolvedNode(t *testing.T) {
	idx, _, _ := buildIndices(t)
	graph := graphFor("n1", "n2")
	graph.Nodes[0].FilePath = "src/missing.ts"

	_, _, err := Map(graph, idx.Functions, idx.Callsites, Strict)
	require.Error(t, err)
}

func TestMap_LenientResolvesCaseInsensitivePath(t *testing.T) {
	idx, _, _ := buildIndices(t)
	graph := graphFor("n1", "n2")
	graph.Nodes[0].FilePath = "SRC/APP.TS"

	mapped, diags, err := Map(graph, idx.Functions, idx.Callsites, Lenient)
	require.NoError(t, err)
	require.Len(t, mapped, 1)
	assert.True(t, diags.Len() > 0)
}

func TestMap_LenientSkipsUnresolvableEdgeWithoutFailing(t *testing.T) {
	idx, _, _ := buildIndices(t)
	graph := graphFor("n1", "n2")
	graph.Nodes[0].FilePath = "src/nowhere.ts"

	mapped, diags, err := Map(graph, idx.Functions, idx.Callsites, Lenient)
	require.NoError(t, err)
	assert.Empty(t, mapped)
	assert.True(t, diags.HasErrors())
}

func TestMap_SkipsNonCallEdges(t *testing.T) {
	idx, _, _ := buildIndices(t)
	graph := graphFor("n1", "n2")
	graph.Edges[0].Kind = "construct"

	mapped, _, err := Map(graph, idx.Functions, idx.Callsites, Strict)
	require.NoError(t, err)
	assert.Empty(t, mapped)
}

func TestResolveLenient_SuffixAmbiguityFails(t *testing.T) {
	indexed := []string{"pkg/a/util.ts", "pkg/b/util.ts"}
	_, _, ok := resolveLenient("util.ts", indexed)
	assert.False(t, ok)
}

func TestResolveLenient_UniqueSuffixMatches(t *testing.T) {
	indexed := []string{"pkg/a/util.ts", "pkg/b/other.ts"}
	matched, level, ok := resolveLenient("a/util.ts", indexed)
	require.True(t, ok)
	assert.Equal(t, "pkg/a/util.ts", matched)
	assert.Equal(t, "suffix", level)
}
