package cheappass

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jsflow/internal/astmodel"
	"jsflow/internal/config"
	"jsflow/internal/index"
	"jsflow/internal/ir"
)

func buildResult(t *testing.T, program astmodel.Program) *Result {
	t.Helper()
	idx, err := index.Build(program)
	require.NoError(t, err)
	require.Len(t, idx.Functions.All(), 1)
	fn := idx.Functions.All()[0]
	funcIR, err := ir.Build(fn, idx.Statements)
	require.NoError(t, err)
	require.NoError(t, ir.Normalize(funcIR))
	result, err := Run(funcIR, config.DefaultPipelineConfig())
	require.NoError(t, err)
	return result
}

// identityProgram: function id(x) { return x; } — spec.md §8 scenario 1.
func identityProgram() astmodel.Program {
	ret := &astmodel.Node{
		Kind: astmodel.KindReturnStmt, Start: 10, End: 20,
		Value: &astmodel.Node{Kind: astmodel.KindIdentifier, Name: "x", Start: 17, End: 18},
	}
	body := &astmodel.Node{Kind: astmodel.KindBlock, Start: 9, End: 21, Children: []*astmodel.Node{ret}}
	fn := &astmodel.Node{Kind: astmodel.KindFunctionDecl, Start: 0, End: 21, Params: []string{"x"}, Body: body}
	root := &astmodel.Node{Kind: astmodel.KindBlock, Children: []*astmodel.Node{fn}}
	return astmodel.Program{Files: []astmodel.SourceFile{{Path: "src/id.ts", Root: root}}}
}

func TestRun_IdentityProducesExactlyOneEdge(t *testing.T) {
	result := buildResult(t, identityProgram())
	require.Len(t, result.Edges, 1)
	e := result.Edges[0]
	assert.Equal(t, NVar, e.From.Kind)
	assert.Equal(t, NReturn, e.To.Kind)
}

// dynamicHeapWriteProgram: function f(o, k, v) { o[k] = v; } — spec.md §8
// scenario 3: exactly one edge, heap_write(HeapId(synth(f, paramIdxOf(o)), "*"))
// as target and var(p_v) as source.
func dynamicHeapWriteProgram() astmodel.Program {
	assign := &astmodel.Node{
		Kind: astmodel.KindAssignExpr, Start: 18, End: 26,
		Target: &astmodel.Node{
			Kind: astmodel.KindMemberExpr, Start: 18, End: 22,
			Object:   &astmodel.Node{Kind: astmodel.KindIdentifier, Name: "o", Start: 18, End: 19},
			Property: &astmodel.Node{Kind: astmodel.KindIdentifier, Name: "k", Start: 20, End: 21},
			Computed: true,
		},
		Value: &astmodel.Node{Kind: astmodel.KindIdentifier, Name: "v", Start: 25, End: 26},
	}
	stmt := &astmodel.Node{Kind: astmodel.KindExprStmt, Start: 18, End: 27, Value: assign}
	body := &astmodel.Node{Kind: astmodel.KindBlock, Start: 17, End: 29, Children: []*astmodel.Node{stmt}}
	fn := &astmodel.Node{
		Kind: astmodel.KindFunctionDecl, Start: 0, End: 29,
		Params: []string{"o", "k", "v"}, Body: body,
	}
	root := &astmodel.Node{Kind: astmodel.KindBlock, Children: []*astmodel.Node{fn}}
	return astmodel.Program{Files: []astmodel.SourceFile{{Path: "src/f.ts", Root: root}}}
}

func TestRun_DynamicKeyHeapWrite(t *testing.T) {
	result := buildResult(t, dynamicHeapWriteProgram())
	require.Len(t, result.Edges, 1)
	e := result.Edges[0]
	assert.Equal(t, NVar, e.From.Kind)
	assert.Equal(t, NHeapWrite, e.To.Kind)
	assert.Equal(t, "*", e.To.Heap.Property)
}

// optionalChainProgram: function g(obj) { const v = obj?.value ?? "d"; return v; }
// spec.md §8 scenario 4.
func optionalChainProgram() astmodel.Program {
	member := &astmodel.Node{
		Kind: astmodel.KindMemberExpr, Start: 18, End: 28,
		Object:   &astmodel.Node{Kind: astmodel.KindIdentifier, Name: "obj", Start: 18, End: 21},
		Property: &astmodel.Node{Kind: astmodel.KindIdentifier, Name: "value", Start: 23, End: 28},
		Optional: true,
	}
	nullish := &astmodel.Node{
		Kind: astmodel.KindLogicalExpr, Start: 18, End: 36,
		Op: astmodel.LogicalNullish, Left: member,
		Right: &astmodel.Node{Kind: astmodel.KindLiteral, LiteralKind: astmodel.LiteralString, LiteralValue: "d", Start: 32, End: 35},
	}
	decl := &astmodel.Node{Kind: astmodel.KindVarDecl, Start: 12, End: 37, DeclName: "v", Value: nullish}
	ret := &astmodel.Node{
		Kind: astmodel.KindReturnStmt, Start: 39, End: 48,
		Value: &astmodel.Node{Kind: astmodel.KindIdentifier, Name: "v", Start: 46, End: 47},
	}
	body := &astmodel.Node{Kind: astmodel.KindBlock, Start: 11, End: 50, Children: []*astmodel.Node{decl, ret}}
	fn := &astmodel.Node{Kind: astmodel.KindFunctionDecl, Start: 0, End: 50, Params: []string{"obj"}, Body: body}
	root := &astmodel.Node{Kind: astmodel.KindBlock, Children: []*astmodel.Node{fn}}
	return astmodel.Program{Files: []astmodel.SourceFile{{Path: "src/g.ts", Root: root}}}
}

func TestRun_OptionalChainHeapReadReachesReturn(t *testing.T) {
	result := buildResult(t, optionalChainProgram())
	require.Len(t, result.Edges, 2)
	assert.Equal(t, NHeapRead, result.Edges[1].From.Kind)
	assert.Equal(t, "value", result.Edges[1].From.Heap.Property)
	assert.Equal(t, NVar, result.Edges[1].To.Kind)
	assert.Equal(t, NVar, result.Edges[0].From.Kind)
	assert.Equal(t, NReturn, result.Edges[0].To.Kind)
}

func TestRun_AnchorsEveryDeclaredVariable(t *testing.T) {
	result := buildResult(t, identityProgram())
	assert.Len(t, result.Anchors, 1)
}
