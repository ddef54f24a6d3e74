package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jsflow/internal/astmodel"
	"jsflow/internal/index"
	"jsflow/internal/ids"
)

// identityProgram models: function id(x) { return x; } — spec.md §8 scenario 1.
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

func buildOne(t *testing.T, program astmodel.Program) (*FuncIR, index.FunctionEntry) {
	t.Helper()
	idx, err := index.Build(program)
	require.NoError(t, err)
	require.Len(t, idx.Functions.All(), 1)
	fn := idx.Functions.All()[0]
	funcIR, err := Build(fn, idx.Statements)
	require.NoError(t, err)
	require.NoError(t, Normalize(funcIR))
	return funcIR, fn
}

func TestBuild_IdentityFunction(t *testing.T) {
	funcIR, _ := buildOne(t, identityProgram())
	require.Len(t, funcIR.Params, 1)
	assert.Equal(t, ids.Param(0), funcIR.Params[0])
	assert.Empty(t, funcIR.Locals)
	require.Len(t, funcIR.Stmts, 1)
	stmt := funcIR.Stmts[0]
	assert.Equal(t, SReturn, stmt.Kind)
	require.NotNil(t, stmt.Value)
	assert.Equal(t, RVar, stmt.Value.Kind)
	assert.Equal(t, ids.Param(0), stmt.Value.Var)
}

// twoHopProgram models: function a(x) { const v = b(x); return v; } — the
// caller half of spec.md §8 scenario 2.
func twoHopProgram() astmodel.Program {
	call := &astmodel.Node{
		Kind: astmodel.KindCallExpr, Start: 20, End: 24,
		Callee: &astmodel.Node{Kind: astmodel.KindIdentifier, Name: "b", Start: 20, End: 21},
		Args:   []*astmodel.Node{{Kind: astmodel.KindIdentifier, Name: "x", Start: 22, End: 23}},
	}
	decl := &astmodel.Node{Kind: astmodel.KindVarDecl, Start: 14, End: 25, DeclName: "v", Value: call}
	ret := &astmodel.Node{
		Kind: astmodel.KindReturnStmt, Start: 27, End: 36,
		Value: &astmodel.Node{Kind: astmodel.KindIdentifier, Name: "v", Start: 34, End: 35},
	}
	body := &astmodel.Node{Kind: astmodel.KindBlock, Start: 13, End: 38, Children: []*astmodel.Node{decl, ret}}
	fn := &astmodel.Node{Kind: astmodel.KindFunctionDecl, Start: 0, End: 38, Params: []string{"x"}, Body: body}
	root := &astmodel.Node{Kind: astmodel.KindBlock, Children: []*astmodel.Node{fn}}
	return astmodel.Program{Files: []astmodel.SourceFile{{Path: "src/a.ts", Root: root}}}
}

func TestBuild_CallAssignedToLocalThenReturned(t *testing.T) {
	funcIR, _ := buildOne(t, twoHopProgram())
	require.Len(t, funcIR.Locals, 1)
	assert.Equal(t, ids.Local(0), funcIR.Locals[0])
	require.Len(t, funcIR.Stmts, 2)

	call := funcIR.Stmts[0]
	require.Equal(t, SCall, call.Kind)
	require.NotNil(t, call.Dst)
	assert.Equal(t, ids.Local(0), *call.Dst)
	require.Len(t, call.Args, 1)
	assert.Equal(t, ids.Param(0), call.Args[0].Var)

	ret := funcIR.Stmts[1]
	assert.Equal(t, SReturn, ret.Kind)
	require.NotNil(t, ret.Value)
	assert.Equal(t, ids.Local(0), ret.Value.Var)
}

// dynamicHeapWriteProgram models: function f(o, k, v) { o[k] = v; } — spec.md
// §8 scenario 3.
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

func TestBuild_DynamicKeyMemberWrite(t *testing.T) {
	funcIR, _ := buildOne(t, dynamicHeapWriteProgram())
	require.Len(t, funcIR.Stmts, 1)
	write := funcIR.Stmts[0]
	require.Equal(t, SMemberWrite, write.Kind)
	assert.Equal(t, ids.Param(0), write.Object)
	assert.True(t, write.Prop.Dynamic)
	assert.Equal(t, ids.DynamicProperty, write.Prop.Name)
	assert.Equal(t, ids.Param(2), write.Src.Var)
}

// optionalChainProgram models: function g(obj) { const v = obj?.value ?? "d"; return v; }
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

func TestBuild_OptionalChainNullishPeelsToMemberRead(t *testing.T) {
	funcIR, _ := buildOne(t, optionalChainProgram())
	require.Len(t, funcIR.Stmts, 2)
	read := funcIR.Stmts[0]
	require.Equal(t, SMemberRead, read.Kind)
	assert.Equal(t, ids.Param(0), read.Object)
	assert.Equal(t, "value", read.Prop.Name)
	assert.True(t, read.Optional)
	require.NotNil(t, read.Dst)
	assert.Equal(t, ids.Local(0), *read.Dst)
}
