package fixpoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"jsflow/internal/astmodel"
	"jsflow/internal/callgraph"
	"jsflow/internal/cheappass"
	"jsflow/internal/config"
	"jsflow/internal/ids"
	"jsflow/internal/index"
	"jsflow/internal/ir"
	"jsflow/internal/summary"
)

// TestMain verifies the worklist driver leaves no goroutines running after its
// fixpoint loop returns (the loop itself is single-threaded, spec.md §5, but
// this guards against a future regression that spawns per-edge workers).
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// buildFunc runs index+ir+normalize+cheappass+summary for every function in
// program and returns the pieces Run needs, keyed by FuncId.
func buildFunc(t *testing.T, program astmodel.Program, cfg *config.PipelineConfig) Inputs {
	t.Helper()
	idx, err := index.Build(program)
	require.NoError(t, err)

	in := Inputs{
		IR:        make(map[ids.FuncId]*ir.FuncIR),
		Baseline:  make(map[ids.FuncId]*cheappass.Result),
		Summaries: make(map[ids.FuncId]*summary.Summary),
	}
	for _, fn := range idx.Functions.All() {
		funcIR, err := ir.Build(fn, idx.Statements)
		require.NoError(t, err)
		require.NoError(t, ir.Normalize(funcIR))

		baseline, err := cheappass.Run(funcIR, cfg)
		require.NoError(t, err)

		s := summary.FromBaseline(funcIR.FuncID, baseline)
		require.NoError(t, summary.Normalize(s, funcIR, baseline, cfg))

		in.IR[funcIR.FuncID] = funcIR
		in.Baseline[funcIR.FuncID] = baseline
		in.Summaries[funcIR.FuncID] = s
	}
	return in
}

// twoHopProgram builds:
//
//	function b(y) { return y; }
//	function a(x) { const v = b(x); return v; }
func twoHopProgram() astmodel.Program {
	bReturn := &astmodel.Node{Kind: astmodel.KindReturnStmt, Start: 20, End: 29, Value: &astmodel.Node{Kind: astmodel.KindIdentifier, Name: "y", Start: 27, End: 28}}
	bBody := &astmodel.Node{Kind: astmodel.KindBlock, Start: 19, End: 30, Children: []*astmodel.Node{bReturn}}
	bFn := &astmodel.Node{Kind: astmodel.KindFunctionDecl, Start: 0, End: 30, Params: []string{"y"}, Body: bBody}

	call := &astmodel.Node{
		Kind: astmodel.KindCallExpr, Start: 50, End: 54,
		Callee: &astmodel.Node{Kind: astmodel.KindIdentifier, Name: "b", Start: 50, End: 51},
		Args:   []*astmodel.Node{{Kind: astmodel.KindIdentifier, Name: "x", Start: 52, End: 53}},
	}
	decl := &astmodel.Node{Kind: astmodel.KindVarDecl, Start: 45, End: 55, DeclName: "v", Value: call}
	aReturn := &astmodel.Node{Kind: astmodel.KindReturnStmt, Start: 56, End: 64, Value: &astmodel.Node{Kind: astmodel.KindIdentifier, Name: "v", Start: 63, End: 64}}
	aBody := &astmodel.Node{Kind: astmodel.KindBlock, Start: 44, End: 65, Children: []*astmodel.Node{decl, aReturn}}
	aFn := &astmodel.Node{Kind: astmodel.KindFunctionDecl, Start: 31, End: 65, Params: []string{"x"}, Body: aBody}

	root := &astmodel.Node{Kind: astmodel.KindBlock, Children: []*astmodel.Node{bFn, aFn}}
	return astmodel.Program{Files: []astmodel.SourceFile{{Path: "src/two_hop.ts", Root: root}}}
}

func findFn(t *testing.T, in Inputs, start, end int) ids.FuncId {
	t.Helper()
	for fn := range in.IR {
		if fn.Start == start && fn.End == end {
			return fn
		}
	}
	t.Fatalf("no function with span [%d,%d)", start, end)
	return ids.FuncId{}
}

func findCallsite(t *testing.T, f *ir.FuncIR) ids.CallsiteId {
	t.Helper()
	for _, s := range f.Stmts {
		if s.Kind == ir.SCall {
			return s.Anchor
		}
	}
	t.Fatal("no call statement found")
	return ids.StmtId{}
}

func TestRun_TwoHopParamPropagation(t *testing.T) {
	cfg := config.DefaultPipelineConfig()
	in := buildFunc(t, twoHopProgram(), cfg)

	aFn := findFn(t, in, 31, 65)
	bFn := findFn(t, in, 0, 30)
	cs := findCallsite(t, in.IR[aFn])

	in.CallEdges = []callgraph.MappedCallEdge{{CallerFuncID: aFn, CalleeFuncID: bFn, CallsiteID: cs}}

	out, err := Run(in, cfg)
	require.NoError(t, err)

	var hasArgEdge, hasReturnEdge, bHasReturn bool
	for _, f := range out {
		if f.Func == aFn && f.From.Kind == cheappass.NVar && f.From.Var == ids.Param(0) {
			switch {
			case f.To.Kind == cheappass.NCallArg && f.To.ArgIndex == 0:
				hasArgEdge = true
			case f.To.Kind == cheappass.NReturn:
				hasReturnEdge = true
			}
		}
		if f.Func == bFn && f.From.Kind == cheappass.NVar && f.From.Var == ids.Param(0) && f.To.Kind == cheappass.NReturn {
			bHasReturn = true
		}
	}
	assert.True(t, hasArgEdge, "expected a.p0 -> call_arg(csA0,0)")
	assert.True(t, hasReturnEdge, "expected a.p0 -> return(a) via lifting through b")
	assert.True(t, bHasReturn, "expected b.p0 -> return(b)")
}

// heapLiftProgram builds:
//
//	function setX(obj, val) { obj.x = val; }
//	function a(x, y) { setX(x, y); }
func heapLiftProgram() astmodel.Program {
	write := &astmodel.Node{
		Kind: astmodel.KindAssignExpr, Start: 30, End: 42,
		Target: &astmodel.Node{Kind: astmodel.KindMemberExpr, Start: 30, End: 37,
			Object: &astmodel.Node{Kind: astmodel.KindIdentifier, Name: "obj", Start: 30, End: 33},
			Property: &astmodel.Node{Kind: astmodel.KindIdentifier, Name: "x", Start: 34, End: 35}},
		Value: &astmodel.Node{Kind: astmodel.KindIdentifier, Name: "val", Start: 39, End: 42},
	}
	writeStmt := &astmodel.Node{Kind: astmodel.KindExprStmt, Start: 30, End: 43, Value: write}
	setXBody := &astmodel.Node{Kind: astmodel.KindBlock, Start: 29, End: 44, Children: []*astmodel.Node{writeStmt}}
	setXFn := &astmodel.Node{Kind: astmodel.KindFunctionDecl, Start: 0, End: 44, Params: []string{"obj", "val"}, Body: setXBody}

	call := &astmodel.Node{
		Kind: astmodel.KindCallExpr, Start: 70, End: 80,
		Callee: &astmodel.Node{Kind: astmodel.KindIdentifier, Name: "setX", Start: 70, End: 74},
		Args: []*astmodel.Node{
			{Kind: astmodel.KindIdentifier, Name: "x", Start: 75, End: 76},
			{Kind: astmodel.KindIdentifier, Name: "y", Start: 78, End: 79},
		},
	}
	callStmt := &astmodel.Node{Kind: astmodel.KindExprStmt, Start: 70, End: 81, Value: call}
	aBody := &astmodel.Node{Kind: astmodel.KindBlock, Start: 69, End: 82, Children: []*astmodel.Node{callStmt}}
	aFn := &astmodel.Node{Kind: astmodel.KindFunctionDecl, Start: 45, End: 82, Params: []string{"x", "y"}, Body: aBody}

	root := &astmodel.Node{Kind: astmodel.KindBlock, Children: []*astmodel.Node{setXFn, aFn}}
	return astmodel.Program{Files: []astmodel.SourceFile{{Path: "src/heap_lift.ts", Root: root}}}
}

func TestRun_HeapLiftingAcrossCallsite(t *testing.T) {
	cfg := config.DefaultPipelineConfig()
	in := buildFunc(t, heapLiftProgram(), cfg)

	aFn := findFn(t, in, 45, 82)
	setXFn := findFn(t, in, 0, 44)
	cs := findCallsite(t, in.IR[aFn])

	in.CallEdges = []callgraph.MappedCallEdge{{CallerFuncID: aFn, CalleeFuncID: setXFn, CallsiteID: cs}}

	out, err := Run(in, cfg)
	require.NoError(t, err)

	anchorP0 := in.Baseline[aFn].Anchors[ids.Param(0)]
	wantHeap, err := ids.NewHeapID(anchorP0, "x")
	require.NoError(t, err)

	var found bool
	for _, f := range out {
		if f.Func == aFn && f.From.Kind == cheappass.NVar && f.From.Var == ids.Param(1) &&
			f.To.Kind == cheappass.NHeapWrite && f.To.Heap == wantHeap {
			found = true
		}
	}
	assert.True(t, found, "expected var(a.p1) -> heap_write(HeapId(anchor(a.p0), \"x\"))")
}

func TestRun_IsDeterministicAcrossRepeatedRuns(t *testing.T) {
	cfg := config.DefaultPipelineConfig()
	in := buildFunc(t, twoHopProgram(), cfg)
	aFn := findFn(t, in, 31, 65)
	bFn := findFn(t, in, 0, 30)
	cs := findCallsite(t, in.IR[aFn])
	in.CallEdges = []callgraph.MappedCallEdge{{CallerFuncID: aFn, CalleeFuncID: bFn, CallsiteID: cs}}

	out1, err := Run(in, cfg)
	require.NoError(t, err)
	out2, err := Run(in, cfg)
	require.NoError(t, err)

	require.Len(t, out2, len(out1))
	for i := range out1 {
		assert.Equal(t, out1[i].Key(), out2[i].Key())
	}
}
