package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jsflow/internal/astmodel"
	"jsflow/internal/cheappass"
	"jsflow/internal/config"
	"jsflow/internal/index"
	"jsflow/internal/ir"
	"jsflow/internal/summary"
)

func identityFuncIR(t *testing.T) *ir.FuncIR {
	t.Helper()
	ret := &astmodel.Node{
		Kind: astmodel.KindReturnStmt, Start: 10, End: 20,
		Value: &astmodel.Node{Kind: astmodel.KindIdentifier, Name: "x", Start: 17, End: 18},
	}
	body := &astmodel.Node{Kind: astmodel.KindBlock, Start: 9, End: 21, Children: []*astmodel.Node{ret}}
	fnNode := &astmodel.Node{Kind: astmodel.KindFunctionDecl, Start: 0, End: 21, Params: []string{"x"}, Body: body}
	root := &astmodel.Node{Kind: astmodel.KindBlock, Children: []*astmodel.Node{fnNode}}
	program := astmodel.Program{Files: []astmodel.SourceFile{{Path: "src/id.ts", Root: root}}}

	idx, err := index.Build(program)
	require.NoError(t, err)
	fn := idx.Functions.All()[0]
	funcIR, err := ir.Build(fn, idx.Statements)
	require.NoError(t, err)
	require.NoError(t, ir.Normalize(funcIR))
	return funcIR
}

func TestCache_RoundTrip(t *testing.T) {
	funcIR := identityFuncIR(t)
	baseline, err := cheappass.Run(funcIR, config.DefaultPipelineConfig())
	require.NoError(t, err)
	s := summary.FromBaseline(funcIR.FuncID, baseline)
	require.NoError(t, summary.Normalize(s, funcIR, baseline, config.DefaultPipelineConfig()))

	c := New(t.TempDir())
	hash, err := Key(1, funcIR)
	require.NoError(t, err)
	require.Len(t, hash, 64)

	_, found, err := c.Get(hash)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Put(hash, s))

	got, found, err := c.Get(hash)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, s.FuncID, got.FuncID)
	require.Len(t, got.Edges, len(s.Edges))
	assert.Equal(t, s.Edges[0].Key(), got.Edges[0].Key())
}

func TestCache_PutIsImmutable(t *testing.T) {
	funcIR := identityFuncIR(t)
	baseline, err := cheappass.Run(funcIR, config.DefaultPipelineConfig())
	require.NoError(t, err)
	s := summary.FromBaseline(funcIR.FuncID, baseline)
	require.NoError(t, summary.Normalize(s, funcIR, baseline, config.DefaultPipelineConfig()))

	root := t.TempDir()
	c := New(root)
	hash, err := Key(1, funcIR)
	require.NoError(t, err)
	require.NoError(t, c.Put(hash, s))

	info1, err := os.Stat(filepath.Join(root, "func_summaries", hash[0:2], hash[2:4], hash+".json"))
	require.NoError(t, err)

	empty := &summary.Summary{SchemaVersion: summary.SchemaVersion, FuncID: s.FuncID}
	require.NoError(t, c.Put(hash, empty))

	info2, err := os.Stat(filepath.Join(root, "func_summaries", hash[0:2], hash[2:4], hash+".json"))
	require.NoError(t, err)
	assert.Equal(t, info1.Size(), info2.Size())
}
