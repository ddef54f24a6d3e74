package witness

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jsflow/internal/callgraph"
	"jsflow/internal/ids"
)

func mustFuncID(t *testing.T, path string, start, end int) ids.FuncId {
	t.Helper()
	id, err := ids.NewFuncID(path, start, end)
	require.NoError(t, err)
	return id
}

func TestBuild_OneWitnessPerMappedEdge(t *testing.T) {
	caller := mustFuncID(t, "src/a.ts", 0, 10)
	callee := mustFuncID(t, "src/b.ts", 0, 10)
	cs, err := ids.NewStmtID(caller, 2)
	require.NoError(t, err)

	mapped := []callgraph.MappedCallEdge{{CallerFuncID: caller, CalleeFuncID: callee, CallsiteID: cs}}
	out := Build(mapped)

	require.Len(t, out, 1)
	assert.Equal(t, "call_chain", out[0].Kind)
	require.Len(t, out[0].Steps, 1)
	assert.Equal(t, caller, out[0].Steps[0].CallerFuncID)
	assert.Equal(t, callee, out[0].Steps[0].CalleeFuncID)
	assert.Equal(t, cs, out[0].Steps[0].CallsiteID)
}

func TestWriteJSONL_OneLinePerWitness(t *testing.T) {
	caller := mustFuncID(t, "src/a.ts", 0, 10)
	callee := mustFuncID(t, "src/b.ts", 0, 10)
	cs, err := ids.NewStmtID(caller, 2)
	require.NoError(t, err)
	out := Build([]callgraph.MappedCallEdge{{CallerFuncID: caller, CalleeFuncID: callee, CallsiteID: cs}})

	var buf bytes.Buffer
	require.NoError(t, WriteJSONL(&buf, out))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"kind":"call_chain"`)
}
