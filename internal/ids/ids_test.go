package ids

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuncID_RoundTrip(t *testing.T) {
	fn, err := NewFuncID("src/a.ts", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, "f:src%2Fa.ts:0:10", fn.String())

	parsed, err := ParseFuncID(fn.String())
	require.NoError(t, err)
	assert.Equal(t, fn, parsed)
}

func TestFuncID_RejectsNonCanonical(t *testing.T) {
	cases := []string{
		"f:src%2Fa.ts:00:10",  // leading zero
		"f:src%2Fa.ts:0:10:1", // too many fields
		"x:src%2Fa.ts:0:10",   // wrong tag
		"f:src/a.ts:0:10",     // unescaped separator
	}
	for _, c := range cases {
		_, err := ParseFuncID(c)
		assert.Error(t, err, c)
	}
}

func TestFuncID_RejectsBadPath(t *testing.T) {
	_, err := NewFuncID("/abs/path.ts", 0, 1)
	assert.Error(t, err)
	_, err = NewFuncID("../escape.ts", 0, 1)
	assert.Error(t, err)
	_, err = NewFuncID("a\\b.ts", 0, 1)
	assert.Error(t, err)
	_, err = NewFuncID("a.ts", 5, 2)
	assert.Error(t, err)
}

func TestCmpFuncID_Ordering(t *testing.T) {
	a, _ := NewFuncID("a.ts", 0, 5)
	b, _ := NewFuncID("a.ts", 0, 10)
	c, _ := NewFuncID("b.ts", 0, 1)
	assert.Negative(t, CmpFuncID(a, b))
	assert.Negative(t, CmpFuncID(b, c))
	assert.Zero(t, CmpFuncID(a, a))
}

func TestStmtID_RoundTrip(t *testing.T) {
	fn, _ := NewFuncID("src/a.ts", 0, 10)
	st, err := NewStmtID(fn, 2)
	require.NoError(t, err)
	assert.Equal(t, "s:src%2Fa.ts:0:10:2", st.String())

	parsed, err := ParseStmtID(st.String())
	require.NoError(t, err)
	assert.Equal(t, st, parsed)
}

func TestHeapID_RoundTrip(t *testing.T) {
	fn, _ := NewFuncID("src/a.ts", 0, 10)
	st, _ := NewStmtID(fn, 2)
	h, err := NewHeapID(st, "value")
	require.NoError(t, err)
	assert.Equal(t, "h:src%2Fa.ts:0:10:2:value", h.String())

	parsed, err := ParseHeapID(h.String())
	require.NoError(t, err)
	assert.Equal(t, h, parsed)
}

func TestHeapID_DynamicProperty(t *testing.T) {
	fn, _ := NewFuncID("src/a.ts", 0, 10)
	st, _ := NewStmtID(fn, 2)
	h, err := NewHeapID(st, DynamicProperty)
	require.NoError(t, err)
	assert.Contains(t, h.String(), ":%2A")
}

func TestVarID_RoundTrip(t *testing.T) {
	p := Param(3)
	assert.Equal(t, "p3", p.String())
	parsed, err := ParseVarID("p3")
	require.NoError(t, err)
	assert.Equal(t, p, parsed)

	v := Local(0)
	assert.Equal(t, "v0", v.String())
}

func TestCmpVarID_ParamsBeforeLocals(t *testing.T) {
	assert.Negative(t, CmpVarID(Param(5), Local(0)))
	assert.Positive(t, CmpVarID(Local(0), Param(5)))
	assert.Negative(t, CmpVarID(Param(0), Param(1)))
}
