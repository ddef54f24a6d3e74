package ids

import (
	"strconv"

	"jsflow/internal/diagnostics"
)

// VarKind distinguishes a parameter slot from a local/temporary slot, spec.md §3.
type VarKind int

const (
	// KindParam tags the i-th parameter, canonical form "p<i>".
	KindParam VarKind = iota
	// KindLocal tags the i-th local/temporary, canonical form "v<i>".
	KindLocal
)

// VarId identifies a parameter or local/temporary variable within one function's
// IR. VarIds are only meaningful relative to the FuncIR that declares them; unlike
// FuncId/StmtId/HeapId, a VarId's canonical form carries no function context.
type VarId struct {
	Kind  VarKind
	Index int
}

// Param constructs the VarId for the i-th parameter.
func Param(i int) VarId { return VarId{Kind: KindParam, Index: i} }

// Local constructs the VarId for the i-th local/temporary.
func Local(i int) VarId { return VarId{Kind: KindLocal, Index: i} }

// String returns "p<i>" or "v<i>".
func (v VarId) String() string {
	prefix := "p"
	if v.Kind == KindLocal {
		prefix = "v"
	}
	return prefix + strconv.Itoa(v.Index)
}

// ParseVarID parses the canonical form produced by String.
func ParseVarID(s string) (VarId, error) {
	if len(s) < 2 {
		return VarId{}, diagnostics.New(diagnostics.InvalidID, s, "malformed VarId")
	}
	var kind VarKind
	switch s[0] {
	case 'p':
		kind = KindParam
	case 'v':
		kind = KindLocal
	default:
		return VarId{}, diagnostics.New(diagnostics.InvalidID, s, "VarId must start with 'p' or 'v'")
	}
	idx, err := parseCanonicalInt(s[1:])
	if err != nil {
		return VarId{}, diagnostics.Wrap(diagnostics.InvalidID, s, err)
	}
	return VarId{Kind: kind, Index: idx}, nil
}

// CmpVarID orders all params before all locals, then by index, per spec.md §3.
func CmpVarID(a, b VarId) int {
	if a.Kind != b.Kind {
		if a.Kind == KindParam {
			return -1
		}
		return 1
	}
	return a.Index - b.Index
}
