package ids

import (
	"net/url"
	"strconv"
	"strings"

	"jsflow/internal/diagnostics"
)

// StmtId identifies a statement site within a function: the function plus a
// zero-based index assigned by the deterministic AST walk in spec.md §4.3.
type StmtId struct {
	Func  FuncId
	Index int
}

// CallsiteId is a StmtId whose underlying syntactic site is a call expression.
// By construction (spec.md §4.3) its canonical form and comparator are identical
// to StmtId's; it is a type alias, not a distinct Go type, so the name documents
// which statements are calls without the compiler enforcing it.
type CallsiteId = StmtId

// NewStmtID validates and constructs a StmtId.
func NewStmtID(fn FuncId, index int) (StmtId, error) {
	if index < 0 {
		return StmtId{}, diagnostics.New(diagnostics.InvalidID, fn.String(), "statement index %d must be non-negative", index)
	}
	return StmtId{Func: fn, Index: index}, nil
}

// String returns the canonical form "s:<urlenc(path)>:<start>:<end>:<stmtIdx>".
func (s StmtId) String() string {
	return "s:" + url.QueryEscape(s.Func.FilePath) + ":" + strconv.Itoa(s.Func.Start) + ":" +
		strconv.Itoa(s.Func.End) + ":" + strconv.Itoa(s.Index)
}

// ParseStmtID parses the canonical form produced by String.
func ParseStmtID(str string) (StmtId, error) {
	parts := strings.Split(str, ":")
	if len(parts) != 5 || parts[0] != "s" {
		return StmtId{}, diagnostics.New(diagnostics.InvalidID, str, "malformed StmtId")
	}
	path, err := decodeCanonicalPath(parts[1])
	if err != nil {
		return StmtId{}, diagnostics.Wrap(diagnostics.InvalidID, str, err)
	}
	start, err := parseCanonicalInt(parts[2])
	if err != nil {
		return StmtId{}, diagnostics.Wrap(diagnostics.InvalidID, str, err)
	}
	end, err := parseCanonicalInt(parts[3])
	if err != nil {
		return StmtId{}, diagnostics.Wrap(diagnostics.InvalidID, str, err)
	}
	index, err := parseCanonicalInt(parts[4])
	if err != nil {
		return StmtId{}, diagnostics.Wrap(diagnostics.InvalidID, str, err)
	}
	fn, err := NewFuncID(path, start, end)
	if err != nil {
		return StmtId{}, err
	}
	id, err := NewStmtID(fn, index)
	if err != nil {
		return StmtId{}, err
	}
	if id.String() != str {
		return StmtId{}, diagnostics.New(diagnostics.InvalidID, str, "not in canonical form")
	}
	return id, nil
}

// CmpStmtID is the total order over StmtId: (filePath, startOffset, endOffset, statementIndex).
func CmpStmtID(a, b StmtId) int {
	if c := CmpFuncID(a.Func, b.Func); c != 0 {
		return c
	}
	return a.Index - b.Index
}

// InFunctionSpan reports whether the statement's anchor belongs to fn's file and
// span, the "anchor-span membership" invariant from spec.md §4.4/§8. Synthetic
// anchors (used for heap bucketing of parameters/locals, spec.md §4.5) are
// considered in-span exactly when their Func matches, since their Index is drawn
// from a reserved out-of-band range rather than a real AST position.
func InFunctionSpan(id StmtId, fn FuncId) bool {
	return id.Func == fn
}
