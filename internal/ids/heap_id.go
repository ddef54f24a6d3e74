package ids

import (
	"net/url"
	"strconv"
	"strings"

	"jsflow/internal/diagnostics"
)

// DynamicProperty is the literal property name used for dynamic (computed) keys,
// spec.md §3/§4.5: `obj[k] = v` with non-literal k maps to this bucket.
const DynamicProperty = "*"

// HeapId identifies a coarse heap bucket: an allocation-site anchor plus a
// property name (or DynamicProperty for a dynamic key), spec.md §3.
type HeapId struct {
	AllocSite StmtId
	Property  string
}

// NewHeapID validates and constructs a HeapId.
func NewHeapID(allocSite StmtId, property string) (HeapId, error) {
	if property == "" {
		return HeapId{}, diagnostics.New(diagnostics.InvalidID, allocSite.String(), "heap property name must not be empty")
	}
	return HeapId{AllocSite: allocSite, Property: property}, nil
}

// String returns the canonical form
// "h:<urlenc(path)>:<start>:<end>:<stmtIdx>:<urlenc(prop)>".
func (h HeapId) String() string {
	return "h:" + url.QueryEscape(h.AllocSite.Func.FilePath) + ":" +
		strconv.Itoa(h.AllocSite.Func.Start) + ":" + strconv.Itoa(h.AllocSite.Func.End) + ":" +
		strconv.Itoa(h.AllocSite.Index) + ":" + url.QueryEscape(h.Property)
}

// ParseHeapID parses the canonical form produced by String.
func ParseHeapID(s string) (HeapId, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 6 || parts[0] != "h" {
		return HeapId{}, diagnostics.New(diagnostics.InvalidID, s, "malformed HeapId")
	}
	path, err := decodeCanonicalPath(parts[1])
	if err != nil {
		return HeapId{}, diagnostics.Wrap(diagnostics.InvalidID, s, err)
	}
	start, err := parseCanonicalInt(parts[2])
	if err != nil {
		return HeapId{}, diagnostics.Wrap(diagnostics.InvalidID, s, err)
	}
	end, err := parseCanonicalInt(parts[3])
	if err != nil {
		return HeapId{}, diagnostics.Wrap(diagnostics.InvalidID, s, err)
	}
	index, err := parseCanonicalInt(parts[4])
	if err != nil {
		return HeapId{}, diagnostics.Wrap(diagnostics.InvalidID, s, err)
	}
	prop, err := decodeCanonicalPath(parts[5])
	if err != nil {
		return HeapId{}, diagnostics.Wrap(diagnostics.InvalidID, s, err)
	}
	fn, err := NewFuncID(path, start, end)
	if err != nil {
		return HeapId{}, err
	}
	stmt, err := NewStmtID(fn, index)
	if err != nil {
		return HeapId{}, err
	}
	id, err := NewHeapID(stmt, prop)
	if err != nil {
		return HeapId{}, err
	}
	if id.String() != s {
		return HeapId{}, diagnostics.New(diagnostics.InvalidID, s, "not in canonical form")
	}
	return id, nil
}

// CmpHeapID is the total order over HeapId: (filePath, startOffset, endOffset,
// statementIndex, propertyName).
func CmpHeapID(a, b HeapId) int {
	if c := CmpStmtID(a.AllocSite, b.AllocSite); c != 0 {
		return c
	}
	return strings.Compare(a.Property, b.Property)
}
