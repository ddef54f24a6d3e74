// Package ids implements the canonical, parseable identifier algebra from spec.md §3
// and §4.1: FuncId, StmtId, CallsiteId, HeapId, VarId. Every identifier kind supports
// a canonical string form, a strict parser (parse(stringify(x)) == x, and any string
// that parses must be byte-identical to the canonical form), and a total-order
// comparator that decomposes the identifier into its logical parts before comparing.
package ids

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"jsflow/internal/diagnostics"
)

// FuncId identifies a function by the span of its source file, per spec.md §3.
type FuncId struct {
	FilePath string
	Start    int
	End      int
}

// NewFuncID validates and constructs a FuncId from its logical parts.
func NewFuncID(filePath string, start, end int) (FuncId, error) {
	if err := validatePath(filePath); err != nil {
		return FuncId{}, diagnostics.Wrap(diagnostics.InvalidID, filePath, err)
	}
	if err := validateSpan(start, end); err != nil {
		return FuncId{}, diagnostics.Wrap(diagnostics.InvalidID, filePath, err)
	}
	return FuncId{FilePath: filePath, Start: start, End: end}, nil
}

// String returns the canonical form "f:<urlenc(path)>:<start>:<end>".
func (f FuncId) String() string {
	return "f:" + url.QueryEscape(f.FilePath) + ":" + strconv.Itoa(f.Start) + ":" + strconv.Itoa(f.End)
}

// ParseFuncID parses the canonical form produced by String, rejecting any
// non-canonical encoding (alternative separators, leading zeros, re-escapable paths).
func ParseFuncID(s string) (FuncId, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 4 || parts[0] != "f" {
		return FuncId{}, diagnostics.New(diagnostics.InvalidID, s, "malformed FuncId")
	}
	path, err := decodeCanonicalPath(parts[1])
	if err != nil {
		return FuncId{}, diagnostics.Wrap(diagnostics.InvalidID, s, err)
	}
	start, err := parseCanonicalInt(parts[2])
	if err != nil {
		return FuncId{}, diagnostics.Wrap(diagnostics.InvalidID, s, fmt.Errorf("start offset: %w", err))
	}
	end, err := parseCanonicalInt(parts[3])
	if err != nil {
		return FuncId{}, diagnostics.Wrap(diagnostics.InvalidID, s, fmt.Errorf("end offset: %w", err))
	}
	id, err := NewFuncID(path, start, end)
	if err != nil {
		return FuncId{}, err
	}
	if id.String() != s {
		return FuncId{}, diagnostics.New(diagnostics.InvalidID, s, "not in canonical form")
	}
	return id, nil
}

// CmpFuncID is the total order over FuncId: (filePath, startOffset, endOffset).
func CmpFuncID(a, b FuncId) int {
	if a.FilePath != b.FilePath {
		return strings.Compare(a.FilePath, b.FilePath)
	}
	if a.Start != b.Start {
		return a.Start - b.Start
	}
	return a.End - b.End
}

// validatePath enforces spec.md §3: non-empty, repo-relative, '/'-separated, no
// '.'/'..' segments.
func validatePath(p string) error {
	if p == "" {
		return fmt.Errorf("file path must not be empty")
	}
	if strings.Contains(p, "\\") {
		return fmt.Errorf("file path %q must use '/' separators", p)
	}
	if strings.HasPrefix(p, "/") {
		return fmt.Errorf("file path %q must be repo-relative", p)
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == "" {
			return fmt.Errorf("file path %q has an empty segment", p)
		}
		if seg == "." || seg == ".." {
			return fmt.Errorf("file path %q has a %q segment", p, seg)
		}
	}
	return nil
}

func validateSpan(start, end int) error {
	if start < 0 {
		return fmt.Errorf("start offset %d must be non-negative", start)
	}
	if end < start {
		return fmt.Errorf("end offset %d must be >= start offset %d", end, start)
	}
	return nil
}

// decodeCanonicalPath decodes a URL-escaped path segment and rejects any input whose
// re-encoding would not reproduce it byte-for-byte (i.e. non-canonical escaping).
func decodeCanonicalPath(enc string) (string, error) {
	dec, err := url.QueryUnescape(enc)
	if err != nil {
		return "", fmt.Errorf("invalid path encoding %q: %w", enc, err)
	}
	if url.QueryEscape(dec) != enc {
		return "", fmt.Errorf("non-canonical path encoding %q", enc)
	}
	return dec, nil
}

// parseCanonicalInt parses a non-negative integer, rejecting leading zeros
// (except the literal "0"), signs, and non-digit characters.
func parseCanonicalInt(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("empty integer")
	}
	if s != "0" && (s[0] == '0' || s[0] == '+' || s[0] == '-') {
		return 0, fmt.Errorf("non-canonical integer %q", s)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("non-digit in integer %q", s)
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	return n, nil
}
