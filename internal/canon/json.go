// Package canon implements the determinism kernel from spec.md §4.2: canonical JSON
// serialization (sorted object keys, finite-number guard, undefined-elision), a
// stable sort with an explicit original-index tiebreak, and SHA-256 hashing of the
// canonical JSON bytes. Every other package produces its canonical output through
// this package rather than calling encoding/json directly, so "byte-identical
// re-run" (spec.md §8) reduces to "same generic tree in, same bytes out."
package canon

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Undefined is the sentinel written into a map to mean "this field is absent",
// mirroring JavaScript's `undefined`. Canonicalize elides it from objects and
// renders it as `null` inside arrays, per spec.md §4.2.
type Undefined struct{}

// IsUndefined reports whether v is the Undefined sentinel.
func IsUndefined(v any) bool {
	_, ok := v.(Undefined)
	return ok
}

const maxDepth = 1000

// Marshal renders v as canonical JSON: object keys sorted by code-point order,
// Undefined elided from objects (and nulled in arrays), non-finite numbers and
// unsupported types rejected, and no incidental whitespace. v must be built from
// map[string]any, []any, string, bool, nil, Undefined, and Go integer/float types —
// passing an arbitrary struct is a programming error, not a data error, and panics
// via a type assertion failure is avoided by returning an explicit error instead.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := encode(&buf, v, 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encode(buf *bytes.Buffer, v any, depth int) error {
	if depth > maxDepth {
		return fmt.Errorf("canon: max nesting depth exceeded (possible cycle)")
	}
	switch t := v.(type) {
	case nil:
		buf.WriteString("null")
		return nil
	case Undefined:
		// Only reachable when Undefined appears as an array element or as the
		// top-level value; object fields are elided before this function sees them.
		buf.WriteString("null")
		return nil
	case map[string]any:
		return encodeObject(buf, t, depth)
	case []any:
		return encodeArray(buf, t, depth)
	case string:
		return encodeString(buf, t)
	case bool:
		if t {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
		return nil
	case int:
		buf.WriteString(strconv.Itoa(t))
		return nil
	case int64:
		buf.WriteString(strconv.FormatInt(t, 10))
		return nil
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return fmt.Errorf("canon: non-finite number %v", t)
		}
		buf.WriteString(formatFloat(t))
		return nil
	default:
		return fmt.Errorf("canon: unsupported value of type %T", v)
	}
}

func formatFloat(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func encodeObject(buf *bytes.Buffer, m map[string]any, depth int) error {
	keys := make([]string, 0, len(m))
	for k, v := range m {
		if IsUndefined(v) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeString(buf, k); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := encode(buf, m[k], depth+1); err != nil {
			return fmt.Errorf("field %q: %w", k, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

func encodeArray(buf *bytes.Buffer, arr []any, depth int) error {
	buf.WriteByte('[')
	for i, elem := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encode(buf, elem, depth+1); err != nil {
			return fmt.Errorf("index %d: %w", i, err)
		}
	}
	buf.WriteByte(']')
	return nil
}

// encodeString writes a JSON string literal. It escapes `"`, `\`, \n, \r and \t
// as short escapes and other control characters below U+0020 as \u00XX; every
// other rune, including <, > and &, is written as-is.
func encodeString(buf *bytes.Buffer, s string) error {
	buf.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(buf, `\u%04x`, r)
			} else {
				buf.WriteRune(r)
			}
		}
	}
	buf.WriteByte('"')
	return nil
}
