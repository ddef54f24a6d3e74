package facts

import (
	"io"

	"jsflow/internal/canon"
	"jsflow/internal/diagnostics"
)

// Dedup removes facts with a duplicate Key, keeping the first occurrence, and
// returns them in canonical order per Cmp.
func Dedup(fs []FlowFact) []FlowFact {
	seen := make(map[string]struct{}, len(fs))
	out := make([]FlowFact, 0, len(fs))
	for _, f := range fs {
		if _, ok := seen[f.Key()]; ok {
			continue
		}
		seen[f.Key()] = struct{}{}
		out = append(out, f)
	}
	canon.StableSort(out, Cmp)
	return out
}

// WriteJSONL writes fs to w as canonical JSONL: one canonical JSON object per
// line, each followed by '\n'. Empty input writes zero bytes, spec.md §4.10.
// fs must already be deduplicated and sorted (see Dedup); WriteJSONL does not
// re-sort, so callers that build facts incrementally should call Dedup first.
func WriteJSONL(w io.Writer, fs []FlowFact) error {
	for _, f := range fs {
		data, err := canon.Marshal(f.Canonical())
		if err != nil {
			return diagnostics.Wrap(diagnostics.IO, "facts", err)
		}
		if _, err := w.Write(data); err != nil {
			return diagnostics.Wrap(diagnostics.IO, "facts", err)
		}
		if _, err := w.Write([]byte("\n")); err != nil {
			return diagnostics.Wrap(diagnostics.IO, "facts", err)
		}
	}
	return nil
}
