// Package explain writes the per-function explain bundles from spec.md §6:
// a manifest plus one JSON file per function holding its normalized IR,
// normalized summary, and the config versions/bounds it was computed under.
// The bundle directory is owned by the run that writes it (spec.md §5:
// "the explain emitter clears only its managed subtree").
package explain

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"jsflow/internal/canon"
	"jsflow/internal/cheappass"
	"jsflow/internal/config"
	"jsflow/internal/diagnostics"
	"jsflow/internal/ir"
	"jsflow/internal/summary"
)

// Entry is one function's explain bundle content.
type Entry struct {
	FuncID   string
	Hash     string
	IR       *ir.FuncIR
	Summary  *summary.Summary
	Baseline *cheappass.Result
}

// WriteBundle clears dir's managed subtree ("functions/") and writes a fresh
// manifest.json plus one functions/<hash>.json per entry. runID identifies
// this run in the manifest (spec.md's explain bundles are per-run artifacts;
// the teacher's session/campaign ids use the same uuid.NewString() pattern).
func WriteBundle(dir string, entries []Entry, cfg *config.PipelineConfig) (runID string, err error) {
	funcDir := filepath.Join(dir, "functions")
	if err := os.RemoveAll(funcDir); err != nil {
		return "", diagnostics.Wrap(diagnostics.IO, dir, err)
	}
	if err := os.MkdirAll(funcDir, 0o755); err != nil {
		return "", diagnostics.Wrap(diagnostics.IO, dir, err)
	}

	runID = uuid.NewString()
	functions := make([]any, 0, len(entries))
	for _, e := range entries {
		baselineEdges := make([]any, 0, len(e.Baseline.Edges))
		for _, edge := range e.Baseline.Edges {
			baselineEdges = append(baselineEdges, edge.Canonical())
		}
		bundle := map[string]any{
			"funcId":   e.FuncID,
			"ir":       e.IR.Canonical(),
			"summary":  e.Summary.Canonical(),
			"baseline": map[string]any{"edges": baselineEdges},
			"config": map[string]any{
				"analysisConfigVersion": cfg.AnalysisConfigVersion,
				"maxEdges":              cfg.MaxEdges,
				"maxFanoutPerSource":    cfg.MaxFanoutPerSource,
			},
		}
		data, err := canon.Marshal(bundle)
		if err != nil {
			return "", err
		}
		path := filepath.Join(funcDir, e.Hash+".json")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return "", diagnostics.Wrap(diagnostics.IO, path, err)
		}
		functions = append(functions, map[string]any{"funcId": e.FuncID, "hash": e.Hash})
	}

	manifest := map[string]any{
		"schemaVersion":         1,
		"runId":                 runID,
		"functionCount":         len(entries),
		"functions":             functions,
		"analysisConfigVersion": cfg.AnalysisConfigVersion,
	}
	data, err := canon.Marshal(manifest)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(dir, "manifest.json"), data, 0o644); err != nil {
		return "", diagnostics.Wrap(diagnostics.IO, dir, err)
	}
	return runID, nil
}
