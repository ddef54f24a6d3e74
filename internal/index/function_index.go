// Package index implements the function/statement/callsite indexers from
// spec.md §4.3: a single deterministic AST walk that assigns canonical
// identifiers to every function, then a per-function walk that assigns
// contiguous statement indices in source order.
package index

import (
	"sort"

	"jsflow/internal/astmodel"
	"jsflow/internal/diagnostics"
	"jsflow/internal/ids"
)

// FunctionEntry is one indexed function.
type FunctionEntry struct {
	ID   ids.FuncId
	Node *astmodel.Node
	File string
}

type span struct {
	path       string
	start, end int
}

// FunctionIndex resolves functions by id or by (filePath, start, end).
type FunctionIndex struct {
	byID   map[ids.FuncId]FunctionEntry
	bySpan map[span]FunctionEntry
	all    []FunctionEntry // sorted by ids.CmpFuncID
}

// BuildFunctionIndex visits every function-like node with a body, in each file's
// tree, per spec.md §4.3. A duplicate span across (or within) files is fatal.
func BuildFunctionIndex(program astmodel.Program) (*FunctionIndex, error) {
	idx := &FunctionIndex{
		byID:   make(map[ids.FuncId]FunctionEntry),
		bySpan: make(map[span]FunctionEntry),
	}

	for _, file := range program.Files {
		if file.Root == nil {
			continue
		}
		var walk func(n *astmodel.Node) error
		walk = func(n *astmodel.Node) error {
			if n == nil {
				return nil
			}
			if isFunctionLike(n) && n.Body != nil {
				fn, err := ids.NewFuncID(file.Path, n.Start, n.End)
				if err != nil {
					return err
				}
				sp := span{file.Path, n.Start, n.End}
				if _, dup := idx.bySpan[sp]; dup {
					return diagnostics.New(diagnostics.InvariantViolation, fn.String(), "duplicate function span")
				}
				entry := FunctionEntry{ID: fn, Node: n, File: file.Path}
				idx.byID[fn] = entry
				idx.bySpan[sp] = entry
				idx.all = append(idx.all, entry)
			}
			for _, c := range discoveryChildren(n) {
				if err := walk(c); err != nil {
					return err
				}
			}
			return nil
		}
		if err := walk(file.Root); err != nil {
			return nil, err
		}
	}

	sort.Slice(idx.all, func(i, j int) bool {
		return ids.CmpFuncID(idx.all[i].ID, idx.all[j].ID) < 0
	})
	return idx, nil
}

// ByID looks up a function by its identifier.
func (idx *FunctionIndex) ByID(id ids.FuncId) (FunctionEntry, bool) {
	e, ok := idx.byID[id]
	return e, ok
}

// BySpan looks up a function by (filePath, start, end).
func (idx *FunctionIndex) BySpan(filePath string, start, end int) (FunctionEntry, bool) {
	e, ok := idx.bySpan[span{filePath, start, end}]
	return e, ok
}

// All returns every indexed function, sorted by ids.CmpFuncID.
func (idx *FunctionIndex) All() []FunctionEntry { return idx.all }

// ByFile returns every function declared in filePath, sorted by ids.CmpFuncID.
func (idx *FunctionIndex) ByFile(filePath string) []FunctionEntry {
	var out []FunctionEntry
	for _, e := range idx.all {
		if e.File == filePath {
			out = append(out, e)
		}
	}
	return out
}
