package index

import (
	"sort"

	"jsflow/internal/astmodel"
	"jsflow/internal/diagnostics"
	"jsflow/internal/ids"
)

// StatementEntry is one indexed statement site.
type StatementEntry struct {
	ID   ids.StmtId
	Node *astmodel.Node
}

// StatementIndex resolves statement sites by id, within a single function, in
// the pre-order source sequence spec.md §4.3 requires.
type StatementIndex struct {
	byFunc map[ids.FuncId][]StatementEntry
	byID   map[ids.StmtId]StatementEntry
}

// BuildStatementIndex walks every function in fnIdx and assigns each of its
// statement sites a contiguous, pre-order StmtId starting at 0, per spec.md
// §4.3: "the walk assigns indices in source order... does not descend into a
// nested function's own body when indexing that nested function's enclosing
// statements." A node is skipped (not assigned an id, but still descended
// into) when it is a KindBlock or a transparent wrapper. An expression-bodied
// arrow function's Body is always assigned index 0, representing the implicit
// return, even though arbitrary expression Kinds would not otherwise qualify.
func BuildStatementIndex(fnIdx *FunctionIndex) (*StatementIndex, error) {
	idx := &StatementIndex{
		byFunc: make(map[ids.FuncId][]StatementEntry),
		byID:   make(map[ids.StmtId]StatementEntry),
	}

	for _, fn := range fnIdx.All() {
		next := 0
		assign := func(n *astmodel.Node) error {
			stmt, err := ids.NewStmtID(fn.ID, next)
			if err != nil {
				return err
			}
			if !ids.InFunctionSpan(stmt, fn.ID) {
				return diagnostics.New(diagnostics.InvariantViolation, stmt.String(), "statement site outside its function's span")
			}
			entry := StatementEntry{ID: stmt, Node: n}
			idx.byFunc[fn.ID] = append(idx.byFunc[fn.ID], entry)
			idx.byID[stmt] = entry
			next++
			return nil
		}

		var walk func(n *astmodel.Node, isBody bool) error
		walk = func(n *astmodel.Node, isBody bool) error {
			if n == nil {
				return nil
			}
			switch {
			case isBody && fn.Node.IsExpressionBody:
				if err := assign(n); err != nil {
					return err
				}
			case isFunctionLike(n) && n != fn.Node:
				// A nested function declaration/expression reached while indexing
				// its enclosing function's statements is not assigned an index of
				// its own (in `const f = () => {}` the enclosing var-decl is the
				// site), and its body is indexed separately, so stop here.
				return nil
			case isTransparentWrapper(n.Kind):
				// not a site; fall through to children
			case n.Kind == astmodel.KindBlock:
				// not a site; fall through to children
			case isStatementSiteKind(n.Kind):
				if err := assign(n); err != nil {
					return err
				}
			}
			for _, c := range statementChildren(n) {
				if err := walk(c, false); err != nil {
					return err
				}
			}
			return nil
		}

		if fn.Node.IsExpressionBody {
			if err := walk(fn.Node.Body, true); err != nil {
				return nil, err
			}
		} else if err := walk(fn.Node.Body, false); err != nil {
			return nil, err
		}
	}

	return idx, nil
}

// ByFunc returns every statement site of fn, in ascending index order.
func (idx *StatementIndex) ByFunc(fn ids.FuncId) []StatementEntry {
	entries := idx.byFunc[fn]
	out := make([]StatementEntry, len(entries))
	copy(out, entries)
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Index < out[j].ID.Index })
	return out
}

// ByID looks up a statement site by its identifier.
func (idx *StatementIndex) ByID(id ids.StmtId) (StatementEntry, bool) {
	e, ok := idx.byID[id]
	return e, ok
}
