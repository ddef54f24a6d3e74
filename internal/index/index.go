package index

import "jsflow/internal/astmodel"

// Indices bundles the three derived indexers for one analysis run.
type Indices struct {
	Functions *FunctionIndex
	Statements *StatementIndex
	Callsites *CallsiteIndex
}

// Build runs the discovery walk, the per-function statement walk, and the
// callsite projection, in that order, per spec.md §4.3.
func Build(program astmodel.Program) (*Indices, error) {
	fnIdx, err := BuildFunctionIndex(program)
	if err != nil {
		return nil, err
	}
	stmtIdx, err := BuildStatementIndex(fnIdx)
	if err != nil {
		return nil, err
	}
	callIdx := BuildCallsiteIndex(stmtIdx, fnIdx)
	return &Indices{Functions: fnIdx, Statements: stmtIdx, Callsites: callIdx}, nil
}
