package index

import (
	"sort"

	"jsflow/internal/astmodel"
	"jsflow/internal/ids"
)

// CallsiteIndex is the projection of StatementIndex onto call expressions.
// Per spec.md §4.1, CallsiteId is defined as a type alias of StmtId ("by
// construction CallsiteId==StmtId"); a callsite is simply a statement site
// whose node Kind is KindCallExpr. KindNewExpr sites are allocation sites, not
// callsites, and are excluded here.
type CallsiteIndex struct {
	byFunc map[ids.FuncId][]StatementEntry
	byID   map[ids.CallsiteId]StatementEntry
}

// BuildCallsiteIndex filters stmtIdx down to KindCallExpr sites.
func BuildCallsiteIndex(stmtIdx *StatementIndex, fnIdx *FunctionIndex) *CallsiteIndex {
	idx := &CallsiteIndex{
		byFunc: make(map[ids.FuncId][]StatementEntry),
		byID:   make(map[ids.CallsiteId]StatementEntry),
	}
	for _, fn := range fnIdx.All() {
		for _, entry := range stmtIdx.ByFunc(fn.ID) {
			if entry.Node.Kind != astmodel.KindCallExpr {
				continue
			}
			idx.byFunc[fn.ID] = append(idx.byFunc[fn.ID], entry)
			idx.byID[entry.ID] = entry
		}
	}
	return idx
}

// ByFunc returns every callsite in fn, in ascending index order.
func (idx *CallsiteIndex) ByFunc(fn ids.FuncId) []StatementEntry {
	entries := idx.byFunc[fn]
	out := make([]StatementEntry, len(entries))
	copy(out, entries)
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Index < out[j].ID.Index })
	return out
}

// ByID looks up a callsite by its identifier.
func (idx *CallsiteIndex) ByID(id ids.CallsiteId) (StatementEntry, bool) {
	e, ok := idx.byID[id]
	return e, ok
}
