package ir

import (
	"sort"

	"jsflow/internal/canon"
	"jsflow/internal/diagnostics"
	"jsflow/internal/ids"
)

// Normalize validates f against the invariants spec.md §4.4 requires of a
// Normalized FuncIR and sorts params/locals/stmts to canonical order in place.
// It never mutates f on failure.
func Normalize(f *FuncIR) error {
	if err := checkContiguous(f); err != nil {
		return err
	}
	declared := declaredSet(f)
	if err := checkCoverage(f, declared); err != nil {
		return err
	}
	if err := checkAnchors(f); err != nil {
		return err
	}

	sort.Slice(f.Params, func(i, j int) bool { return ids.CmpVarID(f.Params[i], f.Params[j]) < 0 })
	sort.Slice(f.Locals, func(i, j int) bool { return ids.CmpVarID(f.Locals[i], f.Locals[j]) < 0 })
	canon.StableSort(f.Stmts, func(a, b IrStmt) int { return ids.CmpStmtID(a.Anchor, b.Anchor) })
	return nil
}

func checkContiguous(f *FuncIR) error {
	for i, p := range f.Params {
		if p.Kind != ids.KindParam || p.Index != i {
			return diagnostics.New(diagnostics.InvariantViolation, f.FuncID.String(), "params must be contiguous p0..pN, got %s at position %d", p, i)
		}
	}
	for i, v := range f.Locals {
		if v.Kind != ids.KindLocal || v.Index != i {
			return diagnostics.New(diagnostics.InvariantViolation, f.FuncID.String(), "locals must be contiguous v0..vM, got %s at position %d", v, i)
		}
	}
	return nil
}

func declaredSet(f *FuncIR) map[ids.VarId]struct{} {
	set := make(map[ids.VarId]struct{}, len(f.Params)+len(f.Locals))
	for _, p := range f.Params {
		set[p] = struct{}{}
	}
	for _, v := range f.Locals {
		set[v] = struct{}{}
	}
	return set
}

func checkCoverage(f *FuncIR, declared map[ids.VarId]struct{}) error {
	check := func(v ids.VarId) error {
		if _, ok := declared[v]; !ok {
			return diagnostics.New(diagnostics.InvariantViolation, f.FuncID.String(), "undeclared VarId %s", v)
		}
		return nil
	}
	checkRV := func(rv RValue) error {
		if rv.Kind == RVar {
			return check(rv.Var)
		}
		return nil
	}
	for _, s := range f.Stmts {
		if s.Dst != nil {
			if err := check(*s.Dst); err != nil {
				return err
			}
		}
		if s.HasObj {
			if err := check(s.Object); err != nil {
				return err
			}
		}
		if s.Value != nil {
			if err := checkRV(*s.Value); err != nil {
				return err
			}
		}
		var used []RValue
		switch s.Kind {
		case SAssign, SAwait, SMemberWrite:
			used = []RValue{s.Src}
		case SCall:
			used = []RValue{s.Callee}
		case SAlloc:
			if s.Alloc == AllocNew {
				used = []RValue{s.Callee}
			}
		case SSelect:
			used = []RValue{s.Cond, s.Then, s.Else}
		case SShortCircuit:
			used = []RValue{s.Left, s.Right}
		}
		for _, rv := range used {
			if err := checkRV(rv); err != nil {
				return err
			}
		}
		for _, a := range s.Args {
			if err := checkRV(a); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkAnchors(f *FuncIR) error {
	seen := make(map[ids.StmtId]struct{}, len(f.Stmts))
	for _, s := range f.Stmts {
		if s.Anchor.Func != f.FuncID {
			return diagnostics.New(diagnostics.InvariantViolation, f.FuncID.String(), "statement anchor %s lies outside function", s.Anchor)
		}
		if _, dup := seen[s.Anchor]; dup {
			return diagnostics.New(diagnostics.InvariantViolation, f.FuncID.String(), "duplicate statement anchor %s", s.Anchor)
		}
		seen[s.Anchor] = struct{}{}
	}
	return nil
}
