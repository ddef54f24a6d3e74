package ir

// Canonical renders f as a plain map/slice tree suitable for canon.Marshal, so
// the content-addressed summary cache (spec.md §4.7) can hash
// `(analysisConfigVersion, normalizedIR)`. Encoding only; the IR itself is
// never read back off disk — only the summary it produces is cached.
func (f *FuncIR) Canonical() map[string]any {
	params := make([]any, len(f.Params))
	for i, p := range f.Params {
		params[i] = p.String()
	}
	locals := make([]any, len(f.Locals))
	for i, v := range f.Locals {
		locals[i] = v.String()
	}
	stmts := make([]any, len(f.Stmts))
	for i, s := range f.Stmts {
		stmts[i] = s.canonical()
	}
	return map[string]any{
		"schemaVersion": f.SchemaVersion,
		"funcId":        f.FuncID.String(),
		"params":        params,
		"locals":        locals,
		"stmts":         stmts,
	}
}

func (s IrStmt) canonical() map[string]any {
	m := map[string]any{"kind": int(s.Kind), "anchor": s.Anchor.String()}
	if s.Dst != nil {
		m["dst"] = s.Dst.String()
	}
	if s.Value != nil {
		m["value"] = s.Value.canonical()
	}
	if s.HasObj {
		m["object"] = s.Object.String()
		m["property"] = s.Prop.Name
		m["dynamic"] = s.Prop.Dynamic
		m["optional"] = s.Optional
	}
	switch s.Kind {
	case SAssign, SAwait, SMemberWrite:
		m["src"] = s.Src.canonical()
	case SCall, SAlloc:
		m["callee"] = s.Callee.canonical()
		args := make([]any, len(s.Args))
		for i, a := range s.Args {
			args[i] = a.canonical()
		}
		m["args"] = args
		if s.Kind == SAlloc {
			m["allocKind"] = int(s.Alloc)
		}
	case SSelect:
		m["cond"] = s.Cond.canonical()
		m["then"] = s.Then.canonical()
		m["else"] = s.Else.canonical()
	case SShortCircuit:
		m["op"] = int(s.Op)
		m["left"] = s.Left.canonical()
		m["right"] = s.Right.canonical()
	}
	return m
}

func (rv RValue) canonical() map[string]any {
	switch rv.Kind {
	case RVar:
		return map[string]any{"kind": "var", "id": rv.Var.String()}
	case RLit:
		return map[string]any{"kind": "lit", "litKind": int(rv.LitKind), "value": rv.LitValue}
	case RUndef:
		return map[string]any{"kind": "undef"}
	default:
		return map[string]any{"kind": "unknown"}
	}
}
