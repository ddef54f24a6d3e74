package ir

import (
	"jsflow/internal/astmodel"
	"jsflow/internal/diagnostics"
	"jsflow/internal/ids"
	"jsflow/internal/index"
)

// Build lowers fn's body into a Normalized FuncIR, per spec.md §4.4. stmtIdx
// must be the StatementIndex that indexed fn (so StmtIds line up with the AST
// nodes the builder visits).
func Build(fn index.FunctionEntry, stmtIdx *index.StatementIndex) (*FuncIR, error) {
	b := &builder{
		fn:       fn.ID,
		env:      make(map[string]ids.VarId),
		nodeToID: make(map[*astmodel.Node]ids.StmtId),
	}
	for _, entry := range stmtIdx.ByFunc(fn.ID) {
		b.nodeToID[entry.Node] = entry.ID
	}
	for i, name := range fn.Node.Params {
		v := ids.Param(i)
		b.params = append(b.params, v)
		if name != "" {
			b.env[name] = v
		}
	}

	if fn.Node.IsExpressionBody {
		if err := b.lowerExpressionBody(fn.Node.Body); err != nil {
			return nil, err
		}
	} else {
		// Pass 1: allocate a named local for every declaration in source order.
		if err := b.declareLocals(fn.Node.Body); err != nil {
			return nil, err
		}
		// Pass 2: lower statements, allocating temporaries for calls/awaits that
		// appear where the IR cannot inline them.
		if err := b.walkStmt(fn.Node.Body); err != nil {
			return nil, err
		}
	}

	return &FuncIR{
		SchemaVersion: SchemaVersion,
		FuncID:        fn.ID,
		Params:        b.params,
		Locals:        b.locals,
		Stmts:         b.stmts,
	}, nil
}

type builder struct {
	fn       ids.FuncId
	env      map[string]ids.VarId
	nodeToID map[*astmodel.Node]ids.StmtId
	params   []ids.VarId
	locals   []ids.VarId
	stmts    []IrStmt
	nextTemp int
}

func (b *builder) newLocal(name string) ids.VarId {
	v := ids.Local(len(b.locals))
	b.locals = append(b.locals, v)
	if name != "" {
		b.env[name] = v
	}
	return v
}

func (b *builder) newTemp() ids.VarId {
	return b.newLocal("")
}

func (b *builder) anchorOf(n *astmodel.Node) (ids.StmtId, error) {
	id, ok := b.nodeToID[n]
	if !ok {
		return ids.StmtId{}, diagnostics.New(diagnostics.InvariantViolation, b.fn.String(), "no statement index entry for lowered node")
	}
	return id, nil
}

// declareLocals walks the body, assigning v0..vM to every VarDecl's name in
// source order, without descending into nested functions.
func (b *builder) declareLocals(n *astmodel.Node) error {
	if n == nil {
		return nil
	}
	if isFunctionLike(n) {
		return nil
	}
	if n.Kind == astmodel.KindVarDecl {
		b.newLocal(n.DeclName)
	}
	for _, c := range children(n) {
		if err := b.declareLocals(c); err != nil {
			return err
		}
	}
	return nil
}

func isFunctionLike(n *astmodel.Node) bool {
	switch n.Kind {
	case astmodel.KindFunctionDecl, astmodel.KindFunctionExpr, astmodel.KindArrowFunction:
		return true
	default:
		return false
	}
}

// children is a subset of the indexer's statement-child enumeration (statement
// containers, assignments, awaits and transparent wrappers, but not calls,
// literals or member expressions), used here only to drive declareLocals'
// declaration-order scan.
func children(n *astmodel.Node) []*astmodel.Node {
	switch n.Kind {
	case astmodel.KindBlock, astmodel.KindIfStmt, astmodel.KindForStmt, astmodel.KindWhileStmt, astmodel.KindOtherStmt:
		return n.Children
	case astmodel.KindExprStmt:
		return oneOrNone(n.Value)
	case astmodel.KindReturnStmt:
		return oneOrNone(n.Value)
	case astmodel.KindVarDecl:
		return oneOrNone(n.Value)
	case astmodel.KindAwaitExpr:
		return oneOrNone(n.Value)
	case astmodel.KindAssignExpr:
		return append(oneOrNone(n.Target), oneOrNone(n.Value)...)
	case astmodel.KindParenExpr, astmodel.KindTypeCastExpr, astmodel.KindNonNullExpr, astmodel.KindAsExpr:
		return oneOrNone(n.Value)
	default:
		return nil
	}
}

func oneOrNone(n *astmodel.Node) []*astmodel.Node {
	if n == nil {
		return nil
	}
	return []*astmodel.Node{n}
}

// strip peels type/paren/non-null/as-casts before lowering, per spec.md §4.4.
func strip(n *astmodel.Node) *astmodel.Node {
	for n != nil {
		switch n.Kind {
		case astmodel.KindParenExpr, astmodel.KindTypeCastExpr, astmodel.KindNonNullExpr, astmodel.KindAsExpr:
			n = n.Value
		default:
			return n
		}
	}
	return nil
}

// rvalue lowers a stripped expression node to an RValue; anything that is not a
// direct variable reference, literal, or `undefined` degrades to unknown,
// per spec.md §4.4.
func (b *builder) rvalue(n *astmodel.Node) RValue {
	n = strip(n)
	if n == nil {
		return Undef()
	}
	switch n.Kind {
	case astmodel.KindIdentifier:
		if v, ok := b.env[n.Name]; ok {
			return Var(v)
		}
		return Unknown()
	case astmodel.KindLiteral:
		return Lit(LiteralKind(n.LiteralKind), n.LiteralValue)
	case astmodel.KindUndefinedExpr:
		return Undef()
	default:
		return Unknown()
	}
}

// asVar reports whether the stripped node resolves to a known variable.
func (b *builder) asVar(n *astmodel.Node) (ids.VarId, bool) {
	n = strip(n)
	if n == nil || n.Kind != astmodel.KindIdentifier {
		return ids.VarId{}, false
	}
	v, ok := b.env[n.Name]
	return v, ok
}

func (b *builder) propertyOf(n *astmodel.Node, computed bool) Property {
	if !computed {
		if n != nil && n.Kind == astmodel.KindIdentifier {
			return NamedProperty(n.Name)
		}
		return DynamicKeyProperty()
	}
	stripped := strip(n)
	if stripped != nil && stripped.Kind == astmodel.KindLiteral && stripped.LiteralKind == astmodel.LiteralString {
		if s, ok := stripped.LiteralValue.(string); ok {
			return NamedProperty(s)
		}
	}
	return DynamicKeyProperty()
}

// walkStmt drives the per-function statement walk, lowering each statement
// site inline. Container kinds recurse generically; leaf statement kinds
// consume their whole subtree (including nested calls/awaits the lowering
// table promotes to their own IrStmt) without further generic recursion, so a
// call already lowered as part of its enclosing assign/return is never
// lowered a second time as a "bare" statement.
func (b *builder) walkStmt(n *astmodel.Node) error {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case astmodel.KindBlock, astmodel.KindIfStmt, astmodel.KindForStmt, astmodel.KindWhileStmt, astmodel.KindOtherStmt:
		for _, c := range children(n) {
			if err := b.walkStmt(c); err != nil {
				return err
			}
		}
		return nil
	case astmodel.KindVarDecl:
		dst, ok := b.env[n.DeclName]
		if !ok {
			dst = b.newLocal(n.DeclName)
		}
		anchor, err := b.anchorOf(n)
		if err != nil {
			return err
		}
		return b.lowerAssignLike(dst, n.Value, anchor)
	case astmodel.KindExprStmt:
		return b.lowerExprStmt(n)
	case astmodel.KindReturnStmt:
		return b.lowerReturn(n)
	default:
		return nil
	}
}

func (b *builder) lowerExprStmt(n *astmodel.Node) error {
	anchor, err := b.anchorOf(n)
	if err != nil {
		return err
	}
	value := strip(n.Value)
	if value == nil {
		return nil
	}
	switch value.Kind {
	case astmodel.KindCallExpr:
		return b.lowerCall(value, nil)
	case astmodel.KindAwaitExpr:
		return b.lowerAwait(value, b.newTemp(), anchor)
	case astmodel.KindAssignExpr:
		target := strip(value.Target)
		if target == nil {
			return nil
		}
		if target.Kind == astmodel.KindMemberExpr {
			return b.lowerMemberWrite(target, value.Value, anchor)
		}
		dst, ok := b.env[target.Name]
		if !ok {
			dst = b.newLocal(target.Name)
		}
		return b.lowerAssignLike(dst, value.Value, anchor)
	default:
		// A bare expression statement with no dataflow-relevant shape: its
		// statement site stays valid but produces no IR statement.
		return nil
	}
}

func (b *builder) lowerReturn(n *astmodel.Node) error {
	anchor, err := b.anchorOf(n)
	if err != nil {
		return err
	}
	if n.Value == nil {
		b.stmts = append(b.stmts, IrStmt{Kind: SReturn, Anchor: anchor})
		return nil
	}
	value := strip(n.Value)
	if value.Kind == astmodel.KindCallExpr {
		tmp := b.newTemp()
		if err := b.lowerCall(value, &tmp); err != nil {
			return err
		}
		v := Var(tmp)
		b.stmts = append(b.stmts, IrStmt{Kind: SReturn, Anchor: anchor, Value: &v})
		return nil
	}
	rv := b.rvalue(value)
	b.stmts = append(b.stmts, IrStmt{Kind: SReturn, Anchor: anchor, Value: &rv})
	return nil
}

func (b *builder) lowerCall(n *astmodel.Node, dst *ids.VarId) error {
	anchor, err := b.anchorOf(n)
	if err != nil {
		return err
	}
	args := make([]RValue, 0, len(n.Args))
	for _, a := range n.Args {
		args = append(args, b.rvalue(a))
	}
	b.stmts = append(b.stmts, IrStmt{
		Kind: SCall, Anchor: anchor, Dst: dst,
		Callee: b.rvalue(n.Callee), Args: args,
	})
	return nil
}

func (b *builder) lowerAwait(n *astmodel.Node, dst ids.VarId, ownAnchor ids.StmtId) error {
	anchor, err := b.anchorOf(n)
	if err != nil {
		return err
	}
	inner := strip(n.Value)
	if inner != nil && inner.Kind == astmodel.KindCallExpr {
		tmp := b.newTemp()
		if err := b.lowerCall(inner, &tmp); err != nil {
			return err
		}
		d := dst
		b.stmts = append(b.stmts, IrStmt{Kind: SAwait, Anchor: anchor, Dst: &d, Src: Var(tmp)})
		return nil
	}
	d := dst
	b.stmts = append(b.stmts, IrStmt{Kind: SAwait, Anchor: anchor, Dst: &d, Src: b.rvalue(inner)})
	return nil
}

func (b *builder) lowerMemberWrite(target *astmodel.Node, valueNode *astmodel.Node, anchor ids.StmtId) error {
	obj, ok := b.asVar(target.Object)
	if !ok {
		// Object isn't a tracked variable; nothing to anchor the write to.
		return nil
	}
	b.stmts = append(b.stmts, IrStmt{
		Kind: SMemberWrite, Anchor: anchor,
		Object: obj, HasObj: true,
		Prop: b.propertyOf(target.Property, target.Computed),
		Src:  b.rvalue(valueNode),
	})
	return nil
}

// lowerAssignLike handles every RHS shape a `const x = <rhs>` or `x = <rhs>`
// can take, anchored at ownAnchor (the enclosing VarDecl/assignment's own
// statement site — calls, news, and literals get their own, separately
// indexed, anchor instead).
func (b *builder) lowerAssignLike(dst ids.VarId, valueNode *astmodel.Node, ownAnchor ids.StmtId) error {
	value := strip(valueNode)
	if value == nil {
		rv := Undef()
		b.stmts = append(b.stmts, IrStmt{Kind: SAssign, Anchor: ownAnchor, Dst: &dst, Src: rv})
		return nil
	}

	switch value.Kind {
	case astmodel.KindCallExpr:
		d := dst
		return b.lowerCall(value, &d)

	case astmodel.KindAwaitExpr:
		return b.lowerAwait(value, dst, ownAnchor)

	case astmodel.KindNewExpr:
		anchor, err := b.anchorOf(value)
		if err != nil {
			return err
		}
		args := make([]RValue, 0, len(value.Args))
		for _, a := range value.Args {
			args = append(args, b.rvalue(a))
		}
		ctor := b.rvalue(value.Callee)
		d := dst
		b.stmts = append(b.stmts, IrStmt{Kind: SAlloc, Anchor: anchor, Dst: &d, Alloc: AllocNew, Callee: ctor, Args: args})
		return nil

	case astmodel.KindObjectLiteral:
		anchor, err := b.anchorOf(value)
		if err != nil {
			return err
		}
		args := make([]RValue, 0, len(value.Properties))
		for _, p := range value.Properties {
			args = append(args, b.rvalue(p.Value))
		}
		d := dst
		b.stmts = append(b.stmts, IrStmt{Kind: SAlloc, Anchor: anchor, Dst: &d, Alloc: AllocObject, Args: args})
		return nil

	case astmodel.KindArrayLiteral:
		anchor, err := b.anchorOf(value)
		if err != nil {
			return err
		}
		args := make([]RValue, 0, len(value.Args))
		for _, a := range value.Args {
			args = append(args, b.rvalue(a))
		}
		d := dst
		b.stmts = append(b.stmts, IrStmt{Kind: SAlloc, Anchor: anchor, Dst: &d, Alloc: AllocArray, Args: args})
		return nil

	case astmodel.KindConditionalExpr:
		d := dst
		b.stmts = append(b.stmts, IrStmt{
			Kind: SSelect, Anchor: ownAnchor, Dst: &d,
			Cond: b.rvalue(value.Cond), Then: b.rvalue(value.Then), Else: b.rvalue(value.Else),
		})
		return nil

	case astmodel.KindLogicalExpr:
		left := strip(value.Left)
		if astmodel.LogicalOp(value.Op) == astmodel.LogicalNullish && left != nil && left.Kind == astmodel.KindMemberExpr {
			return b.lowerMemberReadPeeled(dst, left, left.Optional, ownAnchor)
		}
		d := dst
		b.stmts = append(b.stmts, IrStmt{
			Kind: SShortCircuit, Anchor: ownAnchor, Dst: &d,
			Op: LogicalOp(value.Op), Left: b.rvalue(value.Left), Right: b.rvalue(value.Right),
		})
		return nil

	case astmodel.KindMemberExpr:
		return b.lowerMemberReadPeeled(dst, value, value.Optional, ownAnchor)

	default:
		d := dst
		b.stmts = append(b.stmts, IrStmt{Kind: SAssign, Anchor: ownAnchor, Dst: &d, Src: b.rvalue(value)})
		return nil
	}
}

func (b *builder) lowerMemberReadPeeled(dst ids.VarId, member *astmodel.Node, optional bool, anchor ids.StmtId) error {
	obj, ok := b.asVar(member.Object)
	if !ok {
		d := dst
		b.stmts = append(b.stmts, IrStmt{Kind: SAssign, Anchor: anchor, Dst: &d, Src: Unknown()})
		return nil
	}
	d := dst
	b.stmts = append(b.stmts, IrStmt{
		Kind: SMemberRead, Anchor: anchor, Dst: &d,
		Object: obj, HasObj: true,
		Prop:     b.propertyOf(member.Property, member.Computed),
		Optional: optional,
	})
	return nil
}

// lowerExpressionBody handles an expression-bodied arrow function, whose Body
// root is the implicit return, assigned a single statement index (0) by the
// indexer. Unlike a block-bodied `return f(x)`, there is no second, separately
// indexed site to promote a call to, so a call (or any other non-variable,
// non-literal shape) in this position degrades to unknown, per the general
// RValue degradation rule in spec.md §4.4.
func (b *builder) lowerExpressionBody(body *astmodel.Node) error {
	anchor, err := b.anchorOf(body)
	if err != nil {
		return err
	}
	rv := b.rvalue(body)
	b.stmts = append(b.stmts, IrStmt{Kind: SReturn, Anchor: anchor, Value: &rv})
	return nil
}
