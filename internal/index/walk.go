package index

import "jsflow/internal/astmodel"

// isFunctionLike reports whether n is one of the function-shaped Kinds.
func isFunctionLike(n *astmodel.Node) bool {
	switch n.Kind {
	case astmodel.KindFunctionDecl, astmodel.KindFunctionExpr, astmodel.KindArrowFunction:
		return true
	default:
		return false
	}
}

// isStatementSiteKind reports whether a node of this Kind is, on its own, a
// "statement site" per spec.md §4.3, independent of context.
func isStatementSiteKind(k astmodel.Kind) bool {
	switch k {
	case astmodel.KindExprStmt, astmodel.KindReturnStmt, astmodel.KindVarDecl,
		astmodel.KindIfStmt, astmodel.KindForStmt, astmodel.KindWhileStmt, astmodel.KindOtherStmt,
		astmodel.KindCallExpr, astmodel.KindNewExpr,
		astmodel.KindObjectLiteral, astmodel.KindArrayLiteral,
		astmodel.KindAwaitExpr:
		return true
	default:
		return false
	}
}

// isTransparentWrapper reports whether n must be stripped before lowering
// (spec.md §4.4) and, for statement-indexing purposes, simply passed through to
// its wrapped value without being a site itself.
func isTransparentWrapper(k astmodel.Kind) bool {
	switch k {
	case astmodel.KindParenExpr, astmodel.KindTypeCastExpr, astmodel.KindNonNullExpr, astmodel.KindAsExpr:
		return true
	default:
		return false
	}
}

// statementChildren returns n's children in source order for the *per-function*
// statement walk: nested function-like nodes are never descended into (they are
// indexed as separate functions by the discovery walk instead).
func statementChildren(n *astmodel.Node) []*astmodel.Node {
	if isFunctionLike(n) {
		return nil
	}
	switch n.Kind {
	case astmodel.KindBlock, astmodel.KindIfStmt, astmodel.KindForStmt, astmodel.KindWhileStmt, astmodel.KindOtherStmt:
		return n.Children
	case astmodel.KindExprStmt:
		return oneOrNone(n.Value)
	case astmodel.KindReturnStmt:
		return oneOrNone(n.Value)
	case astmodel.KindVarDecl:
		return oneOrNone(n.Value)
	case astmodel.KindCallExpr, astmodel.KindNewExpr:
		out := oneOrNone(n.Callee)
		return append(out, n.Args...)
	case astmodel.KindObjectLiteral:
		var out []*astmodel.Node
		for _, p := range n.Properties {
			out = append(out, oneOrNone(p.Value)...)
		}
		return out
	case astmodel.KindArrayLiteral:
		return n.Args
	case astmodel.KindAwaitExpr:
		return oneOrNone(n.Value)
	case astmodel.KindAssignExpr:
		out := oneOrNone(n.Target)
		return append(out, oneOrNone(n.Value)...)
	case astmodel.KindMemberExpr:
		out := oneOrNone(n.Object)
		if n.Computed {
			out = append(out, oneOrNone(n.Property)...)
		}
		return out
	case astmodel.KindConditionalExpr:
		return []*astmodel.Node{n.Cond, n.Then, n.Else}
	case astmodel.KindLogicalExpr:
		return []*astmodel.Node{n.Left, n.Right}
	case astmodel.KindParenExpr, astmodel.KindTypeCastExpr, astmodel.KindNonNullExpr, astmodel.KindAsExpr:
		return oneOrNone(n.Value)
	default:
		return nil
	}
}

// discoveryChildren returns n's children for the whole-program function
// discovery walk: unlike statementChildren, it continues into a function-like
// node's Body so that nested function declarations are found.
func discoveryChildren(n *astmodel.Node) []*astmodel.Node {
	if isFunctionLike(n) {
		return oneOrNone(n.Body)
	}
	return statementChildren(n)
}

func oneOrNone(n *astmodel.Node) []*astmodel.Node {
	if n == nil {
		return nil
	}
	return []*astmodel.Node{n}
}
