// Package astmodel defines the contract between the external language frontend
// (spec.md §1: "parsing of source text into an AST... assumed provided by a
// language frontend producing function/statement syntax trees with byte-offset
// spans") and this module's indexers and IR builder. The core never parses
// source text; it only walks the tree a frontend already produced.
//
// Node is a tagged sum type over every JS/TS syntax shape the IR builder's
// lowering table (spec.md §4.4) needs to recognize. Fields are a union of slots
// used by different Kinds; a given Kind only populates the fields its row in the
// lowering table names. This mirrors spec.md §9's "Polymorphic AST nodes... tagged
// sum types with exhaustive match at every site": callers type-switch on Kind and
// never probe fields outside that Kind's documented set.
package astmodel

// Kind tags the syntactic shape of a Node.
type Kind int

const (
	KindInvalid Kind = iota

	// Function-like nodes. Body is nil for declarations without a body (ambient
	// declarations), which the function indexer skips per spec.md §4.3.
	KindFunctionDecl
	KindFunctionExpr
	KindArrowFunction

	// Statement nodes.
	KindBlock // never itself a statement site, spec.md §4.3
	KindExprStmt
	KindReturnStmt
	KindVarDecl // one declarator: `const x = y`
	KindIfStmt
	KindForStmt
	KindWhileStmt
	KindOtherStmt // switch/try/throw/break/... — still a statement site, opaque to lowering

	// Expression nodes that are also statement sites in their own right.
	KindCallExpr
	KindNewExpr
	KindObjectLiteral
	KindArrayLiteral
	KindAwaitExpr

	// Other expression nodes.
	KindAssignExpr
	KindMemberExpr
	KindConditionalExpr // ternary
	KindLogicalExpr     // &&, ||, ??
	KindIdentifier
	KindLiteral
	KindThisExpr
	KindUndefinedExpr

	// Wrapper nodes stripped before lowering (spec.md §4.4: "stripped of
	// type/paren/non-null/as-casts before lowering").
	KindParenExpr
	KindTypeCastExpr
	KindNonNullExpr
	KindAsExpr
)

// LiteralKind tags the primitive type of a KindLiteral node.
type LiteralKind int

const (
	LiteralString LiteralKind = iota
	LiteralNumber
	LiteralBoolean
	LiteralNull
)

// LogicalOp tags the operator of a KindLogicalExpr node.
type LogicalOp int

const (
	LogicalAnd LogicalOp = iota
	LogicalOr
	LogicalNullish
)

// Node is one syntax tree node. See the Kind constants above for which fields a
// given Kind populates:
//
//   - KindFunctionDecl/Expr/ArrowFunction: Params, Body, IsExpressionBody
//   - KindBlock: Children (statements, in source order)
//   - KindExprStmt: Value
//   - KindReturnStmt: Value (nil for bare `return`)
//   - KindVarDecl: DeclName, Value (nil if no initializer)
//   - KindIfStmt/ForStmt/WhileStmt/OtherStmt: Children (sub-statements reachable
//     from this node, in source order; used only to continue the walk)
//   - KindCallExpr/NewExpr: Callee, Args
//   - KindObjectLiteral: Properties (each a Node with Name/Computed/Value)
//   - KindArrayLiteral: Args (elements)
//   - KindAwaitExpr: Value
//   - KindAssignExpr: Target, Value
//   - KindMemberExpr: Object, Property (nil if Computed and no static name), Computed, Optional
//   - KindConditionalExpr: Cond, Then, Else
//   - KindLogicalExpr: Op, Left, Right
//   - KindIdentifier: Name
//   - KindLiteral: LiteralKind, LiteralValue
//   - KindParenExpr/TypeCastExpr/NonNullExpr/AsExpr: Value (the wrapped expression)
type Node struct {
	Kind  Kind
	Start int
	End   int

	// Function-like
	Params           []string
	Body             *Node
	IsExpressionBody bool

	// Generic statement/container children, in source order.
	Children []*Node

	// Declarations / identifiers / literals
	DeclName    string
	Name        string
	LiteralKind LiteralKind
	LiteralValue any

	// Calls / allocations
	Callee *Node
	Args   []*Node

	// Member access / assignment
	Object   *Node
	Property *Node
	Computed bool
	Optional bool
	Target   *Node

	// Conditional / logical
	Cond, Then, Else *Node
	Op               LogicalOp
	Left, Right      *Node

	// Object literal properties: Name/Computed/Value populated, Object/Property unused.
	Properties []*Node

	// Generic single-operand slot: await operand, expr-stmt value, return value,
	// var-decl initializer, assign RHS, paren/cast/non-null/as wrapped value,
	// object-literal property value.
	Value *Node
}

// SourceFile is one file's parsed program, as the frontend hands it to the indexer.
type SourceFile struct {
	// Path is repo-relative with '/' separators, matching ids.FuncId's contract.
	Path string
	// Root holds the file's top-level statements as Children, in source order.
	Root *Node
}

// Program is the complete parsed input to one analysis run.
type Program struct {
	Files []SourceFile
}
