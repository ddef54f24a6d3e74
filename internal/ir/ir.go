// Package ir implements the Normalized FuncIR from spec.md §3/§4.4: a bounded,
// per-function intermediate representation lowered from the external frontend's
// AST, with an explicit, exhaustively-matched set of statement forms.
package ir

import "jsflow/internal/ids"

// SchemaVersion is the current FuncIR schema version (spec.md §3).
const SchemaVersion = 1

// RValueKind tags the shape of an RValue.
type RValueKind int

const (
	RVar RValueKind = iota
	RLit
	RUndef
	RUnknown
)

// LiteralKind tags the primitive type of an RLit RValue.
type LiteralKind int

const (
	LitString LiteralKind = iota
	LitNumber
	LitBoolean
	LitNull
)

// RValue is the `var(VarId) | lit(str|num|bool|null) | undef | unknown` variant
// from spec.md §3. Exactly one field set is meaningful per Kind: RVar populates
// Var, RLit populates LitKind/LitValue, RUndef and RUnknown populate neither.
type RValue struct {
	Kind     RValueKind
	Var      ids.VarId
	LitKind  LiteralKind
	LitValue any
}

func Var(v ids.VarId) RValue { return RValue{Kind: RVar, Var: v} }
func Undef() RValue          { return RValue{Kind: RUndef} }
func Unknown() RValue        { return RValue{Kind: RUnknown} }
func Lit(kind LiteralKind, value any) RValue {
	return RValue{Kind: RLit, LitKind: kind, LitValue: value}
}

// Property is a heap bucket's property key: a concrete name, or the dynamic
// sentinel ids.DynamicProperty for a computed key the cheap pass cannot resolve
// to a literal (spec.md §4.5).
type Property struct {
	Dynamic bool
	Name    string
}

func NamedProperty(name string) Property { return Property{Name: name} }
func DynamicKeyProperty() Property       { return Property{Dynamic: true, Name: ids.DynamicProperty} }

// StmtKind tags the syntactic shape of an IrStmt, per spec.md §2/§4.4's lowering
// table: assign, return, call, await, member_write, member_read, select,
// short_circuit, alloc.
type StmtKind int

const (
	SAssign StmtKind = iota
	SReturn
	SCall
	SAwait
	SMemberWrite
	SMemberRead
	SSelect
	SShortCircuit
	SAlloc
)

// LogicalOp tags a short-circuit operator.
type LogicalOp int

const (
	OpAnd LogicalOp = iota
	OpOr
	OpNullish
)

// AllocKind tags the shape of an alloc statement's source expression.
type AllocKind int

const (
	AllocNew AllocKind = iota
	AllocObject
	AllocArray
)

// IrStmt is one lowered statement or lowered sub-expression promoted to
// statement rank (a call or await nested in a return/assign position, per
// spec.md §4.4). Anchor is the StmtId (CallsiteId, for SCall) the statement is
// addressed by; within a function, anchor IDs are unique (spec.md §3).
//
// Field use by Kind:
//   - SAssign: Dst, Src
//   - SReturn: Value (nil pointer for a bare `return`)
//   - SCall: Dst (nil for a call used only for its side effect), Callee, Args
//   - SAwait: Dst, Src
//   - SMemberWrite: Object, Prop, Src
//   - SMemberRead: Dst, Object, Prop, Optional
//   - SSelect: Dst, Cond, Then, Else
//   - SShortCircuit: Dst, Op, Left, Right
//   - SAlloc: Dst, Alloc, Callee (constructor; left unset for object/array literals), Args
type IrStmt struct {
	Kind   StmtKind
	Anchor ids.StmtId

	Dst *ids.VarId

	// SAssign/SAwait/SMemberWrite source value.
	Src RValue

	// SReturn.
	Value *RValue

	// SCall/SAlloc.
	Callee RValue
	Args   []RValue
	Alloc  AllocKind

	// SMemberWrite/SMemberRead.
	Object   ids.VarId
	HasObj   bool
	Prop     Property
	Optional bool

	// SSelect.
	Cond, Then, Else RValue

	// SShortCircuit.
	Op          LogicalOp
	Left, Right RValue
}

// FuncIR is the Normalized FuncIR from spec.md §3: `{ schemaVersion, funcId,
// params: [VarId], locals: [VarId], stmts: [IrStmt] }`.
type FuncIR struct {
	SchemaVersion int
	FuncID        ids.FuncId
	Params        []ids.VarId
	Locals        []ids.VarId
	Stmts         []IrStmt
}
