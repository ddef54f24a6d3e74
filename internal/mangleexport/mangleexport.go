// Package mangleexport renders a finished FlowFact set as Mangle atoms for
// ad hoc declarative querying, the same atom-construction shape as the
// teacher's internal/mangle engine.go:factToAtomLocked. Export only: nothing
// here depends on the Mangle evaluator, and the fixpoint driver never
// imports this package — the heap-lifting semantics of internal/fixpoint
// are bespoke per-parameter-anchor bookkeeping that isn't expressible as
// stratified Datalog without losing precision.
package mangleexport

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/mangle/ast"

	"jsflow/internal/facts"
)

// FlowEdgePredicate is the exported predicate: flow_edge(funcId, fromNode, toNode, schemaVersion).
var FlowEdgePredicate = ast.PredicateSym{Symbol: "flow_edge", Arity: 4}

// ToAtom renders one FlowFact as a flow_edge/4 atom. The From/To node
// identities are flattened to their canonical string form (cheappass.Node.String)
// rather than split into per-field arguments, since Mangle's fixed arity can't
// express the variant shape of a tagged-sum node without per-kind predicates.
func ToAtom(f facts.FlowFact) ast.Atom {
	return ast.Atom{
		Predicate: FlowEdgePredicate,
		Args: []ast.BaseTerm{
			ast.String(f.Func.String()),
			ast.String(f.From.String()),
			ast.String(f.To.String()),
			ast.Number(int64(f.SchemaVersion)),
		},
	}
}

// ToAtoms renders every fact in fs as a flow_edge/4 atom, preserving fs's order.
func ToAtoms(fs []facts.FlowFact) []ast.Atom {
	out := make([]ast.Atom, 0, len(fs))
	for _, f := range fs {
		out = append(out, ToAtom(f))
	}
	return out
}

// renderAtom renders one atom as a ground Mangle fact clause, e.g.
// `flow_edge("f:...", "var:p0", "return", 1).`.
func renderAtom(a ast.Atom) string {
	args := make([]string, len(a.Args))
	for i, arg := range a.Args {
		if c, ok := arg.(ast.Constant); ok {
			args[i] = c.String()
		} else {
			args[i] = fmt.Sprint(arg)
		}
	}
	return fmt.Sprintf("%s(%s).\n", a.Predicate.Symbol, strings.Join(args, ", "))
}

// WriteFacts writes every fact in fs as a ground Mangle clause, one per line,
// so the output file can be loaded directly into a Mangle store for ad hoc
// querying of a run's flow facts.
func WriteFacts(w io.Writer, fs []facts.FlowFact) error {
	for _, a := range ToAtoms(fs) {
		if _, err := io.WriteString(w, renderAtom(a)); err != nil {
			return err
		}
	}
	return nil
}
