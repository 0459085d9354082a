// locus.go — the emitter's print-position strategy, spec.md §4.4.
//
// Grounded on the teacher's printer.go, which threads a width-budget and
// indent-context value down through its recursive print calls so every
// callee knows how to format without re-deriving its surroundings; Locus
// plays the same role here, but the "context" being threaded is *what kind
// of syntactic position* a value is being printed into, not layout budget.
package clojuredart

// LocusKind names one of the fixed print positions spec.md §4.4 lists.
type LocusKind int

const (
	LocusStatement LocusKind = iota
	LocusReturn
	LocusThrow
	LocusExpression
	LocusArgument
	LocusParenthesized
	LocusNamedFunction
	LocusVariableDeclaration
	LocusAssignment
	LocusNamedArgument
)

// Locus is a contextual print strategy: what precedes/follows the emitted
// text, whether this position exits control flow, and — for
// LocusVariableDeclaration — the pre-declared variable name an `if`/`case`/
// `try` value must assign into rather than directly returning.
type Locus struct {
	Kind LocusKind
	// DeclareVar is the pre-declared variable name a compound value (an
	// `if`/`case`/`try` used as an expression) must assign into, used only
	// when Kind is LocusVariableDeclaration.
	DeclareVar string
	// NamedFunctionName carries the function name when Kind is
	// LocusNamedFunction.
	NamedFunctionName string
}

func stmtLocus() Locus   { return Locus{Kind: LocusStatement} }
func returnLocus() Locus { return Locus{Kind: LocusReturn} }
func exprLocus() Locus   { return Locus{Kind: LocusExpression} }

// exits reports whether a statement emitted against this locus always
// leaves the enclosing block (return/throw/continue), so callers writing an
// `if` can omit a redundant `else` wrapper — spec.md §4.4's "if the then
// branch exits control flow ... omit the else brace wrapper".
func (l Locus) exits() bool {
	return l.Kind == LocusReturn || l.Kind == LocusThrow
}
