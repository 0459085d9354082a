// truthiness.go — local truthiness/type inference, spec.md §4.3.
//
// This is a small, one-pass, non-unifying lattice: {boolean, some,
// nil-or-other}. It is deliberately not a Hindley-Milner engine (no type
// variables, no generalization, no environment of schemes) — see
// DESIGN.md's note on why github.com/chewxy/hm was considered and
// rejected. The lattice's *shape* (a handful of named cases threaded
// through a recursive tree walk) is grounded on the teacher's types.go
// structural lattice (nullable/array/map/enum/function, LUB rules), scaled
// down to the three cases spec.md actually needs.
package clojuredart

// Truthiness classifies what is statically known about an IR node's
// run-time value with respect to the source language's truthiness rule
// (only nil and false are falsy; everything else is truthy).
type Truthiness int

const (
	// TruthUnknown means "nil-or-other": nothing is statically known.
	TruthUnknown Truthiness = iota
	// TruthBoolean means the value is provably a boolean.
	TruthBoolean
	// TruthSome means the value is provably non-nil and non-boolean.
	TruthSome
)

// booleanOperators is the set of operator method names that provably
// return a boolean, per spec.md §4.3.
var booleanOperators = map[string]bool{
	"<": true, "<=": true, ">": true, ">=": true,
	"==": true, "!=": true, "&": true, "|": true, "^": true, "!": true,
}

// InferTruthiness computes the Truthiness of an already-analyzed IR node.
// It is called once per node as the analyzer builds IR bottom-up, so it
// only ever needs to look at the node's own constructor and its already-
// computed children — never re-walks the tree.
func InferTruthiness(n IR) Truthiness {
	switch v := n.(type) {
	case *IRLiteral:
		switch v.Value.(type) {
		case Bool:
			return TruthBoolean
		case Nil:
			return TruthUnknown // nil is falsy but "unknown-or-other" per the 3-case lattice
		default:
			return TruthSome
		}
	case *IRMethodCall:
		if booleanOperators[v.Member] {
			return TruthBoolean
		}
		return TruthUnknown
	case *IRIs:
		return TruthBoolean
	case *IRAs:
		return typeTruthiness(v.Type)
	case *IRLet:
		return v.Body.Truthiness()
	case *IRIf:
		return joinTruthiness(v.Then.Truthiness(), v.Else.Truthiness())
	default:
		return TruthUnknown
	}
}

// typeTruthiness derives a Truthiness from a cast's static target type —
// spec.md §4.3: "`as` expressions (typed by their cast target)".
func typeTruthiness(t *TypeTag) Truthiness {
	if t == nil {
		return TruthUnknown
	}
	if t.Name == "bool" || t.Name == "Bool" {
		return TruthBoolean
	}
	return TruthSome
}

// joinTruthiness computes the least upper bound of two branches' truthiness
// for an `if` node: only agreement on a non-unknown case survives.
func joinTruthiness(a, b Truthiness) Truthiness {
	if a == b {
		return a
	}
	return TruthUnknown
}

// TestExpr renders the test-emission strategy spec.md §4.3 mandates for a
// given Truthiness: boolean tests emit bare, some tests emit a nil check,
// and unknown tests emit the full truthiness check.
type TestStrategy int

const (
	TestBare TestStrategy = iota // boolean: emit bare
	TestNilCheck                 // some: emit `test != nil`
	TestFull                     // unknown: emit `test != false && test != nil`
)

// StrategyFor returns the emission strategy for a test of the given
// Truthiness.
func StrategyFor(t Truthiness) TestStrategy {
	switch t {
	case TruthBoolean:
		return TestBare
	case TruthSome:
		return TestNilCheck
	default:
		return TestFull
	}
}
