// lift.go — A-normalization ("lifting"), spec.md §4.3.
//
// Call sites and aggregate constructors require atomic operands. Grounded on
// the teacher's interpreter_ops.go emitter pass, which hoists compound
// sub-expressions into explicit bytecode temporaries before emitting an
// opcode that consumes them — the same "operand must already be a value
// slot" discipline, reapplied here as source-to-source temporaries instead
// of stack slots.
package clojuredart

// isAtomic reports whether ir can be used directly as an operand without
// being pre-evaluated into a temporary: a literal, an identifier reference,
// or a bare field read (field reads are assumed side-effect-free, per
// spec.md §4.3's "bare field/method reference that need not be
// pre-evaluated").
func isAtomic(ir IR) bool {
	switch ir.(type) {
	case *IRLiteral, *IRIdentRef, *IRFieldRead:
		return true
	default:
		return false
	}
}

// lift returns the bindings required to evaluate ir into an atomic operand,
// plus that atomic operand itself. If ir is already atomic, no bindings are
// needed. If ir is a let, its bindings are hoisted rather than wrapped
// (spec.md: "if the operand is already a let, its bindings are hoisted").
func lift(an *Analyzer, ir IR) ([]Binding, IR) {
	if isAtomic(ir) {
		return nil, ir
	}
	if l, ok := ir.(*IRLet); ok {
		innerBindings, atom := lift(an, l.Body)
		return append(append([]Binding{}, l.Bindings...), innerBindings...), atom
	}
	name := an.Gensym("t")
	id := &Ident{Name: name, Truth: ir.Truthiness()}
	return []Binding{{Ident: id, Value: ir}}, mkIdentRef(ir.Position(), id)
}

// liftArgs lifts a full argument list, preserving source order in the
// returned bindings even though each operand is lowered independently.
func liftArgs(an *Analyzer, args []IR) ([]Binding, []IR) {
	var allBindings []Binding
	atoms := make([]IR, len(args))
	for i, a := range args {
		bindings, atom := lift(an, a)
		allBindings = append(allBindings, bindings...)
		atoms[i] = atom
	}
	return allBindings, atoms
}

// wrapLifted wraps body in a let over bindings, or returns body unchanged
// when there are no bindings to hoist.
func wrapLifted(pos Pos, bindings []Binding, body IR) IR {
	if len(bindings) == 0 {
		return body
	}
	return mkLet(pos, bindings, body)
}

// splitPositionalNamed separates a raw argument-form list into its leading
// positional run and its trailing named-argument run, per spec.md §3's "the
// boundary is a distinguished sentinel in the surface form": the first
// Keyword encountered marks the boundary, and every two items from there on
// must be (keyword, value).
func splitPositionalNamed(items []Form) (positional []Form, named []rawNamedArg, err error) {
	i := 0
	for i < len(items) {
		if _, ok := items[i].(Keyword); ok {
			break
		}
		positional = append(positional, items[i])
		i++
	}
	for i < len(items) {
		k, ok := items[i].(Keyword)
		if !ok {
			return nil, nil, &UnsupportedLiteralError{Detail: "named argument name must be a keyword, got " + Dump(items[i])}
		}
		if i+1 >= len(items) {
			return nil, nil, &UnsupportedLiteralError{Detail: "named argument " + k.String() + " has no value"}
		}
		named = append(named, rawNamedArg{Name: k.Name, Value: items[i+1]})
		i += 2
	}
	return positional, named, nil
}

// rawNamedArg is one (name, value) surface pair prior to analysis.
type rawNamedArg struct {
	Name  string
	Value Form
}
