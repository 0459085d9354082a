// ir.go — the intermediate tree the analyzer lowers to, spec.md §3.
//
// Each constructor below is a fixed-arity struct, as spec.md's IR table
// requires. Every node caches its own Truthiness (computed once, bottom-up,
// by the analyzer via InferTruthiness) so the emitter never needs to re-walk
// children to decide how to print an `if` test.
package clojuredart

// Pos is a 1-based source position, attached to IR nodes for diagnostics —
// grounded on the teacher's own 1-based Line/Col convention in errors.go.
type Pos struct {
	Line, Col int
}

// IR is any node of the intermediate tree.
type IR interface {
	irNode()
	// Truthiness returns this node's statically inferred truthiness.
	Truthiness() Truthiness
	// Position returns the node's source position (zero value if unknown).
	Position() Pos
}

// base is embedded by every IR node to supply Truthiness/Position storage
// without repeating the same two fields and methods on every struct.
type base struct {
	pos   Pos
	truth Truthiness
}

func (b *base) irNode()           {}
func (b *base) Truthiness() Truthiness { return b.truth }
func (b *base) Position() Pos          { return b.pos }

// Atom is a literal or identifier reference — not itself an IR constructor
// (spec.md: "Values that are not IR constructors are literal atoms ...  or
// identifiers"), but it implements IR so it can appear wherever an operand
// is expected.

// IRLiteral wraps a literal atom (number, string, nil, boolean), a quoted
// form, a tagged literal, or a symbol the analyzer synthesizes itself.
type IRLiteral struct {
	base
	Value Form // a Nil, Bool, Number or String atom, or a quoted/synthesized Form
}

// IRIdentRef references a previously-bound or resolved identifier.
type IRIdentRef struct {
	base
	Ident *Ident
}

// Binding is one (id-or-nil, ir) pair of a `let`/`loop` binding list. A nil
// Ident means a pure statement (the value is evaluated for effect only).
type Binding struct {
	Ident *Ident
	Value IR
}

// IRLet is spec.md's `let`: sequential binding.
type IRLet struct {
	base
	Bindings []Binding
	Body     IR
}

// IRIf is spec.md's `if`.
type IRIf struct {
	base
	Test, Then, Else IR
}

// IRLoop is spec.md's `loop`: the target of recur.
type IRLoop struct {
	base
	Bindings []Binding
	Body     IR
}

// IRRecur is spec.md's `recur`: tail rebind and jump.
type IRRecur struct {
	base
	Args []IR
}

// OptKind distinguishes a function's optional-parameter calling convention.
type OptKind int

const (
	OptNone OptKind = iota
	OptPositional
	OptNamed
)

// OptParam is one optional parameter with its default value expression.
type OptParam struct {
	Ident   *Ident
	Default IR
}

// Params is a function's full parameter list, per spec.md's `fn` operand.
type Params struct {
	Fixed   []*Ident
	OptKind OptKind
	Opt     []OptParam
	// Variadic is non-nil when the last fixed parameter collects a rest
	// argument list (spec.md §4.3's variadic lowering).
	Variadic *Ident
}

// IRFn is spec.md's `fn`: a first-class function.
type IRFn struct {
	base
	Params Params
	Body   IR
	// Name is non-empty when this fn is emitted as a named function
	// declaration rather than an anonymous closure (spec.md §4.4's let rule
	// for `fn` values).
	Name string
}

// CaseClause is one (literal-values, ir) arm of a `case`.
type CaseClause struct {
	Values []Form
	Body   IR
}

// IRCase is spec.md's `case`: multi-way literal dispatch.
type IRCase struct {
	base
	Scrutinee IR
	Clauses   []CaseClause
	Default   IR
}

// Catch is one (class-id, exn-id, stacktrace-id?, ir) catch clause.
type Catch struct {
	ClassID    string
	ExnIdent   *Ident
	StackIdent *Ident // nil when no stack-trace binding was requested
	Body       IR
}

// IRTry is spec.md's `try`.
type IRTry struct {
	base
	Body    IR
	Catches []Catch
	Finally IR // nil when no finally clause
}

// IRThrow is spec.md's `throw`: always statement position.
type IRThrow struct {
	base
	Expr IR
}

// IRMethodCall is spec.md's `.`: method/operator invocation.
type IRMethodCall struct {
	base
	Object IR
	Member string
	Args   []IR
}

// IRFieldRead is spec.md's `.-`: field read.
type IRFieldRead struct {
	base
	Object IR
	Field  string
}

// AssignTarget is either a bare identifier or a field-access target for
// `set!`.
type AssignTarget struct {
	Ident *Ident      // non-nil for a bare identifier target
	Field *IRFieldRead // non-nil for a `.-field` target
}

// IRSet is spec.md's `set!`: mutation.
type IRSet struct {
	base
	Target AssignTarget
	Value  IR
}

// NamedArg is one named-argument pair in a call/new argument list.
type NamedArg struct {
	Name string
	Arg  IR
}

// IRNew is spec.md's `new`: construction.
type IRNew struct {
	base
	Class     IR
	Args      []IR
	NamedArgs []NamedArg
}

// IRIs is spec.md's `is`: runtime type test.
type IRIs struct {
	base
	Expr IR
	Type *TypeTag
}

// IRAs is spec.md's `as`: unchecked cast.
type IRAs struct {
	base
	Expr IR
	Type *TypeTag
}

// IRCall is spec.md's plain call.
type IRCall struct {
	base
	Callee    IR
	Args      []IR
	NamedArgs []NamedArg
	// Dispatch marks how the emitter should generate the call, set by the
	// analyzer's function-lowering pass (spec.md §4.3/§4.4).
	Dispatch CalleeDispatch
}

// CalleeDispatch records what the analyzer knows about a call's callee, so
// the emitter (§4.4) can pick direct/invoke-style/runtime-branch codegen
// without re-deriving it.
type CalleeDispatch int

const (
	DispatchUnknown CalleeDispatch = iota
	DispatchNative
	DispatchInvoke
)

// mk* helpers build IR nodes with their Truthiness filled in from
// InferTruthiness, so every analyzer rule that constructs a node gets
// truthiness for free instead of remembering to call it.

func mkLiteral(pos Pos, v Form) *IRLiteral {
	n := &IRLiteral{base: base{pos: pos}, Value: v}
	n.truth = InferTruthiness(n)
	return n
}

func mkIdentRef(pos Pos, id *Ident) *IRIdentRef {
	return &IRIdentRef{base: base{pos: pos, truth: id.Truth}, Ident: id}
}

func mkLet(pos Pos, bindings []Binding, body IR) *IRLet {
	n := &IRLet{base: base{pos: pos}, Bindings: bindings, Body: body}
	n.truth = InferTruthiness(n)
	return n
}

func mkIf(pos Pos, test, then, els IR) *IRIf {
	n := &IRIf{base: base{pos: pos}, Test: test, Then: then, Else: els}
	n.truth = InferTruthiness(n)
	return n
}

func mkMethodCall(pos Pos, obj IR, member string, args []IR) *IRMethodCall {
	n := &IRMethodCall{base: base{pos: pos}, Object: obj, Member: member, Args: args}
	n.truth = InferTruthiness(n)
	return n
}

func mkIs(pos Pos, expr IR, t *TypeTag) *IRIs {
	n := &IRIs{base: base{pos: pos}, Expr: expr, Type: t}
	n.truth = InferTruthiness(n)
	return n
}

func mkAs(pos Pos, expr IR, t *TypeTag) *IRAs {
	n := &IRAs{base: base{pos: pos}, Expr: expr, Type: t}
	n.truth = InferTruthiness(n)
	return n
}
