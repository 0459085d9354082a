// emitter.go — the Emitter (EM), spec.md §4.4.
//
// Grounded on the teacher's printer.go pretty-printer: a recursive writer
// threading a contextual strategy value (there, indent/width; here, Locus)
// down through every recursive call, plus dedicated string-escaping helpers
// (strings_emit.go). Two of the teacher's stack-scoped dynamic values
// reappear here in the same save/restore shape spec.md §5 requires: the
// nearest enclosing loop's bindings (for `recur`) and the nearest enclosing
// catch's exception identifier (for `rethrow`).
package clojuredart

import (
	"fmt"
	"strings"
)

// Emitter writes target-language source text for IR nodes and class
// descriptions. Like Analyzer and Registry, it is single-owner.
type Emitter struct {
	Reg *Registry

	loopBindings []Binding
	caughtExn    string
}

// NewEmitter constructs an Emitter bound to reg.
func NewEmitter(reg *Registry) *Emitter { return &Emitter{Reg: reg} }

// EmitTopLevelFn renders a named top-level function declaration, per
// spec.md §4.3's "emitted as a top-level function" def rule.
func (em *Emitter) EmitTopLevelFn(ns *NamespaceRecord, target string, fn *IRFn) (string, error) {
	params := em.emitParamList(fn.Params, false)
	body := em.emitStatement(fn.Body, returnLocus())
	return fmt.Sprintf("dynamic %s(%s) {\n%s}\n", target, params, indent(body)), nil
}

// EmitTopLevelField renders a top-level field definition: the value's
// emission directly when it is a simple expression, or a zero-arg thunk
// invocation otherwise (spec.md §4.3).
func (em *Emitter) EmitTopLevelField(ns *NamespaceRecord, target string, value IR) (string, error) {
	if !isCompoundStatementIR(value) {
		return fmt.Sprintf("dynamic %s = %s;\n", target, em.emitExpr(value)), nil
	}
	body := em.emitStatement(value, returnLocus())
	return fmt.Sprintf("dynamic %s = (() {\n%s})();\n", target, indent(body)), nil
}

// EmitClass renders a full class declaration from a ClassDesc, per
// spec.md §4.4's "Class writing" paragraph.
func (em *Emitter) EmitClass(ns *NamespaceRecord, desc *ClassDesc) (string, error) {
	var b strings.Builder
	header := "class " + Mangle(desc.Name)
	if desc.Extends != "" {
		header += " extends " + desc.Extends
	}
	if len(desc.Implements) > 0 {
		header += " implements " + strings.Join(desc.Implements, ", ")
	}
	if len(desc.Mixins) > 0 {
		header += " with " + strings.Join(desc.Mixins, ", ")
	}
	b.WriteString(header + " {\n")

	for _, f := range desc.Fields {
		mut := ""
		if !desc.MutableFields[f] {
			mut = "final "
		}
		fmt.Fprintf(&b, "  %sdynamic %s;\n", mut, f)
	}

	ctorParams := make([]string, len(desc.Fields))
	for i, f := range desc.Fields {
		ctorParams[i] = "this." + f
	}
	ctorLine := fmt.Sprintf("  %s(%s)", Mangle(desc.Name), strings.Join(ctorParams, ", "))
	if desc.SuperCtor != nil {
		args := make([]string, len(desc.SuperCtor.Args))
		for i, a := range desc.SuperCtor.Args {
			args[i] = em.emitExpr(a)
		}
		method := ""
		if desc.SuperCtor.Method != "" {
			method = "." + desc.SuperCtor.Method
		}
		ctorLine += fmt.Sprintf(" : super%s(%s)", method, strings.Join(args, ", "))
	}
	b.WriteString(ctorLine + ";\n")

	for _, m := range desc.Methods {
		b.WriteString(em.emitClassMethod(m))
	}

	if desc.NeedNoSuchMethod {
		b.WriteString("  @override\n  dynamic noSuchMethod(Invocation invocation) => super.noSuchMethod(invocation);\n")
	}

	b.WriteString("}\n")
	return b.String(), nil
}

func (em *Emitter) emitClassMethod(m ClassMethod) string {
	params := em.emitParamList(m.Params, true)
	switch m.Kind {
	case MethodAbstract:
		return fmt.Sprintf("  dynamic %s(%s);\n", m.Name, params)
	case MethodGetter:
		return fmt.Sprintf("  dynamic get %s {\n%s  }\n", m.Name, indent(em.emitStatement(m.Body, returnLocus())))
	case MethodSetter:
		return fmt.Sprintf("  set %s(%s) {\n%s  }\n", m.Name, params, indent(em.emitStatement(m.Body, stmtLocus())))
	default:
		return fmt.Sprintf("  dynamic %s(%s) {\n%s  }\n", m.Name, params, indent(em.emitStatement(m.Body, returnLocus())))
	}
}

// EmitNamespace renders a namespace's full generated file body: its import
// directives in allocation order, followed by each definition's
// pre-rendered source in first-defined order (spec.md §6's file driver
// contract).
func (em *Emitter) EmitNamespace(ns *NamespaceRecord) string {
	var b strings.Builder
	for _, alias := range ns.ImportOrder {
		imp := ns.Imports[alias]
		fmt.Fprintf(&b, "import '%s' as %s;\n", imp.LibraryPath, alias)
	}
	if len(ns.ImportOrder) > 0 {
		b.WriteString("\n")
	}
	for _, name := range ns.DefOrder {
		def := ns.Definitions[name]
		if def == nil || def.Emitted == "" {
			continue
		}
		b.WriteString(def.Emitted)
		b.WriteString("\n")
	}
	return b.String()
}

// emitParamList renders a Params list as a target-language parameter
// signature. skipReceiver drops a leading parameter literally named "this"
// (a class method's implicit receiver, not a real parameter).
func (em *Emitter) emitParamList(p Params, skipReceiver bool) string {
	fixed := p.Fixed
	if skipReceiver && len(fixed) > 0 && fixed[0].Name == "this" {
		fixed = fixed[1:]
	}
	parts := make([]string, 0, len(fixed)+1)
	for _, id := range fixed {
		parts = append(parts, "dynamic "+id.Name)
	}
	if p.Variadic != nil {
		parts = append(parts, "List<dynamic> "+p.Variadic.Name)
	}
	switch p.OptKind {
	case OptPositional:
		opts := make([]string, len(p.Opt))
		for i, o := range p.Opt {
			opts[i] = fmt.Sprintf("dynamic %s = %s", o.Ident.Name, em.emitExpr(o.Default))
		}
		parts = append(parts, "["+strings.Join(opts, ", ")+"]")
	case OptNamed:
		opts := make([]string, len(p.Opt))
		for i, o := range p.Opt {
			opts[i] = fmt.Sprintf("dynamic %s = %s", o.Ident.Name, em.emitExpr(o.Default))
		}
		parts = append(parts, "{"+strings.Join(opts, ", ")+"}")
	}
	return strings.Join(parts, ", ")
}

// emitStatement renders ir as zero or more statements against loc, which
// must be one of the statement-shaped loci (statement, return, throw, or
// variable-declaration).
func (em *Emitter) emitStatement(ir IR, loc Locus) string {
	switch v := ir.(type) {
	case *IRLet:
		var b strings.Builder
		for _, bind := range v.Bindings {
			if bind.Ident == nil {
				b.WriteString(em.emitStatement(bind.Value, stmtLocus()))
				continue
			}
			if fn, ok := bind.Value.(*IRFn); ok && fn.Name != "" {
				sig := em.emitParamList(fn.Params, false)
				b.WriteString(fmt.Sprintf("dynamic %s(%s) {\n%s}\n", bind.Ident.Name, sig, indent(em.emitStatement(fn.Body, returnLocus()))))
				continue
			}
			b.WriteString(em.emitVarDecl(bind.Ident, bind.Value))
		}
		b.WriteString(em.emitStatement(v.Body, loc))
		return b.String()
	case *IRIf:
		return em.emitIfStatement(v, loc)
	case *IRLoop:
		return em.emitLoopStatement(v, loc)
	case *IRCase:
		return em.emitCaseStatement(v, loc)
	case *IRTry:
		return em.emitTryStatement(v, loc)
	case *IRRecur:
		return em.emitRecur(v.Args)
	case *IRThrow:
		if id, ok := v.Expr.(*IRIdentRef); ok && em.caughtExn != "" && id.Ident.Name == em.caughtExn {
			return "rethrow;\n"
		}
		return fmt.Sprintf("throw %s;\n", em.emitExpr(v.Expr))
	default:
		expr := em.emitExpr(ir)
		switch loc.Kind {
		case LocusReturn:
			return fmt.Sprintf("return %s;\n", expr)
		case LocusThrow:
			return fmt.Sprintf("throw %s;\n", expr)
		case LocusVariableDeclaration:
			return fmt.Sprintf("%s = %s;\n", loc.DeclareVar, expr)
		default:
			return expr + ";\n"
		}
	}
}

func (em *Emitter) emitVarDecl(id *Ident, value IR) string {
	if !isCompoundStatementIR(value) {
		return fmt.Sprintf("var %s = %s;\n", id.Name, em.emitExpr(value))
	}
	declare := fmt.Sprintf("dynamic %s;\n", id.Name)
	body := em.emitStatement(value, Locus{Kind: LocusVariableDeclaration, DeclareVar: id.Name})
	return declare + body
}

func (em *Emitter) emitIfStatement(v *IRIf, loc Locus) string {
	var b strings.Builder
	fmt.Fprintf(&b, "if (%s) {\n", em.emitTestExpr(v.Test))
	b.WriteString(indent(em.emitStatement(v.Then, loc)))
	b.WriteString("}\n")
	if loc.exits() {
		b.WriteString(em.emitStatement(v.Else, loc))
	} else {
		b.WriteString("else {\n")
		b.WriteString(indent(em.emitStatement(v.Else, loc)))
		b.WriteString("}\n")
	}
	return b.String()
}

func (em *Emitter) emitTestExpr(test IR) string {
	expr := em.emitExpr(test)
	switch StrategyFor(test.Truthiness()) {
	case TestBare:
		return expr
	case TestNilCheck:
		return fmt.Sprintf("%s != null", expr)
	default:
		return fmt.Sprintf("%s != false && %s != null", expr, expr)
	}
}

func (em *Emitter) emitLoopStatement(v *IRLoop, loc Locus) string {
	var b strings.Builder
	for _, bind := range v.Bindings {
		fmt.Fprintf(&b, "var %s = %s;\n", bind.Ident.Name, em.emitExpr(bind.Value))
	}
	b.WriteString("do {\n")
	prev := em.loopBindings
	em.loopBindings = v.Bindings
	body := em.emitStatement(v.Body, loc)
	em.loopBindings = prev
	b.WriteString(indent(body))
	if !irAlwaysExits(v.Body) {
		b.WriteString("  break;\n")
	}
	b.WriteString("} while (true);\n")
	return b.String()
}

// emitRecur rebinds every loop variable from freshly computed temporaries —
// computed first, assigned second — preserving simultaneous-rebind
// semantics (spec.md §4.4), then `continue`s. Always routing through
// temporaries even when a binding's new value does not mention a later
// binding is a conservative simplification of the narrower "only when
// order matters" rule spec.md describes; both renderings are semantically
// identical, so the simplification costs nothing but a few extra locals.
func (em *Emitter) emitRecur(args []IR) string {
	if len(args) == 0 {
		return "continue;\n"
	}
	var b strings.Builder
	temps := make([]string, len(args))
	for i, a := range args {
		temps[i] = fmt.Sprintf("$r%d", i)
		fmt.Fprintf(&b, "var %s = %s;\n", temps[i], em.emitExpr(a))
	}
	for i, bind := range em.loopBindings {
		if i >= len(temps) {
			break
		}
		fmt.Fprintf(&b, "%s = %s;\n", bind.Ident.Name, temps[i])
	}
	b.WriteString("continue;\n")
	return b.String()
}

func (em *Emitter) emitCaseStatement(v *IRCase, loc Locus) string {
	var b strings.Builder
	fmt.Fprintf(&b, "switch (%s) {\n", em.emitExpr(v.Scrutinee))
	for _, c := range v.Clauses {
		for _, val := range c.Values {
			fmt.Fprintf(&b, "case %s:\n", em.emitConstLabel(val))
		}
		b.WriteString(indent(em.emitStatement(c.Body, loc)))
		if !irAlwaysExits(c.Body) {
			b.WriteString("  break;\n")
		}
	}
	if v.Default != nil {
		b.WriteString("default:\n")
		b.WriteString(indent(em.emitStatement(v.Default, loc)))
	}
	b.WriteString("}\n")
	return b.String()
}

func (em *Emitter) emitConstLabel(f Form) string {
	switch t := f.(type) {
	case Nil:
		return "null"
	case Bool:
		if bool(t) {
			return "true"
		}
		return "false"
	case Number:
		return t.Text
	case String:
		return "\"" + EscapeStringLiteral(string(t)) + "\""
	case Keyword:
		return "\"" + EscapeStringLiteral(t.String()) + "\""
	case Symbol:
		return t.Name
	default:
		return "null"
	}
}

func (em *Emitter) emitTryStatement(v *IRTry, loc Locus) string {
	var b strings.Builder
	b.WriteString("try {\n")
	b.WriteString(indent(em.emitStatement(v.Body, loc)))
	b.WriteString("}\n")
	for _, c := range v.Catches {
		stackPart := ""
		if c.StackIdent != nil {
			stackPart = ", " + c.StackIdent.Name
		}
		fmt.Fprintf(&b, "on %s catch (%s%s) {\n", c.ClassID, c.ExnIdent.Name, stackPart)
		prev := em.caughtExn
		em.caughtExn = c.ExnIdent.Name
		b.WriteString(indent(em.emitStatement(c.Body, loc)))
		em.caughtExn = prev
		b.WriteString("}\n")
	}
	if v.Finally != nil {
		b.WriteString("finally {\n")
		b.WriteString(indent(em.emitStatement(v.Finally, stmtLocus())))
		b.WriteString("}\n")
	}
	return b.String()
}

// emitExpr renders ir as a value-producing expression, wrapping a
// statement-shaped node (let/if/loop/case/try) in a zero-argument thunk
// invocation when it appears where only an expression is legal.
func (em *Emitter) emitExpr(ir IR) string {
	switch v := ir.(type) {
	case *IRLiteral:
		return em.emitLiteralValue(v.Value)
	case *IRIdentRef:
		return v.Ident.Name
	case *IRMethodCall:
		return em.emitMethodCall(v)
	case *IRFieldRead:
		return fmt.Sprintf("%s.%s", em.emitExpr(v.Object), v.Field)
	case *IRSet:
		return em.emitSetExpr(v)
	case *IRNew:
		return em.emitNewExpr(v)
	case *IRIs:
		return fmt.Sprintf("(%s is %s)", em.emitExpr(v.Expr), em.resolveTypeTagText(v.Type))
	case *IRAs:
		return fmt.Sprintf("(%s as %s)", em.emitExpr(v.Expr), em.resolveTypeTagText(v.Type))
	case *IRCall:
		return em.emitCallExpr(v)
	case *IRFn:
		params := em.emitParamList(v.Params, false)
		return fmt.Sprintf("(%s) {\n%s}", params, indent(em.emitStatement(v.Body, returnLocus())))
	default:
		return fmt.Sprintf("(() {\n%s})()", indent(em.emitStatement(ir, returnLocus())))
	}
}

// emitClassRef renders ir when it appears in an IRNew's Class slot: a
// literal wrapping a bare Symbol (as every synthesized `new` in this
// compiler constructs) is an already-resolved target class name, printed
// verbatim rather than run through the generic literal/quote machinery.
func (em *Emitter) emitClassRef(ir IR) string {
	if lit, ok := ir.(*IRLiteral); ok {
		if sym, ok := lit.Value.(Symbol); ok {
			return sym.Name
		}
	}
	return em.emitExpr(ir)
}

func (em *Emitter) emitNewExpr(v *IRNew) string {
	args := make([]string, 0, len(v.Args)+len(v.NamedArgs))
	for _, a := range v.Args {
		args = append(args, em.emitExpr(a))
	}
	for _, na := range v.NamedArgs {
		args = append(args, fmt.Sprintf("%s: %s", na.Name, em.emitExpr(na.Arg)))
	}
	return fmt.Sprintf("%s(%s)", em.emitClassRef(v.Class), strings.Join(args, ", "))
}

func (em *Emitter) emitSetExpr(v *IRSet) string {
	value := em.emitExpr(v.Value)
	if v.Target.Ident != nil {
		return fmt.Sprintf("%s = %s", v.Target.Ident.Name, value)
	}
	return fmt.Sprintf("%s.%s = %s", em.emitExpr(v.Target.Field.Object), v.Target.Field.Field, value)
}

// operatorInfix is the binary-infix subset of spec.md §4.4's operator
// method name list.
var operatorInfix = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "%": true, "==": true,
	"!=": true, "<": true, ">": true, "<=": true, ">=": true, "<<": true,
	">>": true, ">>>": true, "~/": true,
}

// operatorLogicalDouble maps a single bitwise-looking operator method name
// to its doubled logical form — spec.md §4.4: "doubling |, ^, & for
// logical forms."
var operatorLogicalDouble = map[string]string{
	"&": "&&", "|": "||", "^": "^^",
}

// isOperatorMethodName reports whether name is one of the raw operator
// method names emitMethodCall prints verbatim as target-language operator
// syntax instead of a dotted method call. These must never be run through
// Mangle — mangling would turn, e.g., "==" into an unrecognized identifier
// that emitMethodCall's switch no longer matches.
func isOperatorMethodName(name string) bool {
	if operatorInfix[name] || operatorLogicalDouble[name] != "" {
		return true
	}
	switch name {
	case "!", "~", "[]", "[]=":
		return true
	}
	return false
}

func (em *Emitter) emitMethodCall(v *IRMethodCall) string {
	obj := em.emitExpr(v.Object)
	args := make([]string, len(v.Args))
	for i, a := range v.Args {
		args[i] = em.emitExpr(a)
	}
	switch {
	case operatorInfix[v.Member] && len(args) == 1:
		return fmt.Sprintf("(%s)%s(%s)", obj, v.Member, args[0])
	case operatorLogicalDouble[v.Member] != "" && len(args) == 1:
		return fmt.Sprintf("(%s)%s(%s)", obj, operatorLogicalDouble[v.Member], args[0])
	case (v.Member == "!" || v.Member == "~") && len(args) == 0:
		return fmt.Sprintf("%s(%s)", v.Member, obj)
	case v.Member == "[]" && len(args) == 1:
		return fmt.Sprintf("%s[%s]", obj, args[0])
	case v.Member == "[]=" && len(args) == 2:
		return fmt.Sprintf("%s[%s] = %s", obj, args[0], args[1])
	default:
		return fmt.Sprintf("%s.%s(%s)", obj, v.Member, strings.Join(args, ", "))
	}
}

// emitCallExpr renders a plain call by dispatch kind, per spec.md §4.4's
// "calls" rule.
func (em *Emitter) emitCallExpr(v *IRCall) string {
	args := make([]string, 0, len(v.Args)+len(v.NamedArgs))
	for _, a := range v.Args {
		args = append(args, em.emitExpr(a))
	}
	for _, na := range v.NamedArgs {
		args = append(args, fmt.Sprintf("%s: %s", na.Name, em.emitExpr(na.Arg)))
	}
	callee := em.emitExpr(v.Callee)

	switch v.Dispatch {
	case DispatchNative:
		return fmt.Sprintf("%s(%s)", callee, strings.Join(args, ", "))
	case DispatchInvoke:
		return em.emitInvokeDispatch(callee, args)
	default:
		invoke := em.emitInvokeDispatch("$c", args)
		return fmt.Sprintf("(() { final $c = %s; if ($c is IFn) { return %s; } return $c(%s); })()", callee, invoke, strings.Join(args, ", "))
	}
}

// emitInvokeDispatch renders the invoke-style calling convention for a
// callee known (or assumed, under DispatchUnknown's branch) to implement
// IFn: `-invoke` for arities below InvokeThreshold, `-invoke-more` with a
// packed tail at or above it.
func (em *Emitter) emitInvokeDispatch(calleeText string, args []string) string {
	if len(args) < InvokeThreshold {
		return fmt.Sprintf("(%s as IFn).%s(%s)", calleeText, Mangle("-invoke"), strings.Join(args, ", "))
	}
	head := args[:InvokeThreshold-1]
	tail := args[InvokeThreshold-1:]
	return fmt.Sprintf("(%s as IFn).%s(%s, $list_of(%s))", calleeText, Mangle("-invoke-more"), strings.Join(head, ", "), strings.Join(tail, ", "))
}

// emitLiteralValue renders an IRLiteral's payload. Most payloads are plain
// literal atoms; a Symbol, Vector, SetForm, MapForm or Seq payload comes from
// `quote`, a TaggedLiteral from the reader, or a Symbol synthesized by the
// analyzer itself (such as the invoke sentinel), and is rendered as a call
// into the target runtime's data constructors (out of scope to implement,
// referenced by name only, like every other runtime-library call this
// compiler emits).
func (em *Emitter) emitLiteralValue(f Form) string {
	switch t := f.(type) {
	case Nil:
		return "null"
	case Bool:
		if bool(t) {
			return "true"
		}
		return "false"
	case Number:
		return t.Text
	case String:
		return "\"" + EscapeStringLiteral(string(t)) + "\""
	default:
		return em.emitQuotedForm(f)
	}
}

func (em *Emitter) emitQuotedForm(f Form) string {
	switch t := f.(type) {
	case Keyword:
		return fmt.Sprintf("$keyword_intern(%q, %q)", t.NS, t.Name)
	case Symbol:
		return fmt.Sprintf("$symbol_of(%q, %q)", t.NS, t.Name)
	case Seq:
		return em.emitQuotedItems("$list_of", t.Items)
	case Vector:
		return em.emitQuotedItems("$vector_of", t.Items)
	case SetForm:
		return em.emitQuotedItems("$set_of", t.Items)
	case MapForm:
		parts := make([]string, 0, len(t.Pairs)*2)
		for _, p := range t.Pairs {
			parts = append(parts, em.emitQuotedForm(p.Key), em.emitQuotedForm(p.Val))
		}
		return fmt.Sprintf("$map_of(%s)", strings.Join(parts, ", "))
	case TaggedLiteral:
		return fmt.Sprintf("$tagged_literal(%q, %s)", t.Tag.String(), em.emitQuotedForm(t.Form))
	default:
		return em.emitLiteralValue(f)
	}
}

func (em *Emitter) emitQuotedItems(ctor string, items []Form) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = em.emitQuotedForm(it)
	}
	return fmt.Sprintf("%s(%s)", ctor, strings.Join(parts, ", "))
}

func (em *Emitter) resolveTypeTagText(t *TypeTag) string {
	if target, err := ResolveTypeTag(em.Reg, em.Reg.Current(), t); err == nil {
		return target
	}
	return Mangle(t.Name)
}

// isCompoundStatementIR reports whether ir is one of the statement-shaped
// constructors (let/if/loop/case/try) that cannot be printed as a bare
// expression without a thunk wrapper or a pre-declared variable.
func isCompoundStatementIR(ir IR) bool {
	switch ir.(type) {
	case *IRLet, *IRIf, *IRLoop, *IRCase, *IRTry:
		return true
	default:
		return false
	}
}

// irAlwaysExits reports whether ir's emission always ends in a statement
// that leaves the enclosing block (return/throw/continue), used to decide
// whether a trailing `break`/`else` wrapper is needed.
func irAlwaysExits(ir IR) bool {
	switch v := ir.(type) {
	case *IRThrow, *IRRecur:
		return true
	case *IRIf:
		return irAlwaysExits(v.Then) && irAlwaysExits(v.Else)
	case *IRLet:
		return irAlwaysExits(v.Body)
	default:
		return false
	}
}

// indent prefixes every non-empty line of s with two spaces.
func indent(s string) string {
	lines := strings.Split(strings.TrimSuffix(s, "\n"), "\n")
	for i, l := range lines {
		if l == "" {
			continue
		}
		lines[i] = "  " + l
	}
	return strings.Join(lines, "\n") + "\n"
}
