// macros.go — the closed built-in macro set MX owns, per spec.md §4.2.
//
// Each macro is a pure form-to-form rewrite (plus, for defprotocol only,
// a recorded side effect on the current namespace's protocol table — the
// same "rewrite and record" shape the teacher's std_core.go registration
// functions use when a native both returns a value and mutates interpreter
// state). None of these look at env; spec.md §4.2 requires macros to be
// environment-independent.
package clojuredart

import "fmt"

// AreArityMismatchError is returned when the number of values in an `are`
// table is not a multiple of its template's argument-vector length.
type AreArityMismatchError struct {
	Argv     int
	Total    int
}

func (e *AreArityMismatchError) Error() string {
	return fmt.Sprintf("are-arity-mismatch: %d value(s) do not divide evenly by %d bound name(s)", e.Total, e.Argv)
}

// macroReify rewrites `(reify Proto1 Proto2 (method [this a] body...) ...)`
// into the fixed special form `reify*`, partitioning the leading run of bare
// symbols (protocols/interfaces implemented) from the trailing run of method
// definitions. The analyzer computes reify's closure set (spec.md §4.3); the
// macro only reshapes syntax.
func macroReify(mx *Expander, args []Form) (Form, error) {
	implements, methods := partitionImplementsAndMethods(args)
	methodDefs := make([]Form, 0, len(methods))
	for _, m := range methods {
		md, err := methodDefFrom(m, "method")
		if err != nil {
			return nil, err
		}
		methodDefs = append(methodDefs, md)
	}
	return seq(
		sym("reify*"),
		vec(implements...),
		Nil{},
		seq(methodDefs...),
	), nil
}

// macroDeftype rewrites
//
//	(deftype Name [field1 !field2] :extends Parent :implements [I1 I2]
//	  (method1 [this a] body...) ...)
//
// into `deftype*`. Fields named with a leading "!" are mutable (spec.md §3's
// per-field mutability flag); the macro strips the marker and records it as
// a 2-element field spec instead of leaving mutability implicit.
func macroDeftype(mx *Expander, args []Form) (Form, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("deftype: expected (deftype Name [fields...] ...), got %d argument(s)", len(args))
	}
	name, ok := args[0].(Symbol)
	if !ok {
		return nil, fmt.Errorf("deftype: first argument must be a symbol naming the type")
	}
	fieldsVec, ok := args[1].(Vector)
	if !ok {
		return nil, fmt.Errorf("deftype: second argument must be a field vector")
	}
	fieldSpecs := make([]Form, 0, len(fieldsVec.Items))
	for _, f := range fieldsVec.Items {
		fs, ok := f.(Symbol)
		if !ok {
			return nil, fmt.Errorf("deftype: field %v is not a symbol", Dump(f))
		}
		if len(fs.Name) > 0 && fs.Name[0] == '!' {
			fieldSpecs = append(fieldSpecs, vec(sym(fs.Name[1:]), kw("mutable")))
		} else {
			fieldSpecs = append(fieldSpecs, vec(sym(fs.Name)))
		}
	}

	rest := args[2:]
	var extends Form = Nil{}
	var implementsVec []Form
	var mixinsVec []Form
	var superCtor Form = Nil{}
	var methodForms []Form

	for len(rest) > 0 {
		k, ok := rest[0].(Keyword)
		if !ok {
			break
		}
		switch k.Name {
		case "extends":
			if len(rest) < 2 {
				return nil, fmt.Errorf("deftype: :extends with no value")
			}
			extends = rest[1]
			rest = rest[2:]
		case "super":
			if len(rest) < 2 {
				return nil, fmt.Errorf("deftype: :super with no value")
			}
			sv, ok := rest[1].(Seq)
			if !ok {
				return nil, fmt.Errorf("deftype: :super value must be a seq of constructor arguments")
			}
			superCtor = sv
			rest = rest[2:]
		case "implements":
			if len(rest) < 2 {
				return nil, fmt.Errorf("deftype: :implements with no value")
			}
			iv, ok := rest[1].(Vector)
			if !ok {
				return nil, fmt.Errorf("deftype: :implements value must be a vector")
			}
			implementsVec = iv.Items
			rest = rest[2:]
		case "mixins":
			if len(rest) < 2 {
				return nil, fmt.Errorf("deftype: :mixins with no value")
			}
			mv, ok := rest[1].(Vector)
			if !ok {
				return nil, fmt.Errorf("deftype: :mixins value must be a vector")
			}
			mixinsVec = mv.Items
			rest = rest[2:]
		default:
			return nil, fmt.Errorf("deftype: unrecognized option %s", k.String())
		}
	}
	methodForms = rest

	methodDefs := make([]Form, 0, len(methodForms))
	for _, m := range methodForms {
		md, err := methodDefFrom(m, "method")
		if err != nil {
			return nil, err
		}
		methodDefs = append(methodDefs, md)
	}

	return seq(
		sym("deftype*"),
		name,
		vec(fieldSpecs...),
		extends,
		vec(implementsVec...),
		vec(mixinsVec...),
		superCtor,
		seq(methodDefs...),
	), nil
}

// macroDefinterface rewrites `(definterface Name (method1 [this a]) ...)`
// into a `deftype*` carrying only abstract methods (no fields, no parent, no
// constructor): each method-def carries the `abstract` kind, which AN reads
// as "declare only, emit no body" (spec.md's target-language abstract method).
func macroDefinterface(mx *Expander, args []Form) (Form, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("definterface: expected a name")
	}
	name, ok := args[0].(Symbol)
	if !ok {
		return nil, fmt.Errorf("definterface: first argument must be a symbol")
	}
	methodDefs := make([]Form, 0, len(args)-1)
	for _, m := range args[1:] {
		md, err := methodDefFrom(m, "abstract")
		if err != nil {
			return nil, err
		}
		methodDefs = append(methodDefs, md)
	}
	return seq(
		sym("deftype*"),
		name,
		vec(),
		Nil{},
		vec(),
		vec(),
		Nil{},
		seq(methodDefs...),
	), nil
}

// macroDefprotocol rewrites
//
//	(defprotocol PName
//	  (method1 [this a] doc?)
//	  (method2 [this a b] doc?))
//
// into a `do` of: a marker-class `deftype*` for PName, and one top-level
// `def`-bound dispatch function per distinct method name. Each dispatch
// function tests `(is? this PName)` and calls the protocol's own
// implementation when true; otherwise it falls through to the extension
// point spec.md §9 leaves open, rendered here as an explicit throw (DESIGN.md
// records this as the Open Question's resolution) rather than silently
// returning nil.
//
// defprotocol also records, into the current namespace's protocol table,
// the {arity -> {target-name, params}} mapping that ResolveProtocolMethod
// reads (this macro uses it to check each dispatch function's target) —
// this is the one macro permitted a registry side effect, per spec.md §4.2.
func macroDefprotocol(mx *Expander, args []Form) (Form, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("defprotocol: expected a name")
	}
	name, ok := args[0].(Symbol)
	if !ok {
		return nil, fmt.Errorf("defprotocol: first argument must be a symbol")
	}
	ns := mx.Reg.Current()

	type methodSig struct {
		name   string
		params []string
	}
	var sigs []methodSig

	for _, m := range args[1:] {
		s, ok := m.(Seq)
		if !ok || len(s.Items) < 2 {
			continue // doc strings and other bare forms between method sigs are ignored
		}
		msym, ok := s.Items[0].(Symbol)
		if !ok {
			return nil, fmt.Errorf("defprotocol: method signature must start with a symbol")
		}
		pv, ok := s.Items[1].(Vector)
		if !ok {
			return nil, fmt.Errorf("defprotocol: method %s missing parameter vector", msym.Name)
		}
		params := make([]string, 0, len(pv.Items))
		for _, p := range pv.Items {
			ps, ok := p.(Symbol)
			if !ok {
				return nil, fmt.Errorf("defprotocol: method %s has a non-symbol parameter", msym.Name)
			}
			params = append(params, ps.Name)
		}
		if len(params) == 0 {
			return nil, fmt.Errorf("defprotocol: method %s must bind at least the receiver", msym.Name)
		}
		arity := len(params) - 1
		// Target method names are mungedName$arity-minus-one (spec.md §4.2);
		// this is recorded for resolve-protocol-method callers outside this
		// dispatch function (e.g. a future static-dispatch call site), kept
		// distinct from the dispatch body below, which calls the protocol
		// method by its own (mangled) name directly.
		target := fmt.Sprintf("%s$%d", Mangle(msym.Name), arity)
		mx.Reg.DefineProtocolMethod(ns, name.Name, msym.Name, arity, target, params)
		sigs = append(sigs, methodSig{name: msym.Name, params: params})
	}

	markerClass := seq(
		sym("deftype*"), name, vec(), Nil{}, vec(), vec(), Nil{}, seq(),
	)

	body := []Form{sym("do"), markerClass}
	for _, sig := range sigs {
		arity := len(sig.params) - 1
		// Confirms this method/arity pair was actually recorded above before
		// generating a dispatch function for it; a defprotocol-internal
		// bookkeeping mismatch here would otherwise surface only much later,
		// as an unrelated Dart NoSuchMethodError.
		if _, err := mx.Reg.ResolveProtocolMethod(ns, name.Name, sig.name, arity); err != nil {
			return nil, err
		}
		thisArg := sym(sig.params[0])
		restArgs := make([]Form, 0, len(sig.params)-1)
		for _, p := range sig.params[1:] {
			restArgs = append(restArgs, sym(p))
		}
		callArgs := append([]Form{sym("."), thisArg, sym(sig.name)}, restArgs...)
		missImpl := seq(
			sym("throw"),
			seq(sym("new"), sym("UnimplementedError"),
				String(fmt.Sprintf("%s does not implement %s", name.Name, sig.name))),
		)
		test := seq(sym("is?"), thisArg, name)
		dispatchBody := seq(sym("if"), test, seq(callArgs...), missImpl)
		paramVec := make([]Form, len(sig.params))
		for i, p := range sig.params {
			paramVec[i] = sym(p)
		}
		fn := seq(sym("fn*"), vec(paramVec...), dispatchBody)
		body = append(body, seq(sym("def"), sym(sig.name), fn))
	}
	return seq(body...), nil
}

// methodDefFrom converts one `(name [params...] body...)` surface form into
// the internal method-def shape `(kind name params body...)` that deftype*/
// reify* expect. kind is a keyword chosen by the caller ("method", or
// "abstract" for definterface; getters/setters are
// distinguished by leading `^:get`/`^:set` metadata on the name symbol, read
// by the analyzer directly off the reader's metadata table rather than here,
// since macros do not have access to it by design — spec.md §4.2).
func methodDefFrom(m Form, kind string) (Form, error) {
	s, ok := m.(Seq)
	if !ok || len(s.Items) < 2 {
		return nil, fmt.Errorf("expected (name [params...] body...), got %s", Dump(m))
	}
	name, ok := s.Items[0].(Symbol)
	if !ok {
		return nil, fmt.Errorf("method name must be a symbol, got %s", Dump(s.Items[0]))
	}
	params, ok := s.Items[1].(Vector)
	if !ok {
		return nil, fmt.Errorf("method %s missing parameter vector", name.Name)
	}
	items := append([]Form{kw(kind), name, params}, s.Items[2:]...)
	return Seq{Items: items}, nil
}

// partitionImplementsAndMethods splits reify's argument list into its
// leading run of bare implemented-protocol symbols and its trailing run of
// method definitions.
func partitionImplementsAndMethods(args []Form) (implements []Form, methods []Form) {
	i := 0
	for i < len(args) {
		if _, ok := args[i].(Symbol); !ok {
			break
		}
		implements = append(implements, args[i])
		i++
	}
	return implements, args[i:]
}

// macroCase rewrites
//
//	(case scrutinee lit1 res1 lit2 res2 ... default)
//
// into the fixed special `case*`, binding the scrutinee first when it is not
// already a bare symbol (spec.md §4.2: "rewrites to case* directly when the
// scrutinee is a symbol ... or wraps it in a let* otherwise"). A test
// position that is itself a Vector groups multiple literal values onto one
// clause (the IR's CaseClause.Values is already a slice for this reason).
func macroCase(mx *Expander, args []Form) (Form, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("case: missing scrutinee")
	}
	scrutinee := args[0]
	rest := args[1:]

	var def Form = Nil{}
	if len(rest)%2 == 1 {
		def = rest[len(rest)-1]
		rest = rest[:len(rest)-1]
	}

	clauses := make([]Form, 0, len(rest)/2)
	for i := 0; i+1 < len(rest); i += 2 {
		var values Form
		if v, ok := rest[i].(Vector); ok {
			values = v
		} else {
			values = vec(rest[i])
		}
		clauses = append(clauses, seq(values, rest[i+1]))
	}

	if sc, ok := scrutinee.(Symbol); ok {
		return seq(sym("case*"), sc, seq(clauses...), def), nil
	}

	tmp := sym("__auto__")
	return seq(
		sym("let*"),
		vec(vec(tmp, scrutinee)),
		seq(sym("case*"), tmp, seq(clauses...), def),
	), nil
}

// macroAre rewrites Clojure-test-style table assertions
//
//	(are [x y] (= x y)
//	  1 1
//	  2 2)
//
// into a `do` of one `let*` per row, each binding the row's values to the
// argv names and evaluating the shared template — avoiding any need for
// tree substitution, since the template is simply re-lexically-scoped per
// row rather than rewritten.
func macroAre(mx *Expander, args []Form) (Form, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("are: expected (are [bindings...] template rows...)")
	}
	argv, ok := args[0].(Vector)
	if !ok {
		return nil, fmt.Errorf("are: first argument must be a binding vector")
	}
	template := args[1]
	values := args[2:]
	n := len(argv.Items)
	if n == 0 {
		return nil, fmt.Errorf("are: binding vector must not be empty")
	}
	if len(values)%n != 0 {
		return nil, &AreArityMismatchError{Argv: n, Total: len(values)}
	}

	forms := []Form{sym("do")}
	for i := 0; i < len(values); i += n {
		binds := make([]Form, n)
		for j := 0; j < n; j++ {
			binds[j] = vec(argv.Items[j], values[i+j])
		}
		forms = append(forms, seq(sym("let*"), vec(binds...), template))
	}
	return seq(forms...), nil
}

// macroIs rewrites the one-shot assertion `(is expr)` into a throwing check:
// an assertion that is truthy evaluates to nil, one that is falsy throws.
func macroIs(mx *Expander, args []Form) (Form, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("is: expected exactly one expression, got %d", len(args))
	}
	expr := args[0]
	fail := seq(
		sym("throw"),
		seq(sym("new"), sym("AssertionError"), String("assertion failed: "+Dump(expr))),
	)
	return seq(sym("if"), expr, Nil{}, fail), nil
}

// macroTesting rewrites `(testing "description" body...)` into a plain `do`
// of body: grouping/description is metadata for a test reporter, which is
// outside this system's scope, so the macro keeps only the control flow.
func macroTesting(mx *Expander, args []Form) (Form, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("testing: expected a description string")
	}
	body := args[1:]
	return seq(append([]Form{sym("do")}, body...)...), nil
}

// macroDeftest rewrites `(deftest name body...)` into a top-level zero-arg
// function definition, so AN's ordinary `def` rule (bare `fn*` value ->
// top-level function, spec.md §4.3) picks it up without any special casing.
func macroDeftest(mx *Expander, args []Form) (Form, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("deftest: expected a name")
	}
	name, ok := args[0].(Symbol)
	if !ok {
		return nil, fmt.Errorf("deftest: first argument must be a symbol")
	}
	body := args[1:]
	fn := seq(sym("fn*"), vec(), seq(append([]Form{sym("do")}, body...)...))
	return seq(sym("def"), name, fn), nil
}

// macroTryExpr rewrites `(try-expr e)` into an expression-position try: `e`
// evaluated for value, with any thrown exception caught and returned as the
// expression's value instead. This lets test code assert on what e throws
// without `try`'s own statement/return-only restriction (spec.md §3's
// invariant on `throw`/`try` placement).
func macroTryExpr(mx *Expander, args []Form) (Form, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("try-expr: expected exactly one expression, got %d", len(args))
	}
	exnIdent := sym("__auto__")
	catch := seq(sym("catch"), sym("Object"), exnIdent, exnIdent)
	return seq(sym("try"), args[0], catch), nil
}

// macroDefrunnerMain rewrites `(defrunner-main)` into a `main` function that
// invokes the target runtime's test-running entry point — the macro only
// owns the call site, not the runtime function itself (out of scope here,
// same as every other runtime-library name this compiler emits references
// to without defining).
func macroDefrunnerMain(mx *Expander, args []Form) (Form, error) {
	if len(args) != 0 {
		return nil, fmt.Errorf("defrunner-main: expected no arguments, got %d", len(args))
	}
	body := seq(sym("do"), seq(sym("__run_all_tests")), Nil{})
	return seq(sym("def"), sym("main"), seq(sym("fn*"), vec(), body)), nil
}
