// analyzer.go — the Analyzer (AN), spec.md §4.3.
//
// Grounded on the teacher's interpreter_ops.go tree-walking lowering pass:
// head-tag dispatch over a fixed set of forms, falling through to a generic
// "evaluate as a call" case — reused here as head-symbol dispatch over the
// fixed specials, falling through to *call*.
package clojuredart

import "fmt"

// Analyzer holds the per-compilation-unit state spec.md §4.3/§5 describes:
// a registry, a gensym counter map (reset per top-level form), and the
// current recur target (if any). It is single-owner, like the Registry it
// wraps — concurrent use from multiple goroutines is a programming error.
type Analyzer struct {
	Reg     *Registry
	Emitter *Emitter
	Mx      *Expander
	// Meta holds the reader's `^`-prefixed metadata table for the source
	// currently being analyzed, so analyzeSymbolRef can consult a symbol's
	// `:tag` entry. Nil when the caller read source with plain ReadAll,
	// in which case no metadata-derived truthiness is available.
	Meta   *Metadata
	gensym map[string]int
	loop   *loopCtx
	inTry  bool
}

// loopCtx identifies the nearest enclosing loop/fn body recur can target.
type loopCtx struct {
	arity int
}

// NewAnalyzer constructs an Analyzer bound to reg, em, and the expander
// Analyze runs every form through before dispatching on its head symbol
// (spec.md §5's pipeline: MX runs to a fixpoint at each position AN
// descends into, not as one separate whole-tree pass up front).
func NewAnalyzer(reg *Registry, em *Emitter, mx *Expander) *Analyzer {
	return &Analyzer{Reg: reg, Emitter: em, Mx: mx}
}

// Gensym returns a fresh name of the form "hint$N", N counting per hint
// within the current top-level form (spec.md §4.3).
func (an *Analyzer) Gensym(hint string) string {
	if an.gensym == nil {
		an.gensym = map[string]int{}
	}
	an.gensym[hint]++
	return fmt.Sprintf("%s$%d", hint, an.gensym[hint])
}

// withLoopCtx runs fn with an.loop temporarily set to ctx, restoring the
// previous value afterward — the save/restore discipline spec.md §5
// requires of the analyzer's dynamic scopes.
func (an *Analyzer) withLoopCtx(ctx *loopCtx, fn func() (IR, error)) (IR, error) {
	prev := an.loop
	an.loop = ctx
	defer func() { an.loop = prev }()
	return fn()
}

func (an *Analyzer) withTry(fn func() (IR, error)) (IR, error) {
	prev := an.inTry
	an.inTry = true
	defer func() { an.inTry = prev }()
	return fn()
}

// AnalyzeTop resets the gensym scope and analyzes one top-level form
// (Analyze expands it first).
func (an *Analyzer) AnalyzeTop(env *Env, form Form) (IR, error) {
	an.gensym = map[string]int{}
	an.loop = nil
	an.inTry = false
	return an.Analyze(env, form)
}

// Analyze lowers an expanded form into IR, dispatching on its head symbol
// against the fixed specials, falling back to *call*.
func (an *Analyzer) Analyze(env *Env, form Form) (IR, error) {
	if an.Mx != nil {
		expanded, err := an.Mx.Expand(env, form)
		if err != nil {
			return nil, err
		}
		form = expanded
	}
	pos := Pos{}
	switch f := form.(type) {
	case Nil, Bool, Number, String:
		return mkLiteral(pos, f), nil
	case Keyword:
		return an.analyzeKeyword(pos, f)
	case Symbol:
		return an.analyzeSymbolRef(env, pos, f)
	case Vector:
		return an.analyzeVector(env, pos, f)
	case SetForm:
		return an.analyzeSet(env, pos, f)
	case MapForm:
		return an.analyzeMap(env, pos, f)
	case TaggedLiteral:
		return mkLiteral(pos, f), nil
	}

	head, ok := HeadSymbol(form)
	if !ok {
		return nil, fmt.Errorf("cannot analyze form: %s", Dump(form))
	}
	tail := Tail(form)

	switch head.Name {
	case ".":
		return an.analyzeDot(env, pos, tail)
	case "set!":
		return an.analyzeSet_(env, pos, tail)
	case "throw":
		return an.analyzeThrow(env, pos, tail)
	case "new":
		return an.analyzeNew(env, pos, tail)
	case "ns":
		return an.analyzeNs(tail)
	case "try":
		return an.analyzeTry(env, pos, tail)
	case "quote":
		if len(tail) != 1 {
			return nil, fmt.Errorf("quote: expected exactly one form")
		}
		return mkLiteral(pos, tail[0]), nil
	case "do":
		return an.analyzeDo(env, pos, tail)
	case "let*":
		return an.analyzeLet(env, pos, tail)
	case "loop*":
		return an.analyzeLoop(env, pos, tail)
	case "recur":
		return an.analyzeRecur(env, pos, tail)
	case "if":
		return an.analyzeIf(env, pos, tail)
	case "fn*":
		return an.analyzeFnForm(env, pos, tail)
	case "def":
		return an.analyzeDef(env, pos, tail)
	case "reify*":
		return an.analyzeReify(env, pos, tail)
	case "deftype*":
		return an.analyzeDeftype(env, pos, tail)
	case "is?":
		return an.analyzeIsPred(env, pos, tail)
	case "as":
		return an.analyzeAs(env, pos, tail)
	default:
		return an.analyzeCall(env, pos, form, head, tail)
	}
}

func (an *Analyzer) analyzeKeyword(pos Pos, k Keyword) (IR, error) {
	ns := k.NS
	call := &IRCall{base: base2(pos), Callee: mkIdentRef(pos, &Ident{Name: "$keyword_intern"}), Args: []IR{
		mkLiteral(pos, String(ns)), mkLiteral(pos, String(k.Name)),
	}, Dispatch: DispatchNative}
	return call, nil
}

func (an *Analyzer) analyzeSymbolRef(env *Env, pos Pos, s Symbol) (IR, error) {
	res, err := an.Reg.Resolve(env, s)
	if err != nil {
		return nil, &PositionedError{Err: err, Line: pos.Line, Col: pos.Col, Label: "UNKNOWN SYMBOL"}
	}
	if res.Local != nil {
		return mkIdentRef(pos, res.Local), nil
	}
	name := res.Target
	if res.Alias != "" {
		name = res.Alias + "." + name
	}
	return mkIdentRef(pos, &Ident{Name: name, Truth: an.symbolTagTruthiness(s)}), nil
}

// symbolTagTruthiness looks up a user-written `^Tag` type hint on s in the
// active metadata table and, when one resolves to a known type, derives a
// Truthiness from it the same way an `as`-cast does (spec.md §4.3's third
// truthiness source: "user-written type tags on symbols").
func (an *Analyzer) symbolTagTruthiness(s Symbol) Truthiness {
	if an.Meta == nil {
		return TruthUnknown
	}
	tagForm, ok := an.Meta.Get(s, Keyword{Name: "tag"})
	if !ok {
		return TruthUnknown
	}
	tag, err := an.resolveTypeTagForm(tagForm)
	if err != nil {
		return TruthUnknown
	}
	return typeTruthiness(tag)
}

// analyzeVector/Set/Map lower literal aggregate syntax into constructor
// calls against the target runtime's persistent-collection factories —
// runtime library functions this compiler only references by name (spec.md
// non-goals exclude implementing them).
func (an *Analyzer) analyzeVector(env *Env, pos Pos, v Vector) (IR, error) {
	items, err := an.analyzeAll(env, v.Items)
	if err != nil {
		return nil, err
	}
	return &IRCall{base: base2(pos), Callee: mkIdentRef(pos, &Ident{Name: "$vector_of"}), Args: items, Dispatch: DispatchNative}, nil
}

func (an *Analyzer) analyzeSet(env *Env, pos Pos, s SetForm) (IR, error) {
	items, err := an.analyzeAll(env, s.Items)
	if err != nil {
		return nil, err
	}
	return &IRCall{base: base2(pos), Callee: mkIdentRef(pos, &Ident{Name: "$set_of"}), Args: items, Dispatch: DispatchNative}, nil
}

func (an *Analyzer) analyzeMap(env *Env, pos Pos, m MapForm) (IR, error) {
	args := make([]IR, 0, len(m.Pairs)*2)
	for _, p := range m.Pairs {
		k, err := an.Analyze(env, p.Key)
		if err != nil {
			return nil, err
		}
		v, err := an.Analyze(env, p.Val)
		if err != nil {
			return nil, err
		}
		args = append(args, k, v)
	}
	return &IRCall{base: base2(pos), Callee: mkIdentRef(pos, &Ident{Name: "$map_of"}), Args: args, Dispatch: DispatchNative}, nil
}

func (an *Analyzer) analyzeAll(env *Env, forms []Form) ([]IR, error) {
	out := make([]IR, len(forms))
	for i, f := range forms {
		ir, err := an.Analyze(env, f)
		if err != nil {
			return nil, err
		}
		out[i] = ir
	}
	return out, nil
}

// analyzeDot lowers `(. obj member args...)`. A zero-arg member beginning
// with "-" is a field read; everything else is a method call.
func (an *Analyzer) analyzeDot(env *Env, pos Pos, tail []Form) (IR, error) {
	if len(tail) < 2 {
		return nil, fmt.Errorf(". : expected (. object member args...)")
	}
	obj, err := an.Analyze(env, tail[0])
	if err != nil {
		return nil, err
	}
	memberSym, ok := tail[1].(Symbol)
	if !ok {
		return nil, fmt.Errorf(". : member must be a symbol, got %s", Dump(tail[1]))
	}
	member := memberSym.Name
	argForms := tail[2:]
	if len(argForms) == 0 && len(member) > 0 && member[0] == '-' {
		bindings, atomObj := lift(an, obj)
		return wrapLifted(pos, bindings, &IRFieldRead{base: base2(pos), Object: atomObj, Field: Mangle(member[1:])}), nil
	}
	args, err := an.analyzeAll(env, argForms)
	if err != nil {
		return nil, err
	}
	if !isOperatorMethodName(member) {
		member = Mangle(member)
	}
	objBindings, atomObj := lift(an, obj)
	argBindings, atomArgs := liftArgs(an, args)
	all := append(objBindings, argBindings...)
	return wrapLifted(pos, all, mkMethodCall(pos, atomObj, member, atomArgs)), nil
}

func (an *Analyzer) analyzeSet_(env *Env, pos Pos, tail []Form) (IR, error) {
	if len(tail) != 2 {
		return nil, fmt.Errorf("set!: expected (set! target value)")
	}
	value, err := an.Analyze(env, tail[1])
	if err != nil {
		return nil, err
	}
	switch t := tail[0].(type) {
	case Symbol:
		res, err := an.Reg.Resolve(env, t)
		if err != nil || res.Local == nil || !res.Local.Mutable {
			return nil, &PositionedError{Err: &BadAssignmentError{Target: t.String()}, Line: pos.Line, Col: pos.Col, Label: "BAD ASSIGNMENT"}
		}
		return &IRSet{base: base2(pos), Target: AssignTarget{Ident: res.Local}, Value: value}, nil
	case Seq:
		target, err := an.Analyze(env, t)
		if err != nil {
			return nil, err
		}
		fr, ok := target.(*IRFieldRead)
		if !ok {
			return nil, &PositionedError{Err: &BadAssignmentError{Target: Dump(t)}, Line: pos.Line, Col: pos.Col, Label: "BAD ASSIGNMENT"}
		}
		return &IRSet{base: base2(pos), Target: AssignTarget{Field: fr}, Value: value}, nil
	default:
		return nil, &PositionedError{Err: &BadAssignmentError{Target: Dump(t)}, Line: pos.Line, Col: pos.Col, Label: "BAD ASSIGNMENT"}
	}
}

func (an *Analyzer) analyzeThrow(env *Env, pos Pos, tail []Form) (IR, error) {
	if len(tail) != 1 {
		return nil, fmt.Errorf("throw: expected exactly one expression")
	}
	expr, err := an.Analyze(env, tail[0])
	if err != nil {
		return nil, err
	}
	return &IRThrow{base: base2(pos), Expr: expr}, nil
}

func (an *Analyzer) analyzeNew(env *Env, pos Pos, tail []Form) (IR, error) {
	if len(tail) < 1 {
		return nil, fmt.Errorf("new: expected a class")
	}
	class, err := an.Analyze(env, tail[0])
	if err != nil {
		return nil, err
	}
	positional, named, err := splitPositionalNamed(tail[1:])
	if err != nil {
		return nil, err
	}
	args, err := an.analyzeAll(env, positional)
	if err != nil {
		return nil, err
	}
	namedArgs := make([]NamedArg, len(named))
	for i, n := range named {
		v, err := an.Analyze(env, n.Value)
		if err != nil {
			return nil, err
		}
		namedArgs[i] = NamedArg{Name: n.Name, Arg: v}
	}
	return &IRNew{base: base2(pos), Class: class, Args: args, NamedArgs: namedArgs}, nil
}

// analyzeNs handles the `ns` special form directly: it updates NR's current
// namespace imports/aliases/symbol-mappings rather than lowering to any IR
// (spec.md §4.2 lists `ns` among MX's fixed specials; the expander leaves it
// untouched and AN interprets it in place, since the target language has no
// equivalent "in-ns" runtime call to emit).
func (an *Analyzer) analyzeNs(tail []Form) (IR, error) {
	if len(tail) < 1 {
		return nil, fmt.Errorf("ns: expected a namespace name")
	}
	name, ok := tail[0].(Symbol)
	if !ok {
		return nil, fmt.Errorf("ns: first argument must be a symbol")
	}
	ns := an.Reg.EnsureNamespace(name.Name)
	an.Reg.SetCurrent(name.Name)
	for _, clause := range tail[1:] {
		s, ok := clause.(Seq)
		if !ok || len(s.Items) == 0 {
			continue
		}
		kw, ok := s.Items[0].(Keyword)
		if !ok {
			return nil, &UnsupportedImportSpecError{Spec: Dump(clause)}
		}
		switch kw.Name {
		case "require", "import":
			for _, spec := range s.Items[1:] {
				if err := an.applyRequireSpec(ns, spec); err != nil {
					return nil, err
				}
			}
		default:
			return nil, &UnsupportedImportSpecError{Spec: Dump(clause)}
		}
	}
	return mkLiteral(Pos{}, Nil{}), nil
}

// applyRequireSpec handles one `[namespace :as alias]` / `[namespace]`
// require entry.
func (an *Analyzer) applyRequireSpec(ns *NamespaceRecord, spec Form) error {
	switch s := spec.(type) {
	case Symbol:
		an.Reg.EnsureImport(ns, s.Name)
		return nil
	case Vector:
		if len(s.Items) == 0 {
			return &UnsupportedImportSpecError{Spec: Dump(spec)}
		}
		target, ok := s.Items[0].(Symbol)
		if !ok {
			return &UnsupportedImportSpecError{Spec: Dump(spec)}
		}
		alias := an.Reg.EnsureImport(ns, target.Name)
		for i := 1; i+1 < len(s.Items); i += 2 {
			opt, ok := s.Items[i].(Keyword)
			if !ok {
				return &UnsupportedImportSpecError{Spec: Dump(spec)}
			}
			switch opt.Name {
			case "as":
				userAlias, ok := s.Items[i+1].(Symbol)
				if !ok {
					return &UnsupportedImportSpecError{Spec: Dump(spec)}
				}
				ns.Aliases[userAlias.Name] = alias
			case "refer":
				refer, ok := s.Items[i+1].(Vector)
				if !ok {
					return &UnsupportedImportSpecError{Spec: Dump(spec)}
				}
				for _, r := range refer.Items {
					rs, ok := r.(Symbol)
					if !ok {
						return &UnsupportedImportSpecError{Spec: Dump(spec)}
					}
					ns.SymbolMappings[rs.Name] = target.Name + "/" + rs.Name
				}
			}
		}
		return nil
	default:
		return &UnsupportedImportSpecError{Spec: Dump(spec)}
	}
}

func (an *Analyzer) analyzeTry(env *Env, pos Pos, tail []Form) (IR, error) {
	if len(tail) < 1 {
		return nil, fmt.Errorf("try: expected a body")
	}
	var bodyForm Form = tail[0]
	rest := tail[1:]
	var catches []Catch
	var finally IR

	body, err := an.withTry(func() (IR, error) { return an.Analyze(env, bodyForm) })
	if err != nil {
		return nil, err
	}

	for _, c := range rest {
		s, ok := c.(Seq)
		if !ok || len(s.Items) == 0 {
			continue
		}
		head, _ := s.Items[0].(Symbol)
		switch head.Name {
		case "catch":
			if len(s.Items) < 4 {
				return nil, fmt.Errorf("catch: expected (catch ClassId exnSym body...)")
			}
			classSym, ok := s.Items[1].(Symbol)
			if !ok {
				return nil, fmt.Errorf("catch: class must be a symbol")
			}
			exnSym, ok := s.Items[2].(Symbol)
			if !ok {
				return nil, fmt.Errorf("catch: exception binding must be a symbol")
			}
			exnIdent := &Ident{Name: Mangle(exnSym.Name)}
			catchEnv := env.Extend(exnSym.Name, exnIdent)
			catchBody := wrapDo(s.Items[3:])
			cbIR, err := an.Analyze(catchEnv, catchBody)
			if err != nil {
				return nil, err
			}
			catches = append(catches, Catch{ClassID: Mangle(classSym.Name), ExnIdent: exnIdent, Body: cbIR})
		case "finally":
			fBody := wrapDo(s.Items[1:])
			fIR, err := an.Analyze(env, fBody)
			if err != nil {
				return nil, err
			}
			finally = fIR
		}
	}

	return &IRTry{base: base2(pos), Body: body, Catches: catches, Finally: finally}, nil
}

func (an *Analyzer) analyzeDo(env *Env, pos Pos, tail []Form) (IR, error) {
	if len(tail) == 0 {
		return mkLiteral(pos, Nil{}), nil
	}
	bindings := make([]Binding, 0, len(tail)-1)
	for _, f := range tail[:len(tail)-1] {
		ir, err := an.Analyze(env, f)
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, Binding{Ident: nil, Value: ir})
	}
	body, err := an.Analyze(env, tail[len(tail)-1])
	if err != nil {
		return nil, err
	}
	if len(bindings) == 0 {
		return body, nil
	}
	return mkLet(pos, bindings, body), nil
}

func (an *Analyzer) analyzeLet(env *Env, pos Pos, tail []Form) (IR, error) {
	if len(tail) < 1 {
		return nil, fmt.Errorf("let*: expected a binding vector")
	}
	bv, ok := tail[0].(Vector)
	if !ok {
		return nil, fmt.Errorf("let*: first argument must be a binding vector")
	}
	curEnv := env
	bindings := make([]Binding, 0, len(bv.Items))
	for _, pairForm := range bv.Items {
		pair, ok := pairForm.(Vector)
		if !ok || len(pair.Items) != 2 {
			return nil, fmt.Errorf("let*: each binding must be [name value]")
		}
		nameSym, ok := pair.Items[0].(Symbol)
		if !ok {
			return nil, fmt.Errorf("let*: binding name must be a symbol")
		}
		valueIR, err := an.Analyze(curEnv, pair.Items[1])
		if err != nil {
			return nil, err
		}
		id := &Ident{Name: Mangle(nameSym.Name), Truth: valueIR.Truthiness()}
		bindings = append(bindings, Binding{Ident: id, Value: valueIR})
		curEnv = curEnv.Extend(nameSym.Name, id)
	}
	body, err := an.analyzeDo(curEnv, pos, tail[1:])
	if err != nil {
		return nil, err
	}
	return mkLet(pos, bindings, body), nil
}

func (an *Analyzer) analyzeLoop(env *Env, pos Pos, tail []Form) (IR, error) {
	if len(tail) < 1 {
		return nil, fmt.Errorf("loop*: expected a binding vector")
	}
	bv, ok := tail[0].(Vector)
	if !ok {
		return nil, fmt.Errorf("loop*: first argument must be a binding vector")
	}
	curEnv := env
	bindings := make([]Binding, 0, len(bv.Items))
	for _, pairForm := range bv.Items {
		pair, ok := pairForm.(Vector)
		if !ok || len(pair.Items) != 2 {
			return nil, fmt.Errorf("loop*: each binding must be [name value]")
		}
		nameSym, ok := pair.Items[0].(Symbol)
		if !ok {
			return nil, fmt.Errorf("loop*: binding name must be a symbol")
		}
		valueIR, err := an.Analyze(curEnv, pair.Items[1])
		if err != nil {
			return nil, err
		}
		id := &Ident{Name: Mangle(nameSym.Name), Mutable: true, Truth: valueIR.Truthiness()}
		bindings = append(bindings, Binding{Ident: id, Value: valueIR})
		curEnv = curEnv.Extend(nameSym.Name, id)
	}
	lctx := &loopCtx{arity: len(bindings)}
	bodyForm := wrapDo(tail[1:])
	body, err := an.withLoopCtx(lctx, func() (IR, error) { return an.Analyze(curEnv, bodyForm) })
	if err != nil {
		return nil, err
	}
	return &IRLoop{base: base2(pos), Bindings: bindings, Body: body}, nil
}

func (an *Analyzer) analyzeRecur(env *Env, pos Pos, tail []Form) (IR, error) {
	if an.inTry {
		return nil, &PositionedError{Err: &RecurAcrossBoundaryError{}, Line: pos.Line, Col: pos.Col, Label: "RECUR ACROSS BOUNDARY"}
	}
	if an.loop == nil {
		return nil, &PositionedError{Err: &RecurWithoutTargetError{}, Line: pos.Line, Col: pos.Col, Label: "RECUR WITHOUT TARGET"}
	}
	if len(tail) != an.loop.arity {
		return nil, &PositionedError{Err: &RecurArityMismatchError{Expected: an.loop.arity, Got: len(tail)}, Line: pos.Line, Col: pos.Col, Label: "RECUR ARITY MISMATCH"}
	}
	args, err := an.analyzeAll(env, tail)
	if err != nil {
		return nil, err
	}
	return &IRRecur{base: base2(pos), Args: args}, nil
}

func (an *Analyzer) analyzeIf(env *Env, pos Pos, tail []Form) (IR, error) {
	if len(tail) < 2 || len(tail) > 3 {
		return nil, fmt.Errorf("if: expected (if test then else?)")
	}
	test, err := an.Analyze(env, tail[0])
	if err != nil {
		return nil, err
	}
	then, err := an.Analyze(env, tail[1])
	if err != nil {
		return nil, err
	}
	var els IR = mkLiteral(pos, Nil{})
	if len(tail) == 3 {
		els, err = an.Analyze(env, tail[2])
		if err != nil {
			return nil, err
		}
	}
	bindings, atomTest := lift(an, test)
	return wrapLifted(pos, bindings, mkIf(pos, atomTest, then, els)), nil
}

func (an *Analyzer) analyzeFnForm(env *Env, pos Pos, tail []Form) (IR, error) {
	name := ""
	if len(tail) > 0 {
		if s, ok := tail[0].(Symbol); ok {
			name = Mangle(s.Name)
			tail = tail[1:]
		}
	}
	clauses, err := parseFnClauses(tail)
	if err != nil {
		return nil, err
	}
	return an.lowerFn(env, name, clauses, pos)
}

// analyzeDef implements spec.md §4.3's def rule: pre-declare, then analyze
// the value; a bare fn* value becomes a top-level function, anything else a
// top-level field.
func (an *Analyzer) analyzeDef(env *Env, pos Pos, tail []Form) (IR, error) {
	if len(tail) < 1 {
		return nil, fmt.Errorf("def: expected a name")
	}
	name, ok := tail[0].(Symbol)
	if !ok {
		return nil, fmt.Errorf("def: first argument must be a symbol")
	}
	rest := tail[1:]
	if len(rest) == 2 {
		if _, ok := rest[0].(String); !ok {
			return nil, &DocStringMisplacedError{Got: Dump(rest[0])}
		}
		rest = rest[1:]
	}
	if len(rest) > 1 {
		return nil, fmt.Errorf("def: too many arguments")
	}

	target := Mangle(name.Name)
	ns := an.Reg.Current()

	if len(rest) == 0 {
		an.Reg.PreDeclare(ns, name.Name, target, KindField)
		an.Reg.Define(ns, name.Name, &Definition{TargetName: target, Kind: KindField})
		return mkLiteral(pos, Nil{}), nil
	}

	isFn := false
	if s, ok := rest[0].(Seq); ok {
		if h, ok := HeadSymbol(s); ok && h.Name == "fn*" {
			isFn = true
		}
	}

	if isFn {
		an.Reg.PreDeclare(ns, name.Name, target, KindDartFn)
		fnTail := Tail(rest[0])
		clauses, err := parseFnClauses(fnTail)
		if err != nil {
			return nil, err
		}
		ir, err := an.lowerFn(env, target, clauses, pos)
		if err != nil {
			return nil, err
		}
		fn, isPlain := ir.(*IRFn)
		var emitted string
		kind := KindInvokeFn
		if isPlain {
			emitted, err = an.Emitter.EmitTopLevelFn(ns, target, fn)
			kind = KindDartFn
		} else {
			emitted, err = an.Emitter.EmitTopLevelField(ns, target, ir)
		}
		if err != nil {
			return nil, err
		}
		an.Reg.Define(ns, name.Name, &Definition{TargetName: target, Kind: kind, Emitted: emitted})
		return mkLiteral(pos, Nil{}), nil
	}

	an.Reg.PreDeclare(ns, name.Name, target, KindField)
	value, err := an.Analyze(env, rest[0])
	if err != nil {
		return nil, err
	}
	emitted, err := an.Emitter.EmitTopLevelField(ns, target, value)
	if err != nil {
		return nil, err
	}
	an.Reg.Define(ns, name.Name, &Definition{TargetName: target, Kind: KindField, Emitted: emitted})
	return mkLiteral(pos, Nil{}), nil
}

func (an *Analyzer) analyzeIsPred(env *Env, pos Pos, tail []Form) (IR, error) {
	if len(tail) != 2 {
		return nil, fmt.Errorf("is?: expected (is? expr Type)")
	}
	expr, err := an.Analyze(env, tail[0])
	if err != nil {
		return nil, err
	}
	tag, err := an.resolveTypeTagForm(tail[1])
	if err != nil {
		return nil, &PositionedError{Err: err, Line: pos.Line, Col: pos.Col, Label: "UNKNOWN TYPE TAG"}
	}
	bindings, atom := lift(an, expr)
	return wrapLifted(pos, bindings, mkIs(pos, atom, tag)), nil
}

func (an *Analyzer) analyzeAs(env *Env, pos Pos, tail []Form) (IR, error) {
	if len(tail) != 2 {
		return nil, fmt.Errorf("as: expected (as expr Type)")
	}
	expr, err := an.Analyze(env, tail[0])
	if err != nil {
		return nil, err
	}
	tag, err := an.resolveTypeTagForm(tail[1])
	if err != nil {
		return nil, &PositionedError{Err: err, Line: pos.Line, Col: pos.Col, Label: "UNKNOWN TYPE TAG"}
	}
	return mkAs(pos, expr, tag), nil
}

func (an *Analyzer) resolveTypeTagForm(f Form) (*TypeTag, error) {
	var raw string
	switch t := f.(type) {
	case Symbol:
		raw = t.String()
	case String:
		raw = string(t)
	default:
		return nil, &UnknownTypeTagError{Tag: Dump(f)}
	}
	tag, err := ParseTypeTag(raw)
	if err != nil {
		return nil, err
	}
	if _, err := ResolveTypeTag(an.Reg, an.Reg.Current(), tag); err != nil {
		return nil, err
	}
	return tag, nil
}

// analyzeCall lowers a plain call: `(callee args...)`, splitting positional
// and named arguments and resolving the callee's dispatch kind when it is a
// bare, non-local symbol (DispatchInvoke when the current namespace defines
// it as KindInvokeFn, DispatchNative otherwise).
func (an *Analyzer) analyzeCall(env *Env, pos Pos, form Form, head Symbol, tail []Form) (IR, error) {
	callee, err := an.Analyze(env, Symbol{NS: head.NS, Name: head.Name})
	if err != nil {
		return nil, err
	}
	positional, named, err := splitPositionalNamed(tail)
	if err != nil {
		return nil, err
	}
	args, err := an.analyzeAll(env, positional)
	if err != nil {
		return nil, err
	}
	namedArgs := make([]NamedArg, len(named))
	for i, n := range named {
		v, err := an.Analyze(env, n.Value)
		if err != nil {
			return nil, err
		}
		namedArgs[i] = NamedArg{Name: n.Name, Arg: v}
	}

	dispatch := DispatchUnknown
	if ir, ok := callee.(*IRIdentRef); ok {
		if ir.Ident != nil && head.NS == "" {
			if _, isLocal := env.Lookup(head.Name); !isLocal {
				dispatch = DispatchNative
				if def, ok := an.Reg.Current().Definitions[head.Name]; ok && def.Kind == KindInvokeFn {
					dispatch = DispatchInvoke
				}
			}
		}
	}

	calleeBindings, atomCallee := lift(an, callee)
	argBindings, atomArgs := liftArgs(an, args)
	all := append(calleeBindings, argBindings...)
	call := &IRCall{base: base2(pos), Callee: atomCallee, Args: atomArgs, NamedArgs: namedArgs, Dispatch: dispatch}
	return wrapLifted(pos, all, call), nil
}

// registerSynthesizedClass renders desc via the emitter and records it as a
// KindClass definition in the current namespace, returning its mangled
// target name for use as a `new` class reference.
func (an *Analyzer) registerSynthesizedClass(desc *ClassDesc) (string, error) {
	ns := an.Reg.Current()
	target := Mangle(desc.Name)
	emitted, err := an.Emitter.EmitClass(ns, desc)
	if err != nil {
		return "", err
	}
	an.Reg.Define(ns, desc.Name, &Definition{TargetName: target, Kind: KindClass, Emitted: emitted})
	return target, nil
}
