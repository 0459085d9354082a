// classes.go — reify*/deftype* class assembly, spec.md §4.3's "yields a
// class description" paragraph. Consumes the structured forms macros.go's
// macroReify/macroDeftype/macroDefinterface synthesize.
package clojuredart

import "fmt"

// analyzeReify assembles a ClassDesc for `(reify* [implements...] superCtor
// (methodDefs...))`. Its field set is the closure computed from its method
// bodies' free identifiers (spec.md §4.3), not a user-declared field list.
func (an *Analyzer) analyzeReify(env *Env, pos Pos, tail []Form) (IR, error) {
	if len(tail) != 3 {
		return nil, fmt.Errorf("reify*: malformed form")
	}
	implementsVec, ok := tail[0].(Vector)
	if !ok {
		return nil, fmt.Errorf("reify*: expected an implements vector")
	}
	methodsSeq, ok := tail[2].(Seq)
	if !ok {
		return nil, fmt.Errorf("reify*: expected a methods seq")
	}

	desc := &ClassDesc{Name: an.Gensym("reify"), Implements: symbolNames(implementsVec.Items)}

	closure := map[string]*Ident{}
	methods, err := an.parseMethodDefs(env, methodsSeq, closure)
	if err != nil {
		return nil, err
	}
	desc.Methods = methods

	if implementsNeedsNoSuchMethod(desc.Implements) && !hasMethod(methods, "noSuchMethod") {
		desc.NeedNoSuchMethod = true
	}

	fields := make([]string, 0, len(closure))
	for n := range closure {
		fields = append(fields, n)
	}
	desc.Fields = fields
	desc.ClosureIdents = closure

	target, err := an.registerSynthesizedClass(desc)
	if err != nil {
		return nil, err
	}
	ctorArgs := make([]IR, 0, len(fields))
	for _, n := range fields {
		ctorArgs = append(ctorArgs, mkIdentRef(pos, closure[n]))
	}
	return &IRNew{base: base2(pos), Class: mkLiteral(pos, Symbol{Name: target}), Args: ctorArgs}, nil
}

// analyzeDeftype assembles and registers a ClassDesc for
// `(deftype* Name [fieldSpecs...] extends [implements...] [mixins...]
// superCtor (methodDefs...))`, then defines the automatic `->Name`
// constructor factory spec.md §4.2 requires.
func (an *Analyzer) analyzeDeftype(env *Env, pos Pos, tail []Form) (IR, error) {
	if len(tail) != 7 {
		return nil, fmt.Errorf("deftype*: malformed form")
	}
	name, ok := tail[0].(Symbol)
	if !ok {
		return nil, fmt.Errorf("deftype*: expected a name symbol")
	}
	fieldsVec, ok := tail[1].(Vector)
	if !ok {
		return nil, fmt.Errorf("deftype*: expected a field-spec vector")
	}
	implementsVec, ok := tail[3].(Vector)
	if !ok {
		return nil, fmt.Errorf("deftype*: expected an implements vector")
	}
	mixinsVec, ok := tail[4].(Vector)
	if !ok {
		return nil, fmt.Errorf("deftype*: expected a mixins vector")
	}
	methodsSeq, ok := tail[6].(Seq)
	if !ok {
		return nil, fmt.Errorf("deftype*: expected a methods seq")
	}

	var extends string
	if s, ok := tail[2].(Symbol); ok {
		extends = Mangle(s.Name)
	}

	fields := make([]string, 0, len(fieldsVec.Items))
	mutable := map[string]bool{}
	for _, f := range fieldsVec.Items {
		fv, ok := f.(Vector)
		if !ok || len(fv.Items) == 0 {
			return nil, fmt.Errorf("deftype*: malformed field spec %s", Dump(f))
		}
		fs, ok := fv.Items[0].(Symbol)
		if !ok {
			return nil, fmt.Errorf("deftype*: field name must be a symbol")
		}
		target := Mangle(fs.Name)
		fields = append(fields, target)
		if len(fv.Items) > 1 {
			if k, ok := fv.Items[1].(Keyword); ok && k.Name == "mutable" {
				mutable[target] = true
			}
		}
	}

	desc := &ClassDesc{
		Name:          name.Name,
		Extends:       extends,
		Implements:    symbolNames(implementsVec.Items),
		Mixins:        symbolNames(mixinsVec.Items),
		Fields:        fields,
		MutableFields: mutable,
		CtorParams:    fields,
	}

	if sc, ok := tail[5].(Seq); ok {
		args, err := an.analyzeAll(env, sc.Items)
		if err != nil {
			return nil, err
		}
		desc.SuperCtor = &SuperCtorCall{Args: args}
	}

	methods, err := an.parseMethodDefs(env, methodsSeq, nil)
	if err != nil {
		return nil, err
	}
	desc.Methods = methods

	if implementsNeedsNoSuchMethod(desc.Implements) && !hasMethod(methods, "noSuchMethod") {
		desc.NeedNoSuchMethod = true
	}

	target, err := an.registerSynthesizedClass(desc)
	if err != nil {
		return nil, err
	}

	an.defineConstructorFactory(name.Name, target, fields)

	return mkLiteral(pos, Nil{}), nil
}

// defineConstructorFactory registers the `->Name` top-level function
// spec.md §4.2 mandates: a plain positional wrapper around `new Name(...)`.
func (an *Analyzer) defineConstructorFactory(sourceName, target string, fields []string) {
	ns := an.Reg.Current()
	factoryName := "->" + sourceName
	factoryTarget := Mangle(factoryName)
	params := make([]*Ident, len(fields))
	args := make([]IR, len(fields))
	for i, f := range fields {
		params[i] = &Ident{Name: f}
		args[i] = mkIdentRef(Pos{}, params[i])
	}
	body := &IRNew{base: base2(Pos{}), Class: mkLiteral(Pos{}, Symbol{Name: target}), Args: args}
	fn := &IRFn{base: base2(Pos{}), Params: Params{Fixed: params}, Body: body, Name: factoryTarget}
	emitted, err := an.Emitter.EmitTopLevelFn(ns, factoryTarget, fn)
	if err != nil {
		return
	}
	an.Reg.Define(ns, factoryName, &Definition{TargetName: factoryTarget, Kind: KindDartFn, Emitted: emitted})
}

// parseMethodDefs lowers a `(methodDef...)` seq into ClassMethods. Each
// methodDef is `(kindKeyword nameSymbol paramsVector body...)`, produced by
// macros.go's methodDefFrom. Free identifiers of each method body (minus
// its own parameters) are accumulated into closure, when non-nil, for
// reify's closure-set computation.
func (an *Analyzer) parseMethodDefs(env *Env, methodsSeq Seq, closure map[string]*Ident) ([]ClassMethod, error) {
	methods := make([]ClassMethod, 0, len(methodsSeq.Items))
	for _, m := range methodsSeq.Items {
		s, ok := m.(Seq)
		if !ok || len(s.Items) < 3 {
			return nil, fmt.Errorf("malformed method definition %s", Dump(m))
		}
		kindKw, ok := s.Items[0].(Keyword)
		if !ok {
			return nil, fmt.Errorf("method definition missing kind keyword")
		}
		nameSym, ok := s.Items[1].(Symbol)
		if !ok {
			return nil, fmt.Errorf("method name must be a symbol")
		}
		paramsVec, ok := s.Items[2].(Vector)
		if !ok {
			return nil, fmt.Errorf("method %s missing parameter vector", nameSym.Name)
		}

		names := make([]string, 0, len(paramsVec.Items))
		ids := make([]*Ident, 0, len(paramsVec.Items))
		for _, p := range paramsVec.Items {
			ps, ok := p.(Symbol)
			if !ok {
				return nil, fmt.Errorf("method %s has a non-symbol parameter", nameSym.Name)
			}
			id := &Ident{Name: Mangle(ps.Name)}
			if ps.Name == "this" {
				id.Name = "this"
			}
			names = append(names, ps.Name)
			ids = append(ids, id)
		}

		kind := MethodPlain
		if kindKw.Name == "abstract" {
			kind = MethodAbstract
		}
		if an.Meta != nil {
			if _, ok := an.Meta.Get(nameSym, Keyword{Name: "get"}); ok {
				kind = MethodGetter
			} else if _, ok := an.Meta.Get(nameSym, Keyword{Name: "set"}); ok {
				kind = MethodSetter
			}
		}

		var bodyIR IR
		if kind != MethodAbstract {
			methodEnv := env.ExtendAll(names, ids)
			bodyForm := wrapDo(s.Items[3:])
			var err error
			bodyIR, err = func() (IR, error) {
				if containsRecur(bodyForm) {
					return nil, fmt.Errorf("method %s: recur has no enclosing loop", nameSym.Name)
				}
				return an.Analyze(methodEnv, bodyForm)
			}()
			if err != nil {
				return nil, err
			}
			if closure != nil {
				bound := map[string]bool{}
				for _, id := range ids {
					bound[id.Name] = true
				}
				for _, id := range freeIdents(bodyIR, bound) {
					closure[id.Name] = id
				}
			}
		}

		methodName := nameSym.Name
		if !isOperatorMethodName(methodName) {
			methodName = Mangle(methodName)
		}
		methods = append(methods, ClassMethod{Name: methodName, Kind: kind, Params: Params{Fixed: ids}, Body: bodyIR})
	}
	return methods, nil
}

func symbolNames(forms []Form) []string {
	out := make([]string, 0, len(forms))
	for _, f := range forms {
		if s, ok := f.(Symbol); ok {
			out = append(out, Mangle(s.Name))
		}
	}
	return out
}

func hasMethod(methods []ClassMethod, name string) bool {
	for _, m := range methods {
		if m.Name == name {
			return true
		}
	}
	return false
}

// implementsNeedsNoSuchMethod reports whether this class implements any
// interface at all — per spec.md §4.3, "when the class implements any
// interface but defines no noSuchMethod, one is synthesized that delegates
// to the parent."
func implementsNeedsNoSuchMethod(implements []string) bool {
	return len(implements) > 0
}
