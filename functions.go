// functions.go — function lowering and invoke-style polymorphic dispatch,
// spec.md §4.3.
//
// Grounded on the teacher's interpreter_ops.go arity-dispatch switch (one
// opcode handler per call arity, falling back to a packed-args handler past
// a fixed cutoff) — the same two-tier "direct for small arities, packed for
// large ones" shape, reused here as a *compile-time* code-generation
// decision instead of a runtime opcode dispatch.
package clojuredart

import (
	"fmt"
	"sort"
	"strconv"
)

// InvokeThreshold is the call-site arity boundary T separating direct
// positional dispatch from packed-rest dispatch, fixed at 10 per spec.md
// §4.3.
const InvokeThreshold = 10

// FnClause is one parsed arity clause of a surface `fn*` form.
type FnClause struct {
	Params   []*Ident
	Variadic *Ident // non-nil when this clause collects a rest argument
	BodyForm []Form
	Pos      Pos
}

// parseFnClauses reads a `fn*` form's tail (after the optional name symbol)
// into one or more arity clauses. Two surface shapes are accepted:
// `(fn* [params...] body...)` (a single clause) and
// `(fn* ([params...] body...) ([params...] body...) ...)` (multiple arities).
func parseFnClauses(tail []Form) ([]FnClause, error) {
	if len(tail) == 0 {
		return nil, fmt.Errorf("fn*: expected at least a parameter vector")
	}
	if _, ok := tail[0].(Vector); ok {
		c, err := parseOneClause(tail)
		if err != nil {
			return nil, err
		}
		return []FnClause{c}, nil
	}
	clauses := make([]FnClause, 0, len(tail))
	for _, f := range tail {
		s, ok := f.(Seq)
		if !ok || len(s.Items) == 0 {
			return nil, fmt.Errorf("fn*: expected (params body...) clause, got %s", Dump(f))
		}
		c, err := parseOneClause(s.Items)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, c)
	}
	return clauses, nil
}

func parseOneClause(items []Form) (FnClause, error) {
	pv, ok := items[0].(Vector)
	if !ok {
		return FnClause{}, fmt.Errorf("fn*: expected a parameter vector, got %s", Dump(items[0]))
	}
	var fixed []*Ident
	var variadic *Ident
	for i := 0; i < len(pv.Items); i++ {
		s, ok := pv.Items[i].(Symbol)
		if !ok {
			return FnClause{}, fmt.Errorf("fn*: parameter %s is not a symbol", Dump(pv.Items[i]))
		}
		if s.Name == "&" {
			if i+1 >= len(pv.Items) {
				return FnClause{}, fmt.Errorf("fn*: '&' must be followed by a rest parameter")
			}
			rs, ok := pv.Items[i+1].(Symbol)
			if !ok {
				return FnClause{}, fmt.Errorf("fn*: rest parameter is not a symbol")
			}
			variadic = &Ident{Name: rs.Name}
			break
		}
		fixed = append(fixed, &Ident{Name: s.Name})
	}
	return FnClause{Params: fixed, Variadic: variadic, BodyForm: items[1:]}, nil
}

// lowerFn analyzes a parsed fn* (name + clauses) against env and returns its
// IR: a plain *IRFn for the common single-fixed-arity, non-variadic case, or
// a synthesized invoke-style class wrapped in an IRNew for everything else.
func (an *Analyzer) lowerFn(env *Env, name string, clauses []FnClause, pos Pos) (IR, error) {
	if len(clauses) == 1 && clauses[0].Variadic == nil {
		return an.lowerSimpleFn(env, name, clauses[0], pos)
	}
	return an.lowerInvokeFn(env, name, clauses, pos)
}

// lowerSimpleFn handles a function with exactly one fixed-arity body.
func (an *Analyzer) lowerSimpleFn(env *Env, name string, c FnClause, pos Pos) (IR, error) {
	fnEnv, params, err := an.bindParams(env, c)
	if err != nil {
		return nil, err
	}
	body, err := an.analyzeFnBody(fnEnv, c.BodyForm, params, nil, pos)
	if err != nil {
		return nil, err
	}
	return &IRFn{base: base{pos: pos, truth: TruthSome}, Params: params, Body: body, Name: name}, nil
}

// bindParams extends env with one clause's parameters (and rest, if any),
// returning the extended env and the IR Params it lowers to.
func (an *Analyzer) bindParams(env *Env, c FnClause) (*Env, Params, error) {
	names := make([]string, 0, len(c.Params)+1)
	ids := make([]*Ident, 0, len(c.Params)+1)
	for _, p := range c.Params {
		p.Name = Mangle(p.Name)
		names = append(names, p.Name)
		ids = append(ids, p)
	}
	if c.Variadic != nil {
		c.Variadic.Name = Mangle(c.Variadic.Name)
		names = append(names, c.Variadic.Name)
		ids = append(ids, c.Variadic)
	}
	fnEnv := env.ExtendAll(names, ids)
	return fnEnv, Params{Fixed: c.Params, Variadic: c.Variadic}, nil
}

// analyzeFnBody analyzes a clause's body forms as an implicit `do`, then
// wraps the result in a loop if `recur` occurs anywhere in tail-reachable
// position (spec.md §4.3's "after lowering a function ... body, if recur
// appears ... wrapped in a loop").
func (an *Analyzer) analyzeFnBody(env *Env, bodyForms []Form, params Params, outerLoop *loopCtx, pos Pos) (IR, error) {
	bodyForm := wrapDo(bodyForms)
	if !containsRecur(bodyForm) {
		return an.withLoopCtx(nil, func() (IR, error) { return an.Analyze(env, bodyForm) })
	}
	ids := append(append([]*Ident{}, params.Fixed...), paramsVariadicSlice(params)...)
	lctx := &loopCtx{arity: len(ids)}
	var body IR
	err := func() error {
		var err error
		body, err = an.withLoopCtx(lctx, func() (IR, error) { return an.Analyze(env, bodyForm) })
		return err
	}()
	if err != nil {
		return nil, err
	}
	bindings := make([]Binding, len(ids))
	for i, id := range ids {
		bindings[i] = Binding{Ident: id, Value: mkIdentRef(pos, id)}
	}
	return &IRLoop{base: base{pos: pos, truth: body.Truthiness()}, Bindings: bindings, Body: body}, nil
}

func paramsVariadicSlice(p Params) []*Ident {
	if p.Variadic == nil {
		return nil
	}
	return []*Ident{p.Variadic}
}

// wrapDo turns a body-form slice into a single form: the lone form itself
// if there is exactly one, otherwise `(do forms...)`.
func wrapDo(forms []Form) Form {
	if len(forms) == 1 {
		return forms[0]
	}
	return Seq{Items: append([]Form{Symbol{Name: "do"}}, forms...)}
}

// containsRecur reports whether form textually contains a `recur`, not
// descending into nested `fn*`/`loop*` (their own recur targets them, not
// the enclosing body).
func containsRecur(form Form) bool {
	s, ok := form.(Seq)
	if !ok || len(s.Items) == 0 {
		return false
	}
	if head, ok := s.Items[0].(Symbol); ok {
		if head.Name == "recur" {
			return true
		}
		if head.Name == "fn*" || head.Name == "loop*" {
			return false
		}
	}
	for _, it := range s.Items {
		if containsRecur(it) {
			return true
		}
	}
	return false
}

// lowerInvokeFn synthesizes the invoke-style polymorphic dispatch class
// described in spec.md §4.3: a single -invoke method covering every fixed
// arity below the threshold (dispatching internally by which optional slot
// was actually filled, the same convention as `call`), -invoke$extN above
// it, a canonical -invoke$vararg for the variadic clause (if any) with
// fixed-arity trampolines folded into -invoke for arities below T (calls
// with T or more arguments reach -invoke$vararg through -invoke-more),
// an -invoke-more overflow method, and a `call` method for the
// optional-parameter calling convention.
func (an *Analyzer) lowerInvokeFn(env *Env, name string, clauses []FnClause, pos Pos) (IR, error) {
	var variadic *FnClause
	fixedByArity := map[int]*FnClause{}
	maxFixed := -1
	for i := range clauses {
		c := &clauses[i]
		if c.Variadic != nil {
			if variadic != nil {
				return nil, fmt.Errorf("fn*: at most one variadic clause is permitted")
			}
			variadic = c
			continue
		}
		fixedByArity[len(c.Params)] = c
		if len(c.Params) > maxFixed {
			maxFixed = len(c.Params)
		}
	}

	className := an.Gensym(nonEmpty(name, "fn"))
	desc := &ClassDesc{
		Name:       className,
		Implements: []string{"IFn"},
	}

	closure := map[string]*Ident{}

	addMethod := func(methodName string, c *FnClause, extraRest *Ident) error {
		fnEnv, params, err := an.bindParams(env, *c)
		if err != nil {
			return err
		}
		if extraRest != nil {
			extraRest.Name = Mangle(extraRest.Name)
			fnEnv = fnEnv.Extend(extraRest.Name, extraRest)
			params.Variadic = extraRest
		}
		body, err := an.analyzeFnBody(fnEnv, c.BodyForm, params, nil, pos)
		if err != nil {
			return err
		}
		for _, id := range freeIdents(body, paramNames(params)) {
			closure[id.Name] = id
		}
		desc.Methods = append(desc.Methods, ClassMethod{Name: Mangle(methodName), Params: params, Body: body})
		return nil
	}

	for arity, c := range fixedByArity {
		if arity < InvokeThreshold {
			continue
		}
		methodName := fmt.Sprintf("-invoke$ext%d", arity)
		if err := addMethod(methodName, c, nil); err != nil {
			return nil, err
		}
	}

	if variadic != nil {
		if err := addMethod("-invoke$vararg", variadic, nil); err != nil {
			return nil, err
		}
	}

	invoke, err := an.invokeMethod(env, fixedByArity, variadic, maxFixed, closure, pos)
	if err != nil {
		return nil, err
	}
	desc.Methods = append(desc.Methods, invoke)

	desc.Methods = append(desc.Methods, invokeMoreMethod(fixedByArity, variadic, pos))
	desc.Methods = append(desc.Methods, callMethod(fixedByArity, variadic, maxFixed, pos))

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
	n := &IRNew{base: base{pos: pos, truth: TruthSome}, Class: mkLiteral(pos, Symbol{Name: target}), Args: ctorArgs}
	return n, nil
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func paramNames(p Params) map[string]bool {
	m := map[string]bool{}
	for _, id := range p.Fixed {
		m[id.Name] = true
	}
	if p.Variadic != nil {
		m[p.Variadic.Name] = true
	}
	return m
}

func base2(pos Pos) base { return base{pos: pos, truth: TruthUnknown} }

// invokeMethod synthesizes the single -invoke method that covers every
// fixed arity below the threshold plus any variadic trampoline arities in
// that range. Dart has no method overloading, so unlike -invoke$extN (one
// arity, one distinct name) this must be one method reached at varying
// argument counts; it reuses callMethod's own convention — optional
// positional slots defaulting to a sentinel, tested high-to-low so the
// highest filled slot wins — to tell which arity a given call actually
// supplied (spec.md §4.3, §8 Scenario 5).
func (an *Analyzer) invokeMethod(env *Env, fixedByArity map[int]*FnClause, variadic *FnClause, maxFixed int, closure map[string]*Ident, pos Pos) (ClassMethod, error) {
	maxArity := -1
	for arity := range fixedByArity {
		if arity < InvokeThreshold && arity > maxArity {
			maxArity = arity
		}
	}
	var varargBase int
	if variadic != nil {
		varargBase = len(variadic.Params)
		top := maxFixed + 1
		if top < InvokeThreshold {
			top = InvokeThreshold
		}
		if top > InvokeThreshold {
			// Arities >= InvokeThreshold never reach -invoke: callMethod and
			// emitInvokeDispatch both route them to -invoke-more instead.
			top = InvokeThreshold
		}
		if top-1 > maxArity {
			maxArity = top - 1
		}
	}
	if maxArity < 0 {
		maxArity = 0
	}

	slots := make([]*Ident, maxArity)
	for i := range slots {
		slots[i] = &Ident{Name: fmt.Sprintf("a%d", i)}
	}

	bodies := map[int]IR{}
	for arity, c := range fixedByArity {
		if arity >= InvokeThreshold {
			continue
		}
		fnEnv, params, err := an.bindParams(env, *c)
		if err != nil {
			return ClassMethod{}, err
		}
		body, err := an.analyzeFnBody(fnEnv, c.BodyForm, params, nil, pos)
		if err != nil {
			return ClassMethod{}, err
		}
		for _, id := range freeIdents(body, paramNames(params)) {
			closure[id.Name] = id
		}
		bindings := make([]Binding, len(c.Params))
		for i, p := range c.Params {
			bindings[i] = Binding{Ident: p, Value: mkIdentRef(pos, slots[i])}
		}
		bodies[arity] = mkLet(pos, bindings, body)
	}

	if variadic != nil && varargBase <= maxArity {
		for arity := varargBase; arity <= maxArity; arity++ {
			if _, exists := bodies[arity]; exists {
				continue
			}
			args := make([]IR, varargBase)
			for i := 0; i < varargBase; i++ {
				args[i] = mkIdentRef(pos, slots[i])
			}
			rest := make([]IR, 0, arity-varargBase)
			for i := varargBase; i < arity; i++ {
				rest = append(rest, mkIdentRef(pos, slots[i]))
			}
			args = append(args, &IRCall{base: base2(pos), Callee: mkIdentRef(pos, &Ident{Name: "$list_of"}), Args: rest, Dispatch: DispatchNative})
			bodies[arity] = &IRMethodCall{base: base2(pos), Object: mkIdentRef(pos, &Ident{Name: "this"}), Member: Mangle("-invoke$vararg"), Args: args}
		}
	}

	sentinel := func() IR { return mkLiteral(pos, Symbol{Name: "$SENTINEL_"}) }
	opts := make([]OptParam, maxArity)
	for i, id := range slots {
		opts[i] = OptParam{Ident: id, Default: sentinel()}
	}

	noMatch := func() IR { return &IRThrow{base: base2(pos), Expr: mkLiteral(pos, String("no matching arity"))} }

	body, ok := bodies[0]
	if !ok {
		body = noMatch()
	}
	for n := 1; n <= maxArity; n++ {
		then, ok := bodies[n]
		if !ok {
			then = noMatch()
		}
		test := &IRMethodCall{base: base2(pos), Object: mkIdentRef(pos, slots[n-1]), Member: "!=", Args: []IR{sentinel()}}
		body = &IRIf{base: base2(pos), Test: test, Then: then, Else: body}
	}

	return ClassMethod{Name: Mangle("-invoke"), Params: Params{OptKind: OptPositional, Opt: opts}, Body: body}, nil
}

// invokeMoreMethod synthesizes -invoke-more: it receives T-1 positionals
// plus a packed rest and redispatches by the rest list's actual runtime
// length, either to the matching -invoke$ext or by unpacking into
// -invoke$vararg (spec.md §4.3).
func invokeMoreMethod(fixedByArity map[int]*FnClause, variadic *FnClause, pos Pos) ClassMethod {
	params := make([]*Ident, InvokeThreshold-1)
	for i := range params {
		params[i] = &Ident{Name: fmt.Sprintf("a%d", i)}
	}
	restIdent := &Ident{Name: "more"}
	moreRef := mkIdentRef(pos, restIdent)
	lengthRead := &IRFieldRead{base: base2(pos), Object: moreRef, Field: "length"}

	extArities := make([]int, 0, len(fixedByArity))
	for arity := range fixedByArity {
		if arity >= InvokeThreshold {
			extArities = append(extArities, arity)
		}
	}
	sort.Ints(extArities)

	var body IR
	switch {
	case variadic != nil:
		body = redispatchToVararg(variadic, params, moreRef, pos)
	default:
		body = &IRThrow{base: base2(pos), Expr: mkLiteral(pos, String("no matching arity"))}
	}

	// Each ext arity gets its own length check, most-specific first, so an
	// exact match always wins over falling through to the vararg/throw
	// default.
	for i := len(extArities) - 1; i >= 0; i-- {
		arity := extArities[i]
		overflow := arity - (InvokeThreshold - 1)
		test := &IRMethodCall{base: base2(pos), Object: lengthRead, Member: "==", Args: []IR{mkLiteral(pos, Number{Text: strconv.Itoa(overflow)})}}
		args := identRefs(pos, params)
		for j := 0; j < overflow; j++ {
			args = append(args, &IRMethodCall{base: base2(pos), Object: moreRef, Member: "[]", Args: []IR{mkLiteral(pos, Number{Text: strconv.Itoa(j)})}})
		}
		call := &IRMethodCall{base: base2(pos), Object: mkIdentRef(pos, &Ident{Name: "this"}), Member: Mangle(fmt.Sprintf("-invoke$ext%d", arity)), Args: args}
		body = &IRIf{base: base2(pos), Test: test, Then: call, Else: body}
	}

	return ClassMethod{Name: Mangle("-invoke-more"), Params: Params{Fixed: params, Variadic: restIdent}, Body: body}
}

// redispatchToVararg unpacks -invoke-more's T-1 positionals and packed rest
// into a call to -invoke$vararg: the positionals up to the variadic
// clause's own base arity pass through directly, and everything past that
// (the remaining positionals, plus the packed rest) is concatenated into
// one list. This assumes the variadic clause's base arity does not exceed
// T-1, the uncommon case of a rest parameter appearing at or past the
// invoke-threshold boundary.
func redispatchToVararg(variadic *FnClause, params []*Ident, moreRef *IRIdentRef, pos Pos) IR {
	base := len(variadic.Params)
	if base > len(params) {
		base = len(params)
	}
	args := identRefs(pos, params[:base])
	extra := &IRCall{base: base2(pos), Callee: mkIdentRef(pos, &Ident{Name: "$list_of"}), Args: identRefs(pos, params[base:]), Dispatch: DispatchNative}
	combined := &IRMethodCall{base: base2(pos), Object: extra, Member: "followedBy", Args: []IR{moreRef}}
	combinedList := &IRMethodCall{base: base2(pos), Object: combined, Member: "toList", Args: nil}
	args = append(args, combinedList)
	return &IRMethodCall{base: base2(pos), Object: mkIdentRef(pos, &Ident{Name: "this"}), Member: Mangle("-invoke$vararg"), Args: args}
}

// identRefs builds one IRIdentRef per ident in order.
func identRefs(pos Pos, ids []*Ident) []IR {
	out := make([]IR, len(ids))
	for i, id := range ids {
		out[i] = mkIdentRef(pos, id)
	}
	return out
}

// callMethod synthesizes the `call` method: a single positional+optional
// entry point that chooses the matching arity at runtime by comparing each
// optional slot against a sentinel default value, descending from the
// highest arity so the first filled slot from the top wins (spec.md §4.3).
func callMethod(fixedByArity map[int]*FnClause, variadic *FnClause, maxFixed int, pos Pos) ClassMethod {
	maxArity := maxFixed
	if variadic != nil {
		top := maxFixed + 1
		if top < InvokeThreshold {
			top = InvokeThreshold
		}
		if top-1 > maxArity {
			maxArity = top - 1
		}
	}
	if maxArity < 0 {
		maxArity = 0
	}
	params := make([]*Ident, maxArity)
	opts := make([]OptParam, 0, maxArity)
	sentinel := func() IR { return mkLiteral(pos, Symbol{Name: "$SENTINEL_"}) }
	for i := 0; i < maxArity; i++ {
		id := &Ident{Name: fmt.Sprintf("a%d", i)}
		params[i] = id
		opts = append(opts, OptParam{Ident: id, Default: sentinel()})
	}

	dispatchFor := func(n int) IR {
		args := identRefs(pos, params[:n])
		this := mkIdentRef(pos, &Ident{Name: "this"})
		if n < InvokeThreshold {
			return &IRMethodCall{base: base2(pos), Object: this, Member: Mangle("-invoke"), Args: args}
		}
		head := append([]IR{}, args[:InvokeThreshold-1]...)
		rest := &IRCall{base: base2(pos), Callee: mkIdentRef(pos, &Ident{Name: "$list_of"}), Args: args[InvokeThreshold-1:], Dispatch: DispatchNative}
		return &IRMethodCall{base: base2(pos), Object: this, Member: Mangle("-invoke-more"), Args: append(head, rest)}
	}

	body := dispatchFor(0)
	for n := 1; n <= maxArity; n++ {
		test := &IRMethodCall{base: base2(pos), Object: mkIdentRef(pos, params[n-1]), Member: "!=", Args: []IR{sentinel()}}
		body = &IRIf{base: base2(pos), Test: test, Then: dispatchFor(n), Else: body}
	}

	return ClassMethod{Name: Mangle("call"), Params: Params{OptKind: OptPositional, Opt: opts}, Body: body}
}
