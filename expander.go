// expander.go — Macro Expander (MX), spec.md §4.2.
//
// Grounded on the teacher's std_core.go native-registration convention: a
// flat map from name to a uniformly-shaped Go function is the teacher's own
// pattern for "the closed set of things this runtime understands by name"
// (there, native builtins; here, the closed macro table). We reuse that
// shape (map[string]macroFn) instead of inventing a plugin/registration API,
// since spec.md §9 states the macro set is closed — no user-defined macros
// outside this set exist.
package clojuredart

// specialForms is the fixed set of head symbols that MX leaves untouched,
// per spec.md §4.2.
var specialForms = map[string]bool{
	".": true, "set!": true, "throw": true, "new": true, "ns": true,
	"try": true, "case*": true, "quote": true, "do": true, "let*": true,
	"loop*": true, "recur": true, "if": true, "fn*": true, "def": true,
	"reify*": true, "deftype*": true, "is?": true,
}

// macroFn implements one built-in macro: a rewrite over the form's tail,
// applied with an empty lexical environment (spec.md §4.2: "macros must be
// written to be environment-independent").
type macroFn func(mx *Expander, args []Form) (Form, error)

// builtinMacros is the closed macro table MX owns, per spec.md §4.2's list:
// ns, reify, deftype, definterface, defprotocol, case, are, is, testing,
// deftest, try-expr, defrunner-main. Implementations live in macros.go.
//
// "ns" is in that list but not in this table: Expand1 already treats it as a
// fixed special form (see specialForms above) and returns it untouched
// before macro lookup ever runs, so AN analyzes `ns` forms directly and
// updates NR itself rather than going through a rewrite. That is the one
// name in spec.md §4.2's macro list that never reaches resolveMacro.
var builtinMacros = map[string]macroFn{
	"reify":          macroReify,
	"deftype":        macroDeftype,
	"definterface":   macroDefinterface,
	"defprotocol":    macroDefprotocol,
	"case":           macroCase,
	"are":            macroAre,
	"is":             macroIs,
	"testing":        macroTesting,
	"deftest":        macroDeftest,
	"try-expr":       macroTryExpr,
	"defrunner-main": macroDefrunnerMain,
}

// Expander holds the state one expand/expand1 pass needs: the registry
// (passed on to macros such as defprotocol that record into it). Macro
// lookup itself uses only the built-in table; there is no hook for macros
// whose expansion is hosted in the target language.
type Expander struct {
	Reg *Registry
}

// NewExpander constructs an Expander bound to reg.
func NewExpander(reg *Registry) *Expander { return &Expander{Reg: reg} }

// shadowed reports whether env binds sym — MX must not treat a shadowed
// special/macro name as anything but a plain call, per spec.md §4.2.
func shadowed(env *Env, sym Symbol) bool {
	if env == nil {
		return false
	}
	_, ok := env.Lookup(sym.Name)
	return ok
}

// Expand1 applies one layer of rewriting, per spec.md §4.2's contract.
func (mx *Expander) Expand1(env *Env, form Form) (Form, error) {
	sym, ok := HeadSymbol(form)
	if !ok {
		return form, nil
	}
	if shadowed(env, sym) {
		return form, nil
	}
	if specialForms[sym.Name] {
		return form, nil
	}
	if sym.NS == "" && len(sym.Name) > 1 && sym.Name[len(sym.Name)-1] == '.' {
		className := Symbol{Name: sym.Name[:len(sym.Name)-1]}
		return Seq{Items: append([]Form{Symbol{Name: "new"}, className}, Tail(form)...)}, nil
	}
	if sym.NS == "" && len(sym.Name) > 1 && sym.Name[0] == '.' {
		methodName := sym.Name[1:]
		tail := Tail(form)
		if len(tail) == 0 {
			return form, nil
		}
		obj := tail[0]
		rest := tail[1:]
		args := append([]Form{Symbol{Name: "."}, obj, Symbol{Name: methodName}}, rest...)
		return Seq{Items: args}, nil
	}
	if macro, ok := mx.resolveMacro(sym); ok {
		return macro(mx, Tail(form))
	}
	return form, nil
}

// resolveMacro looks up a macro bound to sym in the built-in table. Only a
// symbol with no namespace can name a macro; a namespace-qualified head such
// as `(my.ns/case ...)` is never expanded, whatever `my.ns` aliases.
func (mx *Expander) resolveMacro(sym Symbol) (macroFn, bool) {
	if sym.NS == "" {
		if fn, ok := builtinMacros[sym.Name]; ok {
			return fn, true
		}
		return nil, false
	}
	return nil, false
}

// Expand repeatedly applies Expand1 until a fixpoint is reached, per
// spec.md §4.2's `expand(env, form) = fixpoint(expand1)`.
func (mx *Expander) Expand(env *Env, form Form) (Form, error) {
	for {
		next, err := mx.Expand1(env, form)
		if err != nil {
			return nil, err
		}
		if Equal(next, form) {
			return next, nil
		}
		form = next
	}
}
