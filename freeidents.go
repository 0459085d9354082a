// freeidents.go — free-identifier computation for closure sets, spec.md
// §4.3: "closure is computed as the set of free identifiers in the method
// bodies minus parameters and this."
package clojuredart

// freeIdents walks ir and returns every *Ident referenced by an IRIdentRef
// whose name is not in bound (the method's own parameters/locals) and is
// not "this".
func freeIdents(ir IR, bound map[string]bool) []*Ident {
	seen := map[string]*Ident{}
	var walk func(n IR, bound map[string]bool)
	extend := func(b map[string]bool, names ...string) map[string]bool {
		nb := make(map[string]bool, len(b)+len(names))
		for k := range b {
			nb[k] = true
		}
		for _, n := range names {
			nb[n] = true
		}
		return nb
	}
	walk = func(n IR, bound map[string]bool) {
		if n == nil {
			return
		}
		switch v := n.(type) {
		case *IRLiteral:
		case *IRIdentRef:
			if v.Ident != nil && v.Ident.Name != "this" && !bound[v.Ident.Name] {
				seen[v.Ident.Name] = v.Ident
			}
		case *IRLet:
			b := bound
			for _, bind := range v.Bindings {
				walk(bind.Value, b)
				if bind.Ident != nil {
					b = extend(b, bind.Ident.Name)
				}
			}
			walk(v.Body, b)
		case *IRIf:
			walk(v.Test, bound)
			walk(v.Then, bound)
			walk(v.Else, bound)
		case *IRLoop:
			b := bound
			for _, bind := range v.Bindings {
				walk(bind.Value, b)
				if bind.Ident != nil {
					b = extend(b, bind.Ident.Name)
				}
			}
			walk(v.Body, b)
		case *IRRecur:
			for _, a := range v.Args {
				walk(a, bound)
			}
		case *IRFn:
			names := make([]string, 0, len(v.Params.Fixed)+1)
			for _, p := range v.Params.Fixed {
				names = append(names, p.Name)
			}
			if v.Params.Variadic != nil {
				names = append(names, v.Params.Variadic.Name)
			}
			walk(v.Body, extend(bound, names...))
		case *IRCase:
			walk(v.Scrutinee, bound)
			for _, c := range v.Clauses {
				walk(c.Body, bound)
			}
			walk(v.Default, bound)
		case *IRTry:
			walk(v.Body, bound)
			for _, c := range v.Catches {
				b := bound
				if c.ExnIdent != nil {
					b = extend(b, c.ExnIdent.Name)
				}
				if c.StackIdent != nil {
					b = extend(b, c.StackIdent.Name)
				}
				walk(c.Body, b)
			}
			walk(v.Finally, bound)
		case *IRThrow:
			walk(v.Expr, bound)
		case *IRMethodCall:
			walk(v.Object, bound)
			for _, a := range v.Args {
				walk(a, bound)
			}
		case *IRFieldRead:
			walk(v.Object, bound)
		case *IRSet:
			if v.Target.Ident != nil && !bound[v.Target.Ident.Name] && v.Target.Ident.Name != "this" {
				seen[v.Target.Ident.Name] = v.Target.Ident
			}
			if v.Target.Field != nil {
				walk(v.Target.Field, bound)
			}
			walk(v.Value, bound)
		case *IRNew:
			walk(v.Class, bound)
			for _, a := range v.Args {
				walk(a, bound)
			}
			for _, na := range v.NamedArgs {
				walk(na.Arg, bound)
			}
		case *IRIs:
			walk(v.Expr, bound)
		case *IRAs:
			walk(v.Expr, bound)
		case *IRCall:
			walk(v.Callee, bound)
			for _, a := range v.Args {
				walk(a, bound)
			}
			for _, na := range v.NamedArgs {
				walk(na.Arg, bound)
			}
		}
	}
	walk(ir, bound)
	idents := make([]*Ident, 0, len(seen))
	for _, id := range seen {
		idents = append(idents, id)
	}
	return idents
}
